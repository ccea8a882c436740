// internal/api/frames.go
package api

import (
	"encoding/base64"
	"math"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/signbridge-go/internal/translation"
)

// initFrameRoutes registers the frame submission endpoint
func (c *Controller) initFrameRoutes() {
	c.Group.POST("/frames", c.SubmitFrame)
}

// SubmitFrameRequest carries one camera frame for classification.
type SubmitFrameRequest struct {
	SessionID    uint   `json:"session_id"`
	Frame        string `json:"frame"`         // base64, optionally data-URI prefixed
	SignLanguage string `json:"sign_language"` // variant code, defaults to ASL
}

// FrameAcceptedResponse is returned when a classification passes the
// acceptance threshold. ConfidenceScore is surfaced on a 0-100 scale here,
// unlike the stored 0-1 value.
type FrameAcceptedResponse struct {
	Status          string  `json:"status"`
	RecordID        uint    `json:"record_id"`
	DetectedSign    string  `json:"detected_sign"`
	TranslatedText  string  `json:"translated_text"`
	ConfidenceScore float64 `json:"confidence_score"`
	Description     string  `json:"description"`
}

// FrameLowConfidenceResponse tells the client to prompt a retry rather
// than show an error banner.
type FrameLowConfidenceResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// SubmitFrame handles POST /frames: decode the frame, run the
// classification pipeline, and surface the outcome.
func (c *Controller) SubmitFrame(ctx echo.Context) error {
	var req SubmitFrameRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}
	if req.Frame == "" || req.SessionID == 0 {
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing frame or session_id"})
	}
	if req.SignLanguage == "" {
		req.SignLanguage = "ASL"
	}

	image, err := decodeFrame(req.Frame)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "frame is not valid base64"})
	}

	outcome, err := c.Manager.SubmitFrame(ctx.Request().Context(), req.SessionID, image, req.SignLanguage)
	if err != nil {
		return c.handleError(ctx, err)
	}

	if outcome.Status == translation.OutcomeLowConfidence {
		return ctx.JSON(http.StatusOK, FrameLowConfidenceResponse{
			Status:  "low_confidence",
			Message: "No clear sign detected",
		})
	}

	return ctx.JSON(http.StatusOK, FrameAcceptedResponse{
		Status:          "success",
		RecordID:        outcome.Record.ID,
		DetectedSign:    outcome.Record.DetectedSign,
		TranslatedText:  outcome.Record.TranslatedText,
		ConfidenceScore: toPercent(outcome.Record.ConfidenceScore),
		Description:     outcome.Result.Description,
	})
}

// decodeFrame strips an optional data-URI prefix and decodes the base64
// payload.
func decodeFrame(frame string) ([]byte, error) {
	if idx := strings.Index(frame, ","); idx >= 0 {
		frame = frame[idx+1:]
	}
	return base64.StdEncoding.DecodeString(frame)
}

// toPercent converts a 0-1 confidence to a 0-100 value rounded to one
// decimal place.
func toPercent(confidence float64) float64 {
	return math.Round(confidence*1000) / 10
}
