// internal/api/feedback.go
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// initFeedbackRoutes registers the feedback endpoint
func (c *Controller) initFeedbackRoutes() {
	c.Group.POST("/feedback", c.SubmitFeedback)
}

// SubmitFeedbackRequest rates a translation record. A nil Rating applies
// the documented default of 3.
type SubmitFeedbackRequest struct {
	RecordID           uint   `json:"record_id"`
	Rating             *int   `json:"rating"`
	CorrectTranslation string `json:"correct_translation"`
	Comment            string `json:"comment"`
}

// SubmitFeedback handles POST /feedback.
func (c *Controller) SubmitFeedback(ctx echo.Context) error {
	var req SubmitFeedbackRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}
	if req.RecordID == 0 {
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing record_id"})
	}

	_, err := c.Manager.SubmitFeedback(req.RecordID, currentPrincipal(ctx), req.Rating, req.CorrectTranslation, req.Comment)
	if err != nil {
		return c.handleError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "Thank you for the feedback!",
	})
}
