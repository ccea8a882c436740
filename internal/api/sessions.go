// internal/api/sessions.go
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/signbridge-go/internal/datastore"
)

// initSessionRoutes registers all session-related API endpoints
func (c *Controller) initSessionRoutes() {
	c.Group.POST("/sessions", c.OpenSession)
	c.Group.POST("/sessions/end", c.EndSession)
	c.Group.GET("/sessions", c.ListSessions)
	c.Group.GET("/sessions/:id/records", c.GetSessionRecords)
	c.Group.GET("/health", c.Health)
}

// OpenSessionRequest carries the optional device description.
type OpenSessionRequest struct {
	DeviceInfo string `json:"device_info"`
}

// SessionResponse represents a session in API responses
type SessionResponse struct {
	SessionID  uint       `json:"session_id"`
	User       *string    `json:"user,omitempty"`
	Language   string     `json:"language,omitempty"`
	Status     string     `json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
	DeviceInfo string     `json:"device_info,omitempty"`
}

func sessionResponse(session *datastore.TranslationSession) SessionResponse {
	resp := SessionResponse{
		SessionID:  session.ID,
		User:       session.UserID,
		Status:     session.Status,
		StartedAt:  session.StartedAt,
		EndedAt:    session.EndedAt,
		DeviceInfo: session.DeviceInfo,
	}
	if session.SignLanguage != nil {
		resp.Language = session.SignLanguage.Code
	}
	return resp
}

// OpenSession handles POST /sessions. One session per camera view-load;
// anonymous users get sessions too.
func (c *Controller) OpenSession(ctx echo.Context) error {
	var req OpenSessionRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}
	if req.DeviceInfo == "" {
		req.DeviceInfo = ctx.Request().UserAgent()
	}

	session, err := c.Manager.OpenSession(currentPrincipal(ctx), req.DeviceInfo)
	if err != nil {
		return c.handleError(ctx, err)
	}
	return ctx.JSON(http.StatusCreated, sessionResponse(&session))
}

// EndSessionRequest identifies the session to close.
type EndSessionRequest struct {
	SessionID uint `json:"session_id"`
}

// EndSession handles POST /sessions/end. Closing an already closed session
// succeeds and re-stamps the end time.
func (c *Controller) EndSession(ctx echo.Context) error {
	var req EndSessionRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}
	if req.SessionID == 0 {
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing session_id"})
	}

	if err := c.Manager.CloseSession(req.SessionID); err != nil {
		return c.handleError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// PaginatedResponse represents a paginated API response
type PaginatedResponse struct {
	Data   interface{} `json:"data"`
	Total  int64       `json:"total"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}

// ListSessions handles GET /sessions with optional status, language, user
// and pagination query parameters. Newest sessions come first.
func (c *Controller) ListSessions(ctx echo.Context) error {
	limit, _ := strconv.Atoi(ctx.QueryParam("limit"))
	offset, _ := strconv.Atoi(ctx.QueryParam("offset"))
	if limit <= 0 {
		limit = 20
	} else if limit > 200 {
		limit = 200
	}

	filter := datastore.SessionFilter{
		Status:       ctx.QueryParam("status"),
		LanguageCode: ctx.QueryParam("language"),
		Limit:        limit,
		Offset:       offset,
	}
	// "me" scopes the listing to the authenticated principal
	if ctx.QueryParam("user") == "me" {
		principal := currentPrincipal(ctx)
		if principal == nil {
			return ctx.JSON(http.StatusOK, PaginatedResponse{Data: []SessionResponse{}, Limit: limit, Offset: offset})
		}
		filter.UserID = *principal
	}

	sessions, total, err := c.DS.SearchSessions(filter)
	if err != nil {
		return c.handleError(ctx, err)
	}

	data := make([]SessionResponse, 0, len(sessions))
	for i := range sessions {
		data = append(data, sessionResponse(&sessions[i]))
	}
	return ctx.JSON(http.StatusOK, PaginatedResponse{
		Data:   data,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// RecordResponse represents a translation record in API responses
type RecordResponse struct {
	RecordID        uint      `json:"record_id"`
	DetectedSign    string    `json:"detected_sign"`
	TranslatedText  string    `json:"translated_text"`
	ConfidenceScore float64   `json:"confidence_score"` // 0-1 in listings
	CreatedAt       time.Time `json:"created_at"`
}

// GetSessionRecords handles GET /sessions/:id/records.
func (c *Controller) GetSessionRecords(ctx echo.Context) error {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid session id"})
	}

	// Verify the session exists before listing
	if _, err := c.DS.GetSession(uint(id)); err != nil {
		return c.handleError(ctx, err)
	}

	limit, _ := strconv.Atoi(ctx.QueryParam("limit"))
	offset, _ := strconv.Atoi(ctx.QueryParam("offset"))

	records, err := c.DS.SessionRecords(uint(id), limit, offset)
	if err != nil {
		return c.handleError(ctx, err)
	}

	data := make([]RecordResponse, 0, len(records))
	for i := range records {
		data = append(data, RecordResponse{
			RecordID:        records[i].ID,
			DetectedSign:    records[i].DetectedSign,
			TranslatedText:  records[i].TranslatedText,
			ConfidenceScore: records[i].ConfidenceScore,
			CreatedAt:       records[i].CreatedAt,
		})
	}
	return ctx.JSON(http.StatusOK, data)
}
