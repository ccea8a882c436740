// api_test.go: end-to-end handler tests for the v1 endpoints.
package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/signbridge-go/internal/conf"
	"github.com/tphakala/signbridge-go/internal/datastore"
	"github.com/tphakala/signbridge-go/internal/gateway"
	"github.com/tphakala/signbridge-go/internal/mediastore"
	"github.com/tphakala/signbridge-go/internal/translation"
)

// stubClassifier returns a fixed classification.
type stubClassifier struct {
	result gateway.Result
}

func (s *stubClassifier) Classify(_ context.Context, _ []byte, _ string) (gateway.Result, error) {
	return s.result, nil
}

type testEnv struct {
	controller *Controller
	classifier *stubClassifier
	store      datastore.Interface
}

func setupTestEnvironment(t *testing.T) *testEnv {
	t.Helper()

	settings := &conf.Settings{}
	settings.Database.SQLite.Enabled = true
	settings.Database.SQLite.Path = filepath.Join(t.TempDir(), "api.db")

	store := datastore.New(settings)
	require.NoError(t, store.Open())
	t.Cleanup(func() { _ = store.Close() })

	media, err := mediastore.New(t.TempDir())
	require.NoError(t, err)

	classifier := &stubClassifier{
		result: gateway.Result{
			DetectedSign:    "Hello",
			TranslatedText:  "Hello!",
			ConfidenceScore: 0.92,
			Description:     "Open hand wave near face",
		},
	}

	manager := translation.NewManager(store, classifier, media, nil)
	require.NoError(t, manager.EnsureSeeded())

	controller := New(settings, store, manager, nil)
	return &testEnv{controller: controller, classifier: classifier, store: store}
}

// doJSON runs a request through the full echo stack and decodes the response.
func (env *testEnv) doJSON(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *strings.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(data))
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	env.controller.Echo.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func frameB64() string {
	return base64.StdEncoding.EncodeToString([]byte("jpeg-bytes"))
}

func (env *testEnv) openSession(t *testing.T) uint {
	t.Helper()
	rec, body := env.doJSON(t, http.MethodPost, "/api/v1/sessions", map[string]any{"device_info": "test-agent"})
	require.Equal(t, http.StatusCreated, rec.Code)
	return uint(body["session_id"].(float64))
}

func TestSubmitFrameAcceptedEndToEnd(t *testing.T) {
	env := setupTestEnvironment(t)
	sessionID := env.openSession(t)

	rec, body := env.doJSON(t, http.MethodPost, "/api/v1/frames", map[string]any{
		"session_id":    sessionID,
		"frame":         frameB64(),
		"sign_language": "ASL",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "Hello", body["detected_sign"])
	assert.Equal(t, "Hello!", body["translated_text"])
	// Stored as 0.92, surfaced on the 0-100 scale
	assert.InDelta(t, 92.0, body["confidence_score"].(float64), 0.0001)
	assert.NotZero(t, body["record_id"])

	count, err := env.store.CountRecords()
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestSubmitFrameDataURIPrefix(t *testing.T) {
	env := setupTestEnvironment(t)
	sessionID := env.openSession(t)

	rec, body := env.doJSON(t, http.MethodPost, "/api/v1/frames", map[string]any{
		"session_id": sessionID,
		"frame":      "data:image/jpeg;base64," + frameB64(),
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", body["status"])
}

func TestSubmitFrameLowConfidenceEndToEnd(t *testing.T) {
	env := setupTestEnvironment(t)
	env.classifier.result.ConfidenceScore = 0.15
	sessionID := env.openSession(t)

	rec, body := env.doJSON(t, http.MethodPost, "/api/v1/frames", map[string]any{
		"session_id": sessionID,
		"frame":      frameB64(),
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "low_confidence", body["status"])
	assert.Equal(t, "No clear sign detected", body["message"])

	count, err := env.store.CountRecords()
	require.NoError(t, err)
	assert.Zero(t, count, "no record may be persisted below the threshold")
}

func TestSubmitFrameValidationErrors(t *testing.T) {
	env := setupTestEnvironment(t)
	sessionID := env.openSession(t)

	// Missing frame
	rec, body := env.doJSON(t, http.MethodPost, "/api/v1/frames", map[string]any{
		"session_id": sessionID,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["error"], "missing")

	// Missing session
	rec, _ = env.doJSON(t, http.MethodPost, "/api/v1/frames", map[string]any{
		"frame": frameB64(),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Bad base64
	rec, _ = env.doJSON(t, http.MethodPost, "/api/v1/frames", map[string]any{
		"session_id": sessionID,
		"frame":      "%%%not-base64%%%",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown session
	rec, _ = env.doJSON(t, http.MethodPost, "/api/v1/frames", map[string]any{
		"session_id": 99999,
		"frame":      frameB64(),
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmitFrameFallbackGateway(t *testing.T) {
	// Wire the real gateway without a credential: the fallback catalog
	// must keep the flow fully functional.
	env := setupTestEnvironment(t)

	settings := env.controller.Settings
	media, err := mediastore.New(t.TempDir())
	require.NoError(t, err)

	gw := gateway.New(conf.GatewaySettings{Timeout: settings.Gateway.Timeout}, nil)
	env.controller.Manager = translation.NewManager(env.store, gw, media, nil)

	sessionID := env.openSession(t)
	rec, body := env.doJSON(t, http.MethodPost, "/api/v1/frames", map[string]any{
		"session_id": sessionID,
		"frame":      frameB64(),
	})

	require.Equal(t, http.StatusOK, rec.Code)
	// Every catalog entry clears the threshold, so the flow proceeds as a
	// normal, if lower-trust, classification
	assert.Equal(t, "success", body["status"])
	assert.NotEmpty(t, body["detected_sign"])
}

func TestEndSessionEndToEnd(t *testing.T) {
	env := setupTestEnvironment(t)
	sessionID := env.openSession(t)

	rec, body := env.doJSON(t, http.MethodPost, "/api/v1/sessions/end", map[string]any{
		"session_id": sessionID,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])

	// Idempotent double close
	rec, _ = env.doJSON(t, http.MethodPost, "/api/v1/sessions/end", map[string]any{
		"session_id": sessionID,
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	// Unknown session
	rec, _ = env.doJSON(t, http.MethodPost, "/api/v1/sessions/end", map[string]any{
		"session_id": 99999,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	session, err := env.store.GetSession(sessionID)
	require.NoError(t, err)
	assert.Equal(t, datastore.SessionCompleted, session.Status)
	assert.NotNil(t, session.EndedAt)
}

func TestSubmitFeedbackEndToEnd(t *testing.T) {
	env := setupTestEnvironment(t)
	sessionID := env.openSession(t)

	_, frameBody := env.doJSON(t, http.MethodPost, "/api/v1/frames", map[string]any{
		"session_id": sessionID,
		"frame":      frameB64(),
	})
	recordID := uint(frameBody["record_id"].(float64))

	// Explicit rating
	rec, body := env.doJSON(t, http.MethodPost, "/api/v1/feedback", map[string]any{
		"record_id":           recordID,
		"rating":              5,
		"correct_translation": "Hi there",
		"comment":             "nice",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "Thank you for the feedback!", body["message"])

	// Missing rating applies the default
	rec, _ = env.doJSON(t, http.MethodPost, "/api/v1/feedback", map[string]any{
		"record_id": recordID,
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	// Out of range rating is invalid input
	rec, _ = env.doJSON(t, http.MethodPost, "/api/v1/feedback", map[string]any{
		"record_id": recordID,
		"rating":    9,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitFeedbackUnknownRecord(t *testing.T) {
	env := setupTestEnvironment(t)

	rec, body := env.doJSON(t, http.MethodPost, "/api/v1/feedback", map[string]any{
		"record_id": 424242,
		"rating":    4,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, body["error"])
}

func TestGetLanguages(t *testing.T) {
	env := setupTestEnvironment(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/languages", http.NoBody)
	rec := httptest.NewRecorder()
	env.controller.Echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var languages []LanguageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &languages))
	assert.Len(t, languages, 5)

	codes := make([]string, 0, len(languages))
	for _, lang := range languages {
		codes = append(codes, lang.Code)
	}
	assert.Contains(t, codes, "ASL")
	assert.Contains(t, codes, "KSL")
}

func TestGetStats(t *testing.T) {
	env := setupTestEnvironment(t)
	sessionID := env.openSession(t)

	_, _ = env.doJSON(t, http.MethodPost, "/api/v1/frames", map[string]any{
		"session_id": sessionID,
		"frame":      frameB64(),
	})

	rec, body := env.doJSON(t, http.MethodGet, "/api/v1/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["total_sessions"])
	assert.EqualValues(t, 1, body["total_translations"])
}

func TestListSessionsPagination(t *testing.T) {
	env := setupTestEnvironment(t)

	for range 3 {
		env.openSession(t)
	}

	rec, body := env.doJSON(t, http.MethodGet, "/api/v1/sessions?limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 3, body["total"])
	assert.Len(t, body["data"], 2)
}

func TestGetSessionRecords(t *testing.T) {
	env := setupTestEnvironment(t)
	sessionID := env.openSession(t)

	_, frameBody := env.doJSON(t, http.MethodPost, "/api/v1/frames", map[string]any{
		"session_id": sessionID,
		"frame":      frameB64(),
	})
	require.NotNil(t, frameBody["record_id"])

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/sessions/%d/records", sessionID), http.NoBody)
	rec := httptest.NewRecorder()
	env.controller.Echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var records []RecordResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "Hello", records[0].DetectedSign)
	// Listings keep the stored 0-1 scale
	assert.InDelta(t, 0.92, records[0].ConfidenceScore, 0.0001)

	// Unknown session is a 404
	req = httptest.NewRequest(http.MethodGet, "/api/v1/sessions/99999/records", http.NoBody)
	rec = httptest.NewRecorder()
	env.controller.Echo.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	env := setupTestEnvironment(t)

	rec, body := env.doJSON(t, http.MethodGet, "/api/v1/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
}
