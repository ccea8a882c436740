// Package gateway wraps the remote vision model used to interpret sign
// language frames. The remote JSON contract is duck-typed, so responses are
// validated and coerced at this boundary; any remote failure degrades to a
// canned fallback result so the orchestration flow always receives a
// structurally valid classification.
package gateway

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/antonholmquist/jason"

	"github.com/tphakala/signbridge-go/internal/conf"
	"github.com/tphakala/signbridge-go/internal/httpclient"
	"github.com/tphakala/signbridge-go/internal/logging"
	"github.com/tphakala/signbridge-go/internal/observability"
)

// Result is a structurally valid classification of one frame. Confidence is
// always within [0,1]; threshold enforcement is the record ledger's job.
type Result struct {
	DetectedSign    string
	TranslatedText  string
	ConfidenceScore float64
	Description     string
	Fallback        bool // served from the canned catalog
}

// Classifier maps (image bytes, language hint) to a classification result.
type Classifier interface {
	Classify(ctx context.Context, image []byte, variantHint string) (Result, error)
}

// Gateway calls a Generative Language style vision endpoint. It never
// propagates remote failures: misconfiguration, network errors, timeouts and
// malformed responses all degrade to the fallback catalog.
type Gateway struct {
	settings conf.GatewaySettings
	client   *httpclient.Client
	logger   *slog.Logger
	metrics  *observability.GatewayMetrics
}

// New creates a gateway from settings. Metrics may be nil.
func New(settings conf.GatewaySettings, metrics *observability.GatewayMetrics) *Gateway {
	timeout := settings.Timeout
	if timeout <= 0 {
		timeout = httpclient.DefaultTimeout
	}
	return &Gateway{
		settings: settings,
		client:   httpclient.New(&httpclient.Config{DefaultTimeout: timeout}),
		logger:   logging.ForService("ai-gateway"),
		metrics:  metrics,
	}
}

// Classify sends the frame to the remote model. The returned error is always
// nil for remote-side failures; it is reserved for programmer errors such as
// a nil image slice reaching this layer.
func (g *Gateway) Classify(ctx context.Context, image []byte, variantHint string) (Result, error) {
	if len(image) == 0 {
		return Result{}, fmt.Errorf("empty image passed to classifier")
	}

	if g.settings.APIKey == "" {
		g.countFallback("unconfigured")
		return fallbackResult(), nil
	}

	start := time.Now()
	result, err := g.callRemote(ctx, image, variantHint)
	if g.metrics != nil {
		g.metrics.ClassifyDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		g.logger.Warn("remote classification failed, serving fallback",
			"variant_hint", variantHint,
			"error", err)
		g.countFallback(reasonFor(err))
		return fallbackResult(), nil
	}

	if g.metrics != nil {
		g.metrics.ClassifyRequests.WithLabelValues("remote").Inc()
	}
	return result, nil
}

type parseError struct{ err error }

func (e *parseError) Error() string { return e.err.Error() }
func (e *parseError) Unwrap() error { return e.err }

func reasonFor(err error) string {
	var pe *parseError
	if errors.As(err, &pe) {
		return "parse"
	}
	return "network"
}

func (g *Gateway) countFallback(reason string) {
	if g.metrics != nil {
		g.metrics.ClassifyRequests.WithLabelValues("fallback").Inc()
		g.metrics.FallbackTotal.WithLabelValues(reason).Inc()
	}
}

// callRemote performs the HTTP round trip and coerces the response.
func (g *Gateway) callRemote(ctx context.Context, image []byte, variantHint string) (Result, error) {
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		strings.TrimRight(g.settings.Endpoint, "/"), g.settings.Model, g.settings.APIKey)

	body := map[string]any{
		"contents": []map[string]any{
			{
				"parts": []map[string]any{
					{"text": buildPrompt(variantHint)},
					{"inline_data": map[string]any{
						"mime_type": "image/jpeg",
						"data":      base64.StdEncoding.EncodeToString(image),
					}},
				},
			},
		},
	}

	resp, err := g.client.PostJSON(ctx, url, body)
	if err != nil {
		return Result{}, fmt.Errorf("vision API request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("vision API returned status %d", resp.StatusCode)
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, fmt.Errorf("reading vision API response: %w", err)
	}

	text, err := extractModelText(payload)
	if err != nil {
		return Result{}, &parseError{err: err}
	}

	result, err := coerceResult(text)
	if err != nil {
		return Result{}, &parseError{err: err}
	}
	return result, nil
}

// extractModelText digs the model's text answer out of the API envelope.
func extractModelText(payload []byte) (string, error) {
	root, err := jason.NewObjectFromBytes(payload)
	if err != nil {
		return "", fmt.Errorf("response envelope is not JSON: %w", err)
	}

	candidates, err := root.GetObjectArray("candidates")
	if err != nil || len(candidates) == 0 {
		return "", fmt.Errorf("response has no candidates")
	}

	parts, err := candidates[0].GetObjectArray("content", "parts")
	if err != nil || len(parts) == 0 {
		return "", fmt.Errorf("candidate has no content parts")
	}

	text, err := parts[0].GetString("text")
	if err != nil {
		return "", fmt.Errorf("candidate part has no text")
	}
	return text, nil
}

// coerceResult parses the model's duck-typed JSON answer into a Result,
// stripping code fences and defaulting missing fields. Confidence is clamped
// to [0,1].
func coerceResult(text string) (Result, error) {
	cleaned := stripCodeFences(text)

	obj, err := jason.NewObjectFromBytes([]byte(cleaned))
	if err != nil {
		return Result{}, fmt.Errorf("model answer is not valid JSON: %w", err)
	}

	detected, err := obj.GetString("detected_sign")
	if err != nil {
		return Result{}, fmt.Errorf("model answer is missing detected_sign")
	}
	translated, err := obj.GetString("translated_text")
	if err != nil {
		return Result{}, fmt.Errorf("model answer is missing translated_text")
	}

	// Missing confidence defaults to 0.0, which the ledger will reject
	confidence, err := obj.GetFloat64("confidence_score")
	if err != nil {
		confidence = 0.0
	}
	description, err := obj.GetString("description")
	if err != nil {
		description = ""
	}

	return Result{
		DetectedSign:    detected,
		TranslatedText:  translated,
		ConfidenceScore: clampConfidence(confidence),
		Description:     description,
	}, nil
}

// stripCodeFences removes markdown fence markup the model sometimes wraps
// around its JSON answer.
func stripCodeFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if idx := strings.Index(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	text = strings.TrimPrefix(strings.TrimSpace(text), "json")
	return strings.TrimSpace(text)
}

func clampConfidence(c float64) float64 {
	switch {
	case c < 0:
		return 0
	case c > 1:
		return 1
	default:
		return c
	}
}

// buildPrompt produces the natural-language instruction for the model,
// keyed by the sign language hint.
func buildPrompt(variantHint string) string {
	if variantHint == "" {
		variantHint = "ASL"
	}
	return fmt.Sprintf(`You are an expert %s (Sign Language) interpreter.
Analyze this image carefully and identify any hand gestures or sign language being performed.

Return a JSON object with ONLY these keys:
- "detected_sign": the name of the sign or gesture (e.g. "Hello", "Thank You", "A", "Love")
- "translated_text": a natural English sentence or word that conveys the meaning
- "confidence_score": a float between 0 and 1 representing your confidence
- "description": brief description of the hand position observed

If no sign language gesture is detected, return:
{"detected_sign": "None", "translated_text": "No sign detected", "confidence_score": 0.0, "description": "No hand gesture visible"}

Respond ONLY with valid JSON, no markdown.`, variantHint)
}
