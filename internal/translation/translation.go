// Package translation orchestrates the session, frame, classification and
// feedback flow: open a session, submit frames to the AI gateway, persist
// confidence-gated records, account usage, collect feedback.
package translation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/tphakala/signbridge-go/internal/datastore"
	"github.com/tphakala/signbridge-go/internal/errors"
	"github.com/tphakala/signbridge-go/internal/gateway"
	"github.com/tphakala/signbridge-go/internal/logging"
	"github.com/tphakala/signbridge-go/internal/mediastore"
	"github.com/tphakala/signbridge-go/internal/observability"
)

// MinConfidence is the acceptance threshold for persisting a classification.
// It is the single quality gate in the whole system.
const MinConfidence = 0.30

// DefaultRating is applied when feedback is submitted without a rating.
const DefaultRating = 3

const maxDeviceInfoLen = 255

// variant lookups rarely change, cache them briefly to avoid a registry
// query on every frame
const variantCacheTTL = 5 * time.Minute

// unknownVariant marks a code the registry does not contain.
const unknownVariant = uint(0)

// OutcomeStatus distinguishes accepted submissions from low-confidence ones.
type OutcomeStatus string

const (
	OutcomeAccepted      OutcomeStatus = "accepted"
	OutcomeLowConfidence OutcomeStatus = "low_confidence"
)

// Outcome is the result of one frame submission.
type Outcome struct {
	Status OutcomeStatus
	Record *datastore.TranslationRecord // set when Status == OutcomeAccepted
	Result gateway.Result
}

// Manager wires the datastore, AI gateway and media store together.
type Manager struct {
	ds           datastore.Interface
	classifier   gateway.Classifier
	media        *mediastore.Store
	metrics      *observability.TranslationMetrics
	logger       *slog.Logger
	variantCache *cache.Cache // sign language code -> registry ID
}

// NewManager creates a translation manager. Metrics may be nil.
func NewManager(ds datastore.Interface, classifier gateway.Classifier, media *mediastore.Store, metrics *observability.TranslationMetrics) *Manager {
	return &Manager{
		ds:           ds,
		classifier:   classifier,
		media:        media,
		metrics:      metrics,
		logger:       logging.ForService("translation"),
		variantCache: cache.New(variantCacheTTL, 2*variantCacheTTL),
	}
}

// OpenSession creates a new active session. A user may hold many concurrent
// sessions; anonymous sessions carry a nil user.
func (m *Manager) OpenSession(userID *string, deviceInfo string) (datastore.TranslationSession, error) {
	if len(deviceInfo) > maxDeviceInfoLen {
		deviceInfo = deviceInfo[:maxDeviceInfoLen]
	}

	session := datastore.TranslationSession{
		UserID:     userID,
		StartedAt:  time.Now(),
		Status:     datastore.SessionActive,
		DeviceInfo: deviceInfo,
	}
	if err := m.ds.CreateSession(&session); err != nil {
		return datastore.TranslationSession{}, err
	}

	m.logger.Debug("session opened", "session_id", session.ID, "anonymous", userID == nil)
	return session, nil
}

// SetSessionVariant attaches the sign language identified by code to the
// session. An unknown code is a silent no-op: the session keeps its prior
// variant and classification proceeds regardless.
func (m *Manager) SetSessionVariant(sessionID uint, code string) error {
	session, err := m.ds.GetSession(sessionID)
	if err != nil {
		return err
	}
	return m.applyVariantHint(&session, code)
}

// CloseSession transitions the session to completed and stamps the end
// time. Closing an already completed session re-stamps EndedAt and is not
// an error. In-flight frame submissions are unaffected.
func (m *Manager) CloseSession(sessionID uint) error {
	if err := m.ds.CompleteSession(sessionID, time.Now()); err != nil {
		return err
	}
	m.logger.Debug("session closed", "session_id", sessionID)
	return nil
}

// SubmitFrame runs one frame through the classification pipeline: resolve
// the variant hint, classify, gate on confidence, persist the record with a
// frame snapshot, and account usage for the owning user.
func (m *Manager) SubmitFrame(ctx context.Context, sessionID uint, image []byte, variantHint string) (Outcome, error) {
	if len(image) == 0 {
		return Outcome{}, errors.Newf("frame image must not be empty").
			Component("translation").
			Category(errors.CategoryValidation).
			Context("session_id", sessionID).
			Build()
	}

	session, err := m.ds.GetSession(sessionID)
	if err != nil {
		return Outcome{}, err
	}

	if err := m.applyVariantHint(&session, variantHint); err != nil {
		return Outcome{}, err
	}

	result, err := m.classifier.Classify(ctx, image, variantHint)
	if err != nil {
		return Outcome{}, errors.New(err).
			Component("translation").
			Category(errors.CategoryGeneric).
			Context("session_id", sessionID).
			Build()
	}

	if result.ConfidenceScore < MinConfidence {
		m.countOutcome(OutcomeLowConfidence)
		m.logger.Debug("classification below threshold",
			"session_id", sessionID,
			"confidence", result.ConfidenceScore)
		return Outcome{Status: OutcomeLowConfidence, Result: result}, nil
	}

	now := time.Now()
	frameName := mediastore.FrameName(sessionID, now, uuid.NewString()[:8])
	framePath, err := m.media.SaveFrame(frameName, now, image)
	if err != nil {
		return Outcome{}, err
	}

	record := datastore.TranslationRecord{
		SessionID:       sessionID,
		FrameImage:      framePath,
		DetectedSign:    result.DetectedSign,
		TranslatedText:  result.TranslatedText,
		ConfidenceScore: result.ConfidenceScore,
		CreatedAt:       now,
	}
	if err := m.ds.SaveRecord(&record); err != nil {
		return Outcome{}, err
	}

	if session.UserID != nil {
		if err := m.ds.IncrementTranslationCount(*session.UserID); err != nil {
			// The record is already persisted; losing one counter tick is
			// worse than failing the whole submission, so log and continue.
			m.logger.Error("usage accounting failed",
				"session_id", sessionID,
				"user_id", *session.UserID,
				"error", err)
		}
	}

	m.countOutcome(OutcomeAccepted)
	if m.metrics != nil {
		m.metrics.RecordsPersisted.Inc()
	}

	return Outcome{Status: OutcomeAccepted, Record: &record, Result: result}, nil
}

// SubmitFeedback records a user rating against a translation record. A nil
// rating gets DefaultRating; an out-of-range rating is rejected.
func (m *Manager) SubmitFeedback(recordID uint, userID *string, rating *int, correctTranslation, comment string) (datastore.Feedback, error) {
	record, err := m.ds.GetRecord(recordID)
	if err != nil {
		return datastore.Feedback{}, err
	}

	value := DefaultRating
	if rating != nil {
		value = *rating
	}
	if value < 1 || value > 5 {
		return datastore.Feedback{}, errors.Newf("rating must be between 1 and 5, got %d", value).
			Component("translation").
			Category(errors.CategoryValidation).
			Context("record_id", recordID).
			Build()
	}

	feedback := datastore.Feedback{
		RecordID:           record.ID,
		UserID:             userID,
		Rating:             value,
		CorrectTranslation: correctTranslation,
		Comment:            comment,
		SubmittedAt:        time.Now(),
	}
	if err := m.ds.SaveFeedback(&feedback); err != nil {
		return datastore.Feedback{}, err
	}

	if m.metrics != nil {
		m.metrics.FeedbackTotal.Inc()
	}
	return feedback, nil
}

// applyVariantHint resolves the sign language code and attaches it to the
// session when it differs from the current variant. Unknown codes are
// ignored. Lookups go through a short-lived cache so the registry is not
// queried on every frame.
func (m *Manager) applyVariantHint(session *datastore.TranslationSession, code string) error {
	if code == "" {
		return nil
	}

	languageID, err := m.resolveVariant(code)
	if err != nil {
		return err
	}
	if languageID == unknownVariant {
		// Deliberate leniency: the session keeps its prior variant
		return nil
	}
	if session.SignLanguageID != nil && *session.SignLanguageID == languageID {
		return nil
	}

	if err := m.ds.UpdateSessionLanguage(session.ID, languageID); err != nil {
		return err
	}
	session.SignLanguageID = &languageID
	return nil
}

func (m *Manager) resolveVariant(code string) (uint, error) {
	if cached, found := m.variantCache.Get(code); found {
		return cached.(uint), nil
	}

	lang, err := m.ds.GetSignLanguageByCode(code)
	if err != nil {
		if errors.IsNotFound(err) {
			m.variantCache.Set(code, unknownVariant, cache.DefaultExpiration)
			return unknownVariant, nil
		}
		return 0, err
	}

	m.variantCache.Set(code, lang.ID, cache.DefaultExpiration)
	return lang.ID, nil
}

func (m *Manager) countOutcome(status OutcomeStatus) {
	if m.metrics != nil {
		m.metrics.FrameOutcomes.WithLabelValues(string(status)).Inc()
	}
}

// Stats summarizes overall service usage for the landing page.
type Stats struct {
	TotalSessions     int64                    `json:"total_sessions"`
	TotalTranslations int64                    `json:"total_translations"`
	Languages         []datastore.SignLanguage `json:"languages"`
}

// GetStats returns aggregate counts and the active language registry.
func (m *Manager) GetStats() (Stats, error) {
	sessions, err := m.ds.CountSessions()
	if err != nil {
		return Stats{}, err
	}
	records, err := m.ds.CountRecords()
	if err != nil {
		return Stats{}, err
	}
	languages, err := m.ds.ActiveSignLanguages()
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		TotalSessions:     sessions,
		TotalTranslations: records,
		Languages:         languages,
	}, nil
}

// EnsureSeeded seeds the sign language registry when it is empty, so a
// fresh install can classify without a separate seeding step.
func (m *Manager) EnsureSeeded() error {
	count, err := m.ds.CountSignLanguages()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	created, err := m.ds.SeedSignLanguages(datastore.DefaultSignLanguages())
	if err != nil {
		return fmt.Errorf("seeding sign languages: %w", err)
	}
	m.logger.Info("seeded sign language registry", "created", created)
	return nil
}
