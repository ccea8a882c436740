package datastore

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/signbridge-go/internal/conf"
	"github.com/tphakala/signbridge-go/internal/errors"
)

// newTestStore opens a fresh SQLite store in a temporary directory.
func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	settings := &conf.Settings{}
	settings.Database.SQLite.Enabled = true
	settings.Database.SQLite.Path = filepath.Join(t.TempDir(), "test.db")

	store := &SQLiteStore{Settings: settings}
	require.NoError(t, store.Open())
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func strPtr(s string) *string { return &s }

func TestSeedSignLanguagesIsIdempotent(t *testing.T) {
	store := newTestStore(t)

	created, err := store.SeedSignLanguages(DefaultSignLanguages())
	require.NoError(t, err)
	assert.Equal(t, 5, created)

	created, err = store.SeedSignLanguages(DefaultSignLanguages())
	require.NoError(t, err)
	assert.Equal(t, 0, created, "second seeding run must not create rows")

	count, err := store.CountSignLanguages()
	require.NoError(t, err)
	assert.EqualValues(t, 5, count)
}

func TestGetSignLanguageByCode(t *testing.T) {
	store := newTestStore(t)
	_, err := store.SeedSignLanguages(DefaultSignLanguages())
	require.NoError(t, err)

	lang, err := store.GetSignLanguageByCode("ASL")
	require.NoError(t, err)
	assert.Equal(t, "American Sign Language", lang.Name)

	_, err = store.GetSignLanguageByCode("XYZ")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestCompleteSessionIsIdempotent(t *testing.T) {
	store := newTestStore(t)

	session := &TranslationSession{
		StartedAt:  time.Now(),
		Status:     SessionActive,
		DeviceInfo: "Mozilla/5.0",
	}
	require.NoError(t, store.CreateSession(session))
	require.NotZero(t, session.ID)

	firstClose := time.Now()
	require.NoError(t, store.CompleteSession(session.ID, firstClose))

	got, err := store.GetSession(session.ID)
	require.NoError(t, err)
	assert.Equal(t, SessionCompleted, got.Status)
	require.NotNil(t, got.EndedAt)

	// Closing again must not error and must re-stamp the end time
	secondClose := firstClose.Add(2 * time.Second)
	require.NoError(t, store.CompleteSession(session.ID, secondClose))

	got, err = store.GetSession(session.ID)
	require.NoError(t, err)
	require.NotNil(t, got.EndedAt)
	assert.WithinDuration(t, secondClose, *got.EndedAt, time.Second)
}

func TestCompleteSessionNotFound(t *testing.T) {
	store := newTestStore(t)

	err := store.CompleteSession(9999, time.Now())
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestUpdateSessionLanguage(t *testing.T) {
	store := newTestStore(t)
	_, err := store.SeedSignLanguages(DefaultSignLanguages())
	require.NoError(t, err)

	session := &TranslationSession{StartedAt: time.Now(), Status: SessionActive}
	require.NoError(t, store.CreateSession(session))

	lang, err := store.GetSignLanguageByCode("BSL")
	require.NoError(t, err)

	require.NoError(t, store.UpdateSessionLanguage(session.ID, lang.ID))

	got, err := store.GetSession(session.ID)
	require.NoError(t, err)
	require.NotNil(t, got.SignLanguageID)
	assert.Equal(t, lang.ID, *got.SignLanguageID)
	require.NotNil(t, got.SignLanguage)
	assert.Equal(t, "BSL", got.SignLanguage.Code)

	err = store.UpdateSessionLanguage(12345, lang.ID)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestEnsureProfileGetOrCreate(t *testing.T) {
	store := newTestStore(t)

	profile, err := store.EnsureProfile("alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", profile.UserID)
	assert.Equal(t, RoleHearing, profile.Role)
	assert.Zero(t, profile.TotalTranslations)

	// Second call returns the same row
	again, err := store.EnsureProfile("alice")
	require.NoError(t, err)
	assert.Equal(t, profile.ID, again.ID)
}

func TestIncrementTranslationCountConcurrent(t *testing.T) {
	store := newTestStore(t)

	const workers = 10
	var wg sync.WaitGroup
	errs := make(chan error, workers)

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- store.IncrementTranslationCount("bob")
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	profile, err := store.GetProfile("bob")
	require.NoError(t, err)
	assert.EqualValues(t, workers, profile.TotalTranslations, "no increments may be lost")
}

func TestDeleteSessionCascades(t *testing.T) {
	store := newTestStore(t)

	session := &TranslationSession{StartedAt: time.Now(), Status: SessionActive}
	require.NoError(t, store.CreateSession(session))

	record := &TranslationRecord{
		SessionID:       session.ID,
		DetectedSign:    "Hello",
		TranslatedText:  "Hello!",
		ConfidenceScore: 0.92,
		CreatedAt:       time.Now(),
	}
	require.NoError(t, store.SaveRecord(record))

	feedback := &Feedback{
		RecordID:    record.ID,
		UserID:      strPtr("carol"),
		Rating:      4,
		SubmittedAt: time.Now(),
	}
	require.NoError(t, store.SaveFeedback(feedback))

	require.NoError(t, store.DeleteSession(session.ID))

	_, err := store.GetSession(session.ID)
	assert.True(t, errors.IsNotFound(err))

	_, err = store.GetRecord(record.ID)
	assert.True(t, errors.IsNotFound(err))

	var feedbackCount int64
	require.NoError(t, store.DB.Model(&Feedback{}).Count(&feedbackCount).Error)
	assert.Zero(t, feedbackCount)
}

func TestSearchSessionsFiltersAndOrders(t *testing.T) {
	store := newTestStore(t)
	_, err := store.SeedSignLanguages(DefaultSignLanguages())
	require.NoError(t, err)

	asl, err := store.GetSignLanguageByCode("ASL")
	require.NoError(t, err)

	base := time.Now().Add(-time.Hour)
	older := &TranslationSession{
		UserID:         strPtr("dana"),
		SignLanguageID: &asl.ID,
		StartedAt:      base,
		Status:         SessionCompleted,
	}
	newer := &TranslationSession{
		UserID:    strPtr("dana"),
		StartedAt: base.Add(30 * time.Minute),
		Status:    SessionActive,
	}
	other := &TranslationSession{
		StartedAt: base.Add(10 * time.Minute),
		Status:    SessionActive,
	}
	require.NoError(t, store.CreateSession(older))
	require.NoError(t, store.CreateSession(newer))
	require.NoError(t, store.CreateSession(other))

	sessions, total, err := store.SearchSessions(SessionFilter{UserID: "dana"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, sessions, 2)
	assert.Equal(t, newer.ID, sessions[0].ID, "newest session first")

	sessions, total, err = store.SearchSessions(SessionFilter{Status: SessionActive})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	sessions, total, err = store.SearchSessions(SessionFilter{LanguageCode: "ASL"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, sessions, 1)
	assert.Equal(t, older.ID, sessions[0].ID)
}

func TestSessionRecordsNewestFirst(t *testing.T) {
	store := newTestStore(t)

	session := &TranslationSession{StartedAt: time.Now(), Status: SessionActive}
	require.NoError(t, store.CreateSession(session))

	base := time.Now().Add(-time.Minute)
	for i := range 3 {
		record := &TranslationRecord{
			SessionID:       session.ID,
			DetectedSign:    "Yes",
			TranslatedText:  "Yes.",
			ConfidenceScore: 0.9,
			CreatedAt:       base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, store.SaveRecord(record))
	}

	records, err := store.SessionRecords(session.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.True(t, records[0].CreatedAt.After(records[2].CreatedAt))
}

func TestCounts(t *testing.T) {
	store := newTestStore(t)

	session := &TranslationSession{StartedAt: time.Now(), Status: SessionActive}
	require.NoError(t, store.CreateSession(session))
	require.NoError(t, store.SaveRecord(&TranslationRecord{
		SessionID:       session.ID,
		DetectedSign:    "Love",
		TranslatedText:  "I love you.",
		ConfidenceScore: 0.9,
		CreatedAt:       time.Now(),
	}))

	sessions, err := store.CountSessions()
	require.NoError(t, err)
	assert.EqualValues(t, 1, sessions)

	records, err := store.CountRecords()
	require.NoError(t, err)
	assert.EqualValues(t, 1, records)
}
