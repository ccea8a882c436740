// interfaces.go: this code defines the interface for the database operations
package datastore

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tphakala/signbridge-go/internal/conf"
	"github.com/tphakala/signbridge-go/internal/errors"
)

// Interface abstracts the underlying database implementation and defines the
// interface for database operations.
type Interface interface {
	Open() error
	Close() error

	// Sign language registry
	GetSignLanguageByCode(code string) (SignLanguage, error)
	ActiveSignLanguages() ([]SignLanguage, error)
	CountSignLanguages() (int64, error)
	SeedSignLanguages(languages []SignLanguage) (created int, err error)

	// Sessions
	CreateSession(session *TranslationSession) error
	GetSession(id uint) (TranslationSession, error)
	UpdateSessionLanguage(sessionID, languageID uint) error
	CompleteSession(id uint, endedAt time.Time) error
	DeleteSession(id uint) error
	SearchSessions(filter SessionFilter) ([]TranslationSession, int64, error)
	SessionRecords(sessionID uint, limit, offset int) ([]TranslationRecord, error)

	// Records
	SaveRecord(record *TranslationRecord) error
	GetRecord(id uint) (TranslationRecord, error)

	// Feedback
	SaveFeedback(feedback *Feedback) error

	// User profiles
	EnsureProfile(userID string) (UserProfile, error)
	GetProfile(userID string) (UserProfile, error)
	IncrementTranslationCount(userID string) error

	// Aggregate stats
	CountSessions() (int64, error)
	CountRecords() (int64, error)
}

// SessionFilter narrows and paginates session listings.
type SessionFilter struct {
	UserID       string // principal, empty for all users
	Status       string // active/completed/failed, empty for all
	LanguageCode string // sign language code, empty for all
	Limit        int
	Offset       int
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB *gorm.DB // GORM database instance
}

// New creates a new datastore instance based on the provided configuration.
func New(settings *conf.Settings) Interface {
	switch {
	case settings.Database.SQLite.Enabled:
		return &SQLiteStore{
			Settings: settings,
		}
	case settings.Database.MySQL.Enabled:
		return &MySQLStore{
			Settings: settings,
		}
	default:
		return nil
	}
}

// GetSignLanguageByCode looks up a sign language variant by its unique code.
func (ds *DataStore) GetSignLanguageByCode(code string) (SignLanguage, error) {
	var lang SignLanguage
	if err := ds.DB.Where("code = ?", code).First(&lang).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return SignLanguage{}, notFoundError("sign language", code)
		}
		return SignLanguage{}, dbError(err, "get_sign_language", errors.PriorityMedium, "code", code)
	}
	return lang, nil
}

// ActiveSignLanguages returns all variants with the active flag set.
func (ds *DataStore) ActiveSignLanguages() ([]SignLanguage, error) {
	var langs []SignLanguage
	if err := ds.DB.Where("active = ?", true).Order("code").Find(&langs).Error; err != nil {
		return nil, dbError(err, "list_sign_languages", errors.PriorityMedium)
	}
	return langs, nil
}

// CountSignLanguages returns the total number of registered variants.
func (ds *DataStore) CountSignLanguages() (int64, error) {
	var count int64
	if err := ds.DB.Model(&SignLanguage{}).Count(&count).Error; err != nil {
		return 0, dbError(err, "count_sign_languages", errors.PriorityLow)
	}
	return count, nil
}

// CreateSession stores a new translation session.
func (ds *DataStore) CreateSession(session *TranslationSession) error {
	if err := ds.DB.Create(session).Error; err != nil {
		return dbError(err, "create_session", errors.PriorityHigh)
	}
	return nil
}

// GetSession retrieves a session by ID with its sign language preloaded.
func (ds *DataStore) GetSession(id uint) (TranslationSession, error) {
	var session TranslationSession
	if err := ds.DB.Preload("SignLanguage").First(&session, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return TranslationSession{}, notFoundError("session", id)
		}
		return TranslationSession{}, dbError(err, "get_session", errors.PriorityMedium, "session_id", id)
	}
	return session, nil
}

// UpdateSessionLanguage attaches a sign language variant to a session.
func (ds *DataStore) UpdateSessionLanguage(sessionID, languageID uint) error {
	result := ds.DB.Model(&TranslationSession{}).
		Where("id = ?", sessionID).
		Update("sign_language_id", languageID)
	if result.Error != nil {
		return dbError(result.Error, "update_session_language", errors.PriorityMedium, "session_id", sessionID)
	}
	if result.RowsAffected == 0 {
		return notFoundError("session", sessionID)
	}
	return nil
}

// CompleteSession transitions a session to the completed state and stamps
// the end time. Re-completing an already completed session is allowed and
// simply re-stamps EndedAt.
func (ds *DataStore) CompleteSession(id uint, endedAt time.Time) error {
	var session TranslationSession
	if err := ds.DB.First(&session, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundError("session", id)
		}
		return dbError(err, "complete_session", errors.PriorityMedium, "session_id", id)
	}

	updates := map[string]any{
		"status":   SessionCompleted,
		"ended_at": endedAt,
	}
	if err := ds.DB.Model(&session).Updates(updates).Error; err != nil {
		return dbError(err, "complete_session", errors.PriorityMedium, "session_id", id)
	}
	return nil
}

// DeleteSession removes a session together with its records and their
// feedback. User profiles are never touched by session deletion.
func (ds *DataStore) DeleteSession(id uint) error {
	return ds.DB.Transaction(func(tx *gorm.DB) error {
		var session TranslationSession
		if err := tx.First(&session, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundError("session", id)
			}
			return dbError(err, "delete_session", errors.PriorityMedium, "session_id", id)
		}

		// Cascade by hand, SQLite installs may run without foreign_keys pragma
		var recordIDs []uint
		if err := tx.Model(&TranslationRecord{}).Where("session_id = ?", id).Pluck("id", &recordIDs).Error; err != nil {
			return dbError(err, "delete_session", errors.PriorityMedium, "session_id", id)
		}
		if len(recordIDs) > 0 {
			if err := tx.Where("record_id IN ?", recordIDs).Delete(&Feedback{}).Error; err != nil {
				return dbError(err, "delete_session_feedback", errors.PriorityMedium, "session_id", id)
			}
			if err := tx.Where("session_id = ?", id).Delete(&TranslationRecord{}).Error; err != nil {
				return dbError(err, "delete_session_records", errors.PriorityMedium, "session_id", id)
			}
		}
		if err := tx.Delete(&session).Error; err != nil {
			return dbError(err, "delete_session", errors.PriorityMedium, "session_id", id)
		}
		return nil
	})
}

// SearchSessions lists sessions newest first, applying the filter.
func (ds *DataStore) SearchSessions(filter SessionFilter) ([]TranslationSession, int64, error) {
	query := ds.DB.Model(&TranslationSession{})

	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.LanguageCode != "" {
		query = query.Joins("JOIN sign_languages ON sign_languages.id = translation_sessions.sign_language_id").
			Where("sign_languages.code = ?", filter.LanguageCode)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, dbError(err, "count_sessions", errors.PriorityMedium)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	var sessions []TranslationSession
	err := query.Preload("SignLanguage").
		Order("started_at DESC").
		Limit(limit).
		Offset(filter.Offset).
		Find(&sessions).Error
	if err != nil {
		return nil, 0, dbError(err, "search_sessions", errors.PriorityMedium)
	}
	return sessions, total, nil
}

// SessionRecords lists a session's records newest first.
func (ds *DataStore) SessionRecords(sessionID uint, limit, offset int) ([]TranslationRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var records []TranslationRecord
	err := ds.DB.Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&records).Error
	if err != nil {
		return nil, dbError(err, "session_records", errors.PriorityMedium, "session_id", sessionID)
	}
	return records, nil
}

// SaveRecord inserts a new translation record.
func (ds *DataStore) SaveRecord(record *TranslationRecord) error {
	if err := ds.DB.Create(record).Error; err != nil {
		return dbError(err, "save_record", errors.PriorityHigh, "session_id", record.SessionID)
	}
	return nil
}

// GetRecord retrieves a record by ID.
func (ds *DataStore) GetRecord(id uint) (TranslationRecord, error) {
	var record TranslationRecord
	if err := ds.DB.First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return TranslationRecord{}, notFoundError("record", id)
		}
		return TranslationRecord{}, dbError(err, "get_record", errors.PriorityMedium, "record_id", id)
	}
	return record, nil
}

// SaveFeedback inserts a new feedback entry.
func (ds *DataStore) SaveFeedback(feedback *Feedback) error {
	if err := ds.DB.Create(feedback).Error; err != nil {
		return dbError(err, "save_feedback", errors.PriorityMedium, "record_id", feedback.RecordID)
	}
	return nil
}

// EnsureProfile fetches the profile for a principal, creating it with
// defaults if absent. The insert uses ON CONFLICT DO NOTHING so concurrent
// first-time access cannot produce duplicate rows.
func (ds *DataStore) EnsureProfile(userID string) (UserProfile, error) {
	profile := UserProfile{
		UserID:    userID,
		Role:      RoleHearing,
		CreatedAt: time.Now(),
	}
	err := ds.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&profile).Error
	if err != nil {
		return UserProfile{}, dbError(err, "ensure_profile", errors.PriorityMedium, "user_id", userID)
	}

	// Re-read to get the surviving row regardless of who inserted it
	return ds.GetProfile(userID)
}

// GetProfile retrieves a profile by principal identifier.
func (ds *DataStore) GetProfile(userID string) (UserProfile, error) {
	var profile UserProfile
	if err := ds.DB.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return UserProfile{}, notFoundError("user profile", userID)
		}
		return UserProfile{}, dbError(err, "get_profile", errors.PriorityMedium, "user_id", userID)
	}
	return profile, nil
}

// IncrementTranslationCount atomically bumps a user's translation counter.
// The increment is expressed at the storage layer so concurrent frame
// submissions cannot lose updates.
func (ds *DataStore) IncrementTranslationCount(userID string) error {
	if _, err := ds.EnsureProfile(userID); err != nil {
		return err
	}
	err := ds.DB.Model(&UserProfile{}).
		Where("user_id = ?", userID).
		UpdateColumn("total_translations", gorm.Expr("total_translations + ?", 1)).Error
	if err != nil {
		return dbError(err, "increment_translation_count", errors.PriorityHigh, "user_id", userID)
	}
	return nil
}

// CountSessions returns the total number of sessions.
func (ds *DataStore) CountSessions() (int64, error) {
	var count int64
	if err := ds.DB.Model(&TranslationSession{}).Count(&count).Error; err != nil {
		return 0, dbError(err, "count_sessions", errors.PriorityLow)
	}
	return count, nil
}

// CountRecords returns the total number of translation records.
func (ds *DataStore) CountRecords() (int64, error) {
	var count int64
	if err := ds.DB.Model(&TranslationRecord{}).Count(&count).Error; err != nil {
		return 0, dbError(err, "count_records", errors.PriorityLow)
	}
	return count, nil
}
