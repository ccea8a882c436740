// model.go this code defines the data model for the application
package datastore

import "time"

// Session status values
const (
	SessionActive    = "active"
	SessionCompleted = "completed"
	SessionFailed    = "failed"
)

// User profile roles
const (
	RoleHearing     = "hearing"
	RoleDeaf        = "deaf"
	RoleInterpreter = "interpreter"
	RoleOther       = "other"
)

// SignLanguage represents a supported sign language variety, e.g. ASL, BSL, KSL.
// Static reference data seeded at install time; only the Active flag changes.
type SignLanguage struct {
	ID          uint   `gorm:"primaryKey"`
	Code        string `gorm:"uniqueIndex;size:10;not null"`
	Name        string `gorm:"size:100;not null"`
	Description string `gorm:"type:text"`
	Active      bool   `gorm:"default:true"`
}

// TranslationSession represents one continuous camera interaction during
// which signs are captured and translated. UserID is a weak reference to the
// identity store principal; anonymous sessions carry no user.
type TranslationSession struct {
	ID             uint                `gorm:"primaryKey"`
	UserID         *string             `gorm:"index;size:150"`
	SignLanguageID *uint               `gorm:"index"`
	SignLanguage   *SignLanguage       `gorm:"foreignKey:SignLanguageID;constraint:OnDelete:SET NULL"`
	StartedAt      time.Time           `gorm:"index;not null"`
	EndedAt        *time.Time          // set iff status != active
	Status         string              `gorm:"size:20;index;default:active"`
	DeviceInfo     string              `gorm:"size:255"` // browser / device, informational only
	Records        []TranslationRecord `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
}

// TranslationRecord is a single translated sign captured within a session.
// Immutable after creation except for attached feedback. Destroyed with its
// owning session.
type TranslationRecord struct {
	ID              uint       `gorm:"primaryKey"`
	SessionID       uint       `gorm:"index;not null"`
	FrameImage      string     `gorm:"size:255"` // media store path of the frame snapshot
	DetectedSign    string     `gorm:"size:200"`
	TranslatedText  string     `gorm:"type:text"`
	ConfidenceScore float64    // AI confidence 0-1
	AudioFile       string     `gorm:"size:255"` // media store path of generated TTS audio
	CreatedAt       time.Time  `gorm:"index"`
	Feedbacks       []Feedback `gorm:"foreignKey:RecordID;constraint:OnDelete:CASCADE"`
}

// Feedback is a user rating of a translation record, used to improve the
// model. Several feedback entries may reference the same record.
type Feedback struct {
	ID                 uint      `gorm:"primaryKey"`
	RecordID           uint      `gorm:"index;not null"`
	UserID             *string   `gorm:"size:150"`
	Rating             int       `gorm:"not null"` // 1..5
	CorrectTranslation string    `gorm:"type:text"`
	Comment            string    `gorm:"type:text"`
	SubmittedAt        time.Time `gorm:"index"`
}

// UserProfile extends an identity store principal with translation
// preferences and usage accounting. Created lazily on first successful
// translation; TotalTranslations only ever increments.
type UserProfile struct {
	ID                      uint          `gorm:"primaryKey"`
	UserID                  string        `gorm:"uniqueIndex;size:150;not null"`
	Role                    string        `gorm:"size:20;default:hearing"`
	PreferredSignLanguageID *uint         `gorm:"index"`
	PreferredSignLanguage   *SignLanguage `gorm:"foreignKey:PreferredSignLanguageID;constraint:OnDelete:SET NULL"`
	TotalTranslations       uint
	CreatedAt               time.Time
}
