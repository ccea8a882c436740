package datastore

import (
	"gorm.io/gorm/clause"

	"github.com/tphakala/signbridge-go/internal/errors"
)

// DefaultSignLanguages is the initial registry of supported variants.
func DefaultSignLanguages() []SignLanguage {
	return []SignLanguage{
		{Code: "ASL", Name: "American Sign Language", Description: "Used in the USA and parts of Canada", Active: true},
		{Code: "BSL", Name: "British Sign Language", Description: "Used in the United Kingdom", Active: true},
		{Code: "KSL", Name: "Kenyan Sign Language", Description: "Used in Kenya, recognized official language", Active: true},
		{Code: "IS", Name: "International Sign", Description: "Pidgin sign used at international events", Active: true},
		{Code: "AUSLAN", Name: "Australian Sign Language", Description: "Used in Australia", Active: true},
	}
}

// SeedSignLanguages inserts the given variants, skipping codes that already
// exist. Returns the number of newly created rows. Safe to run repeatedly.
func (ds *DataStore) SeedSignLanguages(languages []SignLanguage) (int, error) {
	created := 0
	for i := range languages {
		lang := languages[i]
		result := ds.DB.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoNothing: true,
		}).Create(&lang)
		if result.Error != nil {
			return created, dbError(result.Error, "seed_sign_languages", errors.PriorityMedium, "code", lang.Code)
		}
		if result.RowsAffected > 0 {
			created++
		}
	}
	return created, nil
}
