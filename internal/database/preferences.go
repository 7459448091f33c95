package database

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetPlayerPreference returns the stored settings for an item.
// A missing record is not an error: ok reports whether one was found.
func GetPlayerPreference(db *gorm.DB, itemID string) (pref PlayerPreference, ok bool, err error) {
	err = db.Where("item_id = ?", itemID).First(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return PlayerPreference{}, false, nil
	}
	if err != nil {
		return PlayerPreference{}, false, err
	}
	return pref, true, nil
}

// SavePlayerPreference inserts or replaces the settings of pref.ItemID
func SavePlayerPreference(db *gorm.DB, pref PlayerPreference) error {
	if pref.ItemID == "" {
		return errors.New("player preference needs an item id")
	}
	if pref.Volume < 0 || pref.Volume > 100 {
		return fmt.Errorf("invalid volume %d", pref.Volume)
	}
	if pref.Rate <= 0 {
		return fmt.Errorf("invalid rate %v", pref.Rate)
	}
	if pref.Repeat == "" {
		pref.Repeat = "none"
	}

	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "item_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"volume", "rate", "shuffle", "repeat", "updated_at"}),
	}).Create(&pref).Error
}

// ClearPlayerPreference removes the settings of an item. Missing records
// are ignored.
func ClearPlayerPreference(db *gorm.DB, itemID string) error {
	return db.Where("item_id = ?", itemID).Delete(&PlayerPreference{}).Error
}
