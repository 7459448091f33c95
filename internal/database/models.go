package database

import (
	"time"

	"gorm.io/gorm"
)

// Favorite is an item a user marked in the library
type Favorite struct {
	ID        string    `gorm:"primaryKey"`
	UserID    string    `gorm:"not null;uniqueIndex:idx_favorite_user_item"`
	ItemID    string    `gorm:"not null;uniqueIndex:idx_favorite_user_item"`
	Title     string    `gorm:"not null"`
	MediaType string    `gorm:"not null;index"` // movies, audio
	CreatedAt time.Time `gorm:"index"`
}

// TableName overrides the table name
func (Favorite) TableName() string {
	return "favorites"
}

// PlaybackHistory is the last known position of one track of an item
type PlaybackHistory struct {
	ID              uint      `gorm:"primaryKey"`
	ItemID          string    `gorm:"not null;uniqueIndex:idx_history_item_track"`
	TrackID         string    `gorm:"not null;uniqueIndex:idx_history_item_track"`
	ItemTitle       string    `gorm:"not null;default:''"`
	TrackTitle      string    `gorm:"not null;default:''"`
	TrackIndex      int       `gorm:"not null;default:0"`
	PositionSeconds float64   `gorm:"not null"`
	DurationSeconds float64   `gorm:"not null"`
	ProgressPercent float64   `gorm:"not null"`
	Completed       bool      `gorm:"default:false"`
	WatchedAt       time.Time `gorm:"index"`
}

// TableName overrides the table name
func (PlaybackHistory) TableName() string {
	return "playback_history"
}

// PlayerPreference stores per-item player settings restored on the next play
type PlayerPreference struct {
	ItemID    string  `gorm:"primaryKey"`
	Volume    int     `gorm:"not null"`
	Rate      float64 `gorm:"not null"`
	Shuffle   bool    `gorm:"not null"`
	Repeat    string  `gorm:"not null"` // none, all, one
	UpdatedAt time.Time
}

// TableName overrides the table name
func (PlayerPreference) TableName() string {
	return "player_preferences"
}

// Migrate runs database migrations
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Favorite{},
		&PlaybackHistory{},
		&PlayerPreference{},
	)
}
