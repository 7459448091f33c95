package history

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/justchokingaround/archivist/internal/database"
)

// CompletedThreshold is the progress percentage at which a track counts
// as finished
const CompletedThreshold = 90.0

// ErrNotFound is returned by Last when an item has no saved position
var ErrNotFound = errors.New("no history for item")

// Service stores resume positions per item and track
type Service struct {
	db  *gorm.DB
	now func() time.Time
}

// Entry is one saved position
type Entry struct {
	ItemID     string
	ItemTitle  string
	TrackID    string
	TrackTitle string
	TrackIndex int
	Position   float64 // seconds
	Duration   float64 // seconds
	Completed  bool
	WatchedAt  time.Time
}

// Progress returns the position as a percentage of the duration
func (e Entry) Progress() float64 {
	if e.Duration <= 0 {
		return 0
	}
	return math.Min(100, e.Position/e.Duration*100)
}

// NewService creates a new history service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// Save upserts the position of one track of an item. Entries at or past
// CompletedThreshold are marked completed.
func (s *Service) Save(ctx context.Context, e Entry) error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	if e.ItemID == "" || e.TrackID == "" {
		return fmt.Errorf("history entry needs an item and a track")
	}
	if math.IsNaN(e.Position) || e.Position < 0 {
		e.Position = 0
	}
	if math.IsNaN(e.Duration) || math.IsInf(e.Duration, 0) || e.Duration < 0 {
		e.Duration = 0
	}

	progress := e.Progress()
	record := database.PlaybackHistory{
		ItemID:          e.ItemID,
		TrackID:         e.TrackID,
		ItemTitle:       e.ItemTitle,
		TrackTitle:      e.TrackTitle,
		TrackIndex:      e.TrackIndex,
		PositionSeconds: e.Position,
		DurationSeconds: e.Duration,
		ProgressPercent: progress,
		Completed:       e.Completed || progress >= CompletedThreshold,
		WatchedAt:       s.now(),
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "item_id"}, {Name: "track_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"item_title", "track_title", "track_index", "position_seconds",
			"duration_seconds", "progress_percent", "completed", "watched_at",
		}),
	}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}
	return nil
}

// Last returns the most recently saved track of an item
func (s *Service) Last(ctx context.Context, itemID string) (*Entry, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	var record database.PlaybackHistory
	err := s.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("watched_at DESC").
		Order("id DESC").
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history: %w", err)
	}

	entry := fromRecord(record)
	return &entry, nil
}

// Recent returns the latest entry of each item, newest first. A limit of
// zero or less returns every item.
func (s *Service) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	var records []database.PlaybackHistory
	err := s.db.WithContext(ctx).
		Order("watched_at DESC").
		Order("id DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history: %w", err)
	}

	records = lo.UniqBy(records, func(r database.PlaybackHistory) string { return r.ItemID })
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return lo.Map(records, func(r database.PlaybackHistory, _ int) Entry { return fromRecord(r) }), nil
}

// DeleteByItem removes every saved position of an item
func (s *Service) DeleteByItem(ctx context.Context, itemID string) error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	return s.db.WithContext(ctx).Where("item_id = ?", itemID).Delete(&database.PlaybackHistory{}).Error
}

// Cleanup removes completed entries older than the cutoff
func (s *Service) Cleanup(ctx context.Context, olderThan time.Duration) error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	cutoff := s.now().Add(-olderThan)
	return s.db.WithContext(ctx).
		Where("completed = ? AND watched_at < ?", true, cutoff).
		Delete(&database.PlaybackHistory{}).Error
}

func fromRecord(r database.PlaybackHistory) Entry {
	return Entry{
		ItemID:     r.ItemID,
		ItemTitle:  r.ItemTitle,
		TrackID:    r.TrackID,
		TrackTitle: r.TrackTitle,
		TrackIndex: r.TrackIndex,
		Position:   r.PositionSeconds,
		Duration:   r.DurationSeconds,
		Completed:  r.Completed,
		WatchedAt:  r.WatchedAt,
	}
}
