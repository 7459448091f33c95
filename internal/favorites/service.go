package favorites

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/justchokingaround/archivist/internal/database"
)

// ErrNoIdentity is returned when an operation runs without a user
var ErrNoIdentity = errors.New("no user identity")

// Identity names the user favorites belong to. It is passed to every call;
// there is no ambient session.
type Identity struct {
	UserID string
}

func (id Identity) valid() bool {
	return strings.TrimSpace(id.UserID) != ""
}

// Favorite is a library item marked by a user
type Favorite struct {
	ID        string
	ItemID    string
	Title     string
	MediaType string
	CreatedAt time.Time
}

// Service manages per-user favorites
type Service struct {
	db *gorm.DB
}

// NewService creates a new favorites service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Add marks an item. Adding an item twice keeps the first record.
func (s *Service) Add(ctx context.Context, id Identity, fav Favorite) (*Favorite, error) {
	if !id.valid() {
		return nil, ErrNoIdentity
	}
	if fav.ItemID == "" {
		return nil, fmt.Errorf("favorite needs an item id")
	}
	if fav.Title == "" {
		fav.Title = fav.ItemID
	}

	record := database.Favorite{
		ID:        uuid.NewString(),
		UserID:    id.UserID,
		ItemID:    fav.ItemID,
		Title:     fav.Title,
		MediaType: fav.MediaType,
		CreatedAt: time.Now(),
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&record).Error
	if err != nil {
		return nil, fmt.Errorf("failed to add favorite: %w", err)
	}

	return s.get(ctx, id, fav.ItemID)
}

// Remove unmarks an item. Removing an unknown item is not an error.
func (s *Service) Remove(ctx context.Context, id Identity, itemID string) error {
	if !id.valid() {
		return ErrNoIdentity
	}
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND item_id = ?", id.UserID, itemID).
		Delete(&database.Favorite{}).Error
	if err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	return nil
}

// List returns the user's favorites, newest first
func (s *Service) List(ctx context.Context, id Identity) ([]Favorite, error) {
	if !id.valid() {
		return nil, ErrNoIdentity
	}

	var records []database.Favorite
	err := s.db.WithContext(ctx).
		Where("user_id = ?", id.UserID).
		Order("created_at DESC").
		Order("item_id ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}

	favs := make([]Favorite, len(records))
	for i, r := range records {
		favs[i] = fromRecord(r)
	}
	return favs, nil
}

// Contains reports whether the user marked an item
func (s *Service) Contains(ctx context.Context, id Identity, itemID string) (bool, error) {
	if !id.valid() {
		return false, ErrNoIdentity
	}

	var count int64
	err := s.db.WithContext(ctx).
		Model(&database.Favorite{}).
		Where("user_id = ? AND item_id = ?", id.UserID, itemID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to query favorites: %w", err)
	}
	return count > 0, nil
}

func (s *Service) get(ctx context.Context, id Identity, itemID string) (*Favorite, error) {
	var record database.Favorite
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND item_id = ?", id.UserID, itemID).
		First(&record).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load favorite: %w", err)
	}
	fav := fromRecord(record)
	return &fav, nil
}

func fromRecord(r database.Favorite) Favorite {
	return Favorite{
		ID:        r.ID,
		ItemID:    r.ItemID,
		Title:     r.Title,
		MediaType: r.MediaType,
		CreatedAt: r.CreatedAt,
	}
}
