package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justchokingaround/archivist/internal/config"
	"github.com/justchokingaround/archivist/internal/database"
)

// newTestService returns a service whose clock advances a minute per save
func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := database.Open(&config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "history.db"), MaxConnections: 1})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	s := NewService(db)
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return s
}

func TestSaveAndLast(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	_, err := s.Last(ctx, "night")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Save(ctx, Entry{ItemID: "night", TrackID: "reel1.mp4", TrackIndex: 0, Position: 30, Duration: 600}))
	require.NoError(t, s.Save(ctx, Entry{ItemID: "night", TrackID: "reel2.mp4", TrackIndex: 1, Position: 12, Duration: 600}))

	last, err := s.Last(ctx, "night")
	require.NoError(t, err)
	assert.Equal(t, "reel2.mp4", last.TrackID)
	assert.Equal(t, 1, last.TrackIndex)
	assert.Equal(t, 12.0, last.Position)
	assert.False(t, last.Completed)
}

func TestSaveUpserts(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, Entry{ItemID: "a", TrackID: "t", Position: 10, Duration: 100}))
	require.NoError(t, s.Save(ctx, Entry{ItemID: "a", TrackID: "t", Position: 95, Duration: 100}))

	var count int64
	require.NoError(t, s.db.Model(&database.PlaybackHistory{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	last, err := s.Last(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 95.0, last.Position)
	assert.True(t, last.Completed, "past the threshold counts as completed")

	require.NoError(t, s.Save(ctx, Entry{ItemID: "a", TrackID: "t", Position: 5, Duration: 100}))
	last, err = s.Last(ctx, "a")
	require.NoError(t, err)
	assert.False(t, last.Completed, "rewatching clears completion")
}

func TestSaveValidation(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	assert.Error(t, s.Save(ctx, Entry{TrackID: "t"}))
	assert.Error(t, s.Save(ctx, Entry{ItemID: "a"}))
	assert.Error(t, (&Service{}).Save(ctx, Entry{ItemID: "a", TrackID: "t"}))
}

func TestRecent(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, Entry{ItemID: "a", TrackID: "1", Position: 1, Duration: 10}))
	require.NoError(t, s.Save(ctx, Entry{ItemID: "b", TrackID: "1", Position: 1, Duration: 10}))
	require.NoError(t, s.Save(ctx, Entry{ItemID: "a", TrackID: "2", Position: 1, Duration: 10}))
	require.NoError(t, s.Save(ctx, Entry{ItemID: "c", TrackID: "1", Position: 1, Duration: 10}))

	all, err := s.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{all[0].ItemID, all[1].ItemID, all[2].ItemID})
	assert.Equal(t, "2", all[1].TrackID, "latest track of the item")

	two, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, two, 2)
}

func TestDeleteAndCleanup(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, Entry{ItemID: "done", TrackID: "1", Position: 100, Duration: 100}))
	require.NoError(t, s.Save(ctx, Entry{ItemID: "partial", TrackID: "1", Position: 10, Duration: 100}))
	require.NoError(t, s.Save(ctx, Entry{ItemID: "gone", TrackID: "1", Position: 10, Duration: 100}))

	require.NoError(t, s.DeleteByItem(ctx, "gone"))
	_, err := s.Last(ctx, "gone")
	assert.ErrorIs(t, err, ErrNotFound)

	// the clock has moved past every save
	require.NoError(t, s.Cleanup(ctx, 0))
	_, err = s.Last(ctx, "done")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Last(ctx, "partial")
	assert.NoError(t, err)
}

func TestEntryProgress(t *testing.T) {
	assert.Equal(t, 0.0, Entry{Position: 10}.Progress())
	assert.Equal(t, 50.0, Entry{Position: 5, Duration: 10}.Progress())
	assert.Equal(t, 100.0, Entry{Position: 15, Duration: 10}.Progress())
}
