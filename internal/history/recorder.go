package history

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/justchokingaround/archivist/internal/player"
)

// DefaultSaveInterval throttles saves driven by progress signals
const DefaultSaveInterval = 10 * time.Second

// Recorder saves resume points while an engine plays one item. Listen is
// a player.Listener.
type Recorder struct {
	svc       *Service
	itemID    string
	itemTitle string
	interval  time.Duration
	logger    *slog.Logger
	now       func() time.Time

	mu        sync.Mutex
	lastSaved time.Time
}

// NewRecorder creates a recorder for one item
func NewRecorder(svc *Service, itemID, itemTitle string, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		svc:       svc,
		itemID:    itemID,
		itemTitle: itemTitle,
		interval:  DefaultSaveInterval,
		logger:    logger.With("component", "history"),
		now:       time.Now,
	}
}

// Listen records the position carried by engine signals. Progress is
// saved at most once per interval; pauses and finished tracks are saved
// right away. Positions at zero are never saved so a fresh load cannot
// overwrite a resume point.
func (r *Recorder) Listen(s player.Signal) {
	switch s.Kind {
	case player.SignalProgress:
		r.mu.Lock()
		due := r.now().Sub(r.lastSaved) >= r.interval
		r.mu.Unlock()
		if due {
			r.save(s.Index, s.Track, s.State)
		}
	case player.SignalStateChanged:
		if s.State.Status == player.StatusPaused {
			r.save(s.Index, s.Track, s.State)
		}
	case player.SignalTrackFinished:
		r.save(s.Index, s.Track, s.State)
	}
}

// Record saves the position of snap immediately
func (r *Recorder) Record(snap player.Snapshot) {
	if !snap.HasTrack {
		return
	}
	r.save(snap.Index, snap.Track, snap.State)
}

func (r *Recorder) save(index int, track player.Track, state player.State) {
	if index < 0 || track.ID == "" || state.Position <= 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := r.svc.Save(ctx, Entry{
		ItemID:     r.itemID,
		ItemTitle:  r.itemTitle,
		TrackID:    track.ID,
		TrackTitle: track.Title,
		TrackIndex: index,
		Position:   state.Position,
		Duration:   state.Duration,
	})
	if err != nil {
		r.logger.Warn("failed to save playback position", "track", track.ID, "error", err)
		return
	}

	r.mu.Lock()
	r.lastSaved = r.now()
	r.mu.Unlock()
}

// ResumeIndex locates the track of e in tracks and the position to seek
// to. A completed track resumes at the start of the next one; nothing
// resumes after the last track was completed.
func ResumeIndex(e *Entry, tracks []player.Track) (index int, position float64, ok bool) {
	if e == nil {
		return 0, 0, false
	}
	i := slices.IndexFunc(tracks, func(t player.Track) bool { return t.ID == e.TrackID })
	if i < 0 {
		return 0, 0, false
	}
	if e.Completed {
		if i+1 >= len(tracks) {
			return 0, 0, false
		}
		return i + 1, 0, true
	}
	return i, e.Position, true
}
