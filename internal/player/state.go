package player

import (
	"fmt"
	"math"
	"net/url"
	"path"
	"strings"
)

// Status is the transport status of the active track
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusPlaying Status = "playing"
	StatusPaused  Status = "paused"
	StatusEnded   Status = "ended"
	StatusErrored Status = "errored"
)

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// RepeatMode controls what happens at the edges of a playlist
type RepeatMode string

const (
	RepeatNone RepeatMode = "none"
	RepeatAll  RepeatMode = "all"
	RepeatOne  RepeatMode = "one"
)

// String returns the string representation of RepeatMode
func (m RepeatMode) String() string {
	return string(m)
}

// Next returns the mode that follows m in the none -> all -> one cycle.
func (m RepeatMode) Next() RepeatMode {
	switch m {
	case RepeatNone:
		return RepeatAll
	case RepeatAll:
		return RepeatOne
	default:
		return RepeatNone
	}
}

// ParseRepeatMode parses a repeat mode name
func ParseRepeatMode(s string) (RepeatMode, error) {
	switch RepeatMode(strings.ToLower(strings.TrimSpace(s))) {
	case RepeatNone, "":
		return RepeatNone, nil
	case RepeatAll:
		return RepeatAll, nil
	case RepeatOne:
		return RepeatOne, nil
	default:
		return RepeatNone, fmt.Errorf("unknown repeat mode %q (want none, all or one)", s)
	}
}

// State is a snapshot of the playback state of the active track
type State struct {
	Status   Status  `json:"status"`
	Position float64 `json:"position"` // seconds
	Duration float64 `json:"duration"` // seconds, 0 until metadata is known
	Volume   int     `json:"volume"`   // 0-100
	Muted    bool    `json:"muted"`
	Rate     float64 `json:"rate"`
}

// Percentage returns the play head position as 0.0 - 100.0
func (s State) Percentage() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return s.Position / s.Duration * 100
}

// Track is one playable media item. It is never mutated by the engine.
type Track struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Artist        string  `json:"artist,omitempty"`
	Album         string  `json:"album,omitempty"`
	PrimarySource string  `json:"primary_source"`
	Duration      float64 `json:"duration,omitempty"` // seconds, 0 when unknown
	CoverArt      string  `json:"cover_art,omitempty"`
}

// Validate returns a normalized copy of t. A track without a source is
// rejected; missing ids and titles are derived from the source, and a
// nonsensical duration is dropped.
func (t Track) Validate() (Track, error) {
	t.PrimarySource = strings.TrimSpace(t.PrimarySource)
	if t.PrimarySource == "" {
		return Track{}, fmt.Errorf("%w: missing primary source", ErrInvalidTrack)
	}

	t.ID = strings.TrimSpace(t.ID)
	if t.ID == "" {
		t.ID = t.PrimarySource
	}

	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		t.Title = sourceFileName(t.PrimarySource)
	}

	if math.IsNaN(t.Duration) || math.IsInf(t.Duration, 0) || t.Duration < 0 {
		t.Duration = 0
	}

	return t, nil
}

// sourceFileName returns the unescaped last path segment of a source
func sourceFileName(source string) string {
	p := source
	if u, err := url.Parse(source); err == nil && u.Path != "" {
		p = u.Path
	}
	name := path.Base(p)
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	if name == "." || name == "/" {
		return source
	}
	return name
}
