package player

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// DefaultRestartThreshold is how far into a track Previous restarts it
// instead of going back.
const DefaultRestartThreshold = 3 * time.Second

// Trigger tells Next why the playlist advances
type Trigger int

const (
	TriggerUser Trigger = iota
	TriggerEnded
)

// StepKind is the outcome of a traversal decision
type StepKind int

const (
	StepNone StepKind = iota
	StepMove
	StepRestart
)

// Step is what the engine must do after a traversal decision
type Step struct {
	Kind  StepKind
	Index int
}

// IndexPicker chooses a random index in [0, n) other than exclude. n is
// at least 2.
type IndexPicker interface {
	Pick(n, exclude int) int
}

// IndexPickerFunc adapts a function to IndexPicker
type IndexPickerFunc func(n, exclude int) int

func (f IndexPickerFunc) Pick(n, exclude int) int {
	return f(n, exclude)
}

type randomPicker struct{}

func (randomPicker) Pick(n, exclude int) int {
	i := rand.IntN(n - 1)
	if i >= exclude {
		i++
	}
	return i
}

// RandomPicker picks uniformly among every index except the excluded one
func RandomPicker() IndexPicker {
	return randomPicker{}
}

// Playlist is an ordered track list with a current position and
// independent shuffle and repeat flags.
type Playlist struct {
	tracks   []Track
	current  int // -1 when empty
	shuffled bool
	repeat   RepeatMode

	picker       IndexPicker
	restartAfter float64 // seconds
}

// NewPlaylist creates a playlist positioned at start. A nil picker uses
// RandomPicker.
func NewPlaylist(tracks []Track, start int, picker IndexPicker) (*Playlist, error) {
	if picker == nil {
		picker = RandomPicker()
	}
	p := &Playlist{
		tracks:       append([]Track(nil), tracks...),
		current:      -1,
		repeat:       RepeatNone,
		picker:       picker,
		restartAfter: DefaultRestartThreshold.Seconds(),
	}
	if len(p.tracks) == 0 {
		return p, nil
	}
	if start < 0 || start >= len(p.tracks) {
		return nil, fmt.Errorf("start %d of %d tracks: %w", start, len(p.tracks), ErrTrackIndex)
	}
	p.current = start
	return p, nil
}

// SetRestartThreshold changes how far into a track Previous restarts it
func (p *Playlist) SetRestartThreshold(d time.Duration) {
	if d >= 0 {
		p.restartAfter = d.Seconds()
	}
}

// Len returns the number of tracks
func (p *Playlist) Len() int {
	return len(p.tracks)
}

// Tracks returns a copy of the track list
func (p *Playlist) Tracks() []Track {
	return append([]Track(nil), p.tracks...)
}

// Current returns the active track and its index
func (p *Playlist) Current() (Track, int, bool) {
	if p.current < 0 {
		return Track{}, -1, false
	}
	return p.tracks[p.current], p.current, true
}

// Shuffled reports whether shuffle is on
func (p *Playlist) Shuffled() bool {
	return p.shuffled
}

// Repeat returns the repeat mode
func (p *Playlist) Repeat() RepeatMode {
	return p.repeat
}

// Next returns the index that follows the current one, without moving
// there. It returns false when there is nowhere to go.
func (p *Playlist) Next(trigger Trigger) (int, bool) {
	n := len(p.tracks)
	if p.current < 0 {
		return 0, false
	}

	if p.shuffled {
		return p.pickOther()
	}

	next := p.current + 1
	if next < n {
		return next, true
	}
	if p.repeat == RepeatAll {
		return 0, true
	}
	// repeat none at the last track: a user skip is ignored, an ended
	// track stops playback (see OnTrackEnded)
	return 0, false
}

// Previous decides what going back means at position seconds into the
// current track.
func (p *Playlist) Previous(position float64) Step {
	if p.current < 0 {
		return Step{Kind: StepNone}
	}
	if position > p.restartAfter {
		return Step{Kind: StepRestart, Index: p.current}
	}

	if p.shuffled {
		if i, ok := p.pickOther(); ok {
			return Step{Kind: StepMove, Index: i}
		}
		return Step{Kind: StepNone}
	}

	prev := p.current - 1
	if prev >= 0 {
		return Step{Kind: StepMove, Index: prev}
	}
	if p.repeat == RepeatAll {
		return Step{Kind: StepMove, Index: len(p.tracks) - 1}
	}
	return Step{Kind: StepNone}
}

// OnTrackEnded decides what follows a track that played to its end.
// StepNone means playback stops.
func (p *Playlist) OnTrackEnded() Step {
	if p.current < 0 {
		return Step{Kind: StepNone}
	}
	if p.repeat == RepeatOne {
		return Step{Kind: StepRestart, Index: p.current}
	}
	if i, ok := p.Next(TriggerEnded); ok {
		return Step{Kind: StepMove, Index: i}
	}
	return Step{Kind: StepNone}
}

// ToggleShuffle flips the shuffle flag and returns the new value
func (p *Playlist) ToggleShuffle() bool {
	p.shuffled = !p.shuffled
	return p.shuffled
}

// CycleRepeat advances none -> all -> one -> none
func (p *Playlist) CycleRepeat() RepeatMode {
	p.repeat = p.repeat.Next()
	return p.repeat
}

// SetRepeat sets the repeat mode directly
func (p *Playlist) SetRepeat(mode RepeatMode) {
	p.repeat = mode
}

// SetShuffle sets the shuffle flag directly
func (p *Playlist) SetShuffle(on bool) {
	p.shuffled = on
}

// Jump makes index i current
func (p *Playlist) Jump(i int) error {
	if i < 0 || i >= len(p.tracks) {
		return fmt.Errorf("jump to %d of %d tracks: %w", i, len(p.tracks), ErrTrackIndex)
	}
	p.current = i
	return nil
}

func (p *Playlist) pickOther() (int, bool) {
	n := len(p.tracks)
	if n < 2 {
		return 0, false
	}
	i := p.picker.Pick(n, p.current)
	if i < 0 || i >= n || i == p.current {
		// a misbehaving picker degrades to sequential order
		i = (p.current + 1) % n
	}
	return i, true
}
