package player

import (
	"context"
	"math"
	"slices"
	"time"
)

// Timing holds the interaction thresholds
type Timing struct {
	DoubleTapWindow   time.Duration
	ControlsHideDelay time.Duration
	SkipInterval      time.Duration
	RestartThreshold  time.Duration
}

// DefaultTiming returns the stock thresholds
func DefaultTiming() Timing {
	return Timing{
		DoubleTapWindow:   300 * time.Millisecond,
		ControlsHideDelay: 3 * time.Second,
		SkipInterval:      10 * time.Second,
		RestartThreshold:  DefaultRestartThreshold,
	}
}

// withDefaults fills zero fields from DefaultTiming
func (t Timing) withDefaults() Timing {
	d := DefaultTiming()
	if t.DoubleTapWindow <= 0 {
		t.DoubleTapWindow = d.DoubleTapWindow
	}
	if t.ControlsHideDelay <= 0 {
		t.ControlsHideDelay = d.ControlsHideDelay
	}
	if t.SkipInterval <= 0 {
		t.SkipInterval = d.SkipInterval
	}
	if t.RestartThreshold <= 0 {
		t.RestartThreshold = d.RestartThreshold
	}
	return t
}

// Zone is the half of the player surface an action landed on
type Zone int

const (
	ZoneLeft Zone = iota
	ZoneRight
)

// Key is a keyboard shortcut the mediator understands
type Key string

const (
	KeySpace   Key = " "
	KeyLeft    Key = "left"
	KeyRight   Key = "right"
	KeyUp      Key = "up"
	KeyDown    Key = "down"
	KeyMute    Key = "m"
	KeyShuffle Key = "s"
	KeyRepeat  Key = "r"
	KeySlower  Key = "["
	KeyFaster  Key = "]"
)

// VolumeStep is the volume change of a single up/down key press
const VolumeStep = 5

// Transport is the command surface the mediator drives
type Transport interface {
	TogglePlay(ctx context.Context) error
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
	SeekFraction(ctx context.Context, fraction float64) error
	SeekRelative(ctx context.Context, delta time.Duration) error
	SetVolume(ctx context.Context, volume int) error
	ToggleMute(ctx context.Context) error
	SetPlaybackRate(ctx context.Context, rate float64) error
	ToggleShuffle() bool
	CycleRepeatMode() RepeatMode
	Snapshot() Snapshot
}

// Mediator turns raw input (taps, keys, slider moves) into transport
// commands and decides when controls are shown. Time is always passed
// in, so the mediator keeps no timers of its own.
type Mediator struct {
	transport Transport
	timing    Timing
	focused   bool

	tapPending bool
	lastTap    time.Time
	lastZone   Zone

	lastInteraction time.Time
}

// NewMediator creates a mediator. Zero timing fields take their defaults.
func NewMediator(transport Transport, timing Timing) *Mediator {
	return &Mediator{
		transport: transport,
		timing:    timing.withDefaults(),
		focused:   true,
	}
}

// SetFocused tells the mediator whether the player holds input focus
func (m *Mediator) SetFocused(focused bool) {
	m.focused = focused
}

// Focused reports whether keyboard shortcuts are active
func (m *Mediator) Focused() bool {
	return m.focused
}

// Touch records an interaction that reveals the controls
func (m *Mediator) Touch(now time.Time) {
	m.lastInteraction = now
}

// Tap handles a tap on zone. A second tap on the same zone within the
// double tap window seeks back (left) or forward (right) by the skip
// interval and consumes both taps. It reports whether a seek was issued.
func (m *Mediator) Tap(ctx context.Context, zone Zone, now time.Time) (bool, error) {
	m.Touch(now)

	if m.tapPending && zone == m.lastZone && now.Sub(m.lastTap) <= m.timing.DoubleTapWindow {
		m.tapPending = false
		delta := m.timing.SkipInterval
		if zone == ZoneLeft {
			delta = -delta
		}
		return true, m.transport.SeekRelative(ctx, delta)
	}

	m.tapPending = true
	m.lastTap = now
	m.lastZone = zone
	return false, nil
}

// Key handles a key press. It reports whether the key was consumed, in
// which case the host must not apply its own handling. Nothing is
// consumed while the player is unfocused.
func (m *Mediator) Key(ctx context.Context, key Key, now time.Time) (bool, error) {
	if !m.focused {
		return false, nil
	}

	switch key {
	case KeySpace:
		m.Touch(now)
		return true, m.transport.TogglePlay(ctx)
	case KeyRight:
		m.Touch(now)
		return true, m.transport.Next(ctx)
	case KeyLeft:
		m.Touch(now)
		return true, m.transport.Previous(ctx)
	case KeyUp, KeyDown:
		m.Touch(now)
		step := VolumeStep
		if key == KeyDown {
			step = -step
		}
		vol := m.transport.Snapshot().State.Volume
		return true, m.transport.SetVolume(ctx, vol+step)
	case KeyMute:
		m.Touch(now)
		return true, m.transport.ToggleMute(ctx)
	case KeyShuffle:
		m.Touch(now)
		m.transport.ToggleShuffle()
		return true, nil
	case KeyRepeat:
		m.Touch(now)
		m.transport.CycleRepeatMode()
		return true, nil
	case KeySlower, KeyFaster:
		m.Touch(now)
		dir := 1
		if key == KeySlower {
			dir = -1
		}
		rate := StepRate(m.transport.Snapshot().State.Rate, dir)
		return true, m.transport.SetPlaybackRate(ctx, rate)
	}
	return false, nil
}

// Scrub seeks to fraction (0-1) of the duration
func (m *Mediator) Scrub(ctx context.Context, fraction float64, now time.Time) error {
	m.Touch(now)
	return m.transport.SeekFraction(ctx, fraction)
}

// Volume sets the volume from the slider
func (m *Mediator) Volume(ctx context.Context, volume int, now time.Time) error {
	m.Touch(now)
	return m.transport.SetVolume(ctx, volume)
}

// ControlsVisible reports whether transport controls are shown at now.
// They only auto-hide while playing.
func (m *Mediator) ControlsVisible(status Status, now time.Time) bool {
	if status != StatusPlaying {
		return true
	}
	return now.Sub(m.lastInteraction) < m.timing.ControlsHideDelay
}

// HideAt returns when the controls hide if nothing else happens
func (m *Mediator) HideAt() time.Time {
	return m.lastInteraction.Add(m.timing.ControlsHideDelay)
}

// StepRate returns the supported rate dir steps away from current. It
// saturates at both ends of PlaybackRates.
func StepRate(current float64, dir int) float64 {
	i := slices.IndexFunc(PlaybackRates, func(r float64) bool {
		return math.Abs(r-current) < 1e-9
	})
	if i < 0 {
		// snap an unknown rate to the nearest supported one
		i = 0
		for j, r := range PlaybackRates {
			if math.Abs(r-current) < math.Abs(PlaybackRates[i]-current) {
				i = j
			}
		}
		return PlaybackRates[i]
	}
	i = max(0, min(len(PlaybackRates)-1, i+dir))
	return PlaybackRates[i]
}
