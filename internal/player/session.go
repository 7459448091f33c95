package player

import (
	"context"
	"errors"
	"log/slog"
	"math"
)

// Session drives one Element through the playback state machine:
//
//	idle -> loading -> (playing <-> paused) -> ended
//
// with errored reachable from loading, playing and paused. A Session is
// not safe for concurrent use; the Engine serializes access to it.
type Session struct {
	element Element
	logger  *slog.Logger
	emit    func(Signal)

	state      State
	generation Generation
	track      Track
	source     Candidate
	loaded     bool

	// autoplay is set while loading when play was requested before the
	// element knew the media
	autoplay bool
	// intent is the user's wish to be playing; it survives failures and
	// track changes so the next source can resume playback
	intent bool

	preMuteVolume int
	finished      bool
}

// NewSession creates a session around element. emit receives every
// signal the session produces, in order.
func NewSession(element Element, logger *slog.Logger, emit func(Signal)) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	if emit == nil {
		emit = func(Signal) {}
	}
	return &Session{
		element: element,
		logger:  logger,
		emit:    emit,
		state: State{
			Status: StatusIdle,
			Volume: 100,
			Rate:   1.0,
		},
		preMuteVolume: 100,
	}
}

// State returns a copy of the current playback state
func (s *Session) State() State {
	return s.state
}

// Generation returns the generation of the most recent load
func (s *Session) Generation() Generation {
	return s.generation
}

// Source returns the candidate currently assigned to the element
func (s *Session) Source() Candidate {
	return s.source
}

// WantsPlayback reports whether the user expects media to be playing,
// including a pending autoplay and playback interrupted by a failure.
func (s *Session) WantsPlayback() bool {
	return s.intent || s.autoplay
}

// Activate makes track the active track and resets the per-track state.
// Volume, mute and rate carry over. Events from earlier loads become stale.
func (s *Session) Activate(track Track) {
	s.generation++
	s.track = track
	s.source = Candidate{}
	s.loaded = false
	s.autoplay = false
	s.finished = false
	s.state.Position = 0
	s.state.Duration = 0
	s.setStatus(StatusIdle)
}

// Load assigns c to the element and enters loading. When autoplay is set
// playback starts as soon as the element reports metadata.
func (s *Session) Load(ctx context.Context, c Candidate, autoplay bool) {
	s.generation++
	gen := s.generation

	s.source = c
	s.loaded = true
	s.autoplay = autoplay
	s.intent = autoplay
	s.finished = false
	s.state.Position = 0
	s.state.Duration = 0
	s.setStatus(StatusLoading)

	s.logger.Debug("loading source",
		"url", c.URL,
		"format", c.Format,
		"generation", gen,
		"autoplay", autoplay)

	opts := LoadOptions{Title: s.track.Title}
	if err := s.element.Load(ctx, c, gen, opts); err != nil {
		// a synchronous failure counts as an error event for this load
		s.fail(err)
	}
}

// Play requests playback. While loading the request is remembered and
// honored once metadata arrives. In ended, or idle after Stop, the play
// head is rewound first. Without a source, or in errored, it does nothing.
func (s *Session) Play(ctx context.Context) {
	switch s.state.Status {
	case StatusPlaying:
		return
	case StatusLoading:
		s.autoplay = true
		s.intent = true
		return
	case StatusErrored:
		return
	case StatusIdle:
		if !s.loaded {
			return
		}
		s.rewind(ctx)
	case StatusEnded:
		s.rewind(ctx)
	}

	s.play(ctx)
}

func (s *Session) play(ctx context.Context) {
	err := s.element.Play(ctx)
	switch {
	case err == nil:
		s.intent = true
		s.setStatus(StatusPlaying)
	case errors.Is(err, ErrPlaybackBlocked):
		s.intent = false
		s.logger.Info("playback blocked, waiting for user", "url", s.source.URL)
		s.emit(s.signal(SignalPlaybackBlocked, &PlaybackError{
			Kind:   ClassifyError(err),
			Source: s.source.URL,
			Err:    ErrPlaybackBlocked,
		}))
	default:
		s.fail(err)
	}
}

// Pause pauses playback. It only acts while playing.
func (s *Session) Pause(ctx context.Context) {
	if s.state.Status != StatusPlaying {
		return
	}
	if err := s.element.Pause(ctx); err != nil {
		s.logger.Warn("failed to pause element", "error", err)
	}
	s.intent = false
	s.setStatus(StatusPaused)
}

// CancelAutoplay drops a pending autoplay request
func (s *Session) CancelAutoplay() {
	if s.state.Status != StatusLoading {
		return
	}
	s.autoplay = false
	s.intent = false
}

// AutoplayPending reports whether playback starts once metadata is ready
func (s *Session) AutoplayPending() bool {
	return s.state.Status == StatusLoading && s.autoplay
}

// Seek moves the play head, clamped to [0, duration]. It does nothing
// until the duration is known. Seeking an ended track pauses it at the
// new position.
func (s *Session) Seek(ctx context.Context, seconds float64) {
	if s.state.Duration <= 0 || math.IsNaN(seconds) {
		return
	}
	switch s.state.Status {
	case StatusLoading, StatusErrored:
		return
	case StatusIdle:
		if !s.loaded {
			return
		}
	}

	target := clamp(seconds, 0, s.state.Duration)
	if err := s.element.Seek(ctx, target); err != nil {
		s.logger.Warn("failed to seek element", "target", target, "error", err)
	}
	s.state.Position = target
	s.finished = false

	if s.state.Status == StatusEnded || s.state.Status == StatusIdle {
		s.setStatus(StatusPaused)
	}
	s.emit(s.signal(SignalProgress, nil))
}

// SetVolume sets the volume, clamped to 0-100. Zero mutes; any positive
// value unmutes.
func (s *Session) SetVolume(ctx context.Context, volume int) {
	volume = max(0, min(100, volume))

	if err := s.element.SetVolume(ctx, volume); err != nil {
		s.logger.Warn("failed to set element volume", "volume", volume, "error", err)
	}

	if volume == 0 {
		if !s.state.Muted && s.state.Volume > 0 {
			s.preMuteVolume = s.state.Volume
		}
		s.state.Muted = true
	} else {
		s.state.Muted = false
		s.preMuteVolume = volume
	}

	s.state.Volume = volume
	s.emit(s.signal(SignalStateChanged, nil))
}

// ToggleMute mutes the element keeping the volume for restoration, or
// restores it. Restoring a zero volume falls back to 100.
func (s *Session) ToggleMute(ctx context.Context) {
	if s.state.Muted {
		restore := s.state.Volume
		if restore == 0 {
			restore = s.preMuteVolume
		}
		if restore == 0 {
			restore = 100
		}
		if err := s.element.SetVolume(ctx, restore); err != nil {
			s.logger.Warn("failed to restore element volume", "volume", restore, "error", err)
		}
		s.state.Volume = restore
		s.state.Muted = false
	} else {
		s.preMuteVolume = s.state.Volume
		if err := s.element.SetVolume(ctx, 0); err != nil {
			s.logger.Warn("failed to mute element", "error", err)
		}
		s.state.Muted = true
	}
	s.emit(s.signal(SignalStateChanged, nil))
}

// SetRate applies a playback rate. Rates must be positive and finite.
func (s *Session) SetRate(ctx context.Context, rate float64) error {
	if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return ErrInvalidRate
	}
	if err := s.element.SetRate(ctx, rate); err != nil {
		s.logger.Warn("failed to set element rate", "rate", rate, "error", err)
	}
	s.state.Rate = rate
	s.emit(s.signal(SignalStateChanged, nil))
	return nil
}

// Stop pauses and rewinds the element and returns to idle. The source
// stays loaded, so Play starts it again from the beginning.
func (s *Session) Stop(ctx context.Context) {
	if s.state.Status == StatusPlaying {
		if err := s.element.Pause(ctx); err != nil {
			s.logger.Warn("failed to pause element", "error", err)
		}
	}
	if s.loaded && s.state.Duration > 0 {
		if err := s.element.Seek(ctx, 0); err != nil {
			s.logger.Warn("failed to rewind element", "error", err)
		}
	}
	s.intent = false
	s.autoplay = false
	s.finished = false
	s.state.Position = 0
	s.setStatus(StatusIdle)
}

// HandleEvent applies an element event. Events from a superseded load
// are dropped.
func (s *Session) HandleEvent(ctx context.Context, ev Event) {
	if ev.Generation != s.generation || !s.loaded {
		s.logger.Debug("discarding stale element event",
			"event", ev.Kind.String(),
			"generation", ev.Generation,
			"current", s.generation)
		return
	}

	switch ev.Kind {
	case EventMetadataReady:
		s.onMetadataReady(ctx, ev.Duration)
	case EventTimeProgress:
		s.onProgress(ev.Position)
	case EventEnded:
		s.onEnded()
	case EventError:
		if s.state.Status == StatusErrored {
			return
		}
		s.fail(ev.Err)
	case EventPlaying:
		if s.state.Status == StatusPaused {
			s.intent = true
			s.setStatus(StatusPlaying)
		}
	case EventPaused:
		if s.state.Status == StatusPlaying {
			s.intent = false
			s.setStatus(StatusPaused)
		}
	}
}

func (s *Session) onMetadataReady(ctx context.Context, duration float64) {
	if s.state.Status == StatusErrored {
		return
	}

	if s.track.Duration > 0 {
		duration = s.track.Duration
	}
	if math.IsNaN(duration) || math.IsInf(duration, 0) || duration < 0 {
		duration = 0
	}
	s.state.Duration = duration
	s.state.Position = clamp(s.state.Position, 0, duration)

	wasLoading := s.state.Status == StatusLoading
	if wasLoading {
		s.setStatus(StatusPaused)
	}
	s.emit(s.signal(SignalMetadataReady, nil))

	if wasLoading && s.autoplay {
		s.autoplay = false
		s.play(ctx)
	}
}

func (s *Session) onProgress(position float64) {
	switch s.state.Status {
	case StatusPlaying, StatusPaused:
	default:
		return
	}
	if math.IsNaN(position) {
		return
	}
	if s.state.Duration > 0 {
		position = clamp(position, 0, s.state.Duration)
	} else {
		position = max(0, position)
	}
	s.state.Position = position
	s.emit(s.signal(SignalProgress, nil))
}

func (s *Session) onEnded() {
	if s.finished {
		return
	}
	if s.state.Status != StatusPlaying && s.state.Status != StatusPaused {
		return
	}
	s.finished = true
	if s.state.Duration > 0 {
		s.state.Position = s.state.Duration
	}
	s.setStatus(StatusEnded)
	s.emit(s.signal(SignalTrackFinished, nil))
}

// fail moves to errored and reports the classified failure
func (s *Session) fail(err error) {
	kind := ClassifyError(err)
	if err == nil {
		err = errors.New("media element reported an error")
	}
	s.autoplay = false
	s.logger.Warn("source failed",
		"url", s.source.URL,
		"kind", kind.String(),
		"generation", s.generation,
		"error", err)

	s.setStatus(StatusErrored)
	s.emit(s.signal(SignalPlaybackFailed, &PlaybackError{
		Kind:   kind,
		Source: s.source.URL,
		Err:    err,
	}))
}

func (s *Session) rewind(ctx context.Context) {
	if s.state.Position != 0 || s.state.Status == StatusEnded {
		if err := s.element.Seek(ctx, 0); err != nil {
			s.logger.Warn("failed to rewind element", "error", err)
		}
	}
	s.state.Position = 0
	s.finished = false
}

func (s *Session) setStatus(status Status) {
	if s.state.Status == status {
		return
	}
	s.logger.Debug("status changed", "from", s.state.Status.String(), "to", status.String())
	s.state.Status = status
	s.emit(s.signal(SignalStateChanged, nil))
}

func (s *Session) signal(kind SignalKind, err *PlaybackError) Signal {
	return Signal{
		Kind:   kind,
		State:  s.state,
		Source: s.source,
		Err:    err,
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
