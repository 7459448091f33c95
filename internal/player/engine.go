package player

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// PlaybackRates is the set of rates SetPlaybackRate accepts
var PlaybackRates = []float64{0.25, 0.5, 0.75, 1.0, 1.25, 1.5, 1.75, 2.0}

// Snapshot is a consistent view of the engine for rendering
type Snapshot struct {
	State           State
	Index           int
	Track           Track
	HasTrack        bool
	Len             int
	Shuffled        bool
	Repeat          RepeatMode
	Exhausted       bool
	AutoplayPending bool
	Source          Candidate
}

type engineOptions struct {
	start          int
	onTrackChanged func(int, Track)
	logger         *slog.Logger
	resolver       *Resolver
	picker         IndexPicker
	autoplay       bool
	timing         Timing
	shuffle        bool
	repeat         RepeatMode
}

// Option configures an Engine
type Option func(*engineOptions)

// WithStartIndex selects the first active track
func WithStartIndex(i int) Option {
	return func(o *engineOptions) { o.start = i }
}

// WithTrackChanged registers a callback invoked on every track change,
// before listeners see the corresponding signal.
func WithTrackChanged(fn func(index int, track Track)) Option {
	return func(o *engineOptions) { o.onTrackChanged = fn }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(o *engineOptions) { o.logger = logger }
}

// WithResolver sets the resolver used to derive fallback candidates
func WithResolver(r *Resolver) Option {
	return func(o *engineOptions) { o.resolver = r }
}

// WithIndexPicker replaces the random shuffle picker
func WithIndexPicker(p IndexPicker) Option {
	return func(o *engineOptions) { o.picker = p }
}

// WithAutoplay makes Start play the first track once it loads
func WithAutoplay(autoplay bool) Option {
	return func(o *engineOptions) { o.autoplay = autoplay }
}

// WithTiming sets the interaction thresholds
func WithTiming(t Timing) Option {
	return func(o *engineOptions) { o.timing = t }
}

// WithShuffle starts the engine with shuffle on
func WithShuffle(on bool) Option {
	return func(o *engineOptions) { o.shuffle = on }
}

// WithRepeat sets the initial repeat mode
func WithRepeat(mode RepeatMode) Option {
	return func(o *engineOptions) { o.repeat = mode }
}

type subscription struct {
	id int
	fn Listener
}

// Engine composes a Session, a Fallback controller and a Playlist around
// one Element. Components never call each other: they post signals to a
// queue that the engine drains and routes before a command returns.
// Listeners run after the engine lock is released, in emission order,
// and may call back into the engine.
type Engine struct {
	mu     sync.Mutex
	ctx    context.Context
	logger *slog.Logger

	element  Element
	session  *Session
	fallback *Fallback
	playlist *Playlist
	timing   Timing
	autoplay bool
	started  bool

	onTrackChanged func(int, Track)
	subs           []subscription
	nextSubID      int

	queue      []Signal
	outbox     []Signal
	delivering bool
}

// NewEngine creates an engine over tracks. Tracks are validated and
// normalized; nothing is loaded until Start.
func NewEngine(element Element, tracks []Track, opts ...Option) (*Engine, error) {
	o := engineOptions{
		timing: DefaultTiming(),
		repeat: RepeatNone,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.resolver == nil {
		o.resolver = DefaultResolver()
	}
	o.timing = o.timing.withDefaults()

	valid := make([]Track, 0, len(tracks))
	for i, t := range tracks {
		vt, err := t.Validate()
		if err != nil {
			return nil, fmt.Errorf("track %d: %w", i, err)
		}
		valid = append(valid, vt)
	}

	playlist, err := NewPlaylist(valid, o.start, o.picker)
	if err != nil {
		return nil, err
	}
	playlist.SetRestartThreshold(o.timing.RestartThreshold)
	playlist.SetShuffle(o.shuffle)
	playlist.SetRepeat(o.repeat)

	e := &Engine{
		ctx:            context.Background(),
		logger:         o.logger.With("engine", uuid.NewString()[:8]),
		element:        element,
		fallback:       NewFallback(o.resolver),
		playlist:       playlist,
		timing:         o.timing,
		autoplay:       o.autoplay,
		onTrackChanged: o.onTrackChanged,
	}
	e.session = NewSession(element, e.logger, e.post)

	element.OnEvent(e.HandleEvent)

	return e, nil
}

// Timing returns the engine's interaction thresholds
func (e *Engine) Timing() Timing {
	return e.timing
}

// Subscribe registers a listener and returns a function that removes it
func (e *Engine) Subscribe(l Listener) func() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.nextSubID++
	id := e.nextSubID
	// copy on write so delivery can iterate without the lock
	e.subs = append(slices.Clip(e.subs), subscription{id: id, fn: l})

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.subs = slices.DeleteFunc(slices.Clone(e.subs), func(s subscription) bool {
			return s.id == id
		})
	}
}

// Snapshot returns the current engine state
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot()
}

func (e *Engine) snapshot() Snapshot {
	track, idx, ok := e.playlist.Current()
	return Snapshot{
		State:           e.session.State(),
		Index:           idx,
		Track:           track,
		HasTrack:        ok,
		Len:             e.playlist.Len(),
		Shuffled:        e.playlist.Shuffled(),
		Repeat:          e.playlist.Repeat(),
		Exhausted:       e.fallback.Exhausted(),
		AutoplayPending: e.session.AutoplayPending(),
		Source:          e.session.Source(),
	}
}

// Tracks returns the playlist's tracks
func (e *Engine) Tracks() []Track {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playlist.Tracks()
}

// Start loads the active track, playing it if autoplay is enabled
func (e *Engine) Start(ctx context.Context) error {
	return e.do(func() error {
		return e.start(ctx, e.autoplay)
	})
}

func (e *Engine) start(ctx context.Context, autoplay bool) error {
	_, idx, ok := e.playlist.Current()
	if !ok {
		return ErrEmptyPlaylist
	}
	e.started = true
	return e.changeTrack(ctx, idx, autoplay)
}

// TogglePlay pauses while playing, cancels a pending autoplay while
// loading and plays otherwise.
func (e *Engine) TogglePlay(ctx context.Context) error {
	return e.do(func() error {
		switch {
		case e.session.State().Status == StatusPlaying:
			e.session.Pause(ctx)
		case e.session.AutoplayPending():
			e.session.CancelAutoplay()
		default:
			return e.play(ctx)
		}
		return nil
	})
}

// Play starts playback. Before Start it starts the active track.
func (e *Engine) Play(ctx context.Context) error {
	return e.do(func() error {
		return e.play(ctx)
	})
}

func (e *Engine) play(ctx context.Context) error {
	if !e.started {
		if e.playlist.Len() == 0 {
			return nil
		}
		return e.start(ctx, true)
	}
	e.session.Play(ctx)
	return nil
}

// Pause pauses playback
func (e *Engine) Pause(ctx context.Context) error {
	return e.do(func() error {
		e.session.Pause(ctx)
		return nil
	})
}

// Next moves to the next track. At the end of a non-repeating playlist
// it does nothing.
func (e *Engine) Next(ctx context.Context) error {
	return e.do(func() error {
		i, ok := e.playlist.Next(TriggerUser)
		if !ok {
			return nil
		}
		return e.changeTrack(ctx, i, e.session.WantsPlayback())
	})
}

// Previous restarts the current track when it is past the restart
// threshold and moves to the previous track otherwise.
func (e *Engine) Previous(ctx context.Context) error {
	return e.do(func() error {
		step := e.playlist.Previous(e.session.State().Position)
		switch step.Kind {
		case StepRestart:
			e.session.Seek(ctx, 0)
		case StepMove:
			return e.changeTrack(ctx, step.Index, e.session.WantsPlayback())
		}
		return nil
	})
}

// SeekFraction seeks to fraction (0-1) of the duration
func (e *Engine) SeekFraction(ctx context.Context, fraction float64) error {
	return e.do(func() error {
		if math.IsNaN(fraction) {
			return nil
		}
		fraction = clamp(fraction, 0, 1)
		e.session.Seek(ctx, fraction*e.session.State().Duration)
		return nil
	})
}

// SeekRelative moves the play head by delta, clamped to the track
func (e *Engine) SeekRelative(ctx context.Context, delta time.Duration) error {
	return e.do(func() error {
		e.session.Seek(ctx, e.session.State().Position+delta.Seconds())
		return nil
	})
}

// SeekTo seeks to an absolute position in seconds
func (e *Engine) SeekTo(ctx context.Context, seconds float64) error {
	return e.do(func() error {
		e.session.Seek(ctx, seconds)
		return nil
	})
}

// SetVolume sets the volume (0-100)
func (e *Engine) SetVolume(ctx context.Context, volume int) error {
	return e.do(func() error {
		e.session.SetVolume(ctx, volume)
		return nil
	})
}

// ToggleMute mutes or unmutes
func (e *Engine) ToggleMute(ctx context.Context) error {
	return e.do(func() error {
		e.session.ToggleMute(ctx)
		return nil
	})
}

// SetPlaybackRate applies one of PlaybackRates
func (e *Engine) SetPlaybackRate(ctx context.Context, rate float64) error {
	return e.do(func() error {
		if !slices.Contains(PlaybackRates, rate) {
			return fmt.Errorf("rate %v: %w", rate, ErrUnsupportedRate)
		}
		return e.session.SetRate(ctx, rate)
	})
}

// ToggleShuffle flips shuffle and returns the new value
func (e *Engine) ToggleShuffle() bool {
	var on bool
	_ = e.do(func() error {
		on = e.playlist.ToggleShuffle()
		e.post(Signal{Kind: SignalStateChanged, State: e.session.State(), Source: e.session.Source()})
		return nil
	})
	return on
}

// CycleRepeatMode advances the repeat mode and returns it
func (e *Engine) CycleRepeatMode() RepeatMode {
	var mode RepeatMode
	_ = e.do(func() error {
		mode = e.playlist.CycleRepeat()
		e.post(Signal{Kind: SignalStateChanged, State: e.session.State(), Source: e.session.Source()})
		return nil
	})
	return mode
}

// SelectTrack makes track i active
func (e *Engine) SelectTrack(ctx context.Context, i int) error {
	return e.do(func() error {
		if i < 0 || i >= e.playlist.Len() {
			return fmt.Errorf("select track %d of %d: %w", i, e.playlist.Len(), ErrTrackIndex)
		}
		autoplay := e.session.WantsPlayback() || !e.started
		e.started = true
		return e.changeTrack(ctx, i, autoplay)
	})
}

// Retry reloads the active track from its primary source after a
// failure. It does nothing while the track is healthy.
func (e *Engine) Retry(ctx context.Context) error {
	return e.do(func() error {
		if e.session.State().Status != StatusErrored && !e.fallback.Exhausted() {
			return nil
		}
		c := e.fallback.Retry()
		e.logger.Info("retrying track", "url", c.URL)
		e.session.Load(ctx, c, true)
		return nil
	})
}

// HandleEvent feeds an element event into the engine. It is registered
// with the element by NewEngine.
func (e *Engine) HandleEvent(ev Event) {
	_ = e.do(func() error {
		e.session.HandleEvent(e.ctx, ev)
		return nil
	})
}

// Close releases the element
func (e *Engine) Close() error {
	return e.element.Close()
}

// changeTrack activates track i and loads its primary source
func (e *Engine) changeTrack(ctx context.Context, i int, autoplay bool) error {
	if err := e.playlist.Jump(i); err != nil {
		return err
	}
	track, _, _ := e.playlist.Current()

	e.session.Activate(track)
	e.fallback.Reset(track)
	e.post(Signal{Kind: SignalTrackChanged, State: e.session.State()})

	e.logger.Info("track changed", "index", i, "title", track.Title, "autoplay", autoplay)
	e.session.Load(ctx, e.fallback.Primary(), autoplay)
	return nil
}

// post queues a signal, tagging it with the active track
func (e *Engine) post(s Signal) {
	if track, idx, ok := e.playlist.Current(); ok {
		s.Index = idx
		s.Track = track
	} else {
		s.Index = -1
	}
	e.queue = append(e.queue, s)
}

// drain routes queued signals until the queue is empty. Routing may
// queue more signals; they are handled in order.
func (e *Engine) drain() {
	for len(e.queue) > 0 {
		s := e.queue[0]
		e.queue = e.queue[1:]
		e.outbox = append(e.outbox, s)
		e.route(s)
	}
	e.queue = nil
}

func (e *Engine) route(s Signal) {
	switch s.Kind {
	case SignalTrackFinished:
		e.onTrackFinished()
	case SignalPlaybackFailed:
		e.onPlaybackFailed(s)
	case SignalMetadataReady:
		if e.fallback.MetadataReady() {
			e.logger.Info("playback recovered", "url", s.Source.URL)
			e.post(Signal{Kind: SignalPlaybackRecovered, State: e.session.State(), Source: s.Source})
		}
	}
}

func (e *Engine) onTrackFinished() {
	step := e.playlist.OnTrackEnded()
	switch step.Kind {
	case StepRestart:
		e.session.Play(e.ctx)
	case StepMove:
		if err := e.changeTrack(e.ctx, step.Index, e.session.WantsPlayback()); err != nil {
			e.logger.Error("failed to advance playlist", "index", step.Index, "error", err)
		}
	default:
		e.session.Stop(e.ctx)
		e.logger.Info("end of playlist")
		e.post(Signal{Kind: SignalStopped, State: e.session.State(), Source: e.session.Source()})
	}
}

func (e *Engine) onPlaybackFailed(s Signal) {
	kind := ErrorUnknown
	if s.Err != nil {
		kind = s.Err.Kind
	}

	wasExhausted := e.fallback.Exhausted()
	next, ok := e.fallback.HandleFailure(kind)
	if ok {
		e.logger.Info("trying fallback source",
			"failed", s.Source.URL,
			"next", next.URL,
			"remaining", e.fallback.Remaining())
		e.session.Load(e.ctx, next, e.session.WantsPlayback())
		return
	}
	if wasExhausted {
		return
	}

	primary := e.fallback.Primary()
	e.logger.Warn("no playable source left", "primary", primary.URL)
	e.post(Signal{
		Kind:   SignalPlaybackExhausted,
		State:  e.session.State(),
		Source: primary,
		Err: &PlaybackError{
			Kind:   kind,
			Source: primary.URL,
			Err:    ErrNoSupportedFormat,
		},
	})
}

// do runs fn under the engine lock, routes what it produced and then
// delivers signals to listeners with the lock released. Only one caller
// delivers at a time; signals produced meanwhile (including by listeners
// calling back into the engine) are delivered by that caller, in order.
func (e *Engine) do(fn func() error) error {
	e.mu.Lock()
	err := fn()
	e.drain()

	if e.delivering {
		e.mu.Unlock()
		return err
	}
	e.delivering = true
	for len(e.outbox) > 0 {
		batch := e.outbox
		e.outbox = nil
		subs := e.subs
		onTrackChanged := e.onTrackChanged
		e.mu.Unlock()

		for _, s := range batch {
			if s.Kind == SignalTrackChanged && onTrackChanged != nil {
				onTrackChanged(s.Index, s.Track)
			}
			for _, sub := range subs {
				sub.fn(s)
			}
		}

		e.mu.Lock()
	}
	e.delivering = false
	e.mu.Unlock()
	return err
}
