package player

import (
	"context"
	"errors"
)

// fakeElement records every call and lets tests decide how the element
// answers. Events are delivered by the test through emit.
type fakeElement struct {
	loads    []Candidate
	gens     []Generation
	calls    []string
	seeks    []float64
	volumes  []int
	rates    []float64
	callback func(Event)

	loadErr error
	playErr error
	closed  bool
}

func (f *fakeElement) Load(_ context.Context, src Candidate, gen Generation, _ LoadOptions) error {
	f.loads = append(f.loads, src)
	f.gens = append(f.gens, gen)
	f.calls = append(f.calls, "load")
	return f.loadErr
}

func (f *fakeElement) Play(context.Context) error {
	f.calls = append(f.calls, "play")
	return f.playErr
}

func (f *fakeElement) Pause(context.Context) error {
	f.calls = append(f.calls, "pause")
	return nil
}

func (f *fakeElement) Seek(_ context.Context, seconds float64) error {
	f.calls = append(f.calls, "seek")
	f.seeks = append(f.seeks, seconds)
	return nil
}

func (f *fakeElement) SetVolume(_ context.Context, volume int) error {
	f.volumes = append(f.volumes, volume)
	return nil
}

func (f *fakeElement) SetRate(_ context.Context, rate float64) error {
	f.rates = append(f.rates, rate)
	return nil
}

func (f *fakeElement) OnEvent(callback func(Event)) {
	f.callback = callback
}

func (f *fakeElement) Close() error {
	f.closed = true
	return nil
}

// gen returns the generation of the latest load
func (f *fakeElement) gen() Generation {
	if len(f.gens) == 0 {
		return 0
	}
	return f.gens[len(f.gens)-1]
}

func (f *fakeElement) lastLoad() Candidate {
	if len(f.loads) == 0 {
		return Candidate{}
	}
	return f.loads[len(f.loads)-1]
}

func (f *fakeElement) emit(ev Event) {
	f.callback(ev)
}

func (f *fakeElement) metadata(duration float64) {
	f.emit(Event{Kind: EventMetadataReady, Generation: f.gen(), Duration: duration})
}

func (f *fakeElement) progress(position float64) {
	f.emit(Event{Kind: EventTimeProgress, Generation: f.gen(), Position: position})
}

func (f *fakeElement) ended() {
	f.emit(Event{Kind: EventEnded, Generation: f.gen()})
}

func (f *fakeElement) fail(kind ErrorKind) {
	f.emit(Event{
		Kind:       EventError,
		Generation: f.gen(),
		Err:        &ElementError{Kind: kind, Err: errors.New("boom")},
	})
}

func (f *fakeElement) count(call string) int {
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

// recorder collects signals
type recorder struct {
	signals []Signal
}

func (r *recorder) listen(s Signal) {
	r.signals = append(r.signals, s)
}

func (r *recorder) kinds() []SignalKind {
	out := make([]SignalKind, 0, len(r.signals))
	for _, s := range r.signals {
		out = append(out, s.Kind)
	}
	return out
}

func (r *recorder) count(kind SignalKind) int {
	n := 0
	for _, s := range r.signals {
		if s.Kind == kind {
			n++
		}
	}
	return n
}

func (r *recorder) last(kind SignalKind) (Signal, bool) {
	for i := len(r.signals) - 1; i >= 0; i-- {
		if r.signals[i].Kind == kind {
			return r.signals[i], true
		}
	}
	return Signal{}, false
}

func (r *recorder) reset() {
	r.signals = nil
}

// fixedPicker always returns the same index
func fixedPicker(i int) IndexPicker {
	return IndexPickerFunc(func(n, exclude int) int { return i })
}

func tracks(names ...string) []Track {
	out := make([]Track, 0, len(names))
	for _, n := range names {
		out = append(out, Track{ID: n, Title: n, PrimarySource: "archive/item/" + n + ".mp4"})
	}
	return out
}
