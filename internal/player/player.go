package player

import (
	"context"
	"fmt"
)

// Element is the host media element a Session drives. It plays one source
// at a time and reports what happens to that source through the callback
// registered with OnEvent. Every event must carry the Generation passed to
// the Load call that produced it.
type Element interface {
	// Source control
	Load(ctx context.Context, src Candidate, gen Generation, opts LoadOptions) error

	// Transport
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Seek(ctx context.Context, seconds float64) error
	SetVolume(ctx context.Context, volume int) error
	SetRate(ctx context.Context, rate float64) error

	// Callbacks
	OnEvent(callback func(Event))

	Close() error
}

// LoadOptions carries per-source hints an element may use for display or
// for fetching the media.
type LoadOptions struct {
	Title     string            `json:"title,omitempty"`
	Referer   string            `json:"referer,omitempty"`
	UserAgent string            `json:"user_agent,omitempty"`
	Headers   map[string]string `json:"headers,omitempty"`
}

// Generation tags a Load call. Events tagged with an older generation are
// stale and get discarded.
type Generation uint64

// EventKind identifies an asynchronous element event
type EventKind int

const (
	EventMetadataReady EventKind = iota
	EventTimeProgress
	EventEnded
	EventError
	EventPlaying
	EventPaused
)

// String returns the string representation of EventKind
func (k EventKind) String() string {
	switch k {
	case EventMetadataReady:
		return "metadata_ready"
	case EventTimeProgress:
		return "time_progress"
	case EventEnded:
		return "ended"
	case EventError:
		return "error"
	case EventPlaying:
		return "playing"
	case EventPaused:
		return "paused"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is a single notification from the element
type Event struct {
	Kind       EventKind
	Generation Generation
	Duration   float64 // seconds, EventMetadataReady
	Position   float64 // seconds, EventTimeProgress
	Err        error   // EventError
}
