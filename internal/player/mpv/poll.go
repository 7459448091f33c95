package mpv

import (
	"errors"
	"time"

	"github.com/justchokingaround/archivist/internal/player"
)

// sample is one reading of the mpv properties the element tracks
type sample struct {
	position    float64
	hasPosition bool
	duration    float64
	paused      bool
	eof         bool
	idle        bool

	// pauseWanted is the pause state last requested through the element
	pauseWanted bool
}

// pollState is what the element remembers about the current source
// between samples
type pollState struct {
	gen      player.Generation
	loadedAt time.Time

	metadata bool
	position float64
	paused   bool
	ended    bool
	failed   bool
}

var (
	errOpenFailed  = errors.New("mpv could not open the source")
	errLoadTimeout = errors.New("timed out waiting for media metadata")
	errDropped     = errors.New("mpv dropped the source during playback")
)

// derive compares a sample with the previous state and returns the new
// state plus the events the change implies. mpv going back to idle after
// a loadfile, once the grace period passed, means the source failed. With
// keep-open an ended source stays loaded, so idle after metadata and
// before the end means the source was dropped.
func derive(prev pollState, s sample, now time.Time, idleGrace, loadTimeout time.Duration) (pollState, []player.Event) {
	next := prev
	if prev.failed {
		return next, nil
	}

	var events []player.Event
	event := func(kind player.EventKind) player.Event {
		return player.Event{Kind: kind, Generation: prev.gen}
	}

	if !prev.metadata {
		switch {
		case s.duration > 0 && !s.idle:
			next.metadata = true
			next.paused = s.paused
			ev := event(player.EventMetadataReady)
			ev.Duration = s.duration
			events = append(events, ev)
		case s.idle && now.Sub(prev.loadedAt) >= idleGrace:
			next.failed = true
			ev := event(player.EventError)
			ev.Err = &player.ElementError{Kind: player.ErrorDecode, Err: errOpenFailed}
			return next, append(events, ev)
		case now.Sub(prev.loadedAt) >= loadTimeout:
			next.failed = true
			ev := event(player.EventError)
			ev.Err = &player.ElementError{Kind: player.ErrorNetwork, Err: errLoadTimeout}
			return next, append(events, ev)
		default:
			return next, nil
		}
	}

	if s.idle && !prev.ended {
		next.failed = true
		ev := event(player.EventError)
		ev.Err = &player.ElementError{Kind: player.ErrorNetwork, Err: errDropped}
		return next, append(events, ev)
	}

	if s.hasPosition && s.position != prev.position {
		next.position = s.position
		ev := event(player.EventTimeProgress)
		ev.Position = s.position
		events = append(events, ev)
	}

	// only pause changes mpv made on its own are reported
	if s.paused != next.paused {
		next.paused = s.paused
		if s.paused != s.pauseWanted {
			if s.paused {
				events = append(events, event(player.EventPaused))
			} else {
				events = append(events, event(player.EventPlaying))
			}
		}
	}

	switch {
	case s.eof && !prev.ended:
		next.ended = true
		events = append(events, event(player.EventEnded))
	case !s.eof && prev.ended:
		// seeking back from the end makes the source endable again
		next.ended = false
	}

	return next, events
}
