package player

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrPlaybackBlocked is returned by an Element when the host refuses to
	// start playback without an explicit user gesture.
	ErrPlaybackBlocked = errors.New("playback blocked by autoplay policy")

	// ErrNoSupportedFormat is the terminal condition once every candidate
	// source of a track failed.
	ErrNoSupportedFormat = errors.New("no supported format found")

	ErrInvalidRate     = errors.New("playback rate must be positive")
	ErrUnsupportedRate = errors.New("unsupported playback rate")
	ErrTrackIndex      = errors.New("track index out of range")
	ErrEmptyPlaylist   = errors.New("playlist is empty")
	ErrInvalidTrack    = errors.New("invalid track")

	// ErrNotLoaded is returned by an Element asked to act before any
	// source was loaded. Sessions never surface it.
	ErrNotLoaded = errors.New("no media loaded")
)

// ErrorKind is the coarse classification of a failed source
type ErrorKind string

const (
	ErrorAborted     ErrorKind = "aborted"
	ErrorNetwork     ErrorKind = "network"
	ErrorDecode      ErrorKind = "decode"
	ErrorUnsupported ErrorKind = "unsupported_format"
	ErrorUnknown     ErrorKind = "unknown"
)

// String returns the string representation of ErrorKind
func (k ErrorKind) String() string {
	return string(k)
}

// SourceUnavailable reports whether the failure came from fetching the
// source rather than from decoding it.
func (k ErrorKind) SourceUnavailable() bool {
	return k == ErrorAborted || k == ErrorNetwork
}

// ElementError is reported by elements that know why a source failed
type ElementError struct {
	Kind ErrorKind
	Err  error
}

func (e *ElementError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("media element error (%s)", e.Kind)
	}
	return fmt.Sprintf("media element error (%s): %v", e.Kind, e.Err)
}

func (e *ElementError) Unwrap() error {
	return e.Err
}

// ClassifyError translates a host error into an ErrorKind. Errors that
// carry no usable information classify as ErrorUnknown.
func ClassifyError(err error) ErrorKind {
	if err == nil {
		return ErrorUnknown
	}

	var elemErr *ElementError
	if errors.As(err, &elemErr) {
		return elemErr.Kind
	}

	switch {
	case errors.Is(err, context.Canceled):
		return ErrorAborted
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorNetwork
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrorNetwork
	}

	return ErrorUnknown
}

// PlaybackError describes a failure surfaced to the shell. Err is never a
// raw host error for exhausted tracks; it is ErrNoSupportedFormat.
type PlaybackError struct {
	Kind   ErrorKind
	Source string
	Err    error
}

func (e *PlaybackError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("playback failed (%s): %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("playback of %s failed (%s): %v", e.Source, e.Kind, e.Err)
}

func (e *PlaybackError) Unwrap() error {
	return e.Err
}
