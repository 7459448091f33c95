package common

import (
	"time"

	"github.com/justchokingaround/archivist/internal/player"
)

// This file contains custom tea.Msg types for communication between the
// engine bridge and the now-playing view.

// SignalsMsg carries engine signals in emission order
type SignalsMsg []player.Signal

// ControlsTickMsg fires when the transport controls may have hidden
type ControlsTickMsg struct {
	At time.Time
}

// ClearNoticeMsg removes the transient "now playing" notice
type ClearNoticeMsg struct{}

// ClearStatusMsg removes the footer status message
type ClearStatusMsg struct{}

// CopiedMsg reports the result of copying a source URL
type CopiedMsg struct {
	URL string
	Err error
}

// OpenedMsg reports the result of opening a source URL externally
type OpenedMsg struct {
	URL string
	Err error
}

// CommandErrorMsg reports a failed engine command
type CommandErrorMsg struct {
	Err error
}
