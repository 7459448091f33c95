package tui

import (
	"context"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/justchokingaround/archivist/internal/player"
	"github.com/justchokingaround/archivist/internal/tui/common"
)

// noticeDuration is how long the "now playing" notice stays up
const noticeDuration = 3 * time.Second

// signalQueue hands engine signals to the program. Listeners run on
// whatever goroutine drives the engine, including Update itself, so push
// never blocks.
type signalQueue struct {
	mu      sync.Mutex
	pending []player.Signal
	ready   chan struct{}
}

func newSignalQueue() *signalQueue {
	return &signalQueue{ready: make(chan struct{}, 1)}
}

func (q *signalQueue) push(s player.Signal) {
	q.mu.Lock()
	q.pending = append(q.pending, s)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

func (q *signalQueue) take() []player.Signal {
	q.mu.Lock()
	defer q.mu.Unlock()
	batch := q.pending
	q.pending = nil
	return batch
}

// wait returns a command that blocks until signals are queued
func (q *signalQueue) wait(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-q.ready:
			return common.SignalsMsg(q.take())
		case <-ctx.Done():
			return nil
		}
	}
}

// handleSignals applies a batch of engine signals
func (m *Model) handleSignals(batch common.SignalsMsg) tea.Cmd {
	var cmds []tea.Cmd

	for _, s := range batch {
		switch s.Kind {
		case player.SignalTrackChanged:
			m.failure = nil
			m.blocked = false
			m.notice = "Now playing: " + s.Track.Title
			m.noticeTime = m.now()
			m.logger.Debug("track changed", "index", s.Index, "title", s.Track.Title)
			cmds = append(cmds, tea.Tick(noticeDuration, func(time.Time) tea.Msg {
				return common.ClearNoticeMsg{}
			}))

		case player.SignalPlaybackBlocked:
			m.blocked = true

		case player.SignalStateChanged:
			if s.State.Status == player.StatusPlaying {
				m.blocked = false
			}

		case player.SignalPlaybackExhausted:
			m.failure = &failure{source: s.Source, err: s.Err, track: s.Track}
			m.logger.Warn("no playable source", "track", s.Track.Title, "source", s.Source.URL)

		case player.SignalPlaybackRecovered:
			m.failure = nil

		case player.SignalStopped:
			m.setStatus("End of queue")
			cmds = append(cmds, m.clearStatusLater())
		}
	}

	m.snapshot = m.engine.Snapshot()
	cmds = append(cmds, m.signals.wait(m.ctx))
	return tea.Batch(cmds...)
}

// scheduleHide wakes the view when the controls are due to hide
func (m *Model) scheduleHide() tea.Cmd {
	at := m.mediator.HideAt()
	d := at.Sub(m.now())
	if d <= 0 {
		return nil
	}
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return common.ControlsTickMsg{At: t}
	})
}

// command reports a failed engine command to the view
func command(err error) tea.Cmd {
	if err == nil {
		return nil
	}
	return func() tea.Msg { return common.CommandErrorMsg{Err: err} }
}
