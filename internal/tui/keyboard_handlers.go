package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/justchokingaround/archivist/internal/player"
)

// handleKey routes a key press. The filter owns the keyboard while it is
// open; the error panel claims its own keys; everything else goes to the
// mediator.
func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.filter.IsActive() {
		return m.handleFilterKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.Close()
		return tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return nil
	case key.Matches(msg, m.keys.Filter):
		m.mediator.SetFocused(false)
		return m.filter.Activate(m.labels)
	}

	if m.failure != nil {
		switch {
		case key.Matches(msg, m.keys.Open):
			return m.openSource(m.failure.source.URL)
		case key.Matches(msg, m.keys.Copy):
			return m.copySource(m.failure.source.URL)
		case key.Matches(msg, m.keys.Retry):
			m.failure = nil
			return command(m.engine.Retry(m.ctx))
		}
	}

	now := m.now()
	switch {
	case key.Matches(msg, m.keys.SeekBack):
		_, err := m.mediator.Tap(m.ctx, player.ZoneLeft, now)
		return tea.Batch(command(err), m.scheduleHide())
	case key.Matches(msg, m.keys.SeekAhead):
		_, err := m.mediator.Tap(m.ctx, player.ZoneRight, now)
		return tea.Batch(command(err), m.scheduleHide())
	case key.Matches(msg, m.keys.Scrub):
		fraction := float64(msg.Runes[0]-'0') / 10
		return tea.Batch(command(m.mediator.Scrub(m.ctx, fraction, now)), m.scheduleHide())
	}

	consumed, err := m.mediator.Key(m.ctx, player.Key(msg.String()), now)
	if !consumed {
		return nil
	}
	if err == nil && m.blocked && msg.String() == string(player.KeySpace) {
		m.blocked = false
	}
	m.snapshot = m.engine.Snapshot()
	return tea.Batch(command(err), m.scheduleHide())
}

func (m *Model) handleFilterKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.closeFilter()
		return nil
	case key.Matches(msg, m.keys.Select):
		i, ok := m.filter.Selected()
		m.closeFilter()
		if !ok {
			return nil
		}
		err := m.engine.SelectTrack(m.ctx, i)
		m.snapshot = m.engine.Snapshot()
		return command(err)
	case msg.Type == tea.KeyUp, msg.Type == tea.KeyCtrlP:
		m.filter.Move(-1)
		return nil
	case msg.Type == tea.KeyDown, msg.Type == tea.KeyCtrlN:
		m.filter.Move(1)
		return nil
	}
	return m.filter.Update(msg)
}

func (m *Model) closeFilter() {
	m.filter.Deactivate()
	m.mediator.SetFocused(true)
	m.mediator.Touch(m.now())
}

// handleMouse maps clicks to taps on either half of the screen and the
// wheel to volume
func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if m.filter.IsActive() {
		return nil
	}
	now := m.now()

	switch msg.Button {
	case tea.MouseButtonLeft:
		if msg.Action != tea.MouseActionPress {
			return nil
		}
		zone := player.ZoneRight
		if msg.X < m.width/2 {
			zone = player.ZoneLeft
		}
		_, err := m.mediator.Tap(m.ctx, zone, now)
		return tea.Batch(command(err), m.scheduleHide())
	case tea.MouseButtonWheelUp, tea.MouseButtonWheelDown:
		step := player.VolumeStep
		if msg.Button == tea.MouseButtonWheelDown {
			step = -step
		}
		err := m.mediator.Volume(m.ctx, m.engine.Snapshot().State.Volume+step, now)
		return tea.Batch(command(err), m.scheduleHide())
	}
	return nil
}
