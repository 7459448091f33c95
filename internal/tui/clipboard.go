package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/justchokingaround/archivist/internal/tui/common"
)

var errNoSource = errors.New("no source url")

// copySource copies url to the system clipboard
func (m *Model) copySource(url string) tea.Cmd {
	svc := m.clipboard
	return func() tea.Msg {
		if url == "" {
			return common.CopiedMsg{Err: errNoSource}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return common.CopiedMsg{URL: url, Err: svc.Write(ctx, url)}
	}
}

// openSource hands url to the system browser
func (m *Model) openSource(url string) tea.Cmd {
	open := m.openURL
	return func() tea.Msg {
		if url == "" {
			return common.OpenedMsg{Err: errNoSource}
		}
		return common.OpenedMsg{URL: url, Err: open(url)}
	}
}
