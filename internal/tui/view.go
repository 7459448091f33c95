package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/justchokingaround/archivist/internal/player"
	"github.com/justchokingaround/archivist/internal/tui/styles"
	"github.com/justchokingaround/archivist/internal/tui/utils"
)

const defaultWidth = 80

// View renders the now-playing view
func (m *Model) View() string {
	width := m.width
	if width <= 0 {
		width = defaultWidth
	}
	// border and padding of AppStyle
	inner := max(20, width-6)

	snap := m.snapshot
	controls := m.mediator.ControlsVisible(snap.State.Status, m.now())

	sections := []string{m.renderHeader(snap, inner), m.renderProgress(snap)}
	if controls {
		sections = append(sections, m.renderControls(snap))
	}
	if m.notice != "" {
		sections = append(sections, styles.NoticeStyle.Render(utils.TruncateWithWidth(m.notice, inner)))
	}
	if m.blocked {
		sections = append(sections, styles.PromptStyle.Render("Playback was blocked. Press space to start."))
	}
	if m.failure != nil {
		sections = append(sections, m.renderFailure(inner))
	}
	sections = append(sections, m.renderQueue(snap, inner))

	if m.statusMsg != "" {
		sections = append(sections, styles.FooterStyle.Render(m.statusMsg))
	}
	switch {
	case m.failure != nil:
		sections = append(sections, m.help.View(failureKeys{m.keys}))
	case controls || m.filter.IsActive():
		sections = append(sections, m.help.View(m.keys))
	}

	return styles.AppStyle.Width(inner + 4).Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m *Model) renderHeader(snap player.Snapshot, width int) string {
	title := m.title
	if title == "" {
		title = "archivist"
	}
	header := styles.TitleStyle.Render(utils.TruncateWithWidth(title, width-12)) + " " +
		styles.FormatStatusBadge(snap.State.Status.String())

	if !snap.HasTrack {
		return header + "\n\n" + styles.HelpStyle.Render("Nothing queued")
	}

	lines := []string{header, "", styles.TrackTitleStyle.Render(utils.TruncateWithWidth(snap.Track.Title, width))}
	var sub []string
	if snap.Track.Artist != "" {
		sub = append(sub, snap.Track.Artist)
	}
	if snap.Track.Album != "" && snap.Track.Album != snap.Track.Artist {
		sub = append(sub, snap.Track.Album)
	}
	if len(sub) > 0 {
		lines = append(lines, styles.SubtitleStyle.Render(utils.TruncateWithWidth(strings.Join(sub, " · "), width)))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderProgress(snap player.Snapshot) string {
	state := snap.State
	duration := "--:--"
	if state.Duration > 0 {
		duration = utils.FormatClock(state.Duration)
	}
	clock := styles.MetadataStyle.Render(utils.FormatClock(state.Position) + " / " + duration)
	return "\n" + m.progress.ViewAs(state.Percentage()/100) + "  " + clock
}

func (m *Model) renderControls(snap player.Snapshot) string {
	state := snap.State

	volume := fmt.Sprintf("vol %d%%", state.Volume)
	if state.Muted {
		volume = "muted"
	}
	rate := fmt.Sprintf("%gx", state.Rate)
	if state.Rate == 0 {
		rate = "1x"
	}
	position := ""
	if snap.HasTrack {
		position = fmt.Sprintf("track %d/%d", snap.Index+1, snap.Len)
	}

	repeat := "repeat " + snap.Repeat.String()
	return strings.Join([]string{
		styles.MetadataStyle.Render(volume + " • " + rate + " • " + position),
		styles.FormatToggle("shuffle", snap.Shuffled) + styles.FormatToggle(repeat, snap.Repeat != player.RepeatNone),
	}, "\n")
}

func (m *Model) renderFailure(width int) string {
	f := m.failure
	lines := []string{styles.ErrorTitleStyle.Render(utils.TruncateWithWidth("✗ Cannot play "+f.track.Title, width-6))}

	reason := player.ErrNoSupportedFormat.Error()
	if f.err != nil {
		reason = f.err.Error()
	}
	lines = append(lines, utils.WrapText(reason, width-6)...)
	if f.source.URL != "" {
		lines = append(lines, styles.URLStyle.Render(utils.TruncateWithWidth(f.source.URL, width-6)))
	}
	return styles.ErrorPanelStyle.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderQueue(snap player.Snapshot, width int) string {
	var b strings.Builder

	if m.filter.IsActive() {
		b.WriteString(m.filter.View())
		b.WriteString("\n")
		matches := m.filter.Matches()
		if len(matches) == 0 {
			b.WriteString(styles.HelpStyle.Render("  No matches"))
			return b.String()
		}
		selected, _ := m.filter.Selected()
		start, end := window(len(matches), max(0, slices.Index(matches, selected)), m.queueRows())
		for _, i := range matches[start:end] {
			b.WriteString(m.renderRow(i, snap, i == selected, width))
			b.WriteString("\n")
		}
		return strings.TrimRight(b.String(), "\n")
	}

	b.WriteString(styles.HeaderStyle.Render(fmt.Sprintf("Queue (%d)", len(m.tracks))))
	b.WriteString("\n")
	start, end := window(len(m.tracks), snap.Index, m.queueRows())
	for i := start; i < end; i++ {
		b.WriteString(m.renderRow(i, snap, false, width))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *Model) renderRow(i int, snap player.Snapshot, selected bool, width int) string {
	t := m.tracks[i]
	label := t.Title
	if t.Artist != "" {
		label += " · " + t.Artist
	}
	suffix := ""
	if t.Duration > 0 {
		suffix = "  " + utils.FormatClock(t.Duration)
	}
	prefix := fmt.Sprintf("%3d. ", i+1)
	label = utils.TruncateWithWidth(label, max(5, width-len(prefix)-len(suffix)-4))

	switch {
	case selected:
		return styles.SelectedItemStyle.Render("› " + prefix + label + suffix)
	case snap.HasTrack && i == snap.Index:
		return styles.ActiveItemStyle.Render("▶ " + prefix + label + suffix)
	default:
		return styles.NormalItemStyle.Render("  " + prefix + label + suffix)
	}
}

func (m *Model) queueRows() int {
	if m.height <= 0 {
		return 8
	}
	return max(3, m.height-22)
}

// window returns the bounds of a size-long slice of total items that
// keeps focus in view
func window(total, focus, size int) (int, int) {
	if total <= size {
		return 0, total
	}
	start := max(0, focus-size/2)
	end := start + size
	if end > total {
		end = total
		start = total - size
	}
	return start, end
}
