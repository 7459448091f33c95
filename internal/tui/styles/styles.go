package styles

import "github.com/charmbracelet/lipgloss"

// Oxocarbon color scheme - IBM Carbon inspired
// Following base16 oxocarbon-dark palette
var (
	// Base colors
	OxocarbonBase00 = lipgloss.Color("#262626") // UI elements
	OxocarbonBase01 = lipgloss.Color("#393939") // Borders, secondary UI
	OxocarbonBase02 = lipgloss.Color("#525252") // Disabled/muted elements
	OxocarbonBase03 = lipgloss.Color("#767676") // Disabled/muted elements
	OxocarbonBase04 = lipgloss.Color("#dde1e6") // Secondary foreground
	OxocarbonBase05 = lipgloss.Color("#f2f4f8") // Primary foreground
	OxocarbonWhite  = lipgloss.Color("#ffffff")

	// Accent colors
	OxocarbonTeal   = lipgloss.Color("#3ddbd9")
	OxocarbonBlue   = lipgloss.Color("#78a9ff")
	OxocarbonPink   = lipgloss.Color("#ee5396")
	OxocarbonRed    = lipgloss.Color("#ff5252")
	OxocarbonCyan   = lipgloss.Color("#33b1ff")
	OxocarbonGreen  = lipgloss.Color("#42be65")
	OxocarbonPurple = lipgloss.Color("#be95ff") // main accent
	OxocarbonMauve  = lipgloss.Color("#d1aaff")

	// Playback status colors
	StatusPlaying = OxocarbonGreen
	StatusPaused  = OxocarbonBlue
	StatusLoading = OxocarbonPurple
	StatusErrored = OxocarbonRed
	StatusIdle    = OxocarbonBase03
)

var (
	// App general style with a subtle border
	AppStyle = lipgloss.NewStyle().
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(OxocarbonBase01)

	// Item title bar
	TitleStyle = lipgloss.NewStyle().
			Foreground(OxocarbonWhite).
			Background(OxocarbonPurple).
			Padding(0, 1).
			Bold(true)

	// Track title
	TrackTitleStyle = lipgloss.NewStyle().
			Foreground(OxocarbonBase05).
			Bold(true)

	// Artist and album line
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(OxocarbonMauve)

	MetadataStyle = lipgloss.NewStyle().
			Foreground(OxocarbonBase04)

	HelpStyle = lipgloss.NewStyle().
			Foreground(OxocarbonBase03).
			Italic(true)

	// Queue rows
	NormalItemStyle = lipgloss.NewStyle().
			PaddingLeft(2).
			Foreground(OxocarbonBase05)

	SelectedItemStyle = lipgloss.NewStyle().
				PaddingLeft(2).
				Foreground(OxocarbonPurple).
				Bold(true)

	ActiveItemStyle = lipgloss.NewStyle().
			PaddingLeft(2).
			Foreground(OxocarbonGreen).
			Bold(true)

	HeaderStyle = lipgloss.NewStyle().
			Foreground(OxocarbonPurple).
			Bold(true).
			Underline(true).
			MarginTop(1)

	// Pill-shaped toggles (shuffle, repeat)
	BadgeStyle = lipgloss.NewStyle().
			Foreground(OxocarbonBase03).
			Background(OxocarbonBase01).
			Padding(0, 1).
			MarginRight(1)

	BadgeActiveStyle = lipgloss.NewStyle().
				Foreground(OxocarbonPurple).
				Background(OxocarbonBase01).
				Padding(0, 1).
				MarginRight(1).
				Bold(true)

	URLStyle = lipgloss.NewStyle().
			Foreground(OxocarbonCyan).
			Italic(true)

	// Footer style for status messages
	FooterStyle = lipgloss.NewStyle().
			Foreground(OxocarbonBase05).
			Background(OxocarbonBase01).
			Padding(0, 1)

	// Transient "now playing" notice
	NoticeStyle = lipgloss.NewStyle().
			Foreground(OxocarbonTeal).
			Bold(true)

	// Autoplay was refused
	PromptStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(OxocarbonBlue).
			Foreground(OxocarbonBase05).
			Padding(0, 2)

	// Every source failed
	ErrorPanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(OxocarbonRed).
			Foreground(OxocarbonBase05).
			Padding(0, 2)

	ErrorTitleStyle = lipgloss.NewStyle().
			Foreground(OxocarbonRed).
			Bold(true)
)

// StatusColor returns the color for a playback status name
func StatusColor(status string) lipgloss.Color {
	switch status {
	case "playing":
		return StatusPlaying
	case "paused":
		return StatusPaused
	case "loading":
		return StatusLoading
	case "errored":
		return StatusErrored
	default:
		return StatusIdle
	}
}

// FormatStatusBadge creates a colored status badge
func FormatStatusBadge(status string) string {
	return lipgloss.NewStyle().
		Foreground(StatusColor(status)).
		Bold(true).
		Render(status)
}

// FormatToggle renders a badge that lights up when on
func FormatToggle(label string, on bool) string {
	if on {
		return BadgeActiveStyle.Render(label)
	}
	return BadgeStyle.Render(label)
}
