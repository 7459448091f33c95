package utils

import (
	"fmt"
	"math"
	"strings"

	"github.com/mattn/go-runewidth"
)

// WrapText wraps text at word boundaries to fit within maxWidth.
// Returns a slice of lines.
func WrapText(text string, maxWidth int) []string {
	words := strings.Fields(text)

	var lines []string
	var currentLine strings.Builder
	currentWidth := 0

	for _, word := range words {
		wordWidth := runewidth.StringWidth(word)

		switch {
		case currentWidth == 0:
			currentLine.WriteString(word)
			currentWidth = wordWidth
		case currentWidth+1+wordWidth <= maxWidth:
			currentLine.WriteString(" ")
			currentLine.WriteString(word)
			currentWidth += 1 + wordWidth
		default:
			lines = append(lines, currentLine.String())
			currentLine.Reset()
			currentLine.WriteString(word)
			currentWidth = wordWidth
		}
	}

	if currentLine.Len() > 0 {
		lines = append(lines, currentLine.String())
	}

	return lines
}

// TruncateWithWidth truncates text to fit within maxWidth, accounting for Unicode character widths.
// Adds "..." if the text is truncated.
func TruncateWithWidth(text string, maxWidth int) string {
	if runewidth.StringWidth(text) <= maxWidth {
		return text
	}
	if maxWidth <= 3 {
		return runewidth.Truncate(text, maxWidth, "")
	}

	width := 0
	for i, r := range text {
		width += runewidth.RuneWidth(r)
		if width > maxWidth-3 {
			return text[:i] + "..."
		}
	}
	return text
}

// FormatClock renders seconds as m:ss, or h:mm:ss from one hour up.
// Unknown or invalid values render as --:--.
func FormatClock(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return "--:--"
	}
	total := int(seconds)
	h, m, s := total/3600, total%3600/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
