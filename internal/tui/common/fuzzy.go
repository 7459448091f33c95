package common

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"

	"github.com/justchokingaround/archivist/internal/tui/styles"
)

// FuzzySearch filters a list of labels as the user types and keeps a
// cursor over the matches
type FuzzySearch struct {
	input   textinput.Model
	active  bool
	labels  []string
	matches []int
	cursor  int
}

// NewFuzzySearch creates a new fuzzy search component
func NewFuzzySearch() *FuzzySearch {
	ti := textinput.New()
	ti.Placeholder = "Type to filter..."
	ti.Prompt = ""
	ti.CharLimit = 200
	ti.TextStyle = styles.MetadataStyle
	ti.PlaceholderStyle = styles.HelpStyle

	return &FuzzySearch{input: ti}
}

// Activate starts filtering labels with an empty query
func (f *FuzzySearch) Activate(labels []string) tea.Cmd {
	f.active = true
	f.labels = labels
	f.input.SetValue("")
	f.input.Focus()
	f.refresh()
	return textinput.Blink
}

// Deactivate disables fuzzy search mode
func (f *FuzzySearch) Deactivate() {
	f.active = false
	f.input.Blur()
	f.input.SetValue("")
	f.labels = nil
	f.matches = nil
	f.cursor = 0
}

// IsActive returns whether fuzzy search is currently active
func (f *FuzzySearch) IsActive() bool {
	return f.active
}

// Query returns the current search query
func (f *FuzzySearch) Query() string {
	return f.input.Value()
}

// Update feeds input to the query and recomputes the matches
func (f *FuzzySearch) Update(msg tea.Msg) tea.Cmd {
	if !f.active {
		return nil
	}

	var cmd tea.Cmd
	before := f.input.Value()
	f.input, cmd = f.input.Update(msg)
	if f.input.Value() != before {
		f.refresh()
	}
	return cmd
}

// Matches returns the label indices that match the query, best first.
// An empty query matches everything in order.
func (f *FuzzySearch) Matches() []int {
	return f.matches
}

// Move shifts the cursor over the matches, wrapping at both ends
func (f *FuzzySearch) Move(delta int) {
	n := len(f.matches)
	if n == 0 {
		return
	}
	f.cursor = ((f.cursor+delta)%n + n) % n
}

// Selected returns the label index under the cursor
func (f *FuzzySearch) Selected() (int, bool) {
	if !f.active || len(f.matches) == 0 {
		return 0, false
	}
	return f.matches[f.cursor], true
}

// View renders the fuzzy search input
func (f *FuzzySearch) View() string {
	if !f.active {
		return ""
	}

	prompt := styles.TrackTitleStyle.Render("┃")
	label := styles.MetadataStyle.Render("Filter: ")
	hint := styles.HelpStyle.Render(" (enter to play • esc to cancel)")
	return label + prompt + " " + f.input.View() + hint
}

// SetWidth sets the width of the fuzzy search input
func (f *FuzzySearch) SetWidth(width int) {
	f.input.Width = max(10, width-40)
}

func (f *FuzzySearch) refresh() {
	f.cursor = 0
	query := f.input.Value()
	if query == "" {
		f.matches = make([]int, len(f.labels))
		for i := range f.matches {
			f.matches[i] = i
		}
		return
	}

	found := fuzzy.Find(query, f.labels)
	f.matches = make([]int, len(found))
	for i, match := range found {
		f.matches[i] = match.Index
	}
}
