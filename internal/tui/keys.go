package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines keybindings for the now-playing view. Transport keys
// are forwarded to the mediator; the rest are handled by the view.
type KeyMap struct {
	PlayPause key.Binding
	Next      key.Binding
	Previous  key.Binding
	SeekBack  key.Binding
	SeekAhead key.Binding
	Scrub     key.Binding
	VolumeUp  key.Binding
	VolumeDn  key.Binding
	Mute      key.Binding
	Shuffle   key.Binding
	Repeat    key.Binding
	Slower    key.Binding
	Faster    key.Binding
	Filter    key.Binding
	Select    key.Binding
	Cancel    key.Binding
	Open      key.Binding
	Copy      key.Binding
	Retry     key.Binding
	Help      key.Binding
	Quit      key.Binding
}

// DefaultKeyMap returns default keybindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		PlayPause: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "play/pause"),
		),
		Next: key.NewBinding(
			key.WithKeys("right"),
			key.WithHelp("→", "next"),
		),
		Previous: key.NewBinding(
			key.WithKeys("left"),
			key.WithHelp("←", "previous"),
		),
		SeekBack: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("hh", "seek back"),
		),
		SeekAhead: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("ll", "seek ahead"),
		),
		Scrub: key.NewBinding(
			key.WithKeys("0", "1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("0-9", "jump to 0-90%"),
		),
		VolumeUp: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑", "volume up"),
		),
		VolumeDn: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↓", "volume down"),
		),
		Mute: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "mute"),
		),
		Shuffle: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "shuffle"),
		),
		Repeat: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "repeat"),
		),
		Slower: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "slower"),
		),
		Faster: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "faster"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter queue"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "play match"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		Open: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "open in browser"),
		),
		Copy: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy url"),
		),
		Retry: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "retry"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.PlayPause, k.Previous, k.Next, k.Filter, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.PlayPause, k.Previous, k.Next, k.SeekBack, k.SeekAhead, k.Scrub},
		{k.VolumeUp, k.VolumeDn, k.Mute, k.Slower, k.Faster},
		{k.Shuffle, k.Repeat, k.Filter, k.Help, k.Quit},
	}
}

// failureKeys is the help shown on the error panel
type failureKeys struct {
	KeyMap
}

func (k failureKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Open, k.Copy, k.Retry, k.Next, k.Quit}
}

func (k failureKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
