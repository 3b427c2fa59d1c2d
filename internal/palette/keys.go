package palette

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the palette key bindings. Letters are left to the input.
type KeyMap struct {
	Up         key.Binding
	Down       key.Binding
	Open       key.Binding
	ToggleMode key.Binding
	YankURL    key.Binding
	Quit       key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "ctrl+p", "ctrl+k"),
			key.WithHelp("↑/ctrl+p", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "ctrl+n", "ctrl+j"),
			key.WithHelp("↓/ctrl+n", "down"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		ToggleMode: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "current/new tab"),
		),
		YankURL: key.NewBinding(
			key.WithKeys("ctrl+y"),
			key.WithHelp("ctrl+y", "copy url"),
		),
		Quit: key.NewBinding(
			key.WithKeys("esc", "ctrl+c"),
			key.WithHelp("esc", "close"),
		),
	}
}

// Hints returns the bindings shown in the footer.
func (k KeyMap) Hints() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Open, k.ToggleMode, k.YankURL, k.Quit}
}
