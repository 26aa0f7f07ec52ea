package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the key bindings for the TUI.
type keyMap struct {
	cancel key.Binding
	quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		cancel: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "stop and save"),
		),
		quit: key.NewBinding(
			key.WithKeys("q", "enter", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
