package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	enter   key.Binding
	back    key.Binding
	keep    key.Binding
	discard key.Binding
	play    key.Binding
	retry   key.Binding
	dismiss key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		keep:    key.NewBinding(key.WithKeys("y", "right"), key.WithHelp("y", "keep")),
		discard: key.NewBinding(key.WithKeys("n", "left"), key.WithHelp("n", "discard")),
		play:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "play/pause")),
		retry:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "retry")),
		dismiss: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "dismiss")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter},
		{k.keep, k.discard, k.play},
		{k.retry, k.dismiss, k.back, k.quit},
	}
}
