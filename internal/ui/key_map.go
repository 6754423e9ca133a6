package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up       key.Binding
	down     key.Binding
	enter    key.Binding
	back     key.Binding
	search   key.Binding
	fuzzy    key.Binding
	remove   key.Binding
	grab     key.Binding
	save     key.Binding
	history  key.Binding
	clear    key.Binding
	copy     key.Binding
	nextWeek key.Binding
	prevWeek key.Binding
	yes      key.Binding
	no       key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		search:   key.NewBinding(key.WithKeys("/", "a"), key.WithHelp("/", "add song")),
		fuzzy:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "fuzzy")),
		remove:   key.NewBinding(key.WithKeys("x", "delete"), key.WithHelp("x", "remove")),
		grab:     key.NewBinding(key.WithKeys("m", " "), key.WithHelp("m", "move")),
		save:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save")),
		history:  key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "history")),
		clear:    key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "clear")),
		copy:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy")),
		nextWeek: key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "next week")),
		prevWeek: key.NewBinding(key.WithKeys("["), key.WithHelp("[", "prev week")),
		yes:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		no:       key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "no")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.search, k.grab, k.save, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.grab, k.enter, k.back},
		{k.search, k.fuzzy, k.remove, k.clear},
		{k.save, k.history, k.copy, k.prevWeek, k.nextWeek},
		{k.quit},
	}
}
