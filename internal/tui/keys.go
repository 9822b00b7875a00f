package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Commit   key.Binding
	Next     key.Binding
	Reset    key.Binding
	Rock     key.Binding
	Paper    key.Binding
	Scissors key.Binding
	Clear    key.Binding
	Help     key.Binding
	Quit     key.Binding

	manual bool
	mode   Mode
}

func newKeyMap(mode Mode, manual bool) keyMap {
	return keyMap{
		Commit:   key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "commit move")),
		Next:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next round")),
		Reset:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "new match")),
		Rock:     key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "rock")),
		Paper:    key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "paper")),
		Scissors: key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "scissors")),
		Clear:    key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "no hand")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
		manual:   manual,
		mode:     mode,
	}
}

// ShortHelp implements help.KeyMap
func (k keyMap) ShortHelp() []key.Binding {
	if k.mode == ModePractice {
		return []key.Binding{k.Help, k.Quit}
	}
	return []key.Binding{k.Commit, k.Next, k.Reset, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap
func (k keyMap) FullHelp() [][]key.Binding {
	groups := [][]key.Binding{k.ShortHelp()}
	if k.manual {
		groups = append(groups, []key.Binding{k.Rock, k.Paper, k.Scissors, k.Clear})
	}
	return groups
}
