package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	Increase  key.Binding
	Decrease  key.Binding
	StepUp    key.Binding
	StepDown  key.Binding
	Empirical key.Binding
	Quit      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "previous")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "next")),
		Increase:  key.NewBinding(key.WithKeys("right", "l", "+"), key.WithHelp("→/+", "increase")),
		Decrease:  key.NewBinding(key.WithKeys("left", "h", "-"), key.WithHelp("←/-", "decrease")),
		StepUp:    key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "coarser step")),
		StepDown:  key.NewBinding(key.WithKeys("["), key.WithHelp("[", "finer step")),
		Empirical: key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "toggle data")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Increase, k.Decrease, k.Empirical, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Increase, k.Decrease},
		{k.StepUp, k.StepDown, k.Empirical, k.Quit},
	}
}
