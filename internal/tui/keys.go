package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the bindings of the report viewer.
type KeyMap struct {
	Quit        key.Binding
	TogglePanel key.Binding
	Search      key.Binding
	ClearSearch key.Binding
	Submit      key.Binding
	NextPage    key.Binding
	PrevPage    key.Binding
	MorePerPage key.Binding
	LessPerPage key.Binding
	CycleSort   key.Binding
	FlipSort    key.Binding
	Refresh     key.Binding
	Up          key.Binding
	Down        key.Binding
	ToggleRow   key.Binding
	ToggleAll   key.Binding
}

var DefaultKeyMap = KeyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	TogglePanel: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "panel"),
	),
	Search: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "search"),
	),
	ClearSearch: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "clear"),
	),
	Submit: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "apply"),
	),
	NextPage: key.NewBinding(
		key.WithKeys("n", "right"),
		key.WithHelp("n", "next page"),
	),
	PrevPage: key.NewBinding(
		key.WithKeys("p", "left"),
		key.WithHelp("p", "prev page"),
	),
	MorePerPage: key.NewBinding(
		key.WithKeys("+", "="),
		key.WithHelp("+/-", "per page"),
	),
	LessPerPage: key.NewBinding(
		key.WithKeys("-"),
	),
	CycleSort: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "sort"),
	),
	FlipSort: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reverse"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("R", "ctrl+r"),
		key.WithHelp("R", "reload"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
	),
	ToggleRow: key.NewBinding(
		key.WithKeys("enter", " "),
		key.WithHelp("enter", "details"),
	),
	ToggleAll: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "expand all"),
	),
}

// help lists the bindings shown in the footer, in display order.
func (k KeyMap) help() []key.Binding {
	return []key.Binding{
		k.TogglePanel, k.Search, k.ClearSearch, k.NextPage, k.PrevPage, k.MorePerPage,
		k.CycleSort, k.FlipSort, k.ToggleRow, k.ToggleAll, k.Refresh, k.Quit,
	}
}
