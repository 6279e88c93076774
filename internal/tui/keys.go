package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds every binding of the calendar.
type keyMap struct {
	Left     key.Binding
	Right    key.Binding
	Up       key.Binding
	Down     key.Binding
	Prev     key.Binding
	Next     key.Binding
	Today    key.Binding
	Cycle    key.Binding
	Month    key.Binding
	Week     key.Binding
	Day      key.Binding
	Stacked  key.Binding
	Agenda   key.Binding
	Select   key.Binding
	Move     key.Binding
	Later    key.Binding
	Earlier  key.Binding
	Copy     key.Binding
	Expand   key.Binding
	More     key.Binding
	All      key.Binding
	Prompt   key.Binding
	Help     key.Binding
	Quit     key.Binding
	Cancel   key.Binding
	Override key.Binding
	Retry    key.Binding
	Complete key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Left:     key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/l", "day")),
		Right:    key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l", "next")),
		Up:       key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("j/k", "hour")),
		Down:     key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j", "down")),
		Prev:     key.NewBinding(key.WithKeys("["), key.WithHelp("[/]", "period")),
		Next:     key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "next period")),
		Today:    key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "today")),
		Cycle:    key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "view")),
		Month:    key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "month")),
		Week:     key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "week")),
		Day:      key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "day")),
		Stacked:  key.NewBinding(key.WithKeys("4"), key.WithHelp("4", "stacked")),
		Agenda:   key.NewBinding(key.WithKeys("5"), key.WithHelp("5", "agenda")),
		Select:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Move:     key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "move")),
		Later:    key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+/-", "15 min")),
		Earlier:  key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "earlier")),
		Copy:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy day")),
		Expand:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "expand")),
		More:     key.NewBinding(key.WithKeys("M"), key.WithHelp("M", "more")),
		All:      key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "all trainers")),
		Prompt:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "command")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Cancel:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Override: key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "override")),
		Retry:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "retry")),
		Complete: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "complete")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Left, k.Up, k.Prev, k.Cycle, k.Select, k.Move, k.Prompt, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Left, k.Up, k.Prev, k.Today},
		{k.Cycle, k.Month, k.Week, k.Day, k.Stacked, k.Agenda},
		{k.Select, k.Move, k.Later, k.Copy},
		{k.Expand, k.More, k.All, k.Prompt, k.Help, k.Quit},
	}
}

// modeHelp returns the bindings shown in the footer for a mode.
func (k keyMap) modeHelp(mode Mode, failed bool) []key.Binding {
	switch mode {
	case ModeMove:
		return []key.Binding{
			key.NewBinding(key.WithKeys("h"), key.WithHelp("hjkl", "target")),
			k.Later,
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "drop")),
			k.Cancel,
		}
	case ModeConflict:
		if failed {
			return []key.Binding{k.Retry, k.Cancel}
		}
		return []key.Binding{
			key.NewBinding(key.WithKeys("j"), key.WithHelp("j/k", "slot")),
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "take slot")),
			k.Override,
			k.Cancel,
		}
	case ModePrompt:
		return []key.Binding{
			k.Complete,
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "run")),
			k.Cancel,
		}
	case ModeDetail:
		return []key.Binding{k.Move, k.Copy, k.Cancel}
	default:
		return k.ShortHelp()
	}
}
