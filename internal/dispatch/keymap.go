package dispatch

import "github.com/charmbracelet/bubbles/key"

// Keystroke is a captured key in bubbletea's string form ("enter", "ctrl+s", "k").
type Keystroke string

func (k Keystroke) String() string { return string(k) }

// KeyMap holds every [key.Binding] the dispatcher understands.
//
// Quit and Copy are listed for help output; the terminal program handles them
// itself because they have effects outside the shared state.
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Top      key.Binding
	Bottom   key.Binding
	Enter    key.Binding
	Back     key.Binding
	Library  key.Binding
	Devices  key.Binding
	Help     key.Binding
	Refresh  key.Binding
	Dismiss  key.Binding
	Save     key.Binding
	Queue    key.Binding
	Copy     key.Binding
	Quit     key.Binding
	Play     key.Binding
	Next     key.Binding
	Previous key.Binding
	Forward  key.Binding
	Rewind   key.Binding
	VolUp    key.Binding
	VolDown  key.Binding
	Shuffle  key.Binding
	Repeat   key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Top:      key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "top")),
		Bottom:   key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "bottom")),
		Enter:    key.NewBinding(key.WithKeys("enter", "l"), key.WithHelp("enter", "open/play")),
		Back:     key.NewBinding(key.WithKeys("esc", "h"), key.WithHelp("esc", "back")),
		Library:  key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "library")),
		Devices:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "devices")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Dismiss:  key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "dismiss error")),
		Save:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save/follow")),
		Queue:    key.NewBinding(key.WithKeys("z"), key.WithHelp("z", "add to queue")),
		Copy:     key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy url")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Play:     key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
		Next:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next")),
		Previous: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "previous")),
		Forward:  key.NewBinding(key.WithKeys(">", "shift+right"), key.WithHelp(">", "seek +")),
		Rewind:   key.NewBinding(key.WithKeys("<", "shift+left"), key.WithHelp("<", "seek -")),
		VolUp:    key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "volume up")),
		VolDown:  key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "volume down")),
		Shuffle:  key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("^s", "shuffle")),
		Repeat:   key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("^r", "repeat")),
	}
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Play, k.Next, k.Previous, k.Save, k.Devices, k.Help, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Top, k.Bottom, k.Enter, k.Back},
		{k.Play, k.Next, k.Previous, k.Forward, k.Rewind, k.VolUp, k.VolDown},
		{k.Shuffle, k.Repeat, k.Save, k.Queue, k.Copy},
		{k.Library, k.Devices, k.Refresh, k.Dismiss, k.Help, k.Quit},
	}
}
