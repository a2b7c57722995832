package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

var (
	_ tea.Msg = tickMsg{}
	_ tea.Msg = copiedMsg{}
)

// tickMsg drives the render loop.
type tickMsg time.Time

// copiedMsg reports a clipboard write.
type copiedMsg struct {
	url string
	err error
}

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return tickMsg(t) })
}
