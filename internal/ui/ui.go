package ui

import (
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/sptx/internal/actions"
	"github.com/desertthunder/sptx/internal/dispatch"
	"github.com/desertthunder/sptx/internal/shared"
	"github.com/desertthunder/sptx/internal/state"
)

const trackURLPrefix = "https://open.spotify.com/track/"

// Enqueuer accepts actions for the worker.
type Enqueuer interface {
	Enqueue(a actions.Action) bool
}

// Opts configures a [Model]. Zero values pick defaults.
type Opts struct {
	Schedule   Schedule
	Keys       *dispatch.KeyMap
	SeekStep   time.Duration
	VolumeStep int
	Logger     *log.Logger
	Now        func() time.Time
	// Copy writes to the system clipboard.
	Copy func(string) error
}

// Model is the render loop. It owns no data: every frame comes from a store snapshot.
type Model struct {
	store      *state.Store
	queue      Enqueuer
	keys       dispatch.KeyMap
	dispatcher dispatch.Dispatcher
	renderer   Renderer
	schedule   Schedule
	logger     *log.Logger
	now        func() time.Time
	copy       func(string) error

	width  int
	height int
	frame  string
}

// NewModel creates the terminal program's model.
func NewModel(store *state.Store, queue Enqueuer, opts Opts) *Model {
	keys := dispatch.DefaultKeyMap()
	if opts.Keys != nil {
		keys = *opts.Keys
	}

	m := &Model{
		store:      store,
		queue:      queue,
		keys:       keys,
		dispatcher: dispatch.New(keys, opts.SeekStep, opts.VolumeStep),
		renderer:   NewRenderer(keys),
		schedule:   opts.Schedule.withDefaults(),
		logger:     opts.Logger,
		now:        opts.Now,
		copy:       opts.Copy,
	}
	if m.logger == nil {
		m.logger = shared.NewLogger(nil)
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.copy == nil {
		m.copy = clipboard.WriteAll
	}
	return m
}

// Init fires the first tick right away so polls start without waiting a period.
func (m *Model) Init() tea.Cmd {
	return func() tea.Msg { return tickMsg(m.now()) }
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.redraw()
		return m, nil

	case tickMsg:
		m.onTick(time.Time(msg))
		return m, tick(m.schedule.Tick)

	case tea.KeyMsg:
		return m, m.onKey(msg)

	case copiedMsg:
		now := m.now()
		m.store.Update(func(s *state.State) {
			if msg.err != nil {
				s.SetError(now, "copy url: "+msg.err.Error())
				return
			}
			s.AddLog(now, "copied "+msg.url)
		})
		m.redraw()
	}
	return m, nil
}

func (m *Model) View() string {
	if m.frame == "" {
		m.redraw()
	}
	return m.frame
}

// onTick advances the display clock, issues due polls and redraws.
func (m *Model) onTick(now time.Time) {
	var due []actions.Action
	m.store.Update(func(s *state.State) {
		due = advance(s, now, m.schedule)
	})
	for _, a := range due {
		m.logger.Debug("poll", "kind", a.Kind(), "id", a.ID())
		m.queue.Enqueue(a)
	}
	m.redraw()
}

// onKey applies the dispatcher's mutation, then enqueues its action.
func (m *Model) onKey(msg tea.KeyMsg) tea.Cmd {
	k := dispatch.Keystroke(msg.String())
	switch {
	case key.Matches(k, m.keys.Quit):
		return tea.Quit
	case key.Matches(k, m.keys.Copy):
		cmd := m.copyCurrent()
		m.redraw()
		return cmd
	}

	// The mutation is applied under a later lock than this snapshot, so it must
	// only write values captured here and never re-derive them from the snapshot.
	res := m.dispatcher.Dispatch(k, m.store.Snapshot(), m.now())
	if res.Mutation != nil {
		m.store.Apply(res.Mutation)
	}
	if res.Action != nil {
		m.logger.Debug("key", "key", k, "action", actions.Describe(res.Action), "id", res.Action.ID())
		m.queue.Enqueue(res.Action)
	}
	m.redraw()
	return nil
}

func (m *Model) copyCurrent() tea.Cmd {
	var id string
	m.store.Read(func(s state.State) {
		if item := s.Playback.Current.Item; s.Playback.Loaded && item != nil {
			id = item.ID
		}
	})
	if id == "" {
		now := m.now()
		m.store.Update(func(s *state.State) { s.AddLog(now, "nothing playing to copy") })
		return nil
	}

	url := trackURLPrefix + id
	return func() tea.Msg {
		return copiedMsg{url: url, err: m.copy(url)}
	}
}

func (m *Model) redraw() {
	m.frame = m.renderer.Render(m.store.Snapshot(), m.width, m.height)
}
