package state

import (
	"slices"
	"sync"
	"time"

	"github.com/desertthunder/sptx/internal/models"
)

const (
	maxLogLines = 100
	maxHistory  = 64
)

// ViewKind tags the active screen.
type ViewKind int

const (
	ViewLibrary ViewKind = iota
	ViewPlaylists
	ViewTracks
	ViewAlbums
	ViewArtists
	ViewRecent
	ViewDevices
	ViewHelp
)

func (k ViewKind) String() string {
	switch k {
	case ViewLibrary:
		return "Library"
	case ViewPlaylists:
		return "Playlists"
	case ViewTracks:
		return "Tracks"
	case ViewAlbums:
		return "Albums"
	case ViewArtists:
		return "Artists"
	case ViewRecent:
		return "Recently Played"
	case ViewDevices:
		return "Devices"
	case ViewHelp:
		return "Help"
	default:
		return "Unknown"
	}
}

// LibraryItem identifies a library menu row.
type LibraryItem int

const (
	LibraryRecent LibraryItem = iota
	LibraryLikedSongs
	LibraryAlbums
	LibraryArtists
	LibraryPlaylists
	LibraryTopTracks
	LibraryTopArtists
)

// LibraryEntry is one row of the library menu. View is the screen it opens.
type LibraryEntry struct {
	Label string
	Item  LibraryItem
	View  ViewKind
}

// LibraryEntries is the fixed library menu.
var LibraryEntries = []LibraryEntry{
	{Label: "Recently Played", Item: LibraryRecent, View: ViewRecent},
	{Label: "Liked Songs", Item: LibraryLikedSongs, View: ViewTracks},
	{Label: "Albums", Item: LibraryAlbums, View: ViewAlbums},
	{Label: "Artists", Item: LibraryArtists, View: ViewArtists},
	{Label: "Playlists", Item: LibraryPlaylists, View: ViewPlaylists},
	{Label: "Top Tracks", Item: LibraryTopTracks, View: ViewTracks},
	{Label: "Top Artists", Item: LibraryTopArtists, View: ViewArtists},
}

// Listing contexts for [State.Artists].
const (
	FollowedArtists = "followed"
	TopArtists      = "top"
)

// TrackSource says where a track listing came from.
type TrackSource int

const (
	SourceSaved TrackSource = iota
	SourcePlaylist
	SourceAlbum
	SourceTopTracks
	SourceArtist
)

// TrackContext identifies the listing shown in [ViewTracks].
type TrackContext struct {
	Source TrackSource
	ID     string
	URI    string
	Name   string
}

// Key is the [Paged.Context] value for this listing.
func (c TrackContext) Key() string {
	switch c.Source {
	case SourcePlaylist:
		return "playlist:" + c.ID
	case SourceAlbum:
		return "album:" + c.ID
	case SourceTopTracks:
		return "top"
	case SourceArtist:
		return "artist:" + c.ID
	default:
		return "saved"
	}
}

// PlayContext is the context URI to start playback in, empty when the listing
// must be played as an explicit list of tracks.
func (c TrackContext) PlayContext() string {
	switch c.Source {
	case SourcePlaylist, SourceAlbum:
		return c.URI
	}
	return ""
}

// SavedTracksContext is the liked songs listing.
var SavedTracksContext = TrackContext{Source: SourceSaved, Name: "Liked Songs"}

// TopTracksContext is the most played tracks listing.
var TopTracksContext = TrackContext{Source: SourceTopTracks, Name: "Top Tracks"}

// View is the active screen with its cursor.
type View struct {
	Kind     ViewKind
	Selected int
	Offset   int
}

// LogLine is one entry of the message log.
type LogLine struct {
	At   time.Time
	Text string
}

// PollState schedules background refreshes.
type PollState struct {
	LastPlayback     time.Time
	LastDevices      time.Time
	PlaybackInFlight bool
	DevicesInFlight  bool
	PlaybackDue      bool
}

// AuthState tracks the access credential's lifetime.
type AuthState struct {
	Expiry      time.Time
	Refreshing  bool
	LastAttempt time.Time
}

// State is everything the screen needs.
type State struct {
	View    View
	History []View

	Playlists    Paged[models.Playlist]
	Tracks       Paged[models.Track]
	TrackContext TrackContext
	Albums       Paged[models.Album]
	Artists      Paged[models.Artist]
	Recent       []models.Track
	Devices      []models.Device

	Playback PlaybackState
	Ledger   Ledger

	Pending     int
	LastError   string
	LastErrorAt time.Time
	Log         []LogLine

	Poll PollState
	Auth AuthState

	// LastToggle rate-limits play/pause against key repeat.
	LastToggle time.Time
}

// NewState returns an empty state on the library view.
func NewState() State {
	return State{Ledger: Ledger{}, TrackContext: SavedTracksContext}
}

// Clone returns a deep copy sharing no maps or slices with s.
func (s State) Clone() State {
	out := s
	out.History = slices.Clone(s.History)
	out.Playlists = s.Playlists.Clone()
	out.Tracks = s.Tracks.Clone()
	out.Albums = s.Albums.Clone()
	out.Artists = s.Artists.Clone()
	out.Recent = slices.Clone(s.Recent)
	out.Devices = slices.Clone(s.Devices)
	out.Playback = s.Playback.Clone()
	out.Ledger = s.Ledger.Clone()
	out.Log = slices.Clone(s.Log)
	return out
}

// Mutation is a synchronous state change, applied inside one critical section.
type Mutation func(*State)

// Then chains two mutations; either may be nil.
func (m Mutation) Then(next Mutation) Mutation {
	switch {
	case m == nil:
		return next
	case next == nil:
		return m
	}
	return func(s *State) {
		m(s)
		next(s)
	}
}

// Navigate pushes the current view onto the history and switches to kind.
func (s *State) Navigate(kind ViewKind) {
	s.History = append(s.History, s.View)
	if len(s.History) > maxHistory {
		s.History = s.History[len(s.History)-maxHistory:]
	}
	s.View = View{Kind: kind}
}

// Back pops the history. Returns false at the root.
func (s *State) Back() bool {
	if len(s.History) == 0 {
		return false
	}
	s.View = s.History[len(s.History)-1]
	s.History = s.History[:len(s.History)-1]
	return true
}

// ListLen returns the number of selectable rows in the active view.
func (s *State) ListLen() int {
	switch s.View.Kind {
	case ViewLibrary:
		return len(LibraryEntries)
	case ViewPlaylists:
		return s.Playlists.Len()
	case ViewTracks:
		return s.Tracks.Len()
	case ViewAlbums:
		return s.Albums.Len()
	case ViewArtists:
		return s.Artists.Len()
	case ViewRecent:
		return len(s.Recent)
	case ViewDevices:
		return len(s.Devices)
	default:
		return 0
	}
}

// Select moves the cursor by delta, clamped to the list.
func (s *State) Select(delta int) {
	n := s.ListLen()
	if n == 0 {
		s.View.Selected = 0
		return
	}
	s.View.Selected = min(max(s.View.Selected+delta, 0), n-1)
}

// SelectedTrack returns the track under the cursor in track-like views.
func (s *State) SelectedTrack() (models.Track, bool) {
	switch s.View.Kind {
	case ViewTracks:
		return s.Tracks.At(s.View.Selected)
	case ViewRecent:
		if i := s.View.Selected; i >= 0 && i < len(s.Recent) {
			return s.Recent[i], true
		}
	}
	return models.Track{}, false
}

// AddLog appends a line to the bounded message log.
func (s *State) AddLog(at time.Time, text string) {
	s.Log = append(s.Log, LogLine{At: at, Text: text})
	if len(s.Log) > maxLogLines {
		s.Log = slices.Clone(s.Log[len(s.Log)-maxLogLines:])
	}
}

// SetError records a user-visible failure and logs it.
func (s *State) SetError(at time.Time, msg string) {
	s.LastError = msg
	s.LastErrorAt = at
	s.AddLog(at, msg)
}

// ClearError dismisses the last failure.
func (s *State) ClearError() {
	s.LastError = ""
	s.LastErrorAt = time.Time{}
}

// Store guards the shared [State]. The zero value holds an empty state.
type Store struct {
	mu    sync.RWMutex
	state State
}

// NewStore wraps initial.
func NewStore(initial State) *Store {
	if initial.Ledger == nil {
		initial.Ledger = Ledger{}
	}
	return &Store{state: initial}
}

// Update applies fn under the write lock. fn must not block.
func (s *Store) Update(fn func(*State)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Ledger == nil {
		s.state.Ledger = Ledger{}
	}
	fn(&s.state)
}

// Apply is Update for a [Mutation].
func (s *Store) Apply(m Mutation) {
	s.Update(m)
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Read runs fn with the current state under the read lock, without copying.
// fn must not retain or modify anything it reads.
func (s *Store) Read(fn func(State)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.state)
}
