package dispatch

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/desertthunder/sptx/internal/actions"
	"github.com/desertthunder/sptx/internal/models"
	"github.com/desertthunder/sptx/internal/state"
)

const (
	// ToggleCooldown swallows repeated play/pause presses.
	ToggleCooldown = 500 * time.Millisecond

	// RestartThreshold is how far into a track "previous" restarts it instead.
	RestartThreshold = 3 * time.Second

	defaultSeekStep   = 5 * time.Second
	defaultVolumeStep = 10
)

// Result is what one keystroke asks for: at most one action for the worker and at
// most one mutation to apply before it is enqueued. Both may be nil.
//
// The mutation may run against a newer state than the snapshot it was built
// from. Handlers capture the values they write; they never read the snapshot
// from inside the mutation.
type Result struct {
	Action   actions.Action
	Mutation state.Mutation
}

// Empty reports whether the keystroke was a no-op.
func (r Result) Empty() bool {
	return r.Action == nil && r.Mutation == nil
}

// Dispatcher maps keystrokes to results. It holds only configuration, so
// [Dispatcher.Dispatch] is a pure function of its arguments.
type Dispatcher struct {
	Keys       KeyMap
	SeekStep   time.Duration
	VolumeStep int
}

func New(keys KeyMap, seekStep time.Duration, volumeStep int) Dispatcher {
	if seekStep <= 0 {
		seekStep = defaultSeekStep
	}
	if volumeStep <= 0 {
		volumeStep = defaultVolumeStep
	}
	return Dispatcher{Keys: keys, SeekStep: seekStep, VolumeStep: volumeStep}
}

// Dispatch resolves k against the global bindings first, then the handler for
// the active view. snap is read, never written; now stamps optimistic edits.
func (d Dispatcher) Dispatch(k Keystroke, snap state.State, now time.Time) Result {
	if r, ok := d.global(k, snap, now); ok {
		return r
	}

	var handle viewHandler
	switch snap.View.Kind {
	case state.ViewLibrary:
		handle = d.library
	case state.ViewPlaylists:
		handle = d.playlists
	case state.ViewTracks:
		handle = d.tracks
	case state.ViewAlbums:
		handle = d.albums
	case state.ViewArtists:
		handle = d.artists
	case state.ViewRecent:
		handle = d.recent
	case state.ViewDevices:
		handle = d.devices
	default:
		return Result{}
	}

	if r, ok := d.navigate(k, snap); ok {
		return r
	}
	return handle(k, snap, now)
}

// viewHandler is the per-view keystroke handler.
type viewHandler func(k Keystroke, snap state.State, now time.Time) Result

func (d Dispatcher) global(k Keystroke, snap state.State, now time.Time) (Result, bool) {
	keys := d.Keys
	switch {
	case key.Matches(k, keys.Play):
		return d.togglePlay(snap, now), true
	case key.Matches(k, keys.Next):
		return Result{Action: actions.NewNextTrack()}, true
	case key.Matches(k, keys.Previous):
		return d.previous(snap, now), true
	case key.Matches(k, keys.Forward):
		return d.seek(snap, now, d.SeekStep), true
	case key.Matches(k, keys.Rewind):
		return d.seek(snap, now, -d.SeekStep), true
	case key.Matches(k, keys.VolUp):
		return d.volume(snap, now, d.VolumeStep), true
	case key.Matches(k, keys.VolDown):
		return d.volume(snap, now, -d.VolumeStep), true
	case key.Matches(k, keys.Shuffle):
		return shuffle(snap, now), true
	case key.Matches(k, keys.Repeat):
		return repeat(snap, now), true
	case key.Matches(k, keys.Save):
		return toggleSaved(snap), true
	case key.Matches(k, keys.Queue):
		return addToQueue(snap), true
	case key.Matches(k, keys.Devices):
		return openDevices(snap), true
	case key.Matches(k, keys.Library):
		return Result{Mutation: func(s *state.State) {
			s.History = nil
			s.View = state.View{Kind: state.ViewLibrary}
		}}, true
	case key.Matches(k, keys.Help):
		if snap.View.Kind == state.ViewHelp {
			return Result{Mutation: func(s *state.State) { s.Back() }}, true
		}
		return Result{Mutation: func(s *state.State) { s.Navigate(state.ViewHelp) }}, true
	case key.Matches(k, keys.Back):
		if len(snap.History) == 0 {
			return Result{}, true
		}
		return Result{Mutation: func(s *state.State) { s.Back() }}, true
	case key.Matches(k, keys.Dismiss):
		if snap.LastError == "" {
			return Result{}, true
		}
		return Result{Mutation: func(s *state.State) { s.ClearError() }}, true
	case key.Matches(k, keys.Refresh):
		return reload(snap), true
	}
	return Result{}, false
}

// navigate handles cursor movement common to every list view, requesting the next
// page when the cursor reaches the end of what is loaded.
func (d Dispatcher) navigate(k Keystroke, snap state.State) (Result, bool) {
	keys := d.Keys
	n := snap.ListLen()
	switch {
	case key.Matches(k, keys.Up):
		return Result{Mutation: func(s *state.State) { s.Select(-1) }}, true
	case key.Matches(k, keys.Top):
		return Result{Mutation: func(s *state.State) { s.View.Selected = 0 }}, true
	case key.Matches(k, keys.Down):
		r := Result{Mutation: func(s *state.State) { s.Select(1) }}
		if n > 0 && snap.View.Selected+1 >= n-1 {
			r = withNextPage(r, snap)
		}
		return r, true
	case key.Matches(k, keys.Bottom):
		r := Result{Mutation: func(s *state.State) { s.Select(n) }}
		return withNextPage(r, snap), true
	}
	return Result{}, false
}

func (d Dispatcher) togglePlay(snap state.State, now time.Time) Result {
	if !snap.LastToggle.IsZero() && now.Sub(snap.LastToggle) < ToggleCooldown {
		return Result{}
	}

	playing := snap.Playback.Loaded && snap.Playback.Current.Playing
	var a actions.Action = actions.NewResumePlayback()
	if playing {
		a = actions.NewPausePlayback()
	}

	return Result{
		Action: a,
		Mutation: func(s *state.State) {
			s.LastToggle = now
			if s.Playback.Loaded {
				s.Playback.Optimistic(now, func(p *models.Playback) { p.Playing = !playing })
			}
		},
	}
}

func (d Dispatcher) previous(snap state.State, now time.Time) Result {
	if snap.Playback.Loaded && snap.Playback.DisplayProgress >= RestartThreshold {
		return Result{
			Action:   actions.NewSeek(0),
			Mutation: progressTo(now, 0),
		}
	}
	return Result{Action: actions.NewPreviousTrack()}
}

// seek moves the position by delta, clamped at zero. Seeking past the end skips.
func (d Dispatcher) seek(snap state.State, now time.Time, delta time.Duration) Result {
	pb := snap.Playback
	if !pb.Loaded || pb.Current.Item == nil {
		return Result{}
	}

	target := max(pb.DisplayProgress+delta, 0)
	if target >= pb.Current.Duration() {
		return Result{Action: actions.NewNextTrack()}
	}
	return Result{
		Action:   actions.NewSeek(int(target.Milliseconds())),
		Mutation: progressTo(now, target),
	}
}

func progressTo(now time.Time, at time.Duration) state.Mutation {
	return func(s *state.State) {
		s.Playback.Optimistic(now, func(p *models.Playback) { p.Progress = at })
	}
}

func (d Dispatcher) volume(snap state.State, now time.Time, delta int) Result {
	if !snap.Playback.Loaded {
		return Result{}
	}
	current := snap.Playback.Current.Device.VolumePercent
	target := min(max(current+delta, 0), 100)
	if target == current {
		return Result{}
	}
	return Result{
		Action: actions.NewSetVolume(target),
		Mutation: func(s *state.State) {
			s.Playback.Optimistic(now, func(p *models.Playback) { p.Device.VolumePercent = target })
		},
	}
}

func shuffle(snap state.State, now time.Time) Result {
	on := !snap.Playback.Current.Shuffle
	return Result{
		Action: actions.NewSetShuffle(on),
		Mutation: func(s *state.State) {
			s.Playback.Optimistic(now, func(p *models.Playback) { p.Shuffle = on })
		},
	}
}

func repeat(snap state.State, now time.Time) Result {
	next := snap.Playback.Current.Repeat.Next()
	return Result{
		Action: actions.NewSetRepeat(next),
		Mutation: func(s *state.State) {
			s.Playback.Optimistic(now, func(p *models.Playback) { p.Repeat = next })
		},
	}
}

// toggleSaved flips the entity under the cursor, or the playing track when the
// view has no entity. The ledger entry and the action share a request ID.
// Repeated presses while pending each issue a new request.
func toggleSaved(snap state.State) Result {
	ref, ok := selectedEntity(snap)
	if !ok {
		return Result{}
	}

	a := actions.NewToggleSaved(ref, !snap.Ledger.Saved(ref))
	return Result{
		Action: a,
		Mutation: func(s *state.State) {
			s.Ledger.Begin(a.Entity, a.ID(), a.Save)
		},
	}
}

func selectedEntity(snap state.State) (models.EntityRef, bool) {
	i := snap.View.Selected
	switch snap.View.Kind {
	case state.ViewTracks, state.ViewRecent:
		if t, ok := snap.SelectedTrack(); ok && t.ID != "" {
			return models.TrackRef(t.ID), true
		}
		return models.EntityRef{}, false
	case state.ViewAlbums:
		if a, ok := snap.Albums.At(i); ok {
			return models.AlbumRef(a.ID), true
		}
		return models.EntityRef{}, false
	case state.ViewArtists:
		if a, ok := snap.Artists.At(i); ok {
			return models.ArtistRef(a.ID), true
		}
		return models.EntityRef{}, false
	case state.ViewPlaylists:
		if p, ok := snap.Playlists.At(i); ok {
			return models.PlaylistRef(p.ID), true
		}
		return models.EntityRef{}, false
	}

	if item := snap.Playback.Current.Item; snap.Playback.Loaded && item != nil && item.ID != "" {
		return models.TrackRef(item.ID), true
	}
	return models.EntityRef{}, false
}

func addToQueue(snap state.State) Result {
	t, ok := snap.SelectedTrack()
	if !ok || t.URI == "" {
		return Result{}
	}
	return Result{Action: actions.NewAddToQueue(t.URI)}
}

func openDevices(snap state.State) Result {
	return Result{
		Action: actions.NewFetchDevices(),
		Mutation: func(s *state.State) {
			if s.View.Kind != state.ViewDevices {
				s.Navigate(state.ViewDevices)
			}
			s.Poll.DevicesInFlight = true
		},
	}
}

// reload refetches the active listing from its first page.
func reload(snap state.State) Result {
	switch snap.View.Kind {
	case state.ViewPlaylists:
		return loadPlaylists(false)
	case state.ViewTracks:
		return loadTracks(snap.TrackContext, false)
	case state.ViewAlbums:
		return loadAlbums(false)
	case state.ViewArtists:
		return loadArtists(artistListing(snap), false)
	case state.ViewRecent:
		return Result{Action: actions.NewFetchRecentlyPlayed()}
	case state.ViewDevices:
		return openDevices(snap)
	}
	return Result{Action: actions.NewFetchPlayback(), Mutation: func(s *state.State) { s.Poll.PlaybackInFlight = true }}
}

// withNextPage adds a request for the page after the last loaded one, if any.
func withNextPage(r Result, snap state.State) Result {
	var (
		next    string
		loading bool
		build   func(offset int) actions.Action
		mark    func(*state.State)
	)

	switch snap.View.Kind {
	case state.ViewPlaylists:
		next, loading = snap.Playlists.Next(), snap.Playlists.Loading
		build = func(o int) actions.Action { return actions.NewFetchPlaylists(o) }
		mark = func(s *state.State) { s.Playlists.Loading = true }
	case state.ViewAlbums:
		next, loading = snap.Albums.Next(), snap.Albums.Loading
		build = func(o int) actions.Action { return actions.NewFetchSavedAlbums(o) }
		mark = func(s *state.State) { s.Albums.Loading = true }
	case state.ViewTracks:
		next, loading = snap.Tracks.Next(), snap.Tracks.Loading
		build = trackPageBuilder(snap.TrackContext)
		mark = func(s *state.State) { s.Tracks.Loading = true }
	case state.ViewArtists:
		if artistListing(snap) == state.TopArtists {
			next, loading = snap.Artists.Next(), snap.Artists.Loading
			build = func(o int) actions.Action { return actions.NewFetchTopArtists(o) }
			mark = func(s *state.State) { s.Artists.Loading = true }
			break
		}
		if !snap.Artists.HasMore() {
			return r
		}
		after := snap.Artists.Next()
		return Result{
			Action:   actions.NewFetchFollowedArtists(after),
			Mutation: r.Mutation.Then(func(s *state.State) { s.Artists.Loading = true }),
		}
	default:
		return r
	}

	if next == "" || loading {
		return r
	}
	offset, err := models.ParseOffsetToken(next)
	if err != nil {
		return r
	}
	return Result{Action: build(offset), Mutation: r.Mutation.Then(mark)}
}

func trackPageBuilder(c state.TrackContext) func(int) actions.Action {
	switch c.Source {
	case state.SourcePlaylist:
		pl := models.Playlist{ID: c.ID, Name: c.Name, URI: c.URI}
		return func(o int) actions.Action { return actions.NewFetchPlaylistTracks(pl, o) }
	case state.SourceAlbum:
		al := models.Album{ID: c.ID, Name: c.Name, URI: c.URI}
		return func(o int) actions.Action { return actions.NewFetchAlbumTracks(al, o) }
	case state.SourceTopTracks:
		return func(o int) actions.Action { return actions.NewFetchTopTracks(o) }
	case state.SourceArtist:
		ar := models.Artist{ID: c.ID, Name: c.Name, URI: c.URI}
		return func(int) actions.Action { return actions.NewFetchArtistTopTracks(ar) }
	default:
		return func(o int) actions.Action { return actions.NewFetchSavedTracks(o) }
	}
}

// artistListing is the artist listing on screen, followed artists by default.
func artistListing(snap state.State) string {
	if snap.Artists.Context == state.TopArtists {
		return state.TopArtists
	}
	return state.FollowedArtists
}
