package dispatch

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/desertthunder/sptx/internal/actions"
	"github.com/desertthunder/sptx/internal/models"
	"github.com/desertthunder/sptx/internal/state"
)

func (d Dispatcher) library(k Keystroke, snap state.State, _ time.Time) Result {
	if !key.Matches(k, d.Keys.Enter) {
		return Result{}
	}
	i := snap.View.Selected
	if i < 0 || i >= len(state.LibraryEntries) {
		return Result{}
	}

	switch state.LibraryEntries[i].Item {
	case state.LibraryRecent:
		return Result{
			Action:   actions.NewFetchRecentlyPlayed(),
			Mutation: func(s *state.State) { s.Navigate(state.ViewRecent) },
		}
	case state.LibraryLikedSongs:
		return loadTracks(state.SavedTracksContext, true)
	case state.LibraryAlbums:
		return loadAlbums(true)
	case state.LibraryArtists:
		return loadArtists(state.FollowedArtists, true)
	case state.LibraryPlaylists:
		return loadPlaylists(true)
	case state.LibraryTopTracks:
		return loadTracks(state.TopTracksContext, true)
	case state.LibraryTopArtists:
		return loadArtists(state.TopArtists, true)
	}
	return Result{}
}

func (d Dispatcher) playlists(k Keystroke, snap state.State, _ time.Time) Result {
	if !key.Matches(k, d.Keys.Enter) {
		return Result{}
	}
	p, ok := snap.Playlists.At(snap.View.Selected)
	if !ok {
		return Result{}
	}
	return loadTracks(state.TrackContext{Source: state.SourcePlaylist, ID: p.ID, URI: p.URI, Name: p.Name}, true)
}

func (d Dispatcher) albums(k Keystroke, snap state.State, _ time.Time) Result {
	if !key.Matches(k, d.Keys.Enter) {
		return Result{}
	}
	a, ok := snap.Albums.At(snap.View.Selected)
	if !ok {
		return Result{}
	}
	return loadTracks(state.TrackContext{Source: state.SourceAlbum, ID: a.ID, URI: a.URI, Name: a.Name}, true)
}

// artists opens the selected artist's top tracks.
func (d Dispatcher) artists(k Keystroke, snap state.State, _ time.Time) Result {
	if !key.Matches(k, d.Keys.Enter) {
		return Result{}
	}
	a, ok := snap.Artists.At(snap.View.Selected)
	if !ok || a.ID == "" {
		return Result{}
	}
	return loadTracks(state.TrackContext{Source: state.SourceArtist, ID: a.ID, URI: a.URI, Name: a.Name}, true)
}

// tracks plays the selected track within its listing: the playlist or album as
// context, any other listing as an explicit list of its loaded tracks.
func (d Dispatcher) tracks(k Keystroke, snap state.State, now time.Time) Result {
	if !key.Matches(k, d.Keys.Enter) {
		return Result{}
	}
	t, ok := snap.Tracks.At(snap.View.Selected)
	if !ok || t.URI == "" {
		return Result{}
	}

	c := snap.TrackContext
	contextURI := c.PlayContext()
	var a actions.StartPlayback
	if contextURI != "" {
		a = actions.NewStartPlayback(contextURI, t.URI, nil)
	} else {
		items := snap.Tracks.Items()
		uris := make([]string, 0, len(items))
		for _, item := range items {
			if item.URI != "" {
				uris = append(uris, item.URI)
			}
		}
		a = actions.NewStartPlayback("", t.URI, uris)
	}
	return Result{Action: a, Mutation: nowPlaying(now, t, contextURI)}
}

func (d Dispatcher) recent(k Keystroke, snap state.State, now time.Time) Result {
	if !key.Matches(k, d.Keys.Enter) {
		return Result{}
	}
	t, ok := snap.SelectedTrack()
	if !ok || t.URI == "" {
		return Result{}
	}
	return Result{
		Action:   actions.NewStartPlayback("", "", []string{t.URI}),
		Mutation: nowPlaying(now, t, ""),
	}
}

func (d Dispatcher) devices(k Keystroke, snap state.State, now time.Time) Result {
	if !key.Matches(k, d.Keys.Enter) {
		return Result{}
	}
	i := snap.View.Selected
	if i < 0 || i >= len(snap.Devices) {
		return Result{}
	}
	dev := snap.Devices[i]
	if dev.ID == "" {
		return Result{}
	}

	return Result{
		Action: actions.NewTransferPlayback(dev.ID),
		Mutation: func(s *state.State) {
			for j := range s.Devices {
				s.Devices[j].Active = s.Devices[j].ID == dev.ID
			}
			if s.Playback.Loaded {
				s.Playback.Optimistic(now, func(p *models.Playback) {
					p.Device = dev
					p.Device.Active = true
				})
			}
		},
	}
}

// nowPlaying shows t as loaded until the next confirmed report.
func nowPlaying(now time.Time, t models.Track, contextURI string) state.Mutation {
	return func(s *state.State) {
		if !s.Playback.Loaded {
			return
		}
		s.Playback.Optimistic(now, func(p *models.Playback) {
			item := t
			p.Item = &item
			p.Progress = 0
			p.Playing = true
			p.ContextURI = contextURI
		})
	}
}

func loadPlaylists(navigate bool) Result {
	return Result{
		Action: actions.NewFetchPlaylists(0),
		Mutation: func(s *state.State) {
			if navigate {
				s.Navigate(state.ViewPlaylists)
			}
			s.Playlists.Reset("me")
			s.Playlists.Loading = true
		},
	}
}

func loadAlbums(navigate bool) Result {
	return Result{
		Action: actions.NewFetchSavedAlbums(0),
		Mutation: func(s *state.State) {
			if navigate {
				s.Navigate(state.ViewAlbums)
			}
			s.Albums.Reset("saved")
			s.Albums.Loading = true
		},
	}
}

// loadArtists switches the artist listing to followed or top artists.
func loadArtists(listing string, navigate bool) Result {
	var a actions.Action = actions.NewFetchFollowedArtists("")
	if listing == state.TopArtists {
		a = actions.NewFetchTopArtists(0)
	}
	return Result{
		Action: a,
		Mutation: func(s *state.State) {
			if navigate {
				s.Navigate(state.ViewArtists)
			}
			s.Artists.Reset(listing)
			s.Artists.Loading = true
		},
	}
}

// loadTracks switches the track listing to c and requests its first page.
func loadTracks(c state.TrackContext, navigate bool) Result {
	return Result{
		Action: trackPageBuilder(c)(0),
		Mutation: func(s *state.State) {
			if navigate {
				s.Navigate(state.ViewTracks)
			}
			s.TrackContext = c
			s.Tracks.Reset(c.Key())
			s.Tracks.Loading = true
		},
	}
}
