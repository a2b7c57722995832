package dispatch

import (
	"testing"
	"time"

	"github.com/desertthunder/sptx/internal/actions"
	"github.com/desertthunder/sptx/internal/models"
	"github.com/desertthunder/sptx/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newDispatcher() Dispatcher {
	return New(DefaultKeyMap(), 5*time.Second, 10)
}

func playing(progress time.Duration) state.State {
	s := state.NewState()
	s.Playback.Apply(&models.Playback{
		Item:     &models.Track{ID: "t1", URI: "spotify:track:t1", Duration: 3 * time.Minute},
		Progress: progress,
		Playing:  true,
		Device:   models.Device{ID: "d1", VolumePercent: 50},
	}, t0.Add(-time.Minute))
	return s
}

// apply runs r's mutation on a copy of s.
func apply(s state.State, r Result) state.State {
	out := s.Clone()
	if r.Mutation != nil {
		r.Mutation(&out)
	}
	return out
}

func withTracks(s state.State, c state.TrackContext, tracks ...models.Track) state.State {
	s.TrackContext = c
	s.Tracks.Put(c.Key(), models.Page[models.Track]{Token: "0", Next: "50", Items: tracks})
	s.View = state.View{Kind: state.ViewTracks}
	return s
}

func TestDispatchPlayback(t *testing.T) {
	d := newDispatcher()

	t.Run("Play Pause Toggles Optimistically", func(t *testing.T) {
		snap := playing(time.Minute)
		r := d.Dispatch(" ", snap, t0)

		require.IsType(t, actions.PausePlayback{}, r.Action)
		after := apply(snap, r)
		assert.False(t, after.Playback.Current.Playing)
		assert.Equal(t, t0, after.LastToggle)
		assert.Equal(t, t0, after.Playback.AsOf)

		r = d.Dispatch(" ", after, t0.Add(time.Second))
		assert.IsType(t, actions.ResumePlayback{}, r.Action)
	})

	t.Run("Play Pause Cooldown", func(t *testing.T) {
		snap := playing(0)
		snap.LastToggle = t0
		assert.True(t, d.Dispatch(" ", snap, t0.Add(ToggleCooldown/2)).Empty())
		assert.False(t, d.Dispatch(" ", snap, t0.Add(ToggleCooldown)).Empty())
	})

	t.Run("Nothing Loaded Resumes", func(t *testing.T) {
		r := d.Dispatch(" ", state.NewState(), t0)
		assert.IsType(t, actions.ResumePlayback{}, r.Action)
	})

	t.Run("Previous Restarts After Threshold", func(t *testing.T) {
		r := d.Dispatch("p", playing(10*time.Second), t0)
		seek, ok := r.Action.(actions.Seek)
		require.True(t, ok)
		assert.Zero(t, seek.PositionMS)
		assert.Zero(t, apply(playing(10*time.Second), r).Playback.DisplayProgress)

		r = d.Dispatch("p", playing(time.Second), t0)
		assert.IsType(t, actions.PreviousTrack{}, r.Action)
		assert.Nil(t, r.Mutation)
	})

	t.Run("Seek", func(t *testing.T) {
		tests := []struct {
			name     string
			key      Keystroke
			progress time.Duration
			wantMS   int
			wantNext bool
		}{
			{"Forward", ">", time.Minute, 65_000, false},
			{"Back", "<", time.Minute, 55_000, false},
			{"Back Clamps At Zero", "<", 2 * time.Second, 0, false},
			{"Past The End Skips", ">", 3*time.Minute - time.Second, 0, true},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				snap := playing(tt.progress)
				r := d.Dispatch(tt.key, snap, t0)
				if tt.wantNext {
					assert.IsType(t, actions.NextTrack{}, r.Action)
					return
				}
				seek, ok := r.Action.(actions.Seek)
				require.True(t, ok)
				assert.Equal(t, tt.wantMS, seek.PositionMS)
				assert.Equal(t, time.Duration(tt.wantMS)*time.Millisecond, apply(snap, r).Playback.DisplayProgress)
			})
		}
	})

	t.Run("Seek Without Playback Is A No-op", func(t *testing.T) {
		assert.True(t, d.Dispatch(">", state.NewState(), t0).Empty())
	})

	t.Run("Volume", func(t *testing.T) {
		tests := []struct {
			name    string
			key     Keystroke
			current int
			want    int
			noop    bool
		}{
			{"Up", "+", 50, 60, false},
			{"Down", "-", 50, 40, false},
			{"Clamped High", "+", 95, 100, false},
			{"Clamped Low", "-", 5, 0, false},
			{"Unchanged At Max", "+", 100, 100, true},
			{"Unchanged At Zero", "-", 0, 0, true},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				snap := playing(0)
				snap.Playback.Current.Device.VolumePercent = tt.current
				r := d.Dispatch(tt.key, snap, t0)
				if tt.noop {
					assert.True(t, r.Empty())
					return
				}
				vol, ok := r.Action.(actions.SetVolume)
				require.True(t, ok)
				assert.Equal(t, tt.want, vol.Percent)
				assert.Equal(t, tt.want, apply(snap, r).Playback.Current.Device.VolumePercent)
			})
		}
	})

	t.Run("Shuffle And Repeat", func(t *testing.T) {
		snap := playing(0)

		r := d.Dispatch("ctrl+s", snap, t0)
		sh, ok := r.Action.(actions.SetShuffle)
		require.True(t, ok)
		assert.True(t, sh.State)
		assert.True(t, apply(snap, r).Playback.Current.Shuffle)

		r = d.Dispatch("ctrl+r", snap, t0)
		rp, ok := r.Action.(actions.SetRepeat)
		require.True(t, ok)
		assert.Equal(t, models.RepeatContext, rp.State)
		assert.Equal(t, models.RepeatContext, apply(snap, r).Playback.Current.Repeat)
	})

	t.Run("Optimistic Edit Outranks Older Reports", func(t *testing.T) {
		snap := playing(0)
		after := apply(snap, d.Dispatch(" ", snap, t0))

		assert.False(t, after.Playback.Apply(&models.Playback{Playing: true}, t0.Add(-time.Second)))
		assert.True(t, after.Playback.Apply(&models.Playback{Playing: true}, t0.Add(time.Second)))
	})
}

func TestDispatchToggleSaved(t *testing.T) {
	d := newDispatcher()
	track := models.Track{ID: "t9", URI: "spotify:track:t9"}

	t.Run("Mutation And Action Share A Request", func(t *testing.T) {
		snap := withTracks(state.NewState(), state.SavedTracksContext, track)
		snap.Ledger.Seed(models.TrackRef("t9"), false)

		r := d.Dispatch("s", snap, t0)
		a, ok := r.Action.(actions.ToggleSaved)
		require.True(t, ok)
		assert.True(t, a.Save)
		assert.Equal(t, models.TrackRef("t9"), a.Entity)

		after := apply(snap, r)
		entry, _ := after.Ledger.Entry(a.Entity)
		assert.Equal(t, state.StatusPending, entry.Status)
		assert.Equal(t, a.ID(), entry.Latest)
		assert.True(t, after.Ledger.Saved(a.Entity))
	})

	t.Run("Repeated Toggle While Pending Issues A New Request", func(t *testing.T) {
		snap := withTracks(state.NewState(), state.SavedTracksContext, track)
		first := d.Dispatch("s", snap, t0)
		snap = apply(snap, first)

		second := d.Dispatch("s", snap, t0)
		a1 := first.Action.(actions.ToggleSaved)
		a2, ok := second.Action.(actions.ToggleSaved)
		require.True(t, ok)
		assert.NotEqual(t, a1.ID(), a2.ID())
		assert.NotEqual(t, a1.Save, a2.Save)

		after := apply(snap, second)
		entry, _ := after.Ledger.Entry(a2.Entity)
		assert.Equal(t, a2.ID(), entry.Latest)
	})

	t.Run("Entity Follows The View", func(t *testing.T) {
		base := state.NewState()
		base.Albums.Put("saved", models.Page[models.Album]{Items: []models.Album{{ID: "al1"}}})
		base.Artists.Put("followed", models.Page[models.Artist]{Items: []models.Artist{{ID: "ar1"}}})
		base.Playlists.Put("me", models.Page[models.Playlist]{Items: []models.Playlist{{ID: "p1"}}})

		tests := []struct {
			view state.ViewKind
			want models.EntityRef
		}{
			{state.ViewAlbums, models.AlbumRef("al1")},
			{state.ViewArtists, models.ArtistRef("ar1")},
			{state.ViewPlaylists, models.PlaylistRef("p1")},
		}
		for _, tt := range tests {
			t.Run(tt.view.String(), func(t *testing.T) {
				snap := base.Clone()
				snap.View = state.View{Kind: tt.view}
				a, ok := d.Dispatch("s", snap, t0).Action.(actions.ToggleSaved)
				require.True(t, ok)
				assert.Equal(t, tt.want, a.Entity)
			})
		}
	})

	t.Run("Library View Toggles The Playing Track", func(t *testing.T) {
		a, ok := d.Dispatch("s", playing(0), t0).Action.(actions.ToggleSaved)
		require.True(t, ok)
		assert.Equal(t, models.TrackRef("t1"), a.Entity)
	})

	t.Run("Followed Playlist Toggles To Unfollow", func(t *testing.T) {
		snap := state.NewState()
		snap.View = state.View{Kind: state.ViewPlaylists}
		snap.Playlists.Put("me", models.Page[models.Playlist]{Items: []models.Playlist{{ID: "p1"}}})
		snap.Ledger.Seed(models.PlaylistRef("p1"), true)

		r := d.Dispatch("s", snap, t0)
		a, ok := r.Action.(actions.ToggleSaved)
		require.True(t, ok)
		assert.False(t, a.Save)
		assert.False(t, apply(snap, r).Ledger.Saved(models.PlaylistRef("p1")))
	})

	t.Run("Mutation Writes The Entity It Was Built For", func(t *testing.T) {
		base := state.NewState()
		base.View = state.View{Kind: state.ViewPlaylists}
		base.Playlists.Put("me", models.Page[models.Playlist]{Items: []models.Playlist{{ID: "p1"}, {ID: "p2"}}})

		r := d.Dispatch("s", base, t0)
		newer := base.Clone()
		newer.View.Selected = 1

		after := apply(newer, r)
		assert.Equal(t, state.StatusPending, after.Ledger.Status(models.PlaylistRef("p1")))
		assert.Equal(t, state.StatusUnknown, after.Ledger.Status(models.PlaylistRef("p2")))
	})

	t.Run("Nothing To Toggle", func(t *testing.T) {
		assert.True(t, d.Dispatch("s", state.NewState(), t0).Empty())
	})
}

func TestDispatchViews(t *testing.T) {
	d := newDispatcher()
	tracks := []models.Track{
		{ID: "a", URI: "spotify:track:a"},
		{ID: "b", URI: "spotify:track:b"},
		{ID: "c", URI: "spotify:track:c"},
	}

	t.Run("Library Entries", func(t *testing.T) {
		tests := []struct {
			index int
			view  state.ViewKind
			kind  actions.Kind
		}{
			{0, state.ViewRecent, actions.KindFetchRecentlyPlayed},
			{1, state.ViewTracks, actions.KindFetchSavedTracks},
			{2, state.ViewAlbums, actions.KindFetchSavedAlbums},
			{3, state.ViewArtists, actions.KindFetchFollowedArtists},
			{4, state.ViewPlaylists, actions.KindFetchPlaylists},
			{5, state.ViewTracks, actions.KindFetchTopTracks},
			{6, state.ViewArtists, actions.KindFetchTopArtists},
		}
		for _, tt := range tests {
			t.Run(state.LibraryEntries[tt.index].Label, func(t *testing.T) {
				snap := state.NewState()
				snap.View.Selected = tt.index
				r := d.Dispatch("enter", snap, t0)

				require.NotNil(t, r.Action)
				assert.Equal(t, tt.kind, r.Action.Kind())
				after := apply(snap, r)
				assert.Equal(t, tt.view, after.View.Kind)
				assert.Len(t, after.History, 1)
			})
		}
	})

	t.Run("Open Playlist", func(t *testing.T) {
		snap := state.NewState()
		snap.View = state.View{Kind: state.ViewPlaylists}
		snap.Playlists.Put("me", models.Page[models.Playlist]{Items: []models.Playlist{{ID: "p1", URI: "spotify:playlist:p1", Name: "Mix"}}})

		r := d.Dispatch("enter", snap, t0)
		a, ok := r.Action.(actions.FetchPlaylistTracks)
		require.True(t, ok)
		assert.Equal(t, "p1", a.Playlist.ID)
		assert.Zero(t, a.Offset)

		after := apply(snap, r)
		assert.Equal(t, state.ViewTracks, after.View.Kind)
		assert.Equal(t, "playlist:p1", after.TrackContext.Key())
		assert.True(t, after.Tracks.Loading)
	})

	t.Run("Open Album", func(t *testing.T) {
		snap := state.NewState()
		snap.View = state.View{Kind: state.ViewAlbums}
		snap.Albums.Put("saved", models.Page[models.Album]{Items: []models.Album{{ID: "al1", URI: "spotify:album:al1"}}})

		a, ok := d.Dispatch("enter", snap, t0).Action.(actions.FetchAlbumTracks)
		require.True(t, ok)
		assert.Equal(t, "al1", a.Album.ID)
	})

	t.Run("Play Track In Playlist Context", func(t *testing.T) {
		c := state.TrackContext{Source: state.SourcePlaylist, ID: "p1", URI: "spotify:playlist:p1"}
		snap := withTracks(playing(0), c, tracks...)
		snap.View.Selected = 1

		r := d.Dispatch("enter", snap, t0)
		a, ok := r.Action.(actions.StartPlayback)
		require.True(t, ok)
		assert.Equal(t, "spotify:playlist:p1", a.ContextURI)
		assert.Equal(t, "spotify:track:b", a.OffsetURI)
		assert.Empty(t, a.URIs)

		after := apply(snap, r)
		assert.Equal(t, "b", after.Playback.Current.Item.ID)
		assert.Zero(t, after.Playback.DisplayProgress)
	})

	t.Run("Play Liked Song Uses Loaded List", func(t *testing.T) {
		snap := withTracks(state.NewState(), state.SavedTracksContext, tracks...)
		snap.View.Selected = 2

		a, ok := d.Dispatch("enter", snap, t0).Action.(actions.StartPlayback)
		require.True(t, ok)
		assert.Empty(t, a.ContextURI)
		assert.Equal(t, "spotify:track:c", a.OffsetURI)
		assert.Len(t, a.URIs, 3)
	})

	t.Run("Play Recent Track", func(t *testing.T) {
		snap := state.NewState()
		snap.View = state.View{Kind: state.ViewRecent}
		snap.Recent = tracks

		a, ok := d.Dispatch("enter", snap, t0).Action.(actions.StartPlayback)
		require.True(t, ok)
		assert.Equal(t, []string{"spotify:track:a"}, a.URIs)
	})

	t.Run("Top Lists Open Their Listings", func(t *testing.T) {
		snap := state.NewState()
		snap.View.Selected = 5
		after := apply(snap, d.Dispatch("enter", snap, t0))
		assert.Equal(t, "top", after.TrackContext.Key())
		assert.Equal(t, "Top Tracks", after.TrackContext.Name)
		assert.True(t, after.Tracks.Loading)

		snap.View.Selected = 6
		after = apply(snap, d.Dispatch("enter", snap, t0))
		assert.Equal(t, state.TopArtists, after.Artists.Context)
		assert.True(t, after.Artists.Loading)
	})

	t.Run("Open Artist Top Tracks", func(t *testing.T) {
		snap := state.NewState()
		snap.View = state.View{Kind: state.ViewArtists}
		snap.Artists.Put(state.FollowedArtists, models.Page[models.Artist]{Items: []models.Artist{{ID: "ar1", URI: "spotify:artist:ar1", Name: "Portishead"}}})

		r := d.Dispatch("enter", snap, t0)
		a, ok := r.Action.(actions.FetchArtistTopTracks)
		require.True(t, ok)
		assert.Equal(t, "ar1", a.Artist.ID)

		after := apply(snap, r)
		assert.Equal(t, state.ViewTracks, after.View.Kind)
		assert.Equal(t, "artist:ar1", after.TrackContext.Key())
		assert.Equal(t, "Portishead", after.TrackContext.Name)
	})

	t.Run("Play Artist Track Uses Loaded List", func(t *testing.T) {
		c := state.TrackContext{Source: state.SourceArtist, ID: "ar1", URI: "spotify:artist:ar1"}
		snap := withTracks(playing(0), c, tracks...)
		snap.View.Selected = 1

		r := d.Dispatch("enter", snap, t0)
		a, ok := r.Action.(actions.StartPlayback)
		require.True(t, ok)
		assert.Empty(t, a.ContextURI)
		assert.Equal(t, "spotify:track:b", a.OffsetURI)
		assert.Len(t, a.URIs, 3)
		assert.Empty(t, apply(snap, r).Playback.Current.ContextURI)
	})

	t.Run("Reload Keeps The Artist Listing", func(t *testing.T) {
		snap := state.NewState()
		snap.View = state.View{Kind: state.ViewArtists}
		snap.Artists.Reset(state.TopArtists)

		r := d.Dispatch("r", snap, t0)
		assert.IsType(t, actions.FetchTopArtists{}, r.Action)
		assert.Equal(t, state.TopArtists, apply(snap, r).Artists.Context)
	})

	t.Run("Transfer To Device", func(t *testing.T) {
		snap := playing(0)
		snap.View = state.View{Kind: state.ViewDevices, Selected: 1}
		snap.Devices = []models.Device{{ID: "d1", Active: true}, {ID: "d2", Name: "Phone"}}

		r := d.Dispatch("enter", snap, t0)
		a, ok := r.Action.(actions.TransferPlayback)
		require.True(t, ok)
		assert.Equal(t, "d2", a.DeviceID)

		after := apply(snap, r)
		assert.False(t, after.Devices[0].Active)
		assert.True(t, after.Devices[1].Active)
		assert.Equal(t, "d2", after.Playback.Current.Device.ID)
	})

	t.Run("Add To Queue", func(t *testing.T) {
		snap := withTracks(state.NewState(), state.SavedTracksContext, tracks...)
		a, ok := d.Dispatch("z", snap, t0).Action.(actions.AddToQueue)
		require.True(t, ok)
		assert.Equal(t, "spotify:track:a", a.URI)

		assert.True(t, d.Dispatch("z", state.NewState(), t0).Empty())
	})
}

func TestDispatchNavigation(t *testing.T) {
	d := newDispatcher()
	tracks := []models.Track{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	t.Run("Cursor Moves And Clamps", func(t *testing.T) {
		snap := state.NewState()
		snap = apply(snap, d.Dispatch("k", snap, t0))
		assert.Zero(t, snap.View.Selected)

		for range 10 {
			snap = apply(snap, d.Dispatch("j", snap, t0))
		}
		assert.Equal(t, len(state.LibraryEntries)-1, snap.View.Selected)

		snap = apply(snap, d.Dispatch("g", snap, t0))
		assert.Zero(t, snap.View.Selected)
	})

	t.Run("Reaching The End Requests The Next Page", func(t *testing.T) {
		c := state.TrackContext{Source: state.SourcePlaylist, ID: "p1"}
		snap := withTracks(state.NewState(), c, tracks...)
		snap.View.Selected = 1

		r := d.Dispatch("j", snap, t0)
		a, ok := r.Action.(actions.FetchPlaylistTracks)
		require.True(t, ok)
		assert.Equal(t, 50, a.Offset)
		assert.Equal(t, "p1", a.Playlist.ID)

		after := apply(snap, r)
		assert.Equal(t, 2, after.View.Selected)
		assert.True(t, after.Tracks.Loading)

		assert.Nil(t, d.Dispatch("j", after, t0).Action, "no duplicate request while loading")
	})

	t.Run("Last Page Requests Nothing", func(t *testing.T) {
		snap := state.NewState()
		snap.View = state.View{Kind: state.ViewAlbums}
		snap.Albums.Put("saved", models.Page[models.Album]{Items: []models.Album{{ID: "x"}}})

		r := d.Dispatch("G", snap, t0)
		assert.Nil(t, r.Action)
		assert.NotNil(t, r.Mutation)
	})

	t.Run("Artists Page By Cursor", func(t *testing.T) {
		snap := state.NewState()
		snap.View = state.View{Kind: state.ViewArtists}
		snap.Artists.Put("followed", models.Page[models.Artist]{Next: "ar2", Items: []models.Artist{{ID: "ar1"}, {ID: "ar2"}}})

		a, ok := d.Dispatch("G", snap, t0).Action.(actions.FetchFollowedArtists)
		require.True(t, ok)
		assert.Equal(t, "ar2", a.After)
	})

	t.Run("Top Artists Page By Offset", func(t *testing.T) {
		snap := state.NewState()
		snap.View = state.View{Kind: state.ViewArtists}
		snap.Artists.Put(state.TopArtists, models.Page[models.Artist]{Token: "0", Next: "50", Items: []models.Artist{{ID: "ar1"}, {ID: "ar2"}}})

		a, ok := d.Dispatch("G", snap, t0).Action.(actions.FetchTopArtists)
		require.True(t, ok)
		assert.Equal(t, 50, a.Offset)
	})

	t.Run("Back And Library", func(t *testing.T) {
		snap := state.NewState()
		snap.Navigate(state.ViewPlaylists)
		snap.Navigate(state.ViewTracks)

		back := apply(snap, d.Dispatch("esc", snap, t0))
		assert.Equal(t, state.ViewPlaylists, back.View.Kind)

		root := apply(snap, d.Dispatch("L", snap, t0))
		assert.Equal(t, state.ViewLibrary, root.View.Kind)
		assert.Empty(t, root.History)

		assert.True(t, d.Dispatch("esc", state.NewState(), t0).Empty())
	})

	t.Run("Devices View Fetches Devices", func(t *testing.T) {
		snap := state.NewState()
		r := d.Dispatch("d", snap, t0)
		assert.IsType(t, actions.FetchDevices{}, r.Action)

		after := apply(snap, r)
		assert.Equal(t, state.ViewDevices, after.View.Kind)
		assert.True(t, after.Poll.DevicesInFlight)
	})

	t.Run("Help Toggles", func(t *testing.T) {
		snap := apply(state.NewState(), d.Dispatch("?", state.NewState(), t0))
		assert.Equal(t, state.ViewHelp, snap.View.Kind)

		assert.True(t, d.Dispatch("enter", snap, t0).Empty())

		snap = apply(snap, d.Dispatch("?", snap, t0))
		assert.Equal(t, state.ViewLibrary, snap.View.Kind)
	})

	t.Run("Dismiss Error", func(t *testing.T) {
		snap := state.NewState()
		snap.SetError(t0, "boom")

		after := apply(snap, d.Dispatch("x", snap, t0))
		assert.Empty(t, after.LastError)
		assert.True(t, d.Dispatch("x", after, t0).Empty())
	})

	t.Run("Unknown Keys Are No-ops", func(t *testing.T) {
		for _, view := range []state.ViewKind{state.ViewLibrary, state.ViewTracks, state.ViewDevices, state.ViewHelp} {
			snap := state.NewState()
			snap.View.Kind = view
			assert.True(t, d.Dispatch("F7", snap, t0).Empty(), view.String())
		}
	})

	t.Run("Dispatch Does Not Modify The Snapshot", func(t *testing.T) {
		snap := withTracks(playing(time.Minute), state.SavedTracksContext, tracks...)
		before := snap.Clone()
		for _, k := range []Keystroke{" ", "s", "j", "G", ">", "+", "enter", "d", "esc", "ctrl+s"} {
			d.Dispatch(k, snap, t0)
		}
		assert.Equal(t, before, snap)
	})
}
