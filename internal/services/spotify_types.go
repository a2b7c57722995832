package services

import (
	"time"

	"github.com/desertthunder/sptx/internal/models"
)

// Spotify Web API payloads, see https://developer.spotify.com/documentation/web-api/reference/

type followers struct {
	Total int `json:"total"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Genres    []string  `json:"genres"`
	Followers followers `json:"followers"`
	URI       string    `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Artists     []SpotifyArtist `json:"artists"`
	ReleaseDate string          `json:"release_date"`
	TotalTracks int             `json:"total_tracks"`
	URI         string          `json:"uri"`
}

// SpotifyTrack represents a Spotify track. Album is empty on album track listings.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	Explicit   bool            `json:"explicit"`
	URI        string          `json:"uri"`
}

type owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type trackCount struct {
	Total int `json:"total"`
}

// SpotifySimplePlaylist represents a simplified playlist object (used in lists).
type SpotifySimplePlaylist struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Owner       owner      `json:"owner"`
	Public      bool       `json:"public"`
	Tracks      trackCount `json:"tracks"`
	URI         string     `json:"uri"`
}

// SpotifyDevice represents a playback target.
type SpotifyDevice struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	IsActive      bool   `json:"is_active"`
	VolumePercent *int   `json:"volume_percent"`
}

type playbackContext struct {
	URI string `json:"uri"`
}

// SpotifyPlayback represents the response of GET /me/player.
type SpotifyPlayback struct {
	Device       SpotifyDevice    `json:"device"`
	ShuffleState bool             `json:"shuffle_state"`
	RepeatState  string           `json:"repeat_state"`
	ProgressMS   int              `json:"progress_ms"`
	IsPlaying    bool             `json:"is_playing"`
	Item         *SpotifyTrack    `json:"item"`
	Context      *playbackContext `json:"context"`
}

// offsetPage is the envelope of offset-paginated listings.
type offsetPage[T any] struct {
	Items  []T     `json:"items"`
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
	Next   *string `json:"next"`
}

type cursors struct {
	After string `json:"after"`
}

// cursorPage is the envelope of cursor-paginated listings (followed artists).
type cursorPage[T any] struct {
	Items   []T     `json:"items"`
	Total   int     `json:"total"`
	Next    *string `json:"next"`
	Cursors cursors `json:"cursors"`
}

type savedTrack struct {
	AddedAt string       `json:"added_at"`
	Track   SpotifyTrack `json:"track"`
}

type savedAlbum struct {
	AddedAt string       `json:"added_at"`
	Album   SpotifyAlbum `json:"album"`
}

type playlistItem struct {
	Track *SpotifyTrack `json:"track"`
}

type playHistory struct {
	Track    SpotifyTrack `json:"track"`
	PlayedAt string       `json:"played_at"`
}

type startPlaybackBody struct {
	ContextURI string         `json:"context_uri,omitempty"`
	URIs       []string       `json:"uris,omitempty"`
	Offset     *offsetPayload `json:"offset,omitempty"`
}

type offsetPayload struct {
	URI string `json:"uri"`
}

type transferBody struct {
	DeviceIDs []string `json:"device_ids"`
	Play      bool     `json:"play"`
}

type errorBody struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
		Reason  string `json:"reason"`
	} `json:"error"`
}

func toArtist(a SpotifyArtist) models.Artist {
	return models.Artist{
		ID:        a.ID,
		Name:      a.Name,
		URI:       a.URI,
		Genres:    a.Genres,
		Followers: a.Followers.Total,
	}
}

func toArtists(in []SpotifyArtist) []models.Artist {
	out := make([]models.Artist, 0, len(in))
	for _, a := range in {
		out = append(out, toArtist(a))
	}
	return out
}

func toAlbum(a SpotifyAlbum) models.Album {
	return models.Album{
		ID:          a.ID,
		Name:        a.Name,
		URI:         a.URI,
		Artists:     toArtists(a.Artists),
		ReleaseDate: a.ReleaseDate,
		TotalTracks: a.TotalTracks,
	}
}

func toTrack(t SpotifyTrack) models.Track {
	return models.Track{
		ID:       t.ID,
		Name:     t.Name,
		URI:      t.URI,
		Artists:  toArtists(t.Artists),
		Album:    toAlbum(t.Album),
		Duration: time.Duration(t.DurationMS) * time.Millisecond,
		Explicit: t.Explicit,
	}
}

func toPlaylist(p SpotifySimplePlaylist) models.Playlist {
	name := p.Owner.DisplayName
	if name == "" {
		name = p.Owner.ID
	}
	return models.Playlist{
		ID:          p.ID,
		Name:        p.Name,
		URI:         p.URI,
		Description: p.Description,
		Owner:       name,
		TrackCount:  p.Tracks.Total,
		Public:      p.Public,
	}
}

func toDevice(d SpotifyDevice) models.Device {
	dev := models.Device{ID: d.ID, Name: d.Name, Type: d.Type, Active: d.IsActive}
	if d.VolumePercent != nil {
		dev.VolumePercent = *d.VolumePercent
	}
	return dev
}

func toPlayback(p SpotifyPlayback) models.Playback {
	repeat, err := models.ParseRepeatState(p.RepeatState)
	if err != nil {
		repeat = models.RepeatOff
	}

	pb := models.Playback{
		Progress: time.Duration(p.ProgressMS) * time.Millisecond,
		Device:   toDevice(p.Device),
		Playing:  p.IsPlaying,
		Shuffle:  p.ShuffleState,
		Repeat:   repeat,
	}
	if p.Item != nil {
		item := toTrack(*p.Item)
		pb.Item = &item
	}
	if p.Context != nil {
		pb.ContextURI = p.Context.URI
	}
	return pb
}

// toOffsetPage converts an offset envelope, deriving the next token from the offset.
func toOffsetPage[S, T any](in offsetPage[S], offset int, conv func(S) (T, bool)) models.Page[T] {
	page := models.Page[T]{
		Token: models.OffsetToken(offset),
		Total: in.Total,
		Items: make([]T, 0, len(in.Items)),
	}
	for _, item := range in.Items {
		if v, ok := conv(item); ok {
			page.Items = append(page.Items, v)
		}
	}
	if in.Next != nil && *in.Next != "" {
		page.Next = models.OffsetToken(offset + len(in.Items))
	}
	return page
}
