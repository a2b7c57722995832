// Package actions defines the closed set of requests the worker performs against the
// remote account, one value type per remote operation.
//
// Actions are immutable once built. Each carries a request ID assigned at construction
// so optimistic ledger entries can be paired with the request that resolves them.
package actions

import (
	"fmt"

	"github.com/desertthunder/sptx/internal/models"
	"github.com/desertthunder/sptx/internal/shared"
)

// Kind tags an [Action] variant.
type Kind int

const (
	KindFetchPlayback Kind = iota
	KindFetchDevices
	KindFetchPlaylists
	KindFetchPlaylistTracks
	KindFetchSavedTracks
	KindFetchSavedAlbums
	KindFetchAlbumTracks
	KindFetchFollowedArtists
	KindFetchRecentlyPlayed
	KindCheckSavedTracks
	KindFetchTopTracks
	KindFetchTopArtists
	KindFetchArtistTopTracks
	KindCheckFollowedArtists
	KindStartPlayback
	KindResumePlayback
	KindPausePlayback
	KindNextTrack
	KindPreviousTrack
	KindSeek
	KindSetShuffle
	KindSetRepeat
	KindSetVolume
	KindTransferPlayback
	KindAddToQueue
	KindToggleSaved
	KindRefreshAuth
)

var kindNames = [...]string{
	KindFetchPlayback:        "fetch-playback",
	KindFetchDevices:         "fetch-devices",
	KindFetchPlaylists:       "fetch-playlists",
	KindFetchPlaylistTracks:  "fetch-playlist-tracks",
	KindFetchSavedTracks:     "fetch-saved-tracks",
	KindFetchSavedAlbums:     "fetch-saved-albums",
	KindFetchAlbumTracks:     "fetch-album-tracks",
	KindFetchFollowedArtists: "fetch-followed-artists",
	KindFetchRecentlyPlayed:  "fetch-recently-played",
	KindCheckSavedTracks:     "check-saved-tracks",
	KindFetchTopTracks:       "fetch-top-tracks",
	KindFetchTopArtists:      "fetch-top-artists",
	KindFetchArtistTopTracks: "fetch-artist-top-tracks",
	KindCheckFollowedArtists: "check-followed-artists",
	KindStartPlayback:        "start-playback",
	KindResumePlayback:       "resume-playback",
	KindPausePlayback:        "pause-playback",
	KindNextTrack:            "next-track",
	KindPreviousTrack:        "previous-track",
	KindSeek:                 "seek",
	KindSetShuffle:           "set-shuffle",
	KindSetRepeat:            "set-repeat",
	KindSetVolume:            "set-volume",
	KindTransferPlayback:     "transfer-playback",
	KindAddToQueue:           "add-to-queue",
	KindToggleSaved:          "toggle-saved",
	KindRefreshAuth:          "refresh-auth",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// Action is one request for the worker.
//
// The set of implementations is closed to this package.
type Action interface {
	Kind() Kind
	ID() string
	sealed()
}

// Meta holds the fields every action shares.
type Meta struct {
	RequestID string
}

// ID returns the request ID.
func (m Meta) ID() string { return m.RequestID }
func (Meta) sealed()      {}

func meta() Meta { return Meta{RequestID: shared.GenerateID()} }

// FetchPlayback reads the current player state.
type FetchPlayback struct{ Meta }

// FetchDevices lists playback targets.
type FetchDevices struct{ Meta }

// FetchPlaylists reads one page of the user's playlists.
type FetchPlaylists struct {
	Meta
	Offset int
}

// FetchPlaylistTracks reads one page of a playlist's tracks.
type FetchPlaylistTracks struct {
	Meta
	Playlist models.Playlist
	Offset   int
}

// FetchSavedTracks reads one page of liked songs.
type FetchSavedTracks struct {
	Meta
	Offset int
}

// FetchSavedAlbums reads one page of saved albums.
type FetchSavedAlbums struct {
	Meta
	Offset int
}

// FetchAlbumTracks reads one page of an album's tracks.
type FetchAlbumTracks struct {
	Meta
	Album  models.Album
	Offset int
}

// FetchFollowedArtists reads one cursor page of followed artists.
// After is the last artist ID of the previous page, empty for the first.
type FetchFollowedArtists struct {
	Meta
	After string
}

// FetchRecentlyPlayed reads the play history.
type FetchRecentlyPlayed struct{ Meta }

// CheckSavedTracks asks which of IDs are in the user's library.
type CheckSavedTracks struct {
	Meta
	IDs []string
}

// FetchTopTracks reads one page of the user's most played tracks.
type FetchTopTracks struct {
	Meta
	Offset int
}

// FetchTopArtists reads one page of the user's most played artists.
type FetchTopArtists struct {
	Meta
	Offset int
}

// FetchArtistTopTracks reads an artist's most popular tracks.
type FetchArtistTopTracks struct {
	Meta
	Artist models.Artist
}

// CheckFollowedArtists asks which of IDs the user follows.
type CheckFollowedArtists struct {
	Meta
	IDs []string
}

// StartPlayback plays a context from OffsetURI, or an explicit list of URIs.
type StartPlayback struct {
	Meta
	ContextURI string
	OffsetURI  string
	URIs       []string
}

// ResumePlayback resumes the paused player.
type ResumePlayback struct{ Meta }

// PausePlayback pauses the player.
type PausePlayback struct{ Meta }

// NextTrack skips forward.
type NextTrack struct{ Meta }

// PreviousTrack skips back.
type PreviousTrack struct{ Meta }

// Seek moves the play position.
type Seek struct {
	Meta
	PositionMS int
}

// SetShuffle turns shuffle on or off.
type SetShuffle struct {
	Meta
	State bool
}

// SetRepeat changes the repeat mode.
type SetRepeat struct {
	Meta
	State models.RepeatState
}

// SetVolume sets the active device volume (0-100).
type SetVolume struct {
	Meta
	Percent int
}

// TransferPlayback moves playback to another device.
type TransferPlayback struct {
	Meta
	DeviceID string
}

// AddToQueue appends an item to the play queue.
type AddToQueue struct {
	Meta
	URI string
}

// ToggleSaved saves or removes a library entity: save/unsave for tracks and
// albums, follow/unfollow for artists and playlists.
type ToggleSaved struct {
	Meta
	Entity models.EntityRef
	Save   bool
}

// RefreshAuth renews the access credential.
type RefreshAuth struct{ Meta }

func (FetchPlayback) Kind() Kind        { return KindFetchPlayback }
func (FetchDevices) Kind() Kind         { return KindFetchDevices }
func (FetchPlaylists) Kind() Kind       { return KindFetchPlaylists }
func (FetchPlaylistTracks) Kind() Kind  { return KindFetchPlaylistTracks }
func (FetchSavedTracks) Kind() Kind     { return KindFetchSavedTracks }
func (FetchSavedAlbums) Kind() Kind     { return KindFetchSavedAlbums }
func (FetchAlbumTracks) Kind() Kind     { return KindFetchAlbumTracks }
func (FetchFollowedArtists) Kind() Kind { return KindFetchFollowedArtists }
func (FetchRecentlyPlayed) Kind() Kind  { return KindFetchRecentlyPlayed }
func (CheckSavedTracks) Kind() Kind     { return KindCheckSavedTracks }
func (FetchTopTracks) Kind() Kind       { return KindFetchTopTracks }
func (FetchTopArtists) Kind() Kind      { return KindFetchTopArtists }
func (FetchArtistTopTracks) Kind() Kind { return KindFetchArtistTopTracks }
func (CheckFollowedArtists) Kind() Kind { return KindCheckFollowedArtists }
func (StartPlayback) Kind() Kind        { return KindStartPlayback }
func (ResumePlayback) Kind() Kind       { return KindResumePlayback }
func (PausePlayback) Kind() Kind        { return KindPausePlayback }
func (NextTrack) Kind() Kind            { return KindNextTrack }
func (PreviousTrack) Kind() Kind        { return KindPreviousTrack }
func (Seek) Kind() Kind                 { return KindSeek }
func (SetShuffle) Kind() Kind           { return KindSetShuffle }
func (SetRepeat) Kind() Kind            { return KindSetRepeat }
func (SetVolume) Kind() Kind            { return KindSetVolume }
func (TransferPlayback) Kind() Kind     { return KindTransferPlayback }
func (AddToQueue) Kind() Kind           { return KindAddToQueue }
func (ToggleSaved) Kind() Kind          { return KindToggleSaved }
func (RefreshAuth) Kind() Kind          { return KindRefreshAuth }

func NewFetchPlayback() FetchPlayback { return FetchPlayback{meta()} }
func NewFetchDevices() FetchDevices   { return FetchDevices{meta()} }

func NewFetchPlaylists(offset int) FetchPlaylists {
	return FetchPlaylists{Meta: meta(), Offset: offset}
}

func NewFetchPlaylistTracks(p models.Playlist, offset int) FetchPlaylistTracks {
	return FetchPlaylistTracks{Meta: meta(), Playlist: p, Offset: offset}
}

func NewFetchSavedTracks(offset int) FetchSavedTracks {
	return FetchSavedTracks{Meta: meta(), Offset: offset}
}

func NewFetchSavedAlbums(offset int) FetchSavedAlbums {
	return FetchSavedAlbums{Meta: meta(), Offset: offset}
}

func NewFetchAlbumTracks(a models.Album, offset int) FetchAlbumTracks {
	return FetchAlbumTracks{Meta: meta(), Album: a, Offset: offset}
}

func NewFetchFollowedArtists(after string) FetchFollowedArtists {
	return FetchFollowedArtists{Meta: meta(), After: after}
}

func NewFetchRecentlyPlayed() FetchRecentlyPlayed { return FetchRecentlyPlayed{meta()} }

// NewCheckSavedTracks copies ids so later caller writes cannot leak into the action.
func NewCheckSavedTracks(ids []string) CheckSavedTracks {
	return CheckSavedTracks{Meta: meta(), IDs: append([]string(nil), ids...)}
}

func NewFetchTopTracks(offset int) FetchTopTracks {
	return FetchTopTracks{Meta: meta(), Offset: offset}
}

func NewFetchTopArtists(offset int) FetchTopArtists {
	return FetchTopArtists{Meta: meta(), Offset: offset}
}

func NewFetchArtistTopTracks(a models.Artist) FetchArtistTopTracks {
	return FetchArtistTopTracks{Meta: meta(), Artist: a}
}

func NewCheckFollowedArtists(ids []string) CheckFollowedArtists {
	return CheckFollowedArtists{Meta: meta(), IDs: append([]string(nil), ids...)}
}

// NewStartPlayback copies uris so later caller writes cannot leak into the action.
func NewStartPlayback(contextURI, offsetURI string, uris []string) StartPlayback {
	return StartPlayback{
		Meta:       meta(),
		ContextURI: contextURI,
		OffsetURI:  offsetURI,
		URIs:       append([]string(nil), uris...),
	}
}

func NewResumePlayback() ResumePlayback { return ResumePlayback{meta()} }
func NewPausePlayback() PausePlayback   { return PausePlayback{meta()} }
func NewNextTrack() NextTrack           { return NextTrack{meta()} }
func NewPreviousTrack() PreviousTrack   { return PreviousTrack{meta()} }

func NewSeek(positionMS int) Seek { return Seek{Meta: meta(), PositionMS: positionMS} }

func NewSetShuffle(state bool) SetShuffle { return SetShuffle{Meta: meta(), State: state} }

func NewSetRepeat(state models.RepeatState) SetRepeat {
	return SetRepeat{Meta: meta(), State: state}
}

func NewSetVolume(percent int) SetVolume { return SetVolume{Meta: meta(), Percent: percent} }

func NewTransferPlayback(deviceID string) TransferPlayback {
	return TransferPlayback{Meta: meta(), DeviceID: deviceID}
}

func NewAddToQueue(uri string) AddToQueue { return AddToQueue{Meta: meta(), URI: uri} }

func NewToggleSaved(entity models.EntityRef, save bool) ToggleSaved {
	return ToggleSaved{Meta: meta(), Entity: entity, Save: save}
}

func NewRefreshAuth() RefreshAuth { return RefreshAuth{meta()} }

// Describe returns a short user-facing label for a, used as the operation name
// in error messages and the message log.
func Describe(a Action) string {
	switch a := a.(type) {
	case ToggleSaved:
		on, off := a.Entity.Kind.Verbs()
		if a.Save {
			return on + " " + a.Entity.Kind.String()
		}
		return off + " " + a.Entity.Kind.String()
	case FetchPlaylistTracks:
		return "load playlist " + a.Playlist.Name
	case FetchAlbumTracks:
		return "load album " + a.Album.Name
	case FetchArtistTopTracks:
		return "load artist " + a.Artist.Name
	case Seek:
		return "seek"
	case SetVolume:
		return fmt.Sprintf("set volume to %d%%", a.Percent)
	case SetShuffle:
		if a.State {
			return "shuffle on"
		}
		return "shuffle off"
	case SetRepeat:
		return "repeat " + a.State.String()
	}
	return a.Kind().String()
}

// IsPoll reports whether a is a background refresh rather than a user request.
func IsPoll(a Action) bool {
	switch a.Kind() {
	case KindFetchPlayback, KindFetchDevices, KindRefreshAuth, KindCheckSavedTracks, KindCheckFollowedArtists:
		return true
	}
	return false
}
