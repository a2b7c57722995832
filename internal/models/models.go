package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Artist is a performer.
type Artist struct {
	ID        string
	Name      string
	URI       string
	Genres    []string
	Followers int
}

// Album is a release.
type Album struct {
	ID          string
	Name        string
	URI         string
	Artists     []Artist
	ReleaseDate string
	TotalTracks int
}

// Track is a single playable recording.
type Track struct {
	ID       string
	Name     string
	URI      string
	Artists  []Artist
	Album    Album
	Duration time.Duration
	Explicit bool
}

// ArtistNames joins the track's artist names for display.
func (t Track) ArtistNames() string {
	return joinArtists(t.Artists)
}

// ArtistNames joins the album's artist names for display.
func (a Album) ArtistNames() string {
	return joinArtists(a.Artists)
}

func joinArtists(artists []Artist) string {
	names := make([]string, 0, len(artists))
	for _, a := range artists {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}

// Playlist is a user-curated list of tracks.
type Playlist struct {
	ID          string
	Name        string
	URI         string
	Description string
	Owner       string
	TrackCount  int
	Public      bool
}

// Device is a playback target such as a phone or desktop app.
type Device struct {
	ID            string
	Name          string
	Type          string
	Active        bool
	VolumePercent int
}

// RepeatState is the player's repeat mode.
type RepeatState int

const (
	RepeatOff RepeatState = iota
	RepeatContext
	RepeatTrack
)

// Next cycles off -> context -> track -> off.
func (r RepeatState) Next() RepeatState {
	return (r + 1) % 3
}

// String returns the wire value used by the remote API.
func (r RepeatState) String() string {
	switch r {
	case RepeatContext:
		return "context"
	case RepeatTrack:
		return "track"
	default:
		return "off"
	}
}

// ParseRepeatState converts a wire value into a [RepeatState].
func ParseRepeatState(s string) (RepeatState, error) {
	switch s {
	case "off", "":
		return RepeatOff, nil
	case "context":
		return RepeatContext, nil
	case "track":
		return RepeatTrack, nil
	}
	return RepeatOff, fmt.Errorf("unknown repeat state %q", s)
}

// Playback is the remote player's state as reported by the API.
//
// Item is nil when nothing is loaded.
type Playback struct {
	Item       *Track
	Progress   time.Duration
	Device     Device
	Playing    bool
	Shuffle    bool
	Repeat     RepeatState
	ContextURI string
}

// Clone returns a deep copy.
func (p Playback) Clone() Playback {
	if p.Item != nil {
		item := *p.Item
		item.Artists = append([]Artist(nil), p.Item.Artists...)
		item.Album.Artists = append([]Artist(nil), p.Item.Album.Artists...)
		p.Item = &item
	}
	return p
}

// Duration of the loaded item, zero when none.
func (p Playback) Duration() time.Duration {
	if p.Item == nil {
		return 0
	}
	return p.Item.Duration
}

// EntityKind enumerates what the saved/followed ledger can track.
type EntityKind int

const (
	EntityTrack EntityKind = iota
	EntityAlbum
	EntityArtist
	EntityPlaylist
)

func (k EntityKind) String() string {
	switch k {
	case EntityTrack:
		return "track"
	case EntityAlbum:
		return "album"
	case EntityArtist:
		return "artist"
	case EntityPlaylist:
		return "playlist"
	default:
		return "entity(" + strconv.Itoa(int(k)) + ")"
	}
}

// Verbs returns the user-facing (positive, negative) action names.
func (k EntityKind) Verbs() (string, string) {
	switch k {
	case EntityArtist, EntityPlaylist:
		return "follow", "unfollow"
	default:
		return "save", "unsave"
	}
}

// EntityRef identifies one ledger entry.
type EntityRef struct {
	Kind EntityKind
	ID   string
}

func (e EntityRef) String() string {
	return e.Kind.String() + ":" + e.ID
}

// TrackRef is shorthand for a track [EntityRef].
func TrackRef(id string) EntityRef { return EntityRef{Kind: EntityTrack, ID: id} }

// AlbumRef is shorthand for an album [EntityRef].
func AlbumRef(id string) EntityRef { return EntityRef{Kind: EntityAlbum, ID: id} }

// ArtistRef is shorthand for an artist [EntityRef].
func ArtistRef(id string) EntityRef { return EntityRef{Kind: EntityArtist, ID: id} }

// PlaylistRef is shorthand for a playlist [EntityRef].
func PlaylistRef(id string) EntityRef { return EntityRef{Kind: EntityPlaylist, ID: id} }

// Page is one page of a listing.
//
// Token identifies the page (an offset or a cursor); Next is the token of the
// following page, empty on the last one.
type Page[T any] struct {
	Token string
	Next  string
	Total int
	Items []T
}

// OffsetToken renders a numeric offset as a page token.
func OffsetToken(offset int) string {
	return strconv.Itoa(offset)
}

// ParseOffsetToken is the inverse of [OffsetToken]. Empty tokens are offset 0.
func ParseOffsetToken(token string) (int, error) {
	if token == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(token)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid page token %q", token)
	}
	return n, nil
}
