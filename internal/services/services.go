// package services defines the Remote capability the worker calls and its Spotify implementation
package services

import (
	"context"

	"github.com/desertthunder/sptx/internal/models"
	"golang.org/x/oauth2"
)

// Remote is the streaming account as seen by the worker: one call per action kind.
//
// Failures wrap one of the taxonomy sentinels in [shared] so callers can use
// [shared.Classify].
type Remote interface {
	// Playback returns the player state, or nil when nothing is loaded.
	Playback(ctx context.Context) (*models.Playback, error)
	Devices(ctx context.Context) ([]models.Device, error)

	Playlists(ctx context.Context, limit, offset int) (models.Page[models.Playlist], error)
	PlaylistTracks(ctx context.Context, playlistID string, limit, offset int) (models.Page[models.Track], error)
	SavedTracks(ctx context.Context, limit, offset int) (models.Page[models.Track], error)
	SavedAlbums(ctx context.Context, limit, offset int) (models.Page[models.Album], error)
	AlbumTracks(ctx context.Context, albumID string, limit, offset int) (models.Page[models.Track], error)
	// FollowedArtists pages by cursor: after is the last ID of the previous page.
	FollowedArtists(ctx context.Context, limit int, after string) (models.Page[models.Artist], error)
	RecentlyPlayed(ctx context.Context, limit int) ([]models.Track, error)
	// TopTracks and TopArtists page the user's most played items.
	TopTracks(ctx context.Context, limit, offset int) (models.Page[models.Track], error)
	TopArtists(ctx context.Context, limit, offset int) (models.Page[models.Artist], error)
	ArtistTopTracks(ctx context.Context, artistID string) ([]models.Track, error)
	// ContainsSavedTracks reports, index for index, whether each ID is saved.
	ContainsSavedTracks(ctx context.Context, ids []string) ([]bool, error)
	ContainsFollowedArtists(ctx context.Context, ids []string) ([]bool, error)

	StartPlayback(ctx context.Context, contextURI, offsetURI string, uris []string) error
	Resume(ctx context.Context) error
	Pause(ctx context.Context) error
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
	Seek(ctx context.Context, positionMS int) error
	SetShuffle(ctx context.Context, state bool) error
	SetRepeat(ctx context.Context, state models.RepeatState) error
	SetVolume(ctx context.Context, percent int) error
	TransferPlayback(ctx context.Context, deviceID string) error
	AddToQueue(ctx context.Context, uri string) error

	// SetSaved saves/removes a track or album, or follows/unfollows an artist or playlist.
	SetSaved(ctx context.Context, entity models.EntityRef, save bool) error

	// RefreshToken exchanges the refresh token for a new access token.
	RefreshToken(ctx context.Context) (*oauth2.Token, error)
}
