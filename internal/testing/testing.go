// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"net/http"
	"os"
	"slices"
	"sync"
	"testing"

	"github.com/desertthunder/sptx/internal/models"
	"golang.org/x/oauth2"
)

// Call records one invocation on [MockRemote].
type Call struct {
	Method string
	Args   []any
}

// MockRemote is a scriptable test double for services.Remote.
//
// Results are returned from the exported fields; errors queued with
// [MockRemote.FailNext] are returned in order, one per call of that method.
// When Gate is non-nil every call blocks until it receives from Gate.
type MockRemote struct {
	Gate chan struct{}

	PlaybackResult *models.Playback
	DevicesResult  []models.Device
	PlaylistPage   models.Page[models.Playlist]
	TrackPage      models.Page[models.Track]
	AlbumPage      models.Page[models.Album]
	ArtistPage     models.Page[models.Artist]
	RecentResult   []models.Track
	ArtistTracks   []models.Track
	SavedIDs       map[string]bool
	FollowedIDs    map[string]bool
	RefreshResult  *oauth2.Token

	mu    sync.Mutex
	calls []Call
	errs  map[string][]error
}

func NewMockRemote() *MockRemote {
	return &MockRemote{
		SavedIDs:    map[string]bool{},
		FollowedIDs: map[string]bool{},
		errs:        map[string][]error{},
	}
}

// FailNext queues errs for the next calls of method.
func (m *MockRemote) FailNext(method string, errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[method] = append(m.errs[method], errs...)
}

// Calls returns a copy of the recorded calls.
func (m *MockRemote) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}

// Methods returns the recorded method names in call order.
func (m *MockRemote) Methods() []string {
	calls := m.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Method
	}
	return out
}

func (m *MockRemote) record(ctx context.Context, method string, args ...any) error {
	m.mu.Lock()
	m.calls = append(m.calls, Call{Method: method, Args: args})
	var err error
	if queued := m.errs[method]; len(queued) > 0 {
		err, m.errs[method] = queued[0], queued[1:]
	}
	gate := m.Gate
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (m *MockRemote) Playback(ctx context.Context) (*models.Playback, error) {
	if err := m.record(ctx, "Playback"); err != nil {
		return nil, err
	}
	if m.PlaybackResult == nil {
		return nil, nil
	}
	pb := m.PlaybackResult.Clone()
	return &pb, nil
}

func (m *MockRemote) Devices(ctx context.Context) ([]models.Device, error) {
	if err := m.record(ctx, "Devices"); err != nil {
		return nil, err
	}
	return slices.Clone(m.DevicesResult), nil
}

func (m *MockRemote) Playlists(ctx context.Context, limit, offset int) (models.Page[models.Playlist], error) {
	if err := m.record(ctx, "Playlists", limit, offset); err != nil {
		return models.Page[models.Playlist]{}, err
	}
	return m.PlaylistPage, nil
}

func (m *MockRemote) PlaylistTracks(ctx context.Context, playlistID string, limit, offset int) (models.Page[models.Track], error) {
	if err := m.record(ctx, "PlaylistTracks", playlistID, limit, offset); err != nil {
		return models.Page[models.Track]{}, err
	}
	return m.TrackPage, nil
}

func (m *MockRemote) SavedTracks(ctx context.Context, limit, offset int) (models.Page[models.Track], error) {
	if err := m.record(ctx, "SavedTracks", limit, offset); err != nil {
		return models.Page[models.Track]{}, err
	}
	return m.TrackPage, nil
}

func (m *MockRemote) SavedAlbums(ctx context.Context, limit, offset int) (models.Page[models.Album], error) {
	if err := m.record(ctx, "SavedAlbums", limit, offset); err != nil {
		return models.Page[models.Album]{}, err
	}
	return m.AlbumPage, nil
}

func (m *MockRemote) AlbumTracks(ctx context.Context, albumID string, limit, offset int) (models.Page[models.Track], error) {
	if err := m.record(ctx, "AlbumTracks", albumID, limit, offset); err != nil {
		return models.Page[models.Track]{}, err
	}
	return m.TrackPage, nil
}

func (m *MockRemote) FollowedArtists(ctx context.Context, limit int, after string) (models.Page[models.Artist], error) {
	if err := m.record(ctx, "FollowedArtists", limit, after); err != nil {
		return models.Page[models.Artist]{}, err
	}
	return m.ArtistPage, nil
}

func (m *MockRemote) RecentlyPlayed(ctx context.Context, limit int) ([]models.Track, error) {
	if err := m.record(ctx, "RecentlyPlayed", limit); err != nil {
		return nil, err
	}
	return slices.Clone(m.RecentResult), nil
}

func (m *MockRemote) TopTracks(ctx context.Context, limit, offset int) (models.Page[models.Track], error) {
	if err := m.record(ctx, "TopTracks", limit, offset); err != nil {
		return models.Page[models.Track]{}, err
	}
	return m.TrackPage, nil
}

func (m *MockRemote) TopArtists(ctx context.Context, limit, offset int) (models.Page[models.Artist], error) {
	if err := m.record(ctx, "TopArtists", limit, offset); err != nil {
		return models.Page[models.Artist]{}, err
	}
	return m.ArtistPage, nil
}

func (m *MockRemote) ArtistTopTracks(ctx context.Context, artistID string) ([]models.Track, error) {
	if err := m.record(ctx, "ArtistTopTracks", artistID); err != nil {
		return nil, err
	}
	return slices.Clone(m.ArtistTracks), nil
}

func (m *MockRemote) ContainsSavedTracks(ctx context.Context, ids []string) ([]bool, error) {
	if err := m.record(ctx, "ContainsSavedTracks", slices.Clone(ids)); err != nil {
		return nil, err
	}
	return m.lookup(m.SavedIDs, ids), nil
}

func (m *MockRemote) ContainsFollowedArtists(ctx context.Context, ids []string) ([]bool, error) {
	if err := m.record(ctx, "ContainsFollowedArtists", slices.Clone(ids)); err != nil {
		return nil, err
	}
	return m.lookup(m.FollowedIDs, ids), nil
}

func (m *MockRemote) lookup(set map[string]bool, ids []string) []bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]bool, len(ids))
	for i, id := range ids {
		out[i] = set[id]
	}
	return out
}

func (m *MockRemote) StartPlayback(ctx context.Context, contextURI, offsetURI string, uris []string) error {
	return m.record(ctx, "StartPlayback", contextURI, offsetURI, slices.Clone(uris))
}

func (m *MockRemote) Resume(ctx context.Context) error   { return m.record(ctx, "Resume") }
func (m *MockRemote) Pause(ctx context.Context) error    { return m.record(ctx, "Pause") }
func (m *MockRemote) Next(ctx context.Context) error     { return m.record(ctx, "Next") }
func (m *MockRemote) Previous(ctx context.Context) error { return m.record(ctx, "Previous") }

func (m *MockRemote) Seek(ctx context.Context, positionMS int) error {
	return m.record(ctx, "Seek", positionMS)
}

func (m *MockRemote) SetShuffle(ctx context.Context, state bool) error {
	return m.record(ctx, "SetShuffle", state)
}

func (m *MockRemote) SetRepeat(ctx context.Context, state models.RepeatState) error {
	return m.record(ctx, "SetRepeat", state)
}

func (m *MockRemote) SetVolume(ctx context.Context, percent int) error {
	return m.record(ctx, "SetVolume", percent)
}

func (m *MockRemote) TransferPlayback(ctx context.Context, deviceID string) error {
	return m.record(ctx, "TransferPlayback", deviceID)
}

func (m *MockRemote) AddToQueue(ctx context.Context, uri string) error {
	return m.record(ctx, "AddToQueue", uri)
}

// SetSaved also updates SavedIDs for tracks and FollowedIDs for artists so later
// checks observe the change.
func (m *MockRemote) SetSaved(ctx context.Context, entity models.EntityRef, save bool) error {
	if err := m.record(ctx, "SetSaved", entity, save); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	switch entity.Kind {
	case models.EntityTrack:
		m.SavedIDs[entity.ID] = save
	case models.EntityArtist:
		m.FollowedIDs[entity.ID] = save
	}
	return nil
}

func (m *MockRemote) RefreshToken(ctx context.Context) (*oauth2.Token, error) {
	if err := m.record(ctx, "RefreshToken"); err != nil {
		return nil, err
	}
	if m.RefreshResult == nil {
		return &oauth2.Token{AccessToken: "refreshed"}, nil
	}
	tok := *m.RefreshResult
	return &tok, nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}
