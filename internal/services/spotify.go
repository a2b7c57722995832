// Spotify Web API implementation of [Remote]
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/sptx/internal/models"
	"github.com/desertthunder/sptx/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	maxPageSize   = 50
	maxCheckIDs   = 50
	topTimeRange  = "medium_term"
	maxErrorBytes = 64 << 10
)

// SpotifyScopes are the permissions the client asks for at login.
var SpotifyScopes = []string{
	"user-read-private",
	"user-read-playback-state",
	"user-modify-playback-state",
	"user-read-currently-playing",
	"user-read-recently-played",
	"user-top-read",
	"user-library-read",
	"user-library-modify",
	"user-follow-read",
	"user-follow-modify",
	"playlist-read-private",
	"playlist-read-collaborative",
	"playlist-modify-public",
	"playlist-modify-private",
}

// APIError is a non-2xx response or transport failure.
//
// Err is one of the taxonomy sentinels in [shared], so errors.Is works on it.
type APIError struct {
	Op         string
	Status     int
	Message    string
	RetryAfter time.Duration
	Err        error
}

func (e *APIError) Error() string {
	var b strings.Builder
	b.WriteString("spotify ")
	b.WriteString(e.Op)
	if e.Status != 0 {
		fmt.Fprintf(&b, ": status %d", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *APIError) Unwrap() error { return e.Err }

// SpotifyOpts overrides endpoints and transport, mainly for tests.
type SpotifyOpts struct {
	BaseURL           string
	AuthURL           string
	TokenURL          string
	HTTPClient        *http.Client
	RequestsPerSecond float64
}

// SpotifyService talks to the Spotify Web API.
//
// The bearer token is attached per request rather than through an auto-refreshing
// [oauth2] client, so an expired token surfaces as [shared.ErrAuthExpired] and the
// refresh happens through [SpotifyService.RefreshToken].
type SpotifyService struct {
	config     *oauth2.Config
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter

	mu             sync.RWMutex
	token          *oauth2.Token
	onTokenRefresh func(*oauth2.Token)
}

// NewSpotifyService creates a Spotify client for the given application credentials.
func NewSpotifyService(creds shared.SpotifyConfig, opts SpotifyOpts) (*SpotifyService, error) {
	if creds.ClientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}
	if creds.ClientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI := creds.RedirectURI
	if redirectURI == "" {
		redirectURI = "http://127.0.0.1:8888/callback"
	}

	authURL, tokenURL, baseURL := spotifyAuthURL, spotifyTokenURL, spotifyBaseURL
	if opts.AuthURL != "" {
		authURL = opts.AuthURL
	}
	if opts.TokenURL != "" {
		tokenURL = opts.TokenURL
	}
	if opts.BaseURL != "" {
		baseURL = strings.TrimRight(opts.BaseURL, "/")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	return &SpotifyService{
		config: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			RedirectURL:  redirectURI,
			Scopes:       SpotifyScopes,
			Endpoint:     oauth2.Endpoint{AuthURL: authURL, TokenURL: tokenURL},
		},
		baseURL:    baseURL,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, 1),
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// OAuthConfig exposes the OAuth2 configuration for the callback handler.
func (s *SpotifyService) OAuthConfig() *oauth2.Config {
	return s.config
}

// Authenticate installs an already obtained token.
func (s *SpotifyService) Authenticate(token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("%w: empty access token", shared.ErrNotAuthenticated)
	}
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

// Token returns the current token, nil before [SpotifyService.Authenticate].
func (s *SpotifyService) Token() *oauth2.Token {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// SetTokenRefreshCallback registers fn to run whenever a refresh yields a new access token.
func (s *SpotifyService) SetTokenRefreshCallback(fn func(*oauth2.Token)) {
	s.mu.Lock()
	s.onTokenRefresh = fn
	s.mu.Unlock()
}

// refreshableTokenSource reports every new access token to callback.
type refreshableTokenSource struct {
	source   oauth2.TokenSource
	callback func(*oauth2.Token)
	last     string
}

func (r *refreshableTokenSource) Token() (*oauth2.Token, error) {
	token, err := r.source.Token()
	if err != nil {
		return nil, err
	}
	if token.AccessToken != r.last {
		r.last = token.AccessToken
		if r.callback != nil {
			r.callback(token)
		}
	}
	return token, nil
}

// RefreshToken forces a refresh-token grant and installs the result.
func (s *SpotifyService) RefreshToken(ctx context.Context) (*oauth2.Token, error) {
	s.mu.RLock()
	current, callback := s.token, s.onTokenRefresh
	s.mu.RUnlock()

	if current == nil || current.RefreshToken == "" {
		return nil, &APIError{Op: "refresh token", Err: shared.ErrNoRefreshToken}
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	// An expired copy makes the source refresh instead of returning the cached token.
	stale := &oauth2.Token{RefreshToken: current.RefreshToken, Expiry: time.Unix(1, 0)}
	source := &refreshableTokenSource{
		source:   s.config.TokenSource(ctx, stale),
		callback: callback,
		last:     current.AccessToken,
	}

	token, err := source.Token()
	if err != nil {
		return nil, &APIError{Op: "refresh token", Err: fmt.Errorf("%w: %w", shared.ErrRefreshFailed, classifyTokenError(err))}
	}
	if token.RefreshToken == "" {
		token.RefreshToken = current.RefreshToken
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return token, nil
}

// classifyTokenError maps a refresh failure onto the taxonomy.
func classifyTokenError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		switch {
		case re.Response.StatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("%w: %w", shared.ErrRateLimited, err)
		case re.Response.StatusCode >= 500:
			return fmt.Errorf("%w: %w", shared.ErrTransientNetwork, err)
		}
		return fmt.Errorf("%w: %w", shared.ErrUnknown, err)
	}
	return fmt.Errorf("%w: %w", shared.ErrTransientNetwork, err)
}

// Exchange trades an authorization code for a token and installs it.
func (s *SpotifyService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return token, nil
}

// doRequest performs an authenticated request and decodes a JSON response into result.
//
// A 204 response leaves result untouched and returns errNoContent when result is non-nil.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, query url.Values, body, result any) error {
	op := method + " " + endpoint

	token := s.Token()
	if token == nil {
		return &APIError{Op: op, Err: shared.ErrNotAuthenticated}
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return &APIError{Op: op, Err: fmt.Errorf("%w: %w", shared.ErrTransientNetwork, err)}
	}

	apiURL := s.baseURL + endpoint
	if len(query) > 0 {
		apiURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return &APIError{Op: op, Err: fmt.Errorf("%w: %w", shared.ErrTransientNetwork, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(op, resp)
	}

	if resp.StatusCode == http.StatusNoContent {
		if result != nil {
			return errNoContent
		}
		return nil
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return &APIError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("%w: %w", shared.ErrUnknown, err)}
		}
	}
	return nil
}

var errNoContent = errors.New("no content")

// statusError maps a non-2xx response onto [APIError].
func statusError(op string, resp *http.Response) *APIError {
	apiErr := &APIError{Op: op, Status: resp.StatusCode}

	var payload errorBody
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxErrorBytes)).Decode(&payload); err == nil {
		apiErr.Message = payload.Error.Message
	}

	switch status := resp.StatusCode; {
	case status == http.StatusUnauthorized:
		apiErr.Err = shared.ErrAuthExpired
	case status == http.StatusForbidden:
		apiErr.Err = shared.ErrPremiumRequired
	case status == http.StatusNotFound && payload.Error.Reason == "NO_ACTIVE_DEVICE":
		apiErr.Err = fmt.Errorf("%w: %w", shared.ErrNotFound, shared.ErrNoActiveDevice)
	case status == http.StatusNotFound:
		apiErr.Err = shared.ErrNotFound
	case status == http.StatusTooManyRequests:
		apiErr.Err = shared.ErrRateLimited
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
			apiErr.RetryAfter = time.Duration(secs) * time.Second
		}
	case status >= 500:
		apiErr.Err = shared.ErrTransientNetwork
	default:
		apiErr.Err = shared.ErrUnknown
	}
	return apiErr
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	return min(limit, maxPageSize)
}

func pageQuery(limit, offset int) url.Values {
	return url.Values{
		"limit":  {strconv.Itoa(clampLimit(limit))},
		"offset": {strconv.Itoa(max(offset, 0))},
	}
}

// Playback retrieves the player state. Returns nil, nil when nothing is playing.
func (s *SpotifyService) Playback(ctx context.Context) (*models.Playback, error) {
	var resp SpotifyPlayback
	err := s.doRequest(ctx, http.MethodGet, "/me/player", url.Values{"additional_types": {"track"}}, nil, &resp)
	if errors.Is(err, errNoContent) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	pb := toPlayback(resp)
	return &pb, nil
}

// Devices lists the account's available playback targets.
func (s *SpotifyService) Devices(ctx context.Context) ([]models.Device, error) {
	var resp struct {
		Devices []SpotifyDevice `json:"devices"`
	}
	if err := s.doRequest(ctx, http.MethodGet, "/me/player/devices", nil, nil, &resp); err != nil {
		return nil, err
	}

	devices := make([]models.Device, 0, len(resp.Devices))
	for _, d := range resp.Devices {
		devices = append(devices, toDevice(d))
	}
	return devices, nil
}

// Playlists retrieves one page of the user's playlists.
func (s *SpotifyService) Playlists(ctx context.Context, limit, offset int) (models.Page[models.Playlist], error) {
	var resp offsetPage[SpotifySimplePlaylist]
	if err := s.doRequest(ctx, http.MethodGet, "/me/playlists", pageQuery(limit, offset), nil, &resp); err != nil {
		return models.Page[models.Playlist]{}, err
	}
	return toOffsetPage(resp, offset, func(p SpotifySimplePlaylist) (models.Playlist, bool) {
		return toPlaylist(p), true
	}), nil
}

// PlaylistTracks retrieves one page of a playlist's tracks, skipping removed entries.
func (s *SpotifyService) PlaylistTracks(ctx context.Context, playlistID string, limit, offset int) (models.Page[models.Track], error) {
	var resp offsetPage[playlistItem]
	endpoint := "/playlists/" + url.PathEscape(playlistID) + "/tracks"
	if err := s.doRequest(ctx, http.MethodGet, endpoint, pageQuery(limit, offset), nil, &resp); err != nil {
		return models.Page[models.Track]{}, err
	}
	return toOffsetPage(resp, offset, func(i playlistItem) (models.Track, bool) {
		if i.Track == nil || i.Track.ID == "" {
			return models.Track{}, false
		}
		return toTrack(*i.Track), true
	}), nil
}

// SavedTracks retrieves one page of liked songs.
func (s *SpotifyService) SavedTracks(ctx context.Context, limit, offset int) (models.Page[models.Track], error) {
	var resp offsetPage[savedTrack]
	if err := s.doRequest(ctx, http.MethodGet, "/me/tracks", pageQuery(limit, offset), nil, &resp); err != nil {
		return models.Page[models.Track]{}, err
	}
	return toOffsetPage(resp, offset, func(t savedTrack) (models.Track, bool) {
		return toTrack(t.Track), true
	}), nil
}

// SavedAlbums retrieves one page of saved albums.
func (s *SpotifyService) SavedAlbums(ctx context.Context, limit, offset int) (models.Page[models.Album], error) {
	var resp offsetPage[savedAlbum]
	if err := s.doRequest(ctx, http.MethodGet, "/me/albums", pageQuery(limit, offset), nil, &resp); err != nil {
		return models.Page[models.Album]{}, err
	}
	return toOffsetPage(resp, offset, func(a savedAlbum) (models.Album, bool) {
		return toAlbum(a.Album), true
	}), nil
}

// AlbumTracks retrieves one page of an album's tracks.
func (s *SpotifyService) AlbumTracks(ctx context.Context, albumID string, limit, offset int) (models.Page[models.Track], error) {
	var resp offsetPage[SpotifyTrack]
	endpoint := "/albums/" + url.PathEscape(albumID) + "/tracks"
	if err := s.doRequest(ctx, http.MethodGet, endpoint, pageQuery(limit, offset), nil, &resp); err != nil {
		return models.Page[models.Track]{}, err
	}
	return toOffsetPage(resp, offset, func(t SpotifyTrack) (models.Track, bool) {
		return toTrack(t), true
	}), nil
}

// FollowedArtists retrieves one cursor page of followed artists.
func (s *SpotifyService) FollowedArtists(ctx context.Context, limit int, after string) (models.Page[models.Artist], error) {
	query := url.Values{"type": {"artist"}, "limit": {strconv.Itoa(clampLimit(limit))}}
	if after != "" {
		query.Set("after", after)
	}

	var resp struct {
		Artists cursorPage[SpotifyArtist] `json:"artists"`
	}
	if err := s.doRequest(ctx, http.MethodGet, "/me/following", query, nil, &resp); err != nil {
		return models.Page[models.Artist]{}, err
	}

	page := models.Page[models.Artist]{
		Token: after,
		Total: resp.Artists.Total,
		Items: toArtists(resp.Artists.Items),
	}
	if resp.Artists.Next != nil && *resp.Artists.Next != "" {
		page.Next = resp.Artists.Cursors.After
	}
	return page, nil
}

// RecentlyPlayed retrieves the most recent plays, newest first.
func (s *SpotifyService) RecentlyPlayed(ctx context.Context, limit int) ([]models.Track, error) {
	var resp struct {
		Items []playHistory `json:"items"`
	}
	query := url.Values{"limit": {strconv.Itoa(clampLimit(limit))}}
	if err := s.doRequest(ctx, http.MethodGet, "/me/player/recently-played", query, nil, &resp); err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(resp.Items))
	for _, item := range resp.Items {
		tracks = append(tracks, toTrack(item.Track))
	}
	return tracks, nil
}

// TopTracks retrieves one page of the user's most played tracks over about six months.
func (s *SpotifyService) TopTracks(ctx context.Context, limit, offset int) (models.Page[models.Track], error) {
	var resp offsetPage[SpotifyTrack]
	query := pageQuery(limit, offset)
	query.Set("time_range", topTimeRange)
	if err := s.doRequest(ctx, http.MethodGet, "/me/top/tracks", query, nil, &resp); err != nil {
		return models.Page[models.Track]{}, err
	}
	return toOffsetPage(resp, offset, func(t SpotifyTrack) (models.Track, bool) {
		return toTrack(t), true
	}), nil
}

// TopArtists retrieves one page of the user's most played artists over about six months.
func (s *SpotifyService) TopArtists(ctx context.Context, limit, offset int) (models.Page[models.Artist], error) {
	var resp offsetPage[SpotifyArtist]
	query := pageQuery(limit, offset)
	query.Set("time_range", topTimeRange)
	if err := s.doRequest(ctx, http.MethodGet, "/me/top/artists", query, nil, &resp); err != nil {
		return models.Page[models.Artist]{}, err
	}
	return toOffsetPage(resp, offset, func(a SpotifyArtist) (models.Artist, bool) {
		return toArtist(a), true
	}), nil
}

// ArtistTopTracks retrieves an artist's most popular tracks in the user's market.
func (s *SpotifyService) ArtistTopTracks(ctx context.Context, artistID string) ([]models.Track, error) {
	var resp struct {
		Tracks []SpotifyTrack `json:"tracks"`
	}
	endpoint := "/artists/" + url.PathEscape(artistID) + "/top-tracks"
	if err := s.doRequest(ctx, http.MethodGet, endpoint, url.Values{"market": {"from_token"}}, nil, &resp); err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(resp.Tracks))
	for _, t := range resp.Tracks {
		tracks = append(tracks, toTrack(t))
	}
	return tracks, nil
}

// ContainsSavedTracks checks library membership for up to 50 IDs per request.
func (s *SpotifyService) ContainsSavedTracks(ctx context.Context, ids []string) ([]bool, error) {
	return s.contains(ctx, "/me/tracks/contains", nil, ids)
}

// ContainsFollowedArtists checks whether the user follows each artist.
func (s *SpotifyService) ContainsFollowedArtists(ctx context.Context, ids []string) ([]bool, error) {
	return s.contains(ctx, "/me/following/contains", url.Values{"type": {"artist"}}, ids)
}

// contains runs a membership check in chunks of maxCheckIDs.
func (s *SpotifyService) contains(ctx context.Context, endpoint string, base url.Values, ids []string) ([]bool, error) {
	out := make([]bool, 0, len(ids))
	for chunk := range slices.Chunk(ids, maxCheckIDs) {
		var resp []bool
		query := url.Values{"ids": {strings.Join(chunk, ",")}}
		for k, v := range base {
			query[k] = v
		}
		if err := s.doRequest(ctx, http.MethodGet, endpoint, query, nil, &resp); err != nil {
			return nil, err
		}
		if len(resp) != len(chunk) {
			return nil, &APIError{Op: "GET " + endpoint, Err: fmt.Errorf("%w: expected %d results, got %d", shared.ErrUnknown, len(chunk), len(resp))}
		}
		out = append(out, resp...)
	}
	return out, nil
}

// StartPlayback plays contextURI (optionally from offsetURI) or the explicit uris list.
func (s *SpotifyService) StartPlayback(ctx context.Context, contextURI, offsetURI string, uris []string) error {
	body := startPlaybackBody{ContextURI: contextURI, URIs: uris}
	if offsetURI != "" {
		body.Offset = &offsetPayload{URI: offsetURI}
	}
	return s.doRequest(ctx, http.MethodPut, "/me/player/play", nil, body, nil)
}

// Resume continues playback where it paused.
func (s *SpotifyService) Resume(ctx context.Context) error {
	return s.doRequest(ctx, http.MethodPut, "/me/player/play", nil, nil, nil)
}

// Pause pauses playback.
func (s *SpotifyService) Pause(ctx context.Context) error {
	return s.doRequest(ctx, http.MethodPut, "/me/player/pause", nil, nil, nil)
}

// Next skips to the next track.
func (s *SpotifyService) Next(ctx context.Context) error {
	return s.doRequest(ctx, http.MethodPost, "/me/player/next", nil, nil, nil)
}

// Previous skips to the previous track.
func (s *SpotifyService) Previous(ctx context.Context) error {
	return s.doRequest(ctx, http.MethodPost, "/me/player/previous", nil, nil, nil)
}

// Seek moves the play position of the current track.
func (s *SpotifyService) Seek(ctx context.Context, positionMS int) error {
	query := url.Values{"position_ms": {strconv.Itoa(max(positionMS, 0))}}
	return s.doRequest(ctx, http.MethodPut, "/me/player/seek", query, nil, nil)
}

// SetShuffle toggles shuffle.
func (s *SpotifyService) SetShuffle(ctx context.Context, state bool) error {
	query := url.Values{"state": {strconv.FormatBool(state)}}
	return s.doRequest(ctx, http.MethodPut, "/me/player/shuffle", query, nil, nil)
}

// SetRepeat sets the repeat mode.
func (s *SpotifyService) SetRepeat(ctx context.Context, state models.RepeatState) error {
	query := url.Values{"state": {state.String()}}
	return s.doRequest(ctx, http.MethodPut, "/me/player/repeat", query, nil, nil)
}

// SetVolume sets the active device's volume, clamped to 0-100.
func (s *SpotifyService) SetVolume(ctx context.Context, percent int) error {
	query := url.Values{"volume_percent": {strconv.Itoa(min(max(percent, 0), 100))}}
	return s.doRequest(ctx, http.MethodPut, "/me/player/volume", query, nil, nil)
}

// TransferPlayback moves playback to deviceID and starts playing there.
func (s *SpotifyService) TransferPlayback(ctx context.Context, deviceID string) error {
	if deviceID == "" {
		return fmt.Errorf("%w: device id", shared.ErrMissingArgument)
	}
	return s.doRequest(ctx, http.MethodPut, "/me/player", nil, transferBody{DeviceIDs: []string{deviceID}, Play: true}, nil)
}

// AddToQueue appends uri to the play queue.
func (s *SpotifyService) AddToQueue(ctx context.Context, uri string) error {
	return s.doRequest(ctx, http.MethodPost, "/me/player/queue", url.Values{"uri": {uri}}, nil, nil)
}

// SetSaved saves or removes a library entity.
func (s *SpotifyService) SetSaved(ctx context.Context, entity models.EntityRef, save bool) error {
	method := http.MethodDelete
	if save {
		method = http.MethodPut
	}

	switch entity.Kind {
	case models.EntityTrack:
		return s.doRequest(ctx, method, "/me/tracks", url.Values{"ids": {entity.ID}}, nil, nil)
	case models.EntityAlbum:
		return s.doRequest(ctx, method, "/me/albums", url.Values{"ids": {entity.ID}}, nil, nil)
	case models.EntityArtist:
		return s.doRequest(ctx, method, "/me/following", url.Values{"type": {"artist"}, "ids": {entity.ID}}, nil, nil)
	case models.EntityPlaylist:
		return s.doRequest(ctx, method, "/playlists/"+url.PathEscape(entity.ID)+"/followers", nil, nil, nil)
	}
	return fmt.Errorf("%w: %s", shared.ErrUnsupportedEntity, entity)
}
