package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/sptx/internal/models"
	"github.com/desertthunder/sptx/internal/shared"
	tu "github.com/desertthunder/sptx/internal/testing"
	"golang.org/x/oauth2"
)

var testCreds = shared.SpotifyConfig{ClientID: "test_client_id", ClientSecret: "test_client_secret"}

// newTestService points a service at an httptest server and installs a token.
func newTestService(t *testing.T, handler http.HandlerFunc) *SpotifyService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc, err := NewSpotifyService(testCreds, SpotifyOpts{
		BaseURL:    srv.URL,
		TokenURL:   srv.URL + "/token",
		HTTPClient: srv.Client(),
	})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	if err := svc.Authenticate(&oauth2.Token{AccessToken: "access", RefreshToken: "refresh"}); err != nil {
		t.Fatalf("failed to authenticate: %v", err)
	}
	return svc
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("failed to encode response: %v", err)
	}
}

func TestSpotifyService(t *testing.T) {
	t.Run("NewSpotifyService", func(t *testing.T) {
		t.Run("With Valid Credentials", func(t *testing.T) {
			srv, err := NewSpotifyService(testCreds, SpotifyOpts{})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if srv.Name() != "Spotify" {
				t.Errorf("expected service name 'Spotify', got %s", srv.Name())
			}
			if srv.config.RedirectURL == "" {
				t.Error("expected default redirect URI")
			}
		})

		t.Run("Missing Client ID", func(t *testing.T) {
			_, err := NewSpotifyService(shared.SpotifyConfig{ClientSecret: "s"}, SpotifyOpts{})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Missing Client Secret", func(t *testing.T) {
			_, err := NewSpotifyService(shared.SpotifyConfig{ClientID: "c"}, SpotifyOpts{})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})
	})

	t.Run("Get AuthURL", func(t *testing.T) {
		srv, _ := NewSpotifyService(testCreds, SpotifyOpts{})

		authURL := srv.GetAuthURL("test_state")
		for _, want := range []string{"accounts.spotify.com", "test_client_id", "test_state", "user-modify-playback-state"} {
			if !strings.Contains(authURL, want) {
				t.Errorf("auth URL should contain %q: %s", want, authURL)
			}
		}
	})

	t.Run("Authenticate", func(t *testing.T) {
		srv, _ := NewSpotifyService(testCreds, SpotifyOpts{})

		if err := srv.Authenticate(nil); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}

		if err := srv.Authenticate(&oauth2.Token{AccessToken: "a"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if srv.Token().AccessToken != "a" {
			t.Errorf("expected installed token")
		}
	})

	t.Run("Requests Without Token", func(t *testing.T) {
		srv, _ := NewSpotifyService(testCreds, SpotifyOpts{})
		_, err := srv.Devices(context.Background())
		if shared.Classify(err) != shared.KindAuthExpired {
			t.Errorf("expected auth failure, got %v", err)
		}
	})
}

func TestStatusMapping(t *testing.T) {
	tc := []struct {
		name    string
		status  int
		body    string
		header  map[string]string
		kind    shared.ErrorKind
		sentinel error
	}{
		{name: "Unauthorized", status: 401, kind: shared.KindAuthExpired, sentinel: shared.ErrAuthExpired},
		{name: "Forbidden", status: 403, body: `{"error":{"status":403,"message":"Premium required"}}`, kind: shared.KindUnknown, sentinel: shared.ErrPremiumRequired},
		{name: "Not Found", status: 404, kind: shared.KindNotFound, sentinel: shared.ErrNotFound},
		{name: "No Active Device", status: 404, body: `{"error":{"status":404,"message":"Player command failed","reason":"NO_ACTIVE_DEVICE"}}`, kind: shared.KindNotFound, sentinel: shared.ErrNoActiveDevice},
		{name: "Too Many Requests", status: 429, header: map[string]string{"Retry-After": "3"}, kind: shared.KindRateLimited, sentinel: shared.ErrRateLimited},
		{name: "Server Error", status: 502, kind: shared.KindTransientNetwork, sentinel: shared.ErrTransientNetwork},
		{name: "Teapot", status: 418, kind: shared.KindUnknown, sentinel: shared.ErrUnknown},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
				for k, v := range tt.header {
					w.Header().Set(k, v)
				}
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})

			err := svc.Pause(context.Background())
			if err == nil {
				t.Fatal("expected error")
			}
			if got := shared.Classify(err); got != tt.kind {
				t.Errorf("Classify() = %v, want %v", got, tt.kind)
			}
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("expected %v in chain, got %v", tt.sentinel, err)
			}

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %T", err)
			}
			if apiErr.Status != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, apiErr.Status)
			}
			if tt.status == 429 && apiErr.RetryAfter != 3*time.Second {
				t.Errorf("expected RetryAfter 3s, got %v", apiErr.RetryAfter)
			}
		})
	}

	t.Run("Transport Failure", func(t *testing.T) {
		svc, _ := NewSpotifyService(testCreds, SpotifyOpts{
			HTTPClient: &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection reset"))},
		})
		svc.Authenticate(&oauth2.Token{AccessToken: "a"})

		err := svc.Next(context.Background())
		if shared.Classify(err) != shared.KindTransientNetwork {
			t.Errorf("expected transient failure, got %v", err)
		}
	})

	t.Run("Undecodable Body", func(t *testing.T) {
		svc, _ := NewSpotifyService(testCreds, SpotifyOpts{
			HTTPClient: &http.Client{Transport: tu.NewMockRoundTripper(&http.Response{
				StatusCode: 200,
				Body:       &tu.FCloser{},
				Header:     http.Header{},
			}, nil)},
		})
		svc.Authenticate(&oauth2.Token{AccessToken: "a"})

		_, err := svc.Devices(context.Background())
		if !errors.Is(err, shared.ErrUnknown) {
			t.Errorf("expected ErrUnknown, got %v", err)
		}
	})
}

func TestPlayback(t *testing.T) {
	t.Run("Nothing Playing", func(t *testing.T) {
		svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})

		pb, err := svc.Playback(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if pb != nil {
			t.Errorf("expected nil playback, got %+v", pb)
		}
	})

	t.Run("Decodes Player State", func(t *testing.T) {
		svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/me/player" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if got := r.Header.Get("Authorization"); got != "Bearer access" {
				t.Errorf("unexpected authorization header %q", got)
			}
			io.WriteString(w, `{
				"device": {"id": "d1", "name": "Desk", "type": "Computer", "is_active": true, "volume_percent": 40},
				"shuffle_state": true,
				"repeat_state": "context",
				"progress_ms": 12000,
				"is_playing": true,
				"context": {"uri": "spotify:playlist:p1"},
				"item": {"id": "t1", "name": "Song", "duration_ms": 180000, "uri": "spotify:track:t1",
					"artists": [{"id": "a1", "name": "Artist"}], "album": {"id": "al1", "name": "Album"}}
			}`)
		})

		pb, err := svc.Playback(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if pb.Item == nil || pb.Item.ID != "t1" {
			t.Fatalf("expected item t1, got %+v", pb.Item)
		}
		if pb.Progress != 12*time.Second || pb.Duration() != 3*time.Minute {
			t.Errorf("unexpected timing %v / %v", pb.Progress, pb.Duration())
		}
		if !pb.Shuffle || pb.Repeat != models.RepeatContext || !pb.Playing {
			t.Errorf("unexpected flags %+v", pb)
		}
		if pb.Device.VolumePercent != 40 || pb.ContextURI != "spotify:playlist:p1" {
			t.Errorf("unexpected device/context %+v", pb)
		}
	})
}

func TestListings(t *testing.T) {
	t.Run("PlaylistTracks Skips Removed Entries", func(t *testing.T) {
		svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/playlists/p1/tracks" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if r.URL.Query().Get("limit") != "50" || r.URL.Query().Get("offset") != "50" {
				t.Errorf("unexpected query %s", r.URL.RawQuery)
			}
			io.WriteString(w, `{"total": 120, "offset": 50, "limit": 50, "next": "https://next",
				"items": [{"track": {"id": "t1", "name": "One"}}, {"track": null}, {"track": {"id": "t2", "name": "Two"}}]}`)
		})

		page, err := svc.PlaylistTracks(context.Background(), "p1", 100, 50)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(page.Items) != 2 {
			t.Fatalf("expected 2 tracks, got %d", len(page.Items))
		}
		if page.Token != "50" || page.Next != "53" || page.Total != 120 {
			t.Errorf("unexpected page tokens %q -> %q (total %d)", page.Token, page.Next, page.Total)
		}
	})

	t.Run("Last Page Has No Next", func(t *testing.T) {
		svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"total": 1, "next": null, "items": [{"album": {"id": "al1", "name": "A"}}]}`)
		})

		page, err := svc.SavedAlbums(context.Background(), 20, 0)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if page.Next != "" || len(page.Items) != 1 || page.Items[0].ID != "al1" {
			t.Errorf("unexpected page %+v", page)
		}
	})

	t.Run("FollowedArtists Uses Cursor", func(t *testing.T) {
		svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if q.Get("type") != "artist" || q.Get("after") != "a0" {
				t.Errorf("unexpected query %s", r.URL.RawQuery)
			}
			io.WriteString(w, `{"artists": {"total": 3, "next": "https://next", "cursors": {"after": "a2"},
				"items": [{"id": "a1", "name": "One", "followers": {"total": 1200}}, {"id": "a2", "name": "Two"}]}}`)
		})

		page, err := svc.FollowedArtists(context.Background(), 2, "a0")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if page.Token != "a0" || page.Next != "a2" || len(page.Items) != 2 {
			t.Errorf("unexpected page %+v", page)
		}
		if page.Items[0].Followers != 1200 {
			t.Errorf("expected followers 1200, got %d", page.Items[0].Followers)
		}
	})

	t.Run("Top Tracks And Artists", func(t *testing.T) {
		svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if q.Get("time_range") != "medium_term" || q.Get("offset") != "20" {
				t.Errorf("unexpected query %s", r.URL.RawQuery)
			}
			switch r.URL.Path {
			case "/me/top/tracks":
				io.WriteString(w, `{"total": 30, "next": "https://next", "items": [{"id": "t1", "name": "One", "duration_ms": 1000}]}`)
			case "/me/top/artists":
				io.WriteString(w, `{"total": 21, "next": null, "items": [{"id": "a1", "name": "One"}]}`)
			default:
				t.Errorf("unexpected path %s", r.URL.Path)
			}
		})

		tracks, err := svc.TopTracks(context.Background(), 20, 20)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if tracks.Token != "20" || tracks.Next != "21" || tracks.Items[0].ID != "t1" {
			t.Errorf("unexpected tracks page %+v", tracks)
		}

		artists, err := svc.TopArtists(context.Background(), 20, 20)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if artists.Next != "" || len(artists.Items) != 1 || artists.Items[0].Name != "One" {
			t.Errorf("unexpected artists page %+v", artists)
		}
	})

	t.Run("ArtistTopTracks", func(t *testing.T) {
		svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/artists/a1/top-tracks" || r.URL.Query().Get("market") != "from_token" {
				t.Errorf("unexpected request %s?%s", r.URL.Path, r.URL.RawQuery)
			}
			io.WriteString(w, `{"tracks": [{"id": "t1", "name": "One"}, {"id": "t2", "name": "Two"}]}`)
		})

		tracks, err := svc.ArtistTopTracks(context.Background(), "a1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(tracks) != 2 || tracks[1].Name != "Two" {
			t.Errorf("unexpected tracks %+v", tracks)
		}
	})

	t.Run("ContainsFollowedArtists", func(t *testing.T) {
		svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if r.URL.Path != "/me/following/contains" || q.Get("type") != "artist" || q.Get("ids") != "a1,a2" {
				t.Errorf("unexpected request %s?%s", r.URL.Path, r.URL.RawQuery)
			}
			writeJSON(t, w, []bool{true, false})
		})

		followed, err := svc.ContainsFollowedArtists(context.Background(), []string{"a1", "a2"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(followed) != 2 || !followed[0] || followed[1] {
			t.Errorf("unexpected results %v", followed)
		}
	})

	t.Run("Contains Rejects Short Answers", func(t *testing.T) {
		svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, []bool{true})
		})

		_, err := svc.ContainsFollowedArtists(context.Background(), []string{"a1", "a2"})
		if !errors.Is(err, shared.ErrUnknown) {
			t.Errorf("expected ErrUnknown, got %v", err)
		}
	})

	t.Run("ContainsSavedTracks Chunks Requests", func(t *testing.T) {
		var mu sync.Mutex
		var calls int
		svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			calls++
			mu.Unlock()
			ids := strings.Split(r.URL.Query().Get("ids"), ",")
			out := make([]bool, len(ids))
			for i, id := range ids {
				out[i] = strings.HasSuffix(id, "0")
			}
			writeJSON(t, w, out)
		})

		ids := make([]string, 120)
		for i := range ids {
			ids[i] = fmt.Sprintf("t%d", i)
		}

		saved, err := svc.ContainsSavedTracks(context.Background(), ids)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if calls != 3 {
			t.Errorf("expected 3 requests for 120 ids, got %d", calls)
		}
		if len(saved) != 120 || !saved[10] || saved[11] {
			t.Errorf("unexpected results %v", saved[:12])
		}
	})
}

func TestPlayerCommands(t *testing.T) {
	type call struct {
		method string
		path   string
		query  string
		body   string
	}

	record := func(t *testing.T) (*SpotifyService, *[]call) {
		var calls []call
		svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			calls = append(calls, call{r.Method, r.URL.Path, r.URL.RawQuery, strings.TrimSpace(string(body))})
			w.WriteHeader(http.StatusNoContent)
		})
		return svc, &calls
	}

	tc := []struct {
		name string
		run  func(context.Context, *SpotifyService) error
		want call
	}{
		{
			name: "StartPlayback",
			run: func(ctx context.Context, s *SpotifyService) error {
				return s.StartPlayback(ctx, "spotify:album:a", "spotify:track:t", nil)
			},
			want: call{"PUT", "/me/player/play", "", `{"context_uri":"spotify:album:a","offset":{"uri":"spotify:track:t"}}`},
		},
		{
			name: "Resume",
			run:  func(ctx context.Context, s *SpotifyService) error { return s.Resume(ctx) },
			want: call{"PUT", "/me/player/play", "", ""},
		},
		{
			name: "Seek Clamps Negative",
			run:  func(ctx context.Context, s *SpotifyService) error { return s.Seek(ctx, -10) },
			want: call{"PUT", "/me/player/seek", "position_ms=0", ""},
		},
		{
			name: "SetRepeat",
			run:  func(ctx context.Context, s *SpotifyService) error { return s.SetRepeat(ctx, models.RepeatTrack) },
			want: call{"PUT", "/me/player/repeat", "state=track", ""},
		},
		{
			name: "SetVolume Clamps",
			run:  func(ctx context.Context, s *SpotifyService) error { return s.SetVolume(ctx, 140) },
			want: call{"PUT", "/me/player/volume", "volume_percent=100", ""},
		},
		{
			name: "TransferPlayback",
			run:  func(ctx context.Context, s *SpotifyService) error { return s.TransferPlayback(ctx, "d2") },
			want: call{"PUT", "/me/player", "", `{"device_ids":["d2"],"play":true}`},
		},
		{
			name: "Save Track",
			run: func(ctx context.Context, s *SpotifyService) error {
				return s.SetSaved(ctx, models.TrackRef("t1"), true)
			},
			want: call{"PUT", "/me/tracks", "ids=t1", ""},
		},
		{
			name: "Unfollow Artist",
			run: func(ctx context.Context, s *SpotifyService) error {
				return s.SetSaved(ctx, models.ArtistRef("a1"), false)
			},
			want: call{"DELETE", "/me/following", "ids=a1&type=artist", ""},
		},
		{
			name: "Follow Playlist",
			run: func(ctx context.Context, s *SpotifyService) error {
				return s.SetSaved(ctx, models.PlaylistRef("p1"), true)
			},
			want: call{"PUT", "/playlists/p1/followers", "", ""},
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			svc, calls := record(t)
			if err := tt.run(context.Background(), svc); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(*calls) != 1 {
				t.Fatalf("expected one request, got %d", len(*calls))
			}
			if got := (*calls)[0]; got != tt.want {
				t.Errorf("request = %+v, want %+v", got, tt.want)
			}
		})
	}

	t.Run("Unsupported Entity", func(t *testing.T) {
		svc, calls := record(t)
		err := svc.SetSaved(context.Background(), models.EntityRef{Kind: models.EntityKind(9), ID: "x"}, true)
		if !errors.Is(err, shared.ErrUnsupportedEntity) {
			t.Errorf("expected ErrUnsupportedEntity, got %v", err)
		}
		if len(*calls) != 0 {
			t.Errorf("expected no request, got %d", len(*calls))
		}
	})
}

func TestRefreshToken(t *testing.T) {
	t.Run("Installs New Token And Notifies", func(t *testing.T) {
		svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/token" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			r.ParseForm()
			if r.PostForm.Get("grant_type") != "refresh_token" || r.PostForm.Get("refresh_token") != "refresh" {
				t.Errorf("unexpected form %v", r.PostForm)
			}
			writeJSON(t, w, map[string]any{"access_token": "fresh", "token_type": "Bearer", "expires_in": 3600})
		})

		var notified *oauth2.Token
		svc.SetTokenRefreshCallback(func(tok *oauth2.Token) { notified = tok })

		tok, err := svc.RefreshToken(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if tok.AccessToken != "fresh" || svc.Token().AccessToken != "fresh" {
			t.Errorf("expected fresh token installed, got %+v", tok)
		}
		if tok.RefreshToken != "refresh" {
			t.Errorf("refresh token should be kept, got %q", tok.RefreshToken)
		}
		if notified == nil || notified.AccessToken != "fresh" {
			t.Error("expected refresh callback")
		}
		if !tok.Expiry.After(time.Now()) {
			t.Error("expected future expiry")
		}
	})

	t.Run("Without Refresh Token", func(t *testing.T) {
		svc, _ := NewSpotifyService(testCreds, SpotifyOpts{})
		svc.Authenticate(&oauth2.Token{AccessToken: "a"})

		if _, err := svc.RefreshToken(context.Background()); !errors.Is(err, shared.ErrNoRefreshToken) {
			t.Errorf("expected ErrNoRefreshToken, got %v", err)
		}
	})

	t.Run("Server Rejects Grant", func(t *testing.T) {
		svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, `{"error":"invalid_grant"}`)
		})

		_, err := svc.RefreshToken(context.Background())
		if !errors.Is(err, shared.ErrRefreshFailed) {
			t.Errorf("expected ErrRefreshFailed, got %v", err)
		}
		if svc.Token().AccessToken != "access" {
			t.Error("failed refresh should keep the old token")
		}
	})
}

func TestRefreshableTokenSource(t *testing.T) {
	t.Run("Calls Callback Only On Change", func(t *testing.T) {
		calls := 0
		src := &mockTokenSource{token: &oauth2.Token{AccessToken: "one"}}
		rs := &refreshableTokenSource{source: src, callback: func(*oauth2.Token) { calls++ }}

		rs.Token()
		rs.Token()
		src.token = &oauth2.Token{AccessToken: "two"}
		rs.Token()

		if calls != 2 {
			t.Errorf("expected 2 callbacks, got %d", calls)
		}
	})

	t.Run("Propagates Source Errors", func(t *testing.T) {
		rs := &refreshableTokenSource{
			source:   &mockTokenSource{err: errors.New("token source error")},
			callback: func(*oauth2.Token) { t.Error("callback should not be called on error") },
		}

		tok, err := rs.Token()
		if err == nil || tok != nil {
			t.Fatalf("expected error and nil token, got %v / %v", tok, err)
		}
	})
}

// mockTokenSource implements [oauth2.TokenSource] for testing
type mockTokenSource struct {
	token *oauth2.Token
	err   error
}

func (m *mockTokenSource) Token() (*oauth2.Token, error) {
	return m.token, m.err
}
