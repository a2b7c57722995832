package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sptx/internal/actions"
	"github.com/desertthunder/sptx/internal/models"
	"github.com/desertthunder/sptx/internal/services"
	"github.com/desertthunder/sptx/internal/shared"
	"github.com/desertthunder/sptx/internal/state"
	"golang.org/x/oauth2"
)

const (
	defaultPageSize    = 50
	defaultCallTimeout = 30 * time.Second
	recentLimit        = 50
)

// WorkerOpts configures a [Worker]. Zero values pick defaults.
type WorkerOpts struct {
	Logger      *log.Logger
	PageSize    int
	CallTimeout time.Duration
	Now         func() time.Time

	// Events receives lifecycle events. Sends never block; events are dropped
	// when the channel is full.
	Events chan<- Event

	// OnTokenRefresh is called with every new credential, outside the state lock.
	OnTokenRefresh func(*oauth2.Token) error

	Hooks []Hook
}

// Worker drains the action queue, performs one remote call per action and commits
// the outcome to the store.
type Worker struct {
	remote services.Remote
	store  *state.Store
	queue  *Queue

	logger      *log.Logger
	pageSize    int
	callTimeout time.Duration
	now         func() time.Time
	events      chan<- Event
	onToken     func(*oauth2.Token) error
	hooks       []Hook

	// authArmed is only touched by the Run goroutine.
	authArmed bool
}

func NewWorker(remote services.Remote, store *state.Store, queue *Queue, opts WorkerOpts) *Worker {
	w := &Worker{
		remote:      remote,
		store:       store,
		queue:       queue,
		logger:      opts.Logger,
		pageSize:    opts.PageSize,
		callTimeout: opts.CallTimeout,
		now:         opts.Now,
		events:      opts.Events,
		onToken:     opts.OnTokenRefresh,
		hooks:       opts.Hooks,
	}

	if w.logger == nil {
		w.logger = shared.NewLogger(nil)
	}
	if w.pageSize <= 0 {
		w.pageSize = defaultPageSize
	}
	if w.callTimeout <= 0 {
		w.callTimeout = defaultCallTimeout
	}
	if w.now == nil {
		w.now = time.Now
	}
	return w
}

// Use appends a hook. Call before [Worker.Run].
func (w *Worker) Use(h Hook) {
	w.hooks = append(w.hooks, h)
}

// Enqueue counts a as pending and queues it. Returns false, leaving the count
// unchanged, when the queue is closed.
func (w *Worker) Enqueue(a actions.Action) bool {
	w.store.Update(func(s *state.State) { s.Pending++ })
	if w.queue.Send(a) {
		return true
	}
	w.store.Update(func(s *state.State) { s.Pending-- })
	w.logger.Warn("dropped action after shutdown", "kind", a.Kind(), "id", a.ID())
	return false
}

// Close stops accepting actions. Run returns once the queue is drained.
func (w *Worker) Close() {
	w.queue.Close()
}

// Run processes actions in FIFO order until the queue is closed and drained
// (returns nil) or ctx is done (returns ctx's error). An in-flight call is never
// cancelled by ctx; it runs to completion or its own timeout.
func (w *Worker) Run(ctx context.Context) error {
	for {
		a, err := w.queue.Receive(ctx)
		if errors.Is(err, ErrQueueClosed) {
			w.logger.Debug("worker drained")
			return nil
		}
		if err != nil {
			return err
		}
		w.process(ctx, a)
	}
}

// outcome is the result of one remote call: a state change to commit on success
// and follow-up actions to enqueue after it. apply may add follow-ups it can only
// decide while holding the lock.
type outcome struct {
	apply  func(*state.State) []actions.Action
	follow []actions.Action
	token  *oauth2.Token
}

func (w *Worker) process(ctx context.Context, a actions.Action) {
	logger := w.logger.With("action", actions.Describe(a), "kind", a.Kind(), "id", a.ID())
	w.emit(Event{Action: a, Phase: PhaseReceived})

	if w.authArmed && a.Kind() != actions.KindRefreshAuth {
		w.refreshBeforeNext(ctx, logger)
	}

	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.callTimeout)
	defer cancel()

	issuedAt := w.now()
	logger.Debug("in-flight")
	w.emit(Event{Action: a, Phase: PhaseInFlight})

	out, err := w.call(callCtx, a, issuedAt)
	resolvedAt := w.now()

	follow := out.follow
	w.store.Update(func(s *state.State) {
		s.Pending = max(s.Pending-1, 0)
		settle(s, a)
		if err != nil {
			w.fail(s, a, err, resolvedAt)
			return
		}
		if out.apply != nil {
			follow = append(follow, out.apply(s)...)
		}
		if !actions.IsPoll(a) {
			s.ClearError()
		}
	})

	if err != nil {
		if shared.Classify(err) == shared.KindAuthExpired && a.Kind() != actions.KindRefreshAuth {
			w.authArmed = true
		}
		logger.Warn("failed", "kind", shared.Classify(err), "err", err)
		w.emit(Event{Action: a, Phase: PhaseFailed, Err: err})
	} else {
		logger.Debug("applied")
		if out.token != nil {
			w.authArmed = false
			w.persistToken(out.token, logger)
		}
		for _, next := range follow {
			w.Enqueue(next)
		}
		w.emit(Event{Action: a, Phase: PhaseApplied})
	}

	for _, h := range w.hooks {
		h.AfterAction(a, err)
	}
}

// settle clears the in-flight bookkeeping of a, whatever the result.
func settle(s *state.State, a actions.Action) {
	switch a.Kind() {
	case actions.KindFetchPlayback:
		s.Poll.PlaybackInFlight = false
	case actions.KindFetchDevices:
		s.Poll.DevicesInFlight = false
	case actions.KindRefreshAuth:
		s.Auth.Refreshing = false
	case actions.KindFetchPlaylists:
		s.Playlists.Loading = false
	case actions.KindFetchPlaylistTracks, actions.KindFetchSavedTracks, actions.KindFetchAlbumTracks:
		s.Tracks.Loading = false
	case actions.KindFetchSavedAlbums:
		s.Albums.Loading = false
	case actions.KindFetchFollowedArtists:
		s.Artists.Loading = false
	}
}

func (w *Worker) fail(s *state.State, a actions.Action, err error, at time.Time) {
	if t, ok := a.(actions.ToggleSaved); ok {
		s.Ledger.Rollback(t.Entity, t.ID())
	}
	s.SetError(at, shared.Describe(actions.Describe(a), err))
}

// refreshBeforeNext renews the credential after an auth failure, before the next
// action is attempted. It is attempted once per failure.
func (w *Worker) refreshBeforeNext(ctx context.Context, logger *log.Logger) {
	w.authArmed = false

	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.callTimeout)
	defer cancel()

	token, err := w.remote.RefreshToken(callCtx)
	at := w.now()
	if err != nil {
		logger.Warn("credential refresh failed", "err", err)
		w.store.Update(func(s *state.State) {
			s.SetError(at, shared.Describe("refresh credentials", err))
		})
		return
	}

	w.store.Update(func(s *state.State) {
		s.Auth.Expiry = token.Expiry
		s.AddLog(at, "credentials refreshed")
	})
	w.persistToken(token, logger)
}

func (w *Worker) persistToken(token *oauth2.Token, logger *log.Logger) {
	if w.onToken == nil {
		return
	}
	if err := w.onToken(token); err != nil {
		logger.Error("failed to persist token", "err", err)
	}
}

// emit sends e without blocking.
func (w *Worker) emit(e Event) {
	if w.events == nil {
		return
	}
	select {
	case w.events <- e:
	default:
	}
}

// call performs the single remote call for a.
func (w *Worker) call(ctx context.Context, a actions.Action, issuedAt time.Time) (outcome, error) {
	r := w.remote

	switch a := a.(type) {
	case actions.FetchPlayback:
		pb, err := r.Playback(ctx)
		if err != nil {
			return outcome{}, err
		}
		return outcome{apply: func(s *state.State) []actions.Action {
			s.Poll.LastPlayback = issuedAt
			s.Poll.PlaybackDue = false
			if !s.Playback.Apply(pb, issuedAt) {
				return nil
			}
			if pb == nil || pb.Item == nil || pb.Item.ID == "" {
				return nil
			}
			if s.Ledger.Status(models.TrackRef(pb.Item.ID)) != state.StatusUnknown {
				return nil
			}
			return []actions.Action{actions.NewCheckSavedTracks([]string{pb.Item.ID})}
		}}, nil

	case actions.FetchDevices:
		devices, err := r.Devices(ctx)
		if err != nil {
			return outcome{}, err
		}
		return outcome{apply: commit(func(s *state.State) {
			s.Devices = devices
			s.Poll.LastDevices = issuedAt
		})}, nil

	case actions.FetchPlaylists:
		page, err := r.Playlists(ctx, w.pageSize, a.Offset)
		if err != nil {
			return outcome{}, err
		}
		return outcome{apply: commit(func(s *state.State) {
			s.Playlists.Put("me", page)
			for _, p := range page.Items {
				s.Ledger.Seed(models.PlaylistRef(p.ID), true)
			}
		})}, nil

	case actions.FetchPlaylistTracks:
		page, err := r.PlaylistTracks(ctx, a.Playlist.ID, w.pageSize, a.Offset)
		if err != nil {
			return outcome{}, err
		}
		key := state.TrackContext{Source: state.SourcePlaylist, ID: a.Playlist.ID}.Key()
		return w.trackPage(key, page, false), nil

	case actions.FetchSavedTracks:
		page, err := r.SavedTracks(ctx, w.pageSize, a.Offset)
		if err != nil {
			return outcome{}, err
		}
		return w.trackPage(state.SavedTracksContext.Key(), page, true), nil

	case actions.FetchAlbumTracks:
		page, err := r.AlbumTracks(ctx, a.Album.ID, w.pageSize, a.Offset)
		if err != nil {
			return outcome{}, err
		}
		for i := range page.Items {
			if page.Items[i].Album.ID == "" {
				page.Items[i].Album = a.Album
			}
		}
		key := state.TrackContext{Source: state.SourceAlbum, ID: a.Album.ID}.Key()
		return w.trackPage(key, page, false), nil

	case actions.FetchSavedAlbums:
		page, err := r.SavedAlbums(ctx, w.pageSize, a.Offset)
		if err != nil {
			return outcome{}, err
		}
		return outcome{apply: commit(func(s *state.State) {
			s.Albums.Put("saved", page)
			for _, album := range page.Items {
				s.Ledger.Seed(models.AlbumRef(album.ID), true)
			}
		})}, nil

	case actions.FetchFollowedArtists:
		page, err := r.FollowedArtists(ctx, w.pageSize, a.After)
		if err != nil {
			return outcome{}, err
		}
		return w.artistPage(state.FollowedArtists, page), nil

	case actions.FetchTopArtists:
		page, err := r.TopArtists(ctx, w.pageSize, a.Offset)
		if err != nil {
			return outcome{}, err
		}
		return w.artistPage(state.TopArtists, page), nil

	case actions.FetchTopTracks:
		page, err := r.TopTracks(ctx, w.pageSize, a.Offset)
		if err != nil {
			return outcome{}, err
		}
		return w.trackPage(state.TopTracksContext.Key(), page, false), nil

	case actions.FetchArtistTopTracks:
		tracks, err := r.ArtistTopTracks(ctx, a.Artist.ID)
		if err != nil {
			return outcome{}, err
		}
		page := models.Page[models.Track]{Token: models.OffsetToken(0), Total: len(tracks), Items: tracks}
		key := state.TrackContext{Source: state.SourceArtist, ID: a.Artist.ID}.Key()
		return w.trackPage(key, page, false), nil

	case actions.FetchRecentlyPlayed:
		tracks, err := r.RecentlyPlayed(ctx, recentLimit)
		if err != nil {
			return outcome{}, err
		}
		return outcome{
			apply:  commit(func(s *state.State) { s.Recent = tracks }),
			follow: checkTracks(tracks),
		}, nil

	case actions.CheckSavedTracks:
		saved, err := r.ContainsSavedTracks(ctx, a.IDs)
		if err != nil {
			return outcome{}, err
		}
		return outcome{apply: commit(func(s *state.State) {
			for i, id := range a.IDs {
				if i < len(saved) {
					s.Ledger.Seed(models.TrackRef(id), saved[i])
				}
			}
		})}, nil

	case actions.CheckFollowedArtists:
		followed, err := r.ContainsFollowedArtists(ctx, a.IDs)
		if err != nil {
			return outcome{}, err
		}
		return outcome{apply: commit(func(s *state.State) {
			for i, id := range a.IDs {
				if i < len(followed) {
					s.Ledger.Seed(models.ArtistRef(id), followed[i])
				}
			}
		})}, nil

	case actions.StartPlayback:
		return w.control(r.StartPlayback(ctx, a.ContextURI, a.OffsetURI, a.URIs), "playback started")
	case actions.ResumePlayback:
		return w.control(r.Resume(ctx), "resumed")
	case actions.PausePlayback:
		return w.control(r.Pause(ctx), "paused")
	case actions.NextTrack:
		return w.control(r.Next(ctx), "skipped to next track")
	case actions.PreviousTrack:
		return w.control(r.Previous(ctx), "skipped to previous track")
	case actions.Seek:
		return w.control(r.Seek(ctx, a.PositionMS), fmt.Sprintf("seeked to %s", time.Duration(a.PositionMS)*time.Millisecond))
	case actions.SetShuffle:
		return w.control(r.SetShuffle(ctx, a.State), actions.Describe(a))
	case actions.SetRepeat:
		return w.control(r.SetRepeat(ctx, a.State), actions.Describe(a))
	case actions.SetVolume:
		return w.control(r.SetVolume(ctx, a.Percent), fmt.Sprintf("volume %d%%", a.Percent))
	case actions.TransferPlayback:
		out, err := w.control(r.TransferPlayback(ctx, a.DeviceID), "playback transferred")
		if err == nil {
			out.follow = append(out.follow, actions.NewFetchDevices())
		}
		return out, err
	case actions.AddToQueue:
		return w.control(r.AddToQueue(ctx, a.URI), "added to queue")

	case actions.ToggleSaved:
		if err := r.SetSaved(ctx, a.Entity, a.Save); err != nil {
			return outcome{}, err
		}
		return outcome{apply: commit(func(s *state.State) {
			s.Ledger.Confirm(a.Entity, a.ID(), a.Save)
			s.AddLog(issuedAt, actions.Describe(a)+" done")
		})}, nil

	case actions.RefreshAuth:
		token, err := r.RefreshToken(ctx)
		if err != nil {
			return outcome{}, err
		}
		return outcome{
			apply: commit(func(s *state.State) {
				s.Auth.Expiry = token.Expiry
				s.AddLog(issuedAt, "credentials refreshed")
			}),
			token: token,
		}, nil
	}

	return outcome{}, fmt.Errorf("%w: action %s", shared.ErrNotImplemented, a.Kind())
}

// trackPage stores a page of tracks when the listing still shows key.
func (w *Worker) trackPage(key string, page models.Page[models.Track], saved bool) outcome {
	return outcome{apply: func(s *state.State) []actions.Action {
		if s.TrackContext.Key() != key {
			w.logger.Debug("discarded page for stale listing", "listing", key)
			return nil
		}
		s.Tracks.Put(key, page)
		if !saved {
			return checkTracks(page.Items)
		}
		for _, t := range page.Items {
			s.Ledger.Seed(models.TrackRef(t.ID), true)
		}
		return nil
	}}
}

// artistPage stores a page of artists unless the view moved to the other
// artist listing. Followed artists are known to be followed; any other listing
// asks for the follow status of artists the ledger has not seen.
func (w *Worker) artistPage(listing string, page models.Page[models.Artist]) outcome {
	return outcome{apply: func(s *state.State) []actions.Action {
		if s.Artists.Context != "" && s.Artists.Context != listing {
			w.logger.Debug("discarded page for stale listing", "listing", listing)
			return nil
		}
		s.Artists.Put(listing, page)

		if listing == state.FollowedArtists {
			for _, a := range page.Items {
				s.Ledger.Seed(models.ArtistRef(a.ID), true)
			}
			return nil
		}

		var ids []string
		for _, a := range page.Items {
			if a.ID != "" && s.Ledger.Status(models.ArtistRef(a.ID)) == state.StatusUnknown {
				ids = append(ids, a.ID)
			}
		}
		if len(ids) == 0 {
			return nil
		}
		return []actions.Action{actions.NewCheckFollowedArtists(ids)}
	}}
}

// commit adapts a state change with no follow-ups.
func commit(fn func(*state.State)) func(*state.State) []actions.Action {
	return func(s *state.State) []actions.Action {
		fn(s)
		return nil
	}
}

// checkTracks builds the saved-status lookup for a listing.
func checkTracks(tracks []models.Track) []actions.Action {
	ids := make([]string, 0, len(tracks))
	for _, t := range tracks {
		if t.ID != "" {
			ids = append(ids, t.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	return []actions.Action{actions.NewCheckSavedTracks(ids)}
}

// control handles player commands: log on success and ask for a fresh playback report.
func (w *Worker) control(err error, msg string) (outcome, error) {
	if err != nil {
		return outcome{}, err
	}
	return outcome{apply: commit(func(s *state.State) {
		s.AddLog(w.now(), msg)
		s.Poll.PlaybackDue = true
	})}, nil
}
