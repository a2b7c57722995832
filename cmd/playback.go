package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/sptx/internal/actions"
	"github.com/desertthunder/sptx/internal/models"
	"github.com/desertthunder/sptx/internal/services"
	"github.com/desertthunder/sptx/internal/shared"
	"github.com/desertthunder/sptx/internal/state"
	"github.com/desertthunder/sptx/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

type deviceJSON struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	Active        bool   `json:"active"`
	VolumePercent int    `json:"volume_percent"`
}

type statusJSON struct {
	Playing    bool        `json:"playing"`
	Track      string      `json:"track,omitempty"`
	Artists    string      `json:"artists,omitempty"`
	URI        string      `json:"uri,omitempty"`
	ProgressMS int64       `json:"progress_ms"`
	DurationMS int64       `json:"duration_ms"`
	Shuffle    bool        `json:"shuffle"`
	Repeat     string      `json:"repeat"`
	Device     *deviceJSON `json:"device,omitempty"`
}

func toDeviceJSON(d models.Device) deviceJSON {
	return deviceJSON{ID: d.ID, Name: d.Name, Type: d.Type, Active: d.Active, VolumePercent: d.VolumePercent}
}

// session is a store and worker pair for running a few actions to completion.
type session struct {
	runner *Runner
	remote services.Remote
	store  *state.Store
	expiry time.Time
	hooks  []tasks.Hook
}

func (r *Runner) session() (*session, error) {
	remote, expiry, err := r.connect()
	if err != nil {
		return nil, err
	}
	return &session{runner: r, remote: remote, store: state.NewStore(state.NewState()), expiry: expiry}, nil
}

// perform runs acts in order through a worker and returns the first failure.
// An expired credential is refreshed first.
func (s *session) perform(ctx context.Context, acts ...actions.Action) error {
	r := s.runner
	if !s.expiry.IsZero() && time.Now().After(s.expiry) {
		acts = append([]actions.Action{actions.NewRefreshAuth()}, acts...)
		s.expiry = time.Time{}
	}

	queue := tasks.NewQueue()
	worker := tasks.NewWorker(s.remote, s.store, queue, tasks.WorkerOpts{
		Logger:         r.logger,
		PageSize:       r.cfg().Behavior.PageSize,
		OnTokenRefresh: r.saveToken,
		Hooks:          s.hooks,
	})

	mine := make(map[string]bool, len(acts))
	for _, a := range acts {
		mine[a.ID()] = true
	}
	left := len(acts)
	var first error

	// Hooks run on the worker goroutine, after follow-ups are queued.
	worker.Use(tasks.HookFunc(func(a actions.Action, err error) {
		if !mine[a.ID()] {
			return
		}
		if err != nil && first == nil {
			first = fmt.Errorf("%s: %w", actions.Describe(a), err)
		}
		if left--; left == 0 {
			worker.Close()
		}
	}))

	for _, a := range acts {
		worker.Enqueue(a)
	}
	if len(acts) == 0 {
		worker.Close()
	}
	if err := worker.Run(ctx); err != nil {
		return err
	}
	return first
}

func (r *Runner) saveToken(token *oauth2.Token) error {
	repo, err := r.tokens()
	if err != nil {
		return err
	}
	return repo.Save(provider, token, nil)
}

func (r *Runner) control(ctx context.Context, a actions.Action, done string) error {
	s, err := r.session()
	if err != nil {
		return err
	}
	if err := s.perform(ctx, a); err != nil {
		return err
	}
	return r.writePlain("✓ %s\n", done)
}

// PlaybackPlay resumes playback. With no active device it transfers to the
// preferred one, which also starts playing.
func (r *Runner) PlaybackPlay(ctx context.Context, cmd *cli.Command) error {
	s, err := r.session()
	if err != nil {
		return err
	}
	if err := s.perform(ctx, actions.NewFetchPlayback()); err != nil {
		return err
	}

	snap := s.store.Snapshot()
	if snap.Playback.Loaded && snap.Playback.Current.Device.ID != "" {
		if err := s.perform(ctx, actions.NewResumePlayback()); err != nil {
			return err
		}
		return r.writePlain("✓ Playing on %s\n", snap.Playback.Current.Device.Name)
	}

	repo, err := r.devices()
	if err != nil {
		return err
	}
	preferred, ok, err := repo.Load(provider)
	if err != nil {
		return err
	}
	if !ok {
		if err := s.perform(ctx, actions.NewResumePlayback()); err != nil {
			return fmt.Errorf("%w; pick a device with: sptx playback transfer <device>", err)
		}
		return r.writePlain("✓ Playing\n")
	}

	r.logger.Debug("no active device, using preferred", "device", preferred.Name)
	if err := s.perform(ctx, actions.NewTransferPlayback(preferred.ID)); err != nil {
		return err
	}
	return r.writePlain("✓ Playing on %s\n", preferred.Name)
}

func (r *Runner) PlaybackPause(ctx context.Context, cmd *cli.Command) error {
	return r.control(ctx, actions.NewPausePlayback(), "Paused")
}

func (r *Runner) PlaybackNext(ctx context.Context, cmd *cli.Command) error {
	return r.control(ctx, actions.NewNextTrack(), "Skipped to next track")
}

func (r *Runner) PlaybackPrevious(ctx context.Context, cmd *cli.Command) error {
	return r.control(ctx, actions.NewPreviousTrack(), "Skipped to previous track")
}

// PlaybackStatus prints the current track.
func (r *Runner) PlaybackStatus(ctx context.Context, cmd *cli.Command) error {
	s, err := r.session()
	if err != nil {
		return err
	}
	if err := s.perform(ctx, actions.NewFetchPlayback()); err != nil {
		return err
	}

	pb := s.store.Snapshot().Playback
	cur := pb.Current
	if cmd.Bool("json") {
		out := statusJSON{Playing: cur.Playing, Shuffle: cur.Shuffle, Repeat: cur.Repeat.String()}
		if pb.Loaded && cur.Item != nil {
			out.Track, out.Artists, out.URI = cur.Item.Name, cur.Item.ArtistNames(), cur.Item.URI
			out.ProgressMS, out.DurationMS = cur.Progress.Milliseconds(), cur.Duration().Milliseconds()
		}
		if cur.Device.ID != "" {
			d := toDeviceJSON(cur.Device)
			out.Device = &d
		}
		return r.writeJSON(out, true)
	}

	if !pb.Loaded || cur.Item == nil {
		return r.writePlain("Nothing playing\n")
	}
	icon := "⏸"
	if cur.Playing {
		icon = "▶"
	}
	r.writePlain("%s %s · %s\n", icon, cur.Item.Name, cur.Item.ArtistNames())
	r.writePlain("   %s / %s on %s\n", clock(cur.Progress), clock(cur.Duration()), cur.Device.Name)
	return nil
}

// PlaybackDevices lists devices, marking the active and preferred ones.
func (r *Runner) PlaybackDevices(ctx context.Context, cmd *cli.Command) error {
	s, err := r.session()
	if err != nil {
		return err
	}
	if err := s.perform(ctx, actions.NewFetchDevices()); err != nil {
		return err
	}

	devices := s.store.Snapshot().Devices
	if cmd.Bool("json") {
		out := make([]deviceJSON, len(devices))
		for i, d := range devices {
			out[i] = toDeviceJSON(d)
		}
		return r.writeJSON(out, true)
	}

	if len(devices) == 0 {
		return r.writePlain("No devices found. Open Spotify on a phone or computer.\n")
	}

	var preferredID string
	if repo, err := r.devices(); err == nil {
		if p, ok, err := repo.Load(provider); err == nil && ok {
			preferredID = p.ID
		}
	}

	r.writePlain("Found %d devices:\n\n", len(devices))
	for _, d := range devices {
		mark := " "
		if d.Active {
			mark = "●"
		}
		var notes []string
		if d.ID == preferredID {
			notes = append(notes, "preferred")
		}
		notes = append(notes, fmt.Sprintf("volume %d%%", d.VolumePercent))
		r.writePlain("%s %s (%s) [%s]\n", mark, d.Name, d.Type, strings.Join(notes, ", "))
		r.writePlain("   ID: %s\n", d.ID)
	}
	return nil
}

// PlaybackTransfer moves playback to the device matching the argument and saves it
// as the preferred device.
func (r *Runner) PlaybackTransfer(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("device")
	if query == "" {
		return fmt.Errorf("%w: device id or name", shared.ErrMissingArgument)
	}

	s, err := r.session()
	if err != nil {
		return err
	}
	if err := s.perform(ctx, actions.NewFetchDevices()); err != nil {
		return err
	}

	device, ok := findDevice(s.store.Snapshot().Devices, query)
	if !ok {
		return fmt.Errorf("no device matches %q, see: sptx playback devices", query)
	}

	repo, err := r.devices()
	if err != nil {
		return err
	}
	s.hooks = append(s.hooks, preferDevice(s.store, repo, r.logger))

	if err := s.perform(ctx, actions.NewTransferPlayback(device.ID)); err != nil {
		return err
	}
	return r.writePlain("✓ Playing on %s\n", device.Name)
}

// findDevice matches an exact id, then a case-insensitive name prefix.
func findDevice(devices []models.Device, query string) (models.Device, bool) {
	for _, d := range devices {
		if d.ID == query {
			return d, true
		}
	}
	q := strings.ToLower(query)
	for _, d := range devices {
		if strings.HasPrefix(strings.ToLower(d.Name), q) {
			return d, true
		}
	}
	return models.Device{}, false
}

func clock(d time.Duration) string {
	d = max(d, 0).Truncate(time.Second)
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
