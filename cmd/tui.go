package main

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/sptx/internal/actions"
	"github.com/desertthunder/sptx/internal/models"
	"github.com/desertthunder/sptx/internal/repositories"
	"github.com/desertthunder/sptx/internal/shared"
	"github.com/desertthunder/sptx/internal/state"
	"github.com/desertthunder/sptx/internal/tasks"
	"github.com/desertthunder/sptx/internal/ui"
	"github.com/urfave/cli/v3"
)

// shutdownGrace bounds how long quitting waits for queued actions to finish.
const shutdownGrace = 3 * time.Second

// TUI launches the interactive terminal UI.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	remote, expiry, err := r.connect()
	if err != nil {
		return err
	}

	c := r.cfg()

	// The interface owns the terminal, so logs go to a file.
	fileLogger, logFile, err := shared.NewFileLogger(c.Log.Path, c.Log.Level)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer logFile.Close()
	r.SetLogger(fileLogger)

	initial := state.NewState()
	initial.Auth.Expiry = expiry
	store := state.NewStore(initial)

	queue := tasks.NewQueue()
	worker := tasks.NewWorker(remote, store, queue, tasks.WorkerOpts{
		Logger:         fileLogger.With("component", "worker"),
		PageSize:       c.Behavior.PageSize,
		OnTokenRefresh: r.saveToken,
	})

	retrier := tasks.WithRetry(tasks.RetryPolicy{
		MaxAttempts: c.Behavior.RetryMaxAttempts,
		PerSecond:   c.Behavior.RequestsPerSecond,
	}, worker.Enqueue)
	defer retrier.Stop()
	worker.Use(retrier)

	if repo, err := r.devices(); err == nil {
		worker.Use(preferDevice(store, repo, fileLogger))
	} else {
		fileLogger.Warn("preferred device will not be saved", "error", err)
	}

	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	model := ui.NewModel(store, worker, ui.Opts{
		Schedule: ui.Schedule{
			Tick:         c.Behavior.TickRate(),
			PlaybackPoll: c.Behavior.PlaybackPoll(),
			DevicePoll:   c.Behavior.DevicePoll(),
		},
		SeekStep:   c.Behavior.SeekStep(),
		VolumeStep: c.Behavior.VolumeIncrement,
		Logger:     fileLogger.With("component", "ui"),
	})

	fileLogger.Info("starting interface")
	_, runErr := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()

	retrier.Stop()
	worker.Close()
	select {
	case err := <-done:
		if err != nil {
			fileLogger.Warn("worker stopped", "error", err)
		}
	case <-time.After(shutdownGrace):
		fileLogger.Warn("quit before queued actions finished", "pending", store.Snapshot().Pending)
	}

	if runErr != nil {
		return fmt.Errorf("error running TUI: %w", runErr)
	}
	return nil
}

// preferDevice remembers the target of every successful transfer.
func preferDevice(store *state.Store, repo *repositories.DeviceRepository, logger *log.Logger) tasks.Hook {
	return tasks.HookFunc(func(a actions.Action, err error) {
		t, ok := a.(actions.TransferPlayback)
		if !ok || err != nil {
			return
		}

		device := models.Device{ID: t.DeviceID}
		store.Read(func(s state.State) {
			for _, d := range s.Devices {
				if d.ID == t.DeviceID {
					device = d
				}
			}
		})

		if err := repo.Save(provider, device); err != nil {
			logger.Warn("failed to save preferred device", "error", err)
		}
	})
}
