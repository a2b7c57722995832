package ui

import (
	"time"

	"github.com/desertthunder/sptx/internal/actions"
	"github.com/desertthunder/sptx/internal/state"
)

const (
	defaultTickRate     = 250 * time.Millisecond
	defaultPlaybackPoll = 5 * time.Second
	defaultDevicePoll   = 30 * time.Second
)

// Schedule sets how often background refreshes are issued.
type Schedule struct {
	Tick         time.Duration
	PlaybackPoll time.Duration
	DevicePoll   time.Duration
}

func (c Schedule) withDefaults() Schedule {
	if c.Tick <= 0 {
		c.Tick = defaultTickRate
	}
	if c.PlaybackPoll <= 0 {
		c.PlaybackPoll = defaultPlaybackPoll
	}
	if c.DevicePoll <= 0 {
		c.DevicePoll = defaultDevicePoll
	}
	return c
}

// advance is one tick of the render loop as a state change: extrapolate the
// displayed position and mark due refreshes in flight. It returns the refreshes
// to enqueue once the lock is released.
func advance(s *state.State, now time.Time, c Schedule) []actions.Action {
	s.Playback.Advance(now, c.Tick)

	var due []actions.Action

	if !s.Auth.Expiry.IsZero() && !now.Before(s.Auth.Expiry) && !s.Auth.Refreshing &&
		now.Sub(s.Auth.LastAttempt) >= c.PlaybackPoll {
		s.Auth.Refreshing = true
		s.Auth.LastAttempt = now
		due = append(due, actions.NewRefreshAuth())
	}

	if !s.Poll.PlaybackInFlight && (s.Poll.PlaybackDue || now.Sub(s.Poll.LastPlayback) >= c.PlaybackPoll) {
		s.Poll.PlaybackInFlight = true
		s.Poll.PlaybackDue = false
		s.Poll.LastPlayback = now
		due = append(due, actions.NewFetchPlayback())
	}

	if !s.Poll.DevicesInFlight && now.Sub(s.Poll.LastDevices) >= c.DevicePoll {
		s.Poll.DevicesInFlight = true
		s.Poll.LastDevices = now
		due = append(due, actions.NewFetchDevices())
	}

	return due
}
