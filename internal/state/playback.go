package state

import (
	"time"

	"github.com/desertthunder/sptx/internal/models"
)

// PlaybackState is the player as last known to the client.
//
// Current holds the confirmed fields, plus any optimistic edits the dispatcher
// applied. AsOf only moves forward: confirmed reports and optimistic edits both
// stamp it, and reports issued before it are dropped.
type PlaybackState struct {
	Current         models.Playback
	Loaded          bool
	AsOf            time.Time
	ConfirmedAt     time.Time
	Seq             uint64
	DisplayProgress time.Duration
}

// Apply installs a confirmed report whose request was issued at issuedAt.
// A nil report means nothing is loaded. Returns false when the report is older
// than the current state and was discarded.
func (p *PlaybackState) Apply(report *models.Playback, issuedAt time.Time) bool {
	if issuedAt.Before(p.AsOf) {
		return false
	}

	if report == nil {
		p.Current = models.Playback{}
		p.Loaded = false
	} else {
		p.Current = report.Clone()
		p.Loaded = true
	}
	p.AsOf = issuedAt
	p.ConfirmedAt = issuedAt
	p.DisplayProgress = p.Current.Progress
	p.Seq++
	return true
}

// Optimistic applies fn as a local edit stamped at now.
func (p *PlaybackState) Optimistic(now time.Time, fn func(*models.Playback)) {
	fn(&p.Current)
	if now.After(p.AsOf) {
		p.AsOf = now
	}
	p.DisplayProgress = min(p.Current.Progress, p.Current.Duration())
	p.Seq++
}

// Advance moves the displayed position forward by one tick when playing and the
// last stamp is more than a tick old. Confirmed fields are not touched.
func (p *PlaybackState) Advance(now time.Time, tick time.Duration) {
	if !p.Loaded || !p.Current.Playing || p.Current.Item == nil {
		return
	}
	if now.Sub(p.AsOf) <= tick {
		return
	}
	p.DisplayProgress = min(p.DisplayProgress+tick, p.Current.Duration())
}

// Clone returns a deep copy.
func (p PlaybackState) Clone() PlaybackState {
	p.Current = p.Current.Clone()
	return p
}
