package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/desertthunder/sptx/internal/models"
	"github.com/desertthunder/sptx/internal/state"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
)

// row is one line of the active list, split in columns.
type row struct {
	mark string
	cols []string
}

// rows builds the active view's list. The second result is shown instead when
// the list is empty.
func rows(snap state.State) ([]row, string) {
	switch snap.View.Kind {
	case state.ViewLibrary:
		out := make([]row, len(state.LibraryEntries))
		for i, e := range state.LibraryEntries {
			out[i] = row{cols: []string{e.Label}}
		}
		return out, ""

	case state.ViewPlaylists:
		var out []row
		for _, p := range snap.Playlists.Items() {
			out = append(out, row{
				mark: savedMark(snap.Ledger, models.PlaylistRef(p.ID)),
				cols: []string{p.Name, p.Owner, humanize.Comma(int64(p.TrackCount)) + " tracks"},
			})
		}
		return out, emptyText(snap.Playlists.Loading, "no playlists")

	case state.ViewTracks:
		var out []row
		for _, t := range snap.Tracks.Items() {
			out = append(out, trackRow(snap.Ledger, t))
		}
		return out, emptyText(snap.Tracks.Loading, "no tracks")

	case state.ViewRecent:
		var out []row
		for _, t := range snap.Recent {
			out = append(out, trackRow(snap.Ledger, t))
		}
		return out, "nothing played recently"

	case state.ViewAlbums:
		var out []row
		for _, a := range snap.Albums.Items() {
			out = append(out, row{
				mark: savedMark(snap.Ledger, models.AlbumRef(a.ID)),
				cols: []string{a.Name, a.ArtistNames(), releaseYear(a.ReleaseDate)},
			})
		}
		return out, emptyText(snap.Albums.Loading, "no saved albums")

	case state.ViewArtists:
		var out []row
		for _, a := range snap.Artists.Items() {
			out = append(out, row{
				mark: savedMark(snap.Ledger, models.ArtistRef(a.ID)),
				cols: []string{a.Name, humanize.Comma(int64(a.Followers)) + " followers", strings.Join(a.Genres, ", ")},
			})
		}
		empty := "no followed artists"
		if snap.Artists.Context == state.TopArtists {
			empty = "no top artists yet"
		}
		return out, emptyText(snap.Artists.Loading, empty)

	case state.ViewDevices:
		var out []row
		for _, d := range snap.Devices {
			mark := "○"
			if d.Active {
				mark = "●"
			}
			out = append(out, row{mark: mark, cols: []string{d.Name, d.Type, fmt.Sprintf("%d%%", d.VolumePercent)}})
		}
		return out, emptyText(snap.Poll.DevicesInFlight, "no devices, open the app on a phone or computer")
	}
	return nil, ""
}

func trackRow(l state.Ledger, t models.Track) row {
	return row{
		mark: savedMark(l, models.TrackRef(t.ID)),
		cols: []string{t.Name, t.ArtistNames(), formatDuration(t.Duration)},
	}
}

func emptyText(loading bool, empty string) string {
	if loading {
		return "loading…"
	}
	return empty
}

// savedMark renders a ledger entry: saved, unsaved, pending or blank when unknown.
// Pending shows the optimistic value with a trailing marker.
func savedMark(l state.Ledger, e models.EntityRef) string {
	switch l.Status(e) {
	case state.StatusSaved:
		return "♥"
	case state.StatusUnsaved:
		return "♡"
	case state.StatusPending:
		if l.Saved(e) {
			return "♥…"
		}
		return "♡…"
	}
	return ""
}

func releaseYear(date string) string {
	if len(date) >= 4 {
		return date[:4]
	}
	return date
}

// formatDuration renders m:ss, or h:mm:ss past an hour.
func formatDuration(d time.Duration) string {
	d = max(d, 0).Truncate(time.Second)
	h, m, s := int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// layoutRow fits a row into width cells: a fixed mark column, then columns
// sharing the rest with the first one getting the most.
func layoutRow(r row, width int) string {
	const markWidth = 3
	mark := runewidth.FillRight(r.mark, markWidth)
	avail := width - markWidth
	if avail <= 0 || len(r.cols) == 0 {
		return runewidth.Truncate(mark, width, "")
	}

	weights := []int{5, 3, 2}
	total := 0
	for i := range r.cols {
		total += weights[min(i, len(weights)-1)]
	}

	var b strings.Builder
	b.WriteString(mark)
	used := 0
	for i, col := range r.cols {
		w := avail * weights[min(i, len(weights)-1)] / total
		if i == len(r.cols)-1 {
			w = avail - used
		}
		used += w
		cell := runewidth.Truncate(sanitize(col), max(w-1, 0), "…")
		b.WriteString(runewidth.FillRight(cell, w))
	}
	return strings.TrimRight(b.String(), " ")
}

// sanitize drops control characters that would break the layout.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
}

// window returns the [start, end) slice of n rows to show in height lines so that
// selected is visible.
func window(n, selected, height int) (int, int) {
	if height <= 0 || n == 0 {
		return 0, 0
	}
	start := 0
	if selected >= height {
		start = selected - height + 1
	}
	return start, min(start+height, n)
}

func newHelp() help.Model {
	h := help.New()
	h.ShortSeparator = " · "
	return h
}
