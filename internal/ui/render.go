package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/sptx/internal/dispatch"
	"github.com/desertthunder/sptx/internal/state"
	"github.com/mattn/go-runewidth"
)

const (
	defaultWidth  = 80
	defaultHeight = 24

	// header, two rules, three playbar lines, status, help
	chromeLines = 8
)

// Renderer draws a frame from a snapshot. Render reads nothing but its arguments.
type Renderer struct {
	keys dispatch.KeyMap
	help help.Model
	bar  progress.Model
}

func NewRenderer(keys dispatch.KeyMap) Renderer {
	return Renderer{
		keys: keys,
		help: newHelp(),
		bar:  progress.New(progress.WithSolidFill("#1DB954"), progress.WithoutPercentage()),
	}
}

// Render lays out the whole screen for a width x height terminal.
func (r Renderer) Render(snap state.State, width, height int) string {
	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}

	rule := styles.rule.Render(strings.Repeat("─", width))
	lines := []string{r.header(snap, width), rule}
	lines = append(lines, r.body(snap, width, max(height-chromeLines, 1))...)
	lines = append(lines, rule)
	lines = append(lines, r.playbar(snap, width)...)
	lines = append(lines, r.status(snap, width))

	h := r.help
	h.Width = width
	lines = append(lines, h.ShortHelpView(r.keys.ShortHelp()))

	return strings.Join(lines, "\n")
}

func (r Renderer) header(snap state.State, width int) string {
	title := "sptx · " + snap.View.Kind.String()
	switch {
	case snap.View.Kind == state.ViewTracks && snap.TrackContext.Name != "":
		title = "sptx · " + snap.TrackContext.Name
	case snap.View.Kind == state.ViewArtists && snap.Artists.Context == state.TopArtists:
		title = "sptx · Top Artists"
	}

	var right string
	if snap.Pending > 0 {
		right = fmt.Sprintf("⟳ %d", snap.Pending)
	}

	left := styles.title.Render(runewidth.Truncate(title, max(width-runewidth.StringWidth(right)-1, 1), "…"))
	gap := max(width-lipgloss.Width(left)-runewidth.StringWidth(right), 1)
	return left + strings.Repeat(" ", gap) + styles.warn.Render(right)
}

func (r Renderer) body(snap state.State, width, height int) []string {
	out := make([]string, 0, height)

	if snap.View.Kind == state.ViewHelp {
		h := r.help
		h.Width = width
		out = append(out, strings.Split(h.FullHelpView(r.keys.FullHelp()), "\n")...)
	} else {
		list, empty := rows(snap)
		if len(list) == 0 {
			out = append(out, styles.muted.Render(empty))
		}
		start, end := window(len(list), snap.View.Selected, height)
		for i := start; i < end; i++ {
			line := layoutRow(list[i], width)
			if i == snap.View.Selected {
				line = styles.selected.Render(runewidth.FillRight(line, width))
			}
			out = append(out, line)
		}
	}

	if len(out) > height {
		out = out[:height]
	}
	for len(out) < height {
		out = append(out, "")
	}
	return out
}

func (r Renderer) playbar(snap state.State, width int) []string {
	pb := snap.Playback
	if !pb.Loaded || pb.Current.Item == nil {
		return []string{styles.muted.Render("nothing playing"), "", ""}
	}

	cur := pb.Current
	icon := "⏸"
	if cur.Playing {
		icon = "▶"
	}
	title := fmt.Sprintf("%s %s · %s", icon, cur.Item.Name, cur.Item.ArtistNames())

	clock := fmt.Sprintf(" %s / %s", formatDuration(pb.DisplayProgress), formatDuration(cur.Duration()))
	bar := r.bar
	bar.Width = max(width-runewidth.StringWidth(clock), 1)
	ratio := 0.0
	if d := cur.Duration(); d > 0 {
		ratio = min(float64(pb.DisplayProgress)/float64(d), 1)
	}

	shuffle := "off"
	if cur.Shuffle {
		shuffle = "on"
	}
	device := cur.Device.Name
	if device == "" {
		device = "no device"
	}
	info := fmt.Sprintf("%s · vol %d%% · shuffle %s · repeat %s", device, cur.Device.VolumePercent, shuffle, cur.Repeat)

	return []string{
		styles.ok.Render(runewidth.Truncate(sanitize(title), width, "…")),
		bar.ViewAs(ratio) + clock,
		styles.muted.Render(runewidth.Truncate(info, width, "…")),
	}
}

// status shows the last error, or the newest log line.
func (r Renderer) status(snap state.State, width int) string {
	if snap.LastError != "" {
		msg := fmt.Sprintf("%s %s", snap.LastErrorAt.Format("15:04:05"), snap.LastError)
		return styles.err.Render(runewidth.Truncate(msg, width, "…"))
	}
	if n := len(snap.Log); n > 0 {
		return styles.muted.Render(runewidth.Truncate(snap.Log[n-1].Text, width, "…"))
	}
	return ""
}
