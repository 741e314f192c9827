package dashboard

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/zulandar/signalbox/internal/models"
	"github.com/zulandar/signalbox/internal/session"
)

// Lane is one track on the live map with the trains currently on it.
type Lane struct {
	Track  models.Track
	Trains []models.Train
}

// Bar is one labelled value in a KPI chart, with its width as a
// percentage of the largest value in the series.
type Bar struct {
	Label string
	Value float64
	Width float64
}

// pageData is the template context for pages and partials.
type pageData struct {
	Page      string
	State     session.State
	Lanes     []Lane
	Scenarios []string
	Charts    map[string][]Bar
	Now       time.Time
}

func newPageData(page string, st session.State, now time.Time) pageData {
	return pageData{
		Page:      page,
		State:     st,
		Lanes:     lanes(st),
		Scenarios: session.Scenarios,
		Charts:    kpiCharts(StaticKPIs()),
		Now:       now,
	}
}

// lanes groups trains by track in track order. Trains on unknown tracks
// are not shown.
func lanes(st session.State) []Lane {
	out := make([]Lane, len(st.Tracks))
	idx := make(map[int]int, len(st.Tracks))
	for i, tr := range st.Tracks {
		out[i] = Lane{Track: tr}
		idx[tr.ID] = i
	}
	for _, t := range st.Trains {
		if i, ok := idx[t.TrackID]; ok {
			out[i].Trains = append(out[i].Trains, t)
		}
	}
	return out
}

func kpiCharts(k KPIs) map[string][]Bar {
	charts := make(map[string][]Bar, 4)

	m := maxOf(len(k.Punctuality), func(i int) float64 { return k.Punctuality[i].OTP })
	for _, p := range k.Punctuality {
		charts["punctuality"] = append(charts["punctuality"], Bar{p.Name, p.OTP, 100 * p.OTP / m})
	}
	m = maxOf(len(k.Delay), func(i int) float64 { return k.Delay[i].AvgDelay })
	for _, d := range k.Delay {
		charts["delay"] = append(charts["delay"], Bar{d.Name, d.AvgDelay, 100 * d.AvgDelay / m})
	}
	m = maxOf(len(k.Throughput), func(i int) float64 { return float64(k.Throughput[i].Trains) })
	for _, t := range k.Throughput {
		charts["throughput"] = append(charts["throughput"], Bar{fmt.Sprintf("%02d:00", t.Hour), float64(t.Trains), 100 * float64(t.Trains) / m})
	}
	m = maxOf(len(k.WeatherImpact), func(i int) float64 { return k.WeatherImpact[i].AvgDelay })
	for _, w := range k.WeatherImpact {
		charts["weather"] = append(charts["weather"], Bar{w.Name, w.AvgDelay, 100 * w.AvgDelay / m})
	}
	return charts
}

var templateFuncs = template.FuncMap{
	"pct":        func(p float64) string { return fmt.Sprintf("%.1f", p) },
	"clock":      clock,
	"timeAgo":    timeAgo,
	"slug":       slug,
	"scoreDelta": scoreDelta,
	"join":       strings.Join,
}

// clock formats a Unix-millisecond timestamp as a wall-clock time.
func clock(ms int64) string {
	return time.UnixMilli(ms).Format("15:04:05")
}

// timeAgo formats a Unix-millisecond timestamp relative to now.
func timeAgo(ms int64, now time.Time) string {
	if ms == 0 {
		return "—"
	}
	d := now.Sub(time.UnixMilli(ms))
	if d < 0 {
		d = 0
	}
	return formatDuration(d) + " ago"
}

// formatDuration formats a duration as a human-readable string like "2h 15m".
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h >= 24 {
		days := h / 24
		h = h % 24
		return fmt.Sprintf("%dd %dh", days, h)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}

// slug turns a status or author like "On Time" into a CSS class "on-time".
func slug(s any) string {
	return strings.ReplaceAll(strings.ToLower(fmt.Sprint(s)), " ", "-")
}

func scoreDelta(change float64) string {
	switch {
	case change > 0:
		return fmt.Sprintf("+%g", change)
	case change < 0:
		return fmt.Sprintf("%g", change)
	default:
		return "±0"
	}
}
