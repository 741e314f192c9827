package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/zulandar/signalbox/internal/models"
)

type recorder struct {
	events []Event
	err    error
}

func (r *recorder) Notify(ctx context.Context, ev Event) error {
	r.events = append(r.events, ev)
	return r.err
}

func TestFanout_DeliversToAll(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	f := Fanout{a, b}

	if err := f.Notify(context.Background(), Event{Title: "x"}); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(a.events) != 1 || len(b.events) != 1 {
		t.Errorf("deliveries = %d, %d, want 1, 1", len(a.events), len(b.events))
	}
}

func TestFanout_ContinuesPastFailure(t *testing.T) {
	bad := &recorder{err: errors.New("slack down")}
	good := &recorder{}
	f := Fanout{bad, good}

	err := f.Notify(context.Background(), Event{Title: "x"})
	if err == nil || !strings.Contains(err.Error(), "slack down") {
		t.Fatalf("err = %v, want to contain slack down", err)
	}
	if len(good.events) != 1 {
		t.Error("second notifier should still receive the event")
	}
}

func TestSeverityColor(t *testing.T) {
	tests := map[string]string{
		"success": ColorSuccess,
		"info":    ColorInfo,
		"warning": ColorWarning,
		"error":   ColorError,
		"other":   ColorInfo,
	}
	for in, want := range tests {
		if got := severityColor(in); got != want {
			t.Errorf("severityColor(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAlertAcknowledged(t *testing.T) {
	ev := AlertAcknowledged(models.Alert{
		ID:            "A001",
		Title:         "Potential Conflict",
		Severity:      models.SeverityCritical,
		RelatedTrains: []string{"T001", "T002"},
	})
	if ev.Title != "Alert A001 acknowledged" {
		t.Errorf("Title = %q", ev.Title)
	}
	if ev.Severity != "error" || ev.Color != ColorError {
		t.Errorf("severity/color = %q/%q", ev.Severity, ev.Color)
	}
	if ev.Fields[1].Value != "T001, T002" {
		t.Errorf("trains field = %q", ev.Fields[1].Value)
	}
}

func TestRecommendationResolved(t *testing.T) {
	rec := models.AIRecommendation{ID: "R001", Action: "Reroute T002", RelatedAlertID: "A001"}

	ev := RecommendationResolved(rec, true)
	if ev.Severity != "success" || ev.Body != "Reroute T002" {
		t.Errorf("approved event = %+v", ev)
	}
	ev = RecommendationResolved(rec, false)
	if ev.Severity != "warning" || !strings.Contains(ev.Title, "overridden") {
		t.Errorf("override event = %+v", ev)
	}
}

func TestDigestEvent(t *testing.T) {
	ev := DigestEvent(Summary{OpenAlerts: 1, Moving: 4, Stopped: 1, Approved: 2})
	if !strings.Contains(ev.Body, "1 open alert(s), 4 train(s) moving, 1 stopped.") {
		t.Errorf("Body = %q", ev.Body)
	}
	if ev.Fields[1].Value != "2" {
		t.Errorf("approved field = %q", ev.Fields[1].Value)
	}
}

func TestNextCronDuration(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 30, 0, 0, time.Local)

	if d := nextCronDuration("0 9 * * *", now); d != 30*time.Minute {
		t.Errorf("daily 09:00 from 08:30 = %v, want 30m", d)
	}
	if d := nextCronDuration("* * * * *", now); d <= 0 || d > time.Minute {
		t.Errorf("every minute = %v", d)
	}
	if d := nextCronDuration("not a cron expr", now); d != 0 {
		t.Errorf("invalid = %v, want 0", d)
	}
}

func TestValidateCron(t *testing.T) {
	if err := ValidateCron("0 6,14,22 * * *"); err != nil {
		t.Errorf("valid cron rejected: %v", err)
	}
	if err := ValidateCron("every shift"); err == nil {
		t.Error("invalid cron accepted")
	}
}

func TestRunDigest_InvalidCronReturns(t *testing.T) {
	done := make(chan struct{})
	go func() {
		RunDigest(context.Background(), "bogus", func(time.Time) Summary { return Summary{} }, &recorder{})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RunDigest did not return for invalid cron")
	}
}

func TestRunDigest_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		RunDigest(ctx, "0 0 1 1 *", func(time.Time) Summary { return Summary{} }, &recorder{})
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RunDigest did not stop after cancel")
	}
}

func TestRunDigest_StopsWhenScheduleEnds(t *testing.T) {
	calls := 0
	next := func(time.Time) time.Duration {
		calls++
		if calls == 1 {
			return 10 * time.Millisecond
		}
		return 0
	}
	rec := &recorder{}
	done := make(chan struct{})
	go func() {
		runDigest(context.Background(), "0 6 * * *", next, func(time.Time) Summary { return Summary{OpenAlerts: 2} }, rec)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("runDigest kept running after the schedule ended")
	}
	if len(rec.events) != 1 {
		t.Errorf("digests sent = %d, want 1", len(rec.events))
	}
}
