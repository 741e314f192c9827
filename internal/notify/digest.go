package notify

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateCron reports whether expr is a usable 5-field cron expression.
func ValidateCron(expr string) error {
	if _, err := cronParser.Parse(expr); err != nil {
		return fmt.Errorf("notify: cron %q: %w", expr, err)
	}
	return nil
}

// nextCronDuration parses a 5-field cron expression and returns the duration
// until the next fire time. Returns 0 on parse error.
func nextCronDuration(expr string, now time.Time) time.Duration {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return 0
	}
	d := sched.Next(now).Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// RunDigest sends a shift digest every time expr fires until ctx is
// cancelled. summary is called with the time of the previous digest (or the
// start time for the first one). It returns immediately if expr is invalid,
// and stops if expr has no further run time.
func RunDigest(ctx context.Context, expr string, summary func(since time.Time) Summary, n Notifier) {
	next := func(now time.Time) time.Duration { return nextCronDuration(expr, now) }
	runDigest(ctx, expr, next, summary, n)
}

func runDigest(ctx context.Context, expr string, next func(now time.Time) time.Duration, summary func(since time.Time) Summary, n Notifier) {
	d := next(time.Now())
	if d <= 0 {
		log.Printf("notify: digest disabled: invalid cron %q", expr)
		return
	}
	since := time.Now()
	timer := time.NewTimer(d)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case fired := <-timer.C:
			if err := n.Notify(ctx, DigestEvent(summary(since))); err != nil {
				log.Printf("notify: send digest: %v", err)
			}
			since = fired
			d := next(time.Now())
			if d <= 0 {
				log.Printf("notify: digest stopped: cron %q has no next run", expr)
				return
			}
			timer.Reset(d)
		}
	}
}
