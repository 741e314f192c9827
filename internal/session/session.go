package session

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/zulandar/signalbox/internal/models"
	"github.com/zulandar/signalbox/internal/notify"
	"github.com/zulandar/signalbox/internal/sim"
)

// DefaultRequestTimeout bounds a single advisor call.
const DefaultRequestTimeout = 60 * time.Second

// DefaultNotifyTimeout bounds delivery of a single event to the notifier.
const DefaultNotifyTimeout = 10 * time.Second

// notifyQueueSize is how many events may wait for delivery before new ones
// are dropped.
const notifyQueueSize = 64

var (
	// ErrBusy is returned when a request of the same kind is already in flight.
	ErrBusy = errors.New("session: request already in progress")
	// ErrEmptyQuery is returned for a blank what-if query.
	ErrEmptyQuery = errors.New("session: query is required")
	// ErrEmptyScenario is returned for a blank scenario.
	ErrEmptyScenario = errors.New("session: scenario is required")
	// ErrAnalysisFailed is returned when scenario analysis fails.
	ErrAnalysisFailed = errors.New("session: " + MsgAnalysisFailed)
)

// Options configures a Session.
type Options struct {
	Seed           State
	Advisor        Advisor
	Sink           AuditSink       // optional
	Archive        ScenarioArchive // optional
	Notifier       Notifier        // optional
	TickPeriod     time.Duration   // defaults to sim.DefaultPeriod
	RequestTimeout time.Duration   // defaults to DefaultRequestTimeout
	NotifyTimeout  time.Duration   // defaults to DefaultNotifyTimeout
	Now            func() time.Time
}

// Session owns the live dashboard state. All state transitions go through
// the pure workflow functions in this package; Session adds locking, the
// position ticker and delivery of audit entries and events.
type Session struct {
	mu      sync.Mutex
	state   State
	seed    State
	ticker  *sim.Ticker
	subs    map[chan struct{}]struct{}
	advisor Advisor
	sink    AuditSink
	archive ScenarioArchive
	notif   Notifier
	period  time.Duration
	timeout time.Duration
	now     func() time.Time

	// Events go to the notifier from a single worker so a slow chat target
	// never holds up a workflow. Guarded by mu.
	events        chan notify.Event
	delivered     chan struct{}
	closed        bool
	notifyTimeout time.Duration
}

// New creates a Session from opts. The seed is copied; later changes to it
// do not affect the session.
func New(opts Options) (*Session, error) {
	if opts.Advisor == nil {
		return nil, errors.New("session: advisor is required")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	notifyTimeout := opts.NotifyTimeout
	if notifyTimeout <= 0 {
		notifyTimeout = DefaultNotifyTimeout
	}
	s := &Session{
		state:         opts.Seed.Clone(),
		seed:          opts.Seed.Clone(),
		subs:          make(map[chan struct{}]struct{}),
		advisor:       opts.Advisor,
		sink:          opts.Sink,
		archive:       opts.Archive,
		notif:         opts.Notifier,
		period:        opts.TickPeriod,
		timeout:       timeout,
		now:           now,
		notifyTimeout: notifyTimeout,
	}
	if s.notif != nil {
		s.events = make(chan notify.Event, notifyQueueSize)
		s.delivered = make(chan struct{})
		go s.deliver()
	}
	return s, nil
}

// Start begins advancing train positions. It is a no-op if the ticker is
// already running. The ticker stops when ctx is cancelled or Close is called.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ticker != nil {
		return
	}
	s.ticker = sim.Start(ctx, s.period, s.Tick)
}

// Close stops the position ticker and waits for queued events to be
// delivered, each bounded by the notify timeout. In-flight advisor calls are
// left to finish; their results land in a session nobody is watching.
// Close may be called more than once.
func (s *Session) Close() {
	s.mu.Lock()
	t := s.ticker
	s.ticker = nil
	if s.events != nil && !s.closed {
		s.closed = true
		close(s.events)
	}
	s.mu.Unlock()
	t.Stop()
	if s.delivered != nil {
		<-s.delivered
	}
}

// Tick advances every moving train by one simulation step.
func (s *Session) Tick() {
	s.mu.Lock()
	s.state.Trains = sim.Advance(s.state.Trains)
	s.mu.Unlock()
	s.broadcast()
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Subscribe returns a channel that receives a signal after every state
// change. Signals coalesce; readers should take a Snapshot on each one.
// The returned func unsubscribes.
func (s *Session) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()
	return ch, func() {
		s.mu.Lock()
		delete(s.subs, ch)
		s.mu.Unlock()
	}
}

// Acknowledge runs the acknowledgement workflow for alertID and blocks until
// a recommendation (or the fallback) is active. It reports false when the
// alert does not exist, in which case nothing changes.
func (s *Session) Acknowledge(ctx context.Context, alertID string) (bool, error) {
	s.mu.Lock()
	if s.state.LoadingAI {
		s.mu.Unlock()
		return false, ErrBusy
	}
	prev := s.state
	next, alert, ok := BeginAcknowledge(s.state, alertID, s.now())
	if !ok {
		s.mu.Unlock()
		return false, nil
	}
	s.state = next
	trains, tracks := cloneNetwork(next)
	s.mu.Unlock()
	s.afterChange(prev, next)
	s.emit(notify.AlertAcknowledged(alert))

	callCtx, cancel := s.callContext(ctx)
	rec, err := s.advisor.Recommend(callCtx, trains, tracks, alert)
	cancel()
	if err != nil {
		log.Printf("session: recommend for alert %s: %v", alertID, err)
	}

	s.mu.Lock()
	prev = s.state
	next = CompleteAcknowledge(s.state, rec, err, s.now())
	s.state = next
	s.mu.Unlock()
	s.afterChange(prev, next)
	if err != nil {
		s.emit(notify.FallbackUsed(alert, *next.Recommendation))
	}
	return true, nil
}

// Resolve approves (approved=true) or overrides the active recommendation.
// It reports false when there is nothing to resolve.
func (s *Session) Resolve(ctx context.Context, approved bool) bool {
	s.mu.Lock()
	prev := s.state
	next, rec, ok := Resolve(s.state, approved, s.now())
	if !ok {
		s.mu.Unlock()
		return false
	}
	s.state = next
	s.mu.Unlock()
	s.afterChange(prev, next)
	s.emit(notify.RecommendationResolved(rec, approved))
	return true
}

// Dismiss closes the recommendation panel, leaving its alert open.
func (s *Session) Dismiss() {
	s.mu.Lock()
	s.state = Dismiss(s.state)
	s.mu.Unlock()
	s.broadcast()
}

// WhatIf asks the advisor to compare query against the active recommendation.
// Lookup and advisor failures come back as user-facing text, not errors.
func (s *Session) WhatIf(ctx context.Context, query string) (string, error) {
	if query == "" {
		return "", ErrEmptyQuery
	}

	s.mu.Lock()
	if s.state.WhatIf.Loading {
		s.mu.Unlock()
		return "", ErrBusy
	}
	alert, rec, ok := WhatIfContext(s.state)
	if !ok {
		s.state.WhatIf = WhatIfState{Query: query, Response: MsgWhatIfNoAlert}
		s.mu.Unlock()
		s.broadcast()
		return MsgWhatIfNoAlert, nil
	}
	s.state.WhatIf = WhatIfState{Query: query, Loading: true}
	trains, tracks := cloneNetwork(s.state)
	s.mu.Unlock()
	s.broadcast()

	callCtx, cancel := s.callContext(ctx)
	resp, err := s.advisor.WhatIf(callCtx, trains, tracks, alert, rec, query)
	cancel()
	if err != nil {
		log.Printf("session: what-if for alert %s: %v", alert.ID, err)
		resp = MsgWhatIfFailed
	}

	s.mu.Lock()
	// The panel may have been closed while the call was running.
	if s.state.Recommendation != nil && s.state.Recommendation.ID == rec.ID {
		s.state.WhatIf = WhatIfState{Query: query, Response: resp}
	}
	s.mu.Unlock()
	s.broadcast()
	return resp, nil
}

// AnalyzeScenario asks the advisor for mitigation strategies for scenario,
// run against the seed network rather than the live one. On failure the
// result stays cleared and ErrAnalysisFailed is returned.
func (s *Session) AnalyzeScenario(ctx context.Context, scenario string) (models.ScenarioAnalysis, error) {
	if scenario == "" {
		return models.ScenarioAnalysis{}, ErrEmptyScenario
	}

	s.mu.Lock()
	if s.state.Scenario.Loading {
		s.mu.Unlock()
		return models.ScenarioAnalysis{}, ErrBusy
	}
	s.state = BeginScenario(s.state, scenario)
	trains, tracks := cloneNetwork(s.seed)
	s.mu.Unlock()
	s.broadcast()

	callCtx, cancel := s.callContext(ctx)
	analysis, err := s.advisor.AnalyzeScenario(callCtx, trains, tracks, scenario)
	cancel()
	if err != nil {
		log.Printf("session: scenario analysis %q: %v", scenario, err)
	}

	s.mu.Lock()
	s.state = CompleteScenario(s.state, analysis, err)
	s.mu.Unlock()
	s.broadcast()

	if err != nil {
		return models.ScenarioAnalysis{}, ErrAnalysisFailed
	}
	if s.archive != nil {
		if aerr := s.archive.SaveScenarioRun(scenario, analysis); aerr != nil {
			log.Printf("session: archive scenario run: %v", aerr)
		}
	}
	return analysis, nil
}

// callContext detaches the advisor call from the caller's cancellation and
// bounds it by the request timeout.
func (s *Session) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
}

// afterChange records audit entries added between prev and next and wakes
// subscribers. Entries are only ever prepended, so the new ones are the
// leading len(next)-len(prev) items.
func (s *Session) afterChange(prev, next State) {
	if s.sink != nil {
		added := len(next.AuditLog) - len(prev.AuditLog)
		for i := added - 1; i >= 0; i-- {
			if err := s.sink.Record(next.AuditLog[i]); err != nil {
				log.Printf("session: archive audit entry %s: %v", next.AuditLog[i].ID, err)
			}
		}
	}
	s.broadcast()
}

// emit queues ev for the notifier, if any. It never blocks: when the queue
// is full the event is dropped and logged.
func (s *Session) emit(ev notify.Event) {
	if s.events == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.events <- ev:
	default:
		log.Printf("session: notify queue full, dropping %q", ev.Title)
	}
}

// deliver drains the event queue until Close. Best-effort.
func (s *Session) deliver() {
	defer close(s.delivered)
	for ev := range s.events {
		ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
		if err := s.notif.Notify(ctx, ev); err != nil {
			log.Printf("session: notify %q: %v", ev.Title, err)
		}
		cancel()
	}
}

func (s *Session) broadcast() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func cloneNetwork(st State) ([]models.Train, []models.Track) {
	return append([]models.Train(nil), st.Trains...), append([]models.Track(nil), st.Tracks...)
}

// Summary reports counts for a shift digest covering entries logged after since.
func (s *Session) Summary(since time.Time) notify.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := notify.Summary{Since: since, OpenAlerts: len(s.state.Alerts)}
	for _, t := range s.state.Trains {
		if t.Moving() {
			sum.Moving++
		} else {
			sum.Stopped++
		}
	}
	// Seeded entries may be in any order, so every entry is checked.
	cutoff := since.UnixMilli()
	for _, e := range s.state.AuditLog {
		if e.Timestamp <= cutoff {
			continue
		}
		sum.AuditEntries++
		switch {
		case strings.HasPrefix(e.Message, "Approved AI recommendation"):
			sum.Approved++
		case e.Message == MsgOverrode:
			sum.Overridden++
		case e.Message == MsgFallback:
			sum.Fallbacks++
		}
	}
	return sum
}
