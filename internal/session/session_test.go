package session

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/zulandar/signalbox/internal/models"
	"github.com/zulandar/signalbox/internal/notify"
)

// mockAdvisor records calls and returns canned results.
type mockAdvisor struct {
	mu sync.Mutex

	rec    models.AIRecommendation
	recErr error
	block  chan struct{} // if set, Recommend waits for it to close

	analysis    models.ScenarioAnalysis
	analysisErr error

	whatIf    string
	whatIfErr error

	recommendCalls int
	scenarioCalls  int
	whatIfCalls    int
	scenarioTrains []models.Train
	lastQuery      string
}

func (m *mockAdvisor) Recommend(ctx context.Context, trains []models.Train, tracks []models.Track, alert models.Alert) (models.AIRecommendation, error) {
	m.mu.Lock()
	m.recommendCalls++
	block := m.block
	m.mu.Unlock()
	if block != nil {
		<-block
	}
	if m.recErr != nil {
		return models.AIRecommendation{}, m.recErr
	}
	rec := m.rec
	rec.RelatedAlertID = alert.ID
	return rec, nil
}

func (m *mockAdvisor) AnalyzeScenario(ctx context.Context, trains []models.Train, tracks []models.Track, scenario string) (models.ScenarioAnalysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scenarioCalls++
	m.scenarioTrains = trains
	return m.analysis, m.analysisErr
}

func (m *mockAdvisor) WhatIf(ctx context.Context, trains []models.Train, tracks []models.Track, alert models.Alert, rec models.AIRecommendation, query string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.whatIfCalls++
	m.lastQuery = query
	return m.whatIf, m.whatIfErr
}

type memSink struct {
	mu      sync.Mutex
	entries []models.AuditLogEntry
}

func (s *memSink) Record(e models.AuditLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return nil
}

type memArchive struct {
	runs []string
}

func (a *memArchive) SaveScenarioRun(scenario string, _ models.ScenarioAnalysis) error {
	a.runs = append(a.runs, scenario)
	return nil
}

type memNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (n *memNotifier) Notify(ctx context.Context, ev notify.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return nil
}

func newTestSession(t *testing.T, adv *mockAdvisor) (*Session, *memSink, *memNotifier) {
	t.Helper()
	sink := &memSink{}
	notif := &memNotifier{}
	s, err := New(Options{
		Seed:     DefaultState(testNow),
		Advisor:  adv,
		Sink:     sink,
		Notifier: notif,
		Now:      func() time.Time { return testNow },
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(s.Close)
	return s, sink, notif
}

// sent returns the delivered events once the session has been closed.
func (n *memNotifier) sent() []notify.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Event(nil), n.events...)
}

// blockingNotifier holds every delivery until its context ends or release
// is closed.
type blockingNotifier struct {
	release chan struct{}
	mu      sync.Mutex
	calls   int
	ctxErrs []error
}

func (n *blockingNotifier) Notify(ctx context.Context, ev notify.Event) error {
	n.mu.Lock()
	n.calls++
	n.mu.Unlock()
	select {
	case <-n.release:
		return nil
	case <-ctx.Done():
		n.mu.Lock()
		n.ctxErrs = append(n.ctxErrs, ctx.Err())
		n.mu.Unlock()
		return ctx.Err()
	}
}

func TestNew_RequiresAdvisor(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatal("expected error for nil advisor")
	}
}

func TestAcknowledge_UnknownAlert(t *testing.T) {
	adv := &mockAdvisor{}
	s, sink, _ := newTestSession(t, adv)
	before := s.Snapshot()

	ok, err := s.Acknowledge(context.Background(), "A404")
	if err != nil || ok {
		t.Fatalf("Acknowledge = %v, %v; want false, nil", ok, err)
	}
	after := s.Snapshot()
	if len(after.AuditLog) != len(before.AuditLog) || after.LoadingAI {
		t.Error("unknown alert changed audit log or loading flag")
	}
	if adv.recommendCalls != 0 || len(sink.entries) != 0 {
		t.Error("unknown alert reached the advisor or the sink")
	}
}

func TestAcknowledge_Success(t *testing.T) {
	adv := &mockAdvisor{rec: models.AIRecommendation{ID: "R-abc", Action: "Hold T001 at signal S4."}}
	s, sink, notif := newTestSession(t, adv)

	ok, err := s.Acknowledge(context.Background(), "A001")
	if err != nil || !ok {
		t.Fatalf("Acknowledge = %v, %v", ok, err)
	}

	st := s.Snapshot()
	if st.LoadingAI {
		t.Error("LoadingAI still set")
	}
	if st.Recommendation == nil || st.Recommendation.ID != "R-abc" || st.Recommendation.RelatedAlertID != "A001" {
		t.Fatalf("Recommendation = %+v", st.Recommendation)
	}
	if len(sink.entries) != 2 {
		t.Fatalf("sink entries = %d, want 2", len(sink.entries))
	}
	if sink.entries[0].Author != models.AuthorController || sink.entries[1].Author != models.AuthorAI {
		t.Errorf("sink authors = %q, %q", sink.entries[0].Author, sink.entries[1].Author)
	}
	s.Close()
	if events := notif.sent(); len(events) != 1 || events[0].Title != "Alert A001 acknowledged" {
		t.Errorf("events = %+v", events)
	}
}

func TestAcknowledge_FailureUsesFallback(t *testing.T) {
	adv := &mockAdvisor{recErr: errors.New("503 service unavailable")}
	s, sink, notif := newTestSession(t, adv)

	if ok, err := s.Acknowledge(context.Background(), "A001"); !ok || err != nil {
		t.Fatalf("Acknowledge = %v, %v", ok, err)
	}

	st := s.Snapshot()
	if st.Recommendation == nil || !reflect.DeepEqual(*st.Recommendation, Fallback()) {
		t.Fatalf("Recommendation = %+v, want fallback", st.Recommendation)
	}
	if st.AuditLog[0].Author != models.AuthorSystem || st.AuditLog[0].Message != MsgFallback {
		t.Errorf("audit head = %+v", st.AuditLog[0])
	}
	if st.AuditLog[1].Author != models.AuthorController {
		t.Errorf("audit[1] = %+v", st.AuditLog[1])
	}
	if len(sink.entries) != 2 {
		t.Errorf("sink entries = %d, want 2", len(sink.entries))
	}
	s.Close()
	events := notif.sent()
	if len(events) != 2 {
		t.Fatalf("events = %d, want acknowledgement + fallback", len(events))
	}
	if events[0].Title != "Alert A001 acknowledged" {
		t.Errorf("events delivered out of order: %+v", events)
	}
}

func TestAcknowledge_LoadingWhileInFlight(t *testing.T) {
	adv := &mockAdvisor{block: make(chan struct{}), rec: models.AIRecommendation{ID: "R-1", Action: "x"}}
	s, _, _ := newTestSession(t, adv)

	done := make(chan error, 1)
	go func() {
		_, err := s.Acknowledge(context.Background(), "A001")
		done <- err
	}()

	deadline := time.Now().Add(2 * time.Second)
	for !s.Snapshot().LoadingAI {
		if time.Now().After(deadline) {
			t.Fatal("LoadingAI never set")
		}
		time.Sleep(time.Millisecond)
	}

	if _, err := s.Acknowledge(context.Background(), "A001"); !errors.Is(err, ErrBusy) {
		t.Errorf("second Acknowledge err = %v, want ErrBusy", err)
	}

	// The ticker keeps moving trains while the call is outstanding.
	before := s.Snapshot().Trains[0].Position
	s.Tick()
	if s.Snapshot().Trains[0].Position == before {
		t.Error("Tick blocked by in-flight request")
	}

	close(adv.block)
	if err := <-done; err != nil {
		t.Fatalf("Acknowledge: %v", err)
	}
	if s.Snapshot().LoadingAI {
		t.Error("LoadingAI still set after completion")
	}
}

func TestResolve_ApproveRemovesAlert(t *testing.T) {
	adv := &mockAdvisor{recErr: errors.New("down")}
	s, _, notif := newTestSession(t, adv)
	s.Acknowledge(context.Background(), "A001")

	if !s.Resolve(context.Background(), true) {
		t.Fatal("Resolve = false")
	}
	st := s.Snapshot()
	want := "Approved AI recommendation: \"Reroute T002 to Track 3 at junction X15 and reduce speed to 60 km/h.\""
	if st.AuditLog[0].Message != want {
		t.Errorf("audit head = %q", st.AuditLog[0].Message)
	}
	if len(st.Alerts) != 0 {
		t.Errorf("alerts = %+v, want none", st.Alerts)
	}
	if st.Recommendation != nil {
		t.Error("recommendation not cleared")
	}
	if s.Resolve(context.Background(), false) {
		t.Error("second Resolve should be a no-op")
	}

	s.Close()
	events := notif.sent()
	if last := events[len(events)-1]; last.Severity != "success" {
		t.Errorf("last event = %+v", last)
	}
}

func TestSlowNotifier_DoesNotBlockWorkflows(t *testing.T) {
	notif := &blockingNotifier{release: make(chan struct{})}
	adv := &mockAdvisor{rec: models.AIRecommendation{ID: "R-1", Action: "Hold T002"}}
	s, err := New(Options{
		Seed:          DefaultState(testNow),
		Advisor:       adv,
		Notifier:      notif,
		NotifyTimeout: time.Minute,
		Now:           func() time.Time { return testNow },
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer func() {
		close(notif.release)
		s.Close()
	}()

	start := time.Now()
	if ok, err := s.Acknowledge(context.Background(), "A001"); !ok || err != nil {
		t.Fatalf("Acknowledge = %v, %v", ok, err)
	}
	if !s.Resolve(context.Background(), true) {
		t.Fatal("Resolve = false")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("workflows took %v with a blocked notifier", elapsed)
	}
	if adv.recommendCalls != 1 {
		t.Errorf("recommendCalls = %d, want 1", adv.recommendCalls)
	}
	if s.Snapshot().LoadingAI {
		t.Error("LoadingAI still set")
	}
}

func TestNotifyTimeout_BoundsDelivery(t *testing.T) {
	notif := &blockingNotifier{release: make(chan struct{})}
	s, err := New(Options{
		Seed:          DefaultState(testNow),
		Advisor:       &mockAdvisor{recErr: errors.New("down")},
		Notifier:      notif,
		NotifyTimeout: 20 * time.Millisecond,
		Now:           func() time.Time { return testNow },
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	s.Acknowledge(context.Background(), "A001")
	start := time.Now()
	s.Close()
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Close took %v, want deliveries cut off by the notify timeout", elapsed)
	}

	notif.mu.Lock()
	defer notif.mu.Unlock()
	if notif.calls != 2 {
		t.Errorf("calls = %d, want acknowledgement + fallback", notif.calls)
	}
	for _, e := range notif.ctxErrs {
		if !errors.Is(e, context.DeadlineExceeded) {
			t.Errorf("ctx err = %v, want deadline exceeded", e)
		}
	}

	// Events after Close are dropped rather than sent on a closed queue.
	s.emit(notify.Event{Title: "late"})
	s.Close()
}

func TestDismiss_KeepsAlert(t *testing.T) {
	s, _, _ := newTestSession(t, &mockAdvisor{recErr: errors.New("down")})
	s.Acknowledge(context.Background(), "A001")

	s.Dismiss()
	st := s.Snapshot()
	if st.Recommendation != nil || len(st.Alerts) != 1 {
		t.Errorf("after Dismiss: rec = %v, alerts = %d", st.Recommendation, len(st.Alerts))
	}
}

func TestWhatIf_NoRecommendation(t *testing.T) {
	adv := &mockAdvisor{}
	s, _, _ := newTestSession(t, adv)

	got, err := s.WhatIf(context.Background(), "What if we delay T001 instead?")
	if err != nil {
		t.Fatalf("WhatIf: %v", err)
	}
	if got != "Error: Could not find the related alert for this context." {
		t.Errorf("WhatIf = %q", got)
	}
	if adv.whatIfCalls != 0 {
		t.Error("advisor called without a related alert")
	}
}

func TestWhatIf_Verbatim(t *testing.T) {
	adv := &mockAdvisor{recErr: errors.New("down"), whatIf: "Delaying T001 costs 6 minutes of punctuality."}
	s, _, _ := newTestSession(t, adv)
	s.Acknowledge(context.Background(), "A001")

	got, err := s.WhatIf(context.Background(), "What if we delay T001 instead?")
	if err != nil {
		t.Fatalf("WhatIf: %v", err)
	}
	if got != adv.whatIf || adv.lastQuery != "What if we delay T001 instead?" {
		t.Errorf("WhatIf = %q (query %q)", got, adv.lastQuery)
	}
	if st := s.Snapshot(); st.WhatIf.Response != adv.whatIf || st.WhatIf.Loading {
		t.Errorf("WhatIf state = %+v", st.WhatIf)
	}
}

func TestWhatIf_Failure(t *testing.T) {
	adv := &mockAdvisor{recErr: errors.New("down"), whatIfErr: errors.New("timeout")}
	s, _, _ := newTestSession(t, adv)
	s.Acknowledge(context.Background(), "A001")

	got, err := s.WhatIf(context.Background(), "q")
	if err != nil {
		t.Fatalf("WhatIf: %v", err)
	}
	if got != "Sorry, I couldn't process that query. Please try again." {
		t.Errorf("WhatIf = %q", got)
	}
}

func TestWhatIf_EmptyQuery(t *testing.T) {
	s, _, _ := newTestSession(t, &mockAdvisor{})
	if _, err := s.WhatIf(context.Background(), ""); !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("err = %v, want ErrEmptyQuery", err)
	}
}

func TestAnalyzeScenario_Failure(t *testing.T) {
	adv := &mockAdvisor{analysisErr: errors.New("bad gateway")}
	s, _, _ := newTestSession(t, adv)

	_, err := s.AnalyzeScenario(context.Background(), Scenarios[0])
	if !errors.Is(err, ErrAnalysisFailed) {
		t.Fatalf("err = %v, want ErrAnalysisFailed", err)
	}
	sc := s.Snapshot().Scenario
	if sc.Analysis != nil || sc.Error != MsgAnalysisFailed || sc.Loading {
		t.Errorf("scenario state = %+v", sc)
	}
}

func TestAnalyzeScenario_UsesSeedAndArchives(t *testing.T) {
	adv := &mockAdvisor{analysis: models.ScenarioAnalysis{Strategies: []models.Strategy{{Title: "Bus bridge"}}}}
	archive := &memArchive{}
	s, err := New(Options{Seed: DefaultState(testNow), Advisor: adv, Archive: archive})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for i := 0; i < 10; i++ {
		s.Tick()
	}

	got, err := s.AnalyzeScenario(context.Background(), "Track Maintenance on Track 2")
	if err != nil {
		t.Fatalf("AnalyzeScenario: %v", err)
	}
	if got.Strategies[0].Title != "Bus bridge" {
		t.Errorf("analysis = %+v", got)
	}
	if !reflect.DeepEqual(adv.scenarioTrains, DefaultTrains()) {
		t.Error("scenario analysis did not use the seed snapshot")
	}
	if len(archive.runs) != 1 || archive.runs[0] != "Track Maintenance on Track 2" {
		t.Errorf("archived runs = %v", archive.runs)
	}
	if sc := s.Snapshot().Scenario; sc.Analysis == nil || sc.Selected != "Track Maintenance on Track 2" {
		t.Errorf("scenario state = %+v", sc)
	}
}

func TestAnalyzeScenario_Empty(t *testing.T) {
	s, _, _ := newTestSession(t, &mockAdvisor{})
	if _, err := s.AnalyzeScenario(context.Background(), ""); !errors.Is(err, ErrEmptyScenario) {
		t.Errorf("err = %v, want ErrEmptyScenario", err)
	}
}

func TestStartClose_MovesTrains(t *testing.T) {
	s, err := New(Options{Seed: DefaultState(testNow), Advisor: &mockAdvisor{}, TickPeriod: 2 * time.Millisecond})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	updates, unsubscribe := s.Subscribe()
	defer unsubscribe()

	s.Start(context.Background())
	select {
	case <-updates:
	case <-time.After(2 * time.Second):
		t.Fatal("no update after Start")
	}
	s.Close()

	st := s.Snapshot()
	if st.Trains[0].Position == 20 {
		t.Error("T001 did not move")
	}
	if st.Trains[4].Position != 15 {
		t.Errorf("stopped T005 moved to %v", st.Trains[4].Position)
	}

	frozen := s.Snapshot().Trains[0].Position
	time.Sleep(20 * time.Millisecond)
	if s.Snapshot().Trains[0].Position != frozen {
		t.Error("trains kept moving after Close")
	}
}

func TestSummary(t *testing.T) {
	s, _, _ := newTestSession(t, &mockAdvisor{recErr: errors.New("down")})
	s.Acknowledge(context.Background(), "A001")
	s.Resolve(context.Background(), true)

	sum := s.Summary(testNow.Add(-time.Millisecond))
	if sum.OpenAlerts != 0 || sum.Moving != 4 || sum.Stopped != 1 {
		t.Errorf("summary counts = %+v", sum)
	}
	if sum.AuditEntries != 3 || sum.Approved != 1 || sum.Fallbacks != 1 {
		t.Errorf("summary audit = %+v", sum)
	}
}

func TestSummary_UnorderedSeedAudit(t *testing.T) {
	since := testNow.Add(-time.Hour)
	seed := DefaultState(testNow)
	seed.AuditLog = []models.AuditLogEntry{
		{ID: "L-old", Timestamp: since.Add(-time.Minute).UnixMilli(), Message: "System initialized.", Author: models.AuthorSystem},
		{ID: "L-new", Timestamp: testNow.UnixMilli(), Message: MsgOverrode, Author: models.AuthorController},
	}
	s, err := New(Options{Seed: seed, Advisor: &mockAdvisor{}, Now: func() time.Time { return testNow }})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	sum := s.Summary(since)
	if sum.AuditEntries != 1 || sum.Overridden != 1 {
		t.Errorf("summary audit = %+v, want the newer entry counted", sum)
	}
}
