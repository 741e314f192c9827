package session

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/zulandar/signalbox/internal/models"
)

var testNow = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

func seedState() State {
	return DefaultState(testNow)
}

func TestBeginAcknowledge_UnknownAlert(t *testing.T) {
	st := seedState()

	next, _, ok := BeginAcknowledge(st, "A999", testNow)
	if ok {
		t.Fatal("ok = true for unknown alert")
	}
	if len(next.AuditLog) != len(st.AuditLog) {
		t.Errorf("audit entries = %d, want %d", len(next.AuditLog), len(st.AuditLog))
	}
	if next.LoadingAI {
		t.Error("LoadingAI set for unknown alert")
	}
}

func TestBeginAcknowledge_KnownAlert(t *testing.T) {
	st := seedState()

	next, alert, ok := BeginAcknowledge(st, "A001", testNow)
	if !ok {
		t.Fatal("ok = false for A001")
	}
	if alert.ID != "A001" {
		t.Errorf("alert = %q", alert.ID)
	}
	if !next.LoadingAI {
		t.Error("LoadingAI not set")
	}
	if len(next.AuditLog) != len(st.AuditLog)+1 {
		t.Fatalf("audit entries = %d, want %d", len(next.AuditLog), len(st.AuditLog)+1)
	}
	head := next.AuditLog[0]
	if head.Author != models.AuthorController || head.Message != MsgAcknowledged {
		t.Errorf("head = %+v", head)
	}
	if head.Timestamp != testNow.UnixMilli() {
		t.Errorf("timestamp = %d", head.Timestamp)
	}
	// Input untouched.
	if st.LoadingAI || len(st.AuditLog) != 3 {
		t.Error("BeginAcknowledge mutated its input")
	}
}

func TestCompleteAcknowledge_Success(t *testing.T) {
	st, _, _ := BeginAcknowledge(seedState(), "A001", testNow)
	rec := models.AIRecommendation{ID: "R-1", Action: "Hold T001 at signal S4.", RelatedAlertID: "A001"}

	next := CompleteAcknowledge(st, rec, nil, testNow)
	if next.LoadingAI {
		t.Error("LoadingAI still set")
	}
	if next.Recommendation == nil || next.Recommendation.ID != "R-1" {
		t.Fatalf("Recommendation = %+v", next.Recommendation)
	}
	if len(next.AuditLog) != len(st.AuditLog)+1 {
		t.Fatalf("audit entries = %d", len(next.AuditLog))
	}
	head := next.AuditLog[0]
	if head.Author != models.AuthorAI || head.Message != `AI recommendation generated: "Hold T001 at signal S4."` {
		t.Errorf("head = %+v", head)
	}
}

func TestCompleteAcknowledge_FailureUsesFallback(t *testing.T) {
	st, _, _ := BeginAcknowledge(seedState(), "A001", testNow)

	next := CompleteAcknowledge(st, models.AIRecommendation{}, errors.New("quota exceeded"), testNow)
	if next.LoadingAI {
		t.Error("LoadingAI still set")
	}
	if next.Recommendation == nil || !reflect.DeepEqual(*next.Recommendation, Fallback()) {
		t.Fatalf("Recommendation = %+v, want fallback", next.Recommendation)
	}
	head := next.AuditLog[0]
	if head.Author != models.AuthorSystem || head.Message != MsgFallback {
		t.Errorf("head = %+v", head)
	}
}

func TestResolve_NoRecommendation(t *testing.T) {
	st := seedState()

	next, _, ok := Resolve(st, true, testNow)
	if ok {
		t.Fatal("ok = true without recommendation")
	}
	if len(next.AuditLog) != len(st.AuditLog) || len(next.Alerts) != len(st.Alerts) {
		t.Error("Resolve changed state without recommendation")
	}
}

func TestResolve_ApproveFallback(t *testing.T) {
	st := seedState()
	rec := Fallback()
	st.Recommendation = &rec

	next, resolved, ok := Resolve(st, true, testNow)
	if !ok {
		t.Fatal("ok = false")
	}
	if resolved.ID != FallbackID {
		t.Errorf("resolved = %q", resolved.ID)
	}
	want := "Approved AI recommendation: \"Reroute T002 to Track 3 at junction X15 and reduce speed to 60 km/h.\""
	if next.AuditLog[0].Message != want {
		t.Errorf("audit head = %q, want %q", next.AuditLog[0].Message, want)
	}
	if next.AuditLog[0].Author != models.AuthorController {
		t.Errorf("author = %q", next.AuditLog[0].Author)
	}
	if _, found := next.FindAlert("A001"); found {
		t.Error("A001 still active")
	}
	if next.Recommendation != nil {
		t.Error("recommendation not cleared")
	}
}

func TestResolve_OverrideKeepsOtherAlerts(t *testing.T) {
	st := seedState()
	st.Alerts = append(st.Alerts, models.Alert{ID: "A002", Title: "Signal fault"})
	rec := Fallback()
	st.Recommendation = &rec

	next, _, _ := Resolve(st, false, testNow)
	if next.AuditLog[0].Message != MsgOverrode {
		t.Errorf("audit head = %q", next.AuditLog[0].Message)
	}
	if len(next.Alerts) != 1 || next.Alerts[0].ID != "A002" {
		t.Errorf("alerts = %+v, want only A002", next.Alerts)
	}
	if len(st.Alerts) != 2 {
		t.Error("Resolve mutated input alerts")
	}
}

func TestResolve_TrainsUntouched(t *testing.T) {
	st := seedState()
	rec := Fallback()
	st.Recommendation = &rec

	next, _, _ := Resolve(st, true, testNow)
	if !reflect.DeepEqual(next.Trains, st.Trains) {
		t.Error("approving changed train state")
	}
}

func TestDismiss(t *testing.T) {
	st := seedState()
	rec := Fallback()
	st.Recommendation = &rec

	next := Dismiss(st)
	if next.Recommendation != nil {
		t.Error("recommendation not cleared")
	}
	if len(next.Alerts) != 1 || len(next.AuditLog) != len(st.AuditLog) {
		t.Error("Dismiss touched alerts or audit log")
	}
}

func TestWhatIfContext(t *testing.T) {
	st := seedState()
	if _, _, ok := WhatIfContext(st); ok {
		t.Error("ok = true without recommendation")
	}

	rec := Fallback()
	st.Recommendation = &rec
	alert, got, ok := WhatIfContext(st)
	if !ok || alert.ID != "A001" || got.ID != FallbackID {
		t.Errorf("WhatIfContext = %q, %q, %v", alert.ID, got.ID, ok)
	}

	rec.RelatedAlertID = "A404"
	st.Recommendation = &rec
	if _, _, ok := WhatIfContext(st); ok {
		t.Error("ok = true for dangling alert reference")
	}
}

func TestScenarioTransitions(t *testing.T) {
	st := seedState()
	st.Scenario = ScenarioState{Selected: "old", Analysis: &models.ScenarioAnalysis{}, Error: "stale"}

	st = BeginScenario(st, "Signal Failure at JX-07")
	if !st.Scenario.Loading || st.Scenario.Analysis != nil || st.Scenario.Error != "" {
		t.Errorf("BeginScenario did not clear: %+v", st.Scenario)
	}

	failed := CompleteScenario(st, models.ScenarioAnalysis{}, errors.New("boom"))
	if failed.Scenario.Loading || failed.Scenario.Analysis != nil || failed.Scenario.Error != MsgAnalysisFailed {
		t.Errorf("failed scenario = %+v", failed.Scenario)
	}

	ok := CompleteScenario(st, models.ScenarioAnalysis{Strategies: []models.Strategy{{Title: "Single-line working"}}}, nil)
	if ok.Scenario.Analysis == nil || ok.Scenario.Analysis.Strategies[0].Title != "Single-line working" {
		t.Errorf("ok scenario = %+v", ok.Scenario)
	}
}

func TestClone_Independent(t *testing.T) {
	st := seedState()
	rec := Fallback()
	st.Recommendation = &rec

	c := st.Clone()
	c.Trains[0].Position = 99
	c.Alerts[0].RelatedTrains[0] = "X"
	c.Recommendation.PolicyScores[0].Score = 1

	if st.Trains[0].Position == 99 || st.Alerts[0].RelatedTrains[0] == "X" || st.Recommendation.PolicyScores[0].Score == 1 {
		t.Error("Clone shares memory with original")
	}
}

func TestDefaultState(t *testing.T) {
	st := DefaultState(testNow)
	if len(st.Trains) != 5 || len(st.Tracks) != 3 || len(st.Alerts) != 1 || len(st.Weather) != 2 {
		t.Errorf("seed sizes = %d trains, %d tracks, %d alerts, %d weather", len(st.Trains), len(st.Tracks), len(st.Alerts), len(st.Weather))
	}
	for i := 1; i < len(st.AuditLog); i++ {
		if st.AuditLog[i].Timestamp > st.AuditLog[i-1].Timestamp {
			t.Errorf("audit log not newest-first at %d", i)
		}
	}
	if Fallback().RelatedAlertID != st.Alerts[0].ID {
		t.Error("fallback does not reference the seed alert")
	}
}
