// Package session holds the in-memory railway state and the controller
// workflows that act on it: alert acknowledgement, recommendation
// approval/override, what-if queries and scenario analysis.
package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zulandar/signalbox/internal/models"
)

// Audit and panel messages.
const (
	MsgAcknowledged     = "Controller acknowledged alert. Requesting AI recommendation."
	MsgFallback         = "Failed to get AI recommendation. Using fallback."
	MsgOverrode         = "Overrode AI recommendation."
	MsgWhatIfNoAlert    = "Error: Could not find the related alert for this context."
	MsgWhatIfFailed     = "Sorry, I couldn't process that query. Please try again."
	MsgAnalysisFailed   = "Failed to retrieve AI analysis. Please try again later."
	approvedFormat      = "Approved AI recommendation: \"%s\""
	recommendationReady = "AI recommendation generated: \"%s\""
)

// State is the complete dashboard state. Workflow functions take a State and
// return the next one; they never modify slices reachable from their input.
type State struct {
	Trains         []models.Train           `json:"trains"`
	Tracks         []models.Track           `json:"tracks"`
	Alerts         []models.Alert           `json:"alerts"`
	Weather        []models.WeatherIncident `json:"weather"`
	AuditLog       []models.AuditLogEntry   `json:"auditLog"`
	Recommendation *models.AIRecommendation `json:"recommendation"`
	LoadingAI      bool                     `json:"isLoadingAi"`
	WhatIf         WhatIfState              `json:"whatIf"`
	Scenario       ScenarioState            `json:"scenario"`
}

// WhatIfState is the what-if panel attached to the active recommendation.
type WhatIfState struct {
	Query    string `json:"query"`
	Response string `json:"response"`
	Loading  bool   `json:"loading"`
}

// ScenarioState is the scenario-analysis view.
type ScenarioState struct {
	Selected string                   `json:"selected"`
	Loading  bool                     `json:"loading"`
	Analysis *models.ScenarioAnalysis `json:"analysis"`
	Error    string                   `json:"error,omitempty"`
}

// Clone returns a copy of st that shares no slices with it.
func (st State) Clone() State {
	out := st
	out.Trains = append([]models.Train(nil), st.Trains...)
	out.Tracks = append([]models.Track(nil), st.Tracks...)
	out.Alerts = make([]models.Alert, len(st.Alerts))
	for i, a := range st.Alerts {
		a.RelatedTrains = append([]string(nil), a.RelatedTrains...)
		out.Alerts[i] = a
	}
	out.Weather = append([]models.WeatherIncident(nil), st.Weather...)
	out.AuditLog = append([]models.AuditLogEntry(nil), st.AuditLog...)
	if st.Recommendation != nil {
		rec := cloneRecommendation(*st.Recommendation)
		out.Recommendation = &rec
	}
	if st.Scenario.Analysis != nil {
		a := cloneAnalysis(*st.Scenario.Analysis)
		out.Scenario.Analysis = &a
	}
	return out
}

// FindAlert returns the active alert with the given id.
func (st State) FindAlert(id string) (models.Alert, bool) {
	for _, a := range st.Alerts {
		if a.ID == id {
			return a, true
		}
	}
	return models.Alert{}, false
}

// NewEntry builds an audit entry stamped with now.
func NewEntry(message string, author models.Author, now time.Time) models.AuditLogEntry {
	return models.AuditLogEntry{
		ID:        "L-" + uuid.NewString()[:8],
		Timestamp: now.UnixMilli(),
		Message:   message,
		Author:    author,
	}
}

// AddAudit prepends an entry to the audit log.
func AddAudit(st State, message string, author models.Author, now time.Time) State {
	entry := NewEntry(message, author, now)
	entries := make([]models.AuditLogEntry, 0, len(st.AuditLog)+1)
	entries = append(entries, entry)
	st.AuditLog = append(entries, st.AuditLog...)
	return st
}

// BeginAcknowledge records the controller's acknowledgement of alertID and
// marks a recommendation request as outstanding. An unknown alert leaves the
// state untouched and reports ok=false.
func BeginAcknowledge(st State, alertID string, now time.Time) (next State, alert models.Alert, ok bool) {
	alert, ok = st.FindAlert(alertID)
	if !ok {
		return st, models.Alert{}, false
	}
	st = AddAudit(st, MsgAcknowledged, models.AuthorController, now)
	st.LoadingAI = true
	return st, alert, true
}

// CompleteAcknowledge stores the outcome of a recommendation request. On
// failure the fixed fallback recommendation takes its place. The loading flag
// is cleared either way.
func CompleteAcknowledge(st State, rec models.AIRecommendation, err error, now time.Time) State {
	if err != nil {
		st = AddAudit(st, MsgFallback, models.AuthorSystem, now)
		rec = Fallback()
	} else {
		st = AddAudit(st, fmt.Sprintf(recommendationReady, rec.Action), models.AuthorAI, now)
	}
	st.Recommendation = &rec
	st.WhatIf = WhatIfState{}
	st.LoadingAI = false
	return st
}

// Resolve applies the controller's decision on the active recommendation:
// the decision is audited, the referenced alert is removed and the
// recommendation cleared. The approved action has no effect on trains.
// Without an active recommendation it is a no-op reporting ok=false.
func Resolve(st State, approved bool, now time.Time) (next State, resolved models.AIRecommendation, ok bool) {
	if st.Recommendation == nil {
		return st, models.AIRecommendation{}, false
	}
	rec := *st.Recommendation

	msg := MsgOverrode
	if approved {
		msg = fmt.Sprintf(approvedFormat, rec.Action)
	}
	st = AddAudit(st, msg, models.AuthorController, now)

	alerts := make([]models.Alert, 0, len(st.Alerts))
	for _, a := range st.Alerts {
		if a.ID != rec.RelatedAlertID {
			alerts = append(alerts, a)
		}
	}
	st.Alerts = alerts
	st.Recommendation = nil
	st.WhatIf = WhatIfState{}
	return st, rec, true
}

// Dismiss closes the recommendation panel without resolving the alert.
func Dismiss(st State) State {
	st.Recommendation = nil
	st.WhatIf = WhatIfState{}
	return st
}

// WhatIfContext returns the active recommendation and the alert it refers
// to. ok is false when either is missing.
func WhatIfContext(st State) (alert models.Alert, rec models.AIRecommendation, ok bool) {
	if st.Recommendation == nil {
		return models.Alert{}, models.AIRecommendation{}, false
	}
	alert, ok = st.FindAlert(st.Recommendation.RelatedAlertID)
	if !ok {
		return models.Alert{}, models.AIRecommendation{}, false
	}
	return alert, *st.Recommendation, true
}

// BeginScenario selects a scenario and clears any previous result or error.
func BeginScenario(st State, scenario string) State {
	st.Scenario = ScenarioState{Selected: scenario, Loading: true}
	return st
}

// CompleteScenario stores a scenario analysis result, or the error message
// with the result left cleared.
func CompleteScenario(st State, analysis models.ScenarioAnalysis, err error) State {
	st.Scenario.Loading = false
	if err != nil {
		st.Scenario.Analysis = nil
		st.Scenario.Error = MsgAnalysisFailed
		return st
	}
	a := cloneAnalysis(analysis)
	st.Scenario.Analysis = &a
	st.Scenario.Error = ""
	return st
}

func cloneRecommendation(rec models.AIRecommendation) models.AIRecommendation {
	rec.PolicyScores = append([]models.PolicyScore(nil), rec.PolicyScores...)
	return rec
}

func cloneAnalysis(a models.ScenarioAnalysis) models.ScenarioAnalysis {
	out := models.ScenarioAnalysis{Strategies: make([]models.Strategy, len(a.Strategies))}
	for i, s := range a.Strategies {
		s.Pros = append([]string(nil), s.Pros...)
		s.Cons = append([]string(nil), s.Cons...)
		out.Strategies[i] = s
	}
	return out
}
