package session

import (
	"context"

	"github.com/zulandar/signalbox/internal/models"
	"github.com/zulandar/signalbox/internal/notify"
)

// Advisor is the external recommendation service. Every call is a single
// request/response; the session never retries.
type Advisor interface {
	// Recommend proposes a resolution for alert given the current network.
	Recommend(ctx context.Context, trains []models.Train, tracks []models.Track, alert models.Alert) (models.AIRecommendation, error)

	// AnalyzeScenario proposes mitigation strategies for a hypothetical disruption.
	AnalyzeScenario(ctx context.Context, trains []models.Train, tracks []models.Track, scenario string) (models.ScenarioAnalysis, error)

	// WhatIf compares a controller's alternative against an existing recommendation.
	WhatIf(ctx context.Context, trains []models.Train, tracks []models.Track, alert models.Alert, rec models.AIRecommendation, query string) (string, error)
}

// AuditSink receives every audit entry the session appends.
type AuditSink interface {
	Record(entry models.AuditLogEntry) error
}

// ScenarioArchive stores successful scenario analyses.
type ScenarioArchive interface {
	SaveScenarioRun(scenario string, analysis models.ScenarioAnalysis) error
}

// Notifier delivers operational events to chat or a message bus.
type Notifier interface {
	Notify(ctx context.Context, ev notify.Event) error
}
