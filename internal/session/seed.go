package session

import (
	"time"

	"github.com/zulandar/signalbox/internal/models"
)

// FallbackID is the id of the recommendation used when the advisor fails.
const FallbackID = "R001"

// Fallback returns the fixed recommendation substituted when the advisor
// cannot produce one.
func Fallback() models.AIRecommendation {
	return models.AIRecommendation{
		ID:        FallbackID,
		Action:    "Reroute T002 to Track 3 at junction X15 and reduce speed to 60 km/h.",
		Reasoning: "Rerouting T002, a lower priority cargo train, avoids conflict with high-priority Express T001, maintaining its schedule. This solution minimizes overall network delay and has a negligible impact on energy consumption. The alternative of stopping T001 would cause significant passenger disruption.",
		PolicyScores: []models.PolicyScore{
			{Name: models.PolicyPunctuality, Score: 92, Change: -2},
			{Name: models.PolicyNetworkThroughput, Score: 88, Change: 5},
			{Name: models.PolicyEnergyEfficiency, Score: 75, Change: -1},
			{Name: models.PolicyPassengerComfort, Score: 95, Change: 0},
		},
		RelatedAlertID: "A001",
	}
}

// Scenarios are the canned disruption scenarios offered for analysis.
var Scenarios = []string{
	"Signal Failure at JX-07",
	"Track Maintenance on Track 2",
	"Medical Emergency on T003",
	"Unexpected Rolling Stock Fault on T005",
}

// DefaultTracks is the built-in track layout.
func DefaultTracks() []models.Track {
	return []models.Track{
		{ID: 1, Length: 100},
		{ID: 2, Length: 100},
		{ID: 3, Length: 80},
	}
}

// DefaultTrains is the built-in fleet.
func DefaultTrains() []models.Train {
	return []models.Train{
		{ID: "T001", Name: "Express 745", Speed: 120, Position: 20, TrackID: 1, Status: models.StatusOnTime, Destination: "Central Station", Priority: models.PriorityHigh},
		{ID: "T002", Name: "Cargo 921", Speed: 80, Position: 65, TrackID: 1, Status: models.StatusOnTime, Destination: "North Yard", Priority: models.PriorityMedium},
		{ID: "T003", Name: "Local 303", Speed: 90, Position: 40, TrackID: 2, Status: models.StatusOnTime, Destination: "West Suburb", Priority: models.PriorityLow},
		{ID: "T004", Name: "Metro 112", Speed: 110, Position: 80, TrackID: 2, Status: models.StatusDelayed, Destination: "East Hub", Priority: models.PriorityHigh},
		{ID: "T005", Name: "Freight 550", Speed: 70, Position: 15, TrackID: 3, Status: models.StatusStopped, Destination: "South Port", Priority: models.PriorityMedium},
	}
}

// DefaultAlerts is the built-in alert set, stamped with now.
func DefaultAlerts(now time.Time) []models.Alert {
	return []models.Alert{{
		ID:            "A001",
		Title:         "Potential Conflict",
		Description:   "Train T001 and T002 are on a converging path on Track 1. Estimated time to conflict: 15 minutes.",
		Severity:      models.SeverityCritical,
		Timestamp:     now.UnixMilli(),
		RelatedTrains: []string{"T001", "T002"},
	}}
}

// DefaultWeather is the built-in set of weather incidents.
func DefaultWeather() []models.WeatherIncident {
	return []models.WeatherIncident{
		{
			ID:          "W001",
			Type:        "High Winds",
			Severity:    "Severe",
			Location:    "Section A (Tracks 1 & 2)",
			Description: "Gusts up to 80 km/h. Speed restrictions advised for high-sided wagons.",
		},
		{
			ID:          "W002",
			Type:        "Heavy Rain",
			Severity:    "Moderate",
			Location:    "South Corridor (Track 3)",
			Description: "Reduced visibility and potential for track slippage. Caution advised.",
		},
	}
}

// DefaultAuditLog is the audit trail a fresh session starts with, newest first.
func DefaultAuditLog(now time.Time) []models.AuditLogEntry {
	return []models.AuditLogEntry{
		{ID: "L003", Timestamp: now.Add(-1 * time.Second).UnixMilli(), Message: "Potential conflict detected for T001 & T002.", Author: models.AuthorSystem},
		{ID: "L002", Timestamp: now.Add(-3 * time.Second).UnixMilli(), Message: "Train T004 status changed to Delayed.", Author: models.AuthorSystem},
		{ID: "L001", Timestamp: now.Add(-5 * time.Second).UnixMilli(), Message: "System initialized. Monitoring 5 active trains.", Author: models.AuthorSystem},
	}
}

// DefaultState assembles the built-in seed.
func DefaultState(now time.Time) State {
	return State{
		Trains:   DefaultTrains(),
		Tracks:   DefaultTracks(),
		Alerts:   DefaultAlerts(now),
		Weather:  DefaultWeather(),
		AuditLog: DefaultAuditLog(now),
	}
}
