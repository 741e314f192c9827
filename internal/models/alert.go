package models

// Severity grades an alert.
type Severity string

// Severity constants.
const (
	SeverityCritical Severity = "Critical"
	SeverityWarning  Severity = "Warning"
	SeverityInfo     Severity = "Info"
)

// Valid reports whether s is one of the known severities.
func (s Severity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityWarning, SeverityInfo:
		return true
	}
	return false
}

// Alert is an operational condition that needs controller attention.
// Timestamp is Unix milliseconds.
type Alert struct {
	ID            string   `json:"id" yaml:"id"`
	Title         string   `json:"title" yaml:"title"`
	Description   string   `json:"description" yaml:"description"`
	Severity      Severity `json:"severity" yaml:"severity"`
	Timestamp     int64    `json:"timestamp" yaml:"timestamp"`
	RelatedTrains []string `json:"relatedTrains" yaml:"related_trains"`
}

// WeatherIncident is a static weather advisory shown next to the alerts.
type WeatherIncident struct {
	ID          string `json:"id" yaml:"id"`
	Type        string `json:"type" yaml:"type"`         // High Winds, Heavy Rain, Extreme Heat, Snow
	Severity    string `json:"severity" yaml:"severity"` // Moderate, Severe, Extreme
	Location    string `json:"location" yaml:"location"`
	Description string `json:"description" yaml:"description"`
}

// Weather incident types and severities.
var (
	WeatherTypes      = []string{"High Winds", "Heavy Rain", "Extreme Heat", "Snow"}
	WeatherSeverities = []string{"Moderate", "Severe", "Extreme"}
)
