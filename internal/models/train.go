package models

// TrainStatus is the operational status shown for a train.
type TrainStatus string

// TrainStatus constants.
const (
	StatusOnTime  TrainStatus = "On Time"
	StatusDelayed TrainStatus = "Delayed"
	StatusStopped TrainStatus = "Stopped"
	StatusAtRisk  TrainStatus = "At Risk"
)

// Valid reports whether s is one of the known statuses.
func (s TrainStatus) Valid() bool {
	switch s {
	case StatusOnTime, StatusDelayed, StatusStopped, StatusAtRisk:
		return true
	}
	return false
}

// Priority ranks trains when resolving conflicts.
type Priority string

// Priority constants.
const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Train is a single simulated train. Position is the percentage travelled
// along its track and always stays in [0, 100).
type Train struct {
	ID          string      `json:"id" yaml:"id"`
	Name        string      `json:"name" yaml:"name"`
	Speed       float64     `json:"speed" yaml:"speed"` // km/h
	Position    float64     `json:"position" yaml:"position"`
	TrackID     int         `json:"trackId" yaml:"track_id"`
	Status      TrainStatus `json:"status" yaml:"status"`
	Destination string      `json:"destination" yaml:"destination"`
	Priority    Priority    `json:"priority" yaml:"priority"`
}

// Moving reports whether the simulation advances this train.
func (t Train) Moving() bool {
	return t.Status != StatusStopped
}
