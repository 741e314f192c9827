package models

// Track is a stretch of line trains run along. Immutable once the session starts.
type Track struct {
	ID     int     `json:"id" yaml:"id"`
	Length float64 `json:"length" yaml:"length"` // km
}
