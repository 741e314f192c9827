package models

import "time"

// PolicyName is one of the fixed policy metrics a recommendation is scored on.
type PolicyName string

// PolicyName constants.
const (
	PolicyPunctuality       PolicyName = "Punctuality"
	PolicyEnergyEfficiency  PolicyName = "Energy Efficiency"
	PolicyPassengerComfort  PolicyName = "Passenger Comfort"
	PolicyNetworkThroughput PolicyName = "Network Throughput"
)

// PolicyNames lists every valid policy name in display order.
var PolicyNames = []PolicyName{
	PolicyPunctuality,
	PolicyEnergyEfficiency,
	PolicyPassengerComfort,
	PolicyNetworkThroughput,
}

// Valid reports whether n is one of the fixed policy names.
func (n PolicyName) Valid() bool {
	for _, p := range PolicyNames {
		if n == p {
			return true
		}
	}
	return false
}

// PolicyScore is the projected value of a policy metric after an action,
// together with its change from the current value.
type PolicyScore struct {
	Name   PolicyName `json:"name"`
	Score  float64    `json:"score"`
	Change float64    `json:"change"`
}

// AIRecommendation is a proposed resolution to a single alert.
type AIRecommendation struct {
	ID             string        `json:"id"`
	Action         string        `json:"action"`
	Reasoning      string        `json:"reasoning"`
	PolicyScores   []PolicyScore `json:"policyScores"`
	RelatedAlertID string        `json:"relatedAlertId"`
}

// Strategy is one mitigation option returned by scenario analysis.
type Strategy struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Pros        []string `json:"pros"`
	Cons        []string `json:"cons"`
}

// ScenarioAnalysis is the set of strategies for a disruption scenario.
type ScenarioAnalysis struct {
	Strategies []Strategy `json:"strategies"`
}

// ScenarioRun archives one successful scenario analysis.
type ScenarioRun struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	Scenario   string `gorm:"size:256;index"`
	Strategies string `gorm:"type:json"`
	CreatedAt  time.Time
}
