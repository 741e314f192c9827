// Package audit archives audit entries and scenario runs to a database and
// exports the trail as CSV.
package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/zulandar/signalbox/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Archive stores audit entries and scenario runs via GORM.
type Archive struct {
	db *gorm.DB
}

// NewArchive wraps an already-migrated database handle.
func NewArchive(db *gorm.DB) *Archive {
	return &Archive{db: db}
}

// Record stores entry. Re-recording an entry id is a no-op.
func (a *Archive) Record(entry models.AuditLogEntry) error {
	rec := models.AuditRecord{
		EntryID:  entry.ID,
		Author:   string(entry.Author),
		Message:  entry.Message,
		LoggedAt: time.UnixMilli(entry.Timestamp).UTC(),
	}
	result := a.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_id"}},
		DoNothing: true,
	}).Create(&rec)
	if result.Error != nil {
		return fmt.Errorf("audit: record %s: %w", entry.ID, result.Error)
	}
	return nil
}

// List returns up to limit archived entries, newest first. A limit of zero
// or less returns everything.
func (a *Archive) List(limit int) ([]models.AuditLogEntry, error) {
	var rows []models.AuditRecord
	q := a.db.Order("logged_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("audit: list: %w", err)
	}
	out := make([]models.AuditLogEntry, len(rows))
	for i, r := range rows {
		out[i] = r.Entry()
	}
	return out, nil
}

// SaveScenarioRun archives a successful scenario analysis.
func (a *Archive) SaveScenarioRun(scenario string, analysis models.ScenarioAnalysis) error {
	data, err := json.Marshal(analysis.Strategies)
	if err != nil {
		return fmt.Errorf("audit: marshal strategies: %w", err)
	}
	run := models.ScenarioRun{Scenario: scenario, Strategies: string(data)}
	if err := a.db.Create(&run).Error; err != nil {
		return fmt.Errorf("audit: save scenario run: %w", err)
	}
	return nil
}

// ScenarioRuns returns up to limit archived runs, newest first.
func (a *Archive) ScenarioRuns(limit int) ([]models.ScenarioRun, error) {
	var runs []models.ScenarioRun
	q := a.db.Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("audit: list scenario runs: %w", err)
	}
	return runs, nil
}

// DecodeRun unpacks the strategies stored with run.
func DecodeRun(run models.ScenarioRun) (models.ScenarioAnalysis, error) {
	var out models.ScenarioAnalysis
	if err := json.Unmarshal([]byte(run.Strategies), &out.Strategies); err != nil {
		return models.ScenarioAnalysis{}, fmt.Errorf("audit: decode scenario run %d: %w", run.ID, err)
	}
	return out, nil
}
