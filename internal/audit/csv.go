package audit

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/jszwec/csvutil"
	"github.com/zulandar/signalbox/internal/models"
)

type csvRow struct {
	ID        string `csv:"id"`
	Timestamp int64  `csv:"timestamp"`
	Time      string `csv:"time"`
	Author    string `csv:"author"`
	Message   string `csv:"message"`
}

// ExportCSV writes entries to w with a header row, in the order given.
func ExportCSV(w io.Writer, entries []models.AuditLogEntry) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	if len(entries) == 0 {
		if err := enc.EncodeHeader(csvRow{}); err != nil {
			return fmt.Errorf("audit: encode csv header: %w", err)
		}
	}
	for _, e := range entries {
		row := csvRow{
			ID:        e.ID,
			Timestamp: e.Timestamp,
			Time:      time.UnixMilli(e.Timestamp).UTC().Format(time.RFC3339),
			Author:    string(e.Author),
			Message:   e.Message,
		}
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("audit: encode csv row %s: %w", e.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("audit: write csv: %w", err)
	}
	return nil
}

// ReadCSV parses a trail previously written by ExportCSV.
func ReadCSV(r io.Reader) ([]models.AuditLogEntry, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("audit: read csv header: %w", err)
	}
	var rows []csvRow
	if err := dec.Decode(&rows); err != nil && err != io.EOF {
		return nil, fmt.Errorf("audit: decode csv: %w", err)
	}
	out := make([]models.AuditLogEntry, len(rows))
	for i, row := range rows {
		out[i] = models.AuditLogEntry{
			ID:        row.ID,
			Timestamp: row.Timestamp,
			Message:   row.Message,
			Author:    models.Author(row.Author),
		}
	}
	return out, nil
}
