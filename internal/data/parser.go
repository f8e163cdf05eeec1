// internal/data/parser.go
package data

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ParseKind maps a user or config supplied name onto a MetricKind.
func ParseKind(s string) (MetricKind, error) {
	switch MetricKind(strings.ToLower(strings.TrimSpace(s))) {
	case Temperature:
		return Temperature, nil
	case Vibration:
		return Vibration, nil
	case Energy:
		return Energy, nil
	}
	return "", fmt.Errorf("unknown metric kind %q", s)
}

// ParseMaintenanceLog decodes a journal row from a request body. Missing dates
// default to today.
func ParseMaintenanceLog(raw []byte, now time.Time) (*MaintenanceLog, error) {
	var entry MaintenanceLog
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("decode maintenance log: %w", err)
	}

	entry.Issue = strings.TrimSpace(entry.Issue)
	entry.Resolution = strings.TrimSpace(entry.Resolution)

	if entry.Date == "" {
		entry.Date = now.Format(time.DateOnly)
	} else if _, err := time.Parse(time.DateOnly, entry.Date); err != nil {
		return nil, fmt.Errorf("date %q: expected YYYY-MM-DD", entry.Date)
	}
	return &entry, nil
}
