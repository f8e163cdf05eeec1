// internal/data/models.go
package data

import "time"

// MetricKind identifies one monitored factory metric.
type MetricKind string

const (
	Temperature MetricKind = "temperature"
	Vibration   MetricKind = "vibration"
	Energy      MetricKind = "energy"
)

// Kinds is the fixed evaluation order used on every tick.
var Kinds = []MetricKind{Temperature, Vibration, Energy}

// Unit returns the display unit for the metric.
func (k MetricKind) Unit() string {
	switch k {
	case Temperature:
		return "°C"
	case Vibration:
		return "mm/s"
	case Energy:
		return "W"
	}
	return ""
}

// Reading - one immutable sample of a metric
type Reading struct {
	Kind       MetricKind `json:"metricKind"`
	Value      float64    `json:"value"`
	CapturedAt time.Time  `json:"capturedAt"`
}

// Alert - raised on a rising edge into the critical band, removed only by dismissal
type Alert struct {
	ID       string     `json:"id"`
	Kind     MetricKind `json:"metricKind"`
	Message  string     `json:"message"`
	RaisedAt time.Time  `json:"raisedAt"`
}

// BandedReading pairs a reading with its display band for the live panel.
type BandedReading struct {
	Reading
	Band string `json:"band"`
	Unit string `json:"unit"`
}

// MaintenanceLog - one row of the maintenance journal
type MaintenanceLog struct {
	ID         string `json:"id"`
	Date       string `json:"date"` // YYYY-MM-DD
	Issue      string `json:"issue"`
	Resolution string `json:"resolution"`
}
