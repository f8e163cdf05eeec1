package anomaly

import "factorypulse-gateway/internal/data"

// SeverityBand is the three-tier classification of a reading.
type SeverityBand int

const (
	BandSafe SeverityBand = iota
	BandWarning
	BandCritical
)

func (b SeverityBand) String() string {
	switch b {
	case BandWarning:
		return "warning"
	case BandCritical:
		return "critical"
	}
	return "safe"
}

// Label is the display name of the band for kind. Energy reads Normal,
// Elevated and High instead of Safe, Warning and Critical.
func (b SeverityBand) Label(kind data.MetricKind) string {
	if kind == data.Energy {
		switch b {
		case BandWarning:
			return "Elevated"
		case BandCritical:
			return "High"
		}
		return "Normal"
	}
	switch b {
	case BandWarning:
		return "Warning"
	case BandCritical:
		return "Critical"
	}
	return "Safe"
}
