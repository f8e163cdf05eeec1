// internal/anomaly/detector.go
package anomaly

import (
	"factorypulse-gateway/internal/config"
	"factorypulse-gateway/internal/data"
	"factorypulse-gateway/internal/logger"
)

// Detector classifies readings and remembers the previous reading of each
// metric to find rising edges into the critical band.
//
// Detector is not safe for concurrent use; the engine serializes access.
type Detector struct {
	thresholds map[data.MetricKind]config.Threshold
	previous   map[data.MetricKind]data.Reading
}

func NewDetector(cfg *config.Config) *Detector {
	thresholds := make(map[data.MetricKind]config.Threshold, len(data.Kinds))
	for _, kind := range data.Kinds {
		thresholds[kind] = cfg.ThresholdFor(kind)
	}
	return &Detector{
		thresholds: thresholds,
		previous:   make(map[data.MetricKind]data.Reading, len(data.Kinds)),
	}
}

// Classify maps value onto a band. Thresholds are inclusive of the higher band.
func (d *Detector) Classify(kind data.MetricKind, value float64) SeverityBand {
	th, ok := d.thresholds[kind]
	if !ok {
		return BandSafe
	}
	switch {
	case value >= th.Critical:
		return BandCritical
	case value >= th.Warning:
		return BandWarning
	}
	return BandSafe
}

// DetectEdge reports a transition into the critical band. A missing previous
// reading counts as non-critical.
func (d *Detector) DetectEdge(kind data.MetricKind, previous *data.Reading, current data.Reading) bool {
	if d.Classify(kind, current.Value) != BandCritical {
		return false
	}
	return previous == nil || d.Classify(kind, previous.Value) != BandCritical
}

// Observe checks current against the remembered reading of its kind and then
// replaces the memory with current.
func (d *Detector) Observe(current data.Reading) bool {
	var previous *data.Reading
	if p, ok := d.previous[current.Kind]; ok {
		previous = &p
	}
	edge := d.DetectEdge(current.Kind, previous, current)
	d.previous[current.Kind] = current

	if edge {
		log := logger.WithComponent("detector")
		log.Debug().
			Str("metric", string(current.Kind)).
			Float64("value", current.Value).
			Float64("critical", d.thresholds[current.Kind].Critical).
			Msg("rising edge into critical band")
	}
	return edge
}

// Reset forgets every previous reading.
func (d *Detector) Reset() {
	clear(d.previous)
}
