// internal/simulator/source.go
package simulator

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"factorypulse-gateway/internal/config"
	"factorypulse-gateway/internal/data"
)

// Source produces one reading per metric kind per call.
type Source interface {
	NextReading(kind data.MetricKind) data.Reading
}

// Uniform draws independent, uniformly distributed values inside the
// configured range of each metric.
type Uniform struct {
	mu     sync.Mutex
	rng    *rand.Rand
	ranges map[data.MetricKind]config.Range
	now    func() time.Time
}

// decimals per metric, as shown on the dashboard
var precision = map[data.MetricKind]int{
	data.Temperature: 1,
	data.Vibration:   1,
	data.Energy:      0,
}

func NewUniform(cfg *config.Config) *Uniform {
	seed := cfg.Simulation.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	ranges := make(map[data.MetricKind]config.Range, len(data.Kinds))
	for _, kind := range data.Kinds {
		ranges[kind] = cfg.RangeFor(kind)
	}
	return &Uniform{
		rng:    rand.New(rand.NewSource(seed)),
		ranges: ranges,
		now:    time.Now,
	}
}

func (u *Uniform) NextReading(kind data.MetricKind) data.Reading {
	r := u.ranges[kind]

	u.mu.Lock()
	x := u.rng.Float64()
	u.mu.Unlock()

	value := round(r.Min+x*(r.Max-r.Min), precision[kind])
	value = math.Max(r.Min, math.Min(r.Max, value))

	return data.Reading{
		Kind:       kind,
		Value:      value,
		CapturedAt: u.now(),
	}
}

func round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
