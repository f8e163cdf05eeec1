package simulator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"factorypulse-gateway/internal/config"
	"factorypulse-gateway/internal/data"
)

func TestUniformStaysInRange(t *testing.T) {
	cfg := config.Default()
	cfg.Simulation.Seed = 42
	src := NewUniform(cfg)

	for _, kind := range data.Kinds {
		r := cfg.RangeFor(kind)
		for i := 0; i < 2000; i++ {
			reading := src.NextReading(kind)
			assert.Equal(t, kind, reading.Kind)
			assert.GreaterOrEqual(t, reading.Value, r.Min, "%s below range", kind)
			assert.LessOrEqual(t, reading.Value, r.Max, "%s above range", kind)
			assert.False(t, reading.CapturedAt.IsZero())
		}
	}
}

func TestUniformRoundsLikeDashboard(t *testing.T) {
	cfg := config.Default()
	cfg.Simulation.Seed = 7
	src := NewUniform(cfg)

	for i := 0; i < 200; i++ {
		energy := src.NextReading(data.Energy).Value
		assert.Equal(t, math.Trunc(energy), energy)

		temp := src.NextReading(data.Temperature).Value
		assert.InDelta(t, math.Round(temp*10)/10, temp, 1e-9)
	}
}

func TestUniformSeedIsDeterministic(t *testing.T) {
	cfg := config.Default()
	cfg.Simulation.Seed = 99

	a, b := NewUniform(cfg), NewUniform(cfg)
	for i := 0; i < 20; i++ {
		assert.Equal(t, a.NextReading(data.Vibration).Value, b.NextReading(data.Vibration).Value)
	}
}

func TestUniformSpreadsAcrossRange(t *testing.T) {
	cfg := config.Default()
	cfg.Simulation.Seed = 3
	src := NewUniform(cfg)

	var low, high int
	for i := 0; i < 1000; i++ {
		v := src.NextReading(data.Temperature).Value
		if v < 75 {
			low++
		} else {
			high++
		}
	}
	assert.Greater(t, low, 300)
	assert.Greater(t, high, 300)
}
