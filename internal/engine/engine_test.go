package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"factorypulse-gateway/internal/alerting"
	"factorypulse-gateway/internal/anomaly"
	"factorypulse-gateway/internal/config"
	"factorypulse-gateway/internal/data"
)

// scriptedSource replays fixed values per metric and repeats the last one.
type scriptedSource struct {
	mu     sync.Mutex
	values map[data.MetricKind][]float64
	calls  []data.MetricKind
}

func (s *scriptedSource) NextReading(kind data.MetricKind) data.Reading {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, kind)

	vals := s.values[kind]
	v := vals[0]
	if len(vals) > 1 {
		s.values[kind] = vals[1:]
	}
	return data.Reading{Kind: kind, Value: v, CapturedAt: time.Now()}
}

func newEngine(src *scriptedSource, interval time.Duration) (*Engine, *alerting.Registry) {
	reg := alerting.NewRegistry()
	e := New(Config{
		Source:   src,
		Detector: anomaly.NewDetector(config.Default()),
		Registry: reg,
		Interval: interval,
	})
	return e, reg
}

func TestTickOnlyEnergyCrosses(t *testing.T) {
	src := &scriptedSource{values: map[data.MetricKind][]float64{
		data.Temperature: {70},
		data.Vibration:   {2},
		data.Energy:      {900, 1900},
	}}
	e, reg := newEngine(src, time.Second)

	assert.Empty(t, e.Tick())

	raised := e.Tick()
	require.Len(t, raised, 1)
	assert.Equal(t, data.Energy, raised[0].Kind)
	assert.Equal(t, "Excessive power consumption detected!", raised[0].Message)
	assert.Equal(t, raised, reg.List())
}

func TestTickEvaluatesInFixedOrder(t *testing.T) {
	src := &scriptedSource{values: map[data.MetricKind][]float64{
		data.Temperature: {85},
		data.Vibration:   {5.5},
		data.Energy:      {1850},
	}}
	e, reg := newEngine(src, time.Second)

	raised := e.Tick()
	require.Len(t, raised, 3)
	assert.Equal(t, []data.MetricKind{data.Temperature, data.Vibration, data.Energy}, src.calls)
	assert.Equal(t, data.Temperature, raised[0].Kind)
	assert.Equal(t, data.Vibration, raised[1].Kind)
	assert.Equal(t, data.Energy, raised[2].Kind)

	// registry is most recent first
	list := reg.List()
	assert.Equal(t, data.Energy, list[0].Kind)
	assert.Equal(t, data.Temperature, list[2].Kind)
}

func TestStayingCriticalDoesNotRealert(t *testing.T) {
	src := &scriptedSource{values: map[data.MetricKind][]float64{
		data.Temperature: {70, 85, 87, 90, 70, 88},
		data.Vibration:   {1},
		data.Energy:      {600},
	}}
	e, reg := newEngine(src, time.Second)

	var perTick []int
	for i := 0; i < 6; i++ {
		perTick = append(perTick, len(e.Tick()))
	}
	assert.Equal(t, []int{0, 1, 0, 0, 0, 1}, perTick)
	assert.Equal(t, 2, reg.Len())
}

func TestDismissDoesNotResetEdgeMemory(t *testing.T) {
	src := &scriptedSource{values: map[data.MetricKind][]float64{
		data.Temperature: {60},
		data.Vibration:   {5.2, 5.4, 5.8},
		data.Energy:      {600},
	}}
	e, reg := newEngine(src, time.Second)

	raised := e.Tick()
	require.Len(t, raised, 1)
	assert.True(t, reg.Dismiss(raised[0].ID))

	assert.Empty(t, e.Tick())
	assert.Empty(t, e.Tick())
	assert.Empty(t, reg.List())
}

func TestSnapshotCarriesBands(t *testing.T) {
	src := &scriptedSource{values: map[data.MetricKind][]float64{
		data.Temperature: {76},
		data.Vibration:   {1.5},
		data.Energy:      {1900},
	}}
	e, _ := newEngine(src, time.Second)
	assert.Empty(t, e.Snapshot())

	e.Tick()
	snap := e.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, "Warning", snap[0].Band)
	assert.Equal(t, "Safe", snap[1].Band)
	assert.Equal(t, "High", snap[2].Band)
	assert.Equal(t, 1900.0, snap[2].Value)
	assert.Equal(t, []string{"°C", "mm/s", "W"}, []string{snap[0].Unit, snap[1].Unit, snap[2].Unit})
}

func TestObserversSeeEachTick(t *testing.T) {
	src := &scriptedSource{values: map[data.MetricKind][]float64{
		data.Temperature: {81},
		data.Vibration:   {1},
		data.Energy:      {600},
	}}
	e, _ := newEngine(src, time.Second)

	var gotReadings int
	var gotAlerts []data.Alert
	require.NoError(t, e.Observe(func(readings []data.BandedReading, raised []data.Alert) {
		gotReadings += len(readings)
		gotAlerts = append(gotAlerts, raised...)
	}))

	e.Tick()
	e.Tick()
	assert.Equal(t, 6, gotReadings)
	require.Len(t, gotAlerts, 1)
	assert.Equal(t, data.Temperature, gotAlerts[0].Kind)
}

func TestStartStop(t *testing.T) {
	src := &scriptedSource{values: map[data.MetricKind][]float64{
		data.Temperature: {70},
		data.Vibration:   {1},
		data.Energy:      {600},
	}}
	e, _ := newEngine(src, 5*time.Millisecond)

	var mu sync.Mutex
	ticks := 0
	require.NoError(t, e.Observe(func([]data.BandedReading, []data.Alert) {
		mu.Lock()
		ticks++
		mu.Unlock()
	}))

	require.NoError(t, e.Start(context.Background()))
	assert.ErrorIs(t, e.Start(context.Background()), ErrAlreadyRunning)
	assert.True(t, e.Running())

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return ticks >= 3
	}, time.Second, 5*time.Millisecond)

	e.Stop()
	assert.False(t, e.Running())

	mu.Lock()
	stopped := ticks
	mu.Unlock()
	time.Sleep(30 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, stopped, ticks, "no ticks after Stop")
	mu.Unlock()

	// stopping twice is harmless
	e.Stop()
}

func TestObserveRejectedWhileRunning(t *testing.T) {
	src := &scriptedSource{values: map[data.MetricKind][]float64{
		data.Temperature: {70},
		data.Vibration:   {1},
		data.Energy:      {600},
	}}
	e, _ := newEngine(src, time.Hour)
	noop := func([]data.BandedReading, []data.Alert) {}

	require.NoError(t, e.Start(context.Background()))
	assert.ErrorIs(t, e.Observe(noop), ErrAlreadyRunning)
	e.Stop()

	assert.NoError(t, e.Observe(noop))
}

func TestObserveConcurrentWithTick(t *testing.T) {
	src := &scriptedSource{values: map[data.MetricKind][]float64{
		data.Temperature: {70},
		data.Vibration:   {1},
		data.Energy:      {600},
	}}
	e, _ := newEngine(src, time.Hour)

	var calls atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, e.Observe(func([]data.BandedReading, []data.Alert) { calls.Add(1) }))
		}()
		go func() {
			defer wg.Done()
			e.Tick()
		}()
	}
	wg.Wait()

	before := calls.Load()
	e.Tick()
	assert.Equal(t, int64(20), calls.Load()-before)
}

func TestRestartResetsEdgeMemory(t *testing.T) {
	src := &scriptedSource{values: map[data.MetricKind][]float64{
		data.Temperature: {85},
		data.Vibration:   {1},
		data.Energy:      {600},
	}}
	e, reg := newEngine(src, time.Hour)

	require.Len(t, e.Tick(), 1)
	assert.Empty(t, e.Tick())

	require.NoError(t, e.Start(context.Background()))
	e.Stop()
	assert.Empty(t, e.Snapshot())

	// first reading of the new session is compared against nothing
	require.Len(t, e.Tick(), 1)
	assert.Equal(t, 2, reg.Len())
}
