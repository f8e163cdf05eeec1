package engine

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"time"

	"factorypulse-gateway/internal/alerting"
	"factorypulse-gateway/internal/anomaly"
	"factorypulse-gateway/internal/data"
	"factorypulse-gateway/internal/logger"
	"factorypulse-gateway/internal/metrics"
	"factorypulse-gateway/internal/simulator"
)

var ErrAlreadyRunning = errors.New("engine already running")

// alert text per metric
var messages = map[data.MetricKind]string{
	data.Temperature: "Critical overheat risk detected!",
	data.Vibration:   "Abnormal vibration detected!",
	data.Energy:      "Excessive power consumption detected!",
}

// Observer is told about every completed tick. It runs outside the engine
// lock and must not call Tick.
type Observer func(readings []data.BandedReading, raised []data.Alert)

// Engine pulls readings from the source, runs edge detection and raises
// alerts, one tick at a time.
type Engine struct {
	// mu serializes ticks and guards detector memory and latest.
	mu       sync.Mutex
	source   simulator.Source
	detector *anomaly.Detector
	registry *alerting.Registry
	latest   map[data.MetricKind]data.BandedReading

	interval  time.Duration
	obsMu     sync.RWMutex
	observers []Observer

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Config holds engine configuration
type Config struct {
	Source   simulator.Source
	Detector *anomaly.Detector
	Registry *alerting.Registry
	Interval time.Duration
}

func New(cfg Config) *Engine {
	if cfg.Interval <= 0 {
		cfg.Interval = 3 * time.Second
	}
	return &Engine{
		source:   cfg.Source,
		detector: cfg.Detector,
		registry: cfg.Registry,
		interval: cfg.Interval,
		latest:   make(map[data.MetricKind]data.BandedReading, len(data.Kinds)),
	}
}

// Observe registers fn for tick notifications. Observers can only be added
// while no session is running.
func (e *Engine) Observe(fn Observer) error {
	if e.Running() {
		return ErrAlreadyRunning
	}
	e.obsMu.Lock()
	e.observers = append(e.observers, fn)
	e.obsMu.Unlock()
	return nil
}

// Tick evaluates every metric once and returns the alerts raised by it.
func (e *Engine) Tick() []data.Alert {
	start := time.Now()
	readings, raised := e.tick()
	metrics.TickDuration.Observe(time.Since(start).Seconds())
	metrics.TicksTotal.Inc()

	e.obsMu.RLock()
	observers := e.observers
	e.obsMu.RUnlock()
	for _, fn := range observers {
		fn(readings, raised)
	}
	return raised
}

func (e *Engine) tick() ([]data.BandedReading, []data.Alert) {
	e.mu.Lock()
	defer e.mu.Unlock()

	readings := make([]data.BandedReading, 0, len(data.Kinds))
	var raised []data.Alert

	for _, kind := range data.Kinds {
		r := e.source.NextReading(kind)
		band := e.detector.Classify(kind, r.Value)
		banded := data.BandedReading{Reading: r, Band: band.Label(kind), Unit: kind.Unit()}
		e.latest[kind] = banded
		readings = append(readings, banded)
		metrics.ReadingValue.WithLabelValues(string(kind)).Set(r.Value)

		if e.detector.Observe(r) {
			raised = append(raised, e.registry.Raise(kind, messages[kind]))
		}
	}
	return readings, raised
}

// Snapshot returns the latest reading of each metric in evaluation order.
// Metrics that have not been read yet are omitted.
func (e *Engine) Snapshot() []data.BandedReading {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]data.BandedReading, 0, len(e.latest))
	for _, kind := range data.Kinds {
		if r, ok := e.latest[kind]; ok {
			out = append(out, r)
		}
	}
	return out
}

// Run ticks every interval until ctx is cancelled. A tick that has started
// always runs to completion.
func (e *Engine) Run(ctx context.Context) {
	log := logger.WithComponent("engine")
	log.Info().Dur("interval", e.interval).Msg("monitoring session started")
	defer log.Info().Msg("monitoring session stopped")

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// both cases may be ready; never start a tick for a stopped session
			if ctx.Err() != nil {
				return
			}
			e.safeTick()
		}
	}
}

func (e *Engine) safeTick() {
	defer func() {
		if r := recover(); r != nil {
			log := logger.WithComponent("engine")
			log.Error().
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("tick panic recovered")
		}
	}()

	if raised := e.Tick(); len(raised) > 0 {
		log := logger.WithComponent("engine")
		for _, a := range raised {
			log.Warn().
				Str("alert_id", a.ID).
				Str("metric", string(a.Kind)).
				Msg(a.Message)
		}
	}
}

// Start begins a new monitoring session in the background. Detector memory
// is reset; active alerts are kept until dismissed.
func (e *Engine) Start(ctx context.Context) error {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	if e.cancel != nil {
		return ErrAlreadyRunning
	}

	e.mu.Lock()
	e.detector.Reset()
	clear(e.latest)
	e.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	e.cancel, e.done = cancel, done

	go func() {
		defer close(done)
		e.Run(ctx)
	}()
	return nil
}

// Stop cancels the pending timer and waits for an in-flight tick to finish.
func (e *Engine) Stop() {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	if e.cancel == nil {
		return
	}
	e.cancel()
	<-e.done
	e.cancel, e.done = nil, nil
}

// Running reports whether a session is active.
func (e *Engine) Running() bool {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	return e.cancel != nil
}
