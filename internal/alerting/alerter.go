// internal/alerting/alerter.go
package alerting

import (
	"context"
	"runtime/debug"
	"sync"

	"factorypulse-gateway/internal/data"
	"factorypulse-gateway/internal/logger"
	"factorypulse-gateway/internal/metrics"
)

const defaultQueueSize = 64

// Sink receives alerts after they have been recorded in the registry.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, alert data.Alert) error
}

// Alerter hands newly raised alerts to external sinks (kafka) from a single
// delivery goroutine, so alerts leave in the order they were raised.
type Alerter struct {
	sinks []Sink
	queue chan []data.Alert

	mu      sync.RWMutex // guards closed against Enqueue
	closed  bool
	started bool

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func NewAlerter(sinks ...Sink) *Alerter {
	ctx, cancel := context.WithCancel(context.Background())
	a := &Alerter{
		queue:  make(chan []data.Alert, defaultQueueSize),
		ctx:    ctx,
		cancel: cancel,
	}
	for _, s := range sinks {
		a.AddSink(s)
	}
	return a
}

// AddSink registers another delivery channel. Call it before Start.
func (a *Alerter) AddSink(s Sink) {
	if s != nil {
		a.sinks = append(a.sinks, s)
	}
}

// Start launches the delivery goroutine.
func (a *Alerter) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.started || a.closed {
		return
	}
	a.started = true

	a.wg.Add(1)
	go a.deliverLoop()
}

// Enqueue queues a batch for delivery without blocking the caller. Batches
// arriving after Stop, or while the queue is full, are dropped and logged.
func (a *Alerter) Enqueue(alerts []data.Alert) {
	if len(alerts) == 0 {
		return
	}

	a.mu.RLock()
	defer a.mu.RUnlock()
	log := logger.WithComponent("alerter")
	if a.closed {
		log.Warn().Int("count", len(alerts)).Msg("alerter stopped, alerts not delivered")
		return
	}
	select {
	case a.queue <- alerts:
	default:
		metrics.AlertQueueDropped.Add(float64(len(alerts)))
		log.Warn().Int("count", len(alerts)).Msg("delivery queue full, alerts dropped")
	}
}

// Stop closes the queue, waits until every queued alert has been handed to
// the sinks and then releases the delivery context. Sinks may be closed once
// Stop returns.
func (a *Alerter) Stop() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	close(a.queue)
	started := a.started
	a.mu.Unlock()

	if !started {
		// nobody drains the queue; deliver what is left inline
		for batch := range a.queue {
			a.ProcessAlerts(a.ctx, batch)
		}
	}
	a.wg.Wait()
	a.cancel()

	log := logger.WithComponent("alerter")
	log.Info().Msg("alerter stopped")
}

func (a *Alerter) deliverLoop() {
	defer a.wg.Done()
	for batch := range a.queue {
		a.safeProcess(batch)
	}
}

func (a *Alerter) safeProcess(batch []data.Alert) {
	defer func() {
		if r := recover(); r != nil {
			log := logger.WithComponent("alerter")
			log.Error().
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("alert delivery panic recovered")
		}
	}()
	a.ProcessAlerts(a.ctx, batch)
}

// ProcessAlerts delivers alerts to every sink. A failing sink is logged and
// does not stop delivery to the others.
func (a *Alerter) ProcessAlerts(ctx context.Context, alerts []data.Alert) {
	if len(alerts) == 0 {
		return
	}

	log := logger.WithComponent("alerter")
	log.Info().Int("count", len(alerts)).Msg("processing alerts")

	for _, alert := range alerts {
		for _, sink := range a.sinks {
			if err := sink.Deliver(ctx, alert); err != nil {
				log.Error().
					Err(err).
					Str("sink", sink.Name()).
					Str("alert_id", alert.ID).
					Msg("alert delivery failed")
			}
		}
	}
}
