// internal/alerting/registry.go
package alerting

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"factorypulse-gateway/internal/data"
	"factorypulse-gateway/internal/metrics"
)

// Listener is told about every change to the active set. Calls happen while
// the registry lock is held, so a raise is always reported before the
// dismissal of the same alert. Implementations must not block or call back
// into the registry.
type Listener interface {
	AlertRaised(alert data.Alert)
	AlertDismissed(id string)
}

// Registry holds the active alerts, most recent first. It never refuses a
// Raise; edge detection upstream decides how often Raise is called.
type Registry struct {
	mu        sync.Mutex
	alerts    []data.Alert
	listeners []Listener
	now       func() time.Time
	newID     func() string
}

func NewRegistry(listeners ...Listener) *Registry {
	return &Registry{
		listeners: listeners,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Raise records a new alert and returns it.
func (r *Registry) Raise(kind data.MetricKind, message string) data.Alert {
	alert := data.Alert{
		ID:       r.newID(),
		Kind:     kind,
		Message:  message,
		RaisedAt: r.now(),
	}

	r.mu.Lock()
	r.alerts = append([]data.Alert{alert}, r.alerts...)
	n := len(r.alerts)
	for _, l := range r.listeners {
		l.AlertRaised(alert)
	}
	r.mu.Unlock()

	metrics.AlertsRaisedTotal.WithLabelValues(string(kind)).Inc()
	metrics.AlertsActive.Set(float64(n))
	return alert
}

// Dismiss removes the alert with id. Unknown ids are a no-op so that double
// clicks and racing clients are harmless.
func (r *Registry) Dismiss(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, a := range r.alerts {
		if a.ID == id {
			r.alerts = append(r.alerts[:i:i], r.alerts[i+1:]...)
			metrics.AlertsDismissedTotal.Inc()
			metrics.AlertsActive.Set(float64(len(r.alerts)))
			for _, l := range r.listeners {
				l.AlertDismissed(id)
			}
			return true
		}
	}
	return false
}

// List returns a copy of the active alerts, most recent first.
func (r *Registry) List() []data.Alert {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]data.Alert, len(r.alerts))
	copy(result, r.alerts)
	return result
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.alerts)
}
