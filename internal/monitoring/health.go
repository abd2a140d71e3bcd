package monitoring

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

var startTime = time.Now()

// HealthChecker tracks liveness signals from the engine cycle and serves
// them as a health endpoint.
type HealthChecker struct {
	mu        sync.RWMutex
	lastCycle time.Time
	lastPrice float64
	running   bool
	errors    []string
}

// HealthStatus is the JSON shape of the health endpoint.
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	LastCycle time.Time `json:"last_cycle"`
	LastPrice float64   `json:"last_price"`
	Running   bool      `json:"running"`
	Uptime    string    `json:"uptime"`
	Errors    []string  `json:"errors,omitempty"`
}

func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		errors: make([]string, 0),
	}
}

// MarkCycle records that a scan cycle just completed.
func (h *HealthChecker) MarkCycle() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastCycle = time.Now()
}

// SetRunning records whether the engine cycle is enabled.
func (h *HealthChecker) SetRunning(running bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.running = running
}

// UpdatePrice records the most recent sampled price.
func (h *HealthChecker) UpdatePrice(price float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastPrice = price
}

// AddError appends to the recent error list, keeping the last ten.
func (h *HealthChecker) AddError(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errors = append(h.errors, msg)
	if len(h.errors) > 10 {
		h.errors = h.errors[len(h.errors)-10:]
	}
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := "healthy"
	if h.running && time.Since(h.lastCycle) > 5*time.Minute {
		status = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	health := HealthStatus{
		Status:    status,
		Timestamp: time.Now(),
		LastCycle: h.lastCycle,
		LastPrice: h.lastPrice,
		Running:   h.running,
		Uptime:    time.Since(startTime).String(),
		Errors:    h.errors,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}
