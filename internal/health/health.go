// health.go - Health monitoring for the library service
package health

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// Status represents the health status of a component
type Status string

const (
	Healthy   Status = "healthy"
	Degraded  Status = "degraded"
	Unhealthy Status = "unhealthy"
)

// ErrDegraded marks a check failure that leaves the component usable.
var ErrDegraded = errors.New("degraded")

// Checker probes one component.
type Checker func(ctx context.Context) error

// ComponentHealth represents the health of a specific component
type ComponentHealth struct {
	Name      string        `json:"name"`
	Status    Status        `json:"status"`
	Message   string        `json:"message"`
	LastCheck time.Time     `json:"last_check"`
	Latency   time.Duration `json:"latency,omitempty"`
}

// SystemHealth represents the overall system health
type SystemHealth struct {
	OverallStatus Status            `json:"overall_status"`
	Timestamp     time.Time         `json:"timestamp"`
	Components    []ComponentHealth `json:"components"`
	Uptime        time.Duration     `json:"uptime"`
	Version       string            `json:"version"`
}

// HealthChecker manages health checks for the service components
type HealthChecker struct {
	mu         sync.Mutex
	components map[string]*ComponentHealth
	checkers   map[string]Checker
	startTime  time.Time
	version    string
}

func NewHealthChecker(version string) *HealthChecker {
	return &HealthChecker{
		components: make(map[string]*ComponentHealth),
		checkers:   make(map[string]Checker),
		startTime:  time.Now(),
		version:    version,
	}
}

// RegisterComponent registers a health check for a component
func (hc *HealthChecker) RegisterComponent(name string, checker Checker) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.components[name] = &ComponentHealth{
		Name:      name,
		Status:    Healthy,
		Message:   "Component registered",
		LastCheck: time.Now(),
	}
	hc.checkers[name] = checker
}

// CheckHealth runs every registered check. Components are reported in name
// order.
func (hc *HealthChecker) CheckHealth(ctx context.Context) *SystemHealth {
	hc.mu.Lock()
	defer hc.mu.Unlock()

	names := make([]string, 0, len(hc.components))
	for name := range hc.components {
		names = append(names, name)
	}
	sort.Strings(names)

	overall := Healthy
	components := make([]ComponentHealth, 0, len(names))
	for _, name := range names {
		component := hc.components[name]
		if checker := hc.checkers[name]; checker != nil {
			start := time.Now()
			err := checker(ctx)
			component.Latency = time.Since(start)
			component.LastCheck = time.Now()
			switch {
			case err == nil:
				component.Status = Healthy
				component.Message = "OK"
			case errors.Is(err, ErrDegraded):
				component.Status = Degraded
				component.Message = err.Error()
			default:
				component.Status = Unhealthy
				component.Message = err.Error()
			}
		}

		if component.Status == Unhealthy {
			overall = Unhealthy
		} else if component.Status == Degraded && overall == Healthy {
			overall = Degraded
		}
		components = append(components, *component)
	}

	return &SystemHealth{
		OverallStatus: overall,
		Timestamp:     time.Now(),
		Components:    components,
		Uptime:        time.Since(hc.startTime),
		Version:       hc.version,
	}
}

// Response is the body of the health endpoint.
type Response struct {
	Status  string        `json:"status"`
	Message string        `json:"message"`
	Data    *SystemHealth `json:"data,omitempty"`
}

// CreateHealthResponse creates a standardized health check response
func CreateHealthResponse(h *SystemHealth) *Response {
	resp := &Response{Status: "success", Message: "System is healthy", Data: h}
	switch h.OverallStatus {
	case Unhealthy:
		resp.Status, resp.Message = "error", "System is unhealthy"
	case Degraded:
		resp.Status, resp.Message = "warning", "System is degraded"
	}
	return resp
}
