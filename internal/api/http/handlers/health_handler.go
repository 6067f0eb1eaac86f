package handlers

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
)

const readinessTimeout = 2 * time.Second

// Pinger is a dependency that can report its reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	serviceName string
	version     string
	started     time.Time
	deps        map[string]Pinger
}

// NewHealthHandler returns a handler checking deps on readiness. Leave out
// dependencies that are not configured.
func NewHealthHandler(serviceName, version string, deps map[string]Pinger) *HealthHandler {
	return &HealthHandler{serviceName: serviceName, version: version, started: time.Now(), deps: deps}
}

type dependencyStatus struct {
	Name      string `json:"name"`
	Status    string `json:"status"`
	LatencyMs int64  `json:"latencyMs"`
	Error     string `json:"error,omitempty"`
}

// Live GET /health/live.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":        "alive",
		"service":       h.serviceName,
		"version":       h.version,
		"uptimeSeconds": int64(time.Since(h.started).Seconds()),
	})
}

// Ready GET /health/ready. Dependencies are pinged in parallel.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), readinessTimeout)
	defer cancel()

	statuses := h.check(ctx)
	ready := true
	for _, s := range statuses {
		if s.Status != "ok" {
			ready = false
		}
	}

	if ready {
		return c.JSON(fiber.Map{"status": "ready", "dependencies": statuses})
	}
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"message": "one or more dependencies unavailable",
		"error": fiber.Map{
			"code":    "DEPENDENCY_UNAVAILABLE",
			"message": "one or more dependencies unavailable",
			"details": fiber.Map{"dependencies": statuses},
		},
	})
}

func (h *HealthHandler) check(ctx context.Context) []dependencyStatus {
	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		out = make([]dependencyStatus, 0, len(h.deps))
	)
	for name, dep := range h.deps {
		wg.Add(1)
		go func(name string, dep Pinger) {
			defer wg.Done()
			start := time.Now()
			err := dep.Ping(ctx)
			status := dependencyStatus{Name: name, Status: "ok", LatencyMs: time.Since(start).Milliseconds()}
			if err != nil {
				status.Status = "down"
				status.Error = err.Error()
			}
			mu.Lock()
			out = append(out, status)
			mu.Unlock()
		}(name, dep)
	}
	wg.Wait()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
