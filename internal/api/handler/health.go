package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/opsgate/netgate/internal/netbox"
)

// HealthHandler serves the health endpoint with a system snapshot and the
// resilience layer state.
type HealthHandler struct {
	netbox  *netbox.ResilientClient
	started time.Time
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(nb *netbox.ResilientClient) *HealthHandler {
	return &HealthHandler{netbox: nb, started: time.Now()}
}

type systemSnapshot struct {
	CPUPercent float64 `json:"cpu_percent"`
	NumCPU     int     `json:"num_cpu"`
	MemTotal   uint64  `json:"mem_total"`
	MemUsed    uint64  `json:"mem_used"`
	Load1      float64 `json:"load1"`
	HostUptime uint64  `json:"host_uptime_seconds"`
	Goroutines int     `json:"goroutines"`
}

// Health handles GET /health. Degraded mode (open breaker) reports status
// "degraded" but still returns 200: the gateway itself is serving.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	breaker := h.netbox.BreakerSnapshot()
	status := "ok"
	if breaker.State != "closed" {
		status = "degraded"
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status":         status,
		"uptime_seconds": int(time.Since(h.started).Seconds()),
		"system":         collectSystem(),
		"breaker":        breaker,
		"downstream":     h.netbox.CallSnapshot(),
		"cache":          h.netbox.CacheSnapshot(),
	})
}

// collectSystem gathers a best-effort system snapshot. Collection errors
// leave zero values; health never fails on them.
func collectSystem() systemSnapshot {
	snap := systemSnapshot{
		NumCPU:     runtime.NumCPU(),
		Goroutines: runtime.NumGoroutine(),
	}
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		snap.CPUPercent = percents[0]
	}
	if v, err := mem.VirtualMemory(); err == nil {
		snap.MemTotal = v.Total
		snap.MemUsed = v.Used
	}
	if l, err := load.Avg(); err == nil {
		snap.Load1 = l.Load1
	}
	if up, err := host.Uptime(); err == nil {
		snap.HostUptime = up
	}
	return snap
}
