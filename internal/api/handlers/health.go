package handlers

import (
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/jroosing/triedns/internal/api/models"
)

// Health godoc
// @Summary Health check
// @Description Returns server health status. Reports "degraded" when the zone database is unreachable.
// @Tags system
// @Produce json
// @Success 200 {object} models.StatusResponse
// @Failure 503 {object} models.StatusResponse
// @Security ApiKeyAuth
// @Router /health [get]
func (h *Handler) Health(c *gin.Context) {
	if h.deps.DB != nil {
		if err := h.deps.DB.Health(); err != nil {
			h.logger.Warn("database health check failed", "err", err)
			c.JSON(http.StatusServiceUnavailable, models.StatusResponse{Status: "degraded"})
			return
		}
	}
	c.JSON(http.StatusOK, models.StatusResponse{Status: "ok"})
}

// Stats godoc
// @Summary Server statistics
// @Description Returns runtime statistics including memory, goroutines, process usage and DNS counters
// @Tags system
// @Produce json
// @Success 200 {object} models.ServerStatsResponse
// @Security ApiKeyAuth
// @Router /stats [get]
func (h *Handler) Stats(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	uptime := time.Since(h.startTime)

	snap := h.deps.Stats.Snapshot()
	resp := models.ServerStatsResponse{
		Uptime:        uptime.Round(time.Second).String(),
		UptimeSeconds: int64(uptime.Seconds()),
		StartTime:     h.startTime,
		GoRoutines:    runtime.NumGoroutine(),
		MemoryAllocMB: float64(m.Alloc) / 1024 / 1024,
		NumCPU:        runtime.NumCPU(),
		Process:       processStats(),
		DNSStats: models.DNSStatsResponse{
			QueriesTotal:      snap.QueriesTotal,
			ResponsesTotal:    snap.ResponsesTotal,
			ResponsesZone:     snap.ResponsesZone,
			ResponsesUpstream: snap.ResponsesUpstream,
			DroppedTotal:      snap.DroppedTotal,
			TruncatedTotal:    snap.TruncatedTotal,
			Dropped:           snap.Dropped,
			AvgLatencyMs:      snap.AvgLatencyMs,
		},
	}

	c.JSON(http.StatusOK, resp)
}

// processStats reads this process from the OS. Fields the platform cannot
// report stay zero; nil means the process could not be inspected at all.
func processStats() *models.ProcessStats {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil
	}
	ps := &models.ProcessStats{PID: p.Pid}
	if mem, err := p.MemoryInfo(); err == nil {
		ps.RSSMB = float64(mem.RSS) / 1024 / 1024
	}
	if cpu, err := p.CPUPercent(); err == nil {
		ps.CPUPercent = cpu
	}
	if n, err := p.NumThreads(); err == nil {
		ps.NumThreads = n
	}
	return ps
}
