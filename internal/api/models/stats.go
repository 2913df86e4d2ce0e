package models

import "time"

// ServerStatsResponse contains server runtime statistics.
type ServerStatsResponse struct {
	Uptime        string           `json:"uptime"`
	UptimeSeconds int64            `json:"uptime_seconds"`
	StartTime     time.Time        `json:"start_time"`
	GoRoutines    int              `json:"goroutines"`
	MemoryAllocMB float64          `json:"memory_alloc_mb"`
	NumCPU        int              `json:"num_cpu"`
	Process       *ProcessStats    `json:"process,omitempty"`
	DNSStats      DNSStatsResponse `json:"dns"`
}

// ProcessStats is the OS view of the server process.
type ProcessStats struct {
	PID        int32   `json:"pid"`
	RSSMB      float64 `json:"rss_mb"`
	CPUPercent float64 `json:"cpu_percent"`
	NumThreads int32   `json:"num_threads"`
}

// DNSStatsResponse contains DNS query statistics.
type DNSStatsResponse struct {
	QueriesTotal      uint64            `json:"queries_total"`
	ResponsesTotal    uint64            `json:"responses_total"`
	ResponsesZone     uint64            `json:"responses_zone"`
	ResponsesUpstream uint64            `json:"responses_upstream"`
	DroppedTotal      uint64            `json:"dropped_total"`
	TruncatedTotal    uint64            `json:"truncated_total"`
	Dropped           map[string]uint64 `json:"dropped,omitempty"`
	AvgLatencyMs      float64           `json:"avg_latency_ms"`
}
