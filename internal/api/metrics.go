package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/nerrad567/sqlgate/internal/audit"
)

// SystemMetrics represents the complete system metrics response.
type SystemMetrics struct {
	Timestamp     string          `json:"timestamp"`
	Version       string          `json:"version"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	Runtime       RuntimeMetrics  `json:"runtime"`
	Database      DatabaseMetrics `json:"database"`
	Executions    audit.Snapshot  `json:"executions"`
	Functions     int             `json:"functions"`
	RateLimit     *RateMetrics    `json:"rate_limit,omitempty"`
	MQTT          SinkMetrics     `json:"mqtt"`
	InfluxDB      SinkMetrics     `json:"influxdb"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// DatabaseMetrics contains database connection statistics.
type DatabaseMetrics struct {
	Path            string `json:"path"`
	OpenConnections int    `json:"open_connections"`
	InUse           int    `json:"in_use"`
	Idle            int    `json:"idle"`
	WaitCount       int64  `json:"wait_count"`
	MaxIdleClosed   int64  `json:"max_idle_closed"`
}

// RateMetrics describes the per-client limiter.
type RateMetrics struct {
	RequestsPerMinute int `json:"requests_per_minute"`
	Burst             int `json:"burst"`
	TrackedClients    int `json:"tracked_clients"`
}

// SinkMetrics reports an optional execution sink.
type SinkMetrics struct {
	Enabled     bool   `json:"enabled"`
	Connected   bool   `json:"connected"`
	WriteErrors uint64 `json:"write_errors,omitempty"`
}

// handleMetrics returns comprehensive system metrics.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	dbStats := s.db.Stats()

	metrics := SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		Database: DatabaseMetrics{
			Path:            s.db.Path(),
			OpenConnections: dbStats.OpenConnections,
			InUse:           dbStats.InUse,
			Idle:            dbStats.Idle,
			WaitCount:       dbStats.WaitCount,
			MaxIdleClosed:   dbStats.MaxIdleClosed,
		},
		Executions: s.counters.Snapshot(),
		Functions:  s.registry.Len(),
	}

	if s.limiter != nil {
		rl := s.cfg.Security.RateLimit
		metrics.RateLimit = &RateMetrics{
			RequestsPerMinute: rl.RequestsPerMinute,
			Burst:             rl.Burst,
			TrackedClients:    s.limiter.size(),
		}
	}

	if s.mqtt != nil {
		metrics.MQTT = SinkMetrics{Enabled: true, Connected: s.mqtt.IsConnected()}
	}
	if s.influx != nil {
		metrics.InfluxDB = SinkMetrics{
			Enabled:     true,
			Connected:   s.influx.IsConnected(),
			WriteErrors: s.influx.WriteErrors(),
		}
	}

	writeJSON(w, http.StatusOK, metrics)
}
