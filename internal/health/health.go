package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"patio-backend/internal/timeutil"
)

type Checker struct {
	db        *pgxpool.Pool
	startedAt time.Time
}

func NewChecker(db *pgxpool.Pool) *Checker {
	return &Checker{db: db, startedAt: timeutil.Now()}
}

type status struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type detailedStatus struct {
	Status         string    `json:"status"`
	Timestamp      time.Time `json:"timestamp"`
	Uptime         string    `json:"uptime"`
	DatabaseStatus string    `json:"database_status"`
	ResponseTimeMs int64     `json:"db_response_time_ms"`
	ActiveConns    int32     `json:"db_active_conns"`
	CPUPercent     float64   `json:"cpu_percent"`
	MemoryPercent  float64   `json:"memory_percent"`
	MemoryUsed     string    `json:"memory_used"`
	MemoryTotal    string    `json:"memory_total"`
	DiskPercent    float64   `json:"disk_percent"`
	DiskUsed       string    `json:"disk_used"`
	DiskTotal      string    `json:"disk_total"`
}

// Liveness is the cheap probe: the process answers, nothing else checked.
func (c *Checker) Liveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status{Status: "ok", Timestamp: timeutil.Now()})
}

// Readiness pings the database and reports 503 while it is unreachable.
func (c *Checker) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	s := status{Status: "ok", Timestamp: timeutil.Now()}
	code := http.StatusOK
	if err := c.db.Ping(ctx); err != nil {
		s.Status = "unavailable"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(s)
}

// Detailed reports database latency plus host CPU, memory and disk usage
// for the ops dashboard.
func (c *Checker) Detailed(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	start := time.Now()
	err := c.db.Ping(ctx)
	responseTime := time.Since(start).Milliseconds()

	dbStatus := "healthy"
	overall := "ok"
	code := http.StatusOK
	if err != nil {
		dbStatus = "unhealthy"
		overall = "degraded"
		code = http.StatusServiceUnavailable
	}

	cpuPercents, _ := cpu.Percent(0, false)
	cpuPercent := 0.0
	if len(cpuPercents) > 0 {
		cpuPercent = cpuPercents[0]
	}

	memStats, _ := mem.VirtualMemory()
	diskStats, _ := disk.Usage("/")

	out := detailedStatus{
		Status:         overall,
		Timestamp:      timeutil.Now(),
		Uptime:         formatUptime(int(time.Since(c.startedAt).Seconds())),
		DatabaseStatus: dbStatus,
		ResponseTimeMs: responseTime,
		ActiveConns:    c.db.Stat().AcquiredConns(),
		CPUPercent:     cpuPercent,
	}
	if memStats != nil {
		out.MemoryPercent = memStats.UsedPercent
		out.MemoryUsed = formatBytes(memStats.Used)
		out.MemoryTotal = formatBytes(memStats.Total)
	}
	if diskStats != nil {
		out.DiskPercent = diskStats.UsedPercent
		out.DiskUsed = formatBytes(diskStats.Used)
		out.DiskTotal = formatBytes(diskStats.Total)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(out)
}

func formatBytes(bytes uint64) string {
	gb := float64(bytes) / (1024 * 1024 * 1024)
	if gb < 1 {
		mb := float64(bytes) / (1024 * 1024)
		return fmt.Sprintf("%.1f MB", mb)
	}
	return fmt.Sprintf("%.1f GB", gb)
}

func formatUptime(seconds int) string {
	days := seconds / 86400
	hours := (seconds % 86400) / 3600
	minutes := (seconds % 3600) / 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh", days, hours)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
