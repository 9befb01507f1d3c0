package services

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/sirupsen/logrus"
)

// ResourceSnapshot captures system load at a point in time.
type ResourceSnapshot struct {
	Timestamp   time.Time `json:"timestamp"`
	CPUUsage    float64   `json:"cpu_usage"`
	MemoryUsage float64   `json:"memory_usage"`
	Goroutines  int       `json:"goroutines"`
}

// ResourceMonitorConfig bounds the monitor's history and the load levels
// above which the worker recommendation backs off.
type ResourceMonitorConfig struct {
	MaxHistorySize  int
	CPUThreshold    float64
	MemoryThreshold float64
	MaxWorkers      int
}

// ResourceMonitor samples CPU and memory usage so analysis runs can size
// their worker pools to the machine they are on.
type ResourceMonitor struct {
	mu       sync.RWMutex
	cfg      ResourceMonitorConfig
	cpuCores int
	memoryGB float64
	history  []ResourceSnapshot
	logger   *logrus.Logger
}

// NewResourceMonitor creates a resource monitor.
func NewResourceMonitor(cfg ResourceMonitorConfig, logger *logrus.Logger) *ResourceMonitor {
	if cfg.MaxHistorySize == 0 {
		cfg.MaxHistorySize = 100
	}
	if cfg.CPUThreshold == 0 {
		cfg.CPUThreshold = 80.0
	}
	if cfg.MemoryThreshold == 0 {
		cfg.MemoryThreshold = 85.0
	}
	if cfg.MaxWorkers == 0 {
		cfg.MaxWorkers = 2 * runtime.NumCPU()
	}

	rm := &ResourceMonitor{
		cfg:      cfg,
		cpuCores: runtime.NumCPU(),
		logger:   logger,
	}

	if memInfo, err := mem.VirtualMemory(); err == nil {
		rm.memoryGB = float64(memInfo.Total) / (1024 * 1024 * 1024)
	} else {
		logger.WithError(err).Warn("Could not read system memory, assuming 8GB")
		rm.memoryGB = 8.0
	}

	logger.WithFields(logrus.Fields{
		"cpu_cores": rm.cpuCores,
		"memory_gb": rm.memoryGB,
	}).Info("Resource monitor initialized")
	return rm
}

// Sample reads current CPU and memory usage and appends it to the history.
func (rm *ResourceMonitor) Sample(ctx context.Context) (ResourceSnapshot, error) {
	// Interval 0 reports usage since the previous call instead of blocking.
	cpuPercent, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return ResourceSnapshot{}, fmt.Errorf("failed to read CPU usage: %w", err)
	}

	memInfo, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return ResourceSnapshot{}, fmt.Errorf("failed to read memory usage: %w", err)
	}

	snapshot := ResourceSnapshot{
		Timestamp:   time.Now(),
		MemoryUsage: memInfo.UsedPercent,
		Goroutines:  runtime.NumGoroutine(),
	}
	if len(cpuPercent) > 0 {
		snapshot.CPUUsage = cpuPercent[0]
	}

	rm.mu.Lock()
	rm.history = append(rm.history, snapshot)
	if len(rm.history) > rm.cfg.MaxHistorySize {
		rm.history = rm.history[1:]
	}
	rm.mu.Unlock()

	return snapshot, nil
}

// RecommendedWorkers sizes a worker pool from the core count and the most
// recent sample, backing off under CPU or memory pressure.
func (rm *ResourceMonitor) RecommendedWorkers() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	workers := rm.cpuCores
	if workers > rm.cfg.MaxWorkers {
		workers = rm.cfg.MaxWorkers
	}

	if len(rm.history) > 0 {
		latest := rm.history[len(rm.history)-1]
		if latest.CPUUsage > rm.cfg.CPUThreshold || latest.MemoryUsage > rm.cfg.MemoryThreshold {
			workers /= 2
		}
	}

	if workers < 1 {
		workers = 1
	}
	return workers
}

// History returns up to limit recent snapshots, newest last.
func (rm *ResourceMonitor) History(limit int) []ResourceSnapshot {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	if limit <= 0 || limit > len(rm.history) {
		limit = len(rm.history)
	}

	out := make([]ResourceSnapshot, limit)
	copy(out, rm.history[len(rm.history)-limit:])
	return out
}

// SystemInfo summarizes the host and latest usage for the health endpoint.
func (rm *ResourceMonitor) SystemInfo() map[string]interface{} {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	info := map[string]interface{}{
		"cpu_cores":  rm.cpuCores,
		"memory_gb":  rm.memoryGB,
		"goroutines": runtime.NumGoroutine(),
	}
	if len(rm.history) > 0 {
		latest := rm.history[len(rm.history)-1]
		info["current_cpu"] = latest.CPUUsage
		info["current_memory"] = latest.MemoryUsage
	}
	return info
}
