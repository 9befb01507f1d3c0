package services

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourceMonitor_Defaults(t *testing.T) {
	rm := NewResourceMonitor(ResourceMonitorConfig{}, newTestLogger())

	assert.Equal(t, 100, rm.cfg.MaxHistorySize)
	assert.Equal(t, 80.0, rm.cfg.CPUThreshold)
	assert.Equal(t, 85.0, rm.cfg.MemoryThreshold)
	assert.Equal(t, 2*runtime.NumCPU(), rm.cfg.MaxWorkers)
	assert.Greater(t, rm.memoryGB, 0.0)
}

func TestResourceMonitor_Sample(t *testing.T) {
	rm := NewResourceMonitor(ResourceMonitorConfig{}, newTestLogger())

	snapshot, err := rm.Sample(context.Background())
	require.NoError(t, err)

	assert.False(t, snapshot.Timestamp.IsZero())
	assert.Greater(t, snapshot.Goroutines, 0)
	assert.GreaterOrEqual(t, snapshot.MemoryUsage, 0.0)
	assert.LessOrEqual(t, snapshot.MemoryUsage, 100.0)

	assert.Len(t, rm.History(0), 1)
}

func TestResourceMonitor_HistoryBounded(t *testing.T) {
	rm := NewResourceMonitor(ResourceMonitorConfig{MaxHistorySize: 3}, newTestLogger())

	for i := 0; i < 5; i++ {
		_, err := rm.Sample(context.Background())
		require.NoError(t, err)
	}

	history := rm.History(0)
	assert.Len(t, history, 3)
	assert.Len(t, rm.History(2), 2)
}

func TestRecommendedWorkers_BacksOffUnderLoad(t *testing.T) {
	rm := NewResourceMonitor(ResourceMonitorConfig{MaxWorkers: 8}, newTestLogger())
	rm.cpuCores = 8

	assert.Equal(t, 8, rm.RecommendedWorkers())

	rm.history = append(rm.history, ResourceSnapshot{
		Timestamp: time.Now(),
		CPUUsage:  95.0,
	})
	assert.Equal(t, 4, rm.RecommendedWorkers())

	rm.history = append(rm.history, ResourceSnapshot{
		Timestamp:   time.Now(),
		MemoryUsage: 99.0,
	})
	assert.Equal(t, 4, rm.RecommendedWorkers())
}

func TestRecommendedWorkers_Floor(t *testing.T) {
	rm := NewResourceMonitor(ResourceMonitorConfig{MaxWorkers: 1}, newTestLogger())
	rm.cpuCores = 1
	rm.history = append(rm.history, ResourceSnapshot{CPUUsage: 99.0})

	assert.Equal(t, 1, rm.RecommendedWorkers())
}

func TestSystemInfo(t *testing.T) {
	rm := NewResourceMonitor(ResourceMonitorConfig{}, newTestLogger())

	info := rm.SystemInfo()
	assert.Contains(t, info, "cpu_cores")
	assert.Contains(t, info, "memory_gb")
	assert.NotContains(t, info, "current_cpu")

	_, err := rm.Sample(context.Background())
	require.NoError(t, err)

	info = rm.SystemInfo()
	assert.Contains(t, info, "current_cpu")
	assert.Contains(t, info, "current_memory")
}
