package logger

import (
	"context"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

type channelStat struct {
	messages int64
	items    int64
}

var (
	errorsEngine   int64
	errorsSweep    int64
	warnsEngine    int64
	warnsSweep     int64
	valuations     int64
	greeksReports  int64
	sweepCells     int64
	pathsSimulated int64
	channels       sync.Map // map[string]*channelStat
)

func recordWarn(component string) {
	if strings.Contains(component, "sweep") {
		atomic.AddInt64(&warnsSweep, 1)
	} else if strings.Contains(component, "engine") {
		atomic.AddInt64(&warnsEngine, 1)
	}
}

func recordError(component string) {
	if strings.Contains(component, "sweep") {
		atomic.AddInt64(&errorsSweep, 1)
	} else if strings.Contains(component, "engine") {
		atomic.AddInt64(&errorsEngine, 1)
	}
}

// IncrementValuation records one priced valuation and the paths it
// consumed.
func IncrementValuation(paths int) {
	atomic.AddInt64(&valuations, 1)
	atomic.AddInt64(&pathsSimulated, int64(paths))
}

// IncrementGreeks records one full Greeks report; a report costs five
// simulation passes over the same grid.
func IncrementGreeks(paths int) {
	atomic.AddInt64(&greeksReports, 1)
	atomic.AddInt64(&pathsSimulated, int64(paths)*5)
}

// IncrementSweepCell records one priced surface cell.
func IncrementSweepCell(paths int) {
	atomic.AddInt64(&sweepCells, 1)
	atomic.AddInt64(&pathsSimulated, int64(paths))
}

// RecordChannelMessage accumulates per-channel throughput for the
// runtime report.
func RecordChannelMessage(name string, items int) {
	recordChannel(name, items)
}

func recordChannel(name string, items int) {
	v, _ := channels.LoadOrStore(name, &channelStat{})
	cs := v.(*channelStat)
	atomic.AddInt64(&cs.messages, 1)
	atomic.AddInt64(&cs.items, int64(items))
}

func startReport(ctx context.Context, log *Log, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		for {
			select {
			case <-ctx.Done():
				ticker.Stop()
				return
			case <-ticker.C:
				logReport(log)
			}
		}
	}()
}

// StartReport begins periodic logging of system and pipeline statistics.
// It exposes the internal startReport function for use by other packages.
func StartReport(ctx context.Context, log *Log, interval time.Duration) {
	startReport(ctx, log, interval)
}

func logReport(log *Log) {
	cpuPercent, _ := cpu.Percent(0, false)
	memStats, _ := mem.VirtualMemory()

	channelData := map[string]map[string]int64{}
	channels.Range(func(k, v any) bool {
		name := k.(string)
		cs := v.(*channelStat)
		channelData[name] = map[string]int64{
			"messages": atomic.LoadInt64(&cs.messages),
			"items":    atomic.LoadInt64(&cs.items),
		}
		return true
	})

	cpuPct := 0.0
	if len(cpuPercent) > 0 {
		cpuPct = cpuPercent[0]
	}

	fields := Fields{
		"errors_engine":   atomic.LoadInt64(&errorsEngine),
		"errors_sweep":    atomic.LoadInt64(&errorsSweep),
		"warns_engine":    atomic.LoadInt64(&warnsEngine),
		"warns_sweep":     atomic.LoadInt64(&warnsSweep),
		"valuations":      atomic.LoadInt64(&valuations),
		"greeks_reports":  atomic.LoadInt64(&greeksReports),
		"sweep_cells":     atomic.LoadInt64(&sweepCells),
		"paths_simulated": atomic.LoadInt64(&pathsSimulated),
		"goroutines":      runtime.NumGoroutine(),
		"cpu_percent":     cpuPct,
		"memory_mb":       int64(memStats.Used) / 1024 / 1024,
		"channels":        channelData,
	}

	log.WithComponent("report").WithFields(fields).Info("runtime report")
}
