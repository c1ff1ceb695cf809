package workers

import (
	"context"
	"gatekeeper/contract"
	"gatekeeper/observability"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

var _ contract.Worker = (*HeartbeatWorker)(nil)

// Counter reports the size of an in-memory table, like pending sessions or collector states.
type Counter interface {
	Len() int
}

type HeartbeatWorker struct {
	log        *slog.Logger
	metrics    *observability.Metrics
	pending    Counter
	collecting Counter
	interval   time.Duration
}

func NewHeartbeatWorker(
	log *slog.Logger,
	metrics *observability.Metrics,
	pending Counter,
	collecting Counter,
	interval time.Duration,
) *HeartbeatWorker {
	return &HeartbeatWorker{
		log:        log,
		metrics:    metrics,
		pending:    pending,
		collecting: collecting,
		interval:   interval,
	}
}

// Run samples the process (RAM, CPU), the pending sessions and the collector states every interval.
func (w *HeartbeatWorker) Run(ctx context.Context) error {
	w.log.Info("Starting heartbeat worker", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			pending, collecting := w.pending.Len(), w.collecting.Len()
			w.metrics.SetPendingSessions(pending)
			w.metrics.SetCollectorStates(collecting)

			rss, cpu, status, err := getSelfStats(p)
			if err != nil {
				w.log.Error("Failed to collect self stats", "err", err)
				continue
			}
			w.metrics.SetProcessStats(rss, cpu)
			w.log.Debug("Heartbeat",
				"pending_sessions", pending, "collector_states", collecting, "rss_bytes", rss, "cpu_percent", cpu, "status", status)
		}
	}
}

// getSelfStats retrieves technical metrics (Memory, CPU, and OS Status) for the given process.
func getSelfStats(p *process.Process) (uint64, float64, string, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, "", err
	}

	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, "", err
	}

	status, err := p.Status()
	if err != nil {
		return 0, 0, "", err
	}
	return memInfo.RSS, cpuPercent, status, nil
}
