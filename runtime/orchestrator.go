package runtime

import (
	"context"
	"gatekeeper/contract"
	"gatekeeper/domain"
	"gatekeeper/domain/event"
	"gatekeeper/runtime/workers"
	"log/slog"
	"sync"
	"time"
)

var _ contract.Dispatcher = (*Orchestrator)(nil)

// Orchestrator shards inbound events by user over a pool of supervised
// workers, next to the long running background workers.
type Orchestrator struct {
	mu             sync.Mutex
	log            *slog.Logger
	supervisor     contract.ISupervisor
	handler        contract.EventHandler
	shards         []chan event.Event
	background     []contract.Worker
	handlerTimeout time.Duration
	done           chan struct{}
	stopOnce       sync.Once
}

func NewOrchestrator(
	log *slog.Logger,
	supervisor contract.ISupervisor,
	handler contract.EventHandler,
	numWorkers, bufferSize int,
	handlerTimeout time.Duration,
) *Orchestrator {
	if numWorkers < 1 {
		numWorkers = 1
	}
	shards := make([]chan event.Event, numWorkers)
	for i := range shards {
		shards[i] = make(chan event.Event, bufferSize)
	}
	return &Orchestrator{
		log:            log,
		supervisor:     supervisor,
		handler:        handler,
		shards:         shards,
		handlerTimeout: handlerTimeout,
		done:           make(chan struct{}),
	}
}

// Add registers background workers started along with the pool.
func (o *Orchestrator) Add(workers ...contract.Worker) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.background = append(o.background, workers...)
}

// Dispatch blocks until the event is queued on the shard of its user, or the orchestrator stopped.
func (o *Orchestrator) Dispatch(evt event.Event) {
	shard := o.shards[o.shardOf(evt.Subject())]
	select {
	case shard <- evt:
	case <-o.done:
		o.log.Debug("Orchestrator stopped, event dropped", "user_id", evt.Subject())
	}
}

func (o *Orchestrator) shardOf(userID domain.UserID) int {
	return int(uint64(userID) % uint64(len(o.shards)))
}

// Start registers every worker to the supervisor and blocks until ctx is cancelled or Stop is called.
func (o *Orchestrator) Start(ctx context.Context) error {
	// Preparation phase (No Lock)
	pool := make([]contract.Worker, 0, len(o.shards))
	for i, shard := range o.shards {
		pool = append(pool, workers.NewEventWorker(i, shard, o.handler, o.handlerTimeout, o.log))
	}

	// Critical Section (Short Lock)
	o.mu.Lock()
	o.supervisor.Add(pool...)
	o.supervisor.Add(o.background...)
	o.mu.Unlock()

	o.log.Info("Starting orchestrator and all supervised workers", "event_workers", len(pool))
	o.supervisor.Run(ctx)
	o.markDone()
	return nil
}

// Stop initiates a graceful shutdown: pending Dispatch calls return and workers are cancelled.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.markDone()
	o.supervisor.Stop()
}

func (o *Orchestrator) markDone() {
	o.stopOnce.Do(func() { close(o.done) })
}
