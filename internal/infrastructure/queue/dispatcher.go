package queue

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/leadflow/role-service/internal/core/domain"
	"github.com/leadflow/role-service/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Metrics are the optional instruments a Dispatcher updates. Nil fields are skipped.
type Metrics struct {
	Depth   prometheus.Gauge
	Dropped prometheus.Counter
}

// Dispatcher routes role change events to a fixed set of workers using
// consistent hashing on the target uid, so changes to one user are processed
// in the order they were applied.
type Dispatcher struct {
	workers   []chan domain.RoleChangeEvent
	processor ports.RoleEventProcessor
	metrics   Metrics
	log       zerolog.Logger
	wg        sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, processor ports.RoleEventProcessor, m Metrics, log zerolog.Logger) *Dispatcher {
	return newDispatcher(numWorkers, channelBuffer, processor, m, log)
}

func newDispatcher(numWorkers, buffer int, processor ports.RoleEventProcessor, m Metrics, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:   make([]chan domain.RoleChangeEvent, numWorkers),
		processor: processor,
		metrics:   m,
		log:       log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.RoleChangeEvent, buffer)
	}
	return d
}

// Start launches all worker goroutines. On ctx cancellation each worker
// processes what is already buffered and then returns.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Publish hands an event to the worker responsible for its target. It never
// blocks: when that worker's buffer is full the event is dropped and counted.
func (d *Dispatcher) Publish(event domain.RoleChangeEvent) {
	shard := d.shardIndex(event.TargetUID)
	select {
	case d.workers[shard] <- event:
		if d.metrics.Depth != nil {
			d.metrics.Depth.Inc()
		}
	default:
		if d.metrics.Dropped != nil {
			d.metrics.Dropped.Inc()
		}
		d.log.Warn().
			Str("target", event.TargetUID).
			Str("role", string(event.NewRole)).
			Int("worker_id", shard).
			Msg("role change dropped: worker queue full")
	}
}

// shardIndex maps a target uid deterministically to a worker index.
func (d *Dispatcher) shardIndex(targetUID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(targetUID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.RoleChangeEvent) {
	defer d.wg.Done()
	// Detached so a shutdown does not abort a half-written record.
	procCtx := context.WithoutCancel(ctx)
	for {
		select {
		case <-ctx.Done():
			d.drain(procCtx, id, ch)
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			d.handle(procCtx, id, event)
		}
	}
}

func (d *Dispatcher) drain(ctx context.Context, id int, ch <-chan domain.RoleChangeEvent) {
	drained := 0
	defer func() {
		if drained > 0 {
			d.log.Info().Int("worker_id", id).Int("events", drained).Msg("drained role changes on shutdown")
		}
	}()
	for {
		select {
		case event, ok := <-ch:
			if !ok {
				return
			}
			d.handle(ctx, id, event)
			drained++
		default:
			return
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, id int, event domain.RoleChangeEvent) {
	if d.metrics.Depth != nil {
		d.metrics.Depth.Dec()
	}
	if err := d.processor.Process(ctx, event); err != nil {
		d.log.Error().Err(err).
			Str("target", event.TargetUID).
			Str("role", string(event.NewRole)).
			Int("worker_id", id).
			Msg("role change processing failed")
	}
}
