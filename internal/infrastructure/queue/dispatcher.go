package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/midnightlabs/midnight/internal/core/ports"
	"github.com/midnightlabs/midnight/internal/pkg/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	jobTimeout     = 10 * time.Second
)

type jobKind int

const (
	jobPut jobKind = iota
	jobRemove
)

func (k jobKind) String() string {
	if k == jobRemove {
		return "remove"
	}
	return "put"
}

type job struct {
	kind       jobKind
	collection string
	id         string
	record     any
	// localOnly is decided at enqueue time; such jobs never reach the remote.
	localOnly bool
}

// Dispatcher replicates local mutations to the remote store. Jobs are
// sharded by collection and record id, so writes to the same record are
// applied in the order they were committed.
type Dispatcher struct {
	workers   []chan job
	remote    ports.RemoteStore
	localOnly func() bool
	log       zerolog.Logger

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

var _ ports.Mirror = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used. localOnly is read when a job
// is enqueued; jobs accepted while it reports true are discarded by the
// worker. A nil localOnly mirrors everything.
func NewDispatcher(numWorkers int, remote ports.RemoteStore, localOnly func() bool, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	if localOnly == nil {
		localOnly = func() bool { return false }
	}
	d := &Dispatcher{
		workers:   make([]chan job, numWorkers),
		remote:    remote,
		localOnly: localOnly,
		log:       log.With().Str("component", "mirror").Logger(),
	}
	for i := range d.workers {
		d.workers[i] = make(chan job, channelBuffer)
	}
	return d
}

// Start launches the worker goroutines. Remote calls are made under ctx.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Stop closes the queues and waits until every accepted job has been
// attempted. Jobs enqueued after Stop are dropped.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	for _, ch := range d.workers {
		close(ch)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) Put(collection, id string, record any) {
	d.enqueue(job{kind: jobPut, collection: collection, id: id, record: record})
}

func (d *Dispatcher) Remove(collection, id string) {
	d.enqueue(job{kind: jobRemove, collection: collection, id: id})
}

func (d *Dispatcher) enqueue(j job) {
	j.localOnly = d.localOnly()
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		d.log.Warn().Str("collection", j.collection).Str("id", j.id).Msg("mirror stopped, job dropped")
		return
	}
	idx := d.shardIndex(j.collection, j.id)
	d.workers[idx] <- j
	metrics.MirrorQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
}

func (d *Dispatcher) shardIndex(collection, id string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(collection))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(id))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, idx int, ch <-chan job) {
	defer d.wg.Done()
	label := strconv.Itoa(idx)
	for j := range ch {
		metrics.MirrorQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
		if err := d.apply(ctx, j); err != nil {
			metrics.MirrorErrorsTotal.WithLabelValues(j.collection, j.kind.String()).Inc()
			d.log.Error().Err(err).
				Str("collection", j.collection).
				Str("id", j.id).
				Str("op", j.kind.String()).
				Int("worker_id", idx).
				Msg("mirror write failed")
		}
	}
}

func (d *Dispatcher) apply(ctx context.Context, j job) error {
	if j.localOnly {
		metrics.RemoteSuppressedTotal.WithLabelValues("mirror_" + j.kind.String()).Inc()
		d.log.Debug().Str("collection", j.collection).Str("id", j.id).Msg("local-only job skipped")
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()
	if j.kind == jobRemove {
		return d.remote.Delete(ctx, j.collection, j.id)
	}
	_, err := d.remote.Create(ctx, j.collection, j.record, j.id)
	return err
}
