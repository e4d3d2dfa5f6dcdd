package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/aniemarie21/maes-laboratory-system/pkg/config"
	"github.com/aniemarie21/maes-laboratory-system/pkg/interfaces"
	"github.com/aniemarie21/maes-laboratory-system/pkg/logger"
	"github.com/aniemarie21/maes-laboratory-system/pkg/monitoring"
	"github.com/aniemarie21/maes-laboratory-system/pkg/types"
)

// Write outcomes reported to metrics
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
	OutcomeDropped = "dropped"
)

var (
	errQueueFull    = errors.New("mirror queue is full")
	errOutboxClosed = errors.New("mirror outbox is closed")
)

type job struct {
	collection string
	id         string
	doc        []byte
}

// Outbox is a bounded in-process queue drained by a single worker that
// writes to a DocumentStore with exponential backoff.
type Outbox struct {
	store       interfaces.DocumentStore
	queue       chan job
	maxAttempts int
	baseBackoff time.Duration
	metrics     *monitoring.MetricsCollector
	logger      *logger.Logger

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewOutbox creates an outbox over store. Call Start to run the worker.
func NewOutbox(store interfaces.DocumentStore, cfg config.MirrorConfig, metrics *monitoring.MetricsCollector, log *logger.Logger) *Outbox {
	size := cfg.QueueSize
	if size <= 0 {
		size = 1000
	}
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 5
	}
	return &Outbox{
		store:       store,
		queue:       make(chan job, size),
		maxAttempts: attempts,
		baseBackoff: cfg.BaseBackoff(),
		metrics:     metrics,
		logger:      log,
		done:        make(chan struct{}),
	}
}

// Enqueue snapshots doc as JSON and queues it. It never blocks; when the
// queue is full or closed the write is dropped and false is returned.
func (o *Outbox) Enqueue(collection, id string, doc interface{}) bool {
	data, err := json.Marshal(doc)
	if err != nil {
		o.drop(collection, id, err)
		return false
	}

	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.closed {
		o.drop(collection, id, errOutboxClosed)
		return false
	}

	select {
	case o.queue <- job{collection: collection, id: id, doc: data}:
		o.metrics.SetMirrorQueueDepth(len(o.queue))
		return true
	default:
		o.drop(collection, id, errQueueFull)
		return false
	}
}

func (o *Outbox) drop(collection, id string, cause error) {
	o.metrics.RecordMirrorWrite(collection, OutcomeDropped)
	o.logger.ExternalSync(collection, id, 0, types.NewExternalSyncError(collection, id, cause))
}

// Start runs the worker until ctx is cancelled or the outbox is closed and drained
func (o *Outbox) Start(ctx context.Context) {
	go o.run(ctx)
}

func (o *Outbox) run(ctx context.Context) {
	defer close(o.done)
	for {
		select {
		case <-ctx.Done():
			return
		case j, ok := <-o.queue:
			if !ok {
				return
			}
			o.metrics.SetMirrorQueueDepth(len(o.queue))
			o.write(ctx, j)
		}
	}
}

// write tries a job up to maxAttempts times, doubling the wait each retry
func (o *Outbox) write(ctx context.Context, j job) {
	backoff := o.baseBackoff
	for attempt := 1; attempt <= o.maxAttempts; attempt++ {
		err := o.store.Put(ctx, j.collection, j.id, j.doc)
		if err == nil {
			o.metrics.RecordMirrorWrite(j.collection, OutcomeSuccess)
			o.logger.ExternalSync(j.collection, j.id, attempt, nil)
			return
		}
		o.logger.ExternalSync(j.collection, j.id, attempt, err)

		if attempt == o.maxAttempts || !sleep(ctx, backoff) {
			break
		}
		backoff *= 2
	}

	o.metrics.RecordMirrorWrite(j.collection, OutcomeFailed)
	o.logger.WithComponent("mirror").WithFields(map[string]interface{}{
		"collection": j.collection,
		"doc_id":     j.id,
		"store":      o.store.Name(),
	}).Error("Giving up on document store write")
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Close stops accepting writes and waits for the worker to drain the queue,
// giving up when ctx expires.
func (o *Outbox) Close(ctx context.Context) error {
	o.mu.Lock()
	if !o.closed {
		o.closed = true
		close(o.queue)
	}
	o.mu.Unlock()

	select {
	case <-o.done:
		return nil
	case <-ctx.Done():
		o.logger.WithComponent("mirror").WithField("pending", len(o.queue)).Warn("Mirror outbox closed before draining")
		return ctx.Err()
	}
}

// Pending reports how many writes are queued
func (o *Outbox) Pending() int {
	return len(o.queue)
}
