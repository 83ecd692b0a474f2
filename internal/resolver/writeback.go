package resolver

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/StudentTraineeCenter/Borealis-satellite-chatbot/internal/core/model"
	"github.com/StudentTraineeCenter/Borealis-satellite-chatbot/internal/core/observability"
	"github.com/StudentTraineeCenter/Borealis-satellite-chatbot/internal/passstore"
)

// Batch is the output of one upstream success. Records are inserted in order.
type Batch struct {
	Object  model.TrackedObject
	Records []model.PassRecord
}

type WriteBackConfig struct {
	Workers   int
	Queue     int
	Retries   int
	OpTimeout time.Duration
	Backoff   time.Duration
}

// WriteBack inserts upstream results off the request path. A full queue drops
// the batch; a failed insert is retried, then logged and counted.
type WriteBack struct {
	logger *slog.Logger
	store  passstore.Store
	cfg    WriteBackConfig

	mu      sync.RWMutex
	closed  bool
	jobs    chan Batch
	workers sync.WaitGroup

	// accepted batches not yet written; idle is closed when it drops to zero
	pmu     sync.Mutex
	pending int
	idle    chan struct{}
}

func NewWriteBack(logger *slog.Logger, store passstore.Store, cfg WriteBackConfig) *WriteBack {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.Queue <= 0 {
		cfg.Queue = 256
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = 2 * time.Second
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 50 * time.Millisecond
	}
	w := &WriteBack{
		logger: logger,
		store:  store,
		cfg:    cfg,
		jobs:   make(chan Batch, cfg.Queue),
	}
	for range cfg.Workers {
		w.workers.Add(1)
		go w.run()
	}
	return w
}

// Submit enqueues b without blocking. It reports false when b was dropped.
func (w *WriteBack) Submit(b Batch) bool {
	if len(b.Records) == 0 {
		return true
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		w.drop(b, "closed")
		return false
	}
	w.begin()
	select {
	case w.jobs <- b:
		return true
	default:
		w.end()
		w.drop(b, "queue full")
		return false
	}
}

func (w *WriteBack) drop(b Batch, reason string) {
	observability.IncWriteBackDropped()
	w.logger.Warn("write-back batch dropped",
		"reason", reason, "satid", b.Object.ID, "records", len(b.Records))
}

func (w *WriteBack) begin() {
	w.pmu.Lock()
	if w.pending == 0 {
		w.idle = make(chan struct{})
	}
	w.pending++
	w.pmu.Unlock()
}

func (w *WriteBack) end() {
	w.pmu.Lock()
	w.pending--
	if w.pending == 0 {
		close(w.idle)
	}
	w.pmu.Unlock()
}

// Flush waits until no accepted batch is outstanding. It is safe to call
// while other goroutines keep submitting.
func (w *WriteBack) Flush(ctx context.Context) error {
	w.pmu.Lock()
	if w.pending == 0 {
		w.pmu.Unlock()
		return nil
	}
	idle := w.idle
	w.pmu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting batches and drains the queue.
func (w *WriteBack) Close(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.jobs)
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		w.workers.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *WriteBack) run() {
	defer w.workers.Done()
	for b := range w.jobs {
		w.write(b)
		w.end()
	}
}

func (w *WriteBack) write(b Batch) {
	for _, rec := range b.Records {
		if err := insertWithRetry(w.store, b.Object, rec, w.cfg); err != nil {
			logWriteFailure(context.Background(), w.logger, b.Object, rec, err)
		}
	}
}

func insertWithRetry(store passstore.Store, obj model.TrackedObject, rec model.PassRecord, cfg WriteBackConfig) error {
	var err error
	delay := cfg.Backoff
	for attempt := 0; attempt <= cfg.Retries; attempt++ {
		if attempt > 0 {
			time.Sleep(delay)
			delay *= 2
		}
		ctx, cancel := context.WithTimeout(context.Background(), cfg.OpTimeout)
		err = store.Insert(ctx, obj, rec)
		cancel()
		if err == nil {
			return nil
		}
	}
	return err
}

func logWriteFailure(ctx context.Context, logger *slog.Logger, obj model.TrackedObject, rec model.PassRecord, err error) {
	observability.IncCacheWriteFailure()
	var we *passstore.WriteError
	op := "insert"
	if errors.As(err, &we) {
		op = we.Op
	}
	logger.ErrorContext(ctx, "cache write failed",
		"op", op, "satid", obj.ID, "start_utc", rec.StartUTC, "err", err)
}
