package persistence

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Writer runs detached writes on a background worker so callers never wait
// for the database.
type Writer struct {
	log     *zap.Logger
	ch      chan func(context.Context)
	timeout time.Duration
	done    chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewWriter starts the worker. queueSize bounds the number of pending writes;
// timeout bounds each write.
func NewWriter(log *zap.Logger, queueSize int, timeout time.Duration) *Writer {
	if queueSize <= 0 {
		queueSize = 1
	}
	w := &Writer{
		log:     log,
		ch:      make(chan func(context.Context), queueSize),
		timeout: timeout,
		done:    make(chan struct{}),
	}
	go w.work()
	return w
}

func (w *Writer) work() {
	defer close(w.done)
	for fn := range w.ch {
		w.run(fn)
	}
}

func (w *Writer) run(fn func(context.Context)) {
	ctx := context.Background()
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("Recovered from panic in background write", zap.Any("panic", r))
		}
	}()
	fn(ctx)
}

// Go queues fn without blocking. It returns false, and logs, when the write
// was dropped because the queue is full or the writer is closed.
func (w *Writer) Go(fn func(context.Context)) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		w.log.Warn("Background write dropped, writer closed")
		return false
	}
	select {
	case w.ch <- fn:
		return true
	default:
		w.log.Warn("Background write dropped, queue full", zap.Int("capacity", cap(w.ch)))
		return false
	}
}

// Close stops accepting writes and waits for queued ones to finish.
func (w *Writer) Close() {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.ch)
	}
	w.mu.Unlock()
	<-w.done
}
