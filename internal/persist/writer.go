package persist

import (
	"context"
	"errors"
	"sync"

	"pkt.systems/pslog"
	"pkt.systems/tabstack/schema"
)

// ErrWriterClosed is returned by Submit after Close.
var ErrWriterClosed = errors.New("snapshot writer closed")

// SaveFunc stores one snapshot.
type SaveFunc func(ctx context.Context, snapshot schema.NavSnapshot) error

// Writer serialises the snapshot saves of one session on a single goroutine.
// Submit never blocks; when saves fall behind only the newest pending
// snapshot is written, so an older state never lands after a newer one.
type Writer struct {
	save   SaveFunc
	logger pslog.Logger

	mu      sync.Mutex
	pending *schema.NavSnapshot
	closed  bool
	lastErr error
	written int

	wake chan struct{}
	done chan struct{}
}

// NewWriter starts a writer that saves with ctx. Pass a context that outlives
// the session (for example context.WithoutCancel) so the final save in Close
// still runs after a disconnect.
func NewWriter(ctx context.Context, save SaveFunc, logger pslog.Logger) *Writer {
	if logger == nil {
		logger = pslog.Ctx(ctx)
	}
	w := &Writer{
		save:   save,
		logger: logger,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go w.run(ctx)
	return w
}

// Submit queues snapshot, replacing any snapshot not yet written. It returns
// the error of the last completed save once, so callers can surface it.
func (w *Writer) Submit(snapshot schema.NavSnapshot) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrWriterClosed
	}
	snap := snapshot.Clone()
	w.pending = &snap
	err := w.lastErr
	w.lastErr = nil
	w.mu.Unlock()
	w.signal()
	return err
}

// Close queues final (when non-nil) as the last snapshot, waits for the
// queue to drain and returns the error of the last save.
func (w *Writer) Close(ctx context.Context, final *schema.NavSnapshot) error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		if final != nil {
			snap := final.Clone()
			w.pending = &snap
		}
	}
	w.mu.Unlock()
	w.signal()
	select {
	case <-w.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

// Written reports how many saves have completed.
func (w *Writer) Written() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.written
}

func (w *Writer) signal() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *Writer) run(ctx context.Context) {
	defer close(w.done)
	for range w.wake {
		for {
			w.mu.Lock()
			snap := w.pending
			w.pending = nil
			closed := w.closed
			w.mu.Unlock()
			if snap == nil {
				if closed {
					return
				}
				break
			}
			err := w.save(ctx, *snap)
			if err != nil {
				w.logger.Warn("snapshot save failed", "err", err, "active_tab", snap.ActiveTab)
			}
			w.mu.Lock()
			w.lastErr = err
			w.written++
			w.mu.Unlock()
		}
	}
}
