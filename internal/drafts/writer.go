package drafts

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/abrezinsky/bisadmin/internal/logger"
)

// ErrWriterClosed is returned for work submitted after Close
var ErrWriterClosed = errors.New("draft writer closed")

// writeTimeout bounds a single flush
const writeTimeout = 5 * time.Second

type stepKey struct {
	kind, id, step string
}

type writerOp struct {
	change  *ChangeEvent
	discard *stepKey // step is ignored
	flush   bool
	ack     chan error
}

// Writer is the single consumer of form-change events. Bursts of changes
// to the same (kind, id, step) are coalesced to the latest values and
// written on every tick, on Flush and on Close.
type Writer struct {
	log      logger.Logger
	store    Store
	interval time.Duration
	ops      chan writerOp
	quit     chan struct{}
	done     chan struct{}
	once     sync.Once
}

// NewWriter starts the writer goroutine
func NewWriter(log logger.Logger, store Store, interval time.Duration) *Writer {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	w := &Writer{
		log:      log,
		store:    store,
		interval: interval,
		ops:      make(chan writerOp, 64),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go w.run()
	return w
}

// Submit queues a change. It does not wait for the write.
func (w *Writer) Submit(ev ChangeEvent) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	return w.send(writerOp{change: &ev})
}

// Discard drops pending changes of a form and deletes its stored draft.
// Changes submitted before Discard are never written after it.
func (w *Writer) Discard(ctx context.Context, kind, id string) error {
	ack := make(chan error, 1)
	if err := w.send(writerOp{discard: &stepKey{kind: kind, id: id}, ack: ack}); err != nil {
		return err
	}
	return w.wait(ctx, ack)
}

// Flush writes every pending change and waits for completion
func (w *Writer) Flush(ctx context.Context) error {
	ack := make(chan error, 1)
	if err := w.send(writerOp{flush: true, ack: ack}); err != nil {
		return err
	}
	return w.wait(ctx, ack)
}

// Close flushes pending changes and stops the goroutine
func (w *Writer) Close() error {
	w.once.Do(func() { close(w.quit) })
	<-w.done
	return nil
}

func (w *Writer) send(op writerOp) error {
	select {
	case <-w.quit:
		return ErrWriterClosed
	default:
	}
	select {
	case w.ops <- op:
		return nil
	case <-w.quit:
		return ErrWriterClosed
	}
}

func (w *Writer) wait(ctx context.Context, ack chan error) error {
	select {
	case err := <-ack:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-w.done:
		// the op may have been handled just before shutdown
		select {
		case err := <-ack:
			return err
		default:
			return ErrWriterClosed
		}
	}
}

func (w *Writer) run() {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	pending := make(map[stepKey]ChangeEvent)
	var order []stepKey

	flush := func() error {
		if len(order) == 0 {
			return nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()

		var firstErr error
		for _, k := range order {
			ev, ok := pending[k]
			if !ok {
				continue
			}
			delete(pending, k)
			if err := w.store.Persist(ctx, ev); err != nil {
				w.log.Error("Failed to persist draft", "kind", ev.Kind, "id", ev.ID, "step", ev.Step, "error", err)
				if firstErr == nil {
					firstErr = err
				}
			}
		}
		order = order[:0]
		return firstErr
	}

	handle := func(op writerOp) {
		switch {
		case op.change != nil:
			k := stepKey{op.change.Kind, op.change.ID, op.change.Step}
			if _, ok := pending[k]; !ok {
				order = append(order, k)
			}
			pending[k] = *op.change
		case op.discard != nil:
			for k := range pending {
				if k.kind == op.discard.kind && k.id == op.discard.id {
					delete(pending, k)
				}
			}
			ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
			op.ack <- w.store.Clear(ctx, op.discard.kind, op.discard.id)
			cancel()
		case op.flush:
			op.ack <- flush()
		}
	}

	for {
		select {
		case op := <-w.ops:
			handle(op)
		case <-ticker.C:
			flush()
		case <-w.quit:
			// drain what was queued before Close
			for {
				select {
				case op := <-w.ops:
					handle(op)
				default:
					if err := flush(); err != nil {
						w.log.Error("Draft writer stopped with unsaved changes", "error", err)
					}
					return
				}
			}
		}
	}
}
