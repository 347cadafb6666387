package docstore

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"tornado/internal/canvas"
)

// Writer persists boards in the background. Save never blocks: it replaces
// whatever was pending for the project, so a burst of edits collapses into
// one write of the latest collection. Failures are reported, never retried.
type Writer struct {
	store   Store
	logger  *zap.Logger
	onError func(projectID string, err error)
	timeout time.Duration

	mu      sync.Mutex
	pending map[string][]canvas.Node
	closed  bool

	wake  chan struct{}
	flush chan chan struct{}
	quit  chan struct{}
	done  chan struct{}
}

type WriterOption func(*Writer)

// WithErrorHandler registers fn to hear about failed saves. It runs on the
// writer goroutine.
func WithErrorHandler(fn func(projectID string, err error)) WriterOption {
	return func(w *Writer) { w.onError = fn }
}

// WithTimeout bounds each save call. Default: 10s.
func WithTimeout(d time.Duration) WriterOption {
	return func(w *Writer) {
		if d > 0 {
			w.timeout = d
		}
	}
}

func WithLogger(l *zap.Logger) WriterOption {
	return func(w *Writer) {
		if l != nil {
			w.logger = l
		}
	}
}

func NewWriter(store Store, opts ...WriterOption) *Writer {
	w := &Writer{
		store:   store,
		logger:  zap.NewNop(),
		timeout: 10 * time.Second,
		pending: make(map[string][]canvas.Node),
		wake:    make(chan struct{}, 1),
		flush:   make(chan chan struct{}),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, o := range opts {
		o(w)
	}
	go w.loop()
	return w
}

// Save queues nodes as the latest state of projectID.
func (w *Writer) Save(projectID string, nodes []canvas.Node) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		w.logger.Warn("save after close dropped", zap.String("project", projectID))
		return
	}
	w.pending[projectID] = canvas.Clone(nodes)
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Saver adapts the writer to a canvas session bound to projectID.
func (w *Writer) Saver(projectID string) canvas.Saver {
	return func(nodes []canvas.Node) { w.Save(projectID, nodes) }
}

// Flush waits until everything queued before the call has been written.
func (w *Writer) Flush(ctx context.Context) error {
	reply := make(chan struct{})
	select {
	case w.flush <- reply:
	case <-w.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-reply:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close writes what is pending and stops the writer. The store stays open.
func (w *Writer) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	close(w.quit)
	<-w.done
	return nil
}

func (w *Writer) loop() {
	defer close(w.done)
	for {
		select {
		case <-w.wake:
			w.drain()
		case reply := <-w.flush:
			w.drain()
			close(reply)
		case <-w.quit:
			w.drain()
			return
		}
	}
}

func (w *Writer) drain() {
	for {
		w.mu.Lock()
		batch := w.pending
		w.pending = make(map[string][]canvas.Node)
		w.mu.Unlock()
		if len(batch) == 0 {
			return
		}
		for id, nodes := range batch {
			w.write(id, nodes)
		}
	}
}

func (w *Writer) write(projectID string, nodes []canvas.Node) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	start := time.Now()
	err := w.store.Save(ctx, projectID, nodes)
	if err != nil {
		w.logger.Error("save failed",
			zap.String("project", projectID),
			zap.Int("nodes", len(nodes)),
			zap.Error(err),
		)
		if w.onError != nil {
			w.onError(projectID, err)
		}
		return
	}
	w.logger.Debug("saved",
		zap.String("project", projectID),
		zap.Int("nodes", len(nodes)),
		zap.Duration("took", time.Since(start)),
	)
}
