// Package worker drains the profile write queue into the document store.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/okian/skillup/internal/adapters/mq/queue"
	"github.com/okian/skillup/internal/domain/model"
	"github.com/okian/skillup/pkg/logger"
	"github.com/okian/skillup/pkg/metrics"
)

const (
	defaultWriteTimeout = 5 * time.Second
	defaultWorkerCount  = 4
)

// Writer persists a profile document.
type Writer interface {
	Set(ctx context.Context, uid string, p model.Profile, merge bool) error
}

// Queue defines how workers receive writes.
type Queue interface {
	Dequeue() <-chan queue.Write
}

// Admission is consulted before each write. It returns ok=false to drop a
// superseded write; otherwise the write runs and release is called after it.
type Admission func(w queue.Write) (release func(), ok bool)

func admitAll(queue.Write) (func(), bool) { return func() {}, true }

// Worker persists writes read off a queue.
type Worker struct {
	queue   Queue
	writer  Writer
	name    string
	timeout time.Duration
	now     func() time.Time
	admit   Admission

	stats *counters

	shutdown chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	logger logger.Logger
}

type counters struct {
	written atomic.Int64
	failed  atomic.Int64
	skipped atomic.Int64
}

// NewWorker creates a worker.
func NewWorker(q Queue, w Writer, opts ...Option) *Worker {
	wk := &Worker{
		queue:    q,
		writer:   w,
		name:     "writer",
		timeout:  defaultWriteTimeout,
		now:      time.Now,
		admit:    admitAll,
		stats:    &counters{},
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(wk)
	}
	wk.logger = wk.logger.Named(wk.name)
	return wk
}

// Run processes writes until the queue is closed and drained, Shutdown is
// called, or ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	writes := w.queue.Dequeue()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case pw, ok := <-writes:
			if !ok {
				return
			}
			metrics.RecordQueueDequeue()
			if err := w.process(ctx, pw); err != nil {
				w.logger.Error(ctx, "profile write failed",
					logger.String("uid", pw.UserID),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown stops the worker without draining.
func (w *Worker) Shutdown(ctx context.Context) error {
	w.stop()
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *Worker) stop() {
	w.stopOnce.Do(func() { close(w.shutdown) })
}

func (w *Worker) process(ctx context.Context, pw queue.Write) error { //nolint:gocritic // hugeParam: passed by value for channel semantics
	release, ok := w.admit(pw)
	if !ok {
		w.stats.skipped.Add(1)
		metrics.RecordWrite("superseded", 0)
		w.logger.Debug(ctx, "profile write superseded",
			logger.String("uid", pw.UserID),
			logger.Any("seq", pw.Seq),
		)
		return nil
	}
	defer release()

	start := w.now()
	wctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	doc := model.Profile{PersonalDetails: pw.Details}
	err := w.writer.Set(wctx, pw.UserID, doc, true)
	ms := float64(time.Since(start).Milliseconds())
	if err != nil {
		w.stats.failed.Add(1)
		metrics.RecordWrite("error", ms)
		metrics.RecordErrorByComponent("worker", "write_error")
		return fmt.Errorf("persist profile %s: %w", pw.UserID, err)
	}
	w.stats.written.Add(1)
	metrics.RecordWrite("ok", ms)
	w.logger.Debug(ctx, "profile persisted",
		logger.String("uid", pw.UserID),
		logger.Duration("queued_for", start.Sub(pw.EnqueuedAt)),
	)
	return nil
}

// Stats reports pool totals.
type Stats struct {
	Workers    int   `json:"workers"`
	Written    int64 `json:"written"`
	Failed     int64 `json:"failed"`
	Superseded int64 `json:"superseded"`
}

// lane feeds exactly one worker.
type lane chan queue.Write

func (l lane) Dequeue() <-chan queue.Write { return l }

// Pool runs a fixed number of workers over one queue. Writes are routed to
// a worker by user id, so each user's writes are persisted one at a time in
// queue order.
type Pool struct {
	workers []*Worker
	lanes   []lane
	queue   Queue
	stats   *counters
	wg      sync.WaitGroup
	started atomic.Bool

	quit     chan struct{}
	quitOnce sync.Once

	logger logger.Logger
}

// NewPool creates a pool of n workers. n < 1 uses the default count.
func NewPool(n int, q Queue, w Writer, opts ...Option) *Pool {
	if n < 1 {
		n = defaultWorkerCount
	}
	p := &Pool{
		workers: make([]*Worker, n),
		lanes:   make([]lane, n),
		queue:   q,
		stats:   &counters{},
		quit:    make(chan struct{}),
		logger:  logger.Nop(),
	}
	for i := range p.workers {
		p.lanes[i] = make(lane)
		wopts := append([]Option{}, opts...)
		wopts = append(wopts, WithName("writer-"+strconv.Itoa(i)))
		wk := NewWorker(p.lanes[i], w, wopts...)
		wk.stats = p.stats
		p.workers[i] = wk
		if i == 0 {
			p.logger = wk.logger
		}
	}
	metrics.UpdateWriterCount(n)
	return p
}

// Start launches the dispatcher and every worker.
func (p *Pool) Start(ctx context.Context) {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.dispatch(ctx)
	}()
	for _, wk := range p.workers {
		p.wg.Add(1)
		go func(wk *Worker) {
			defer p.wg.Done()
			wk.Run(ctx)
		}(wk)
	}
}

// dispatch moves writes from the queue to their user's lane until the queue
// is closed and drained. Closing the lanes lets the workers finish.
func (p *Pool) dispatch(ctx context.Context) {
	defer func() {
		for _, l := range p.lanes {
			close(l)
		}
	}()

	src := p.queue.Dequeue()
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.quit:
			return
		case pw, ok := <-src:
			if !ok {
				return
			}
			select {
			case p.lanes[p.route(pw.UserID)] <- pw:
			case <-ctx.Done():
				return
			case <-p.quit:
				return
			}
		}
	}
}

func (p *Pool) route(uid string) int {
	return int(xxhash.Sum64String(uid) % uint64(len(p.lanes)))
}

// Shutdown closes the queue, lets workers drain what is buffered and waits
// for them until ctx expires.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		metrics.UpdateWriterCount(0)
		return nil
	case <-ctx.Done():
		p.quitOnce.Do(func() { close(p.quit) })
		for _, wk := range p.workers {
			wk.stop()
		}
		p.logger.Warn(ctx, "writer pool shutdown timed out")
		return fmt.Errorf("writer pool shutdown: %w", ctx.Err())
	}
}

// Stats returns pool totals.
func (p *Pool) Stats() Stats {
	return Stats{
		Workers:    len(p.workers),
		Written:    p.stats.written.Load(),
		Failed:     p.stats.failed.Load(),
		Superseded: p.stats.skipped.Load(),
	}
}
