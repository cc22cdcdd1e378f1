// Package workerpool runs independent jobs on a fixed set of goroutines.
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// Common errors
var (
	ErrPoolClosed   = errors.New("workerpool: pool is closed")
	ErrPoolRunning  = errors.New("workerpool: pool is already running")
	ErrInvalidSize  = errors.New("workerpool: invalid pool size")
	ErrTaskPanic    = errors.New("workerpool: task panicked")
	ErrTaskCanceled = errors.New("workerpool: task canceled")
)

// TaskFunc is a unit of work that produces a value.
type TaskFunc func(ctx context.Context) (interface{}, error)

// Result is the outcome of one task. Index is the task's position in a Map call.
type Result struct {
	Index int
	Value interface{}
	Error error
}

// Config holds worker pool configuration
type Config struct {
	// Size is the number of workers in the pool
	Size int
	// QueueSize is the task queue buffer size (0 = unbuffered)
	QueueSize int
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		Size:      4,
		QueueSize: 64,
	}
}

// Pool is a fixed-size worker pool.
type Pool struct {
	config  Config
	tasks   chan taskWrapper
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	running atomic.Bool
	closed  atomic.Bool
	mu      sync.RWMutex
	busy    atomic.Int32
	taskCnt atomic.Int64
	errCnt  atomic.Int64
}

type taskWrapper struct {
	index  int
	fn     TaskFunc
	result chan<- Result
	ctx    context.Context
}

// New creates a new worker pool with the given configuration
func New(config Config) (*Pool, error) {
	if config.Size <= 0 || config.QueueSize < 0 {
		return nil, ErrInvalidSize
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		config: config,
		tasks:  make(chan taskWrapper, config.QueueSize),
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Start starts the worker pool
func (p *Pool) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed.Load() {
		return ErrPoolClosed
	}
	if p.running.Load() {
		return ErrPoolRunning
	}

	for i := 0; i < p.config.Size; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	p.running.Store(true)
	return nil
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case w, ok := <-p.tasks:
			if !ok {
				return
			}
			p.execute(w)
		}
	}
}

// execute runs one task; a panic becomes ErrTaskPanic.
func (p *Pool) execute(w taskWrapper) {
	p.busy.Add(1)
	defer p.busy.Add(-1)
	p.taskCnt.Add(1)

	res := Result{Index: w.index}
	defer func() {
		if r := recover(); r != nil {
			res.Value = nil
			res.Error = fmt.Errorf("%w: %v", ErrTaskPanic, r)
		}
		if res.Error != nil {
			p.errCnt.Add(1)
		}
		w.result <- res
	}()

	if w.ctx.Err() != nil {
		res.Error = fmt.Errorf("%w: %v", ErrTaskCanceled, w.ctx.Err())
		return
	}
	res.Value, res.Error = w.fn(w.ctx)
}

// Submit queues fn and returns a channel that receives exactly one Result.
func (p *Pool) Submit(ctx context.Context, fn TaskFunc) (<-chan Result, error) {
	ch := make(chan Result, 1)
	if err := p.enqueue(ctx, taskWrapper{fn: fn, result: ch, ctx: ctx}); err != nil {
		return nil, err
	}
	return ch, nil
}

func (p *Pool) enqueue(ctx context.Context, w taskWrapper) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.running.Load() || p.closed.Load() {
		return ErrPoolClosed
	}
	select {
	case p.tasks <- w:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.ctx.Done():
		return ErrPoolClosed
	}
}

// Map runs fn for i in [0,n) and returns the results ordered by i. Tasks that
// could not be queued carry the enqueue error.
func (p *Pool) Map(ctx context.Context, n int, fn func(ctx context.Context, i int) (interface{}, error)) []Result {
	results := make([]Result, n)
	ch := make(chan Result, n)

	pending := 0
	for i := 0; i < n; i++ {
		i := i
		w := taskWrapper{
			index:  i,
			fn:     func(ctx context.Context) (interface{}, error) { return fn(ctx, i) },
			result: ch,
			ctx:    ctx,
		}
		if err := p.enqueue(ctx, w); err != nil {
			results[i] = Result{Index: i, Error: err}
			continue
		}
		pending++
	}

	for ; pending > 0; pending-- {
		r := <-ch
		results[r.Index] = r
	}
	return results
}

// Close stops accepting work, waits for queued tasks to drain and stops the workers.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed.Swap(true) {
		return nil
	}
	p.running.Store(false)
	close(p.tasks)
	p.wg.Wait()
	p.cancel()
	return nil
}

// Stats holds pool statistics
type Stats struct {
	Workers       int
	Busy          int
	TasksExecuted int64
	TasksFailed   int64
	QueueSize     int
	MaxQueueSize  int
	IsRunning     bool
	IsClosed      bool
}

// Stats returns current pool statistics
func (p *Pool) Stats() Stats {
	workers := 0
	if p.running.Load() {
		workers = p.config.Size
	}
	return Stats{
		Workers:       workers,
		Busy:          int(p.busy.Load()),
		TasksExecuted: p.taskCnt.Load(),
		TasksFailed:   p.errCnt.Load(),
		QueueSize:     len(p.tasks),
		MaxQueueSize:  p.config.QueueSize,
		IsRunning:     p.running.Load(),
		IsClosed:      p.closed.Load(),
	}
}
