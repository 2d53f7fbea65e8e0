// Package workers provides a bounded worker pool: a queue of jobs drained
// by a fixed number of goroutines that publish one Result per job. The pool
// honors cancellation at the point a worker takes a job off the queue and
// supports an optional rate limit on job starts.
package workers

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/anstrom/netdiag/internal/logging"
)

// Job represents a unit of work to be executed by a worker.
type Job interface {
	// Execute performs the job and returns an error if it fails.
	Execute(ctx context.Context) error
	// ID returns a unique identifier for the job.
	ID() string
	// Type returns the job type for logging.
	Type() string
}

// Result represents the outcome of one submitted job. Skipped is set when
// the pool was canceled before the job started; Error then holds the
// context error.
type Result struct {
	Job      Job
	Seq      int
	Error    error
	Duration time.Duration
	Skipped  bool
}

// Config holds configuration for the worker pool.
type Config struct {
	// Size is the number of worker goroutines to create.
	Size int
	// QueueSize is the maximum number of jobs that can be queued.
	QueueSize int
	// ShutdownTimeout bounds how long Shutdown waits for running jobs.
	ShutdownTimeout time.Duration
	// RateLimit is the maximum number of job starts per second (0 = no limit).
	RateLimit int
}

// DefaultConfig returns a default worker pool configuration.
func DefaultConfig() Config {
	return Config{
		Size:            10,
		QueueSize:       100,
		ShutdownTimeout: 30 * time.Second,
	}
}

type queued struct {
	job Job
	seq int
}

// Pool manages a pool of worker goroutines for concurrent job execution.
type Pool struct {
	config      Config
	jobs        chan queued
	results     chan Result
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	rateLimiter *time.Ticker
	startOnce   sync.Once
	closeOnce   sync.Once
	closed      atomic.Bool
	submitMu    sync.Mutex
	seq         int
	logger      *logging.Logger
}

// New creates a new worker pool with the given configuration. Zero or
// negative sizes fall back to DefaultConfig values.
func New(config Config) *Pool {
	defaults := DefaultConfig()
	if config.Size <= 0 {
		config.Size = defaults.Size
	}
	if config.QueueSize <= 0 {
		config.QueueSize = defaults.QueueSize
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = defaults.ShutdownTimeout
	}

	pool := &Pool{
		config:  config,
		jobs:    make(chan queued, config.QueueSize),
		results: make(chan Result, config.QueueSize),
		logger:  logging.Default().WithComponent("workers"),
	}

	// Set up rate limiter if configured
	if config.RateLimit > 0 {
		interval := time.Second / time.Duration(config.RateLimit)
		pool.rateLimiter = time.NewTicker(interval)
	}

	return pool
}

// Start launches the workers. Canceling ctx makes every job still queued
// come back as a skipped Result instead of running.
func (p *Pool) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		p.ctx, p.cancel = context.WithCancel(ctx)

		p.logger.Debug("Starting worker pool",
			"worker_count", p.config.Size,
			"queue_size", p.config.QueueSize,
			"rate_limit", p.config.RateLimit)

		for i := 0; i < p.config.Size; i++ {
			p.wg.Add(1)
			go p.run(i)
		}

		go func() {
			p.wg.Wait()
			p.cancel()
			if p.rateLimiter != nil {
				p.rateLimiter.Stop()
			}
			close(p.results)
		}()
	})
}

// Submit queues job without blocking and returns its sequence number,
// which increases by one per accepted job starting at zero.
func (p *Pool) Submit(job Job) (int, error) {
	p.submitMu.Lock()
	defer p.submitMu.Unlock()

	if p.closed.Load() {
		return 0, fmt.Errorf("worker pool is closed")
	}

	select {
	case p.jobs <- queued{job: job, seq: p.seq}:
		p.seq++
		return p.seq - 1, nil
	default:
		return 0, fmt.Errorf("job queue is full")
	}
}

// Results returns the channel of job results. It is closed once the pool
// has been closed and every worker has exited.
func (p *Pool) Results() <-chan Result {
	return p.results
}

// Close stops accepting jobs. Workers exit after draining the queue.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		p.submitMu.Lock()
		defer p.submitMu.Unlock()
		p.closed.Store(true)
		close(p.jobs)
	})
}

// Shutdown cancels queued work, closes the pool and waits for the workers
// to exit or the shutdown timeout to pass.
func (p *Pool) Shutdown() error {
	if p.cancel != nil {
		p.cancel()
	}
	p.Close()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(p.config.ShutdownTimeout):
		p.logger.Warn("Worker pool shutdown timed out",
			"timeout", p.config.ShutdownTimeout)
		return fmt.Errorf("worker pool shutdown timed out after %s", p.config.ShutdownTimeout)
	}
}

// Wait blocks until every worker has exited.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// run executes the worker loop.
func (p *Pool) run(id int) {
	defer p.wg.Done()

	for item := range p.jobs {
		if err := p.ctx.Err(); err != nil {
			p.results <- Result{Job: item.job, Seq: item.seq, Error: err, Skipped: true}
			continue
		}

		if p.rateLimiter != nil {
			select {
			case <-p.rateLimiter.C:
			case <-p.ctx.Done():
				p.results <- Result{Job: item.job, Seq: item.seq, Error: p.ctx.Err(), Skipped: true}
				continue
			}
		}

		p.results <- p.execute(id, item)
	}
}

func (p *Pool) execute(id int, item queued) Result {
	start := time.Now()
	err := item.job.Execute(p.ctx)
	duration := time.Since(start)

	if err != nil {
		p.logger.Debug("Job failed",
			"job_id", item.job.ID(),
			"job_type", item.job.Type(),
			"worker_id", id,
			"error", err)
	}

	return Result{Job: item.job, Seq: item.seq, Error: err, Duration: duration}
}
