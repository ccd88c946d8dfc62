package worker

import (
	"context"
	"sync"
)

// Job is a unit of work the pool can execute
type Job interface {
	Execute(ctx context.Context) Result
}

// Result is the outcome of one executed job
type Result interface {
	GetError() error
}

// Pool runs submitted jobs across a fixed number of goroutines. It exists for
// workloads above the per-batch fan-out, like verifying a directory of
// payload files.
type Pool struct {
	workers    int
	jobs       chan Job
	results    chan Result
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc
	closeOnce  sync.Once
}

// NewPool creates a pool with the given number of workers
func NewPool(workers int) *Pool {
	return NewPoolWithQueue(workers, 0)
}

// NewPoolWithQueue creates a pool whose queue can hold queueSize pending
// jobs. A producer that submits its whole workload before draining results
// must size the queue to that workload, or Submit blocks once the buffers
// fill.
func NewPoolWithQueue(workers, queueSize int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize < workers*2 {
		queueSize = workers * 2
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		workers:    workers,
		jobs:       make(chan Job, queueSize),
		results:    make(chan Result, queueSize),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// Start launches the worker goroutines
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			result := job.Execute(p.ctx)
			select {
			case p.results <- result:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// Submit queues a job. Submissions after Shutdown are dropped.
func (p *Pool) Submit(job Job) {
	select {
	case <-p.ctx.Done():
		return
	case p.jobs <- job:
	}
}

// Wait closes the queue, waits for the workers to drain it and returns every
// collected result
func (p *Pool) Wait() []Result {
	close(p.jobs)

	go func() {
		p.wg.Wait()
		p.closeResults()
	}()

	var results []Result
	for result := range p.results {
		results = append(results, result)
	}

	return results
}

// Shutdown stops the pool immediately, abandoning queued jobs
func (p *Pool) Shutdown() {
	p.cancelFunc()
	p.wg.Wait()
	p.closeResults()
}

func (p *Pool) closeResults() {
	p.closeOnce.Do(func() {
		close(p.results)
	})
}
