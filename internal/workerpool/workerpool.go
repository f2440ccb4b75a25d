// Package workerpool contains a bounded pool of workers.
package workerpool

import (
	"context"
	"sync"
)

// Pool is a bounded pool of workers
// that allows to detach CPU-bound jobs from the routine that schedules them.
// Completion must be signaled by the jobs themselves.
type Pool struct {
	Workers   int
	QueueSize int

	running   bool
	queue     chan func(context.Context)
	ctx       context.Context
	ctxCancel func()
	wg        sync.WaitGroup
}

// Initialize initializes the pool.
func (p *Pool) Initialize() {
	if p.Workers <= 0 {
		p.Workers = 1
	}
	if p.QueueSize <= 0 {
		p.QueueSize = 64
	}

	p.queue = make(chan func(context.Context), p.QueueSize)
	p.ctx, p.ctxCancel = context.WithCancel(context.Background())
}

// Close closes the pool.
// Queued jobs that were not started are discarded.
func (p *Pool) Close() {
	p.ctxCancel()

	if p.running {
		p.wg.Wait()
	}
}

// Start starts the workers.
func (p *Pool) Start() {
	p.running = true

	for range p.Workers {
		p.wg.Add(1)
		go p.run()
	}
}

func (p *Pool) run() {
	defer p.wg.Done()

	for {
		select {
		case job := <-p.queue:
			if p.ctx.Err() != nil {
				return
			}
			job(p.ctx)

		case <-p.ctx.Done():
			return
		}
	}
}

// Push enqueues a job.
// It returns false when the queue is full or the pool is closed.
func (p *Pool) Push(job func(context.Context)) bool {
	if p.ctx.Err() != nil {
		return false
	}

	select {
	case p.queue <- job:
		return true
	default:
		return false
	}
}
