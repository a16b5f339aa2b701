package worker

import (
	"context"
	"sort"
	"sync"
)

// Job is a unit of work run by a Pool
type Job interface {
	Execute(ctx context.Context) Result
}

// Result is what a Job produces
type Result interface {
	GetError() error
}

type ticket struct {
	seq int
	job Job
}

type outcome struct {
	seq    int
	result Result
}

// Pool runs jobs on a fixed number of goroutines. Results are gathered
// as they complete, so Submit never waits on an unread result.
type Pool struct {
	workers int
	ctx     context.Context
	cancel  context.CancelFunc

	queue    chan ticket
	done     chan outcome
	running  sync.WaitGroup
	gathered chan []outcome
	stopOnce sync.Once

	mu      sync.Mutex
	next    int
	started bool
	closed  bool
}

// NewPool creates a pool bound to ctx; cancelling ctx stops the workers
func NewPool(ctx context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(ctx)

	return &Pool{
		workers:  workers,
		ctx:      ctx,
		cancel:   cancel,
		queue:    make(chan ticket, workers),
		done:     make(chan outcome, workers),
		gathered: make(chan []outcome, 1),
	}
}

// Start launches the workers and the result gatherer
func (p *Pool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.closed {
		return
	}
	p.started = true

	go p.gather()
	p.running.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go p.work()
	}
}

func (p *Pool) gather() {
	var all []outcome
	for o := range p.done {
		all = append(all, o)
	}
	p.gathered <- all
}

func (p *Pool) work() {
	defer p.running.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case t, ok := <-p.queue:
			if !ok {
				return
			}
			p.done <- outcome{seq: t.seq, result: t.job.Execute(p.ctx)}
		}
	}
}

// Submit queues a job, blocking while every worker is busy.
// It reports false before Start, after Wait or Shutdown, and once the
// pool's context is done.
func (p *Pool) Submit(job Job) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started || p.closed || p.ctx.Err() != nil {
		return false
	}

	select {
	case <-p.ctx.Done():
		return false
	case p.queue <- ticket{seq: p.next, job: job}:
		p.next++
		return true
	}
}

// Wait closes the pool to new jobs and returns the results of every job
// that ran, in submission order
func (p *Pool) Wait() []Result {
	if !p.close() {
		return nil
	}
	p.stop()

	gathered := <-p.gathered
	p.gathered <- gathered

	all := append([]outcome(nil), gathered...)
	sort.Slice(all, func(i, j int) bool { return all[i].seq < all[j].seq })
	results := make([]Result, len(all))
	for i, o := range all {
		results[i] = o.result
	}
	return results
}

// Shutdown cancels in-flight jobs and waits for the workers to exit
func (p *Pool) Shutdown() {
	p.cancel()
	p.close()
	p.stop()
}

// close stops new submissions and reports whether the pool was started
func (p *Pool) close() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	return p.started
}

func (p *Pool) stop() {
	p.stopOnce.Do(func() {
		p.running.Wait()
		close(p.done)
	})
}
