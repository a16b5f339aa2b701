package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type stubResult struct {
	seq int
	err error
}

func (r *stubResult) GetError() error { return r.err }

// stubJob sleeps for delay (or until cancelled) and reports its sequence number
type stubJob struct {
	seq    int
	delay  time.Duration
	fail   bool
	onRun  func()
	onDone func()
}

func (j *stubJob) Execute(ctx context.Context) Result {
	if j.onRun != nil {
		j.onRun()
	}
	if j.onDone != nil {
		defer j.onDone()
	}
	if j.delay > 0 {
		t := time.NewTimer(j.delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return &stubResult{seq: j.seq, err: ctx.Err()}
		}
	}
	if j.fail {
		return &stubResult{seq: j.seq, err: errors.New("boom")}
	}
	return &stubResult{seq: j.seq}
}

func TestNewPool_WorkerCount(t *testing.T) {
	for in, want := range map[int]int{3: 3, 0: 1, -4: 1} {
		if got := NewPool(context.Background(), in).workers; got != want {
			t.Errorf("NewPool(%d) workers = %d, want %d", in, got, want)
		}
	}
}

func TestPool_ManyMoreJobsThanWorkers(t *testing.T) {
	pool := NewPool(context.Background(), 2)
	pool.Start()

	const n = 200
	for i := 0; i < n; i++ {
		if !pool.Submit(&stubJob{seq: i}) {
			t.Fatalf("Submit %d rejected", i)
		}
	}

	results := pool.Wait()
	if len(results) != n {
		t.Fatalf("Expected %d results, got %d", n, len(results))
	}
	for i, r := range results {
		if got := r.(*stubResult).seq; got != i {
			t.Fatalf("Expected result %d at index %d, got %d", i, i, got)
		}
	}
}

func TestPool_OrderDespiteUnevenDurations(t *testing.T) {
	pool := NewPool(context.Background(), 3)
	pool.Start()

	for i := 0; i < 9; i++ {
		pool.Submit(&stubJob{seq: i, delay: time.Duration(9-i) * 2 * time.Millisecond})
	}

	for i, r := range pool.Wait() {
		if got := r.(*stubResult).seq; got != i {
			t.Errorf("Expected result %d at index %d, got %d", i, i, got)
		}
	}
}

func TestPool_BoundedConcurrency(t *testing.T) {
	const workers = 4
	pool := NewPool(context.Background(), workers)
	pool.Start()

	var active, peak atomic.Int32
	for i := 0; i < 40; i++ {
		pool.Submit(&stubJob{
			seq:   i,
			delay: 5 * time.Millisecond,
			onRun: func() {
				n := active.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
			},
			onDone: func() { active.Add(-1) },
		})
	}
	pool.Wait()

	if peak.Load() > workers {
		t.Errorf("Peak concurrency %d exceeded %d workers", peak.Load(), workers)
	}
}

func TestPool_JobErrorsStayWithTheirResult(t *testing.T) {
	pool := NewPool(context.Background(), 2)
	pool.Start()
	pool.Submit(&stubJob{seq: 0, fail: true})
	pool.Submit(&stubJob{seq: 1})

	results := pool.Wait()
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].GetError() == nil {
		t.Error("Expected an error on the first result")
	}
	if err := results[1].GetError(); err != nil {
		t.Errorf("Unexpected error on the second result: %v", err)
	}
}

func TestPool_SubmitRejected(t *testing.T) {
	t.Run("before start", func(t *testing.T) {
		pool := NewPool(context.Background(), 1)
		if pool.Submit(&stubJob{}) {
			t.Error("Expected Submit before Start to be rejected")
		}
		if got := pool.Wait(); got != nil {
			t.Errorf("Expected nil results from an unstarted pool, got %v", got)
		}
	})

	t.Run("after wait", func(t *testing.T) {
		pool := NewPool(context.Background(), 1)
		pool.Start()
		pool.Wait()
		if pool.Submit(&stubJob{}) {
			t.Error("Expected Submit after Wait to be rejected")
		}
	})

	t.Run("after shutdown", func(t *testing.T) {
		pool := NewPool(context.Background(), 1)
		pool.Start()
		pool.Shutdown()

		accepted := make(chan bool, 1)
		go func() { accepted <- pool.Submit(&stubJob{}) }()
		select {
		case ok := <-accepted:
			if ok {
				t.Error("Expected Submit after Shutdown to be rejected")
			}
		case <-time.After(time.Second):
			t.Fatal("Submit after Shutdown blocked")
		}
	})
}

func TestPool_ShutdownCancelsRunningJob(t *testing.T) {
	pool := NewPool(context.Background(), 1)
	pool.Start()

	started := make(chan struct{})
	pool.Submit(&stubJob{delay: time.Minute, onRun: func() { close(started) }})
	<-started

	finished := make(chan []Result, 1)
	go func() {
		pool.Shutdown()
		finished <- pool.Wait()
	}()

	select {
	case results := <-finished:
		if len(results) != 1 || !errors.Is(results[0].GetError(), context.Canceled) {
			t.Errorf("Expected one cancelled result, got %v", results)
		}
	case <-time.After(time.Second):
		t.Fatal("Shutdown did not stop the running job")
	}
}

func TestPool_ParentCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewPool(ctx, 1)
	pool.Start()

	started := make(chan struct{})
	pool.Submit(&stubJob{delay: time.Minute, onRun: func() { close(started) }})
	<-started
	cancel()

	done := make(chan struct{})
	go func() {
		pool.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after the parent context was cancelled")
	}
}
