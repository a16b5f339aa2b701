package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(10, 5)
	if limiter.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", limiter.defaultBurst)
	}

	l2 := NewLimiter(10, -1)
	if l2.defaultBurst != 5 {
		t.Errorf("expected default burst 5 for negative input, got %d", l2.defaultBurst)
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "http://example.com/foo"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
	if err := limiter.Wait(ctx, "https://html.duckduckgo.com/html/?q=x"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
}

func TestLimiter_Wait_NoHost(t *testing.T) {
	limiter := NewLimiter(100, 1)

	if err := limiter.Wait(context.Background(), "/relative/path"); err == nil {
		t.Error("expected error for URL without host")
	}
	if limiter.Allow("/relative/path") {
		t.Error("expected Allow to reject URL without host")
	}
}

func TestLimiter_HostKey(t *testing.T) {
	limiter := NewLimiter(0.001, 1)

	if !limiter.Allow("http://Example.com:8080/a") {
		t.Fatal("expected first request to be allowed")
	}
	// Same host regardless of case, port and path
	if limiter.Allow("http://example.com/b") {
		t.Error("expected second request to the same host to be throttled")
	}
	if !limiter.Allow("http://other.example/") {
		t.Error("expected a different host to have its own budget")
	}
}

func TestLimiter_Unlimited(t *testing.T) {
	limiter := NewLimiter(0, 1)
	for i := 0; i < 20; i++ {
		if !limiter.Allow("http://example.com") {
			t.Fatalf("expected unlimited limiter to allow request %d", i)
		}
	}
}

func TestLimiter_WaitWithDelay(t *testing.T) {
	limiter := NewLimiter(100, 1)

	start := time.Now()
	if err := limiter.WaitWithDelay(context.Background(), "http://example.com", 50*time.Millisecond); err != nil {
		t.Fatalf("WaitWithDelay failed: %v", err)
	}
	if d := time.Since(start); d < 50*time.Millisecond {
		t.Errorf("expected delay >= 50ms, got %v", d)
	}
}

func TestLimiter_WaitWithDelay_Cancelled(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := limiter.WaitWithDelay(ctx, "http://example.com", time.Second); err == nil {
		t.Error("expected error when context ends during delay")
	}
}

func TestLimiter_SetHostRate(t *testing.T) {
	limiter := NewLimiter(0.001, 1)
	limiter.SetHostRate("Fast.example", 1000, 10)

	for i := 0; i < 5; i++ {
		if !limiter.Allow("http://fast.example/") {
			t.Fatalf("expected overridden host to allow request %d", i)
		}
	}
}
