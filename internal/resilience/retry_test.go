package resilience

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

// doErr runs an error-only fn through DoVal.
func doErr(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) error) error {
	_, err := DoVal(ctx, cfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

func fastConfig(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:    attempts,
		InitialBackoff: 1 * time.Millisecond,
		MaxBackoff:     10 * time.Millisecond,
		Multiplier:     1.5,
	}
}

func TestDoVal_SuccessOnFirstAttempt(t *testing.T) {
	var calls int
	err := doErr(context.Background(), fastConfig(2), func(_ context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDoVal_OtherErrorRetriesOnce(t *testing.T) {
	var calls int
	err := doErr(context.Background(), fastConfig(2), func(_ context.Context) error {
		calls++
		return errors.New("agent produced malformed output")
	})
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestDoVal_SuccessAfterRetry(t *testing.T) {
	var calls int
	err := doErr(context.Background(), fastConfig(3), func(_ context.Context) error {
		calls++
		if calls < 3 {
			return NewTransientError(errors.New("temporary"), 503)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDoVal_QuotaErrorNoRetry(t *testing.T) {
	for _, msg := range []string{
		"Error code: 429 - too many requests",
		"You exceeded your current quota",
		"insufficient_quota",
		"Rate limit reached for requests",
	} {
		var calls int
		err := doErr(context.Background(), fastConfig(3), func(_ context.Context) error {
			calls++
			return errors.New(msg)
		})
		if err == nil {
			t.Fatalf("%q: expected error", msg)
		}
		if calls != 1 {
			t.Errorf("%q: expected 1 call (quota short-circuits), got %d", msg, calls)
		}
	}
}

func TestDoVal_ContextCancelled_StopsRetry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int
	cfg := RetryConfig{
		MaxAttempts:    5,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     100 * time.Millisecond,
		Multiplier:     2.0,
	}

	err := doErr(ctx, cfg, func(_ context.Context) error {
		calls++
		if calls == 2 {
			cancel()
		}
		return NewTransientError(errors.New("fail"), 500)
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 2 {
		t.Errorf("expected 2 calls before cancel stopped retries, got %d", calls)
	}
}

func TestDoVal_CustomShouldRetry(t *testing.T) {
	var calls int
	cfg := fastConfig(3)
	cfg.ShouldRetry = func(err error) bool {
		return err.Error() == "retry me"
	}

	err := doErr(context.Background(), cfg, func(_ context.Context) error {
		calls++
		if calls == 1 {
			return errors.New("retry me")
		}
		return errors.New("stop")
	})
	if err == nil || err.Error() != "stop" {
		t.Fatalf("expected stop error, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestDoVal_OnRetryCallback(t *testing.T) {
	var retryAttempts []int
	var delays []time.Duration
	cfg := fastConfig(3)
	cfg.OnRetry = func(attempt int, delay time.Duration, _ error) {
		retryAttempts = append(retryAttempts, attempt)
		delays = append(delays, delay)
	}

	_ = doErr(context.Background(), cfg, func(_ context.Context) error {
		return NewTransientError(errors.New("fail"), 500)
	})

	if len(retryAttempts) != 2 {
		t.Fatalf("expected 2 OnRetry calls, got %d", len(retryAttempts))
	}
	if retryAttempts[0] != 1 || retryAttempts[1] != 2 {
		t.Errorf("expected attempts [1, 2], got %v", retryAttempts)
	}
	if delays[1] <= delays[0] {
		t.Errorf("expected growing delays, got %v", delays)
	}
}

func TestDoVal_ReturnsValueOnSuccess(t *testing.T) {
	var calls int
	val, err := DoVal(context.Background(), fastConfig(2), func(_ context.Context) (string, error) {
		calls++
		if calls < 2 {
			return "", errors.New("empty result")
		}
		return "hello", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != "hello" {
		t.Errorf("expected %q, got %q", "hello", val)
	}
}

func TestDoVal_ReturnsZeroOnFailure(t *testing.T) {
	val, err := DoVal(context.Background(), fastConfig(2), func(_ context.Context) (int, error) {
		return 42, NewTransientError(errors.New("fail"), 500)
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if val != 0 {
		t.Errorf("expected zero value on failure, got %d", val)
	}
}

func TestDoVal_DefaultConfig(t *testing.T) {
	var calls atomic.Int32
	err := doErr(context.Background(), RetryConfig{}, func(_ context.Context) error {
		calls.Add(1)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 call, got %d", calls.Load())
	}

	cfg := applyDefaults(RetryConfig{})
	if cfg.MaxAttempts != 2 || cfg.InitialBackoff != 1500*time.Millisecond || cfg.Multiplier != 1.5 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestFromConfig(t *testing.T) {
	cfg := FromConfig(3, 200, 2.0)
	if cfg.MaxAttempts != 3 || cfg.InitialBackoff != 200*time.Millisecond || cfg.Multiplier != 2.0 {
		t.Errorf("unexpected config: %+v", cfg)
	}

	cfg = FromConfig(0, 0, 0)
	if cfg.MaxAttempts != 2 || cfg.InitialBackoff != 1500*time.Millisecond {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestBackoff_ExponentialGrowth(t *testing.T) {
	cfg := applyDefaults(RetryConfig{
		InitialBackoff: 1500 * time.Millisecond,
		MaxBackoff:     10 * time.Second,
		Multiplier:     1.5,
	})

	expected := []time.Duration{
		1500 * time.Millisecond,
		2250 * time.Millisecond,
		3375 * time.Millisecond,
	}
	for i, want := range expected {
		if got := Backoff(i, cfg); got != want {
			t.Errorf("attempt %d: expected %v, got %v", i, want, got)
		}
	}
}

func TestBackoff_CapsAtMax(t *testing.T) {
	cfg := applyDefaults(RetryConfig{
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     5 * time.Second,
		Multiplier:     10.0,
	})

	if delay := Backoff(5, cfg); delay > 5*time.Second {
		t.Errorf("expected delay capped at 5s, got %v", delay)
	}
}

func TestBackoff_WithJitter(t *testing.T) {
	cfg := applyDefaults(RetryConfig{
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.5,
	})

	seen := make(map[time.Duration]bool)
	for i := 0; i < 100; i++ {
		d := Backoff(0, cfg)
		seen[d] = true
		if d < 500*time.Millisecond || d > 1500*time.Millisecond {
			t.Errorf("delay %v outside expected range [500ms, 1500ms]", d)
		}
	}
	if len(seen) < 2 {
		t.Error("expected jitter to produce varying delays")
	}
}

func TestRetryLogger(t *testing.T) {
	t.Parallel()
	logger := RetryLogger("anthropic", "run_crew")
	logger(1, time.Millisecond, errors.New("test error"))
}
