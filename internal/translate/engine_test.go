package translate

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"gnurante/internal/services"
)

type fakeBackend struct {
	mu    sync.Mutex
	calls map[string]int
	limit int
	fn    func(text string, call int) (string, error)
}

func newFakeBackend(fn func(text string, call int) (string, error)) *fakeBackend {
	return &fakeBackend{calls: map[string]int{}, fn: fn}
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) MaxChars() int { return f.limit }

type byteLimitedBackend struct {
	*fakeBackend
	maxBytes int
}

func (b byteLimitedBackend) MaxBytes() int { return b.maxBytes }

func (f *fakeBackend) Translate(_ context.Context, text, _, _ string) (string, error) {
	f.mu.Lock()
	f.calls[text]++
	call := f.calls[text]
	f.mu.Unlock()
	return f.fn(text, call)
}

func (f *fakeBackend) callsFor(text string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[text]
}

func (f *fakeBackend) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

func noSleep(time.Duration) {}

func TestTranslateAllPreservesOrderUnderShuffledLatency(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	latencies := map[string]time.Duration{}
	units := make([]string, 60)
	for i := range units {
		units[i] = fmt.Sprintf("unit %02d", i)
		latencies[units[i]] = time.Duration(rng.Intn(3000)) * time.Microsecond
	}
	backend := newFakeBackend(func(text string, _ int) (string, error) {
		time.Sleep(latencies[text])
		return strings.ToUpper(text), nil
	})

	engine := NewEngine(backend, WithWorkers(8))
	batch, err := engine.TranslateAll(context.Background(), units, "en", "it")
	if err != nil {
		t.Fatalf("TranslateAll: %v", err)
	}
	if len(batch.Results) != len(units) {
		t.Fatalf("expected %d results, got %d", len(units), len(batch.Results))
	}
	for i, unit := range units {
		if got := batch.Results[i].Text; got != strings.ToUpper(unit) {
			t.Fatalf("result %d = %q, want %q", i, got, strings.ToUpper(unit))
		}
	}
}

func TestTranslateAllSkipsBlankUnits(t *testing.T) {
	backend := newFakeBackend(func(text string, _ int) (string, error) {
		return "ciao", nil
	})
	batch, err := NewEngine(backend).TranslateAll(context.Background(), []string{"", "hello", "  \t"}, "en", "it")
	if err != nil {
		t.Fatalf("TranslateAll: %v", err)
	}
	if got := batch.Texts(); !slices.Equal(got, []string{"", "ciao", ""}) {
		t.Fatalf("Texts() = %q", got)
	}
	if backend.totalCalls() != 1 || backend.callsFor("hello") != 1 {
		t.Fatalf("expected exactly one backend call, got %v", backend.calls)
	}
	if batch.Results[0].Attempts != 0 || batch.Results[2].Attempts != 0 {
		t.Fatalf("blank units should record zero attempts: %+v", batch.Results)
	}
}

func TestTranslateAllRetriesTransientFailures(t *testing.T) {
	backend := newFakeBackend(func(text string, call int) (string, error) {
		if text == "world" && call < 3 {
			return "", services.Wrap(services.ErrTransient, "translate", "fake", "rate limited", nil)
		}
		return map[string]string{"hello": "ciao", "world": "mondo", "again": "ancora"}[text], nil
	})
	engine := NewEngine(backend, WithRetry(3, time.Millisecond, time.Millisecond), WithSleeper(noSleep))

	batch, err := engine.TranslateAll(context.Background(), []string{"hello", "world", "again"}, "en", "it")
	if err != nil {
		t.Fatalf("TranslateAll: %v", err)
	}
	if got := batch.Texts(); !slices.Equal(got, []string{"ciao", "mondo", "ancora"}) {
		t.Fatalf("Texts() = %q", got)
	}
	if backend.callsFor("world") != 3 {
		t.Fatalf("expected 3 calls for the flaky unit, got %d", backend.callsFor("world"))
	}
	for _, unit := range []string{"hello", "again"} {
		if backend.callsFor(unit) != 1 {
			t.Fatalf("expected 1 call for %q, got %d", unit, backend.callsFor(unit))
		}
	}
	if batch.Results[1].Attempts != 3 || batch.Results[1].Err != nil {
		t.Fatalf("unexpected outcome for flaky unit: %+v", batch.Results[1])
	}
}

func TestTranslateAllPermanentFailureIsIsolated(t *testing.T) {
	backend := newFakeBackend(func(text string, _ int) (string, error) {
		if text == "bad" {
			return "", &services.HTTPStatusError{Service: "fake", StatusCode: http.StatusBadRequest}
		}
		return "ok:" + text, nil
	})
	engine := NewEngine(backend, WithRetry(5, 0, 0), WithSleeper(noSleep))

	batch, err := engine.TranslateAll(context.Background(), []string{"a", "bad", "c"}, "en", "it")
	if err != nil {
		t.Fatalf("TranslateAll: %v", err)
	}
	if got := batch.Failed(); !slices.Equal(got, []int{1}) {
		t.Fatalf("Failed() = %v", got)
	}
	var unitErr *UnitError
	if !errors.As(batch.Results[1].Err, &unitErr) {
		t.Fatalf("expected *UnitError, got %v", batch.Results[1].Err)
	}
	if !errors.Is(unitErr, ErrUnitFailure) || unitErr.Index != 1 || unitErr.Attempts != 1 {
		t.Fatalf("unexpected unit error %+v", unitErr)
	}
	if backend.callsFor("bad") != 1 {
		t.Fatalf("permanent errors must not be retried, got %d calls", backend.callsFor("bad"))
	}
	if batch.Results[0].Text != "ok:a" || batch.Results[2].Text != "ok:c" {
		t.Fatalf("other units should succeed: %+v", batch.Results)
	}
}

func TestTranslateAllExhaustsRetries(t *testing.T) {
	backend := newFakeBackend(func(string, int) (string, error) {
		return "", &services.HTTPStatusError{Service: "fake", StatusCode: http.StatusServiceUnavailable}
	})
	engine := NewEngine(backend, WithRetry(4, 0, 0), WithSleeper(noSleep))
	batch, err := engine.TranslateAll(context.Background(), []string{"x"}, "en", "it")
	if err != nil {
		t.Fatalf("TranslateAll: %v", err)
	}
	if batch.Results[0].Attempts != 4 || !errors.Is(batch.Results[0].Err, ErrUnitFailure) {
		t.Fatalf("unexpected outcome %+v", batch.Results[0])
	}
}

func TestTranslateAllRetriesEmptyTranslation(t *testing.T) {
	backend := newFakeBackend(func(_ string, call int) (string, error) {
		if call == 1 {
			return "   ", nil
		}
		return "pieno", nil
	})
	engine := NewEngine(backend, WithSleeper(noSleep))
	batch, err := engine.TranslateAll(context.Background(), []string{"full"}, "en", "it")
	if err != nil {
		t.Fatalf("TranslateAll: %v", err)
	}
	if batch.Results[0].Text != "pieno" || batch.Results[0].Attempts != 2 {
		t.Fatalf("unexpected outcome %+v", batch.Results[0])
	}
}

func TestTranslateAllHonoursRetryAfter(t *testing.T) {
	var delays []time.Duration
	var mu sync.Mutex
	sleeper := func(d time.Duration) {
		mu.Lock()
		delays = append(delays, d)
		mu.Unlock()
	}
	backend := newFakeBackend(func(_ string, call int) (string, error) {
		if call == 1 {
			return "", &services.HTTPStatusError{StatusCode: http.StatusTooManyRequests, RetryAfter: 2 * time.Second}
		}
		if call == 2 {
			return "", &services.HTTPStatusError{StatusCode: http.StatusTooManyRequests, RetryAfter: time.Minute}
		}
		return "fatto", nil
	})
	engine := NewEngine(backend, WithRetry(3, 100*time.Millisecond, 5*time.Second), WithSleeper(sleeper))
	if _, err := engine.TranslateAll(context.Background(), []string{"done"}, "en", "it"); err != nil {
		t.Fatalf("TranslateAll: %v", err)
	}
	if !slices.Equal(delays, []time.Duration{2 * time.Second, 5 * time.Second}) {
		t.Fatalf("unexpected delays %v", delays)
	}
}

func TestTranslateAllChunksLongUnits(t *testing.T) {
	backend := newFakeBackend(func(text string, _ int) (string, error) {
		return "[" + text + "]", nil
	})
	backend.limit = 10
	engine := NewEngine(backend, WithWorkers(1))

	batch, err := engine.TranslateAll(context.Background(), []string{"Hello there. General Kenobi."}, "en", "it")
	if err != nil {
		t.Fatalf("TranslateAll: %v", err)
	}
	want := "[Hello] [there.] [General] [Kenobi.]"
	if got := batch.Results[0].Text; got != want {
		t.Fatalf("chunked translation = %q, want %q", got, want)
	}
	if batch.Results[0].Attempts != 4 {
		t.Fatalf("expected 4 backend calls, got %d", batch.Results[0].Attempts)
	}
}

func TestTranslateAllEngineLimitBelowBackendLimit(t *testing.T) {
	backend := newFakeBackend(func(text string, _ int) (string, error) {
		return text, nil
	})
	backend.limit = 1000
	engine := NewEngine(backend, WithMaxChars(6))
	batch, err := engine.TranslateAll(context.Background(), []string{"one two three"}, "en", "it")
	if err != nil {
		t.Fatalf("TranslateAll: %v", err)
	}
	if batch.Results[0].Text != "one two three" {
		t.Fatalf("reassembly lost text: %q", batch.Results[0].Text)
	}
	if backend.totalCalls() < 2 {
		t.Fatalf("expected unit to be chunked, got %d calls", backend.totalCalls())
	}
}

func TestTranslateAllChunksByBackendByteLimit(t *testing.T) {
	backend := newFakeBackend(func(text string, _ int) (string, error) { return text, nil })
	backend.limit = 100
	engine := NewEngine(byteLimitedBackend{fakeBackend: backend, maxBytes: 12}, WithWorkers(1))

	unit := "東京は晴れです。大阪は雨です。"
	batch, err := engine.TranslateAll(context.Background(), []string{unit}, "ja", "it")
	if err != nil {
		t.Fatalf("TranslateAll: %v", err)
	}
	if batch.Results[0].Err != nil || batch.Results[0].Text != unit {
		t.Fatalf("unexpected outcome %+v", batch.Results[0])
	}
	backend.mu.Lock()
	defer backend.mu.Unlock()
	for text := range backend.calls {
		if len(text) > 12 {
			t.Fatalf("backend received %d bytes: %q", len(text), text)
		}
	}
}

func TestTranslateAllRejectsInvalidArguments(t *testing.T) {
	backend := newFakeBackend(func(text string, _ int) (string, error) { return text, nil })
	if _, err := NewEngine(backend).TranslateAll(context.Background(), []string{"x"}, "en", ""); err == nil {
		t.Fatal("expected error for missing target")
	}
	if _, err := NewEngine(nil).TranslateAll(context.Background(), []string{"x"}, "en", "it"); err == nil {
		t.Fatal("expected error for missing backend")
	}
}

func TestTranslateAllStopsOnCancellation(t *testing.T) {
	backend := newFakeBackend(func(text string, _ int) (string, error) { return text, nil })
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewEngine(backend).TranslateAll(ctx, []string{"a", "b"}, "en", "it")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestBackoffDelayDoublesAndCaps(t *testing.T) {
	policy := retryPolicy{maxAttempts: 5, baseDelay: 100 * time.Millisecond, maxDelay: 250 * time.Millisecond}
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 250 * time.Millisecond, 250 * time.Millisecond}
	for i, expected := range want {
		if got := policy.backoffDelay(i + 1); got != expected {
			t.Fatalf("attempt %d: delay %v, want %v", i+1, got, expected)
		}
	}
}

func TestRetryDelayClassification(t *testing.T) {
	policy := retryPolicy{maxAttempts: 3, baseDelay: time.Second, maxDelay: 10 * time.Second}
	ctx := context.Background()

	if _, retry := policy.delay(ctx, services.Wrap(services.ErrTimeout, "", "", "slow", nil), 1); !retry {
		t.Fatal("timeouts should be retried")
	}
	if _, retry := policy.delay(ctx, errors.New("bad request"), 1); retry {
		t.Fatal("unclassified errors should not be retried")
	}
	if _, retry := policy.delay(ctx, services.Wrap(services.ErrTransient, "", "", "x", nil), 3); retry {
		t.Fatal("last attempt should not be retried")
	}
	if _, retry := policy.delay(ctx, context.Canceled, 1); retry {
		t.Fatal("cancellation should not be retried")
	}
}
