package translate

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"gnurante/internal/logging"
)

const defaultWorkers = 4

// Outcome is the result for one unit. Err is a *UnitError when the unit failed.
type Outcome struct {
	Text     string
	Attempts int
	Err      error
}

// Batch holds one Outcome per input unit, in input order.
type Batch struct {
	Results []Outcome
}

// Texts returns the translated texts. Failed units contribute an empty string.
func (b Batch) Texts() []string {
	texts := make([]string, len(b.Results))
	for i, r := range b.Results {
		texts[i] = r.Text
	}
	return texts
}

// Failed returns the indexes of units that could not be translated.
func (b Batch) Failed() []int {
	var failed []int
	for i, r := range b.Results {
		if r.Err != nil {
			failed = append(failed, i)
		}
	}
	return failed
}

// Calls returns the total number of backend invocations for the batch.
func (b Batch) Calls() int {
	total := 0
	for _, r := range b.Results {
		total += r.Attempts
	}
	return total
}

// Observer receives per-call and per-unit counts, typically for metrics.
type Observer interface {
	ObserveCall(backend, result string, elapsed time.Duration)
	ObserveUnit(backend string, failed bool)
}

type noopObserver struct{}

func (noopObserver) ObserveCall(string, string, time.Duration) {}
func (noopObserver) ObserveUnit(string, bool)                  {}

// Call results reported to Observer.ObserveCall.
const (
	CallOK        = "ok"
	CallTransient = "transient"
	CallPermanent = "permanent"
)

// Engine translates batches of units through a Backend.
type Engine struct {
	backend  Backend
	workers  int
	maxChars int
	retry    retryPolicy
	logger   *slog.Logger
	observer Observer
}

// Option customizes the engine.
type Option func(*Engine)

// WithWorkers bounds the number of concurrent backend calls.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithRetry sets the attempt budget per backend call and the backoff range.
func WithRetry(maxAttempts int, baseDelay, maxDelay time.Duration) Option {
	return func(e *Engine) {
		e.retry.maxAttempts = maxAttempts
		e.retry.baseDelay = baseDelay
		e.retry.maxDelay = maxDelay
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(e *Engine) {
		e.retry.sleeper = sleeper
	}
}

// WithMaxChars caps unit length before chunking. The backend's own limit, if
// lower, still applies.
func WithMaxChars(n int) Option {
	return func(e *Engine) {
		e.maxChars = n
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithObserver registers a metrics observer.
func WithObserver(observer Observer) Option {
	return func(e *Engine) {
		if observer != nil {
			e.observer = observer
		}
	}
}

// NewEngine constructs an engine around backend.
func NewEngine(backend Backend, opts ...Option) *Engine {
	e := &Engine{
		backend: backend,
		workers: defaultWorkers,
		retry: retryPolicy{
			maxAttempts: defaultMaxAttempts,
			baseDelay:   defaultRetryBaseDelay,
			maxDelay:    defaultRetryMaxDelay,
		},
		observer: noopObserver{},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = logging.NewComponentLogger(e.logger, "translate")
	return e
}

// Backend returns the wrapped backend.
func (e *Engine) Backend() Backend {
	return e.backend
}

// TranslateAll translates every unit from source to target. Results[i] always
// corresponds to units[i]. Unit failures are reported per Outcome; the
// returned error is reserved for invalid arguments and cancellation.
func (e *Engine) TranslateAll(ctx context.Context, units []string, source, target string) (Batch, error) {
	batch := Batch{Results: make([]Outcome, len(units))}
	if e == nil || e.backend == nil {
		return batch, errors.New("translate: backend required")
	}
	if strings.TrimSpace(source) == "" || strings.TrimSpace(target) == "" {
		return batch, errors.New("translate: source and target languages required")
	}
	logger := logging.WithContext(ctx, e.logger)
	started := time.Now()

	jobs := make(chan int)
	workers := min(e.workers, len(units))
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				batch.Results[idx] = e.translateUnit(ctx, logger, idx, units[idx], source, target)
			}
		}()
	}

dispatch:
	for idx, unit := range units {
		if strings.TrimSpace(unit) == "" {
			continue
		}
		select {
		case jobs <- idx:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return batch, err
	}

	failed := len(batch.Failed())
	logger.Info("translation batch complete",
		logging.String("backend", e.backend.Name()),
		logging.String("source", source),
		logging.String("target", target),
		logging.Int("units", len(units)),
		logging.Int("failed_units", failed),
		logging.Int("backend_calls", batch.Calls()),
		logging.Duration("elapsed", time.Since(started)),
	)
	return batch, nil
}

func (e *Engine) translateUnit(ctx context.Context, logger *slog.Logger, idx int, unit, source, target string) Outcome {
	var out strings.Builder
	attempts := 0
	for _, chunk := range SplitLimit(unit, e.chunkLimit()) {
		lead, core, trail := splitPadding(chunk)
		if core == "" {
			out.WriteString(chunk)
			continue
		}
		translated, calls, err := e.call(ctx, logger, idx, core, source, target)
		attempts += calls
		if err != nil {
			unitErr := &UnitError{Index: idx, Attempts: attempts, Err: err}
			e.observer.ObserveUnit(e.backend.Name(), true)
			if ctx.Err() == nil {
				logging.WarnWithContext(logger, "translation unit failed", "unit_failed",
					logging.Int("unit", idx),
					logging.Int("attempts", attempts),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check backend credentials, quota and connectivity"),
					logging.String(logging.FieldImpact, "unit handled by the failure policy"),
				)
			}
			return Outcome{Attempts: attempts, Err: unitErr}
		}
		out.WriteString(lead)
		out.WriteString(strings.TrimSpace(translated))
		out.WriteString(trail)
	}
	e.observer.ObserveUnit(e.backend.Name(), false)
	return Outcome{Text: strings.TrimSpace(out.String()), Attempts: attempts}
}

// call runs one backend request with retries and returns the number of calls made.
func (e *Engine) call(ctx context.Context, logger *slog.Logger, idx int, text, source, target string) (string, int, error) {
	attempts := e.retry.attempts()
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		start := time.Now()
		translated, err := e.backend.Translate(ctx, text, source, target)
		if err == nil && strings.TrimSpace(translated) == "" {
			err = ErrEmptyTranslation
		}
		if err == nil {
			e.observer.ObserveCall(e.backend.Name(), CallOK, time.Since(start))
			return translated, attempt, nil
		}
		lastErr = err

		delay, retry := e.retry.delay(ctx, err, attempt)
		if !retry {
			result := CallPermanent
			if isTransient(err) {
				result = CallTransient
			}
			e.observer.ObserveCall(e.backend.Name(), result, time.Since(start))
			return "", attempt, err
		}
		e.observer.ObserveCall(e.backend.Name(), CallTransient, time.Since(start))
		logger.Debug("retrying translation call",
			logging.Int("unit", idx),
			logging.Int("attempt", attempt),
			logging.Duration("delay", delay),
			logging.Error(err),
		)
		if err := e.retry.sleep(ctx, delay); err != nil {
			return "", attempt, err
		}
	}
	return "", attempts, lastErr
}

func (e *Engine) chunkLimit() Limit {
	limit := Limit{Runes: e.maxChars}
	if limited, ok := e.backend.(Limited); ok {
		if n := limited.MaxChars(); n > 0 && (limit.Runes <= 0 || n < limit.Runes) {
			limit.Runes = n
		}
	}
	if limited, ok := e.backend.(ByteLimited); ok {
		limit.Bytes = limited.MaxBytes()
	}
	return limit
}
