// Package workflow implements the single-action executor: timeout
// isolation per attempt, retry with capped exponential backoff,
// compensation, and an async handle for fire-and-await execution.
package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jidogo/runtime/action"
	"github.com/jidogo/runtime/core/kerr"
	"github.com/jidogo/runtime/observability"
	"github.com/jidogo/runtime/orchestrate/config"
)

// defaultCompensationTimeout is the fallback used when neither the
// action's own compensation.timeout metadata nor the attempt's resolved
// timeout supplies one.
const defaultCompensationTimeout = 5 * time.Second

// Telemetry selects how much of a Run's telemetry the Executor emits.
type Telemetry string

const (
	TelemetryFull    Telemetry = "full"
	TelemetryMinimal Telemetry = "minimal"
	TelemetrySilent  Telemetry = "silent"
)

// Options is the per-call resolution of a Run's recognized options:
// Executor.cfg supplies the defaults, and a Run call's opts map (sourced
// from an Instruction's Opts) overrides them individually.
type Options struct {
	Timeout    time.Duration
	MaxRetries int
	Backoff    time.Duration
	Telemetry  Telemetry

	// Strict mirrors the command-level "strict_validation" option: when
	// true, ValidateParams is asked to reject unknown keys.
	Strict bool
}

// Executor runs a single Action under the configured timeout, retry, and
// compensation policy.
type Executor struct {
	cfg      config.WorkflowConfig
	observer observability.Observer
}

// New builds an Executor from cfg, resolving cfg.Observer via the
// observability registry.
func New(cfg config.WorkflowConfig) (*Executor, error) {
	observer, err := observability.GetObserver(cfg.Observer)
	if err != nil {
		return nil, fmt.Errorf("workflow: resolve observer: %w", err)
	}
	return &Executor{cfg: cfg, observer: observer}, nil
}

type attemptResult struct {
	outcome action.Outcome
	err     error
}

// resolveOptions overlays opts (an Instruction's Opts map, or any
// per-call override) onto the Executor's configured defaults.
// Unrecognized or mistyped values are ignored and the default is kept.
func (e *Executor) resolveOptions(opts map[string]any) Options {
	resolved := Options{
		Timeout:    e.cfg.Timeout,
		MaxRetries: e.cfg.MaxRetries,
		Backoff:    e.cfg.BackoffBase,
		Telemetry:  Telemetry(e.cfg.Telemetry),
	}
	if resolved.Telemetry == "" {
		resolved.Telemetry = TelemetryFull
	}

	for k, v := range opts {
		switch k {
		case "timeout":
			if d, ok := durationMsFromOpt(v); ok {
				resolved.Timeout = d
			}
		case "max_retries":
			if n, ok := intFromOpt(v); ok {
				resolved.MaxRetries = n
			}
		case "backoff":
			if d, ok := durationMsFromOpt(v); ok {
				resolved.Backoff = d
			}
		case "telemetry":
			if s, ok := v.(string); ok {
				switch Telemetry(s) {
				case TelemetryFull, TelemetryMinimal, TelemetrySilent:
					resolved.Telemetry = Telemetry(s)
				}
			}
		case "strict_validation":
			if b, ok := v.(bool); ok {
				resolved.Strict = b
			}
		}
	}

	return resolved
}

// durationMsFromOpt converts an opt value into a duration, interpreting
// numeric values as milliseconds ("timeout" and "backoff" opts are
// specified in ms). structpb-sourced opts surface numbers as float64;
// plain Go callers may also pass an int, int64, or time.Duration
// directly.
func durationMsFromOpt(v any) (time.Duration, bool) {
	switch n := v.(type) {
	case time.Duration:
		return n, true
	case float64:
		return time.Duration(n) * time.Millisecond, true
	case int:
		return time.Duration(n) * time.Millisecond, true
	case int64:
		return time.Duration(n) * time.Millisecond, true
	default:
		return 0, false
	}
}

func intFromOpt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

// emit delivers ev to the observer unless telemetry suppresses it:
// "silent" suppresses everything, "minimal" suppresses everything but the
// events marked required (the terminal success/failure outcome), "full"
// suppresses nothing.
func (e *Executor) emit(ctx context.Context, telemetry Telemetry, required bool, ev observability.Event) {
	switch telemetry {
	case TelemetrySilent:
		return
	case TelemetryMinimal:
		if !required {
			return
		}
	}
	e.observer.OnEvent(ctx, ev)
}

// Run executes act against rawParams, rawContext, and opts, retrying on
// non-timeout errors up to the resolved MaxRetries with capped
// exponential backoff, and invoking compensation (if the action supports
// it) once retries are exhausted. rawParams and rawContext each accept a
// map[string]any, a list of key/value pairs, or nil; anything else fails
// with a validation error. opts may be nil to use the Executor's
// configured defaults unchanged.
func (e *Executor) Run(ctx context.Context, act action.Action, rawParams, rawContext any, opts map[string]any) (action.Outcome, error) {
	if act == nil {
		return action.Outcome{}, kerr.New(kerr.InvalidAction, "action is nil", nil)
	}

	params, err := NormalizeMapping(rawParams)
	if err != nil {
		return action.Outcome{}, kerr.Wrap(kerr.ValidationError, "params are not a mapping or pair list", err, map[string]any{"action": act.Name()})
	}
	execContext, err := NormalizeMapping(rawContext)
	if err != nil {
		return action.Outcome{}, kerr.Wrap(kerr.ValidationError, "context is not a mapping or pair list", err, map[string]any{"action": act.Name()})
	}

	options := e.resolveOptions(opts)

	if pv, ok := act.(action.ParamValidator); ok {
		if err := pv.ValidateParams(params, options.Strict); err != nil {
			return action.Outcome{}, kerr.Wrap(kerr.ValidationError, "params failed validation", err, map[string]any{"action": act.Name()})
		}
	}

	var lastErr error
	backoff := options.Backoff

	for attempt := 0; attempt <= options.MaxRetries; attempt++ {
		e.emit(ctx, options.Telemetry, false, observability.Event{
			Type:      EventStart,
			Level:     observability.LevelInfo,
			Timestamp: time.Now(),
			Source:    "workflow.Run",
			Data:      map[string]any{"action": act.Name(), "attempt": attempt},
		})

		start := time.Now()
		outcome, err := e.runAttempt(ctx, act, params, execContext, options.Timeout)
		duration := time.Since(start)

		if err == nil {
			e.emit(ctx, options.Telemetry, true, observability.Event{
				Type:      EventComplete,
				Level:     observability.LevelInfo,
				Timestamp: time.Now(),
				Source:    "workflow.Run",
				Data:      map[string]any{"action": act.Name(), "attempt": attempt, "duration_ms": duration.Milliseconds()},
			})
			return outcome, nil
		}

		e.emit(ctx, options.Telemetry, false, observability.Event{
			Type:      EventError,
			Level:     observability.LevelWarning,
			Timestamp: time.Now(),
			Source:    "workflow.Run",
			Data:      map[string]any{"action": act.Name(), "attempt": attempt, "duration_ms": duration.Milliseconds(), "error": err.Error()},
		})

		lastErr = err

		if kerr.Is(err, kerr.Timeout) {
			break
		}
		if attempt >= options.MaxRetries {
			break
		}

		e.emit(ctx, options.Telemetry, false, observability.Event{
			Type:      EventRetry,
			Level:     observability.LevelInfo,
			Timestamp: time.Now(),
			Source:    "workflow.Run",
			Data:      map[string]any{"action": act.Name(), "attempt": attempt, "backoff_ms": backoff.Milliseconds()},
		})

		if !e.sleep(ctx, backoff) {
			lastErr = kerr.New(kerr.Timeout, "context cancelled during backoff", nil)
			break
		}

		backoff *= 2
		if backoff > e.cfg.BackoffCap {
			backoff = e.cfg.BackoffCap
		}
	}

	outcome, err := e.compensate(ctx, act, params, execContext, lastErr, options)
	if err != nil {
		e.emit(ctx, options.Telemetry, true, observability.Event{
			Type:      EventError,
			Level:     observability.LevelWarning,
			Timestamp: time.Now(),
			Source:    "workflow.Run",
			Data:      map[string]any{"action": act.Name(), "final": true, "error": err.Error()},
		})
	}
	return outcome, err
}

// runAttempt runs a single attempt of act.Run under its own timeout,
// isolated from the caller: the attempt's goroutine is abandoned (not
// killed, Go has no forcible goroutine termination) once the deadline
// fires, and the caller proceeds immediately. timeout <= 0 means no
// deadline is imposed beyond ctx's own.
func (e *Executor) runAttempt(ctx context.Context, act action.Action, params, execContext map[string]any, timeout time.Duration) (action.Outcome, error) {
	attemptCtx := ctx
	var cancel context.CancelFunc = func() {}
	if timeout > 0 {
		attemptCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	resultCh := make(chan attemptResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				resultCh <- attemptResult{err: kerr.New(kerr.ExecutionError, fmt.Sprintf("caught panic: %v", r), nil)}
			}
		}()

		outcome, err := act.Run(attemptCtx, params, execContext)
		if err != nil {
			resultCh <- attemptResult{err: kerr.Wrap(kerr.ExecutionError, "action returned error", err, map[string]any{"action": act.Name()})}
			return
		}
		resultCh <- attemptResult{outcome: outcome}
	}()

	select {
	case res := <-resultCh:
		return res.outcome, res.err
	case <-attemptCtx.Done():
		return action.Outcome{}, kerr.New(kerr.Timeout, fmt.Sprintf("workflow timed out after %dms", timeout.Milliseconds()), map[string]any{"action": act.Name()})
	}
}

// sleep waits for d or ctx cancellation, returning false if ctx was
// cancelled first.
func (e *Executor) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

type compensationResult struct {
	result map[string]any
	err    error
}

// compensate invokes act.OnError under its own timeout if act supports
// compensation and its metadata enables it, wrapping originalErr in a
// CompensationError describing the outcome. The timeout is the action's
// own compensation.timeout metadata, else the attempt's resolved
// timeout, else defaultCompensationTimeout.
func (e *Executor) compensate(ctx context.Context, act action.Action, params, execContext map[string]any, originalErr error, options Options) (action.Outcome, error) {
	meta := action.MetadataOf(act)
	if !meta.Compensation.Enabled {
		return action.Outcome{}, originalErr
	}

	compensator, ok := act.(action.Compensator)
	if !ok {
		return action.Outcome{}, originalErr
	}

	timeout := meta.Compensation.Timeout
	if timeout <= 0 {
		timeout = options.Timeout
	}
	if timeout <= 0 {
		timeout = defaultCompensationTimeout
	}

	e.emit(ctx, options.Telemetry, false, observability.Event{
		Type:      EventCompensate,
		Level:     observability.LevelWarning,
		Timestamp: time.Now(),
		Source:    "workflow.compensate",
		Data:      map[string]any{"action": act.Name(), "timeout_ms": timeout.Milliseconds()},
	})

	compCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resultCh := make(chan compensationResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				resultCh <- compensationResult{err: fmt.Errorf("caught panic: %v", r)}
			}
		}()
		result, err := compensator.OnError(compCtx, params, originalErr, execContext)
		resultCh <- compensationResult{result: result, err: err}
	}()

	select {
	case res := <-resultCh:
		if res.err != nil {
			return action.Outcome{}, kerr.Wrap(kerr.CompensationError, "compensation failed", originalErr, map[string]any{
				"compensated":        false,
				"compensation_error": res.err.Error(),
			})
		}
		return action.Outcome{}, kerr.Wrap(kerr.CompensationError, "compensated", originalErr, map[string]any{
			"compensated":         true,
			"compensation_result": res.result,
		})
	case <-compCtx.Done():
		return action.Outcome{}, kerr.Wrap(kerr.CompensationError, "compensation timed out", originalErr, map[string]any{
			"compensated":        false,
			"compensation_error": fmt.Sprintf("compensation timed out after %dms", timeout.Milliseconds()),
		})
	}
}

// Handle identifies an in-flight asynchronous workflow run started by
// RunAsync.
type Handle struct {
	ID       string
	cancel   context.CancelFunc
	resultCh chan attemptResult
	done     chan struct{}
}

// RunAsync starts act running in the background and returns a Handle that
// Await or Cancel can act on. The ID is a UUIDv7 so handles sort roughly
// by creation time. params and execContext accept the same shapes Run
// does.
func (e *Executor) RunAsync(ctx context.Context, act action.Action, params, execContext any, opts map[string]any) *Handle {
	runCtx, cancel := context.WithCancel(ctx)

	h := &Handle{
		ID:       uuid.Must(uuid.NewV7()).String(),
		cancel:   cancel,
		resultCh: make(chan attemptResult, 1),
		done:     make(chan struct{}),
	}

	go func() {
		outcome, err := e.Run(runCtx, act, params, execContext, opts)
		h.resultCh <- attemptResult{outcome: outcome, err: err}
		close(h.done)
	}()

	return h
}

// Await blocks until h completes or timeout elapses. On timeout, it
// forcibly cancels the underlying run and returns a Timeout error.
func (e *Executor) Await(h *Handle, timeout time.Duration) (action.Outcome, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-h.resultCh:
		return res.outcome, res.err
	case <-timer.C:
		h.cancel()
		return action.Outcome{}, kerr.New(kerr.Timeout, fmt.Sprintf("await timed out after %dms", timeout.Milliseconds()), map[string]any{"handle_id": h.ID})
	}
}

// Cancel requests graceful shutdown of h's run. It always returns nil,
// even if the run already finished.
func (e *Executor) Cancel(h *Handle) error {
	h.cancel()
	return nil
}
