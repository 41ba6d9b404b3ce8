// Package dispatch runs one external command per work item across a fixed
// pool of workers and reduces the individual outcomes to a single verdict.
//
// The dispatcher never stops early: a failing item is recorded and the
// remaining items still run. Only aggregate counters leave Run.
package dispatch

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// TaskRunner executes the work for a single item.
// A non-nil error means the task could not be dispatched at all.
// Otherwise exitCode is the external command's exit status.
type TaskRunner interface {
	Run(ctx context.Context, item string) (exitCode int, err error)
}

// TaskRunnerFunc adapts a plain function to TaskRunner.
type TaskRunnerFunc func(ctx context.Context, item string) (int, error)

// Run calls f(ctx, item).
func (f TaskRunnerFunc) Run(ctx context.Context, item string) (int, error) {
	return f(ctx, item)
}

// Logger receives dispatcher progress. Implementations must be safe for
// concurrent use since workers report outcomes directly.
type Logger interface {
	LogRunStart(runID string, items int, workers int)
	LogTaskOutcome(item string, outcome Outcome, exitCode int)
	LogDispatchError(item string, err error)
	LogRunComplete(runID string, result RunResult)
}

// Config controls pool size and failure policy.
type Config struct {
	// Workers is the pool size. Values < 1 fall back to the host CPU count.
	Workers int

	// Verbose enables reporting of dispatch errors through the logger.
	Verbose bool

	// StrictDispatchErrors makes OutcomeDispatchError fail the run.
	// Off by default: a task that cannot even be started is logged and
	// ignored, and only non-zero exits count against the run.
	StrictDispatchErrors bool
}

// RunResult is the aggregate over all items of a single Run.
type RunResult struct {
	RunID          string
	Failed         bool
	Processed      int
	Succeeded      int
	ToolFailures   int
	DispatchErrors int
	Duration       time.Duration
}

// ExitCode maps the aggregate to a process status.
func (r RunResult) ExitCode() int {
	if r.Failed {
		return 1
	}
	return 0
}

// Dispatcher fans work items out to a bounded pool of workers.
type Dispatcher struct {
	runner TaskRunner
	cfg    Config
	logger Logger
}

// New constructs a Dispatcher. logger may be nil.
func New(runner TaskRunner, cfg Config, logger Logger) *Dispatcher {
	if cfg.Workers < 1 {
		cfg.Workers = runtime.NumCPU()
	}
	return &Dispatcher{
		runner: runner,
		cfg:    cfg,
		logger: logger,
	}
}

// Workers returns the effective pool size.
func (d *Dispatcher) Workers() int {
	return d.cfg.Workers
}

// Run processes every item exactly once and blocks until the queue drains.
// The context is handed to each task; Run itself does not cancel in-flight
// work when an item fails.
func (d *Dispatcher) Run(ctx context.Context, items []string) RunResult {
	start := time.Now()
	runID := uuid.NewString()

	if d.logger != nil {
		d.logger.LogRunStart(runID, len(items), d.cfg.Workers)
	}

	queue := make(chan string, len(items))
	for _, item := range items {
		queue <- item
	}
	close(queue)

	var (
		failed         atomic.Bool
		processed      atomic.Int64
		succeeded      atomic.Int64
		toolFailures   atomic.Int64
		dispatchErrors atomic.Int64
		wg             sync.WaitGroup
	)

	for i := 0; i < d.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range queue {
				outcome, code := d.runOne(ctx, item)
				processed.Add(1)

				switch outcome {
				case OutcomeSuccess:
					succeeded.Add(1)
				case OutcomeToolFailure:
					toolFailures.Add(1)
				case OutcomeDispatchError:
					dispatchErrors.Add(1)
				}

				if outcome.CountsAsFailure(d.cfg.StrictDispatchErrors) {
					failed.Store(true)
				}

				if d.logger != nil {
					d.logger.LogTaskOutcome(item, outcome, code)
				}
			}
		}()
	}

	wg.Wait()

	result := RunResult{
		RunID:          runID,
		Failed:         failed.Load(),
		Processed:      int(processed.Load()),
		Succeeded:      int(succeeded.Load()),
		ToolFailures:   int(toolFailures.Load()),
		DispatchErrors: int(dispatchErrors.Load()),
		Duration:       time.Since(start),
	}

	if d.logger != nil {
		d.logger.LogRunComplete(runID, result)
	}

	return result
}

// runOne executes a single item and classifies what happened.
// A panicking runner is treated like any other dispatch error.
func (d *Dispatcher) runOne(ctx context.Context, item string) (outcome Outcome, code int) {
	defer func() {
		if r := recover(); r != nil {
			d.reportDispatchError(item, &PanicError{Item: item, Value: r})
			outcome, code = OutcomeDispatchError, -1
		}
	}()

	code, err := d.runner.Run(ctx, item)
	if err != nil {
		d.reportDispatchError(item, err)
		return OutcomeDispatchError, -1
	}
	return Classify(code), code
}

func (d *Dispatcher) reportDispatchError(item string, err error) {
	if d.cfg.Verbose && d.logger != nil {
		d.logger.LogDispatchError(item, err)
	}
}
