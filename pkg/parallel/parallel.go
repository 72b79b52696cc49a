// Package parallel fans one pipeline out over many independent inputs using a
// bounded pool of workers. Each input gets its own full range execution; one
// input's failure never aborts the others.
package parallel

import (
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"seqpipe/pkg/pipeline"
	"seqpipe/pkg/util/context"
)

// UnitResult records the outcome of one input's pipeline run.
type UnitResult struct {
	InputRef string
	Result   pipeline.RangeResult
	Duration time.Duration
}

// Summary aggregates the outcomes of a parallel run. Results are appended in
// completion order, not submission order.
type Summary struct {
	Total       int
	Succeeded   int
	Failed      int
	Results     []UnitResult
	StartedAt   time.Time
	CompletedAt time.Time
}

// SuccessRate returns the share of succeeded units as a percentage.
func (s Summary) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Succeeded) / float64(s.Total) * 100
}

// ProgressFunc is called exactly once per completed unit, in completion order,
// with the running completed count, the total and that unit's result.
// Invocations are serialized; a panicking callback is logged, never propagated.
type ProgressFunc func(completed, total int, last UnitResult)

// RunnerFactory builds the runner a worker uses for one unit of work.
// The factory is called once per unit so each unit owns its runner; a factory
// may also hand out one shared runner, which is safe since runners hold no
// mutable state.
type RunnerFactory func() (*pipeline.Runner, error)

// Options configures a parallel run.
type Options struct {
	// MaxWorkers is the pool size. Values below 1 fall back to Workers(0).
	MaxWorkers int

	// StartFrom and StopAfter select the job range run for every input.
	// Empty means full pipeline.
	StartFrom string
	StopAfter string

	// Progress, if set, is notified after each unit completes.
	Progress ProgressFunc
}

// Workers returns the number of workers to use for the requested count:
// the CPU count when requested is zero or negative, otherwise the request
// capped at the CPU count.
func Workers(requested int) int {
	cpus := runtime.NumCPU()
	if requested < 1 {
		return cpus
	}
	if requested > cpus {
		return cpus
	}
	return requested
}

// Run executes the pipeline for every input, at most opts.MaxWorkers at a
// time, and aggregates the per-input outcomes. An empty input list returns an
// empty summary immediately.
func Run(ctx context.Context, factory RunnerFactory, inputs []string, opts Options) Summary {
	started := time.Now()
	summary := Summary{
		Total:     len(inputs),
		StartedAt: started,
	}
	if len(inputs) == 0 {
		summary.CompletedAt = time.Now()
		return summary
	}

	workers := opts.MaxWorkers
	if workers < 1 {
		workers = Workers(0)
	}
	if workers > len(inputs) {
		workers = len(inputs)
	}
	ctx.Logger().Infof("processing %d inputs with %d workers", len(inputs), workers)

	taskCh := make(chan string)
	var wg sync.WaitGroup
	var mu sync.Mutex
	completed := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ref := range taskCh {
				unit := runUnit(ctx, factory, ref, opts)

				mu.Lock()
				summary.Results = append(summary.Results, unit)
				if unit.Result.Success {
					summary.Succeeded++
				} else {
					summary.Failed++
				}
				completed++
				notify(ctx, opts.Progress, completed, summary.Total, unit)
				mu.Unlock()
			}
		}()
	}

	for _, ref := range inputs {
		taskCh <- ref
	}
	close(taskCh)
	wg.Wait()

	summary.CompletedAt = time.Now()
	return summary
}

// runUnit runs the pipeline once for a single input. Any fault, a failing
// factory or a panic included, becomes that unit's failed result.
func runUnit(ctx context.Context, factory RunnerFactory, ref string, opts Options) (unit UnitResult) {
	started := time.Now()
	unit = UnitResult{InputRef: ref}
	defer func() {
		unit.Duration = time.Since(started)
		if r := recover(); r != nil {
			unit.Result = pipeline.RangeResult{
				Err: errors.Errorf("input %s panicked: %v", ref, r),
			}
		}
	}()

	uctx := context.WithInputRef(context.WithRunID(ctx, uuid.New().String()), ref)

	runner, err := factory()
	if err != nil {
		unit.Result = pipeline.RangeResult{
			Err: errors.Wrapf(err, "cannot build runner for input %s", ref),
		}
		return unit
	}

	unit.Result = runner.Run(uctx, ref, opts.StartFrom, opts.StopAfter)
	return unit
}

// notify invokes the progress callback, shielding the pool from it.
func notify(ctx context.Context, f ProgressFunc, completed, total int, unit UnitResult) {
	if f == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			ctx.Logger().Errorf("progress callback panicked: %v", r)
		}
	}()
	f(completed, total, unit)
}
