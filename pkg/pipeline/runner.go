package pipeline

import (
	"github.com/pkg/errors"

	"seqpipe/pkg/util/context"
)

// Runner runs a pipeline definition with a stored configuration. It is the
// boundary where definition errors and execution errors are unified: every
// entry point returns a RangeResult, never an uncaught error.
//
// A Runner holds no mutable state and may be shared across goroutines.
type Runner struct {
	cfg Config
	def *Definition
}

// NewRunner returns a runner for the given definition.
func NewRunner(cfg Config, def *Definition) (*Runner, error) {
	if def == nil || def.Len() == 0 {
		return nil, errors.New("pipeline definition has no jobs")
	}
	if err := cfg.EnsureDirs(); err != nil {
		return nil, err
	}
	return &Runner{cfg: cfg, def: def}, nil
}

// Config returns the runner configuration.
func (r *Runner) Config() Config {
	return r.cfg
}

// JobNames returns the names of the definition's jobs in execution order.
func (r *Runner) JobNames() []string {
	return r.def.JobNames()
}

// Run resolves the requested range and executes it on the given input.
// Range-resolution failures are surfaced as a failed RangeResult.
func (r *Runner) Run(ctx context.Context, input interface{}, startFrom, stopAfter string) RangeResult {
	pctx := context.WithPipelineName(ctx, r.def.Name())

	jobs, err := r.def.JobsInRange(startFrom, stopAfter)
	if err != nil {
		pctx.Logger().Errorf("cannot resolve job range: %s", err)
		return RangeResult{Err: err}
	}
	return RunRange(pctx, jobs, input)
}

// RunFull runs the complete pipeline.
func (r *Runner) RunFull(ctx context.Context, input interface{}) RangeResult {
	return r.Run(ctx, input, "", "")
}

// RunSingle runs a single job.
func (r *Runner) RunSingle(ctx context.Context, name string, input interface{}) RangeResult {
	return r.Run(ctx, input, name, name)
}

// RunFrom runs from the given job to the end.
func (r *Runner) RunFrom(ctx context.Context, name string, input interface{}) RangeResult {
	return r.Run(ctx, input, name, "")
}

// RunUntil runs from the beginning up to the given job, inclusive.
func (r *Runner) RunUntil(ctx context.Context, name string, input interface{}) RangeResult {
	return r.Run(ctx, input, "", name)
}
