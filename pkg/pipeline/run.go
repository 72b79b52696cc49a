package pipeline

import (
	"seqpipe/pkg/util/context"
)

// RangeResult is the terminal result of one range execution.
// Immutable once returned.
type RangeResult struct {
	Success bool
	Output  interface{}
	Err     error
	JobsRun []string
}

// RunRange executes the given jobs in order, feeding each job's output to the
// next one as its input. Execution stops at the first failed job; no later job
// in the range runs. JobsRun lists the jobs that were executed, the failing
// one included.
func RunRange(ctx context.Context, jobs []JobSpec, input interface{}) RangeResult {
	if len(jobs) == 0 {
		ctx.Logger().Warn("no jobs to run")
		return RangeResult{Success: true, Output: input}
	}

	current := input
	jobsRun := make([]string, 0, len(jobs))

	for i, spec := range jobs {
		jctx := context.WithJobName(ctx, spec.Name)
		jctx.Logger().Infof("step %d/%d: starting job %s", i+1, len(jobs), spec.Name)

		jobsRun = append(jobsRun, spec.Name)

		job, err := spec.NewInstance()
		if err != nil {
			jctx.Logger().Errorf("cannot instantiate job %s: %s", spec.Name, err)
			return RangeResult{Err: err, JobsRun: jobsRun}
		}

		res := Execute(jctx, spec.Name, job, current)
		if !res.Success {
			jctx.Logger().Errorf("pipeline stopped at job %s: %s", spec.Name, res.Err)
			return RangeResult{Err: res.Err, JobsRun: jobsRun}
		}
		jctx.Logger().Infof("job %s completed in %s", spec.Name, res.Duration)

		current = res.Output
	}

	return RangeResult{Success: true, Output: current, JobsRun: jobsRun}
}
