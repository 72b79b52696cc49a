package pipeline

import (
	"time"

	"github.com/pkg/errors"

	"seqpipe/pkg/util/context"
)

// Job is the contract every pipeline stage implements.
//
// Implementations must not recover from their own failures; converting errors
// into results is the exclusive responsibility of Execute.
type Job interface {
	// ValidateInput checks the raw value handed to the stage and returns its
	// typed form. It must be free of side effects.
	ValidateInput(ctx context.Context, raw interface{}) (interface{}, error)

	// Process runs the stage on a validated input and returns the value handed
	// to the next stage. It may perform I/O.
	Process(ctx context.Context, input interface{}) (interface{}, error)
}

// JobResult is the uniform outcome of one job execution.
// Exactly one of Output and Err is set, depending on Success.
type JobResult struct {
	JobName   string
	Success   bool
	Output    interface{}
	Err       error
	StartedAt time.Time
	Duration  time.Duration
}

// Execute runs the job on the raw input: validation first, then processing.
// Every failure raised by either step, panics included, is converted into a
// failed JobResult so that callers never see an uncaught fault from a job.
func Execute(ctx context.Context, name string, job Job, raw interface{}) (res JobResult) {
	started := time.Now()
	res = JobResult{
		JobName:   name,
		StartedAt: started,
	}
	defer func() {
		res.Duration = time.Since(started)
		if r := recover(); r != nil {
			res.Success = false
			res.Output = nil
			res.Err = errors.Errorf("job %s panicked: %v", name, r)
		}
	}()

	validated, err := job.ValidateInput(ctx, raw)
	if err != nil {
		res.Err = errors.Wrapf(err, "job %s", name)
		return res
	}

	output, err := job.Process(ctx, validated)
	if err != nil {
		res.Err = errors.Wrapf(err, "job %s", name)
		return res
	}

	res.Success = true
	res.Output = output
	return res
}
