package parallel

import (
	"github.com/pkg/errors"

	"seqpipe/pkg/store"
	"seqpipe/pkg/util/context"
)

// RunFromQueue claims up to limit pending inputs from the queue and executes
// the pipeline for each of them. As every unit completes, its queue item is
// marked succeeded or failed; marking errors are logged, they do not fail the
// unit. The summary's total is the number of items actually claimed, which
// may be less than limit.
func RunFromQueue(ctx context.Context, factory RunnerFactory, qs store.QueueStore, limit int, opts Options) (Summary, error) {
	items, err := qs.ClaimPending(ctx, limit)
	if err != nil {
		return Summary{}, errors.Wrap(err, "cannot claim pending inputs")
	}
	if len(items) == 0 {
		ctx.Logger().Info("no pending inputs in queue")
		return Run(ctx, factory, nil, opts), nil
	}

	itemIDs := make(map[string]int64, len(items))
	inputs := make([]string, len(items))
	for i, it := range items {
		inputs[i] = it.InputRef
		itemIDs[it.InputRef] = it.ID
	}

	userProgress := opts.Progress
	opts.Progress = func(completed, total int, unit UnitResult) {
		if id, ok := itemIDs[unit.InputRef]; ok {
			markItem(ctx, qs, id, unit)
		}
		if userProgress != nil {
			userProgress(completed, total, unit)
		}
	}

	return Run(ctx, factory, inputs, opts), nil
}

func markItem(ctx context.Context, qs store.QueueStore, id int64, unit UnitResult) {
	var err error
	if unit.Result.Success {
		err = qs.MarkSucceeded(ctx, id)
	} else {
		msg := "unknown error"
		if unit.Result.Err != nil {
			msg = unit.Result.Err.Error()
		}
		err = qs.MarkFailed(ctx, id, msg)
	}
	if err != nil {
		ctx.Logger().Errorf("cannot mark input %d: %s", id, err)
	}
}
