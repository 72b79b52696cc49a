package jobs

import (
	"time"

	"github.com/pkg/errors"

	"seqpipe/pkg/pipeline"
	"seqpipe/pkg/store"
	"seqpipe/pkg/util/context"
)

// FinalizeResult is the terminal output of the default pipeline.
type FinalizeResult struct {
	BatchID          int64
	RecordsFinalized int
	Status           string
	CompletedAt      time.Time
}

// FinalizeJob marks all records of a batch finalized. It can only run on a
// batch that the dbwrite job has completed.
type FinalizeJob struct {
	st store.BatchStore
}

// NewFinalizeJob returns a finalize job reading from the given store.
func NewFinalizeJob(st store.BatchStore) *FinalizeJob {
	return &FinalizeJob{st: st}
}

// ValidateInput checks that the raw input is the ID of an existing batch that
// is completed and holds records.
func (j *FinalizeJob) ValidateInput(ctx context.Context, raw interface{}) (interface{}, error) {
	id, err := ValidateBatchID(raw)
	if err != nil {
		return nil, err
	}

	batch, err := j.st.GetBatch(ctx, id)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, pipeline.Validationf("batch_id", "batch %d does not exist", id)
		}
		return nil, errors.Wrapf(err, "cannot load batch %d", id)
	}
	if batch.Status != store.BatchCompleted {
		return nil, pipeline.Validationf("batch_id", "batch %d is not ready (status: %s)", id, batch.Status)
	}
	if batch.RecordCount == 0 {
		return nil, pipeline.Validationf("batch_id", "batch %d has no records to process", id)
	}
	return id, nil
}

// Process finalizes the batch's records and reports how many were flipped.
func (j *FinalizeJob) Process(ctx context.Context, input interface{}) (interface{}, error) {
	id := input.(int64)

	finalized, err := j.st.FinalizeBatch(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot finalize batch %d", id)
	}
	ctx.Logger().Infof("finalized %d records of batch %d", finalized, id)

	return FinalizeResult{
		BatchID:          id,
		RecordsFinalized: finalized,
		Status:           store.BatchFinalized,
		CompletedAt:      time.Now().UTC(),
	}, nil
}
