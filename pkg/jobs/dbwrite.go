package jobs

import (
	"github.com/pkg/errors"

	"seqpipe/pkg/store"
	"seqpipe/pkg/util/context"
)

// DBWriteJob writes a processed document to the batch store as one batch with
// its records. Its output is the created batch ID.
type DBWriteJob struct {
	st store.BatchStore
}

// NewDBWriteJob returns a dbwrite job persisting to the given store.
func NewDBWriteJob(st store.BatchStore) *DBWriteJob {
	return &DBWriteJob{st: st}
}

// ValidateInput checks that the raw input is a processed document, in any of
// the accepted representations.
func (j *DBWriteJob) ValidateInput(ctx context.Context, raw interface{}) (interface{}, error) {
	doc, err := ValidateProcessedDoc(raw)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Process stores the document's records as a new batch and returns its ID.
func (j *DBWriteJob) Process(ctx context.Context, input interface{}) (interface{}, error) {
	doc := input.(ProcessedDoc)

	records := make([]store.Record, len(doc.Records))
	for i, r := range doc.Records {
		records[i] = store.Record{
			Name:  r.Name,
			Value: r.Value,
		}
	}

	batchID, err := j.st.CreateBatch(ctx, doc.SourceFile, records)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot store batch for %s", doc.SourceFile)
	}
	ctx.Logger().Infof("stored batch %d with %d records", batchID, len(records))

	return batchID, nil
}
