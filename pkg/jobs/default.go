package jobs

import (
	"github.com/pkg/errors"

	"seqpipe/pkg/pipeline"
	"seqpipe/pkg/store"
)

// Default pipeline job names.
const (
	JobSplit    = "split"
	JobDBWrite  = "dbwrite"
	JobFinalize = "finalize"
)

// DefaultDefinition returns the standard split -> dbwrite -> finalize
// pipeline. The batch store is shared by all job instances; each instance
// still receives a fresh configuration map from its config factory.
func DefaultDefinition(cfg pipeline.Config, st store.BatchStore) (*pipeline.Definition, error) {
	def := pipeline.NewDefinition("default")

	err := def.AddJob(JobSplit, NewSplitJob,
		func() map[string]interface{} {
			return map[string]interface{}{"output_dir": cfg.OutputDir}
		},
		"parse a source file into records and write the processed document")
	if err != nil {
		return nil, errors.Wrap(err, "cannot add split job")
	}

	err = def.AddJob(JobDBWrite,
		func(map[string]interface{}) (pipeline.Job, error) {
			return NewDBWriteJob(st), nil
		},
		nil,
		"write parsed records to the database as a batch")
	if err != nil {
		return nil, errors.Wrap(err, "cannot add dbwrite job")
	}

	err = def.AddJob(JobFinalize,
		func(map[string]interface{}) (pipeline.Job, error) {
			return NewFinalizeJob(st), nil
		},
		nil,
		"finalize all records of a batch")
	if err != nil {
		return nil, errors.Wrap(err, "cannot add finalize job")
	}

	return def, nil
}
