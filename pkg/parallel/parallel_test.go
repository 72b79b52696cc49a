package parallel

import (
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seqpipe/pkg/pipeline"
	"seqpipe/pkg/util/context"
)

// countingJob tracks how many executions run at the same time.
type countingJob struct {
	active  *int32
	peak    *int32
	failRef string
}

func (j countingJob) ValidateInput(ctx context.Context, raw interface{}) (interface{}, error) {
	return raw, nil
}

func (j countingJob) Process(ctx context.Context, input interface{}) (interface{}, error) {
	n := atomic.AddInt32(j.active, 1)
	defer atomic.AddInt32(j.active, -1)
	for {
		p := atomic.LoadInt32(j.peak)
		if n <= p || atomic.CompareAndSwapInt32(j.peak, p, n) {
			break
		}
	}
	runtime.Gosched()
	if j.failRef != "" && input.(string) == j.failRef {
		return nil, pipeline.Validationf("input", "rejected %s", input)
	}
	return strings.ToUpper(input.(string)), nil
}

func testFactory(t *testing.T, job pipeline.Job) RunnerFactory {
	def := pipeline.NewDefinition("test")
	require.NoError(t, def.AddJob("work", func(cfg map[string]interface{}) (pipeline.Job, error) {
		return job, nil
	}, nil, ""))

	dir := t.TempDir()
	cfg := pipeline.Config{
		OutputDir: filepath.Join(dir, "output"),
		DBPath:    filepath.Join(dir, "pipeline.db"),
	}
	runner, err := pipeline.NewRunner(cfg, def)
	require.NoError(t, err)
	return func() (*pipeline.Runner, error) {
		return runner, nil
	}
}

func TestWorkers(t *testing.T) {
	cpus := runtime.NumCPU()
	assert.Equal(t, cpus, Workers(0))
	assert.Equal(t, cpus, Workers(-3))
	assert.Equal(t, 1, Workers(1))
	assert.Equal(t, cpus, Workers(cpus+10))
}

func TestRunAllSucceed(t *testing.T) {
	var active, peak int32
	factory := testFactory(t, countingJob{active: &active, peak: &peak})

	inputs := []string{"a", "b", "c", "d"}
	summary := Run(context.Background(), factory, inputs, Options{MaxWorkers: 2})

	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, 4, summary.Succeeded)
	assert.Equal(t, 0, summary.Failed)
	require.Len(t, summary.Results, 4)
	assert.InDelta(t, 100.0, summary.SuccessRate(), 0.001)
	assert.False(t, summary.CompletedAt.Before(summary.StartedAt))

	outputs := make(map[string]interface{})
	for _, unit := range summary.Results {
		require.True(t, unit.Result.Success)
		outputs[unit.InputRef] = unit.Result.Output
	}
	assert.Equal(t, map[string]interface{}{"a": "A", "b": "B", "c": "C", "d": "D"}, outputs)
}

func TestRunWorkerCountVariants(t *testing.T) {
	inputs := []string{"a", "b", "c", "d"}
	for _, workers := range []int{1, len(inputs), 2 * len(inputs)} {
		var active, peak int32
		factory := testFactory(t, countingJob{active: &active, peak: &peak})

		summary := Run(context.Background(), factory, inputs, Options{MaxWorkers: workers})
		assert.Equalf(t, 4, summary.Total, "workers=%d", workers)
		assert.Equalf(t, 4, summary.Succeeded, "workers=%d", workers)
		assert.Equalf(t, 0, summary.Failed, "workers=%d", workers)
		assert.Lenf(t, summary.Results, 4, "workers=%d", workers)
		// Never more goroutines than inputs, whatever was requested.
		assert.LessOrEqualf(t, atomic.LoadInt32(&peak), int32(len(inputs)), "workers=%d", workers)
	}
}

func TestRunOneFailure(t *testing.T) {
	var active, peak int32
	factory := testFactory(t, countingJob{active: &active, peak: &peak, failRef: "c"})

	summary := Run(context.Background(), factory, []string{"a", "b", "c", "d"}, Options{MaxWorkers: 2})

	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, 3, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.InDelta(t, 75.0, summary.SuccessRate(), 0.001)

	for _, unit := range summary.Results {
		if unit.InputRef == "c" {
			require.False(t, unit.Result.Success)
			assert.Contains(t, unit.Result.Err.Error(), "rejected c")
		} else {
			assert.True(t, unit.Result.Success)
		}
	}
}

func TestRunBoundsWorkers(t *testing.T) {
	var active, peak int32
	factory := testFactory(t, countingJob{active: &active, peak: &peak})

	inputs := make([]string, 32)
	for i := range inputs {
		inputs[i] = strings.Repeat("x", i+1)
	}
	summary := Run(context.Background(), factory, inputs, Options{MaxWorkers: 2})

	assert.Equal(t, 32, summary.Succeeded)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestRunSingleWorkerOrdering(t *testing.T) {
	var active, peak int32
	factory := testFactory(t, countingJob{active: &active, peak: &peak})

	inputs := []string{"a", "b", "c"}
	var order []string
	summary := Run(context.Background(), factory, inputs, Options{
		MaxWorkers: 1,
		Progress: func(completed, total int, unit UnitResult) {
			order = append(order, unit.InputRef)
			assert.Equal(t, len(order), completed)
			assert.Equal(t, 3, total)
		},
	})

	assert.Equal(t, 3, summary.Succeeded)
	assert.Equal(t, inputs, order)
	assert.Equal(t, int32(1), atomic.LoadInt32(&peak))
}

func TestRunEmptyInputs(t *testing.T) {
	called := false
	factory := func() (*pipeline.Runner, error) {
		called = true
		return nil, nil
	}

	summary := Run(context.Background(), factory, nil, Options{MaxWorkers: 4})
	assert.Equal(t, 0, summary.Total)
	assert.Empty(t, summary.Results)
	assert.False(t, called)
	assert.Zero(t, summary.SuccessRate())
}

func TestRunProgressSerialized(t *testing.T) {
	var active, peak int32
	factory := testFactory(t, countingJob{active: &active, peak: &peak})

	var mu sync.Mutex
	inProgress := 0
	maxInProgress := 0
	count := 0
	summary := Run(context.Background(), factory, []string{"a", "b", "c", "d", "e"}, Options{
		MaxWorkers: 4,
		Progress: func(completed, total int, unit UnitResult) {
			mu.Lock()
			inProgress++
			if inProgress > maxInProgress {
				maxInProgress = inProgress
			}
			count++
			mu.Unlock()

			runtime.Gosched()

			mu.Lock()
			inProgress--
			mu.Unlock()
		},
	})

	assert.Equal(t, 5, summary.Succeeded)
	assert.Equal(t, 5, count)
	assert.Equal(t, 1, maxInProgress)
}

func TestRunProgressPanicShielded(t *testing.T) {
	var active, peak int32
	factory := testFactory(t, countingJob{active: &active, peak: &peak})

	summary := Run(context.Background(), factory, []string{"a", "b"}, Options{
		MaxWorkers: 1,
		Progress: func(completed, total int, unit UnitResult) {
			panic("broken callback")
		},
	})

	// The pool survives the panicking callback and finishes all units.
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 2, summary.Succeeded)
}

func TestRunFactoryFailure(t *testing.T) {
	factory := func() (*pipeline.Runner, error) {
		return nil, pipeline.Validationf("config", "cannot open store")
	}

	summary := Run(context.Background(), factory, []string{"a"}, Options{MaxWorkers: 1})
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Results, 1)
	assert.Contains(t, summary.Results[0].Result.Err.Error(), "cannot build runner")
}
