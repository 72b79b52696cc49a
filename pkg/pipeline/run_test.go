package pipeline

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seqpipe/pkg/util/context"
)

// appendJob records its execution and appends its name to a string input.
type appendJob struct {
	name string
	runs *[]string
	fail bool
}

func (j appendJob) ValidateInput(ctx context.Context, raw interface{}) (interface{}, error) {
	s, ok := raw.(string)
	if !ok {
		return nil, Validationf("input", "expected string, got %T", raw)
	}
	return s, nil
}

func (j appendJob) Process(ctx context.Context, input interface{}) (interface{}, error) {
	*j.runs = append(*j.runs, j.name)
	if j.fail {
		return nil, errors.New("stage failure")
	}
	return input.(string) + "+" + j.name, nil
}

func appendJobFactory(name string, runs *[]string, fail bool) Factory {
	return func(cfg map[string]interface{}) (Job, error) {
		return appendJob{name: name, runs: runs, fail: fail}, nil
	}
}

func TestRunRangeChaining(t *testing.T) {
	var runs []string
	def := NewDefinition("chain")
	require.NoError(t, def.AddJob("a", appendJobFactory("a", &runs, false), nil, ""))
	require.NoError(t, def.AddJob("b", appendJobFactory("b", &runs, false), nil, ""))
	require.NoError(t, def.AddJob("c", appendJobFactory("c", &runs, false), nil, ""))

	jobs, err := def.JobsInRange("", "")
	require.NoError(t, err)

	res := RunRange(context.Background(), jobs, "in")
	require.True(t, res.Success)
	assert.Equal(t, "in+a+b+c", res.Output)
	assert.Equal(t, []string{"a", "b", "c"}, res.JobsRun)
	assert.Equal(t, []string{"a", "b", "c"}, runs)
}

func TestRunRangeFailFast(t *testing.T) {
	var runs []string
	def := NewDefinition("failfast")
	require.NoError(t, def.AddJob("a", appendJobFactory("a", &runs, false), nil, ""))
	require.NoError(t, def.AddJob("b", appendJobFactory("b", &runs, true), nil, ""))
	require.NoError(t, def.AddJob("c", appendJobFactory("c", &runs, false), nil, ""))

	jobs, err := def.JobsInRange("", "")
	require.NoError(t, err)

	res := RunRange(context.Background(), jobs, "in")
	require.False(t, res.Success)
	assert.Nil(t, res.Output)
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "stage failure")

	// The failing job is counted, the one after it never ran.
	assert.Equal(t, []string{"a", "b"}, res.JobsRun)
	assert.Equal(t, []string{"a", "b"}, runs)
}

func TestRunRangeEmpty(t *testing.T) {
	res := RunRange(context.Background(), nil, "unchanged")
	assert.True(t, res.Success)
	assert.Equal(t, "unchanged", res.Output)
	assert.Empty(t, res.JobsRun)
}

func TestRunRangeFactoryError(t *testing.T) {
	def := NewDefinition("broken")
	require.NoError(t, def.AddJob("bad", func(cfg map[string]interface{}) (Job, error) {
		return nil, errors.New("missing config key")
	}, nil, ""))

	jobs, err := def.JobsInRange("", "")
	require.NoError(t, err)

	res := RunRange(context.Background(), jobs, nil)
	require.False(t, res.Success)
	assert.Contains(t, res.Err.Error(), "missing config key")
	assert.Equal(t, []string{"bad"}, res.JobsRun)
}

// TestRunRangeThreeStage exercises a three stage text pipeline end to end:
// split lines, count them, render a report.
func TestRunRangeThreeStage(t *testing.T) {
	def := NewDefinition("text")
	require.NoError(t, def.AddJob("split", funcJobFactory(func(in interface{}) (interface{}, error) {
		return strings.Split(in.(string), "\n"), nil
	}), nil, ""))
	require.NoError(t, def.AddJob("count", funcJobFactory(func(in interface{}) (interface{}, error) {
		return len(in.([]string)), nil
	}), nil, ""))
	require.NoError(t, def.AddJob("report", funcJobFactory(func(in interface{}) (interface{}, error) {
		return map[string]interface{}{"lines": in.(int)}, nil
	}), nil, ""))

	jobs, err := def.JobsInRange("", "")
	require.NoError(t, err)

	res := RunRange(context.Background(), jobs, "line1\nline2")
	require.True(t, res.Success)
	assert.Equal(t, map[string]interface{}{"lines": 2}, res.Output)
	assert.Equal(t, []string{"split", "count", "report"}, res.JobsRun)
}

// funcJob adapts a plain function to the Job interface.
type funcJob struct {
	fn func(interface{}) (interface{}, error)
}

func (j funcJob) ValidateInput(ctx context.Context, raw interface{}) (interface{}, error) {
	return raw, nil
}

func (j funcJob) Process(ctx context.Context, input interface{}) (interface{}, error) {
	return j.fn(input)
}

func funcJobFactory(fn func(interface{}) (interface{}, error)) Factory {
	return func(cfg map[string]interface{}) (Job, error) {
		return funcJob{fn: fn}, nil
	}
}
