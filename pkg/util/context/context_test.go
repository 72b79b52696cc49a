package context

import (
	gocontext "context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithValues(t *testing.T) {
	c := Background()
	assert.Empty(t, c.PipelineName())

	c = WithPipelineName(c, "default")
	c = WithJobName(c, "split")
	c = WithInputRef(c, "input.txt")
	c = WithRunID(c, "run-1")

	assert.Equal(t, "default", c.PipelineName())
	assert.Equal(t, "split", c.JobName())
	assert.Equal(t, "input.txt", c.InputRef())
	assert.Equal(t, "run-1", c.RunID())

	// Derived contexts do not alter their parent.
	c2 := WithJobName(c, "dbwrite")
	assert.Equal(t, "split", c.JobName())
	assert.Equal(t, "dbwrite", c2.JobName())
	assert.Equal(t, "default", c2.PipelineName())
}

func TestFromContext(t *testing.T) {
	base := gocontext.Background()
	c := FromContext(base)
	assert.NotNil(t, c.Logger())

	// Already extended contexts come back unchanged.
	c = WithRunID(c, "run-1")
	same := FromContext(c)
	assert.Equal(t, "run-1", same.RunID())
}

func TestConfigure(t *testing.T) {
	require.NoError(t, Configure("debug"))
	require.NoError(t, Configure("off"))
	require.NoError(t, Configure("OFF"))
	assert.Error(t, Configure("bogus"))

	// leave the shared logger quiet for the other tests
	require.NoError(t, Configure("off"))
}
