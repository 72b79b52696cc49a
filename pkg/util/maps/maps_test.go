package maps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	m := map[string]interface{}{
		"str": "foo",
		"num": 1,
		"pipeline": map[string]interface{}{
			"enabled": false,
			"jobs":    []string{"split", "dbwrite", "finalize"},
		},
	}

	assert.Equal(t, "foo", Get(m, "str"))
	assert.Equal(t, false, Get(m, "pipeline.enabled"))
	assert.Equal(t, []string{"split", "dbwrite", "finalize"}, Get(m, "pipeline.jobs"))

	assert.Nil(t, Get(m, "missing"))
	assert.Nil(t, Get(m, "pipeline.enabled.nested"))
}

func TestDecode(t *testing.T) {
	type conf struct {
		OutputDir string `mapstructure:"output_dir"`
		Workers   int    `mapstructure:"workers"`
	}

	var c conf
	err := Decode(map[string]interface{}{
		"output_dir": "data/output",
		"workers":    4,
	}, &c)
	require.NoError(t, err)
	assert.Equal(t, "data/output", c.OutputDir)
	assert.Equal(t, 4, c.Workers)

	err = Decode("not a map", &c)
	assert.Error(t, err)
}
