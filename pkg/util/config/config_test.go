package config

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Load without a config file
	{
		err := Load("")
		require.NoError(t, err)
		assert.Equal(t, 0, len(config))
	}

	// Load from file
	{
		err := Load("tstdata/ok.json")
		require.NoError(t, err)
		assert.Equal(t, 2, len(config))
	}

	// Missing file
	{
		err := Load("tstdata/missing.json")
		require.Error(t, err)
	}

	// Not valid json
	{
		r := strings.NewReader(`{"pipeline":{"output_dir":"o`)
		err := Read(r)
		require.Error(t, err)
	}
}

func TestGet(t *testing.T) {
	config = map[string]interface{}{}

	// Empty config
	v := Get("pipeline")
	assert.Nil(t, v)

	config = map[string]interface{}{
		"workers": 4,
		"pipeline": map[string]interface{}{
			"output_dir": "data/output",
			"verbose":    true,
		},
	}

	vInt, isInt := Get("workers").(int)
	require.True(t, isInt)
	assert.Equal(t, 4, vInt)

	// Subpath missing
	v = Get("workers.sub")
	assert.Nil(t, v)

	// Subpath OK
	vBool, isBool := Get("pipeline.verbose").(bool)
	require.True(t, isBool)
	assert.True(t, vBool)
}

type testConf struct {
	OutputDir string `mapstructure:"output_dir"`
	Verbose   bool   `mapstructure:"verbose"`
	DBPath    string `mapstructure:"db_path" env:"TEST_DB_PATH"`
}

func TestUnmarshal(t *testing.T) {
	config = map[string]interface{}{
		"workers": 4,
		"pipeline": map[string]interface{}{
			"output_dir": "data/output",
			"verbose":    true,
		},
	}

	var v1 testConf
	err := Unmarshal("workers", &v1)
	require.Error(t, err)

	var v2 testConf
	os.Setenv("TEST_DB_PATH", "data/test.db")
	err = Unmarshal("pipeline", &v2)
	require.NoError(t, err)
	assert.True(t, v2.Verbose)
	assert.Equal(t, "data/test.db", v2.DBPath)

	// env.Parse error on non-pointer
	var v3 testConf
	err = Unmarshal("missing", v3)
	require.Error(t, err)
}
