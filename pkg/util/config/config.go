package config

import (
	"encoding/json"
	"io"
	"os"

	"github.com/caarlos0/env/v6"
	"github.com/pkg/errors"

	"seqpipe/pkg/util/maps"
)

var config = make(map[string]interface{})

// Load reads the config file at the given path into the package configuration.
// An empty path is a no-op, running with defaults and env variables only.
func Load(path string) error {
	if path == "" {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "cannot open file %s", path)
	}
	defer f.Close()

	return Read(f)
}

// Read reads config from the given reader.
func Read(in io.Reader) error {
	if err := json.NewDecoder(in).Decode(&config); err != nil {
		return errors.Wrap(err, "cannot decode config")
	}
	return nil
}

// Get returns the value for the given dotted key.
func Get(key string) interface{} {
	return maps.Get(config, key)
}

// Unmarshal parses the config data for the given key and stores the result in
// the value pointed to by v. Env variables declared through `env` tags take
// precedence over the config file.
func Unmarshal(key string, v interface{}) error {
	in := Get(key)
	if in != nil {
		if err := maps.Decode(in, v); err != nil {
			return errors.Wrapf(err, "cannot decode config for key %s", key)
		}
	}
	if err := env.Parse(v); err != nil {
		return errors.Wrap(err, "cannot parse env")
	}
	return nil
}
