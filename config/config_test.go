// Copyright 2020 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorse-io/autorec/base"
	"github.com/gorse-io/autorec/dataset"
	"github.com/gorse-io/autorec/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshal(t *testing.T) {
	config, err := LoadConfig("config.toml.template")
	require.NoError(t, err)
	// [data]
	assert.Equal(t, "ml-100k/u.data", config.Data.Path)
	assert.Equal(t, dataset.MovieLens100K, config.Data.Format)
	assert.Equal(t, dataset.MovieLens100K, config.Data.GetFormat())
	assert.Equal(t, "item", config.Data.By)
	assert.True(t, config.Data.ByItem())
	assert.Equal(t, float32(1), config.Data.MinRating)
	assert.Equal(t, float32(5), config.Data.MaxRating)
	assert.Equal(t, 0.9, config.Data.TrainRatio)
	assert.False(t, config.Data.Strict)
	assert.Equal(t, int64(1), config.Data.Seed)
	// [model]
	assert.Equal(t, 500, config.Model.HiddenSize)
	assert.Equal(t, "sigmoid", config.Model.Activation)
	assert.Equal(t, "sgd", config.Model.Optimizer)
	assert.Equal(t, 30, config.Model.NEpochs)
	assert.Equal(t, 35, config.Model.BatchSize)
	assert.Equal(t, float32(0.03), config.Model.Lr)
	assert.Equal(t, float32(0.02), config.Model.WeightDecay)
	assert.Equal(t, float32(0.25), config.Model.HideRatio)
	assert.Equal(t, float32(1), config.Model.Alpha)
	assert.Equal(t, float32(0.5), config.Model.Beta)
	assert.False(t, config.Model.SizeAverage)
	// [fit]
	assert.Equal(t, 4, config.Fit.Jobs)
	assert.Equal(t, 2, config.Fit.Verbose)
	assert.Equal(t, 3, config.Fit.Patience)
	assert.Equal(t, time.Hour, config.Fit.Timeout)
	// [tune]
	assert.Equal(t, 20, config.Tune.NumTrials)
	assert.Equal(t, 10, config.Tune.NumEpochs)
}

func TestSetDefault(t *testing.T) {
	config, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, GetDefaultConfig(), config)
}

func TestBindEnv(t *testing.T) {
	t.Setenv("AUTOREC_DATA_PATH", "<path>")
	t.Setenv("AUTOREC_DATA_FORMAT", "ml-1m")
	t.Setenv("AUTOREC_BY", "user")
	t.Setenv("AUTOREC_N_EPOCHS", "7")
	t.Setenv("AUTOREC_JOBS", "8")
	t.Setenv("AUTOREC_TIMEOUT", "90s")
	t.Setenv("AUTOREC_N_TRIALS", "5")

	config, err := LoadConfig("config.toml.template")
	require.NoError(t, err)
	assert.Equal(t, "<path>", config.Data.Path)
	assert.Equal(t, dataset.MovieLens1M, config.Data.Format)
	assert.Equal(t, "user", config.Data.By)
	assert.Equal(t, 7, config.Model.NEpochs)
	assert.Equal(t, 8, config.Fit.Jobs)
	assert.Equal(t, 90*time.Second, config.Fit.Timeout)
	assert.Equal(t, 5, config.Tune.NumTrials)
	// values from file
	assert.Equal(t, "sigmoid", config.Model.Activation)
}

func TestCustomFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[data]
path = "ratings.txt"
format = "custom"
sep = ";"
header = true
`), 0o644))
	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, dataset.Format{Sep: ";", Header: true, Columns: [3]int{0, 1, 2}}, config.Data.GetFormat())
}

func TestValidate(t *testing.T) {
	for _, text := range []string{
		"[data]\nby = \"both\"",
		"[data]\nmin_rating = 5\nmax_rating = 1",
		"[data]\ntrain_ratio = 0",
		"[data]\ntrain_ratio = 1.5",
		"[data]\nsqlite_dsn = \"file:test.db\"",
		"[data]\npath = \"a.csv\"\nsqlite_dsn = \"file:test.db\"\nsqlite_query = \"SELECT 1\"",
		"[data]\npath = \"a.csv\"\nformat = \"custom\"",
		"[model]\nhidden_size = 0",
		"[model]\nactivation = \"softmax\"",
		"[model]\noptimizer = \"rmsprop\"",
		"[model]\nn_epochs = 0",
		"[model]\nbatch_size = 0",
		"[model]\nlr = 0",
		"[model]\nhide_ratio = 1.5",
		"[model]\nalpha = -1",
		"[model]\nbeta = -1",
		"[fit]\njobs = 0",
		"[fit]\npatience = -1",
		"[tune]\nn_trials = 0",
	} {
		path := filepath.Join(t.TempDir(), "config.toml")
		require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
		_, err := LoadConfig(path)
		assert.True(t, base.IsConfigError(err), text)
	}

	// unknown format name
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[data]\nformat = \"parquet\""), 0o644))
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestConfig_Get(t *testing.T) {
	config := GetDefaultConfig()
	opts := config.Data.GetOptions()
	assert.NoError(t, opts.Validate())
	assert.Equal(t, dataset.DefaultRescaler, opts.Rescaler)
	assert.Equal(t, 0.9, opts.TrainRatio)
	assert.False(t, config.Data.ByItem())

	params := config.Model.GetParams()
	assert.Equal(t, 500, params.GetInt(model.HiddenSize, 0))
	assert.Equal(t, "tanh", params.GetString(model.Activation, ""))
	assert.Equal(t, float32(0.03), params.GetFloat32(model.Lr, 0))
	assert.Equal(t, float32(0.25), params.GetFloat32(model.HideRatio, 0))
	assert.Equal(t, int64(0), params.GetInt64(model.RandomState, -1))

	fitConfig := config.Fit.GetFitConfig()
	assert.Equal(t, 1, fitConfig.Jobs)
	assert.Equal(t, 1, fitConfig.Verbose)
}
