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
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/gorse-io/autorec/dataset"
	"github.com/gorse-io/autorec/model"
	"github.com/gorse-io/autorec/model/autorec"
	"github.com/juju/errors"
	"github.com/spf13/viper"
)

// Config is the configuration of a training run.
type Config struct {
	Data  DataConfig  `mapstructure:"data"`
	Model ModelConfig `mapstructure:"model"`
	Fit   FitConfig   `mapstructure:"fit"`
	Tune  TuneConfig  `mapstructure:"tune"`
}

// DataConfig describes where ratings come from and how they are split.
type DataConfig struct {
	Path        string         `mapstructure:"path"`
	Format      dataset.Format `mapstructure:"format"`
	Sep         string         `mapstructure:"sep"`
	Header      bool           `mapstructure:"header"`
	SQLiteDSN   string         `mapstructure:"sqlite_dsn"`
	SQLiteQuery string         `mapstructure:"sqlite_query" validate:"required_with=SQLiteDSN"`
	By          string         `mapstructure:"by" validate:"oneof=user item"`
	MinRating   float32        `mapstructure:"min_rating"`
	MaxRating   float32        `mapstructure:"max_rating" validate:"gtfield=MinRating"`
	TrainRatio  float64        `mapstructure:"train_ratio" validate:"gt=0,lte=1"`
	Strict      bool           `mapstructure:"strict"`
	Seed        int64          `mapstructure:"seed"`
}

// ModelConfig holds hyper-parameters of AutoRec.
type ModelConfig struct {
	HiddenSize  int     `mapstructure:"hidden_size" validate:"gt=0"`
	Activation  string  `mapstructure:"activation" validate:"activation"`
	Optimizer   string  `mapstructure:"optimizer" validate:"oneof=sgd adam"`
	NEpochs     int     `mapstructure:"n_epochs" validate:"gt=0"`
	BatchSize   int     `mapstructure:"batch_size" validate:"gt=0"`
	Lr          float32 `mapstructure:"lr" validate:"gt=0"`
	LrDecay     float32 `mapstructure:"lr_decay" validate:"gte=0"`
	WeightDecay float32 `mapstructure:"weight_decay" validate:"gte=0"`
	HideRatio   float32 `mapstructure:"hide_ratio" validate:"gte=0,lte=1"`
	Alpha       float32 `mapstructure:"alpha" validate:"gte=0"`
	Beta        float32 `mapstructure:"beta" validate:"gte=0"`
	SizeAverage bool    `mapstructure:"size_average"`
	InitStdDev  float32 `mapstructure:"init_std" validate:"gte=0"`
	RandomState int64   `mapstructure:"random_state"`
}

type FitConfig struct {
	Jobs    int `mapstructure:"jobs" validate:"gt=0"`
	Verbose int `mapstructure:"verbose" validate:"gte=0"`
	// Patience stops training after this many evaluations without
	// improvement. Zero disables early stopping.
	Patience int           `mapstructure:"patience" validate:"gte=0"`
	Timeout  time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

type TuneConfig struct {
	NumTrials int `mapstructure:"n_trials" validate:"gt=0"`
	NumEpochs int `mapstructure:"n_epochs" validate:"gt=0"`
}

func GetDefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			Format:     dataset.MovieLens100K,
			By:         "user",
			MinRating:  dataset.DefaultRescaler.Min,
			MaxRating:  dataset.DefaultRescaler.Max,
			TrainRatio: 0.9,
		},
		Model: ModelConfig{
			HiddenSize:  500,
			Activation:  "tanh",
			Optimizer:   "sgd",
			NEpochs:     20,
			BatchSize:   35,
			Lr:          0.03,
			WeightDecay: 0.02,
			HideRatio:   0.25,
			Alpha:       1,
			Beta:        0.5,
		},
		Fit: FitConfig{
			Jobs:    1,
			Verbose: 1,
		},
		Tune: TuneConfig{
			NumTrials: 10,
			NumEpochs: 20,
		},
	}
}

func setDefault(v *viper.Viper) {
	defaultConfig := GetDefaultConfig()
	// [data]
	v.SetDefault("data.format", "ml-100k")
	v.SetDefault("data.by", defaultConfig.Data.By)
	v.SetDefault("data.min_rating", defaultConfig.Data.MinRating)
	v.SetDefault("data.max_rating", defaultConfig.Data.MaxRating)
	v.SetDefault("data.train_ratio", defaultConfig.Data.TrainRatio)
	// [model]
	v.SetDefault("model.hidden_size", defaultConfig.Model.HiddenSize)
	v.SetDefault("model.activation", defaultConfig.Model.Activation)
	v.SetDefault("model.optimizer", defaultConfig.Model.Optimizer)
	v.SetDefault("model.n_epochs", defaultConfig.Model.NEpochs)
	v.SetDefault("model.batch_size", defaultConfig.Model.BatchSize)
	v.SetDefault("model.lr", defaultConfig.Model.Lr)
	v.SetDefault("model.weight_decay", defaultConfig.Model.WeightDecay)
	v.SetDefault("model.hide_ratio", defaultConfig.Model.HideRatio)
	v.SetDefault("model.alpha", defaultConfig.Model.Alpha)
	v.SetDefault("model.beta", defaultConfig.Model.Beta)
	// [fit]
	v.SetDefault("fit.jobs", defaultConfig.Fit.Jobs)
	v.SetDefault("fit.verbose", defaultConfig.Fit.Verbose)
	// [tune]
	v.SetDefault("tune.n_trials", defaultConfig.Tune.NumTrials)
	v.SetDefault("tune.n_epochs", defaultConfig.Tune.NumEpochs)
}

type configBinding struct {
	key string
	env string
}

var bindings = []configBinding{
	{"data.path", "AUTOREC_DATA_PATH"},
	{"data.format", "AUTOREC_DATA_FORMAT"},
	{"data.sqlite_dsn", "AUTOREC_SQLITE_DSN"},
	{"data.sqlite_query", "AUTOREC_SQLITE_QUERY"},
	{"data.by", "AUTOREC_BY"},
	{"data.seed", "AUTOREC_SEED"},
	{"model.n_epochs", "AUTOREC_N_EPOCHS"},
	{"model.random_state", "AUTOREC_RANDOM_STATE"},
	{"fit.jobs", "AUTOREC_JOBS"},
	{"fit.timeout", "AUTOREC_TIMEOUT"},
	{"tune.n_trials", "AUTOREC_N_TRIALS"},
}

// stringToFormatHookFunc decodes a built-in format name into a
// dataset.Format. "custom" leaves the separator to DataConfig.Sep.
func stringToFormatHookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String || t != reflect.TypeOf(dataset.Format{}) {
			return data, nil
		}
		name := strings.ToLower(strings.TrimSpace(data.(string)))
		if name == "custom" {
			return dataset.Format{Columns: [3]int{0, 1, 2}}, nil
		}
		return dataset.BuiltInFormat(name)
	}
}

// LoadConfig reads a TOML file and overrides it with AUTOREC_* environment
// variables. An empty path loads defaults only.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("toml")
	setDefault(v)
	for _, binding := range bindings {
		if err := v.BindEnv(binding.key, binding.env); err != nil {
			return nil, errors.Trace(err)
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Trace(err)
		}
	}
	var conf Config
	if err := v.Unmarshal(&conf, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		stringToFormatHookFunc(),
	))); err != nil {
		return nil, errors.Trace(err)
	}
	if err := conf.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &conf, nil
}

// GetOptions returns options of the dataset builder.
func (config *DataConfig) GetOptions() dataset.Options {
	opts := dataset.DefaultOptions()
	opts.Rescaler = dataset.Rescaler{Min: config.MinRating, Max: config.MaxRating}
	opts.TrainRatio = config.TrainRatio
	opts.Strict = config.Strict
	return opts
}

// GetFormat returns the rating log format. A non-empty Sep overrides the
// separator and header of the named format.
func (config *DataConfig) GetFormat() dataset.Format {
	format := config.Format
	if config.Sep != "" {
		format.Sep = config.Sep
		format.Header = config.Header
	}
	return format
}

func (config *DataConfig) ByItem() bool {
	return config.By == "item"
}

// GetParams returns hyper-parameters of AutoRec.
func (config *ModelConfig) GetParams() model.Params {
	return model.Params{
		model.HiddenSize:  config.HiddenSize,
		model.Activation:  config.Activation,
		model.Optimizer:   config.Optimizer,
		model.NEpochs:     config.NEpochs,
		model.BatchSize:   config.BatchSize,
		model.Lr:          config.Lr,
		model.LrDecay:     config.LrDecay,
		model.WeightDecay: config.WeightDecay,
		model.HideRatio:   config.HideRatio,
		model.Alpha:       config.Alpha,
		model.Beta:        config.Beta,
		model.SizeAverage: config.SizeAverage,
		model.InitStdDev:  config.InitStdDev,
		model.RandomState: config.RandomState,
	}
}

func (config *FitConfig) GetFitConfig() *autorec.FitConfig {
	return autorec.NewFitConfig().
		SetJobs(config.Jobs).
		SetVerbose(config.Verbose)
}
