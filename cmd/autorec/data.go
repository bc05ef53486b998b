// Copyright 2026 gorse Project Authors
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
package main

import (
	"context"

	"github.com/gorse-io/autorec/base"
	"github.com/gorse-io/autorec/base/log"
	"github.com/gorse-io/autorec/config"
	"github.com/gorse-io/autorec/dataset"
	"github.com/juju/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func addDataFlags(flagSet *pflag.FlagSet) {
	flagSet.String("data", "", "path of rating log")
	flagSet.String("format", "", "format of rating log (ml-100k, ml-1m, ml-10m, ml-latest, csv)")
	flagSet.String("sep", "", "separator of a custom rating log")
	flagSet.Bool("header", false, "skip the first line of a custom rating log")
	flagSet.String("sqlite", "", "data source name of a SQLite database")
	flagSet.String("query", "", "query returning user id, item id and rating")
	flagSet.String("by", "", "autoencode vectors of users or items (user, item)")
	flagSet.Float64("train-ratio", 0, "probability of routing a rating to the train set")
	flagSet.Bool("strict", false, "abort on the first invalid record")
	flagSet.Int64("seed", 0, "seed of the train/test split")
}

// loadConfig loads the configuration file and applies command line
// overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		log.Logger().Info("load config", zap.String("config", path))
	}
	conf, err := config.LoadConfig(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	flags := cmd.Flags()
	if flags.Changed("data") {
		conf.Data.Path, _ = flags.GetString("data")
		conf.Data.SQLiteDSN = ""
	}
	if flags.Changed("format") {
		name, _ := flags.GetString("format")
		if conf.Data.Format, err = dataset.BuiltInFormat(name); err != nil {
			return nil, errors.Trace(err)
		}
	}
	if flags.Changed("sep") {
		conf.Data.Sep, _ = flags.GetString("sep")
		conf.Data.Header, _ = flags.GetBool("header")
	}
	if flags.Changed("sqlite") {
		conf.Data.SQLiteDSN, _ = flags.GetString("sqlite")
		conf.Data.Path = ""
	}
	if flags.Changed("query") {
		conf.Data.SQLiteQuery, _ = flags.GetString("query")
	}
	if flags.Changed("by") {
		conf.Data.By, _ = flags.GetString("by")
	}
	if flags.Changed("train-ratio") {
		conf.Data.TrainRatio, _ = flags.GetFloat64("train-ratio")
	}
	if flags.Changed("strict") {
		conf.Data.Strict, _ = flags.GetBool("strict")
	}
	if flags.Changed("seed") {
		conf.Data.Seed, _ = flags.GetInt64("seed")
	}
	applyModelFlags(flags, conf)
	if err = conf.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return conf, nil
}

// dataSet is a loaded rating log split into train and test sets.
type dataSet struct {
	train   *dataset.SparseDataset
	test    *dataset.SparseDataset
	loader  *dataset.Loader
	dropped int
}

func loadDataset(ctx context.Context, conf *config.DataConfig) (*dataSet, error) {
	builder, err := dataset.NewBuilder(conf.GetOptions(), base.NewRandomGenerator(conf.Seed))
	if err != nil {
		return nil, errors.Trace(err)
	}
	loader := dataset.NewLoader(builder, conf.ByItem())
	switch {
	case conf.SQLiteDSN != "":
		log.Logger().Info("load ratings from sqlite", zap.String("query", conf.SQLiteQuery))
		err = loader.LoadSQLite(ctx, conf.SQLiteDSN, conf.SQLiteQuery)
	case conf.Path != "":
		log.Logger().Info("load ratings from file", zap.String("path", conf.Path))
		err = loader.LoadCSV(conf.Path, conf.GetFormat())
	default:
		err = errors.NotValidf("empty data source")
	}
	if err != nil {
		return nil, errors.Trace(err)
	}
	train, test, err := builder.Build()
	if err != nil {
		return nil, errors.Trace(err)
	}
	log.Logger().Info("load dataset",
		zap.String("by", conf.By),
		zap.Int("n_users", loader.Users.Count()),
		zap.Int("n_items", loader.Items.Count()),
		zap.Int("n_train", train.Count()),
		zap.Int("n_test", test.Count()),
		zap.Int("n_dropped", builder.Dropped()))
	return &dataSet{train: train, test: test, loader: loader, dropped: builder.Dropped()}, nil
}
