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
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/gorse-io/autorec/base/log"
	"github.com/gorse-io/autorec/base/progress"
	"github.com/gorse-io/autorec/config"
	"github.com/gorse-io/autorec/model/autorec"
	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

var trainCommand = &cobra.Command{
	Use:   "train",
	Short: "Train an autoencoder and report test RMSE",
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConfig(cmd)
		if err != nil {
			return errors.Trace(err)
		}
		ctx, cancel := newContext(conf.Fit.Timeout)
		defer cancel()
		data, err := loadDataset(ctx, &conf.Data)
		if err != nil {
			return errors.Trace(err)
		}

		m := autorec.NewAutoRec(conf.Model.GetParams())
		stopper := newEarlyStopper(conf.Fit.Patience)
		fitConfig := conf.Fit.GetFitConfig().SetOnEpoch(stopper.OnEpoch)
		ctx, span := progress.NewTracer("autorec").RenderTo(os.Stderr).Start(ctx, "train", 1)
		start := time.Now()
		score, err := m.Fit(ctx, data.train, data.test, fitConfig)
		if err != nil {
			span.Fail(err)
			return errors.Trace(err)
		}
		span.End()
		elapsed := time.Since(start)
		baseline := autorec.EvaluateBaseline(data.train, data.test, data.train.Rescaler().Factor())

		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Epoch", "RMSE", "Ratings")
		for _, record := range stopper.history {
			_ = table.Append([]string{
				fmt.Sprint(record.epoch),
				fmt.Sprintf("%.5f", record.score.RMSE),
				fmt.Sprint(record.score.Count),
			})
		}
		_ = table.Append([]string{"final", fmt.Sprintf("%.5f", score.RMSE), fmt.Sprint(score.Count)})
		_ = table.Append([]string{"baseline", fmt.Sprintf("%.5f", baseline.RMSE), fmt.Sprint(baseline.Count)})
		if err = table.Render(); err != nil {
			return errors.Trace(err)
		}
		log.Logger().Info("complete training", zap.Float32("RMSE", score.RMSE), zap.Duration("time", elapsed))

		if path, _ := cmd.Flags().GetString("save"); path != "" {
			if err = saveModel(path, m); err != nil {
				return errors.Trace(err)
			}
			log.Logger().Info("save model", zap.String("path", path))
		}
		return nil
	},
}

func init() {
	addDataFlags(trainCommand.Flags())
	addModelFlags(trainCommand.Flags())
	trainCommand.Flags().String("save", "", "path to save the trained model")
}

func addModelFlags(flagSet *pflag.FlagSet) {
	flagSet.Int("hidden-size", 0, "width of the hidden layer")
	flagSet.String("activation", "", "hidden activation (identity, sigmoid, tanh, relu)")
	flagSet.String("optimizer", "", "optimizer (sgd, adam)")
	flagSet.Int("epochs", 0, "number of epochs")
	flagSet.Int("batch-size", 0, "number of entities per batch")
	flagSet.Float32("lr", 0, "learning rate")
	flagSet.Float32("lr-decay", 0, "learning rate decay per optimizer step")
	flagSet.Float32("weight-decay", 0, "L2 penalty on weights")
	flagSet.Float32("hide-ratio", 0, "fraction of known entries hidden from the input")
	flagSet.Float32("alpha", 0, "loss weight of hidden entries")
	flagSet.Float32("beta", 0, "loss weight of kept entries")
	flagSet.Bool("size-average", false, "divide the loss of a row by its number of known entries")
	flagSet.Int64("random-state", 0, "seed of the model")
	flagSet.IntP("jobs", "j", 0, "number of evaluation jobs")
	flagSet.Int("verbose", 0, "evaluate every this many epochs")
	flagSet.Int("patience", 0, "stop after this many evaluations without improvement")
	flagSet.Duration("timeout", 0, "abort training after this duration")
}

// applyModelFlags overrides hyper-parameters and fit options set on the
// command line.
func applyModelFlags(flags *pflag.FlagSet, conf *config.Config) {
	if flags.Changed("hidden-size") {
		conf.Model.HiddenSize, _ = flags.GetInt("hidden-size")
	}
	if flags.Changed("activation") {
		conf.Model.Activation, _ = flags.GetString("activation")
	}
	if flags.Changed("optimizer") {
		conf.Model.Optimizer, _ = flags.GetString("optimizer")
	}
	if flags.Changed("epochs") {
		conf.Model.NEpochs, _ = flags.GetInt("epochs")
	}
	if flags.Changed("batch-size") {
		conf.Model.BatchSize, _ = flags.GetInt("batch-size")
	}
	if flags.Changed("lr") {
		conf.Model.Lr, _ = flags.GetFloat32("lr")
	}
	if flags.Changed("lr-decay") {
		conf.Model.LrDecay, _ = flags.GetFloat32("lr-decay")
	}
	if flags.Changed("weight-decay") {
		conf.Model.WeightDecay, _ = flags.GetFloat32("weight-decay")
	}
	if flags.Changed("hide-ratio") {
		conf.Model.HideRatio, _ = flags.GetFloat32("hide-ratio")
	}
	if flags.Changed("alpha") {
		conf.Model.Alpha, _ = flags.GetFloat32("alpha")
	}
	if flags.Changed("beta") {
		conf.Model.Beta, _ = flags.GetFloat32("beta")
	}
	if flags.Changed("size-average") {
		conf.Model.SizeAverage, _ = flags.GetBool("size-average")
	}
	if flags.Changed("random-state") {
		conf.Model.RandomState, _ = flags.GetInt64("random-state")
	}
	if flags.Changed("jobs") {
		conf.Fit.Jobs, _ = flags.GetInt("jobs")
	}
	if flags.Changed("verbose") {
		conf.Fit.Verbose, _ = flags.GetInt("verbose")
	}
	if flags.Changed("patience") {
		conf.Fit.Patience, _ = flags.GetInt("patience")
	}
	if flags.Changed("timeout") {
		conf.Fit.Timeout, _ = flags.GetDuration("timeout")
	}
	if flags.Changed("trials") {
		conf.Tune.NumTrials, _ = flags.GetInt("trials")
	}
}

// newContext returns a context canceled on interrupt or after timeout.
func newContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	if timeout <= 0 {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

func saveModel(path string, m *autorec.AutoRec) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Trace(err)
	}
	if err = autorec.MarshalModel(f, m); err != nil {
		_ = f.Close()
		return errors.Trace(err)
	}
	return errors.Trace(f.Close())
}

type epochRecord struct {
	epoch int
	score autorec.Score
}

// earlyStopper records evaluations and stops training after patience
// evaluations without a better score.
type earlyStopper struct {
	patience int
	best     autorec.Score
	waited   int
	history  []epochRecord
}

func newEarlyStopper(patience int) *earlyStopper {
	return &earlyStopper{patience: patience}
}

func (s *earlyStopper) OnEpoch(epoch int, score autorec.Score) bool {
	s.history = append(s.history, epochRecord{epoch: epoch, score: score})
	if score.BetterThan(s.best) {
		s.best = score
		s.waited = 0
		return true
	}
	s.waited++
	return s.patience <= 0 || s.waited < s.patience
}
