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
	"fmt"
	"os"
	"slices"

	"github.com/gorse-io/autorec/model"
	"github.com/gorse-io/autorec/model/autorec"
	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var tuneCommand = &cobra.Command{
	Use:   "tune",
	Short: "Search hyper-parameters by TPE",
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
		params := conf.Model.GetParams().Overwrite(model.Params{
			model.NEpochs: conf.Tune.NumEpochs,
		})
		search := autorec.NewModelSearch(map[string]autorec.ModelCreator{
			"autorec": func() autorec.Estimator {
				return autorec.NewAutoRec(params)
			},
		}, data.train, data.test, conf.Fit.GetFitConfig())
		result, err := search.Search(ctx, conf.Tune.NumTrials)
		if err != nil {
			return errors.Trace(err)
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Name", "Value")
		_ = table.Append([]string{"Model", result.Type})
		_ = table.Append([]string{"RMSE", fmt.Sprintf("%.5f", result.Score.RMSE)})
		names := lo.Keys(result.Params)
		slices.Sort(names)
		for _, name := range names {
			_ = table.Append([]string{string(name), fmt.Sprint(result.Params[name])})
		}
		return errors.Trace(table.Render())
	},
}

func init() {
	addDataFlags(tuneCommand.Flags())
	addModelFlags(tuneCommand.Flags())
	tuneCommand.Flags().Int("trials", 0, "number of trials")
}
