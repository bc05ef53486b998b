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

	"github.com/gorse-io/autorec/dataset"
	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var statsCommand = &cobra.Command{
	Use:   "stats",
	Short: "Show statistics of a rating log",
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConfig(cmd)
		if err != nil {
			return errors.Trace(err)
		}
		data, err := loadDataset(context.Background(), &conf.Data)
		if err != nil {
			return errors.Trace(err)
		}
		train, test := dataset.NewStats(data.train), dataset.NewStats(data.test)
		table := tablewriter.NewWriter(os.Stdout)
		table.Header("", "Train", "Test")
		for _, row := range [][]string{
			{"Entities", fmt.Sprint(train.Entities), fmt.Sprint(test.Entities)},
			{"Counterparts", fmt.Sprint(train.Counterparts), fmt.Sprint(test.Counterparts)},
			{"Ratings", fmt.Sprint(train.Count), fmt.Sprint(test.Count)},
			{"Density", fmt.Sprintf("%.5f", train.Density), fmt.Sprintf("%.5f", test.Density)},
			{"Mean", fmt.Sprintf("%.5f", train.Mean), fmt.Sprintf("%.5f", test.Mean)},
			{"Std. dev.", fmt.Sprintf("%.5f", train.StdDev), fmt.Sprintf("%.5f", test.StdDev)},
			{"Min length", fmt.Sprint(train.MinLength), fmt.Sprint(test.MinLength)},
			{"Max length", fmt.Sprint(train.MaxLength), fmt.Sprint(test.MaxLength)},
		} {
			_ = table.Append(row)
		}
		if err = table.Render(); err != nil {
			return errors.Trace(err)
		}
		fmt.Printf("users: %d, items: %d, dropped records: %d\n",
			data.loader.Users.Count(), data.loader.Items.Count(), data.dropped)
		return nil
	},
}

func init() {
	addDataFlags(statsCommand.Flags())
}
