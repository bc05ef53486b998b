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
package autorec

import (
	"context"

	"github.com/chewxy/math32"
	"github.com/gorse-io/autorec/base"
	"github.com/gorse-io/autorec/common/nn"
	"github.com/gorse-io/autorec/common/parallel"
	"github.com/gorse-io/autorec/dataset"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const evalBatchSize = 128

// Score is the RMSE over Count test ratings in raw rating units.
type Score struct {
	RMSE  float32
	Count int
}

// Valid returns true if the score has ratings and a finite RMSE.
func (s Score) Valid() bool {
	return s.Count > 0 && !math32.IsNaN(s.RMSE) && !math32.IsInf(s.RMSE, 0)
}

// BetterThan returns true if s has a lower RMSE. An invalid score is never
// better and any valid score beats an invalid one.
func (s Score) BetterThan(other Score) bool {
	if !s.Valid() {
		return false
	}
	if !other.Valid() {
		return true
	}
	return s.RMSE < other.RMSE
}

func (s Score) Fields() []zap.Field {
	return []zap.Field{
		zap.Float32("RMSE", s.RMSE),
		zap.Int("n_ratings", s.Count),
	}
}

func newScore(sum float64, count int, rescale float32) Score {
	if count == 0 {
		return Score{}
	}
	return Score{
		RMSE:  math32.Sqrt(float32(sum/float64(count))) * rescale,
		Count: count,
	}
}

// Evaluate reconstructs the train vector of every entity present in both
// sets and scores the output at test indices. rescale converts the error back
// into raw rating units. Batches run on up to jobs goroutines and partial sums
// are reduced in batch order.
func Evaluate(ctx context.Context, net nn.Model, train, test *dataset.SparseDataset, rescale float32, jobs int) (Score, error) {
	dim := train.Dimension()
	ids := lo.Filter(test.Entities(), func(id int32, _ int) bool {
		return train.Has(id)
	})
	batches := parallel.Split(ids, evalBatchSize)
	sums := make([]float64, len(batches))
	counts := make([]int, len(batches))
	criterion := NewSparseCriterion(dim)
	err := parallel.Parallel(ctx, len(batches), jobs, func(_, jobId int) error {
		batch := batches[jobId]
		vectors := lo.Map(batch, func(id int32, _ int) *base.SparseVector {
			return train.Vector(id)
		})
		x, err := NewBatch(batch, vectors).Dense(dim)
		if err != nil {
			return errors.Trace(err)
		}
		y := net.Forward(x)
		if shape := y.Shape(); len(shape) != 2 || shape[0] != len(batch) || shape[1] != dim {
			return errors.Trace(&base.ShapeMismatchError{Expected: dim, Actual: width(shape)})
		}
		data := y.Data()
		for i, id := range batch {
			loss, count, err := criterion.Forward(data[i*dim:(i+1)*dim], test.Vector(id))
			if err != nil {
				return errors.Trace(err)
			}
			sums[jobId] += float64(loss)
			counts[jobId] += count
		}
		return nil
	})
	if err != nil {
		return Score{}, errors.Trace(err)
	}
	return newScore(lo.Sum(sums), lo.Sum(counts), rescale), nil
}

// EvaluateBaseline scores the constant predictor that returns the train mean
// of each entity, which is zero after centering.
func EvaluateBaseline(train, test *dataset.SparseDataset, rescale float32) Score {
	var (
		sum   float64
		count int
	)
	for _, id := range test.Entities() {
		if !train.Has(id) {
			continue
		}
		test.Vector(id).ForEach(func(_ int, _ int32, value float32) {
			sum += float64(value * value)
			count++
		})
	}
	return newScore(sum, count, rescale)
}
