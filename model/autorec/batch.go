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
	"github.com/gorse-io/autorec/base"
	"github.com/gorse-io/autorec/common/nn"
	"github.com/gorse-io/autorec/dataset"
	"github.com/juju/errors"
	"github.com/samber/lo"
)

// BatchAssembler groups entity ids into minibatches. Each pass walks a fresh
// random permutation of [0, numEntities) and skips ids rejected by the
// predicate.
type BatchAssembler struct {
	numEntities int
	batchSize   int
	predicate   func(int32) bool
	rng         base.RandomGenerator
	perm        []int32
	pos         int
}

// NewBatchAssembler creates a batch assembler. A nil predicate accepts every
// id.
func NewBatchAssembler(numEntities, batchSize int, predicate func(int32) bool, rng base.RandomGenerator) (*BatchAssembler, error) {
	if batchSize <= 0 {
		return nil, errors.NotValidf("batch size %d", batchSize)
	}
	if numEntities < 0 {
		return nil, errors.NotValidf("number of entities %d", numEntities)
	}
	if predicate == nil {
		predicate = func(int32) bool { return true }
	}
	return &BatchAssembler{
		numEntities: numEntities,
		batchSize:   batchSize,
		predicate:   predicate,
		rng:         rng,
	}, nil
}

// Reset starts a new pass.
func (a *BatchAssembler) Reset() {
	a.perm = a.rng.Permutation(a.numEntities)
	a.pos = 0
}

// Next returns the next batch of the current pass. It returns false once the
// pass is exhausted. A pass is started if none is running.
func (a *BatchAssembler) Next() ([]int32, bool) {
	if a.perm == nil {
		a.Reset()
	}
	batch := make([]int32, 0, a.batchSize)
	for a.pos < len(a.perm) && len(batch) < a.batchSize {
		id := a.perm[a.pos]
		a.pos++
		if a.predicate(id) {
			batch = append(batch, id)
		}
	}
	return batch, len(batch) > 0
}

// Pass runs a complete pass and returns all of its batches.
func (a *BatchAssembler) Pass() [][]int32 {
	a.Reset()
	var batches [][]int32
	for batch, ok := a.Next(); ok; batch, ok = a.Next() {
		batches = append(batches, batch)
	}
	return batches
}

// TrainPredicate accepts entities with train values.
func TrainPredicate(train *dataset.SparseDataset) func(int32) bool {
	return train.Has
}

// EvalPredicate accepts entities with both train and test values.
func EvalPredicate(train, test *dataset.SparseDataset) func(int32) bool {
	return func(id int32) bool {
		return train.Has(id) && test.Has(id)
	}
}

// Batch is a minibatch in coordinate format. Rows index Entities.
type Batch struct {
	Entities []int32
	Rows     []int32
	Columns  []int32
	Values   []float32
}

// NewBatch flattens the vectors of a minibatch. vectors[i] belongs to ids[i].
func NewBatch(ids []int32, vectors []*base.SparseVector) Batch {
	n := lo.SumBy(vectors, func(vec *base.SparseVector) int { return vec.Len() })
	batch := Batch{
		Entities: ids,
		Rows:     make([]int32, 0, n),
		Columns:  make([]int32, 0, n),
		Values:   make([]float32, 0, n),
	}
	for row, vec := range vectors {
		vec.ForEach(func(_ int, index int32, value float32) {
			batch.Rows = append(batch.Rows, int32(row))
			batch.Columns = append(batch.Columns, index)
			batch.Values = append(batch.Values, value)
		})
	}
	return batch
}

// Len returns the number of rows.
func (b Batch) Len() int {
	return len(b.Entities)
}

// Dense materializes the batch as a zero-filled matrix of shape
// (Len(), dim).
func (b Batch) Dense(dim int) (*nn.Tensor, error) {
	data := make([]float32, b.Len()*dim)
	for i, col := range b.Columns {
		if col < 0 || int(col) >= dim {
			return nil, errors.Trace(&base.ShapeMismatchError{Expected: dim, Actual: int(col) + 1})
		}
		data[int(b.Rows[i])*dim+int(col)] = b.Values[i]
	}
	return nn.NewTensor(data, b.Len(), dim), nil
}
