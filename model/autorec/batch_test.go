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
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gorse-io/autorec/base"
	"github.com/gorse-io/autorec/dataset"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchAssembler(t *testing.T) {
	assembler, err := NewBatchAssembler(103, 10, nil, base.NewRandomGenerator(0))
	require.NoError(t, err)
	batches := assembler.Pass()
	assert.Len(t, batches, 11)
	for i, batch := range batches[:10] {
		assert.Len(t, batch, 10, "batch %d", i)
	}
	assert.Len(t, batches[10], 3)
	ids := mapset.NewSet(lo.Flatten(batches)...)
	assert.Equal(t, 103, ids.Cardinality())
	assert.True(t, ids.Equal(mapset.NewSet(lo.RangeFrom[int32](0, 103)...)))
}

func TestBatchAssembler_Predicate(t *testing.T) {
	even := func(id int32) bool { return id%2 == 0 }
	assembler, err := NewBatchAssembler(103, 10, even, base.NewRandomGenerator(0))
	require.NoError(t, err)
	batches := assembler.Pass()
	// 52 eligible ids
	assert.Len(t, batches, 6)
	assert.Len(t, batches[5], 2)
	flat := lo.Flatten(batches)
	assert.Len(t, flat, 52)
	assert.Len(t, lo.Uniq(flat), 52)
	for _, id := range flat {
		assert.True(t, even(id))
	}
}

func TestBatchAssembler_Reproducible(t *testing.T) {
	a, err := NewBatchAssembler(50, 7, nil, base.NewRandomGenerator(42))
	require.NoError(t, err)
	b, err := NewBatchAssembler(50, 7, nil, base.NewRandomGenerator(42))
	require.NoError(t, err)
	first := a.Pass()
	assert.Equal(t, first, b.Pass())
	// the generator advances between passes
	assert.NotEqual(t, first, a.Pass())
}

func TestBatchAssembler_Next(t *testing.T) {
	assembler, err := NewBatchAssembler(3, 2, nil, base.NewRandomGenerator(0))
	require.NoError(t, err)
	batch, ok := assembler.Next()
	assert.True(t, ok)
	assert.Len(t, batch, 2)
	batch, ok = assembler.Next()
	assert.True(t, ok)
	assert.Len(t, batch, 1)
	_, ok = assembler.Next()
	assert.False(t, ok)
	_, ok = assembler.Next()
	assert.False(t, ok)
	assembler.Reset()
	_, ok = assembler.Next()
	assert.True(t, ok)

	// nothing eligible
	assembler, err = NewBatchAssembler(5, 2, func(int32) bool { return false }, base.NewRandomGenerator(0))
	require.NoError(t, err)
	assert.Empty(t, assembler.Pass())
}

func TestNewBatchAssembler(t *testing.T) {
	_, err := NewBatchAssembler(10, 0, nil, base.NewRandomGenerator(0))
	assert.True(t, base.IsConfigError(err))
	_, err = NewBatchAssembler(-1, 1, nil, base.NewRandomGenerator(0))
	assert.True(t, base.IsConfigError(err))
}

func TestPredicates(t *testing.T) {
	train := dataset.NewSparseDataset(2, dataset.DefaultRescaler, []*base.SparseVector{
		base.NewSparseVectorFrom([]int32{0}, []float32{1}),
		base.NewSparseVectorFrom([]int32{1}, []float32{1}),
		nil,
	}, nil)
	test := dataset.NewSparseDataset(2, dataset.DefaultRescaler, []*base.SparseVector{
		nil,
		base.NewSparseVectorFrom([]int32{0}, []float32{1}),
		base.NewSparseVectorFrom([]int32{0}, []float32{1}),
	}, nil)
	trainPredicate := TrainPredicate(train)
	assert.True(t, trainPredicate(0))
	assert.True(t, trainPredicate(1))
	assert.False(t, trainPredicate(2))
	evalPredicate := EvalPredicate(train, test)
	assert.False(t, evalPredicate(0))
	assert.True(t, evalPredicate(1))
	assert.False(t, evalPredicate(2))
	assert.False(t, evalPredicate(3))
}

func TestBatch(t *testing.T) {
	batch := NewBatch([]int32{7, 8, 9}, []*base.SparseVector{
		base.NewSparseVectorFrom([]int32{1, 3}, []float32{0.5, -1}),
		nil,
		base.NewSparseVectorFrom([]int32{0}, []float32{1}),
	})
	assert.Equal(t, 3, batch.Len())
	assert.Equal(t, []int32{0, 0, 2}, batch.Rows)
	assert.Equal(t, []int32{1, 3, 0}, batch.Columns)
	assert.Equal(t, []float32{0.5, -1, 1}, batch.Values)

	x, err := batch.Dense(4)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4}, x.Shape())
	assert.Equal(t, []float32{
		0, 0.5, 0, -1,
		0, 0, 0, 0,
		1, 0, 0, 0,
	}, x.Data())

	_, err = batch.Dense(3)
	assert.True(t, base.IsShapeMismatch(err))
}
