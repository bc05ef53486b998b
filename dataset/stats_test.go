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
package dataset

import (
	"testing"

	"github.com/gorse-io/autorec/base"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStats(t *testing.T) {
	opts := DefaultOptions()
	opts.TrainRatio = 1
	builder, err := NewBuilder(opts, base.NewRandomGenerator(0))
	require.NoError(t, err)
	for _, rating := range []Rating{
		{Entity: 0, Counterpart: 0, Value: 1},
		{Entity: 0, Counterpart: 1, Value: 5},
		{Entity: 2, Counterpart: 1, Value: 3},
		{Entity: 2, Counterpart: 2, Value: 3},
		{Entity: 2, Counterpart: 3, Value: 3},
	} {
		require.NoError(t, builder.Add(rating))
	}
	train, _, err := builder.Build()
	require.NoError(t, err)

	s := NewStats(train)
	assert.Equal(t, 2, s.Entities)
	assert.Equal(t, 4, s.Counterparts)
	assert.Equal(t, 5, s.Count)
	assert.InDelta(t, 5.0/12.0, s.Density, 1e-9)
	assert.InDelta(t, 3.0, s.Mean, 1e-6)
	assert.InDelta(t, 1.4142135, s.StdDev, 1e-5)
	assert.Equal(t, 2, s.MinLength)
	assert.Equal(t, 3, s.MaxLength)
	assert.Len(t, s.Fields(), 8)
}

func TestNewStats_Empty(t *testing.T) {
	s := NewStats(NewSparseDataset(0, DefaultRescaler, nil, nil))
	assert.Zero(t, s.Count)
	assert.Zero(t, s.Density)
	assert.Zero(t, s.Mean)
	assert.Zero(t, s.StdDev)
}

func TestNewStats_Single(t *testing.T) {
	ds := NewSparseDataset(3, DefaultRescaler, []*base.SparseVector{
		base.NewSparseVectorFrom([]int32{2}, []float32{0}),
	}, []float32{0.5})
	s := NewStats(ds)
	assert.InDelta(t, 4.0, s.Mean, 1e-6)
	assert.Zero(t, s.StdDev)
	assert.Equal(t, 1, s.MinLength)
}
