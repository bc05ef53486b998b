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

package base

import (
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
)

func TestSparseVector(t *testing.T) {
	vec := NewSparseVector()
	vec.Add(2, 1)
	vec.Add(0, 0.5)
	vec.Add(7, -1)
	assert.False(t, vec.Sorted)
	vec.Build()
	assert.True(t, vec.Sorted)
	assert.Equal(t, []int32{0, 2, 7}, vec.Indices)
	assert.Equal(t, []float32{0.5, 1, -1}, vec.Values)
	assert.Equal(t, 3, vec.Len())

	v, ok := vec.Get(2)
	assert.True(t, ok)
	assert.Equal(t, float32(1), v)
	_, ok = vec.Get(3)
	assert.False(t, ok)

	assert.InDelta(t, float32(0.5/3), vec.Mean(), 1e-6)
	vec.SubConst(0.5)
	assert.Equal(t, []float32{0, 0.5, -1.5}, vec.Values)
}

func TestSparseVector_BuildIsAscendingAndUnique(t *testing.T) {
	rng := NewRandomGenerator(0)
	for trial := 0; trial < 20; trial++ {
		vec := NewSparseVector()
		for i := 0; i < 50; i++ {
			vec.Add(int32(rng.Intn(30)), rng.Float32())
		}
		vec.Build()
		for i := 1; i < vec.Len(); i++ {
			assert.Less(t, vec.Indices[i-1], vec.Indices[i])
		}
	}
}

func TestSparseVector_BuildKeepsLastDuplicate(t *testing.T) {
	vec := NewSparseVector()
	vec.Add(1, 1)
	vec.Add(1, 2)
	vec.Add(0, 3)
	vec.Add(1, 4)
	vec.Build()
	assert.Equal(t, []int32{0, 1}, vec.Indices)
	assert.Equal(t, []float32{3, 4}, vec.Values)
}

func TestSparseVector_Empty(t *testing.T) {
	vec := NewSparseVector()
	vec.Build()
	assert.Zero(t, vec.Mean())
	vec.SubConst(1)
	assert.Zero(t, vec.Len())
	var nilVec *SparseVector
	assert.Zero(t, nilVec.Len())
	_, ok := nilVec.Get(0)
	assert.False(t, ok)
}

func TestSparseVector_Remove(t *testing.T) {
	vec := NewSparseVectorFrom([]int32{3, 1, 2}, []float32{3, 1, 2})
	removed := vec.Remove(func(index int32) bool { return index == 2 })
	assert.Equal(t, 1, removed)
	assert.Equal(t, []int32{1, 3}, vec.Indices)
	assert.Equal(t, []float32{1, 3}, vec.Values)
}

func TestSparseVector_DenseTo(t *testing.T) {
	vec := NewSparseVectorFrom([]int32{0, 3}, []float32{1, 2})
	row := []float32{9, 9, 9, 9}
	assert.True(t, vec.DenseTo(row))
	assert.Equal(t, []float32{1, 0, 0, 2}, row)
	assert.False(t, vec.DenseTo(make([]float32, 2)))

	clone := vec.Clone()
	clone.Values[0] = 5
	assert.Equal(t, float32(1), vec.Values[0])
}

func TestErrors(t *testing.T) {
	err := errors.Trace(NewDataError(3, "rating %v out of range", 6))
	assert.True(t, IsDataError(err))
	assert.False(t, IsShapeMismatch(err))
	assert.Contains(t, err.Error(), "record 3")

	err = errors.Annotate(&ShapeMismatchError{Expected: 4, Actual: 3}, "forward")
	assert.True(t, IsShapeMismatch(err))

	assert.True(t, IsConfigError(errors.NotValidf("batch size %d", 0)))
	assert.False(t, IsConfigError(err))
}
