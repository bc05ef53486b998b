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
	"sort"
)

// SparseVector is the data structure for one row (or column) of the rating
// matrix. Unknown entries are absent. After Build, indices are unique and
// ascending.
type SparseVector struct {
	Indices []int32
	Values  []float32
	Sorted  bool
}

// NewSparseVector creates a SparseVector.
func NewSparseVector() *SparseVector {
	return &SparseVector{
		Indices: make([]int32, 0),
		Values:  make([]float32, 0),
		Sorted:  true,
	}
}

// NewSparseVectorFrom creates a SparseVector from parallel slices and builds it.
func NewSparseVectorFrom(indices []int32, values []float32) *SparseVector {
	vec := &SparseVector{
		Indices: append([]int32(nil), indices...),
		Values:  append([]float32(nil), values...),
	}
	vec.Build()
	return vec
}

// Add a new item. The vector must be built again before being read in order.
func (vec *SparseVector) Add(index int32, value float32) {
	if n := len(vec.Indices); n > 0 && vec.Indices[n-1] >= index {
		vec.Sorted = false
	}
	vec.Indices = append(vec.Indices, index)
	vec.Values = append(vec.Values, value)
}

// Len returns the number of items.
func (vec *SparseVector) Len() int {
	if vec == nil {
		return 0
	}
	return len(vec.Values)
}

// Less returns true if the index of i-th item is less than the index of j-th item.
func (vec *SparseVector) Less(i, j int) bool {
	return vec.Indices[i] < vec.Indices[j]
}

// Swap two items.
func (vec *SparseVector) Swap(i, j int) {
	vec.Indices[i], vec.Indices[j] = vec.Indices[j], vec.Indices[i]
	vec.Values[i], vec.Values[j] = vec.Values[j], vec.Values[i]
}

// Build sorts items by indices and removes duplicated indices, keeping the
// value added last.
func (vec *SparseVector) Build() {
	if vec.Sorted {
		return
	}
	sort.Stable(vec)
	n := 0
	for i := range vec.Indices {
		if n > 0 && vec.Indices[n-1] == vec.Indices[i] {
			vec.Values[n-1] = vec.Values[i]
			continue
		}
		vec.Indices[n] = vec.Indices[i]
		vec.Values[n] = vec.Values[i]
		n++
	}
	vec.Indices = vec.Indices[:n]
	vec.Values = vec.Values[:n]
	vec.Sorted = true
}

// ForEach iterates items in the sparse vector.
func (vec *SparseVector) ForEach(f func(i int, index int32, value float32)) {
	if vec == nil {
		return
	}
	for i := range vec.Indices {
		f(i, vec.Indices[i], vec.Values[i])
	}
}

// Get returns the value at index by binary search.
func (vec *SparseVector) Get(index int32) (float32, bool) {
	if vec == nil {
		return 0, false
	}
	i := sort.Search(len(vec.Indices), func(i int) bool { return vec.Indices[i] >= index })
	if i < len(vec.Indices) && vec.Indices[i] == index {
		return vec.Values[i], true
	}
	return 0, false
}

// Mean returns the mean of values. The mean of an empty vector is zero.
func (vec *SparseVector) Mean() float32 {
	if vec.Len() == 0 {
		return 0
	}
	var sum float64
	for _, v := range vec.Values {
		sum += float64(v)
	}
	return float32(sum / float64(len(vec.Values)))
}

// SubConst subtracts a scalar from all values in place.
func (vec *SparseVector) SubConst(c float32) {
	if vec == nil {
		return
	}
	for i := range vec.Values {
		vec.Values[i] -= c
	}
}

// Remove drops every index for which drop returns true and returns the
// number of removed items.
func (vec *SparseVector) Remove(drop func(index int32) bool) int {
	n := 0
	for i := range vec.Indices {
		if drop(vec.Indices[i]) {
			continue
		}
		vec.Indices[n] = vec.Indices[i]
		vec.Values[n] = vec.Values[i]
		n++
	}
	removed := len(vec.Indices) - n
	vec.Indices = vec.Indices[:n]
	vec.Values = vec.Values[:n]
	return removed
}

// Clone returns a deep copy.
func (vec *SparseVector) Clone() *SparseVector {
	return &SparseVector{
		Indices: append(make([]int32, 0, len(vec.Indices)), vec.Indices...),
		Values:  append(make([]float32, 0, len(vec.Values)), vec.Values...),
		Sorted:  vec.Sorted,
	}
}

// DenseTo writes values into a zero-filled dense row. Indices beyond the row
// are ignored and reported by the return value.
func (vec *SparseVector) DenseTo(row []float32) bool {
	clear(row)
	ok := true
	vec.ForEach(func(_ int, index int32, value float32) {
		if int(index) >= len(row) || index < 0 {
			ok = false
			return
		}
		row[index] = value
	})
	return ok
}
