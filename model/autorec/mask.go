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
	"github.com/bits-and-blooms/bitset"
	"github.com/chewxy/math32"
	"github.com/gorse-io/autorec/base"
	"github.com/juju/errors"
)

// Corruption is the result of masking a vector. Corrupted and Kept partition
// the known indices of the original vector in ascending order.
type Corruption struct {
	// Input holds the kept entries. Corrupted entries are absent, which reads
	// as zero once densified.
	Input     *base.SparseVector
	Corrupted []int32
	Kept      []int32
}

// Corrupt hides round(hideRatio * n) known entries of vec chosen uniformly
// without replacement. vec is not modified.
func Corrupt(vec *base.SparseVector, hideRatio float32, rng base.RandomGenerator) (Corruption, error) {
	if !(hideRatio >= 0 && hideRatio <= 1) {
		return Corruption{}, errors.NotValidf("hide ratio %v", hideRatio)
	}
	n := vec.Len()
	k := int(math32.Round(hideRatio * float32(n)))
	if k == 0 {
		var kept []int32
		if n > 0 {
			kept = append(make([]int32, 0, n), vec.Indices...)
		}
		return Corruption{Input: vec, Kept: kept}, nil
	}
	hidden := bitset.New(uint(n))
	for _, pos := range rng.SampleWithoutReplacement(n, k) {
		hidden.Set(uint(pos))
	}
	c := Corruption{
		Input:     &base.SparseVector{Sorted: true},
		Corrupted: make([]int32, 0, k),
		Kept:      make([]int32, 0, n-k),
	}
	vec.ForEach(func(i int, index int32, value float32) {
		if hidden.Test(uint(i)) {
			c.Corrupted = append(c.Corrupted, index)
		} else {
			c.Kept = append(c.Kept, index)
			c.Input.Indices = append(c.Input.Indices, index)
			c.Input.Values = append(c.Input.Values, value)
		}
	})
	return c, nil
}
