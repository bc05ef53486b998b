// Copyright 2025 gorse Project Authors
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
	"github.com/bits-and-blooms/bitset"
	"github.com/gorse-io/autorec/base"
)

// SparseDataset maps entity ids in [0, NumEntities()) to mean-centered sparse
// vectors over Dimension() counterparts. It must not be modified after it is
// built.
type SparseDataset struct {
	dimension int
	rescaler  Rescaler
	vectors   []*base.SparseVector
	means     []float32
	present   *bitset.BitSet
	count     int
}

// NewSparseDataset creates a dataset from built vectors and the means already
// subtracted from them. A nil or empty vector marks an absent entity. means
// may be nil if nothing has been subtracted.
func NewSparseDataset(dimension int, rescaler Rescaler, vectors []*base.SparseVector, means []float32) *SparseDataset {
	if means == nil {
		means = make([]float32, len(vectors))
	}
	ds := &SparseDataset{
		dimension: dimension,
		rescaler:  rescaler,
		vectors:   vectors,
		means:     means,
		present:   bitset.New(uint(len(vectors))),
	}
	for i, vec := range vectors {
		if vec.Len() > 0 {
			ds.present.Set(uint(i))
			ds.count += vec.Len()
		}
	}
	return ds
}

// Dimension returns the number of possible counterparts.
func (ds *SparseDataset) Dimension() int {
	return ds.dimension
}

// NumEntities returns the size of the entity id domain.
func (ds *SparseDataset) NumEntities() int {
	return len(ds.vectors)
}

func (ds *SparseDataset) Rescaler() Rescaler {
	return ds.rescaler
}

// Vector returns the vector of an entity, or nil if the entity is absent.
func (ds *SparseDataset) Vector(id int32) *base.SparseVector {
	if id < 0 || int(id) >= len(ds.vectors) {
		return nil
	}
	return ds.vectors[id]
}

// Has returns true if the entity has at least one known value.
func (ds *SparseDataset) Has(id int32) bool {
	return id >= 0 && ds.present.Test(uint(id))
}

// Mean returns the value subtracted from the vector of an entity.
func (ds *SparseDataset) Mean(id int32) float32 {
	if id < 0 || int(id) >= len(ds.means) {
		return 0
	}
	return ds.means[id]
}

// Count returns the total number of known values.
func (ds *SparseDataset) Count() int {
	return ds.count
}

// CountEntities returns the number of entities with at least one known value.
func (ds *SparseDataset) CountEntities() int {
	return int(ds.present.Count())
}

// Entities returns ids of present entities in ascending order.
func (ds *SparseDataset) Entities() []int32 {
	ids := make([]int32, 0, ds.present.Count())
	for i, ok := ds.present.NextSet(0); ok; i, ok = ds.present.NextSet(i + 1) {
		ids = append(ids, int32(i))
	}
	return ids
}
