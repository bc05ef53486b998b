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
	mapset "github.com/deckarep/golang-set/v2"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
	"modernc.org/mathutil"
)

// Stats summarizes a dataset. Values are reported in raw rating units.
type Stats struct {
	Entities     int
	Counterparts int
	Count        int
	Density      float64
	Mean         float64
	StdDev       float64
	MinLength    int
	MaxLength    int
}

// NewStats computes statistics of a dataset. Entity means are added back so
// that the statistics describe raw ratings.
func NewStats(ds *SparseDataset) Stats {
	var (
		values       = make([]float64, 0, ds.Count())
		counterparts = mapset.NewThreadUnsafeSet[int32]()
		s            = Stats{Entities: ds.CountEntities(), Count: ds.Count()}
		rescaler     = ds.Rescaler()
	)
	for _, id := range ds.Entities() {
		vec := ds.Vector(id)
		mean := ds.Mean(id)
		if s.MinLength == 0 {
			s.MinLength = vec.Len()
		}
		s.MinLength = mathutil.Min(s.MinLength, vec.Len())
		s.MaxLength = mathutil.Max(s.MaxLength, vec.Len())
		vec.ForEach(func(_ int, index int32, value float32) {
			counterparts.Add(index)
			values = append(values, float64(rescaler.Unscale(value+mean)))
		})
	}
	s.Counterparts = counterparts.Cardinality()
	if len(values) > 1 {
		s.Mean, s.StdDev = stat.MeanStdDev(values, nil)
	} else if len(values) == 1 {
		s.Mean = values[0]
	}
	if ds.NumEntities() > 0 && ds.Dimension() > 0 {
		s.Density = float64(s.Count) / float64(ds.NumEntities()) / float64(ds.Dimension())
	}
	return s
}

// Fields returns the statistics as log fields.
func (s Stats) Fields() []zap.Field {
	return []zap.Field{
		zap.Int("n_entities", s.Entities),
		zap.Int("n_counterparts", s.Counterparts),
		zap.Int("n_ratings", s.Count),
		zap.Float64("density", s.Density),
		zap.Float64("mean", s.Mean),
		zap.Float64("std_dev", s.StdDev),
		zap.Int("min_length", s.MinLength),
		zap.Int("max_length", s.MaxLength),
	}
}
