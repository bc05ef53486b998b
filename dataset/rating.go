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
	"github.com/chewxy/math32"
	"github.com/juju/errors"
)

// Rating is a raw rating triple. Entity is the row being autoencoded and
// Counterpart indexes a position in that row.
type Rating struct {
	Entity      int32
	Counterpart int32
	Value       float32
}

// Transpose swaps entity and counterpart.
func (r Rating) Transpose() Rating {
	return Rating{Entity: r.Counterpart, Counterpart: r.Entity, Value: r.Value}
}

// Rescaler maps raw ratings in [Min, Max] linearly onto [-1, 1].
type Rescaler struct {
	Min float32
	Max float32
}

// DefaultRescaler covers the 1 to 5 star scale.
var DefaultRescaler = Rescaler{Min: 1, Max: 5}

func NewRescaler(min, max float32) (Rescaler, error) {
	if math32.IsNaN(min) || math32.IsNaN(max) || min >= max {
		return Rescaler{}, errors.NotValidf("rating range [%v, %v]", min, max)
	}
	return Rescaler{Min: min, Max: max}, nil
}

// Contains returns true if a raw rating lies in [Min, Max].
func (r Rescaler) Contains(v float32) bool {
	return v >= r.Min && v <= r.Max
}

// Scale maps a raw rating onto [-1, 1].
func (r Rescaler) Scale(v float32) float32 {
	return 2*(v-r.Min)/(r.Max-r.Min) - 1
}

// Unscale maps a value in [-1, 1] back onto the raw rating range.
func (r Rescaler) Unscale(v float32) float32 {
	return (v+1)*(r.Max-r.Min)/2 + r.Min
}

// Factor converts errors in the rescaled space back into raw rating units.
func (r Rescaler) Factor() float32 {
	return (r.Max - r.Min) / 2
}
