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
	"github.com/juju/errors"
)

// ElementwiseLoss scores a single prediction y against a target t.
type ElementwiseLoss interface {
	Loss(y, t float32) float32
	// Grad returns the derivative of Loss with respect to y.
	Grad(y, t float32) float32
}

type SquaredError struct{}

func (SquaredError) Loss(y, t float32) float32 {
	return (y - t) * (y - t)
}

func (SquaredError) Grad(y, t float32) float32 {
	return 2 * (y - t)
}

// SparseDenoisingLoss scores a dense reconstruction against the known entries
// of a sparse target. Corrupted entries are weighted by Alpha and kept
// entries by Beta. Unknown entries never contribute.
type SparseDenoisingLoss struct {
	Alpha       float32
	Beta        float32
	InputDim    int
	SizeAverage bool
	Elementwise ElementwiseLoss
}

// NewSparseDenoisingLoss creates a loss. A nil elementwise loss defaults to
// squared error.
func NewSparseDenoisingLoss(alpha, beta float32, inputDim int, sizeAverage bool, elementwise ElementwiseLoss) (*SparseDenoisingLoss, error) {
	if !(alpha >= 0) {
		return nil, errors.NotValidf("alpha %v", alpha)
	}
	if !(beta >= 0) {
		return nil, errors.NotValidf("beta %v", beta)
	}
	if inputDim <= 0 {
		return nil, errors.NotValidf("input dimension %v", inputDim)
	}
	if elementwise == nil {
		elementwise = SquaredError{}
	}
	return &SparseDenoisingLoss{
		Alpha:       alpha,
		Beta:        beta,
		InputDim:    inputDim,
		SizeAverage: sizeAverage,
		Elementwise: elementwise,
	}, nil
}

// visit calls f for every known index in corrupted and kept with the weight
// of its set, and returns the number of visited indices.
func (l *SparseDenoisingLoss) visit(output []float32, target *base.SparseVector, corrupted, kept []int32,
	f func(j int32, weight, y, t float32)) (int, error) {
	if len(output) != l.InputDim {
		return 0, errors.Trace(&base.ShapeMismatchError{Expected: l.InputDim, Actual: len(output)})
	}
	count := 0
	for _, set := range []struct {
		indices []int32
		weight  float32
	}{{corrupted, l.Alpha}, {kept, l.Beta}} {
		for _, j := range set.indices {
			if j < 0 || int(j) >= l.InputDim {
				return 0, errors.Trace(&base.ShapeMismatchError{Expected: l.InputDim, Actual: int(j) + 1})
			}
			t, ok := target.Get(j)
			if !ok {
				continue
			}
			f(j, set.weight, output[j], t)
			count++
		}
	}
	return count, nil
}

// Forward returns the loss and the number of contributing indices. The sum
// is divided by that number if SizeAverage is set.
func (l *SparseDenoisingLoss) Forward(output []float32, target *base.SparseVector, corrupted, kept []int32) (float32, int, error) {
	var loss float32
	count, err := l.visit(output, target, corrupted, kept, func(_ int32, weight, y, t float32) {
		loss += weight * l.Elementwise.Loss(y, t)
	})
	if err != nil {
		return 0, 0, err
	}
	if l.SizeAverage && count > 0 {
		loss /= float32(count)
	}
	return loss, count, nil
}

// Backward returns the gradient of Forward with respect to output. It is zero
// outside of the contributing indices.
func (l *SparseDenoisingLoss) Backward(output []float32, target *base.SparseVector, corrupted, kept []int32) ([]float32, error) {
	grad := make([]float32, len(output))
	count, err := l.visit(output, target, corrupted, kept, func(j int32, weight, y, t float32) {
		grad[j] += weight * l.Elementwise.Grad(y, t)
	})
	if err != nil {
		return nil, err
	}
	if l.SizeAverage && count > 0 {
		for j := range grad {
			grad[j] /= float32(count)
		}
	}
	return grad, nil
}

func (l *SparseDenoisingLoss) checkBatch(output *nn.Tensor, targets []*base.SparseVector, corruptions []Corruption) error {
	shape := output.Shape()
	if len(shape) != 2 || shape[1] != l.InputDim {
		return errors.Trace(&base.ShapeMismatchError{Expected: l.InputDim, Actual: width(shape)})
	}
	if shape[0] != len(targets) || len(targets) != len(corruptions) {
		return errors.Errorf("batch of %d rows with %d targets and %d corruptions", shape[0], len(targets), len(corruptions))
	}
	return nil
}

// ForwardBatch returns the mean row loss of a batch and the total number of
// contributing indices. A zero count marks a degenerate batch.
func (l *SparseDenoisingLoss) ForwardBatch(output *nn.Tensor, targets []*base.SparseVector, corruptions []Corruption) (float32, int, error) {
	if err := l.checkBatch(output, targets, corruptions); err != nil {
		return 0, 0, err
	}
	var (
		sum   float32
		total int
		data  = output.Data()
	)
	for i, target := range targets {
		row := data[i*l.InputDim : (i+1)*l.InputDim]
		loss, count, err := l.Forward(row, target, corruptions[i].Corrupted, corruptions[i].Kept)
		if err != nil {
			return 0, 0, err
		}
		sum += loss
		total += count
	}
	if len(targets) > 0 {
		sum /= float32(len(targets))
	}
	return sum, total, nil
}

// BackwardBatch returns the gradient of ForwardBatch with the shape of
// output.
func (l *SparseDenoisingLoss) BackwardBatch(output *nn.Tensor, targets []*base.SparseVector, corruptions []Corruption) (*nn.Tensor, error) {
	if err := l.checkBatch(output, targets, corruptions); err != nil {
		return nil, err
	}
	data := output.Data()
	grad := make([]float32, 0, len(data))
	scale := 1 / float32(max(len(targets), 1))
	for i, target := range targets {
		row := data[i*l.InputDim : (i+1)*l.InputDim]
		g, err := l.Backward(row, target, corruptions[i].Corrupted, corruptions[i].Kept)
		if err != nil {
			return nil, err
		}
		for j := range g {
			g[j] *= scale
		}
		grad = append(grad, g...)
	}
	return nn.NewTensor(grad, output.Shape()...), nil
}

// SparseCriterion scores predictions against every known entry of a target
// without masking.
type SparseCriterion struct {
	InputDim    int
	Elementwise ElementwiseLoss
}

func NewSparseCriterion(inputDim int) *SparseCriterion {
	return &SparseCriterion{InputDim: inputDim, Elementwise: SquaredError{}}
}

// Forward returns the summed loss over the known entries of target and their
// number.
func (c *SparseCriterion) Forward(output []float32, target *base.SparseVector) (float32, int, error) {
	if len(output) != c.InputDim {
		return 0, 0, errors.Trace(&base.ShapeMismatchError{Expected: c.InputDim, Actual: len(output)})
	}
	var (
		loss  float32
		count int
		err   error
	)
	target.ForEach(func(_ int, index int32, value float32) {
		if err != nil {
			return
		}
		if index < 0 || int(index) >= c.InputDim {
			err = errors.Trace(&base.ShapeMismatchError{Expected: c.InputDim, Actual: int(index) + 1})
			return
		}
		loss += c.Elementwise.Loss(output[index], value)
		count++
	})
	if err != nil {
		return 0, 0, err
	}
	return loss, count, nil
}

// width returns the size of the last dimension.
func width(shape []int) int {
	if len(shape) == 0 {
		return 0
	}
	return shape[len(shape)-1]
}
