// Copyright 2024 gorse Project Authors
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

package nn

import (
	"testing"

	"github.com/gorse-io/autorec/base"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
)

// regression returns samples of y = 2x + 5 with x drawn from [0, 1).
func regression(rng base.RandomGenerator, n int) (*Tensor, *Tensor) {
	x := NewTensor(rng.UniformVector(n, 0, 1), n, 1)
	y := Zeros(n, 1)
	for i := range x.data {
		y.data[i] = 2*x.data[i] + 5
	}
	return x, y
}

func testOptimizer(optimizerCreator func(params []*Tensor, lr float32) Optimizer, lr float32, epochs int) (losses []float32, layer *LinearLayer) {
	rng := base.NewRandomGenerator(0)
	x, y := regression(rng, 100)
	layer = NewLinear(1, 1, rng)
	optimizer := optimizerCreator(layer.Parameters(), lr)
	for i := 0; i < epochs; i++ {
		yPred := layer.Forward(x)
		loss := MeanSquareError(yPred, y)
		losses = append(losses, loss.data[0])

		optimizer.ZeroGrad()
		loss.Backward()
		optimizer.Step()
	}
	return
}

func TestSGD(t *testing.T) {
	losses, layer := testOptimizer(NewSGD, 0.1, 1000)
	assert.IsNonIncreasing(t, losses[:100])
	assert.Less(t, losses[len(losses)-1], float32(0.01))
	assert.InDelta(t, 2, layer.W.data[0], 0.1)
	assert.InDelta(t, 5, layer.B.data[0], 0.1)
}

func TestAdam(t *testing.T) {
	losses, _ := testOptimizer(NewAdam, 0.05, 2000)
	assert.Less(t, losses[len(losses)-1], losses[0])
	assert.Less(t, losses[len(losses)-1], float32(0.1))
}

func TestWeightDecay(t *testing.T) {
	p := NewTensor([]float32{1}, 1)
	optimizer := NewSGD([]*Tensor{p}, 0.1)
	optimizer.SetWeightDecay(0.5)
	p.grad = Zeros(1)
	optimizer.Step()
	assert.InDelta(t, 0.95, p.data[0], 1e-6)

	// parameters without gradients are skipped
	optimizer.ZeroGrad()
	optimizer.Step()
	assert.InDelta(t, 0.95, p.data[0], 1e-6)
}

func TestLearningRateDecay(t *testing.T) {
	p := NewTensor([]float32{0}, 1)
	optimizer := NewSGD([]*Tensor{p}, 1)
	optimizer.SetLearningRateDecay(1)
	// lr = 1 / (1 + 0)
	p.grad = Ones(1)
	optimizer.Step()
	assert.InDelta(t, -1, p.data[0], 1e-6)
	// lr = 1 / (1 + 1)
	optimizer.Step()
	assert.InDelta(t, -1.5, p.data[0], 1e-6)
}

func TestSequential(t *testing.T) {
	rng := base.NewRandomGenerator(0)
	model := NewSequential(
		NewLinear(4, 3, rng),
		NewSigmoid(),
		NewLinear(3, 4, rng),
	)
	assert.Len(t, model.Parameters(), 4)
	y := model.Forward(Ones(2, 4))
	assert.Equal(t, []int{2, 4}, y.Shape())

	y.Backward()
	for _, p := range model.Parameters() {
		assert.Equal(t, p.Shape(), p.Grad().Shape())
	}
}

func TestNewActivation(t *testing.T) {
	for _, name := range []string{"sigmoid", "tanh", "relu"} {
		layer, err := NewActivation(name)
		assert.NoError(t, err)
		assert.NotNil(t, layer)
	}
	layer, err := NewActivation("identity")
	assert.NoError(t, err)
	assert.Nil(t, layer)
	_, err = NewActivation("softmax")
	assert.True(t, errors.IsNotValid(err))
}

func TestNewOptimizer(t *testing.T) {
	_, err := NewOptimizer("sgd", nil, 0.1)
	assert.NoError(t, err)
	_, err = NewOptimizer("adam", nil, 0.1)
	assert.NoError(t, err)
	_, err = NewOptimizer("rmsprop", nil, 0.1)
	assert.True(t, errors.IsNotValid(err))
}
