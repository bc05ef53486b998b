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

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
)

const (
	eps  = 1e-2
	rtol = 1e-2
	atol = 5e-3
)

func numericalDiff(f func(*Tensor) *Tensor, x *Tensor) *Tensor {
	x0, x1 := x.clone(), x.clone()
	dx := make([]float32, len(x.data))
	for i, v := range x.data {
		x0.data[i] = v - eps
		x1.data[i] = v + eps
		y0 := f(x0)
		y1 := f(x1)
		for j := range y0.data {
			dx[i] += (y1.data[j] - y0.data[j]) / (2 * eps)
		}
		x0.data[i] = v
		x1.data[i] = v
	}
	return NewTensor(dx, x.shape...)
}

func allClose(t *testing.T, a, b *Tensor) {
	if !assert.Equal(t, a.shape, b.shape) {
		return
	}
	for i := range a.data {
		if math32.Abs(a.data[i]-b.data[i]) > atol+rtol*math32.Abs(b.data[i]) {
			t.Fatalf("a.data[%d] = %f, b.data[%d] = %f\n", i, a.data[i], i, b.data[i])
			return
		}
	}
}

func TestAdd(t *testing.T) {
	// (2,3) + (3,) -> (2,3)
	x := NewTensor([]float32{1, 2, 3, 4, 5, 6}, 2, 3)
	b := NewTensor([]float32{1, 2, 3}, 3)
	y := Add(x, b)
	assert.Equal(t, []float32{2, 4, 6, 5, 7, 9}, y.data)
	assert.Equal(t, []int{2, 3}, y.shape)

	y.Backward()
	assert.Equal(t, []float32{1, 1, 1, 1, 1, 1}, x.grad.data)
	assert.Equal(t, []float32{2, 2, 2}, b.grad.data)

	// invalid shape
	assert.Panics(t, func() { Add(x, NewTensor([]float32{1, 2}, 2)) })
}

func TestSub(t *testing.T) {
	x := NewTensor([]float32{1, 2, 3, 4, 5, 6}, 2, 3)
	b := NewTensor([]float32{1, 2, 3}, 3)
	y := Sub(x, b)
	assert.Equal(t, []float32{0, 0, 0, 3, 3, 3}, y.data)

	y.Backward()
	assert.Equal(t, []float32{1, 1, 1, 1, 1, 1}, x.grad.data)
	assert.Equal(t, []float32{-2, -2, -2}, b.grad.data)
}

func TestMatMul(t *testing.T) {
	// (2,3) x (3,2) -> (2,2)
	x := NewTensor([]float32{1, 2, 3, 4, 5, 6}, 2, 3)
	w := NewTensor([]float32{1, 2, 3, 4, 5, 6}, 3, 2)
	y := MatMul(x, w)
	assert.Equal(t, []int{2, 2}, y.shape)
	assert.Equal(t, []float32{22, 28, 49, 64}, y.data)

	y.Backward()
	allClose(t, x.grad, numericalDiff(func(x *Tensor) *Tensor { return MatMul(x, w) }, x))
	allClose(t, w.grad, numericalDiff(func(w *Tensor) *Tensor { return MatMul(x, w) }, w))

	// invalid shape
	assert.Panics(t, func() { MatMul(x, x) })
}

func TestSigmoid(t *testing.T) {
	x := NewTensor([]float32{-2, -0.5, 0, 0.5, 2}, 5)
	y := Sigmoid(x)
	for i, v := range x.data {
		assert.InDelta(t, 1/(1+math32.Exp(-v)), y.data[i], 1e-6)
	}

	y.Backward()
	allClose(t, x.grad, numericalDiff(Sigmoid, x))
}

func TestTanh(t *testing.T) {
	x := NewTensor([]float32{-2, -0.5, 0, 0.5, 2}, 5)
	y := Tanh(x)
	for i, v := range x.data {
		assert.InDelta(t, math32.Tanh(v), y.data[i], 1e-6)
	}

	y.Backward()
	allClose(t, x.grad, numericalDiff(Tanh, x))
}

func TestReLU(t *testing.T) {
	x := NewTensor([]float32{-1, 0.5, 2, -3}, 4)
	y := ReLu(x)
	assert.Equal(t, []float32{0, 0.5, 2, 0}, y.data)

	y.Backward()
	assert.Equal(t, []float32{0, 1, 1, 0}, x.grad.data)
}

func TestMeanSquareError(t *testing.T) {
	x := NewTensor([]float32{1, 2, 3, 4}, 4)
	y := NewTensor([]float32{1, 1, 1, 1}, 4)
	loss := MeanSquareError(x, y)
	assert.Equal(t, float32(14)/4, loss.data[0])

	loss.Backward()
	allClose(t, x.grad, numericalDiff(func(x *Tensor) *Tensor { return MeanSquareError(x, y) }, x))
}

func TestBackwardAccumulate(t *testing.T) {
	// y = x * x + x, dy/dx = 2x + 1
	x := NewTensor([]float32{1, 2, 3}, 3)
	y := Add(Mul(x, x), x)
	y.Backward()
	assert.Equal(t, []float32{3, 5, 7}, x.grad.data)

	// gradients accumulate until cleared
	y = Add(Mul(x, x), x)
	y.Backward()
	assert.Equal(t, []float32{6, 10, 14}, x.grad.data)
}

func TestBackwardWith(t *testing.T) {
	x := NewTensor([]float32{1, 2, 3, 4}, 2, 2)
	w := Eye(2)
	y := MatMul(x, w)
	assert.Equal(t, x.data, y.data)

	// only the first row contributes
	y.BackwardWith(NewTensor([]float32{1, -1, 0, 0}, 2, 2))
	assert.Equal(t, []float32{1, -1, 2, -2}, w.grad.data)
	assert.Equal(t, []float32{1, -1, 0, 0}, x.grad.data)

	assert.Panics(t, func() { y.BackwardWith(Zeros(3)) })
}

func TestNoGrad(t *testing.T) {
	x := NewTensor([]float32{1, 2}, 2)
	y := Sigmoid(x).NoGrad()
	y.Backward()
	assert.Nil(t, x.grad)
	assert.NotNil(t, y.grad)
}
