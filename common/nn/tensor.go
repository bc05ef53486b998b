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

package nn

import (
	"fmt"
	"strings"

	"github.com/chewxy/math32"
	"github.com/gorse-io/autorec/base"
)

type Tensor struct {
	data  []float32
	shape []int
	grad  *Tensor
	op    op
}

func NewTensor(data []float32, shape ...int) *Tensor {
	if size := numel(shape); size != len(data) {
		panic(fmt.Sprintf("tensor of shape %v expects %d elements, but got %d", shape, size, len(data)))
	}
	return &Tensor{
		data:  data,
		shape: shape,
	}
}

func NewScalar(data float32) *Tensor {
	return &Tensor{
		data:  []float32{data},
		shape: []int{},
	}
}

// Ones creates a tensor filled with ones.
func Ones(shape ...int) *Tensor {
	data := make([]float32, numel(shape))
	for i := range data {
		data[i] = 1
	}
	return &Tensor{
		data:  data,
		shape: shape,
	}
}

// Zeros creates a tensor filled with zeros.
func Zeros(shape ...int) *Tensor {
	return &Tensor{
		data:  make([]float32, numel(shape)),
		shape: shape,
	}
}

// Normal creates a tensor filled with samples from a normal distribution.
func Normal(rng base.RandomGenerator, mean, std float32, shape ...int) *Tensor {
	return &Tensor{
		data:  rng.NormalVector(numel(shape), mean, std),
		shape: shape,
	}
}

// Eye creates an identity matrix.
func Eye(n int) *Tensor {
	t := Zeros(n, n)
	for i := 0; i < n; i++ {
		t.data[i*n+i] = 1
	}
	return t
}

// NoGrad detaches a tensor from the graph that produced it.
func (t *Tensor) NoGrad() *Tensor {
	t.op = nil
	return t
}

func (t *Tensor) Data() []float32 {
	return t.data
}

func (t *Tensor) Shape() []int {
	return t.shape
}

func (t *Tensor) Grad() *Tensor {
	return t.grad
}

func (t *Tensor) String() string {
	// Print scalar value
	if len(t.shape) == 0 {
		return fmt.Sprint(t.data[0])
	}

	builder := strings.Builder{}
	builder.WriteString("[")
	if len(t.data) <= 10 {
		for i := 0; i < len(t.data); i++ {
			builder.WriteString(fmt.Sprint(t.data[i]))
			if i != len(t.data)-1 {
				builder.WriteString(", ")
			}
		}
	} else {
		for i := 0; i < 5; i++ {
			builder.WriteString(fmt.Sprint(t.data[i]))
			builder.WriteString(", ")
		}
		builder.WriteString("..., ")
		for i := len(t.data) - 5; i < len(t.data); i++ {
			builder.WriteString(fmt.Sprint(t.data[i]))
			if i != len(t.data)-1 {
				builder.WriteString(", ")
			}
		}
	}
	builder.WriteString("]")
	return builder.String()
}

// Backward computes gradients of all tensors in the graph with respect to t,
// seeding the output gradient with ones.
func (t *Tensor) Backward() {
	t.BackwardWith(Ones(t.shape...))
}

// BackwardWith computes gradients with respect to t using dy as the gradient
// of t. Gradients are accumulated into the existing gradients of leaf tensors.
func (t *Tensor) BackwardWith(dy *Tensor) {
	if numel(dy.shape) != len(t.data) {
		panic(fmt.Sprintf("gradient of shape %v does not match tensor of shape %v", dy.shape, t.shape))
	}
	t.accumulate(dy)
	if t.op == nil {
		return
	}
	for _, op := range topologicalSort(t.op) {
		inputs, output := op.inputsAndOutput()
		if output.grad == nil {
			continue
		}
		grads := op.backward(output.grad)
		for i := range grads {
			inputs[i].accumulate(grads[i])
		}
		// intermediate gradients are not needed once propagated
		if output != t {
			output.grad = nil
		}
	}
}

func (t *Tensor) accumulate(grad *Tensor) {
	if t.grad == nil {
		t.grad = NewTensor(append([]float32(nil), grad.data...), t.shape...)
		return
	}
	for i := range t.grad.data {
		t.grad.data[i] += grad.data[i]
	}
}

// topologicalSort returns ops so that every op comes before the ops producing
// its inputs.
func topologicalSort(root op) []op {
	var (
		order   []op
		visited = make(map[op]struct{})
		visit   func(op)
	)
	visit = func(o op) {
		if _, ok := visited[o]; ok {
			return
		}
		visited[o] = struct{}{}
		inputs, _ := o.inputsAndOutput()
		for _, x := range inputs {
			if x.op != nil {
				visit(x.op)
			}
		}
		order = append(order, o)
	}
	visit(root)
	// reverse post-order
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order
}

func numel(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}

func (t *Tensor) clone() *Tensor {
	newData := make([]float32, len(t.data))
	copy(newData, t.data)
	return &Tensor{
		data:  newData,
		shape: t.shape,
	}
}

func (t *Tensor) add(other *Tensor) *Tensor {
	wSize := len(other.data)
	for i := range t.data {
		t.data[i] += other.data[i%wSize]
	}
	return t
}

func (t *Tensor) sub(other *Tensor) *Tensor {
	wSize := len(other.data)
	for i := range t.data {
		t.data[i] -= other.data[i%wSize]
	}
	return t
}

func (t *Tensor) mul(other *Tensor) *Tensor {
	wSize := len(other.data)
	for i := range t.data {
		t.data[i] *= other.data[i%wSize]
	}
	return t
}

func (t *Tensor) square() *Tensor {
	for i := range t.data {
		t.data[i] = t.data[i] * t.data[i]
	}
	return t
}

func (t *Tensor) tanh() *Tensor {
	for i := range t.data {
		t.data[i] = math32.Tanh(t.data[i])
	}
	return t
}

func (t *Tensor) maximum(other *Tensor) *Tensor {
	wSize := len(other.data)
	for i := range t.data {
		t.data[i] = max(t.data[i], other.data[i%wSize])
	}
	return t
}

func (t *Tensor) sum() float32 {
	sum := float32(0)
	for i := range t.data {
		sum += t.data[i]
	}
	return sum
}

// matMul multiplies two matrices, optionally transposing either of them.
func (t *Tensor) matMul(other *Tensor, transpose1, transpose2 bool) *Tensor {
	if len(t.shape) != 2 || len(other.shape) != 2 {
		panic("matMul requires two matrices")
	}
	m, n := t.shape[0], t.shape[1]
	if transpose1 {
		m, n = n, m
	}
	p, q := other.shape[0], other.shape[1]
	if transpose2 {
		p, q = q, p
	}
	if n != p {
		panic(fmt.Sprintf("matMul shape mismatch: (%d, %d) x (%d, %d)", m, n, p, q))
	}
	a := func(i, k int) float32 {
		if transpose1 {
			return t.data[k*m+i]
		}
		return t.data[i*n+k]
	}
	b := func(k, j int) float32 {
		if transpose2 {
			return other.data[j*p+k]
		}
		return other.data[k*q+j]
	}
	y := Zeros(m, q)
	for i := 0; i < m; i++ {
		for k := 0; k < n; k++ {
			aik := a(i, k)
			if aik == 0 {
				continue
			}
			for j := 0; j < q; j++ {
				y.data[i*q+j] += aik * b(k, j)
			}
		}
	}
	return y
}
