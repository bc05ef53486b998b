// Copyright 2020 gorse Project Authors
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

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParams_Copy(t *testing.T) {
	// Create parameters
	a := Params{
		HiddenSize:  1,
		Lr:          0.1,
		RandomState: 0,
	}
	// Create copy
	b := a.Copy()
	b[HiddenSize] = 2
	b[Lr] = 0.2
	b[RandomState] = 1
	// Check original parameters
	assert.Equal(t, 1, a.GetInt(HiddenSize, -1))
	assert.Equal(t, float32(0.1), a.GetFloat32(Lr, -0.1))
	assert.Equal(t, int64(0), a.GetInt64(RandomState, -1))
	// Check copy parameters
	assert.Equal(t, 2, b.GetInt(HiddenSize, -1))
	assert.Equal(t, float32(0.2), b.GetFloat32(Lr, -0.1))
	assert.Equal(t, int64(1), b.GetInt64(RandomState, -1))
}

func TestParams_GetFloat32(t *testing.T) {
	p := Params{}
	// Empty case
	assert.Equal(t, float32(0.1), p.GetFloat32(Alpha, 0.1))
	// Normal case
	p[Alpha] = float32(1.0)
	assert.Equal(t, float32(1.0), p.GetFloat32(Alpha, 0.1))
	// Converted types
	p[Alpha] = 1
	assert.Equal(t, float32(1.0), p.GetFloat32(Alpha, 0.1))
	p[Alpha] = 0.5
	assert.Equal(t, float32(0.5), p.GetFloat32(Alpha, 0.1))
	// Wrong type case
	p[Alpha] = "hello"
	assert.Equal(t, float32(0.1), p.GetFloat32(Alpha, 0.1))
}

func TestParams_GetInt(t *testing.T) {
	p := Params{}
	// Empty case
	assert.Equal(t, -1, p.GetInt(BatchSize, -1))
	// Normal case
	p[BatchSize] = 0
	assert.Equal(t, 0, p.GetInt(BatchSize, -1))
	// Integral float
	p[BatchSize] = float64(32)
	assert.Equal(t, 32, p.GetInt(BatchSize, -1))
	p[BatchSize] = 32.5
	assert.Equal(t, -1, p.GetInt(BatchSize, -1))
	// Wrong type case
	p[BatchSize] = "hello"
	assert.Equal(t, -1, p.GetInt(BatchSize, -1))
}

func TestParams_GetInt64(t *testing.T) {
	p := Params{}
	// Empty case
	assert.Equal(t, int64(-1), p.GetInt64(RandomState, -1))
	// Normal case
	p[RandomState] = int64(0)
	assert.Equal(t, int64(0), p.GetInt64(RandomState, -1))
	// Wrong type case
	p[RandomState] = 0
	assert.Equal(t, int64(0), p.GetInt64(RandomState, -1))
	p[RandomState] = "hello"
	assert.Equal(t, int64(-1), p.GetInt64(RandomState, -1))
}

func TestParams_GetBool(t *testing.T) {
	p := Params{}
	// Empty case
	assert.True(t, p.GetBool(SizeAverage, true))
	// Normal case
	p[SizeAverage] = false
	assert.False(t, p.GetBool(SizeAverage, true))
	// Wrong type case
	p[SizeAverage] = 1
	assert.True(t, p.GetBool(SizeAverage, true))
}

func TestParams_GetString(t *testing.T) {
	p := Params{}
	// Empty case
	assert.Equal(t, "sgd", p.GetString(Optimizer, "sgd"))
	// Normal case
	p[Optimizer] = "adam"
	assert.Equal(t, "adam", p.GetString(Optimizer, "sgd"))
	// Wrong type case
	p[Optimizer] = 1
	assert.Equal(t, "sgd", p.GetString(Optimizer, "sgd"))
}

func TestParams_Overwrite(t *testing.T) {
	a := Params{Lr: 0.1, NEpochs: 10}
	b := a.Overwrite(Params{Lr: 0.2, Activation: "tanh"})
	assert.Equal(t, Params{Lr: 0.2, NEpochs: 10, Activation: "tanh"}, b)
	assert.Equal(t, Params{Lr: 0.1, NEpochs: 10}, a)
}

func TestParams_ToString(t *testing.T) {
	p := Params{HiddenSize: 10}
	assert.Equal(t, `{"HiddenSize":10}`, p.ToString())
}

func TestBaseModel(t *testing.T) {
	var a, b BaseModel
	a.SetParams(Params{RandomState: 42})
	b.SetParams(Params{RandomState: 42})
	assert.Equal(t, Params{RandomState: 42}, a.GetParams())
	assert.Equal(t, a.GetRandomGenerator().Int63(), b.GetRandomGenerator().Int63())
}
