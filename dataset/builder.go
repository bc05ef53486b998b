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
	"github.com/gorse-io/autorec/base"
	"github.com/gorse-io/autorec/base/log"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// maxDropWarnings limits warnings logged for dropped records.
const maxDropWarnings = 10

type Options struct {
	Rescaler Rescaler
	// TrainRatio is the probability of routing a rating to the train set.
	TrainRatio float64
	// Strict aborts on the first invalid record. Otherwise invalid records are
	// dropped and counted.
	Strict bool
	// Dimension is the number of counterparts. Zero infers it from data.
	Dimension int
	// NumEntities is the size of the entity id domain. Zero infers it from data.
	NumEntities int
}

func DefaultOptions() Options {
	return Options{
		Rescaler:   DefaultRescaler,
		TrainRatio: 0.9,
	}
}

func (opts Options) Validate() error {
	if opts.Rescaler.Min >= opts.Rescaler.Max {
		return errors.NotValidf("rating range [%v, %v]", opts.Rescaler.Min, opts.Rescaler.Max)
	}
	if !(opts.TrainRatio > 0 && opts.TrainRatio <= 1) {
		return errors.NotValidf("train ratio %v", opts.TrainRatio)
	}
	if opts.Dimension < 0 {
		return errors.NotValidf("dimension %v", opts.Dimension)
	}
	if opts.NumEntities < 0 {
		return errors.NotValidf("number of entities %v", opts.NumEntities)
	}
	return nil
}

// Builder accumulates rating triples and splits them into train and test
// datasets.
type Builder struct {
	opts    Options
	rng     base.RandomGenerator
	train   []*base.SparseVector
	test    []*base.SparseVector
	maxDim  int
	records int
	dropped int
}

func NewBuilder(opts Options, rng base.RandomGenerator) (*Builder, error) {
	if err := opts.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &Builder{opts: opts, rng: rng}, nil
}

// Add routes a rating to the train set with probability TrainRatio and to the
// test set otherwise.
func (b *Builder) Add(rating Rating) error {
	return b.AddAt(b.records+1, rating)
}

// AddAt is Add with the line number reported by data errors.
func (b *Builder) AddAt(line int, rating Rating) error {
	b.records++
	if err := b.validate(line, rating); err != nil {
		return b.Reject(err)
	}
	vectors := &b.train
	if b.rng.Float64() >= b.opts.TrainRatio {
		vectors = &b.test
	}
	for int(rating.Entity) >= len(*vectors) {
		*vectors = append(*vectors, nil)
	}
	if (*vectors)[rating.Entity] == nil {
		(*vectors)[rating.Entity] = base.NewSparseVector()
	}
	(*vectors)[rating.Entity].Add(rating.Counterpart, b.opts.Rescaler.Scale(rating.Value))
	b.maxDim = max(b.maxDim, int(rating.Counterpart)+1)
	return nil
}

func (b *Builder) validate(line int, rating Rating) *base.DataError {
	if rating.Entity < 0 {
		return base.NewDataError(line, "negative entity id %d", rating.Entity)
	}
	if rating.Counterpart < 0 {
		return base.NewDataError(line, "negative counterpart id %d", rating.Counterpart)
	}
	if b.opts.NumEntities > 0 && int(rating.Entity) >= b.opts.NumEntities {
		return base.NewDataError(line, "entity id %d out of range [0, %d)", rating.Entity, b.opts.NumEntities)
	}
	if b.opts.Dimension > 0 && int(rating.Counterpart) >= b.opts.Dimension {
		return base.NewDataError(line, "counterpart id %d out of range [0, %d)", rating.Counterpart, b.opts.Dimension)
	}
	if math32.IsNaN(rating.Value) || !b.opts.Rescaler.Contains(rating.Value) {
		return base.NewDataError(line, "rating %v out of range [%v, %v]",
			rating.Value, b.opts.Rescaler.Min, b.opts.Rescaler.Max)
	}
	return nil
}

// Reject handles an invalid record. In strict mode the error is returned,
// otherwise the record is counted as dropped.
func (b *Builder) Reject(err *base.DataError) error {
	if b.opts.Strict {
		return err
	}
	b.dropped++
	if b.dropped <= maxDropWarnings {
		log.Logger().Warn("drop invalid record", zap.Int("line", err.Line), zap.String("reason", err.Reason))
	} else if b.dropped == maxDropWarnings+1 {
		log.Logger().Warn("too many invalid records, stop logging them")
	}
	return nil
}

// Dropped returns the number of records dropped in lenient mode.
func (b *Builder) Dropped() int {
	return b.dropped
}

// Build sorts vectors, removes test entries duplicated in train and centers
// both sets by the per-entity mean of train values. The builder must not be
// used after Build.
func (b *Builder) Build() (train, test *SparseDataset, err error) {
	numEntities := b.opts.NumEntities
	if numEntities == 0 {
		numEntities = max(len(b.train), len(b.test))
	}
	dimension := b.opts.Dimension
	if dimension == 0 {
		dimension = b.maxDim
	}
	trainVectors := make([]*base.SparseVector, numEntities)
	testVectors := make([]*base.SparseVector, numEntities)
	copy(trainVectors, b.train)
	copy(testVectors, b.test)
	means := make([]float32, numEntities)
	duplicates := 0
	for id := range numEntities {
		trainVec, testVec := trainVectors[id], testVectors[id]
		if trainVec != nil {
			trainVec.Build()
		}
		if testVec != nil {
			testVec.Build()
			if trainVec != nil {
				duplicates += testVec.Remove(func(index int32) bool {
					_, ok := trainVec.Get(index)
					return ok
				})
			}
		}
		// entities without train values keep a zero mean
		means[id] = trainVec.Mean()
		trainVec.SubConst(means[id])
		testVec.SubConst(means[id])
	}
	if duplicates > 0 {
		log.Logger().Warn("remove test ratings duplicated in train set", zap.Int("n_duplicates", duplicates))
	}
	train = NewSparseDataset(dimension, b.opts.Rescaler, trainVectors, means)
	test = NewSparseDataset(dimension, b.opts.Rescaler, testVectors, means)
	log.Logger().Info("build dataset",
		zap.Int("n_entities", numEntities),
		zap.Int("dimension", dimension),
		zap.Int("n_train", train.Count()),
		zap.Int("n_test", test.Count()),
		zap.Int("n_dropped", b.dropped))
	b.train, b.test = nil, nil
	return train, test, nil
}
