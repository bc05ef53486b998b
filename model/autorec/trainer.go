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
	"context"

	"github.com/gorse-io/autorec/base"
	"github.com/gorse-io/autorec/base/log"
	"github.com/gorse-io/autorec/common/nn"
	"github.com/gorse-io/autorec/dataset"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// State of a training session.
type State int

const (
	Idle State = iota
	EpochRunning
	BatchRunning
	GradientApplied
	Skipped
	Terminated
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case EpochRunning:
		return "EpochRunning"
	case BatchRunning:
		return "BatchRunning"
	case GradientApplied:
		return "GradientApplied"
	case Skipped:
		return "Skipped"
	case Terminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// EpochStats summarizes one pass over the train set.
type EpochStats struct {
	Epoch int
	// Loss is the mean loss of applied batches.
	Loss    float32
	Batches int
	// Skipped counts batches without any contributing index.
	Skipped int
}

func (s EpochStats) Fields() []zap.Field {
	return []zap.Field{
		zap.Int("epoch", s.Epoch),
		zap.Float32("loss", s.Loss),
		zap.Int("n_batches", s.Batches),
		zap.Int("n_skipped", s.Skipped),
	}
}

// Trainer holds the state of a training run. Parameter updates are applied
// one batch at a time in the order of the batch assembler.
type Trainer struct {
	net       nn.Model
	optimizer nn.Optimizer
	loss      *SparseDenoisingLoss
	train     *dataset.SparseDataset
	hideRatio float32
	rng       base.RandomGenerator
	mask      func(vec *base.SparseVector, hideRatio float32, rng base.RandomGenerator) (Corruption, error)
	assembler *BatchAssembler
	epoch     int
	state     State
}

func NewTrainer(net nn.Model, optimizer nn.Optimizer, loss *SparseDenoisingLoss, train *dataset.SparseDataset,
	hideRatio float32, batchSize int, rng base.RandomGenerator) (*Trainer, error) {
	if !(hideRatio >= 0 && hideRatio <= 1) {
		return nil, errors.NotValidf("hide ratio %v", hideRatio)
	}
	if loss.InputDim != train.Dimension() {
		return nil, errors.Trace(&base.ShapeMismatchError{Expected: train.Dimension(), Actual: loss.InputDim})
	}
	assembler, err := NewBatchAssembler(train.NumEntities(), batchSize, TrainPredicate(train), rng)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &Trainer{
		net:       net,
		optimizer: optimizer,
		loss:      loss,
		train:     train,
		hideRatio: hideRatio,
		rng:       rng,
		mask:      Corrupt,
		assembler: assembler,
	}, nil
}

func (t *Trainer) State() State {
	return t.state
}

// Epoch returns the number of started epochs.
func (t *Trainer) Epoch() int {
	return t.epoch
}

// Stop terminates the session. Later calls to RunEpoch fail.
func (t *Trainer) Stop() {
	t.state = Terminated
}

// RunEpoch trains on every batch of one pass. The context is only checked
// before the pass starts.
func (t *Trainer) RunEpoch(ctx context.Context) (EpochStats, error) {
	if t.state == Terminated {
		return EpochStats{}, errors.New("training session is terminated")
	}
	if err := ctx.Err(); err != nil {
		t.state = Terminated
		return EpochStats{}, errors.Trace(err)
	}
	t.epoch++
	t.state = EpochRunning
	stats := EpochStats{Epoch: t.epoch}
	var sum float32
	t.assembler.Reset()
	for ids, ok := t.assembler.Next(); ok; ids, ok = t.assembler.Next() {
		t.state = BatchRunning
		loss, count, err := t.step(ids)
		if err != nil {
			t.state = Terminated
			return stats, errors.Trace(err)
		}
		if count == 0 {
			t.state = Skipped
			stats.Skipped++
			log.Logger().Debug("skip batch without contributing entries",
				zap.Int("epoch", t.epoch), zap.Int("batch_size", len(ids)), zap.Stringer("state", t.state))
			continue
		}
		t.state = GradientApplied
		sum += loss
		stats.Batches++
	}
	if stats.Batches > 0 {
		stats.Loss = sum / float32(stats.Batches)
	}
	t.state = Idle
	return stats, nil
}

// step applies one optimizer step on a batch and returns its loss and the
// number of contributing indices. Nothing is updated if the count is zero.
func (t *Trainer) step(ids []int32) (float32, int, error) {
	targets := make([]*base.SparseVector, len(ids))
	inputs := make([]*base.SparseVector, len(ids))
	corruptions := make([]Corruption, len(ids))
	for i, id := range ids {
		targets[i] = t.train.Vector(id)
		c, err := t.mask(targets[i], t.hideRatio, t.rng)
		if err != nil {
			return 0, 0, errors.Trace(err)
		}
		corruptions[i] = c
		inputs[i] = c.Input
	}
	x, err := NewBatch(ids, inputs).Dense(t.loss.InputDim)
	if err != nil {
		return 0, 0, errors.Trace(err)
	}
	y := t.net.Forward(x)
	loss, count, err := t.loss.ForwardBatch(y, targets, corruptions)
	if err != nil || count == 0 {
		return 0, 0, errors.Trace(err)
	}
	grad, err := t.loss.BackwardBatch(y, targets, corruptions)
	if err != nil {
		return 0, 0, errors.Trace(err)
	}
	t.optimizer.ZeroGrad()
	y.BackwardWith(grad)
	t.optimizer.Step()
	return loss, count, nil
}
