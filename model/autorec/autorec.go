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
	"encoding/binary"
	"fmt"
	"io"
	"reflect"
	"time"

	"github.com/c-bata/goptuna"
	"github.com/chewxy/math32"
	"github.com/gorse-io/autorec/base"
	"github.com/gorse-io/autorec/base/encoding"
	"github.com/gorse-io/autorec/base/log"
	"github.com/gorse-io/autorec/base/progress"
	"github.com/gorse-io/autorec/common/nn"
	"github.com/gorse-io/autorec/dataset"
	"github.com/gorse-io/autorec/model"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

type FitConfig struct {
	Jobs    int
	Verbose int
	// OnEpoch is called after every evaluation. Training stops if it returns
	// false.
	OnEpoch func(epoch int, score Score) bool
}

func NewFitConfig() *FitConfig {
	return &FitConfig{
		Jobs:    1,
		Verbose: 10,
	}
}

func (config *FitConfig) SetVerbose(verbose int) *FitConfig {
	config.Verbose = verbose
	return config
}

func (config *FitConfig) SetJobs(jobs int) *FitConfig {
	config.Jobs = jobs
	return config
}

func (config *FitConfig) SetOnEpoch(onEpoch func(epoch int, score Score) bool) *FitConfig {
	config.OnEpoch = onEpoch
	return config
}

// AutoRec is a denoising autoencoder over sparse rating vectors. A vector is
// encoded by a hidden layer and decoded back to all counterparts:
//
//	h = f(W_e x + b_e)
//	y = W_d h + b_d
//
// During training a fraction of known entries is hidden from the input and
// the loss is only evaluated at known entries.
//
// Hyper-parameters:
//
//	HiddenSize	- The width of the hidden layer. Default is 500.
//	Activation	- The hidden activation (identity, sigmoid, tanh or relu). Default is tanh.
//	Optimizer	- The optimizer (sgd or adam). Default is sgd.
//	NEpochs		- The number of passes over the train set. Default is 20.
//	BatchSize	- The number of entities per batch. Default is 35.
//	Lr		- The learning rate. Default is 0.03.
//	LrDecay		- The learning rate decay per step. Default is 0.
//	WeightDecay	- The L2 penalty on parameters. Default is 0.02.
//	HideRatio	- The fraction of known entries hidden from the input. Default is 0.25.
//	Alpha		- The weight of hidden entries in the loss. Default is 1.
//	Beta		- The weight of kept entries in the loss. Default is 0.5.
//	SizeAverage	- Divide the loss of a row by its number of known entries. Default is false.
//	InitStdDev	- The standard deviation of initial weights. Default is 1/sqrt(fan in).
type AutoRec struct {
	model.BaseModel
	Encoder   *nn.LinearLayer
	Decoder   *nn.LinearLayer
	Dimension int
	Rescaler  dataset.Rescaler
	network   nn.Model
	// Hyper parameters
	hiddenSize  int
	activation  string
	optimizer   string
	nEpochs     int
	batchSize   int
	lr          float32
	lrDecay     float32
	weightDecay float32
	hideRatio   float32
	alpha       float32
	beta        float32
	sizeAverage bool
	initStdDev  float32
}

// NewAutoRec creates an AutoRec model.
func NewAutoRec(params model.Params) *AutoRec {
	m := new(AutoRec)
	m.SetParams(params)
	return m
}

// SetParams sets hyper-parameters of the AutoRec model.
func (m *AutoRec) SetParams(params model.Params) {
	m.BaseModel.SetParams(params)
	m.hiddenSize = m.Params.GetInt(model.HiddenSize, 500)
	m.activation = m.Params.GetString(model.Activation, "tanh")
	m.optimizer = m.Params.GetString(model.Optimizer, "sgd")
	m.nEpochs = m.Params.GetInt(model.NEpochs, 20)
	m.batchSize = m.Params.GetInt(model.BatchSize, 35)
	m.lr = m.Params.GetFloat32(model.Lr, 0.03)
	m.lrDecay = m.Params.GetFloat32(model.LrDecay, 0)
	m.weightDecay = m.Params.GetFloat32(model.WeightDecay, 0.02)
	m.hideRatio = m.Params.GetFloat32(model.HideRatio, 0.25)
	m.alpha = m.Params.GetFloat32(model.Alpha, 1)
	m.beta = m.Params.GetFloat32(model.Beta, 0.5)
	m.sizeAverage = m.Params.GetBool(model.SizeAverage, false)
	m.initStdDev = m.Params.GetFloat32(model.InitStdDev, 0)
}

// Validate checks hyper-parameters.
func (m *AutoRec) Validate() error {
	if m.hiddenSize <= 0 {
		return errors.NotValidf("hidden size %v", m.hiddenSize)
	}
	if _, err := nn.NewActivation(m.activation); err != nil {
		return errors.Trace(err)
	}
	if m.optimizer != "sgd" && m.optimizer != "adam" {
		return errors.NotValidf("optimizer %q", m.optimizer)
	}
	if m.nEpochs <= 0 {
		return errors.NotValidf("number of epochs %v", m.nEpochs)
	}
	if m.batchSize <= 0 {
		return errors.NotValidf("batch size %v", m.batchSize)
	}
	if !(m.lr > 0) {
		return errors.NotValidf("learning rate %v", m.lr)
	}
	if !(m.lrDecay >= 0) {
		return errors.NotValidf("learning rate decay %v", m.lrDecay)
	}
	if !(m.weightDecay >= 0) {
		return errors.NotValidf("weight decay %v", m.weightDecay)
	}
	if !(m.hideRatio >= 0 && m.hideRatio <= 1) {
		return errors.NotValidf("hide ratio %v", m.hideRatio)
	}
	if !(m.alpha >= 0) {
		return errors.NotValidf("alpha %v", m.alpha)
	}
	if !(m.beta >= 0) {
		return errors.NotValidf("beta %v", m.beta)
	}
	if !(m.initStdDev >= 0) {
		return errors.NotValidf("initial standard deviation %v", m.initStdDev)
	}
	return nil
}

func (m *AutoRec) SuggestParams(trial goptuna.Trial) model.Params {
	return m.Params.Overwrite(model.Params{
		model.HiddenSize:  lo.Must(trial.SuggestDiscreteFloat(string(model.HiddenSize), 100, 600, 100)),
		model.Activation:  lo.Must(trial.SuggestCategorical(string(model.Activation), []string{"sigmoid", "tanh", "relu"})),
		model.Lr:          lo.Must(trial.SuggestLogFloat(string(model.Lr), 0.001, 0.1)),
		model.WeightDecay: lo.Must(trial.SuggestLogFloat(string(model.WeightDecay), 0.0001, 0.1)),
		model.HideRatio:   lo.Must(trial.SuggestDiscreteFloat(string(model.HideRatio), 0, 0.5, 0.05)),
		model.Alpha:       lo.Must(trial.SuggestDiscreteFloat(string(model.Alpha), 0.5, 1.5, 0.25)),
		model.Beta:        lo.Must(trial.SuggestDiscreteFloat(string(model.Beta), 0, 1, 0.25)),
	})
}

// Init creates fresh parameters for a dataset.
func (m *AutoRec) Init(train *dataset.SparseDataset) error {
	m.Dimension = train.Dimension()
	m.Rescaler = train.Rescaler()
	rng := m.GetRandomGenerator()
	m.Encoder = nn.NewLinear(m.Dimension, m.hiddenSize, rng)
	m.Decoder = nn.NewLinear(m.hiddenSize, m.Dimension, rng)
	if m.initStdDev > 0 {
		m.Encoder.W = nn.Normal(rng, 0, m.initStdDev, m.Dimension, m.hiddenSize)
		m.Decoder.W = nn.Normal(rng, 0, m.initStdDev, m.hiddenSize, m.Dimension)
	}
	return m.buildNetwork()
}

func (m *AutoRec) buildNetwork() error {
	activation, err := nn.NewActivation(m.activation)
	if err != nil {
		return errors.Trace(err)
	}
	layers := []nn.Layer{m.Encoder}
	if activation != nil {
		layers = append(layers, activation)
	}
	m.network = nn.NewSequential(append(layers, m.Decoder)...)
	return nil
}

// Network returns the underlying network. It is nil before Fit.
func (m *AutoRec) Network() nn.Model {
	return m.network
}

// Fit the AutoRec model. Its task complexity is O(m.nEpochs).
func (m *AutoRec) Fit(ctx context.Context, trainSet, testSet *dataset.SparseDataset, config *FitConfig) (Score, error) {
	log.Logger().Info("fit autorec",
		zap.Int("n_entities", trainSet.NumEntities()),
		zap.Int("dimension", trainSet.Dimension()),
		zap.Int("train_set_size", trainSet.Count()),
		zap.Int("test_set_size", testSet.Count()),
		zap.Any("params", m.GetParams()),
		zap.Int("jobs", config.Jobs),
		zap.Int("verbose", config.Verbose))
	if err := m.Validate(); err != nil {
		return Score{}, errors.Trace(err)
	}
	if trainSet.Dimension() == 0 || trainSet.CountEntities() == 0 {
		return Score{}, errors.NotValidf("empty train set")
	}
	if err := m.Init(trainSet); err != nil {
		return Score{}, errors.Trace(err)
	}
	optimizer, err := nn.NewOptimizer(m.optimizer, m.network.Parameters(), m.lr)
	if err != nil {
		return Score{}, errors.Trace(err)
	}
	optimizer.SetWeightDecay(m.weightDecay)
	optimizer.SetLearningRateDecay(m.lrDecay)
	loss, err := NewSparseDenoisingLoss(m.alpha, m.beta, m.Dimension, m.sizeAverage, SquaredError{})
	if err != nil {
		return Score{}, errors.Trace(err)
	}
	trainer, err := NewTrainer(m.network, optimizer, loss, trainSet, m.hideRatio, m.batchSize, m.GetRandomGenerator())
	if err != nil {
		return Score{}, errors.Trace(err)
	}

	// evaluate initial model
	rescale := m.Rescaler.Factor()
	baseline := EvaluateBaseline(trainSet, testSet, rescale)
	evalStart := time.Now()
	score, err := Evaluate(ctx, m.network, trainSet, testSet, rescale, config.Jobs)
	if err != nil {
		return Score{}, errors.Trace(err)
	}
	evalTime := time.Since(evalStart)
	log.Logger().Debug(fmt.Sprintf("fit autorec %v/%v", 0, m.nEpochs),
		zap.String("eval_time", evalTime.String()),
		zap.Float32("RMSE", score.RMSE),
		zap.Float32("baseline_RMSE", baseline.RMSE))

	_, span := progress.Start(ctx, "AutoRec.Fit", m.nEpochs)
	evaluated := 0
	for epoch := 1; epoch <= m.nEpochs; epoch++ {
		fitStart := time.Now()
		stats, err := trainer.RunEpoch(ctx)
		if err != nil {
			span.Fail(err)
			return score, errors.Trace(err)
		}
		fitTime := time.Since(fitStart)
		if math32.IsNaN(stats.Loss) || math32.IsInf(stats.Loss, 0) {
			log.Logger().Warn("training diverged", stats.Fields()...)
			trainer.Stop()
			break
		}
		span.Add(1)
		if (config.Verbose > 0 && epoch%config.Verbose == 0) || epoch == m.nEpochs {
			evalStart = time.Now()
			score, err = Evaluate(ctx, m.network, trainSet, testSet, rescale, config.Jobs)
			if err != nil {
				span.Fail(err)
				return score, errors.Trace(err)
			}
			evaluated = epoch
			evalTime = time.Since(evalStart)
			log.Logger().Info(fmt.Sprintf("fit autorec %v/%v", epoch, m.nEpochs),
				zap.String("fit_time", fitTime.String()),
				zap.String("eval_time", evalTime.String()),
				zap.Float32("loss", stats.Loss),
				zap.Int("n_skipped", stats.Skipped),
				zap.Float32("RMSE", score.RMSE))
			if config.OnEpoch != nil && !config.OnEpoch(epoch, score) {
				log.Logger().Info("stop training early", zap.Int("epoch", epoch))
				trainer.Stop()
				break
			}
		}
	}
	if evaluated != trainer.Epoch() {
		if score, err = Evaluate(ctx, m.network, trainSet, testSet, rescale, config.Jobs); err != nil {
			span.Fail(err)
			return score, errors.Trace(err)
		}
	}
	span.End()
	log.Logger().Info("fit autorec complete",
		zap.Float32("RMSE", score.RMSE),
		zap.Float32("baseline_RMSE", baseline.RMSE),
		zap.Int("n_ratings", score.Count))
	return score, nil
}

// Predict reconstructs a centered sparse vector into a dense row.
func (m *AutoRec) Predict(vec *base.SparseVector) ([]float32, error) {
	if m.Invalid() {
		return nil, errors.New("model is not fitted")
	}
	x, err := NewBatch([]int32{0}, []*base.SparseVector{vec}).Dense(m.Dimension)
	if err != nil {
		return nil, errors.Trace(err)
	}
	y := m.network.Forward(x)
	if w := width(y.Shape()); w != m.Dimension {
		return nil, errors.Trace(&base.ShapeMismatchError{Expected: m.Dimension, Actual: w})
	}
	return y.Data(), nil
}

// PredictRating predicts the raw rating of an entity at a counterpart from
// its known ratings in a dataset. The prediction is clipped to the rating
// range.
func (m *AutoRec) PredictRating(ds *dataset.SparseDataset, entity, counterpart int32) (float32, error) {
	if counterpart < 0 || int(counterpart) >= m.Dimension {
		return 0, errors.NotFoundf("counterpart %d", counterpart)
	}
	if !ds.Has(entity) {
		return 0, errors.NotFoundf("ratings of entity %d", entity)
	}
	output, err := m.Predict(ds.Vector(entity))
	if err != nil {
		return 0, errors.Trace(err)
	}
	rating := m.Rescaler.Unscale(output[counterpart] + ds.Mean(entity))
	return math32.Max(m.Rescaler.Min, math32.Min(m.Rescaler.Max, rating)), nil
}

func (m *AutoRec) Clear() {
	m.Encoder = nil
	m.Decoder = nil
	m.network = nil
	m.Dimension = 0
}

func (m *AutoRec) Invalid() bool {
	return m == nil ||
		m.Encoder == nil ||
		m.Decoder == nil ||
		m.network == nil
}

// Marshal model into byte stream.
func (m *AutoRec) Marshal(w io.Writer) error {
	if m.Invalid() {
		return errors.New("model is not fitted")
	}
	// write params
	if err := encoding.WriteGob(w, m.Params); err != nil {
		return errors.Trace(err)
	}
	// write shape and rating range
	if err := binary.Write(w, binary.LittleEndian, int64(m.Dimension)); err != nil {
		return errors.Trace(err)
	}
	if err := binary.Write(w, binary.LittleEndian, m.Rescaler); err != nil {
		return errors.Trace(err)
	}
	// write weights
	for _, p := range []*nn.Tensor{m.Encoder.W, m.Encoder.B, m.Decoder.W, m.Decoder.B} {
		if err := encoding.WriteFloat32s(w, p.Data()); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// Unmarshal model from byte stream.
func (m *AutoRec) Unmarshal(r io.Reader) error {
	// read params
	var params model.Params
	if err := encoding.ReadGob(r, &params); err != nil {
		return errors.Trace(err)
	}
	m.SetParams(params)
	if err := m.Validate(); err != nil {
		return errors.Trace(err)
	}
	// read shape and rating range
	var dim int64
	if err := binary.Read(r, binary.LittleEndian, &dim); err != nil {
		return errors.Trace(err)
	}
	if dim <= 0 {
		return errors.Errorf("invalid dimension %d", dim)
	}
	m.Dimension = int(dim)
	if err := binary.Read(r, binary.LittleEndian, &m.Rescaler); err != nil {
		return errors.Trace(err)
	}
	// read weights
	m.Encoder = &nn.LinearLayer{W: nn.Zeros(m.Dimension, m.hiddenSize), B: nn.Zeros(m.hiddenSize)}
	m.Decoder = &nn.LinearLayer{W: nn.Zeros(m.hiddenSize, m.Dimension), B: nn.Zeros(m.Dimension)}
	for _, p := range []*nn.Tensor{m.Encoder.W, m.Encoder.B, m.Decoder.W, m.Decoder.B} {
		if err := encoding.ReadFloat32s(r, p.Data()); err != nil {
			return errors.Trace(err)
		}
	}
	return m.buildNetwork()
}

func GetModelName(m model.Model) string {
	switch m.(type) {
	case *AutoRec:
		return "autorec"
	default:
		return reflect.TypeOf(m).String()
	}
}

func MarshalModel(w io.Writer, m *AutoRec) error {
	if err := encoding.WriteString(w, GetModelName(m)); err != nil {
		return errors.Trace(err)
	}
	if err := m.Marshal(w); err != nil {
		return errors.Trace(err)
	}
	return nil
}

func UnmarshalModel(r io.Reader) (*AutoRec, error) {
	name, err := encoding.ReadString(r)
	if err != nil {
		return nil, errors.Trace(err)
	}
	switch name {
	case "autorec":
		var m AutoRec
		if err := m.Unmarshal(r); err != nil {
			return nil, errors.Trace(err)
		}
		return &m, nil
	}
	return nil, fmt.Errorf("unknown model %v", name)
}
