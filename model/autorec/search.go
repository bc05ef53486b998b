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
	"math"
	"slices"
	"sync"
	"time"

	"github.com/c-bata/goptuna"
	"github.com/c-bata/goptuna/tpe"
	"github.com/gorse-io/autorec/base/log"
	"github.com/gorse-io/autorec/dataset"
	"github.com/gorse-io/autorec/model"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Estimator is a model tuned by ModelSearch.
type Estimator interface {
	model.Model
	Fit(ctx context.Context, trainSet, testSet *dataset.SparseDataset, config *FitConfig) (Score, error)
}

type ModelCreator func() Estimator

// SearchResult is the best trial found so far.
type SearchResult struct {
	Type   string
	Params model.Params
	Score  Score
}

// ModelSearch is a goptuna objective that minimizes test RMSE.
type ModelSearch struct {
	ctx           context.Context
	modelCreators map[string]ModelCreator
	modelTypes    []string
	trainSet      *dataset.SparseDataset
	testSet       *dataset.SparseDataset
	config        *FitConfig

	mu     sync.Mutex
	result SearchResult
}

func NewModelSearch(models map[string]ModelCreator, trainSet, testSet *dataset.SparseDataset, config *FitConfig) *ModelSearch {
	modelTypes := lo.Keys(models)
	slices.Sort(modelTypes)
	return &ModelSearch{
		ctx:           context.Background(),
		modelCreators: models,
		modelTypes:    modelTypes,
		trainSet:      trainSet,
		testSet:       testSet,
		config:        config,
	}
}

func (ms *ModelSearch) Objective(trial goptuna.Trial) (float64, error) {
	if len(ms.modelCreators) == 0 {
		return 0, errors.New("no model to search")
	}
	modelType, err := trial.SuggestCategorical("Model", ms.modelTypes)
	if err != nil {
		return 0, errors.Trace(err)
	}
	m := ms.modelCreators[modelType]()
	m.SetParams(m.SuggestParams(trial))
	score, err := m.Fit(ms.ctx, ms.trainSet, ms.testSet, ms.config)
	if err != nil {
		return 0, errors.Trace(err)
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if score.BetterThan(ms.result.Score) {
		ms.result = SearchResult{
			Type:   modelType,
			Params: m.GetParams(),
			Score:  score,
		}
	}
	if !score.Valid() {
		return math.MaxFloat32, nil
	}
	return float64(score.RMSE), nil
}

func (ms *ModelSearch) Result() SearchResult {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.result
}

// Search runs n trials with the TPE sampler.
func (ms *ModelSearch) Search(ctx context.Context, n int) (SearchResult, error) {
	log.Logger().Info("autorec model search",
		zap.Int("n_entities", ms.trainSet.NumEntities()),
		zap.Int("dimension", ms.trainSet.Dimension()),
		zap.Int("n_trials", n))
	startTime := time.Now()
	ms.ctx = ctx
	study, err := goptuna.CreateStudy("autorec",
		goptuna.StudyOptionDirection(goptuna.StudyDirectionMinimize),
		goptuna.StudyOptionSampler(tpe.NewSampler()))
	if err != nil {
		return SearchResult{}, errors.Trace(err)
	}
	if err = study.Optimize(ms.Objective, n); err != nil {
		return SearchResult{}, errors.Trace(err)
	}
	result := ms.Result()
	log.Logger().Info("complete autorec model search",
		zap.Float32("RMSE", result.Score.RMSE),
		zap.String("model", result.Type),
		zap.Any("params", result.Params),
		zap.String("search_time", time.Since(startTime).String()))
	return result, nil
}
