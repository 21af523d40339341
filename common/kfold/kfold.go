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

// Package kfold computes index partitions of a sample range: balanced sequential
// chunks and k-fold cross-validation folds.
package kfold

import (
	"github.com/bits-and-blooms/bitset"
	"github.com/juju/errors"
	"github.com/modelgym/xycdata/common/log"
	"github.com/modelgym/xycdata/common/parallel"
	"github.com/modelgym/xycdata/common/util"
	"go.uber.org/zap"
)

// Fold is a pair of train indices and test indices. Both are sorted in ascending order.
type Fold struct {
	Train []int
	Test  []int
}

// SequentialSplit divides [0, nSamples) into nSplits contiguous chunks. Sizes differ by at
// most one and earlier chunks receive the extra elements.
func SequentialSplit(nSamples, nSplits int) ([][]int, error) {
	if nSplits <= 0 {
		return nil, errors.NotValidf("number of splits %d, at least 1 split is required", nSplits)
	}
	if nSplits > nSamples {
		return nil, errors.NotValidf("number of splits %d greater than number of samples %d", nSplits, nSamples)
	}
	return parallel.Split(util.RangeInt(nSamples), nSplits), nil
}

// KFold is a k-fold cross-validator.
type KFold struct {
	NFolds  int
	Shuffle bool
	// RandomState seeds the permutation when Shuffle is set. A nil RandomState with
	// Shuffle set draws the seed from the clock.
	RandomState *int64
}

type Option func(*KFold)

// WithShuffle permutes samples before they are divided into folds.
func WithShuffle() Option {
	return func(k *KFold) {
		k.Shuffle = true
	}
}

// WithRandomState sets the seed of the permutation. It is only valid with WithShuffle.
func WithRandomState(seed int64) Option {
	return func(k *KFold) {
		k.RandomState = &seed
	}
}

// NewKFold creates a KFold of nFolds folds.
func NewKFold(nFolds int, opts ...Option) KFold {
	k := KFold{NFolds: nFolds}
	for _, opt := range opts {
		opt(&k)
	}
	return k
}

// Validate checks whether the cross-validator can split nSamples samples.
func (k KFold) Validate(nSamples int) error {
	if k.NFolds < 2 {
		return errors.NotValidf("number of folds %d, at least 2 folds are required", k.NFolds)
	}
	if k.NFolds > nSamples {
		return errors.NotValidf("number of folds %d greater than number of samples %d", k.NFolds, nSamples)
	}
	if k.RandomState != nil && !k.Shuffle {
		return errors.NotValidf("random state without shuffle")
	}
	return nil
}

// Split generates folds over [0, nSamples). The test sets of all folds partition the range.
// The first nSamples%NFolds folds hold one extra test sample.
func (k KFold) Split(nSamples int) ([]Fold, error) {
	if err := k.Validate(nSamples); err != nil {
		return nil, errors.Trace(err)
	}
	indices := util.RangeInt(nSamples)
	if k.Shuffle {
		var rng util.RandomGenerator
		if k.RandomState != nil {
			rng = util.NewRandomGenerator(*k.RandomState)
		} else {
			rng = util.NewClockRandomGenerator()
		}
		indices = rng.Permutation(nSamples)
	}
	groups := parallel.Split(indices, k.NFolds)
	folds := make([]Fold, len(groups))
	isTest := bitset.New(uint(nSamples))
	for i, group := range groups {
		isTest.ClearAll()
		for _, index := range group {
			isTest.Set(uint(index))
		}
		folds[i] = Fold{
			Train: make([]int, 0, nSamples-len(group)),
			Test:  make([]int, 0, len(group)),
		}
		for index := 0; index < nSamples; index++ {
			if isTest.Test(uint(index)) {
				folds[i].Test = append(folds[i].Test, index)
			} else {
				folds[i].Train = append(folds[i].Train, index)
			}
		}
	}
	log.Logger().Debug("create k-fold splits",
		zap.Int("n_samples", nSamples),
		zap.Int("n_folds", k.NFolds),
		zap.Bool("shuffle", k.Shuffle))
	return folds, nil
}
