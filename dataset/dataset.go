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

package dataset

import (
	"slices"
	"strconv"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/juju/errors"
	"github.com/modelgym/xycdata/common/kfold"
	"github.com/modelgym/xycdata/common/log"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

// ErrInvalidState is returned when an operation needs data the dataset does not hold.
const ErrInvalidState = errors.ConstError("invalid state")

// Dataset holds a feature matrix, an optional label vector and the identifiers of the
// categorical feature columns. Operations never modify a dataset in place: split and
// cross-validation build new datasets with their own rows and their own copy of the
// categorical columns.
type Dataset struct {
	features           *mat.Dense
	labels             *mat.VecDense
	categoricalColumns []string
	columnNames        []string
}

type options struct {
	strict      bool
	columnNames []string
}

type Option func(*options)

// WithStrictColumns rejects categorical columns that do not identify a feature column,
// either by zero-based index or by column name.
func WithStrictColumns() Option {
	return func(o *options) {
		o.strict = true
	}
}

// WithColumnNames names the feature columns.
func WithColumnNames(names ...string) Option {
	return func(o *options) {
		o.columnNames = names
	}
}

// New creates a dataset. labels may be nil. The categorical columns are copied, the
// feature matrix and the label vector are not.
func New(features *mat.Dense, labels *mat.VecDense, categoricalColumns []string, opts ...Option) (*Dataset, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if features == nil {
		return nil, errors.NotValidf("nil features")
	}
	rows, cols := features.Dims()
	if labels != nil && labels.Len() != rows {
		return nil, errors.NotValidf("%d labels for %d samples", labels.Len(), rows)
	}
	if o.columnNames != nil && len(o.columnNames) != cols {
		return nil, errors.NotValidf("%d column names for %d features", len(o.columnNames), cols)
	}
	d := &Dataset{
		features:           features,
		labels:             labels,
		categoricalColumns: copyColumns(categoricalColumns),
		columnNames:        slices.Clone(o.columnNames),
	}
	if o.strict {
		if err := d.ValidateColumns(); err != nil {
			return nil, errors.Trace(err)
		}
	}
	return d, nil
}

// NewFromRows creates a dataset from row-major features. labels may be nil.
func NewFromRows(features [][]float64, labels []float64, categoricalColumns []string, opts ...Option) (*Dataset, error) {
	if len(features) == 0 {
		return nil, errors.NotValidf("empty features")
	}
	cols := len(features[0])
	if cols == 0 {
		return nil, errors.NotValidf("zero features")
	}
	m := mat.NewDense(len(features), cols, nil)
	for i, row := range features {
		if len(row) != cols {
			return nil, errors.NotValidf("row %d has %d features, expect %d", i, len(row), cols)
		}
		m.SetRow(i, row)
	}
	var v *mat.VecDense
	if labels != nil {
		if len(labels) == 0 {
			return nil, errors.NotValidf("empty labels")
		}
		v = mat.NewVecDense(len(labels), slices.Clone(labels))
	}
	return New(m, v, categoricalColumns, opts...)
}

func copyColumns(columns []string) []string {
	if columns == nil {
		return []string{}
	}
	return slices.Clone(columns)
}

// ValidateColumns checks that every categorical column identifies a feature column, either
// by zero-based index or by column name, and that no column is listed twice.
func (d *Dataset) ValidateColumns() error {
	names := mapset.NewSet(d.columnNames...)
	seen := mapset.NewSet[string]()
	for _, column := range d.categoricalColumns {
		if !seen.Add(column) {
			return errors.NotValidf("duplicate categorical column %s", column)
		}
		if names.Contains(column) {
			continue
		}
		index, err := strconv.Atoi(column)
		if err != nil || index < 0 || index >= d.NumFeatures() {
			return errors.NotValidf("categorical column %s", column)
		}
	}
	return nil
}

// Features returns the feature matrix.
func (d *Dataset) Features() *mat.Dense {
	return d.features
}

// Labels returns the label vector or nil.
func (d *Dataset) Labels() *mat.VecDense {
	return d.labels
}

func (d *Dataset) HasLabels() bool {
	return d.labels != nil
}

// CategoricalColumns returns a copy of the categorical columns.
func (d *Dataset) CategoricalColumns() []string {
	return copyColumns(d.categoricalColumns)
}

func (d *Dataset) SetCategoricalColumns(columns []string) {
	d.categoricalColumns = copyColumns(columns)
}

// ColumnNames returns the names of feature columns, or nil if columns are unnamed.
func (d *Dataset) ColumnNames() []string {
	return slices.Clone(d.columnNames)
}

// Count returns the number of samples.
func (d *Dataset) Count() int {
	if d.labels != nil {
		return d.labels.Len()
	}
	rows, _ := d.features.Dims()
	return rows
}

// NumFeatures returns the number of feature columns.
func (d *Dataset) NumFeatures() int {
	_, cols := d.features.Dims()
	return cols
}

// Subset returns a new dataset made of the rows at indices, in the order given.
func (d *Dataset) Subset(indices []int) (*Dataset, error) {
	if len(indices) == 0 {
		return nil, errors.NotValidf("empty indices")
	}
	for _, index := range indices {
		if index < 0 || index >= d.Count() {
			return nil, errors.NotValidf("index %d out of range [0, %d)", index, d.Count())
		}
	}
	return d.subset(indices), nil
}

func (d *Dataset) subset(indices []int) *Dataset {
	features := mat.NewDense(len(indices), d.NumFeatures(), nil)
	var labels *mat.VecDense
	if d.labels != nil {
		labels = mat.NewVecDense(len(indices), nil)
	}
	row := make([]float64, d.NumFeatures())
	for i, index := range indices {
		features.SetRow(i, mat.Row(row, index, d.features))
		if labels != nil {
			labels.SetVec(i, d.labels.AtVec(index))
		}
	}
	return &Dataset{
		features:           features,
		labels:             labels,
		categoricalColumns: copyColumns(d.categoricalColumns),
		columnNames:        slices.Clone(d.columnNames),
	}
}

// Split divides the dataset into nSplits contiguous parts of balanced sizes. Earlier parts
// hold the extra samples.
func (d *Dataset) Split(nSplits int) ([]*Dataset, error) {
	groups, err := kfold.SequentialSplit(d.Count(), nSplits)
	if err != nil {
		return nil, errors.Trace(err)
	}
	log.Logger().Debug("split dataset",
		zap.Int("n_samples", d.Count()),
		zap.Int("n_splits", nSplits))
	return lo.Map(groups, func(group []int, _ int) *Dataset {
		return d.subset(group)
	}), nil
}

// Fold is a pair of train set and test set produced by cross-validation.
type Fold struct {
	Train   *Dataset
	Test    *Dataset
	Indices kfold.Fold
}

// CVSplit creates nFolds cross-validation folds. Every sample is in the test set of
// exactly one fold.
func (d *Dataset) CVSplit(nFolds int, opts ...kfold.Option) ([]Fold, error) {
	splits, err := kfold.NewKFold(nFolds, opts...).Split(d.Count())
	if err != nil {
		return nil, errors.Trace(err)
	}
	return lo.Map(splits, func(split kfold.Fold, _ int) Fold {
		return Fold{
			Train:   d.subset(split.Train),
			Test:    d.subset(split.Test),
			Indices: split,
		}
	}), nil
}
