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
	"github.com/go-gota/gota/dataframe"
	"github.com/juju/errors"
	"github.com/modelgym/xycdata/common/kfold"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/mat"
)

// Table is a combined table of features and labels with named columns.
type Table interface {
	// Names returns column names in order.
	Names() []string
	// Dims returns the number of rows and columns.
	Dims() (int, int)
	// Column returns values of a column by name.
	Column(name string) ([]float64, error)
}

type dataFrameTable struct {
	df dataframe.DataFrame
}

// FromDataFrame adapts a gota data frame to Table.
func FromDataFrame(df dataframe.DataFrame) Table {
	return dataFrameTable{df: df}
}

func (t dataFrameTable) Names() []string {
	return t.df.Names()
}

func (t dataFrameTable) Dims() (int, int) {
	return t.df.Dims()
}

func (t dataFrameTable) Column(name string) ([]float64, error) {
	if t.df.Err != nil {
		return nil, errors.Trace(t.df.Err)
	}
	s := t.df.Col(name)
	if s.Err != nil {
		return nil, errors.Trace(s.Err)
	}
	return s.Float(), nil
}

type tableOptions struct {
	labelColumn        string
	labelInCategorical bool
}

type TableOption func(*tableOptions)

// WithLabelColumn sets the name of the label column. It is "y" by default.
func WithLabelColumn(name string) TableOption {
	return func(o *tableOptions) {
		o.labelColumn = name
	}
}

// WithLabelInCategorical keeps the label column in the categorical columns of the
// derived dataset. Every other column of the table is always categorical.
func WithLabelInCategorical() TableOption {
	return func(o *tableOptions) {
		o.labelInCategorical = true
	}
}

// FromTable derives a dataset from a combined table. Features are all columns except
// the label column, in table order. All feature column names become categorical
// columns.
func FromTable(table Table, opts ...TableOption) (*Dataset, error) {
	o := tableOptions{labelColumn: LabelColumn}
	for _, opt := range opts {
		opt(&o)
	}
	names := table.Names()
	if !lo.Contains(names, o.labelColumn) {
		return nil, errors.NotValidf("table without label column %s", o.labelColumn)
	}
	featureNames := lo.Without(names, o.labelColumn)
	if len(featureNames) == 0 {
		return nil, errors.NotValidf("table without feature columns")
	}
	rows, _ := table.Dims()
	if rows == 0 {
		return nil, errors.NotValidf("empty table")
	}
	features := mat.NewDense(rows, len(featureNames), nil)
	for j, name := range featureNames {
		values, err := table.Column(name)
		if err != nil {
			return nil, errors.Annotatef(err, "failed to read column %s", name)
		}
		if len(values) != rows {
			return nil, errors.NotValidf("column %s has %d rows, expect %d", name, len(values), rows)
		}
		features.SetCol(j, values)
	}
	labels, err := table.Column(o.labelColumn)
	if err != nil {
		return nil, errors.Annotatef(err, "failed to read column %s", o.labelColumn)
	}
	if len(labels) != rows {
		return nil, errors.NotValidf("column %s has %d rows, expect %d", o.labelColumn, len(labels), rows)
	}
	categoricalColumns := featureNames
	if o.labelInCategorical {
		categoricalColumns = names
	}
	return New(features, mat.NewVecDense(len(labels), labels), categoricalColumns, WithColumnNames(featureNames...))
}

// CVSplitTable creates cross-validation folds of a combined table whose label column is
// "y". Use FromTable and Dataset.CVSplit for other layouts.
func CVSplitTable(table Table, nFolds int, opts ...kfold.Option) ([]Fold, error) {
	d, err := FromTable(table)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return d.CVSplit(nFolds, opts...)
}
