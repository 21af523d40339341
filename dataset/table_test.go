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
	"strings"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/juju/errors"
	"github.com/modelgym/xycdata/common/kfold"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func newTestDataFrame(n int) dataframe.DataFrame {
	a := make([]float64, n)
	y := make([]float64, n)
	b := make([]float64, n)
	for i := 0; i < n; i++ {
		a[i] = float64(i)
		y[i] = float64(i % 2)
		b[i] = float64(100 + i)
	}
	return dataframe.New(
		series.New(a, series.Float, "a"),
		series.New(y, series.Float, "y"),
		series.New(b, series.Float, "b"),
	)
}

func TestFromDataFrame(t *testing.T) {
	table := FromDataFrame(newTestDataFrame(3))
	assert.Equal(t, []string{"a", "y", "b"}, table.Names())
	rows, cols := table.Dims()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 3, cols)
	values, err := table.Column("b")
	assert.NoError(t, err)
	assert.Equal(t, []float64{100, 101, 102}, values)
	_, err = table.Column("c")
	assert.Error(t, err)
}

func TestFromTable(t *testing.T) {
	d, err := FromTable(FromDataFrame(newTestDataFrame(4)))
	assert.NoError(t, err)
	assert.Equal(t, 4, d.Count())
	assert.Equal(t, 2, d.NumFeatures())
	assert.Equal(t, []float64{0, 100}, mat.Row(nil, 0, d.Features()))
	assert.Equal(t, []float64{3, 103}, mat.Row(nil, 3, d.Features()))
	assert.Equal(t, []float64{0, 1, 0, 1}, d.Labels().RawVector().Data)
	assert.Equal(t, []string{"a", "b"}, d.ColumnNames())
	// the label column is not a categorical column
	assert.Equal(t, []string{"a", "b"}, d.CategoricalColumns())
}

func TestFromTable_LabelInCategorical(t *testing.T) {
	d, err := FromTable(FromDataFrame(newTestDataFrame(4)), WithLabelInCategorical())
	assert.NoError(t, err)
	assert.Equal(t, []string{"a", "y", "b"}, d.CategoricalColumns())
	assert.Equal(t, 2, d.NumFeatures())
}

func TestFromTable_LabelColumn(t *testing.T) {
	df := dataframe.LoadRecords([][]string{
		{"label", "x"},
		{"1", "0.5"},
		{"0", "1.5"},
	})
	require.NoError(t, df.Err)
	d, err := FromTable(FromDataFrame(df), WithLabelColumn("label"))
	assert.NoError(t, err)
	assert.Equal(t, []float64{1, 0}, d.Labels().RawVector().Data)
	assert.Equal(t, []float64{0.5, 1.5}, mat.Col(nil, 0, d.Features()))
	assert.Equal(t, []string{"x"}, d.CategoricalColumns())
}

func TestFromTable_Invalid(t *testing.T) {
	// no label column
	df := dataframe.ReadCSV(strings.NewReader("a,b\n1,2\n"))
	_, err := FromTable(FromDataFrame(df))
	assert.True(t, errors.Is(err, errors.NotValid))
	// no feature column
	df = dataframe.ReadCSV(strings.NewReader("y\n1\n"))
	_, err = FromTable(FromDataFrame(df))
	assert.True(t, errors.Is(err, errors.NotValid))
}

func TestCVSplitTable(t *testing.T) {
	folds, err := CVSplitTable(FromDataFrame(newTestDataFrame(9)), 3, kfold.WithShuffle(), kfold.WithRandomState(42))
	assert.NoError(t, err)
	require.Len(t, folds, 3)
	for _, fold := range folds {
		assert.Equal(t, 6, fold.Train.Count())
		assert.Equal(t, 3, fold.Test.Count())
		assert.Equal(t, []string{"a", "b"}, fold.Train.CategoricalColumns())
		assert.Equal(t, []string{"a", "b"}, fold.Test.CategoricalColumns())
		for i, id := range sampleIds(fold.Test) {
			assert.Equal(t, float64(100+id), fold.Test.Features().At(i, 1))
			assert.Equal(t, float64(id%2), fold.Test.Labels().AtVec(i))
		}
	}
	// same folds as the dataset method
	d, err := FromTable(FromDataFrame(newTestDataFrame(9)))
	require.NoError(t, err)
	expected, err := d.CVSplit(3, kfold.WithShuffle(), kfold.WithRandomState(42))
	require.NoError(t, err)
	for i := range folds {
		assert.Equal(t, expected[i].Indices, folds[i].Indices)
	}
	// invalid folds
	_, err = CVSplitTable(FromDataFrame(newTestDataFrame(3)), 4)
	assert.True(t, errors.Is(err, errors.NotValid))
}
