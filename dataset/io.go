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
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/juju/errors"
	"github.com/modelgym/xycdata/common/log"
	"github.com/modelgym/xycdata/common/parallel"
	"github.com/modelgym/xycdata/common/util"
	"github.com/samber/lo"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

const (
	// LabelColumn is the name of the label column in saved files and tables.
	LabelColumn = "y"

	delimiter = ","
	comment   = "#"
	precision = 5
)

// Header returns the header line of a saved dataset with nFeatures features.
//
//	# 0,1,...,n-1,y
func Header(nFeatures int) string {
	columns := lo.Map(lo.Range(nFeatures), func(i, _ int) string {
		return strconv.Itoa(i)
	})
	return comment + " " + strings.Join(append(columns, LabelColumn), delimiter)
}

// Marshal writes the dataset as comma delimited text, labels as the last column.
func (d *Dataset) Marshal(w io.Writer) error {
	if d.labels == nil {
		return errors.Annotate(ErrInvalidState, "dataset has no labels")
	}
	writer := bufio.NewWriter(w)
	if _, err := writer.WriteString(Header(d.NumFeatures()) + "\n"); err != nil {
		return errors.Trace(err)
	}
	fields := make([]string, d.NumFeatures()+1)
	for i := 0; i < d.Count(); i++ {
		for j := 0; j < d.NumFeatures(); j++ {
			fields[j] = util.FormatFloat(d.features.At(i, j), precision)
		}
		fields[d.NumFeatures()] = util.FormatFloat(d.labels.AtVec(i), precision)
		if _, err := writer.WriteString(strings.Join(fields, delimiter) + "\n"); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(writer.Flush())
}

// Save writes the dataset to a file. The file is removed if writing fails.
func (d *Dataset) Save(path string) error {
	if d.labels == nil {
		return errors.Annotatef(ErrInvalidState, "save dataset to %s without labels", path)
	}
	file, err := os.Create(path)
	if err != nil {
		return errors.Annotatef(err, "failed to create %s", path)
	}
	if err = d.Marshal(file); err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return errors.Annotatef(err, "failed to write %s", path)
	}
	if err = file.Close(); err != nil {
		_ = os.Remove(path)
		return errors.Annotatef(err, "failed to close %s", path)
	}
	log.Logger().Debug("save dataset",
		zap.String("path", path),
		zap.Int("n_samples", d.Count()),
		zap.Int("n_features", d.NumFeatures()))
	return nil
}

// Unmarshal reads a dataset written by Marshal. The last column is the label.
func Unmarshal(r io.Reader, categoricalColumns []string, opts ...Option) (*Dataset, error) {
	var (
		features [][]float64
		labels   []float64
		err      error
	)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	if readErr := util.ReadLines(scanner, delimiter, comment, func(lineNumber int, fields []string) bool {
		if len(fields) < 2 {
			err = errors.NotValidf("line %d has %d columns, at least 2 required", lineNumber+1, len(fields))
			return false
		}
		if len(features) > 0 && len(fields) != len(features[0])+1 {
			err = errors.NotValidf("line %d has %d columns, expect %d", lineNumber+1, len(fields), len(features[0])+1)
			return false
		}
		values := make([]float64, len(fields))
		for i, field := range fields {
			if values[i], err = util.ParseFloat[float64](field); err != nil {
				err = errors.NotValidf("line %d column %d: %v", lineNumber+1, i, err)
				return false
			}
		}
		features = append(features, values[:len(values)-1])
		labels = append(labels, values[len(values)-1])
		return true
	}); readErr != nil {
		return nil, errors.Trace(readErr)
	}
	if err != nil {
		return nil, errors.Trace(err)
	}
	if len(features) == 0 {
		return nil, errors.NotValidf("empty dataset")
	}
	return NewFromRows(features, labels, categoricalColumns, opts...)
}

// Load reads a dataset saved by Save.
func Load(path string, categoricalColumns []string, opts ...Option) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Annotatef(err, "failed to open %s", path)
	}
	defer file.Close()
	d, err := Unmarshal(file, categoricalColumns, opts...)
	if err != nil {
		return nil, errors.Annotatef(err, "failed to read %s", path)
	}
	return d, nil
}

// SaveAll saves datasets to paths using nJobs goroutines. onSaved, if not nil, is called
// after each file is written and may be called concurrently.
func SaveAll(ctx context.Context, datasets []*Dataset, paths []string, nJobs int, onSaved func(path string)) error {
	if len(datasets) != len(paths) {
		return errors.NotValidf("%d paths for %d datasets", len(paths), len(datasets))
	}
	for i, d := range datasets {
		if !d.HasLabels() {
			return errors.Annotatef(ErrInvalidState, "save dataset to %s without labels", paths[i])
		}
	}
	var saved atomic.Int32
	err := parallel.Parallel(ctx, len(datasets), nJobs, func(_, jobId int) error {
		if err := datasets[jobId].Save(paths[jobId]); err != nil {
			return errors.Trace(err)
		}
		saved.Inc()
		if onSaved != nil {
			onSaved(paths[jobId])
		}
		return nil
	})
	log.Logger().Debug("save datasets",
		zap.Int("n_datasets", len(datasets)),
		zap.Int32("n_saved", saved.Load()))
	return errors.Trace(err)
}

// SplitPaths returns the file names of sequential split parts under dir.
func SplitPaths(dir string, n int) []string {
	return lo.Map(lo.Range(n), func(i, _ int) string {
		return filepath.Join(dir, fmt.Sprintf("part_%d.csv", i))
	})
}

// FoldPaths returns the file names of train sets and test sets of folds under dir.
func FoldPaths(dir string, n int) (trainPaths, testPaths []string) {
	for i := 0; i < n; i++ {
		trainPaths = append(trainPaths, filepath.Join(dir, fmt.Sprintf("fold_%d_train.csv", i)))
		testPaths = append(testPaths, filepath.Join(dir, fmt.Sprintf("fold_%d_test.csv", i)))
	}
	return
}

// SaveFolds saves train sets and test sets of folds under dir.
func SaveFolds(ctx context.Context, folds []Fold, dir string, nJobs int, onSaved func(path string)) error {
	trainPaths, testPaths := FoldPaths(dir, len(folds))
	datasets := make([]*Dataset, 0, 2*len(folds))
	paths := make([]string, 0, 2*len(folds))
	for i, fold := range folds {
		datasets = append(datasets, fold.Train, fold.Test)
		paths = append(paths, trainPaths[i], testPaths[i])
	}
	return SaveAll(ctx, datasets, paths, nJobs, onSaved)
}
