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

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/juju/errors"
	"github.com/modelgym/xycdata/common/kfold"
	"github.com/modelgym/xycdata/common/log"
	"github.com/modelgym/xycdata/config"
	"github.com/modelgym/xycdata/dataset"
	"github.com/olekukonko/tablewriter"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newSplitCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "split <input>",
		Short: "Split a dataset into sequential parts",
		Args:  cobra.ExactArgs(1),
		RunE:  runSplit,
	}
	command.Flags().IntP("n-splits", "n", 2, "number of parts")
	return command
}

func newCVCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "cv <input>",
		Short: "Split a dataset into cross-validation folds",
		Args:  cobra.ExactArgs(1),
		RunE:  runCV,
	}
	command.Flags().IntP("n-folds", "k", 5, "number of folds")
	command.Flags().Bool("shuffle", false, "shuffle samples before splitting")
	command.Flags().Int64("seed", 0, "random state of the shuffle")
	command.Flags().Bool("label-in-categorical", false, "keep the label column in categorical columns")
	return command
}

// loadConfig loads the config file and applies command line flags on top of it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")
	conf, err := config.LoadConfig(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if flags.Changed("output") {
		conf.Output.Dir, _ = flags.GetString("output")
	}
	if flags.Changed("jobs") {
		conf.Output.Jobs, _ = flags.GetInt("jobs")
	}
	if flags.Changed("label-column") {
		conf.Dataset.LabelColumn, _ = flags.GetString("label-column")
	}
	if flags.Changed("categorical") {
		conf.Dataset.CategoricalColumns, _ = flags.GetStringSlice("categorical")
	}
	if flags.Changed("strict") {
		conf.Dataset.StrictColumns, _ = flags.GetBool("strict")
	}
	if flags.Lookup("n-splits") != nil && flags.Changed("n-splits") {
		conf.Split.NSplits, _ = flags.GetInt("n-splits")
	}
	if flags.Lookup("n-folds") != nil && flags.Changed("n-folds") {
		conf.CV.NFolds, _ = flags.GetInt("n-folds")
	}
	if flags.Lookup("shuffle") != nil && flags.Changed("shuffle") {
		conf.CV.Shuffle, _ = flags.GetBool("shuffle")
	}
	if flags.Lookup("seed") != nil && flags.Changed("seed") {
		seed, _ := flags.GetInt64("seed")
		conf.CV.RandomState = &seed
	}
	if flags.Lookup("label-in-categorical") != nil && flags.Changed("label-in-categorical") {
		conf.Dataset.LabelInCategorical, _ = flags.GetBool("label-in-categorical")
	}
	if err = conf.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return conf, nil
}

// readDataset reads either a file written by Dataset.Save (starting with a comment line)
// or a CSV table with a header row.
func readDataset(path string, conf *config.Config) (*dataset.Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Annotatef(err, "failed to open %s", path)
	}
	defer file.Close()
	reader := bufio.NewReader(file)
	head, err := reader.Peek(1)
	if err != nil && err != io.EOF {
		return nil, errors.Trace(err)
	}
	var d *dataset.Dataset
	if len(head) > 0 && head[0] == '#' {
		d, err = dataset.Unmarshal(reader, nil)
	} else {
		df := dataframe.ReadCSV(reader)
		if df.Err != nil {
			return nil, errors.Annotatef(df.Err, "failed to parse %s", path)
		}
		opts := []dataset.TableOption{dataset.WithLabelColumn(conf.Dataset.LabelColumn)}
		if conf.Dataset.LabelInCategorical {
			opts = append(opts, dataset.WithLabelInCategorical())
		}
		d, err = dataset.FromTable(dataset.FromDataFrame(df), opts...)
	}
	if err != nil {
		return nil, errors.Annotatef(err, "failed to read %s", path)
	}
	if len(conf.Dataset.CategoricalColumns) > 0 {
		d.SetCategoricalColumns(conf.Dataset.CategoricalColumns)
	}
	if conf.Dataset.StrictColumns {
		if err = d.ValidateColumns(); err != nil {
			return nil, errors.Trace(err)
		}
	}
	log.Logger().Info("load dataset",
		zap.String("path", path),
		zap.Int("n_samples", d.Count()),
		zap.Int("n_features", d.NumFeatures()),
		zap.Strings("categorical_columns", d.CategoricalColumns()))
	return d, nil
}

func newProgressBar(cmd *cobra.Command, total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionSetDescription(description),
		progressbar.OptionClearOnFinish())
}

func runSplit(cmd *cobra.Command, args []string) error {
	conf, err := loadConfig(cmd)
	if err != nil {
		return errors.Trace(err)
	}
	d, err := readDataset(args[0], conf)
	if err != nil {
		return errors.Trace(err)
	}
	parts, err := d.Split(conf.Split.NSplits)
	if err != nil {
		return errors.Trace(err)
	}
	if err = os.MkdirAll(conf.Output.Dir, os.ModePerm); err != nil {
		return errors.Trace(err)
	}
	paths := dataset.SplitPaths(conf.Output.Dir, len(parts))
	bar := newProgressBar(cmd, len(parts), "saving parts")
	if err = dataset.SaveAll(cmd.Context(), parts, paths, conf.Output.Jobs, func(string) {
		_ = bar.Add(1)
	}); err != nil {
		return errors.Trace(err)
	}
	_ = bar.Finish()
	log.Logger().Info("split dataset", zap.Int("n_splits", len(parts)), zap.String("output", conf.Output.Dir))

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.Header("Part", "Samples", "File")
	for i, part := range parts {
		if err = table.Append([]string{strconv.Itoa(i), strconv.Itoa(part.Count()), paths[i]}); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(table.Render())
}

func runCV(cmd *cobra.Command, args []string) error {
	conf, err := loadConfig(cmd)
	if err != nil {
		return errors.Trace(err)
	}
	d, err := readDataset(args[0], conf)
	if err != nil {
		return errors.Trace(err)
	}
	var opts []kfold.Option
	if conf.CV.Shuffle {
		opts = append(opts, kfold.WithShuffle())
	}
	if conf.CV.RandomState != nil {
		opts = append(opts, kfold.WithRandomState(*conf.CV.RandomState))
	}
	folds, err := d.CVSplit(conf.CV.NFolds, opts...)
	if err != nil {
		return errors.Trace(err)
	}
	if err = os.MkdirAll(conf.Output.Dir, os.ModePerm); err != nil {
		return errors.Trace(err)
	}
	bar := newProgressBar(cmd, 2*len(folds), "saving folds")
	if err = dataset.SaveFolds(cmd.Context(), folds, conf.Output.Dir, conf.Output.Jobs, func(string) {
		_ = bar.Add(1)
	}); err != nil {
		return errors.Trace(err)
	}
	_ = bar.Finish()
	log.Logger().Info("cross-validation split",
		zap.Int("n_folds", len(folds)),
		zap.Bool("shuffle", conf.CV.Shuffle),
		zap.String("output", conf.Output.Dir))

	trainPaths, testPaths := dataset.FoldPaths(conf.Output.Dir, len(folds))
	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.Header("Fold", "Train", "Test", "Test Samples")
	for i, fold := range folds {
		if err = table.Append([]string{
			strconv.Itoa(i),
			fmt.Sprintf("%d (%s)", fold.Train.Count(), trainPaths[i]),
			fmt.Sprintf("%d (%s)", fold.Test.Count(), testPaths[i]),
			summarizeIndices(fold.Indices.Test),
		}); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(table.Render())
}

// summarizeIndices prints at most 8 indices.
func summarizeIndices(indices []int) string {
	const limit = 8
	var builder strings.Builder
	for i, index := range indices {
		if i == limit {
			builder.WriteString(",...")
			break
		}
		if i > 0 {
			builder.WriteString(",")
		}
		builder.WriteString(strconv.Itoa(index))
	}
	return builder.String()
}
