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

package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/juju/errors"
	"github.com/spf13/viper"
)

// Config is the configuration of xycdata commands.
type Config struct {
	Dataset DatasetConfig `mapstructure:"dataset"`
	Split   SplitConfig   `mapstructure:"split"`
	CV      CVConfig      `mapstructure:"cv"`
	Output  OutputConfig  `mapstructure:"output"`
}

// DatasetConfig describes how input tables become datasets.
type DatasetConfig struct {
	LabelColumn        string   `mapstructure:"label_column" validate:"required"`
	CategoricalColumns []string `mapstructure:"categorical_columns"`
	LabelInCategorical bool     `mapstructure:"label_in_categorical"`
	StrictColumns      bool     `mapstructure:"strict_columns"`
}

type SplitConfig struct {
	NSplits int `mapstructure:"n_splits" validate:"gte=1"`
}

type CVConfig struct {
	NFolds      int    `mapstructure:"n_folds" validate:"gte=2"`
	Shuffle     bool   `mapstructure:"shuffle"`
	RandomState *int64 `mapstructure:"random_state"`
}

type OutputConfig struct {
	Dir  string `mapstructure:"dir" validate:"required"`
	Jobs int    `mapstructure:"jobs" validate:"gte=1"`
}

func GetDefaultConfig() *Config {
	return &Config{
		Dataset: DatasetConfig{
			LabelColumn: "y",
		},
		Split: SplitConfig{
			NSplits: 2,
		},
		CV: CVConfig{
			NFolds: 5,
		},
		Output: OutputConfig{
			Dir:  ".",
			Jobs: 1,
		},
	}
}

func setDefault(v *viper.Viper) {
	defaultConfig := GetDefaultConfig()
	// [dataset]
	v.SetDefault("dataset.label_column", defaultConfig.Dataset.LabelColumn)
	v.SetDefault("dataset.label_in_categorical", defaultConfig.Dataset.LabelInCategorical)
	v.SetDefault("dataset.strict_columns", defaultConfig.Dataset.StrictColumns)
	// [split]
	v.SetDefault("split.n_splits", defaultConfig.Split.NSplits)
	// [cv]
	v.SetDefault("cv.n_folds", defaultConfig.CV.NFolds)
	v.SetDefault("cv.shuffle", defaultConfig.CV.Shuffle)
	// [output]
	v.SetDefault("output.dir", defaultConfig.Output.Dir)
	v.SetDefault("output.jobs", defaultConfig.Output.Jobs)
}

func (config *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return errors.NotValidf("config (%v)", err)
	}
	if config.CV.RandomState != nil && !config.CV.Shuffle {
		return errors.NotValidf("cv.random_state without cv.shuffle")
	}
	return nil
}

// LoadConfig loads configuration from a TOML or YAML file. An empty path loads defaults.
// Environment variables such as XYCDATA_CV_N_FOLDS override the file.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefault(v)
	v.SetEnvPrefix("xycdata")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("cv.random_state"); err != nil {
		return nil, errors.Trace(err)
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Annotatef(err, "failed to read config %s", path)
		}
	}
	var conf Config
	if err := v.Unmarshal(&conf, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, errors.Trace(err)
	}
	if err := conf.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &conf, nil
}
