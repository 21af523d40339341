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

package log

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newFlagSet(t *testing.T, args ...string) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddFlags(flagSet)
	assert.NoError(t, flagSet.Parse(args))
	return flagSet
}

func TestSetLogger(t *testing.T) {
	defer CloseLogger()
	temp := t.TempDir()
	path := filepath.Join(temp, "xycdata.log")
	// production mode writes json lines to file
	SetLogger(newFlagSet(t, "--log-path", path), false)
	Logger().Info("hello", zap.Int("n_folds", 3))
	_ = Logger().Sync()
	content, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Contains(t, string(content), `"n_folds":3`)
	assert.False(t, Logger().Core().Enabled(zap.DebugLevel))
	// debug mode
	SetLogger(newFlagSet(t, "--log-path", path), true)
	assert.True(t, Logger().Core().Enabled(zap.DebugLevel))
	// no log path
	SetLogger(newFlagSet(t), false)
	assert.NotNil(t, Logger())
}

func TestCloseLogger(t *testing.T) {
	CloseLogger()
	assert.False(t, Logger().Core().Enabled(zap.ErrorLevel))
	assert.True(t, Logger().Core().Enabled(zap.FatalLevel))
}
