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
	"fmt"

	"github.com/modelgym/xycdata/cmd/version"
	"github.com/modelgym/xycdata/common/log"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRootCommand() *cobra.Command {
	rootCommand := &cobra.Command{
		Use:   "xycdata",
		Short: "Split tabular datasets into parts and cross-validation folds.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			debug, _ := cmd.Flags().GetBool("debug")
			log.SetLogger(cmd.Flags(), debug)
		},
		SilenceUsage: true,
	}
	log.AddFlags(rootCommand.PersistentFlags())
	rootCommand.PersistentFlags().Bool("debug", false, "use debug log mode")
	rootCommand.PersistentFlags().StringP("config", "c", "", "configuration file path")
	rootCommand.PersistentFlags().StringP("output", "o", "", "output directory")
	rootCommand.PersistentFlags().IntP("jobs", "j", 1, "number of goroutines writing files")
	rootCommand.PersistentFlags().String("label-column", "y", "name of the label column")
	rootCommand.PersistentFlags().StringSlice("categorical", nil, "categorical feature columns")
	rootCommand.PersistentFlags().Bool("strict", false, "reject categorical columns that are not feature columns")
	rootCommand.AddCommand(newSplitCommand(), newCVCommand(), newVersionCommand())
	return rootCommand
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the version of xycdata",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), version.BuildInfo())
		},
	}
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		log.Logger().Fatal("failed to execute", zap.Error(err))
	}
}
