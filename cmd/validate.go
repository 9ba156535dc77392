// Copyright 2026 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/prishajain1/accelerator-microbenchmarks/pkg/benchconfig"
	"github.com/prishajain1/accelerator-microbenchmarks/pkg/logging"
)

func init() {
	rootCmd.AddCommand(validateCmd)
}

var validateCmd = &cobra.Command{
	Use:   "validate <benchmark-config.yaml>",
	Short: "Validates a benchmark YAML config locally.",
	Long: `The 'validate' command parses a benchmark configuration the way the
remote runner does: it checks benchmark names against the known benchmark
table, expands sweep parameter ranges, and resolves SAME_AS references, so
a malformed config fails before an accelerator slice is allocated.`,
	Args:         cobra.ExactArgs(1),
	Run:          runValidateCmd,
	SilenceUsage: true,
}

func runValidateCmd(cmd *cobra.Command, args []string) {
	configPath := args[0]

	doc, err := benchconfig.Load(afero.NewOsFs(), configPath)
	if err != nil {
		logging.Fatal("Failed to load benchmark config: %v", err)
	}
	if err := doc.Validate(); err != nil {
		logging.Fatal("Benchmark config is invalid: %v", err)
	}

	totalSets := 0
	for i := range doc.Benchmarks {
		b := &doc.Benchmarks[i]
		sets, err := b.ParameterSets()
		if err != nil {
			logging.Fatal("Benchmark config is invalid: %v", err)
		}
		totalSets += len(sets)
		logging.Info("Benchmark '%s' (%s suite): %d parameter set(s).", b.Name, b.Suite(), len(sets))
	}

	color.Green("Config %s is valid: %d benchmark(s), %d parameter set(s) in total.",
		configPath, len(doc.Benchmarks), totalSets)
}
