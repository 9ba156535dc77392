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
	"os"

	"github.com/spf13/cobra"

	"github.com/prishajain1/accelerator-microbenchmarks/pkg/logging"
)

var debugLogging bool

var rootCmd = &cobra.Command{
	Use:   "mblaunch",
	Short: "Launches accelerator microbenchmark workloads on GKE clusters.",
	Long: `mblaunch submits the accelerator-microbenchmarks suite to a GKE cluster
through the xpk workload manager. It selects the cluster with gcloud,
renders the remote benchmark command, submits it as an xpk workload, and
can wait for completion, stream logs, fetch artifacts from Cloud Storage,
and generate the combined Excel report.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.SetDebug(debugLogging)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugLogging, "debug", false, "Enable debug logging.")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
