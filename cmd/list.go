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
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/prishajain1/accelerator-microbenchmarks/pkg/config"
	"github.com/prishajain1/accelerator-microbenchmarks/pkg/logging"
	"github.com/prishajain1/accelerator-microbenchmarks/pkg/orchestrator/xpk"
)

var listClusterName string

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVar(&listClusterName, "cluster", "", "Name of the GKE cluster to list workloads on.")
}

var listCmd = &cobra.Command{
	Use:          "list",
	Short:        "Lists benchmark workloads on a cluster.",
	Run:          runListCmd,
	SilenceUsage: true,
}

func runListCmd(cmd *cobra.Command, args []string) {
	cfg, err := config.FromEnvironment()
	if err != nil {
		logging.Fatal("Failed to load environment configuration: %v", err)
	}
	if listClusterName != "" {
		cfg.ClusterName = listClusterName
	}
	if cfg.ClusterName == "" {
		logging.Fatal("A cluster name is required (--cluster or CLUSTER_NAME).")
	}

	orch, err := xpk.NewXPKOrchestrator()
	if err != nil {
		logging.Fatal("Failed to create xpk orchestrator: %v", err)
	}
	output, err := orch.List(cfg.ClusterName)
	if err != nil {
		logging.Fatal("Workload listing failed: %v", err)
	}

	color.Cyan("Workloads on cluster '%s':", cfg.ClusterName)
	fmt.Print(output)
}
