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
	"github.com/spf13/cobra"

	"github.com/prishajain1/accelerator-microbenchmarks/pkg/config"
	"github.com/prishajain1/accelerator-microbenchmarks/pkg/logging"
	"github.com/prishajain1/accelerator-microbenchmarks/pkg/orchestrator/xpk"
)

var (
	deleteWorkloadName string
	deleteClusterName  string
)

func init() {
	rootCmd.AddCommand(deleteCmd)
	deleteCmd.Flags().StringVarP(&deleteWorkloadName, "workload", "w", "", "Name of the workload to delete. Required.")
	deleteCmd.Flags().StringVar(&deleteClusterName, "cluster", "", "Name of the GKE cluster the workload runs on.")
	_ = deleteCmd.MarkFlagRequired("workload")
}

var deleteCmd = &cobra.Command{
	Use:          "delete",
	Short:        "Deletes a benchmark workload.",
	Run:          runDeleteCmd,
	SilenceUsage: true,
}

func runDeleteCmd(cmd *cobra.Command, args []string) {
	cfg, err := config.FromEnvironment()
	if err != nil {
		logging.Fatal("Failed to load environment configuration: %v", err)
	}
	if deleteClusterName != "" {
		cfg.ClusterName = deleteClusterName
	}
	if cfg.ClusterName == "" {
		logging.Fatal("A cluster name is required (--cluster or CLUSTER_NAME).")
	}

	orch, err := xpk.NewXPKOrchestrator()
	if err != nil {
		logging.Fatal("Failed to create xpk orchestrator: %v", err)
	}
	if err := orch.Delete(deleteWorkloadName, cfg.ClusterName); err != nil {
		logging.Fatal("Workload deletion failed: %v", err)
	}
}
