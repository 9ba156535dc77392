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
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/prishajain1/accelerator-microbenchmarks/pkg/k8s"
	"github.com/prishajain1/accelerator-microbenchmarks/pkg/logging"
)

var (
	tailWorkloadName string
	tailNamespace    string
)

func init() {
	rootCmd.AddCommand(tailCmd)
	tailCmd.Flags().StringVarP(&tailWorkloadName, "workload", "w", "", "Name of the workload to tail. Required.")
	tailCmd.Flags().StringVar(&tailNamespace, "namespace", "default", "Kubernetes namespace the workload's pods run in.")
	_ = tailCmd.MarkFlagRequired("workload")
}

var tailCmd = &cobra.Command{
	Use:          "tail",
	Short:        "Streams logs of a workload's pods.",
	Run:          runTailCmd,
	SilenceUsage: true,
}

func runTailCmd(cmd *cobra.Command, args []string) {
	client, err := k8s.NewClient()
	if err != nil {
		logging.Fatal("Failed to create Kubernetes client: %v", err)
	}

	logging.Info("Tailing logs of workload '%s'...", tailWorkloadName)
	if err := k8s.TailLogs(context.Background(), client, tailNamespace, tailWorkloadName, os.Stdout); err != nil {
		logging.Fatal("Log tailing failed: %v", err)
	}
}
