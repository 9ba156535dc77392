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

	"github.com/spf13/cobra"

	"github.com/prishajain1/accelerator-microbenchmarks/pkg/gcs"
	"github.com/prishajain1/accelerator-microbenchmarks/pkg/logging"
	"github.com/prishajain1/accelerator-microbenchmarks/pkg/report"
)

var (
	reportRunDir  string
	reportTPUType string
)

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVar(&reportRunDir, "run-dir", "", "GCS directory of the run (e.g. gs://bucket/microbenchmarks-20240826-182059). Required.")
	reportCmd.Flags().StringVar(&reportTPUType, "tpu-type", "", "TPU type the run used (e.g. v5p-256). Required.")
	_ = reportCmd.MarkFlagRequired("run-dir")
	_ = reportCmd.MarkFlagRequired("tpu-type")
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generates the combined Excel report for a finished run.",
	Long: `The 'report' command scans <run-dir>/xlml/ for the JSONL metrics the
benchmark run uploaded, aggregates them per benchmark, and uploads an Excel
workbook to <run-dir>/benchmark_report.xlsx.`,
	Run:          runReportCmd,
	SilenceUsage: true,
}

func runReportCmd(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	client, err := gcs.NewClient(ctx)
	if err != nil {
		logging.Fatal("Failed to create GCS client: %v", err)
	}
	defer client.Close()

	if err := report.Generate(ctx, client, reportRunDir, reportTPUType); err != nil {
		logging.Fatal("Report generation failed: %v", err)
	}
}
