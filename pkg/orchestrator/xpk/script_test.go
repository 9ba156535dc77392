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

package xpk

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func baseRemoteCommandOptions() RemoteCommandOptions {
	return RemoteCommandOptions{
		GitHubUser:   "google",
		GitHubBranch: "main",
		ConfigPath:   "configs/benchmark_collectives.yaml",
		RunDir:       "gs://my-bucket/microbenchmarks-20240826-182059",
		TPUType:      "v5p-256",
	}
}

func renderOrFail(t *testing.T, opts RemoteCommandOptions) string {
	t.Helper()
	command, err := RenderRemoteCommand(opts)
	if err != nil {
		t.Fatalf("RenderRemoteCommand failed: %v", err)
	}
	return command
}

func TestRenderRemoteCommandBasic(t *testing.T) {
	command := renderOrFail(t, baseRemoteCommandOptions())

	want := "git clone -b main https://github.com/google/accelerator-microbenchmarks.git && " +
		"cd accelerator-microbenchmarks && " +
		"pip install -r requirements.txt && " +
		"python src/run_benchmark.py --config=configs/benchmark_collectives.yaml && " +
		"gsutil -m cp -r /tmp/microbenchmarks/outputs/metrics_report.jsonl " +
		"gs://my-bucket/microbenchmarks-20240826-182059/"
	if diff := cmp.Diff(want, command); diff != "" {
		t.Errorf("Rendered command mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderRemoteCommandWithReport(t *testing.T) {
	opts := baseRemoteCommandOptions()
	opts.GenerateReport = true
	command := renderOrFail(t, opts)

	wantFlags := "--generate_report " +
		"--gcs_jsonl_path=gs://my-bucket/microbenchmarks-20240826-182059/xlml/metrics_report.jsonl " +
		"--gcs_excel_path=gs://my-bucket/microbenchmarks-20240826-182059/benchmark_report.xlsx " +
		"--tpu_type=v5p-256"
	if !strings.Contains(command, wantFlags) {
		t.Errorf("Expected report flags %q in command:\n%s", wantFlags, command)
	}
}

func TestRenderRemoteCommandWithHLODump(t *testing.T) {
	opts := baseRemoteCommandOptions()
	opts.HLODump = true
	command := renderOrFail(t, opts)

	wantPrefix := "export XLA_FLAGS=--xla_dump_to=/tmp/microbenchmarks/hlo_graphs && git clone"
	if !strings.HasPrefix(command, wantPrefix) {
		t.Errorf("Expected command to start with %q, got:\n%s", wantPrefix, command)
	}
	wantCopy := "gsutil -m cp -r /tmp/microbenchmarks/outputs/metrics_report.jsonl /tmp/microbenchmarks/hlo_graphs"
	if !strings.Contains(command, wantCopy) {
		t.Errorf("Expected HLO dump dir in the upload step, got:\n%s", command)
	}
}

func TestRenderRemoteCommandCopyAllOutputs(t *testing.T) {
	opts := baseRemoteCommandOptions()
	opts.CopyAllOutputs = true
	command := renderOrFail(t, opts)

	wantCopy := "gsutil -m cp -r /tmp/microbenchmarks/outputs gs://"
	if !strings.Contains(command, wantCopy) {
		t.Errorf("Expected whole output dir in the upload step, got:\n%s", command)
	}
}

func TestRenderRemoteCommandWithoutRunDir(t *testing.T) {
	opts := baseRemoteCommandOptions()
	opts.RunDir = ""
	command := renderOrFail(t, opts)

	if strings.Contains(command, "gsutil") {
		t.Errorf("Expected no upload step without a run dir, got:\n%s", command)
	}
	if !strings.HasSuffix(command, "--config=configs/benchmark_collectives.yaml") {
		t.Errorf("Expected command to end with the runner invocation, got:\n%s", command)
	}
}

func TestRenderRemoteCommandValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*RemoteCommandOptions)
	}{
		{"missing user", func(o *RemoteCommandOptions) { o.GitHubUser = "" }},
		{"missing branch", func(o *RemoteCommandOptions) { o.GitHubBranch = "" }},
		{"missing config", func(o *RemoteCommandOptions) { o.ConfigPath = "" }},
		{"report without run dir", func(o *RemoteCommandOptions) {
			o.GenerateReport = true
			o.RunDir = ""
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			opts := baseRemoteCommandOptions()
			tc.mutate(&opts)
			if _, err := RenderRemoteCommand(opts); err == nil {
				t.Errorf("Expected an error for %s", tc.name)
			}
		})
	}
}
