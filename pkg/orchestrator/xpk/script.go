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
	"bytes"
	"fmt"
	"text/template"
)

// Paths used by the remote benchmark runner. The runner writes its JSONL
// metrics and optional HLO dumps under /tmp/microbenchmarks; the upload step
// copies them into the run's GCS directory.
const (
	RemoteOutputDir   = "/tmp/microbenchmarks/outputs"
	RemoteMetricsFile = RemoteOutputDir + "/metrics_report.jsonl"
	RemoteHLODumpDir  = "/tmp/microbenchmarks/hlo_graphs"
)

// RemoteCommandTemplate is the Go template for the command chain executed on
// the accelerator slice. Steps are joined with && so the chain aborts on the
// first failing step.
const RemoteCommandTemplate = `{{- if .HLODump -}}
export XLA_FLAGS=--xla_dump_to={{.HLODumpDir}} && {{ end -}}
git clone -b {{.Branch}} https://github.com/{{.User}}/accelerator-microbenchmarks.git && ` +
	`cd accelerator-microbenchmarks && ` +
	`pip install -r requirements.txt && ` +
	`python src/run_benchmark.py --config={{.ConfigPath}}
{{- if .GenerateReport}} --generate_report --gcs_jsonl_path={{.RunDir}}/xlml/metrics_report.jsonl --gcs_excel_path={{.RunDir}}/benchmark_report.xlsx --tpu_type={{.TPUType}}{{end}}
{{- if .RunDir}} && gsutil -m cp -r {{.CopySource}} {{.RunDir}}/{{end}}`

// RemoteCommandOptions holds parameters for remote command rendering.
type RemoteCommandOptions struct {
	GitHubUser     string
	GitHubBranch   string
	ConfigPath     string
	RunDir         string // gs://bucket/run-id, empty to skip the upload step
	TPUType        string
	GenerateReport bool

	// HLODump requests XLA HLO graph dumps and includes them in the upload.
	HLODump bool

	// CopyAllOutputs uploads the whole output directory instead of only the
	// metrics file.
	CopyAllOutputs bool
}

// RenderRemoteCommand generates the command string handed to the workload
// manager for remote execution.
func RenderRemoteCommand(opts RemoteCommandOptions) (string, error) {
	if opts.GitHubUser == "" || opts.GitHubBranch == "" {
		return "", fmt.Errorf("github user and branch are required to render the remote command")
	}
	if opts.ConfigPath == "" {
		return "", fmt.Errorf("benchmark config path is required to render the remote command")
	}
	if opts.GenerateReport && opts.RunDir == "" {
		return "", fmt.Errorf("report generation requires an output run directory")
	}

	copySource := RemoteMetricsFile
	if opts.CopyAllOutputs {
		copySource = RemoteOutputDir
	}
	if opts.HLODump {
		copySource += " " + RemoteHLODumpDir
	}

	tmpl, err := template.New("remoteCommand").Parse(RemoteCommandTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse remote command template: %w", err)
	}

	data := struct {
		User           string
		Branch         string
		ConfigPath     string
		RunDir         string
		TPUType        string
		GenerateReport bool
		HLODump        bool
		HLODumpDir     string
		CopySource     string
	}{
		User:           opts.GitHubUser,
		Branch:         opts.GitHubBranch,
		ConfigPath:     opts.ConfigPath,
		RunDir:         opts.RunDir,
		TPUType:        opts.TPUType,
		GenerateReport: opts.GenerateReport,
		HLODump:        opts.HLODump,
		HLODumpDir:     RemoteHLODumpDir,
		CopySource:     copySource,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute remote command template: %w", err)
	}
	return buf.String(), nil
}
