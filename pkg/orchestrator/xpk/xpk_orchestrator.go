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

// Package xpk submits benchmark workloads to a GKE cluster through the xpk
// workload manager CLI, after selecting the cluster with gcloud.
package xpk

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/prishajain1/accelerator-microbenchmarks/pkg/logging"
	"github.com/prishajain1/accelerator-microbenchmarks/pkg/orchestrator"
	"github.com/prishajain1/accelerator-microbenchmarks/pkg/shell"
)

// execCommand is swapped out in tests.
var execCommand = shell.ExecuteCommand

// XPKOrchestrator implements the Orchestrator interface on top of the xpk
// and gcloud CLIs.
type XPKOrchestrator struct{}

// NewXPKOrchestrator creates and returns a new XPKOrchestrator instance.
func NewXPKOrchestrator() (*XPKOrchestrator, error) {
	return &XPKOrchestrator{}, nil
}

// Authenticate points gcloud at the target project, region and zone and
// fetches GKE cluster credentials so that xpk and kubectl address the right
// cluster.
func (x *XPKOrchestrator) Authenticate(projectID, region, zone, clusterName string) error {
	logging.Info("Configuring gcloud for project '%s' in zone '%s'...", projectID, zone)

	if res := execCommand("gcloud", "config", "set", "project", projectID); res.ExitCode != 0 {
		return fmt.Errorf("failed to set gcloud project: %s", res.Stderr)
	}
	if res := execCommand("gcloud", "config", "set", "compute/region", region); res.ExitCode != 0 {
		return fmt.Errorf("failed to set gcloud compute region: %s", res.Stderr)
	}
	if res := execCommand("gcloud", "config", "set", "compute/zone", zone); res.ExitCode != 0 {
		return fmt.Errorf("failed to set gcloud compute zone: %s", res.Stderr)
	}

	logging.Info("Fetching credentials for GKE cluster '%s'...", clusterName)
	res := execCommand("gcloud", "container", "clusters", "get-credentials", clusterName,
		"--zone", zone, "--project", projectID)
	if res.ExitCode != 0 {
		return fmt.Errorf("failed to get GKE cluster credentials: %s\n%s", res.Stderr, res.Stdout)
	}
	logging.Info("Cluster credentials configured successfully.")
	return nil
}

// Create submits the workload with `xpk workload create`. The exit code of
// xpk is propagated; no retry is attempted.
func (x *XPKOrchestrator) Create(def orchestrator.WorkloadDefinition) error {
	args := createArgs(def)
	logging.Info("Submitting workload '%s' to cluster '%s'...", def.WorkloadName, def.ClusterName)
	logging.Debug("Remote command: %s", def.Command)

	res := execCommand("xpk", args...)
	if res.ExitCode != 0 {
		return fmt.Errorf("xpk workload create failed with exit code %d: %s\n%s",
			res.ExitCode, res.Stderr, res.Stdout)
	}
	logging.Info("Workload '%s' submitted.", def.WorkloadName)
	return nil
}

// Delete removes a workload with `xpk workload delete`.
func (x *XPKOrchestrator) Delete(workloadName, clusterName string) error {
	res := execCommand("xpk", "workload", "delete",
		"--workload", workloadName, "--cluster", clusterName)
	if res.ExitCode != 0 {
		return fmt.Errorf("xpk workload delete failed with exit code %d: %s\n%s",
			res.ExitCode, res.Stderr, res.Stdout)
	}
	logging.Info("Workload '%s' deleted.", workloadName)
	return nil
}

// List returns xpk's workload listing for the cluster.
func (x *XPKOrchestrator) List(clusterName string) (string, error) {
	res := execCommand("xpk", "workload", "list", "--cluster", clusterName)
	if res.ExitCode != 0 {
		return "", fmt.Errorf("xpk workload list failed with exit code %d: %s\n%s",
			res.ExitCode, res.Stderr, res.Stdout)
	}
	return res.Stdout, nil
}

// DryRun renders the full xpk invocation as a copy-pasteable shell line.
func (x *XPKOrchestrator) DryRun(def orchestrator.WorkloadDefinition) string {
	return "xpk " + shellquote.Join(createArgs(def)...)
}

// createArgs builds the argv for `xpk workload create`. The remote command
// is passed as a single argument; xpk wraps it in the container entrypoint.
func createArgs(def orchestrator.WorkloadDefinition) []string {
	args := []string{
		"workload", "create",
		"--cluster", def.ClusterName,
		"--workload", def.WorkloadName,
		"--command", def.Command,
		"--device-type", def.DeviceType,
		"--num-slices", strconv.Itoa(def.NumSlices),
		"--docker-image", def.DockerImage,
	}
	if def.ClusterLocation != "" {
		args = append(args, "--zone", def.ClusterLocation)
	}
	if def.ProjectID != "" {
		args = append(args, "--project", def.ProjectID)
	}

	// Deterministic env ordering keeps dry-run output and tests stable.
	keys := make([]string, 0, len(def.Env))
	for k := range def.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "--env", fmt.Sprintf("%s=%s", k, def.Env[k]))
	}
	return args
}

// WorkloadName derives a valid workload name from the run identifier. xpk
// requires RFC 1123 labels, max 40 characters.
func WorkloadName(runID string) string {
	name := strings.ToLower(runID)
	name = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		return '-'
	}, name)
	name = strings.Trim(name, "-")
	if len(name) > 40 {
		name = strings.Trim(name[:40], "-")
	}
	if name == "" {
		name = "microbenchmarks-" + shell.RandomString(8)
	}
	return name
}
