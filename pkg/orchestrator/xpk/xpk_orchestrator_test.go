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

	"github.com/prishajain1/accelerator-microbenchmarks/pkg/orchestrator"
	"github.com/prishajain1/accelerator-microbenchmarks/pkg/shell"
)

type recordedCall struct {
	name string
	args []string
}

// fakeExec replaces execCommand for the test's lifetime and records every
// invocation, returning canned results in order.
func fakeExec(t *testing.T, results []shell.CommandResult) *[]recordedCall {
	t.Helper()
	var calls []recordedCall
	original := execCommand
	execCommand = func(name string, args ...string) shell.CommandResult {
		calls = append(calls, recordedCall{name: name, args: args})
		if len(calls) <= len(results) {
			return results[len(calls)-1]
		}
		return shell.CommandResult{}
	}
	t.Cleanup(func() { execCommand = original })
	return &calls
}

func testWorkloadDefinition() orchestrator.WorkloadDefinition {
	return orchestrator.WorkloadDefinition{
		WorkloadName:    "microbenchmarks-20240826-182059",
		DockerImage:     "gcr.io/my-project/benchmark-runner:latest",
		Command:         "echo benchmark",
		DeviceType:      "v5p-256",
		NumSlices:       2,
		ProjectID:       "my-project",
		ClusterName:     "tpu-cluster",
		ClusterLocation: "us-central2-b",
	}
}

func TestCreateArgs(t *testing.T) {
	def := testWorkloadDefinition()
	def.Env = map[string]string{"B_VAR": "2", "A_VAR": "1"}

	got := createArgs(def)
	want := []string{
		"workload", "create",
		"--cluster", "tpu-cluster",
		"--workload", "microbenchmarks-20240826-182059",
		"--command", "echo benchmark",
		"--device-type", "v5p-256",
		"--num-slices", "2",
		"--docker-image", "gcr.io/my-project/benchmark-runner:latest",
		"--zone", "us-central2-b",
		"--project", "my-project",
		"--env", "A_VAR=1",
		"--env", "B_VAR=2",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("createArgs mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateArgsOmitsOptionalFlags(t *testing.T) {
	def := testWorkloadDefinition()
	def.ProjectID = ""
	def.ClusterLocation = ""

	got := strings.Join(createArgs(def), " ")
	if strings.Contains(got, "--zone") || strings.Contains(got, "--project") {
		t.Errorf("Expected no zone/project flags, got: %s", got)
	}
}

func TestDryRunQuotesCommand(t *testing.T) {
	orch, err := NewXPKOrchestrator()
	if err != nil {
		t.Fatalf("NewXPKOrchestrator failed: %v", err)
	}
	def := testWorkloadDefinition()
	def.Command = "git clone x && python run.py"

	rendered := orch.DryRun(def)
	if !strings.HasPrefix(rendered, "xpk workload create") {
		t.Errorf("Expected dry-run to start with the xpk invocation, got: %s", rendered)
	}
	if !strings.Contains(rendered, "'git clone x && python run.py'") {
		t.Errorf("Expected the remote command to be quoted as one argument, got: %s", rendered)
	}
}

func TestAuthenticateRunsGcloudSequence(t *testing.T) {
	calls := fakeExec(t, nil)

	orch, _ := NewXPKOrchestrator()
	if err := orch.Authenticate("my-project", "us-central2", "us-central2-b", "tpu-cluster"); err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}

	if len(*calls) != 4 {
		t.Fatalf("Expected 4 gcloud invocations, got %d", len(*calls))
	}
	wantFirst := []string{"config", "set", "project", "my-project"}
	if diff := cmp.Diff(wantFirst, (*calls)[0].args); diff != "" {
		t.Errorf("First gcloud call mismatch (-want +got):\n%s", diff)
	}
	wantRegion := []string{"config", "set", "compute/region", "us-central2"}
	if diff := cmp.Diff(wantRegion, (*calls)[1].args); diff != "" {
		t.Errorf("Region gcloud call mismatch (-want +got):\n%s", diff)
	}
	wantZone := []string{"config", "set", "compute/zone", "us-central2-b"}
	if diff := cmp.Diff(wantZone, (*calls)[2].args); diff != "" {
		t.Errorf("Zone gcloud call mismatch (-want +got):\n%s", diff)
	}
	last := (*calls)[3]
	if last.name != "gcloud" || last.args[0] != "container" {
		t.Errorf("Expected get-credentials as the last call, got: %v", last)
	}
}

func TestAuthenticatePropagatesFailure(t *testing.T) {
	fakeExec(t, []shell.CommandResult{{ExitCode: 1, Stderr: "permission denied"}})

	orch, _ := NewXPKOrchestrator()
	err := orch.Authenticate("my-project", "us-central2", "us-central2-b", "tpu-cluster")
	if err == nil {
		t.Fatal("Expected an error when gcloud fails")
	}
	if !strings.Contains(err.Error(), "permission denied") {
		t.Errorf("Expected the gcloud stderr in the error, got: %v", err)
	}
}

func TestCreatePropagatesExitCode(t *testing.T) {
	fakeExec(t, []shell.CommandResult{{ExitCode: 2, Stderr: "cluster not found"}})

	orch, _ := NewXPKOrchestrator()
	err := orch.Create(testWorkloadDefinition())
	if err == nil {
		t.Fatal("Expected an error when xpk fails")
	}
	if !strings.Contains(err.Error(), "exit code 2") {
		t.Errorf("Expected the exit code in the error, got: %v", err)
	}
}

func TestListReturnsStdout(t *testing.T) {
	fakeExec(t, []shell.CommandResult{{Stdout: "workload-a Running\n"}})

	orch, _ := NewXPKOrchestrator()
	out, err := orch.List("tpu-cluster")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if out != "workload-a Running\n" {
		t.Errorf("Unexpected list output: %q", out)
	}
}

func TestWorkloadName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"microbenchmarks-20240826-182059", "microbenchmarks-20240826-182059"},
		{"My_Run.2024", "my-run-2024"},
		{"-leading-and-trailing-", "leading-and-trailing"},
		{strings.Repeat("a", 50), strings.Repeat("a", 40)},
	}
	for _, tc := range cases {
		if got := WorkloadName(tc.in); got != tc.want {
			t.Errorf("WorkloadName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestWorkloadNameEmptyInput(t *testing.T) {
	got := WorkloadName("___")
	if got == "" {
		t.Fatal("Expected a generated fallback name for unusable input")
	}
	if !strings.HasPrefix(got, "microbenchmarks-") {
		t.Errorf("Expected the fallback prefix, got %q", got)
	}
}
