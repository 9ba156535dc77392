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

package orchestrator

// WorkloadDefinition holds all the necessary parameters to define a
// benchmark workload. This struct is intended to be general enough to
// support various workload managers, with specific orchestrator
// implementations extracting the fields relevant to them.
type WorkloadDefinition struct {
	WorkloadName string `json:"workloadName"`
	DockerImage  string `json:"dockerImage"`
	Command      string `json:"command"`
	DeviceType   string `json:"deviceType"`
	NumSlices    int    `json:"numSlices"`

	ProjectID       string `json:"projectId,omitempty"`
	ClusterName     string `json:"clusterName"`
	ClusterLocation string `json:"clusterLocation,omitempty"`

	// Extra environment variables forwarded to the remote workload.
	Env map[string]string `json:"env,omitempty"`
}

// Orchestrator defines the interface for submitting and managing benchmark
// workloads on a cluster.
type Orchestrator interface {
	// Create submits the workload to the cluster's workload manager.
	Create(def WorkloadDefinition) error

	// Delete removes a previously submitted workload by name.
	Delete(workloadName, clusterName string) error

	// List returns the workload manager's listing output for the cluster.
	List(clusterName string) (string, error)

	// DryRun renders the submission command line without executing it.
	DryRun(def WorkloadDefinition) string
}
