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

package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *LaunchConfig {
	return &LaunchConfig{
		ClusterName:     "tpu-cluster",
		Region:          "us-central2",
		Zone:            "us-central2-b",
		ProjectID:       "my-project",
		TPUType:         "v5p-256",
		NumSlices:       1,
		GitHubUser:      "google",
		GitHubBranch:    "main",
		BenchmarkConfig: "configs/benchmark_collectives.yaml",
		OutputBucket:    "gs://my-bucket",
		RunName:         "microbenchmarks",
	}
}

func TestFromEnvironment(t *testing.T) {
	t.Setenv("CLUSTER_NAME", "tpu-cluster")
	t.Setenv("PROJECT_ID", "my-project")
	t.Setenv("TPU_TYPE", "v5litepod-16")
	t.Setenv("NUM_SLICES", "4")

	cfg, err := FromEnvironment()
	if err != nil {
		t.Fatalf("FromEnvironment failed: %v", err)
	}
	if cfg.ClusterName != "tpu-cluster" {
		t.Errorf("ClusterName = %q, want tpu-cluster", cfg.ClusterName)
	}
	if cfg.NumSlices != 4 {
		t.Errorf("NumSlices = %d, want 4", cfg.NumSlices)
	}
	if cfg.Zone != "us-central2-b" {
		t.Errorf("Expected the default zone, got %q", cfg.Zone)
	}
	if cfg.GitHubBranch != "main" {
		t.Errorf("Expected the default branch, got %q", cfg.GitHubBranch)
	}
}

func TestValidate(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("Expected a valid config, got: %v", err)
	}
}

func TestValidateMissingFields(t *testing.T) {
	cfg := validConfig()
	cfg.ClusterName = ""
	cfg.TPUType = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Expected an error for missing fields")
	}
	for _, want := range []string{"cluster name", "TPU type"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Expected error to mention %q, got: %v", want, err)
		}
	}
}

func TestValidateTPUType(t *testing.T) {
	cases := []struct {
		tpuType string
		valid   bool
	}{
		{"v5p-256", true},
		{"v5litepod-16", true},
		{"v4-8", true},
		{"v5p", false},
		{"V5P-256", false},
		{"v5p-", false},
	}
	for _, tc := range cases {
		cfg := validConfig()
		cfg.TPUType = tc.tpuType
		err := cfg.Validate()
		if tc.valid && err != nil {
			t.Errorf("Validate(%q) = %v, want nil", tc.tpuType, err)
		}
		if !tc.valid && err == nil {
			t.Errorf("Validate(%q) = nil, want error", tc.tpuType)
		}
	}
}

func TestValidateNumSlices(t *testing.T) {
	cfg := validConfig()
	cfg.NumSlices = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("Expected an error for zero slices")
	}
}

func TestValidateOutputBucket(t *testing.T) {
	cfg := validConfig()
	cfg.OutputBucket = "my-bucket"
	if err := cfg.Validate(); err == nil {
		t.Fatal("Expected an error for a bucket without the gs:// scheme")
	}
}

func TestRunID(t *testing.T) {
	cfg := validConfig()
	now := time.Date(2024, 8, 26, 18, 20, 59, 0, time.UTC)
	if got := cfg.RunID(now); got != "microbenchmarks-20240826-182059" {
		t.Errorf("RunID = %q", got)
	}
}

func TestRunDir(t *testing.T) {
	cfg := validConfig()
	cfg.OutputBucket = "gs://my-bucket/"
	got := cfg.RunDir("microbenchmarks-20240826-182059")
	want := "gs://my-bucket/microbenchmarks-20240826-182059"
	if got != want {
		t.Errorf("RunDir = %q, want %q", got, want)
	}

	cfg.OutputBucket = ""
	if got := cfg.RunDir("x"); got != "" {
		t.Errorf("Expected an empty run dir without a bucket, got %q", got)
	}
}
