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

// Package config holds the launch parameters shared by the mblaunch
// subcommands. Values are read from the environment (optionally seeded from
// a .env file) and overridden by command-line flags.
package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// tpuTypePattern matches accelerator type tags such as v5p-256 or
// v5litepod-16: a family name followed by the chip count.
var tpuTypePattern = regexp.MustCompile(`^[a-z0-9]+-\d+$`)

// LaunchConfig carries every identifier the launch scripts exported as
// environment variables before invoking gcloud and xpk.
type LaunchConfig struct {
	ClusterName string `env:"CLUSTER_NAME"`
	Region      string `env:"REGION" envDefault:"us-central2"`
	Zone        string `env:"ZONE" envDefault:"us-central2-b"`
	ProjectID   string `env:"PROJECT_ID"`
	TPUType     string `env:"TPU_TYPE"`
	NumSlices   int    `env:"NUM_SLICES" envDefault:"1"`
	DockerImage string `env:"DOCKER_IMAGE"`

	// Benchmark repository selection for the remote clone.
	GitHubUser   string `env:"GITHUB_USER" envDefault:"google"`
	GitHubBranch string `env:"GITHUB_BRANCH" envDefault:"main"`

	// Path of the benchmark YAML config inside the cloned repository,
	// e.g. configs/benchmark_collectives.yaml.
	BenchmarkConfig string `env:"BENCHMARK_CONFIG"`

	// GCS bucket (gs://...) that receives run outputs.
	OutputBucket string `env:"OUTPUT_BUCKET"`

	// RunName labels the run; the run identifier appends a timestamp.
	RunName string `env:"RUN_NAME" envDefault:"microbenchmarks"`
}

// FromEnvironment builds a LaunchConfig from the process environment. A
// .env file in the working directory is loaded first when present, matching
// how the launch scripts sourced their variable definitions.
func FromEnvironment() (*LaunchConfig, error) {
	// Missing .env is not an error; exported variables still apply.
	_ = godotenv.Load()

	cfg := &LaunchConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment config: %w", err)
	}
	return cfg, nil
}

// Validate checks the fields every submission needs.
func (c *LaunchConfig) Validate() error {
	var missing []string
	if c.ClusterName == "" {
		missing = append(missing, "cluster name")
	}
	if c.ProjectID == "" {
		missing = append(missing, "project id")
	}
	if c.TPUType == "" {
		missing = append(missing, "TPU type")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	if !tpuTypePattern.MatchString(c.TPUType) {
		return fmt.Errorf("invalid TPU type %q, expected <family>-<chips> (e.g. v5p-256)", c.TPUType)
	}
	if c.NumSlices < 1 {
		return fmt.Errorf("num slices must be at least 1, got %d", c.NumSlices)
	}
	if c.OutputBucket != "" && !strings.HasPrefix(c.OutputBucket, "gs://") {
		return fmt.Errorf("output bucket %q must start with gs://", c.OutputBucket)
	}
	return nil
}

// RunID returns the timestamped run identifier, e.g.
// microbenchmarks-20240826-182059.
func (c *LaunchConfig) RunID(now time.Time) string {
	return fmt.Sprintf("%s-%s", c.RunName, now.Format("20060102-150405"))
}

// RunDir returns the GCS directory that receives this run's outputs, or the
// empty string when no output bucket is configured.
func (c *LaunchConfig) RunDir(runID string) string {
	if c.OutputBucket == "" {
		return ""
	}
	return strings.TrimSuffix(c.OutputBucket, "/") + "/" + runID
}
