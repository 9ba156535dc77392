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
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/prishajain1/accelerator-microbenchmarks/pkg/config"
	"github.com/prishajain1/accelerator-microbenchmarks/pkg/gcs"
	"github.com/prishajain1/accelerator-microbenchmarks/pkg/imagebuilder"
	"github.com/prishajain1/accelerator-microbenchmarks/pkg/k8s"
	"github.com/prishajain1/accelerator-microbenchmarks/pkg/logging"
	"github.com/prishajain1/accelerator-microbenchmarks/pkg/orchestrator"
	"github.com/prishajain1/accelerator-microbenchmarks/pkg/orchestrator/xpk"
	"github.com/prishajain1/accelerator-microbenchmarks/pkg/preflight"
)

var (
	launchClusterName     string
	launchRegion          string
	launchZone            string
	launchProjectID       string
	launchTPUType         string
	launchNumSlices       int
	launchDockerImage     string
	launchBaseDockerImage string
	launchBuildContext    string
	launchPlatform        string
	launchWorkloadName    string
	launchGitHubUser      string
	launchGitHubBranch    string
	launchBenchmarkConfig string
	launchOutputBucket    string
	launchRunName         string
	launchEnvVars         []string

	launchGenerateReport bool
	launchHLODump        bool
	launchCopyAllOutputs bool
	launchSkipPreflight  bool
	launchDryRun         bool
	launchWait           bool
	launchWaitTimeout    time.Duration
	launchFetchDir       string
	launchNamespace      string
)

func init() {
	rootCmd.AddCommand(launchCmd)

	launchCmd.Flags().StringVar(&launchClusterName, "cluster", "", "Name of the GKE cluster to submit the workload to.")
	launchCmd.Flags().StringVar(&launchRegion, "region", "", "Region of the GKE cluster (e.g. us-central2).")
	launchCmd.Flags().StringVar(&launchZone, "zone", "", "Zone of the GKE cluster (e.g. us-central2-b).")
	launchCmd.Flags().StringVarP(&launchProjectID, "project", "p", "", "Google Cloud Project ID.")
	launchCmd.Flags().StringVar(&launchTPUType, "tpu-type", "", "TPU accelerator type (e.g. v5p-256).")
	launchCmd.Flags().IntVar(&launchNumSlices, "num-slices", 0, "Number of accelerator slices for the workload.")
	launchCmd.Flags().StringVarP(&launchDockerImage, "docker-image", "i", "", "Pre-built Docker image to run the benchmarks in.")
	launchCmd.Flags().StringVar(&launchBaseDockerImage, "base-docker-image", "", "Base image for an on-the-fly Crane build. Requires --build-context.")
	launchCmd.Flags().StringVarP(&launchBuildContext, "build-context", "c", "", "Build context directory for the Crane build.")
	launchCmd.Flags().StringVarP(&launchPlatform, "platform", "f", "linux/amd64", "Target platform for the Crane build (e.g. 'linux/amd64').")
	launchCmd.Flags().StringVarP(&launchWorkloadName, "workload-name", "w", "", "Workload name. Derived from the run identifier if empty.")
	launchCmd.Flags().StringVar(&launchGitHubUser, "github-user", "", "GitHub user or org hosting the benchmark repository.")
	launchCmd.Flags().StringVar(&launchGitHubBranch, "github-branch", "", "Branch of the benchmark repository to clone remotely.")
	launchCmd.Flags().StringVar(&launchBenchmarkConfig, "benchmark-config", "", "Benchmark YAML config path inside the repository (e.g. configs/benchmark_collectives.yaml).")
	launchCmd.Flags().StringVar(&launchOutputBucket, "output-bucket", "", "GCS bucket (gs://...) receiving run outputs.")
	launchCmd.Flags().StringVar(&launchRunName, "run-name", "", "Run name; the run identifier appends a timestamp.")
	launchCmd.Flags().StringArrayVar(&launchEnvVars, "env", nil, "Extra environment variables for the workload, KEY=VALUE. Repeatable.")

	launchCmd.Flags().BoolVar(&launchGenerateReport, "generate-report", false, "Generate the combined Excel report on the workload after the benchmarks finish.")
	launchCmd.Flags().BoolVar(&launchHLODump, "hlo-dump", false, "Request XLA HLO graph dumps and include them in the uploaded outputs.")
	launchCmd.Flags().BoolVar(&launchCopyAllOutputs, "copy-all-outputs", false, "Upload the whole remote output directory instead of only the metrics file.")
	launchCmd.Flags().BoolVar(&launchSkipPreflight, "skip-preflight", false, "Skip local binary and repository branch checks.")
	launchCmd.Flags().BoolVar(&launchDryRun, "dry-run", false, "Print the rendered xpk invocation without executing anything.")
	launchCmd.Flags().BoolVar(&launchWait, "wait", false, "Wait for the workload's pods to complete.")
	launchCmd.Flags().DurationVar(&launchWaitTimeout, "wait-timeout", 2*time.Hour, "Maximum time to wait for workload completion.")
	launchCmd.Flags().StringVar(&launchFetchDir, "fetch", "", "After a successful wait, download the run's GCS outputs into this directory.")
	launchCmd.Flags().StringVar(&launchNamespace, "namespace", "default", "Kubernetes namespace the workload's pods run in.")
}

var launchCmd = &cobra.Command{
	Use:   "launch",
	Short: "Submits a microbenchmark workload to a GKE cluster via xpk.",
	Long: `The 'launch' command selects the target GKE cluster with gcloud, renders
the remote benchmark command (clone, install, run, upload), and submits it
with 'xpk workload create'. The image can be pre-built (--docker-image) or
built on the fly with Crane (--base-docker-image with --build-context).`,
	Run:          runLaunchCmd,
	SilenceUsage: true,
}

func runLaunchCmd(cmd *cobra.Command, args []string) {
	cfg, err := config.FromEnvironment()
	if err != nil {
		logging.Fatal("Failed to load environment configuration: %v", err)
	}
	applyLaunchFlags(cmd, cfg)

	if err := cfg.Validate(); err != nil {
		logging.Fatal("Invalid launch configuration: %v", err)
	}
	if cfg.BenchmarkConfig == "" {
		logging.Fatal("A benchmark config path is required (--benchmark-config or BENCHMARK_CONFIG).")
	}

	// Validation logic for image flags
	if launchDockerImage == "" && cfg.DockerImage == "" && launchBaseDockerImage == "" {
		logging.Fatal("Either --docker-image (or DOCKER_IMAGE) or --base-docker-image must be provided.")
	}
	if launchDockerImage != "" && launchBaseDockerImage != "" {
		logging.Fatal("Cannot provide both --docker-image and --base-docker-image.")
	}
	if launchBaseDockerImage != "" && launchBuildContext == "" {
		logging.Fatal("A --build-context must be provided when --base-docker-image is used.")
	}

	if !launchSkipPreflight && !launchDryRun {
		if err := preflight.CheckBinaries(); err != nil {
			logging.Fatal("Preflight failed: %v", err)
		}
		if err := preflight.CheckBranch(cfg.GitHubUser, cfg.GitHubBranch); err != nil {
			logging.Fatal("Preflight failed: %v", err)
		}
	}

	runID := cfg.RunID(time.Now())
	runDir := cfg.RunDir(runID)
	workloadName := launchWorkloadName
	if workloadName == "" {
		workloadName = xpk.WorkloadName(runID)
	}
	logging.Info("Run identifier: %s", runID)

	dockerImage := cfg.DockerImage
	if launchBaseDockerImage != "" {
		if launchDryRun {
			dockerImage = fmt.Sprintf("gcr.io/%s/benchmark-runner:dry-run", cfg.ProjectID)
		} else {
			dockerImage, err = imagebuilder.Build(imagebuilder.BuildOptions{
				ProjectID:    cfg.ProjectID,
				BaseImage:    launchBaseDockerImage,
				BuildContext: launchBuildContext,
				Platform:     launchPlatform,
			})
			if err != nil {
				logging.Fatal("Runner image build failed: %v", err)
			}
		}
	}

	remoteCommand, err := xpk.RenderRemoteCommand(xpk.RemoteCommandOptions{
		GitHubUser:     cfg.GitHubUser,
		GitHubBranch:   cfg.GitHubBranch,
		ConfigPath:     cfg.BenchmarkConfig,
		RunDir:         runDir,
		TPUType:        cfg.TPUType,
		GenerateReport: launchGenerateReport,
		HLODump:        launchHLODump,
		CopyAllOutputs: launchCopyAllOutputs,
	})
	if err != nil {
		logging.Fatal("Failed to render the remote command: %v", err)
	}

	def := orchestrator.WorkloadDefinition{
		WorkloadName:    workloadName,
		DockerImage:     dockerImage,
		Command:         remoteCommand,
		DeviceType:      cfg.TPUType,
		NumSlices:       cfg.NumSlices,
		ProjectID:       cfg.ProjectID,
		ClusterName:     cfg.ClusterName,
		ClusterLocation: cfg.Zone,
		Env:             parseEnvVars(launchEnvVars),
	}

	orch, err := xpk.NewXPKOrchestrator()
	if err != nil {
		logging.Fatal("Failed to create xpk orchestrator: %v", err)
	}

	if launchDryRun {
		color.Cyan("Workload definition:")
		defYAML, err := yaml.Marshal(def)
		if err != nil {
			logging.Fatal("Failed to render the workload definition: %v", err)
		}
		fmt.Print(string(defYAML))
		color.Cyan("Remote command:")
		fmt.Println(remoteCommand)
		color.Cyan("xpk invocation:")
		fmt.Println(orch.DryRun(def))
		return
	}

	if err := orch.Authenticate(cfg.ProjectID, cfg.Region, cfg.Zone, cfg.ClusterName); err != nil {
		logging.Fatal("Cluster authentication failed: %v", err)
	}
	if err := orch.Create(def); err != nil {
		logging.Fatal("Workload submission failed: %v", err)
	}
	if runDir != "" {
		logging.Info("Run outputs will be uploaded to %s", runDir)
	}

	if !launchWait {
		logging.Info("Launch workflow completed. Use 'mblaunch list --cluster %s' to monitor the workload.", cfg.ClusterName)
		return
	}

	client, err := k8s.NewClient()
	if err != nil {
		logging.Fatal("Failed to create Kubernetes client: %v", err)
	}
	ctx := context.Background()
	logging.Info("Waiting up to %s for workload '%s' to complete...", launchWaitTimeout, workloadName)
	if err := k8s.WaitForCompletion(ctx, client, launchNamespace, workloadName, launchWaitTimeout); err != nil {
		logging.Fatal("Workload did not complete successfully: %v", err)
	}
	logging.Info("Workload '%s' completed.", workloadName)

	if launchFetchDir != "" && runDir != "" {
		fetchArtifacts(ctx, runDir, filepath.Join(launchFetchDir, runID))
	}
}

// applyLaunchFlags overlays flag values onto the environment-derived config.
func applyLaunchFlags(cmd *cobra.Command, cfg *config.LaunchConfig) {
	if launchClusterName != "" {
		cfg.ClusterName = launchClusterName
	}
	if launchRegion != "" {
		cfg.Region = launchRegion
	}
	if launchZone != "" {
		cfg.Zone = launchZone
	}
	if launchProjectID != "" {
		cfg.ProjectID = launchProjectID
	}
	if launchTPUType != "" {
		cfg.TPUType = launchTPUType
	}
	if cmd.Flags().Changed("num-slices") {
		cfg.NumSlices = launchNumSlices
	}
	if launchDockerImage != "" {
		cfg.DockerImage = launchDockerImage
	}
	if launchGitHubUser != "" {
		cfg.GitHubUser = launchGitHubUser
	}
	if launchGitHubBranch != "" {
		cfg.GitHubBranch = launchGitHubBranch
	}
	if launchBenchmarkConfig != "" {
		cfg.BenchmarkConfig = launchBenchmarkConfig
	}
	if launchOutputBucket != "" {
		cfg.OutputBucket = launchOutputBucket
	}
	if launchRunName != "" {
		cfg.RunName = launchRunName
	}
}

func parseEnvVars(pairs []string) map[string]string {
	if len(pairs) == 0 {
		return nil
	}
	env := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 || parts[0] == "" {
			logging.Fatal("Invalid --env value %q, expected KEY=VALUE.", pair)
		}
		env[parts[0]] = parts[1]
	}
	return env
}

func fetchArtifacts(ctx context.Context, runDir, destDir string) {
	runPath, err := gcs.ParsePath(runDir)
	if err != nil {
		logging.Fatal("Invalid run directory: %v", err)
	}
	client, err := gcs.NewClient(ctx)
	if err != nil {
		logging.Fatal("Failed to create GCS client: %v", err)
	}
	defer client.Close()

	logging.Info("Fetching run outputs from %s into %s...", runDir, destDir)
	count, err := client.DownloadPrefix(ctx, runPath.Bucket, runPath.Object, destDir)
	if err != nil {
		logging.Fatal("Artifact download failed: %v", err)
	}
	logging.Info("Downloaded %d artifact(s).", count)
}
