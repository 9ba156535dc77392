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

// Package preflight validates the launch environment before a workload is
// submitted: required CLI tools on PATH and the existence of the benchmark
// repository branch the remote command will clone.
package preflight

import (
	"fmt"
	"strings"

	git "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/memory"

	"github.com/prishajain1/accelerator-microbenchmarks/pkg/logging"
	"github.com/prishajain1/accelerator-microbenchmarks/pkg/shell"
)

// requiredBinaries are the external tools the launch workflow shells out to.
var requiredBinaries = []string{"gcloud", "xpk"}

// CheckBinaries verifies the wrapped CLI tools are installed.
func CheckBinaries() error {
	var missing []string
	for _, bin := range requiredBinaries {
		if !shell.LookPath(bin) {
			missing = append(missing, bin)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("required tools not found on PATH: %s", strings.Join(missing, ", "))
	}
	return nil
}

// RepoURL returns the benchmark repository clone URL for a GitHub user.
func RepoURL(githubUser string) string {
	return fmt.Sprintf("https://github.com/%s/accelerator-microbenchmarks.git", githubUser)
}

// listRemote is swapped out in tests.
var listRemote = func(url string) ([]*plumbing.Reference, error) {
	remote := git.NewRemote(memory.NewStorage(), &gitconfig.RemoteConfig{
		Name: "origin",
		URLs: []string{url},
	})
	return remote.List(&git.ListOptions{})
}

// CheckBranch verifies that the branch the remote command will clone exists
// in the benchmark repository.
func CheckBranch(githubUser, branch string) error {
	url := RepoURL(githubUser)
	logging.Info("Checking that branch '%s' exists in %s...", branch, url)

	refs, err := listRemote(url)
	if err != nil {
		return fmt.Errorf("failed to list refs of %s: %w", url, err)
	}

	want := plumbing.NewBranchReferenceName(branch)
	for _, ref := range refs {
		if ref.Name() == want {
			return nil
		}
	}
	return fmt.Errorf("branch %q not found in %s", branch, url)
}
