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

// Package imagebuilder builds the benchmark runner image by layering a
// build context onto a base image with crane, without a local Docker
// daemon.
package imagebuilder

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/go-containerregistry/pkg/compression"
	"github.com/google/go-containerregistry/pkg/crane"
	"github.com/google/go-containerregistry/pkg/name"
	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/mutate"
	"github.com/google/go-containerregistry/pkg/v1/tarball"
	"github.com/moby/patternmatcher"
	"github.com/moby/patternmatcher/ignorefile"
	"github.com/sirupsen/logrus"

	"github.com/prishajain1/accelerator-microbenchmarks/pkg/shell"
)

// defaultIgnorePatterns are always excluded from the build context in
// addition to the context's .dockerignore.
var defaultIgnorePatterns = []string{
	".git",
	"vendor",
	"node_modules",
	"__pycache__",
	"*.log",
	"tmp/",
	".DS_Store",
}

// BuildOptions holds parameters for building the runner image.
type BuildOptions struct {
	ProjectID    string
	BaseImage    string
	BuildContext string
	Platform     string // "os/arch", e.g. "linux/amd64"
}

// Build creates the runner image and pushes it to the project's registry,
// returning the full image reference. The image tag combines a random
// prefix with the build timestamp so repeated launches never collide.
func Build(opts BuildOptions) (string, error) {
	platform, err := parsePlatform(opts.Platform)
	if err != nil {
		return "", err
	}

	matcher, err := newIgnoreMatcher(opts.BuildContext)
	if err != nil {
		return "", err
	}

	userName := os.Getenv("USER")
	if userName == "" {
		userName = "unknown"
	}
	tag := fmt.Sprintf("%s-%s", shell.RandomString(4), time.Now().Format("2006-01-02-15-04-05"))
	imageName := fmt.Sprintf("gcr.io/%s/%s-benchmark-runner:%s", opts.ProjectID, userName, tag)

	logrus.Infof("Building runner image %s", imageName)
	logrus.Infof("Base image: %s", opts.BaseImage)
	logrus.Infof("Build context: %s", opts.BuildContext)
	logrus.Infof("Target platform: %s", platform.String())

	contextTarball, err := createContextTarball(opts.BuildContext, matcher)
	if err != nil {
		return "", fmt.Errorf("failed to create build context tarball: %w", err)
	}
	defer func() {
		os.Remove(contextTarball)
		logrus.Debugf("Cleaned up temporary tarball %s", contextTarball)
	}()

	contextLayer, err := tarball.LayerFromOpener(func() (io.ReadCloser, error) {
		file, openErr := os.Open(contextTarball)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open build context tarball %q: %w", contextTarball, openErr)
		}
		return file, nil
	}, tarball.WithCompression(compression.GZip))
	if err != nil {
		return "", fmt.Errorf("failed to create layer from tarball: %w", err)
	}

	baseRef, err := name.ParseReference(opts.BaseImage)
	if err != nil {
		return "", fmt.Errorf("failed to parse base image reference %q: %w", opts.BaseImage, err)
	}
	baseImg, err := crane.Pull(baseRef.String(), crane.WithPlatform(&platform))
	if err != nil {
		return "", fmt.Errorf("failed to pull base image %q: %w", opts.BaseImage, err)
	}

	runnerImg, err := mutate.AppendLayers(baseImg, contextLayer)
	if err != nil {
		return "", fmt.Errorf("failed to append build context layer: %w", err)
	}

	imageRef, err := name.ParseReference(imageName)
	if err != nil {
		return "", fmt.Errorf("failed to parse image reference %q: %w", imageName, err)
	}
	logrus.Infof("Pushing runner image to %s", imageName)
	if err := crane.Push(runnerImg, imageRef.String(), crane.WithPlatform(&platform)); err != nil {
		return "", fmt.Errorf("failed to push image %q: %w", imageName, err)
	}

	logrus.Infof("Runner image %s built and pushed.", imageName)
	return imageName, nil
}

// parsePlatform converts a platform string (e.g., "linux/amd64") into a
// v1.Platform struct.
func parsePlatform(platformStr string) (v1.Platform, error) {
	parts := strings.Split(platformStr, "/")
	if len(parts) != 2 {
		return v1.Platform{}, fmt.Errorf("invalid platform format: %q, expected \"os/arch\"", platformStr)
	}
	return v1.Platform{OS: parts[0], Architecture: parts[1]}, nil
}

// newIgnoreMatcher combines the default ignore patterns with the build
// context's .dockerignore, when present.
func newIgnoreMatcher(contextDir string) (*patternmatcher.PatternMatcher, error) {
	patterns := append([]string{}, defaultIgnorePatterns...)

	dockerignorePath := filepath.Join(contextDir, ".dockerignore")
	file, err := os.Open(dockerignorePath)
	if err == nil {
		defer file.Close()
		extra, readErr := ignorefile.ReadAll(file)
		if readErr != nil {
			return nil, fmt.Errorf("failed to read .dockerignore %q: %w", dockerignorePath, readErr)
		}
		patterns = append(patterns, extra...)
		logrus.Infof("Loaded %d patterns from %q", len(extra), dockerignorePath)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to open .dockerignore %q: %w", dockerignorePath, err)
	}

	matcher, err := patternmatcher.New(patterns)
	if err != nil {
		return nil, fmt.Errorf("failed to compile ignore patterns: %w", err)
	}
	return matcher, nil
}

// createContextTarball writes the filtered build context as a gzipped tar
// in a temporary file and returns its path.
func createContextTarball(contextDir string, matcher *patternmatcher.PatternMatcher) (string, error) {
	tmpFile, err := os.CreateTemp("", "mblaunch-build-context-*.tar.gz")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary tarball: %w", err)
	}
	defer tmpFile.Close()

	gzipWriter := gzip.NewWriter(tmpFile)
	tarWriter := tar.NewWriter(gzipWriter)

	logrus.Infof("Creating build context tarball from %s", contextDir)

	walkErr := filepath.Walk(contextDir, func(path string, info fs.FileInfo, err error) error {
		return addTarEntry(tarWriter, contextDir, matcher, path, info, err)
	})
	if closeErr := tarWriter.Close(); closeErr != nil && walkErr == nil {
		walkErr = fmt.Errorf("failed to close tar writer: %w", closeErr)
	}
	if closeErr := gzipWriter.Close(); closeErr != nil && walkErr == nil {
		walkErr = fmt.Errorf("failed to close gzip writer: %w", closeErr)
	}
	if walkErr != nil {
		os.Remove(tmpFile.Name())
		return "", walkErr
	}
	return tmpFile.Name(), nil
}

// addTarEntry writes a single file or directory into the tarball, skipping
// ignored paths.
func addTarEntry(tarWriter *tar.Writer, contextDir string, matcher *patternmatcher.PatternMatcher, path string, info fs.FileInfo, walkErr error) error {
	if walkErr != nil {
		return walkErr
	}

	relPath, err := filepath.Rel(contextDir, path)
	if err != nil {
		return fmt.Errorf("failed to get relative path for %q: %w", path, err)
	}
	if relPath == "." {
		return nil
	}

	ignored, err := matcher.MatchesOrParentMatches(relPath)
	if err != nil {
		return fmt.Errorf("failed to match ignore patterns for %q: %w", relPath, err)
	}
	if ignored {
		logrus.Debugf("Ignoring %q", relPath)
		if info.IsDir() {
			return filepath.SkipDir
		}
		return nil
	}

	header, err := tar.FileInfoHeader(info, relPath)
	if err != nil {
		return fmt.Errorf("failed to create tar header for %q: %w", path, err)
	}
	header.Name = relPath
	if err := tarWriter.WriteHeader(header); err != nil {
		return fmt.Errorf("failed to write tar header for %q: %w", path, err)
	}

	if info.Mode().IsRegular() {
		file, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open file %q: %w", path, err)
		}
		defer file.Close()
		if _, err := io.Copy(tarWriter, file); err != nil {
			return fmt.Errorf("failed to write file content for %q: %w", path, err)
		}
	}
	return nil
}
