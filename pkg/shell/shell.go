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

// Package shell wraps external process execution for the CLI tools the
// launcher drives (gcloud, xpk).
package shell

import (
	"bytes"
	"math/rand"
	"os/exec"
	"strings"
	"time"

	"github.com/prishajain1/accelerator-microbenchmarks/pkg/logging"
)

// CommandResult captures the outcome of an executed command.
type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Command is an external command with optional stdin content.
type Command struct {
	name  string
	args  []string
	stdin string
}

// NewCommand returns a Command for the given program and arguments.
func NewCommand(name string, args ...string) *Command {
	return &Command{name: name, args: args}
}

// SetInput sets the content piped to the command's stdin.
func (c *Command) SetInput(input string) {
	c.stdin = input
}

// String renders the command line for display.
func (c *Command) String() string {
	return strings.Join(append([]string{c.name}, c.args...), " ")
}

// Execute runs the command and returns its captured output and exit code.
// A failure to start the process is reported as exit code -1 with the
// error text in Stderr.
func (c *Command) Execute() CommandResult {
	logging.Debug("Executing: %s", c.String())

	cmd := exec.Command(c.name, c.args...)
	if c.stdin != "" {
		cmd.Stdin = strings.NewReader(c.stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := CommandResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = -1
			if result.Stderr == "" {
				result.Stderr = err.Error()
			}
		}
	}
	return result
}

// ExecuteCommand runs a program with arguments and returns the result.
func ExecuteCommand(name string, args ...string) CommandResult {
	return NewCommand(name, args...).Execute()
}

// LookPath reports whether the named program is available on PATH.
func LookPath(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// RandomString generates a random lowercase string of the given length,
// used for unique workload and file names.
func RandomString(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyz"
	seededRand := rand.New(rand.NewSource(time.Now().UnixNano()))
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[seededRand.Intn(len(charset))]
	}
	return string(b)
}
