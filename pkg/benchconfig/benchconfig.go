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

// Package benchconfig parses and validates the benchmark YAML configuration
// consumed by the remote runner, so that malformed configs fail locally
// before an accelerator slice is allocated.
package benchconfig

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// knownBenchmarks is the table of benchmark names the runner dispatches on,
// grouped by suite.
var knownBenchmarks = map[string]string{
	"all_gather":   "collectives",
	"psum":         "collectives",
	"psum_scatter": "collectives",
	"all_to_all":   "collectives",
	"ppermute":     "collectives",

	"naive_matmul":                     "matmul",
	"single_host_naive_matmul":         "matmul",
	"multilayer_collective_matmul":     "matmul",
	"collective_matmul_one_direction":  "matmul",
	"collective_matmul_two_directions": "matmul",

	"numpy_convolve":           "convolution",
	"scipy_signal_convolve":    "convolution",
	"scipy_signal_convolve2d":  "convolution",
	"lax_conv_general_dilated": "convolution",

	"naive_attention":        "attention",
	"pallas_flash_attention": "attention",
	"splash_attention":       "attention",
	"flax_nnx_attention":     "attention",
	"flax_linen_attention":   "attention",
	"keras_attention":        "attention",

	"single_chip_hbm_copy": "hbm",
}

// allowedDtypes are the dtype strings the runner maps to array types.
var allowedDtypes = map[string]bool{
	"bfloat16": true,
	"float32":  true,
	"int32":    true,
}

// sameAsPrefix marks a parameter value that mirrors another parameter in the
// same set, e.g. "SAME_AS_matrix_dim".
const sameAsPrefix = "SAME_AS_"

// Document is the top-level benchmark configuration file.
type Document struct {
	Benchmarks []Benchmark `yaml:"benchmarks"`
}

// Benchmark describes one benchmark entry: a name, explicit parameter sets,
// and optional sweep definitions expanded into further parameter sets.
type Benchmark struct {
	Name        string                   `yaml:"benchmark_name"`
	Params      []map[string]interface{} `yaml:"benchmark_params"`
	SweepParams []map[string]interface{} `yaml:"benchmark_sweep_params"`

	CSVPath        string `yaml:"csv_path"`
	TraceDir       string `yaml:"trace_dir"`
	XLMLMetricsDir string `yaml:"xlml_metrics_dir"`
	XLADumpDir     string `yaml:"xla_dump_dir"`
}

// Load reads and decodes a benchmark configuration file.
func Load(fs afero.Fs, path string) (*Document, error) {
	content, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read benchmark config %q: %w", path, err)
	}

	var doc Document
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse benchmark config %q: %w", path, err)
	}
	return &doc, nil
}

// Validate checks every benchmark entry and its expanded parameter sets.
func (d *Document) Validate() error {
	if len(d.Benchmarks) == 0 {
		return fmt.Errorf("configuration must contain a non-empty 'benchmarks' list")
	}
	for i := range d.Benchmarks {
		if err := d.Benchmarks[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the benchmark name and all of its parameter sets.
func (b *Benchmark) Validate() error {
	if b.Name == "" {
		return fmt.Errorf("each benchmark must have a 'benchmark_name'")
	}
	if _, ok := knownBenchmarks[b.Name]; !ok {
		return fmt.Errorf("benchmark %q is not defined in the benchmark table", b.Name)
	}

	sets, err := b.ParameterSets()
	if err != nil {
		return err
	}
	for _, params := range sets {
		if err := validateParams(b.Name, params); err != nil {
			return err
		}
	}
	return nil
}

// Suite returns the suite a benchmark belongs to (collectives, matmul,
// convolution, attention, hbm).
func (b *Benchmark) Suite() string {
	return knownBenchmarks[b.Name]
}

// ParameterSets returns the explicit parameter sets followed by the sets
// generated from the sweep definitions.
func (b *Benchmark) ParameterSets() ([]map[string]interface{}, error) {
	sets := make([]map[string]interface{}, 0, len(b.Params))
	sets = append(sets, b.Params...)

	if len(b.SweepParams) > 0 {
		expanded, err := ExpandSweeps(b.SweepParams)
		if err != nil {
			return nil, fmt.Errorf("benchmark %q: %w", b.Name, err)
		}
		sets = append(sets, expanded...)
	}
	return sets, nil
}

// ExpandSweeps generates parameter sets by sweeping through the specified
// ranges. A key suffixed with "_range" has the suffix stripped; a mapping
// value with start/end and either multiplier or increase_by produces a
// progression; any other value contributes a single option. The cartesian
// product across keys yields the generated sets.
func ExpandSweeps(sweeps []map[string]interface{}) ([]map[string]interface{}, error) {
	var generated []map[string]interface{}

	for _, sweep := range sweeps {
		paramSets := map[string][]interface{}{}
		for key, value := range sweep {
			key = strings.TrimSuffix(key, "_range")

			rangeSpec, ok := value.(map[string]interface{})
			if !ok {
				paramSets[key] = []interface{}{value}
				continue
			}
			values, err := expandRange(key, rangeSpec)
			if err != nil {
				return nil, err
			}
			paramSets[key] = values
		}

		// Stable key order keeps generated sets deterministic.
		names := make([]string, 0, len(paramSets))
		for name := range paramSets {
			names = append(names, name)
		}
		sort.Strings(names)

		combos := []map[string]interface{}{{}}
		for _, name := range names {
			var next []map[string]interface{}
			for _, combo := range combos {
				for _, v := range paramSets[name] {
					merged := make(map[string]interface{}, len(combo)+1)
					for k, cv := range combo {
						merged[k] = cv
					}
					merged[name] = v
					next = append(next, merged)
				}
			}
			combos = next
		}
		generated = append(generated, combos...)
	}
	return generated, nil
}

func expandRange(key string, spec map[string]interface{}) ([]interface{}, error) {
	start, ok := toFloat(spec["start"])
	if !ok {
		return nil, fmt.Errorf("sweep range for %q missing numeric 'start'", key)
	}
	end, ok := toFloat(spec["end"])
	if !ok {
		return nil, fmt.Errorf("sweep range for %q missing numeric 'end'", key)
	}
	// A zero step counts as absent, as the runner treats it.
	multiplier, hasMultiplier := toFloat(spec["multiplier"])
	hasMultiplier = hasMultiplier && multiplier != 0
	increaseBy, hasIncrease := toFloat(spec["increase_by"])
	hasIncrease = hasIncrease && increaseBy != 0
	if !hasMultiplier && !hasIncrease {
		return nil, fmt.Errorf("sweep range for %q must provide either multiplier or increase_by", key)
	}

	var values []interface{}
	for current := start; current <= end; {
		values = append(values, normalizeNumber(current))
		next := current + increaseBy
		if hasMultiplier {
			next = current * multiplier
		}
		if next <= current {
			return nil, fmt.Errorf("sweep range for %q does not advance from %v", key, current)
		}
		current = next
	}
	return values, nil
}

// validateParams checks dtype values and SAME_AS references within one
// parameter set.
func validateParams(benchmarkName string, params map[string]interface{}) error {
	if dtype, present := params["dtype"]; present {
		s, isString := dtype.(string)
		if !isString || !allowedDtypes[s] {
			return fmt.Errorf("benchmark %q: unsupported dtype %v", benchmarkName, dtype)
		}
	}

	for key, value := range params {
		ref, ok := value.(string)
		if !ok || !strings.HasPrefix(ref, sameAsPrefix) {
			continue
		}
		target := strings.TrimPrefix(ref, sameAsPrefix)
		if _, exists := params[target]; !exists {
			return fmt.Errorf("benchmark %q: parameter %q references %q which is not in the parameter set",
				benchmarkName, key, target)
		}
	}
	return nil
}

// toFloat accepts the numeric types the YAML decoder produces.
func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// normalizeNumber keeps integral sweep values as ints so generated configs
// round-trip the way the runner expects.
func normalizeNumber(f float64) interface{} {
	if f == float64(int64(f)) {
		return int(f)
	}
	return f
}
