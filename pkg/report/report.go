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

// Package report aggregates the JSONL metrics a benchmark run uploads to
// its GCS run directory and renders them as an Excel workbook.
package report

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// MetricsToReport are the metric columns included in the workbook, in sheet
// order.
var MetricsToReport = []string{
	"ici_bandwidth_gbyte_s_p50",
	"ici_bandwidth_gbyte_s_p90",
	"ici_bandwidth_gbyte_s_p95",
	"ici_bandwidth_gbyte_s_p99",
	"ici_bandwidth_gbyte_s_avg",
}

// dimensionKeys are the parameter names commonly used as the swept
// dimension, in preference order.
var dimensionKeys = []string{"m", "n", "dim", "size", "buffer_size", "dimension"}

var chipCountPattern = regexp.MustCompile(`-(\d+)$`)

// Record is one flattened benchmark measurement: the metadata and metrics
// maps of a JSONL line merged together.
type Record map[string]interface{}

// jsonlLine is the wire shape of one metrics line.
type jsonlLine struct {
	Metadata map[string]interface{} `json:"metadata"`
	Metrics  map[string]interface{} `json:"metrics"`
}

// ChipCount extracts the number of chips from a TPU type string such as
// v5p-256.
func ChipCount(tpuType string) (int, error) {
	match := chipCountPattern.FindStringSubmatch(tpuType)
	if match == nil {
		return 0, errors.Errorf("could not extract number of chips from TPU type %q", tpuType)
	}
	return strconv.Atoi(match[1])
}

// BenchmarkNameFromBlob recovers the benchmark name from a metrics blob
// name like microbenchmark_all_gather_2024-08-26T18:20:59Z.jsonl: the
// middle underscore-separated parts between the prefix and the timestamp.
func BenchmarkNameFromBlob(blobName string) (string, bool) {
	base := path.Base(blobName)
	base = strings.TrimSuffix(base, ".jsonl")
	parts := strings.Split(base, "_")
	if len(parts) < 3 {
		return "", false
	}
	return strings.Join(parts[1:len(parts)-1], "_"), true
}

// ParseJSONL decodes metrics lines into flattened records. Blank lines are
// skipped; a malformed line fails the whole parse.
func ParseJSONL(content []byte) ([]Record, error) {
	var records []Record
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var parsed jsonlLine
		if err := json.Unmarshal(line, &parsed); err != nil {
			return nil, errors.Wrapf(err, "failed to parse JSONL line %d", lineNo)
		}
		record := Record{}
		for k, v := range parsed.Metadata {
			record[k] = v
		}
		for k, v := range parsed.Metrics {
			record[k] = v
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to scan JSONL content")
	}
	return records, nil
}

// Dimension identifies the record column used for row labels.
type Dimension struct {
	Column  string
	Numeric bool
}

// DetectDimension picks the column that varies across records: the first of
// the well-known dimension keys with more than one unique value (or any
// value when only one record exists), falling back to any varying
// non-metric column.
func DetectDimension(records []Record) (Dimension, error) {
	if len(records) == 0 {
		return Dimension{}, errors.New("no records to detect a dimension column from")
	}

	metricSet := map[string]bool{}
	for _, m := range MetricsToReport {
		metricSet[m] = true
	}

	for _, key := range dimensionKeys {
		if !keyPresent(records, key) {
			continue
		}
		if uniqueCount(records, key) > 1 || len(records) == 1 {
			return Dimension{Column: key, Numeric: allNumeric(records, key)}, nil
		}
	}

	columnSet := map[string]bool{}
	for _, r := range records {
		for col := range r {
			columnSet[col] = true
		}
	}
	columns := make([]string, 0, len(columnSet))
	for col := range columnSet {
		columns = append(columns, col)
	}
	sort.Strings(columns)
	for _, col := range columns {
		if metricSet[col] {
			continue
		}
		if uniqueCount(records, col) > 1 {
			return Dimension{Column: col, Numeric: allNumeric(records, col)}, nil
		}
	}
	return Dimension{}, errors.New("could not identify a dimension column")
}

// SortByDimension orders records by the dimension column, numerically when
// possible.
func SortByDimension(records []Record, dim Dimension) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i][dim.Column], records[j][dim.Column]
		if dim.Numeric {
			af, _ := asFloat(a)
			bf, _ := asFloat(b)
			return af < bf
		}
		return fmt.Sprint(a) < fmt.Sprint(b)
	})
}

func keyPresent(records []Record, key string) bool {
	for _, r := range records {
		if _, ok := r[key]; ok {
			return true
		}
	}
	return false
}

func uniqueCount(records []Record, key string) int {
	seen := map[string]bool{}
	for _, r := range records {
		seen[fmt.Sprint(r[key])] = true
	}
	return len(seen)
}

func allNumeric(records []Record, key string) bool {
	for _, r := range records {
		if _, ok := asFloat(r[key]); !ok {
			return false
		}
	}
	return true
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
