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

package report

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestChipCount(t *testing.T) {
	cases := []struct {
		tpuType string
		want    int
		wantErr bool
	}{
		{"v5p-256", 256, false},
		{"v5litepod-16", 16, false},
		{"v4-8", 8, false},
		{"v5p", 0, true},
		{"v5p-", 0, true},
	}
	for _, tc := range cases {
		got, err := ChipCount(tc.tpuType)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ChipCount(%q) = %d, want error", tc.tpuType, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ChipCount(%q) failed: %v", tc.tpuType, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ChipCount(%q) = %d, want %d", tc.tpuType, got, tc.want)
		}
	}
}

func TestBenchmarkNameFromBlob(t *testing.T) {
	cases := []struct {
		blob string
		want string
		ok   bool
	}{
		{"run/xlml/microbenchmark_all_gather_2024-08-26T18:20:59Z.jsonl", "all_gather", true},
		{"microbenchmark_single_chip_hbm_copy_2024-08-26T18:20:59Z.jsonl", "single_chip_hbm_copy", true},
		{"metrics.jsonl", "", false},
	}
	for _, tc := range cases {
		got, ok := BenchmarkNameFromBlob(tc.blob)
		if ok != tc.ok || got != tc.want {
			t.Errorf("BenchmarkNameFromBlob(%q) = (%q, %v), want (%q, %v)",
				tc.blob, got, ok, tc.want, tc.ok)
		}
	}
}

func TestParseJSONL(t *testing.T) {
	content := []byte(`{"metadata": {"benchmark_name": "all_gather", "matrix_dim": 1024}, "metrics": {"ici_bandwidth_gbyte_s_p50": 135.2}}

{"metadata": {"benchmark_name": "all_gather", "matrix_dim": 2048}, "metrics": {"ici_bandwidth_gbyte_s_p50": 180.7}}
`)
	records, err := ParseJSONL(content)
	if err != nil {
		t.Fatalf("ParseJSONL failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	want := Record{
		"benchmark_name":            "all_gather",
		"matrix_dim":                float64(1024),
		"ici_bandwidth_gbyte_s_p50": 135.2,
	}
	if diff := cmp.Diff(want, records[0]); diff != "" {
		t.Errorf("First record mismatch (-want +got):\n%s", diff)
	}
}

func TestParseJSONLMalformedLine(t *testing.T) {
	_, err := ParseJSONL([]byte("{not json}\n"))
	if err == nil {
		t.Fatal("Expected an error for a malformed line")
	}
}

func TestDetectDimensionKnownKey(t *testing.T) {
	records := []Record{
		{"matrix_dim": float64(1024), "size": float64(8), "ici_bandwidth_gbyte_s_p50": 1.0},
		{"matrix_dim": float64(2048), "size": float64(16), "ici_bandwidth_gbyte_s_p50": 2.0},
	}
	dim, err := DetectDimension(records)
	if err != nil {
		t.Fatalf("DetectDimension failed: %v", err)
	}
	if dim.Column != "size" {
		t.Errorf("Expected the preferred known key, got %q", dim.Column)
	}
	if !dim.Numeric {
		t.Error("Expected a numeric dimension")
	}
}

func TestDetectDimensionFallback(t *testing.T) {
	records := []Record{
		{"matrix_dim": float64(1024), "ici_bandwidth_gbyte_s_p50": 1.0},
		{"matrix_dim": float64(2048), "ici_bandwidth_gbyte_s_p50": 2.0},
	}
	dim, err := DetectDimension(records)
	if err != nil {
		t.Fatalf("DetectDimension failed: %v", err)
	}
	if dim.Column != "matrix_dim" {
		t.Errorf("Expected the varying non-metric column, got %q", dim.Column)
	}
}

func TestDetectDimensionKeyMissingFromFirstRecord(t *testing.T) {
	records := []Record{
		{"matrix_dim": float64(1024), "ici_bandwidth_gbyte_s_p50": 1.0},
		{"matrix_dim": float64(2048), "size": float64(8), "ici_bandwidth_gbyte_s_p50": 2.0},
		{"matrix_dim": float64(4096), "size": float64(16), "ici_bandwidth_gbyte_s_p50": 3.0},
	}
	dim, err := DetectDimension(records)
	if err != nil {
		t.Fatalf("DetectDimension failed: %v", err)
	}
	if dim.Column != "size" {
		t.Errorf("Expected the known key found in later records, got %q", dim.Column)
	}
}

func TestDetectDimensionSingleRecord(t *testing.T) {
	records := []Record{
		{"size": float64(8), "ici_bandwidth_gbyte_s_p50": 1.0},
	}
	dim, err := DetectDimension(records)
	if err != nil {
		t.Fatalf("DetectDimension failed: %v", err)
	}
	if dim.Column != "size" {
		t.Errorf("Expected the known key for a single record, got %q", dim.Column)
	}
}

func TestDetectDimensionNoRecords(t *testing.T) {
	if _, err := DetectDimension(nil); err == nil {
		t.Fatal("Expected an error for empty input")
	}
}

func TestSortByDimensionNumeric(t *testing.T) {
	records := []Record{
		{"size": float64(100)},
		{"size": float64(20)},
		{"size": float64(3)},
	}
	SortByDimension(records, Dimension{Column: "size", Numeric: true})

	var got []float64
	for _, r := range records {
		got = append(got, r["size"].(float64))
	}
	want := []float64{3, 20, 100}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Sort order mismatch (-want +got):\n%s", diff)
	}
}
