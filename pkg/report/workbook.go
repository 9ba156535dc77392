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
	"bytes"
	"context"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/prishajain1/accelerator-microbenchmarks/pkg/gcs"
	"github.com/prishajain1/accelerator-microbenchmarks/pkg/logging"
)

// xlmlPrefix is the run-directory subfolder the remote runner uploads its
// JSONL metrics files into.
const xlmlPrefix = "xlml/"

// reportObjectName is the workbook's name inside the run directory.
const reportObjectName = "benchmark_report.xlsx"

// Excel sheet names are capped at 31 characters.
const maxSheetNameLen = 31

// objectStore is the slice of the GCS client the generator needs.
type objectStore interface {
	List(ctx context.Context, bucket, prefix string) ([]string, error)
	Download(ctx context.Context, p gcs.Path) ([]byte, error)
	Upload(ctx context.Context, p gcs.Path, content *bytes.Reader) error
}

// storeAdapter narrows *gcs.Client's io.Reader upload to the bytes.Reader
// the generator produces.
type storeAdapter struct {
	*gcs.Client
}

func (s storeAdapter) Upload(ctx context.Context, p gcs.Path, content *bytes.Reader) error {
	return s.Client.Upload(ctx, p, content)
}

// Generate scans <runDir>/xlml/ for JSONL metrics, builds the workbook and
// uploads it to <runDir>/benchmark_report.xlsx.
func Generate(ctx context.Context, client *gcs.Client, runDir, tpuType string) error {
	return generate(ctx, storeAdapter{client}, runDir, tpuType)
}

func generate(ctx context.Context, store objectStore, runDir, tpuType string) error {
	runPath, err := gcs.ParsePath(runDir)
	if err != nil {
		return err
	}
	numChips, err := ChipCount(tpuType)
	if err != nil {
		return err
	}

	metricsPrefix := runPath.Join(xlmlPrefix).Object
	logging.Info("Scanning for .jsonl files in gs://%s/%s", runPath.Bucket, metricsPrefix)
	blobs, err := store.List(ctx, runPath.Bucket, metricsPrefix)
	if err != nil {
		return err
	}

	benchmarkData := map[string][]Record{}
	for _, blob := range blobs {
		if !strings.HasSuffix(blob, ".jsonl") {
			continue
		}
		name, ok := BenchmarkNameFromBlob(blob)
		if !ok {
			logging.Info("Skipping blob with unexpected name: %s", blob)
			continue
		}
		content, err := store.Download(ctx, gcs.Path{Bucket: runPath.Bucket, Object: blob})
		if err != nil {
			return err
		}
		records, err := ParseJSONL(content)
		if err != nil {
			return errors.Wrapf(err, "blob %s", blob)
		}
		benchmarkData[name] = append(benchmarkData[name], records...)
	}
	if len(benchmarkData) == 0 {
		return errors.Errorf("no .jsonl metrics found under gs://%s/%s", runPath.Bucket, metricsPrefix)
	}

	workbook, err := BuildWorkbook(benchmarkData, numChips)
	if err != nil {
		return err
	}

	reportPath := runPath.Join(reportObjectName)
	logging.Info("Uploading report to %s", reportPath)
	if err := store.Upload(ctx, reportPath, bytes.NewReader(workbook)); err != nil {
		return err
	}
	logging.Info("Report generation complete.")
	return nil
}

// BuildWorkbook renders one sheet per benchmark: for each reported metric, a
// three-column group holding the dimension values, the metric values and a
// spacer, with the metric name merged across the first two columns.
func BuildWorkbook(benchmarkData map[string][]Record, numChips int) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create header style")
	}

	names := make([]string, 0, len(benchmarkData))
	for name := range benchmarkData {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		records := benchmarkData[name]
		if len(records) == 0 {
			continue
		}

		dim, err := DetectDimension(records)
		if err != nil {
			logging.Info("Skipping benchmark %q: %v", name, err)
			continue
		}
		logging.Info("Using %q as dimension column for %q", dim.Column, name)
		SortByDimension(records, dim)

		sheet := sheetName(name)
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, errors.Wrapf(err, "failed to create sheet %q", sheet)
		}
		if err := writeSheet(f, sheet, records, dim, numChips, headerStyle); err != nil {
			return nil, errors.Wrapf(err, "failed to write sheet %q", sheet)
		}
	}

	// Drop excelize's default sheet; benchmarks provide the real ones.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, errors.Wrap(err, "failed to remove default sheet")
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "failed to serialize workbook")
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, records []Record, dim Dimension, numChips, headerStyle int) error {
	group := 0
	for _, metric := range MetricsToReport {
		if !metricPresent(records, metric) {
			continue
		}
		colStart := 1 + group*3
		group++

		headerCell, err := excelize.CoordinatesToCellName(colStart, 1)
		if err != nil {
			return err
		}
		headerEnd, err := excelize.CoordinatesToCellName(colStart+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, headerCell, metric); err != nil {
			return err
		}
		if err := f.MergeCell(sheet, headerCell, headerEnd); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, headerCell, headerEnd, headerStyle); err != nil {
			return err
		}

		dimHeader, err := excelize.CoordinatesToCellName(colStart, 2)
		if err != nil {
			return err
		}
		chipHeader, err := excelize.CoordinatesToCellName(colStart+1, 2)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, dimHeader, dim.Column+`\TPUs`); err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, chipHeader, numChips); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, dimHeader, chipHeader, headerStyle); err != nil {
			return err
		}

		for rowIdx, record := range records {
			metricVal, present := record[metric]
			if !present {
				continue
			}
			dimCell, err := excelize.CoordinatesToCellName(colStart, rowIdx+3)
			if err != nil {
				return err
			}
			valCell, err := excelize.CoordinatesToCellName(colStart+1, rowIdx+3)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, dimCell, record[dim.Column]); err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, valCell, metricVal); err != nil {
				return err
			}
		}

		// Size both columns of the group to the merged header's content.
		width := float64(len(metric)) + 2
		colName, err := excelize.ColumnNumberToName(colStart)
		if err != nil {
			return err
		}
		valColName, err := excelize.ColumnNumberToName(colStart + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, colName, valColName, width); err != nil {
			return err
		}
	}
	return nil
}

// metricPresent reports whether any record carries the metric, so sheets
// only get column groups for metrics the run actually produced.
func metricPresent(records []Record, metric string) bool {
	for _, r := range records {
		if _, ok := r[metric]; ok {
			return true
		}
	}
	return false
}

func sheetName(benchmarkName string) string {
	if len(benchmarkName) <= maxSheetNameLen {
		return benchmarkName
	}
	return benchmarkName[:maxSheetNameLen]
}
