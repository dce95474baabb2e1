// Package export writes batches of classification results as JSON lines,
// CSV or XLSX.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"
	"go.uber.org/multierr"

	"github.com/hamed0406/domainclassifier/internal/probe"
)

const SheetName = "Results"

var header = []string{"domain", "status", "remark", "notes", "http_status", "words", "latency_ms", "cause"}

func row(r probe.Result) []string {
	hs := ""
	if r.HTTPStatus != 0 {
		hs = strconv.Itoa(r.HTTPStatus)
	}
	return []string{
		r.Domain,
		r.Status.String(),
		r.Remark,
		r.Notes,
		hs,
		strconv.Itoa(r.Words),
		strconv.FormatFloat(r.LatencyMS, 'f', 1, 64),
		r.Cause,
	}
}

// WriteJSONL writes one JSON object per result.
func WriteJSONL(w io.Writer, results []probe.Result) error {
	enc := json.NewEncoder(w)
	for i := range results {
		if err := enc.Encode(results[i]); err != nil {
			return fmt.Errorf("encode %s: %w", results[i].Domain, err)
		}
	}
	return nil
}

// WriteCSV writes a header row followed by one row per result.
func WriteCSV(w io.Writer, results []probe.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range results {
		if err := cw.Write(row(r)); err != nil {
			return fmt.Errorf("write %s: %w", r.Domain, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX renders results into a single-sheet workbook. Numeric columns are
// stored as numbers so they sort in a spreadsheet.
func WriteXLSX(w io.Writer, results []probe.Result) (err error) {
	f := excelize.NewFile()
	defer func() { err = multierr.Append(err, f.Close()) }()

	if err = f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}
	cells := make([]any, len(header))
	for i, h := range header {
		cells[i] = h
	}
	if err = f.SetSheetRow(SheetName, "A1", &cells); err != nil {
		return err
	}
	for i, r := range results {
		cell, cerr := excelize.CoordinatesToCellName(1, i+2)
		if cerr != nil {
			return cerr
		}
		var hs any
		if r.HTTPStatus != 0 {
			hs = r.HTTPStatus
		}
		vals := []any{r.Domain, r.Status.String(), r.Remark, r.Notes, hs, r.Words, r.LatencyMS, r.Cause}
		if err = f.SetSheetRow(SheetName, cell, &vals); err != nil {
			return fmt.Errorf("row %d: %w", i+2, err)
		}
	}
	if err = f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}
	_, err = f.WriteTo(w)
	return err
}

// Write dispatches on format: "jsonl", "csv" or "xlsx".
func Write(w io.Writer, format string, results []probe.Result) error {
	switch format {
	case "jsonl", "":
		return WriteJSONL(w, results)
	case "csv":
		return WriteCSV(w, results)
	case "xlsx":
		return WriteXLSX(w, results)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
