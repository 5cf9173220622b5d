package report

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/docclass/internal/core/domain"
)

const (
	summarySheet = "Summary"
	samplesSheet = "Samples"
)

// EvaluationXLSX renders an evaluation report as a two-sheet workbook: the
// accuracy summary and one row per validation sample.
func EvaluationXLSX(report *domain.EvaluationReport) ([]byte, error) {
	if report == nil {
		return nil, fmt.Errorf("render evaluation report: %w", domain.ErrInvalidInput)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("rename summary sheet: %w", err)
	}
	rows := [][]any{
		{"Metric", "Value"},
		{"Accuracy", report.Accuracy},
		{"Correct predictions", report.CorrectPredictions},
		{"Total predictions", report.TotalPredictions},
	}
	for i, row := range rows {
		if err := setRow(f, summarySheet, i+1, row); err != nil {
			return nil, err
		}
	}
	_ = f.SetColWidth(summarySheet, "A", "A", 22)

	if _, err := f.NewSheet(samplesSheet); err != nil {
		return nil, fmt.Errorf("create samples sheet: %w", err)
	}
	if err := setRow(f, samplesSheet, 1, []any{"Text", "Expected", "Predicted", "Confidence", "Correct"}); err != nil {
		return nil, err
	}
	for i, s := range report.Samples {
		if err := setRow(f, samplesSheet, i+2, []any{s.Text, s.Expected, s.Predicted, s.Confidence, yesNo(s.Correct)}); err != nil {
			return nil, err
		}
	}
	_ = f.SetColWidth(samplesSheet, "A", "A", 80)
	_ = f.SetColWidth(samplesSheet, "B", "D", 14)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return bytes.Clone(buf.Bytes()), nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
