package excel

import (
	"fmt"

	"goqv/domain/qv"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Quantum Volume"

// ReportWriter exports a volume report as an xlsx workbook, one row per
// width, for sharing results outside the toolchain.
type ReportWriter struct{}

// NewReportWriter creates a report writer
func NewReportWriter() *ReportWriter {
	return &ReportWriter{}
}

// Write saves the report to the given path
func (w *ReportWriter) Write(report *qv.VolumeReport, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to drop default sheet: %w", err)
	}

	headers := []string{
		"Width", "Trials", "Total Shots", "Mean Heavy Fraction",
		"Sigma", "Lower Bound", "Confidence", "Pass", "Quantum Volume",
	}
	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to address header cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return fmt.Errorf("failed to write header %q: %w", h, err)
		}
	}

	for i, res := range report.Results {
		row := i + 2
		values := []interface{}{
			res.Width, res.Trials, res.TotalShots, res.MeanFraction,
			res.Sigma, res.LowerBound, res.Confidence, res.Pass, res.QuantumVolume,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return fmt.Errorf("failed to address cell: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return fmt.Errorf("failed to write row %d: %w", row, err)
			}
		}
	}

	summaryRow := len(report.Results) + 3
	cell, err := excelize.CoordinatesToCellName(1, summaryRow)
	if err != nil {
		return fmt.Errorf("failed to address summary cell: %w", err)
	}
	summary := fmt.Sprintf("Run %s achieved quantum volume %d", report.RunID, report.AchievedVolume)
	if err := f.SetCellValue(sheetName, cell, summary); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}
