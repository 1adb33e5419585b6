package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/DevN0mad/TodoProgress/internal/models"
)

const (
	tasksSheet   = "Tasks"
	summarySheet = "Summary"
)

// ExportXLSX создает Excel файл с двумя листами: задачи и сводка.
func ExportXLSX(r models.ProgressReport, path string) error {
	return commitFile(path, func(w io.Writer) error {
		return WriteXLSX(w, r)
	})
}

// WriteXLSX пишет книгу Excel в w.
func WriteXLSX(w io.Writer, r models.ProgressReport) error {
	f, err := buildWorkbook(r)
	if err != nil {
		return err
	}
	defer f.Close()

	return f.Write(w)
}

func buildWorkbook(r models.ProgressReport) (*excelize.File, error) {
	f := excelize.NewFile()

	// Переименовываем дефолтный лист
	if err := f.SetSheetName("Sheet1", tasksSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	if err := setRow(f, tasksSheet, 1, toAny(CSVHeader)); err != nil {
		f.Close()
		return nil, err
	}

	for i, task := range r.Tasks {
		row := []any{r.Employee.ID, r.Employee.Name, task.Completed, task.Title}
		if err := setRow(f, tasksSheet, i+2, row); err != nil {
			f.Close()
			return nil, err
		}
	}

	for i, width := range []float64{10, 25, 25, 60} {
		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(tasksSheet, colName, colName, width)
	}

	summaryIndex, err := f.NewSheet(summarySheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create sheet: %w", err)
	}

	summary := [][]any{
		{"Employee", r.Employee.Name},
		{"Completed", r.CompletedCount()},
		{"Total", r.Total()},
	}
	for i, row := range summary {
		if err := setRow(f, summarySheet, i+1, row); err != nil {
			f.Close()
			return nil, err
		}
	}
	f.SetColWidth(summarySheet, "A", "B", 25)

	f.SetActiveSheet(summaryIndex)

	return f, nil
}

// setRow заполняет строку листа начиная с колонки A.
func setRow(f *excelize.File, sheet string, rowNum int, values []any) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, rowNum)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("set cell %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
