package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/DevN0mad/TodoProgress/internal/models"
)

// CSVHeader заголовок файла выгрузки.
var CSVHeader = []string{"USER_ID", "USERNAME", "TASK_COMPLETED_STATUS", "TASK_TITLE"}

// ExportCSV выгружает все задачи отчета в CSV файл по пути path.
// Существующий файл перезаписывается целиком.
func ExportCSV(r models.ProgressReport, path string) error {
	return commitFile(path, func(w io.Writer) error {
		return WriteCSV(w, r)
	})
}

// WriteCSV пишет заголовок и строки задач в w.
func WriteCSV(w io.Writer, r models.ProgressReport) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true

	if err := cw.Write(CSVHeader); err != nil {
		return err
	}

	userID := strconv.Itoa(r.Employee.ID)
	for _, task := range r.Tasks {
		if err := cw.Write([]string{userID, r.Employee.Name, formatStatus(task.Completed), task.Title}); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// formatStatus статус задачи в виде True/False.
func formatStatus(completed bool) string {
	if completed {
		return "True"
	}
	return "False"
}
