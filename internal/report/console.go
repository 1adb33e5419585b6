package report

import (
	"fmt"
	"io"

	"github.com/DevN0mad/TodoProgress/internal/models"
)

// Render формирует строки сводки для вывода в консоль.
func Render(r models.ProgressReport) []string {
	titles := r.CompletedTitles()

	lines := make([]string, 0, len(titles)+1)
	lines = append(lines, fmt.Sprintf("Employee %s is done with tasks(%d/%d):", r.Employee.Name, len(titles), r.Total()))
	for _, title := range titles {
		lines = append(lines, "\t "+title)
	}
	return lines
}

// WriteConsole пишет сводку построчно в w.
func WriteConsole(w io.Writer, r models.ProgressReport) error {
	for _, line := range Render(r) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}
	return nil
}
