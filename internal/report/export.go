package report

import (
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/DevN0mad/TodoProgress/internal/models"
)

// Format формат файла выгрузки.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Formats поддерживаемые форматы выгрузки.
var Formats = []Format{FormatCSV, FormatXLSX}

// ParseFormat разбирает название формата без учета регистра.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", &models.InvalidArgumentError{Value: s, Reason: "unknown export format"}
}

// FileName имя файла выгрузки для сотрудника, например 1.csv.
func (f Format) FileName(employeeID int) string {
	return strconv.Itoa(employeeID) + "." + string(f)
}

// ContentType MIME тип файла выгрузки.
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv; charset=utf-8"
	}
}

// Export сохраняет отчет в каталог dir в выбранном формате и возвращает путь к файлу.
func Export(r models.ProgressReport, format Format, dir string) (string, error) {
	path := filepath.Join(dir, format.FileName(r.Employee.ID))

	var err error
	switch format {
	case FormatCSV:
		err = ExportCSV(r, path)
	case FormatXLSX:
		err = ExportXLSX(r, path)
	default:
		return "", &models.InvalidArgumentError{Value: string(format), Reason: "unknown export format"}
	}
	if err != nil {
		return "", err
	}
	return path, nil
}

// Write пишет отчет в w в выбранном формате.
func Write(w io.Writer, r models.ProgressReport, format Format) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, r)
	case FormatXLSX:
		return WriteXLSX(w, r)
	default:
		return &models.InvalidArgumentError{Value: string(format), Reason: "unknown export format"}
	}
}
