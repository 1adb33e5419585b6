package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/DevN0mad/TodoProgress/internal/models"
)

// commitFile пишет содержимое во временный файл рядом с path и
// переименовывает его поверх path. При ошибке path не меняется.
func commitFile(path string, write func(w io.Writer) error) (err error) {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &models.WriteError{Path: path, Err: err}
	}
	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	if err := write(tmp); err != nil {
		return &models.WriteError{Path: path, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		return &models.WriteError{Path: path, Err: fmt.Errorf("sync: %w", err)}
	}
	if err := tmp.Close(); err != nil {
		return &models.WriteError{Path: path, Err: fmt.Errorf("close: %w", err)}
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return &models.WriteError{Path: path, Err: fmt.Errorf("chmod: %w", err)}
	}
	if err := os.Rename(tmpName, path); err != nil {
		return &models.WriteError{Path: path, Err: fmt.Errorf("rename: %w", err)}
	}
	return nil
}
