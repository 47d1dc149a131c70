// Package validation checks the input files of a run before any step reads
// them, so a missing or malformed source fails fast with a typed error.
package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "littleluxuries/internal/errors"
)

// InputValidator checks source files and directories
type InputValidator struct {
	logger *slog.Logger
}

// NewInputValidator creates a new input validator
func NewInputValidator(logger *slog.Logger) *InputValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &InputValidator{logger: logger}
}

// ValidateFile checks that path is a readable, non-empty regular file. A
// missing file is a NOT_FOUND error; anything else wrong is a VALIDATION
// error.
func (v *InputValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return apperrors.NewNotFoundError(path, err)
	}
	if err != nil {
		return apperrors.NewStorageError("failed to stat "+path, err)
	}
	if info.IsDir() {
		return apperrors.NewValidationError(fmt.Sprintf("%s is a directory, not a file", path))
	}
	if info.Size() == 0 {
		return apperrors.NewValidationError(fmt.Sprintf("%s is empty", path))
	}

	file, err := os.Open(path)
	if err != nil {
		return apperrors.NewStorageError(path+" is not readable", err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateWorkbook checks an Excel workbook. Office lock files (~$name)
// are rejected.
func (v *InputValidator) ValidateWorkbook(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".xlsx" && ext != ".xlsm" {
		return apperrors.NewValidationError(fmt.Sprintf("%s is not an Excel workbook (extension %q)", path, ext))
	}
	if strings.HasPrefix(filepath.Base(path), "~$") {
		return apperrors.NewValidationError(fmt.Sprintf("%s is a temporary Excel file", path))
	}
	return nil
}

// ValidateCSV checks a CSV input file
func (v *InputValidator) ValidateCSV(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".csv" {
		return apperrors.NewValidationError(fmt.Sprintf("%s is not a CSV file (extension %q)", path, ext))
	}
	return nil
}

// SeriesFiles reports which <dir>/<id>.csv files exist. A missing
// directory is an error; missing series are only returned.
func (v *InputValidator) SeriesFiles(dir string, ids []string) (found, missing []string, err error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, nil, apperrors.NewNotFoundError("sources directory "+dir, err)
	}
	if err != nil {
		return nil, nil, apperrors.NewStorageError("failed to stat "+dir, err)
	}
	if !info.IsDir() {
		return nil, nil, apperrors.NewValidationError(fmt.Sprintf("%s is not a directory", dir))
	}

	for _, id := range ids {
		if err := v.ValidateCSV(filepath.Join(dir, id+".csv")); err != nil {
			missing = append(missing, id)
			continue
		}
		found = append(found, id)
	}
	if len(missing) > 0 {
		v.logger.Warn("Series files missing",
			slog.String("directory", dir),
			slog.Any("missing", missing))
	}
	return found, missing, nil
}

// ValidateOutputDirectory ensures dir exists and is writable
func (v *InputValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return apperrors.NewStorageError("failed to create output directory "+dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".write_test_*")
	if err != nil {
		return apperrors.NewStorageError("output directory "+dir+" is not writable", err)
	}
	name := tmp.Name()
	tmp.Close()
	os.Remove(name)

	v.logger.Debug("Output directory validated", slog.String("directory", dir))
	return nil
}
