// Package sources loads the raw inputs of an analysis run: the Google
// Trends workbook, FRED series exports and retail transaction logs.
package sources

import (
	"errors"
	"io/fs"
	"os"

	apperrors "littleluxuries/internal/errors"
)

// ErrSourceNotFound marks an input file that does not exist. Optional
// sources are skipped when it is returned.
var ErrSourceNotFound = errors.New("source not found")

// notFound converts a missing-file error into a NOT_FOUND AppError
func notFound(resource, path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return apperrors.NewNotFoundError(resource, ErrSourceNotFound).WithContext("path", path)
	}
	return apperrors.NewStorageError("failed to open "+resource, err).WithContext("path", path)
}

func statSource(resource, path string) error {
	if _, err := os.Stat(path); err != nil {
		return notFound(resource, path, err)
	}
	return nil
}
