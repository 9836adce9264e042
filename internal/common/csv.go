package common

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"fjacquet/txn-import/internal/models"

	"github.com/gocarina/gocsv"
)

// ReadCSV reads CSV rows into a slice of structs tagged with `csv`.
func ReadCSV[T any](r io.Reader, delimiter rune) ([]T, error) {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1

	var rows []T
	if err := gocsv.UnmarshalCSV(reader, &rows); err != nil {
		return nil, fmt.Errorf("error parsing CSV data: %w", err)
	}
	return rows, nil
}

// ReadCSVFile reads the CSV file at path.
func ReadCSVFile[T any](path string, delimiter rune) ([]T, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening CSV file: %w", err)
	}
	defer file.Close()
	return ReadCSV[T](file, delimiter)
}

// MarshalCSV writes rows with a header line to w.
func MarshalCSV[T any](rows []T, w io.Writer, delimiter rune) error {
	if rows == nil {
		rows = []T{}
	}
	writer := csv.NewWriter(w)
	writer.Comma = delimiter
	if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(writer)); err != nil {
		return fmt.Errorf("error writing CSV data: %w", err)
	}
	return nil
}

// WriteCSV writes rows to path, creating its directory when needed. A path
// of "-" writes to stdout.
func WriteCSV[T any](rows []T, path string, delimiter rune) error {
	if path == "-" {
		return MarshalCSV(rows, os.Stdout, delimiter)
	}

	if err := os.MkdirAll(filepath.Dir(path), models.PermissionDirectory); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}
	// #nosec G304 -- output path comes from the command line
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, models.PermissionReportFile)
	if err != nil {
		return fmt.Errorf("error creating CSV file: %w", err)
	}
	if err := MarshalCSV(rows, file, delimiter); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}
