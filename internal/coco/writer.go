package coco

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Encode writes ds as compact JSON with no whitespace between tokens
// and no trailing newline.
func Encode(w io.Writer, ds *Dataset) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(ds); err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}

	if _, err := w.Write(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))); err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}
	return nil
}

// WriteFile replaces the file at path with the encoded dataset.
func WriteFile(path string, ds *Dataset) error {
	var buf bytes.Buffer
	if err := Encode(&buf, ds); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil { //nolint:gosec // G306: output is meant to be shared
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// ReadFile loads a dataset previously written by WriteFile.
func ReadFile(path string) (*Dataset, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: reading a user-selected dataset path is expected
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}
	var ds Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("failed to parse dataset: %w", err)
	}
	return &ds, nil
}
