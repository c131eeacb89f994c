package exporter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	apperrors "incomefit/internal/errors"
)

// WriteJSON marshals payload with indentation and writes it to filePath,
// creating parent directories as needed.
func WriteJSON(filePath string, payload any) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to create directory %s", dir), err)
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to marshal %s", filePath), err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to write %s", filePath), err)
	}
	return nil
}
