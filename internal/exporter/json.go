package exporter

import (
	"encoding/json"
	"fmt"
	"io"

	"sheetpulse/pkg/contracts/domain"
)

// WriteJSON writes t as an indented array of records.
func WriteJSON(w io.Writer, t *domain.Table) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write records: %w", err)
	}
	return nil
}
