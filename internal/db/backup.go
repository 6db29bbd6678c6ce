package db

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// Backup exports the full departures table to
// <backup_dir>/<table>.csv with a header row. Re-running it overwrites
// the previous export.
func (s *Store) Backup(ctx context.Context) error {
	if err := os.MkdirAll(s.backupDir, 0o755); err != nil {
		return fmt.Errorf("failed to create backup dir: %w", err)
	}

	rows, err := s.conn.QueryxContext(ctx,
		fmt.Sprintf("SELECT * FROM %s ORDER BY planned_utc, departure_id", s.tables.Departures))
	if err != nil {
		return fmt.Errorf("failed to read departures for backup: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("failed to read backup columns: %w", err)
	}

	path := filepath.Join(s.backupDir, s.tables.Departures+".csv")
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(columns); err != nil {
		return fmt.Errorf("failed to write backup header: %w", err)
	}

	record := make([]string, len(columns))
	count := 0
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return fmt.Errorf("failed to scan backup row: %w", err)
		}
		for i, v := range values {
			record[i] = formatValue(v)
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write backup row: %w", err)
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("backup row iteration failed: %w", err)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush backup file: %w", err)
	}

	s.logger.Printf("Backup: exported %d departures to %s", count, path)
	return nil
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
