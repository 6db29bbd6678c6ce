package db

import (
	"context"
	"fmt"

	"github.com/Joshua-96/MVG-tracker/internal/models"
)

// LoadStations reads the static station table in stored order.
func (s *Store) LoadStations(ctx context.Context) ([]models.Station, error) {
	var stations []models.Station
	query := fmt.Sprintf(
		"SELECT station_id, name, direction FROM %s ORDER BY rowid", s.tables.Stations)
	if err := s.conn.SelectContext(ctx, &stations, query); err != nil {
		return nil, fmt.Errorf("failed to load stations: %w", err)
	}
	return stations, nil
}

// LoadLines reads the line label bindings.
func (s *Store) LoadLines(ctx context.Context) ([]models.Line, error) {
	var lines []models.Line
	query := fmt.Sprintf("SELECT label, line_id FROM %s", s.tables.Lines)
	if err := s.conn.SelectContext(ctx, &lines, query); err != nil {
		return nil, fmt.Errorf("failed to load lines: %w", err)
	}
	return lines, nil
}
