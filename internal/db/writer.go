package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Joshua-96/MVG-tracker/internal/models"
)

// FlushResult summarizes one persistence flush.
type FlushResult struct {
	FlushID    string
	Departures int
	Transfers  int
}

// Flush upserts the accumulated departures and bulk-inserts the computed
// transfer candidates in one transaction, then records a flush_log row.
// The departure upsert is idempotent on departure_id: rows already
// present only have delay_minutes and time_of_record updated; all other
// fields are immutable once first recorded. Transfer inserts ignore
// conflicts on the uniqueness key, so the earliest discovered match wins.
func (s *Store) Flush(ctx context.Context, departures []models.Departure, transfers []models.TransferCandidate) (FlushResult, error) {
	result := FlushResult{FlushID: uuid.New().String()}

	tx, err := s.conn.BeginTxx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	depStmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (
			departure_id, station_id, destination_id, line_id, label,
			product, planned_utc, delay_minutes, time_of_record_utc,
			cancelled, sev, platform, occupancy
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (departure_id) DO UPDATE SET
			delay_minutes = excluded.delay_minutes,
			time_of_record_utc = excluded.time_of_record_utc
	`, s.tables.Departures))
	if err != nil {
		return result, fmt.Errorf("failed to prepare departure statement: %w", err)
	}
	defer depStmt.Close()

	for _, dep := range departures {
		_, err := depStmt.ExecContext(ctx,
			dep.DepartureID, dep.StationID, dep.DestinationID, dep.Line.ID, dep.Line.Label,
			string(dep.Product), formatTime(dep.Planned), dep.DelayMinutes, formatTime(dep.TimeOfRecord),
			boolToInt(dep.Cancelled), boolToInt(dep.Sev), dep.Platform, dep.Occupancy,
		)
		if err != nil {
			return result, fmt.Errorf("failed to upsert departure %s: %w", dep.DepartureID, err)
		}
		result.Departures++
	}

	transStmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (
			station_id, planned_from_utc, line_from, delay_from,
			planned_to_utc, line_to, delay_to, destination_to, hour_bucket_utc
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (planned_from_utc, station_id, line_from, line_to) DO NOTHING
	`, s.tables.Transitions))
	if err != nil {
		return result, fmt.Errorf("failed to prepare transition statement: %w", err)
	}
	defer transStmt.Close()

	for _, cand := range transfers {
		res, err := transStmt.ExecContext(ctx,
			cand.StationID, formatTime(cand.PlannedFrom), cand.LineFrom, cand.DelayFrom,
			formatTime(cand.PlannedTo), cand.LineTo, cand.DelayTo, cand.DestinationTo,
			formatTime(cand.HourBucket),
		)
		if err != nil {
			return result, fmt.Errorf("failed to insert transition: %w", err)
		}
		if rows, err := res.RowsAffected(); err == nil {
			result.Transfers += int(rows)
		}
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO flush_log (flush_id, flushed_at_utc, departures_upserted, transfers_inserted) VALUES (?, ?, ?, ?)",
		result.FlushID, formatTime(time.Now()), result.Departures, result.Transfers,
	)
	if err != nil {
		return result, fmt.Errorf("failed to record flush: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return result, fmt.Errorf("failed to commit flush: %w", err)
	}
	return result, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
