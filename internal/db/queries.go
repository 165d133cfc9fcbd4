package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Dwtexe/cursor-stats/internal/logger"
	"github.com/Dwtexe/cursor-stats/internal/models"
)

const timeLayout = "2006-01-02 15:04:05"

// InsertSnapshot persists one usage reading.
func (db *DB) InsertSnapshot(snapshot *models.Snapshot) error {
	query := `
		INSERT INTO usage_snapshots (
			taken_at, month, year, total_cents, unpaid_cents,
			mid_month_cents, premium_used, premium_limit
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	takenAt := snapshot.TakenAt
	if takenAt.IsZero() {
		takenAt = time.Now()
	}

	result, err := db.ExecContext(context.Background(), query,
		takenAt.UTC().Format(timeLayout),
		snapshot.Month,
		snapshot.Year,
		snapshot.TotalCents,
		snapshot.UnpaidCents,
		snapshot.MidMonthCents,
		snapshot.PremiumUsed,
		snapshot.PremiumLimit,
	)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	id, err := result.LastInsertId()
	if err == nil {
		snapshot.ID = id
	}

	return nil
}

// LatestSnapshot returns the most recent reading, or nil when the table is
// empty.
func (db *DB) LatestSnapshot() (*models.Snapshot, error) {
	query := `
		SELECT id, taken_at, month, year, total_cents, unpaid_cents,
			   mid_month_cents, premium_used, premium_limit
		FROM usage_snapshots
		ORDER BY taken_at DESC, id DESC
		LIMIT 1
	`

	var s models.Snapshot
	err := db.QueryRowContext(context.Background(), query).Scan(
		&s.ID,
		&s.TakenAt,
		&s.Month,
		&s.Year,
		&s.TotalCents,
		&s.UnpaidCents,
		&s.MidMonthCents,
		&s.PremiumUsed,
		&s.PremiumLimit,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest snapshot: %w", err)
	}

	return &s, nil
}

// SnapshotsForPeriod returns all readings for one billing period in
// chronological order.
func (db *DB) SnapshotsForPeriod(month, year int) ([]models.Snapshot, error) {
	query := `
		SELECT id, taken_at, month, year, total_cents, unpaid_cents,
			   mid_month_cents, premium_used, premium_limit
		FROM usage_snapshots
		WHERE month = ? AND year = ?
		ORDER BY taken_at ASC, id ASC
	`

	rows, err := db.QueryContext(context.Background(), query, month, year)
	if err != nil {
		return nil, fmt.Errorf("failed to query period snapshots: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("failed to close rows", "error", err)
		}
	}()

	var snapshots []models.Snapshot
	for rows.Next() {
		var s models.Snapshot
		err := rows.Scan(
			&s.ID,
			&s.TakenAt,
			&s.Month,
			&s.Year,
			&s.TotalCents,
			&s.UnpaidCents,
			&s.MidMonthCents,
			&s.PremiumUsed,
			&s.PremiumLimit,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snapshots = append(snapshots, s)
	}

	return snapshots, rows.Err()
}

// DailyUsage rolls snapshots up to one row per day over the given window.
// Totals only grow within a period, so MAX per day is the closing value.
func (db *DB) DailyUsage(days int) ([]models.DailyUsage, error) {
	query := `
		SELECT
			strftime('%Y-%m-%d', taken_at) as day,
			MAX(total_cents) as total_cents,
			MAX(unpaid_cents) as unpaid_cents,
			MAX(premium_used) as premium_used
		FROM usage_snapshots
		WHERE taken_at >= datetime('now', ?)
		GROUP BY day
		ORDER BY day ASC
	`

	rows, err := db.QueryContext(context.Background(), query, fmt.Sprintf("-%d days", days))
	if err != nil {
		return nil, fmt.Errorf("failed to query daily usage: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("failed to close rows", "error", err)
		}
	}()

	var usage []models.DailyUsage
	for rows.Next() {
		var u models.DailyUsage
		var dayStr string

		err := rows.Scan(&dayStr, &u.TotalCents, &u.UnpaidCents, &u.PremiumUsed)
		if err != nil {
			return nil, fmt.Errorf("failed to scan daily usage: %w", err)
		}

		u.Day, _ = time.Parse("2006-01-02", dayStr)
		usage = append(usage, u)
	}

	return usage, rows.Err()
}

// InsertAlert records a fired threshold alert.
func (db *DB) InsertAlert(alert *models.AlertRecord) error {
	query := `
		INSERT INTO alerts (fired_at, axis, threshold, message)
		VALUES (?, ?, ?, ?)
	`

	firedAt := alert.FiredAt
	if firedAt.IsZero() {
		firedAt = time.Now()
	}

	result, err := db.ExecContext(context.Background(), query,
		firedAt.UTC().Format(timeLayout),
		string(alert.Axis),
		alert.Threshold,
		alert.Message,
	)
	if err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}

	id, err := result.LastInsertId()
	if err == nil {
		alert.ID = id
	}

	return nil
}

// RecentAlerts returns the most recently fired alerts, newest first.
func (db *DB) RecentAlerts(limit int) ([]models.AlertRecord, error) {
	query := `
		SELECT id, fired_at, axis, threshold, message
		FROM alerts
		ORDER BY fired_at DESC, id DESC
		LIMIT ?
	`

	rows, err := db.QueryContext(context.Background(), query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent alerts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var alerts []models.AlertRecord
	for rows.Next() {
		var a models.AlertRecord
		var axis string

		err := rows.Scan(&a.ID, &a.FiredAt, &axis, &a.Threshold, &a.Message)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}

		a.Axis = models.AlertAxis(axis)
		alerts = append(alerts, a)
	}

	return alerts, rows.Err()
}

// PruneBefore deletes snapshots and alerts older than the retention
// window and reports how many rows went away.
func (db *DB) PruneBefore(olderThanDays int) (int64, error) {
	windowStr := fmt.Sprintf("-%d days", olderThanDays)

	snapshots, err := db.ExecContext(context.Background(),
		`DELETE FROM usage_snapshots WHERE taken_at < datetime('now', ?)`, windowStr)
	if err != nil {
		return 0, fmt.Errorf("failed to prune snapshots: %w", err)
	}
	pruned, _ := snapshots.RowsAffected()

	alerts, err := db.ExecContext(context.Background(),
		`DELETE FROM alerts WHERE fired_at < datetime('now', ?)`, windowStr)
	if err != nil {
		return pruned, fmt.Errorf("failed to prune alerts: %w", err)
	}
	n, _ := alerts.RowsAffected()

	return pruned + n, nil
}
