package database

import (
	"context"
	"database/sql"
	"fmt"

	"vpn-speedtest/pkg/models"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

type DB struct {
	*bun.DB
}

// NewDB opens a Postgres connection for dsn and checks that it is reachable.
func NewDB(dsn string) (*DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))

	db := New(sqldb)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %v", err)
	}

	return db, nil
}

// New wraps an already opened connection pool.
func New(sqldb *sql.DB) *DB {
	return &DB{bun.NewDB(sqldb, pgdialect.New())}
}

// InitSchema creates the run history tables if they don't exist
func (db *DB) InitSchema(ctx context.Context) error {
	_, err := db.NewCreateTable().
		Model((*models.RunRecord)(nil)).
		IfNotExists().
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to create runs table: %v", err)
	}

	_, err = db.NewCreateTable().
		Model((*models.LocationRecord)(nil)).
		IfNotExists().
		ForeignKey(`("run_id") REFERENCES "speed_runs" ("id") ON DELETE CASCADE`).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to create locations table: %v", err)
	}

	return nil
}

// SaveReport stores a finished run and its location results in one transaction.
func (db *DB) SaveReport(ctx context.Context, report models.RunReport) error {
	rec := models.NewRunRecord(report)

	err := db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(rec).Exec(ctx); err != nil {
			return fmt.Errorf("error inserting run: %w", err)
		}
		if len(rec.Locations) == 0 {
			return nil
		}
		if _, err := tx.NewInsert().Model(&rec.Locations).Exec(ctx); err != nil {
			return fmt.Errorf("error inserting location results: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("error saving run %s: %w", report.RunID, err)
	}

	return nil
}

// RecentRuns returns up to limit runs, newest first, with their locations in
// configured order.
func (db *DB) RecentRuns(ctx context.Context, limit int) ([]models.RunReport, error) {
	var runs []models.RunRecord
	err := db.NewSelect().
		Model(&runs).
		Relation("Locations", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("sl.position ASC")
		}).
		Order("sr.started_at DESC").
		Limit(limit).
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("error getting recent runs: %v", err)
	}

	reports := make([]models.RunReport, 0, len(runs))
	for i := range runs {
		reports = append(reports, runs[i].Report())
	}
	return reports, nil
}
