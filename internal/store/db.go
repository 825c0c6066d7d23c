// Package store loads combined training datasets into Postgres for
// downstream model work. The pipeline's terminal artifact stays the CSV;
// this sink is an optional export step.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/baxromumarov/fbref-downloader/internal/clean"
	"github.com/lib/pq"
)

type Store struct {
	db *sql.DB
}

func NewStore(connStr string) (*Store, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) RunMigrations(schemaPath string) error {
	content, err := os.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("failed to read schema file: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, string(content)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	return nil
}

// InsertMatches bulk-loads records into training_matches in a single
// transaction via COPY.
func (s *Store) InsertMatches(ctx context.Context, records []clean.MatchRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("training_matches",
		"match_date", "comp", "venue", "result",
		"gf", "ga", "xg", "xga", "poss",
		"opponent", "team", "season",
		"goal_diff", "xg_diff", "outcome",
	))
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare copy: %w", err)
	}

	for _, rec := range records {
		_, err := stmt.ExecContext(ctx,
			rec.Date,
			rec.Comp,
			rec.Venue,
			rec.Result,
			nullable(rec.GF),
			nullable(rec.GA),
			nullable(rec.XG),
			nullable(rec.XGA),
			nullable(rec.Poss),
			rec.Opponent,
			rec.Team,
			rec.Season,
			nullable(rec.GoalDiff),
			nullable(rec.XGDiff),
			nullString(rec.Outcome),
		)
		if err != nil {
			stmt.Close()
			tx.Rollback()
			return fmt.Errorf("copy row: %w", err)
		}
	}

	// flush the COPY buffer
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		tx.Rollback()
		return fmt.Errorf("flush copy: %w", err)
	}
	if err := stmt.Close(); err != nil {
		tx.Rollback()
		return fmt.Errorf("close copy: %w", err)
	}

	return tx.Commit()
}

// CountMatches reports the stored row total, mostly for the export tool's
// closing log line.
func (s *Store) CountMatches(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM training_matches`).Scan(&n)
	return n, err
}

func nullable(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
