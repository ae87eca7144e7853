package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fortuna/augur/internal/store"
)

// PredictionRepository handles the daily prediction table
type PredictionRepository struct {
	db *store.Database
}

// NewPredictionRepository creates a new prediction repository
func NewPredictionRepository(db *store.Database) *PredictionRepository {
	return &PredictionRepository{db: db}
}

// UpsertBatch writes a run's predictions atomically, refreshing created_ts
// on conflict. All rows commit or none do; callers must not pass an empty
// batch.
func (r *PredictionRepository) UpsertBatch(ctx context.Context, rows []store.PredictionRow) error {
	if len(rows) == 0 {
		return fmt.Errorf("refusing to upsert empty prediction batch")
	}

	tx, err := r.db.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning prediction transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO predictions_daily (
			as_of_date, game_id, player_id,
			mu_pts, sigma_pts, p15, p20, p25, p30,
			conf20, conf25, conf30,
			model_version
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (as_of_date, game_id, player_id) DO UPDATE SET
			mu_pts = EXCLUDED.mu_pts,
			sigma_pts = EXCLUDED.sigma_pts,
			p15 = EXCLUDED.p15,
			p20 = EXCLUDED.p20,
			p25 = EXCLUDED.p25,
			p30 = EXCLUDED.p30,
			conf20 = EXCLUDED.conf20,
			conf25 = EXCLUDED.conf25,
			conf30 = EXCLUDED.conf30,
			model_version = EXCLUDED.model_version,
			created_ts = NOW()
	`)
	if err != nil {
		return fmt.Errorf("preparing prediction upsert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		_, err := stmt.ExecContext(ctx,
			row.AsOfDate.Format("2006-01-02"), row.GameID, row.PlayerID,
			row.MuPts, row.SigmaPts, row.P15, row.P20, row.P25, row.P30,
			row.Conf20, row.Conf25, row.Conf30,
			row.ModelVersion,
		)
		if err != nil {
			return fmt.Errorf("upserting prediction (game %s, player %d): %w", row.GameID, row.PlayerID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing prediction batch: %w", err)
	}

	return nil
}

// GetByDate returns all predictions computed on a given as-of date.
func (r *PredictionRepository) GetByDate(ctx context.Context, asOf string) ([]store.PredictionRow, error) {
	query := `
		SELECT as_of_date, game_id, player_id,
			mu_pts, sigma_pts, p15, p20, p25, p30,
			conf20, conf25, conf30, model_version, created_ts
		FROM predictions_daily
		WHERE as_of_date = $1
		ORDER BY conf20 DESC, game_id, player_id
	`

	rows, err := r.db.DB().QueryContext(ctx, query, asOf)
	if err != nil {
		return nil, fmt.Errorf("querying predictions for %s: %w", asOf, err)
	}
	defer rows.Close()

	return scanPredictionRows(rows)
}

// GetByPlayer returns a player's prediction history, newest first.
func (r *PredictionRepository) GetByPlayer(ctx context.Context, playerID int64, limit int) ([]store.PredictionRow, error) {
	query := `
		SELECT as_of_date, game_id, player_id,
			mu_pts, sigma_pts, p15, p20, p25, p30,
			conf20, conf25, conf30, model_version, created_ts
		FROM predictions_daily
		WHERE player_id = $1
		ORDER BY as_of_date DESC, game_id
		LIMIT $2
	`

	rows, err := r.db.DB().QueryContext(ctx, query, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying predictions for player %d: %w", playerID, err)
	}
	defer rows.Close()

	return scanPredictionRows(rows)
}

func scanPredictionRows(rows *sql.Rows) ([]store.PredictionRow, error) {
	var predictions []store.PredictionRow
	for rows.Next() {
		var p store.PredictionRow
		err := rows.Scan(
			&p.AsOfDate, &p.GameID, &p.PlayerID,
			&p.MuPts, &p.SigmaPts, &p.P15, &p.P20, &p.P25, &p.P30,
			&p.Conf20, &p.Conf25, &p.Conf30, &p.ModelVersion, &p.CreatedTS,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning prediction row: %w", err)
		}
		predictions = append(predictions, p)
	}

	return predictions, rows.Err()
}
