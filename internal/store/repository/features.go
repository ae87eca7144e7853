package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fortuna/augur/internal/store"
)

// FeatureRepository handles the daily feature table and its "latest" view
type FeatureRepository struct {
	db *store.Database
}

// NewFeatureRepository creates a new feature repository
func NewFeatureRepository(db *store.Database) *FeatureRepository {
	return &FeatureRepository{db: db}
}

// UpsertBatch writes a run's feature rows atomically. All rows commit or
// none do; callers must not pass an empty batch.
func (r *FeatureRepository) UpsertBatch(ctx context.Context, rows []store.FeatureRow) error {
	if len(rows) == 0 {
		return fmt.Errorf("refusing to upsert empty feature batch")
	}

	tx, err := r.db.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning feature transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO player_features_daily (
			as_of_date, game_id, player_id, opponent_team_id, home_flag, rest_days,
			rolling_pts_5, rolling_pts_10, pts_std_10,
			rolling_min_5, rolling_min_10, min_std_10,
			last_game_pts, last_game_min
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (as_of_date, game_id, player_id) DO UPDATE SET
			opponent_team_id = EXCLUDED.opponent_team_id,
			home_flag = EXCLUDED.home_flag,
			rest_days = EXCLUDED.rest_days,
			rolling_pts_5 = EXCLUDED.rolling_pts_5,
			rolling_pts_10 = EXCLUDED.rolling_pts_10,
			pts_std_10 = EXCLUDED.pts_std_10,
			rolling_min_5 = EXCLUDED.rolling_min_5,
			rolling_min_10 = EXCLUDED.rolling_min_10,
			min_std_10 = EXCLUDED.min_std_10,
			last_game_pts = EXCLUDED.last_game_pts,
			last_game_min = EXCLUDED.last_game_min
	`)
	if err != nil {
		return fmt.Errorf("preparing feature upsert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		_, err := stmt.ExecContext(ctx,
			row.AsOfDate.Format("2006-01-02"), row.GameID, row.PlayerID,
			row.OpponentTeamID, row.HomeFlag, row.RestDays,
			row.RollingPts5, row.RollingPts10, row.PtsStd10,
			row.RollingMin5, row.RollingMin10, row.MinStd10,
			row.LastGamePts, row.LastGameMin,
		)
		if err != nil {
			return fmt.Errorf("upserting feature row (game %s, player %d): %w", row.GameID, row.PlayerID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing feature batch: %w", err)
	}

	return nil
}

// GetLatest returns exactly one feature row per (game, player), the one
// with the freshest as_of_date, via the v_player_features_latest view.
func (r *FeatureRepository) GetLatest(ctx context.Context) ([]store.FeatureRow, error) {
	query := `
		SELECT as_of_date, game_id, player_id,
			opponent_team_id, home_flag, rest_days,
			rolling_pts_5, rolling_pts_10, pts_std_10,
			rolling_min_5, rolling_min_10, min_std_10,
			last_game_pts, last_game_min
		FROM v_player_features_latest
		ORDER BY game_id, player_id
	`

	rows, err := r.db.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying latest features: %w", err)
	}
	defer rows.Close()

	return scanFeatureRows(rows)
}

// GetByAsOfDate returns all feature rows computed on a given as-of date.
func (r *FeatureRepository) GetByAsOfDate(ctx context.Context, asOf string) ([]store.FeatureRow, error) {
	query := `
		SELECT as_of_date, game_id, player_id,
			opponent_team_id, home_flag, rest_days,
			rolling_pts_5, rolling_pts_10, pts_std_10,
			rolling_min_5, rolling_min_10, min_std_10,
			last_game_pts, last_game_min
		FROM player_features_daily
		WHERE as_of_date = $1
		ORDER BY game_id, player_id
	`

	rows, err := r.db.DB().QueryContext(ctx, query, asOf)
	if err != nil {
		return nil, fmt.Errorf("querying features for %s: %w", asOf, err)
	}
	defer rows.Close()

	return scanFeatureRows(rows)
}

func scanFeatureRows(rows *sql.Rows) ([]store.FeatureRow, error) {
	var features []store.FeatureRow
	for rows.Next() {
		var f store.FeatureRow
		err := rows.Scan(
			&f.AsOfDate, &f.GameID, &f.PlayerID,
			&f.OpponentTeamID, &f.HomeFlag, &f.RestDays,
			&f.RollingPts5, &f.RollingPts10, &f.PtsStd10,
			&f.RollingMin5, &f.RollingMin10, &f.MinStd10,
			&f.LastGamePts, &f.LastGameMin,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning feature row: %w", err)
		}
		features = append(features, f)
	}

	return features, rows.Err()
}
