package repository

import (
	"context"
	"fmt"

	"github.com/fortuna/augur/internal/store"
)

// StatsRepository handles player box-score data access
type StatsRepository struct {
	db *store.Database
}

// NewStatsRepository creates a new stats repository
func NewStatsRepository(db *store.Database) *StatsRepository {
	return &StatsRepository{db: db}
}

// Upsert inserts or updates a player's box-score line
func (r *StatsRepository) Upsert(ctx context.Context, stat *store.PlayerGameStat) error {
	query := `
		INSERT INTO player_game_stats (game_id, player_id, team_id, minutes, points)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (game_id, player_id) DO UPDATE SET
			team_id = EXCLUDED.team_id,
			minutes = EXCLUDED.minutes,
			points = EXCLUDED.points
	`

	_, err := r.db.DB().ExecContext(ctx, query,
		stat.GameID, stat.PlayerID, stat.TeamID, stat.Minutes, stat.Points,
	)
	if err != nil {
		return fmt.Errorf("upserting stats for game %s, player %d: %w", stat.GameID, stat.PlayerID, err)
	}

	return nil
}

// GetPlayerGameLog returns the full box-score history joined with game
// context, ordered by (player_id, game_date, game_id). The game_id tie-break
// makes the ordering deterministic when a player has two games on one date.
func (r *StatsRepository) GetPlayerGameLog(ctx context.Context) ([]store.PlayerGameRow, error) {
	query := `
		SELECT pgs.game_id, pgs.player_id, pgs.team_id, pgs.minutes, pgs.points,
			g.game_date, g.home_team_id, g.away_team_id
		FROM player_game_stats pgs
		JOIN games g ON g.game_id = pgs.game_id
		WHERE g.game_date IS NOT NULL
		ORDER BY pgs.player_id, g.game_date, pgs.game_id
	`

	rows, err := r.db.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying player game log: %w", err)
	}
	defer rows.Close()

	var log []store.PlayerGameRow
	for rows.Next() {
		var row store.PlayerGameRow
		err := rows.Scan(
			&row.GameID, &row.PlayerID, &row.TeamID, &row.Minutes, &row.Points,
			&row.GameDate, &row.HomeTeamID, &row.AwayTeamID,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning player game row: %w", err)
		}
		log = append(log, row)
	}

	return log, rows.Err()
}
