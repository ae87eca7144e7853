package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fortuna/augur/internal/store"
)

// GameRepository handles game data access
type GameRepository struct {
	db *store.Database
}

// NewGameRepository creates a new game repository
func NewGameRepository(db *store.Database) *GameRepository {
	return &GameRepository{db: db}
}

// Upsert inserts or updates a game
func (r *GameRepository) Upsert(ctx context.Context, game *store.Game) error {
	query := `
		INSERT INTO games (game_id, game_date, home_team_id, away_team_id, status)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (game_id) DO UPDATE SET
			game_date = EXCLUDED.game_date,
			home_team_id = EXCLUDED.home_team_id,
			away_team_id = EXCLUDED.away_team_id,
			status = EXCLUDED.status
	`

	_, err := r.db.DB().ExecContext(ctx, query,
		game.GameID, game.GameDate, game.HomeTeamID, game.AwayTeamID, game.Status,
	)
	if err != nil {
		return fmt.Errorf("upserting game %s: %w", game.GameID, err)
	}

	return nil
}

// GetByID returns a single game
func (r *GameRepository) GetByID(ctx context.Context, gameID string) (*store.Game, error) {
	query := `
		SELECT game_id, game_date, home_team_id, away_team_id, status
		FROM games
		WHERE game_id = $1
	`

	game := &store.Game{}
	err := r.db.DB().QueryRowContext(ctx, query, gameID).Scan(
		&game.GameID, &game.GameDate, &game.HomeTeamID, &game.AwayTeamID, &game.Status,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("game %s not found", gameID)
	}
	if err != nil {
		return nil, fmt.Errorf("querying game: %w", err)
	}

	return game, nil
}

// GetByDate returns all games on a specific date
func (r *GameRepository) GetByDate(ctx context.Context, date time.Time) ([]*store.Game, error) {
	query := `
		SELECT game_id, game_date, home_team_id, away_team_id, status
		FROM games
		WHERE game_date = $1
		ORDER BY game_id
	`

	rows, err := r.db.DB().QueryContext(ctx, query, date.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("querying games by date: %w", err)
	}
	defer rows.Close()

	var games []*store.Game
	for rows.Next() {
		game := &store.Game{}
		if err := rows.Scan(&game.GameID, &game.GameDate, &game.HomeTeamID, &game.AwayTeamID, &game.Status); err != nil {
			return nil, fmt.Errorf("scanning game: %w", err)
		}
		games = append(games, game)
	}

	return games, rows.Err()
}
