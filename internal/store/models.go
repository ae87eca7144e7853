package store

import (
	"database/sql"
	"time"
)

// Team represents an NBA franchise
type Team struct {
	TeamID   int64  `json:"team_id" db:"team_id"`
	Abbr     string `json:"team_abbr" db:"team_abbr"`
	TeamName string `json:"team_name" db:"team_name"`
}

// Game represents an NBA game. Rows are written by the ingester and never
// mutated by the feature or scoring engines.
type Game struct {
	GameID     string    `json:"game_id" db:"game_id"`
	GameDate   time.Time `json:"game_date" db:"game_date"`
	HomeTeamID int64     `json:"home_team_id" db:"home_team_id"`
	AwayTeamID int64     `json:"away_team_id" db:"away_team_id"`
	Status     string    `json:"status" db:"status"`
}

// PlayerGameStat is one player's box-score line for one game. Unique on
// (game_id, player_id). This is the ground-truth label source for the model.
type PlayerGameStat struct {
	GameID   string          `json:"game_id" db:"game_id"`
	PlayerID int64           `json:"player_id" db:"player_id"`
	TeamID   int64           `json:"team_id" db:"team_id"`
	Minutes  sql.NullFloat64 `json:"minutes,omitempty" db:"minutes"`
	Points   int             `json:"points" db:"points"`
}

// PlayerGameRow is a box-score line joined with its game context, ordered
// per player by (game_date, game_id). Input to the feature engine.
type PlayerGameRow struct {
	GameID     string
	PlayerID   int64
	TeamID     int64
	Minutes    sql.NullFloat64
	Points     int
	GameDate   time.Time
	HomeTeamID int64
	AwayTeamID int64
}

// FeatureRow holds one (as_of_date, game, player) feature vector of causal
// rolling statistics. The 10-game statistics are guaranteed non-null by the
// feature engine's inclusion rule; the rest may legitimately be null.
type FeatureRow struct {
	AsOfDate       time.Time       `json:"as_of_date" db:"as_of_date"`
	GameID         string          `json:"game_id" db:"game_id"`
	PlayerID       int64           `json:"player_id" db:"player_id"`
	OpponentTeamID int64           `json:"opponent_team_id" db:"opponent_team_id"`
	HomeFlag       int             `json:"home_flag" db:"home_flag"`
	RestDays       sql.NullInt32   `json:"rest_days,omitempty" db:"rest_days"`
	RollingPts5    sql.NullFloat64 `json:"rolling_pts_5,omitempty" db:"rolling_pts_5"`
	RollingPts10   sql.NullFloat64 `json:"rolling_pts_10,omitempty" db:"rolling_pts_10"`
	PtsStd10       sql.NullFloat64 `json:"pts_std_10,omitempty" db:"pts_std_10"`
	RollingMin5    sql.NullFloat64 `json:"rolling_min_5,omitempty" db:"rolling_min_5"`
	RollingMin10   sql.NullFloat64 `json:"rolling_min_10,omitempty" db:"rolling_min_10"`
	MinStd10       sql.NullFloat64 `json:"min_std_10,omitempty" db:"min_std_10"`
	LastGamePts    sql.NullFloat64 `json:"last_game_pts,omitempty" db:"last_game_pts"`
	LastGameMin    sql.NullFloat64 `json:"last_game_min,omitempty" db:"last_game_min"`
}

// PredictionRow is the scoring engine's output for one (as_of_date, game,
// player): the predictive distribution, threshold probabilities, and
// uncertainty-weighted confidence scores.
type PredictionRow struct {
	AsOfDate     time.Time `json:"as_of_date" db:"as_of_date"`
	GameID       string    `json:"game_id" db:"game_id"`
	PlayerID     int64     `json:"player_id" db:"player_id"`
	MuPts        float64   `json:"mu_pts" db:"mu_pts"`
	SigmaPts     float64   `json:"sigma_pts" db:"sigma_pts"`
	P15          float64   `json:"p15" db:"p15"`
	P20          float64   `json:"p20" db:"p20"`
	P25          float64   `json:"p25" db:"p25"`
	P30          float64   `json:"p30" db:"p30"`
	Conf20       float64   `json:"conf20" db:"conf20"`
	Conf25       float64   `json:"conf25" db:"conf25"`
	Conf30       float64   `json:"conf30" db:"conf30"`
	ModelVersion string    `json:"model_version" db:"model_version"`
	CreatedTS    time.Time `json:"created_ts" db:"created_ts"`
}
