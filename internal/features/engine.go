package features

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/fortuna/augur/internal/store"
	"github.com/fortuna/augur/internal/store/repository"
)

// Window sizes for the rolling statistics. All windows are causal: they
// cover games strictly before the current one.
const (
	shortWindow = 5
	longWindow  = 10
)

// Engine derives per-(game, player) feature vectors from the box-score
// history and upserts them keyed by the run's as-of date.
type Engine struct {
	stats    *repository.StatsRepository
	features *repository.FeatureRepository
}

// NewEngine creates a feature engine over the given database
func NewEngine(db *store.Database) *Engine {
	return &Engine{
		stats:    repository.NewStatsRepository(db),
		features: repository.NewFeatureRepository(db),
	}
}

// Run computes features for every (game, player) with sufficient history and
// upserts them in a single transaction. Returns the number of rows written.
// Zero qualifying rows is not an error; no write is issued in that case.
func (e *Engine) Run(ctx context.Context, asOf time.Time) (int, error) {
	gameLog, err := e.stats.GetPlayerGameLog(ctx)
	if err != nil {
		return 0, err
	}

	rows := ComputeRows(gameLog, asOf)
	if len(rows) == 0 {
		log.Println("[features] No feature rows to upsert (insufficient history everywhere)")
		return 0, nil
	}

	if err := e.features.UpsertBatch(ctx, rows); err != nil {
		return 0, err
	}

	return len(rows), nil
}

// ComputeRows derives one candidate feature vector per (game, player) from a
// game log ordered by (player_id, game_date, game_id), keeping only rows
// that satisfy the inclusion rule: rolling_pts_10, pts_std_10 and
// rolling_min_10 all present. Players early in their history are excluded
// rather than imputed, so the scoring model never sees placeholder zeros.
func ComputeRows(gameLog []store.PlayerGameRow, asOf time.Time) []store.FeatureRow {
	var out []store.FeatureRow

	var state *playerState
	var current int64
	for i := range gameLog {
		row := &gameLog[i]
		if state == nil || row.PlayerID != current {
			state = newPlayerState()
			current = row.PlayerID
		}
		if feature, ok := state.next(row, asOf); ok {
			out = append(out, feature)
		}
	}

	return out
}

// playerState walks one player's games in date order, holding the causal
// window contents accumulated from games already seen.
type playerState struct {
	pts5, pts10 *rollingWindow
	min5, min10 *rollingWindow

	hasPrev  bool
	prevDate time.Time
	prevPts  float64
	prevMin  sql.NullFloat64
}

func newPlayerState() *playerState {
	return &playerState{
		pts5:  newRollingWindow(shortWindow),
		pts10: newRollingWindow(longWindow),
		min5:  newRollingWindow(shortWindow),
		min10: newRollingWindow(longWindow),
	}
}

// next computes the feature vector for row from prior games only, then folds
// the row into the window state. ok reports whether the row passes the
// inclusion rule.
func (s *playerState) next(row *store.PlayerGameRow, asOf time.Time) (store.FeatureRow, bool) {
	feature := store.FeatureRow{
		AsOfDate: asOf,
		GameID:   row.GameID,
		PlayerID: row.PlayerID,
	}

	if row.TeamID == row.HomeTeamID {
		feature.HomeFlag = 1
		feature.OpponentTeamID = row.AwayTeamID
	} else {
		feature.OpponentTeamID = row.HomeTeamID
	}

	if s.hasPrev {
		feature.RestDays = sql.NullInt32{Int32: int32(daysBetween(s.prevDate, row.GameDate)), Valid: true}
		feature.LastGamePts = sql.NullFloat64{Float64: s.prevPts, Valid: true}
		feature.LastGameMin = s.prevMin
	}

	feature.RollingPts5 = nullMean(s.pts5)
	feature.RollingPts10 = nullMean(s.pts10)
	feature.PtsStd10 = nullStdDev(s.pts10)
	feature.RollingMin5 = nullMean(s.min5)
	feature.RollingMin10 = nullMean(s.min10)
	feature.MinStd10 = nullStdDev(s.min10)

	included := feature.RollingPts10.Valid && feature.PtsStd10.Valid && feature.RollingMin10.Valid

	// Fold the current game in after computing, so the window stays causal.
	pts := float64(row.Points)
	s.pts5.Push(pts, true)
	s.pts10.Push(pts, true)
	s.min5.Push(row.Minutes.Float64, row.Minutes.Valid)
	s.min10.Push(row.Minutes.Float64, row.Minutes.Valid)

	s.hasPrev = true
	s.prevDate = row.GameDate
	s.prevPts = pts
	s.prevMin = row.Minutes

	return feature, included
}

func nullMean(w *rollingWindow) sql.NullFloat64 {
	if mean, ok := w.Mean(); ok {
		return sql.NullFloat64{Float64: mean, Valid: true}
	}
	return sql.NullFloat64{}
}

func nullStdDev(w *rollingWindow) sql.NullFloat64 {
	if sd, ok := w.SampleStdDev(); ok {
		return sql.NullFloat64{Float64: sd, Valid: true}
	}
	return sql.NullFloat64{}
}

// daysBetween returns whole calendar days from a to b, ignoring clock time.
func daysBetween(a, b time.Time) int {
	a = time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	b = time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
