package scoring

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/fortuna/augur/internal/model"
	"github.com/fortuna/augur/internal/store"
	"github.com/fortuna/augur/internal/store/repository"
)

// ErrMissingFeature marks a feature row that lacks a column the model
// artifact declares as required. The whole batch fails closed: a silently
// wrong prediction is worse than a missed one.
var ErrMissingFeature = errors.New("feature row missing required feature")

// Config holds the scoring policy constants. ReferenceSigma is the
// population's average predictive uncertainty from offline evaluation; it is
// configuration, never recomputed at scoring time.
type Config struct {
	SigmaMin       float64
	SigmaMax       float64
	ReferenceSigma float64
}

// DefaultConfig returns the scoring policy constants in production use
func DefaultConfig() Config {
	return Config{
		SigmaMin:       1.0,
		SigmaMax:       25.0,
		ReferenceSigma: 6.7,
	}
}

// Engine turns the latest feature rows into predictive distributions over
// next-game points using a loaded model artifact.
type Engine struct {
	features    *repository.FeatureRepository
	predictions *repository.PredictionRepository
	config      Config
}

// NewEngine creates a scoring engine over the given database
func NewEngine(db *store.Database, config Config) *Engine {
	return &Engine{
		features:    repository.NewFeatureRepository(db),
		predictions: repository.NewPredictionRepository(db),
		config:      config,
	}
}

// Run scores the latest feature row per (game, player) and upserts the
// predictions in a single transaction. Returns the rows written; their
// as_of_date is the feature snapshot's, which may trail the run's wall
// clock. An empty feature set yields zero rows and no write; a feature row
// missing a required column fails the entire batch.
func (e *Engine) Run(ctx context.Context, artifact *model.Artifact) ([]store.PredictionRow, error) {
	featureRows, err := e.features.GetLatest(ctx)
	if err != nil {
		return nil, err
	}

	if len(featureRows) == 0 {
		log.Println("[scoring] No feature rows to score")
		return nil, nil
	}

	predictionRows, err := ScoreRows(artifact, featureRows, e.config)
	if err != nil {
		return nil, err
	}

	if err := e.predictions.UpsertBatch(ctx, predictionRows); err != nil {
		return nil, err
	}

	return predictionRows, nil
}

// ScoreRows applies the artifact to each feature row: extract columns in the
// artifact's declared order, standardize, predict (mu, log_var), clamp
// sigma, and derive threshold probabilities and confidence scores.
func ScoreRows(artifact *model.Artifact, featureRows []store.FeatureRow, config Config) ([]store.PredictionRow, error) {
	out := make([]store.PredictionRow, 0, len(featureRows))

	for i := range featureRows {
		row := &featureRows[i]

		raw := make([]float64, len(artifact.FeatureNames))
		for j, name := range artifact.FeatureNames {
			value, ok := featureValue(row, name)
			if !ok {
				return nil, fmt.Errorf("%w: %q (game %s, player %d)", ErrMissingFeature, name, row.GameID, row.PlayerID)
			}
			raw[j] = value
		}

		standardized, err := artifact.Scaler.Transform(raw)
		if err != nil {
			return nil, err
		}

		mu, logVar, err := artifact.Network.Predict(standardized)
		if err != nil {
			return nil, fmt.Errorf("scoring game %s, player %d: %w", row.GameID, row.PlayerID, err)
		}

		sigma := clampSigma(math.Sqrt(math.Exp(logVar)), config.SigmaMin, config.SigmaMax)

		p15 := ProbGE(mu, sigma, 15)
		p20 := ProbGE(mu, sigma, 20)
		p25 := ProbGE(mu, sigma, 25)
		p30 := ProbGE(mu, sigma, 30)

		// Inverse-uncertainty weighting: a probability from a tight
		// distribution outranks the same probability from a wide one.
		weight := config.ReferenceSigma / sigma

		out = append(out, store.PredictionRow{
			AsOfDate:     row.AsOfDate,
			GameID:       row.GameID,
			PlayerID:     row.PlayerID,
			MuPts:        mu,
			SigmaPts:     sigma,
			P15:          p15,
			P20:          p20,
			P25:          p25,
			P30:          p30,
			Conf20:       100.0 * p20 * weight,
			Conf25:       100.0 * p25 * weight,
			Conf30:       100.0 * p30 * weight,
			ModelVersion: artifact.Version,
		})
	}

	return out, nil
}

// featureValue extracts a named feature from a row. ok is false when the
// column is null or the name is not a feature this pipeline produces.
func featureValue(row *store.FeatureRow, name string) (float64, bool) {
	switch name {
	case "home_flag":
		return float64(row.HomeFlag), true
	case "rest_days":
		if !row.RestDays.Valid {
			return 0, false
		}
		return float64(row.RestDays.Int32), true
	case "rolling_pts_5":
		return nullValue(row.RollingPts5)
	case "rolling_pts_10":
		return nullValue(row.RollingPts10)
	case "pts_std_10":
		return nullValue(row.PtsStd10)
	case "rolling_min_5":
		return nullValue(row.RollingMin5)
	case "rolling_min_10":
		return nullValue(row.RollingMin10)
	case "min_std_10":
		return nullValue(row.MinStd10)
	case "last_game_pts":
		return nullValue(row.LastGamePts)
	case "last_game_min":
		return nullValue(row.LastGameMin)
	default:
		return 0, false
	}
}

func nullValue(v sql.NullFloat64) (float64, bool) {
	return v.Float64, v.Valid
}
