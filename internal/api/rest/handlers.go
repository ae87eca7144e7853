package rest

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/fortuna/augur/internal/cache"
	"github.com/fortuna/augur/internal/pipeline"
	"github.com/fortuna/augur/internal/scheduler"
	"github.com/fortuna/augur/internal/store"
	"github.com/fortuna/augur/internal/store/repository"
)

// Handler contains dependencies for HTTP handlers
type Handler struct {
	db          *store.Database
	cache       *cache.RedisCache
	scheduler   *scheduler.Scheduler
	predictions *repository.PredictionRepository
	features    *repository.FeatureRepository
	games       *repository.GameRepository
}

// NewHandler creates a new handler
func NewHandler(db *store.Database, redisCache *cache.RedisCache, sched *scheduler.Scheduler) *Handler {
	return &Handler{
		db:          db,
		cache:       redisCache,
		scheduler:   sched,
		predictions: repository.NewPredictionRepository(db),
		features:    repository.NewFeatureRepository(db),
		games:       repository.NewGameRepository(db),
	}
}

// HealthCheck handles health check requests. The database is required;
// Redis is reported but does not fail the check, since the API can serve
// every read from Postgres.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.db.HealthCheck(); err != nil {
		respondError(w, http.StatusServiceUnavailable, "Database unavailable", err)
		return
	}

	redisStatus := "healthy"
	if h.cache != nil {
		if err := h.cache.HealthCheck(r.Context()); err != nil {
			redisStatus = "unavailable"
		}
	} else {
		redisStatus = "disabled"
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "augur",
		"redis":   redisStatus,
	})
}

// GetPredictions returns the predictions computed on a given as-of date
// (today by default), served from cache when possible.
func (h *Handler) GetPredictions(w http.ResponseWriter, r *http.Request) {
	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		dateStr = time.Now().UTC().Format("2006-01-02")
	}

	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	if h.cache != nil {
		if cached, err := h.cache.Get(r.Context(), pipeline.PredictionCacheKey(date)); err == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(cached))
			return
		}
	}

	rows, err := h.predictions.GetByDate(r.Context(), dateStr)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch predictions", err)
		return
	}

	respondJSON(w, http.StatusOK, rows)
}

// GetPlayerPredictions returns a player's prediction history
func (h *Handler) GetPlayerPredictions(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	playerID, err := strconv.ParseInt(vars["playerID"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid player ID", err)
		return
	}

	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	rows, err := h.predictions.GetByPlayer(r.Context(), playerID, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch player predictions", err)
		return
	}

	respondJSON(w, http.StatusOK, rows)
}

// GetGame returns a single game by its upstream game id
func (h *Handler) GetGame(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	game, err := h.games.GetByID(r.Context(), vars["gameID"])
	if err != nil {
		respondError(w, http.StatusNotFound, "Game not found", err)
		return
	}

	respondJSON(w, http.StatusOK, game)
}

// GetGamesByDate returns the games played on a given date (today by default)
func (h *Handler) GetGamesByDate(w http.ResponseWriter, r *http.Request) {
	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		dateStr = time.Now().UTC().Format("2006-01-02")
	}

	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	games, err := h.games.GetByDate(r.Context(), date)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch games", err)
		return
	}

	respondJSON(w, http.StatusOK, games)
}

// GetLatestFeatures returns the freshest feature row per (game, player)
func (h *Handler) GetLatestFeatures(w http.ResponseWriter, r *http.Request) {
	rows, err := h.features.GetLatest(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch latest features", err)
		return
	}

	respondJSON(w, http.StatusOK, rows)
}

// GetFeaturesByDate returns the feature rows computed on a given as-of date
func (h *Handler) GetFeaturesByDate(w http.ResponseWriter, r *http.Request) {
	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		dateStr = time.Now().UTC().Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", dateStr); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	rows, err := h.features.GetByAsOfDate(r.Context(), dateStr)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch features", err)
		return
	}

	respondJSON(w, http.StatusOK, rows)
}

// TriggerPipeline runs the daily pipeline immediately
func (h *Handler) TriggerPipeline(w http.ResponseWriter, r *http.Request) {
	if h.scheduler == nil {
		respondError(w, http.StatusServiceUnavailable, "Scheduler not configured", nil)
		return
	}

	if err := h.scheduler.TriggerNow(r.Context()); err != nil {
		respondError(w, http.StatusInternalServerError, "Pipeline run failed", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Pipeline run complete",
	})
}

// PipelineStatus reports the scheduler state
func (h *Handler) PipelineStatus(w http.ResponseWriter, r *http.Request) {
	if h.scheduler == nil {
		respondError(w, http.StatusServiceUnavailable, "Scheduler not configured", nil)
		return
	}

	respondJSON(w, http.StatusOK, h.scheduler.Status())
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}

	if err != nil {
		response["details"] = err.Error()
	}

	json.NewEncoder(w).Encode(response)
}
