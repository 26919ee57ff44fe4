package controllers

import (
	"net/http"
	"standbot/internal/clock"
	"standbot/internal/models"
	"standbot/internal/providers"
	"standbot/internal/services"
	storage "standbot/internal/storage/interfaces"
	"standbot/internal/timeutil"
	"strconv"

	json "github.com/goccy/go-json"
)

type ApiController struct {
	logger  providers.Logger
	ranking services.RankingServiceInterface
	totals  storage.TotalsStoreInterface
	cache   providers.CacheProviderInterface
	clock   clock.Clock
}

type totalResponse struct {
	ConversationID int64             `json:"conversation_id"`
	Date           models.DateBucket `json:"date"`
	Found          bool              `json:"found"`
	TotalSeconds   int64             `json:"total_seconds"`
	Formatted      string            `json:"formatted"`
}

func NewApiController(logger providers.Logger, ranking services.RankingServiceInterface, totals storage.TotalsStoreInterface, cache providers.CacheProviderInterface, clk clock.Clock) *ApiController {
	return &ApiController{
		logger:  logger,
		ranking: ranking,
		totals:  totals,
		cache:   cache,
		clock:   clk,
	}
}

func writeJSON(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (ac *ApiController) serveFromCacheOrCompute(w http.ResponseWriter, cacheKey string, compute func() (any, error)) {
	if data, ok := ac.cache.Get(cacheKey); ok {
		writeJSON(w, data)
		return
	}

	result, err := compute()
	if err != nil {
		ac.logger.Errorf(providers.TypeHTTP, "Compute %s: %v", cacheKey, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	gson, err := json.Marshal(result)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	ac.cache.Set(cacheKey, gson)
	writeJSON(w, gson)
}

func queryOr(r *http.Request, key, fallback string) string {
	if v := r.URL.Query().Get(key); v != "" {
		return v
	}
	return fallback
}

// GetLeaderboard serves /leaderboard?window=day|week|month|year|all&reducer=sum|avg.
func (ac *ApiController) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	window, err := models.ParseWindow(queryOr(r, "window", string(models.WindowDay)))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	reducer, err := models.ParseReducer(queryOr(r, "reducer", string(models.ReducerSum)))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	query := models.BoardQuery{Window: window, Reducer: reducer}
	ac.serveFromCacheOrCompute(w, services.BoardCacheKey(query), func() (any, error) {
		return ac.ranking.Leaderboard(r.Context(), query)
	})
}

// GetTotal serves /totals?conversation=<id>&date=YYYY-MM-DD; date defaults to today.
func (ac *ApiController) GetTotal(w http.ResponseWriter, r *http.Request) {
	conversationID, err := strconv.ParseInt(r.URL.Query().Get("conversation"), 10, 64)
	if err != nil {
		http.Error(w, "conversation must be an integer id", http.StatusBadRequest)
		return
	}

	bucket := ac.totals.BucketOf(ac.clock.Now().Unix())
	if raw := r.URL.Query().Get("date"); raw != "" {
		if bucket, err = models.ParseDateBucket(raw); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	total, found, err := ac.totals.GetBucketTotal(r.Context(), conversationID, bucket)
	if err != nil {
		ac.logger.Errorf(providers.TypeHTTP, "Total lookup for %d on %s: %v", conversationID, bucket, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	gson, err := json.Marshal(totalResponse{
		ConversationID: conversationID,
		Date:           bucket,
		Found:          found,
		TotalSeconds:   total,
		Formatted:      timeutil.FormatTotal(total),
	})
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, gson)
}
