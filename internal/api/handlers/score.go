package handlers

import (
	"context"
	"errors"
	"net/http"
	"regexp"

	"github.com/gorilla/mux"

	"github.com/wonny/aegis-signal/backend/internal/contracts"
	"github.com/wonny/aegis-signal/backend/pkg/logger"
)

var codePattern = regexp.MustCompile(`^[0-9A-Z]{6}$`)

// Scorer evaluates one symbol's series
type Scorer interface {
	Score(symbol string, series contracts.Series) (*contracts.Score, error)
	MinBars() int
}

// ScoreHandler serves per-symbol scores
// ⭐ SSOT: 종목 점수 API 핸들러는 이 구조체에서만
type ScoreHandler struct {
	scorer   Scorer
	fetcher  contracts.SeriesFetcher
	lookback int
	logger   *logger.Logger
}

// NewScoreHandler creates a score handler. lookback below the scorer minimum is raised to it.
func NewScoreHandler(scorer Scorer, fetcher contracts.SeriesFetcher, lookback int, log *logger.Logger) *ScoreHandler {
	if log == nil {
		log = logger.Nop()
	}
	if lookback < scorer.MinBars() {
		lookback = scorer.MinBars()
	}
	return &ScoreHandler{
		scorer:   scorer,
		fetcher:  fetcher,
		lookback: lookback,
		logger:   log.WithModule("api.score"),
	}
}

// ScoreResponse is a score plus its risk/reward multiples
type ScoreResponse struct {
	*contracts.Score
	RiskReward1 *float64 `json:"rr1,omitempty"`
	RiskReward2 *float64 `json:"rr2,omitempty"`
}

// GetScore scores one symbol
// GET /api/score/{code}
func (h *ScoreHandler) GetScore(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	if !codePattern.MatchString(code) {
		respondError(w, http.StatusBadRequest, ErrCodeBadRequest)
		return
	}

	score, err := h.score(r.Context(), code)
	switch {
	case errors.Is(err, contracts.ErrInsufficientData):
		respondError(w, http.StatusUnprocessableEntity, ErrCodeInsufficientData)
		return
	case errors.Is(err, contracts.ErrSourceUnavailable):
		respondError(w, http.StatusServiceUnavailable, ErrCodeSourceUnavailable)
		return
	case err != nil:
		h.logger.WithError(err).WithField("code", code).Error("Failed to score symbol")
		respondError(w, http.StatusInternalServerError, ErrCodeInternal)
		return
	}

	resp := ScoreResponse{Score: score}
	if rr1, rr2, ok := score.RiskReward(); ok {
		resp.RiskReward1, resp.RiskReward2 = &rr1, &rr2
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *ScoreHandler) score(ctx context.Context, code string) (*contracts.Score, error) {
	series, err := h.fetcher.FetchSeries(ctx, code, h.lookback)
	if err != nil {
		return nil, err
	}
	return h.scorer.Score(code, series)
}
