package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/wonny/aegis-signal/backend/internal/contracts"
	"github.com/wonny/aegis-signal/backend/internal/sector"
	"github.com/wonny/aegis-signal/backend/pkg/logger"
)

// RankingService serves sector rankings
type RankingService interface {
	Ranking(ctx context.Context, perSector, topK int) (*contracts.SectorRanking, error)
	Latest(ctx context.Context) (*contracts.SectorRanking, error)
}

// SectorHandler serves sector rankings
type SectorHandler struct {
	service RankingService
	logger  *logger.Logger
}

// NewSectorHandler creates a sector handler
func NewSectorHandler(service RankingService, log *logger.Logger) *SectorHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &SectorHandler{
		service: service,
		logger:  log.WithModule("api.sector"),
	}
}

// GetRanking returns the sector ranking
// GET /api/sectors?top=12&per_sector=10
func (h *SectorHandler) GetRanking(w http.ResponseWriter, r *http.Request) {
	top, ok := queryInt(r, "top")
	if !ok {
		respondError(w, http.StatusBadRequest, ErrCodeBadRequest)
		return
	}
	perSector, ok := queryInt(r, "per_sector")
	if !ok {
		respondError(w, http.StatusBadRequest, ErrCodeBadRequest)
		return
	}

	ranking, err := h.service.Ranking(r.Context(), perSector, top)
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ranking)
}

// GetLatest returns the last refreshed ranking
// GET /api/sectors/latest
func (h *SectorHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	ranking, err := h.service.Latest(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ranking)
}

// FlowLeadersResponse lists sectors with strong 5-day investor buying
type FlowLeadersResponse struct {
	AsOf        time.Time               `json:"as_of"`
	FlowApplied bool                    `json:"flow_applied"`
	MinNet      float64                 `json:"min_net"`
	Leaders     []contracts.SectorScore `json:"leaders"`
}

// GetFlowLeaders returns the "next sector" candidates
// GET /api/sectors/flow-leaders?min_net=10000000000
func (h *SectorHandler) GetFlowLeaders(w http.ResponseWriter, r *http.Request) {
	minNet := float64(sector.DefaultMinFlowNet)
	if raw := r.URL.Query().Get("min_net"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, ErrCodeBadRequest)
			return
		}
		minNet = v
	}

	ranking, err := h.service.Ranking(r.Context(), 0, 0)
	if err != nil {
		h.fail(w, err)
		return
	}

	leaders := sector.FlowLeaders(ranking, minNet)
	if leaders == nil {
		leaders = []contracts.SectorScore{}
	}
	respondJSON(w, http.StatusOK, FlowLeadersResponse{
		AsOf:        ranking.AsOf,
		FlowApplied: ranking.FlowApplied,
		MinNet:      minNet,
		Leaders:     leaders,
	})
}

func (h *SectorHandler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, contracts.ErrInsufficientData):
		respondError(w, http.StatusUnprocessableEntity, ErrCodeInsufficientData)
	case errors.Is(err, contracts.ErrSourceUnavailable):
		respondError(w, http.StatusServiceUnavailable, ErrCodeSourceUnavailable)
	default:
		h.logger.WithError(err).Error("Sector ranking request failed")
		respondError(w, http.StatusInternalServerError, ErrCodeInternal)
	}
}
