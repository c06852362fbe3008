package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/wonny/aegis-signal/backend/internal/contracts"
	"github.com/wonny/aegis-signal/backend/pkg/logger"
)

// ErrCodeUnknownSector is returned when a sector query matches nothing
const ErrCodeUnknownSector = "unknown_sector"

// maxSectorQuery bounds the sector query length (runes)
const maxSectorQuery = 40

// ScanService runs the pullback screener and sector leaders listing
type ScanService interface {
	Scan(ctx context.Context, sector string) (*contracts.ScanResult, error)
	Leaders(ctx context.Context, sector string) (*contracts.SectorLeaders, error)
}

// ScanHandler serves screener results
type ScanHandler struct {
	service ScanService
	logger  *logger.Logger
}

// NewScanHandler creates a scan handler
func NewScanHandler(service ScanService, log *logger.Logger) *ScanHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &ScanHandler{
		service: service,
		logger:  log.WithModule("api.scan"),
	}
}

// GetScan screens the whole market or one sector
// GET /api/scan?sector=반도체
func (h *ScanHandler) GetScan(w http.ResponseWriter, r *http.Request) {
	sector, ok := sectorQuery(r)
	if !ok {
		respondError(w, http.StatusBadRequest, ErrCodeBadRequest)
		return
	}

	result, err := h.service.Scan(r.Context(), sector)
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// GetLeaders lists a sector's most liquid symbols
// GET /api/sectors/leaders?sector=반도체
func (h *ScanHandler) GetLeaders(w http.ResponseWriter, r *http.Request) {
	sector, ok := sectorQuery(r)
	if !ok || sector == "" {
		respondError(w, http.StatusBadRequest, ErrCodeBadRequest)
		return
	}

	leaders, err := h.service.Leaders(r.Context(), sector)
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, leaders)
}

func (h *ScanHandler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, contracts.ErrUnknownSector):
		respondError(w, http.StatusNotFound, ErrCodeUnknownSector)
	case errors.Is(err, contracts.ErrSourceUnavailable):
		respondError(w, http.StatusServiceUnavailable, ErrCodeSourceUnavailable)
	default:
		h.logger.WithError(err).Error("Scan request failed")
		respondError(w, http.StatusInternalServerError, ErrCodeInternal)
	}
}

func sectorQuery(r *http.Request) (string, bool) {
	sector := strings.TrimSpace(r.URL.Query().Get("sector"))
	return sector, len([]rune(sector)) <= maxSectorQuery
}
