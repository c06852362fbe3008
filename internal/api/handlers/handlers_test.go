package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-signal/backend/internal/contracts"
	"github.com/wonny/aegis-signal/backend/internal/scoring"
	"github.com/wonny/aegis-signal/backend/internal/strategyconfig"
)

var asOf = time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)

type mapFetcher map[string]contracts.Series

func (m mapFetcher) FetchSeries(_ context.Context, code string, lookback int) (contracts.Series, error) {
	if code == "999999" {
		return nil, fmt.Errorf("naver: %w", contracts.ErrSourceUnavailable)
	}
	return m[code].Tail(lookback), nil
}

func rising(n int) contracts.Series {
	s := make(contracts.Series, n)
	for i := range s {
		c := 10000 + float64(i)*10
		s[i] = contracts.NewBar(asOf.AddDate(0, 0, i-n), c, c*1.01, c*0.99, c, 100000)
	}
	return s
}

func serveScore(h *ScoreHandler, code string) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	r.HandleFunc("/api/score/{code}", h.GetScore)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/score/"+code, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestScoreHandler(t *testing.T) {
	engine := scoring.NewEngine(strategyconfig.Default().Scoring, nil, nil, nil)
	fetcher := mapFetcher{
		"005930": rising(260),
		"000660": rising(50),
	}
	h := NewScoreHandler(engine, fetcher, 0, nil)

	t.Run("scored", func(t *testing.T) {
		rec := serveScore(h, "005930")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		body := decode(t, rec)
		assert.Equal(t, "005930", body["symbol"])
		assert.Contains(t, body, "signal")
		assert.Contains(t, body, "entry")
		assert.Contains(t, body, "rr1")
	})

	t.Run("insufficient history", func(t *testing.T) {
		rec := serveScore(h, "000660")
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "insufficient_data", decode(t, rec)["error"])
	})

	t.Run("unknown symbol", func(t *testing.T) {
		rec := serveScore(h, "123456")
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("source down", func(t *testing.T) {
		rec := serveScore(h, "999999")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "source_unavailable", decode(t, rec)["error"])
	})

	t.Run("bad code", func(t *testing.T) {
		rec := serveScore(h, "abc")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestNewScoreHandler_RaisesLookback(t *testing.T) {
	engine := scoring.NewEngine(strategyconfig.Default().Scoring, nil, nil, nil)
	h := NewScoreHandler(engine, mapFetcher{}, 10, nil)
	assert.Equal(t, engine.MinBars(), h.lookback)
}

type fakeService struct {
	ranking   *contracts.SectorRanking
	err       error
	perSector int
	topK      int
}

func (f *fakeService) Ranking(_ context.Context, perSector, topK int) (*contracts.SectorRanking, error) {
	f.perSector, f.topK = perSector, topK
	return f.ranking, f.err
}

func (f *fakeService) Latest(context.Context) (*contracts.SectorRanking, error) {
	if f.ranking == nil {
		return nil, contracts.ErrInsufficientData
	}
	return f.ranking, nil
}

func sampleRanking() *contracts.SectorRanking {
	return &contracts.SectorRanking{
		RunID:       "run-1",
		AsOf:        asOf,
		FlowApplied: true,
		Sectors: []contracts.SectorScore{
			{SectorID: "반도체", Name: "반도체", Score: 100, Grade: contracts.GradeA, InvestorNet5D: 2e10},
			{SectorID: "2차전지", Name: "2차전지", Score: 60, Grade: contracts.GradeB, InvestorNet5D: 5e10},
			{SectorID: "은행", Name: "은행", Score: 0, Grade: contracts.GradeC, InvestorNet5D: 1e9},
		},
	}
}

func serveSector(h *SectorHandler, target string) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	r.HandleFunc("/api/sectors/flow-leaders", h.GetFlowLeaders)
	r.HandleFunc("/api/sectors/latest", h.GetLatest)
	r.HandleFunc("/api/sectors", h.GetRanking)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestSectorHandler_Ranking(t *testing.T) {
	svc := &fakeService{ranking: sampleRanking()}
	h := NewSectorHandler(svc, nil)

	rec := serveSector(h, "/api/sectors?top=5&per_sector=7")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 7, svc.perSector)
	assert.Equal(t, 5, svc.topK)

	var got contracts.SectorRanking
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "run-1", got.RunID)
	assert.Len(t, got.Sectors, 3)

	t.Run("defaults", func(t *testing.T) {
		rec := serveSector(h, "/api/sectors")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 0, svc.perSector)
		assert.Equal(t, 0, svc.topK)
	})

	for _, q := range []string{"top=abc", "top=-1", "per_sector=1.5"} {
		t.Run("invalid "+q, func(t *testing.T) {
			rec := serveSector(h, "/api/sectors?"+q)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestSectorHandler_Errors(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("rank: %w", contracts.ErrSourceUnavailable), http.StatusServiceUnavailable},
		{contracts.ErrInsufficientData, http.StatusUnprocessableEntity},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		h := NewSectorHandler(&fakeService{err: tt.err}, nil)
		rec := serveSector(h, "/api/sectors")
		assert.Equal(t, tt.want, rec.Code, tt.err.Error())
	}
}

func TestSectorHandler_Latest(t *testing.T) {
	rec := serveSector(NewSectorHandler(&fakeService{}, nil), "/api/sectors/latest")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = serveSector(NewSectorHandler(&fakeService{ranking: sampleRanking()}, nil), "/api/sectors/latest")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSectorHandler_FlowLeaders(t *testing.T) {
	h := NewSectorHandler(&fakeService{ranking: sampleRanking()}, nil)

	rec := serveSector(h, "/api/sectors/flow-leaders")
	require.Equal(t, http.StatusOK, rec.Code)

	var got FlowLeadersResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.FlowApplied)
	assert.Equal(t, 1e10, got.MinNet)
	require.Len(t, got.Leaders, 2)
	assert.Equal(t, "2차전지", got.Leaders[0].SectorID, "strongest inflow first")

	rec = serveSector(h, "/api/sectors/flow-leaders?min_net=0")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got.Leaders, 3)

	rec = serveSector(h, "/api/sectors/flow-leaders?min_net=lots")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSectorHandler_FlowLeadersWithoutFlow(t *testing.T) {
	ranking := sampleRanking()
	ranking.FlowApplied = false
	h := NewSectorHandler(&fakeService{ranking: ranking}, nil)

	rec := serveSector(h, "/api/sectors/flow-leaders")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"leaders":[]`)
}

func TestRespondJSON_UnencodableBody(t *testing.T) {
	rec := httptest.NewRecorder()
	respondJSON(rec, http.StatusOK, map[string]float64{"score": math.NaN()})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, ErrCodeInternal, decode(t, rec)["error"])
}
