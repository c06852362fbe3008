package sector

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wonny/aegis-signal/backend/internal/contracts"
	"github.com/wonny/aegis-signal/backend/internal/strategyconfig"
)

var start = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

var errUpstream = errors.New("upstream timeout")

// linear builds n bars with closes rising linearly from first to last (constant volume, zero range)
func linear(n int, first, last float64) contracts.Series {
	s := make(contracts.Series, n)
	for i := range s {
		c := first
		if n > 1 {
			c = first + (last-first)*float64(i)/float64(n-1)
		}
		s[i] = contracts.NewBar(start.AddDate(0, 0, i), c, c, c, c, 1000)
	}
	return s
}

func flat(n int) contracts.Series {
	return linear(n, 100, 100)
}

func testSectorConfig() strategyconfig.Sector {
	cfg := strategyconfig.Default().Sector
	cfg.Flow.Enable = false
	return cfg
}

type fakeConstituents struct {
	members map[string][]string
	errs    map[string]error
}

func (f *fakeConstituents) FetchSectorConstituents(_ context.Context, sectorID string, limit int) ([]string, error) {
	if err := f.errs[sectorID]; err != nil {
		return nil, err
	}
	list := f.members[sectorID]
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

type fakeSeries struct {
	series map[string]contracts.Series
	errs   map[string]error
	calls  atomic.Int32
}

func (f *fakeSeries) FetchSeries(_ context.Context, symbol string, lookback int) (contracts.Series, error) {
	f.calls.Add(1)
	if err := f.errs[symbol]; err != nil {
		return nil, err
	}
	return f.series[symbol].Tail(lookback), nil
}

type fakeFlow struct {
	mu    sync.Mutex
	net   map[string]float64 // symbol → window net
	err   error
	calls int
}

func (f *fakeFlow) FetchInvestorFlow(_ context.Context, symbols []string, from, to time.Time) (map[string]contracts.FlowAggregate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}

	out := make(map[string]contracts.FlowAggregate)
	for _, s := range symbols {
		if v, ok := f.net[s]; ok {
			out[s] = contracts.FlowAggregate{ForeignNet: v / 2, InstitutionNet: v / 2}
		}
	}
	return out, nil
}

type fakeLister struct {
	sectors []contracts.Sector
	calls   atomic.Int32
}

func (f *fakeLister) ListSectors(context.Context) ([]contracts.Sector, error) {
	f.calls.Add(1)
	return f.sectors, nil
}

type fakeStore struct {
	mu    sync.Mutex
	saved []*contracts.SectorRanking
}

func (f *fakeStore) SaveSectorRanking(_ context.Context, r *contracts.SectorRanking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, r)
	return nil
}

func (f *fakeStore) GetLatestSectorRanking(context.Context) (*contracts.SectorRanking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.saved) == 0 {
		return nil, contracts.ErrInsufficientData
	}
	return f.saved[len(f.saved)-1], nil
}

// universe builds one symbol per sector from the given series
func universe(series map[string]contracts.Series) (*fakeConstituents, *fakeSeries) {
	c := &fakeConstituents{members: map[string][]string{}}
	s := &fakeSeries{series: map[string]contracts.Series{}}
	for id, ser := range series {
		sym := id + "_1"
		c.members[id] = []string{sym}
		s.series[sym] = ser
	}
	return c, s
}

func sectorsOf(ids ...string) []contracts.Sector {
	out := make([]contracts.Sector, len(ids))
	for i, id := range ids {
		out[i] = contracts.Sector{ID: id, Name: id}
	}
	return out
}

func ids(scores []contracts.SectorScore) []string {
	out := make([]string, len(scores))
	for i, s := range scores {
		out[i] = s.SectorID
	}
	return out
}
