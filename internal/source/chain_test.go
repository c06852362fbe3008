package source

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-signal/backend/internal/contracts"
	"github.com/wonny/aegis-signal/backend/pkg/metrics"
)

type stubFetcher struct {
	bars  contracts.Series
	err   error
	calls int
}

func (s *stubFetcher) FetchSeries(_ context.Context, _ string, lookback int) (contracts.Series, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.bars.Tail(lookback), nil
}

type stubSaver struct {
	saved map[string]int
	err   error
}

func (s *stubSaver) SaveBars(_ context.Context, code string, bars contracts.Series) error {
	if s.saved == nil {
		s.saved = map[string]int{}
	}
	s.saved[code] = len(bars)
	return s.err
}

func series(n int) contracts.Series {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	s := make(contracts.Series, n)
	for i := range s {
		s[i] = contracts.NewBar(start.AddDate(0, 0, i), 100, 100, 100, 100, 1000)
	}
	return s
}

var errDown = errors.New("connection refused")

func newChain(db, naver *stubFetcher, saver BarSaver, m *metrics.Registry) *Chain {
	return NewChain(Named{"db", db}, Named{"naver", naver}, saver, m, nil)
}

func TestChain_PrimaryComplete(t *testing.T) {
	db := &stubFetcher{bars: series(300)}
	naver := &stubFetcher{bars: series(300)}
	m := metrics.New()

	got, err := newChain(db, naver, nil, m).FetchSeries(context.Background(), "005930", 260)
	require.NoError(t, err)
	assert.Len(t, got, 260)
	assert.Equal(t, 0, naver.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SourceRequests.WithLabelValues("db", "success")))
}

func TestChain_ShortHistoryFallsBackAndStores(t *testing.T) {
	db := &stubFetcher{bars: series(50)}
	naver := &stubFetcher{bars: series(300)}
	saver := &stubSaver{}

	got, err := newChain(db, naver, saver, nil).FetchSeries(context.Background(), "005930", 260)
	require.NoError(t, err)
	assert.Len(t, got, 260)
	assert.Equal(t, 260, saver.saved["005930"])
}

func TestChain_FallbackNotLonger(t *testing.T) {
	db := &stubFetcher{bars: series(50)}
	naver := &stubFetcher{bars: series(30)}
	saver := &stubSaver{}

	got, err := newChain(db, naver, saver, nil).FetchSeries(context.Background(), "005930", 260)
	require.NoError(t, err)
	assert.Len(t, got, 50)
	assert.Empty(t, saver.saved)
}

func TestChain_Failures(t *testing.T) {
	t.Run("primary down, fallback serves", func(t *testing.T) {
		db := &stubFetcher{err: errDown}
		naver := &stubFetcher{bars: series(100)}

		got, err := newChain(db, naver, &stubSaver{err: errDown}, nil).FetchSeries(context.Background(), "005930", 260)
		require.NoError(t, err, "save failure is not a fetch failure")
		assert.Len(t, got, 100)
	})

	t.Run("fallback down keeps short primary", func(t *testing.T) {
		db := &stubFetcher{bars: series(50)}
		naver := &stubFetcher{err: errDown}

		got, err := newChain(db, naver, nil, nil).FetchSeries(context.Background(), "005930", 260)
		require.NoError(t, err)
		assert.Len(t, got, 50)
	})

	t.Run("both down", func(t *testing.T) {
		m := metrics.New()
		naverErr := errors.New("naver 503")

		_, err := newChain(&stubFetcher{err: errDown}, &stubFetcher{err: naverErr}, nil, m).FetchSeries(context.Background(), "005930", 260)
		assert.ErrorIs(t, err, errDown)
		assert.ErrorIs(t, err, naverErr)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.SourceRequests.WithLabelValues("naver", "error")))
	})
}
