package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_PoolTasks(t *testing.T) {
	r := New()

	r.TaskStarted()
	r.TaskStarted()
	assert.Equal(t, 2.0, testutil.ToFloat64(r.PoolInflight))

	r.TaskFinished("series", nil)
	r.TaskFinished("series", errors.New("boom"))
	r.TaskSkipped("series")

	assert.Equal(t, 0.0, testutil.ToFloat64(r.PoolInflight))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.PoolTasks.WithLabelValues("series", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.PoolTasks.WithLabelValues("series", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.PoolTasks.WithLabelValues("series", "skipped")))
}

func TestRegistry_Cache(t *testing.T) {
	r := New()
	r.RecordCache("sector_rank", true)
	r.RecordCache("sector_rank", false)
	r.RecordCache("sector_rank", false)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.CacheHits.WithLabelValues("sector_rank")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.CacheMisses.WithLabelValues("sector_rank")))
}

func TestRegistry_ObserveRank(t *testing.T) {
	r := New()
	r.ObserveRank(time.Now(), 7, nil)
	assert.Equal(t, 7.0, testutil.ToFloat64(r.RankSectors))

	// 실패한 실행은 섹터 수를 덮어쓰지 않음
	r.ObserveRank(time.Now(), 0, errors.New("down"))
	assert.Equal(t, 7.0, testutil.ToFloat64(r.RankSectors))
}

func TestRegistry_NilSafe(t *testing.T) {
	var r *Registry
	assert.NotPanics(t, func() {
		r.TaskStarted()
		r.TaskFinished("x", nil)
		r.TaskSkipped("x")
		r.RecordSignal("buy")
		r.RecordNoScore()
		r.RecordFactorFault("rsi14")
		r.ObserveRank(time.Now(), 1, nil)
		r.RecordCache("x", true)
		r.RecordSource("db", nil)
	})
}

func TestRegistry_Handler(t *testing.T) {
	r := New()
	r.RecordSignal("buy")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `aegis_signals_total{signal="buy"} 1`)
}
