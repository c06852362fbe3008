// Package workpool runs bounded-concurrency fetch/compute tasks over a work list.
package workpool

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/wonny/aegis-signal/backend/pkg/metrics"
)

// DefaultWidth is used when Pool.Width is not positive
const DefaultWidth = 8

// Pool holds concurrency settings
// ⭐ SSOT: 외부 데이터 동시 호출 제한은 이 패키지에서만
type Pool struct {
	Name    string        // metrics label
	Width   int           // 동시 실행 수
	Limiter *rate.Limiter // optional, 시작 속도 제한
	Metrics *metrics.Registry
}

// New creates a pool. ratePerSec <= 0 disables the limiter.
func New(name string, width int, ratePerSec float64, burst int, m *metrics.Registry) *Pool {
	p := &Pool{Name: name, Width: width, Metrics: m}
	if ratePerSec > 0 {
		if burst < 1 {
			burst = 1
		}
		p.Limiter = rate.NewLimiter(rate.Limit(ratePerSec), burst)
	}
	return p
}

// Result is the outcome of one task, aligned with its input index
type Result[R any] struct {
	Index int
	Value R
	Err   error
}

// Run applies fn to every item with at most pool.Width concurrent calls.
//
// Results keep input order. A failing task never cancels the others; when ctx is
// done, tasks that have not started are marked with ctx.Err().
func Run[T, R any](ctx context.Context, pool *Pool, items []T, fn func(ctx context.Context, item T) (R, error)) []Result[R] {
	results := make([]Result[R], len(items))
	if len(items) == 0 {
		return results
	}

	width := DefaultWidth
	name := "default"
	var limiter *rate.Limiter
	var m *metrics.Registry
	if pool != nil {
		if pool.Width > 0 {
			width = pool.Width
		}
		if pool.Name != "" {
			name = pool.Name
		}
		limiter = pool.Limiter
		m = pool.Metrics
	}

	// errgroup은 동시성 제한 용도로만 사용 (에러는 결과에 기록, 그룹으로 전파하지 않음)
	var g errgroup.Group
	g.SetLimit(width)

	for i, item := range items {
		results[i].Index = i

		if err := ctx.Err(); err != nil {
			results[i].Err = err
			m.TaskSkipped(name)
			continue
		}

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				m.TaskSkipped(name)
				return nil
			}
			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					results[i].Err = err
					m.TaskSkipped(name)
					return nil
				}
			}

			m.TaskStarted()
			value, err := fn(ctx, item)
			m.TaskFinished(name, err)

			results[i].Value = value
			results[i].Err = err
			return nil
		})
	}

	_ = g.Wait()
	return results
}

// Succeeded returns values of tasks without error, in input order
func Succeeded[R any](results []Result[R]) []R {
	out := make([]R, 0, len(results))
	for _, r := range results {
		if r.Err == nil {
			out = append(out, r.Value)
		}
	}
	return out
}

// Failed returns the failed results, in input order
func Failed[R any](results []Result[R]) []Result[R] {
	var out []Result[R]
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}

// AllFailed reports whether every task failed (false for an empty run)
func AllFailed[R any](results []Result[R]) bool {
	if len(results) == 0 {
		return false
	}
	for _, r := range results {
		if r.Err == nil {
			return false
		}
	}
	return true
}
