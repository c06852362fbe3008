// Package naver fetches daily bars and investor flow from Naver Finance.
package naver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/wonny/aegis-signal/backend/internal/contracts"
	"github.com/wonny/aegis-signal/backend/pkg/config"
	"github.com/wonny/aegis-signal/backend/pkg/httputil"
	"github.com/wonny/aegis-signal/backend/pkg/logger"
)

const (
	defaultBaseURL  = "https://finance.naver.com"
	defaultChartURL = "https://fchart.stock.naver.com"

	// 연속 실패 시 차단, breakerTimeout 후 half-open 재시도
	breakerFailures = 3
	breakerTimeout  = 30 * time.Second
)

// Client handles communication with Naver Finance
// ⭐ SSOT: Naver Finance API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	chartURL   string
	breaker    *gobreaker.CircuitBreaker
	now        func() time.Time
}

// NewClient creates a new Naver Finance client
func NewClient(httpClient *httputil.Client, cfg config.NaverConfig, log *logger.Logger) *Client {
	baseURL, chartURL := cfg.BaseURL, cfg.ChartURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if chartURL == "" {
		chartURL = defaultChartURL
	}

	log = log.WithModule("naver")
	st := gobreaker.Settings{Name: "naver"}
	st.ReadyToTrip = func(counts gobreaker.Counts) bool { return counts.ConsecutiveFailures >= breakerFailures }
	st.Timeout = breakerTimeout
	st.OnStateChange = func(name string, from, to gobreaker.State) {
		log.WithFields(map[string]interface{}{
			"breaker": name,
			"from":    from.String(),
			"to":      to.String(),
		}).Warn("Circuit breaker state changed")
	}

	return &Client{
		httpClient: httpClient.WithHeader("Referer", baseURL+"/"),
		logger:     log,
		baseURL:    baseURL,
		chartURL:   chartURL,
		breaker:    gobreaker.NewCircuitBreaker(st),
		now:        time.Now,
	}
}

// fetch GETs a URL through the circuit breaker and returns the body.
// An open breaker surfaces as contracts.ErrSourceUnavailable.
func (c *Client) fetch(ctx context.Context, url string) ([]byte, error) {
	body, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.httpClient.Get(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("HTTP request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read response body: %w", err)
		}
		return data, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("naver: %w: %v", contracts.ErrSourceUnavailable, err)
	}
	if err != nil {
		return nil, err
	}
	return body.([]byte), nil
}

// PriceData represents daily price data
type PriceData struct {
	StockCode    string
	TradeDate    time.Time
	OpenPrice    int64
	HighPrice    int64
	LowPrice     int64
	ClosePrice   int64
	Volume       int64
	TradingValue int64
}

// Bar converts the row to an engine bar
func (p PriceData) Bar() contracts.Bar {
	return contracts.Bar{
		Date:   p.TradeDate,
		Open:   float64(p.OpenPrice),
		High:   float64(p.HighPrice),
		Low:    float64(p.LowPrice),
		Close:  float64(p.ClosePrice),
		Volume: p.Volume,
		Amount: float64(p.TradingValue),
	}
}

// InvestorFlowData represents investor trading flow
type InvestorFlowData struct {
	StockCode      string
	TradeDate      time.Time
	ForeignNet     int64 // 외국인 순매수
	InstitutionNet int64 // 기관 순매수
	IndividualNet  int64 // 개인 순매수
}
