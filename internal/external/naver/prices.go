package naver

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/aegis-signal/backend/internal/contracts"
)

var priceRowRe = regexp.MustCompile(`\["(\d{8})",\s*(\d+),\s*(\d+),\s*(\d+),\s*(\d+),\s*(\d+)\]`)

// FetchPrices fetches daily price data for a stock from the Naver chart API
// ⭐ SSOT: Naver Finance 가격 API 호출은 이 함수에서만
func (c *Client) FetchPrices(ctx context.Context, stockCode string, from, to time.Time) ([]PriceData, error) {
	url := fmt.Sprintf(
		"%s/siseJson.naver?symbol=%s&requestType=1&startTime=%s&endTime=%s&timeframe=day",
		c.chartURL, stockCode, from.Format("20060102"), to.Format("20060102"),
	)

	body, err := c.fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch prices %s: %w", stockCode, err)
	}

	prices, err := c.parsePriceResponse(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse response failed: %w", err)
	}
	for i := range prices {
		prices[i].StockCode = stockCode
	}

	c.logger.WithFields(map[string]interface{}{
		"stock_code": stockCode,
		"count":      len(prices),
	}).Debug("Fetched prices")
	return prices, nil
}

// FetchSeries implements contracts.SeriesFetcher with the last lookback bars up to today
func (c *Client) FetchSeries(ctx context.Context, stockCode string, lookback int) (contracts.Series, error) {
	to := c.now()
	// 거래일 → 달력일 (주말/휴장 여유)
	from := to.AddDate(0, 0, -(lookback*7/5 + 14))

	prices, err := c.FetchPrices(ctx, stockCode, from, to)
	if err != nil {
		return nil, err
	}

	series := make(contracts.Series, 0, len(prices))
	for _, p := range prices {
		series = append(series, p.Bar())
	}
	return series.Sorted().Tail(lookback), nil
}

// parsePriceResponse parses the chart API's JS-array response
func (c *Client) parsePriceResponse(body string) ([]PriceData, error) {
	body = strings.TrimSpace(body)
	body = strings.ReplaceAll(body, "'", "\"")

	var rawData [][]interface{}
	if err := json.Unmarshal([]byte(body), &rawData); err == nil {
		return c.parsePriceJSON(rawData)
	}

	// Fallback to regex parsing
	return c.parsePriceRegex(body)
}

// parsePriceJSON parses JSON array format (first row is the header)
func (c *Client) parsePriceJSON(rawData [][]interface{}) ([]PriceData, error) {
	var prices []PriceData
	for i, row := range rawData {
		if i == 0 || len(row) < 6 {
			continue
		}

		dateStr, ok := row[0].(string)
		if !ok {
			continue
		}
		tradeDate, err := time.Parse("20060102", strings.TrimSpace(strings.Trim(dateStr, "\"")))
		if err != nil {
			continue
		}

		// 종가가 없거나 0인 행은 버림
		closePrice, ok := toInt64(row[4])
		if !ok || closePrice <= 0 {
			continue
		}
		volume, _ := toInt64(row[5])
		openPrice, _ := toInt64(row[1])
		highPrice, _ := toInt64(row[2])
		lowPrice, _ := toInt64(row[3])
		prices = append(prices, PriceData{
			TradeDate:    tradeDate,
			OpenPrice:    openPrice,
			HighPrice:    highPrice,
			LowPrice:     lowPrice,
			ClosePrice:   closePrice,
			Volume:       volume,
			TradingValue: closePrice * volume,
		})
	}
	return prices, nil
}

// parsePriceRegex parses using regex (fallback)
func (c *Client) parsePriceRegex(body string) ([]PriceData, error) {
	var prices []PriceData
	for _, match := range priceRowRe.FindAllStringSubmatch(body, -1) {
		tradeDate, err := time.Parse("20060102", match[1])
		if err != nil {
			continue
		}

		closePrice, err := strconv.ParseInt(match[5], 10, 64)
		if err != nil || closePrice <= 0 {
			continue
		}
		openPrice, _ := strconv.ParseInt(match[2], 10, 64)
		highPrice, _ := strconv.ParseInt(match[3], 10, 64)
		lowPrice, _ := strconv.ParseInt(match[4], 10, 64)
		volume, _ := strconv.ParseInt(match[6], 10, 64)

		prices = append(prices, PriceData{
			TradeDate:    tradeDate,
			OpenPrice:    openPrice,
			HighPrice:    highPrice,
			LowPrice:     lowPrice,
			ClosePrice:   closePrice,
			Volume:       volume,
			TradingValue: closePrice * volume,
		})
	}
	return prices, nil
}

// toInt64 converts various types to int64; ok is false when v is not a number
func toInt64(v interface{}) (int64, bool) {
	switch val := v.(type) {
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return 0, false
		}
		return int64(val), true
	case int64:
		return val, true
	case int:
		return int64(val), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
