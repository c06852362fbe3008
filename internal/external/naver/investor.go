package naver

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/aegis-signal/backend/internal/contracts"
)

const (
	investorRowsPerPage = 20
	investorMaxPages    = 150
)

var investorDateRe = regexp.MustCompile(`^\d{4}\.\d{2}\.\d{2}$`)

// FetchInvestorFlow implements contracts.FlowFetcher: foreign and institutional net buying
// summed per code over [from, to]. Codes that fail are left out; the call fails only when
// every code failed.
func (c *Client) FetchInvestorFlow(ctx context.Context, codes []string, from, to time.Time) (map[string]contracts.FlowAggregate, error) {
	out := make(map[string]contracts.FlowAggregate, len(codes))

	var errs []error
	for _, code := range codes {
		trades, err := c.FetchInvestorTrades(ctx, code, from, to)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			errs = append(errs, err)
			continue
		}
		if len(trades) == 0 {
			continue
		}

		var agg contracts.FlowAggregate
		for _, t := range trades {
			agg.ForeignNet += float64(t.ForeignNet)
			agg.InstitutionNet += float64(t.InstitutionNet)
		}
		out[code] = agg
	}

	if len(codes) > 0 && len(errs) == len(codes) {
		return nil, fmt.Errorf("investor flow: %w", errors.Join(errs...))
	}
	return out, nil
}

// FetchInvestorTrades pages through the investor table of one stock
// ⭐ SSOT: Naver Finance 투자자 수급 데이터 호출은 이 함수에서만
func (c *Client) FetchInvestorTrades(ctx context.Context, stockCode string, from, to time.Time) ([]InvestorFlowData, error) {
	var allTrades []InvestorFlowData
	noDataPages := 0

	maxPages := int(c.now().Sub(from).Hours()/24)/investorRowsPerPage + 2
	if maxPages > investorMaxPages {
		maxPages = investorMaxPages
	}

	for page := 1; page <= maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return allTrades, err
		}

		url := fmt.Sprintf("%s/item/frgn.naver?code=%s&page=%d", c.baseURL, stockCode, page)
		body, err := c.fetch(ctx, url)
		if err != nil {
			return allTrades, fmt.Errorf("fetch investor page %s/%d: %w", stockCode, page, err)
		}

		trades, lastDate, hasMore := c.parseInvestorHTML(string(body), stockCode, from, to)
		allTrades = append(allTrades, trades...)

		// 기준일보다 이전 데이터면 종료
		if !lastDate.IsZero() && lastDate.Before(from) {
			break
		}
		if !hasMore {
			break
		}

		// 연속으로 데이터 없으면 종료
		if lastDate.IsZero() {
			noDataPages++
			if noDataPages >= 3 {
				break
			}
		} else {
			noDataPages = 0
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"stock_code": stockCode,
		"count":      len(allTrades),
	}).Debug("Fetched investor flow")
	return allTrades, nil
}

// parseInvestorHTML parses one investor page.
// Returns rows within [from, to], the oldest date seen and whether a next page exists.
func (c *Client) parseInvestorHTML(html string, stockCode string, from, to time.Time) ([]InvestorFlowData, time.Time, bool) {
	var trades []InvestorFlowData
	var lastDate time.Time

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return trades, lastDate, false
	}

	// 두번째 table.type2가 데이터 테이블
	tables := doc.Find("table.type2")
	if tables.Length() < 2 {
		return trades, lastDate, false
	}

	tables.Eq(1).Find("tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 7 {
			return
		}

		dateText := strings.TrimSpace(cells.Eq(0).Text())
		if !investorDateRe.MatchString(dateText) {
			return
		}
		tradeDate, err := time.Parse("2006.01.02", dateText)
		if err != nil {
			return
		}
		lastDate = tradeDate

		if tradeDate.Before(from) || tradeDate.After(to) {
			return
		}

		// 컬럼: 날짜 | 종가 | 대비 | 등락률 | 거래량 | 기관 | 외국인
		instNet := parseNum(cells.Eq(5).Text())
		foreignNet := parseNum(cells.Eq(6).Text())

		trades = append(trades, InvestorFlowData{
			StockCode:      stockCode,
			TradeDate:      tradeDate,
			ForeignNet:     foreignNet,
			InstitutionNet: instNet,
			IndividualNet:  -(foreignNet + instNet),
		})
	})

	hasMore := doc.Find(".pgRR").Length() > 0
	return trades, lastDate, hasMore
}

func parseNum(s string) int64 {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "+", "")
	if s == "" || s == "-" {
		return 0
	}
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}
