package naver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const investorPageHTML = `
<html>
<body>
<table class="type2">
	<tr><th>Header</th></tr>
</table>
<table class="type2">
	<tr>
		<td>2024.01.16</td>
		<td>73,000</td>
		<td>+500</td>
		<td>+0.69%</td>
		<td>1,200,000</td>
		<td>+60,000</td>
		<td>+40,000</td>
	</tr>
	<tr>
		<td>2024.01.15</td>
		<td>72,500</td>
		<td>+500</td>
		<td>+0.69%</td>
		<td>1,000,000</td>
		<td>+50,000</td>
		<td>+30,000</td>
	</tr>
	<tr>
		<td>invalid date</td>
		<td>73,000</td>
	</tr>
</table>
</body>
</html>
`

func TestParseInvestorHTML(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	c := &Client{}
	trades, lastDate, hasMore := c.parseInvestorHTML(investorPageHTML, "005930", from, to)

	require.Len(t, trades, 2)
	trade := trades[1]
	assert.Equal(t, "005930", trade.StockCode)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), trade.TradeDate)
	assert.Equal(t, int64(50000), trade.InstitutionNet)
	assert.Equal(t, int64(30000), trade.ForeignNet)
	assert.Equal(t, int64(-80000), trade.IndividualNet)

	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), lastDate)
	assert.False(t, hasMore, "no pagination link in sample")
}

func TestParseInvestorHTML_NoTables(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	c := &Client{}
	trades, lastDate, hasMore := c.parseInvestorHTML("<html><body></body></html>", "005930", from, to)

	assert.Empty(t, trades)
	assert.True(t, lastDate.IsZero())
	assert.False(t, hasMore)
}

func TestParseInvestorHTML_DateFilter(t *testing.T) {
	from := time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	c := &Client{}
	trades, _, _ := c.parseInvestorHTML(investorPageHTML, "005930", from, to)

	require.Len(t, trades, 1)
	assert.Equal(t, time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC), trades[0].TradeDate)
}

func TestParseNum(t *testing.T) {
	assert.Equal(t, int64(1234567), parseNum(" +1,234,567 "))
	assert.Equal(t, int64(-500), parseNum("-500"))
	assert.Equal(t, int64(0), parseNum("-"))
	assert.Equal(t, int64(0), parseNum(""))
}
