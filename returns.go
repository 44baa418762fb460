package backtest

import (
	"fmt"
	"math"

	"github.com/skovlund/backtest/date"
)

// weightsByValue computes the market-value weight of every current holding,
// marked at the latest close. The ledger is the single source of both the
// quantities and the prices.
func weightsByValue(l *Ledger) (map[string]float64, error) {
	weights := make(map[string]float64)
	var total float64
	for ticker, quantity := range l.Holdings() {
		hist, ok := l.market.Column(ticker, Close)
		if !ok || hist.Len() == 0 {
			return nil, fmt.Errorf("portfolio weights: %w: %q", ErrUnknownTicker, ticker)
		}
		_, price := hist.Latest()
		v := price * float64(quantity)
		weights[ticker] = v
		total += v
	}
	if total == 0 {
		return nil, fmt.Errorf("portfolio weights: no holdings: %w", ErrEmptyInput)
	}
	for ticker := range weights {
		weights[ticker] /= total
	}
	return weights, nil
}

// PortfolioReturns computes the value-weighted daily return series of the
// ledger's current holdings over a period. Weights are recomputed from
// current holdings and current prices; dates are the intersection of the
// holdings' trading dates inside the period.
//
// A zero period boundary defaults to the corresponding end of the index.
func PortfolioReturns(l *Ledger, period date.Range) (*date.History[float64], error) {
	weights, err := weightsByValue(l)
	if err != nil {
		return nil, err
	}

	closes := make(map[string]*date.History[float64], len(weights))
	var common []date.Date
	for ticker := range weights {
		hist, _ := l.market.Column(ticker, Close)
		closes[ticker] = hist
		days := clipDays(hist.Days(), l.market, period)
		if common == nil {
			common = days
		} else {
			common = intersectDays(common, days)
		}
	}
	if len(common) < 2 {
		return nil, fmt.Errorf("portfolio returns: need at least two common dates: %w", ErrEmptyInput)
	}

	returns := &date.History[float64]{}
	for i := 1; i < len(common); i++ {
		var r float64
		for ticker, w := range weights {
			prev, _ := closes[ticker].Get(common[i-1])
			cur, _ := closes[ticker].Get(common[i])
			if prev == 0 || math.IsNaN(prev) || math.IsNaN(cur) {
				return nil, fmt.Errorf("portfolio returns: bad price for %q on %s: %w", ticker, common[i], ErrZeroBasePrice)
			}
			r += w * (cur/prev - 1)
		}
		returns.Append(common[i], r)
	}
	return returns, nil
}

// CumulativeReturn computes the cumulative portfolio return over the
// period: each holding's close series normalized to its first in-window
// value, weighted by current holdings, final value minus one.
func CumulativeReturn(l *Ledger, period date.Range) (float64, error) {
	weights, err := weightsByValue(l)
	if err != nil {
		return 0, err
	}
	var total float64
	for ticker, w := range weights {
		hist, _ := l.market.Column(ticker, Close)
		days := clipDays(hist.Days(), l.market, period)
		if len(days) == 0 {
			return 0, fmt.Errorf("cumulative return: no prices for %q in %s: %w", ticker, period, ErrEmptyInput)
		}
		first, _ := hist.Get(days[0])
		last, _ := hist.Get(days[len(days)-1])
		if first == 0 {
			return 0, fmt.Errorf("cumulative return: %q: %w", ticker, ErrZeroBasePrice)
		}
		total += w * last / first
	}
	return total - 1, nil
}

// clipDays restricts sorted days to the period; zero boundaries default to
// the full market index range.
func clipDays(days []date.Date, m *Market, period date.Range) []date.Date {
	from, to := period.From, period.To
	index := m.Index()
	if len(index) == 0 {
		return nil
	}
	if from.IsZero() {
		from = index[0]
	}
	if to.IsZero() {
		to = index[len(index)-1]
	}
	window := date.Range{From: from, To: to}
	clipped := days[:0:0]
	for _, d := range days {
		if window.Contains(d) {
			clipped = append(clipped, d)
		}
	}
	return clipped
}

// intersectDays merges two sorted date slices keeping common dates.
func intersectDays(a, b []date.Date) []date.Date {
	common := make([]date.Date, 0, min(len(a), len(b)))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch a[i].Compare(b[j]) {
		case -1:
			i++
		case 1:
			j++
		default:
			common = append(common, a[i])
			i, j = i+1, j+1
		}
	}
	return common
}
