package backtest

import (
	"math"

	"github.com/skovlund/backtest/date"
)

// mkMarket builds a market with one close (and open, one below the close)
// price point per consecutive calendar day, starting at start.
func mkMarket(start string, closes map[string][]float64) *Market {
	m := NewMarket()
	first := date.MustParse(start)
	for ticker, prices := range closes {
		for i, p := range prices {
			on := first.Add(i)
			m.Append(ticker, Close, on, p)
			m.Append(ticker, Open, on, p-1)
		}
	}
	return m
}

// closeTo reports whether got is within tol of want.
func closeTo(got, want, tol float64) bool {
	return math.Abs(got-want) <= tol
}

// days returns n consecutive dates starting at start.
func days(start string, n int) []date.Date {
	first := date.MustParse(start)
	out := make([]date.Date, n)
	for i := range out {
		out[i] = first.Add(i)
	}
	return out
}
