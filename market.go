package backtest

import (
	"fmt"
	"slices"

	"github.com/skovlund/backtest/date"
)

// Field identifies a daily price field.
type Field string

const (
	// Open is the opening price of the trading day.
	Open Field = "Open"
	// Close is the closing price of the trading day.
	Close Field = "Close"
)

// security holds the market data of a single ticker.
type security struct {
	ticker string
	sector string
	open   date.History[float64]
	close  date.History[float64]
}

func (s *security) history(field Field) *date.History[float64] {
	if field == Open {
		return &s.open
	}
	return &s.close
}

// Market holds an immutable table of daily prices keyed by (ticker, field,
// date), plus per-ticker sector metadata. It is populated once by an
// external loader and only read by the simulation core.
//
// The date index is the union of all tickers' trading dates; it is
// monotonically increasing and shared across tickers, although not every
// ticker needs to cover the whole range.
type Market struct {
	securities map[string]*security
	index      []date.Date // sorted union of all trading dates
}

// NewMarket returns a new empty market data collection.
func NewMarket() *Market {
	return &Market{securities: make(map[string]*security)}
}

// Has reports whether the market holds data for the ticker.
func (m *Market) Has(ticker string) bool {
	_, ok := m.securities[ticker]
	return ok
}

// Tickers returns the sorted tickers known to the market.
func (m *Market) Tickers() []string {
	tickers := make([]string, 0, len(m.securities))
	for t := range m.securities {
		tickers = append(tickers, t)
	}
	slices.Sort(tickers)
	return tickers
}

// Append records a price point. An existing point for the same
// (ticker, field, date) is overwritten.
func (m *Market) Append(ticker string, field Field, on date.Date, value float64) {
	sec, ok := m.securities[ticker]
	if !ok {
		sec = &security{ticker: ticker}
		m.securities[ticker] = sec
	}
	sec.history(field).Append(on, value)

	if i, found := slices.BinarySearchFunc(m.index, on, date.Date.Compare); !found {
		m.index = slices.Insert(m.index, i, on)
	}
}

// SetSector records the sector of a ticker.
func (m *Market) SetSector(ticker, sector string) {
	sec, ok := m.securities[ticker]
	if !ok {
		sec = &security{ticker: ticker}
		m.securities[ticker] = sec
	}
	sec.sector = sector
}

// Sector returns the sector of a ticker, or "Unknown" if none was recorded.
func (m *Market) Sector(ticker string) string {
	if sec, ok := m.securities[ticker]; ok && sec.sector != "" {
		return sec.sector
	}
	return "Unknown"
}

// At reads a single value for a given (ticker, field, day).
func (m *Market) At(ticker string, field Field, on date.Date) (float64, bool) {
	sec, ok := m.securities[ticker]
	if !ok {
		return 0, false
	}
	return sec.history(field).Get(on)
}

// Column returns the full series of a (ticker, field) pair.
// The returned history is shared and must not be modified.
func (m *Market) Column(ticker string, field Field) (*date.History[float64], bool) {
	sec, ok := m.securities[ticker]
	if !ok {
		return nil, false
	}
	return sec.history(field), true
}

// Index returns the sorted union of all trading dates.
func (m *Market) Index() []date.Date { return slices.Clone(m.index) }

// LatestDate returns the last trading date of the index, or the zero date
// if the market is empty.
func (m *Market) LatestDate() date.Date {
	if len(m.index) == 0 {
		return date.Date{}
	}
	return m.index[len(m.index)-1]
}

// Resolve maps a requested date to a trading date: the date itself when it
// is in the index, otherwise the earliest index date strictly after it.
// It fails with ErrNoValidDate when no such date exists.
//
// Buy, sell and the attribution windowing all share this rule.
func (m *Market) Resolve(on date.Date) (date.Date, error) {
	i, found := slices.BinarySearchFunc(m.index, on, date.Date.Compare)
	if found {
		return on, nil
	}
	if i >= len(m.index) {
		return date.Date{}, fmt.Errorf("resolving %s: %w", on, ErrNoValidDate)
	}
	return m.index[i], nil
}
