package backtest

import (
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/rs/zerolog"
	"github.com/skovlund/backtest/date"
)

// Ledger owns the cash balance and the holdings of a simulated account and
// appends an immutable, time-ordered transaction log.
//
// The ledger is a single-writer structure: callers issue Buy/Sell/AdjustCash
// sequentially in date order, as the whole system is a sequential simulation
// rather than a live service. All mutating operations are all-or-nothing.
type Ledger struct {
	name         string
	market       *Market
	currency     string
	startingCash Money
	cash         Money
	holdings     map[string]int64
	log          []Transaction
	logger       zerolog.Logger
}

// NewLedger creates a ledger reading prices from the given market, funded
// with a starting cash amount in USD.
func NewLedger(name string, market *Market, startingCash float64) *Ledger {
	return NewLedgerIn(name, market, startingCash, "USD")
}

// NewLedgerIn is NewLedger with an explicit reporting currency.
// The currency is used for amounts and formatting only; there is no
// currency conversion.
func NewLedgerIn(name string, market *Market, startingCash float64, currency string) *Ledger {
	return &Ledger{
		name:         name,
		market:       market,
		currency:     currency,
		startingCash: M(startingCash, currency),
		cash:         M(startingCash, currency),
		holdings:     make(map[string]int64),
		logger:       zerolog.Nop(),
	}
}

// SetLogger routes trade logging to the given logger.
// The default is a no-op logger.
func (l *Ledger) SetLogger(logger zerolog.Logger) { l.logger = logger }

// Name returns the ledger's name.
func (l *Ledger) Name() string { return l.name }

// Market returns the price table the ledger reads from.
func (l *Ledger) Market() *Market { return l.market }

// CashBalance returns the current cash balance.
func (l *Ledger) CashBalance() Money { return l.cash }

// StartingCash returns the initial funding of the ledger.
func (l *Ledger) StartingCash() Money { return l.startingCash }

// HoldingsOf returns the current share count held for a ticker.
func (l *Ledger) HoldingsOf(ticker string) int64 { return l.holdings[ticker] }

// Holdings iterates over the current holdings in ticker order.
func (l *Ledger) Holdings() iter.Seq2[string, int64] {
	return func(yield func(string, int64) bool) {
		tickers := make([]string, 0, len(l.holdings))
		for t := range l.holdings {
			tickers = append(tickers, t)
		}
		slices.Sort(tickers)
		for _, t := range tickers {
			if !yield(t, l.holdings[t]) {
				return
			}
		}
	}
}

// Transactions iterates over the transaction log in chronological order.
func (l *Ledger) Transactions() iter.Seq2[int, Transaction] {
	return func(yield func(int, Transaction) bool) {
		for i, tx := range l.log {
			if !yield(i, tx) {
				return
			}
		}
	}
}

// TransactionLog returns a copy of the transaction log.
func (l *Ledger) TransactionLog() []Transaction { return slices.Clone(l.log) }

// priceAt resolves the requested date and reads the unit price of the
// ticker there. A zero date means the latest trading date.
func (l *Ledger) priceAt(ticker string, field Field, on date.Date) (date.Date, Money, error) {
	if !l.market.Has(ticker) {
		return date.Date{}, Money{}, fmt.Errorf("%w: %q", ErrUnknownTicker, ticker)
	}
	if on.IsZero() {
		on = l.market.LatestDate()
	}
	resolved, err := l.market.Resolve(on)
	if err != nil {
		return date.Date{}, Money{}, err
	}
	price, ok := l.market.At(ticker, field, resolved)
	if !ok {
		// The shared index has this date but the ticker does not cover it.
		return date.Date{}, Money{}, fmt.Errorf("no %s price for %q on %s: %w", field, ticker, resolved, ErrNoValidDate)
	}
	return resolved, M(price, l.currency), nil
}

// Buy purchases quantity shares of ticker on the requested date, at the
// close price, or the open price when atOpen is set. The requested date is
// resolved to the next available trading date when needed.
func (l *Ledger) Buy(ticker string, quantity int64, on date.Date, atOpen bool) error {
	if quantity <= 0 {
		return fmt.Errorf("buy %s: quantity must be positive, got %d", ticker, quantity)
	}
	field := Close
	if atOpen {
		field = Open
	}
	resolved, price, err := l.priceAt(ticker, field, on)
	if err != nil {
		return fmt.Errorf("buy %s: %w", ticker, err)
	}
	totalCost := price.MulInt(quantity)
	if totalCost.GreaterThan(l.cash) {
		return fmt.Errorf("buy %d %s for %s with %s available: %w",
			quantity, ticker, totalCost, l.cash, ErrInsufficientFunds)
	}
	l.cash = l.cash.Sub(totalCost)
	l.holdings[ticker] += quantity
	l.log = append(l.log, newBuy(resolved, ticker, quantity, price, totalCost))

	l.logger.Debug().Stringer("date", resolved).Str("ticker", ticker).
		Int64("quantity", quantity).Stringer("price", price).
		Int64("held", l.holdings[ticker]).Msg("buy")
	return nil
}

// Sell sells quantity shares of ticker on the requested date. The holdings
// check happens before date resolution; the ticker entry is removed when
// the held quantity reaches exactly zero.
func (l *Ledger) Sell(ticker string, quantity int64, on date.Date, atOpen bool) error {
	if quantity <= 0 {
		return fmt.Errorf("sell %s: quantity must be positive, got %d", ticker, quantity)
	}
	if l.holdings[ticker] < quantity {
		return fmt.Errorf("sell %d %s holding %d: %w",
			quantity, ticker, l.holdings[ticker], ErrInsufficientShares)
	}
	field := Close
	if atOpen {
		field = Open
	}
	resolved, price, err := l.priceAt(ticker, field, on)
	if err != nil {
		return fmt.Errorf("sell %s: %w", ticker, err)
	}
	totalRevenue := price.MulInt(quantity)
	l.cash = l.cash.Add(totalRevenue)
	l.holdings[ticker] -= quantity
	if l.holdings[ticker] == 0 {
		delete(l.holdings, ticker)
	}
	l.log = append(l.log, newSell(resolved, ticker, quantity, price, totalRevenue))

	l.logger.Debug().Stringer("date", resolved).Str("ticker", ticker).
		Int64("quantity", quantity).Stringer("price", price).
		Int64("held", l.holdings[ticker]).Msg("sell")
	return nil
}

// AdjustCash applies a signed cash delta on the given date and logs a cash
// adjustment transaction.
func (l *Ledger) AdjustCash(amount float64, on date.Date) error {
	return l.applyCash(CashEvent{Flow: FlowAdjust, Date: on, Amount: amount})
}

// applyCash applies the net amount of a cash event.
func (l *Ledger) applyCash(e CashEvent) error {
	net := M(e.AmountAfterTax(), l.currency)
	if l.cash.Add(net).IsNegative() {
		return fmt.Errorf("%s of %s with %s available: %w", e.Flow, net, l.cash, ErrInsufficientFunds)
	}
	l.cash = l.cash.Add(net)
	l.log = append(l.log, newCash(e.Date, e.Flow, e.Ticker, net))

	l.logger.Debug().Stringer("date", e.Date).Str("flow", string(e.Flow)).
		Stringer("amount", net).Msg("cash")
	return nil
}

// PortfolioValue returns cash plus every holding marked at its latest
// close price.
func (l *Ledger) PortfolioValue() Money {
	total := l.cash
	for ticker, quantity := range l.holdings {
		if hist, ok := l.market.Column(ticker, Close); ok && hist.Len() > 0 {
			_, price := hist.Latest()
			total = total.Add(M(price, l.currency).MulInt(quantity))
		}
	}
	return total
}

// SectorWeights returns the share of current portfolio market value held
// in each sector. Cash is not included.
func (l *Ledger) SectorWeights() map[string]float64 {
	values := make(map[string]float64)
	var total float64
	for ticker, quantity := range l.holdings {
		hist, ok := l.market.Column(ticker, Close)
		if !ok || hist.Len() == 0 {
			continue
		}
		_, price := hist.Latest()
		v := price * float64(quantity)
		values[l.market.Sector(ticker)] += v
		total += v
	}
	if total == 0 {
		return values
	}
	for sector := range values {
		values[sector] /= total
	}
	return values
}

// Reset restores the ledger to its initial state: starting cash, no
// holdings, empty log.
func (l *Ledger) Reset() {
	l.cash = l.startingCash
	l.holdings = make(map[string]int64)
	l.log = l.log[:0]
	l.logger.Debug().Str("ledger", l.name).Msg("reset")
}

// String returns a human readable summary of the current portfolio.
func (l *Ledger) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Portfolio: %s\n", l.name)
	for ticker, quantity := range l.Holdings() {
		fmt.Fprintf(&b, "%s - Sector: %s, Shares: %d\n", ticker, l.market.Sector(ticker), quantity)
	}
	fmt.Fprintf(&b, "Current Cash: %s\n", l.cash)
	fmt.Fprintf(&b, "Total Portfolio Value: %s", l.PortfolioValue())
	return b.String()
}
