package backtest

import (
	"fmt"
	"slices"

	"github.com/skovlund/backtest/date"
)

// lot is a single open purchase: a quantity bought at a unit price.
type lot struct {
	quantity int64
	price    Money
}

// lotQueue is a FIFO queue of open lots for one ticker. Lots are pushed at
// the tail by buys and consumed from the head by sells; the head index
// keeps pops O(1) amortized.
type lotQueue struct {
	lots []lot
	head int
}

func (q *lotQueue) push(l lot)       { q.lots = append(q.lots, l) }
func (q *lotQueue) empty() bool      { return q.head >= len(q.lots) }
func (q *lotQueue) front() *lot      { return &q.lots[q.head] }
func (q *lotQueue) pop()             { q.head++ }
func (q *lotQueue) remaining() []lot { return q.lots[q.head:] }

// SecurityGains holds the attribution of a single security.
type SecurityGains struct {
	Ticker     string
	Realized   Money
	Unrealized Money
	Remaining  int64 // shares still held in open lots at the end of the window
}

// GainsReport is the result of a profit and loss attribution over a window
// of the transaction log.
type GainsReport struct {
	Range      date.Range
	Realized   Money
	Unrealized Money
	Securities []SecurityGains
}

// Gains replays the transaction log restricted to the period and splits
// profit and loss into realized (FIFO lot matching of sells against buys,
// plus net payment income) and unrealized (mark-to-market of the remaining
// lots at the window's closing price).
//
// Zero period boundaries default to the full market index range; non-zero
// boundaries go through the shared date resolution rule. The per-ticker
// lot queues are rebuilt on every call and never persisted.
func (l *Ledger) Gains(period date.Range) (*GainsReport, error) {
	index := l.market.Index()
	if len(index) == 0 {
		return nil, fmt.Errorf("gains: market has no trading dates: %w", ErrEmptyInput)
	}
	from, to := period.From, period.To
	if from.IsZero() {
		from = index[0]
	} else {
		var err error
		if from, err = l.market.Resolve(from); err != nil {
			return nil, fmt.Errorf("gains: %w", err)
		}
	}
	if to.IsZero() {
		to = index[len(index)-1]
	} else {
		var err error
		if to, err = l.market.Resolve(to); err != nil {
			return nil, fmt.Errorf("gains: %w", err)
		}
	}

	window := date.Range{From: from, To: to}
	inventory := make(map[string]*lotQueue)
	realized := make(map[string]Money)
	var income Money // payment events not tied to a security

	for _, tx := range l.log {
		if !window.Contains(tx.Date) {
			continue
		}
		switch tx.Kind {
		case TxBuy:
			q := inventory[tx.Ticker]
			if q == nil {
				q = &lotQueue{}
				inventory[tx.Ticker] = q
			}
			q.push(lot{quantity: tx.Quantity, price: tx.Price})

		case TxSell:
			q := inventory[tx.Ticker]
			toSell := tx.Quantity
			for toSell > 0 {
				if q == nil || q.empty() {
					return nil, fmt.Errorf("gains: selling %d unmatched %s shares on %s: %w",
						toSell, tx.Ticker, tx.Date, ErrInventoryUnderflow)
				}
				head := q.front()
				matched := min(toSell, head.quantity)
				gain := tx.Price.Sub(head.price).MulInt(matched)
				realized[tx.Ticker] = realized[tx.Ticker].Add(gain)
				toSell -= matched
				if matched == head.quantity {
					q.pop()
				} else {
					head.quantity -= matched
				}
			}

		case TxCash:
			switch tx.Flow {
			case FlowDividend, FlowInterest, FlowDerivative:
				if tx.Ticker != "" {
					realized[tx.Ticker] = realized[tx.Ticker].Add(tx.Amount)
				} else {
					income = income.Add(tx.Amount)
				}
			case FlowAdjust:
				// Deposits and withdrawals are not gains.
			default:
				return nil, fmt.Errorf("gains: transaction on %s: %w: %q", tx.Date, ErrUnknownFlow, tx.Flow)
			}
		}
	}

	report := &GainsReport{Range: window, Realized: income}

	tickers := make([]string, 0, len(inventory)+len(realized))
	for t := range inventory {
		tickers = append(tickers, t)
	}
	for t := range realized {
		if _, ok := inventory[t]; !ok {
			tickers = append(tickers, t)
		}
	}
	slices.Sort(tickers)

	for _, ticker := range tickers {
		gains := SecurityGains{Ticker: ticker, Realized: realized[ticker]}
		if q := inventory[ticker]; q != nil && !q.empty() {
			hist, ok := l.market.Column(ticker, Close)
			if !ok {
				return nil, fmt.Errorf("gains: %w: %q", ErrUnknownTicker, ticker)
			}
			current, ok := hist.ValueAsOf(to)
			if !ok {
				return nil, fmt.Errorf("gains: no close price for %q at or before %s: %w", ticker, to, ErrNoValidDate)
			}
			price := M(current, l.currency)
			for _, open := range q.remaining() {
				gains.Unrealized = gains.Unrealized.Add(price.Sub(open.price).MulInt(open.quantity))
				gains.Remaining += open.quantity
			}
		}
		report.Realized = report.Realized.Add(gains.Realized)
		report.Unrealized = report.Unrealized.Add(gains.Unrealized)
		report.Securities = append(report.Securities, gains)
	}
	return report, nil
}
