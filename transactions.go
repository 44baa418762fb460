package backtest

import (
	"fmt"

	"github.com/skovlund/backtest/date"
)

// TxKind is a typed string identifying a transaction kind.
type TxKind string

const (
	// TxBuy is a share purchase; its signed total is a cash outflow (< 0).
	TxBuy TxKind = "buy"
	// TxSell is a share sale; its signed total is a cash inflow (> 0).
	TxSell TxKind = "sell"
	// TxCash is a cash adjustment (deposit, withdrawal, or payment event);
	// its signed total carries the sign of the adjustment.
	TxCash TxKind = "cash"
)

// FlowKind qualifies a TxCash transaction with the family of payment event
// that produced it.
type FlowKind string

const (
	// FlowAdjust is a plain cash deposit or withdrawal. It is neutral for
	// profit and loss attribution.
	FlowAdjust FlowKind = "adjust"
	// FlowDividend is a dividend payment; its net amount is realized income.
	FlowDividend FlowKind = "dividend"
	// FlowInterest is an interest payment; its net amount is realized income.
	FlowInterest FlowKind = "interest"
	// FlowDerivative is a derivative contract payout; its net amount is
	// realized income.
	FlowDerivative FlowKind = "derivative"
)

// Transaction is a single immutable entry of the ledger log. Transactions
// are created only by the ledger's mutating operations and are never
// deleted individually; Reset clears the whole log.
type Transaction struct {
	Kind     TxKind
	Date     date.Date
	Ticker   string // empty for cash events without a source security
	Quantity int64  // shares for buy/sell, 1 for cash events
	Price    Money  // unit price; zero for cash events
	Amount   Money  // signed total: <0 outflow, >0 inflow
	Flow     FlowKind
}

// When returns the trading date of the transaction.
func (t Transaction) When() date.Date { return t.Date }

// What returns the kind of the transaction.
func (t Transaction) What() TxKind { return t.Kind }

func (t Transaction) String() string {
	switch t.Kind {
	case TxBuy, TxSell:
		return fmt.Sprintf("%s %s %d %s @ %s (%s)", t.Date, t.Kind, t.Quantity, t.Ticker, t.Price, t.Amount.SignedString())
	default:
		if t.Ticker != "" {
			return fmt.Sprintf("%s %s %s %s", t.Date, t.Flow, t.Ticker, t.Amount.SignedString())
		}
		return fmt.Sprintf("%s %s %s", t.Date, t.Flow, t.Amount.SignedString())
	}
}

func newBuy(on date.Date, ticker string, quantity int64, price, total Money) Transaction {
	return Transaction{Kind: TxBuy, Date: on, Ticker: ticker, Quantity: quantity, Price: price, Amount: total.Neg()}
}

func newSell(on date.Date, ticker string, quantity int64, price, total Money) Transaction {
	return Transaction{Kind: TxSell, Date: on, Ticker: ticker, Quantity: quantity, Price: price, Amount: total}
}

func newCash(on date.Date, flow FlowKind, ticker string, amount Money) Transaction {
	return Transaction{Kind: TxCash, Date: on, Ticker: ticker, Quantity: 1, Amount: amount, Flow: flow}
}
