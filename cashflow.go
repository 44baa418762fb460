package backtest

import (
	"fmt"

	"github.com/skovlund/backtest/date"
)

// CashEvent is a payment event applied to a ledger's cash balance: a plain
// adjustment, a dividend, an interest payment, or a derivative payout.
// The kinds share one after-tax computation and one apply-to-ledger
// dispatch; kind-specific data stays in the event fields.
type CashEvent struct {
	Flow    FlowKind
	Date    date.Date
	Ticker  string  // paying security, empty for plain adjustments
	Amount  float64 // gross amount, signed
	TaxRate float64 // withheld fraction in [0, 1)
}

// Dividend builds a dividend payment event for a security.
func Dividend(on date.Date, ticker string, amount, taxRate float64) CashEvent {
	return CashEvent{Flow: FlowDividend, Date: on, Ticker: ticker, Amount: amount, TaxRate: taxRate}
}

// Interest builds an interest payment event.
func Interest(on date.Date, amount, taxRate float64) CashEvent {
	return CashEvent{Flow: FlowInterest, Date: on, Amount: amount, TaxRate: taxRate}
}

// DerivativePayout builds a derivative contract payout event.
func DerivativePayout(on date.Date, ticker string, amount, taxRate float64) CashEvent {
	return CashEvent{Flow: FlowDerivative, Date: on, Ticker: ticker, Amount: amount, TaxRate: taxRate}
}

// AmountAfterTax returns the net amount credited to the ledger.
func (e CashEvent) AmountAfterTax() float64 {
	return e.Amount * (1 - e.TaxRate)
}

// Apply validates the event and applies its net amount to the ledger,
// recording a cash transaction. It is all-or-nothing.
func (e CashEvent) Apply(l *Ledger) error {
	switch e.Flow {
	case FlowAdjust, FlowDividend, FlowInterest, FlowDerivative:
	default:
		return fmt.Errorf("applying cash event: %w: %q", ErrUnknownFlow, e.Flow)
	}
	if e.TaxRate < 0 || e.TaxRate >= 1 {
		return fmt.Errorf("applying cash event: tax rate %v outside [0,1)", e.TaxRate)
	}
	return l.applyCash(e)
}
