package backtest

import "errors"

// Sentinel errors reported by the ledger, the attribution replay and the
// statistical engines. They are always wrapped with context, so callers
// should test them with errors.Is.
var (
	// ErrInsufficientFunds is returned when a buy or a negative cash
	// adjustment would drive the cash balance below zero.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInsufficientShares is returned when a sell exceeds the held quantity.
	ErrInsufficientShares = errors.New("insufficient shares")

	// ErrNoValidDate is returned when date resolution finds no trading date
	// at or after the requested date.
	ErrNoValidDate = errors.New("no valid trading date")

	// ErrUnknownTicker is returned when a ticker is absent from the market data.
	ErrUnknownTicker = errors.New("unknown ticker")

	// ErrTooManyTickers is returned by the pair scanner guard; the scan cost
	// is quadratic in the ticker count.
	ErrTooManyTickers = errors.New("too many tickers")

	// ErrEmptyInput is returned when a series operation is left with no
	// usable observations after alignment and masking.
	ErrEmptyInput = errors.New("empty input")

	// ErrZeroBasePrice is returned when a series cannot be normalized
	// because its first value is zero.
	ErrZeroBasePrice = errors.New("zero base price")

	// ErrInventoryUnderflow is returned when the FIFO replay runs out of
	// lots before a sell is fully matched. It signals a corrupted or
	// out-of-order transaction log and is fatal for the computation.
	ErrInventoryUnderflow = errors.New("inventory underflow")

	// ErrUnknownFlow is returned when the attribution replay meets a cash
	// flow kind it does not recognize.
	ErrUnknownFlow = errors.New("unknown cash flow kind")

	// ErrInvalidAlpha is returned when a VaR confidence level is outside (0, 1).
	ErrInvalidAlpha = errors.New("invalid alpha")

	// ErrInvalidMethod is returned for an unrecognized VaR method.
	ErrInvalidMethod = errors.New("invalid method")
)
