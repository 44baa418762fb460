// Package backtest simulates trading strategies against historical daily
// price series and attributes profit, loss and risk to a simulated account.
//
// The core pieces are the Ledger (cash, holdings and an immutable
// transaction log with trading-date resolution), the FIFO profit and loss
// attribution (Ledger.Gains), and the statistical-arbitrage engine
// (Scanner, FitSpread, SignalEngine) that scans ticker pairs for
// cointegration and drives a three-state trading signal off a standardized
// z-score. RiskMetrics consumes the resulting daily return series.
//
// All data lives in memory; loading prices into a Market is the caller's
// concern.
package backtest

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/skovlund/backtest/date"
)

// PairResult is the outcome of running the pairs strategy on one
// cointegrated pair.
type PairResult struct {
	A, B    string
	PValue  float64
	Beta    float64
	Signals []SignalPoint
	Return  float64 // cumulative strategy return over the window
}

// Backtester runs the pairs trading strategy over a market.
type Backtester struct {
	market *Market
	cfg    *Config
	logger zerolog.Logger
}

// NewBacktester builds a backtester; a nil config means DefaultConfig.
func NewBacktester(market *Market, cfg *Config) *Backtester {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Backtester{market: market, cfg: cfg, logger: zerolog.Nop()}
}

// SetLogger routes progress logging to the given logger.
func (bt *Backtester) SetLogger(logger zerolog.Logger) { bt.logger = logger }

// PairsTrading scans the tickers for cointegrated pairs inside the period
// and, for each survivor, fits the spread, runs the signal engine and
// collects the per-day signals and the cumulative strategy return.
// Pairs trade independently of each other.
//
// Zero period boundaries leave that side of the window open.
func (bt *Backtester) PairsTrading(tickers []string, period date.Range) ([]PairResult, error) {
	scanner := NewScanner(bt.market)
	scanner.Significance = bt.cfg.Significance
	scanner.MinOverlap = bt.cfg.MinOverlap
	scanner.Window = period
	if bt.cfg.Workers > 0 {
		scanner.Workers = bt.cfg.Workers
	}
	scanner.Logger = bt.logger

	pairs, err := scanner.FindPairs(tickers)
	if err != nil {
		return nil, fmt.Errorf("pairs trading: %w", err)
	}

	engine := NewSignalEngine(bt.cfg.ZEntry, bt.cfg.ZExit)
	results := make([]PairResult, 0, len(pairs))
	for _, pair := range pairs {
		ha, _ := bt.market.Column(pair.A, Close)
		hb, _ := bt.market.Column(pair.B, Close)
		ha = ha.Between(period.From, period.To)
		hb = hb.Between(period.From, period.To)

		spread, err := FitSpread(ha, hb)
		if err != nil {
			bt.logger.Warn().Str("a", pair.A).Str("b", pair.B).Err(err).Msg("skip pair: spread fit failed")
			continue
		}
		signals, err := engine.Run(spread, ha, hb)
		if err != nil {
			bt.logger.Warn().Str("a", pair.A).Str("b", pair.B).Err(err).Msg("skip pair: signal run failed")
			continue
		}

		growth := 1.0
		for _, p := range signals {
			growth *= 1 + p.Return
		}
		results = append(results, PairResult{
			A:       pair.A,
			B:       pair.B,
			PValue:  pair.PValue,
			Beta:    spread.Beta,
			Signals: signals,
			Return:  growth - 1,
		})
		bt.logger.Info().Str("a", pair.A).Str("b", pair.B).
			Float64("pvalue", pair.PValue).Float64("beta", spread.Beta).
			Float64("return", growth-1).Msg("pair backtested")
	}
	return results, nil
}
