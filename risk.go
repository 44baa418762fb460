package backtest

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// TradingDays is the annual trading day count used for annualization.
const TradingDays = 251

// VaRMethod selects the Value at Risk estimator.
type VaRMethod string

const (
	// Historical estimates VaR from the empirical return quantile.
	Historical VaRMethod = "historical"
	// Parametric estimates VaR from a fitted normal distribution.
	Parametric VaRMethod = "parametric"
)

var stdNormal = distuv.Normal{Mu: 0, Sigma: 1}

// RiskMetrics computes annualized performance and tail risk measures from
// a daily return series. All calculations assume daily returns.
type RiskMetrics struct {
	returns  []float64
	riskFree float64
}

// NewRiskMetrics builds a calculator over a daily return series, dropping
// NaN observations. riskFreeRate is the annualized risk-free rate.
func NewRiskMetrics(returns []float64, riskFreeRate float64) *RiskMetrics {
	clean := make([]float64, 0, len(returns))
	for _, r := range returns {
		if !math.IsNaN(r) {
			clean = append(clean, r)
		}
	}
	return &RiskMetrics{returns: clean, riskFree: riskFreeRate}
}

// Len returns the number of usable observations.
func (rm *RiskMetrics) Len() int { return len(rm.returns) }

// AnnualizedReturn compounds the daily returns to an annual growth rate.
func (rm *RiskMetrics) AnnualizedReturn() float64 {
	if len(rm.returns) == 0 {
		return math.NaN()
	}
	growth := 1.0
	for _, r := range rm.returns {
		growth *= 1 + r
	}
	return math.Pow(growth, TradingDays/float64(len(rm.returns))) - 1
}

// AnnualizedVolatility scales the daily standard deviation by sqrt(251).
func (rm *RiskMetrics) AnnualizedVolatility() float64 {
	return stat.StdDev(rm.returns, nil) * math.Sqrt(TradingDays)
}

// SharpeRatio returns the annualized excess return per unit of volatility.
func (rm *RiskMetrics) SharpeRatio() float64 {
	return (rm.AnnualizedReturn() - rm.riskFree) / rm.AnnualizedVolatility()
}

// ValueAtRisk returns the loss threshold at the given confidence level as
// a positive number. alpha is the tail probability (0.05 for 95% VaR).
func (rm *RiskMetrics) ValueAtRisk(alpha float64, method VaRMethod) (float64, error) {
	if alpha <= 0 || alpha >= 1 {
		return 0, fmt.Errorf("%w: %v not in (0,1)", ErrInvalidAlpha, alpha)
	}
	if len(rm.returns) == 0 {
		return 0, fmt.Errorf("value at risk: %w", ErrEmptyInput)
	}
	switch method {
	case Historical:
		sorted := slices.Clone(rm.returns)
		slices.Sort(sorted)
		return -stat.Quantile(alpha, stat.LinInterp, sorted, nil), nil
	case Parametric:
		mean := stat.Mean(rm.returns, nil)
		std := stat.StdDev(rm.returns, nil)
		return -(mean + std*stdNormal.Quantile(alpha)), nil
	default:
		return 0, fmt.Errorf("%w: %q, want %q or %q", ErrInvalidMethod, method, Historical, Parametric)
	}
}

// ExpectedShortfall returns the average loss in the tail at or below the
// parametric VaR threshold, as a positive number.
func (rm *RiskMetrics) ExpectedShortfall(alpha float64) (float64, error) {
	threshold, err := rm.ValueAtRisk(alpha, Parametric)
	if err != nil {
		return 0, err
	}
	var sum float64
	var n int
	for _, r := range rm.returns {
		if r <= -threshold {
			sum += r
			n++
		}
	}
	if n == 0 {
		return 0, fmt.Errorf("expected shortfall: no observations at or below -%v: %w", threshold, ErrEmptyInput)
	}
	return -sum / float64(n), nil
}

// Report returns the standard risk report, mapping metric name to value.
// VaR and expected shortfall are reported at the 95% level.
func (rm *RiskMetrics) Report() (map[string]float64, error) {
	varParametric, err := rm.ValueAtRisk(0.05, Parametric)
	if err != nil {
		return nil, err
	}
	shortfall, err := rm.ExpectedShortfall(0.05)
	if err != nil {
		return nil, err
	}
	return map[string]float64{
		"Annualized Return":      rm.AnnualizedReturn(),
		"Annualized Volatility":  rm.AnnualizedVolatility(),
		"Sharpe Ratio":           rm.SharpeRatio(),
		"95% VaR (Parametric)":   varParametric,
		"95% Expected Shortfall": shortfall,
	}, nil
}
