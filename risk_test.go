package backtest

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRiskMetrics_Annualization(t *testing.T) {
	// A constant daily return compounds exactly.
	returns := make([]float64, TradingDays)
	for i := range returns {
		returns[i] = 0.001
	}
	rm := NewRiskMetrics(returns, 0)
	assert.InDelta(t, math.Pow(1.001, TradingDays)-1, rm.AnnualizedReturn(), 1e-12)
	assert.InDelta(t, 0, rm.AnnualizedVolatility(), 1e-12)
}

func TestRiskMetrics_DropsNaN(t *testing.T) {
	rm := NewRiskMetrics([]float64{0.01, math.NaN(), -0.02, math.NaN()}, 0)
	assert.Equal(t, 2, rm.Len())
	assert.False(t, math.IsNaN(rm.AnnualizedReturn()))
}

func TestRiskMetrics_SharpeRatio(t *testing.T) {
	returns := []float64{0.01, -0.005, 0.02, 0.003, -0.01, 0.007}
	riskFree := 0.025
	rm := NewRiskMetrics(returns, riskFree)
	want := (rm.AnnualizedReturn() - riskFree) / rm.AnnualizedVolatility()
	assert.InDelta(t, want, rm.SharpeRatio(), 1e-12)
}

func TestValueAtRisk_Parametric(t *testing.T) {
	returns := []float64{0.01, -0.01, 0.02, -0.02, 0.005, -0.005}
	rm := NewRiskMetrics(returns, 0)

	got, err := rm.ValueAtRisk(0.05, Parametric)
	require.NoError(t, err)

	// mean + std * z(0.05), reported as a positive loss.
	mean, std := meanStd(returns)
	want := -(mean + std*stdNormal.Quantile(0.05))
	assert.InDelta(t, want, got, 1e-12)
	assert.Positive(t, got)
}

func TestValueAtRisk_HistoricalConverges(t *testing.T) {
	// On a large normal sample the empirical 5% quantile approaches
	// mu - 1.645*sigma.
	rng := rand.New(rand.NewPCG(7, 11))
	const sigma = 0.02
	returns := make([]float64, 20_000)
	for i := range returns {
		returns[i] = rng.NormFloat64() * sigma
	}
	rm := NewRiskMetrics(returns, 0)

	got, err := rm.ValueAtRisk(0.05, Historical)
	require.NoError(t, err)
	want := -sigma * stdNormal.Quantile(0.05)
	assert.InEpsilon(t, want, got, 0.10)
}

func TestValueAtRisk_Errors(t *testing.T) {
	rm := NewRiskMetrics([]float64{0.01, -0.01}, 0)

	_, err := rm.ValueAtRisk(0, Parametric)
	assert.ErrorIs(t, err, ErrInvalidAlpha)
	_, err = rm.ValueAtRisk(1, Parametric)
	assert.ErrorIs(t, err, ErrInvalidAlpha)
	_, err = rm.ValueAtRisk(0.05, "montecarlo")
	assert.ErrorIs(t, err, ErrInvalidMethod)

	empty := NewRiskMetrics(nil, 0)
	_, err = empty.ValueAtRisk(0.05, Parametric)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestExpectedShortfall(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))
	returns := make([]float64, 20_000)
	for i := range returns {
		returns[i] = rng.NormFloat64() * 0.02
	}
	rm := NewRiskMetrics(returns, 0)

	shortfall, err := rm.ExpectedShortfall(0.05)
	require.NoError(t, err)
	threshold, err := rm.ValueAtRisk(0.05, Parametric)
	require.NoError(t, err)

	// The average tail loss exceeds the loss threshold that defines the
	// tail.
	assert.Greater(t, shortfall, threshold)

	// For a normal distribution ES(5%) is about 2.063*sigma.
	assert.InEpsilon(t, 0.02*2.063, shortfall, 0.10)
}

func TestExpectedShortfall_EmptyTail(t *testing.T) {
	// Two symmetric observations put the 5% parametric cutoff at about
	// -1.645 standard deviations, below both of them, so the tail is
	// empty.
	rm := NewRiskMetrics([]float64{-0.01, 0.01}, 0)
	_, err := rm.ExpectedShortfall(0.05)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestRiskMetrics_Report(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	returns := make([]float64, 500)
	for i := range returns {
		returns[i] = 0.0005 + rng.NormFloat64()*0.01
	}
	rm := NewRiskMetrics(returns, 0.025)

	report, err := rm.Report()
	require.NoError(t, err)
	for _, key := range []string{
		"Annualized Return",
		"Annualized Volatility",
		"Sharpe Ratio",
		"95% VaR (Parametric)",
		"95% Expected Shortfall",
	} {
		v, ok := report[key]
		assert.Truef(t, ok, "missing key %q", key)
		assert.Falsef(t, math.IsNaN(v), "%q is NaN", key)
	}
}

func meanStd(xs []float64) (mean, std float64) {
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	var ss float64
	for _, x := range xs {
		ss += (x - mean) * (x - mean)
	}
	return mean, math.Sqrt(ss / float64(len(xs)-1))
}
