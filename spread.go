package backtest

import (
	"fmt"
	"math"

	"github.com/skovlund/backtest/date"
	"gonum.org/v1/gonum/stat"
)

// Spread is the residual of one normalized price series against a linear
// fit on another, with the fitted intercept (alpha) and hedge ratio (beta).
type Spread struct {
	Dates  []date.Date
	Values []float64
	Alpha  float64
	Beta   float64
}

// FitSpread aligns two price series on their common dates, drops non-finite
// observations jointly, normalizes both to start at 1.0, and fits an
// ordinary least squares regression of the first on the second (with
// intercept). The spread is seriesA - (beta*seriesB + alpha) on the
// normalized series.
func FitSpread(a, b *date.History[float64]) (*Spread, error) {
	common := date.Intersect(a, b)

	dates := make([]date.Date, 0, len(common))
	ra := make([]float64, 0, len(common))
	rb := make([]float64, 0, len(common))
	for _, on := range common {
		va, _ := a.Get(on)
		vb, _ := b.Get(on)
		// The mask applies to both series jointly so dates stay aligned.
		if math.IsNaN(va) || math.IsInf(va, 0) || math.IsNaN(vb) || math.IsInf(vb, 0) {
			continue
		}
		dates = append(dates, on)
		ra = append(ra, va)
		rb = append(rb, vb)
	}
	if len(dates) == 0 {
		return nil, fmt.Errorf("fitting spread: no usable observations: %w", ErrEmptyInput)
	}
	if ra[0] == 0 || rb[0] == 0 {
		return nil, fmt.Errorf("fitting spread: %w", ErrZeroBasePrice)
	}
	baseA, baseB := ra[0], rb[0]
	for i := range dates {
		ra[i] /= baseA
		rb[i] /= baseB
	}

	alpha, beta := stat.LinearRegression(rb, ra, nil, false)

	spread := &Spread{Dates: dates, Values: make([]float64, len(dates)), Alpha: alpha, Beta: beta}
	for i := range dates {
		spread.Values[i] = ra[i] - (beta*rb[i] + alpha)
	}
	return spread, nil
}

// ZScores standardizes the spread over the full window: (x - mean) / std.
//
// The normalization is static, not rolling, consistent with the full-sample
// OLS fit. It therefore uses information from the whole window; this
// look-ahead is a documented limitation of the fitting stage.
func (s *Spread) ZScores() []float64 {
	mean := stat.Mean(s.Values, nil)
	std := stat.StdDev(s.Values, nil)
	z := make([]float64, len(s.Values))
	for i, v := range s.Values {
		z[i] = (v - mean) / std
	}
	return z
}
