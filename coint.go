package backtest

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ADFResult holds the outcome of an augmented Dickey-Fuller test.
type ADFResult struct {
	Stat   float64 // t-statistic of the unit root coefficient
	PValue float64 // MacKinnon approximate p-value
	Lag    int     // number of lagged differences selected by AIC
	NObs   int     // observations used in the final regression
}

// EngleGranger tests two aligned series for cointegration: it regresses y
// on x (with intercept), runs an augmented Dickey-Fuller test on the
// residuals (no constant, lag order by AIC), and maps the t-statistic to a
// p-value with the MacKinnon approximation for two cointegrated variables.
// A small p-value rejects "no cointegration".
func EngleGranger(y, x []float64) (ADFResult, error) {
	if len(y) != len(x) {
		return ADFResult{}, fmt.Errorf("engle-granger: series lengths differ: %d vs %d", len(y), len(x))
	}
	if len(y) < 20 {
		return ADFResult{}, fmt.Errorf("engle-granger: %d observations: %w", len(y), ErrEmptyInput)
	}
	alpha, beta := stat.LinearRegression(x, y, nil, false)
	res := make([]float64, len(y))
	for i := range y {
		res[i] = y[i] - (alpha + beta*x[i])
	}
	adf, err := adfTest(res, false)
	if err != nil {
		return ADFResult{}, fmt.Errorf("engle-granger: %w", err)
	}
	adf.PValue = mackinnonP(adf.Stat, 2)
	return adf, nil
}

// ADFTest runs an augmented Dickey-Fuller stationarity test on a single
// series, with a constant term and lag order selected by AIC. A small
// p-value rejects the unit root.
func ADFTest(series []float64) (ADFResult, error) {
	if len(series) < 20 {
		return ADFResult{}, fmt.Errorf("adf: %d observations: %w", len(series), ErrEmptyInput)
	}
	adf, err := adfTest(series, true)
	if err != nil {
		return ADFResult{}, err
	}
	adf.PValue = mackinnonP(adf.Stat, 1)
	return adf, nil
}

// adfTest regresses the first difference of u on its lagged level and
// lagged differences:
//
//	du[t] = gamma*u[t-1] + sum phi_i*du[t-i] (+ c)
//
// and returns the t-statistic of gamma. The number of lagged differences
// is chosen by AIC, bounded by the usual 12*(n/100)^(1/4) rule.
func adfTest(u []float64, constant bool) (ADFResult, error) {
	n := len(u)
	maxLag := int(math.Floor(12 * math.Pow(float64(n)/100, 0.25)))
	// Leave enough degrees of freedom for the largest candidate model.
	if limit := n/2 - 4; maxLag > limit {
		maxLag = limit
	}
	if maxLag < 0 {
		maxLag = 0
	}

	du := make([]float64, n-1)
	for i := 1; i < n; i++ {
		du[i-1] = u[i] - u[i-1]
	}

	// Pick the lag on a sample common to all candidates so AIC values are
	// comparable.
	bestLag, bestAIC := 0, math.Inf(1)
	for lag := 0; lag <= maxLag; lag++ {
		fit, err := adfRegression(u, du, lag, maxLag, constant)
		if err != nil {
			continue
		}
		k := lag + 1
		if constant {
			k++
		}
		aic := float64(fit.nobs)*math.Log(fit.ssr/float64(fit.nobs)) + 2*float64(k)
		if aic < bestAIC {
			bestAIC, bestLag = aic, lag
		}
	}

	// Refit at the selected lag using every usable observation.
	fit, err := adfRegression(u, du, bestLag, bestLag, constant)
	if err != nil {
		return ADFResult{}, err
	}
	return ADFResult{Stat: fit.tstat, Lag: bestLag, NObs: fit.nobs}, nil
}

type adfFit struct {
	tstat float64 // t-statistic of the level coefficient
	ssr   float64
	nobs  int
}

// adfRegression fits the ADF regression with `lag` lagged differences,
// starting the estimation sample after `trim` difference observations.
func adfRegression(u, du []float64, lag, trim int, constant bool) (adfFit, error) {
	start := max(lag, trim)
	rows := len(du) - start
	cols := 1 + lag
	if constant {
		cols++
	}
	if rows <= cols+1 {
		return adfFit{}, fmt.Errorf("adf regression: %d observations for %d regressors: %w", rows, cols, ErrEmptyInput)
	}

	X := mat.NewDense(rows, cols, nil)
	yv := mat.NewVecDense(rows, nil)
	for r := 0; r < rows; r++ {
		t := start + r
		yv.SetVec(r, du[t])
		X.Set(r, 0, u[t]) // lagged level: du[t] = u[t+1]-u[t]
		for i := 1; i <= lag; i++ {
			X.Set(r, i, du[t-i])
		}
		if constant {
			X.Set(r, cols-1, 1)
		}
	}

	var qr mat.QR
	qr.Factorize(X)
	var coef mat.VecDense
	if err := qr.SolveVecTo(&coef, false, yv); err != nil {
		return adfFit{}, fmt.Errorf("adf regression: %w", err)
	}

	var fitted mat.VecDense
	fitted.MulVec(X, &coef)
	var ssr float64
	for r := 0; r < rows; r++ {
		e := yv.AtVec(r) - fitted.AtVec(r)
		ssr += e * e
	}

	// Standard error of the level coefficient from sigma^2 * (X'X)^-1.
	var xtx, xtxInv mat.Dense
	xtx.Mul(X.T(), X)
	if err := xtxInv.Inverse(&xtx); err != nil {
		return adfFit{}, fmt.Errorf("adf regression: singular design: %w", err)
	}
	sigma2 := ssr / float64(rows-cols)
	se := math.Sqrt(sigma2 * xtxInv.At(0, 0))
	if se == 0 || math.IsNaN(se) {
		return adfFit{}, fmt.Errorf("adf regression: degenerate standard error")
	}

	return adfFit{tstat: coef.AtVec(0) / se, ssr: ssr, nobs: rows}, nil
}

// MacKinnon (1994) approximate asymptotic p-values for the Dickey-Fuller
// t-statistic with a constant in the first stage. Index 0 is the plain
// unit-root test, index 1 the Engle-Granger case with two variables.
// p = Phi(poly(tau)), with separate polynomials for the small-p and
// large-p regions and hard clamps outside the tabulated range.
var (
	tauStarC  = []float64{-1.61, -2.62}
	tauMinC   = []float64{-18.83, -18.86}
	tauMaxC   = []float64{2.74, 0.92}
	tauSmallC = [][]float64{
		{2.1659, 1.4412, 0.038269},
		{2.92, 1.5012, 0.039796},
	}
	tauLargeC = [][]float64{
		{1.7339, 0.93202, -0.12745, -0.010368},
		{2.1945, 0.64695, -0.29198, -0.042377},
	}
)

// mackinnonP maps an ADF t-statistic to its approximate asymptotic
// p-value. n is the number of series: 1 for a plain stationarity test,
// 2 for a two-variable cointegration test.
func mackinnonP(tau float64, n int) float64 {
	i := n - 1
	if tau < tauMinC[i] {
		return 0
	}
	if tau > tauMaxC[i] {
		return 1
	}
	var coeffs []float64
	if tau <= tauStarC[i] {
		coeffs = tauSmallC[i]
	} else {
		coeffs = tauLargeC[i]
	}
	poly := 0.0
	for p := len(coeffs) - 1; p >= 0; p-- {
		poly = poly*tau + coeffs[p]
	}
	return stdNormal.CDF(poly)
}
