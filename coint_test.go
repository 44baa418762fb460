package backtest

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMackinnonP_CriticalValues(t *testing.T) {
	// Asymptotic 5% and 1% critical values should map back to p-values
	// close to their nominal levels.
	testCases := []struct {
		name string
		tau  float64
		n    int
		want float64
	}{
		{name: "unit root 5%", tau: -2.8615, n: 1, want: 0.05},
		{name: "unit root 1%", tau: -3.4336, n: 1, want: 0.01},
		{name: "cointegration 5%", tau: -3.3361, n: 2, want: 0.05},
		{name: "cointegration 1%", tau: -3.8961, n: 2, want: 0.01},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := mackinnonP(tc.tau, tc.n)
			assert.InDelta(t, tc.want, got, 0.005)
		})
	}
}

func TestMackinnonP_Clamps(t *testing.T) {
	assert.Equal(t, 0.0, mackinnonP(-30, 1))
	assert.Equal(t, 1.0, mackinnonP(5, 1))
	assert.Equal(t, 0.0, mackinnonP(-30, 2))
	assert.Equal(t, 1.0, mackinnonP(5, 2))
}

func TestMackinnonP_Monotone(t *testing.T) {
	// More negative statistics mean stronger evidence, so p must not
	// increase as tau decreases. Checks the small-p/large-p junction too.
	for _, n := range []int{1, 2} {
		prev := 0.0
		for tau := -19.0; tau <= 3.0; tau += 0.05 {
			p := mackinnonP(tau, n)
			assert.GreaterOrEqualf(t, p, prev, "n=%d tau=%v", n, tau)
			prev = p
		}
	}
}

func TestEngleGranger_CointegratedPair(t *testing.T) {
	// y tracks x up to stationary noise, the textbook cointegrated pair.
	rng := rand.New(rand.NewPCG(42, 1))
	n := 250
	x := make([]float64, n)
	y := make([]float64, n)
	level := 100.0
	for i := range x {
		level += rng.NormFloat64()
		x[i] = level
		y[i] = 2 + 0.5*x[i] + 0.1*rng.NormFloat64()
	}

	result, err := EngleGranger(y, x)
	require.NoError(t, err)
	assert.Less(t, result.PValue, 0.01)
	assert.Negative(t, result.Stat)
	assert.GreaterOrEqual(t, result.NObs, n/2)
}

func TestEngleGranger_DivergingPair(t *testing.T) {
	// Two independent exponential growths share no stationary
	// combination; the residual keeps the faster growth's explosive
	// root, pushing the statistic into positive territory.
	rng := rand.New(rand.NewPCG(9, 9))
	n := 200
	x := make([]float64, n)
	y := make([]float64, n)
	for i := range x {
		y[i] = math.Pow(1.01, float64(i)) * (1 + 0.001*rng.NormFloat64())
		x[i] = math.Pow(1.02, float64(i)) * (1 + 0.001*rng.NormFloat64())
	}

	result, err := EngleGranger(y, x)
	require.NoError(t, err)
	assert.Greater(t, result.PValue, 0.5)
}

func TestEngleGranger_InputErrors(t *testing.T) {
	_, err := EngleGranger(make([]float64, 30), make([]float64, 29))
	assert.Error(t, err)

	_, err = EngleGranger(make([]float64, 10), make([]float64, 10))
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestADFTest_StationarySeries(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 17))
	series := make([]float64, 250)
	for i := range series {
		series[i] = 10 + rng.NormFloat64()
	}

	result, err := ADFTest(series)
	require.NoError(t, err)
	assert.Less(t, result.PValue, 0.01)
}

func TestADFTest_ExplosiveSeries(t *testing.T) {
	rng := rand.New(rand.NewPCG(21, 4))
	series := make([]float64, 200)
	for i := range series {
		series[i] = math.Pow(1.01, float64(i)) * (1 + 0.001*rng.NormFloat64())
	}

	result, err := ADFTest(series)
	require.NoError(t, err)
	assert.Greater(t, result.PValue, 0.5)
}

func TestADFTest_ShortSeries(t *testing.T) {
	_, err := ADFTest(make([]float64, 5))
	assert.ErrorIs(t, err, ErrEmptyInput)
}
