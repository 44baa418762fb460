package backtest

import (
	"fmt"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/skovlund/backtest/date"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scanMarket builds a universe where KO and PEP track each other up to
// stationary noise, MSFT grows away on its own, and NEW has too little
// history to qualify. The tracked pair uses the same construction, seed
// and length as TestEngleGranger_CointegratedPair, so the scan sees a
// test statistic far below every critical value (the statistic is
// invariant under the scanner's base-price normalization).
func scanMarket() *Market {
	rngPair := rand.New(rand.NewPCG(42, 1))
	rngGrow := rand.New(rand.NewPCG(9, 9))
	n := 250
	ko := make([]float64, n)
	pep := make([]float64, n)
	msft := make([]float64, n)
	level := 100.0
	for i := 0; i < n; i++ {
		level += rngPair.NormFloat64()
		ko[i] = level
		pep[i] = 2 + 0.5*level + 0.1*rngPair.NormFloat64()
		msft[i] = 50 * math.Pow(1.02, float64(i)) * (1 + 0.001*rngGrow.NormFloat64())
	}
	m := mkMarket("2025-01-01", map[string][]float64{
		"KO":   ko,
		"PEP":  pep,
		"MSFT": msft,
		"NEW":  {10, 11, 12, 13, 14},
	})
	return m
}

func TestScanner_FindPairs(t *testing.T) {
	s := NewScanner(scanMarket())
	s.Workers = 4

	pairs, err := s.FindPairs([]string{"KO", "PEP", "MSFT", "NEW"})
	require.NoError(t, err)
	require.NotEmpty(t, pairs)

	// The tracking pair survives; the diverging and short-history pairs
	// do not.
	best := pairs[0]
	assert.Equal(t, "KO", best.A)
	assert.Equal(t, "PEP", best.B)
	assert.Less(t, best.PValue, 0.05)
	for _, p := range pairs {
		assert.NotEqual(t, "MSFT", p.A)
		assert.NotEqual(t, "MSFT", p.B)
		assert.NotEqual(t, "NEW", p.A)
		assert.NotEqual(t, "NEW", p.B)
	}
}

func TestScanner_TickerCap(t *testing.T) {
	s := NewScanner(NewMarket())
	universe := make([]string, MaxScanTickers+1)
	for i := range universe {
		universe[i] = fmt.Sprintf("T%03d", i)
	}
	_, err := s.FindPairs(universe)
	assert.ErrorIs(t, err, ErrTooManyTickers)
}

func TestScanner_UnknownTicker(t *testing.T) {
	s := NewScanner(scanMarket())
	_, err := s.FindPairs([]string{"KO", "NOPE"})
	assert.ErrorIs(t, err, ErrUnknownTicker)
}

func TestScanner_WindowRestrictsSample(t *testing.T) {
	s := NewScanner(scanMarket())

	// The full history qualifies, but a window keeps the test from
	// reading prices outside it: 20 in-window observations are below the
	// overlap floor, so the pair is not tested at all.
	s.Window = date.Range{To: date.MustParse("2025-01-20")}
	_, ok := s.testPair("KO", "PEP")
	assert.False(t, ok)

	pairs, err := s.FindPairs([]string{"KO", "PEP"})
	require.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestScanner_MinOverlap(t *testing.T) {
	m := scanMarket()
	s := NewScanner(m)

	// With the default overlap floor the short series never qualifies.
	_, ok := s.testPair("KO", "NEW")
	assert.False(t, ok)

	// Non-finite values disqualify a pair outright.
	m.Append("KO", Close, days("2025-01-01", 50)[49], math.NaN())
	_, ok = s.testPair("KO", "PEP")
	assert.False(t, ok)
}
