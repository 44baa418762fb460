package backtest

import (
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"github.com/skovlund/backtest/date"
)

// MaxScanTickers caps the scan universe; the pairwise scan is quadratic in
// the ticker count and each test is at least linear in the history length.
const MaxScanTickers = 80

// DefaultMinOverlap is the minimum number of common observations required
// before a pair is tested.
const DefaultMinOverlap = 100

// CointegratedPair is a pair of tickers whose close series passed the
// cointegration test, with the test's p-value.
type CointegratedPair struct {
	A, B   string
	PValue float64
}

// Scanner tests all ticker pairs of a universe for cointegration.
//
// Pairs are independent, so the tests run on a bounded worker pool purely
// for throughput; no state is shared across pairs and the result order is
// deterministic regardless of worker count.
//
// Window restricts every pair test to that date range, so selection never
// reads prices outside the backtested period. Zero boundaries leave the
// corresponding side open.
type Scanner struct {
	market       *Market
	Significance float64
	MinOverlap   int
	Window       date.Range
	Workers      int
	Logger       zerolog.Logger
}

// NewScanner returns a scanner over the market with default settings:
// 5% significance, 100 observations minimum overlap, one worker per CPU.
func NewScanner(market *Market) *Scanner {
	return &Scanner{
		market:       market,
		Significance: 0.05,
		MinOverlap:   DefaultMinOverlap,
		Workers:      runtime.NumCPU(),
		Logger:       zerolog.Nop(),
	}
}

// FindPairs tests every unordered ticker pair and returns the pairs whose
// p-value is below the significance level, most significant first. Ties
// keep the pair enumeration order (stable sort).
//
// A pair is skipped, not failed, when the two series overlap on fewer than
// MinOverlap dates, when either series is non-finite on a retained date,
// or when either starting price is zero.
func (s *Scanner) FindPairs(tickers []string) ([]CointegratedPair, error) {
	if len(tickers) > MaxScanTickers {
		return nil, fmt.Errorf("scanning %d tickers, cap is %d: %w", len(tickers), MaxScanTickers, ErrTooManyTickers)
	}
	for _, t := range tickers {
		if !s.market.Has(t) {
			return nil, fmt.Errorf("scanning: %w: %q", ErrUnknownTicker, t)
		}
	}

	type job struct {
		slot int
		a, b string
	}
	var jobs []job
	for i := 0; i < len(tickers); i++ {
		for j := i + 1; j < len(tickers); j++ {
			jobs = append(jobs, job{slot: len(jobs), a: tickers[i], b: tickers[j]})
		}
	}

	// One result slot per pair: workers write disjoint slots, nothing is
	// shared, and the enumeration order survives the parallelism.
	results := make([]*CointegratedPair, len(jobs))
	workers := s.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	queue := make(chan job)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for jb := range queue {
				if p, ok := s.testPair(jb.a, jb.b); ok {
					results[jb.slot] = &CointegratedPair{A: jb.a, B: jb.b, PValue: p}
				}
			}
		}()
	}
	for _, jb := range jobs {
		queue <- jb
	}
	close(queue)
	wg.Wait()

	var pairs []CointegratedPair
	for _, r := range results {
		if r != nil && r.PValue < s.Significance {
			pairs = append(pairs, *r)
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].PValue < pairs[j].PValue })

	s.Logger.Info().Int("tickers", len(tickers)).Int("tested", len(jobs)).
		Int("cointegrated", len(pairs)).Msg("pair scan done")
	return pairs, nil
}

// testPair aligns, masks and normalizes the two close series restricted
// to the scan window and runs the cointegration test. It returns ok=false
// when the pair does not qualify.
func (s *Scanner) testPair(a, b string) (pvalue float64, ok bool) {
	ha, _ := s.market.Column(a, Close)
	hb, _ := s.market.Column(b, Close)
	ha = ha.Between(s.Window.From, s.Window.To)
	hb = hb.Between(s.Window.From, s.Window.To)
	common := date.Intersect(ha, hb)
	if len(common) < s.MinOverlap {
		s.Logger.Debug().Str("a", a).Str("b", b).Int("overlap", len(common)).Msg("skip pair: overlap too small")
		return 0, false
	}

	ya := make([]float64, len(common))
	yb := make([]float64, len(common))
	for i, on := range common {
		va, _ := ha.Get(on)
		vb, _ := hb.Get(on)
		if math.IsNaN(va) || math.IsInf(va, 0) || math.IsNaN(vb) || math.IsInf(vb, 0) {
			s.Logger.Debug().Str("a", a).Str("b", b).Stringer("date", on).Msg("skip pair: non-finite value")
			return 0, false
		}
		ya[i], yb[i] = va, vb
	}
	if ya[0] == 0 || yb[0] == 0 {
		s.Logger.Debug().Str("a", a).Str("b", b).Msg("skip pair: zero base price")
		return 0, false
	}
	baseA, baseB := ya[0], yb[0]
	for i := range common {
		ya[i] /= baseA
		yb[i] /= baseB
	}

	res, err := EngleGranger(ya, yb)
	if err != nil {
		s.Logger.Debug().Str("a", a).Str("b", b).Err(err).Msg("skip pair: test failed")
		return 0, false
	}
	return res.PValue, true
}
