package backtest

import (
	"fmt"
	"math"

	"github.com/skovlund/backtest/date"
)

// Default z-score thresholds for entering and leaving a spread position.
const (
	DefaultZEntry = 2.0
	DefaultZExit  = 0.5
)

// pairState is the state of the signal machine.
type pairState int

const (
	flat pairState = iota
	longSpread
	shortSpread
)

// SignalPoint is the per-day output of the signal engine.
type SignalPoint struct {
	Date      date.Date
	ZScore    float64
	Signal    int     // +1 long spread, -1 short spread, 0 flat
	PositionA float64 // +1 / -1 / 0
	PositionB float64 // -beta / +beta / 0
	Return    float64 // daily strategy return, positions lagged one day
}

// SignalEngine turns a z-scored spread into per-day target positions and
// realized daily returns for the pair. It is a three-state machine (flat,
// long spread, short spread) stepping one date at a time.
//
// Entry is expected to be at least exit by construction of the strategy;
// this is not structurally enforced, but Config.Validate checks it.
type SignalEngine struct {
	ZEntry float64
	ZExit  float64
}

// NewSignalEngine returns an engine with the given thresholds; zero values
// fall back to the defaults.
func NewSignalEngine(zEntry, zExit float64) *SignalEngine {
	if zEntry == 0 {
		zEntry = DefaultZEntry
	}
	if zExit == 0 {
		zExit = DefaultZExit
	}
	return &SignalEngine{ZEntry: zEntry, ZExit: zExit}
}

// Run walks the spread's z-score series from the first date: while flat it
// enters long spread below -ZEntry (+1 on A, -beta on B) or short spread
// above +ZEntry (-1 on A, +beta on B); while in a position it exits to flat
// the day |z| drops under ZExit, re-emitting the position otherwise.
//
// The daily return attributes yesterday's position to today's moves:
// Return[t] = posA[t-1]*retA[t] + posB[t-1]*retB[t]. The one-day lag keeps
// the return attribution free of look-ahead (the spread fit itself uses
// the full sample, a known limitation).
func (e *SignalEngine) Run(spread *Spread, a, b *date.History[float64]) ([]SignalPoint, error) {
	if len(spread.Dates) == 0 {
		return nil, fmt.Errorf("signal engine: %w", ErrEmptyInput)
	}
	points := e.walk(spread.ZScores(), spread.Beta)
	for i := range points {
		points[i].Date = spread.Dates[i]
	}

	// Daily percent changes aligned to the spread dates; the first return
	// of each series is zero by convention.
	retA := dailyReturns(spread.Dates, a)
	retB := dailyReturns(spread.Dates, b)
	for i := 1; i < len(points); i++ {
		points[i].Return = points[i-1].PositionA*retA[i] + points[i-1].PositionB*retB[i]
	}
	return points, nil
}

// walk steps the state machine over a z-score sequence, emitting the
// signal and target positions for every step.
func (e *SignalEngine) walk(z []float64, beta float64) []SignalPoint {
	points := make([]SignalPoint, len(z))
	state := flat
	for i := range z {
		p := SignalPoint{ZScore: z[i]}
		switch state {
		case flat:
			if z[i] < -e.ZEntry {
				state = longSpread
				p.Signal, p.PositionA, p.PositionB = 1, 1, -beta
			} else if z[i] > e.ZEntry {
				state = shortSpread
				p.Signal, p.PositionA, p.PositionB = -1, -1, beta
			}
		case longSpread:
			if math.Abs(z[i]) < e.ZExit {
				state = flat
			} else {
				p.Signal, p.PositionA, p.PositionB = 1, 1, -beta
			}
		case shortSpread:
			if math.Abs(z[i]) < e.ZExit {
				state = flat
			} else {
				p.Signal, p.PositionA, p.PositionB = -1, -1, beta
			}
		}
		points[i] = p
	}
	return points
}

func dailyReturns(dates []date.Date, h *date.History[float64]) []float64 {
	returns := make([]float64, len(dates))
	for i := 1; i < len(dates); i++ {
		prev, okPrev := h.Get(dates[i-1])
		cur, okCur := h.Get(dates[i])
		if okPrev && okCur && prev != 0 {
			returns[i] = cur/prev - 1
		}
	}
	return returns
}
