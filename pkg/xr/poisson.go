package xr

import (
	"math"
	"sort"
)

// PoissonProbability returns P(X = k) for X ~ Poisson(lambda).
// Computed in log space so large k cannot overflow the k! term.
func PoissonProbability(lambda float64, k int) float64 {
	if lambda <= 0 || k < 0 {
		return 0.0
	}
	logFactorial, _ := math.Lgamma(float64(k) + 1)
	logProb := -lambda + float64(k)*math.Log(lambda) - logFactorial
	if logProb < -700 {
		// below exp() underflow, treat as impossible
		return 0.0
	}
	return math.Exp(logProb)
}

// Scoreline is one exact result with its probability in percent
type Scoreline struct {
	HomeGoals   int     `json:"homeGoals"`
	AwayGoals   int     `json:"awayGoals"`
	Probability float64 `json:"probability"`
}

// OutcomeDistribution is the full outcome picture for a single fixture.
// Percentages are renormalized so win + draw + loss covers the whole event
// space despite the truncated scoreline grid.
type OutcomeDistribution struct {
	HomeWinPct float64 `json:"homeWinPct"`
	DrawPct    float64 `json:"drawPct"`
	AwayWinPct float64 `json:"awayWinPct"`

	// Expected league points, 3*P(win) + P(draw)
	XPtsHome float64 `json:"xptsHome"`
	XPtsAway float64 `json:"xptsAway"`

	TopScorelines []Scoreline `json:"topScorelines"`
	MostLikely    Scoreline   `json:"mostLikelyScoreline"`
}

// ComputeMatchProbabilities converts a pair of expected-goal figures into
// win/draw/loss probabilities, expected points and the most likely scorelines,
// assuming the two sides score as independent Poisson processes.
func ComputeMatchProbabilities(homeXG, awayXG float64) *OutcomeDistribution {
	maxGoals := Config.PoissonMaxGoals

	type cell struct {
		h, a int
		p    float64
	}

	cells := make([]cell, 0, (maxGoals+1)*(maxGoals+1))
	for h := 0; h <= maxGoals; h++ {
		ph := PoissonProbability(homeXG, h)
		for a := 0; a <= maxGoals; a++ {
			p := ph * PoissonProbability(awayXG, a)
			if p > 0 {
				cells = append(cells, cell{h, a, p})
			}
		}
	}

	var winHome, draw, winAway float64
	for _, c := range cells {
		switch {
		case c.h > c.a:
			winHome += c.p
		case c.h == c.a:
			draw += c.p
		default:
			winAway += c.p
		}
	}

	// Renormalize away the truncated tail
	total := winHome + draw + winAway
	if total > 0 {
		winHome /= total
		draw /= total
		winAway /= total
	}

	xptsHome := 3*winHome + draw
	xptsAway := 3*winAway + draw

	// Most likely scorelines. The stable sort keeps enumeration order for
	// exactly tied probabilities, so (1,0) outranks (1,1) when lambda is 1.
	sort.SliceStable(cells, func(i, j int) bool {
		return cells[i].p > cells[j].p
	})

	n := Config.TopScorelines
	if n > len(cells) {
		n = len(cells)
	}
	top := make([]Scoreline, 0, n)
	for _, c := range cells[:n] {
		top = append(top, Scoreline{
			HomeGoals:   c.h,
			AwayGoals:   c.a,
			Probability: roundTo(c.p*100, 2),
		})
	}

	mostLikely := Scoreline{HomeGoals: 0, AwayGoals: 0}
	if len(top) > 0 {
		mostLikely = top[0]
	}

	return &OutcomeDistribution{
		HomeWinPct:    roundTo(winHome*100, 1),
		DrawPct:       roundTo(draw*100, 1),
		AwayWinPct:    roundTo(winAway*100, 1),
		XPtsHome:      roundTo(xptsHome, 2),
		XPtsAway:      roundTo(xptsAway, 2),
		TopScorelines: top,
		MostLikely:    mostLikely,
	}
}
