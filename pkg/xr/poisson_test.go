package xr

import (
	"math"
	"testing"
)

func TestPoissonProbabilityBasics(t *testing.T) {
	// P(0; 1) = e^-1
	if math.Abs(PoissonProbability(1.0, 0)-math.Exp(-1)) > 1e-12 {
		t.Errorf("P(0;1) = %f", PoissonProbability(1.0, 0))
	}
	// P(2; 1.5) = e^-1.5 * 1.5^2 / 2
	want := math.Exp(-1.5) * 1.5 * 1.5 / 2
	if math.Abs(PoissonProbability(1.5, 2)-want) > 1e-12 {
		t.Errorf("P(2;1.5) = %f, want %f", PoissonProbability(1.5, 2), want)
	}

	if PoissonProbability(0, 3) != 0 {
		t.Error("zero lambda should give zero probability")
	}
	if PoissonProbability(-1, 0) != 0 {
		t.Error("negative lambda should give zero probability")
	}
	if PoissonProbability(1.5, -1) != 0 {
		t.Error("negative k should give zero probability")
	}
}

func TestPoissonMassSumsToOne(t *testing.T) {
	for _, lambda := range []float64{0.2, 1.0, 2.5, 3.5} {
		sum := 0.0
		for k := 0; k <= 30; k++ {
			sum += PoissonProbability(lambda, k)
		}
		if math.Abs(sum-1.0) > 1e-9 {
			t.Errorf("mass for lambda=%f sums to %f", lambda, sum)
		}
	}
}

func TestOutcomeProbabilitiesConserved(t *testing.T) {
	cases := [][2]float64{{1.5, 1.0}, {0.2, 0.2}, {3.5, 3.5}, {2.8, 0.4}}
	for _, c := range cases {
		dist := ComputeMatchProbabilities(c[0], c[1])
		total := dist.HomeWinPct + dist.DrawPct + dist.AwayWinPct
		if math.Abs(total-100.0) > 0.2 {
			t.Errorf("outcome total for %v = %f, want 100", c, total)
		}

		if dist.XPtsHome < 0 || dist.XPtsHome > 3 || dist.XPtsAway < 0 || dist.XPtsAway > 3 {
			t.Errorf("xPts out of bounds for %v: %f / %f", c, dist.XPtsHome, dist.XPtsAway)
		}
	}
}

func TestOutcomeFavorsStrongerSide(t *testing.T) {
	dist := ComputeMatchProbabilities(2.5, 0.8)
	if dist.HomeWinPct <= dist.AwayWinPct {
		t.Errorf("home win %f should exceed away win %f", dist.HomeWinPct, dist.AwayWinPct)
	}
	if dist.XPtsHome <= dist.XPtsAway {
		t.Errorf("home xPts %f should exceed away xPts %f", dist.XPtsHome, dist.XPtsAway)
	}
}

func TestTopScorelinesOrderingAndTieBreak(t *testing.T) {
	dist := ComputeMatchProbabilities(1.5, 1.0)

	if len(dist.TopScorelines) != Config.TopScorelines {
		t.Fatalf("got %d scorelines, want %d", len(dist.TopScorelines), Config.TopScorelines)
	}

	for i := 1; i < len(dist.TopScorelines); i++ {
		if dist.TopScorelines[i].Probability > dist.TopScorelines[i-1].Probability {
			t.Fatal("scorelines not sorted by descending probability")
		}
	}

	// P(a=0) and P(a=1) are exactly equal at lambda 1, so the stable sort
	// keeps the enumeration order and 1-0 comes out on top
	if dist.MostLikely.HomeGoals != 1 || dist.MostLikely.AwayGoals != 0 {
		t.Errorf("most likely = %d-%d, want 1-0",
			dist.MostLikely.HomeGoals, dist.MostLikely.AwayGoals)
	}
}

func TestDegenerateXGGivesEmptyDistribution(t *testing.T) {
	dist := ComputeMatchProbabilities(0, 0)

	if dist.HomeWinPct != 0 || dist.DrawPct != 0 || dist.AwayWinPct != 0 {
		t.Errorf("expected zeroed outcome, got %f/%f/%f",
			dist.HomeWinPct, dist.DrawPct, dist.AwayWinPct)
	}
	if dist.MostLikely.HomeGoals != 0 || dist.MostLikely.AwayGoals != 0 {
		t.Errorf("most likely = %d-%d, want 0-0",
			dist.MostLikely.HomeGoals, dist.MostLikely.AwayGoals)
	}
	if len(dist.TopScorelines) != 0 {
		t.Errorf("expected no scorelines, got %d", len(dist.TopScorelines))
	}
}

func TestHighXGStaysFinite(t *testing.T) {
	dist := ComputeMatchProbabilities(Config.MaxXGPrediction, Config.MaxXGPrediction)
	if math.IsNaN(dist.HomeWinPct) || math.IsInf(dist.HomeWinPct, 0) {
		t.Error("distribution not finite at max xG")
	}
	total := dist.HomeWinPct + dist.DrawPct + dist.AwayWinPct
	if math.Abs(total-100.0) > 0.2 {
		t.Errorf("outcome total = %f at max xG", total)
	}
}
