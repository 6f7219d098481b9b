package simulator

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/windfall/windfall/internal/blackjack"
)

// HandResult is the outcome of one simulated hand
type HandResult struct {
	Result      blackjack.Result
	Bet         int
	Payout      int
	PlayerTotal int
	DealerTotal int
}

// Net returns the chips won or lost
func (h HandResult) Net() int { return h.Payout - h.Bet }

// Statistics accumulates simulated hands. Values hold each hand's net in
// units of the bet so tables with different limits compare directly.
type Statistics struct {
	Hands      int
	Wins       int
	Losses     int
	Pushes     int
	Blackjacks int
	Busts      int
	Voids      int

	Wagered int
	Net     int

	Values []float64
}

// Add incorporates a hand result
func (s *Statistics) Add(r HandResult) {
	s.Hands++
	switch r.Result {
	case blackjack.ResultWin:
		s.Wins++
	case blackjack.ResultLose:
		s.Losses++
		if r.PlayerTotal > 21 {
			s.Busts++
		}
	case blackjack.ResultPush:
		s.Pushes++
	case blackjack.ResultBlackjack:
		s.Blackjacks++
	case blackjack.ResultVoid:
		s.Voids++
		return
	}

	s.Wagered += r.Bet
	s.Net += r.Net()
	if r.Bet > 0 {
		s.Values = append(s.Values, float64(r.Net())/float64(r.Bet))
	}
}

// Mean returns the average result in bets per hand
func (s *Statistics) Mean() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	return stat.Mean(s.Values, nil)
}

// StdDev returns the sample standard deviation in bets
func (s *Statistics) StdDev() float64 {
	if len(s.Values) < 2 {
		return 0
	}
	return math.Sqrt(stat.Variance(s.Values, nil))
}

// StdError returns the standard error of the mean
func (s *Statistics) StdError() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	return s.StdDev() / math.Sqrt(float64(len(s.Values)))
}

// ConfidenceInterval95 returns the 95% confidence interval for the mean
// from a Student's t distribution.
func (s *Statistics) ConfidenceInterval95() (float64, float64) {
	mean := s.Mean()
	n := len(s.Values)
	if n < 2 {
		return mean, mean
	}
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 1)}
	margin := t.Quantile(0.975) * s.StdError()
	return mean - margin, mean + margin
}

// HouseEdge is the fraction of each bet the house keeps on average
func (s *Statistics) HouseEdge() float64 {
	return -s.Mean()
}

// Percentile returns the empirical quantile p (0.0 to 1.0) of the results
func (s *Statistics) Percentile(p float64) float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := slices.Clone(s.Values)
	slices.Sort(sorted)
	return stat.Quantile(p, stat.Empirical, sorted, nil)
}

// Rate returns count as a fraction of decided hands
func (s *Statistics) Rate(count int) float64 {
	played := s.Hands - s.Voids
	if played == 0 {
		return 0
	}
	return float64(count) / float64(played)
}
