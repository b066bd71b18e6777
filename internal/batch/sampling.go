package batch

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// zValue returns the two-sided normal quantile for a confidence level,
// e.g. 0.95 -> 1.96.
func zValue(confidence float64) float64 {
	n := distuv.Normal{Mu: 0, Sigma: 1}
	return n.Quantile(1 - (1-confidence)/2)
}

// SampleSize computes the minimum human-review sample for a finite
// population using Cochran's formula with the conservative p = 0.5,
// then the finite-population correction. Rounds up.
func SampleSize(population int, confidence, margin float64) int {
	if population <= 0 {
		return 0
	}
	z := zValue(confidence)
	n0 := z * z * 0.25 / (margin * margin)
	n := n0 / (1 + (n0-1)/float64(population))
	size := int(math.Ceil(n))
	if size > population {
		size = population
	}
	return size
}

// scoreBand buckets a final score for stratified sampling. The 65-75
// band is where misclassification is most likely, so it is sampled at
// double weight.
type scoreBand struct {
	name   string
	lo, hi float64 // hi exclusive, except the last band
	weight float64
}

var scoreBands = []scoreBand{
	{"low", 0, 65, 1},
	{"borderline", 65, 75, 2},
	{"solid", 75, 85, 1},
	{"elite", 85, 101, 1},
}

func bandOf(score float64) int {
	for i, b := range scoreBands {
		if score >= b.lo && score < b.hi {
			return i
		}
	}
	return len(scoreBands) - 1
}

// StratifiedSample draws target question IDs from the accepted
// outcomes, allocating across score bands proportionally to band size
// times band weight, so borderline questions are over-sampled. The
// draw within each band is uniform without replacement.
func StratifiedSample(outcomes []Outcome, target int, rng *rand.Rand) []string {
	if target <= 0 || len(outcomes) == 0 {
		return nil
	}
	if target >= len(outcomes) {
		ids := make([]string, len(outcomes))
		for i, o := range outcomes {
			ids[i] = o.QuestionID
		}
		return ids
	}

	byBand := make([][]string, len(scoreBands))
	for _, o := range outcomes {
		b := bandOf(o.FinalScore)
		byBand[b] = append(byBand[b], o.QuestionID)
	}

	// Weighted proportional allocation, capped by band size.
	totalWeight := 0.0
	for i, ids := range byBand {
		totalWeight += float64(len(ids)) * scoreBands[i].weight
	}
	alloc := make([]int, len(scoreBands))
	allocated := 0
	for i, ids := range byBand {
		if len(ids) == 0 {
			continue
		}
		share := float64(len(ids)) * scoreBands[i].weight / totalWeight
		alloc[i] = int(math.Round(share * float64(target)))
		if alloc[i] > len(ids) {
			alloc[i] = len(ids)
		}
		allocated += alloc[i]
	}

	// Rounding drift: top up (or trim) starting from the borderline
	// band, which tolerates extra scrutiny best.
	order := []int{1, 2, 0, 3}
	for allocated < target {
		grew := false
		for _, i := range order {
			if alloc[i] < len(byBand[i]) {
				alloc[i]++
				allocated++
				grew = true
				break
			}
		}
		if !grew {
			break
		}
	}
	for allocated > target {
		for _, i := range []int{3, 0, 2, 1} {
			if alloc[i] > 0 {
				alloc[i]--
				allocated--
				break
			}
		}
	}

	var sample []string
	for i, ids := range byBand {
		if alloc[i] == 0 {
			continue
		}
		rng.Shuffle(len(ids), func(a, b int) { ids[a], ids[b] = ids[b], ids[a] })
		sample = append(sample, ids[:alloc[i]]...)
	}
	sort.Strings(sample)
	return sample
}

// Interval is a confidence interval on a proportion, with its
// projection onto a population count.
type Interval struct {
	Low        float64 `json:"low"`
	High       float64 `json:"high"`
	Confidence float64 `json:"confidence"`

	// PassingLow/High project the proportion bounds onto the full
	// population.
	PassingLow  int `json:"passing_low"`
	PassingHigh int `json:"passing_high"`
}

// WilsonInterval computes the Wilson score interval for an observed
// pass proportion. Preferred over the normal approximation for the
// small and extreme sample proportions human review produces.
func WilsonInterval(passes, n int, confidence float64) (low, high float64) {
	if n == 0 {
		return 0, 1
	}
	z := zValue(confidence)
	p := float64(passes) / float64(n)
	nf := float64(n)
	denom := 1 + z*z/nf
	center := (p + z*z/(2*nf)) / denom
	half := z * math.Sqrt(p*(1-p)/nf+z*z/(4*nf*nf)) / denom

	low = center - half
	high = center + half
	if low < 0 {
		low = 0
	}
	if high > 1 {
		high = 1
	}
	return low, high
}

// EstimatePopulationPassing projects a human-reviewed sample's
// pass/fail counts onto the full accepted population.
func EstimatePopulationPassing(population, passes, n int, confidence float64) Interval {
	low, high := WilsonInterval(passes, n, confidence)
	return Interval{
		Low:         low,
		High:        high,
		Confidence:  confidence,
		PassingLow:  int(math.Floor(low * float64(population))),
		PassingHigh: int(math.Ceil(high * float64(population))),
	}
}
