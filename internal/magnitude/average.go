package magnitude

import (
	"fmt"
	"math"
	"sort"
)

// AverageMethodKind selects the estimator used to combine station
// magnitudes into a network magnitude (spec.md §4.5 step 2).
type AverageMethodKind int

const (
	MethodDefault AverageMethodKind = iota
	MethodMean
	MethodTrimmedMean
	MethodMedian
	MethodTrimmedMedian
)

// AverageMethod configures one estimator: its kind plus the trimming
// percentage for the two percentage-parameterized kinds.
type AverageMethod struct {
	Kind    AverageMethodKind
	Percent float64 // only meaningful for MethodTrimmedMean/MethodTrimmedMedian
}

// String renders the canonical method_id string spec.md §4.5 step 5 requires.
func (m AverageMethod) String() string {
	switch m.Kind {
	case MethodMean:
		return "mean"
	case MethodTrimmedMean:
		return fmt.Sprintf("trimmed mean(%g)", m.Percent)
	case MethodMedian:
		return "median"
	case MethodTrimmedMedian:
		return fmt.Sprintf("trimmed median(%g)", m.Percent)
	default:
		return "mean"
	}
}

// averageResult is the outcome of combining a value set: the aggregate
// value, its standard deviation, and a per-input weight vector in the
// same order as the input values (0 for trimmed-out samples).
type averageResult struct {
	value   float64
	stdev   float64
	weights []float64
	method  AverageMethod
}

// computeAverage dispatches to the estimator named by method, resolving
// MethodDefault per spec.md §4.5 step 2: trimmed mean at 25% when more
// than 3 values are present, else a plain mean.
func computeAverage(values []float64, method AverageMethod) (averageResult, bool) {
	if len(values) == 0 {
		return averageResult{}, false
	}

	resolved := method
	if resolved.Kind == MethodDefault {
		if len(values) > 3 {
			resolved = AverageMethod{Kind: MethodTrimmedMean, Percent: 25}
		} else {
			resolved = AverageMethod{Kind: MethodMean}
		}
	}

	switch resolved.Kind {
	case MethodMean:
		return mean(values), true
	case MethodTrimmedMean:
		return trimmedMean(values, resolved.Percent), true
	case MethodMedian:
		return medianAverage(values), true
	case MethodTrimmedMedian:
		return trimmedMedian(values, resolved.Percent), true
	default:
		return mean(values), true
	}
}

func mean(values []float64) averageResult {
	n := len(values)
	var sum float64
	for _, v := range values {
		sum += v
	}
	avg := sum / float64(n)

	var sumSq float64
	for _, v := range values {
		d := v - avg
		sumSq += d * d
	}
	stdev := 0.0
	if n > 1 {
		stdev = math.Sqrt(sumSq / float64(n-1))
	}

	weights := make([]float64, n)
	for i := range weights {
		weights[i] = 1
	}
	return averageResult{value: avg, stdev: stdev, weights: weights, method: AverageMethod{Kind: MethodMean}}
}

// trimmedMean discards the lowest and highest percent/2 of sorted values,
// averaging the remainder; trimmed samples receive weight 0 (testable
// property 4). Weights are returned in the original, untrimmed order.
func trimmedMean(values []float64, percent float64) averageResult {
	n := len(values)
	order := sortedIndices(values)

	trimCount := int(float64(n)*percent/100.0/2.0 + 0.5)
	lo, hi := trimCount, n-trimCount
	if lo >= hi {
		lo, hi = 0, n
	}

	weights := make([]float64, n)
	var sum float64
	var kept int
	for rank, idx := range order {
		if rank >= lo && rank < hi {
			weights[idx] = 1
			sum += values[idx]
			kept++
		}
	}
	avg := sum / float64(kept)

	var sumSq float64
	for rank, idx := range order {
		if rank >= lo && rank < hi {
			d := values[idx] - avg
			sumSq += d * d
		}
	}
	stdev := 0.0
	if kept > 1 {
		stdev = math.Sqrt(sumSq / float64(kept-1))
	}

	return averageResult{value: avg, stdev: stdev, weights: weights, method: AverageMethod{Kind: MethodTrimmedMean, Percent: percent}}
}

// medianAverage computes the median and the sample standard deviation of
// deviations from the median (spec.md §4.5 step 2, Median case); every
// weight is 1 (testable property 5).
func medianAverage(values []float64) averageResult {
	n := len(values)
	med := medianOf(values)

	var sumSq float64
	for _, v := range values {
		d := v - med
		sumSq += d * d
	}
	stdev := 0.0
	if n > 1 {
		stdev = math.Sqrt(sumSq / float64(n-1))
	}

	weights := make([]float64, n)
	for i := range weights {
		weights[i] = 1
	}
	return averageResult{value: med, stdev: stdev, weights: weights, method: AverageMethod{Kind: MethodMedian}}
}

// trimmedMedian computes trimmed-mean weights at percent, then replaces
// the central value with the plain median. Standard deviation is the
// weighted RMS deviation from the median using the trimming weights,
// normalized by (sum of weights - 1) — preserved verbatim per spec.md's
// Open Questions even though this formula is unusual.
func trimmedMedian(values []float64, percent float64) averageResult {
	trimmed := trimmedMean(values, percent)
	med := medianOf(values)

	var sumW, sumWSq float64
	for i, v := range values {
		w := trimmed.weights[i]
		d := v - med
		sumW += w
		sumWSq += w * d * d
	}
	stdev := 0.0
	if sumW > 1 {
		stdev = math.Sqrt(sumWSq / (sumW - 1))
	}

	return averageResult{value: med, stdev: stdev, weights: trimmed.weights, method: AverageMethod{Kind: MethodTrimmedMedian, Percent: percent}}
}

func medianOf(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// sortedIndices returns the indices of values in ascending order of value,
// so callers can map sorted rank back to the original position.
func sortedIndices(values []float64) []int {
	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return values[order[i]] < values[order[j]] })
	return order
}
