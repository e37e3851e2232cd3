package simd

import "math"

var (
	sumImpl = sumGeneric
	maxImpl = maxGeneric
)

// Sum returns the sum of values, accumulated in double precision to limit
// cancellation. All backends accumulate in index order, so the result is
// bit-identical regardless of the active ISA.
func Sum(values []float32) float64 {
	return sumImpl(values)
}

// Max returns the largest value seen, ignoring the influence of non-finite
// lanes: if no finite value was seen the result is 0.
func Max(values []float32) float32 {
	return maxImpl(values)
}

// Entropy returns the Shannon entropy in nats of the value-normalized
// distribution over positive entries. Empty input or a non-positive total
// yields 0. Entries <= 0 contribute no probability mass.
//
// The total is computed through the active Sum backend; since every backend
// sums bit-identically, entropy is backend-independent too.
func Entropy(values []float32) float32 {
	if len(values) == 0 {
		return 0
	}
	sum := sumImpl(values)
	if sum <= 0 {
		return 0
	}
	var h float64
	for _, v := range values {
		p := float64(v) / sum
		if p > 0 {
			h -= p * math.Log(p)
		}
	}
	return float32(h)
}

func sumGeneric(values []float32) float64 {
	var sum float64
	for _, v := range values {
		sum += float64(v)
	}
	return sum
}

func maxGeneric(values []float32) float32 {
	max := float32(math.Inf(-1))
	for _, v := range values {
		if v > max {
			max = v
		}
	}
	return finiteOrZero(max)
}

// finiteOrZero collapses the no-finite-value-seen sentinel (still -Inf, or
// NaN/+Inf poisoning) to 0 per the kernel contract.
func finiteOrZero(max float32) float32 {
	f := float64(max)
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0
	}
	return max
}
