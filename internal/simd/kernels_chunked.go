package simd

import "math"

// Chunked backends mirror the vector register widths of the target ISAs
// (8 float32 lanes for AVX2, 4 for NEON) while keeping the documented
// deterministic order: whole chunks first, each chunk's lanes accumulated in
// index order, then the remainder sequentially. That order is exactly the
// generic order, which is what makes the bit-identity contract hold.

func sumChunks8(values []float32) float64 {
	var sum float64
	i, n := 0, len(values)
	for ; i+8 <= n; i += 8 {
		lanes := values[i : i+8 : i+8]
		for _, v := range lanes {
			sum += float64(v)
		}
	}
	for ; i < n; i++ {
		sum += float64(values[i])
	}
	return sum
}

func sumChunks4(values []float32) float64 {
	var sum float64
	i, n := 0, len(values)
	for ; i+4 <= n; i += 4 {
		lanes := values[i : i+4 : i+4]
		for _, v := range lanes {
			sum += float64(v)
		}
	}
	for ; i < n; i++ {
		sum += float64(values[i])
	}
	return sum
}

func maxChunks8(values []float32) float32 {
	max := float32(math.Inf(-1))
	i, n := 0, len(values)
	for ; i+8 <= n; i += 8 {
		lanes := values[i : i+8 : i+8]
		for _, v := range lanes {
			if v > max {
				max = v
			}
		}
	}
	for ; i < n; i++ {
		if v := values[i]; v > max {
			max = v
		}
	}
	return finiteOrZero(max)
}

func maxChunks4(values []float32) float32 {
	max := float32(math.Inf(-1))
	i, n := 0, len(values)
	for ; i+4 <= n; i += 4 {
		lanes := values[i : i+4 : i+4]
		for _, v := range lanes {
			if v > max {
				max = v
			}
		}
	}
	for ; i < n; i++ {
		if v := values[i]; v > max {
			max = v
		}
	}
	return finiteOrZero(max)
}
