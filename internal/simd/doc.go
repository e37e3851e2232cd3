// Package simd provides the deterministic reduction kernels (sum, max,
// entropy) used by the normalization pipeline and downstream scoring.
//
// Exactly one backend is active per process, selected at package init from
// detected CPU capability with a pure-Go generic fallback. The selection is
// immutable for the life of the process; ORGANELLE_SIMD=generic|neon|avx2
// overrides auto-detection when the requested backend is available.
//
// Determinism contract: every backend produces bit-identical results to the
// generic backend for any input. Accelerated paths therefore process
// fixed-width chunks (8 lanes at AVX2 width, 4 at NEON width) and accumulate
// the lanes of each chunk in index order, then the remainder sequentially —
// never a reduction tree, whose rounding would depend on the split points.
package simd
