// Package organelle ingests single-cell gene-expression matrices and exposes
// them through a uniform, optionally normalized, per-cell expression
// accessor.
//
// Two on-disk sources are supported: the MatrixMarket text triple
// (matrix.mtx, features.tsv, barcodes.tsv, each optionally gzip-compressed
// and optionally sharing a filename prefix) and the single-file
// memory-mapped binary container (kira-organelle.bin). Load discovers
// whichever is present, preferring the container, and builds the
// deduplicated gene index and species call. Bundle.Accessor serves the
// counts, normalized on request, with normalized columns cached in a
// content-addressed side file keyed by a fingerprint of every contributing
// input.
package organelle
