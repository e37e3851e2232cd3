// Package hash implements the two hash functions the on-disk formats depend on.
//
// Content fingerprints use FNV-1a 64 (streamed over raw file bytes or applied
// to in-memory buffers). The container header checksum uses CRC-64/ECMA-182
// in its non-reflected form. Both must stay byte-compatible with files
// produced by the upstream tooling; neither is cryptographically secure and
// they only detect accidental changes, not tampering.
package hash
