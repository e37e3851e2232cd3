// Package container reads and writes the memory-mappable KORG expression
// container: a 256-byte validated header, two string tables (gene symbols,
// cell barcodes) and the three CSC arrays (col_ptr, row_idx, values).
//
// The reader maps the file read-only and performs every bounds, checksum and
// invariant check before any typed value is handed out; a Container can only
// be obtained through the fallible Open, never by direct reinterpretation of
// mapped bytes. Any single violation fails the whole read — a corrupted
// offset table or mis-sized array indicates an unrecoverable layout mismatch,
// and there is no degraded-success mode.
package container
