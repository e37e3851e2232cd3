package expr

import (
	"log/slog"

	"github.com/kiralab/organelle/normcache"
)

// Options controls how Build turns a raw-counts accessor into the accessor
// handed to consumers.
type Options struct {
	// Normalize applies ln(1+count/lib*scale) to every value.
	Normalize bool
	// Cache persists (and restores) normalized columns in a side file.
	// Only effective together with Normalize.
	Cache bool
	// CachePath is the cache file location; required when Cache is set.
	CachePath string
	// Scale overrides DefaultScale when non-zero.
	Scale float32
	// Log receives cache-miss and cache-write-failure events; nil discards.
	Log *slog.Logger
}

// Normalize materializes per-cell normalized columns from a raw-counts
// accessor. Entry order within each column follows the source accessor.
func Normalize(counts Accessor, scale float32) *normcache.Data {
	n := counts.NumCells()
	data := &normcache.Data{
		LibSizes: make([]float32, n),
		NNZ:      make([]uint32, n),
		Columns:  make([][]normcache.Entry, n),
	}
	for cell := 0; cell < n; cell++ {
		lib := counts.LibSize(cell)
		col := make([]normcache.Entry, 0, counts.NNZ(cell))
		counts.ForCell(cell, func(gene uint32, count float32) {
			col = append(col, normcache.Entry{
				Gene:  gene,
				Value: normalizeValue(float64(count), float64(lib), float64(scale)),
			})
		})
		data.LibSizes[cell] = lib
		data.NNZ[cell] = uint32(len(col))
		data.Columns[cell] = col
	}
	return data
}

// Build wires a raw-counts accessor into the requested view. A usable cache
// file short-circuits the computation; a stale, damaged or missing one is a
// logged miss followed by a fresh computation; a failed cache write is
// logged and otherwise ignored, the computed data stays usable.
func Build(counts Accessor, meta normcache.Meta, opts Options) Accessor {
	if !opts.Normalize {
		return counts
	}
	scale := opts.Scale
	if scale == 0 {
		scale = DefaultScale
	}
	if !opts.Cache {
		return NewNormalizing(counts, scale)
	}

	log := opts.Log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	if data, miss := normcache.Read(opts.CachePath, meta); data != nil {
		log.Info("normalization cache hit", "path", opts.CachePath, "cells", len(data.Columns))
		return NewNormalized(data, counts.NumGenes())
	} else if miss != "" {
		log.Info("normalization cache miss", "path", opts.CachePath, "reason", miss)
	}

	data := Normalize(counts, scale)
	if err := normcache.Write(opts.CachePath, meta, data); err != nil {
		log.Warn("normalization cache write failed", "path", opts.CachePath, "error", err)
	}
	return NewNormalized(data, counts.NumGenes())
}
