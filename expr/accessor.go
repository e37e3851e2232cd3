// Package expr exposes parsed count matrices through a uniform per-cell
// accessor, normalized or raw, independent of whether the source was the
// text triple or the binary container.
package expr

import (
	"math"

	"github.com/kiralab/organelle/container"
	"github.com/kiralab/organelle/gene"
	"github.com/kiralab/organelle/internal/simd"
	"github.com/kiralab/organelle/mtx"
	"github.com/kiralab/organelle/normcache"
)

// DefaultScale is the system-wide library-size scale factor.
const DefaultScale float32 = 10000

// Accessor is the uniform read interface over one loaded matrix. ForCell
// visits each of the cell's non-zero entries exactly once, in a
// deterministic order. Accessors are immutable after construction and safe
// for concurrent readers.
type Accessor interface {
	NumCells() int
	NumGenes() int
	ForCell(cell int, fn func(gene uint32, value float32))
	LibSize(cell int) float32
	NNZ(cell int) uint32
}

// RawCountsAccessor serves raw counts parsed from the text matrix. Library
// sizes and non-zero counts are computed once at construction.
type RawCountsAccessor struct {
	cols     [][]mtx.Entry
	libSizes []float32
	nnz      []uint32
	nGenes   int
}

// NewRawCounts wraps a parsed text matrix. nGenes is the deduplicated gene
// cardinality of the index the matrix was mapped through.
func NewRawCounts(m *mtx.Matrix, nGenes int) *RawCountsAccessor {
	libSizes := make([]float32, m.NCols)
	nnz := make([]uint32, m.NCols)
	var scratch []float32
	for c, col := range m.Cols {
		scratch = scratch[:0]
		for _, e := range col {
			scratch = append(scratch, float32(e.Count))
		}
		libSizes[c] = float32(simd.Sum(scratch))
		nnz[c] = uint32(len(col))
	}
	return &RawCountsAccessor{cols: m.Cols, libSizes: libSizes, nnz: nnz, nGenes: nGenes}
}

func (a *RawCountsAccessor) NumCells() int { return len(a.cols) }
func (a *RawCountsAccessor) NumGenes() int { return a.nGenes }

func (a *RawCountsAccessor) ForCell(cell int, fn func(gene uint32, value float32)) {
	for _, e := range a.cols[cell] {
		fn(e.Gene, float32(e.Count))
	}
}

func (a *RawCountsAccessor) LibSize(cell int) float32 { return a.libSizes[cell] }
func (a *RawCountsAccessor) NNZ(cell int) uint32      { return a.nnz[cell] }

// ContainerAccessor serves raw counts straight from a validated binary
// container, translating feature rows to gene ids on the fly. Entries whose
// feature has no gene id are skipped; library sizes and non-zero counts
// cover mapped entries only.
type ContainerAccessor struct {
	c        *container.Container
	idx      *gene.Index
	libSizes []float32
	nnz      []uint32
}

// NewContainerCounts wraps an open container. ForCell follows the
// container's strictly increasing per-column row order, which is already
// deterministic, so no re-sorting happens.
func NewContainerCounts(c *container.Container, idx *gene.Index) *ContainerAccessor {
	nCells := c.Csc.NCells
	libSizes := make([]float32, nCells)
	nnz := make([]uint32, nCells)
	var scratch []float32
	for cell := 0; cell < nCells; cell++ {
		start, end := c.Csc.Column(cell)
		scratch = scratch[:0]
		for k := start; k < end; k++ {
			if idx.Mapped(int(c.Csc.RowIdx[k])) {
				scratch = append(scratch, float32(c.Csc.Values[k]))
			}
		}
		libSizes[cell] = float32(simd.Sum(scratch))
		nnz[cell] = uint32(len(scratch))
	}
	return &ContainerAccessor{c: c, idx: idx, libSizes: libSizes, nnz: nnz}
}

func (a *ContainerAccessor) NumCells() int { return a.c.Csc.NCells }
func (a *ContainerAccessor) NumGenes() int { return a.idx.NumGenes() }

func (a *ContainerAccessor) ForCell(cell int, fn func(gene uint32, value float32)) {
	start, end := a.c.Csc.Column(cell)
	for k := start; k < end; k++ {
		if id, ok := a.idx.GeneID(int(a.c.Csc.RowIdx[k])); ok {
			fn(id, float32(a.c.Csc.Values[k]))
		}
	}
}

func (a *ContainerAccessor) LibSize(cell int) float32 { return a.libSizes[cell] }
func (a *ContainerAccessor) NNZ(cell int) uint32      { return a.nnz[cell] }

// NormalizedAccessor serves precomputed normalized columns, either fresh
// from Normalize or restored from the cache.
type NormalizedAccessor struct {
	data   *normcache.Data
	nGenes int
}

func NewNormalized(data *normcache.Data, nGenes int) *NormalizedAccessor {
	return &NormalizedAccessor{data: data, nGenes: nGenes}
}

func (a *NormalizedAccessor) NumCells() int { return len(a.data.Columns) }
func (a *NormalizedAccessor) NumGenes() int { return a.nGenes }

func (a *NormalizedAccessor) ForCell(cell int, fn func(gene uint32, value float32)) {
	for _, e := range a.data.Columns[cell] {
		fn(e.Gene, e.Value)
	}
}

func (a *NormalizedAccessor) LibSize(cell int) float32 { return a.data.LibSizes[cell] }
func (a *NormalizedAccessor) NNZ(cell int) uint32      { return a.data.NNZ[cell] }

// normalizingAccessor rescales another accessor's raw counts on the fly,
// for the normalize-without-cache path.
type normalizingAccessor struct {
	src   Accessor
	scale float32
}

// NewNormalizing wraps a raw-counts accessor with on-the-fly normalization.
func NewNormalizing(src Accessor, scale float32) Accessor {
	return &normalizingAccessor{src: src, scale: scale}
}

func (a *normalizingAccessor) NumCells() int { return a.src.NumCells() }
func (a *normalizingAccessor) NumGenes() int { return a.src.NumGenes() }

func (a *normalizingAccessor) ForCell(cell int, fn func(gene uint32, value float32)) {
	lib := float64(a.src.LibSize(cell))
	a.src.ForCell(cell, func(gene uint32, count float32) {
		fn(gene, normalizeValue(float64(count), lib, float64(a.scale)))
	})
}

func (a *normalizingAccessor) LibSize(cell int) float32 { return a.src.LibSize(cell) }
func (a *normalizingAccessor) NNZ(cell int) uint32      { return a.src.NNZ(cell) }

// normalizeValue is the single normalization formula: ln(1+count/lib*scale)
// in double precision, 0 when the library is empty.
func normalizeValue(count, lib, scale float64) float32 {
	if lib <= 0 {
		return 0
	}
	return float32(math.Log1p(count / lib * scale))
}
