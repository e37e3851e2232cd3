package gene

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// NoGene marks a feature whose symbol failed normalization.
const NoGene = int32(-1)

// Duplicate records a feature whose normalized symbol was already assigned a
// gene id. Duplicates are reportable, never fatal.
type Duplicate struct {
	FeatureIndex int
	Symbol       string
	GeneID       uint32
}

// Index maps raw feature rows to dense, de-duplicated gene ids.
//
// GeneIDByFeature has one entry per raw feature row (NoGene when the symbol
// normalized to empty); every other entry indexes SymbolsByGeneID, whose
// symbols are unique. First-seen feature wins on duplicate symbols; later
// duplicates alias to the earlier gene id. Built once per load, immutable
// afterwards.
type Index struct {
	GeneIDByFeature []int32
	SymbolsByGeneID []string
	Duplicates      []Duplicate

	mapped *roaring.Bitmap
}

// BuildIndex assigns gene ids to the ordered feature list.
func BuildIndex(features []Feature) *Index {
	idx := &Index{
		GeneIDByFeature: make([]int32, 0, len(features)),
		mapped:          roaring.New(),
	}
	bySymbol := make(map[string]uint32, len(features))

	for i, f := range features {
		if f.SymbolNorm == "" {
			idx.GeneIDByFeature = append(idx.GeneIDByFeature, NoGene)
			continue
		}
		if existing, ok := bySymbol[f.SymbolNorm]; ok {
			idx.Duplicates = append(idx.Duplicates, Duplicate{
				FeatureIndex: i,
				Symbol:       f.SymbolNorm,
				GeneID:       existing,
			})
			idx.GeneIDByFeature = append(idx.GeneIDByFeature, int32(existing))
			idx.mapped.Add(uint32(i))
			continue
		}
		id := uint32(len(idx.SymbolsByGeneID))
		idx.SymbolsByGeneID = append(idx.SymbolsByGeneID, f.SymbolNorm)
		bySymbol[f.SymbolNorm] = id
		idx.GeneIDByFeature = append(idx.GeneIDByFeature, int32(id))
		idx.mapped.Add(uint32(i))
	}
	return idx
}

// GeneID returns the gene id for a raw feature row, or false when the row is
// out of range or unmapped.
func (idx *Index) GeneID(feature int) (uint32, bool) {
	if feature < 0 || feature >= len(idx.GeneIDByFeature) {
		return 0, false
	}
	id := idx.GeneIDByFeature[feature]
	if id == NoGene {
		return 0, false
	}
	return uint32(id), true
}

// Mapped reports whether the raw feature row has an assigned gene id.
func (idx *Index) Mapped(feature int) bool {
	if feature < 0 {
		return false
	}
	return idx.mapped.Contains(uint32(feature))
}

// NumFeatures returns the number of raw feature rows.
func (idx *Index) NumFeatures() int {
	return len(idx.GeneIDByFeature)
}

// NumGenes returns the number of distinct gene ids assigned.
func (idx *Index) NumGenes() int {
	return len(idx.SymbolsByGeneID)
}

// UnmappedCount returns how many raw feature rows failed to map.
func (idx *Index) UnmappedCount() int {
	return len(idx.GeneIDByFeature) - int(idx.mapped.GetCardinality())
}
