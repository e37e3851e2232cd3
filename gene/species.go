package gene

// Species is the classification of a feature set against the two reference
// species' marker-gene sets.
type Species int

const (
	SpeciesUnknown Species = iota
	SpeciesHuman
	SpeciesMouse
)

func (s Species) String() string {
	switch s {
	case SpeciesHuman:
		return "human"
	case SpeciesMouse:
		return "mouse"
	default:
		return "unknown"
	}
}

// Marker sets: MHC class I/II symbols, which are species-specific and near
// universally present in reference annotations.
var (
	humanMarkers = map[string]struct{}{
		"HLA-A": {}, "HLA-B": {}, "HLA-C": {}, "HLA-DRA": {}, "HLA-DRB1": {},
		"HLA-DPA1": {}, "HLA-DPB1": {}, "HLA-E": {}, "HLA-F": {}, "HLA-G": {},
	}
	mouseMarkers = map[string]struct{}{
		"H2-K1": {}, "H2-D1": {}, "H2-AB1": {}, "H2-AA": {}, "H2-EB1": {},
		"H2-EA": {}, "H2-Q7": {}, "H2-Q10": {}, "H2-T23": {}, "H2-M2": {},
	}
)

const (
	speciesMinMatches = 3
	speciesMinDelta   = 2
)

// DetectSpecies classifies the feature set. A species is declared only when
// its marker hit count reaches speciesMinMatches AND exceeds the other
// species' count by speciesMinDelta; anything else is SpeciesUnknown.
func DetectSpecies(features []Feature) Species {
	var human, mouse int
	for _, f := range features {
		if f.SymbolNorm == "" {
			continue
		}
		if _, ok := humanMarkers[f.SymbolNorm]; ok {
			human++
		}
		if _, ok := mouseMarkers[f.SymbolNorm]; ok {
			mouse++
		}
	}

	switch {
	case human >= speciesMinMatches && human >= mouse+speciesMinDelta:
		return SpeciesHuman
	case mouse >= speciesMinMatches && mouse >= human+speciesMinDelta:
		return SpeciesMouse
	default:
		return SpeciesUnknown
	}
}
