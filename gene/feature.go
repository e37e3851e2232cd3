package gene

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/kiralab/organelle/internal/gzio"
)

// Feature is one raw row of the features file, with its normalized symbol.
type Feature struct {
	ID          string
	SymbolRaw   string
	SymbolNorm  string
	FeatureType string // empty when the file has no type column
}

// ParseError is a malformed-text error carrying the offending line number
// where one applies (Line 0 means the error concerns the whole file).
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s (line %d)", e.Msg, e.Line)
	}
	return e.Msg
}

// ParseFeatures reads a features TSV (optionally gzip-compressed): one
// feature per line, tab-separated, at least id and symbol columns, an
// optional third feature-type column.
func ParseFeatures(path string) ([]Feature, error) {
	r, err := gzio.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var features []Feature
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r\n")
		if line == "" {
			continue
		}
		cols := strings.Split(line, "\t")
		if len(cols) < 2 {
			return nil, &ParseError{Line: lineNo, Msg: "features line has <2 columns"}
		}
		f := Feature{
			ID:        strings.TrimSpace(cols[0]),
			SymbolRaw: strings.TrimSpace(cols[1]),
		}
		f.SymbolNorm = NormalizeSymbol(f.SymbolRaw)
		if len(cols) >= 3 {
			f.FeatureType = strings.TrimSpace(cols[2])
		}
		features = append(features, f)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(features) == 0 {
		return nil, &ParseError{Msg: "features file is empty"}
	}
	return features, nil
}

// ParseBarcodes reads a barcodes file (optionally gzip-compressed), one
// barcode per line; blank lines are skipped.
func ParseBarcodes(path string) ([]string, error) {
	r, err := gzio.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var barcodes []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		barcodes = append(barcodes, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(barcodes) == 0 {
		return nil, &ParseError{Msg: "barcodes file is empty"}
	}
	return barcodes, nil
}

// FeaturesFromSymbols synthesizes feature records from a bare symbol list,
// used when the source (the binary container) carries symbols only.
func FeaturesFromSymbols(symbols []string) []Feature {
	out := make([]Feature, len(symbols))
	for i, s := range symbols {
		out[i] = Feature{
			ID:         fmt.Sprintf("%d", i),
			SymbolRaw:  s,
			SymbolNorm: NormalizeSymbol(s),
		}
	}
	return out
}

// NormalizeSymbol canonicalizes a raw gene symbol: trim, uppercase, and
// collapse Ensembl-style versioned accessions ("ENSG000001.12") to the
// unversioned prefix when the prefix looks like an Ensembl accession and the
// suffix is purely numeric. An empty result marks the feature unmappable.
func NormalizeSymbol(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	upper := strings.ToUpper(trimmed)
	if dot := strings.LastIndexByte(upper, '.'); dot > 0 {
		left, right := upper[:dot], upper[dot+1:]
		if strings.HasPrefix(left, "ENS") && allDigits(right) {
			return left
		}
	}
	return upper
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
