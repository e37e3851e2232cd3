package organelle

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ContainerFileName is the single-file binary source, optionally carrying
// the shared dataset prefix as "<prefix>.kira-organelle.bin".
const ContainerFileName = "kira-organelle.bin"

var (
	matrixCandidates   = []string{"matrix.mtx", "matrix.mtx.gz"}
	featureCandidates  = []string{"features.tsv", "features.tsv.gz", "genes.tsv", "genes.tsv.gz"}
	barcodeCandidates  = []string{"barcodes.tsv", "barcodes.tsv.gz"}
	prefixableSuffixes = []string{
		"_matrix.mtx", "_matrix.mtx.gz",
		"_features.tsv", "_features.tsv.gz",
		"_barcodes.tsv", "_barcodes.tsv.gz",
	}
)

// detectPrefix scans dir for "<prefix>_matrix.mtx"-style names. When several
// prefixes coexist the lexicographically first wins, so discovery stays
// deterministic.
func detectPrefix(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	var prefixes []string
	seen := make(map[string]bool)
	for _, entry := range entries {
		name := entry.Name()
		for _, suffix := range prefixableSuffixes {
			p, ok := strings.CutSuffix(name, suffix)
			if ok && p != "" && !seen[p] {
				seen[p] = true
				prefixes = append(prefixes, p)
			}
		}
	}
	if len(prefixes) == 0 {
		return "", nil
	}
	sort.Strings(prefixes)
	return prefixes[0], nil
}

// containerPath returns the shared container location for dir and whether
// the file exists.
func containerPath(dir, prefix string) (string, bool) {
	name := ContainerFileName
	if prefix != "" {
		name = prefix + "." + ContainerFileName
	}
	path := filepath.Join(dir, name)
	_, err := os.Stat(path)
	return path, err == nil
}

// findInput resolves one input file by its candidate names, plain names
// first, then the prefixed variants.
func findInput(dir, prefix, what string, candidates []string) (string, error) {
	tried := make([]string, 0, len(candidates)*2)
	tried = append(tried, candidates...)
	if prefix != "" {
		for _, name := range candidates {
			tried = append(tried, prefix+"_"+name)
		}
	}
	for _, name := range tried {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", &MissingInputError{What: what, Dir: dir, Candidates: tried}
}
