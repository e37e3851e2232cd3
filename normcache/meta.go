package normcache

import (
	"golang.org/x/sync/errgroup"

	"github.com/kiralab/organelle/internal/hash"
)

// Meta is the cache fingerprint. A cache file is usable only when every
// field matches the freshly computed fingerprint exactly; any difference,
// including the format version, invalidates the whole file.
type Meta struct {
	NCells        uint32
	NGenes        uint32
	HashMatrix    uint64
	HashFeatures  uint64
	HashBarcodes  uint64
	HashGeneIndex uint64
	Scale         float32
	Log1p         bool
}

// FileHashes are the content hashes of the three raw input files. For a
// binary container source all three are the container file's hash.
type FileHashes struct {
	Matrix   uint64
	Features uint64
	Barcodes uint64
}

// HashInputFiles streams the three input files through FNV-1a 64
// concurrently. Any single-byte change in any file changes its hash.
func HashInputFiles(matrixPath, featuresPath, barcodesPath string) (FileHashes, error) {
	var h FileHashes
	var g errgroup.Group
	g.Go(func() (err error) {
		h.Matrix, err = hash.File(matrixPath)
		return err
	})
	g.Go(func() (err error) {
		h.Features, err = hash.File(featuresPath)
		return err
	})
	g.Go(func() (err error) {
		h.Barcodes, err = hash.File(barcodesPath)
		return err
	})
	if err := g.Wait(); err != nil {
		return FileHashes{}, err
	}
	return h, nil
}

// HashContainerFile fingerprints a single-file source: one streamed hash
// reused for all three input slots.
func HashContainerFile(path string) (FileHashes, error) {
	v, err := hash.File(path)
	if err != nil {
		return FileHashes{}, err
	}
	return FileHashes{Matrix: v, Features: v, Barcodes: v}, nil
}

// HashGeneIndex fingerprints the gene index as its normalized symbol list,
// NUL-separated so symbol boundaries cannot alias.
func HashGeneIndex(symbols []string) uint64 {
	return hash.Strings(symbols)
}
