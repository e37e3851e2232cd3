// Package normcache persists normalized expression columns in a
// content-addressed side file. The file is keyed by a fingerprint of every
// contributing input; a stale or damaged file is always a miss, never an
// error, and the pipeline recomputes.
package normcache

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/kiralab/organelle/internal/fsio"
)

const (
	magic   = "KIRAQC2\x00"
	version = 1

	// DefaultFileName is the cache file placed next to the matrix source.
	DefaultFileName = "kira_nuclearqc.normcache"
)

// Entry is one normalized value of a cell's column.
type Entry struct {
	Gene  uint32
	Value float32
}

// Data is the cached result of one normalization run: per-cell library
// sizes, non-zero counts, and gene-ascending normalized columns.
type Data struct {
	LibSizes []float32
	NNZ      []uint32
	Columns  [][]Entry
}

// WriteError wraps a failed cache write. The computed data is still usable;
// only persistence is lost, so callers log and continue.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("cache write to %s failed: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// DefaultPath places the cache next to the matrix source file.
func DefaultPath(matrixPath string) string {
	return filepath.Join(filepath.Dir(matrixPath), DefaultFileName)
}

// Read returns the cached data at path when the stored fingerprint matches
// want in every field. Anything else — missing file, foreign magic or
// version, fingerprint mismatch, truncation, trailing read failure — is a
// miss. The returned reason is non-empty on a miss, for logging.
func Read(path string, want Meta) (*Data, string) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "no cache file"
		}
		return nil, fmt.Sprintf("cache unreadable: %v", err)
	}
	defer f.Close()

	r := bufio.NewReaderSize(f, 256*1024)

	var m [8]byte
	if _, err := io.ReadFull(r, m[:]); err != nil {
		return nil, "cache file truncated in header"
	}
	if string(m[:]) != magic {
		return nil, "foreign cache magic"
	}

	var hdr struct {
		Version  uint32
		Scale    float32
		Log1p    uint8
		Reserved [3]byte
		NCells   uint32
		NGenes   uint32
		Hashes   [4]uint64
	}
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, "cache file truncated in header"
	}
	if hdr.Version != version {
		return nil, fmt.Sprintf("cache version %d, want %d", hdr.Version, version)
	}

	stored := Meta{
		NCells:        hdr.NCells,
		NGenes:        hdr.NGenes,
		HashMatrix:    hdr.Hashes[0],
		HashFeatures:  hdr.Hashes[1],
		HashBarcodes:  hdr.Hashes[2],
		HashGeneIndex: hdr.Hashes[3],
		Scale:         hdr.Scale,
		Log1p:         hdr.Log1p != 0,
	}
	if stored != want {
		return nil, "fingerprint mismatch"
	}

	n := int(hdr.NCells)
	data := &Data{
		LibSizes: make([]float32, n),
		NNZ:      make([]uint32, n),
		Columns:  make([][]Entry, n),
	}
	if err := binary.Read(r, binary.LittleEndian, data.LibSizes); err != nil {
		return nil, "cache file truncated in library sizes"
	}
	if err := binary.Read(r, binary.LittleEndian, data.NNZ); err != nil {
		return nil, "cache file truncated in non-zero counts"
	}
	for c, count := range data.NNZ {
		col := make([]Entry, count)
		for i := range col {
			var pair [2]uint32
			if err := binary.Read(r, binary.LittleEndian, &pair); err != nil {
				return nil, "cache file truncated in columns"
			}
			col[i] = Entry{Gene: pair[0], Value: math.Float32frombits(pair[1])}
		}
		data.Columns[c] = col
	}

	return data, ""
}

// Write persists meta and data to path atomically. A failure is returned as
// a *WriteError so callers can distinguish it from fatal input errors.
func Write(path string, meta Meta, data *Data) error {
	err := fsio.SaveAtomic(path, func(w io.Writer) error {
		if _, err := io.WriteString(w, magic); err != nil {
			return err
		}
		hdr := struct {
			Version  uint32
			Scale    float32
			Log1p    uint8
			Reserved [3]byte
			NCells   uint32
			NGenes   uint32
			Hashes   [4]uint64
		}{
			Version: version,
			Scale:   meta.Scale,
			NCells:  meta.NCells,
			NGenes:  meta.NGenes,
			Hashes: [4]uint64{
				meta.HashMatrix, meta.HashFeatures, meta.HashBarcodes, meta.HashGeneIndex,
			},
		}
		if meta.Log1p {
			hdr.Log1p = 1
		}
		if err := binary.Write(w, binary.LittleEndian, &hdr); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, data.LibSizes); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, data.NNZ); err != nil {
			return err
		}
		for _, col := range data.Columns {
			for _, e := range col {
				pair := [2]uint32{e.Gene, math.Float32bits(e.Value)}
				if err := binary.Write(w, binary.LittleEndian, &pair); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}
