package normcache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMeta() Meta {
	return Meta{
		NCells:        2,
		NGenes:        3,
		HashMatrix:    0x1111,
		HashFeatures:  0x2222,
		HashBarcodes:  0x3333,
		HashGeneIndex: 0x4444,
		Scale:         10000,
		Log1p:         true,
	}
}

func testData() *Data {
	return &Data{
		LibSizes: []float32{3, 3},
		NNZ:      []uint32{2, 1},
		Columns: [][]Entry{
			{{Gene: 0, Value: 0.5}, {Gene: 1, Value: 1.25}},
			{{Gene: 1, Value: 2.5}},
		},
	}
}

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	meta := testMeta()
	require.NoError(t, Write(path, meta, testData()))

	got, miss := Read(path, meta)
	require.Empty(t, miss)
	require.NotNil(t, got)
	assert.Equal(t, testData(), got)
}

func TestReadMissingFileIsMiss(t *testing.T) {
	got, miss := Read(filepath.Join(t.TempDir(), DefaultFileName), testMeta())
	assert.Nil(t, got)
	assert.Equal(t, "no cache file", miss)
}

func TestReadForeignMagicIsMiss(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte("NOTKIRAQ plus enough trailing bytes"), 0o644))

	got, miss := Read(path, testMeta())
	assert.Nil(t, got)
	assert.Equal(t, "foreign cache magic", miss)
}

// Every fingerprint field must participate in invalidation on its own.
func TestFingerprintFieldInvalidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Meta)
	}{
		{"n_cells", func(m *Meta) { m.NCells++ }},
		{"n_genes", func(m *Meta) { m.NGenes++ }},
		{"matrix hash", func(m *Meta) { m.HashMatrix ^= 1 }},
		{"features hash", func(m *Meta) { m.HashFeatures ^= 1 }},
		{"barcodes hash", func(m *Meta) { m.HashBarcodes ^= 1 }},
		{"gene index hash", func(m *Meta) { m.HashGeneIndex ^= 1 }},
		{"scale", func(m *Meta) { m.Scale += 1 }},
		{"log1p", func(m *Meta) { m.Log1p = !m.Log1p }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), DefaultFileName)
			require.NoError(t, Write(path, testMeta(), testData()))

			want := testMeta()
			tt.mutate(&want)
			got, miss := Read(path, want)
			assert.Nil(t, got)
			assert.Equal(t, "fingerprint mismatch", miss)
		})
	}
}

func TestTruncationIsMiss(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	meta := testMeta()
	require.NoError(t, Write(path, meta, testData()))

	full, err := os.ReadFile(path)
	require.NoError(t, err)

	// Chop at several depths: inside magic, header, libsizes, nnz, columns.
	for _, n := range []int{4, 20, 64, 72, len(full) - 1} {
		short := filepath.Join(t.TempDir(), "short.normcache")
		require.NoError(t, os.WriteFile(short, full[:n], 0o644))

		got, miss := Read(short, meta)
		assert.Nil(t, got, "truncated at %d bytes", n)
		assert.Contains(t, miss, "truncated", "truncated at %d bytes", n)
	}
}

func TestWriteReadIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	meta := testMeta()
	require.NoError(t, Write(path, meta, testData()))

	first, err := os.ReadFile(path)
	require.NoError(t, err)

	got, miss := Read(path, meta)
	require.Empty(t, miss)
	require.NoError(t, Write(path, meta, got))

	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestWriteFailureIsDistinct(t *testing.T) {
	err := Write(filepath.Join(t.TempDir(), "no-such-dir", DefaultFileName), testMeta(), testData())
	var we *WriteError
	require.ErrorAs(t, err, &we)
	assert.NotNil(t, errors.Unwrap(we))
}

func TestHashInputFiles(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		return p
	}
	m := write("matrix.mtx", "matrix bytes")
	f := write("features.tsv", "features bytes")
	b := write("barcodes.tsv", "barcodes bytes")

	h1, err := HashInputFiles(m, f, b)
	require.NoError(t, err)
	assert.NotZero(t, h1.Matrix)
	assert.NotEqual(t, h1.Matrix, h1.Features)
	assert.NotEqual(t, h1.Features, h1.Barcodes)

	// Single-byte change in one file moves exactly that hash.
	write("features.tsv", "features bytez")
	h2, err := HashInputFiles(m, f, b)
	require.NoError(t, err)
	assert.Equal(t, h1.Matrix, h2.Matrix)
	assert.NotEqual(t, h1.Features, h2.Features)
	assert.Equal(t, h1.Barcodes, h2.Barcodes)

	_, err = HashInputFiles(m, filepath.Join(dir, "absent.tsv"), b)
	assert.Error(t, err)
}

func TestHashContainerFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "kira-organelle.bin")
	require.NoError(t, os.WriteFile(p, []byte("container bytes"), 0o644))

	h, err := HashContainerFile(p)
	require.NoError(t, err)
	assert.Equal(t, h.Matrix, h.Features)
	assert.Equal(t, h.Matrix, h.Barcodes)
	assert.NotZero(t, h.Matrix)
}

func TestDefaultPath(t *testing.T) {
	assert.Equal(t, filepath.Join("data", DefaultFileName), DefaultPath(filepath.Join("data", "matrix.mtx")))
}
