package container

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFixture() (genes, barcodes []string, csc *CscView) {
	genes = []string{"GENEA", "GENEB", "GENEC"}
	barcodes = []string{"BC1", "BC2"}
	csc = &CscView{
		NGenes: 3,
		NCells: 2,
		NNZ:    3,
		ColPtr: []uint64{0, 2, 3},
		RowIdx: []uint32{0, 2, 1},
		Values: []uint32{5, 1, 7},
	}
	return genes, barcodes, csc
}

func writeFixture(t *testing.T) string {
	t.Helper()
	genes, barcodes, csc := testFixture()
	path := filepath.Join(t.TempDir(), "kira-organelle.bin")
	require.NoError(t, Write(path, genes, barcodes, csc))
	return path
}

func TestRoundTrip(t *testing.T) {
	path := writeFixture(t)

	c, err := Open(path)
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, []string{"GENEA", "GENEB", "GENEC"}, c.Genes)
	assert.Equal(t, []string{"BC1", "BC2"}, c.Barcodes)
	assert.Equal(t, 3, c.Csc.NGenes)
	assert.Equal(t, 2, c.Csc.NCells)
	assert.Equal(t, 3, c.Csc.NNZ)
	assert.Equal(t, []uint64{0, 2, 3}, c.Csc.ColPtr)
	assert.Equal(t, []uint32{0, 2, 1}, c.Csc.RowIdx)
	assert.Equal(t, []uint32{5, 1, 7}, c.Csc.Values)
}

func TestRoundTripEmptyMatrix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.bin")
	csc := &CscView{NGenes: 0, NCells: 0, NNZ: 0, ColPtr: []uint64{0}, RowIdx: nil, Values: nil}
	require.NoError(t, Write(path, nil, nil, csc))

	c, err := Open(path)
	require.NoError(t, err)
	defer c.Close()

	assert.Empty(t, c.Genes)
	assert.Empty(t, c.Barcodes)
	assert.Equal(t, []uint64{0}, c.Csc.ColPtr)
}

func TestCloseIsIdempotent(t *testing.T) {
	path := writeFixture(t)
	c, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
}

func TestWriteReplacesAtomically(t *testing.T) {
	path := writeFixture(t)

	// Overwrite with different content and make sure a reader sees only
	// the complete new file.
	genes := []string{"GENEA"}
	barcodes := []string{"BC1"}
	csc := &CscView{NGenes: 1, NCells: 1, NNZ: 1, ColPtr: []uint64{0, 1}, RowIdx: []uint32{0}, Values: []uint32{9}}
	require.NoError(t, Write(path, genes, barcodes, csc))

	c, err := Open(path)
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, []string{"GENEA"}, c.Genes)
	assert.Equal(t, []uint32{9}, c.Csc.Values)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestOpenRejectsTruncatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.bin")
	require.NoError(t, os.WriteFile(path, make([]byte, HeaderSize-1), 0o644))

	_, err := Open(path)
	assert.ErrorIs(t, err, ErrTooSmall)
}

func TestOpenRejectsMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.bin"))
	assert.Error(t, err)
}

func mutate(t *testing.T, path string, fn func(buf []byte)) string {
	t.Helper()
	buf, err := os.ReadFile(path)
	require.NoError(t, err)
	fn(buf)
	out := filepath.Join(t.TempDir(), "mutated.bin")
	require.NoError(t, os.WriteFile(out, buf, 0o644))
	return out
}

func TestOpenRejectsBadMagic(t *testing.T) {
	path := mutate(t, writeFixture(t), func(buf []byte) {
		copy(buf[offMagic:], "NOPE")
	})
	_, err := Open(path)
	assert.ErrorIs(t, err, ErrInvalidMagic)
}

func TestOpenRejectsUnsupportedVersion(t *testing.T) {
	path := mutate(t, writeFixture(t), func(buf []byte) {
		binary.LittleEndian.PutUint16(buf[offVersionMajor:], 2)
	})
	_, err := Open(path)
	assert.ErrorIs(t, err, ErrInvalidVersion)
}

func TestOpenRejectsForeignEndianness(t *testing.T) {
	path := mutate(t, writeFixture(t), func(buf []byte) {
		binary.BigEndian.PutUint32(buf[offEndianness:], EndiannessTag)
	})
	_, err := Open(path)
	assert.ErrorIs(t, err, ErrForeignEndianness)
}

func TestOpenRejectsTamperedHeader(t *testing.T) {
	path := mutate(t, writeFixture(t), func(buf []byte) {
		binary.LittleEndian.PutUint64(buf[offNNZ:], 99)
	})
	_, err := Open(path)
	assert.True(t, IsChecksumMismatch(err), "got %v", err)
}

func TestOpenRejectsFileBytesMismatch(t *testing.T) {
	base := writeFixture(t)
	buf, err := os.ReadFile(base)
	require.NoError(t, err)
	buf = append(buf, 0) // trailing garbage
	path := filepath.Join(t.TempDir(), "padded.bin")
	require.NoError(t, os.WriteFile(path, buf, 0o644))

	_, err = Open(path)
	var inv *InvalidError
	assert.ErrorAs(t, err, &inv)
}

// Flipping any byte of the protected header region must fail the open, and
// bytes covered only by the checksum must fail as a checksum mismatch.
func TestHeaderBytePerturbation(t *testing.T) {
	base := writeFixture(t)
	orig, err := os.ReadFile(base)
	require.NoError(t, err)

	for i := 0; i < offHeaderCRC; i++ {
		buf := make([]byte, len(orig))
		copy(buf, orig)
		buf[i] ^= 0xFF

		path := filepath.Join(t.TempDir(), "perturbed.bin")
		require.NoError(t, os.WriteFile(path, buf, 0o644))

		c, err := Open(path)
		if err == nil {
			c.Close()
			t.Fatalf("byte %d: perturbation accepted", i)
		}
		// Bytes after the fixed prelude and before the block/file-size
		// fields are caught by the checksum alone.
		if i >= offNGenes && i < offBlockCount {
			assert.True(t, IsChecksumMismatch(err), "byte %d: got %v", i, err)
		}
	}
}

func TestCscValidate(t *testing.T) {
	tests := []struct {
		name string
		csc  CscView
	}{
		{
			name: "col_ptr wrong length",
			csc:  CscView{NGenes: 1, NCells: 2, NNZ: 0, ColPtr: []uint64{0, 0}},
		},
		{
			name: "row_idx wrong length",
			csc:  CscView{NGenes: 1, NCells: 1, NNZ: 1, ColPtr: []uint64{0, 1}, RowIdx: nil, Values: []uint32{1}},
		},
		{
			name: "col_ptr first not zero",
			csc:  CscView{NGenes: 1, NCells: 1, NNZ: 1, ColPtr: []uint64{1, 1}, RowIdx: []uint32{0}, Values: []uint32{1}},
		},
		{
			name: "col_ptr last not nnz",
			csc:  CscView{NGenes: 1, NCells: 1, NNZ: 1, ColPtr: []uint64{0, 2}, RowIdx: []uint32{0}, Values: []uint32{1}},
		},
		{
			name: "col_ptr not monotonic",
			csc:  CscView{NGenes: 2, NCells: 2, NNZ: 2, ColPtr: []uint64{0, 2, 2}, RowIdx: []uint32{0, 1}, Values: []uint32{1, 1}},
		},
		{
			name: "row out of bounds",
			csc:  CscView{NGenes: 1, NCells: 1, NNZ: 1, ColPtr: []uint64{0, 1}, RowIdx: []uint32{5}, Values: []uint32{1}},
		},
		{
			name: "rows not strictly increasing",
			csc:  CscView{NGenes: 2, NCells: 1, NNZ: 2, ColPtr: []uint64{0, 2}, RowIdx: []uint32{1, 1}, Values: []uint32{1, 1}},
		},
		{
			name: "rows decreasing",
			csc:  CscView{NGenes: 2, NCells: 1, NNZ: 2, ColPtr: []uint64{0, 2}, RowIdx: []uint32{1, 0}, Values: []uint32{1, 1}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.csc.Validate()
			var inv *InvalidError
			require.ErrorAs(t, err, &inv)
			assert.NotEmpty(t, inv.Reason)
		})
	}

	t.Run("monotonic not strict between columns", func(t *testing.T) {
		// An empty middle column is fine; monotonicity is non-strict.
		csc := CscView{
			NGenes: 2, NCells: 3, NNZ: 2,
			ColPtr: []uint64{0, 1, 1, 2},
			RowIdx: []uint32{0, 1},
			Values: []uint32{4, 6},
		}
		assert.NoError(t, csc.Validate())
	})
}

func TestCscColumn(t *testing.T) {
	_, _, csc := testFixture()
	start, end := csc.Column(0)
	assert.Equal(t, 0, start)
	assert.Equal(t, 2, end)
	start, end = csc.Column(1)
	assert.Equal(t, 2, start)
	assert.Equal(t, 3, end)
}

func TestWriteRejectsInconsistentInput(t *testing.T) {
	genes, barcodes, csc := testFixture()
	path := filepath.Join(t.TempDir(), "bad.bin")

	err := Write(path, genes[:2], barcodes, csc)
	var inv *InvalidError
	assert.ErrorAs(t, err, &inv)

	err = Write(path, genes, barcodes[:1], csc)
	assert.ErrorAs(t, err, &inv)

	bad := *csc
	bad.ColPtr = []uint64{0, 2, 2}
	err = Write(path, genes, barcodes, &bad)
	assert.ErrorAs(t, err, &inv)

	_, statErr := os.Stat(path)
	assert.True(t, errors.Is(statErr, os.ErrNotExist), "no partial file written")
}

func TestStringTableRejectsInvalidUTF8(t *testing.T) {
	genes, barcodes, csc := testFixture()
	buf := Encode(genes, barcodes, csc)

	// Corrupt the first gene name inside the blob. The checksum covers only
	// the header, so the failure is attributed to the table itself.
	geneOff := binary.LittleEndian.Uint64(buf[offGeneTableOff:])
	blobStart := geneOff + 4 + 4*uint64(len(genes)+1)
	buf[blobStart] = 0xFF

	path := filepath.Join(t.TempDir(), "badutf8.bin")
	require.NoError(t, os.WriteFile(path, buf, 0o644))

	_, err := Open(path)
	var inv *InvalidError
	require.ErrorAs(t, err, &inv)
	assert.Contains(t, inv.Reason, "utf-8")
}

func TestSectionAlignment(t *testing.T) {
	genes, barcodes, csc := testFixture()
	buf := Encode(genes, barcodes, csc)

	for _, off := range []uint64{
		binary.LittleEndian.Uint64(buf[offGeneTableOff:]),
		binary.LittleEndian.Uint64(buf[offBarcodeTableOff:]),
		binary.LittleEndian.Uint64(buf[offColPtr:]),
		binary.LittleEndian.Uint64(buf[offRowIdx:]),
		binary.LittleEndian.Uint64(buf[offValues:]),
	} {
		assert.Zero(t, off%64, "section at %d not 64-byte aligned", off)
	}
	assert.Equal(t, uint64(len(buf)), binary.LittleEndian.Uint64(buf[offFileBytes:]))
}
