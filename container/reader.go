package container

import (
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/kiralab/organelle/internal/hash"
	"github.com/kiralab/organelle/internal/mmap"
)

// Container is a fully validated, memory-mapped KORG file. The mapping stays
// alive until Close; Genes, Barcodes and the CSC arrays are decoded copies
// and remain valid afterwards.
type Container struct {
	Header   Header
	Genes    []string
	Barcodes []string
	Csc      CscView

	m *mmap.File
}

// Open maps the file at path and validates it completely. There is no
// partial success: any violated invariant returns an error and no Container.
func Open(path string) (*Container, error) {
	m, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}

	c, err := parse(region{b: m.Data})
	if err != nil {
		m.Close()
		return nil, err
	}
	c.m = m
	return c, nil
}

// Close releases the file mapping.
func (c *Container) Close() error {
	if c == nil || c.m == nil {
		return nil
	}
	m := c.m
	c.m = nil
	return m.Close()
}

func parse(r region) (*Container, error) {
	if r.len() < HeaderSize {
		return nil, ErrTooSmall
	}

	header, err := parseHeader(r)
	if err != nil {
		return nil, err
	}
	if err := validateHeader(header, r); err != nil {
		return nil, err
	}

	genes, err := parseStringTable(r, header.GeneTableOffset, header.GeneTableBytes, header.NGenes, "gene")
	if err != nil {
		return nil, err
	}
	barcodes, err := parseStringTable(r, header.BarcodeTableOffset, header.BarcodeTableBytes, header.NCells, "barcode")
	if err != nil {
		return nil, err
	}

	nCells, ok := countToInt(header.NCells)
	if !ok {
		return nil, invalidf("n_cells %d exceeds addressable range", header.NCells)
	}
	nGenes, ok := countToInt(header.NGenes)
	if !ok {
		return nil, invalidf("n_genes %d exceeds addressable range", header.NGenes)
	}
	nnz, ok := countToInt(header.NNZ)
	if !ok {
		return nil, invalidf("nnz %d exceeds addressable range", header.NNZ)
	}

	colPtr, ok := r.u64SliceCopy(header.ColPtrOffset, nCells+1)
	if !ok {
		return nil, invalidf("col_ptr array out of bounds")
	}
	rowIdx, ok := r.u32SliceCopy(header.RowIdxOffset, nnz)
	if !ok {
		return nil, invalidf("row_idx array out of bounds")
	}
	values, ok := r.u32SliceCopy(header.ValuesOffset, nnz)
	if !ok {
		return nil, invalidf("values array out of bounds")
	}

	csc := CscView{
		NGenes: nGenes,
		NCells: nCells,
		NNZ:    nnz,
		ColPtr: colPtr,
		RowIdx: rowIdx,
		Values: values,
	}
	if err := csc.Validate(); err != nil {
		return nil, err
	}

	return &Container{
		Header:   *header,
		Genes:    genes,
		Barcodes: barcodes,
		Csc:      csc,
	}, nil
}

func parseHeader(r region) (*Header, error) {
	magic, _ := r.bytes(offMagic, 4)
	if string(magic) != Magic {
		return nil, ErrInvalidMagic
	}
	major, minor := r.u16(offVersionMajor), r.u16(offVersionMinor)
	if major != VersionMajor || minor != VersionMinor {
		return nil, fmt.Errorf("%w: got %d.%d, support %d.%d",
			ErrInvalidVersion, major, minor, VersionMajor, VersionMinor)
	}
	if r.u32(offEndianness) != EndiannessTag {
		return nil, ErrForeignEndianness
	}
	if r.u32(offHeaderSize) != HeaderSize {
		return nil, invalidf("invalid header_size %d; expected %d", r.u32(offHeaderSize), HeaderSize)
	}

	return &Header{
		NGenes:             r.u64(offNGenes),
		NCells:             r.u64(offNCells),
		NNZ:                r.u64(offNNZ),
		GeneTableOffset:    r.u64(offGeneTableOff),
		GeneTableBytes:     r.u64(offGeneTableBytes),
		BarcodeTableOffset: r.u64(offBarcodeTableOff),
		BarcodeTableBytes:  r.u64(offBarcodeBytes),
		ColPtrOffset:       r.u64(offColPtr),
		RowIdxOffset:       r.u64(offRowIdx),
		ValuesOffset:       r.u64(offValues),
		BlockCount:         r.u64(offBlockCount),
		BlocksOffset:       r.u64(offBlocksOffset),
		FileBytes:          r.u64(offFileBytes),
		HeaderCRC64:        r.u64(offHeaderCRC),
		DataCRC64:          r.u64(offDataCRC),
	}, nil
}

func validateHeader(h *Header, r region) error {
	if h.FileBytes != r.len() {
		return invalidf("file_bytes %d does not match file length %d", h.FileBytes, r.len())
	}
	if h.BlockCount != 0 {
		return invalidf("unsupported optional blocks in header (count %d)", h.BlockCount)
	}
	if h.BlocksOffset != 0 {
		return invalidf("blocks_offset must be zero when block count is zero")
	}
	if h.DataCRC64 != 0 {
		return invalidf("data checksum not supported in v%d", VersionMajor)
	}
	if h.HeaderCRC64 == 0 {
		return invalidf("header checksum missing or zero")
	}

	// Recompute over the header with the checksum field itself zeroed.
	var hdr [HeaderSize]byte
	copy(hdr[:], r.b[:HeaderSize])
	for i := offHeaderCRC; i < offDataCRC; i++ {
		hdr[i] = 0
	}
	if crc := hash.CRC64(hdr[:]); crc != h.HeaderCRC64 {
		return &ChecksumMismatchError{Expected: h.HeaderCRC64, Actual: crc}
	}
	return nil
}

func parseStringTable(r region, offset, tableBytes, expected uint64, kind string) ([]string, error) {
	if tableBytes < 8 {
		return nil, invalidf("%s table too small (%d bytes)", kind, tableBytes)
	}
	tbl, ok := r.bytes(offset, tableBytes)
	if !ok {
		return nil, invalidf("%s table out of bounds", kind)
	}
	t := region{b: tbl}

	count := uint64(t.u32(0))
	if count != expected {
		return nil, invalidf("%s table count %d does not match expected %d", kind, count, expected)
	}
	offsetsBytes := (count + 1) * 4
	if 4+offsetsBytes > t.len() {
		return nil, invalidf("%s table offsets out of bounds", kind)
	}
	blob := tbl[4+offsetsBytes:]

	offsets := make([]uint32, count+1)
	for i := range offsets {
		offsets[i] = t.u32(4 + uint64(i)*4)
	}
	if uint64(offsets[count]) > uint64(len(blob)) {
		return nil, invalidf("%s table blob length mismatch", kind)
	}
	for i := uint64(0); i < count; i++ {
		if offsets[i] > offsets[i+1] {
			return nil, invalidf("%s table offsets not monotonic at entry %d", kind, i)
		}
	}

	out := make([]string, count)
	for i := uint64(0); i < count; i++ {
		s := blob[offsets[i]:offsets[i+1]]
		if !utf8.Valid(s) {
			return nil, invalidf("invalid utf-8 in %s table at entry %d", kind, i)
		}
		out[i] = string(s)
	}
	return out, nil
}

func countToInt(v uint64) (int, bool) {
	if v > uint64(math.MaxInt/8) {
		return 0, false
	}
	return int(v), true
}
