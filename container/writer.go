package container

import (
	"encoding/binary"
	"io"

	"github.com/kiralab/organelle/internal/fsio"
	"github.com/kiralab/organelle/internal/hash"
)

// Write encodes genes, barcodes and the CSC arrays into a KORG v1.0 file at
// path, replacing any existing file atomically. Sections after the header
// are 64-byte aligned, matching the upstream tool's layout.
func Write(path string, genes, barcodes []string, csc *CscView) error {
	if csc.NGenes != len(genes) {
		return invalidf("gene count %d does not match csc n_genes %d", len(genes), csc.NGenes)
	}
	if csc.NCells != len(barcodes) {
		return invalidf("barcode count %d does not match csc n_cells %d", len(barcodes), csc.NCells)
	}
	if err := csc.Validate(); err != nil {
		return err
	}

	buf := Encode(genes, barcodes, csc)
	return fsio.SaveAtomic(path, func(w io.Writer) error {
		_, err := w.Write(buf)
		return err
	})
}

// Encode builds the complete container image in memory, checksum included.
func Encode(genes, barcodes []string, csc *CscView) []byte {
	geneTable := encodeStringTable(genes)
	barcodeTable := encodeStringTable(barcodes)

	offset := uint64(HeaderSize)
	geneOff := offset
	offset = align64(offset + uint64(len(geneTable)))
	barcodeOff := offset
	offset = align64(offset + uint64(len(barcodeTable)))
	colPtrOff := offset
	offset = align64(offset + uint64(len(csc.ColPtr))*8)
	rowIdxOff := offset
	offset = align64(offset + uint64(len(csc.RowIdx))*4)
	valuesOff := offset
	offset = align64(offset + uint64(len(csc.Values))*4)

	buf := make([]byte, offset)
	le := binary.LittleEndian

	copy(buf[offMagic:], Magic)
	le.PutUint16(buf[offVersionMajor:], VersionMajor)
	le.PutUint16(buf[offVersionMinor:], VersionMinor)
	le.PutUint32(buf[offEndianness:], EndiannessTag)
	le.PutUint32(buf[offHeaderSize:], HeaderSize)
	le.PutUint64(buf[offNGenes:], uint64(csc.NGenes))
	le.PutUint64(buf[offNCells:], uint64(csc.NCells))
	le.PutUint64(buf[offNNZ:], uint64(csc.NNZ))
	le.PutUint64(buf[offGeneTableOff:], geneOff)
	le.PutUint64(buf[offGeneTableBytes:], uint64(len(geneTable)))
	le.PutUint64(buf[offBarcodeTableOff:], barcodeOff)
	le.PutUint64(buf[offBarcodeBytes:], uint64(len(barcodeTable)))
	le.PutUint64(buf[offColPtr:], colPtrOff)
	le.PutUint64(buf[offRowIdx:], rowIdxOff)
	le.PutUint64(buf[offValues:], valuesOff)
	le.PutUint64(buf[offFileBytes:], offset)

	copy(buf[geneOff:], geneTable)
	copy(buf[barcodeOff:], barcodeTable)
	for i, v := range csc.ColPtr {
		le.PutUint64(buf[colPtrOff+uint64(i)*8:], v)
	}
	for i, v := range csc.RowIdx {
		le.PutUint32(buf[rowIdxOff+uint64(i)*4:], v)
	}
	for i, v := range csc.Values {
		le.PutUint32(buf[valuesOff+uint64(i)*4:], v)
	}

	// Checksum over the header with its own field zeroed.
	le.PutUint64(buf[offHeaderCRC:], hash.CRC64(buf[:HeaderSize]))
	return buf
}

func encodeStringTable(items []string) []byte {
	var blobLen uint32
	offsets := make([]uint32, 0, len(items)+1)
	offsets = append(offsets, 0)
	for _, s := range items {
		blobLen += uint32(len(s))
		offsets = append(offsets, blobLen)
	}

	out := make([]byte, 0, 4+len(offsets)*4+int(blobLen))
	out = binary.LittleEndian.AppendUint32(out, uint32(len(items)))
	for _, off := range offsets {
		out = binary.LittleEndian.AppendUint32(out, off)
	}
	for _, s := range items {
		out = append(out, s...)
	}
	return out
}

func align64(v uint64) uint64 {
	if rem := v % 64; rem != 0 {
		return v + (64 - rem)
	}
	return v
}
