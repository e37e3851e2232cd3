package organelle

import (
	"bufio"
	"strings"

	"github.com/kiralab/organelle/internal/gzio"
)

// CellMeta is per-cell annotation loaded from a metadata TSV, row-aligned to
// the barcode list: Rows[i] belongs to barcode i, and barcodes absent from
// the file get a row of empty strings. The barcode column itself is not
// repeated in Columns.
type CellMeta struct {
	Columns []string
	Rows    [][]string
}

// loadCellMeta reads a metadata TSV (optionally gzip-compressed). The
// barcode column is found by header name ("barcode" or "barcodes", case
// insensitive), defaulting to the first column. Duplicate barcodes keep the
// first occurrence.
func loadCellMeta(path string, barcodes []string, log *Logger) (*CellMeta, error) {
	r, err := gzio.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, &ParseError{Msg: "meta file is empty"}
	}
	header := strings.Split(strings.TrimRight(sc.Text(), "\r\n"), "\t")

	barcodeCol := 0
	for i, name := range header {
		lower := strings.ToLower(strings.TrimSpace(name))
		if lower == "barcode" || lower == "barcodes" {
			barcodeCol = i
			break
		}
	}

	columns := make([]string, 0, len(header)-1)
	for i, name := range header {
		if i != barcodeCol {
			columns = append(columns, strings.TrimSpace(name))
		}
	}

	byBarcode := make(map[string][]string)
	lineNo := 1
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r\n")
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if barcodeCol >= len(fields) {
			log.Warn("meta line has no barcode column; skipping", "line", lineNo)
			continue
		}
		barcode := strings.TrimSpace(fields[barcodeCol])
		if barcode == "" {
			log.Warn("meta line has empty barcode; skipping", "line", lineNo)
			continue
		}
		if _, ok := byBarcode[barcode]; ok {
			log.Warn("duplicate barcode in metadata; keeping first", "line", lineNo, "barcode", barcode)
			continue
		}

		row := make([]string, 0, len(columns))
		for i := range header {
			if i == barcodeCol {
				continue
			}
			value := ""
			if i < len(fields) {
				value = strings.TrimSpace(fields[i])
			}
			row = append(row, value)
		}
		byBarcode[barcode] = row
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	rows := make([][]string, len(barcodes))
	for i, bc := range barcodes {
		if row, ok := byBarcode[bc]; ok {
			rows[i] = row
		} else {
			rows[i] = make([]string, len(columns))
		}
	}

	return &CellMeta{Columns: columns, Rows: rows}, nil
}
