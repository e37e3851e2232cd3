// Package mtx reads MatrixMarket coordinate files into per-cell sparse
// columns keyed by gene id. Repeated (row, col) entries are tolerated and
// accumulate by summation.
package mtx

import (
	"bufio"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/kiralab/organelle/gene"
	"github.com/kiralab/organelle/internal/gzio"
)

// Entry is one non-zero count of a cell's column, keyed by gene id.
type Entry struct {
	Gene  uint32
	Count int64
}

// Matrix holds the parsed counts as per-cell columns, each sorted by
// ascending gene id. NRows and NCols are the declared raw dimensions
// (features × cells); Cols has one slice per cell.
type Matrix struct {
	NRows int
	NCols int
	Cols  [][]Entry
}

// ParseError is a malformed matrix file. Line is 1-based within the file
// where one applies (0 means the error concerns the whole file).
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

// DimensionError is a well-formed matrix whose declared dimensions do not
// match the features or barcodes files it was loaded alongside.
type DimensionError struct {
	Reason string
}

func (e *DimensionError) Error() string {
	return e.Reason
}

// Read parses the MatrixMarket file at path (optionally gzip-compressed).
// Declared rows must equal nFeaturesRaw and columns must equal nCells.
// Zero-valued entries are dropped, entries whose feature row has no gene id
// in idx are dropped, and duplicates sum. Column order of the output is
// deterministic regardless of the order of data lines.
func Read(path string, nFeaturesRaw, nCells int, idx *gene.Index) (*Matrix, error) {
	r, err := gzio.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, &ParseError{Msg: "matrix file is empty"}
	}
	lineNo++
	if !strings.HasPrefix(sc.Text(), "%%MatrixMarket") {
		return nil, &ParseError{Line: lineNo, Msg: "missing MatrixMarket header"}
	}

	rows, cols, err := readSizeLine(sc, &lineNo)
	if err != nil {
		return nil, err
	}
	if rows != nFeaturesRaw {
		return nil, &DimensionError{Reason: fmt.Sprintf(
			"matrix row count %d does not match features %d", rows, nFeaturesRaw)}
	}
	if cols != nCells {
		return nil, &DimensionError{Reason: fmt.Sprintf(
			"matrix column count %d does not match barcodes %d", cols, nCells)}
	}

	perCol := make([]map[uint32]int64, cols)

	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), " \t\r")
		if line == "" || line[0] == '%' {
			continue
		}
		row, col, val, err := parseEntry(line, lineNo)
		if err != nil {
			return nil, err
		}
		if row < 1 || row > rows || col < 1 || col > cols {
			return nil, &ParseError{Line: lineNo, Msg: "matrix entry out of bounds"}
		}
		if val == 0 {
			continue
		}
		id, ok := idx.GeneID(row - 1)
		if !ok {
			continue
		}
		c := col - 1
		if perCol[c] == nil {
			perCol[c] = make(map[uint32]int64)
		}
		perCol[c][id] += val
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	out := make([][]Entry, cols)
	for c, m := range perCol {
		col := make([]Entry, 0, len(m))
		for id, v := range m {
			col = append(col, Entry{Gene: id, Count: v})
		}
		sort.Slice(col, func(i, j int) bool { return col[i].Gene < col[j].Gene })
		out[c] = col
	}

	return &Matrix{NRows: rows, NCols: cols, Cols: out}, nil
}

func readSizeLine(sc *bufio.Scanner, lineNo *int) (rows, cols int, err error) {
	for sc.Scan() {
		*lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '%' {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			return 0, 0, &ParseError{Line: *lineNo, Msg: "invalid matrix size line"}
		}
		rows, err = strconv.Atoi(fields[0])
		if err != nil || rows < 0 {
			return 0, 0, &ParseError{Line: *lineNo, Msg: "invalid row count"}
		}
		cols, err = strconv.Atoi(fields[1])
		if err != nil || cols < 0 {
			return 0, 0, &ParseError{Line: *lineNo, Msg: "invalid column count"}
		}
		if _, err = strconv.Atoi(fields[2]); err != nil {
			return 0, 0, &ParseError{Line: *lineNo, Msg: "invalid nnz count"}
		}
		return rows, cols, nil
	}
	if err := sc.Err(); err != nil {
		return 0, 0, err
	}
	return 0, 0, &ParseError{Msg: "missing matrix size line"}
}

func parseEntry(line string, lineNo int) (row, col int, val int64, err error) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return 0, 0, 0, &ParseError{Line: lineNo, Msg: "invalid matrix entry"}
	}
	row, err = strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, 0, &ParseError{Line: lineNo, Msg: "invalid row index"}
	}
	col, err = strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, 0, &ParseError{Line: lineNo, Msg: "invalid col index"}
	}
	val, err = strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return 0, 0, 0, &ParseError{Line: lineNo, Msg: "invalid value"}
	}
	return row, col, val, nil
}
