package container

// CscView is the validated compressed-sparse-column structure over
// (gene, cell). ColPtr has NCells+1 monotonically non-decreasing entries
// with ColPtr[0]=0 and ColPtr[NCells]=NNZ; RowIdx holds NNZ gene-row indices,
// strictly increasing within each column's slice; Values holds one raw count
// per RowIdx slot. Produced fresh per load and never mutated in place.
type CscView struct {
	NGenes int
	NCells int
	NNZ    int
	ColPtr []uint64
	RowIdx []uint32
	Values []uint32
}

// Validate checks every CSC invariant, returning a specific reason on the
// first violation.
func (c *CscView) Validate() error {
	if len(c.ColPtr) != c.NCells+1 {
		return invalidf("col_ptr length %d does not match n_cells+1 (%d)", len(c.ColPtr), c.NCells+1)
	}
	if len(c.RowIdx) != c.NNZ || len(c.Values) != c.NNZ {
		return invalidf("row_idx/values length does not match nnz %d", c.NNZ)
	}
	if c.ColPtr[0] != 0 {
		return invalidf("col_ptr[0] must be 0, got %d", c.ColPtr[0])
	}
	if c.ColPtr[c.NCells] != uint64(c.NNZ) {
		return invalidf("col_ptr[n_cells] must equal nnz %d, got %d", c.NNZ, c.ColPtr[c.NCells])
	}
	for i := 1; i < len(c.ColPtr); i++ {
		if c.ColPtr[i-1] > c.ColPtr[i] {
			return invalidf("col_ptr not monotonic at column %d", i)
		}
	}
	for cell := 0; cell < c.NCells; cell++ {
		start, end := c.ColPtr[cell], c.ColPtr[cell+1]
		if end > uint64(c.NNZ) {
			return invalidf("col_ptr bounds invalid for column %d", cell)
		}
		prev := -1
		for k := start; k < end; k++ {
			row := int(c.RowIdx[k])
			if row >= c.NGenes {
				return invalidf("row_idx %d out of bounds (n_genes %d) at entry %d", row, c.NGenes, k)
			}
			if row <= prev {
				return invalidf("row_idx not strictly increasing within column %d", cell)
			}
			prev = row
		}
	}
	return nil
}

// Column returns the [start,end) entry range of one cell's column. The view
// is already validated, so cell must be in [0, NCells).
func (c *CscView) Column(cell int) (start, end int) {
	return int(c.ColPtr[cell]), int(c.ColPtr[cell+1])
}
