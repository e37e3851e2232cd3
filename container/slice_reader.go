package container

import "encoding/binary"

// region provides bounds-checked absolute-offset reads over the mapped file.
// Every typed access goes through bytes(), so an out-of-range offset can
// never turn into an out-of-range slice expression.
type region struct {
	b []byte
}

func (r region) len() uint64 {
	return uint64(len(r.b))
}

func (r region) bytes(off, n uint64) ([]byte, bool) {
	if off > r.len() || n > r.len()-off {
		return nil, false
	}
	return r.b[off : off+n], true
}

// Header-window reads: callers have already verified the 256-byte header is
// present, so these never fail.
func (r region) u16(off uint64) uint16 {
	return binary.LittleEndian.Uint16(r.b[off : off+2])
}

func (r region) u32(off uint64) uint32 {
	return binary.LittleEndian.Uint32(r.b[off : off+4])
}

func (r region) u64(off uint64) uint64 {
	return binary.LittleEndian.Uint64(r.b[off : off+8])
}

func (r region) u32SliceCopy(off uint64, n int) ([]uint32, bool) {
	b, ok := r.bytes(off, uint64(n)*4)
	if !ok {
		return nil, false
	}
	out := make([]uint32, n)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return out, true
}

func (r region) u64SliceCopy(off uint64, n int) ([]uint64, bool) {
	b, ok := r.bytes(off, uint64(n)*8)
	if !ok {
		return nil, false
	}
	out := make([]uint64, n)
	for i := range out {
		out[i] = binary.LittleEndian.Uint64(b[i*8:])
	}
	return out, true
}
