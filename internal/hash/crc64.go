package hash

// CRC-64/ECMA-182: polynomial 0x42F0E1EBA9EA3693, MSB-first, zero initial
// value, no final xor. This is NOT the reflected variant provided by
// hash/crc64 (whose ECMA table inverts init and output); the container
// format pins the non-reflected form, so the table is built here.

const crc64Poly = 0x42F0E1EBA9EA3693

var crc64Table = makeCRC64Table()

func makeCRC64Table() *[256]uint64 {
	var t [256]uint64
	for i := range t {
		crc := uint64(i) << 56
		for range 8 {
			if crc&(1<<63) != 0 {
				crc = (crc << 1) ^ crc64Poly
			} else {
				crc <<= 1
			}
		}
		t[i] = crc
	}
	return &t
}

// CRC64 returns the CRC-64/ECMA-182 checksum of data.
func CRC64(data []byte) uint64 {
	var crc uint64
	for _, b := range data {
		crc = crc64Table[byte(crc>>56)^b] ^ (crc << 8)
	}
	return crc
}
