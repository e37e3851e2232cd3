package hash

import (
	"hash/fnv"
	"io"
	"os"
)

// Bytes returns the FNV-1a 64 hash of data.
func Bytes(data []byte) uint64 {
	h := fnv.New64a()
	_, _ = h.Write(data)
	return h.Sum64()
}

// File returns the FNV-1a 64 hash of the file contents at path, streamed so
// arbitrarily large inputs never have to fit in memory. Any single-byte
// change in the file changes the result.
func File(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	h := fnv.New64a()
	if _, err := io.Copy(h, f); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}

// Strings hashes a list of strings with NUL separators so that boundary
// shifts ("ab","c" vs "a","bc") produce distinct hashes.
func Strings(items []string) uint64 {
	h := fnv.New64a()
	for _, s := range items {
		_, _ = h.Write([]byte(s))
		_, _ = h.Write([]byte{0})
	}
	return h.Sum64()
}
