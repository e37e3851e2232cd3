// Package gzio opens input files that may or may not be gzip-compressed.
//
// Compression is detected by the ".gz" filename extension, matching the
// interchange conventions of the upstream tools (matrix.mtx.gz etc.).
package gzio

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Reader is a buffered reader over a (possibly gzip-compressed) file.
// Close releases the decompressor and the underlying file.
type Reader struct {
	*bufio.Reader
	gz *gzip.Reader
	f  *os.File
}

// Open opens path for reading, transparently decompressing when the filename
// ends in ".gz".
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	if !strings.HasSuffix(path, ".gz") {
		return &Reader{Reader: bufio.NewReader(f), f: f}, nil
	}

	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &Reader{Reader: bufio.NewReader(gz), gz: gz, f: f}, nil
}

// Close implements io.Closer.
func (r *Reader) Close() error {
	var err error
	if r.gz != nil {
		err = r.gz.Close()
		r.gz = nil
	}
	if r.f != nil {
		if closeErr := r.f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		r.f = nil
	}
	return err
}

var _ io.ReadCloser = (*Reader)(nil)
