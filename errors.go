package organelle

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kiralab/organelle/container"
	"github.com/kiralab/organelle/gene"
	"github.com/kiralab/organelle/mtx"
)

// MissingInputError indicates an expected input file could not be located
// under any of its candidate names. Candidates lists every name tried.
type MissingInputError struct {
	What       string
	Dir        string
	Candidates []string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("missing %s in %s (tried %s)", e.What, e.Dir, strings.Join(e.Candidates, ", "))
}

// InvalidInputError indicates structurally well-formed bytes that violate a
// declared invariant: checksum mismatch, dimension mismatch, out-of-bounds
// offset. Reason names the specific invariant.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type InvalidInputError struct {
	Reason string
	cause  error
}

func (e *InvalidInputError) Error() string {
	return "invalid input: " + e.Reason
}

func (e *InvalidInputError) Unwrap() error { return e.cause }

// ParseError indicates malformed text syntax. Line is 1-based where one
// applies (0 when the error concerns the whole file).
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ParseError struct {
	Line  int
	Msg   string
	cause error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse error: %s (line %d)", e.Msg, e.Line)
	}
	return "parse error: " + e.Msg
}

func (e *ParseError) Unwrap() error { return e.cause }

// translateError maps subpackage errors into the package taxonomy. I/O
// errors pass through verbatim with their OS-level cause intact.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var gp *gene.ParseError
	if errors.As(err, &gp) {
		return &ParseError{Line: gp.Line, Msg: gp.Msg, cause: err}
	}
	var mp *mtx.ParseError
	if errors.As(err, &mp) {
		return &ParseError{Line: mp.Line, Msg: mp.Msg, cause: err}
	}

	var dim *mtx.DimensionError
	if errors.As(err, &dim) {
		return &InvalidInputError{Reason: dim.Reason, cause: err}
	}
	var inv *container.InvalidError
	if errors.As(err, &inv) {
		return &InvalidInputError{Reason: inv.Reason, cause: err}
	}
	var crc *container.ChecksumMismatchError
	if errors.As(err, &crc) {
		return &InvalidInputError{Reason: crc.Error(), cause: err}
	}
	for _, sentinel := range []error{
		container.ErrTooSmall,
		container.ErrInvalidMagic,
		container.ErrInvalidVersion,
		container.ErrForeignEndianness,
	} {
		if errors.Is(err, sentinel) {
			return &InvalidInputError{Reason: err.Error(), cause: err}
		}
	}

	return err
}
