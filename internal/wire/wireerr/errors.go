// Package wireerr holds the sentinel errors shared by package buffer and
// package wire. It exists separately from package wire so that
// internal/wire/buffer (a leaf dependency of package wire) can return these
// errors without creating an import cycle.
package wireerr

import "errors"

var (
	// ErrEndOfBuffer is returned by a Buffer read/get past the valid region.
	ErrEndOfBuffer = errors.New("wire: end of buffer")

	// ErrJumpLimitExceeded is returned when decoding a QualifiedName would
	// require more than the allowed number of compression-pointer jumps.
	ErrJumpLimitExceeded = errors.New("wire: too many compression pointer jumps")

	// ErrLabelTooLong is returned when encoding a name whose label exceeds
	// 63 bytes.
	ErrLabelTooLong = errors.New("wire: dns label exceeds 63 bytes")

	// ErrNameTooLong is returned when an encoded name would exceed 255 bytes.
	ErrNameTooLong = errors.New("wire: encoded name exceeds 255 bytes")

	// ErrInvalidPacket is returned for malformed message content: a
	// non-ASCII label byte, record data of the wrong length or shape, or
	// record data that cannot be encoded. A header too short to read fails
	// with ErrEndOfBuffer instead.
	ErrInvalidPacket = errors.New("wire: invalid dns packet")
)
