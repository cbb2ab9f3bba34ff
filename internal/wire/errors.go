// Package wire implements the DNS message wire format: a bit-exact decoder
// and encoder for packets, names (with RFC 1035 §4.1.4 compression), and
// resource records, built on top of the internal/wire/buffer cursor
// abstraction.
//
// Standards Compliance:
//
//   - RFC 1035: Domain Names - Implementation and Specification
//   - RFC 3596: DNS Extensions to Support IPv6 (AAAA records)
//   - RFC 6891: Extension Mechanisms for DNS (EDNS, OPT presence only)
//
// Error Handling:
//
// All errors are wrapped with context using fmt.Errorf("...: %w", err) so
// that callers can match on the sentinels below with errors.Is while still
// getting a human-readable message.
package wire

import "github.com/resolvd/resolvd/internal/wire/wireerr"

// Re-exported so callers of package wire never need to import the internal
// wireerr package directly.
var (
	ErrEndOfBuffer       = wireerr.ErrEndOfBuffer
	ErrJumpLimitExceeded = wireerr.ErrJumpLimitExceeded
	ErrLabelTooLong      = wireerr.ErrLabelTooLong
	ErrNameTooLong       = wireerr.ErrNameTooLong
	ErrInvalidPacket     = wireerr.ErrInvalidPacket
)
