// Package dns provides the DNS wire codec: parsing and serialization of
// messages exchanged over UDP.
//
// Standards Compliance:
//
//   - RFC 1035: Domain Names - Implementation and Specification (message layout,
//     label encoding, compression pointers)
//   - RFC 3596: AAAA type code
//   - RFC 6891: OPT pseudo-record shape (options are carried opaquely)
//   - RFC 9460: SVCB/HTTPS type codes
//
// Decoding works on two views of the same immutable buffer: the full message
// (needed to follow compression pointers) and a cursor offset into it. Every
// read is bounds-checked; malformed input always yields an error wrapping
// ErrDNSError and never panics or loops.
//
// Encoding never emits compression pointers. Section counts and RDLENGTH are
// always derived from the actual content at write time.
//
// Error Handling:
//
// All errors are wrapped with context using fmt.Errorf("...: %w", err).
// Use errors.Is with the kind sentinels below to classify a failure.
package dns

import (
	"errors"
	"fmt"
)

var (
	// ErrDNSError is the root of every codec error.
	ErrDNSError = errors.New("dns wire error")

	// ErrTruncated reports that the buffer ended before the declared content.
	ErrTruncated = fmt.Errorf("%w: truncated message", ErrDNSError)

	// ErrInvalidEnum reports an unknown opcode, rcode, qtype or qclass value.
	ErrInvalidEnum = fmt.Errorf("%w: invalid enum value", ErrDNSError)

	// ErrLabelTooLong reports a label length byte above 63 that is not a pointer.
	ErrLabelTooLong = fmt.Errorf("%w: label too long", ErrDNSError)

	// ErrBadPointer reports a compression pointer that does not point strictly
	// backward inside the message.
	ErrBadPointer = fmt.Errorf("%w: bad compression pointer", ErrDNSError)

	// ErrNameTooLong reports a name whose wire length exceeds 255 bytes.
	ErrNameTooLong = fmt.Errorf("%w: name too long", ErrDNSError)

	// ErrEncode reports a message that cannot be serialized.
	ErrEncode = fmt.Errorf("%w: cannot encode", ErrDNSError)
)
