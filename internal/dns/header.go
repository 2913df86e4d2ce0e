package dns

import (
	"encoding/binary"
	"fmt"
)

// Header represents a DNS message header (RFC 1035 Section 4.1.1).
//
// The header is always 12 bytes and contains:
//   - ID: 16-bit identifier for matching requests to responses
//   - Flags: QR, Opcode, AA, TC, RD, RA, Z, RCODE
//   - QDCount: Number of questions
//   - ANCount: Number of answer resource records
//   - NSCount: Number of authority resource records
//   - ARCount: Number of additional resource records
//
// The counts reflect the wire at decode time. Encode ignores them and writes
// the lengths of the message sections instead.
type Header struct {
	ID      uint16 // Transaction ID
	Flags   Flags
	QDCount uint16 // Question count
	ANCount uint16 // Answer count
	NSCount uint16 // Authority (nameserver) count
	ARCount uint16 // Additional records count
}

// HeaderSize is the fixed size of a DNS header in bytes.
const HeaderSize = 12

// Flags is the unpacked form of the 16-bit header flags word.
type Flags struct {
	QR     bool // true for responses
	Opcode Opcode
	AA     bool  // Authoritative Answer
	TC     bool  // Truncated
	RD     bool  // Recursion Desired
	RA     bool  // Recursion Available
	Z      uint8 // 3 reserved bits, round-tripped as written
	RCode  RCode
}

// Pack returns the big-endian flags word.
func (f Flags) Pack() uint16 {
	var v uint16
	if f.QR {
		v |= QRFlag
	}
	v |= uint16(f.Opcode&0x0F) << 11
	if f.AA {
		v |= AAFlag
	}
	if f.TC {
		v |= TCFlag
	}
	if f.RD {
		v |= RDFlag
	}
	if f.RA {
		v |= RAFlag
	}
	v |= uint16(f.Z&0x07) << 4
	v |= uint16(f.RCode) & RCodeMask
	return v
}

// UnpackFlags splits a flags word into its fields.
// Unknown opcode or rcode values are rejected.
func UnpackFlags(v uint16) (Flags, error) {
	op, err := ParseOpcode(uint8((v & OpcodeMask) >> 11))
	if err != nil {
		return Flags{}, err
	}
	rc, err := ParseRCode(uint8(v & RCodeMask))
	if err != nil {
		return Flags{}, err
	}
	return Flags{
		QR:     v&QRFlag != 0,
		Opcode: op,
		AA:     v&AAFlag != 0,
		TC:     v&TCFlag != 0,
		RD:     v&RDFlag != 0,
		RA:     v&RAFlag != 0,
		Z:      uint8((v & ZMask) >> 4),
		RCode:  rc,
	}, nil
}

// ResponseFlags builds the flags for an authoritative answer to a request:
// QR and AA set, the request opcode preserved, everything else cleared.
func ResponseFlags(req Flags, rcode RCode) Flags {
	return Flags{QR: true, Opcode: req.Opcode, AA: true, RCode: rcode}
}

// appendHeader serializes the header in wire format (big-endian, 12 bytes).
func appendHeader(b []byte, h Header) []byte {
	b = binary.BigEndian.AppendUint16(b, h.ID)
	b = binary.BigEndian.AppendUint16(b, h.Flags.Pack())
	b = binary.BigEndian.AppendUint16(b, h.QDCount)
	b = binary.BigEndian.AppendUint16(b, h.ANCount)
	b = binary.BigEndian.AppendUint16(b, h.NSCount)
	b = binary.BigEndian.AppendUint16(b, h.ARCount)
	return b
}

// ParseHeader parses a DNS header from the message at the given offset.
// It advances *off by 12 bytes (the header size) on success.
func ParseHeader(msg []byte, off *int) (Header, error) {
	if *off+HeaderSize > len(msg) {
		return Header{}, fmt.Errorf("%w: %d bytes available for header", ErrTruncated, len(msg)-*off)
	}
	flags, err := UnpackFlags(binary.BigEndian.Uint16(msg[*off+2 : *off+4]))
	if err != nil {
		return Header{}, fmt.Errorf("header flags: %w", err)
	}
	h := Header{
		ID:      binary.BigEndian.Uint16(msg[*off : *off+2]),
		Flags:   flags,
		QDCount: binary.BigEndian.Uint16(msg[*off+4 : *off+6]),
		ANCount: binary.BigEndian.Uint16(msg[*off+6 : *off+8]),
		NSCount: binary.BigEndian.Uint16(msg[*off+8 : *off+10]),
		ARCount: binary.BigEndian.Uint16(msg[*off+10 : *off+12]),
	}
	*off += HeaderSize
	return h, nil
}

// IsQuery returns true if this is a query (QR=0), false if it's a response (QR=1).
func (h Header) IsQuery() bool {
	return !h.Flags.QR
}

// IsResponse returns true if this is a response (QR=1).
func (h Header) IsResponse() bool {
	return h.Flags.QR
}
