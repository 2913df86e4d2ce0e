package dns

import (
	"fmt"
	"strconv"
	"strings"
)

// DNS header flags and masks (RFC 1035 Section 4.1.1)
//
// The 16-bit flags word has the following layout:
//
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
//	|QR|   Opcode  |AA|TC|RD|RA|   Z    |   RCODE   |
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
//	 15 14 13 12 11 10  9  8  7  6  5  4  3  2  1  0
//
// Z is three reserved bits which are carried verbatim in both directions.
const (
	QRFlag     uint16 = 0x8000 // Query/Response: 1 = response, 0 = query
	OpcodeMask uint16 = 0x7800 // Bits 14-11: operation type (use >> 11 to extract)
	AAFlag     uint16 = 0x0400 // Authoritative Answer
	TCFlag     uint16 = 0x0200 // Truncation: message was truncated
	RDFlag     uint16 = 0x0100 // Recursion Desired
	RAFlag     uint16 = 0x0080 // Recursion Available
	ZMask      uint16 = 0x0070 // Bits 6-4: reserved (use >> 4 to extract)
	RCodeMask  uint16 = 0x000F // Bits 3-0: response code
)

// Opcode is the 4-bit operation code of a message.
type Opcode uint8

const (
	OpcodeQuery  Opcode = 0 // Standard query
	OpcodeIQuery Opcode = 1 // Inverse query
	OpcodeStatus Opcode = 2 // Server status request
)

// ParseOpcode validates a wire opcode.
func ParseOpcode(v uint8) (Opcode, error) {
	switch op := Opcode(v); op {
	case OpcodeQuery, OpcodeIQuery, OpcodeStatus:
		return op, nil
	}
	return 0, fmt.Errorf("%w: opcode %d", ErrInvalidEnum, v)
}

func (o Opcode) String() string {
	switch o {
	case OpcodeQuery:
		return "QUERY"
	case OpcodeIQuery:
		return "IQUERY"
	case OpcodeStatus:
		return "STATUS"
	}
	return "OPCODE" + strconv.Itoa(int(o))
}

// RCode is the 4-bit response code of a message.
type RCode uint8

const (
	RCodeNoError        RCode = 0 // No error
	RCodeFormatError    RCode = 1 // Format error: query malformed
	RCodeServerFailure  RCode = 2 // Server failure: internal error
	RCodeNameError      RCode = 3 // Non-existent domain
	RCodeNotImplemented RCode = 4 // Not implemented
	RCodeRefused        RCode = 5 // Query refused by policy
)

// ParseRCode validates a wire response code.
func ParseRCode(v uint8) (RCode, error) {
	if v <= uint8(RCodeRefused) {
		return RCode(v), nil
	}
	return 0, fmt.Errorf("%w: rcode %d", ErrInvalidEnum, v)
}

func (r RCode) String() string {
	switch r {
	case RCodeNoError:
		return "NOERROR"
	case RCodeFormatError:
		return "FORMERR"
	case RCodeServerFailure:
		return "SERVFAIL"
	case RCodeNameError:
		return "NXDOMAIN"
	case RCodeNotImplemented:
		return "NOTIMP"
	case RCodeRefused:
		return "REFUSED"
	}
	return "RCODE" + strconv.Itoa(int(r))
}

// QType represents DNS resource record and query types (RFC 1035, RFC 3596,
// RFC 6891, RFC 9460).
type QType uint16

const (
	TypeA     QType = 1  // IPv4 address
	TypeNS    QType = 2  // Authoritative name server
	TypeMD    QType = 3  // Mail destination (obsolete)
	TypeMF    QType = 4  // Mail forwarder (obsolete)
	TypeCNAME QType = 5  // Canonical name (alias)
	TypeSOA   QType = 6  // Start of Authority
	TypeMB    QType = 7  // Mailbox domain name
	TypeMG    QType = 8  // Mail group member
	TypeMR    QType = 9  // Mail rename domain name
	TypeNULL  QType = 10 // Null RR
	TypeWKS   QType = 11 // Well known service
	TypePTR   QType = 12 // Domain name pointer
	TypeHINFO QType = 13 // Host information
	TypeMINFO QType = 14 // Mailbox information
	TypeMX    QType = 15 // Mail exchange
	TypeTXT   QType = 16 // Text strings
	TypeAAAA  QType = 28 // IPv6 address
	TypeOPT   QType = 41 // EDNS pseudo-record
	TypeSVCB  QType = 64 // Service binding
	TypeHTTPS QType = 65 // HTTPS service binding

	TypeAXFR  QType = 252 // Zone transfer
	TypeMAILB QType = 253 // Mailbox-related records
	TypeMAILA QType = 254 // Mail agent records
	TypeANY   QType = 255 // Any type
)

var qtypeNames = map[QType]string{
	TypeA:     "A",
	TypeNS:    "NS",
	TypeMD:    "MD",
	TypeMF:    "MF",
	TypeCNAME: "CNAME",
	TypeSOA:   "SOA",
	TypeMB:    "MB",
	TypeMG:    "MG",
	TypeMR:    "MR",
	TypeNULL:  "NULL",
	TypeWKS:   "WKS",
	TypePTR:   "PTR",
	TypeHINFO: "HINFO",
	TypeMINFO: "MINFO",
	TypeMX:    "MX",
	TypeTXT:   "TXT",
	TypeAAAA:  "AAAA",
	TypeOPT:   "OPT",
	TypeSVCB:  "SVCB",
	TypeHTTPS: "HTTPS",
	TypeAXFR:  "AXFR",
	TypeMAILB: "MAILB",
	TypeMAILA: "MAILA",
	TypeANY:   "ANY",
}

// ParseQType validates a wire type value.
func ParseQType(v uint16) (QType, error) {
	if _, ok := qtypeNames[QType(v)]; ok {
		return QType(v), nil
	}
	return 0, fmt.Errorf("%w: qtype %d", ErrInvalidEnum, v)
}

// QTypeFromString maps a mnemonic such as "A" or "cname" to its QType.
func QTypeFromString(s string) (QType, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for t, name := range qtypeNames {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown type %q", ErrInvalidEnum, s)
}

func (t QType) String() string {
	if name, ok := qtypeNames[t]; ok {
		return name
	}
	return "TYPE" + strconv.Itoa(int(t))
}

// QClass represents DNS classes (RFC 1035).
type QClass uint16

const (
	ClassNONE QClass = 0   // No class; used for OPT records
	ClassIN   QClass = 1   // Internet
	ClassCS   QClass = 2   // CSNET (obsolete)
	ClassCH   QClass = 3   // Chaos
	ClassHS   QClass = 4   // Hesiod
	ClassANY  QClass = 255 // Any class
)

// ParseQClass validates a wire class value.
func ParseQClass(v uint16) (QClass, error) {
	switch c := QClass(v); c {
	case ClassNONE, ClassIN, ClassCS, ClassCH, ClassHS, ClassANY:
		return c, nil
	}
	return 0, fmt.Errorf("%w: qclass %d", ErrInvalidEnum, v)
}

func (c QClass) String() string {
	switch c {
	case ClassNONE:
		return "NONE"
	case ClassIN:
		return "IN"
	case ClassCS:
		return "CS"
	case ClassCH:
		return "CH"
	case ClassHS:
		return "HS"
	case ClassANY:
		return "ANY"
	}
	return "CLASS" + strconv.Itoa(int(c))
}
