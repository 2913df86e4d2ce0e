package dns

import (
	"encoding/binary"
	"fmt"
	"math"
)

// rrFixedLen is the size of TYPE, CLASS, TTL and RDLENGTH following the owner name.
const rrFixedLen = 10

// ResourceRecord is a wire-level resource record (RFC 1035 Section 4.1.3).
//
// RDATA is carried opaquely. RDLENGTH is not stored; it is always len(Data).
//
// OPT pseudo-records (RFC 6891) reuse the CLASS field for the requestor's UDP
// payload size. For those, Class is ClassNONE and the raw field lives in
// UDPSize; TTL holds the extended RCODE and flags verbatim and Data holds the
// uninterpreted options.
type ResourceRecord struct {
	Name    Name
	Type    QType
	Class   QClass
	TTL     int32
	Data    []byte // nil when RDLENGTH is zero
	UDPSize uint16 // OPT only
}

// RDLength returns the RDLENGTH written for this record.
func (rr ResourceRecord) RDLength() int {
	return len(rr.Data)
}

// IsOPT reports whether rr is an EDNS pseudo-record.
func (rr ResourceRecord) IsOPT() bool {
	return rr.Type == TypeOPT
}

// AppendWire appends rr in wire format to b, with RDLENGTH derived from Data.
func (rr ResourceRecord) AppendWire(b []byte) ([]byte, error) {
	if len(rr.Data) > math.MaxUint16 {
		return b, fmt.Errorf("%w: rdata too large: %d bytes (max 65535)", ErrEncode, len(rr.Data))
	}
	class := uint16(rr.Class)
	if rr.IsOPT() {
		class = rr.UDPSize
	}
	b = rr.Name.AppendWire(b)
	b = binary.BigEndian.AppendUint16(b, uint16(rr.Type))
	b = binary.BigEndian.AppendUint16(b, class)
	b = binary.BigEndian.AppendUint32(b, uint32(rr.TTL))
	b = binary.BigEndian.AppendUint16(b, uint16(len(rr.Data)))
	return append(b, rr.Data...), nil
}

// ParseResourceRecord parses a resource record from wire format.
// It advances *off past the parsed record on success. RDATA is copied out of msg.
func ParseResourceRecord(msg []byte, off *int) (ResourceRecord, error) {
	name, err := DecodeName(msg, off)
	if err != nil {
		return ResourceRecord{}, err
	}
	if *off+rrFixedLen > len(msg) {
		return ResourceRecord{}, fmt.Errorf("%w: record fixed fields", ErrTruncated)
	}
	fixed := msg[*off : *off+rrFixedLen]

	rr := ResourceRecord{Name: name}
	if rr.Type, err = ParseQType(binary.BigEndian.Uint16(fixed[0:2])); err != nil {
		return ResourceRecord{}, err
	}
	rawClass := binary.BigEndian.Uint16(fixed[2:4])
	if rr.IsOPT() {
		rr.Class = ClassNONE
		rr.UDPSize = rawClass
	} else if rr.Class, err = ParseQClass(rawClass); err != nil {
		return ResourceRecord{}, err
	}
	rr.TTL = int32(binary.BigEndian.Uint32(fixed[4:8]))
	rdlen := int(binary.BigEndian.Uint16(fixed[8:10]))
	*off += rrFixedLen

	if *off+rdlen > len(msg) {
		return ResourceRecord{}, fmt.Errorf("%w: rdata of %d bytes", ErrTruncated, rdlen)
	}
	if rdlen > 0 {
		rr.Data = append([]byte(nil), msg[*off:*off+rdlen]...)
	}
	*off += rdlen
	return rr, nil
}

func (rr ResourceRecord) String() string {
	if rr.IsOPT() {
		return fmt.Sprintf("OPT udp=%d flags=0x%08x rdlen=%d", rr.UDPSize, uint32(rr.TTL), len(rr.Data))
	}
	return fmt.Sprintf("%s %d %s %s rdlen=%d", rr.Name, rr.TTL, rr.Class, rr.Type, len(rr.Data))
}
