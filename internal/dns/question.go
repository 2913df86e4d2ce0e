package dns

import (
	"encoding/binary"
	"fmt"
)

// Question represents a DNS question section entry (RFC 1035 Section 4.1.2).
//
// Each question specifies what the client is asking for:
//   - Name: The domain name being queried
//   - Type: The record type requested (A, CNAME, ANY, etc.)
//   - Class: Usually ClassIN (Internet)
type Question struct {
	Name  Name
	Type  QType
	Class QClass
}

// AppendWire appends the question in wire format to b.
func (q Question) AppendWire(b []byte) []byte {
	b = q.Name.AppendWire(b)
	b = binary.BigEndian.AppendUint16(b, uint16(q.Type))
	return binary.BigEndian.AppendUint16(b, uint16(q.Class))
}

// ParseQuestion parses a question from the message at the given offset.
// It advances *off past the parsed question on success.
func ParseQuestion(msg []byte, off *int) (Question, error) {
	name, err := DecodeName(msg, off)
	if err != nil {
		return Question{}, err
	}
	if *off+4 > len(msg) {
		return Question{}, fmt.Errorf("%w: question type/class", ErrTruncated)
	}
	qt, err := ParseQType(binary.BigEndian.Uint16(msg[*off : *off+2]))
	if err != nil {
		return Question{}, err
	}
	qc, err := ParseQClass(binary.BigEndian.Uint16(msg[*off+2 : *off+4]))
	if err != nil {
		return Question{}, err
	}
	*off += 4
	return Question{Name: name, Type: qt, Class: qc}, nil
}

func (q Question) String() string {
	return fmt.Sprintf("%s %s %s", q.Name, q.Class, q.Type)
}
