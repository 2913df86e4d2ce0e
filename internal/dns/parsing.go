package dns

import (
	"errors"
	"fmt"
)

// ErrNotQuery reports a datagram with the QR bit set. Such datagrams are
// never answered so two servers cannot bounce replies at each other.
var ErrNotQuery = errors.New("not a query: QR flag set")

// ParseRequest decodes an inbound datagram and checks that it is a query
// carrying at least one question.
//
// Returns an error if:
//   - The message fails to decode (wraps ErrDNSError)
//   - QR flag is set (ErrNotQuery)
//   - The question section is empty
func ParseRequest(msg []byte) (Message, error) {
	if len(msg) >= HeaderSize && msg[2]&byte(QRFlag>>8) != 0 {
		// Checked before decoding so responses are rejected cheaply.
		return Message{}, ErrNotQuery
	}
	m, err := Decode(msg)
	if err != nil {
		return Message{}, err
	}
	if len(m.Questions) == 0 {
		return Message{}, fmt.Errorf("%w: no questions", ErrDNSError)
	}
	return m, nil
}

// NewQuery builds a single-question query with RD set, as stub clients send.
func NewQuery(id uint16, name Name, qtype QType) Message {
	return Message{
		Header: Header{
			ID:      id,
			Flags:   Flags{Opcode: OpcodeQuery, RD: true},
			QDCount: 1,
		},
		Questions: []Question{{Name: name, Type: qtype, Class: ClassIN}},
	}
}
