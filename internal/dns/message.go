package dns

import (
	"fmt"
	"math"

	"github.com/jroosing/triedns/internal/helpers"
)

// MaxUDPSize is the largest datagram read or written over plain UDP (RFC 1035 Section 4.2.1).
const MaxUDPSize = 512

// maxPrealloc bounds slice preallocation from untrusted counts. A 512 byte
// datagram cannot hold more entries than this anyway.
const maxPrealloc = 32

// Message is a complete DNS message (RFC 1035 Section 4.1).
//
// Wire format layout:
//
//	+---------------------+
//	|        Header       |
//	+---------------------+
//	|       Question      | the question for the name server
//	+---------------------+
//	|        Answer       | RRs answering the question
//	+---------------------+
//	|      Authority      | RRs pointing toward an authority
//	+---------------------+
//	|      Additional     | RRs holding additional information
//	+---------------------+
//
// Sections with no entries are nil.
type Message struct {
	Header      Header
	Questions   []Question
	Answers     []ResourceRecord
	Authorities []ResourceRecord
	Additionals []ResourceRecord
}

// Decode parses a complete message. Exactly the number of entries declared
// by the header counts is read for each section; bytes after the last
// section are ignored.
func Decode(msg []byte) (Message, error) {
	off := 0
	h, err := ParseHeader(msg, &off)
	if err != nil {
		return Message{}, err
	}
	m := Message{Header: h}

	if h.QDCount > 0 {
		m.Questions = make([]Question, 0, min(int(h.QDCount), maxPrealloc))
		for i := 0; i < int(h.QDCount); i++ {
			q, err := ParseQuestion(msg, &off)
			if err != nil {
				return Message{}, fmt.Errorf("question %d: %w", i, err)
			}
			m.Questions = append(m.Questions, q)
		}
	}

	if m.Answers, err = decodeSection(msg, &off, h.ANCount, "answer"); err != nil {
		return Message{}, err
	}
	if m.Authorities, err = decodeSection(msg, &off, h.NSCount, "authority"); err != nil {
		return Message{}, err
	}
	if m.Additionals, err = decodeSection(msg, &off, h.ARCount, "additional"); err != nil {
		return Message{}, err
	}
	return m, nil
}

func decodeSection(msg []byte, off *int, count uint16, section string) ([]ResourceRecord, error) {
	if count == 0 {
		return nil, nil
	}
	rrs := make([]ResourceRecord, 0, min(int(count), maxPrealloc))
	for i := 0; i < int(count); i++ {
		rr, err := ParseResourceRecord(msg, off)
		if err != nil {
			return nil, fmt.Errorf("%s %d: %w", section, i, err)
		}
		rrs = append(rrs, rr)
	}
	return rrs, nil
}

// Encode serializes m. Header counts are taken from the section lengths,
// never from m.Header, and no name compression is applied.
func (m *Message) Encode() ([]byte, error) {
	for _, n := range []int{len(m.Questions), len(m.Answers), len(m.Authorities), len(m.Additionals)} {
		if n > math.MaxUint16 {
			return nil, fmt.Errorf("%w: section with %d entries", ErrEncode, n)
		}
	}

	h := m.Header
	h.QDCount = uint16(len(m.Questions))
	h.ANCount = uint16(len(m.Answers))
	h.NSCount = uint16(len(m.Authorities))
	h.ARCount = uint16(len(m.Additionals))

	out := make([]byte, 0, MaxUDPSize)
	out = appendHeader(out, h)
	for _, q := range m.Questions {
		out = q.AppendWire(out)
	}

	var err error
	for _, section := range [][]ResourceRecord{m.Answers, m.Authorities, m.Additionals} {
		for _, rr := range section {
			if out, err = rr.AppendWire(out); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// SyncCounts sets the header counts to the section lengths, saturating at 65535.
func (m *Message) SyncCounts() {
	m.Header.QDCount = helpers.ClampIntToUint16(len(m.Questions))
	m.Header.ANCount = helpers.ClampIntToUint16(len(m.Answers))
	m.Header.NSCount = helpers.ClampIntToUint16(len(m.Authorities))
	m.Header.ARCount = helpers.ClampIntToUint16(len(m.Additionals))
}
