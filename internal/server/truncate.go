package server

import (
	"encoding/binary"

	"github.com/jroosing/triedns/internal/dns"
)

// truncateUDPResponse fits a locally built response into maxSize bytes.
//
// An oversized response keeps its header, with TC set and the record counts
// zeroed, and its question section when that fits. Everything after the
// questions is cut. Responses within the limit are returned unchanged.
func truncateUDPResponse(resp []byte, maxSize int) []byte {
	if maxSize <= 0 {
		maxSize = dns.MaxUDPSize
	}
	if len(resp) <= maxSize || len(resp) < dns.HeaderSize {
		return resp
	}

	qdcount := binary.BigEndian.Uint16(resp[4:6])
	end := questionSectionEnd(resp, int(qdcount))
	if end < 0 || end > maxSize {
		return truncatedHeader(resp, 0)
	}

	out := make([]byte, 0, end)
	out = append(out, truncatedHeader(resp, qdcount)...)
	return append(out, resp[dns.HeaderSize:end]...)
}

// truncatedHeader copies the ID and flags of resp, sets TC and keeps only
// qdcount questions.
func truncatedHeader(resp []byte, qdcount uint16) []byte {
	h := make([]byte, dns.HeaderSize)
	copy(h[0:2], resp[0:2])
	binary.BigEndian.PutUint16(h[2:4], binary.BigEndian.Uint16(resp[2:4])|dns.TCFlag)
	binary.BigEndian.PutUint16(h[4:6], qdcount)
	return h
}

// questionSectionEnd returns the offset just past qdcount questions, or -1
// when the section runs off the end of msg.
func questionSectionEnd(msg []byte, qdcount int) int {
	off := dns.HeaderSize
	for range qdcount {
		if _, err := dns.DecodeName(msg, &off); err != nil {
			return -1
		}
		off += 4 // QTYPE, QCLASS
		if off > len(msg) {
			return -1
		}
	}
	return off
}
