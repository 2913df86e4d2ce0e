package dns

import (
	"fmt"
	"strings"
)

// Name length limits (RFC 1035 Section 2.3.4).
const (
	MaxLabelLen = 63  // Maximum bytes in a single label
	MaxNameLen  = 255 // Maximum wire length of a name, including length bytes and the root
)

// pointerMask marks a compression pointer: the top two bits of the length byte are 11.
const pointerMask = 0xC0

// Label is one component of a domain name. Comparison is byte-exact.
type Label string

// Name is a domain name as an ordered sequence of labels, most specific first.
// The zero value is the root name.
type Name struct {
	labels []Label
}

// NewName builds a name from labels, validating each label length and the
// total wire length.
func NewName(labels ...Label) (Name, error) {
	wire := 1
	for _, l := range labels {
		if len(l) == 0 {
			return Name{}, fmt.Errorf("%w: empty label", ErrEncode)
		}
		if len(l) > MaxLabelLen {
			return Name{}, fmt.Errorf("%w: %d bytes", ErrLabelTooLong, len(l))
		}
		wire += 1 + len(l)
	}
	if wire > MaxNameLen {
		return Name{}, fmt.Errorf("%w: %d bytes", ErrNameTooLong, wire)
	}
	if len(labels) == 0 {
		return Name{}, nil
	}
	return Name{labels: append([]Label(nil), labels...)}, nil
}

// ParseName parses presentation form ("www.example.com" or "www.example.com.").
// Both "" and "." give the root name.
func ParseName(s string) (Name, error) {
	s = strings.TrimSuffix(s, ".")
	if s == "" {
		return Name{}, nil
	}
	parts := strings.Split(s, ".")
	labels := make([]Label, len(parts))
	for i, p := range parts {
		labels[i] = Label(p)
	}
	n, err := NewName(labels...)
	if err != nil {
		return Name{}, fmt.Errorf("name %q: %w", s, err)
	}
	return n, nil
}

// MustParseName is ParseName for names known to be valid. It panics on error.
func MustParseName(s string) Name {
	n, err := ParseName(s)
	if err != nil {
		panic(err)
	}
	return n
}

// Labels returns the labels, most specific first. The slice must not be modified.
func (n Name) Labels() []Label {
	return n.labels
}

// IsRoot reports whether n has no labels.
func (n Name) IsRoot() bool {
	return len(n.labels) == 0
}

// Equal reports byte-exact equality.
func (n Name) Equal(o Name) bool {
	if len(n.labels) != len(o.labels) {
		return false
	}
	for i := range n.labels {
		if n.labels[i] != o.labels[i] {
			return false
		}
	}
	return true
}

// EqualFold reports equality ignoring ASCII case, as resolvers compare names.
func (n Name) EqualFold(o Name) bool {
	if len(n.labels) != len(o.labels) {
		return false
	}
	for i := range n.labels {
		if !strings.EqualFold(string(n.labels[i]), string(o.labels[i])) {
			return false
		}
	}
	return true
}

// String returns "." for the root, otherwise the dot-joined labels with a trailing dot.
func (n Name) String() string {
	if n.IsRoot() {
		return "."
	}
	var sb strings.Builder
	for _, l := range n.labels {
		sb.WriteString(string(l))
		sb.WriteByte('.')
	}
	return sb.String()
}

// WireLen returns the encoded length of n.
func (n Name) WireLen() int {
	size := 1
	for _, l := range n.labels {
		size += 1 + len(l)
	}
	return size
}

// AppendWire appends the literal (uncompressed) encoding of n to b.
func (n Name) AppendWire(b []byte) []byte {
	for _, l := range n.labels {
		b = append(b, byte(len(l)))
		b = append(b, l...)
	}
	return append(b, 0)
}

// Wire returns the literal encoding of n.
func (n Name) Wire() []byte {
	return n.AppendWire(make([]byte, 0, n.WireLen()))
}

// DecodeName decodes a possibly compressed name from msg at *off and advances
// *off past the name as it appears at that position (a pointer counts as 2 bytes).
// On error *off is left unchanged.
//
// A name is the literal labels read before a pointer followed by the name the
// pointer targets. Every pointer must target an offset strictly before itself.
// Each cycle through a pointer chain has to pass at least one label, and the
// accumulated wire length is capped at MaxNameLen, so decoding always terminates.
func DecodeName(msg []byte, off *int) (Name, error) {
	pos := *off
	wire := 1
	next := -1 // offset after the name, fixed at the first pointer
	var labels []Label

	for {
		if pos >= len(msg) {
			return Name{}, fmt.Errorf("%w: name at offset %d", ErrTruncated, pos)
		}
		length := int(msg[pos])

		switch length & pointerMask {
		case 0x00:
			if length == 0 {
				if next < 0 {
					next = pos + 1
				}
				*off = next
				return Name{labels: labels}, nil
			}
			end := pos + 1 + length
			if end > len(msg) {
				return Name{}, fmt.Errorf("%w: label at offset %d", ErrTruncated, pos)
			}
			wire += 1 + length
			if wire > MaxNameLen {
				return Name{}, ErrNameTooLong
			}
			labels = append(labels, Label(msg[pos+1:end]))
			pos = end

		case pointerMask:
			if pos+1 >= len(msg) {
				return Name{}, fmt.Errorf("%w: pointer at offset %d", ErrTruncated, pos)
			}
			target := (length&^pointerMask)<<8 | int(msg[pos+1])
			if target >= pos {
				return Name{}, fmt.Errorf("%w: offset %d points to %d", ErrBadPointer, pos, target)
			}
			if next < 0 {
				next = pos + 2
			}
			pos = target

		default:
			// 01 and 10 prefixes are reserved; the byte reads as a length above 63.
			return Name{}, fmt.Errorf("%w: length byte 0x%02x at offset %d", ErrLabelTooLong, length, pos)
		}
	}
}
