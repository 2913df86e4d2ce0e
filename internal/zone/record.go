package zone

import (
	"fmt"
	"net/netip"
	"strings"

	"github.com/jroosing/triedns/internal/dns"
)

// maxCharString is the longest character-string a TXT segment can carry.
const maxCharString = 255

// Record is a locally held record. The set of implementations is closed:
// A, CNAME and TXT. Every record is class IN.
type Record interface {
	// QType returns the record type.
	QType() dns.QType
	// QClass returns the record class, always dns.ClassIN.
	QClass() dns.QClass
	// RData returns the rdata bytes a resource record for this record carries.
	RData() []byte
	// Data returns the presentation form of the rdata, as written in a zone description.
	Data() string

	isRecord()
}

// A maps a name to an IPv4 address.
type A struct {
	Addr [4]byte
}

// CNAME aliases a name to a canonical name.
type CNAME struct {
	Target dns.Name
}

// TXT carries free text.
type TXT struct {
	Text string
}

func (A) QType() dns.QType     { return dns.TypeA }
func (CNAME) QType() dns.QType { return dns.TypeCNAME }
func (TXT) QType() dns.QType   { return dns.TypeTXT }

func (A) QClass() dns.QClass     { return dns.ClassIN }
func (CNAME) QClass() dns.QClass { return dns.ClassIN }
func (TXT) QClass() dns.QClass   { return dns.ClassIN }

func (A) isRecord()     {}
func (CNAME) isRecord() {}
func (TXT) isRecord()   {}

func (r A) RData() []byte {
	return r.Addr[:]
}

func (r CNAME) RData() []byte {
	return r.Target.Wire()
}

// RData encodes the text as character-strings. Text longer than 255 bytes
// is split across consecutive strings; empty text is one empty string.
func (r TXT) RData() []byte {
	out := make([]byte, 0, len(r.Text)+1+len(r.Text)/maxCharString)
	text := r.Text
	for {
		n := min(len(text), maxCharString)
		out = append(out, byte(n))
		out = append(out, text[:n]...)
		text = text[n:]
		if text == "" {
			return out
		}
	}
}

func (r A) Data() string {
	return netip.AddrFrom4(r.Addr).String()
}

func (r CNAME) Data() string {
	return r.Target.String()
}

func (r TXT) Data() string {
	return r.Text
}

func (r A) String() string     { return format(r) }
func (r CNAME) String() string { return format(r) }
func (r TXT) String() string   { return format(r) }

func format(r Record) string {
	return fmt.Sprintf("%-8s %s", r.QType(), r.Data())
}

// ParseRecord builds a record from a type mnemonic and its presentation data.
// A takes a dotted-quad IPv4 address, CNAME a domain name and TXT literal
// text with optional surrounding double quotes.
func ParseRecord(typ, data string) (Record, error) {
	qt, err := dns.QTypeFromString(typ)
	if err != nil {
		return nil, err
	}
	switch qt {
	case dns.TypeA:
		addr, err := netip.ParseAddr(strings.TrimSpace(data))
		if err != nil || !addr.Is4() {
			return nil, fmt.Errorf("invalid IPv4 address %q", data)
		}
		return A{Addr: addr.As4()}, nil
	case dns.TypeCNAME:
		data = strings.TrimSpace(data)
		if strings.ContainsAny(data, " \t") {
			return nil, fmt.Errorf("invalid CNAME target %q", data)
		}
		target, err := dns.ParseName(data)
		if err != nil {
			return nil, fmt.Errorf("invalid CNAME target: %w", err)
		}
		return CNAME{Target: target}, nil
	case dns.TypeTXT:
		text := strings.TrimSpace(data)
		if len(text) >= 2 && strings.HasPrefix(text, `"`) && strings.HasSuffix(text, `"`) {
			text = text[1 : len(text)-1]
		}
		return TXT{Text: text}, nil
	default:
		return nil, fmt.Errorf("unsupported record type %s", qt)
	}
}
