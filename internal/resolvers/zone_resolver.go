package resolvers

import (
	"context"
	"fmt"

	"github.com/jroosing/triedns/internal/dns"
	"github.com/jroosing/triedns/internal/zone"
)

// DefaultTTL is the TTL written on every locally answered record.
const DefaultTTL = 1024

// ZoneResolver answers queries from the local zone store.
//
// It runs in one of two modes:
//   - Fallthrough: every question must resolve locally, otherwise Resolve
//     returns ErrLookupMiss and the next resolver in the chain takes over.
//   - Authoritative-only: the questions that resolve are answered and the
//     response carries NXDOMAIN if any question missed.
type ZoneResolver struct {
	store         *zone.Store
	ttl           int32
	fallThrough   bool // miss -> ErrLookupMiss instead of a partial answer
	echoQuestions bool // copy the question section into responses
}

// ZoneOption configures a ZoneResolver.
type ZoneOption func(*ZoneResolver)

// WithTTL sets the TTL of answered records.
func WithTTL(ttl int32) ZoneOption {
	return func(z *ZoneResolver) { z.ttl = ttl }
}

// WithFallthrough makes misses return ErrLookupMiss.
func WithFallthrough() ZoneOption {
	return func(z *ZoneResolver) { z.fallThrough = true }
}

// WithEchoQuestions includes the request's questions in responses.
func WithEchoQuestions() ZoneOption {
	return func(z *ZoneResolver) { z.echoQuestions = true }
}

// NewZoneResolver creates a ZoneResolver over store. The store must not be
// modified afterwards.
func NewZoneResolver(store *zone.Store, opts ...ZoneOption) *ZoneResolver {
	z := &ZoneResolver{store: store, ttl: DefaultTTL}
	for _, opt := range opts {
		opt(z)
	}
	return z
}

// Close is a no-op for ZoneResolver (satisfies Resolver interface).
func (z *ZoneResolver) Close() error { return nil }

// Resolve answers req from the zone store.
//
// Response construction:
//  1. Look up every question; one answer per hit, owned by the question name
//  2. On a miss, return ErrLookupMiss (fallthrough) or remember NXDOMAIN
//  3. Header: request ID, QR=1, AA=1, request opcode, everything else clear
//  4. Encode; counts are derived from the sections
func (z *ZoneResolver) Resolve(_ context.Context, req dns.Message, _ []byte) (Result, error) {
	var answers []dns.ResourceRecord
	rcode := dns.RCodeNoError

	for _, q := range req.Questions {
		rec, ok := z.lookup(q)
		if !ok {
			if z.fallThrough {
				return Result{}, fmt.Errorf("%w: %s", ErrLookupMiss, q)
			}
			rcode = dns.RCodeNameError
			continue
		}
		answers = append(answers, dns.ResourceRecord{
			Name:  q.Name,
			Type:  rec.QType(),
			Class: rec.QClass(),
			TTL:   z.ttl,
			Data:  rec.RData(),
		})
	}

	resp := dns.Message{
		Header:  dns.Header{ID: req.Header.ID, Flags: dns.ResponseFlags(req.Header.Flags, rcode)},
		Answers: answers,
	}
	if z.echoQuestions {
		resp.Questions = req.Questions
	}

	b, err := resp.Encode()
	if err != nil {
		return Result{}, err
	}
	return Result{ResponseBytes: b, Source: SourceZone}, nil
}

// lookup finds the record for one question. Local records are class IN, so
// only IN and ANY questions can hit.
func (z *ZoneResolver) lookup(q dns.Question) (zone.Record, bool) {
	if q.Class != dns.ClassIN && q.Class != dns.ClassANY {
		return nil, false
	}
	return z.store.Lookup(q.Name, q.Type)
}
