// Package resolvers turns decoded queries into wire responses.
//
// Architecture:
//
// A resolver chain lets several strategies cooperate:
//
//  1. ZoneResolver - answers from the local zone store
//  2. ForwardingResolver - relays the query to an upstream server
//  3. Chained - tries resolvers in order, moving on when one cannot answer
//
// A ZoneResolver built with fall-through reports ErrLookupMiss as soon as
// any question has no local record, which hands the request to the
// forwarder. The forwarder sends the client's bytes verbatim and relays the
// upstream reply unchanged; partial local answers are never merged with
// upstream data.
package resolvers

import (
	"context"
	"errors"

	"github.com/jroosing/triedns/internal/dns"
)

// Answer sources reported in Result.Source.
const (
	SourceZone     = "zone"
	SourceUpstream = "upstream"
)

var (
	// ErrLookupMiss means the local zone has no record for a question.
	// It is a normal negative result that moves resolution along the chain.
	ErrLookupMiss = errors.New("no local record")

	// ErrForward wraps every upstream failure: I/O, timeouts and replies
	// that cannot be decoded.
	ErrForward = errors.New("forwarding failed")

	// ErrBadReply marks an upstream reply that matched our transaction ID but
	// could not be decoded. The upstream answered, so it stays healthy.
	ErrBadReply = errors.New("undecodable upstream reply")
)

// Result holds the outcome of a DNS resolution.
type Result struct {
	ResponseBytes []byte // Wire-format DNS response
	Source        string // Where the answer came from (SourceZone or SourceUpstream)
}

// Resolver is the interface for DNS resolution strategies.
// Implementations include ZoneResolver, ForwardingResolver and Chained.
type Resolver interface {
	// Resolve answers a decoded query. reqBytes is the datagram it was
	// decoded from. The context carries the per-request deadline.
	Resolve(ctx context.Context, req dns.Message, reqBytes []byte) (Result, error)

	// Close releases any resources held by the resolver (e.g., connection pools).
	Close() error
}
