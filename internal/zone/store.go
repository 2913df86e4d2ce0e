// Package zone holds the authoritative record table: a trie keyed by
// reversed domain labels with single-label wildcard edges, the record types
// it serves and the zone description format it is loaded from.
package zone

import (
	"github.com/jroosing/triedns/internal/dns"
)

// Store is the authoritative record table.
//
// Each name holds at most one record per type. Lookups require the whole
// name to be consumed: at each level a literal edge is preferred, the
// wildcard edge is the fallback, and a name that runs out of edges misses
// even when an ancestor holds records.
//
// Thread Safety:
//
// A Store is built with Insert and then only read. Concurrent Lookup calls
// need no locking as long as no Insert runs after the store is shared.
type Store struct {
	root *node
	size int // number of (name, type) entries
}

// Entry is one record of a zone description.
type Entry struct {
	Name   dns.Name
	Record Record
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{root: newNode()}
}

// Build creates a store holding entries. Later entries replace earlier
// ones with the same name and type.
func Build(entries []Entry) *Store {
	s := NewStore()
	for _, e := range entries {
		s.Insert(e.Name, e.Record)
	}
	return s
}

// Insert stores rec under name. A label "*" becomes the wildcard edge at its
// position. A record of the same type already at name is replaced; records of
// other types are kept.
func (s *Store) Insert(name dns.Name, rec Record) {
	n := s.root
	for _, label := range reversedLabels(name) {
		n = n.descend(label)
	}
	if n.records == nil {
		n.records = make(map[dns.QType]Record, 1)
	}
	if _, exists := n.records[rec.QType()]; !exists {
		s.size++
	}
	n.records[rec.QType()] = rec
}

// Lookup finds the record for name and qtype. With dns.TypeANY the record
// with the lowest type value at the name is returned.
func (s *Store) Lookup(name dns.Name, qtype dns.QType) (Record, bool) {
	labels := name.Labels()
	n := s.root
	for i := len(labels) - 1; i >= 0; i-- {
		n = n.match(labels[i])
		if n == nil {
			return nil, false
		}
	}
	if len(n.records) == 0 {
		return nil, false
	}
	if qtype == dns.TypeANY {
		return n.records[n.sortedTypes()[0]], true
	}
	rec, ok := n.records[qtype]
	return rec, ok
}

// Len returns the number of stored (name, type) entries.
func (s *Store) Len() int {
	return s.size
}

// Walk calls fn for every stored record in label order, literal edges before
// the wildcard edge and types ascending. Wildcard positions are reported as
// the label "*". Walk stops when fn returns false.
func (s *Store) Walk(fn func(name dns.Name, rec Record) bool) {
	walk(s.root, nil, fn)
}

// Entries returns every stored record in Walk order.
func (s *Store) Entries() []Entry {
	out := make([]Entry, 0, s.size)
	s.Walk(func(name dns.Name, rec Record) bool {
		out = append(out, Entry{Name: name, Record: rec})
		return true
	})
	return out
}

// walk visits n with path holding the labels from the root, TLD first.
func walk(n *node, path []dns.Label, fn func(dns.Name, Record) bool) bool {
	if len(n.records) > 0 {
		name := nameFromPath(path)
		for _, t := range n.sortedTypes() {
			if !fn(name, n.records[t]) {
				return false
			}
		}
	}
	for _, label := range n.sortedLabels() {
		if !walk(n.children[label], append(path, label), fn) {
			return false
		}
	}
	if n.wildcard != nil {
		return walk(n.wildcard, append(path, WildcardLabel), fn)
	}
	return true
}

func nameFromPath(path []dns.Label) dns.Name {
	labels := make([]dns.Label, len(path))
	for i, l := range path {
		labels[len(path)-1-i] = l
	}
	// Inserted names were valid, so the reversed path is too.
	name, _ := dns.NewName(labels...)
	return name
}
