package zone

import (
	"slices"

	"github.com/jroosing/triedns/internal/dns"
)

// WildcardLabel is the label that turns into a wildcard edge on insert.
const WildcardLabel dns.Label = "*"

// node is one position in the label trie.
//
// Names are stored with labels in reverse order (TLD first), so
// "denis.local.dev" lives at root -> "dev" -> "local" -> "denis".
// A wildcard edge matches exactly one label that has no literal edge.
type node struct {
	children map[dns.Label]*node
	wildcard *node
	records  map[dns.QType]Record // nil until a record lands here
}

func newNode() *node {
	return &node{
		children: make(map[dns.Label]*node, 2), // most nodes have few children
	}
}

// descend returns the child for label, creating it if needed.
func (n *node) descend(label dns.Label) *node {
	if label == WildcardLabel {
		if n.wildcard == nil {
			n.wildcard = newNode()
		}
		return n.wildcard
	}
	child, ok := n.children[label]
	if !ok {
		child = newNode()
		n.children[label] = child
	}
	return child
}

// match follows the literal edge for label, falling back to the wildcard edge.
func (n *node) match(label dns.Label) *node {
	if child, ok := n.children[label]; ok {
		return child
	}
	return n.wildcard
}

// sortedLabels returns the literal edge labels in byte order.
func (n *node) sortedLabels() []dns.Label {
	labels := make([]dns.Label, 0, len(n.children))
	for l := range n.children {
		labels = append(labels, l)
	}
	slices.Sort(labels)
	return labels
}

// sortedTypes returns the record types stored at n in ascending order.
func (n *node) sortedTypes() []dns.QType {
	types := make([]dns.QType, 0, len(n.records))
	for t := range n.records {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

// reversedLabels returns the labels of name TLD first.
// "ads.example.com" -> ["com", "example", "ads"].
func reversedLabels(name dns.Name) []dns.Label {
	labels := slices.Clone(name.Labels())
	slices.Reverse(labels)
	return labels
}
