package zone

import (
	"bufio"
	"io"
	"strings"
)

const (
	treeEdge   = "└── "
	treeIndent = 4
)

// Fprint writes the trie as an indented tree: one line per edge, with the
// records held at a node listed below its edges.
//
//	.
//	└── dev
//	    └── local
//	        └── *
//	            └── A        127.0.0.1
func (s *Store) Fprint(w io.Writer) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(".\n")
	fprintNode(bw, s.root, 0)
	return bw.Flush()
}

// String returns the Fprint rendering.
func (s *Store) String() string {
	var sb strings.Builder
	_ = s.Fprint(&sb)
	return sb.String()
}

func fprintNode(w *bufio.Writer, n *node, depth int) {
	pad := strings.Repeat(" ", depth*treeIndent)
	for _, label := range n.sortedLabels() {
		w.WriteString(pad + treeEdge + string(label) + "\n")
		fprintNode(w, n.children[label], depth+1)
	}
	if n.wildcard != nil {
		w.WriteString(pad + treeEdge + string(WildcardLabel) + "\n")
		fprintNode(w, n.wildcard, depth+1)
	}
	for _, t := range n.sortedTypes() {
		w.WriteString(pad + treeEdge + format(n.records[t]) + "\n")
	}
}
