package script

import (
	"fmt"
	"io"
	"strings"
)

// Node is one production in the syntax tree. Start and End are byte offsets
// into the owning Tree's Source.
type Node struct {
	Rule     Rule
	Start    int
	End      int
	Children []*Node
}

// Tree owns the parsed source and its root node.
type Tree struct {
	Source string
	Root   *Node
}

// Text returns the source text spanned by n.
func (t *Tree) Text(n *Node) string {
	if t == nil || n == nil {
		return ""
	}
	return t.Source[n.Start:n.End]
}

// Dump writes an indented rendering of the tree, one node per line.
func (t *Tree) Dump(w io.Writer) error {
	if t == nil || t.Root == nil {
		return nil
	}
	return t.dump(w, t.Root, 0)
}

func (t *Tree) dump(w io.Writer, n *Node, depth int) error {
	indent := strings.Repeat("  ", depth)
	if len(n.Children) == 0 && n.Rule != RuleMusica {
		if _, err := fmt.Fprintf(w, "%s%s %q\n", indent, n.Rule, t.Text(n)); err != nil {
			return err
		}
		return nil
	}
	if _, err := fmt.Fprintf(w, "%s%s\n", indent, n.Rule); err != nil {
		return err
	}
	for _, child := range n.Children {
		if err := t.dump(w, child, depth+1); err != nil {
			return err
		}
	}
	return nil
}
