// Package dot accumulates the edge stream of one extraction run and
// serializes it as a graphviz description. Edge records live in a stack so
// the extractor can retract its most recent emission; a plain append-only
// writer cannot support that.
package dot

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/zheng/callscope/internal/graph"
)

// Options are the global rendering attributes of one graph description.
type Options struct {
	Name     string // digraph name
	RankDir  string // LR, RL, TB, BT
	Font     string
	FontSize int
}

// DefaultOptions returns the header defaults used when a request leaves
// rendering controls unset.
func DefaultOptions() Options {
	return Options{
		Name:     "callscope",
		RankDir:  "LR",
		Font:     "Helvetica",
		FontSize: 12,
	}
}

// Record is one retained edge statement.
type Record struct {
	From  string
	To    string
	Label string
}

// Assembler collects edge records and node membership for one run.
type Assembler struct {
	opts    Options
	edges   []Record
	members map[string]*graph.Node
}

// New returns an empty assembler.
func New(opts Options) *Assembler {
	if opts.Name == "" {
		opts.Name = "callscope"
	}
	return &Assembler{
		opts:    opts,
		members: make(map[string]*graph.Node),
	}
}

// Emit appends one directed edge record. label may be empty.
func (a *Assembler) Emit(from, to, label string) {
	a.edges = append(a.edges, Record{From: from, To: to, Label: label})
}

// Records returns the retained edge records in emission order.
func (a *Assembler) Records() []Record {
	return a.edges
}

// UndoLast retracts the most recently emitted edge record. Retraction order
// is LIFO, matching depth-first emission, so undoing resolves nested dead
// branches without touching sibling records.
func (a *Assembler) UndoLast() {
	if len(a.edges) == 0 {
		return
	}
	a.edges = a.edges[:len(a.edges)-1]
}

// EdgeCount returns the number of currently retained edges.
func (a *Assembler) EdgeCount() int {
	return len(a.edges)
}

// Touch adds a node to the membership set. Membership is never retracted;
// every node that ever appeared gets an attribute statement.
func (a *Assembler) Touch(n *graph.Node) {
	if _, ok := a.members[n.Name]; !ok {
		a.members[n.Name] = n
	}
}

// Members returns the membership names in sorted order.
func (a *Assembler) Members() []string {
	names := make([]string, 0, len(a.members))
	for name := range a.members {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WriteTo serializes the description: header, retained edges in emission
// order, one node statement per member sorted by name, closing brace.
func (a *Assembler) WriteTo(w io.Writer) (int64, error) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "digraph %s {\n", quote(a.opts.Name))
	fmt.Fprintf(&sb, "\tgraph [rankdir=%s];\n", a.opts.RankDir)
	fmt.Fprintf(&sb, "\tnode [fontname=%s, fontsize=%d];\n", quote(a.opts.Font), a.opts.FontSize)
	fmt.Fprintf(&sb, "\tedge [fontname=%s, fontsize=%d];\n", quote(a.opts.Font), a.opts.FontSize)

	for _, e := range a.edges {
		if e.Label != "" {
			fmt.Fprintf(&sb, "\t%s -> %s [label=%s];\n", quote(e.From), quote(e.To), quote(e.Label))
		} else {
			fmt.Fprintf(&sb, "\t%s -> %s;\n", quote(e.From), quote(e.To))
		}
	}

	for _, name := range a.Members() {
		n := a.members[name]
		fmt.Fprintf(&sb, "\t%s%s;\n", quote(name), attrList(n.Attrs))
	}

	sb.WriteString("}\n")

	nw, err := io.WriteString(w, sb.String())
	return int64(nw), err
}

// attrList renders a node attribute overlay as " [k=v, ...]" with keys
// sorted, or "" when the overlay is empty.
func attrList(attrs map[string]string) string {
	if len(attrs) == 0 {
		return ""
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, quote(attrs[k])))
	}
	return " [" + strings.Join(parts, ", ") + "]"
}

// quote wraps a value in DOT double quotes, escaping embedded quotes,
// backslashes and newlines.
func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)
	return `"` + r.Replace(s) + `"`
}
