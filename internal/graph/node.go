package graph

// Node represents one function/symbol in the call graph
type Node struct {
	Name    string // unique symbol name (map key)
	File    string // declaration file, empty if unknown
	Line    int    // declaration line, 0 if unknown
	Defined bool   // false means extern (no known definition)

	Out []*Edge // calls made by this node
	In  []*Edge // calls targeting this node

	// Attrs is the per-run rendering overlay (shape, style, ...).
	// Mutated during extraction, reset between runs.
	Attrs map[string]string
}

// SetAttr records a rendering attribute override for the current run.
func (n *Node) SetAttr(key, value string) {
	if n.Attrs == nil {
		n.Attrs = make(map[string]string)
	}
	n.Attrs[key] = value
}

// Loc returns the declaration location as "file:line", or "" if unknown.
func (n *Node) Loc() string {
	if n.File == "" {
		return ""
	}
	return formatLoc(n.File, n.Line)
}
