package graph

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/gobwas/glob"
)

// ErrNotFound is returned when an exact name lookup fails.
var ErrNotFound = errors.New("function not found")

// Graph is the in-memory call graph: a name-keyed node map. Topology is
// immutable after load; only the per-run attribute overlay mutates.
type Graph struct {
	nodes map[string]*Node
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{nodes: make(map[string]*Node)}
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Resolve returns the node with the exact given name.
func (g *Graph) Resolve(name string) (*Node, error) {
	n, ok := g.nodes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return n, nil
}

// FindPattern returns all nodes whose name matches the compiled pattern,
// sorted by name so repeated runs see the same root order.
func (g *Graph) FindPattern(pat glob.Glob) []*Node {
	var out []*Node
	for name, n := range g.nodes {
		if pat.Match(name) {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Nodes returns every node sorted by name.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ResetAttrs clears every node's attribute overlay. Called between runs so
// root/show markings never leak into the next request.
func (g *Graph) ResetAttrs() {
	for _, n := range g.nodes {
		n.Attrs = nil
	}
}

// ensure returns the named node, creating an extern placeholder on first
// reference. Declarations upgrade the placeholder later.
func (g *Graph) ensure(name string) *Node {
	if n, ok := g.nodes[name]; ok {
		return n
	}
	n := &Node{Name: name}
	g.nodes[name] = n
	return n
}

// Declare records a definition (or explicit extern) for name. Used by the
// loaders; topology must not change after a graph is handed to extraction.
func (g *Graph) Declare(name, file string, line int, defined bool) *Node {
	n := g.ensure(name)
	if defined {
		n.Defined = true
		n.File = file
		n.Line = line
	}
	return n
}

// AddCall records one caller→callee edge, creating extern placeholders for
// unknown names and merging repeated call sites between the same pair onto
// the existing edge.
func (g *Graph) AddCall(callerName, calleeName, location string) {
	g.addCall(g.ensure(callerName), g.ensure(calleeName), location)
}

func (g *Graph) addCall(caller, callee *Node, location string) {
	for _, e := range caller.Out {
		if e.Callee == callee {
			if location != "" {
				e.Sites = append(e.Sites, Site{Target: callee.Name, Location: location})
			}
			return
		}
	}
	e := &Edge{Caller: caller, Callee: callee}
	if location != "" {
		e.Sites = append(e.Sites, Site{Target: callee.Name, Location: location})
	}
	caller.Out = append(caller.Out, e)
	callee.In = append(callee.In, e)
}

func formatLoc(file string, line int) string {
	if line <= 0 {
		return file
	}
	return file + ":" + strconv.Itoa(line)
}

// splitLoc splits "file:line" into its parts; a missing or non-numeric line
// leaves the whole string as the file part.
func splitLoc(loc string) (string, int) {
	idx := strings.LastIndex(loc, ":")
	if idx < 0 {
		return loc, 0
	}
	line, err := strconv.Atoi(loc[idx+1:])
	if err != nil {
		return loc, 0
	}
	return loc[:idx], line
}
