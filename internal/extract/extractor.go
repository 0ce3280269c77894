// Package extract implements the filter-aware depth-first subgraph walk,
// including the end-function path pruning that retracts edges not lying on
// any root→end path.
package extract

import (
	"errors"
	"sort"

	"github.com/zheng/callscope/internal/dot"
	"github.com/zheng/callscope/internal/filter"
	"github.com/zheng/callscope/internal/graph"
)

// ErrEmptyResult indicates a run produced no renderable subgraph: the root
// was excluded by the filters, or pruning retracted every edge.
var ErrEmptyResult = errors.New("extraction produced an empty graph")

// Direction selects which edge list is walked.
type Direction int

const (
	Forward Direction = iota // callees: what the root calls
	Reverse                  // callers: what calls the root
)

// DepthUnlimited disables the depth guard.
const DepthUnlimited = -1

// Params configure one extraction session.
type Params struct {
	Direction Direction
	MaxDepth  int    // DepthUnlimited or a bound ≥ 0
	EndFunc   string // non-empty enables path pruning
	AllLocs   bool   // annotate edges with call-site locations
}

// Session holds the mutable state of one extraction run. It is created per
// root and discarded afterwards, so no traversal state survives a run.
type Session struct {
	reg    *filter.Registry
	asm    *dot.Assembler
	params Params

	visited map[string]bool
	reached map[string]bool // only consulted when EndFunc is set
	files   map[string]struct{}
}

// NewSession creates a session writing into the given assembler.
func NewSession(reg *filter.Registry, asm *dot.Assembler, params Params) *Session {
	return &Session{
		reg:     reg,
		asm:     asm,
		params:  params,
		visited: make(map[string]bool),
		reached: make(map[string]bool),
		files:   make(map[string]struct{}),
	}
}

// SourceFiles returns the declaration files of every node that entered the
// membership set, sorted, for downstream source-markup tooling.
func (s *Session) SourceFiles() []string {
	out := make([]string, 0, len(s.files))
	for f := range s.files {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Extract walks the graph from root and emits the filtered edge stream.
// A root excluded by the filters, or a pruning run that retracts every
// edge, yields ErrEmptyResult. A lone unpruned root is a valid one-node
// graph.
func (s *Session) Extract(root *graph.Node) error {
	if s.reg.Verdict(root.Name, root.Defined).Excluded() {
		return ErrEmptyResult
	}

	root.SetAttr("shape", "box")
	root.SetAttr("style", "bold")
	s.touch(root)

	pruning := s.params.EndFunc != ""
	if pruning && root.Name == s.params.EndFunc {
		s.reached[root.Name] = true
	}

	s.walk(root, 0)

	if pruning && s.asm.EdgeCount() == 0 && root.Name != s.params.EndFunc {
		return ErrEmptyResult
	}
	return nil
}

// walk expands one node. Each node is expanded at most once per session;
// later paths that reach it re-use the first expansion (their edges into
// deeper levels are not re-emitted).
func (s *Session) walk(n *graph.Node, depth int) {
	if s.visited[n.Name] {
		return
	}
	s.visited[n.Name] = true

	if s.params.MaxDepth != DepthUnlimited && depth >= s.params.MaxDepth {
		return
	}

	pruning := s.params.EndFunc != ""

	for _, next := range s.neighbors(n) {
		if s.reg.Verdict(next.Name, next.Defined).Excluded() {
			continue
		}

		// Printed direction keeps the root at the visual origin: the
		// current node is always the source endpoint.
		s.asm.Emit(n.Name, next.Name, s.edgeLabel(n, next))
		s.touch(n)
		s.touch(next)

		shown := s.reg.Shown(next.Name)
		if shown {
			next.SetAttr("shape", "ellipse")
			next.SetAttr("style", "dashed")
		}

		if !pruning {
			if !shown && len(s.edgesOf(next)) > 0 {
				s.walk(next, depth+1)
			}
			continue
		}

		// Path pruning: keep the edge only if the destination subtree
		// reaches the end function. The destination is the end function,
		// or some child subtree reached it; either way the current node
		// is reached too, which is what the caller's own check consults.
		if next.Name == s.params.EndFunc {
			s.reached[next.Name] = true
			s.reached[n.Name] = true
			continue
		}
		if !shown && !s.visited[next.Name] {
			s.walk(next, depth+1)
		}
		if s.reached[next.Name] {
			s.reached[n.Name] = true
		} else {
			s.asm.UndoLast()
		}
	}
}

// neighbors returns the nodes adjacent to n in the active direction.
func (s *Session) neighbors(n *graph.Node) []*graph.Node {
	edges := s.edgesOf(n)
	out := make([]*graph.Node, 0, len(edges))
	for _, e := range edges {
		if s.params.Direction == Forward {
			out = append(out, e.Callee)
		} else {
			out = append(out, e.Caller)
		}
	}
	return out
}

// edgesOf returns n's edge list in the active direction.
func (s *Session) edgesOf(n *graph.Node) []*graph.Edge {
	if s.params.Direction == Forward {
		return n.Out
	}
	return n.In
}

// edgeLabel builds the call-site label for the printed edge n→next: only
// tags recorded against the printed destination are listed.
func (s *Session) edgeLabel(n, next *graph.Node) string {
	if !s.params.AllLocs {
		return ""
	}
	e := s.edgeBetween(n, next)
	if e == nil {
		return ""
	}
	locs := e.SitesFor(next.Name)
	if len(locs) == 0 {
		return ""
	}
	label := locs[0]
	for _, l := range locs[1:] {
		label += "\n" + l
	}
	return label
}

// edgeBetween finds the structural edge behind the printed n→next pair.
func (s *Session) edgeBetween(n, next *graph.Node) *graph.Edge {
	for _, e := range s.edgesOf(n) {
		if s.params.Direction == Forward && e.Callee == next {
			return e
		}
		if s.params.Direction == Reverse && e.Caller == next {
			return e
		}
	}
	return nil
}

func (s *Session) touch(n *graph.Node) {
	s.asm.Touch(n)
	if n.File != "" {
		s.files[n.File] = struct{}{}
	}
}
