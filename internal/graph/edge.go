package graph

// Site is one recorded call site: the raw "target~location" tag split in two.
// Target is kept alongside Location so label filtering can check which
// endpoint the tag was recorded against.
type Site struct {
	Target   string
	Location string
}

// Edge represents a directed caller→callee relation. Multiple call sites
// between the same pair accumulate in Sites on a single edge.
type Edge struct {
	Caller *Node
	Callee *Node
	Sites  []Site
}

// SitesFor returns the locations of all call sites recorded against the
// given target name, in recording order.
func (e *Edge) SitesFor(target string) []string {
	var locs []string
	for _, s := range e.Sites {
		if s.Target == target && s.Location != "" {
			locs = append(locs, s.Location)
		}
	}
	return locs
}
