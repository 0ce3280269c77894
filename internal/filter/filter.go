package filter

import (
	"errors"
	"fmt"

	"github.com/gobwas/glob"
)

// ErrBadPattern indicates an ignore/show pattern could not be compiled.
var ErrBadPattern = errors.New("invalid filter pattern")

// Verdict is the outcome of the ordered exclusion check for one candidate.
type Verdict int

const (
	Include        Verdict = iota // node participates normally
	ExcludeExtern                 // no known definition, --no-extern active
	ExcludeExact                  // exact ignore match
	ExcludePattern                // ignore pattern match
	ExcludeTrim                   // built-in noise-symbol catalog match
)

// Excluded reports whether the verdict removes the node and its subtree.
func (v Verdict) Excluded() bool {
	return v != Include
}

// Spec is the raw per-request filter configuration.
type Spec struct {
	Ignore         []string
	IgnorePatterns []string
	Show           []string
	ShowPatterns   []string
	Trim           bool
	NoExtern       bool
}

// Registry holds the compiled filters for one extraction run.
type Registry struct {
	ignore      map[string]struct{}
	ignoreGlobs []glob.Glob
	show        map[string]struct{}
	showGlobs   []glob.Glob
	trim        bool
	noExtern    bool
}

// Compile builds a Registry from the raw spec. Patterns are glob syntax;
// a bad pattern fails the whole request.
func Compile(spec Spec) (*Registry, error) {
	r := &Registry{
		ignore:   make(map[string]struct{}, len(spec.Ignore)),
		show:     make(map[string]struct{}, len(spec.Show)),
		trim:     spec.Trim,
		noExtern: spec.NoExtern,
	}
	for _, name := range spec.Ignore {
		r.ignore[name] = struct{}{}
	}
	for _, name := range spec.Show {
		r.show[name] = struct{}{}
	}
	var err error
	if r.ignoreGlobs, err = compileGlobs(spec.IgnorePatterns); err != nil {
		return nil, err
	}
	if r.showGlobs, err = compileGlobs(spec.ShowPatterns); err != nil {
		return nil, err
	}
	return r, nil
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrBadPattern, p, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

// Verdict evaluates the exclusion precedence for one candidate node, in
// order: extern exclusion, exact ignore, ignore pattern, trim set, include.
// An extern exclusion is inserted into the exact ignore set so repeat
// lookups of the same name short-circuit.
func (r *Registry) Verdict(name string, defined bool) Verdict {
	if r.noExtern && !defined {
		if _, ok := r.ignore[name]; !ok {
			r.ignore[name] = struct{}{}
		}
		return ExcludeExtern
	}
	if _, ok := r.ignore[name]; ok {
		return ExcludeExact
	}
	for _, g := range r.ignoreGlobs {
		if g.Match(name) {
			return ExcludePattern
		}
	}
	if r.trim {
		if _, ok := trimSet[name]; ok {
			return ExcludeTrim
		}
	}
	return Include
}

// Shown reports whether the node is in the show set (exact or pattern).
// Callers must check the exclusion verdict first; ignore wins over show.
func (r *Registry) Shown(name string) bool {
	if _, ok := r.show[name]; ok {
		return true
	}
	for _, g := range r.showGlobs {
		if g.Match(name) {
			return true
		}
	}
	return false
}
