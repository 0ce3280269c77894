package graph

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrMalformed is returned when the graph source cannot be parsed.
var ErrMalformed = errors.New("malformed graph input")

// Load reads a call graph from path, dispatching on extension: .db/.sqlite
// sources go through the sqlite loader registered by the storage package,
// everything else is parsed as a text dump.
func Load(path string) (*Graph, error) {
	if strings.HasSuffix(path, ".db") || strings.HasSuffix(path, ".sqlite") {
		if sqliteLoader == nil {
			return nil, fmt.Errorf("%w: no sqlite loader registered", ErrMalformed)
		}
		return sqliteLoader(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open graph source: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// sqliteLoader is installed by the storage package to avoid a direct
// dependency from the model on the database driver.
var sqliteLoader func(path string) (*Graph, error)

// RegisterSQLiteLoader installs the loader used for .db/.sqlite sources.
func RegisterSQLiteLoader(fn func(path string) (*Graph, error)) {
	sqliteLoader = fn
}

// Parse reads the line-oriented text dump format:
//
//	F <name> [<file>:<line>]   defined function
//	U <name>                   function with no known definition
//	C <caller> <edge>...       outbound edges; <edge> = target or target~loc
//
// Names referenced before (or without) declaration become extern nodes.
func Parse(r io.Reader) (*Graph, error) {
	g := New()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		switch fields[0] {
		case "F":
			if len(fields) < 2 || len(fields) > 3 {
				return nil, lineErr(lineNo, "F record wants a name and optional location")
			}
			var file string
			var ln int
			if len(fields) == 3 {
				file, ln = splitLoc(fields[2])
			}
			g.Declare(fields[1], file, ln, true)
		case "U":
			if len(fields) != 2 {
				return nil, lineErr(lineNo, "U record wants exactly one name")
			}
			g.Declare(fields[1], "", 0, false)
		case "C":
			if len(fields) < 3 {
				return nil, lineErr(lineNo, "C record wants a caller and at least one edge")
			}
			caller := g.ensure(fields[1])
			for _, tok := range fields[2:] {
				target, loc, ok := splitEdgeToken(tok)
				if !ok {
					return nil, lineErr(lineNo, fmt.Sprintf("bad edge token %q", tok))
				}
				g.addCall(caller, g.ensure(target), loc)
			}
		default:
			return nil, lineErr(lineNo, fmt.Sprintf("unknown record type %q", fields[0]))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read graph source: %w", err)
	}
	return g, nil
}

// splitEdgeToken splits "target~location" (location optional).
func splitEdgeToken(tok string) (target, loc string, ok bool) {
	idx := strings.Index(tok, "~")
	if idx < 0 {
		return tok, "", tok != ""
	}
	target = tok[:idx]
	loc = tok[idx+1:]
	return target, loc, target != "" && loc != ""
}

func lineErr(line int, msg string) error {
	return fmt.Errorf("%w: line %d: %s", ErrMalformed, line, msg)
}
