package daemon

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrBadRequest indicates a request record that cannot be decoded.
var ErrBadRequest = errors.New("bad request record")

// FieldSep joins request fields on the wire. List items inside a field are
// semicolon-separated, so the separator must never collide with argument
// content.
const FieldSep = ":::"

// Request is the full parameter surface of one extraction run.
type Request struct {
	Roots          []string // exact root names
	RootPatterns   []string // pattern-selected roots, unioned with Roots
	Reverse        bool     // walk callers instead of callees
	Depth          int      // -1 = unbounded
	Ignore         []string
	IgnorePatterns []string
	Show           []string
	ShowPatterns   []string
	Trim           bool
	NoExtern       bool
	EndFunc        string // non-empty enables path pruning
	AllLocs        bool
	Output         string
	Format         string
	Font           string
	FontSize       int
	RankDir        string
	KeepDot        bool // retain the textual description after rendering
	StatusPath     string
}

// numFields is the fixed wire field count; Encode and Decode must agree.
const numFields = 19

// Encode serializes the request as one wire record (no trailing newline).
func (r *Request) Encode() string {
	fields := []string{
		strings.Join(r.Roots, ";"),
		strings.Join(r.RootPatterns, ";"),
		encodeBool(r.Reverse),
		strconv.Itoa(r.Depth),
		strings.Join(r.Ignore, ";"),
		strings.Join(r.IgnorePatterns, ";"),
		strings.Join(r.Show, ";"),
		strings.Join(r.ShowPatterns, ";"),
		encodeBool(r.Trim),
		encodeBool(r.NoExtern),
		r.EndFunc,
		encodeBool(r.AllLocs),
		r.Output,
		r.Format,
		r.Font,
		strconv.Itoa(r.FontSize),
		r.RankDir,
		encodeBool(r.KeepDot),
		r.StatusPath,
	}
	return strings.Join(fields, FieldSep)
}

// Decode parses one wire record.
func Decode(record string) (*Request, error) {
	fields := strings.Split(record, FieldSep)
	if len(fields) != numFields {
		return nil, fmt.Errorf("%w: got %d fields, want %d", ErrBadRequest, len(fields), numFields)
	}

	depth, err := strconv.Atoi(fields[3])
	if err != nil {
		return nil, fmt.Errorf("%w: depth %q", ErrBadRequest, fields[3])
	}
	fontSize, err := strconv.Atoi(fields[15])
	if err != nil {
		return nil, fmt.Errorf("%w: font size %q", ErrBadRequest, fields[15])
	}

	return &Request{
		Roots:          splitList(fields[0]),
		RootPatterns:   splitList(fields[1]),
		Reverse:        fields[2] == "1",
		Depth:          depth,
		Ignore:         splitList(fields[4]),
		IgnorePatterns: splitList(fields[5]),
		Show:           splitList(fields[6]),
		ShowPatterns:   splitList(fields[7]),
		Trim:           fields[8] == "1",
		NoExtern:       fields[9] == "1",
		EndFunc:        fields[10],
		AllLocs:        fields[11] == "1",
		Output:         fields[12],
		Format:         fields[13],
		Font:           fields[14],
		FontSize:       fontSize,
		RankDir:        fields[16],
		KeepDot:        fields[17] == "1",
		StatusPath:     fields[18],
	}, nil
}

func encodeBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// splitList splits a semicolon-separated field, dropping empty items so an
// empty field decodes to a nil list.
func splitList(field string) []string {
	if field == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(field, ";") {
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
