package dot

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zheng/callscope/internal/graph"
)

func TestUndoLastIsLIFO(t *testing.T) {
	a := New(DefaultOptions())
	a.Emit("A", "B", "")
	a.Emit("B", "C", "")
	a.Emit("C", "D", "")

	a.UndoLast()
	require.Equal(t, 2, a.EdgeCount())
	recs := a.Records()
	assert.Equal(t, "B", recs[1].From)
	assert.Equal(t, "C", recs[1].To)

	a.UndoLast()
	a.UndoLast()
	assert.Zero(t, a.EdgeCount())

	// Undo on an empty log is a no-op, not a panic.
	a.UndoLast()
	assert.Zero(t, a.EdgeCount())
}

func TestMembershipSurvivesUndo(t *testing.T) {
	a := New(DefaultOptions())
	b := &graph.Node{Name: "B"}
	a.Touch(&graph.Node{Name: "A"})
	a.Touch(b)
	a.Emit("A", "B", "")
	a.UndoLast()

	// Every node ever added keeps its attribute statement.
	assert.Equal(t, []string{"A", "B"}, a.Members())
}

func TestWriteTo(t *testing.T) {
	opts := Options{Name: "calls", RankDir: "TB", Font: "Courier", FontSize: 10}
	a := New(opts)

	root := &graph.Node{Name: "sys_open"}
	root.SetAttr("shape", "box")
	root.SetAttr("style", "bold")
	callee := &graph.Node{Name: "do_sys_open"}

	a.Touch(root)
	a.Touch(callee)
	a.Emit("sys_open", "do_sys_open", "fs/open.c:1022")

	var buf bytes.Buffer
	_, err := a.WriteTo(&buf)
	require.NoError(t, err)
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, `digraph "calls" {`))
	assert.Contains(t, out, "graph [rankdir=TB];")
	assert.Contains(t, out, `node [fontname="Courier", fontsize=10];`)
	assert.Contains(t, out, `"sys_open" -> "do_sys_open" [label="fs/open.c:1022"];`)
	assert.Contains(t, out, `"sys_open" [shape="box", style="bold"];`)
	assert.Contains(t, out, `"do_sys_open";`)
	assert.True(t, strings.HasSuffix(out, "}\n"))
}

func TestQuoteEscaping(t *testing.T) {
	a := New(DefaultOptions())
	a.Touch(&graph.Node{Name: `weird"name`})
	a.Emit(`weird"name`, "other", "line1\nline2")

	var buf bytes.Buffer
	_, err := a.WriteTo(&buf)
	require.NoError(t, err)
	out := buf.String()

	assert.Contains(t, out, `"weird\"name"`)
	assert.Contains(t, out, `[label="line1\nline2"]`)
}

func TestWriteToDeterministic(t *testing.T) {
	build := func() string {
		a := New(DefaultOptions())
		for _, name := range []string{"z", "m", "a"} {
			a.Touch(&graph.Node{Name: name})
		}
		a.Emit("z", "m", "")
		a.Emit("m", "a", "")
		var buf bytes.Buffer
		_, err := a.WriteTo(&buf)
		require.NoError(t, err)
		return buf.String()
	}
	assert.Equal(t, build(), build())
}
