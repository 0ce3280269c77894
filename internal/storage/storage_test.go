package storage

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zheng/callscope/internal/graph"
)

const cacheDump = `
F sys_open fs/open.c:1020
F do_sys_open fs/open.c:980
U security_file_open
C sys_open do_sys_open~fs/open.c:1022 do_sys_open~fs/open.c:1040
C do_sys_open security_file_open
`

func TestImportLoadRoundTrip(t *testing.T) {
	src, err := graph.Parse(strings.NewReader(cacheDump))
	require.NoError(t, err)

	dbPath := filepath.Join(t.TempDir(), "cache.db")
	db, err := Open(dbPath)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.ImportGraph(src))

	nodes, edges, err := db.GetStats()
	require.NoError(t, err)
	assert.EqualValues(t, 3, nodes)
	assert.EqualValues(t, 2, edges)

	loaded, err := db.LoadGraph()
	require.NoError(t, err)
	assert.Equal(t, src.Len(), loaded.Len())

	n, err := loaded.Resolve("sys_open")
	require.NoError(t, err)
	assert.True(t, n.Defined)
	assert.Equal(t, "fs/open.c:1020", n.Loc())
	require.Len(t, n.Out, 1)
	assert.Equal(t,
		[]string{"fs/open.c:1022", "fs/open.c:1040"},
		n.Out[0].SitesFor("do_sys_open"))

	sec, err := loaded.Resolve("security_file_open")
	require.NoError(t, err)
	assert.False(t, sec.Defined)
	require.Len(t, sec.In, 1)
	assert.Equal(t, "do_sys_open", sec.In[0].Caller.Name)
}

func TestSQLiteLoaderRegistered(t *testing.T) {
	src, err := graph.Parse(strings.NewReader(cacheDump))
	require.NoError(t, err)

	dbPath := filepath.Join(t.TempDir(), "cache.db")
	db, err := Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, db.ImportGraph(src))
	require.NoError(t, db.Close())

	// graph.Load dispatches .db paths through this package's loader.
	g, err := graph.Load(dbPath)
	require.NoError(t, err)
	assert.Equal(t, 3, g.Len())
}

func TestClear(t *testing.T) {
	src, err := graph.Parse(strings.NewReader(cacheDump))
	require.NoError(t, err)

	db, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.ImportGraph(src))
	require.NoError(t, db.Clear())

	nodes, edges, err := db.GetStats()
	require.NoError(t, err)
	assert.Zero(t, nodes)
	assert.Zero(t, edges)
}
