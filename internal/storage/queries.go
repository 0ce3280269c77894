package storage

import (
	"fmt"

	"github.com/zheng/callscope/internal/graph"
)

// InsertFunction inserts one function row and returns its ID. An existing
// row with the same name is upgraded in place when it gains a definition.
func (db *DB) InsertFunction(name, file string, line int, defined bool) (int64, error) {
	_, err := db.conn.Exec(
		`INSERT INTO functions (name, file, line, defined) VALUES (?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
		   file = CASE WHEN excluded.defined = 1 THEN excluded.file ELSE file END,
		   line = CASE WHEN excluded.defined = 1 THEN excluded.line ELSE line END,
		   defined = MAX(defined, excluded.defined)`,
		name, file, line, boolInt(defined),
	)
	if err != nil {
		return 0, err
	}
	// last_insert_rowid is stale after a conflicting upsert; resolve by name.
	var id int64
	err = db.conn.QueryRow(`SELECT id FROM functions WHERE name = ?`, name).Scan(&id)
	return id, err
}

// InsertCall inserts one call edge and its call-site locations.
func (db *DB) InsertCall(callerID, calleeID int64, locations []string) error {
	_, err := db.conn.Exec(
		`INSERT INTO calls (caller_id, callee_id) VALUES (?, ?)
		 ON CONFLICT(caller_id, callee_id) DO NOTHING`,
		callerID, calleeID,
	)
	if err != nil {
		return err
	}
	if len(locations) == 0 {
		return nil
	}
	var callID int64
	err = db.conn.QueryRow(
		`SELECT id FROM calls WHERE caller_id = ? AND callee_id = ?`,
		callerID, calleeID,
	).Scan(&callID)
	if err != nil {
		return err
	}
	for _, loc := range locations {
		if _, err := db.conn.Exec(
			`INSERT INTO call_sites (call_id, location) VALUES (?, ?)`, callID, loc,
		); err != nil {
			return err
		}
	}
	return nil
}

// ImportGraph replaces the cache contents with the given in-memory graph.
func (db *DB) ImportGraph(g *graph.Graph) error {
	if err := db.Clear(); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	ids := make(map[string]int64, g.Len())
	for _, n := range g.Nodes() {
		id, err := db.InsertFunction(n.Name, n.File, n.Line, n.Defined)
		if err != nil {
			return fmt.Errorf("insert function %s: %w", n.Name, err)
		}
		ids[n.Name] = id
	}
	for _, n := range g.Nodes() {
		for _, e := range n.Out {
			if err := db.InsertCall(ids[e.Caller.Name], ids[e.Callee.Name], e.SitesFor(e.Callee.Name)); err != nil {
				return fmt.Errorf("insert call %s -> %s: %w", e.Caller.Name, e.Callee.Name, err)
			}
		}
	}
	return nil
}

// LoadGraph materializes the whole cache as an in-memory graph.
func (db *DB) LoadGraph() (*graph.Graph, error) {
	g := graph.New()
	names := make(map[int64]string)

	rows, err := db.conn.Query(`SELECT id, name, file, line, defined FROM functions`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var name, file string
		var line, defined int
		if err := rows.Scan(&id, &name, &file, &line, &defined); err != nil {
			return nil, err
		}
		g.Declare(name, file, line, defined != 0)
		names[id] = name
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	callRows, err := db.conn.Query(
		`SELECT c.caller_id, c.callee_id, COALESCE(s.location, '')
		 FROM calls c LEFT JOIN call_sites s ON s.call_id = c.id
		 ORDER BY c.id`,
	)
	if err != nil {
		return nil, err
	}
	defer callRows.Close()
	for callRows.Next() {
		var callerID, calleeID int64
		var location string
		if err := callRows.Scan(&callerID, &calleeID, &location); err != nil {
			return nil, err
		}
		g.AddCall(names[callerID], names[calleeID], location)
	}
	return g, callRows.Err()
}

// GetStats returns the node and edge counts of the cache.
func (db *DB) GetStats() (nodeCount, edgeCount int64, err error) {
	if err = db.conn.QueryRow(`SELECT COUNT(*) FROM functions`).Scan(&nodeCount); err != nil {
		return
	}
	err = db.conn.QueryRow(`SELECT COUNT(*) FROM calls`).Scan(&edgeCount)
	return
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
