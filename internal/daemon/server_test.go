package daemon

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDump(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.graph")
	require.NoError(t, os.WriteFile(path, []byte(runDump), 0o644))
	return path
}

func TestServerServesRequest(t *testing.T) {
	dir := t.TempDir()
	pipePath := filepath.Join(dir, "req.pipe")
	outPath := filepath.Join(dir, "open.dot")

	srv, err := NewServer(writeDump(t), pipePath, WithLogger(discard()))
	require.NoError(t, err)
	defer srv.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Run(ctx)

	req := baseRequest(outPath)
	require.NoError(t, Submit(pipePath, req))

	require.Eventually(t, func() bool {
		_, err := os.Stat(outPath)
		return err == nil
	}, 5*time.Second, 20*time.Millisecond, "daemon never produced the artifact")

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"sys_open" -> "do_sys_open"`)
}

func TestServerSurvivesBadRecord(t *testing.T) {
	dir := t.TempDir()
	pipePath := filepath.Join(dir, "req.pipe")
	outPath := filepath.Join(dir, "after.dot")

	srv, err := NewServer(writeDump(t), pipePath, WithLogger(discard()))
	require.NoError(t, err)
	defer srv.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Run(ctx)

	// A garbage record is logged and skipped; the next request still runs.
	f, err := os.OpenFile(pipePath, os.O_WRONLY, 0)
	require.NoError(t, err)
	_, err = f.WriteString("not a request\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, Submit(pipePath, baseRequest(outPath)))

	require.Eventually(t, func() bool {
		_, err := os.Stat(outPath)
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)
}

func TestServerRequiresGraph(t *testing.T) {
	dir := t.TempDir()
	_, err := NewServer(filepath.Join(dir, "missing.graph"), filepath.Join(dir, "p.pipe"))
	require.Error(t, err)
}

func TestNextRequestDeliversBufferedLine(t *testing.T) {
	s := &Server{
		lines: make(chan string, 1),
		done:  make(chan struct{}),
		log:   discard(),
	}
	s.lines <- "hello"

	line, ok := s.nextRequest(context.Background())
	assert.True(t, ok)
	assert.Equal(t, "hello", line)
}

func TestNextRequestStopsOnCancel(t *testing.T) {
	s := &Server{
		lines: make(chan string),
		done:  make(chan struct{}),
		log:   discard(),
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := s.nextRequest(ctx)
	assert.False(t, ok)
}

func TestRequestAfterIdleRearm(t *testing.T) {
	// A request arriving while the reader re-arms lands in the buffered
	// channel and is the next record served.
	s := &Server{
		lines: make(chan string, 8),
		done:  make(chan struct{}),
		log:   discard(),
	}
	go func() {
		time.Sleep(150 * time.Millisecond)
		s.lines <- "late"
	}()

	line, ok := s.nextRequest(context.Background())
	assert.True(t, ok)
	assert.Equal(t, "late", line)
}
