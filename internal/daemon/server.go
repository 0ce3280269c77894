package daemon

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/zheng/callscope/internal/extract"
	"github.com/zheng/callscope/internal/graph"
	"golang.org/x/sys/unix"
)

// Re-arm policy for the request pipe. A named pipe's blocking read does not
// reliably re-arm after end-of-input, so an idle server polls the channel on
// a short interval first, backs off to a longer one, and past the idle
// budget closes and reopens the pipe so the next read blocks correctly.
const (
	shortInterval = 100 * time.Millisecond
	shortWindow   = 2 * time.Second
	longInterval  = time.Second
	idleBudget    = 30 * time.Second
)

// Server owns one resident graph and serves extraction requests from a
// named pipe, strictly one at a time.
type Server struct {
	graphPath string
	pipePath  string
	log       *slog.Logger

	g     *graph.Graph
	lines chan string

	pipeMu sync.Mutex
	pipe   *os.File

	dirtyMu sync.Mutex
	dirty   bool

	fsWatcher *fsnotify.Watcher
	done      chan struct{}
}

// ServerOption configures the server
type ServerOption func(*Server)

// WithLogger sets the status/diagnostic logger
func WithLogger(log *slog.Logger) ServerOption {
	return func(s *Server) {
		s.log = log
	}
}

// NewServer loads the graph once and prepares the request pipe.
func NewServer(graphPath, pipePath string, opts ...ServerOption) (*Server, error) {
	s := &Server{
		graphPath: graphPath,
		pipePath:  pipePath,
		log:       slog.Default(),
		lines:     make(chan string, 8),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	g, err := graph.Load(graphPath)
	if err != nil {
		return nil, err
	}
	s.g = g

	if err := unix.Mkfifo(pipePath, 0o622); err != nil && !errors.Is(err, unix.EEXIST) {
		return nil, fmt.Errorf("create request pipe %s: %w", pipePath, err)
	}

	// Reload the resident graph between requests when the collector
	// rewrites the source.
	if w, err := fsnotify.NewWatcher(); err == nil {
		if err := w.Add(graphPath); err == nil {
			s.fsWatcher = w
			go s.watchLoop()
		} else {
			w.Close()
		}
	}

	return s, nil
}

// Run serves requests until the context is canceled. Per-request failures
// are logged and the loop continues; the process never exits on a bad
// request.
func (s *Server) Run(ctx context.Context) error {
	s.log.Info("daemon ready",
		"graph", s.graphPath,
		"pipe", s.pipePath,
		"nodes", s.g.Len())

	go s.readLoop()

	for {
		record, ok := s.nextRequest(ctx)
		if !ok {
			return nil
		}

		req, err := Decode(record)
		if err != nil {
			s.log.Error("dropping request", "err", err)
			continue
		}

		s.maybeReload()

		if err := Run(ctx, s.g, req, s.log); err != nil {
			if errors.Is(err, extract.ErrEmptyResult) {
				s.log.Warn("request produced no output")
			} else {
				s.log.Error("request failed", "err", err)
			}
		}
	}
}

// Stop shuts the server down.
func (s *Server) Stop() {
	close(s.done)
	if s.fsWatcher != nil {
		s.fsWatcher.Close()
	}
	s.closePipe()
}

// nextRequest blocks until a request record arrives, applying the re-arm
// ladder while idle. The channel buffers records delivered during a re-arm,
// so the first request after an idle period is never dropped.
func (s *Server) nextRequest(ctx context.Context) (string, bool) {
	idleSince := time.Now()
	for {
		interval := shortInterval
		if time.Since(idleSince) >= shortWindow {
			interval = longInterval
		}

		select {
		case line := <-s.lines:
			return line, true
		case <-ctx.Done():
			return "", false
		case <-s.done:
			return "", false
		case <-time.After(interval):
			if time.Since(idleSince) >= idleBudget {
				s.rearm()
				idleSince = time.Now()
			}
		}
	}
}

// readLoop keeps one open read side of the pipe and delivers complete
// request lines. Opening read-write keeps an implicit writer on the pipe,
// so reads block instead of spinning on end-of-input; a re-arm closes the
// handle and the loop reopens it.
func (s *Server) readLoop() {
	for {
		select {
		case <-s.done:
			return
		default:
		}

		f, err := os.OpenFile(s.pipePath, os.O_RDWR, 0)
		if err != nil {
			s.log.Error("open request pipe", "err", err)
			select {
			case <-s.done:
				return
			case <-time.After(longInterval):
			}
			continue
		}

		s.pipeMu.Lock()
		s.pipe = f
		s.pipeMu.Unlock()

		sc := bufio.NewScanner(f)
		sc.Buffer(make([]byte, 0, 4096), 1024*1024)
		for sc.Scan() {
			line := sc.Text()
			if line == "" {
				continue
			}
			select {
			case s.lines <- line:
			case <-s.done:
				f.Close()
				return
			}
		}
		f.Close()
	}
}

// rearm forces the read side closed; readLoop reopens it.
func (s *Server) rearm() {
	s.log.Debug("re-arming request pipe")
	s.closePipe()
}

func (s *Server) closePipe() {
	s.pipeMu.Lock()
	defer s.pipeMu.Unlock()
	if s.pipe != nil {
		s.pipe.Close()
		s.pipe = nil
	}
}

// watchLoop marks the graph source dirty on collector rewrites.
func (s *Server) watchLoop() {
	for {
		select {
		case <-s.done:
			return
		case event, ok := <-s.fsWatcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				s.dirtyMu.Lock()
				s.dirty = true
				s.dirtyMu.Unlock()
			}
		case err, ok := <-s.fsWatcher.Errors:
			if !ok {
				return
			}
			s.log.Warn("graph watch error", "err", err)
		}
	}
}

// maybeReload swaps in a freshly parsed graph between requests. A reload
// failure keeps the previous graph resident.
func (s *Server) maybeReload() {
	s.dirtyMu.Lock()
	dirty := s.dirty
	s.dirty = false
	s.dirtyMu.Unlock()
	if !dirty {
		return
	}

	g, err := graph.Load(s.graphPath)
	if err != nil {
		s.log.Error("graph reload failed, keeping previous graph", "err", err)
		return
	}
	s.g = g
	s.log.Info("graph reloaded", "nodes", g.Len())
}

// Submit writes one encoded request to a daemon's pipe (client mode).
func Submit(pipePath string, req *Request) error {
	f, err := os.OpenFile(pipePath, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("open request pipe %s (is the daemon running?): %w", pipePath, err)
	}
	defer f.Close()
	_, err = fmt.Fprintln(f, req.Encode())
	return err
}
