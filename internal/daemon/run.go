package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	"github.com/zheng/callscope/internal/dot"
	"github.com/zheng/callscope/internal/extract"
	"github.com/zheng/callscope/internal/filter"
	"github.com/zheng/callscope/internal/graph"
	"github.com/zheng/callscope/internal/render"
)

// ErrConfig indicates an invalid parameter combination in a request.
var ErrConfig = errors.New("invalid request configuration")

// Renderer invokes the layout engine for non-dot formats. The CLI layer
// overrides the binary path from configuration.
var Renderer = render.Renderer{}

var rankDirs = map[string]bool{"LR": true, "RL": true, "TB": true, "BT": true}

// Run executes one request against a resident graph: compile filters,
// extract each root into its own description, hand the result to the
// layout engine. One root's empty result never aborts the remaining roots.
// The graph's attribute overlay is reset before every root, so runs never
// leak markings into each other.
func Run(ctx context.Context, g *graph.Graph, req *Request, log *slog.Logger) error {
	if req.StatusPath != "" {
		f, err := os.OpenFile(req.StatusPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open status stream: %w", err)
		}
		defer f.Close()
		log = slog.New(slog.NewTextHandler(f, nil))
	}

	if err := validate(req); err != nil {
		return err
	}

	reg, err := filter.Compile(filter.Spec{
		Ignore:         req.Ignore,
		IgnorePatterns: req.IgnorePatterns,
		Show:           req.Show,
		ShowPatterns:   req.ShowPatterns,
		Trim:           req.Trim,
		NoExtern:       req.NoExtern,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfig, err)
	}

	roots, err := resolveRoots(g, req)
	if err != nil {
		return err
	}

	workDir, err := os.MkdirTemp("", "callscope-*")
	if err != nil {
		return fmt.Errorf("create working directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	params := extract.Params{
		Direction: extract.Forward,
		MaxDepth:  req.Depth,
		EndFunc:   req.EndFunc,
		AllLocs:   req.AllLocs,
	}
	if req.Reverse {
		params.Direction = extract.Reverse
	}

	succeeded := 0
	for _, root := range roots {
		g.ResetAttrs()

		asm := dot.New(headerOptions(req))
		session := extract.NewSession(reg, asm, params)

		if err := session.Extract(root); err != nil {
			if errors.Is(err, extract.ErrEmptyResult) {
				log.Warn("empty result", "root", root.Name)
				continue
			}
			return err
		}

		outPath := outputPath(req, root.Name, len(roots) > 1)
		if err := finalize(ctx, workDir, asm, req, outPath, log); err != nil {
			return err
		}

		log.Info("extracted",
			"root", root.Name,
			"edges", asm.EdgeCount(),
			"nodes", len(asm.Members()),
			"files", len(session.SourceFiles()),
			"output", outPath)
		succeeded++
	}

	if succeeded == 0 {
		return extract.ErrEmptyResult
	}
	return nil
}

func validate(req *Request) error {
	if req.Format != "" && !render.SupportedFormat(req.Format) {
		return fmt.Errorf("%w: unknown output format %q", ErrConfig, req.Format)
	}
	if req.RankDir != "" && !rankDirs[req.RankDir] {
		return fmt.Errorf("%w: unknown layout direction %q", ErrConfig, req.RankDir)
	}
	if req.Depth < extract.DepthUnlimited {
		return fmt.Errorf("%w: negative depth %d", ErrConfig, req.Depth)
	}
	if len(req.Roots) == 0 && len(req.RootPatterns) == 0 {
		return fmt.Errorf("%w: no root function specified", ErrConfig)
	}
	return nil
}

// resolveRoots expands explicit names and root patterns into nodes. A
// missing explicit root is an error; a pattern matching nothing is not.
func resolveRoots(g *graph.Graph, req *Request) ([]*graph.Node, error) {
	var roots []*graph.Node
	seen := make(map[string]bool)

	for _, name := range req.Roots {
		n, err := g.Resolve(name)
		if err != nil {
			return nil, err
		}
		if !seen[n.Name] {
			seen[n.Name] = true
			roots = append(roots, n)
		}
	}
	for _, pattern := range req.RootPatterns {
		pat, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: root pattern %q: %v", ErrConfig, pattern, err)
		}
		for _, n := range g.FindPattern(pat) {
			if !seen[n.Name] {
				seen[n.Name] = true
				roots = append(roots, n)
			}
		}
	}
	if len(roots) == 0 {
		return nil, fmt.Errorf("%w: no root pattern matched", graph.ErrNotFound)
	}
	return roots, nil
}

func headerOptions(req *Request) dot.Options {
	opts := dot.DefaultOptions()
	if req.RankDir != "" {
		opts.RankDir = req.RankDir
	}
	if req.Font != "" {
		opts.Font = req.Font
	}
	if req.FontSize > 0 {
		opts.FontSize = req.FontSize
	}
	return opts
}

// outputPath derives the per-root artifact path. With multiple roots the
// root name is folded into the stem so outputs never clobber each other.
func outputPath(req *Request, rootName string, multi bool) string {
	format := req.Format
	if format == "" {
		format = render.FormatDot
	}
	out := req.Output
	if out == "" {
		out = "callscope." + format
	}
	if !multi {
		return out
	}
	ext := filepath.Ext(out)
	stem := strings.TrimSuffix(out, ext)
	return stem + "_" + sanitize(rootName) + ext
}

// finalize writes the description and invokes the layout engine. The
// description survives a failed render when the caller asked to keep it.
func finalize(ctx context.Context, workDir string, asm *dot.Assembler, req *Request, outPath string, log *slog.Logger) error {
	format := req.Format
	if format == "" {
		format = render.FormatDot
	}

	if format == render.FormatDot {
		return writeDescription(asm, outPath)
	}

	dotPath := filepath.Join(workDir, sanitize(filepath.Base(outPath))+".dot")
	if req.KeepDot {
		ext := filepath.Ext(outPath)
		dotPath = strings.TrimSuffix(outPath, ext) + ".dot"
	}
	if err := writeDescription(asm, dotPath); err != nil {
		return err
	}

	if err := Renderer.Render(ctx, dotPath, outPath, format); err != nil {
		if req.KeepDot {
			log.Warn("render failed, description retained", "dot", dotPath)
		}
		return err
	}
	return nil
}

func writeDescription(asm *dot.Assembler, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer f.Close()
	if _, err := asm.WriteTo(f); err != nil {
		return fmt.Errorf("write description: %w", err)
	}
	return nil
}

// sanitize makes a symbol name safe for use inside a file name.
func sanitize(name string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", ":", "_", " ", "_", "*", "_", "(", "", ")", "")
	return r.Replace(name)
}
