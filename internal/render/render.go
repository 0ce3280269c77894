// Package render invokes the external graphviz layout engine.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// ErrRender indicates the layout engine is unavailable or failed.
var ErrRender = errors.New("graph layout failed")

// FormatDot is the pass-through format: the textual description is the
// artifact and no layout engine is invoked.
const FormatDot = "dot"

var formats = map[string]bool{
	FormatDot: true,
	"png":     true,
	"svg":     true,
	"gif":     true,
	"ps":      true,
	"pdf":     true,
}

// SupportedFormat reports whether format is a recognized output format.
func SupportedFormat(format string) bool {
	return formats[format]
}

// Renderer wraps the graphviz binary.
type Renderer struct {
	DotBin string // layout binary, "dot" if empty
}

// Render lays out the description at dotPath into outPath. The dot format
// copies nothing here; callers write the description directly in that case.
func (r Renderer) Render(ctx context.Context, dotPath, outPath, format string) error {
	bin := r.DotBin
	if bin == "" {
		bin = "dot"
	}

	cmd := exec.CommandContext(ctx, bin, "-T"+format, "-o", outPath, dotPath)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := bytes.TrimSpace(stderr.Bytes())
		if len(msg) > 0 {
			return fmt.Errorf("%w: %s: %s", ErrRender, err, msg)
		}
		return fmt.Errorf("%w: %s", ErrRender, err)
	}
	return nil
}
