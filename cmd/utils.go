package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/zheng/callscope/internal/daemon"
	"github.com/zheng/callscope/internal/extract"
)

const defaultPipePath = "/tmp/callscope.pipe"

// requestFlags mirrors the extraction parameter surface. extract and send
// expose the same flags; send only changes where the request is executed.
type requestFlags struct {
	funcs       string
	match       string
	reverse     bool
	depth       int
	ignore      string
	ignoreMatch string
	show        string
	showMatch   string
	trim        bool
	noExtern    bool
	end         string
	allLocs     bool
	output      string
	format      string
	font        string
	fontSize    int
	rankDir     string
	keepDot     bool
	statusFile  string
}

func addRequestFlags(cmd *cobra.Command, rf *requestFlags) {
	f := cmd.Flags()
	f.StringVarP(&rf.funcs, "func", "f", "", "root function name(s), semicolon-separated")
	f.StringVarP(&rf.match, "match", "m", "", "root function pattern(s), semicolon-separated")
	f.BoolVarP(&rf.reverse, "reverse", "r", false, "walk callers instead of callees")
	f.IntVar(&rf.depth, "depth", extract.DepthUnlimited, "max traversal depth (-1 = unbounded)")
	f.StringVar(&rf.ignore, "ignore", "", "function name(s) to exclude with their subtrees")
	f.StringVar(&rf.ignoreMatch, "ignore-match", "", "exclusion pattern(s)")
	f.StringVar(&rf.show, "show", "", "function name(s) to render but not expand")
	f.StringVar(&rf.showMatch, "show-match", "", "show pattern(s)")
	f.BoolVar(&rf.trim, "trim", false, "exclude the built-in noise-symbol catalog")
	f.BoolVar(&rf.noExtern, "no-extern", false, "exclude functions with no known definition")
	f.StringVar(&rf.end, "end", "", "keep only paths reaching this function")
	f.BoolVar(&rf.allLocs, "all-locs", false, "annotate edges with call-site locations")
	f.StringVarP(&rf.output, "output", "o", "", "output path (default callscope.<format>)")
	f.StringVar(&rf.format, "format", "", "output format: dot, png, svg, gif, ps, pdf")
	f.StringVar(&rf.font, "font", "", "rendering font name")
	f.IntVar(&rf.fontSize, "font-size", 0, "rendering font size")
	f.StringVar(&rf.rankDir, "rankdir", "", "layout direction: LR, RL, TB, BT")
	f.BoolVar(&rf.keepDot, "keep-dot", false, "retain the textual graph description after rendering")
	f.StringVar(&rf.statusFile, "status-file", "", "redirect status/diagnostics to this file")
}

// buildRequest turns the flag surface into a wire request, filling unset
// rendering controls from the config defaults.
func (rf *requestFlags) buildRequest() *daemon.Request {
	req := &daemon.Request{
		Roots:          splitList(rf.funcs),
		RootPatterns:   splitList(rf.match),
		Reverse:        rf.reverse,
		Depth:          rf.depth,
		Ignore:         splitList(rf.ignore),
		IgnorePatterns: splitList(rf.ignoreMatch),
		Show:           splitList(rf.show),
		ShowPatterns:   splitList(rf.showMatch),
		Trim:           rf.trim,
		NoExtern:       rf.noExtern,
		EndFunc:        rf.end,
		AllLocs:        rf.allLocs,
		Output:         rf.output,
		Format:         rf.format,
		Font:           rf.font,
		FontSize:       rf.fontSize,
		RankDir:        rf.rankDir,
		KeepDot:        rf.keepDot,
		StatusPath:     rf.statusFile,
	}
	if req.Format == "" {
		req.Format = viper.GetString("format")
	}
	if req.Font == "" {
		req.Font = viper.GetString("font")
	}
	if req.FontSize == 0 {
		req.FontSize = viper.GetInt("font-size")
	}
	if req.RankDir == "" {
		req.RankDir = viper.GetString("rankdir")
	}
	return req
}

// splitList splits a semicolon-separated flag value, dropping empties.
func splitList(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(value, ";") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
