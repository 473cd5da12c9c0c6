package report

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/pyarch/pyarch/internal/pkgmodel"
)

// colorsEnabled mirrors the teacher's NO_COLOR handling: disable color when
// stdout isn't a terminal or NO_COLOR is set, matching https://no-color.org.
func colorsEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// WriteTerminal renders a Summary as human-readable text to w.
func WriteTerminal(w io.Writer, model *pkgmodel.Model, summary Summary, verbose bool) {
	enableColor := colorsEnabled(w)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)
	if !enableColor {
		green.DisableColor()
		red.DisableColor()
		yellow.DisableColor()
	}

	for _, r := range summary.Results {
		if r.Verification.Kept() {
			green.Fprintf(w, "✓ %s\n", r.Name)
			continue
		}
		red.Fprintf(w, "✗ %s\n", r.Name)
		for _, v := range r.Verification.Internal {
			fmt.Fprintf(w, "    forbidden internal import: %s\n", pathString(model, v.Path))
			if verbose {
				fmt.Fprintf(w, "      query: %s -> %s\n", model.Item(v.Query.From).PyPath, model.Item(v.Query.To).PyPath)
			}
		}
		for _, v := range r.Verification.External {
			fmt.Fprintf(w, "    forbidden external import: %s (via %s)\n", v.Target, pathString(model, v.Path))
		}
	}

	fmt.Fprintln(w)
	if summary.Violated() {
		red.Fprintf(w, "%d contract(s) violated, %d violation(s) total\n", violatedCount(summary), summary.ViolationCount())
	} else {
		green.Fprintln(w, "all contracts kept")
	}
}

func violatedCount(s Summary) int {
	n := 0
	for _, r := range s.Results {
		if !r.Verification.Kept() {
			n++
		}
	}
	return n
}
