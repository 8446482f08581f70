package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"

	"github.com/patchgate/patchgate"
)

// verdictPrinter renders per-operation verdicts as an aligned two-column
// listing: a colored marker, the operation source, and indented error detail
// for rejected operations.
type verdictPrinter struct {
	w      io.Writer
	ok     *color.Color
	bad    *color.Color
	rawCol int
}

func newVerdictPrinter(w io.Writer) *verdictPrinter {
	if f, ok := w.(*os.File); ok {
		if !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
			color.NoColor = true
		}
	}
	return &verdictPrinter{
		w:      w,
		ok:     color.New(color.FgGreen),
		bad:    color.New(color.FgRed),
		rawCol: 60,
	}
}

func (p *verdictPrinter) print(raw string, valid bool, errs []patchgate.OpError) {
	padded := runewidth.FillRight(raw, p.rawCol)
	if valid {
		fmt.Fprintf(p.w, "%s %s\n", p.ok.Sprint("✓"), padded)
		return
	}
	fmt.Fprintf(p.w, "%s %s\n", p.bad.Sprint("✗"), padded)
	for _, e := range errs {
		fmt.Fprintf(p.w, "    %s\n", p.bad.Sprint(e.Message))
	}
}

func (p *verdictPrinter) summary(valid, rejected int) {
	if rejected == 0 {
		fmt.Fprintf(p.w, "%s\n", p.ok.Sprintf("%d operation(s) valid", valid))
		return
	}
	fmt.Fprintf(p.w, "%s\n", p.bad.Sprintf("%d valid, %d rejected", valid, rejected))
}
