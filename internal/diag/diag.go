// Package diag formats the typed errors raised by each compiler pass
// into a single colored line on stderr, the way compile-error tooling
// the examples pulled from prints diagnostics: "<stage> error: <message>",
// where each pass's error message begins with its line number, and with
// red used only when stderr is an actual terminal.
package diag

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// Stage names a pipeline phase for diagnostic prefixing.
type Stage string

const (
	Lex      Stage = "lex"
	Parse    Stage = "parse"
	Resolve  Stage = "resolve"
	Label    Stage = "loop label"
	Emission Stage = "emission"
	Usage    Stage = "usage"
)

func colorEnabled(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// Report writes one diagnostic line for err, attributed to stage, to w.
func Report(w io.Writer, stage Stage, err error) {
	if colorEnabled(w) {
		fmt.Fprintf(w, "\033[31m%s error:\033[0m %v\n", stage, err)
		return
	}
	fmt.Fprintf(w, "%s error: %v\n", stage, err)
}
