package render

import (
	"io"
	"os"

	"golang.org/x/term"
)

// ShouldUseColor reports whether styled output should be written to w.
// NO_COLOR always wins over force.
func ShouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
