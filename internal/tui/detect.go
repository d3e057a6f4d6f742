package tui

import (
	"io"
	"os"

	"golang.org/x/term"
)

// Mode represents how diagnostic output should be rendered.
type Mode int

const (
	// ModePlain is used for CI/CD pipelines, scripts, redirected output.
	ModePlain Mode = iota
	// ModeStyled is used when a human is watching the terminal.
	ModeStyled
)

// DetectMode determines whether output written to w should be styled.
//
// Returns ModePlain if:
//   - w is not an *os.File attached to a terminal
//   - PGROWS_PLAIN=1 is set
//   - CI is set (common CI/CD convention)
//   - NO_COLOR is set (https://no-color.org)
//
// Returns ModeStyled otherwise.
func DetectMode(w io.Writer) Mode {
	if os.Getenv("PGROWS_PLAIN") == "1" {
		return ModePlain
	}
	if os.Getenv("CI") != "" {
		return ModePlain
	}
	if os.Getenv("NO_COLOR") != "" {
		return ModePlain
	}

	f, ok := w.(*os.File)
	if !ok {
		return ModePlain
	}
	if !term.IsTerminal(int(f.Fd())) {
		return ModePlain
	}

	return ModeStyled
}

// IsStyled is a convenience function that returns true if w should receive styled output.
func IsStyled(w io.Writer) bool {
	return DetectMode(w) == ModeStyled
}
