package ui

import (
	"os"
	"sync/atomic"

	"golang.org/x/term"
)

// colorOverride: 0 auto, 1 forced on, 2 forced off.
var colorOverride atomic.Int32

// IsTerminal reports whether stdout is a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// ShouldUseColor follows the NO_COLOR and CLICOLOR conventions, then falls
// back to whether stdout is a terminal.
func ShouldUseColor() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if os.Getenv("CLICOLOR") == "0" {
		return false
	}
	if v := os.Getenv("CLICOLOR_FORCE"); v != "" && v != "0" {
		return true
	}
	return IsTerminal()
}

// SetColor forces colour output on or off, overriding detection.
func SetColor(on bool) {
	if on {
		colorOverride.Store(1)
	} else {
		colorOverride.Store(2)
	}
}

func colorEnabled() bool {
	switch colorOverride.Load() {
	case 1:
		return true
	case 2:
		return false
	default:
		return ShouldUseColor()
	}
}
