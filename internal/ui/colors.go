package ui

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
)

// ANSI color and style codes for CLI output. They are emptied by Disable.
var (
	ColorReset = "\033[0m"
	ColorBold  = "\033[1m"
	ColorDim   = "\033[2m"

	ColorCyan   = "\033[36m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorWhite  = "\033[97m"
	ColorRed    = "\033[31m"
)

func init() {
	if _, ok := os.LookupEnv("NO_COLOR"); ok || !isTerminal(os.Stdout) {
		Disable()
	}
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Disable turns off all styling.
func Disable() {
	ColorReset, ColorBold, ColorDim = "", "", ""
	ColorCyan, ColorGreen, ColorYellow, ColorWhite, ColorRed = "", "", "", "", ""
}

func Bold(s string) string {
	return ColorBold + s + ColorReset
}

func Success(s string) string {
	return ColorGreen + s + ColorReset
}

func Info(s string) string {
	return ColorDim + ColorYellow + s + ColorReset
}

func Warn(s string) string {
	return ColorYellow + s + ColorReset
}

func Error(s string) string {
	return ColorRed + s + ColorReset
}

// Percent formats a 0..1 ratio, green at or above good and red below bad.
func Percent(ratio, good, bad float64) string {
	s := fmt.Sprintf("%.1f%%", ratio*100)
	switch {
	case ratio >= good:
		return Success(s)
	case ratio < bad:
		return Error(s)
	}
	return Warn(s)
}
