// Package format provides terminal output helpers for the ConfSync CLI.
package format

import (
	"os"

	"github.com/fatih/color"
)

// Shared color styles used across commands.
var (
	SuccessColor = color.New(color.FgGreen, color.Bold)
	ErrorColor   = color.New(color.FgRed, color.Bold)
	WarningColor = color.New(color.FgYellow, color.Bold)
	LabelColor   = color.New(color.FgYellow, color.Bold)
	ValueColor   = color.New(color.FgGreen)
	RevColor     = color.New(color.FgCyan, color.Bold)
	AddedColor   = color.New(color.FgGreen, color.Bold)
	RemovedColor = color.New(color.FgRed, color.Bold)
	ContextColor = color.New(color.FgHiBlack)
)

func init() {
	// Honor the NO_COLOR convention and the CONFSYNC-specific override.
	if _, noColor := os.LookupEnv("NO_COLOR"); noColor {
		color.NoColor = true
	}
	if _, noColor := os.LookupEnv("CONFSYNC_NO_COLOR"); noColor {
		color.NoColor = true
	}
}

// Success prints a green success message.
func Success(msg string) {
	SuccessColor.Println(msg)
}

// Error prints a red error message.
func Error(msg string) {
	ErrorColor.Println(msg)
}
