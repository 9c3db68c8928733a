package cmdsupport

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

// StatusLinePrinter provides printing facilities for dynamically updating
// status lines in the console, used by push/pull/restore to show live
// progress without spamming the scrollback. It supports colorized printing.
type StatusLinePrinter struct {
	// UseStandardError causes the printer to use standard error for its output
	// instead of standard output (the default).
	UseStandardError bool
	// nonEmpty indicates whether or not the printer has printed any non-empty
	// content to the status line.
	nonEmpty bool
}

// Print prints a message to the status line, overwriting any existing content.
// Color escape sequences are supported. Messages will be truncated to a
// platform-dependent maximum length and padded appropriately.
func (p *StatusLinePrinter) Print(message string) {
	output := color.Output
	if p.UseStandardError {
		output = color.Error
	}

	// Print the message, prefixed with a carriage return to wipe out the
	// previous line (if any), padded to a fixed width so no stale trailing
	// characters survive from a longer previous line.
	fmt.Fprintf(output, statusLineFormat, message)

	p.nonEmpty = true
}

// Clear clears any content on the status line and moves the cursor back to the
// beginning of the line.
func (p *StatusLinePrinter) Clear() {
	p.Print("")

	output := os.Stdout
	if p.UseStandardError {
		output = os.Stderr
	}
	fmt.Fprint(output, "\r")

	p.nonEmpty = false
}

// BreakIfNonEmpty prints a newline character if the current line is non-empty.
func (p *StatusLinePrinter) BreakIfNonEmpty() {
	if p.nonEmpty {
		output := os.Stdout
		if p.UseStandardError {
			output = os.Stderr
		}
		fmt.Fprintln(output)
		p.nonEmpty = false
	}
}
