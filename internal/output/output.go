// Package output provides formatted output utilities for the CLI.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Writer handles CLI output formatting.
type Writer struct {
	out   io.Writer
	err   io.Writer
	color bool
	quiet bool
}

// New creates a new Writer with default settings.
func New() *Writer {
	return &Writer{
		out:   os.Stdout,
		err:   os.Stderr,
		color: isTerminal(),
	}
}

// NewWithWriters creates a Writer with custom io.Writers (for testing).
func NewWithWriters(out, err io.Writer, color bool) *Writer {
	return &Writer{
		out:   out,
		err:   err,
		color: color,
	}
}

// SetQuiet enables or disables quiet mode.
func (w *Writer) SetQuiet(quiet bool) {
	w.quiet = quiet
}

// Print writes to stdout.
func (w *Writer) Print(format string, args ...interface{}) {
	fmt.Fprintf(w.out, format, args...)
}

// Println writes a line to stdout.
func (w *Writer) Println(format string, args ...interface{}) {
	fmt.Fprintf(w.out, format+"\n", args...)
}

// Error writes to stderr.
func (w *Writer) Error(format string, args ...interface{}) {
	fmt.Fprintf(w.err, format, args...)
}

// Errorln writes a line to stderr.
func (w *Writer) Errorln(format string, args ...interface{}) {
	fmt.Fprintf(w.err, format+"\n", args...)
}

// Info prints an info message (skipped in quiet mode).
func (w *Writer) Info(format string, args ...interface{}) {
	if w.quiet {
		return
	}
	w.Println(format, args...)
}

// Success prints a success message.
func (w *Writer) Success(format string, args ...interface{}) {
	if w.color {
		w.Println(green+format+reset, args...)
	} else {
		w.Println(format, args...)
	}
}

// ErrorPrefix prints an error message with modrun prefix to stderr.
func (w *Writer) ErrorPrefix(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if w.color {
		w.Errorln("%smodrun:%s %s", red, reset, msg)
	} else {
		w.Errorln("modrun: %s", msg)
	}
}

// Warning prints a warning message to stderr.
func (w *Writer) Warning(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if w.color {
		w.Errorln("%swarning:%s %s", yellow, reset, msg)
	} else {
		w.Errorln("warning: %s", msg)
	}
}

// Label turns an identifier such as "timed_out" into a display label ("Timed Out").
func Label(s string) string {
	// A Caser is stateful; build one per call.
	return cases.Title(language.English).String(strings.ReplaceAll(s, "_", " "))
}

// TaskResult prints one line per completed module, as soon as it completes.
func (w *Writer) TaskResult(id, status string, duration time.Duration, message string) {
	if w.quiet && status == "success" {
		return
	}
	label := Label(status)
	d := FormatDuration(duration)
	switch {
	case w.color && status == "success":
		w.Println("%s✓%s %-16s %s%s%s", green, reset, id, dim, d, reset)
	case w.color:
		w.Println("%s✗%s %-16s %s%s%s  %s%s%s", red, reset, id, dim, d, reset, red, label, reset)
	case status == "success":
		w.Println("+ %-16s %s", id, d)
	default:
		w.Println("x %-16s %s  %s", id, d, label)
	}
	if message != "" && status != "success" {
		w.Println("    %s", message)
	}
}

// SummaryHeader prints a summary section header.
func (w *Writer) SummaryHeader(title string) {
	w.Println("")
	if w.color {
		w.Println("%s=== %s ===%s", bold+cyan, title, reset)
	} else {
		w.Println("=== %s ===", title)
	}
	w.Println("")
}

// SummaryItem prints a labeled summary item with value.
func (w *Writer) SummaryItem(label, value string) {
	if w.color {
		w.Println("  %s%s:%s %s", dim, label, reset, value)
	} else {
		w.Println("  %s: %s", label, value)
	}
}

// SummaryPassed prints a passed/success items summary.
func (w *Writer) SummaryPassed(label, value string) {
	if w.color {
		w.Println("  %s%s:%s %s%s%s", dim, label, reset, green, value, reset)
	} else {
		w.Println("  %s: %s", label, value)
	}
}

// SummaryFailed prints a failed items summary.
func (w *Writer) SummaryFailed(label, value string) {
	if w.color {
		w.Println("  %s%s:%s %s%s%s", dim, label, reset, red, value, reset)
	} else {
		w.Println("  %s: %s", label, value)
	}
}

// FinalSuccess prints a final success message.
func (w *Writer) FinalSuccess(format string, args ...interface{}) {
	w.Println("")
	msg := fmt.Sprintf(format, args...)
	if w.color {
		w.Println("%s%s%s", green, msg, reset)
	} else {
		w.Println("%s", msg)
	}
}

// FinalFailure prints a final failure message.
func (w *Writer) FinalFailure(format string, args ...interface{}) {
	w.Println("")
	msg := fmt.Sprintf(format, args...)
	if w.color {
		w.Println("%s%s%s", red, msg, reset)
	} else {
		w.Println("%s", msg)
	}
}

// DryRunStart prints the dry run header.
func (w *Writer) DryRunStart() {
	w.Println("")
	if w.color {
		w.Println("%s=== DRY RUN ===%s", bold+yellow, reset)
	} else {
		w.Println("=== DRY RUN ===")
	}
	w.Println("")
}

// DryRunEnd prints the dry run footer.
func (w *Writer) DryRunEnd() {
	w.Println("")
	if w.color {
		w.Println("%s=== END DRY RUN ===%s", bold+yellow, reset)
	} else {
		w.Println("=== END DRY RUN ===")
	}
}

// ModuleInfo prints a module line for dry runs and checks.
func (w *Writer) ModuleInfo(id, location string) {
	if w.color {
		w.Println("  %s%s%s  %s%s%s", cyan+bold, id, reset, dim, location, reset)
	} else {
		w.Println("  %s  %s", id, location)
	}
}

// Table prints a simple table.
func (w *Writer) Table(headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var headerParts []string
	for i, h := range headers {
		headerParts = append(headerParts, fmt.Sprintf("%-*s", widths[i], h))
	}
	w.Println("%s", strings.TrimRight(strings.Join(headerParts, "  "), " "))

	var sepParts []string
	for _, width := range widths {
		sepParts = append(sepParts, strings.Repeat("-", width))
	}
	w.Println("%s", strings.Join(sepParts, "  "))

	for _, row := range rows {
		var rowParts []string
		for i, cell := range row {
			if i < len(widths) {
				rowParts = append(rowParts, fmt.Sprintf("%-*s", widths[i], cell))
			}
		}
		w.Println("%s", strings.TrimRight(strings.Join(rowParts, "  "), " "))
	}
}

// FormatDuration renders a duration rounded for humans ("12ms", "1.5s").
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	case d < time.Minute:
		return d.Round(100 * time.Millisecond).String()
	default:
		return d.Round(time.Second).String()
	}
}

// isTerminal returns true if stdout is a terminal.
func isTerminal() bool {
	if fi, _ := os.Stdout.Stat(); fi != nil {
		return (fi.Mode() & os.ModeCharDevice) != 0
	}
	return false
}

// ANSI color codes.
const (
	reset  = "\033[0m"
	bold   = "\033[1m"
	dim    = "\033[2m"
	red    = "\033[31m"
	green  = "\033[32m"
	yellow = "\033[33m"
	cyan   = "\033[36m"
)

// Semantic color roles for help output.
const (
	colorTitle       = bold + cyan
	colorSection     = bold + yellow
	colorCommand     = bold + cyan
	colorPlaceholder = green
	colorFlag        = yellow
	colorDescription = dim
	colorExample     = cyan
	colorEnvVar      = yellow
)

// HelpTitle formats the main help title line.
func (w *Writer) HelpTitle(title string) {
	if w.color {
		w.Println("%s%s%s", colorTitle, title, reset)
	} else {
		w.Println("%s", title)
	}
}

// HelpSection formats a section header (e.g., "Commands:").
func (w *Writer) HelpSection(title string) {
	w.Println("")
	if w.color {
		w.Println("%s%s%s", colorSection, title, reset)
	} else {
		w.Println("%s", title)
	}
}

// HelpCommand formats a command with its description.
func (w *Writer) HelpCommand(name, description string, width int) {
	if w.color {
		coloredName := w.colorPlaceholders(name)
		padding := max(width-len(name), 0)
		w.Println("  %s%s%s%s  %s%s%s", colorCommand, coloredName, reset, strings.Repeat(" ", padding), colorDescription, description, reset)
	} else {
		w.Println("  %-*s  %s", width, name, description)
	}
}

// HelpFlag formats a flag with its description.
func (w *Writer) HelpFlag(name, description string, width int) {
	if w.color {
		coloredName := w.colorPlaceholders(name)
		padding := max(width-len(name), 0)
		w.Println("  %s%s%s%s  %s%s%s", colorFlag, coloredName, reset, strings.Repeat(" ", padding), colorDescription, description, reset)
	} else {
		w.Println("  %-*s  %s", width, name, description)
	}
}

// HelpExample formats an example command with description.
func (w *Writer) HelpExample(command, description string) {
	if w.color {
		w.Println("  %s%s%s", colorExample, command, reset)
		if description != "" {
			w.Println("      %s%s%s", colorDescription, description, reset)
		}
	} else {
		w.Println("  %s", command)
		if description != "" {
			w.Println("      %s", description)
		}
	}
}

// HelpUsage formats usage lines.
func (w *Writer) HelpUsage(usage string) {
	if w.color {
		w.Println("  %s", w.colorPlaceholders(usage))
	} else {
		w.Println("  %s", usage)
	}
}

// HelpEnvVar formats an environment variable.
func (w *Writer) HelpEnvVar(name, description string, width int) {
	if w.color {
		w.Println("  %s%-*s%s  %s%s%s", colorEnvVar, width, name, reset, colorDescription, description, reset)
	} else {
		w.Println("  %-*s  %s", width, name, description)
	}
}

// colorPlaceholders highlights <placeholder> patterns in text.
func (w *Writer) colorPlaceholders(text string) string {
	var result strings.Builder
	i := 0
	for i < len(text) {
		if text[i] == '<' {
			end := strings.Index(text[i:], ">")
			if end != -1 {
				placeholder := text[i : i+end+1]
				result.WriteString(reset)
				result.WriteString(colorPlaceholder)
				result.WriteString(placeholder)
				result.WriteString(reset)
				i += end + 1
				continue
			}
		}
		result.WriteByte(text[i])
		i++
	}
	return result.String()
}
