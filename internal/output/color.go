package output

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// Printer handles colored output. Its methods are safe for concurrent use.
type Printer struct {
	out      io.Writer
	err      io.Writer
	useColor bool
	mu       sync.Mutex

	success   *color.Color
	failure   *color.Color
	warning   *color.Color
	info      *color.Color
	detail    *color.Color
	user      *color.Color
	assistant *color.Color
	highlight *color.Color
	link      *color.Color
}

// NewPrinter creates a new printer with color support
func NewPrinter() *Printer {
	return NewPrinterWithWriters(os.Stdout, os.Stderr, isTerminal())
}

// NewPrinterWithWriters creates a printer with custom writers (for testing)
func NewPrinterWithWriters(out, err io.Writer, useColor bool) *Printer {
	p := &Printer{
		out:       out,
		err:       err,
		useColor:  useColor,
		success:   color.New(color.Bold, color.FgGreen),
		failure:   color.New(color.Bold, color.FgRed),
		warning:   color.New(color.Bold, color.FgYellow),
		info:      color.New(color.Bold, color.FgCyan),
		detail:    color.New(color.FgHiBlack),
		user:      color.New(color.Bold, color.FgBlue),
		assistant: color.New(color.Bold, color.FgMagenta),
		highlight: color.New(color.Bold, color.FgYellow, color.Underline),
		link:      color.New(color.FgCyan, color.Underline),
	}
	for _, c := range p.styles() {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p *Printer) styles() []*color.Color {
	return []*color.Color{p.success, p.failure, p.warning, p.info, p.detail, p.user, p.assistant, p.highlight, p.link}
}

// Success prints a success message in green
func (p *Printer) Success(format string, args ...interface{}) {
	p.line(p.out, p.success, "✓ "+fmt.Sprintf(format, args...))
}

// Error prints an error message in red
func (p *Printer) Error(format string, args ...interface{}) {
	p.line(p.err, p.failure, "✗ "+fmt.Sprintf(format, args...))
}

// Warning prints a warning message in yellow
func (p *Printer) Warning(format string, args ...interface{}) {
	p.line(p.err, p.warning, "⚠ "+fmt.Sprintf(format, args...))
}

// Info prints an info message in cyan
func (p *Printer) Info(format string, args ...interface{}) {
	p.line(p.out, p.info, "→ "+fmt.Sprintf(format, args...))
}

// Detail prints a detail message in gray
func (p *Printer) Detail(format string, args ...interface{}) {
	p.line(p.out, p.detail, "  "+fmt.Sprintf(format, args...))
}

// User prints a line the user wrote. text may already carry highlights.
func (p *Printer) User(text string) {
	p.write(p.out, p.user.Sprint("You: ")+indent(text, "  ")+"\n")
}

// Assistant prints a line from the assistant
func (p *Printer) Assistant(text string) {
	p.write(p.out, p.assistant.Sprint("Assistant: ")+indent(text, "  ")+"\n")
}

// Link prints a bullet with a title and its URL
func (p *Printer) Link(title, url string) {
	p.write(p.out, fmt.Sprintf("• %s %s\n", title, p.link.Sprint(url)))
}

// Print prints a plain message without color
func (p *Printer) Print(format string, args ...interface{}) {
	p.write(p.out, fmt.Sprintf(format, args...))
}

// Println prints a plain message with newline
func (p *Printer) Println(args ...interface{}) {
	p.write(p.out, fmt.Sprintln(args...))
}

// Highlight marks every literal occurrence of each term in text. Without
// color the terms are wrapped in asterisks.
func (p *Printer) Highlight(text string, terms []string) string {
	mark := func(s string) string { return "*" + s + "*" }
	if p.useColor {
		mark = func(s string) string { return p.highlight.Sprint(s) }
	}
	return HighlightTerms(text, terms, mark)
}

// HighlightTerms replaces every literal occurrence of each term in text with
// mark(term), one term after another
func HighlightTerms(text string, terms []string, mark func(string) string) string {
	for _, term := range terms {
		if term == "" {
			continue
		}
		re := regexp.MustCompile(regexp.QuoteMeta(term))
		text = re.ReplaceAllStringFunc(text, mark)
	}
	return text
}

func (p *Printer) line(w io.Writer, c *color.Color, message string) {
	p.write(w, c.Sprint(message)+"\n")
}

func (p *Printer) write(w io.Writer, s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = io.WriteString(w, s)
}

// clearLine erases the current terminal line
func (p *Printer) clearLine() {
	p.write(p.out, "\r\033[K")
}

// isTerminal checks if stdout is a terminal
func isTerminal() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}

	fileInfo, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// indent prefixes every line of s after the first with pad
func indent(s, pad string) string {
	return strings.ReplaceAll(s, "\n", "\n"+pad)
}
