// Package console prints readings to a terminal, either as a table or as
// plain lists suitable for piping.
package console

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/alepar/waveplus-read/airthings"
)

const DefaultColumnWidth = 12

type Printer struct {
	Out   io.Writer
	Plain bool
	Width int

	columns int
}

var _ airthings.Presenter = (*Printer)(nil)

func New(out io.Writer, plain bool) *Printer {
	return &Printer{Out: out, Plain: plain, Width: DefaultColumnWidth}
}

func (p *Printer) Header(serial airthings.SerialNumber, labels []string) {
	p.columns = len(labels)
	if !p.Plain {
		fmt.Fprintf(p.Out, "\nPress ctrl+C to exit program\n\n")
	}
	fmt.Fprintf(p.Out, "Device serial number: %s\n", serial)

	if p.Plain {
		fmt.Fprintln(p.Out, plainList(labels))
		return
	}
	fmt.Fprintln(p.Out, p.border('╭', '┬', '╮'))
	fmt.Fprintln(p.Out, p.row(labels, center))
	fmt.Fprintln(p.Out, p.border('├', '┼', '┤'))
}

func (p *Printer) Reading(_ airthings.SerialNumber, r airthings.Reading) {
	cells := r.Formatted()
	if p.Plain {
		fmt.Fprintln(p.Out, plainList(cells))
		return
	}
	fmt.Fprintln(p.Out, p.row(cells, right))
}

// Failure is a no-op, recoverable errors are left to the log.
func (p *Printer) Failure(airthings.SerialNumber, error) {}

func (p *Printer) Fatal(_ airthings.SerialNumber, err error) {
	if !p.Plain && p.columns > 0 {
		fmt.Fprintln(p.Out, p.border('╰', '┴', '╯'))
	}
	fmt.Fprintf(p.Out, "%s\n\n", err)
}

func (p *Printer) width() int {
	if p.Width <= 0 {
		return DefaultColumnWidth
	}
	return p.Width
}

func (p *Printer) border(left, mid, end rune) string {
	segments := make([]string, p.columns)
	for i := range segments {
		segments[i] = strings.Repeat("─", p.width()+2)
	}
	return string(left) + strings.Join(segments, string(mid)) + string(end)
}

type align func(s string, width int) string

func (p *Printer) row(cells []string, a align) string {
	padded := make([]string, len(cells))
	for i, c := range cells {
		padded[i] = " " + a(c, p.width()) + " "
	}
	return "│" + strings.Join(padded, "│") + "│"
}

func right(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return strings.Repeat(" ", width-n) + s
}

func center(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	left := (width - n) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", width-n-left)
}

func plainList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = strconv.Quote(s)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
