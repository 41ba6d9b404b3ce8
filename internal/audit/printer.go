package audit

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Output formats for resolution lists.
const (
	FormatJSON  = "json"
	FormatTable = "table"
)

// Printer writes audit results.
type Printer struct {
	out    io.Writer
	format string
}

// NewPrinter creates a Printer. Unknown formats fall back to JSON.
func NewPrinter(out io.Writer, format string) *Printer {
	if format != FormatTable {
		format = FormatJSON
	}
	return &Printer{out: out, format: format}
}

// Message prints a single line.
func (p *Printer) Message(msg string) {
	fmt.Fprintln(p.out, msg)
}

// Resolutions prints a resolution list in the configured format.
func (p *Printer) Resolutions(resolutions []Resolution) error {
	if p.format == FormatTable {
		p.table(resolutions)
		return nil
	}

	// npm dependency paths use '>' as a separator; print them as reported.
	enc := json.NewEncoder(p.out)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(resolutions); err != nil {
		return fmt.Errorf("failed to encode resolutions: %w", err)
	}
	return nil
}

func (p *Printer) table(resolutions []Resolution) {
	t := table.NewWriter()
	t.SetOutputMirror(p.out)
	t.AppendHeader(table.Row{"ID", "PATH", "DEV", "OPTIONAL", "BUNDLED"})
	for _, r := range resolutions {
		t.AppendRow(table.Row{
			r.ID,
			r.Path,
			strconv.FormatBool(r.Dev),
			strconv.FormatBool(r.Optional),
			strconv.FormatBool(r.Bundled),
		})
	}
	t.Render()
}
