package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// Color modes accepted by --color.
const (
	colorAuto   = "auto"
	colorAlways = "always"
	colorNever  = "never"
)

// resolveColors reports whether summaries are colored. auto follows NO_COLOR,
// TERM=dumb and whether stdout is a terminal.
func resolveColors(mode string) (bool, error) {
	switch mode {
	case colorAlways:
		return true, nil
	case colorNever:
		return false, nil
	case "", colorAuto:
		if _, ok := os.LookupEnv("NO_COLOR"); ok {
			return false, nil
		}
		if os.Getenv("TERM") == "dumb" {
			return false, nil
		}
		return !color.NoColor, nil
	default:
		return false, fmt.Errorf("invalid color mode %q: must be %s, %s or %s", mode, colorAuto, colorAlways, colorNever)
	}
}

// printer writes command summaries.
type printer struct {
	out       io.Writer
	useColors bool
}

// Success prints a completed step, green when colors are on.
func (p *printer) Success(format string, args ...any) {
	if !p.useColors {
		fmt.Fprintf(p.out, format+"\n", args...)
		return
	}
	c := color.New(color.FgGreen)
	c.EnableColor()
	c.Fprintf(p.out, "✓ "+format+"\n", args...)
}

// Info prints a neutral message, cyan when colors are on.
func (p *printer) Info(format string, args ...any) {
	if !p.useColors {
		fmt.Fprintf(p.out, format+"\n", args...)
		return
	}
	c := color.New(color.FgCyan)
	c.EnableColor()
	c.Fprintf(p.out, format+"\n", args...)
}

// renderTable writes rows under headers as a borderless left-aligned table.
func renderTable(w io.Writer, headers []string, rows [][]string) error {
	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{
					AutoWrap: tw.WrapNone,
				},
				Alignment: tw.CellAlignment{
					Global: tw.AlignLeft,
				},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{
					AutoFormat: tw.On,
				},
				Alignment: tw.CellAlignment{
					Global: tw.AlignLeft,
				},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{
					ShowHeader: tw.Off,
				},
			},
		}),
	)

	table.Header(headers)
	if err := table.Bulk(rows); err != nil {
		return fmt.Errorf("rendering table: %w", err)
	}
	return table.Render()
}
