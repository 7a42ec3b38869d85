package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/comalice/sheetx/internal/scenario"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	infoColor    = color.New(color.FgCyan)
	headerColor  = color.New(color.FgBlue, color.Bold)
	valueColor   = color.New(color.FgHiBlack)
	stateColor   = color.New(color.FgGreen)
	hookColor    = color.New(color.FgMagenta)
)

// printSection prints a section header
func printSection(w io.Writer, title string) {
	_, _ = headerColor.Fprintf(w, "▸ %s\n", title)
}

func printSuccess(w io.Writer, msg string) {
	_, _ = successColor.Fprintf(w, "✓ %s\n", msg)
}

func printError(w io.Writer, msg string) {
	_, _ = errorColor.Fprintf(w, "✗ %s\n", msg)
}

// printTable prints a simple column table
func printTable(w io.Writer, headers []string, rows [][]string) {
	if len(headers) == 0 || len(rows) == 0 {
		return
	}

	colWidths := make([]int, len(headers))
	for i, header := range headers {
		colWidths[i] = len(header)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(colWidths) && len(cell) > colWidths[i] {
				colWidths[i] = len(cell)
			}
		}
	}

	fmt.Fprint(w, "  ")
	for i, header := range headers {
		if i > 0 {
			fmt.Fprint(w, "  ")
		}
		_, _ = headerColor.Fprintf(w, "%-*s", colWidths[i], header)
	}
	fmt.Fprintln(w)

	fmt.Fprint(w, "  ")
	for i, width := range colWidths {
		if i > 0 {
			fmt.Fprint(w, "  ")
		}
		fmt.Fprint(w, strings.Repeat("-", width))
	}
	fmt.Fprintln(w)

	for _, row := range rows {
		fmt.Fprint(w, "  ")
		for i, cell := range row {
			if i >= len(colWidths) {
				break
			}
			if i > 0 {
				fmt.Fprint(w, "  ")
			}
			_, _ = valueColor.Fprintf(w, "%-*s", colWidths[i], cell)
		}
		fmt.Fprintln(w)
	}
}

func entryColor(e scenario.Entry) *color.Color {
	switch e.Kind {
	case scenario.KindSend:
		return infoColor
	case scenario.KindState:
		return stateColor
	case scenario.KindHook:
		return hookColor
	case scenario.KindCancel:
		return warningColor
	case scenario.KindError:
		return errorColor
	case scenario.KindExpect:
		if e.Name == "FAIL" {
			return errorColor
		}
		return successColor
	}
	return valueColor
}

// printTrace prints a scenario result, one colored line per trace entry.
func printTrace(w io.Writer, res *scenario.Result) {
	title := res.Name
	if title == "" {
		title = "scenario"
	}
	printSection(w, title)
	for _, e := range res.Trace {
		_, _ = entryColor(e).Fprintln(w, "  "+e.String())
	}
	fmt.Fprintln(w)
	if res.Passed() {
		printSuccess(w, fmt.Sprintf("PASS  final state %s", res.Final))
		return
	}
	for _, f := range res.Failures {
		printError(w, f)
	}
	printError(w, fmt.Sprintf("FAIL  final state %s", res.Final))
}
