package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// jsonOutput reports whether results go out as JSON: always with --json,
// and by default when stdout is a file or pipe rather than a terminal.
func (a *app) jsonOutput(w io.Writer) bool {
	if a.jsonMode {
		return true
	}
	f, ok := w.(*os.File)
	return ok && !term.IsTerminal(int(f.Fd()))
}

func writeJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// writeTable prints rows in columns padded to their display width, so
// names with wide characters still line up.
func writeTable(w io.Writer, header []string, rows [][]string) error {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if cw := runewidth.StringWidth(cell); cw > widths[i] {
				widths[i] = cw
			}
		}
	}

	line := func(cells []string) error {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			if i == len(cells)-1 {
				parts[i] = cell
				continue
			}
			parts[i] = runewidth.FillRight(cell, widths[i])
		}
		_, err := fmt.Fprintln(w, strings.Join(parts, "  "))
		return err
	}
	if err := line(header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := line(row); err != nil {
			return err
		}
	}
	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func formatTimes(times []float64) string {
	parts := make([]string, len(times))
	for i, t := range times {
		parts[i] = formatFloat(t)
	}
	return strings.Join(parts, " ")
}

// parseFloatArg parses a numeric positional argument.
func parseFloatArg(name, s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, usage("invalid %s %q: not a number", name, s)
	}
	return f, nil
}
