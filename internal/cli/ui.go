package cli

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/treeflow/pkg/components"
	"github.com/matzehuels/treeflow/pkg/graph"
	"github.com/matzehuels/treeflow/pkg/pipeline"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)

	styleHeader = lipgloss.NewStyle().Bold(true).Foreground(colorCyan).Padding(0, 1)
	styleCell   = lipgloss.NewStyle().Padding(0, 1)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// =============================================================================
// Status Output
// =============================================================================

// printSuccess prints a success message.
func printSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

// printError prints an error message.
func printError(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconError.Render(iconError)+" "+fmt.Sprintf(format, args...))
}

// printWarning prints a warning message.
func printWarning(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render(fmt.Sprintf(format, args...)))
}

// printInfo prints an info/status message.
func printInfo(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconInfo.Render(iconInfo)+" "+fmt.Sprintf(format, args...))
}

// printDetail prints a detail line (indented).
func printDetail(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a file output line.
func printFile(w io.Writer, path string) {
	fmt.Fprintln(w, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

// =============================================================================
// Stats Display
// =============================================================================

// printStats prints graph statistics on a single line.
func printStats(w io.Writer, stats pipeline.Stats, cached bool) {
	parts := []string{
		fmt.Sprintf("%d components", stats.Components),
		fmt.Sprintf("%d connections", stats.Connections),
	}
	if stats.RenderTime > 0 || cached {
		status, style := iconFresh, styleComputed
		if cached {
			status, style = iconCached, styleCached
		}
		parts = append(parts, style.Render(status))
	}

	line := "  "
	for i, part := range parts {
		if i > 0 {
			line += StyleDim.Render(" · ")
		}
		line += StyleDim.Render(part)
	}
	fmt.Fprintln(w, line)
}

// printReport prints the solve report: one line for the outcome, then one
// per failed component with its error.
func printReport(w io.Writer, s pipeline.Summary) {
	if s.OK {
		printSuccess(w, "Solved %d components (%s, %.2fms)", len(s.Solved), s.Mode, s.DurationMS)
	} else {
		printWarning(w, "%d of %d components unsolved (%s)", len(s.Failed), len(s.Order), s.Mode)
	}
	for _, id := range s.Failed {
		if msg, ok := s.Errors[id]; ok {
			printError(w, "%d: %s", id, msg)
		} else {
			printDetail(w, "%d: empty input", id)
		}
	}
}

// =============================================================================
// Tables
// =============================================================================

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(StyleDim).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			return styleCell
		})
}

// resultsTable lists every component output, one row per output slot.
func resultsTable(g *graph.Graph) string {
	t := newTable("ID", "Component", "Output", "Status", "Value")
	for _, c := range g.Components() {
		name := c.Type()
		if c.Name() != "" {
			name = c.Name() + " (" + c.Type() + ")"
		}
		status := "solved"
		switch {
		case !c.Enabled():
			status = "disabled"
		case !c.Solved():
			status = "unsolved"
		}
		if c.NumOutputs() == 0 {
			t.Row(strconv.Itoa(int(c.ID())), name, "", status, "")
		}
		for i := range c.NumOutputs() {
			out := c.OutputDef(i).Name
			if out == "" {
				out = strconv.Itoa(i)
			}
			tree, _ := g.OutputTree(graph.SlotRef{Component: c.ID(), Slot: i})
			t.Row(strconv.Itoa(int(c.ID())), name, out, status, tree.String())
		}
	}
	return t.Render()
}

// componentsTable lists registered component types with their slots.
func componentsTable(reg *components.Registry) string {
	t := newTable("Type", "Inputs", "Outputs", "Description")
	for _, info := range reg.Types() {
		var ins, outs []string
		if def, err := reg.New(info.Type, nil); err == nil {
			for _, in := range def.Inputs {
				ins = append(ins, in.Name)
			}
			for _, out := range def.Outputs {
				outs = append(outs, out.Name)
			}
		}
		t.Row(info.Type, strings.Join(ins, ", "), strings.Join(outs, ", "), info.Description)
	}
	return t.Render()
}

// keysList renders stored keys, sorted, one per line.
func keysList(keys []string) string {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	var sb strings.Builder
	for _, k := range sorted {
		sb.WriteString("  " + StyleDim.Render(iconInfo) + " " + StyleValue.Render(k) + "\n")
	}
	return sb.String()
}
