package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#87CEEB")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#90EE90")).
		Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Padding(0, 1)
)

var headers = []string{"SOURCE", "MODEL", "UNITS", "TEXT", "BYTES", "WIDE", "ROUND TRIP"}

func (r report) row() []string {
	verdict := "ok"
	switch {
	case r.Err != nil:
		verdict = "error: " + r.Err.Error()
	case !r.RoundTrip:
		verdict = "LOST"
	}
	return []string{r.Source, r.Model, r.Units, r.CodePoints, count(r.Bytes), count(r.Wide), verdict}
}

func count(n int) string {
	if n < 0 {
		return "-"
	}
	return strconv.Itoa(n)
}

func render(w io.Writer, runtimeName string, reports []report, styled bool) {
	rows := make([][]string, len(reports))
	for i, r := range reports {
		rows[i] = r.row()
	}

	if !styled {
		fmt.Fprintf(w, "runtime: %s\n", runtimeName)
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, strings.Join(headers, "\t"))
		for _, row := range rows {
			fmt.Fprintln(tw, strings.Join(row, "\t"))
		}
		tw.Flush()
		return
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row < 0 || row >= len(reports):
				return cellStyle
			case col == len(headers)-1 && reports[row].Err == nil && reports[row].RoundTrip:
				return okStyle
			case col == len(headers)-1:
				return errorStyle
			}
			return cellStyle
		})
	fmt.Fprintln(w, titleStyle.Render("runtime: "+runtimeName))
	fmt.Fprintln(w, t.Render())
}
