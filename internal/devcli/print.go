package devcli

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	jsoniter "github.com/json-iterator/go"

	"github.com/steven3002/datamarket-go/market"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Styles for status lines.
var (
	styleOK    = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	styleWarn  = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	styleError = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	styleMuted = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Printer renders command results as tables or JSON.
type Printer struct {
	Out    io.Writer
	Format string
}

// NewPrinter returns a Printer writing format to w.
func NewPrinter(w io.Writer, format string) *Printer {
	return &Printer{Out: w, Format: format}
}

// JSON reports whether output is machine readable.
func (p *Printer) JSON() bool { return p.Format == OutputJSON }

// PrintJSON prints a value as indented JSON.
func (p *Printer) PrintJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(p.Out, string(b))
	return err
}

// Datasets prints a dataset list.
func (p *Printer) Datasets(ds []market.Dataset) error {
	if p.JSON() {
		return p.PrintJSON(ds)
	}
	if len(ds) == 0 {
		_, _ = fmt.Fprintln(p.Out, "(0 datasets)")
		return nil
	}
	t := p.table()
	t.AppendHeader(table.Row{"ID", "Title", "Provider", "Category", "Frequency", "Pricing", "Access", "Rating", "Sample"})
	for _, d := range ds {
		sample := ""
		if market.PreviewAvailable(d) {
			sample = market.ExtractTableName(d.SampleURL)
		}
		t.AppendRow(table.Row{
			d.ID, d.Title, d.Provider.Name, d.Category, d.Frequency,
			price(d), d.AccessLevel, fmt.Sprintf("%.1f (%d)", d.Rating, d.RatingsCount), sample,
		})
	}
	t.Render()
	_, _ = fmt.Fprintf(p.Out, "(%d datasets)\n", len(ds))
	return nil
}

// Dataset prints one dataset as key/value pairs.
func (p *Printer) Dataset(d *market.Dataset) error {
	if p.JSON() {
		return p.PrintJSON(d)
	}
	t := p.table()
	rows := []table.Row{
		{"ID", d.ID},
		{"Title", d.Title},
		{"Description", d.Description},
		{"Provider", providerName(d.Provider)},
		{"Category", d.Category},
		{"Frequency", d.Frequency},
		{"Pricing", price(*d)},
		{"Access", d.AccessLevel},
		{"Formats", strings.Join(d.Formats, ", ")},
		{"Coverage", strings.Join(d.GeographicCoverage, ", ")},
		{"Tags", strings.Join(d.Tags, ", ")},
		{"Quality", d.QualityScore},
	}
	if !d.LastUpdated.IsZero() {
		rows = append(rows, table.Row{"Last updated", d.LastUpdated.Format("2006-01-02")})
	}
	if d.TimeRange != nil {
		end := "present"
		if d.TimeRange.End != nil {
			end = d.TimeRange.End.Format("2006-01-02")
		}
		rows = append(rows, table.Row{"Time range", d.TimeRange.Start.Format("2006-01-02") + " to " + end})
	}
	if market.PreviewAvailable(*d) {
		rows = append(rows, table.Row{"Sample", d.SampleURL})
	}
	t.AppendRows(rows)
	t.Render()
	return nil
}

// Stats prints catalogue counts with categories sorted by name.
func (p *Printer) Stats(s *market.DatasetStats) error {
	if p.JSON() {
		return p.PrintJSON(s)
	}
	_, _ = fmt.Fprintf(p.Out, "Datasets: %d  Providers: %d\n", s.TotalDatasets, s.TotalProviders)
	names := make([]string, 0, len(s.CategoryCounts))
	for name := range s.CategoryCounts {
		names = append(names, name)
	}
	sort.Strings(names)
	t := p.table()
	t.AppendHeader(table.Row{"Category", "Datasets"})
	for _, name := range names {
		t.AppendRow(table.Row{name, s.CategoryCounts[name]})
	}
	t.Render()
	return nil
}

// Preview prints a table preview with columns in payload order.
func (p *Printer) Preview(tp *market.TablePreview) error {
	if p.JSON() {
		return p.PrintJSON(tp)
	}
	if tp.TableName != "" {
		_, _ = fmt.Fprintln(p.Out, styleMuted.Render(tp.TableName))
	}
	cols := tp.ColumnNames()
	header := make(table.Row, len(tp.Columns))
	for i, c := range tp.Columns {
		header[i] = c.Name + "\n" + market.FormatDataType(c.Type)
	}
	t := p.table()
	t.AppendHeader(header)
	for _, r := range tp.Rows {
		row := make(table.Row, len(cols))
		for i, c := range cols {
			row[i] = formatValue(r[c])
		}
		t.AppendRow(row)
	}
	t.Render()
	_, _ = fmt.Fprintf(p.Out, "(%d rows, limit %d)\n", tp.RowCount, tp.PreviewLimit)
	return nil
}

// Unavailable prints the message shown for failed and empty previews.
func (p *Printer) Unavailable(ref string, err error) error {
	if p.JSON() {
		return p.PrintJSON(map[string]any{"table_reference": ref, "available": false, "error": errString(err)})
	}
	_, err2 := fmt.Fprintf(p.Out, "%s %s\n", styleWarn.Render("Preview not available:"), errString(err))
	return err2
}

// Status prints a labelled status line.
func (p *Printer) Status(label string, ok bool, detail string) {
	mark := styleOK.Render("ok")
	if !ok {
		mark = styleError.Render("fail")
	}
	_, _ = fmt.Fprintf(p.Out, "%-12s %s %s\n", label, mark, detail)
}

// Note prints a muted informational line.
func (p *Printer) Note(format string, a ...any) {
	_, _ = fmt.Fprintln(p.Out, styleMuted.Render(fmt.Sprintf(format, a...)))
}

func (p *Printer) table() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(p.Out)
	t.SetStyle(table.StyleLight)
	return t
}

func price(d market.Dataset) string {
	if d.PricingModel == market.PricingFree || d.Price == 0 {
		return string(d.PricingModel)
	}
	return fmt.Sprintf("%s %s %s", d.PricingModel, strconv.FormatFloat(d.Price, 'f', -1, 64), d.Currency)
}

func providerName(p market.Provider) string {
	if p.Verified {
		return p.Name + " (verified)"
	}
	return p.Name
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
