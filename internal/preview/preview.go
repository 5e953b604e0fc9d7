// Package preview renders the ranked entity list for display: formatted
// currency strings, the count message, and markdown rendered for a terminal
// (glamour) or a web page (goldmark).
package preview

import (
	"bytes"
	"fmt"
	"html/template"
	"math"
	"strconv"
	"strings"

	money "github.com/Rhymond/go-money"
	"github.com/charmbracelet/glamour"
	"github.com/ginjaninja78/ifrs-report/internal/types"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// usd formats whole dollars: "$" prefix, "," thousands, no decimals.
var usd = money.NewFormatter(0, ".", ",", "$", "$1")

// Row is one entity with its value columns formatted for display.
type Row struct {
	CodigoEntidad string `json:"codigo_entidad" yaml:"codigo_entidad"`
	NombreEntidad string `json:"nombre_entidad" yaml:"nombre_entidad"`
	IngresosUSD   string `json:"ingresos_usd" yaml:"ingresos_usd"`
	DeudoresUSD   string `json:"deudores_usd" yaml:"deudores_usd"`
	MaxUSD        string `json:"max_usd" yaml:"max_usd"`
}

// Values returns the cells of the row in column order.
func (r Row) Values() []string {
	return []string{r.CodigoEntidad, r.NombreEntidad, r.IngresosUSD, r.DeudoresUSD, r.MaxUSD}
}

// FormatUSD renders an amount as "$1,234,568". Halves round to even.
// A missing amount renders as an empty string.
func FormatUSD(a types.Amount) string {
	if !a.Valid || math.IsNaN(a.Value) {
		return ""
	}

	rounded := math.RoundToEven(a.Value)
	if math.Abs(rounded) >= math.MaxInt64 {
		// Out of int64 range, so no thousands separators.
		return "$" + strconv.FormatFloat(rounded, 'f', 0, 64)
	}
	return usd.Format(int64(rounded))
}

// Rows formats every entity.
func Rows(entities []types.EntitySummary) []Row {
	rows := make([]Row, len(entities))
	for i, e := range entities {
		rows[i] = Row{
			CodigoEntidad: e.CodigoEntidad,
			NombreEntidad: e.NombreEntidad,
			IngresosUSD:   FormatUSD(e.IngresosUSD),
			DeudoresUSD:   FormatUSD(e.DeudoresUSD),
			MaxUSD:        FormatUSD(e.MaxUSD),
		}
	}
	return rows
}

// Message is the informational line shown with the preview, e.g.
// "Se encontraron 3 empresas sobre 40,000,000 USD."
func Message(count int, threshold float64) string {
	return fmt.Sprintf("Se encontraron %d empresas sobre %s USD.", count, thousands(threshold))
}

// thousands renders a value like FormatUSD without the currency symbol.
func thousands(v float64) string {
	return strings.Replace(FormatUSD(types.Some(v)), "$", "", 1)
}

// Markdown renders the rows as a GitHub-flavoured markdown table.
func Markdown(rows []Row) string {
	var b strings.Builder

	b.WriteString("| " + strings.Join(types.Columns, " | ") + " |\n")
	b.WriteString("|:---|:---|---:|---:|---:|\n")
	for _, row := range rows {
		cells := row.Values()
		for i, cell := range cells {
			cells[i] = escapeCell(cell)
		}
		fmt.Fprintf(&b, "| %s |\n", strings.Join(cells, " | "))
	}
	return b.String()
}

// Document renders a complete markdown report: title, message and table.
func Document(title, message string, rows []Row) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "%s\n\n", message)
	if len(rows) > 0 {
		b.WriteString(Markdown(rows))
	}
	return b.String()
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}

// Terminal renders markdown for a terminal with glamour. style is a glamour
// standard style name ("dark", "light", "notty", ...) or "auto".
func Terminal(md, style string) (string, error) {
	if style == "" {
		style = "auto"
	}

	renderer, err := glamour.NewTermRenderer(glamour.WithStandardStyle(style), glamour.WithWordWrap(0))
	if err != nil {
		return "", fmt.Errorf("failed to create terminal renderer: %w", err)
	}

	out, err := renderer.Render(md)
	if err != nil {
		return "", fmt.Errorf("failed to render preview: %w", err)
	}
	return out, nil
}

var htmlRenderer = goldmark.New(goldmark.WithExtensions(extension.Table))

// HTML renders markdown to HTML with table support. Raw HTML in the input
// is not passed through.
func HTML(md string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := htmlRenderer.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("failed to render preview: %w", err)
	}
	return template.HTML(buf.String()), nil
}
