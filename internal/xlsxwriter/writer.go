// =============================================================================
// IFRS Report - XLSX Export
// =============================================================================
//
// This module serializes the ranked entity list into a single-sheet workbook
// held entirely in memory. The layout is:
//
//   | A              | B              | C            | D            | E       |
//   |----------------|----------------|--------------|--------------|---------|
//   | codigo_entidad | nombre_entidad | ingresos_usd | deudores_usd | max_usd |
//   | 76543210       | Alfa S.A.      | 40000000     |              | 40000000|
//
//   - Row 1 is a bold header with the column names
//   - Value columns hold unformatted numbers with an accounting number format
//   - A missing value is an empty cell
//   - Each column is as wide as its longest rendered value (header included)
//     plus a small margin
//
// The output depends only on the entity list: exporting the same list twice
// yields the same cell values and column widths.
//
// =============================================================================

package xlsxwriter

import (
	"bytes"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/ginjaninja78/ifrs-report/internal/preview"
	"github.com/ginjaninja78/ifrs-report/internal/types"
	"github.com/xuri/excelize/v2"
)

// Download properties of the workbook.
const (
	FileName    = "empresas_grandes_ifrs.xlsx"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	SheetName   = "Empresas"
)

// AccountingFormat is the number format applied to the value columns.
const AccountingFormat = `_($* #,##0_);_($* (#,##0);_($* "-"??_);_(@_)`

// WidthMargin is added to the longest rendered value of each column.
const WidthMargin = 2

// textColumns is the number of leading text columns; the rest are amounts.
const textColumns = 2

// Options controls optional workbook metadata.
type Options struct {
	// Title is stored in the document properties when set.
	Title string
}

// =============================================================================
// EXPORT
// =============================================================================

// Export writes the entities to a new workbook.
//
// PARAMETERS:
//   - entities: The ranked entity list.
//   - opts: Optional workbook metadata.
//
// RETURNS:
//   - The workbook bytes.
//   - An error if the workbook cannot be built.
func Export(entities []types.EntitySummary, opts Options) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	if opts.Title != "" {
		if err := f.SetDocProps(&excelize.DocProperties{Title: opts.Title, Creator: "ifrs-report"}); err != nil {
			return nil, fmt.Errorf("failed to set document properties: %w", err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	accountingFormat := AccountingFormat
	valueStyle, err := f.NewStyle(&excelize.Style{
		CustomNumFmt: &accountingFormat,
		Alignment:    &excelize.Alignment{Horizontal: "right"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create value style: %w", err)
	}

	// Header row.
	for i, column := range types.Columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(SheetName, cell, column); err != nil {
			return nil, fmt.Errorf("failed to write header %s: %w", column, err)
		}
	}
	if err := f.SetCellStyle(SheetName, "A1", lastColumn()+"1", headerStyle); err != nil {
		return nil, fmt.Errorf("failed to style header: %w", err)
	}

	// Data rows.
	for i, entity := range entities {
		row := i + 2
		if err := writeRow(f, row, entity); err != nil {
			return nil, err
		}
	}

	if len(entities) > 0 {
		first, _ := excelize.CoordinatesToCellName(textColumns+1, 2)
		last, _ := excelize.CoordinatesToCellName(len(types.Columns), len(entities)+1)
		if err := f.SetCellStyle(SheetName, first, last, valueStyle); err != nil {
			return nil, fmt.Errorf("failed to style values: %w", err)
		}
	}

	// Column widths.
	for i, width := range ColumnWidths(entities) {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(SheetName, name, name, width); err != nil {
			return nil, fmt.Errorf("failed to size column %s: %w", name, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf, nil
}

// writeRow writes one entity. Missing amounts leave the cell empty.
func writeRow(f *excelize.File, row int, entity types.EntitySummary) error {
	values := []interface{}{entity.CodigoEntidad, entity.NombreEntidad}
	for _, amount := range amounts(entity) {
		if amount.Valid {
			values = append(values, amount.Value)
		} else {
			values = append(values, nil)
		}
	}

	for col, value := range values {
		if value == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(SheetName, cell, value); err != nil {
			return fmt.Errorf("failed to write cell %s: %w", cell, err)
		}
	}
	return nil
}

// =============================================================================
// COLUMN WIDTHS
// =============================================================================

// ColumnWidths returns the width of every report column: the rune length of
// the longest rendered value, header included, plus WidthMargin, capped at
// excelize.MaxColumnWidth. Amounts are measured as rendered in the preview
// ("$40,000,000").
func ColumnWidths(entities []types.EntitySummary) []float64 {
	longest := make([]int, len(types.Columns))
	for i, column := range types.Columns {
		longest[i] = utf8.RuneCountInString(column)
	}

	for _, row := range preview.Rows(entities) {
		for i, value := range row.Values() {
			if n := utf8.RuneCountInString(value); n > longest[i] {
				longest[i] = n
			}
		}
	}

	widths := make([]float64, len(longest))
	for i, n := range longest {
		widths[i] = math.Min(float64(n+WidthMargin), excelize.MaxColumnWidth)
	}
	return widths
}

func amounts(entity types.EntitySummary) []types.Amount {
	return []types.Amount{entity.IngresosUSD, entity.DeudoresUSD, entity.MaxUSD}
}

func lastColumn() string {
	name, _ := excelize.ColumnNumberToName(len(types.Columns))
	return name
}
