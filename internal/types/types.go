// =============================================================================
// IFRS Report - Shared Types
// =============================================================================
//
// This package contains the data model shared by every stage of the report
// pipeline. Types defined here are used by:
//   - csvparser   (RawRecord)
//   - normalize   (RawRecord)
//   - converter   (Record, EntitySummary)
//   - preview     (EntitySummary)
//   - xlsxwriter  (EntitySummary)
//
// =============================================================================

package types

import "math"

// =============================================================================
// COLUMN NAMES
// =============================================================================

// Column names of the entity report, in output order.
const (
	ColumnCodigoEntidad = "codigo_entidad"
	ColumnNombreEntidad = "nombre_entidad"
	ColumnIngresosUSD   = "ingresos_usd"
	ColumnDeudoresUSD   = "deudores_usd"
	ColumnMaxUSD        = "max_usd"
)

// Columns lists the report columns in the order they are rendered.
var Columns = []string{
	ColumnCodigoEntidad,
	ColumnNombreEntidad,
	ColumnIngresosUSD,
	ColumnDeudoresUSD,
	ColumnMaxUSD,
}

// FieldCount is the number of positional fields in one line of the IFRS extract.
const FieldCount = 9

// =============================================================================
// AMOUNT
// =============================================================================

// Amount is a monetary value that may be missing.
// The zero value is a missing amount.
type Amount struct {
	Value float64
	Valid bool
}

// Some returns a present amount.
func Some(v float64) Amount {
	return Amount{Value: v, Valid: true}
}

// None returns a missing amount.
func None() Amount {
	return Amount{}
}

// Max returns the greater of two amounts. A missing amount never wins the
// comparison, so Max of two missing amounts is missing.
func Max(a, b Amount) Amount {
	switch {
	case !a.Valid:
		return b
	case !b.Valid:
		return a
	}
	return Some(math.Max(a.Value, b.Value))
}

// AtLeast reports whether the amount is present and >= threshold.
func (a Amount) AtLeast(threshold float64) bool {
	return a.Valid && a.Value >= threshold
}

// =============================================================================
// RECORDS
// =============================================================================

// RawRecord is one line of the extract with every field kept as text.
type RawRecord struct {
	Periodo       string
	CodigoEntidad string
	NombreEntidad string
	Tipo          string
	Moneda        string
	Cuenta        string
	Monto         string
	Taxonomia     string
	Origen        string

	// Line is the 1-based line number in the source file.
	Line int
}

// NewRawRecord builds a RawRecord from the nine positional fields of a line.
// The caller guarantees len(fields) == FieldCount.
func NewRawRecord(fields []string, line int) RawRecord {
	return RawRecord{
		Periodo:       fields[0],
		CodigoEntidad: fields[1],
		NombreEntidad: fields[2],
		Tipo:          fields[3],
		Moneda:        fields[4],
		Cuenta:        fields[5],
		Monto:         fields[6],
		Taxonomia:     fields[7],
		Origen:        fields[8],
		Line:          line,
	}
}

// Map applies fn to each of the nine textual fields and returns the result.
func (r RawRecord) Map(fn func(string) string) RawRecord {
	return RawRecord{
		Periodo:       fn(r.Periodo),
		CodigoEntidad: fn(r.CodigoEntidad),
		NombreEntidad: fn(r.NombreEntidad),
		Tipo:          fn(r.Tipo),
		Moneda:        fn(r.Moneda),
		Cuenta:        fn(r.Cuenta),
		Monto:         fn(r.Monto),
		Taxonomia:     fn(r.Taxonomia),
		Origen:        fn(r.Origen),
		Line:          r.Line,
	}
}

// Record is a normalized RawRecord with its amount parsed and converted to
// the reference currency.
type Record struct {
	RawRecord

	// Amount is the parsed Monto field, missing if unparsable.
	Amount Amount

	// MontoUSD is Amount expressed in USD, missing when the amount or the
	// currency cannot be converted.
	MontoUSD Amount
}

// =============================================================================
// ENTITY SUMMARY
// =============================================================================

// EntitySummary is one row of the pivoted report: a reporting entity with the
// USD value of each target line item.
type EntitySummary struct {
	CodigoEntidad string
	NombreEntidad string
	IngresosUSD   Amount
	DeudoresUSD   Amount
	MaxUSD        Amount
}

// Key identifies the entity.
type Key struct {
	CodigoEntidad string
	NombreEntidad string
}

// Key returns the grouping key of the summary.
func (s EntitySummary) Key() Key {
	return Key{CodigoEntidad: s.CodigoEntidad, NombreEntidad: s.NombreEntidad}
}
