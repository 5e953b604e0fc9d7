package converter

import (
	"sort"

	"github.com/ginjaninja78/ifrs-report/internal/normalize"
	"github.com/ginjaninja78/ifrs-report/internal/types"
)

// Target line items, as written in the extract before normalization.
const (
	RevenueLineItem     = "Ingresos de actividades ordinarias"
	ReceivablesLineItem = "Deudores comerciales y otras cuentas por cobrar corrientes"
)

// LineItems names the two cuenta values that feed the report.
type LineItems struct {
	// Revenue feeds the ingresos_usd column.
	Revenue string

	// Receivables feeds the deudores_usd column.
	Receivables string
}

// DefaultLineItems returns the IFRS revenue and trade receivables line items.
func DefaultLineItems() LineItems {
	return LineItems{Revenue: RevenueLineItem, Receivables: ReceivablesLineItem}
}

// Normalized returns the line items as they appear after text normalization.
func (l LineItems) Normalized() LineItems {
	return LineItems{Revenue: normalize.Text(l.Revenue), Receivables: normalize.Text(l.Receivables)}
}

// Contains reports whether cuenta equals one of the line items exactly.
// Compare normalized records against Normalized line items.
func (l LineItems) Contains(cuenta string) bool {
	return cuenta == l.Revenue || cuenta == l.Receivables
}

// Pivot keeps the records of the two line items and reshapes them into one
// summary per (codigo_entidad, nombre_entidad).
//
// Within an entity the first present MontoUSD of each line item wins; later
// duplicates are discarded. An empty code or name is a key like any other.
// Summaries are ordered by code, then name. MaxUSD is left for Rank.
func Pivot(records []types.Record, items LineItems) []types.EntitySummary {
	targets := items.Normalized()

	summaries := []types.EntitySummary{}
	index := make(map[types.Key]int)

	for _, record := range records {
		revenue := record.Cuenta == targets.Revenue
		if !revenue && record.Cuenta != targets.Receivables {
			continue
		}

		key := types.Key{CodigoEntidad: record.CodigoEntidad, NombreEntidad: record.NombreEntidad}
		i, ok := index[key]
		if !ok {
			i = len(summaries)
			index[key] = i
			summaries = append(summaries, types.EntitySummary{
				CodigoEntidad: record.CodigoEntidad,
				NombreEntidad: record.NombreEntidad,
			})
		}

		summary := &summaries[i]
		if revenue {
			if !summary.IngresosUSD.Valid {
				summary.IngresosUSD = record.MontoUSD
			}
		} else if !summary.DeudoresUSD.Valid {
			summary.DeudoresUSD = record.MontoUSD
		}
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].CodigoEntidad != summaries[j].CodigoEntidad {
			return summaries[i].CodigoEntidad < summaries[j].CodigoEntidad
		}
		return summaries[i].NombreEntidad < summaries[j].NombreEntidad
	})

	return summaries
}
