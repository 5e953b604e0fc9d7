package converter

import (
	"testing"

	"github.com/ginjaninja78/ifrs-report/internal/types"
)

func record(codigo, nombre, cuenta string, usd types.Amount) types.Record {
	return types.Record{
		RawRecord: types.RawRecord{CodigoEntidad: codigo, NombreEntidad: nombre, Cuenta: cuenta},
		MontoUSD:  usd,
	}
}

func TestPivot(t *testing.T) {
	records := []types.Record{
		record("2", "Beta", RevenueLineItem, types.Some(10)),
		record("1", "Alfa", ReceivablesLineItem, types.Some(20)),
		record("1", "Alfa", RevenueLineItem, types.Some(30)),
		record("1", "Alfa", "Efectivo y equivalentes al efectivo", types.Some(1e12)),
		record("2", "Beta", RevenueLineItem, types.Some(99)),
		record("3", "Gamma", "Otra cuenta", types.Some(5)),
	}

	summaries := Pivot(records, DefaultLineItems())
	if len(summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d: %+v", len(summaries), summaries)
	}

	alfa, beta := summaries[0], summaries[1]
	if alfa.CodigoEntidad != "1" || beta.CodigoEntidad != "2" {
		t.Fatalf("unexpected order: %+v", summaries)
	}

	if alfa.IngresosUSD != types.Some(30) || alfa.DeudoresUSD != types.Some(20) {
		t.Errorf("unexpected Alfa values: %+v", alfa)
	}
	if beta.IngresosUSD != types.Some(10) {
		t.Errorf("expected first Beta revenue to win, got %+v", beta.IngresosUSD)
	}
	if beta.DeudoresUSD.Valid {
		t.Errorf("expected Beta receivables missing, got %+v", beta.DeudoresUSD)
	}
	if alfa.MaxUSD.Valid || beta.MaxUSD.Valid {
		t.Error("Pivot should not compute MaxUSD")
	}
}

func TestPivotFirstPresentValueWins(t *testing.T) {
	records := []types.Record{
		record("1", "Alfa", RevenueLineItem, types.None()),
		record("1", "Alfa", RevenueLineItem, types.Some(7)),
		record("1", "Alfa", RevenueLineItem, types.Some(8)),
	}

	summaries := Pivot(records, DefaultLineItems())
	if len(summaries) != 1 || summaries[0].IngresosUSD != types.Some(7) {
		t.Errorf("unexpected summaries %+v", summaries)
	}
}

func TestPivotGroupsByCodeAndName(t *testing.T) {
	records := []types.Record{
		record("1", "Alfa", RevenueLineItem, types.Some(1)),
		record("1", "Alfa S.A.", RevenueLineItem, types.Some(2)),
		record("", "Sin codigo", RevenueLineItem, types.Some(3)),
		record("4", "", RevenueLineItem, types.Some(4)),
	}

	summaries := Pivot(records, DefaultLineItems())

	expected := []types.Key{
		{CodigoEntidad: "", NombreEntidad: "Sin codigo"},
		{CodigoEntidad: "1", NombreEntidad: "Alfa"},
		{CodigoEntidad: "1", NombreEntidad: "Alfa S.A."},
		{CodigoEntidad: "4", NombreEntidad: ""},
	}
	if len(summaries) != len(expected) {
		t.Fatalf("expected %d summaries, got %+v", len(expected), summaries)
	}
	for i, key := range expected {
		if summaries[i].Key() != key {
			t.Errorf("summary %d: key = %+v, expected %+v", i, summaries[i].Key(), key)
		}
	}
}

func TestPivotNormalizesLineItems(t *testing.T) {
	items := LineItems{Revenue: "Ingresos por ventas de energía", Receivables: "Cuentas por cobrar a compañías"}

	records := []types.Record{
		record("1", "Alfa", "Ingresos por ventas de energia", types.Some(1)),
		record("1", "Alfa", "Cuentas por cobrar a companias", types.Some(2)),
	}

	summaries := Pivot(records, items)
	if len(summaries) != 1 {
		t.Fatalf("expected 1 summary, got %+v", summaries)
	}
	if summaries[0].IngresosUSD != types.Some(1) || summaries[0].DeudoresUSD != types.Some(2) {
		t.Errorf("unexpected values %+v", summaries[0])
	}
}

func TestPivotKeepsEntityWithoutValues(t *testing.T) {
	summaries := Pivot([]types.Record{record("1", "Alfa", RevenueLineItem, types.None())}, DefaultLineItems())
	if len(summaries) != 1 || summaries[0].IngresosUSD.Valid || summaries[0].DeudoresUSD.Valid {
		t.Errorf("unexpected summaries %+v", summaries)
	}
}

func TestLineItemsContains(t *testing.T) {
	items := DefaultLineItems().Normalized()
	if !items.Contains(RevenueLineItem) || !items.Contains(ReceivablesLineItem) {
		t.Error("expected both default line items to match")
	}
	if items.Contains("ingresos de actividades ordinarias") {
		t.Error("comparison must be exact")
	}
}

func TestRank(t *testing.T) {
	summaries := []types.EntitySummary{
		{CodigoEntidad: "1", IngresosUSD: types.Some(50_000_000), DeudoresUSD: types.Some(60_000_000)},
		{CodigoEntidad: "2", IngresosUSD: types.Some(39_999_999.999)},
		{CodigoEntidad: "3", DeudoresUSD: types.Some(40_000_000)},
		{CodigoEntidad: "4"},
		{CodigoEntidad: "5", IngresosUSD: types.Some(90_000_000), DeudoresUSD: types.None()},
		{CodigoEntidad: "6", IngresosUSD: types.Some(60_000_000)},
	}

	ranked := Rank(summaries, DefaultThreshold)

	expectedCodes := []string{"5", "1", "6", "3"}
	if len(ranked) != len(expectedCodes) {
		t.Fatalf("expected %d entities, got %d: %+v", len(expectedCodes), len(ranked), ranked)
	}
	for i, code := range expectedCodes {
		if ranked[i].CodigoEntidad != code {
			t.Errorf("position %d: got %s, expected %s", i, ranked[i].CodigoEntidad, code)
		}
	}

	if ranked[1].MaxUSD != types.Some(60_000_000) {
		t.Errorf("unexpected MaxUSD %+v", ranked[1].MaxUSD)
	}
	if summaries[0].MaxUSD.Valid {
		t.Error("Rank must not modify its input")
	}
}

func TestRankAlternateThreshold(t *testing.T) {
	summaries := []types.EntitySummary{
		{CodigoEntidad: "1", IngresosUSD: types.Some(10)},
		{CodigoEntidad: "2", IngresosUSD: types.Some(-5)},
	}

	ranked := Rank(summaries, 0)
	if len(ranked) != 1 || ranked[0].CodigoEntidad != "1" {
		t.Errorf("unexpected ranking %+v", ranked)
	}
}
