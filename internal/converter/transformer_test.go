package converter

import (
	"testing"

	"github.com/ginjaninja78/ifrs-report/internal/types"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input    string
		expected types.Amount
	}{
		{"40000000000", types.Some(40_000_000_000)},
		{" 15 ", types.Some(15)},
		{"1.5", types.Some(1.5)},
		{"-20", types.Some(-20)},
		{"3.5e3", types.Some(3500)},
		{"", types.None()},
		{"   ", types.None()},
		{"abc", types.None()},
		{"1,5", types.None()},
		{"1.000.000", types.None()},
		{"1e400", types.None()},
		{"-1e400", types.None()},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if result := ParseAmount(tt.input); result != tt.expected {
				t.Errorf("ParseAmount(%q) = %+v, expected %+v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestToUSD(t *testing.T) {
	tests := []struct {
		name     string
		amount   types.Amount
		moneda   string
		rate     float64
		expected types.Amount
	}{
		{"CLP divides by rate", types.Some(40_000_000_000), "CLP", 1000, types.Some(40_000_000)},
		{"CLP just under", types.Some(39_999_999_999), "CLP", 1000, types.Some(39_999_999.999)},
		{"USD unchanged", types.Some(123.45), "USD", 950, types.Some(123.45)},
		{"EUR missing", types.Some(1e12), "EUR", 1000, types.None()},
		{"Lowercase code missing", types.Some(100), "clp", 1000, types.None()},
		{"Empty code missing", types.Some(100), "", 1000, types.None()},
		{"Missing amount CLP", types.None(), "CLP", 1000, types.None()},
		{"Missing amount USD", types.None(), "USD", 1000, types.None()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := ToUSD(tt.amount, tt.moneda, tt.rate); result != tt.expected {
				t.Errorf("ToUSD = %+v, expected %+v", result, tt.expected)
			}
		})
	}
}

func TestToUSDIgnoresRateForUSD(t *testing.T) {
	amount := types.Some(75_000_000)
	for _, rate := range []float64{100, 512.5, 1000, 2000} {
		if result := ToUSD(amount, CurrencyUSD, rate); result != amount {
			t.Errorf("rate %v: ToUSD = %+v, expected %+v", rate, result, amount)
		}
	}
}

func TestToUSDDoublingRateHalvesValue(t *testing.T) {
	amounts := []float64{1, 12345.678, 40_000_000_000, 987_654_321_987}
	rates := []float64{100, 333, 850.25, 1000}

	for _, amount := range amounts {
		for _, rate := range rates {
			single := ToUSD(types.Some(amount), CurrencyCLP, rate)
			double := ToUSD(types.Some(amount), CurrencyCLP, rate*2)

			if single.Value != amount/rate {
				t.Errorf("ToUSD(%v, %v) = %v, expected %v", amount, rate, single.Value, amount/rate)
			}
			if double.Value != single.Value/2 {
				t.Errorf("doubling rate %v for %v gave %v, expected %v", rate, amount, double.Value, single.Value/2)
			}
		}
	}
}

func TestTransform(t *testing.T) {
	raw := types.RawRecord{
		Periodo:       "202312",
		CodigoEntidad: "76543210",
		NombreEntidad: "Compañía Minera",
		Tipo:          "C",
		Moneda:        "CLP",
		Cuenta:        "Ingresos de actividades ordinarias",
		Monto:         "5000000",
		Line:          3,
	}

	record := Transform(raw, 500)

	if record.NombreEntidad != "Compania Minera" {
		t.Errorf("NombreEntidad = %q, expected normalized name", record.NombreEntidad)
	}
	if record.Amount != types.Some(5_000_000) {
		t.Errorf("Amount = %+v", record.Amount)
	}
	if record.MontoUSD != types.Some(10_000) {
		t.Errorf("MontoUSD = %+v", record.MontoUSD)
	}
	if record.Line != 3 {
		t.Errorf("Line = %d, expected 3", record.Line)
	}
}

func TestTransformAllKeepsOrder(t *testing.T) {
	raws := []types.RawRecord{
		{CodigoEntidad: "b", Moneda: "USD", Monto: "1"},
		{CodigoEntidad: "a", Moneda: "USD", Monto: "2"},
	}

	records := TransformAll(raws, 1000)
	if len(records) != 2 || records[0].CodigoEntidad != "b" || records[1].CodigoEntidad != "a" {
		t.Errorf("unexpected records %+v", records)
	}
}
