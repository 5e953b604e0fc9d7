package types

import "testing"

func TestMax(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Amount
		expected Amount
	}{
		{"Both present, first larger", Some(10), Some(5), Some(10)},
		{"Both present, second larger", Some(5), Some(10), Some(10)},
		{"First missing", None(), Some(7), Some(7)},
		{"Second missing", Some(7), None(), Some(7)},
		{"Both missing", None(), None(), None()},
		{"Negative values", Some(-3), Some(-1), Some(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Max(tt.a, tt.b)
			if result != tt.expected {
				t.Errorf("Max(%v, %v) = %v, expected %v", tt.a, tt.b, result, tt.expected)
			}
		})
	}
}

func TestAtLeast(t *testing.T) {
	if !Some(40_000_000).AtLeast(40_000_000) {
		t.Error("expected boundary value to pass")
	}
	if Some(39_999_999.999).AtLeast(40_000_000) {
		t.Error("expected value below threshold to fail")
	}
	if None().AtLeast(0) {
		t.Error("expected missing amount to fail any threshold")
	}
}

func TestRawRecordMap(t *testing.T) {
	fields := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i"}
	rec := NewRawRecord(fields, 3)

	mapped := rec.Map(func(s string) string { return s + s })

	if mapped.Periodo != "aa" || mapped.Origen != "ii" || mapped.Monto != "gg" {
		t.Errorf("unexpected mapped record: %+v", mapped)
	}
	if mapped.Line != 3 {
		t.Errorf("expected line to be preserved, got %d", mapped.Line)
	}
}
