package arith

import "testing"

func lookupMap(m map[string]int64) Lookup {
	return func(name string) (int64, bool) {
		v, ok := m[name]
		return v, ok
	}
}

func TestEvalArithmetic(t *testing.T) {
	lookup := lookupMap(map[string]int64{"x": 4, "y": 2})

	tests := []struct {
		expr string
		want int64
	}{
		{"1+2", 3},
		{"2 * 3 + 4", 10},
		{"2 + 3 * 4", 14},
		{"(2 + 3) * 4", 20},
		{"10 / 3", 3},
		{"10 % 3", 1},
		{"-5 + 2", -3},
		{"x + y", 6},
		{"x * (y - 1)", 4},
	}
	for _, tt := range tests {
		got, err := Eval(tt.expr, lookup)
		if err != nil {
			t.Errorf("Eval(%q) error: %v", tt.expr, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Eval(%q) = %d, want %d", tt.expr, got, tt.want)
		}
	}
}

func TestEvalErrors(t *testing.T) {
	lookup := lookupMap(nil)

	tests := []string{
		"1 / 0",
		"1 % 0",
		"undefined_var",
		"1 +",
		"(1 + 2",
		"1 $ 2",
	}
	for _, expr := range tests {
		if _, err := Eval(expr, lookup); err == nil {
			t.Errorf("Eval(%q) expected an error, got nil", expr)
		}
	}
}

func TestStripParens(t *testing.T) {
	inner, ok := StripParens("$((1 + 2))")
	if !ok || inner != "1 + 2" {
		t.Errorf("StripParens = %q, %v, want %q, true", inner, ok, "1 + 2")
	}
	if _, ok := StripParens("1 + 2"); ok {
		t.Errorf("StripParens should reject text without the $((...)) wrapper")
	}
}
