package extract

import "testing"

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"R$ 2 bilhões", 2e9, true},
		{"R$ 2,5 milhões", 2.5e6, true},
		{"R$ 1.500.000", 1.5e6, true},
		{"R$ 1.500,50", 1500.5, true},
		{"R$ 300 mil", 3e5, true},
		{"R$ 2.5 bilhões", 2.5e9, true},
		{"30%", 0, false},
		{"1.000", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseAmount(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseAmount(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestLargestAmount(t *testing.T) {
	got := LargestAmount([]string{"30%", "R$ 300 mil", "R$ 2 milhões"})
	if got != 2e6 {
		t.Errorf("Expected 2e6, got %v", got)
	}
	if LargestAmount(nil) != 0 {
		t.Error("Expected 0 for no numbers")
	}
}
