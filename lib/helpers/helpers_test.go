package helpers

import "testing"

func TestFormatPrice(t *testing.T) {
	cases := []struct {
		price float64
		want  string
	}{
		{1234.5, "1,234.50"},
		{1500, "1,500.00"},
		{2.5, "2.50"},
		{0.5, "0.500000"},
		{0.000001, "0.00000100"},
	}

	for _, tc := range cases {
		if got := FormatPrice(tc.price); got != tc.want {
			t.Errorf("FormatPrice(%v) = %q, want %q", tc.price, got, tc.want)
		}
	}
}
