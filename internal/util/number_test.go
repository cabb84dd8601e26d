package util

import "testing"

func TestParseNumber(t *testing.T) {
	cases := []struct {
		input string
		want  float64
		ok    bool
	}{
		{input: "100.5", want: 100.5, ok: true},
		{input: " 99.8 ", want: 99.8, ok: true},
		{input: "50,000", want: 50000, ok: true},
		{input: "－0.3", want: -0.3, ok: true},
		{input: "", ok: false},
		{input: "-", ok: false},
		{input: "—", ok: false},
		{input: "NaN", ok: false},
		{input: "上月=100", ok: false},
	}

	for _, tc := range cases {
		got, ok := ParseNumber(tc.input)
		if ok != tc.ok || (ok && got != tc.want) {
			t.Fatalf("ParseNumber(%q) = %v,%v want %v,%v", tc.input, got, ok, tc.want, tc.ok)
		}
	}
}

func TestRound(t *testing.T) {
	if got := Round(99.95999999, 4); got != 99.96 {
		t.Fatalf("got %v", got)
	}
}
