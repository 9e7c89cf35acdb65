package core

import "testing"

func TestParseWeight(t *testing.T) {
	cases := []struct {
		in  string
		out float64
		ok  bool
	}{
		{"1", 1, true},
		{"2.0", 2, true},
		{"0,25", 0.25, true},
		{" 1.5 ", 1.5, true},
		{"0", 0, true},
		{"-1", 0, false},
		{"abc", 0, false},
		{"", 0, false},
		{"1.2.3", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
		{"-Inf", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseWeight(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %v, got %v (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err != ErrInvalidWeight {
			t.Fatalf("%q expected ErrInvalidWeight, got %v", tc.in, err)
		}
	}
}

func TestFormatMoney(t *testing.T) {
	cases := map[float64]string{
		995:        "995.00",
		1000:       "1000.00",
		2.5:        "2.50",
		0:          "0.00",
		1000 - 8.99: "991.01",
	}
	for in, want := range cases {
		if got := FormatMoney(in); got != want {
			t.Errorf("FormatMoney(%v) = %q, want %q", in, got, want)
		}
	}
}
