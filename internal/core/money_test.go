package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"12.34", 1234, true},
		{"12,34", 1234, true},
		{"12", 1200, true},
		{"12.345", 1234, true},
		{"12.346", 1235, true},
		{".50", 50, true},
		{"0", 0, false},
		{"0,00", 0, false},
		{"-5", 0, false},
		{"+5", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"  ", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil {
				t.Errorf("ParseDecimalToCents(%q) unexpected error: %v", tc.in, err)
			} else if got != tc.want {
				t.Errorf("ParseDecimalToCents(%q) = %d, want %d", tc.in, got, tc.want)
			}
		} else if err == nil {
			t.Errorf("ParseDecimalToCents(%q) expected error, got %d", tc.in, got)
		}
	}
}

func TestParseOptionalCents(t *testing.T) {
	if got, err := ParseOptionalCents(""); err != nil || got != 0 {
		t.Errorf("empty = (%d, %v), want (0, nil)", got, err)
	}
	if got, err := ParseOptionalCents("0"); err != nil || got != 0 {
		t.Errorf("zero = (%d, %v), want (0, nil)", got, err)
	}
	if got, err := ParseOptionalCents("7,50"); err != nil || got != 750 {
		t.Errorf("7,50 = (%d, %v), want (750, nil)", got, err)
	}
	if _, err := ParseOptionalCents("x"); err == nil {
		t.Error("malformed input must be rejected, not coerced to zero")
	}
}

func TestMoneyBRL(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{0, "R$ 0,00"},
		{150, "R$ 1,50"},
		{123456, "R$ 1234,56"},
		{-990, "-R$ 9,90"},
	}
	for _, tc := range cases {
		if got := (Money{Cents: tc.cents}).BRL(); got != tc.want {
			t.Errorf("BRL(%d) = %q, want %q", tc.cents, got, tc.want)
		}
	}
}

func TestMoneyDecimal(t *testing.T) {
	if got := (Money{Cents: 123456}).Decimal(); got != "1234.56" {
		t.Errorf("Decimal = %q", got)
	}
	if got := (Money{Cents: -5}).Decimal(); got != "-0.05" {
		t.Errorf("Decimal = %q", got)
	}
}
