package common

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestFormatUnits(t *testing.T) {
	tests := []struct {
		input int64
		want  string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-45000, "-45,000"},
	}
	for _, tt := range tests {
		if got := FormatUnits(decimal.NewFromInt(tt.input)); got != tt.want {
			t.Errorf("FormatUnits(%d) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFormatUnits_BeyondInt64(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"999999999999999999", "999,999,999,999,999,999"},
		{"1000000000000000000", "1,000,000,000,000,000,000"},
		{"1234567890123456789012", "1,234,567,890,123,456,789,012"},
		{"5000000000000000000000000", "5,000,000,000,000,000,000,000,000"},
		{"-1000000000000000000042", "-1,000,000,000,000,000,000,042"},
		{"1500.75", "1,500"},
	}
	for _, tt := range tests {
		if got := FormatUnits(decimal.RequireFromString(tt.input)); got != tt.want {
			t.Errorf("FormatUnits(%s) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestPercent(t *testing.T) {
	if got := Percent(decimal.NewFromInt(1), decimal.NewFromInt(3)); got != "33.33%" {
		t.Errorf("Expected 33.33%%, got %s", got)
	}
	if got := Percent(decimal.NewFromInt(1), decimal.Zero); got != "0.00%" {
		t.Errorf("Expected 0.00%%, got %s", got)
	}
}
