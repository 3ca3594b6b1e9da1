package common

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	// Default separator widths
	DefaultWidth = 80
	WideWidth    = 100
)

// PrintSeparator prints a separator line with the specified character and width
func PrintSeparator(char string, width int) {
	fmt.Println(strings.Repeat(char, width))
}

// PrintHeader prints a formatted header with title and separators
func PrintHeader(title string, width int) {
	fmt.Println("\n" + strings.Repeat("=", width))
	fmt.Println(title)
	PrintSeparator("=", width)
}

// PrintFooter prints a formatted footer with message and separators
func PrintFooter(message string, width int) {
	fmt.Println("\n" + strings.Repeat("=", width))
	fmt.Println(message)
	fmt.Println(strings.Repeat("=", width) + "\n")
}

// BoxPrefix returns the appropriate box-drawing prefix for list items
func BoxPrefix(isLast bool) string {
	if isLast {
		return "└  "
	}
	return "│  "
}

var unitPrinter = message.NewPrinter(language.English)

// groupBase is the largest power of ten whose doubled value still fits int64
var groupBase = decimal.New(1, 18)

// FormatUnits renders an integer quantity with thousands separators.
// Quantities beyond int64 are printed in chunks of 18 digits.
func FormatUnits(d decimal.Decimal) string {
	d = d.Truncate(0)
	if d.IsNegative() {
		return "-" + FormatUnits(d.Neg())
	}
	if d.LessThan(groupBase) {
		return unitPrinter.Sprintf("%d", d.IntPart())
	}
	hi, lo := d.QuoRem(groupBase, 0)
	// Adding groupBase keeps the leading zeros of the low chunk; its "1" is cut.
	return FormatUnits(hi) + unitPrinter.Sprintf("%d", lo.Add(groupBase).IntPart())[1:]
}

// Percent renders part/whole as a percentage with two decimals
func Percent(part, whole decimal.Decimal) string {
	if whole.IsZero() {
		return "0.00%"
	}
	return part.Mul(decimal.NewFromInt(100)).Div(whole).StringFixed(2) + "%"
}
