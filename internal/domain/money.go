package domain

import (
	"fmt"
	"math"
	"strings"
)

// FormatRupees renders a whole-rupee amount with thousands separators and
// the currency prefix, for user-facing offer and letter text.
func FormatRupees(amount float64) string {
	digits := fmt.Sprintf("%.0f", math.Abs(amount))
	var b strings.Builder
	b.WriteString("₹")
	if amount < 0 {
		b.WriteByte('-')
	}
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte(',')
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
