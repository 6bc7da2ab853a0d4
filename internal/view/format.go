package view

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	lakh  = 1e5
	crore = 1e7
)

// FormatINR renders a rupee amount with Indian digit grouping, rounded to
// whole rupees: 12345678 -> "Rs. 1,23,45,678".
func FormatINR(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return sign + "Rs. " + groupIndian(strconv.FormatFloat(math.Round(amount), 'f', 0, 64))
}

// FormatINRCompact abbreviates large amounts in crore and lakh.
func FormatINRCompact(amount float64) string {
	abs := math.Abs(amount)
	sign := ""
	if amount < 0 {
		sign = "-"
	}
	switch {
	case abs >= crore:
		return fmt.Sprintf("%sRs. %.2f Cr", sign, abs/crore)
	case abs >= lakh:
		return fmt.Sprintf("%sRs. %.2f L", sign, abs/lakh)
	default:
		return FormatINR(amount)
	}
}

func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var parts []string
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	if head != "" {
		parts = append([]string{head}, parts...)
	}
	return strings.Join(parts, ",") + "," + tail
}

func FormatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Format("02 Jan 2006")
}

func FormatPercent(value float64) string {
	return fmt.Sprintf("%.1f%%", value)
}
