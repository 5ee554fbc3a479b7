// Package xp formats XP amounts and turns XP transactions into the
// cumulative series shown on the progression chart.
package xp

import (
	"math"
	"strconv"
)

// Units are byte-style labels. The backend reports XP in "bytes" and the
// dashboard keeps that display convention.
var Units = []string{"B", "KB", "MB", "GB"}

const divisor = 1000

// Format renders an XP amount as a short magnitude string, e.g. "512 B",
// "1.5 KB" or "350 KB".
func Format(amount int64) string {
	if amount == 0 {
		return "0 " + Units[0]
	}
	if amount < 0 {
		return "-" + Format(-amount)
	}

	idx := magnitude(amount)
	if idx == 0 {
		return strconv.FormatInt(amount, 10) + " " + Units[0]
	}

	q := float64(amount) / math.Pow(divisor, float64(idx))
	if q < 10 {
		return strconv.FormatFloat(q, 'f', 1, 64) + " " + Units[idx]
	}
	return strconv.FormatFloat(math.Round(q), 'f', 0, 64) + " " + Units[idx]
}

// magnitude returns floor(log1000(amount)) clamped to the last unit,
// using integer comparisons so exact powers of 1000 land on their unit.
func magnitude(amount int64) int {
	idx := 0
	for limit := int64(divisor); idx < len(Units)-1 && amount >= limit; limit *= divisor {
		idx++
	}
	return idx
}
