package stats

import (
	"math"
	"strconv"

	"github.com/abhisek/zonedash/internal/record"
)

// Audit holds the audit totals and ratio. Done is the sum of "up"
// transactions (audits performed), Received the sum of "down" transactions.
type Audit struct {
	Done       int64
	Received   int64
	Ratio      float64
	Available  bool // false when no ratio can be computed
	FromServer bool
}

// AuditFrom prefers the server-reported ratio and otherwise computes
// done/received. A zero received total leaves the ratio unavailable.
func AuditFrom(up, down []record.Transaction, server *float64) Audit {
	a := Audit{
		Done:     record.SumAmount(up),
		Received: record.SumAmount(down),
	}

	if server != nil && !math.IsNaN(*server) && !math.IsInf(*server, 0) {
		a.Ratio = *server
		a.Available = true
		a.FromServer = true
		return a
	}

	if a.Received == 0 {
		return a
	}
	a.Ratio = float64(a.Done) / float64(a.Received)
	a.Available = true
	return a
}

// String formats the ratio to one decimal, or "N/A".
func (a Audit) String() string {
	return a.Format(1)
}

// Format formats the ratio with decimals places, or "N/A" when unavailable.
func (a Audit) Format(decimals int) string {
	if !a.Available {
		return "N/A"
	}
	return strconv.FormatFloat(a.Ratio, 'f', decimals, 64)
}
