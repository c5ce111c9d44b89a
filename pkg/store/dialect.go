package store

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// dialect holds the few SQL fragments that differ between SQLite and
// PostgreSQL. Queries are written with '?' placeholders and rebound.
type dialect struct {
	name       string
	numbered   bool   // $1, $2, ... placeholders
	lockClause string // appended to the loan read inside a posting
	like       string
	yearOf     func(col string) string
	monthOf    func(col string) string
	dateText   func(col string) string
	sumCents   func(col string) string // exact integer cents of a money column
}

var sqliteDialect = &dialect{
	name: "sqlite3",
	like: "LIKE",
	yearOf: func(col string) string {
		return fmt.Sprintf("CAST(strftime('%%Y', %s) AS INTEGER)", col)
	},
	monthOf: func(col string) string {
		return fmt.Sprintf("CAST(strftime('%%m', %s) AS INTEGER)", col)
	},
	dateText: func(col string) string {
		return fmt.Sprintf("strftime('%%Y-%%m-%%d', %s)", col)
	},
	// Money is TEXT here; summing it directly goes through REAL.
	sumCents: func(col string) string {
		return fmt.Sprintf("SUM(CAST(ROUND(%s * 100) AS INTEGER))", col)
	},
}

var postgresDialect = &dialect{
	name:       "postgres",
	numbered:   true,
	lockClause: " FOR UPDATE",
	like:       "ILIKE",
	yearOf: func(col string) string {
		return fmt.Sprintf("CAST(EXTRACT(YEAR FROM %s) AS INTEGER)", col)
	},
	monthOf: func(col string) string {
		return fmt.Sprintf("CAST(EXTRACT(MONTH FROM %s) AS INTEGER)", col)
	},
	dateText: func(col string) string {
		return fmt.Sprintf("to_char(%s, 'YYYY-MM-DD')", col)
	},
	sumCents: func(col string) string {
		return fmt.Sprintf("CAST(SUM(%s * 100) AS BIGINT)", col)
	},
}

// fromCents turns a summed cents column back into money.
func fromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// rebind rewrites '?' placeholders for dialects that number them.
func (d *dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for _, r := range query {
		switch {
		case r == '\'':
			inQuote = !inQuote
			b.WriteRune(r)
		case r == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
