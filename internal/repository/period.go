package repository

import (
	"strconv"
	"strings"
)

// Period field names accepted by the by-period catalog query.
const (
	PeriodSowing   = "sowing"
	PeriodPlanting = "planting"
	PeriodHarvest  = "harvest"
)

// PeriodContainsMonth reports whether a comma-delimited period string such
// as "04, 05, 06" contains the given month.  Tokens are compared
// numerically so "5" and "05" are equivalent; a bare substring match would
// wrongly report month 1 inside "10, 11, 12".
func PeriodContainsMonth(period string, month int) bool {
	for _, tok := range strings.Split(period, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if n, err := strconv.Atoi(tok); err == nil && n == month {
			return true
		}
	}
	return false
}

// ValidPeriodType reports whether t names one of the three period columns.
func ValidPeriodType(t string) bool {
	switch t {
	case PeriodSowing, PeriodPlanting, PeriodHarvest:
		return true
	}
	return false
}
