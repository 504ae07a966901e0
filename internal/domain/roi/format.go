package roi

import (
	"strings"

	"github.com/dustin/go-humanize"
)

// dollars renders v as whole dollars with thousands separators, e.g. $1,234.
func dollars(v float64) string {
	return "$" + humanize.FormatFloat("#,###.", v)
}

// count renders v as a whole number with thousands separators.
func count(v float64) string {
	return humanize.FormatFloat("#,###.", v)
}

// rate renders an hourly rate with at least one decimal place, e.g. 50.0
// or 52.75.
func rate(v float64) string {
	s := humanize.Ftoa(v)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
