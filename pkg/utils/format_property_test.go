package utils

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

var groupedPattern = regexp.MustCompile(`^\d{1,3}(,\d{3})*$`)

func parseCurrency(s string) float64 {
	negative := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	v, _ := strconv.ParseFloat(s, 64)
	if negative {
		v = -v
	}
	return v
}

// FormatCurrency groups thousands, keeps two decimals and preserves the value.
func TestProperty_CurrencyFormatting(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("FormatCurrency produces grouped two-decimal output", prop.ForAll(
		func(amount float64) bool {
			formatted := FormatCurrency("$", amount)

			if amount >= 0 && !strings.HasPrefix(formatted, "$") {
				t.Logf("Expected $ prefix for %f, got %s", amount, formatted)
				return false
			}
			if amount < 0 && !strings.HasPrefix(formatted, "-$") {
				t.Logf("Expected -$ prefix for %f, got %s", amount, formatted)
				return false
			}

			parts := strings.Split(formatted, ".")
			if len(parts) != 2 || len(parts[1]) != 2 {
				t.Logf("Expected 2 decimal places for %f, got %s", amount, formatted)
				return false
			}

			intPart := strings.TrimPrefix(strings.TrimPrefix(parts[0], "-"), "$")
			if !groupedPattern.MatchString(intPart) {
				t.Logf("Invalid grouping for %f: %s", amount, formatted)
				return false
			}
			return true
		},
		gen.Float64Range(-1e12, 1e12),
	))

	properties.Property("FormatCurrency preserves value", prop.ForAll(
		func(amount float64) bool {
			parsed := parseCurrency(FormatCurrency("$", amount))
			rounded := math.Round(amount*100) / 100
			if math.Abs(parsed-rounded) > 0.011 {
				t.Logf("Value not preserved: original=%f, parsed=%f", amount, parsed)
				return false
			}
			return true
		},
		gen.Float64Range(-1e9, 1e9),
	))

	properties.Property("FormatSignedCurrency marks gains", prop.ForAll(
		func(amount float64) bool {
			formatted := FormatSignedCurrency("$", amount)
			return strings.HasPrefix(formatted, "+$") == (amount > 0)
		},
		gen.Float64Range(-1e6, 1e6),
	))

	properties.Property("FormatAmount round-trips exactly", prop.ForAll(
		func(amount float64) bool {
			v, err := strconv.ParseFloat(FormatAmount(amount), 64)
			return err == nil && v == amount
		},
		gen.Float64(),
	))

	properties.TestingRun(t)
}
