package pipeline

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// LLM JSON output is loosely typed: numbers arrive as floats, strings with
// currency formatting, or suffixed shorthand ("$15M", "250K"). The helpers
// below normalize all of it, returning nil for anything unparseable so a
// missing value never masquerades as zero.

func asFloat(v any) *float64 {
	switch n := v.(type) {
	case nil:
		return nil
	case float64:
		return &n
	case int:
		f := float64(n)
		return &f
	case string:
		cleaned := strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(n, "$", ""), ",", ""))
		if cleaned == "" {
			return nil
		}
		mult := 1.0
		switch {
		case strings.HasSuffix(strings.ToUpper(cleaned), "M"):
			mult = 1_000_000
			cleaned = cleaned[:len(cleaned)-1]
		case strings.HasSuffix(strings.ToUpper(cleaned), "K"):
			mult = 1_000
			cleaned = cleaned[:len(cleaned)-1]
		}
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return nil
		}
		f *= mult
		return &f
	default:
		return nil
	}
}

func asInt(v any) *int {
	f := asFloat(v)
	if f == nil {
		return nil
	}
	n := int(*f)
	return &n
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func floatOrDefault(v any, def float64) float64 {
	if f := asFloat(v); f != nil {
		return *f
	}
	return def
}

func boolOrDefault(v any, def bool) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return def
}

// asStringList flattens a value that may be a string, a list of strings, or
// a list of objects. For objects the named keys are tried in order and the
// first non-empty value wins.
func asStringList(v any, keys ...string) []string {
	var out []string
	appendItem := func(item any) {
		switch t := item.(type) {
		case string:
			if t != "" {
				out = append(out, t)
			}
		case map[string]any:
			for _, key := range keys {
				if s := asString(t[key]); s != "" {
					out = append(out, s)
					return
				}
			}
		}
	}

	switch t := v.(type) {
	case string:
		if t != "" {
			out = append(out, t)
		}
	case []any:
		for _, item := range t {
			appendItem(item)
		}
	}
	return out
}

func clampFloat(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

var (
	moneyPrinter = message.NewPrinter(language.English)
	titleCaser   = cases.Title(language.English)
)

// dollars formats a whole-dollar amount with thousands separators.
func dollars(v float64) string {
	return moneyPrinter.Sprintf("$%.0f", v)
}

// dollarsCents formats a dollars-and-cents amount with thousands separators.
func dollarsCents(v float64) string {
	return moneyPrinter.Sprintf("$%.2f", v)
}

// coverageTitle renders a snake_case coverage type for display, e.g.
// "general_liability" becomes "General Liability".
func coverageTitle(coverageType string) string {
	return titleCaser.String(strings.ReplaceAll(coverageType, "_", " "))
}

// signedPercent renders a modifier fraction as a signed whole percentage,
// e.g. -0.10 becomes "-10%".
func signedPercent(v float64) string {
	return fmt.Sprintf("%+.0f%%", v*100)
}

func temperature(v float64) *float64 {
	return &v
}
