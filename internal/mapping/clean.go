package mapping

import (
	"regexp"
	"strings"
)

var (
	dimensionToken = regexp.MustCompile(`^[.0-9]+mm$`)
	powerToken     = regexp.MustCompile(`^[0-9]/[0-9]*W$`)
	metricOhms     = regexp.MustCompile(`\s*([kMG])Ohms`)
	bareOhms       = regexp.MustCompile(`\s*Ohms`)
	tildeRange     = regexp.MustCompile(`(\S+)\s*~\s*(\S+)`)
	parenthesized  = regexp.MustCompile(`\s*\([^)]*\)\s*`)
	trailingUnit   = regexp.MustCompile(`[^\s0-9.+-]+$`)
)

// CleanValue canonicalizes one supplier parameter value. The rewrite rules
// run in a fixed order, each operating on the previous result, and the whole
// chain is idempotent: cleaning a cleaned value changes nothing.
func CleanValue(category, name, value string) string {
	cat := strings.ToLower(category)
	nameL := strings.ToLower(name)

	value = cleanPackage(nameL, value)
	value = cleanDimensions(nameL, value)
	value = cleanPower(nameL, value)
	value = cleanSeriesResistance(nameL, value)
	value = cleanResistance(cat, nameL, value)
	value = cleanRange(value)
	value = parenthesized.ReplaceAllString(value, "")
	if strings.Contains(value, "@") {
		value = strings.ReplaceAll(value, " ", "")
	}
	return escapeQuotes(value)
}

// cleanPackage keeps only the package designator, e.g.
// "SOT-23-3 (TO-236)" -> "SOT-23-3".
func cleanPackage(name, value string) string {
	if !strings.Contains(name, "package") || strings.Contains(name, "size") {
		return value
	}
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return value
	}
	return strings.ReplaceAll(fields[0], ",", "")
}

// cleanDimensions collapses metric dimension lists, e.g.
// "3.2mm x 1.6mm" -> "3.2x1.6mm" and "5.2mm dia" -> "⌀5.2mm".
func cleanDimensions(name, value string) string {
	if !containsAny(name, "size", "height", "pitch", "outline") {
		return value
	}
	var dims []string
	for _, tok := range strings.Fields(value) {
		if dimensionToken.MatchString(tok) {
			dims = append(dims, tok)
		}
	}
	switch len(dims) {
	case 1:
		if strings.Contains(strings.ToLower(value), "dia") {
			return "⌀" + dims[0]
		}
		return dims[0]
	case 2, 3:
		for i := 0; i < len(dims)-1; i++ {
			dims[i] = strings.TrimSuffix(dims[i], "mm")
		}
		return strings.Join(dims, "x")
	default:
		return value
	}
}

// cleanPower keeps the fractional wattage token, e.g. "1/4W at 25C" -> "1/4W".
func cleanPower(name, value string) string {
	if !strings.Contains(name, "power") {
		return value
	}
	for _, tok := range strings.Fields(value) {
		if powerToken.MatchString(tok) {
			return tok
		}
	}
	return value
}

// cleanSeriesResistance compacts ESR/DCR/RDS values, e.g.
// "50 mOhm Max" -> "50mR".
func cleanSeriesResistance(name, value string) string {
	if !containsAny(name, "esr", "dcr", "rds") {
		return value
	}
	value = strings.ReplaceAll(value, "Max", "")
	value = strings.ReplaceAll(value, " ", "")
	return strings.ReplaceAll(value, "Ohm", "R")
}

// cleanResistance normalizes resistor resistance units, e.g.
// "4.7 kOhms" -> "4.7K" and "100 Ohms" -> "100R".
func cleanResistance(category, name, value string) string {
	if !strings.Contains(category, "resistor") || !strings.Contains(name, "resistance") {
		return value
	}
	value = metricOhms.ReplaceAllStringFunc(value, func(m string) string {
		letter := metricOhms.FindStringSubmatch(m)[1]
		return strings.ToUpper(letter)
	})
	return bareOhms.ReplaceAllString(value, "R")
}

// cleanRange compacts "4.5V ~ 5.5V" style ranges to "4.5~5.5V", dropping the
// unit repeated on the first bound.
func cleanRange(value string) string {
	return tildeRange.ReplaceAllStringFunc(value, func(m string) string {
		sub := tildeRange.FindStringSubmatch(m)
		lo, hi := sub[1], sub[2]
		if unit := trailingUnit.FindString(hi); unit != "" {
			lo = strings.TrimSuffix(lo, unit)
		}
		return lo + "~" + hi
	})
}

// escapeQuotes escapes embedded double quotes exactly once.
func escapeQuotes(value string) string {
	value = strings.ReplaceAll(value, `\"`, `"`)
	return strings.ReplaceAll(value, `"`, `\"`)
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
