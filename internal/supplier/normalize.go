package supplier

import (
	"strings"

	"partflow/internal/util"

	"go.uber.org/zap"
)

// knownCurrencies are the codes the distributor APIs actually emit.
var knownCurrencies = map[string]bool{
	"USD": true, "EUR": true, "GBP": true, "CNY": true,
	"JPY": true, "CAD": true, "AUD": true, "SEK": true,
}

// normalizeCurrency defaults unknown or empty codes to USD with a warning.
func normalizeCurrency(supplier, code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if knownCurrencies[code] {
		return code
	}
	util.GetLogger().Warn("Unknown currency, defaulting to USD",
		zap.String("supplier", supplier),
		zap.String("currency", code))
	return "USD"
}

// encodeURLWhitespace percent-encodes whitespace so stored URLs are usable
// verbatim in HTTP requests and CAD fields.
func encodeURLWhitespace(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.ReplaceAll(raw, " ", "%20")
	raw = strings.ReplaceAll(raw, "\t", "%09")
	return raw
}
