// Package ipn mints internal part numbers from a policy, a category code
// table and the inventory primary key of the freshly created part.
package ipn

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"partflow/internal/models"
	"partflow/internal/util"
)

// Compose renders the internal part number for a part with the given
// inventory primary key. The pieces run prefix, category code, zero-padded
// unique ID, suffix; each optional piece is included only when the policy
// enables it, and pieces are joined with "-".
//
// A category without a code entry drops the code piece with a warning. A
// non-positive primary key cannot be rendered and yields an empty IPN; the
// caller treats that as fatal.
func Compose(category string, pk int, policy models.IPNPolicy, codes map[string]string) string {
	if pk <= 0 {
		util.GetLogger().Error("Cannot mint IPN without an inventory primary key",
			zap.String("category", category),
			zap.Int("pk", pk))
		return ""
	}

	var pieces []string
	if policy.EnablePrefix && policy.Prefix != "" {
		pieces = append(pieces, policy.Prefix)
	}
	if policy.EnableCategoryCode {
		if code, ok := codes[category]; ok && code != "" {
			pieces = append(pieces, code)
		} else {
			util.GetLogger().Warn("No category code for category, omitting from IPN",
				zap.String("category", category))
		}
	}
	pieces = append(pieces, fmt.Sprintf("%0*d", policy.UniqueIDLength, pk))
	if policy.EnableSuffix && policy.Suffix != "" {
		pieces = append(pieces, policy.Suffix)
	}
	return strings.Join(pieces, "-")
}
