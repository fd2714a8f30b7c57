package ipn

import (
	"testing"

	"partflow/internal/models"

	"github.com/stretchr/testify/assert"
)

func fullPolicy() models.IPNPolicy {
	return models.IPNPolicy{
		EnablePrefix:       true,
		Prefix:             "PF",
		EnableCategoryCode: true,
		UniqueIDLength:     6,
		EnableSuffix:       true,
		Suffix:             "A",
	}
}

var testCodes = map[string]string{
	"Capacitors": "CAP",
	"Resistors":  "RES",
}

func TestComposeAllPieces(t *testing.T) {
	got := Compose("Capacitors", 42, fullPolicy(), testCodes)
	assert.Equal(t, "PF-CAP-000042-A", got)
}

func TestComposeOptionalPiecesDisabled(t *testing.T) {
	policy := fullPolicy()
	policy.EnablePrefix = false
	policy.EnableSuffix = false
	assert.Equal(t, "CAP-000042", Compose("Capacitors", 42, policy, testCodes))

	policy.EnableCategoryCode = false
	assert.Equal(t, "000042", Compose("Capacitors", 42, policy, testCodes))
}

func TestComposeMissingCategoryCode(t *testing.T) {
	// No code for the category: the code piece is omitted, the rest renders.
	got := Compose("Quantum Widgets", 7, fullPolicy(), testCodes)
	assert.Equal(t, "PF-000007-A", got)
}

func TestComposePadding(t *testing.T) {
	policy := fullPolicy()
	policy.UniqueIDLength = 3

	assert.Equal(t, "PF-RES-007-A", Compose("Resistors", 7, policy, testCodes))
	// A pk wider than the configured length is never truncated.
	assert.Equal(t, "PF-RES-123456-A", Compose("Resistors", 123456, policy, testCodes))
}

func TestComposeNoPrimaryKey(t *testing.T) {
	assert.Equal(t, "", Compose("Capacitors", 0, fullPolicy(), testCodes))
	assert.Equal(t, "", Compose("Capacitors", -3, fullPolicy(), testCodes))
}
