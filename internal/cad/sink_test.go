package cad

import (
	"testing"

	"partflow/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func symbolPart() models.InternalPart {
	return models.InternalPart{
		IPN:  "PF-CAP-000042",
		Name: "C0603C104K5RACTU",
		Parameters: map[string]string{
			models.ParamSymbol:    "Device:C",
			models.ParamFootprint: "Capacitor_SMD:C_0603_1608Metric",
		},
		DatasheetURL: "https://media.example.com/c0603.pdf",
	}
}

func TestAddSymbolCreatesAndDetectsExisting(t *testing.T) {
	sink := NewLibraryTable(t.TempDir())

	existed, created, err := sink.AddSymbol(symbolPart(), "Capacitors", "capacitor")
	require.NoError(t, err)
	assert.False(t, existed)
	assert.True(t, created)

	existed, created, err = sink.AddSymbol(symbolPart(), "Capacitors", "capacitor")
	require.NoError(t, err)
	assert.True(t, existed)
	assert.False(t, created)
}

func TestAddSymbolRequiresIPN(t *testing.T) {
	sink := NewLibraryTable(t.TempDir())
	part := symbolPart()
	part.IPN = ""

	_, _, err := sink.AddSymbol(part, "Capacitors", "capacitor")
	assert.Error(t, err)
}

func TestDeleteSymbol(t *testing.T) {
	sink := NewLibraryTable(t.TempDir())
	_, _, err := sink.AddSymbol(symbolPart(), "Capacitors", "capacitor")
	require.NoError(t, err)

	deleted, err := sink.DeleteSymbol("PF-CAP-000042", "Capacitors")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = sink.DeleteSymbol("PF-CAP-000042", "Capacitors")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestLibraries(t *testing.T) {
	sink := NewLibraryTable(t.TempDir())
	_, _, err := sink.AddSymbol(symbolPart(), "Capacitors", "capacitor")
	require.NoError(t, err)

	part := symbolPart()
	part.IPN = "PF-RES-000043"
	_, _, err = sink.AddSymbol(part, "Resistors", "resistor")
	require.NoError(t, err)

	libraries, err := sink.Libraries()
	require.NoError(t, err)
	assert.Equal(t, []string{"Capacitors", "Resistors"}, libraries)
}
