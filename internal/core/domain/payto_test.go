package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePayto(t *testing.T) {
	iban := NewIban("CH")

	p, err := ParsePayto("payto://iban/" + iban + "?receiver-name=Jane%20Doe")
	require.NoError(t, err)
	assert.Equal(t, iban, p.Iban)
	assert.Equal(t, "Jane Doe", p.ReceiverName)
}

func TestParsePayto_BicSegment(t *testing.T) {
	iban := NewIban("DE")

	p, err := ParsePayto("payto://iban/SOGEDEFF/" + iban)
	require.NoError(t, err)
	assert.Equal(t, iban, p.Iban)
}

func TestParsePayto_Malformed(t *testing.T) {
	for _, in := range []string{
		"",
		"http://iban/CH9300762011623852957",
		"payto://ach/routing/123",
		"payto://iban/",
		"payto://iban/NOTANIBAN!",
		"payto://iban/CH0000000000000000000", // bad checksum
	} {
		_, err := ParsePayto(in)
		assert.ErrorIs(t, err, ErrMalformedPayto, "input %q", in)
	}
}

func TestNewIban_ValidChecksum(t *testing.T) {
	for i := 0; i < 20; i++ {
		iban := NewIban("CH")
		assert.Len(t, iban, 20)
		_, err := ParsePayto("payto://iban/" + iban)
		assert.NoError(t, err, iban)
	}
}

func TestPayto_URI_RoundTrip(t *testing.T) {
	p := Payto{Iban: NewIban("CH"), ReceiverName: "Max Muster"}

	parsed, err := ParsePayto(p.URI())
	require.NoError(t, err)
	assert.Equal(t, p, parsed)
}
