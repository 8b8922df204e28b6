package rates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShippingOptions(t *testing.T) {
	p := &EnvProvider{FreeThreshold: 50}

	calc := p.ShippingOptions(30)
	require.Len(t, calc.Options, 3)
	assert.False(t, calc.IsFree)
	assert.Equal(t, 5.99, calc.Options[0].Price)

	// au-dessus du seuil, la livraison standard est offerte
	calc = p.ShippingOptions(75)
	assert.True(t, calc.IsFree)
	assert.Equal(t, 0.0, calc.Options[0].Price)
	assert.Equal(t, 12.99, calc.Options[1].Price, "express reste payante")
}

func TestOption(t *testing.T) {
	p := &EnvProvider{FreeThreshold: 50}

	opt, ok := p.Option("express", 30)
	require.True(t, ok)
	assert.Equal(t, 12.99, opt.Price)

	_, ok = p.Option("téléportation", 30)
	assert.False(t, ok)
}

func TestEnvProvider(t *testing.T) {
	t.Setenv("TAX_RATE", "0.21")
	t.Setenv("SHIPPING_FREE_THRESHOLD", "100")

	p := NewEnvProvider()
	assert.Equal(t, 0.21, p.TaxRate("BE"))
	assert.Equal(t, 100.0, p.FreeThreshold)

	t.Setenv("TAX_RATE", "pas-un-nombre")
	p = NewEnvProvider()
	assert.Equal(t, 0.0, p.TaxRate("BE"), "valeur illisible : repli sur 0")
}
