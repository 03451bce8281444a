package ratetable

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const ratesYAML = `
rates:
  domesticCountry: PT
  vatRates:
    PT: 23
    ES: 21
  zeroVatRegions:
    - PT-20
  shipping:
    domestic:
      fee: 4
      freeThreshold: 150
    international:
      fee: 20
      freeThreshold: 400
  rechargePercent: 5.2
  preSaleAdvance: 30
  discountTiers:
    - minQuantity: 1
      percent: 0
    - minQuantity: 10
      percent: 25
  discountCategories:
    - Wholesale
`

func TestHolderFallsBackToDefaults(t *testing.T) {
	h, err := NewHolderWithOptions(zap.NewNop(), HolderOptions{
		ConfigName:  "rates",
		ConfigPaths: []string{t.TempDir()},
	})
	require.NoError(t, err)
	assert.Equal(t, "ES", h.Get().DomesticCountry)
}

func TestHolderReadsRatesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rates.yml"), []byte(ratesYAML), 0o600))

	h, err := NewHolderWithOptions(zap.NewNop(), HolderOptions{
		ConfigName:  "rates",
		ConfigPaths: []string{dir},
	})
	require.NoError(t, err)

	tables := h.Get()
	assert.Equal(t, "PT", tables.DomesticCountry)
	assert.Equal(t, 23.0, tables.VATRates["PT"])
	assert.True(t, tables.IsZeroVATRegion("PT-20"))
	assert.Equal(t, 150.0, tables.Shipping.Domestic.FreeThreshold)
	assert.Len(t, tables.DiscountTiers, 2)
}

func TestHolderRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rates.yml"), []byte("rates:\n  domesticCountry: ES\n"), 0o600))

	_, err := NewHolderWithOptions(zap.NewNop(), HolderOptions{
		ConfigName:  "rates",
		ConfigPaths: []string{dir},
	})
	assert.Error(t, err)
}
