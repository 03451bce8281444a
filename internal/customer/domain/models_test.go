package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validInfo() CustomerInfo {
	return CustomerInfo{
		FiscalName:  "Textiles Norte SL",
		TaxID:       "b 1234 5678",
		Address:     "Calle Mayor 1",
		CountryCode: " es ",
		Email:       " Compras@Norte.ES ",
	}
}

func TestNormalize(t *testing.T) {
	n := validInfo().Normalize()
	assert.Equal(t, "B12345678", n.TaxID)
	assert.Equal(t, "ES", n.CountryCode)
	assert.Equal(t, "compras@norte.es", n.Email)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, validInfo().Validate())

	cases := map[string]struct {
		mutate func(*CustomerInfo)
		err    error
	}{
		"missing name":    {func(c *CustomerInfo) { c.FiscalName = " " }, ErrInvalidFiscalName},
		"missing tax id":  {func(c *CustomerInfo) { c.TaxID = "" }, ErrInvalidTaxID},
		"missing address": {func(c *CustomerInfo) { c.Address = "" }, ErrInvalidAddress},
		"missing country": {func(c *CustomerInfo) { c.CountryCode = "" }, ErrInvalidCountry},
		"bad email":       {func(c *CustomerInfo) { c.Email = "nope" }, ErrInvalidEmail},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			info := validInfo()
			tc.mutate(&info)
			assert.ErrorIs(t, info.Validate(), tc.err)
		})
	}
}

func TestInfoRoundTrip(t *testing.T) {
	c := Customer{FiscalName: "A", TaxID: "X1", Address: "addr", CountryCode: "PT", ApplyRecharge: true}
	info := c.Info()
	assert.Equal(t, "PT", info.CountryCode)
	assert.True(t, info.ApplyRecharge)
}
