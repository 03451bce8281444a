package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/orderdesk/internal/ratetable"
)

// CustomerInfo is the billing identity captured at checkout. It is frozen
// into the invoice as-is; only CountryCode and ApplyRecharge feed the totals.
type CustomerInfo struct {
	FiscalName    string `json:"fiscal_name"`
	TaxID         string `json:"tax_id"`
	Address       string `json:"address"`
	City          string `json:"city,omitempty"`
	PostalCode    string `json:"postal_code,omitempty"`
	CountryCode   string `json:"country_code"`
	Email         string `json:"email,omitempty"`
	Phone         string `json:"phone,omitempty"`
	ApplyRecharge bool   `json:"apply_recharge"`
}

// Normalize trims every field and upper-cases the country and tax id.
func (c CustomerInfo) Normalize() CustomerInfo {
	out := c
	out.FiscalName = strings.TrimSpace(c.FiscalName)
	out.TaxID = strings.ToUpper(strings.Join(strings.Fields(c.TaxID), ""))
	out.Address = strings.TrimSpace(c.Address)
	out.City = strings.TrimSpace(c.City)
	out.PostalCode = strings.TrimSpace(c.PostalCode)
	out.CountryCode = ratetable.NormalizeCountry(c.CountryCode)
	out.Email = strings.ToLower(strings.TrimSpace(c.Email))
	out.Phone = strings.TrimSpace(c.Phone)
	return out
}

// Validate checks the fields an invoice cannot be issued without.
func (c CustomerInfo) Validate() error {
	n := c.Normalize()
	if n.FiscalName == "" {
		return ErrInvalidFiscalName
	}
	if n.TaxID == "" {
		return ErrInvalidTaxID
	}
	if n.Address == "" {
		return ErrInvalidAddress
	}
	if n.CountryCode == "" {
		return ErrInvalidCountry
	}
	if n.Email != "" && !strings.Contains(n.Email, "@") {
		return ErrInvalidEmail
	}
	return nil
}

// Customer is the directory entry remembered from past checkouts, keyed by
// tax id, so returning buyers can be prefilled.
type Customer struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"id"`
	TaxID         string       `gorm:"not null;uniqueIndex" json:"tax_id"`
	FiscalName    string       `gorm:"not null" json:"fiscal_name"`
	Address       string       `gorm:"not null" json:"address"`
	City          string       `json:"city,omitempty"`
	PostalCode    string       `json:"postal_code,omitempty"`
	CountryCode   string       `gorm:"not null;index" json:"country_code"`
	Email         string       `json:"email,omitempty"`
	Phone         string       `json:"phone,omitempty"`
	ApplyRecharge bool         `gorm:"not null;default:false" json:"apply_recharge"`
	CreatedAt     time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time    `gorm:"not null" json:"updated_at"`
}

func (Customer) TableName() string { return "customers" }

// Info returns the checkout form values stored for this customer.
func (c Customer) Info() CustomerInfo {
	return CustomerInfo{
		FiscalName:    c.FiscalName,
		TaxID:         c.TaxID,
		Address:       c.Address,
		City:          c.City,
		PostalCode:    c.PostalCode,
		CountryCode:   c.CountryCode,
		Email:         c.Email,
		Phone:         c.Phone,
		ApplyRecharge: c.ApplyRecharge,
	}
}
