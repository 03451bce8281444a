package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/orderdesk/pkg/db/pagination"
)

type ListCustomerRequest struct {
	PageToken   string
	PageSize    int
	CountryCode string
	FiscalName  string
}

type ListCustomerFilter struct {
	CountryCode string
	FiscalName  string
}

type ListCustomerResponse struct {
	pagination.PageInfo
	Customers []Customer `json:"customers"`
}

type Service interface {
	Remember(context.Context, CustomerInfo) (Customer, error)
	GetByTaxID(context.Context, string) (Customer, error)
	List(context.Context, ListCustomerRequest) (ListCustomerResponse, error)
}

var (
	ErrInvalidFiscalName = errors.New("invalid_fiscal_name")
	ErrInvalidTaxID      = errors.New("invalid_tax_id")
	ErrInvalidAddress    = errors.New("invalid_address")
	ErrInvalidCountry    = errors.New("invalid_country_code")
	ErrInvalidEmail      = errors.New("invalid_email")
	ErrNotFound          = errors.New("not_found")
)
