package repository

import (
	"context"
	"errors"

	"github.com/smallbiznis/orderdesk/internal/customer/domain"
	"github.com/smallbiznis/orderdesk/pkg/db/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

// Upsert inserts the customer or refreshes the stored details of the same tax id.
func (r *repo) Upsert(ctx context.Context, db *gorm.DB, customer *domain.Customer) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "tax_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"fiscal_name", "address", "city", "postal_code", "country_code",
			"email", "phone", "apply_recharge", "updated_at",
		}),
	}).Create(customer).Error
}

func (r *repo) FindByTaxID(ctx context.Context, db *gorm.DB, taxID string) (*domain.Customer, error) {
	var customer domain.Customer
	err := db.WithContext(ctx).Where("tax_id = ?", taxID).First(&customer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &customer, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListCustomerFilter, page pagination.Pagination) ([]*domain.Customer, error) {
	var customers []*domain.Customer
	stmt := db.WithContext(ctx).Model(&domain.Customer{})
	if filter.CountryCode != "" {
		stmt = stmt.Where("country_code = ?", filter.CountryCode)
	}
	if filter.FiscalName != "" {
		stmt = stmt.Where("LOWER(fiscal_name) LIKE ?", "%"+filter.FiscalName+"%")
	}
	stmt, err := pagination.Apply(stmt, page)
	if err != nil {
		return nil, err
	}
	if err := stmt.Find(&customers).Error; err != nil {
		return nil, err
	}
	return customers, nil
}
