package migration

import (
	"errors"
	"fmt"

	"github.com/smallbiznis/orderdesk/internal/cart/persistence"
	customerdomain "github.com/smallbiznis/orderdesk/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/orderdesk/internal/invoice/domain"
	"gorm.io/gorm"
)

// Models lists every table the service owns, in creation order.
func Models() []any {
	return []any{
		&persistence.CartState{},
		&customerdomain.Customer{},
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceDocument{},
	}
}

// RunMigrations brings the schema up to date on startup so local and
// single-node installs need no separate migration step.
func RunMigrations(db *gorm.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
