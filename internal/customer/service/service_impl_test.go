package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/orderdesk/internal/customer/domain"
	"github.com/smallbiznis/orderdesk/internal/customer/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) domain.Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&domain.Customer{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	})
}

func TestRememberUpsertsByTaxID(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, err := svc.Remember(ctx, domain.CustomerInfo{
		FiscalName:  "Textiles Norte SL",
		TaxID:       "b12345678",
		Address:     "Calle Mayor 1",
		CountryCode: "es",
	})
	require.NoError(t, err)
	assert.Equal(t, "B12345678", first.TaxID)

	second, err := svc.Remember(ctx, domain.CustomerInfo{
		FiscalName:    "Textiles Norte SL",
		TaxID:         "B12345678",
		Address:       "Avenida Sur 9",
		CountryCode:   "ES-CN",
		ApplyRecharge: true,
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Avenida Sur 9", second.Address)
	assert.True(t, second.ApplyRecharge)

	got, err := svc.GetByTaxID(ctx, " b12345678 ")
	require.NoError(t, err)
	assert.Equal(t, "ES-CN", got.CountryCode)
}

func TestRememberRejectsInvalid(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Remember(context.Background(), domain.CustomerInfo{TaxID: "X"})
	assert.ErrorIs(t, err, domain.ErrInvalidFiscalName)
}

func TestGetByTaxIDNotFound(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.GetByTaxID(context.Background(), "Z999")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.GetByTaxID(context.Background(), "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidTaxID)
}

func TestListPaginates(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Remember(ctx, domain.CustomerInfo{
			FiscalName:  fmt.Sprintf("Shop %d", i),
			TaxID:       fmt.Sprintf("T%d", i),
			Address:     "addr",
			CountryCode: "PT",
		})
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, domain.ListCustomerRequest{PageSize: 2, CountryCode: "pt"})
	require.NoError(t, err)
	assert.Len(t, page.Customers, 2)
	assert.True(t, page.HasMore)

	rest, err := svc.List(ctx, domain.ListCustomerRequest{PageSize: 2, PageToken: page.NextPageToken})
	require.NoError(t, err)
	assert.Len(t, rest.Customers, 1)
	assert.False(t, rest.HasMore)

	filtered, err := svc.List(ctx, domain.ListCustomerRequest{FiscalName: "SHOP 1"})
	require.NoError(t, err)
	assert.Len(t, filtered.Customers, 1)
}
