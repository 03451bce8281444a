package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/orderdesk/internal/customer/domain"
	"github.com/smallbiznis/orderdesk/internal/ratetable"
	"github.com/smallbiznis/orderdesk/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("customer.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

// Remember stores the checkout details under their tax id, replacing what
// was saved for that tax id before.
func (s *Service) Remember(ctx context.Context, info domain.CustomerInfo) (domain.Customer, error) {
	if err := info.Validate(); err != nil {
		return domain.Customer{}, err
	}
	info = info.Normalize()

	now := time.Now().UTC()
	customer := domain.Customer{
		ID:            s.genID.Generate(),
		TaxID:         info.TaxID,
		FiscalName:    info.FiscalName,
		Address:       info.Address,
		City:          info.City,
		PostalCode:    info.PostalCode,
		CountryCode:   info.CountryCode,
		Email:         info.Email,
		Phone:         info.Phone,
		ApplyRecharge: info.ApplyRecharge,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Upsert(ctx, s.db, &customer); err != nil {
		s.log.Error("failed to remember customer", zap.String("tax_id", info.TaxID), zap.Error(err))
		return domain.Customer{}, err
	}

	stored, err := s.repo.FindByTaxID(ctx, s.db, info.TaxID)
	if err != nil {
		return domain.Customer{}, err
	}
	if stored == nil {
		return domain.Customer{}, domain.ErrNotFound
	}
	return *stored, nil
}

func (s *Service) GetByTaxID(ctx context.Context, taxID string) (domain.Customer, error) {
	taxID = domain.CustomerInfo{TaxID: taxID}.Normalize().TaxID
	if taxID == "" {
		return domain.Customer{}, domain.ErrInvalidTaxID
	}

	item, err := s.repo.FindByTaxID(ctx, s.db, taxID)
	if err != nil {
		return domain.Customer{}, err
	}
	if item == nil {
		return domain.Customer{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) List(ctx context.Context, req domain.ListCustomerRequest) (domain.ListCustomerResponse, error) {
	filter := domain.ListCustomerFilter{
		CountryCode: ratetable.NormalizeCountry(req.CountryCode),
		FiscalName:  strings.ToLower(strings.TrimSpace(req.FiscalName)),
	}
	page := pagination.Pagination{PageToken: req.PageToken, PageSize: req.PageSize}

	items, err := s.repo.List(ctx, s.db, filter, page)
	if err != nil {
		return domain.ListCustomerResponse{}, err
	}

	items, pageInfo := pagination.BuildCursorPageInfo(items, page.Limit(), func(c *domain.Customer) pagination.Cursor {
		return pagination.Cursor{ID: c.ID.String(), CreatedAt: c.CreatedAt.Format(time.RFC3339)}
	})

	customers := make([]domain.Customer, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		customers = append(customers, *item)
	}

	return domain.ListCustomerResponse{PageInfo: pageInfo, Customers: customers}, nil
}
