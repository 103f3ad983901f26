package sync

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/siatbridge/backend/internal/domain/catalog"
	"github.com/siatbridge/backend/internal/domain/integration"
	"github.com/siatbridge/backend/internal/domain/partner"
	"github.com/siatbridge/backend/internal/domain/shared"
)

// CustomerSync pulls the customer records the tax service holds and mirrors
// them locally. Pulled records are marked FromRemote so the entity bridge
// never pushes them back up.
type CustomerSync struct {
	customerRepo partner.CustomerRepository
	endpoints    EndpointResolver
	taxService   integration.TaxAuthorityService
	tx           shared.TxManager
	logger       *zap.Logger
}

// NewCustomerSync creates a new CustomerSync
func NewCustomerSync(
	customerRepo partner.CustomerRepository,
	endpoints EndpointResolver,
	taxService integration.TaxAuthorityService,
	tx shared.TxManager,
	logger *zap.Logger,
) *CustomerSync {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CustomerSync{
		customerRepo: customerRepo,
		endpoints:    endpoints,
		taxService:   taxService,
		tx:           tx,
		logger:       logger,
	}
}

// Sync creates local customers for unknown remote records and refreshes the
// ones already mirrored. All writes land in one transaction. It returns how
// many records were created and how many updated.
func (s *CustomerSync) Sync(ctx context.Context) (created, updated int, err error) {
	endpoint, err := s.endpoints.Resolve(ctx)
	if err != nil {
		return 0, 0, err
	}

	clients, err := s.taxService.ListClients(ctx, endpoint)
	if err != nil {
		return 0, 0, err
	}

	err = s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		for _, client := range clients {
			existing, err := s.customerRepo.FindByRemoteID(txCtx, client.RemoteID)
			switch {
			case err == nil:
				if err := existing.Update(client.Name, client.DocumentNumber, client.Complement); err != nil {
					return err
				}
				if err := existing.SetEmail(client.Email); err != nil {
					return err
				}
				if err := s.customerRepo.Save(txCtx, existing); err != nil {
					return err
				}
				updated++
			case errors.Is(err, shared.ErrNotFound):
				customer, err := partner.NewCustomer(client.Name, client.DocumentNumber)
				if err != nil {
					return err
				}
				customer.Complement = client.Complement
				if err := customer.SetEmail(client.Email); err != nil {
					return err
				}
				remoteID := client.RemoteID
				customer.RemoteID = &remoteID
				customer.FromRemote = true
				if err := s.customerRepo.Save(txCtx, customer); err != nil {
					return err
				}
				created++
			default:
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	s.logger.Info("customers synced", zap.Int("created", created), zap.Int("updated", updated))
	return created, updated, nil
}

// ProductSync pulls the product records the tax service holds and creates
// the ones missing locally. Rows without a description carry no usable
// identity and are skipped. Existing products are left alone.
type ProductSync struct {
	productRepo catalog.ProductRepository
	endpoints   EndpointResolver
	taxService  integration.TaxAuthorityService
	tx          shared.TxManager
	logger      *zap.Logger
}

// NewProductSync creates a new ProductSync
func NewProductSync(
	productRepo catalog.ProductRepository,
	endpoints EndpointResolver,
	taxService integration.TaxAuthorityService,
	tx shared.TxManager,
	logger *zap.Logger,
) *ProductSync {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductSync{
		productRepo: productRepo,
		endpoints:   endpoints,
		taxService:  taxService,
		tx:          tx,
		logger:      logger,
	}
}

// Sync creates local products for unknown remote records, in one
// transaction. It returns how many were created and how many rows were
// skipped for missing descriptions.
func (s *ProductSync) Sync(ctx context.Context) (created, skipped int, err error) {
	endpoint, err := s.endpoints.Resolve(ctx)
	if err != nil {
		return 0, 0, err
	}

	items, err := s.taxService.ListItems(ctx, endpoint)
	if err != nil {
		return 0, 0, err
	}

	err = s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		for _, item := range items {
			if item.Description == "" {
				skipped++
				continue
			}
			if _, err := s.productRepo.FindByRemoteID(txCtx, item.RemoteID); err == nil {
				continue
			} else if !errors.Is(err, shared.ErrNotFound) {
				return err
			}

			product, err := catalog.NewProduct(item.Code, item.Description, item.UnitPrice)
			if err != nil {
				return err
			}
			remoteID := item.RemoteID
			product.RemoteID = &remoteID
			product.FromRemote = true
			product.ActivityCode = item.ActivityCode
			if err := s.productRepo.Save(txCtx, product); err != nil {
				return err
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	s.logger.Info("products synced", zap.Int("created", created), zap.Int("skipped", skipped))
	return created, skipped, nil
}
