package sales

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meridian-pos/meridian-pos/internal/catalog"
	"github.com/meridian-pos/meridian-pos/internal/shared"
)

// RepositoryPort abstracts sales persistence for the service layer.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetSale(ctx context.Context, id uuid.UUID) (*Sale, error)
	ListSales(ctx context.Context, from, to time.Time, page, perPage int) ([]Sale, int, error)
	SoftDeleteSale(ctx context.Context, id uuid.UUID) error
}

// CacheBumper invalidates versioned report caches after a committed write.
type CacheBumper interface {
	Bump(ctx context.Context) error
}

// AuditPort records audit trail entries.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service orchestrates sale transactions.
type Service struct {
	repo   RepositoryPort
	cache  CacheBumper
	audit  AuditPort
	logger *slog.Logger
	loc    *time.Location
}

// NewService builds Service. cache and audit may be nil; loc defaults to UTC.
func NewService(repo RepositoryPort, cache CacheBumper, audit AuditPort, logger *slog.Logger, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, audit: audit, logger: logger, loc: loc}
}

func validateInput(input CreateSaleInput) error {
	if input.UserID == uuid.Nil {
		return fmt.Errorf("sales: user is required: %w", shared.ErrValidation)
	}
	if len(input.Items) == 0 {
		return fmt.Errorf("sales: at least one item is required: %w", shared.ErrValidation)
	}
	if len(input.Payments) == 0 {
		return fmt.Errorf("sales: at least one payment is required: %w", shared.ErrValidation)
	}
	for i, item := range input.Items {
		if item.ItemID == uuid.Nil {
			return fmt.Errorf("sales: item %d: id is required: %w", i, shared.ErrValidation)
		}
		if item.Kind != ItemKindProduct && item.Kind != ItemKindService {
			return fmt.Errorf("sales: item %d: unknown kind %q: %w", i, item.Kind, shared.ErrValidation)
		}
		if item.Quantity < 1 {
			return fmt.Errorf("sales: item %d: quantity must be >= 1: %w", i, shared.ErrValidation)
		}
		if item.UnitPrice.IsNegative() {
			return fmt.Errorf("sales: item %d: unit price must be >= 0: %w", i, shared.ErrValidation)
		}
	}
	for i, payment := range input.Payments {
		if !payment.Method.Valid() {
			return fmt.Errorf("sales: payment %d: unknown method %q: %w", i, payment.Method, shared.ErrValidation)
		}
		if payment.Amount.IsNegative() {
			return fmt.Errorf("sales: payment %d: amount must be >= 0: %w", i, shared.ErrValidation)
		}
	}
	return nil
}

// Create registers a sale as one atomic unit of work: payment coverage is
// validated up front, stock is decremented per product line inside the
// transaction, and the header, items and payments commit together or not at
// all.
func (s *Service) Create(ctx context.Context, input CreateSaleInput) (*Sale, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, item := range input.Items {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	totalPaid := decimal.Zero
	for _, payment := range input.Payments {
		totalPaid = totalPaid.Add(payment.Amount)
	}
	if totalPaid.LessThan(total) {
		return nil, fmt.Errorf("sales: payments %s do not cover total %s: %w", totalPaid, total, shared.ErrInsufficientPayment)
	}

	var saleID uuid.UUID
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if input.CashRegisterID != nil {
			if err := tx.RegisterIsOpen(ctx, *input.CashRegisterID); err != nil {
				return err
			}
		}

		id, err := tx.InsertSale(ctx, Sale{
			Total:          total,
			Discount:       input.Discount,
			TaxAmount:      input.TaxAmount,
			Status:         SaleStatusCompleted,
			Notes:          input.Notes,
			InvoiceNumber:  input.InvoiceNumber,
			UserID:         input.UserID,
			CustomerID:     input.CustomerID,
			CashRegisterID: input.CashRegisterID,
		})
		if err != nil {
			return err
		}
		saleID = id

		for _, line := range input.Items {
			item := SaleItem{
				SaleID:    saleID,
				Quantity:  line.Quantity,
				UnitPrice: line.UnitPrice,
				Subtotal:  line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))),
			}
			switch line.Kind {
			case ItemKindProduct:
				productID := line.ItemID
				item.ProductID = &productID
				pt, err := tx.ProductType(ctx, productID)
				if err != nil {
					return err
				}
				if pt == catalog.ProductTypePhysical {
					if err := tx.DecrementStock(ctx, productID, line.Quantity); err != nil {
						return err
					}
				}
			case ItemKindService:
				serviceID := line.ItemID
				item.ServiceID = &serviceID
				if err := tx.ServiceExists(ctx, serviceID); err != nil {
					return err
				}
			}
			if err := tx.InsertItem(ctx, item); err != nil {
				return err
			}
		}

		for _, payment := range input.Payments {
			err := tx.InsertPayment(ctx, SalePayment{
				SaleID:          saleID,
				Method:          payment.Method,
				Amount:          payment.Amount,
				VoucherNumber:   payment.VoucherNumber,
				ReferenceNumber: payment.ReferenceNumber,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, "sale.created", saleID, input.UserID, map[string]any{"total": total.String()})

	return s.repo.GetSale(ctx, saleID)
}

// afterCommit bumps the report cache version and writes the audit trail.
// Both are best effort: the sale is already durable.
func (s *Service) afterCommit(ctx context.Context, action string, entityID, actorID uuid.UUID, meta map[string]any) {
	if s.cache != nil {
		if err := s.cache.Bump(ctx); err != nil {
			s.logger.Warn("report cache bump failed", slog.Any("error", err))
		}
	}
	if s.audit != nil {
		err := s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID.String(),
			Action:   action,
			Entity:   "sale",
			EntityID: entityID.String(),
			Meta:     meta,
		})
		if err != nil {
			s.logger.Warn("audit record failed", slog.Any("error", err))
		}
	}
}

// Get returns the hydrated sale.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Sale, error) {
	return s.repo.GetSale(ctx, id)
}

// List returns sale headers, optionally limited to one calendar day in the
// reporting timezone.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Sale, shared.Pagination, error) {
	var from, to time.Time
	if !filter.Day.IsZero() {
		y, m, d := filter.Day.In(s.loc).Date()
		from = time.Date(y, m, d, 0, 0, 0, 0, s.loc).UTC()
		to = from.Add(24 * time.Hour)
	}
	sales, total, err := s.repo.ListSales(ctx, from, to, filter.Page, filter.PerPage)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return sales, shared.NewPagination(filter.Page, filter.PerPage, total), nil
}

// Remove soft-deletes a sale. Stock is not restored; cancellations that
// return stock are a separate concern.
func (s *Service) Remove(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.SoftDeleteSale(ctx, id); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Bump(ctx); err != nil {
			s.logger.Warn("report cache bump failed", slog.Any("error", err))
		}
	}
	return nil
}
