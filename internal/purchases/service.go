package purchases

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meridian-pos/meridian-pos/internal/shared"
)

// RepositoryPort abstracts purchase persistence for the service layer.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetPurchase(ctx context.Context, id uuid.UUID) (*Purchase, error)
	ListPurchases(ctx context.Context, page, perPage int) ([]Purchase, int, error)
	SoftDeletePurchase(ctx context.Context, id uuid.UUID) error
}

// CacheBumper invalidates versioned report caches after a committed write.
type CacheBumper interface {
	Bump(ctx context.Context) error
}

// AuditPort records audit trail entries.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service orchestrates purchase transactions.
type Service struct {
	repo   RepositoryPort
	cache  CacheBumper
	audit  AuditPort
	logger *slog.Logger
	now    func() time.Time
}

// NewService builds Service. cache and audit may be nil.
func NewService(repo RepositoryPort, cache CacheBumper, audit AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, audit: audit, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

func validateInput(input CreatePurchaseInput) error {
	if input.SupplierID == uuid.Nil {
		return fmt.Errorf("purchases: supplier is required: %w", shared.ErrValidation)
	}
	if input.UserID == uuid.Nil {
		return fmt.Errorf("purchases: user is required: %w", shared.ErrValidation)
	}
	if len(input.Details) == 0 {
		return fmt.Errorf("purchases: at least one detail line is required: %w", shared.ErrValidation)
	}
	for i, d := range input.Details {
		if d.ProductID == uuid.Nil {
			return fmt.Errorf("purchases: detail %d: product is required: %w", i, shared.ErrValidation)
		}
		if d.Quantity < 1 {
			return fmt.Errorf("purchases: detail %d: quantity must be >= 1: %w", i, shared.ErrValidation)
		}
		if d.UnitCost.IsNegative() {
			return fmt.Errorf("purchases: detail %d: unit cost must be >= 0: %w", i, shared.ErrValidation)
		}
	}
	return nil
}

// Create registers a purchase as one atomic unit of work: the header and
// detail lines persist together and every referenced product's stock is
// incremented inside the same transaction.
func (s *Service) Create(ctx context.Context, input CreatePurchaseInput) (*Purchase, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, d := range input.Details {
		total = total.Add(d.UnitCost.Mul(decimal.NewFromInt(int64(d.Quantity))))
	}

	var purchaseID uuid.UUID
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.SupplierExists(ctx, input.SupplierID); err != nil {
			return err
		}

		id, err := tx.InsertPurchase(ctx, Purchase{
			SupplierID:    input.SupplierID,
			UserID:        input.UserID,
			InvoiceNumber: input.InvoiceNumber,
			Total:         total,
			Status:        PurchaseStatusReceived,
			PurchaseDate:  s.now(),
			Notes:         input.Notes,
		})
		if err != nil {
			return err
		}
		purchaseID = id

		for _, line := range input.Details {
			detail := PurchaseDetail{
				PurchaseID: purchaseID,
				ProductID:  line.ProductID,
				Quantity:   line.Quantity,
				UnitCost:   line.UnitCost,
				Subtotal:   line.UnitCost.Mul(decimal.NewFromInt(int64(line.Quantity))),
			}
			if err := tx.InsertDetail(ctx, detail); err != nil {
				return err
			}
			if err := tx.IncrementStock(ctx, line.ProductID, line.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Bump(ctx); err != nil {
			s.logger.Warn("report cache bump failed", slog.Any("error", err))
		}
	}
	if s.audit != nil {
		err := s.audit.Record(ctx, shared.AuditLog{
			ActorID:  input.UserID.String(),
			Action:   "purchase.created",
			Entity:   "purchase",
			EntityID: purchaseID.String(),
			Meta:     map[string]any{"total": total.String()},
		})
		if err != nil {
			s.logger.Warn("audit record failed", slog.Any("error", err))
		}
	}

	return s.repo.GetPurchase(ctx, purchaseID)
}

// Get returns the hydrated purchase.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Purchase, error) {
	return s.repo.GetPurchase(ctx, id)
}

// List returns purchase headers.
func (s *Service) List(ctx context.Context, page, perPage int) ([]Purchase, shared.Pagination, error) {
	purchases, total, err := s.repo.ListPurchases(ctx, page, perPage)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return purchases, shared.NewPagination(page, perPage, total), nil
}

// Remove soft-deletes a purchase.
func (s *Service) Remove(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.SoftDeletePurchase(ctx, id); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Bump(ctx); err != nil {
			s.logger.Warn("report cache bump failed", slog.Any("error", err))
		}
	}
	return nil
}
