package cashregister

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meridian-pos/meridian-pos/internal/shared"
)

// RepositoryPort abstracts register persistence for the service layer.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Open(ctx context.Context, userID uuid.UUID, openingAmount decimal.Decimal, notes string) (*CashRegister, error)
	Get(ctx context.Context, id uuid.UUID) (*CashRegister, error)
	GetOpenForUser(ctx context.Context, userID uuid.UUID) (*CashRegister, error)
	List(ctx context.Context, page, perPage int) ([]CashRegister, int, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

// CacheBumper invalidates versioned report caches after a committed write.
type CacheBumper interface {
	Bump(ctx context.Context) error
}

// AuditPort records audit trail entries.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service manages drawer sessions.
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

// Open starts a drawer session for the user. At most one session per user
// may be open; a concurrent second open is rejected by the store.
func (s *Service) Open(ctx context.Context, userID uuid.UUID, openingAmount decimal.Decimal, notes string) (*CashRegister, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("cashregister: user is required: %w", shared.ErrValidation)
	}
	if openingAmount.IsNegative() {
		return nil, fmt.Errorf("cashregister: opening amount must be >= 0: %w", shared.ErrValidation)
	}

	reg, err := s.repo.Open(ctx, userID, openingAmount, notes)
	if err != nil {
		return nil, err
	}
	s.afterCommit(ctx, userID, "cashregister.opened", reg.ID, map[string]any{"opening_amount": openingAmount.String()})
	return reg, nil
}

// Close ends the session: the expected amount is the opening amount plus
// every cash payment recorded against the register, all read inside the
// same transaction that flips the status.
func (s *Service) Close(ctx context.Context, id uuid.UUID, closingAmount decimal.Decimal) (*CashRegister, error) {
	if closingAmount.IsNegative() {
		return nil, fmt.Errorf("cashregister: closing amount must be >= 0: %w", shared.ErrValidation)
	}

	var userID uuid.UUID
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		reg, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if reg.Status == RegisterStatusClosed {
			return fmt.Errorf("cashregister: register %s already closed: %w", id, shared.ErrInvalidState)
		}
		userID = reg.UserID

		cashTotal, err := tx.CashPaymentsTotal(ctx, id)
		if err != nil {
			return err
		}
		expected := reg.OpeningAmount.Add(cashTotal)
		difference := closingAmount.Sub(expected)
		return tx.MarkClosed(ctx, id, closingAmount, expected, difference, s.now())
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, userID, "cashregister.closed", id, map[string]any{"closing_amount": closingAmount.String()})
	return s.repo.Get(ctx, id)
}

// Get returns a register by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*CashRegister, error) {
	return s.repo.Get(ctx, id)
}

// GetOpenForUser returns the user's current open register.
func (s *Service) GetOpenForUser(ctx context.Context, userID uuid.UUID) (*CashRegister, error) {
	return s.repo.GetOpenForUser(ctx, userID)
}

// List returns register sessions.
func (s *Service) List(ctx context.Context, page, perPage int) ([]CashRegister, shared.Pagination, error) {
	registers, total, err := s.repo.List(ctx, page, perPage)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return registers, shared.NewPagination(page, perPage, total), nil
}

// Remove soft-deletes a closed register.
func (s *Service) Remove(ctx context.Context, id uuid.UUID) error {
	return s.repo.SoftDelete(ctx, id)
}

func (s *Service) afterCommit(ctx context.Context, actorID uuid.UUID, action string, entityID uuid.UUID, meta map[string]any) {
	if s.cache != nil {
		if err := s.cache.Bump(ctx); err != nil {
			s.logger.Warn("report cache bump failed", slog.Any("error", err))
		}
	}
	if s.audit != nil {
		err := s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID.String(),
			Action:   action,
			Entity:   "cash_register",
			EntityID: entityID.String(),
			Meta:     meta,
		})
		if err != nil {
			s.logger.Warn("audit record failed", slog.Any("error", err))
		}
	}
}
