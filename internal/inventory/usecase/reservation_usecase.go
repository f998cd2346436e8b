package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/allisson/orderflow/internal/database"
	"github.com/allisson/orderflow/internal/inventory/domain"
)

// reservationUseCase implements the ReservationUseCase interface.
type reservationUseCase struct {
	txManager     database.TxManager
	productRepo   ProductRepository
	processedRepo ProcessedOrderRepository
	outboxWriter  OutboxWriter
	clock         clockwork.Clock
	logger        *slog.Logger
}

// NewReservationUseCase creates a new reservation use case instance.
func NewReservationUseCase(
	txManager database.TxManager,
	productRepo ProductRepository,
	processedRepo ProcessedOrderRepository,
	outboxWriter OutboxWriter,
	clock clockwork.Clock,
	logger *slog.Logger,
) ReservationUseCase {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &reservationUseCase{
		txManager:     txManager,
		productRepo:   productRepo,
		processedRepo: processedRepo,
		outboxWriter:  outboxWriter,
		clock:         clock,
		logger:        logger,
	}
}

// Reserve attempts the reservation once per order. The stock update, the outcome event
// and the processed marker commit together; the marker is written for insufficient stock
// too, so a redelivered OrderCreated never reserves twice. Any error rolls everything back.
func (r *reservationUseCase) Reserve(ctx context.Context, input ReserveInput) (ReserveResult, error) {
	var result ReserveResult

	err := r.txManager.WithTx(ctx, func(txCtx context.Context) error {
		processed, err := r.processedRepo.Exists(txCtx, input.OrderID)
		if err != nil {
			return err
		}
		if processed {
			result.Duplicate = true
			return nil
		}

		product, err := r.productRepo.Get(txCtx, input.ProductID)
		if err != nil {
			return err
		}

		now := r.clock.Now()
		reserved, err := product.Reserve(input.Quantity, input.OrderID, now)
		if err != nil {
			return err
		}
		result.Reserved = reserved

		if reserved {
			if err := r.productRepo.Update(txCtx, product); err != nil {
				return err
			}
		}

		if err := r.outboxWriter.Capture(txCtx, product); err != nil {
			return err
		}

		return r.processedRepo.Create(txCtx, &domain.ProcessedOrder{
			OrderID:     input.OrderID,
			ProductID:   input.ProductID,
			ProcessedAt: now.UTC(),
		})
	})

	if errors.Is(err, domain.ErrOrderAlreadyProcessed) {
		return ReserveResult{Duplicate: true}, nil
	}
	if err != nil {
		return ReserveResult{}, err
	}

	if r.logger != nil && !result.Duplicate {
		r.logger.Info("reservation processed",
			slog.String("order_id", input.OrderID.String()),
			slog.String("product_id", input.ProductID.String()),
			slog.Int("quantity", input.Quantity),
			slog.Bool("reserved", result.Reserved),
		)
	}
	return result, nil
}
