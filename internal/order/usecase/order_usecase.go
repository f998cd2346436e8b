package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/allisson/orderflow/internal/database"
	apperrors "github.com/allisson/orderflow/internal/errors"
	idempotencyDomain "github.com/allisson/orderflow/internal/idempotency/domain"
	"github.com/allisson/orderflow/internal/order/domain"
)

// orderUseCase implements the OrderUseCase interface.
type orderUseCase struct {
	txManager    database.TxManager
	orderRepo    OrderRepository
	keyRepo      KeyRepository
	outboxWriter OutboxWriter
	clock        clockwork.Clock
	logger       *slog.Logger
}

// NewOrderUseCase creates a new order use case instance with the provided dependencies.
func NewOrderUseCase(
	txManager database.TxManager,
	orderRepo OrderRepository,
	keyRepo KeyRepository,
	outboxWriter OutboxWriter,
	clock clockwork.Clock,
	logger *slog.Logger,
) OrderUseCase {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &orderUseCase{
		txManager:    txManager,
		orderRepo:    orderRepo,
		keyRepo:      keyRepo,
		outboxWriter: outboxWriter,
		clock:        clock,
		logger:       logger,
	}
}

// Create places an order unless the idempotency key was already used, in which case the
// stored response is returned. The order, its key and its OrderCreated outbox row are
// written in one transaction.
func (o *orderUseCase) Create(ctx context.Context, input CreateInput) (*CreateResult, error) {
	existing, err := o.keyRepo.Get(ctx, input.IdempotencyKey)
	if err == nil {
		if o.logger != nil {
			o.logger.Info("duplicate create order request",
				slog.String("idempotency_key", input.IdempotencyKey),
				slog.String("order_id", existing.OrderID.String()),
			)
		}
		return &CreateResult{
			OrderID:      existing.OrderID,
			Response:     []byte(existing.ResponseBody),
			WasDuplicate: true,
		}, nil
	}
	if !errors.Is(err, idempotencyDomain.ErrKeyNotFound) {
		return nil, err
	}

	now := o.clock.Now()
	order, err := domain.NewOrder(input.ProductID, input.Quantity, now)
	if err != nil {
		return nil, err
	}

	response, err := json.Marshal(order.Snapshot())
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to serialize order response")
	}

	err = o.txManager.WithTx(ctx, func(txCtx context.Context) error {
		if err := o.orderRepo.Create(txCtx, order); err != nil {
			return err
		}

		key := &idempotencyDomain.Key{
			Key:          input.IdempotencyKey,
			OrderID:      order.ID,
			ResponseBody: string(response),
			CreatedAt:    now.UTC(),
		}
		if err := o.keyRepo.Create(txCtx, key); err != nil {
			return err
		}

		return o.outboxWriter.Capture(txCtx, order)
	})
	if err != nil {
		return nil, err
	}

	if o.logger != nil {
		o.logger.Info("order created",
			slog.String("order_id", order.ID.String()),
			slog.String("product_id", order.ProductID.String()),
			slog.Int("quantity", order.Quantity),
		)
	}

	return &CreateResult{OrderID: order.ID, Response: response}, nil
}

// Get retrieves an order by id.
func (o *orderUseCase) Get(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	return o.orderRepo.Get(ctx, orderID)
}

// Confirm moves the order to Confirmed.
func (o *orderUseCase) Confirm(ctx context.Context, orderID uuid.UUID) (bool, error) {
	return o.transition(ctx, orderID, (*domain.Order).Confirm)
}

// Cancel moves the order to Cancelled.
func (o *orderUseCase) Cancel(ctx context.Context, orderID uuid.UUID) (bool, error) {
	return o.transition(ctx, orderID, (*domain.Order).Cancel)
}

func (o *orderUseCase) transition(
	ctx context.Context,
	orderID uuid.UUID,
	apply func(*domain.Order, time.Time) (bool, error),
) (bool, error) {
	var changed bool
	err := o.txManager.WithTx(ctx, func(txCtx context.Context) error {
		order, err := o.orderRepo.Get(txCtx, orderID)
		if err != nil {
			return err
		}

		changed, err = apply(order, o.clock.Now())
		if err != nil || !changed {
			return err
		}

		if err := o.orderRepo.Update(txCtx, order); err != nil {
			return err
		}
		return o.outboxWriter.Capture(txCtx, order)
	})
	if err != nil {
		return false, err
	}
	return changed, nil
}
