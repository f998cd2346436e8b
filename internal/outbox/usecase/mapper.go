package usecase

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/allisson/orderflow/internal/errors"
	"github.com/allisson/orderflow/internal/events"
	inventoryDomain "github.com/allisson/orderflow/internal/inventory/domain"
	orderDomain "github.com/allisson/orderflow/internal/order/domain"
	"github.com/allisson/orderflow/internal/outbox/domain"
)

// Map converts an outbox message into its integration contract. The contract reuses the
// message id as eventId, so a row published twice carries the same eventId both times.
// Every failure wraps ErrMapping.
func Map(msg *domain.Message) (events.Event, error) {
	switch msg.Kind {
	case domain.KindOrderCreated:
		var e orderDomain.OrderCreated
		if err := decodeContent(msg, &e); err != nil {
			return nil, err
		}
		if err := requireIDs(msg, e.OrderID, e.ProductID); err != nil {
			return nil, err
		}
		return events.OrderCreated{
			Envelope:  envelope(msg, e.OccurredAt),
			OrderID:   e.OrderID,
			ProductID: e.ProductID,
			Quantity:  e.Quantity,
		}, nil

	case domain.KindStockReserved:
		var e inventoryDomain.StockReserved
		if err := decodeContent(msg, &e); err != nil {
			return nil, err
		}
		if err := requireIDs(msg, e.OrderID, e.ProductID); err != nil {
			return nil, err
		}
		return events.InventoryUpdated{
			Envelope:         envelope(msg, e.OccurredAt),
			OrderID:          e.OrderID,
			ProductID:        e.ProductID,
			QuantityReserved: e.QuantityReserved,
			RemainingStock:   e.RemainingStock,
		}, nil

	case domain.KindStockReservationFailed:
		var e inventoryDomain.StockReservationFailed
		if err := decodeContent(msg, &e); err != nil {
			return nil, err
		}
		if err := requireIDs(msg, e.OrderID, e.ProductID); err != nil {
			return nil, err
		}
		return events.OutOfStock{
			Envelope:          envelope(msg, e.OccurredAt),
			OrderID:           e.OrderID,
			ProductID:         e.ProductID,
			RequestedQuantity: e.RequestedQuantity,
			AvailableStock:    e.AvailableStock,
		}, nil

	default:
		return nil, apperrors.Wrap(apperrors.ErrMapping, fmt.Sprintf("unknown outbox kind %q", msg.Kind))
	}
}

func decodeContent(msg *domain.Message, target any) error {
	if err := json.Unmarshal([]byte(msg.Content), target); err != nil {
		return apperrors.Wrap(apperrors.ErrMapping, fmt.Sprintf("decode %s content: %v", msg.Kind, err))
	}
	return nil
}

func requireIDs(msg *domain.Message, ids ...uuid.UUID) error {
	for _, id := range ids {
		if id == uuid.Nil {
			return apperrors.Wrap(apperrors.ErrMapping, fmt.Sprintf("%s content is missing an id", msg.Kind))
		}
	}
	return nil
}

func envelope(msg *domain.Message, occurredAt time.Time) events.Envelope {
	if occurredAt.IsZero() {
		occurredAt = msg.CreatedAt
	}
	return events.Envelope{ID: msg.ID, OccurredAt: occurredAt.UTC()}
}
