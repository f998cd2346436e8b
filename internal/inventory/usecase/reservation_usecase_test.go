package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/orderflow/internal/errors"
	"github.com/allisson/orderflow/internal/inventory/domain"
	outboxDomain "github.com/allisson/orderflow/internal/outbox/domain"
)

// MockProductRepository is a mock implementation of ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Get(ctx context.Context, productID uuid.UUID) (*domain.Product, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductRepository) List(ctx context.Context, offset, limit int) ([]*domain.Product, int, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*domain.Product), args.Int(1), args.Error(2)
}

func (m *MockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

// memoryInventory emulates the inventory database with transactional rollback and the
// version check of the products table. It is not safe for concurrent use.
type memoryInventory struct {
	products  map[uuid.UUID]domain.Product
	processed map[uuid.UUID]domain.ProcessedOrder
	outbox    []outboxDomain.Event

	// conflicts makes the next N updates fail their version check.
	conflicts int
}

func newMemoryInventory() *memoryInventory {
	return &memoryInventory{
		products:  map[uuid.UUID]domain.Product{},
		processed: map[uuid.UUID]domain.ProcessedOrder{},
	}
}

func (s *memoryInventory) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	products := make(map[uuid.UUID]domain.Product, len(s.products))
	for k, v := range s.products {
		products[k] = v
	}
	processed := make(map[uuid.UUID]domain.ProcessedOrder, len(s.processed))
	for k, v := range s.processed {
		processed[k] = v
	}
	outbox := append([]outboxDomain.Event(nil), s.outbox...)

	if err := fn(ctx); err != nil {
		s.products, s.processed, s.outbox = products, processed, outbox
		return err
	}
	return nil
}

func (s *memoryInventory) Create(_ context.Context, product *domain.Product) error {
	s.products[product.ID] = *product
	return nil
}

func (s *memoryInventory) Get(_ context.Context, productID uuid.UUID) (*domain.Product, error) {
	product, ok := s.products[productID]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return &product, nil
}

func (s *memoryInventory) List(context.Context, int, int) ([]*domain.Product, int, error) {
	return nil, len(s.products), nil
}

func (s *memoryInventory) Update(_ context.Context, product *domain.Product) error {
	if s.conflicts > 0 {
		s.conflicts--
		return domain.ErrProductVersionConflict
	}
	if s.products[product.ID].Version != product.Version {
		return domain.ErrProductVersionConflict
	}
	product.Version++
	s.products[product.ID] = *product
	return nil
}

type memoryMarkers struct{ s *memoryInventory }

func (m memoryMarkers) Exists(_ context.Context, orderID uuid.UUID) (bool, error) {
	_, ok := m.s.processed[orderID]
	return ok, nil
}

func (m memoryMarkers) Create(_ context.Context, marker *domain.ProcessedOrder) error {
	if _, ok := m.s.processed[marker.OrderID]; ok {
		return domain.ErrOrderAlreadyProcessed
	}
	m.s.processed[marker.OrderID] = *marker
	return nil
}

type memoryOutbox struct{ s *memoryInventory }

func (w memoryOutbox) Capture(_ context.Context, agg outboxDomain.Aggregate) error {
	w.s.outbox = append(w.s.outbox, agg.PendingEvents()...)
	agg.ClearEvents()
	return nil
}

func setupReservation(t *testing.T, stock int) (ReservationUseCase, *memoryInventory, uuid.UUID) {
	t.Helper()
	store := newMemoryInventory()
	clock := clockwork.NewFakeClock()

	product, err := domain.NewProduct("Widget", stock, clock.Now())
	require.NoError(t, err)
	store.products[product.ID] = *product

	uc := NewReservationUseCase(store, store, memoryMarkers{store}, memoryOutbox{store}, clock, nil)
	return uc, store, product.ID
}

func TestReservationUseCase_Reserve(t *testing.T) {
	ctx := context.Background()

	t.Run("QuantityWithinStock", func(t *testing.T) {
		uc, store, productID := setupReservation(t, 10)
		orderID := uuid.Must(uuid.NewV7())

		result, err := uc.Reserve(ctx, ReserveInput{OrderID: orderID, ProductID: productID, Quantity: 5})
		require.NoError(t, err)
		assert.Equal(t, ReserveResult{Reserved: true}, result)

		assert.Equal(t, 5, store.products[productID].Stock)
		assert.Equal(t, int64(2), store.products[productID].Version)
		assert.Contains(t, store.processed, orderID)
		require.Len(t, store.outbox, 1)
		assert.IsType(t, domain.StockReserved{}, store.outbox[0])
	})

	t.Run("QuantityAboveStock", func(t *testing.T) {
		uc, store, productID := setupReservation(t, 3)
		orderID := uuid.Must(uuid.NewV7())

		result, err := uc.Reserve(ctx, ReserveInput{OrderID: orderID, ProductID: productID, Quantity: 100})
		require.NoError(t, err)
		assert.Equal(t, ReserveResult{Reserved: false}, result)

		assert.Equal(t, 3, store.products[productID].Stock)
		assert.Contains(t, store.processed, orderID)
		require.Len(t, store.outbox, 1)
		failed, ok := store.outbox[0].(domain.StockReservationFailed)
		require.True(t, ok)
		assert.Equal(t, 100, failed.RequestedQuantity)
		assert.Equal(t, 3, failed.AvailableStock)
	})

	t.Run("RedeliveryReservesOnce", func(t *testing.T) {
		uc, store, productID := setupReservation(t, 10)
		input := ReserveInput{OrderID: uuid.Must(uuid.NewV7()), ProductID: productID, Quantity: 5}

		_, err := uc.Reserve(ctx, input)
		require.NoError(t, err)

		result, err := uc.Reserve(ctx, input)
		require.NoError(t, err)
		assert.True(t, result.Duplicate)

		assert.Equal(t, 5, store.products[productID].Stock)
		assert.Len(t, store.processed, 1)
		assert.Len(t, store.outbox, 1)
	})

	t.Run("ConflictRollsBackWithoutMarker", func(t *testing.T) {
		uc, store, productID := setupReservation(t, 10)
		store.conflicts = 1
		orderID := uuid.Must(uuid.NewV7())

		_, err := uc.Reserve(ctx, ReserveInput{OrderID: orderID, ProductID: productID, Quantity: 5})
		assert.ErrorIs(t, err, apperrors.ErrConcurrencyConflict)
		assert.Equal(t, 10, store.products[productID].Stock)
		assert.Empty(t, store.processed)
		assert.Empty(t, store.outbox)

		result, err := uc.Reserve(ctx, ReserveInput{OrderID: orderID, ProductID: productID, Quantity: 5})
		require.NoError(t, err)
		assert.True(t, result.Reserved)
		assert.Equal(t, 5, store.products[productID].Stock)
	})

	t.Run("UnknownProduct", func(t *testing.T) {
		uc, store, _ := setupReservation(t, 10)

		_, err := uc.Reserve(ctx, ReserveInput{
			OrderID:   uuid.Must(uuid.NewV7()),
			ProductID: uuid.Must(uuid.NewV7()),
			Quantity:  1,
		})
		assert.ErrorIs(t, err, domain.ErrProductNotFound)
		assert.Empty(t, store.processed)
	})

	t.Run("InvalidQuantity", func(t *testing.T) {
		uc, store, productID := setupReservation(t, 10)

		_, err := uc.Reserve(ctx, ReserveInput{OrderID: uuid.Must(uuid.NewV7()), ProductID: productID, Quantity: 0})
		assert.ErrorIs(t, err, apperrors.ErrBusinessRule)
		assert.Empty(t, store.processed)
	})

	t.Run("MarkerRaceIsDuplicate", func(t *testing.T) {
		uc, store, productID := setupReservation(t, 10)
		orderID := uuid.Must(uuid.NewV7())
		markers := &raceMarkers{memoryMarkers{store}}
		uc = NewReservationUseCase(store, store, markers, memoryOutbox{store}, nil, nil)

		result, err := uc.Reserve(ctx, ReserveInput{OrderID: orderID, ProductID: productID, Quantity: 2})
		require.NoError(t, err)
		assert.True(t, result.Duplicate)
		assert.Equal(t, 10, store.products[productID].Stock)
	})
}

// raceMarkers reports the order as unprocessed but loses the insert, as when a
// concurrent consumer committed the marker in between.
type raceMarkers struct{ memoryMarkers }

func (r *raceMarkers) Create(context.Context, *domain.ProcessedOrder) error {
	return domain.ErrOrderAlreadyProcessed
}

func TestProductUseCase(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))

	t.Run("Create", func(t *testing.T) {
		repo := &MockProductRepository{}
		repo.On("Create", ctx, mock.AnythingOfType("*domain.Product")).Return(nil).Once()

		product, err := NewProductUseCase(repo, clock).Create(ctx, " Keyboard ", 25)
		require.NoError(t, err)
		assert.Equal(t, "Keyboard", product.Name)
		assert.Equal(t, 25, product.Stock)
		assert.Equal(t, clock.Now(), product.CreatedAt)
		repo.AssertExpectations(t)
	})

	t.Run("CreateInvalid", func(t *testing.T) {
		repo := &MockProductRepository{}

		_, err := NewProductUseCase(repo, clock).Create(ctx, "", 1)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("List", func(t *testing.T) {
		repo := &MockProductRepository{}
		products := []*domain.Product{{ID: uuid.Must(uuid.NewV7()), Name: "A"}}
		repo.On("List", ctx, 20, 10).Return(products, 21, nil).Once()

		got, total, err := NewProductUseCase(repo, clock).List(ctx, 20, 10)
		require.NoError(t, err)
		assert.Equal(t, products, got)
		assert.Equal(t, 21, total)
	})
}
