package app

import (
	"fmt"
	"sync"

	inventoryConsumer "github.com/allisson/orderflow/internal/inventory/consumer"
	inventoryHTTP "github.com/allisson/orderflow/internal/inventory/http"
	inventoryRepository "github.com/allisson/orderflow/internal/inventory/repository"
	inventoryUseCase "github.com/allisson/orderflow/internal/inventory/usecase"
)

type inventoryComponents struct {
	productRepo     inventoryUseCase.ProductRepository
	processedRepo   inventoryUseCase.ProcessedOrderRepository
	productUseCase  inventoryUseCase.ProductUseCase
	reservation     inventoryUseCase.ReservationUseCase
	productHandler  *inventoryHTTP.ProductHandler
	consumer        *inventoryConsumer.InventoryConsumer

	productRepoInit sync.Once
	processedInit   sync.Once
	productUCInit   sync.Once
	reservationInit sync.Once
	handlerInit     sync.Once
	consumerInit    sync.Once
}

// ProductRepository returns the product repository.
func (c *Container) ProductRepository() (inventoryUseCase.ProductRepository, error) {
	var err error
	c.inventory.productRepoInit.Do(func() {
		c.inventory.productRepo, err = c.initProductRepository()
		c.storeErr("productRepository", err)
	})
	return c.inventory.productRepo, c.loadErr("productRepository", err)
}

// ProcessedOrderRepository returns the processed order marker repository.
func (c *Container) ProcessedOrderRepository() (inventoryUseCase.ProcessedOrderRepository, error) {
	var err error
	c.inventory.processedInit.Do(func() {
		c.inventory.processedRepo, err = c.initProcessedOrderRepository()
		c.storeErr("processedOrderRepository", err)
	})
	return c.inventory.processedRepo, c.loadErr("processedOrderRepository", err)
}

// ProductUseCase returns the product catalog use case.
func (c *Container) ProductUseCase() (inventoryUseCase.ProductUseCase, error) {
	var err error
	c.inventory.productUCInit.Do(func() {
		c.inventory.productUseCase, err = c.initProductUseCase()
		c.storeErr("productUseCase", err)
	})
	return c.inventory.productUseCase, c.loadErr("productUseCase", err)
}

// ReservationUseCase returns the stock reservation use case.
func (c *Container) ReservationUseCase() (inventoryUseCase.ReservationUseCase, error) {
	var err error
	c.inventory.reservationInit.Do(func() {
		c.inventory.reservation, err = c.initReservationUseCase()
		c.storeErr("reservationUseCase", err)
	})
	return c.inventory.reservation, c.loadErr("reservationUseCase", err)
}

// ProductHandler returns the product HTTP handler.
func (c *Container) ProductHandler() (*inventoryHTTP.ProductHandler, error) {
	var err error
	c.inventory.handlerInit.Do(func() {
		var uc inventoryUseCase.ProductUseCase
		if uc, err = c.ProductUseCase(); err != nil {
			c.storeErr("productHandler", err)
			return
		}
		c.inventory.productHandler = inventoryHTTP.NewProductHandler(uc, c.Logger())
	})
	return c.inventory.productHandler, c.loadErr("productHandler", err)
}

// InventoryConsumer returns the consumer reserving stock for new orders.
func (c *Container) InventoryConsumer() (*inventoryConsumer.InventoryConsumer, error) {
	var err error
	c.inventory.consumerInit.Do(func() {
		var uc inventoryUseCase.ReservationUseCase
		if uc, err = c.ReservationUseCase(); err != nil {
			c.storeErr("inventoryConsumer", err)
			return
		}
		c.inventory.consumer = inventoryConsumer.NewInventoryConsumer(uc)
	})
	return c.inventory.consumer, c.loadErr("inventoryConsumer", err)
}

func (c *Container) initProductRepository() (inventoryUseCase.ProductRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for product repository: %w", err)
	}
	return selectByDriver(c.config.DBDriver,
		func() inventoryUseCase.ProductRepository { return inventoryRepository.NewPostgreSQLProductRepository(db) },
		func() inventoryUseCase.ProductRepository { return inventoryRepository.NewMySQLProductRepository(db) },
	)
}

func (c *Container) initProcessedOrderRepository() (inventoryUseCase.ProcessedOrderRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for processed order repository: %w", err)
	}
	return selectByDriver(c.config.DBDriver,
		func() inventoryUseCase.ProcessedOrderRepository {
			return inventoryRepository.NewPostgreSQLProcessedOrderRepository(db)
		},
		func() inventoryUseCase.ProcessedOrderRepository {
			return inventoryRepository.NewMySQLProcessedOrderRepository(db)
		},
	)
}

func (c *Container) initProductUseCase() (inventoryUseCase.ProductUseCase, error) {
	repo, err := c.ProductRepository()
	if err != nil {
		return nil, err
	}

	business, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics for product use case: %w", err)
	}

	return inventoryUseCase.NewProductUseCaseWithMetrics(inventoryUseCase.NewProductUseCase(repo, c.clock), business), nil
}

func (c *Container) initReservationUseCase() (inventoryUseCase.ReservationUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for reservation use case: %w", err)
	}

	productRepo, err := c.ProductRepository()
	if err != nil {
		return nil, err
	}

	processedRepo, err := c.ProcessedOrderRepository()
	if err != nil {
		return nil, err
	}

	writer, err := c.OutboxWriter()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox writer for reservation use case: %w", err)
	}

	business, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics for reservation use case: %w", err)
	}

	useCase := inventoryUseCase.NewReservationUseCase(
		txManager,
		productRepo,
		processedRepo,
		writer,
		c.clock,
		c.Logger(),
	)
	return inventoryUseCase.NewReservationUseCaseWithMetrics(useCase, business), nil
}
