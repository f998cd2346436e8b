package app

import (
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	idempotencyCache "github.com/allisson/orderflow/internal/idempotency/cache"
	idempotencyRepository "github.com/allisson/orderflow/internal/idempotency/repository"
	orderConsumer "github.com/allisson/orderflow/internal/order/consumer"
	orderHTTP "github.com/allisson/orderflow/internal/order/http"
	orderRepository "github.com/allisson/orderflow/internal/order/repository"
	orderUseCase "github.com/allisson/orderflow/internal/order/usecase"
)

type orderComponents struct {
	repo     orderUseCase.OrderRepository
	keyRepo  orderUseCase.KeyRepository
	useCase  orderUseCase.OrderUseCase
	handler  *orderHTTP.OrderHandler
	consumer *orderConsumer.OrderConsumer

	repoInit     sync.Once
	keyRepoInit  sync.Once
	useCaseInit  sync.Once
	handlerInit  sync.Once
	consumerInit sync.Once
}

// OrderRepository returns the order repository.
func (c *Container) OrderRepository() (orderUseCase.OrderRepository, error) {
	var err error
	c.orders.repoInit.Do(func() {
		c.orders.repo, err = c.initOrderRepository()
		c.storeErr("orderRepository", err)
	})
	return c.orders.repo, c.loadErr("orderRepository", err)
}

// KeyRepository returns the idempotency key repository, behind the Redis cache when enabled.
func (c *Container) KeyRepository() (orderUseCase.KeyRepository, error) {
	var err error
	c.orders.keyRepoInit.Do(func() {
		c.orders.keyRepo, err = c.initKeyRepository()
		c.storeErr("keyRepository", err)
	})
	return c.orders.keyRepo, c.loadErr("keyRepository", err)
}

// OrderUseCase returns the order use case.
func (c *Container) OrderUseCase() (orderUseCase.OrderUseCase, error) {
	var err error
	c.orders.useCaseInit.Do(func() {
		c.orders.useCase, err = c.initOrderUseCase()
		c.storeErr("orderUseCase", err)
	})
	return c.orders.useCase, c.loadErr("orderUseCase", err)
}

// OrderHandler returns the order HTTP handler.
func (c *Container) OrderHandler() (*orderHTTP.OrderHandler, error) {
	var err error
	c.orders.handlerInit.Do(func() {
		var uc orderUseCase.OrderUseCase
		if uc, err = c.OrderUseCase(); err != nil {
			c.storeErr("orderHandler", err)
			return
		}
		c.orders.handler = orderHTTP.NewOrderHandler(uc, c.Logger())
	})
	return c.orders.handler, c.loadErr("orderHandler", err)
}

// OrderConsumer returns the consumer applying inventory outcomes to orders.
func (c *Container) OrderConsumer() (*orderConsumer.OrderConsumer, error) {
	var err error
	c.orders.consumerInit.Do(func() {
		var uc orderUseCase.OrderUseCase
		if uc, err = c.OrderUseCase(); err != nil {
			c.storeErr("orderConsumer", err)
			return
		}
		c.orders.consumer = orderConsumer.NewOrderConsumer(uc, c.Logger())
	})
	return c.orders.consumer, c.loadErr("orderConsumer", err)
}

func (c *Container) initOrderRepository() (orderUseCase.OrderRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for order repository: %w", err)
	}
	return selectByDriver(c.config.DBDriver,
		func() orderUseCase.OrderRepository { return orderRepository.NewPostgreSQLOrderRepository(db) },
		func() orderUseCase.OrderRepository { return orderRepository.NewMySQLOrderRepository(db) },
	)
}

func (c *Container) initKeyRepository() (orderUseCase.KeyRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for idempotency key repository: %w", err)
	}

	repo, err := selectByDriver(c.config.DBDriver,
		func() idempotencyCache.Repository { return idempotencyRepository.NewPostgreSQLKeyRepository(db) },
		func() idempotencyCache.Repository { return idempotencyRepository.NewMySQLKeyRepository(db) },
	)
	if err != nil {
		return nil, err
	}

	if !c.config.IdempotencyCacheEnabled {
		return repo, nil
	}

	client, err := c.RedisClient()
	if err != nil {
		return nil, fmt.Errorf("failed to get redis client for idempotency cache: %w", err)
	}
	return idempotencyCache.NewCachedRepository(repo, client, c.config.IdempotencyCacheTTL, c.Logger()), nil
}

func (c *Container) initRedisClient() (*redis.Client, error) {
	client, err := idempotencyCache.Connect(c.ctx, c.config.RedisAddr, c.config.RedisPassword, c.config.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func (c *Container) initOrderUseCase() (orderUseCase.OrderUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for order use case: %w", err)
	}

	orderRepo, err := c.OrderRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get order repository for order use case: %w", err)
	}

	keyRepo, err := c.KeyRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get key repository for order use case: %w", err)
	}

	writer, err := c.OutboxWriter()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox writer for order use case: %w", err)
	}

	business, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics for order use case: %w", err)
	}

	useCase := orderUseCase.NewOrderUseCase(txManager, orderRepo, keyRepo, writer, c.clock, c.Logger())
	return orderUseCase.NewOrderUseCaseWithMetrics(useCase, business), nil
}
