package app

import (
	"fmt"
	"sync"

	notificationConsumer "github.com/allisson/orderflow/internal/notification/consumer"
	notificationHTTP "github.com/allisson/orderflow/internal/notification/http"
	notificationRepository "github.com/allisson/orderflow/internal/notification/repository"
	"github.com/allisson/orderflow/internal/notification/sender"
	notificationUseCase "github.com/allisson/orderflow/internal/notification/usecase"
)

type notificationComponents struct {
	repo     notificationUseCase.NotificationRepository
	sender   notificationUseCase.Sender
	useCase  notificationUseCase.NotificationUseCase
	retry    notificationUseCase.RetryUseCase
	handler  *notificationHTTP.NotificationHandler
	consumer *notificationConsumer.NotificationConsumer

	repoInit     sync.Once
	senderInit   sync.Once
	useCaseInit  sync.Once
	retryInit    sync.Once
	handlerInit  sync.Once
	consumerInit sync.Once
}

// NotificationRepository returns the notification repository.
func (c *Container) NotificationRepository() (notificationUseCase.NotificationRepository, error) {
	var err error
	c.notifications.repoInit.Do(func() {
		c.notifications.repo, err = c.initNotificationRepository()
		c.storeErr("notificationRepository", err)
	})
	return c.notifications.repo, c.loadErr("notificationRepository", err)
}

// NotificationSender returns the log sender guarded by a circuit breaker.
func (c *Container) NotificationSender() notificationUseCase.Sender {
	c.notifications.senderInit.Do(func() {
		logger := c.Logger()
		c.notifications.sender = sender.NewBreakerSender(
			sender.NewLogSender(c.config.NotificationSendLatency, c.clock, logger),
			sender.BreakerConfig{
				MaxFailures: c.config.NotificationBreakerMaxFailures,
				Timeout:     c.config.NotificationBreakerTimeout,
			},
			logger,
		)
	})
	return c.notifications.sender
}

// NotificationUseCase returns the notification use case.
func (c *Container) NotificationUseCase() (notificationUseCase.NotificationUseCase, error) {
	var err error
	c.notifications.useCaseInit.Do(func() {
		c.notifications.useCase, err = c.initNotificationUseCase()
		c.storeErr("notificationUseCase", err)
	})
	return c.notifications.useCase, c.loadErr("notificationUseCase", err)
}

// NotificationRetryUseCase returns the failed notification sweep.
func (c *Container) NotificationRetryUseCase() (notificationUseCase.RetryUseCase, error) {
	var err error
	c.notifications.retryInit.Do(func() {
		c.notifications.retry, err = c.initNotificationRetryUseCase()
		c.storeErr("notificationRetryUseCase", err)
	})
	return c.notifications.retry, c.loadErr("notificationRetryUseCase", err)
}

// NotificationHandler returns the notification HTTP handler.
func (c *Container) NotificationHandler() (*notificationHTTP.NotificationHandler, error) {
	var err error
	c.notifications.handlerInit.Do(func() {
		var uc notificationUseCase.NotificationUseCase
		if uc, err = c.NotificationUseCase(); err != nil {
			c.storeErr("notificationHandler", err)
			return
		}
		c.notifications.handler = notificationHTTP.NewNotificationHandler(uc, c.Logger())
	})
	return c.notifications.handler, c.loadErr("notificationHandler", err)
}

// NotificationConsumer returns the consumer sending notifications for inventory outcomes.
func (c *Container) NotificationConsumer() (*notificationConsumer.NotificationConsumer, error) {
	var err error
	c.notifications.consumerInit.Do(func() {
		var uc notificationUseCase.NotificationUseCase
		if uc, err = c.NotificationUseCase(); err != nil {
			c.storeErr("notificationConsumer", err)
			return
		}
		c.notifications.consumer = notificationConsumer.NewNotificationConsumer(uc)
	})
	return c.notifications.consumer, c.loadErr("notificationConsumer", err)
}

func (c *Container) initNotificationRepository() (notificationUseCase.NotificationRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for notification repository: %w", err)
	}
	return selectByDriver(c.config.DBDriver,
		func() notificationUseCase.NotificationRepository {
			return notificationRepository.NewPostgreSQLNotificationRepository(db)
		},
		func() notificationUseCase.NotificationRepository {
			return notificationRepository.NewMySQLNotificationRepository(db)
		},
	)
}

func (c *Container) initNotificationUseCase() (notificationUseCase.NotificationUseCase, error) {
	repo, err := c.NotificationRepository()
	if err != nil {
		return nil, err
	}

	reliability, err := c.ReliabilityMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics for notification use case: %w", err)
	}

	business, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics for notification use case: %w", err)
	}

	useCase := notificationUseCase.NewNotificationUseCase(repo, c.NotificationSender(), c.clock, reliability, c.Logger())
	return notificationUseCase.NewNotificationUseCaseWithMetrics(useCase, business), nil
}

func (c *Container) initNotificationRetryUseCase() (notificationUseCase.RetryUseCase, error) {
	repo, err := c.NotificationRepository()
	if err != nil {
		return nil, err
	}

	reliability, err := c.ReliabilityMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics for notification retry: %w", err)
	}

	return notificationUseCase.NewRetryUseCase(
		notificationUseCase.RetryConfig{
			Interval:   c.config.NotificationRetryInterval,
			MaxRetries: c.config.NotificationMaxRetries,
			StaleAfter: c.config.NotificationPendingStaleAfter,
		},
		repo,
		c.NotificationSender(),
		c.clock,
		reliability,
		c.Logger(),
	), nil
}
