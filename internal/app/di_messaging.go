package app

import (
	"fmt"
	"sync"

	"github.com/allisson/orderflow/internal/config"
	"github.com/allisson/orderflow/internal/consumer"
	"github.com/allisson/orderflow/internal/messaging"
	"github.com/allisson/orderflow/internal/messaging/kafka"
	"github.com/allisson/orderflow/internal/messaging/nats"
	"github.com/allisson/orderflow/internal/messaging/pubsub"
	"github.com/allisson/orderflow/internal/messaging/rabbitmq"
	outboxRepository "github.com/allisson/orderflow/internal/outbox/repository"
	outboxUseCase "github.com/allisson/orderflow/internal/outbox/usecase"
)

type outboxComponents struct {
	repo       outboxUseCase.MessageRepository
	writer     *outboxUseCase.Writer
	publisher  *outboxUseCase.PublisherUseCase
	dispatcher *consumer.Dispatcher

	repoInit       sync.Once
	writerInit     sync.Once
	publisherInit  sync.Once
	dispatcherInit sync.Once
}

// Bus returns the message bus selected by BUS_DRIVER.
func (c *Container) Bus() (messaging.Bus, error) {
	var err error
	c.busInit.Do(func() {
		c.bus, err = c.initBus()
		c.storeErr("bus", err)
	})
	return c.bus, c.loadErr("bus", err)
}

// OutboxRepository returns the outbox repository of the service database.
func (c *Container) OutboxRepository() (outboxUseCase.MessageRepository, error) {
	var err error
	c.outbox.repoInit.Do(func() {
		c.outbox.repo, err = c.initOutboxRepository()
		c.storeErr("outboxRepository", err)
	})
	return c.outbox.repo, c.loadErr("outboxRepository", err)
}

// OutboxWriter returns the writer that captures aggregate events inside use case transactions.
func (c *Container) OutboxWriter() (*outboxUseCase.Writer, error) {
	var err error
	c.outbox.writerInit.Do(func() {
		var repo outboxUseCase.MessageRepository
		if repo, err = c.OutboxRepository(); err != nil {
			c.storeErr("outboxWriter", err)
			return
		}
		c.outbox.writer = outboxUseCase.NewWriter(repo, c.clock)
	})
	return c.outbox.writer, c.loadErr("outboxWriter", err)
}

// OutboxPublisher returns the outbox polling publisher.
func (c *Container) OutboxPublisher() (*outboxUseCase.PublisherUseCase, error) {
	var err error
	c.outbox.publisherInit.Do(func() {
		c.outbox.publisher, err = c.initOutboxPublisher()
		c.storeErr("outboxPublisher", err)
	})
	return c.outbox.publisher, c.loadErr("outboxPublisher", err)
}

// Dispatcher returns the consumer dispatcher with the handlers of the configured service.
func (c *Container) Dispatcher() (*consumer.Dispatcher, error) {
	var err error
	c.outbox.dispatcherInit.Do(func() {
		c.outbox.dispatcher, err = c.initDispatcher()
		c.storeErr("dispatcher", err)
	})
	return c.outbox.dispatcher, c.loadErr("dispatcher", err)
}

func (c *Container) initBus() (messaging.Bus, error) {
	logger := c.Logger()
	service := c.config.ServiceName

	switch c.config.BusDriver {
	case config.BusDriverRabbitMQ:
		return busOrNil(rabbitmq.New(rabbitmq.Config{
			URL:      c.config.RabbitMQURL,
			Exchange: c.config.RabbitMQExchange,
			Service:  service,
		}, logger))
	case config.BusDriverKafka:
		return kafka.New(kafka.Config{
			Brokers:     c.config.KafkaBrokers,
			TopicPrefix: c.config.KafkaTopicPrefix,
			Service:     service,
		}, logger), nil
	case config.BusDriverNATS:
		return busOrNil(nats.New(c.ctx, nats.Config{
			URL:     c.config.NATSURL,
			Stream:  c.config.NATSStream,
			Service: service,
		}, logger))
	case config.BusDriverPubSub:
		return busOrNil(pubsub.New(c.ctx, pubsub.Config{
			TopicURLTemplate:        c.config.PubSubTopicURLTemplate,
			SubscriptionURLTemplate: c.config.PubSubSubscriptionURLTemplate,
			Service:                 service,
		}, logger))
	default:
		return nil, fmt.Errorf("unsupported bus driver: %s", c.config.BusDriver)
	}
}

// busOrNil keeps a failed constructor from leaving a typed nil in the Bus interface.
func busOrNil[B messaging.Bus](bus B, err error) (messaging.Bus, error) {
	if err != nil {
		return nil, err
	}
	return bus, nil
}

func (c *Container) initOutboxRepository() (outboxUseCase.MessageRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for outbox repository: %w", err)
	}
	return selectByDriver(c.config.DBDriver,
		func() outboxUseCase.MessageRepository { return outboxRepository.NewPostgreSQLOutboxRepository(db) },
		func() outboxUseCase.MessageRepository { return outboxRepository.NewMySQLOutboxRepository(db) },
	)
}

func (c *Container) initOutboxPublisher() (*outboxUseCase.PublisherUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for outbox publisher: %w", err)
	}

	repo, err := c.OutboxRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox repository for outbox publisher: %w", err)
	}

	bus, err := c.Bus()
	if err != nil {
		return nil, fmt.Errorf("failed to get message bus for outbox publisher: %w", err)
	}

	reliability, err := c.ReliabilityMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics for outbox publisher: %w", err)
	}

	return outboxUseCase.NewPublisherUseCase(
		outboxUseCase.Config{
			Interval:   c.config.OutboxInterval,
			BatchSize:  c.config.OutboxBatchSize,
			MaxRetries: c.config.OutboxMaxRetries,
		},
		txManager,
		repo,
		bus,
		c.clock,
		reliability,
		c.Logger(),
	), nil
}

func (c *Container) initDispatcher() (*consumer.Dispatcher, error) {
	bus, err := c.Bus()
	if err != nil {
		return nil, fmt.Errorf("failed to get message bus for dispatcher: %w", err)
	}

	reliability, err := c.ReliabilityMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics for dispatcher: %w", err)
	}

	dispatcher := consumer.NewDispatcher(
		consumer.Config{
			ConflictMaxAttempts: c.config.ConsumerConflictMaxAttempts,
			ConflictBackoff:     c.config.ConsumerConflictBackoff,
			RedeliveryIntervals: c.config.BusRedeliveryIntervals,
		},
		bus,
		c.clock,
		reliability,
		c.Logger(),
	)

	switch c.config.ServiceName {
	case config.ServiceOrders:
		orderConsumer, err := c.OrderConsumer()
		if err != nil {
			return nil, err
		}
		orderConsumer.Register(dispatcher)
	case config.ServiceInventory:
		inventoryConsumer, err := c.InventoryConsumer()
		if err != nil {
			return nil, err
		}
		inventoryConsumer.Register(dispatcher)
	case config.ServiceNotifications:
		notificationConsumer, err := c.NotificationConsumer()
		if err != nil {
			return nil, err
		}
		notificationConsumer.Register(dispatcher)
	default:
		return nil, fmt.Errorf("unknown service: %s", c.config.ServiceName)
	}

	return dispatcher, nil
}
