package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	httpin "mensajero/internal/adapters/in/http"
	"mensajero/internal/adapters/out/dynamo"
	"mensajero/internal/adapters/out/kafka"
	"mensajero/internal/adapters/out/memory"
	"mensajero/internal/adapters/out/postgres"
	"mensajero/internal/adapters/out/postgres/orderrepo"
	"mensajero/internal/adapters/out/rediscache"
	"mensajero/internal/adapters/out/routing"
	"mensajero/internal/core/application/usecases/commands"
	"mensajero/internal/core/application/usecases/queries"
	"mensajero/internal/core/domain/services"
	"mensajero/internal/core/ports"
	"mensajero/internal/jobs"
	"mensajero/internal/pkg/keylock"

	"github.com/labstack/echo/v4"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// CompositionRoot builds the object graph once at startup. Optional
// collaborators stay nil when their configuration is empty.
type CompositionRoot struct {
	cfg        Config
	logger     *slog.Logger
	uowFactory ports.UnitOfWorkFactory
	locks      *keylock.Striped
	quoter     ports.RouteQuoter
	archiver   ports.OrderArchiver
	limiter    httpin.RateLimiter
	closers    []func() error
}

func NewCompositionRoot(ctx context.Context, cfg Config, logger *slog.Logger) (*CompositionRoot, error) {
	root := &CompositionRoot{
		cfg:    cfg,
		logger: logger,
		locks:  keylock.NewStriped(keylock.DefaultStripes),
	}

	uowFactory, err := root.openStorage(ctx)
	if err != nil {
		return nil, errors.Join(err, root.Close())
	}
	root.uowFactory = uowFactory

	var cache routing.Cache
	if cfg.RedisAddr != "" {
		client := rediscache.NewClient(cfg.RedisAddr)
		root.closers = append(root.closers, client.Close)
		root.limiter = rediscache.NewRateLimiter(client)
		cache = rediscache.New(client)
	}

	if cfg.RoutingBaseURL != "" {
		pricing := routing.Pricing{BaseFare: cfg.PriceBaseFare, PerKm: cfg.PricePerKm}
		client := routing.NewClient(routing.ClientConfig{
			BaseURL: cfg.RoutingBaseURL,
			APIKey:  cfg.RoutingAPIKey,
			Profile: cfg.RoutingProfile,
			Pricing: pricing,
		})
		var quoter ports.RouteQuoter = client
		if cache != nil {
			ttl := time.Duration(cfg.RouteCacheTTLSeconds) * time.Second
			quoter = routing.NewCachedQuoter(client, pricing, cache, ttl, logger)
		}
		root.quoter = quoter
	}

	if len(cfg.KafkaBrokers) > 0 {
		archiver := kafka.NewArchiver(cfg.KafkaBrokers, cfg.KafkaArchiveTopic)
		root.closers = append(root.closers, archiver.Close)
		root.archiver = archiver
	}

	logger.InfoContext(ctx, "Composition root ready",
		"storage", cfg.Storage,
		"route_quotes", root.quoter != nil,
		"archival", root.archiver != nil,
		"rate_limit", root.limiter != nil)

	return root, nil
}

func (c *CompositionRoot) openStorage(ctx context.Context) (ports.UnitOfWorkFactory, error) {
	switch c.cfg.Storage {
	case StoragePostgres:
		db, err := gorm.Open(gormpostgres.Open(c.cfg.DSN()), &gorm.Config{})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, sqlDB.Close)

		if err := db.WithContext(ctx).AutoMigrate(&orderrepo.OrderDTO{}); err != nil {
			return nil, fmt.Errorf("failed to migrate orders table: %w", err)
		}
		return postgres.NewGormUnitOfWorkFactory(db), nil

	case StorageDynamoDB:
		awsCfg, err := dynamo.LoadAWSConfig(ctx, c.cfg.AWSRegion)
		if err != nil {
			return nil, err
		}
		client := dynamo.NewClient(awsCfg, c.cfg.DynamoDBEndpoint)
		if err := dynamo.EnsureTable(ctx, client, c.cfg.DynamoDBTable); err != nil {
			return nil, err
		}
		return dynamo.NewUnitOfWorkFactory(dynamo.NewOrderRepository(client, c.cfg.DynamoDBTable)), nil

	default:
		return memory.NewUnitOfWorkFactory(memory.NewOrderStore()), nil
	}
}

func (c *CompositionRoot) CreateCreateOrderCommandHandler() commands.CreateOrderCommandHandler {
	return commands.NewCreateOrderCommandHandler(c.uowFactory, c.quoter, c.logger)
}

func (c *CompositionRoot) CreateClaimOrderCommandHandler() commands.ClaimOrderCommandHandler {
	return commands.NewClaimOrderCommandHandler(c.uowFactory, c.locks)
}

func (c *CompositionRoot) CreateMarkInTransitCommandHandler() commands.MarkInTransitCommandHandler {
	return commands.NewMarkInTransitCommandHandler(c.uowFactory, c.locks)
}

func (c *CompositionRoot) CreateMarkDeliveredCommandHandler() commands.MarkDeliveredCommandHandler {
	return commands.NewMarkDeliveredCommandHandler(c.uowFactory, c.locks)
}

func (c *CompositionRoot) CreateReportLocationCommandHandler() commands.ReportLocationCommandHandler {
	return commands.NewReportLocationCommandHandler(c.uowFactory, c.locks, services.NewGeofence())
}

// CreateArchiveOrderCommandHandler returns nil when no archiver is configured.
func (c *CompositionRoot) CreateArchiveOrderCommandHandler() *commands.ArchiveOrderCommandHandler {
	if c.archiver == nil {
		return nil
	}
	h := commands.NewArchiveOrderCommandHandler(c.uowFactory, c.locks, c.archiver)
	return &h
}

func (c *CompositionRoot) CreateGetOrderQueryHandler() queries.GetOrderQueryHandler {
	return queries.NewGetOrderQueryHandler(c.uowFactory)
}

func (c *CompositionRoot) CreateListOrdersByStatusQueryHandler() queries.ListOrdersByStatusQueryHandler {
	return queries.NewListOrdersByStatusQueryHandler(c.uowFactory)
}

func (c *CompositionRoot) CreateHTTPServer() *httpin.Server {
	return httpin.NewServer(httpin.Handlers{
		CreateOrder:    c.CreateCreateOrderCommandHandler(),
		ClaimOrder:     c.CreateClaimOrderCommandHandler(),
		MarkInTransit:  c.CreateMarkInTransitCommandHandler(),
		MarkDelivered:  c.CreateMarkDeliveredCommandHandler(),
		ReportLocation: c.CreateReportLocationCommandHandler(),
		ArchiveOrder:   c.CreateArchiveOrderCommandHandler(),
		GetOrder:       c.CreateGetOrderQueryHandler(),
		ListOrders:     c.CreateListOrdersByStatusQueryHandler(),
	}, c.logger)
}

func (c *CompositionRoot) CreateRouter(server *httpin.Server) *echo.Echo {
	return httpin.NewRouter(server, httpin.RouterConfig{
		LogLevel:               c.cfg.SlogLevel(),
		LocationLimiter:        c.limiter,
		LocationLimitPerMinute: int64(c.cfg.LocationRateLimitPerMinute),
	})
}

// CreateJobManager returns nil when archival is disabled.
func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	archive := c.CreateArchiveOrderCommandHandler()
	if archive == nil {
		return nil
	}

	pending := commands.NewArchivePendingOrdersCommandHandler(c.uowFactory, *archive, c.logger)
	return jobs.NewJobManager(pending, c.cfg.ArchiveReconcileSchedule, c.logger)
}

// Close releases connections in reverse order of creation.
func (c *CompositionRoot) Close() error {
	var errList []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errList = append(errList, c.closers[i]())
	}
	c.closers = nil
	return errors.Join(errList...)
}
