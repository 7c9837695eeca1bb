package bootstrap

import (
	"context"
	"fmt"
	"log"

	"listing-billing-be/internal/config"
	"listing-billing-be/internal/controller"
	"listing-billing-be/internal/entity"
	"listing-billing-be/internal/pkg/logger"
	"listing-billing-be/internal/repository/memory"
	"listing-billing-be/internal/pkg/serverutils"
	"listing-billing-be/internal/repository/unitofwork"
	"listing-billing-be/internal/scheduler"
	"listing-billing-be/internal/service"
	"listing-billing-be/pkg/entitlement/catalog"
	"listing-billing-be/pkg/entitlement/coupon"
	"listing-billing-be/pkg/entitlement/dependency"
	"listing-billing-be/pkg/entitlement/purchase"
	"listing-billing-be/pkg/entitlement/stacking"
	"listing-billing-be/pkg/events"
	"listing-billing-be/pkg/lock"

	pktNats "listing-billing-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	CatalogController  controller.ICatalogController
	CouponController   controller.ICouponController
	PurchaseController controller.IPurchaseController
	AdminController    controller.IAdminController

	// Services, exposed for the CLI tools and tests
	CatalogService  service.ICatalogService
	CouponService   service.ICouponService
	PurchaseService service.IPurchaseService
	InvoiceService  service.IInvoiceService

	// Scheduler is built and registered here; cmd/rest starts it.
	Scheduler *scheduler.Scheduler

	UowFactory unitofwork.RepositoryFactory
	Logger     logger.ILogger

	closers []func()
}

// NewContainer wires the application. db may be nil when the store driver is
// "memory".
func NewContainer(db *gorm.DB, cfg *config.Config) (*Container, error) {
	c := &Container{}

	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	c.Logger = sysLogger
	c.closers = append(c.closers, func() { _ = sysLogger.Sync() })

	uowFactory, err := newRepositoryFactory(db, cfg)
	if err != nil {
		return nil, err
	}
	c.UowFactory = uowFactory

	defaultPolicy, err := stacking.ParsePolicy(cfg.Billing.DefaultPlanStacking, entity.StackingExtend)
	if err != nil {
		return nil, fmt.Errorf("DEFAULT_PLAN_STACKING: %w", err)
	}

	// 2. Infrastructure
	locker := newLocker(cfg, sysLogger)
	bus, subscriber := c.newBus(cfg, sysLogger)
	publisher := events.NewBusPublisher(bus, sysLogger)

	// 3. Domain
	resolver := dependency.NewResolver()
	reader := catalog.NewCachedReader(uowFactory, resolver, cfg.Billing.CatalogCacheTTL)
	planManager := catalog.NewPlanManager()
	upgradeManager := catalog.NewUpgradeManager(resolver)
	ledger := coupon.NewLedger(nil)
	couponManager := coupon.NewManager()
	orchestrator := purchase.NewOrchestrator(uowFactory, ledger, resolver, locker, purchase.Config{
		GracePeriod:   cfg.Billing.InvoiceGracePeriod,
		DefaultPolicy: defaultPolicy,
	})

	// Other instances invalidate their catalog cache when this one writes.
	if subscriber != nil {
		err := subscriber.Subscribe(events.CatalogChanged, func(ctx context.Context, evt events.Event) error {
			reader.Invalidate()
			return nil
		})
		if err != nil {
			sysLogger.Warn("BOOTSTRAP", "Catalog invalidation subscription failed", map[string]interface{}{"error": err.Error()})
		}
	}

	// 4. Services
	c.CatalogService = service.NewCatalogService(uowFactory, planManager, upgradeManager, resolver, reader, locker, publisher, sysLogger)
	c.CouponService = service.NewCouponService(uowFactory, ledger, couponManager, locker, sysLogger)
	c.PurchaseService = service.NewPurchaseService(orchestrator, publisher, sysLogger)
	c.InvoiceService = service.NewInvoiceService(orchestrator, publisher, sysLogger)
	adminService := service.NewAdminService(sysLogger)

	// 5. Controllers
	c.CatalogController = controller.NewCatalogController(c.CatalogService)
	c.CouponController = controller.NewCouponController(c.CouponService,
		serverutils.NewRateLimiter(cfg.Billing.CouponRateLimit, cfg.Billing.CouponRateBurst))
	c.PurchaseController = controller.NewPurchaseController(c.PurchaseService, c.InvoiceService)
	c.AdminController = controller.NewAdminController(adminService, c.InvoiceService)

	// 6. Jobs
	c.Scheduler = scheduler.New(scheduler.NewHandler(c.InvoiceService, cfg.Billing.InvoiceSweepBatch, sysLogger), sysLogger)
	if err := c.Scheduler.RegisterInvoiceSweep(cfg.Billing.InvoiceSweepSchedule); err != nil {
		return nil, err
	}
	c.closers = append(c.closers, c.Scheduler.Stop)

	return c, nil
}

// Close releases broker connections and flushes the logger, in reverse order
// of acquisition.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

func newRepositoryFactory(db *gorm.DB, cfg *config.Config) (unitofwork.RepositoryFactory, error) {
	switch cfg.Database.Driver {
	case "memory":
		return memory.NewRepositoryFactory(memory.NewStore()), nil
	case "postgres", "":
		if db == nil {
			return nil, fmt.Errorf("store driver %q needs a database connection", cfg.Database.Driver)
		}
		return unitofwork.NewRepositoryFactory(db), nil
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.Database.Driver)
	}
}

func newLocker(cfg *config.Config, sysLogger logger.ILogger) lock.Locker {
	if cfg.Infra.LockDriver != "redis" {
		return lock.NewLocalLocker()
	}

	opt, err := redis.ParseURL(cfg.Infra.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.Infra.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		sysLogger.Warn("BOOTSTRAP", "Failed to connect to Redis", map[string]interface{}{"error": err.Error()})
	}
	return lock.NewRedisLocker(rdb, cfg.Infra.LockTTL)
}

// newBus prefers NATS JetStream and falls back to an in-process channel when
// no broker is configured or reachable.
func (c *Container) newBus(cfg *config.Config, sysLogger logger.ILogger) (events.Bus, *pktNats.Subscriber) {
	if cfg.Infra.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.Infra.NatsURL)
		if err == nil {
			c.closers = append(c.closers, natsPub.Close)
			natsSub, err := pktNats.NewSubscriber(cfg.Infra.NatsURL)
			if err != nil {
				sysLogger.Warn("BOOTSTRAP", "Failed to connect to NATS Subscriber", map[string]interface{}{"error": err.Error()})
				return natsPub, nil
			}
			c.closers = append(c.closers, natsSub.Close)
			return natsPub, natsSub
		}
		sysLogger.Warn("BOOTSTRAP", "Failed to connect to NATS Publisher, using in-process bus", map[string]interface{}{"error": err.Error()})
	}

	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermill.NewStdLogger(false, false),
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })
	return events.NewChannelBus(pubSub), nil
}
