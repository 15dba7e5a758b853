package provider

import (
	"github.com/wasl-next/internal/cache"
	"github.com/wasl-next/internal/config"
	"github.com/wasl-next/internal/logger"
	"github.com/wasl-next/internal/models"
	"github.com/wasl-next/internal/queue"
	"github.com/wasl-next/internal/repository"
	"github.com/wasl-next/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	UserRepo            repository.UserRepository
	OrderRepo           repository.OrderRepository
	PackageRepo         repository.PackageRepository
	ShippingCompanyRepo repository.ShippingCompanyRepository
	VillageRepo         repository.VillageRepository
	WalletRepo          repository.WalletRepository
	SettingRepo         repository.SettingRepository

	// Services
	SettingService      *service.SettingService
	WalletService       *service.WalletService
	NotificationService *service.NotificationService
	ShippingService     *service.ShippingService
	SettlementService   *service.SettlementService
	OrderService        *service.OrderService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.PackageRepo = repository.NewPackageRepository(db)
	c.ShippingCompanyRepo = repository.NewShippingCompanyRepository(db)
	c.VillageRepo = repository.NewVillageRepository(db)
	c.WalletRepo = repository.NewWalletRepository(db)
	c.SettingRepo = repository.NewSettingRepository(db)
}

func (c *Container) initServices() {
	c.SettingService = service.NewSettingService(c.SettingRepo)
	c.WalletService = service.NewWalletService(c.WalletRepo, c.UserRepo)
	c.NotificationService = service.NewNotificationService(c.Config.Notify, c.QueueClient)
	c.ShippingService = service.NewShippingService(
		c.OrderRepo,
		c.PackageRepo,
		c.ShippingCompanyRepo,
		c.VillageRepo,
		c.SettingService,
		c.NotificationService,
		c.Config.Shipping,
	)
	c.SettlementService = service.NewSettlementService(c.OrderRepo, c.WalletService, c.NotificationService, c.Config.Settlement)
	c.OrderService = service.NewOrderService(c.OrderRepo, c.ShippingService, c.SettlementService, c.QueueClient)
}
