package provider

import (
	"github.com/synergy-flow/internal/authz"
	"github.com/synergy-flow/internal/cache"
	"github.com/synergy-flow/internal/commission"
	"github.com/synergy-flow/internal/config"
	"github.com/synergy-flow/internal/events"
	"github.com/synergy-flow/internal/logger"
	"github.com/synergy-flow/internal/models"
	"github.com/synergy-flow/internal/queue"
	"github.com/synergy-flow/internal/repository"
	"github.com/synergy-flow/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	Kafka       *events.KafkaPublisher
	Publisher   service.EventPublisher
	Policy      *commission.Policy
	Options     service.AffiliateOptions

	// Repositories
	UserRepo         repository.UserRepository
	ReferralRepo     repository.ReferralRepository
	WalletRepo       repository.WalletRepository
	CommissionRepo   repository.CommissionRepository
	OrderRepo        repository.OrderRepository
	CartRepo         repository.CartRepository
	CouponRepo       repository.CouponRepository
	ProductRepo      repository.ProductRepository
	AddressRepo      repository.AddressRepository
	BankAccountRepo  repository.BankAccountRepository
	NotificationRepo repository.NotificationRepository
	AuditLogRepo     repository.AuditLogRepository
	DashboardRepo    repository.DashboardRepository

	// Services
	AuthzService         *authz.Service
	AuditService         *service.AuditService
	WalletService        *service.WalletService
	ReferralService      *service.ReferralService
	TierService          *service.TierService
	UserAuthService      *service.UserAuthService
	ProductService       *service.ProductService
	CartService          *service.CartService
	CouponAdminService   *service.CouponAdminService
	CheckoutService      *service.CheckoutService
	OrderService         *service.OrderService
	WithdrawalService    *service.WithdrawalService
	AdminLedgerService   *service.AdminLedgerService
	DashboardService     *service.DashboardService
	NotificationService  *service.NotificationService
	MemberProfileService *service.MemberProfileService
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

	policy, err := cfg.Affiliate.BuildPolicy()
	if err != nil {
		logger.Errorw("provider_build_tier_policy_failed", "error", err)
		panic(err)
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
		Policy:      policy,
		Options:     service.AffiliateOptionsFromConfig(cfg.Affiliate),
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	// 3. 事件投递在服务就绪后装配，同步通知依赖 NotificationService
	c.initPublisher()

	return c
}

// Close 释放外部连接
func (c *Container) Close() {
	if c == nil {
		return
	}
	if c.Kafka != nil {
		if err := c.Kafka.Close(); err != nil {
			logger.Warnw("provider_close_kafka_failed", "error", err)
		}
	}
	if c.QueueClient != nil {
		if err := c.QueueClient.Close(); err != nil {
			logger.Warnw("provider_close_queue_client_failed", "error", err)
		}
	}
	if err := cache.Close(); err != nil {
		logger.Warnw("provider_close_redis_failed", "error", err)
	}
}

func (c *Container) initRepositories() {
	db := models.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.ReferralRepo = repository.NewReferralRepository(db)
	c.WalletRepo = repository.NewWalletRepository(db)
	c.CommissionRepo = repository.NewCommissionRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.CartRepo = repository.NewCartRepository(db)
	c.CouponRepo = repository.NewCouponRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.AddressRepo = repository.NewAddressRepository(db)
	c.BankAccountRepo = repository.NewBankAccountRepository(db)
	c.NotificationRepo = repository.NewNotificationRepository(db)
	c.AuditLogRepo = repository.NewAuditLogRepository(db)
	c.DashboardRepo = repository.NewDashboardRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	opts := c.Options
	c.AuditService = service.NewAuditService(c.AuditLogRepo)
	c.WalletService = service.NewWalletService(c.WalletRepo, opts.Currency)
	c.ReferralService = service.NewReferralService(c.UserRepo, c.ReferralRepo)
	c.TierService = service.NewTierService(c.Policy, c.UserRepo)
	c.UserAuthService = service.NewUserAuthService(c.Config, c.UserRepo, c.ReferralService)
	c.ProductService = service.NewProductService(c.ProductRepo, c.AuditService)
	c.CartService = service.NewCartService(c.Policy, c.CartRepo, c.ProductRepo, c.CouponRepo, c.UserRepo)
	c.CouponAdminService = service.NewCouponAdminService(c.CouponRepo, c.AuditService)
	c.CheckoutService = service.NewCheckoutService(service.CheckoutDeps{
		Options:        opts,
		Policy:         c.Policy,
		UserRepo:       c.UserRepo,
		ReferralRepo:   c.ReferralRepo,
		OrderRepo:      c.OrderRepo,
		CommissionRepo: c.CommissionRepo,
		CartRepo:       c.CartRepo,
		CouponRepo:     c.CouponRepo,
		AddressRepo:    c.AddressRepo,
		CartService:    c.CartService,
		TierService:    c.TierService,
		Referrals:      c.ReferralService,
		Wallet:         c.WalletService,
	})
	c.OrderService = service.NewOrderService(c.OrderRepo, c.CommissionRepo, c.WalletService, c.AuditService, nil)
	c.WithdrawalService = service.NewWithdrawalService(opts, c.CommissionRepo, c.BankAccountRepo, c.WalletService, c.AuditService, nil)
	c.AdminLedgerService = service.NewAdminLedgerService(opts, c.UserRepo, c.ReferralRepo, c.CommissionRepo, c.WalletService, c.AuditService)
	c.DashboardService = service.NewDashboardService(opts, c.DashboardRepo, c.UserRepo, c.CommissionRepo, c.TierService, c.ReferralService, c.WalletService)
	c.NotificationService = service.NewNotificationService(c.NotificationRepo, c.UserRepo, opts.Currency)
	c.MemberProfileService = service.NewMemberProfileService(c.AddressRepo, c.BankAccountRepo)
}

// initPublisher 队列开启时通知交给 worker 异步生成，否则在请求内同步写入
func (c *Container) initPublisher() {
	var publishers []service.EventPublisher
	if c.QueueClient != nil && c.QueueClient.Enabled() {
		publishers = append(publishers, events.NewQueuePublisher(c.QueueClient))
	} else {
		publishers = append(publishers, events.NewSyncPublisher(c.NotificationService))
	}
	if kafka := events.NewKafkaPublisher(c.Config.Events.Kafka); kafka != nil {
		c.Kafka = kafka
		publishers = append(publishers, kafka)
	}
	c.Publisher = events.NewMulti(publishers...)

	c.CheckoutService.SetPublisher(c.Publisher)
	c.OrderService.SetPublisher(c.Publisher)
	c.WithdrawalService.SetPublisher(c.Publisher)
}
