package main

import (
	"context"
	"os"

	"github.com/synergy-flow/internal/config"
	"github.com/synergy-flow/internal/constants"
	"github.com/synergy-flow/internal/logger"
	"github.com/synergy-flow/internal/models"
	"github.com/synergy-flow/internal/provider"
	"github.com/synergy-flow/internal/service"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type seedMember struct {
	Email       string
	DisplayName string
	Upline      string // 上级邮箱，空表示挂在管理员名下
	Funding     string
}

type seedProduct struct {
	SKU         string
	Name        string
	Description string
	Price       string
}

type seedCoupon struct {
	Code       string
	Type       string
	Value      string
	UsageLimit int
}

const demoPassword = "demo12345"

var demoMembers = []seedMember{
	{Email: "ananda@demo.local", DisplayName: "Ananda", Funding: "20000"},
	{Email: "busaba@demo.local", DisplayName: "Busaba", Upline: "ananda@demo.local", Funding: "5000"},
	{Email: "chai@demo.local", DisplayName: "Chai", Upline: "busaba@demo.local", Funding: "3000"},
	{Email: "dao@demo.local", DisplayName: "Dao", Upline: "chai@demo.local", Funding: "1000"},
	{Email: "ekkachai@demo.local", DisplayName: "Ekkachai", Upline: "ananda@demo.local"},
}

var demoProducts = []seedProduct{
	{SKU: "SF-SERUM-30", Name: "Vitamin C Serum 30ml", Description: "Brightening serum", Price: "890"},
	{SKU: "SF-MASK-10", Name: "Hydrating Sheet Mask x10", Description: "Ten-pack sheet masks", Price: "450"},
	{SKU: "SF-COLLA-60", Name: "Collagen Tablets 60", Description: "Daily collagen supplement", Price: "1290"},
	{SKU: "SF-STARTER", Name: "Starter Kit", Description: "Serum, mask and cleanser bundle", Price: "2500"},
}

var demoCoupons = []seedCoupon{
	{Code: "WELCOME10", Type: constants.CouponTypePercent, Value: "0.10", UsageLimit: 1000},
	{Code: "SAVE200", Type: constants.CouponTypeFixed, Value: "200", UsageLimit: 100},
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warnw("seed_load_env_failed", "error", err)
	}

	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	log := logger.S()

	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}, false); err != nil {
		log.Fatalw("seed_database_init_failed", "error", err)
	}
	if err := models.AutoMigrate(); err != nil {
		log.Fatalw("seed_database_migrate_failed", "error", err)
	}
	if err := models.InitDefaultAdmin(os.Getenv("SF_DEFAULT_ADMIN_EMAIL"), os.Getenv("SF_DEFAULT_ADMIN_PASSWORD"), os.Getenv("SF_DEFAULT_ADMIN_REFERRAL_CODE")); err != nil {
		log.Fatalw("seed_default_admin_failed", "error", err)
	}

	container := provider.NewContainer(cfg)
	defer container.Close()

	admin, err := findAdmin()
	if err != nil {
		log.Fatalw("seed_find_admin_failed", "error", err)
	}
	actor := service.Actor{UserID: admin.ID, Email: admin.Email, RequestID: "seed"}

	seedMembers(container, admin)
	seedProducts(container, actor)
	seedCoupons(container, actor)

	log.Infow("seed_finished",
		"members", len(demoMembers),
		"products", len(demoProducts),
		"coupons", len(demoCoupons),
	)
}

func findAdmin() (*models.User, error) {
	var admin models.User
	if err := models.DB.Where("role = ? AND is_super = ?", constants.UserRoleAdmin, true).Order("id asc").First(&admin).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

// seedMembers 按上下级顺序注册，保证推荐码在注册时已存在
func seedMembers(c *provider.Container, admin *models.User) {
	ctx := context.Background()
	for _, item := range demoMembers {
		existing, err := c.UserRepo.GetByEmail(item.Email)
		if err != nil {
			logger.Warnw("seed_member_lookup_failed", "email", item.Email, "error", err)
			continue
		}
		if existing != nil {
			logger.Infow("seed_member_exists", "email", item.Email)
			continue
		}

		referralCode := admin.ReferralCode
		if item.Upline != "" {
			upline, err := c.UserRepo.GetByEmail(item.Upline)
			if err != nil || upline == nil {
				logger.Warnw("seed_member_upline_missing", "email", item.Email, "upline", item.Upline)
				continue
			}
			referralCode = upline.ReferralCode
		}

		result, err := c.UserAuthService.Register(ctx, service.RegisterInput{
			Email:        item.Email,
			Password:     demoPassword,
			DisplayName:  item.DisplayName,
			ReferralCode: referralCode,
			Locale:       "th",
		})
		if err != nil {
			logger.Warnw("seed_member_register_failed", "email", item.Email, "error", err)
			continue
		}
		logger.Infow("seed_member_created", "email", item.Email, "referral_code", result.User.ReferralCode)

		if item.Funding == "" {
			continue
		}
		_, _, err = c.WalletService.AdminAdjustBalance(service.WalletAdjustInput{
			UserID: result.User.ID,
			Delta:  models.NewMoneyFromDecimal(decimal.RequireFromString(item.Funding)),
			Remark: "demo funding",
		})
		if err != nil {
			logger.Warnw("seed_member_funding_failed", "email", item.Email, "error", err)
		}
	}
}

func seedProducts(c *provider.Container, actor service.Actor) {
	active := true
	for i, item := range demoProducts {
		existing, err := c.ProductRepo.GetBySKU(item.SKU)
		if err != nil {
			logger.Warnw("seed_product_lookup_failed", "sku", item.SKU, "error", err)
			continue
		}
		if existing != nil {
			logger.Infow("seed_product_exists", "sku", item.SKU)
			continue
		}
		_, err = c.ProductService.Create(actor, service.ProductInput{
			SKU:         item.SKU,
			Name:        item.Name,
			Description: item.Description,
			Price:       decimal.RequireFromString(item.Price),
			IsActive:    &active,
			SortOrder:   len(demoProducts) - i,
		})
		if err != nil {
			logger.Warnw("seed_product_create_failed", "sku", item.SKU, "error", err)
			continue
		}
		logger.Infow("seed_product_created", "sku", item.SKU)
	}
}

func seedCoupons(c *provider.Container, actor service.Actor) {
	active := true
	for _, item := range demoCoupons {
		existing, err := c.CouponRepo.GetByCode(item.Code)
		if err != nil {
			logger.Warnw("seed_coupon_lookup_failed", "code", item.Code, "error", err)
			continue
		}
		if existing != nil {
			logger.Infow("seed_coupon_exists", "code", item.Code)
			continue
		}
		_, err = c.CouponAdminService.Create(actor, service.CouponInput{
			Code:       item.Code,
			Type:       item.Type,
			Value:      decimal.RequireFromString(item.Value),
			UsageLimit: item.UsageLimit,
			IsActive:   &active,
		})
		if err != nil {
			logger.Warnw("seed_coupon_create_failed", "code", item.Code, "error", err)
			continue
		}
		logger.Infow("seed_coupon_created", "code", item.Code)
	}
}
