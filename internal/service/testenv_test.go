package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/synergy-flow/internal/commission"
	"github.com/synergy-flow/internal/constants"
	"github.com/synergy-flow/internal/models"
	"github.com/synergy-flow/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type affiliateTestEnv struct {
	db          *gorm.DB
	opts        AffiliateOptions
	users       *repository.GormUserRepository
	wallet      *WalletService
	referrals   *ReferralService
	tiers       *TierService
	cart        *CartService
	checkout    *CheckoutService
	withdrawals *WithdrawalService
	orders      *OrderService
	ledger      *AdminLedgerService
	profile     *MemberProfileService
	coupons     *CouponAdminService
	audit       *AuditService
	events      *recordingPublisher
}

func newAffiliateTestEnv(t *testing.T, mutate ...func(*AffiliateOptions)) *affiliateTestEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:service_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	opts := DefaultAffiliateOptions()
	for _, fn := range mutate {
		fn(&opts)
	}
	policy := commission.DefaultPolicy()
	userRepo := repository.NewUserRepository(db)
	referralRepo := repository.NewReferralRepository(db)
	walletRepo := repository.NewWalletRepository(db)
	commissionRepo := repository.NewCommissionRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	cartRepo := repository.NewCartRepository(db)
	couponRepo := repository.NewCouponRepository(db)
	productRepo := repository.NewProductRepository(db)
	addressRepo := repository.NewAddressRepository(db)
	bankRepo := repository.NewBankAccountRepository(db)

	events := &recordingPublisher{}
	wallet := NewWalletService(walletRepo, opts.Currency)
	referrals := NewReferralService(userRepo, referralRepo)
	tiers := NewTierService(policy, userRepo)
	cart := NewCartService(policy, cartRepo, productRepo, couponRepo, userRepo)
	audit := NewAuditService(repository.NewAuditLogRepository(db))

	env := &affiliateTestEnv{
		db:        db,
		opts:      opts,
		users:     userRepo,
		wallet:    wallet,
		referrals: referrals,
		tiers:     tiers,
		cart:      cart,
		audit:     audit,
		events:    events,
	}
	env.checkout = NewCheckoutService(CheckoutDeps{
		Options:        opts,
		Policy:         policy,
		UserRepo:       userRepo,
		ReferralRepo:   referralRepo,
		OrderRepo:      orderRepo,
		CommissionRepo: commissionRepo,
		CartRepo:       cartRepo,
		CouponRepo:     couponRepo,
		AddressRepo:    addressRepo,
		CartService:    cart,
		TierService:    tiers,
		Referrals:      referrals,
		Wallet:         wallet,
		Publisher:      events,
	})
	env.withdrawals = NewWithdrawalService(opts, commissionRepo, bankRepo, wallet, audit, events)
	env.orders = NewOrderService(orderRepo, commissionRepo, wallet, audit, events)
	env.ledger = NewAdminLedgerService(opts, userRepo, referralRepo, commissionRepo, wallet, audit)
	env.profile = NewMemberProfileService(addressRepo, bankRepo)
	env.coupons = NewCouponAdminService(couponRepo, audit)
	return env
}

func (e *affiliateTestEnv) createUser(t *testing.T, name, tier string, sales int64) *models.User {
	t.Helper()
	now := time.Now()
	user := &models.User{
		Email:            name + "@test.local",
		PasswordHash:     "hash",
		DisplayName:      name,
		Locale:           "en",
		Status:           constants.UserStatusActive,
		Role:             constants.UserRoleMember,
		Tier:             tier,
		AccumulatedSales: models.NewMoneyFromDecimal(decimal.NewFromInt(sales)),
		ReferralCode:     strings.ToUpper(name) + "CODE",
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := e.db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return user
}

func (e *affiliateTestEnv) link(t *testing.T, member, upline *models.User) {
	t.Helper()
	if _, err := e.referrals.LinkReferrer(member.ID, upline.ReferralCode); err != nil {
		t.Fatalf("link %s -> %s failed: %v", member.Email, upline.Email, err)
	}
}

func (e *affiliateTestEnv) fund(t *testing.T, userID uint, amount string) {
	t.Helper()
	_, _, err := e.wallet.AdminAdjustBalance(WalletAdjustInput{
		UserID: userID,
		Delta:  models.NewMoneyFromDecimal(decimal.RequireFromString(amount)),
		Remark: "test funding",
	})
	if err != nil {
		t.Fatalf("fund wallet failed: %v", err)
	}
}

func (e *affiliateTestEnv) createProduct(t *testing.T, sku, price string) *models.Product {
	t.Helper()
	product := &models.Product{
		SKU:      sku,
		Name:     "Product " + sku,
		Price:    models.NewMoneyFromDecimal(decimal.RequireFromString(price)),
		IsActive: true,
	}
	if err := e.db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return product
}

func (e *affiliateTestEnv) createAddress(t *testing.T, userID uint) *models.ShippingAddress {
	t.Helper()
	address, err := e.profile.CreateAddress(userID, AddressInput{
		RecipientName: "Somchai",
		Phone:         "0812345678",
		Line1:         "99 Sukhumvit Rd",
		Province:      "Bangkok",
		PostalCode:    "10110",
	})
	if err != nil {
		t.Fatalf("create address failed: %v", err)
	}
	return address
}

func (e *affiliateTestEnv) createBankAccount(t *testing.T, userID uint) *models.BankAccount {
	t.Helper()
	account, err := e.profile.CreateBankAccount(userID, BankAccountInput{
		BankName:      "Kasikorn",
		AccountName:   "Somchai",
		AccountNumber: "123-4-56789-0",
	})
	if err != nil {
		t.Fatalf("create bank account failed: %v", err)
	}
	return account
}

func (e *affiliateTestEnv) balance(t *testing.T, userID uint) decimal.Decimal {
	t.Helper()
	value, err := e.wallet.GetBalance(userID)
	if err != nil {
		t.Fatalf("get balance failed: %v", err)
	}
	return value
}

func (e *affiliateTestEnv) reload(t *testing.T, userID uint) *models.User {
	t.Helper()
	user, err := e.users.GetByID(userID)
	if err != nil || user == nil {
		t.Fatalf("reload user %d failed: %v", userID, err)
	}
	return user
}

func (e *affiliateTestEnv) assertJournalConsistent(t *testing.T) {
	t.Helper()
	rows, err := repository.NewWalletRepository(e.db).JournalMismatches()
	if err != nil {
		t.Fatalf("journal mismatches failed: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("wallet balances drifted from journal: %+v", rows)
	}
}

func assertDecimal(t *testing.T, label string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Fatalf("%s: want %s got %s", label, want, got.String())
	}
}

type recordingPublisher struct {
	mu          sync.Mutex
	tierChanges []TierChangedEvent
	ledger      []LedgerAppendedEvent
	orderStatus []OrderStatusEvent
}

func (p *recordingPublisher) PublishTierChanged(_ context.Context, event TierChangedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tierChanges = append(p.tierChanges, event)
	return nil
}

func (p *recordingPublisher) PublishLedgerAppended(_ context.Context, event LedgerAppendedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ledger = append(p.ledger, event)
	return nil
}

func (p *recordingPublisher) PublishOrderStatus(_ context.Context, event OrderStatusEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.orderStatus = append(p.orderStatus, event)
	return nil
}
