package service

import (
	"context"
	"strings"
	"time"

	"github.com/synergy-flow/internal/cache"
	"github.com/synergy-flow/internal/commission"
	"github.com/synergy-flow/internal/constants"
	"github.com/synergy-flow/internal/logger"
	"github.com/synergy-flow/internal/metrics"
	"github.com/synergy-flow/internal/models"
	"github.com/synergy-flow/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CheckoutService 结算与佣金分配
type CheckoutService struct {
	opts           AffiliateOptions
	policy         *commission.Policy
	userRepo       repository.UserRepository
	referralRepo   repository.ReferralRepository
	orderRepo      repository.OrderRepository
	commissionRepo repository.CommissionRepository
	cartRepo       repository.CartRepository
	couponRepo     repository.CouponRepository
	addressRepo    repository.AddressRepository
	cartService    *CartService
	tierService    *TierService
	referrals      *ReferralService
	wallet         *WalletService
	publisher      EventPublisher
}

// CheckoutInput 结算输入
type CheckoutInput struct {
	UserID        uint
	PaymentMethod string
	AddressID     uint
	Note          string
}

// CheckoutResult 结算结果
type CheckoutResult struct {
	Order         *models.Order                  `json:"order"`
	LedgerEntries []models.CommissionTransaction `json:"ledger_entries"`
	TierChanges   []TierChangedEvent             `json:"tier_changes"`
}

// CheckoutDeps 结算服务依赖
type CheckoutDeps struct {
	Options        AffiliateOptions
	Policy         *commission.Policy
	UserRepo       repository.UserRepository
	ReferralRepo   repository.ReferralRepository
	OrderRepo      repository.OrderRepository
	CommissionRepo repository.CommissionRepository
	CartRepo       repository.CartRepository
	CouponRepo     repository.CouponRepository
	AddressRepo    repository.AddressRepository
	CartService    *CartService
	TierService    *TierService
	Referrals      *ReferralService
	Wallet         *WalletService
	Publisher      EventPublisher
}

// NewCheckoutService 创建结算服务
func NewCheckoutService(deps CheckoutDeps) *CheckoutService {
	policy := deps.Policy
	if policy == nil {
		policy = commission.DefaultPolicy()
	}
	return &CheckoutService{
		opts:           deps.Options,
		policy:         policy,
		userRepo:       deps.UserRepo,
		referralRepo:   deps.ReferralRepo,
		orderRepo:      deps.OrderRepo,
		commissionRepo: deps.CommissionRepo,
		cartRepo:       deps.CartRepo,
		couponRepo:     deps.CouponRepo,
		addressRepo:    deps.AddressRepo,
		cartService:    deps.CartService,
		tierService:    deps.TierService,
		referrals:      deps.Referrals,
		wallet:         deps.Wallet,
		publisher:      publisherOrNoop(deps.Publisher),
	}
}

// SetPublisher 替换事件投递器
func (s *CheckoutService) SetPublisher(publisher EventPublisher) {
	s.publisher = publisherOrNoop(publisher)
}

// ProcessCheckout 校验前置条件后在单个事务内完成下单、分佣、累计销售额与扣款
func (s *CheckoutService) ProcessCheckout(ctx context.Context, input CheckoutInput) (result *CheckoutResult, err error) {
	method := strings.ToLower(strings.TrimSpace(input.PaymentMethod))
	defer func() {
		metrics.Affiliate().ObserveCheckout(method, err)
	}()
	if !isValidPaymentMethod(method) {
		return nil, ErrPaymentMethod
	}

	buyer, err := s.userRepo.GetByID(input.UserID)
	if err != nil {
		return nil, err
	}
	if buyer == nil {
		return nil, ErrUserNotFound
	}
	if buyer.Status != constants.UserStatusActive {
		return nil, ErrUserDisabled
	}
	if !buyer.HasReferrer() {
		return nil, ErrReferrerRequired
	}
	address, err := s.addressRepo.GetByIDAndUser(input.AddressID, buyer.ID)
	if err != nil {
		return nil, err
	}
	if address == nil {
		return nil, ErrNoAddress
	}

	now := time.Now()
	var (
		order       *models.Order
		entries     []models.CommissionTransaction
		tierChanges []TierChangedEvent
	)
	err = s.userRepo.Transaction(func(tx *gorm.DB) error {
		var txErr error
		order, entries, tierChanges, txErr = s.checkoutInTx(tx, buyer.ID, method, address, input.Note, now)
		return txErr
	})
	if err != nil {
		logger.Warnw("checkout_failed", "user_id", buyer.ID, "payment_method", method, "error", err)
		return nil, err
	}

	logger.Infow("checkout_completed",
		"user_id", buyer.ID,
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"sales_volume", order.SalesVolume.String(),
		"ledger_entries", len(entries),
		"tier_changes", len(tierChanges),
	)
	s.afterCommit(ctx, order, entries, tierChanges)
	return &CheckoutResult{Order: order, LedgerEntries: entries, TierChanges: tierChanges}, nil
}

func (s *CheckoutService) checkoutInTx(
	tx *gorm.DB,
	buyerID uint,
	method string,
	address *models.ShippingAddress,
	note string,
	now time.Time,
) (*models.Order, []models.CommissionTransaction, []TierChangedEvent, error) {
	userRepo := s.userRepo.WithTx(tx)
	referralRepo := s.referralRepo.WithTx(tx)
	cartRepo := s.cartRepo.WithTx(tx)
	couponRepo := s.couponRepo.WithTx(tx)
	orderRepo := s.orderRepo.WithTx(tx)

	chainIDs, err := s.referrals.chainIDs(referralRepo, buyerID)
	if err != nil {
		return nil, nil, nil, err
	}
	if len(chainIDs) == 0 {
		return nil, nil, nil, ErrReferrerRequired
	}
	locked, err := userRepo.LockByIDs(append([]uint{buyerID}, chainIDs...))
	if err != nil {
		return nil, nil, nil, err
	}
	byID := make(map[uint]*models.User, len(locked))
	for i := range locked {
		byID[locked[i].ID] = &locked[i]
	}
	buyer := byID[buyerID]
	if buyer == nil {
		return nil, nil, nil, ErrUserNotFound
	}

	items, err := cartRepo.ListItems(buyerID)
	if err != nil {
		return nil, nil, nil, err
	}
	_, lines := cartLines(items)
	if len(lines) == 0 {
		return nil, nil, nil, ErrCartEmpty
	}
	coupon, err := s.loadCartCoupon(cartRepo, couponRepo, buyerID, now)
	if err != nil {
		return nil, nil, nil, err
	}

	buyerTier := commission.NormalizeTier(buyer.Tier)
	totals := s.policy.CartTotals(lines, buyerTier, toCommissionCoupon(coupon))
	rounded := totals.Rounded()
	volume := rounded.AfterCoupon
	// 固定额券可把应付压到 0，此时钱包无需扣款
	walletDebit := method == constants.PaymentMethodWallet && rounded.Total.IsPositive()
	if walletDebit {
		balance, balanceErr := s.wallet.walletRepo.WithTx(tx).GetAccountByUserIDForUpdate(buyerID)
		if balanceErr != nil {
			return nil, nil, nil, balanceErr
		}
		if balance == nil || balance.Balance.Decimal.LessThan(rounded.Total) {
			return nil, nil, nil, ErrInsufficientFunds
		}
	}

	order := &models.Order{
		OrderNo:         generateOrderNo(now),
		UserID:          buyerID,
		Status:          constants.OrderStatusPending,
		Currency:        s.wallet.Currency(),
		Subtotal:        models.NewMoneyFromDecimal(rounded.Subtotal),
		MemberDiscount:  models.NewMoneyFromDecimal(rounded.MemberDiscount),
		CouponCode:      rounded.CouponCode,
		CouponDiscount:  models.NewMoneyFromDecimal(rounded.CouponDiscount),
		VAT:             models.NewMoneyFromDecimal(rounded.VAT),
		Total:           models.NewMoneyFromDecimal(rounded.Total),
		SalesVolume:     models.NewMoneyFromDecimal(volume),
		BuyerTierAtSale: buyerTier.String(),
		PaymentMethod:   method,
		ShippingAddress: address.Snapshot(),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if method == constants.PaymentMethodWallet {
		paidAt := now
		order.PaidAt = &paidAt
	}
	if err := orderRepo.Create(order, buildOrderItems(items, now)); err != nil {
		return nil, nil, nil, ErrOrderCreateFailed
	}
	if err := orderRepo.AddTimeline(&models.OrderTimeline{
		OrderID:   order.ID,
		ToStatus:  constants.OrderStatusPending,
		Note:      strings.TrimSpace(note),
		CreatedAt: now,
	}); err != nil {
		return nil, nil, nil, err
	}

	// 佣金按结算前的等级计算
	chain := make([]commission.ChainMember, 0, len(chainIDs))
	for _, id := range chainIDs {
		member := byID[id]
		if member == nil {
			continue
		}
		chain = append(chain, commission.ChainMember{UserID: id, Tier: commission.NormalizeTier(member.Tier)})
	}
	grants := s.policy.Distribute(buyerTier, chain, volume, s.opts.MaxDepth)
	entries, err := s.recordGrants(tx, order, buyerID, grants, now)
	if err != nil {
		return nil, nil, nil, err
	}

	tierChanges := make([]TierChangedEvent, 0, 2)
	for _, id := range append([]uint{buyerID}, chainIDs...) {
		user := byID[id]
		if user == nil {
			continue
		}
		event, accrueErr := s.tierService.AccrueSalesInTx(tx, user, volume, order.ID, now)
		if accrueErr != nil {
			return nil, nil, nil, accrueErr
		}
		if event != nil {
			tierChanges = append(tierChanges, *event)
		}
	}

	if walletDebit {
		orderID := order.ID
		if _, _, err := s.wallet.DebitInTx(tx, WalletMoveInput{
			UserID:    buyerID,
			Amount:    rounded.Total,
			TxnType:   constants.WalletTxnTypeOrderPay,
			Reference: buildOrderWalletReference(order.ID, "pay"),
			Remark:    "order " + order.OrderNo,
			OrderID:   &orderID,
		}); err != nil {
			return nil, nil, nil, err
		}
	}

	if coupon != nil {
		ok, incErr := couponRepo.IncrementUsedCount(coupon.ID)
		if incErr != nil {
			return nil, nil, nil, incErr
		}
		if !ok {
			return nil, nil, nil, ErrCouponUsageLimit
		}
	}
	if err := cartRepo.Clear(buyerID); err != nil {
		return nil, nil, nil, err
	}
	return order, entries, tierChanges, nil
}

func (s *CheckoutService) loadCartCoupon(cartRepo repository.CartRepository, couponRepo repository.CouponRepository, userID uint, now time.Time) (*models.Coupon, error) {
	cart, err := cartRepo.GetCart(userID)
	if err != nil {
		return nil, err
	}
	if cart == nil || cart.CouponCode == "" {
		return nil, nil
	}
	coupon, err := couponRepo.GetByCode(cart.CouponCode)
	if err != nil {
		return nil, err
	}
	if err := validateCoupon(coupon, now); err != nil {
		return nil, err
	}
	return coupon, nil
}

// recordGrants 写佣金流水；结算即入账时同时记入钱包
func (s *CheckoutService) recordGrants(tx *gorm.DB, order *models.Order, buyerID uint, grants []commission.Grant, now time.Time) ([]models.CommissionTransaction, error) {
	repo := s.commissionRepo.WithTx(tx)
	status := constants.CommissionStatusPending
	if s.opts.SettleOnCheckout {
		status = constants.CommissionStatusPaid
	}
	entries := make([]models.CommissionTransaction, 0, len(grants))
	for _, grant := range grants {
		orderID := order.ID
		sourceID := buyerID
		entry := models.CommissionTransaction{
			UserID:       grant.UserID,
			Type:         grant.Type,
			Amount:       models.NewMoneyFromDecimal(grant.Amount),
			Status:       status,
			OrderID:      &orderID,
			SourceUserID: &sourceID,
			Level:        grant.Level,
			Rate:         grant.Rate,
			SalesVolume:  order.SalesVolume,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if status == constants.CommissionStatusPaid {
			entry.ProcessedAt = &now
		}
		if err := repo.Create(&entry); err != nil {
			return nil, ErrLedgerWriteFailed
		}
		if status == constants.CommissionStatusPaid {
			if err := s.creditCommission(tx, &entry); err != nil {
				return nil, err
			}
		}
		logger.Debugw("checkout_commission_granted",
			"order_id", order.ID,
			"user_id", grant.UserID,
			"level", grant.Level,
			"type", grant.Type,
			"rate", grant.Rate.String(),
			"amount", grant.Amount.String(),
		)
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *CheckoutService) creditCommission(tx *gorm.DB, entry *models.CommissionTransaction) error {
	return creditCommissionEntry(s.wallet, tx, entry)
}

// creditCommissionEntry 佣金入账，参考号按 (订单, 会员) 幂等
func creditCommissionEntry(wallet *WalletService, tx *gorm.DB, entry *models.CommissionTransaction) error {
	if entry == nil || entry.OrderID == nil {
		return ErrLedgerWriteFailed
	}
	txnType := constants.WalletTxnTypeCommissionTeam
	if entry.Type == constants.CommissionTypeDirect {
		txnType = constants.WalletTxnTypeCommissionDirect
	}
	commissionID := entry.ID
	_, _, err := wallet.CreditInTx(tx, WalletMoveInput{
		UserID:       entry.UserID,
		Amount:       entry.Amount.Decimal,
		TxnType:      txnType,
		Reference:    buildCommissionWalletReference(*entry.OrderID, entry.UserID),
		Remark:       entry.Type + " commission",
		OrderID:      entry.OrderID,
		CommissionID: &commissionID,
	})
	return err
}

func (s *CheckoutService) afterCommit(ctx context.Context, order *models.Order, entries []models.CommissionTransaction, tierChanges []TierChangedEvent) {
	m := metrics.Affiliate()
	affected := []uint{order.UserID}
	for _, entry := range entries {
		m.ObserveCommission(entry.Type, entry.Amount.Decimal)
		affected = append(affected, entry.UserID)
		publishLedger(ctx, s.publisher, entry)
	}
	for _, change := range tierChanges {
		m.ObserveTierPromotion(change.ToTier)
		if err := s.publisher.PublishTierChanged(ctx, change); err != nil {
			m.ObserveEventFailure("publisher", constants.NotificationTypeTierChanged)
			logger.Warnw("checkout_publish_tier_changed_failed", "user_id", change.UserID, "error", err)
		}
	}
	invalidateDashboards(ctx, affected...)
}

func publishLedger(ctx context.Context, publisher EventPublisher, entry models.CommissionTransaction) {
	event := LedgerAppendedEvent{
		TransactionID: entry.ID,
		UserID:        entry.UserID,
		Type:          entry.Type,
		Status:        entry.Status,
		Amount:        entry.Amount.Decimal,
		OccurredAt:    entry.UpdatedAt,
	}
	if entry.OrderID != nil {
		event.OrderID = *entry.OrderID
	}
	if err := publisher.PublishLedgerAppended(ctx, event); err != nil {
		metrics.Affiliate().ObserveEventFailure("publisher", constants.NotificationTypeLedgerAppended)
		logger.Warnw("ledger_publish_failed", "transaction_id", entry.ID, "user_id", entry.UserID, "error", err)
	}
}

func invalidateDashboards(ctx context.Context, userIDs ...uint) {
	if !cache.Enabled() {
		return
	}
	if err := cache.InvalidateMemberDashboards(ctx, userIDs...); err != nil {
		logger.Warnw("dashboard_cache_invalidate_failed", "error", err)
	}
	if err := cache.InvalidateAdminOverview(ctx); err != nil {
		logger.Warnw("dashboard_admin_cache_invalidate_failed", "error", err)
	}
}

func buildOrderItems(items []models.CartItem, now time.Time) []models.OrderItem {
	rows := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		if item.Product == nil || !item.Product.IsActive || item.Quantity <= 0 {
			continue
		}
		price := item.Product.Price.Decimal
		rows = append(rows, models.OrderItem{
			ProductID:   item.ProductID,
			ProductName: item.Product.Name,
			UnitPrice:   item.Product.Price,
			Quantity:    item.Quantity,
			TotalPrice:  models.NewMoneyFromDecimal(price.Mul(decimal.NewFromInt(int64(item.Quantity)))),
			CreatedAt:   now,
		})
	}
	return rows
}

func isValidPaymentMethod(method string) bool {
	switch method {
	case constants.PaymentMethodWallet, constants.PaymentMethodPromptPay, constants.PaymentMethodCard:
		return true
	default:
		return false
	}
}
