package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/synergy-flow/internal/constants"
	"github.com/synergy-flow/internal/models"
	"github.com/synergy-flow/internal/repository"

	"github.com/shopspring/decimal"
)

// 链路：buyer(starter) → c(marketer) → b(builder) → a(executive)
func setupThreeLevelChain(t *testing.T, env *affiliateTestEnv) (buyer, c, b, a *models.User) {
	t.Helper()
	a = env.createUser(t, "alpha", constants.TierExecutive, 50000)
	b = env.createUser(t, "bravo", constants.TierBuilder, 10000)
	c = env.createUser(t, "charlie", constants.TierMarketer, 3000)
	buyer = env.createUser(t, "delta", constants.TierStarter, 2500)
	env.link(t, b, a)
	env.link(t, c, b)
	env.link(t, buyer, c)
	return buyer, c, b, a
}

func TestProcessCheckoutThreeLevelChain(t *testing.T) {
	env := newAffiliateTestEnv(t)
	buyer, c, b, a := setupThreeLevelChain(t, env)
	product := env.createProduct(t, "SF-001", "1000")
	address := env.createAddress(t, buyer.ID)
	env.fund(t, buyer.ID, "2000")
	if _, err := env.cart.UpsertItem(buyer.ID, product.ID, 1); err != nil {
		t.Fatalf("add to cart failed: %v", err)
	}

	result, err := env.checkout.ProcessCheckout(context.Background(), CheckoutInput{
		UserID:        buyer.ID,
		PaymentMethod: constants.PaymentMethodWallet,
		AddressID:     address.ID,
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	order := result.Order
	assertDecimal(t, "subtotal", order.Subtotal.Decimal, "1000")
	assertDecimal(t, "vat", order.VAT.Decimal, "70")
	assertDecimal(t, "total", order.Total.Decimal, "1070")
	assertDecimal(t, "sales volume", order.SalesVolume.Decimal, "1000")
	if order.BuyerTierAtSale != constants.TierStarter {
		t.Fatalf("buyer tier at sale should be starter, got %s", order.BuyerTierAtSale)
	}
	if order.Status != constants.OrderStatusPending {
		t.Fatalf("new order should be pending, got %s", order.Status)
	}

	if len(result.LedgerEntries) != 3 {
		t.Fatalf("expected 3 ledger entries, got %d", len(result.LedgerEntries))
	}
	want := []struct {
		userID uint
		typ    string
		level  int
		amount string
	}{
		{c.ID, constants.CommissionTypeDirect, 1, "100"},
		{b.ID, constants.CommissionTypeTeam, 2, "40"},
		{a.ID, constants.CommissionTypeTeam, 3, "60"},
	}
	for i, w := range want {
		entry := result.LedgerEntries[i]
		if entry.UserID != w.userID || entry.Type != w.typ || entry.Level != w.level {
			t.Fatalf("entry %d mismatch: %+v", i, entry)
		}
		if entry.Status != constants.CommissionStatusPaid {
			t.Fatalf("entry %d should be paid, got %s", i, entry.Status)
		}
		assertDecimal(t, "commission amount", entry.Amount.Decimal, w.amount)
		assertDecimal(t, "commission balance", env.balance(t, w.userID), w.amount)
	}
	assertDecimal(t, "buyer balance", env.balance(t, buyer.ID), "930")

	assertDecimal(t, "buyer sales", env.reload(t, buyer.ID).AccumulatedSales.Decimal, "3500")
	assertDecimal(t, "c sales", env.reload(t, c.ID).AccumulatedSales.Decimal, "4000")
	assertDecimal(t, "b sales", env.reload(t, b.ID).AccumulatedSales.Decimal, "11000")
	assertDecimal(t, "a sales", env.reload(t, a.ID).AccumulatedSales.Decimal, "51000")

	if len(result.TierChanges) != 1 || result.TierChanges[0].UserID != buyer.ID || result.TierChanges[0].ToTier != constants.TierMarketer {
		t.Fatalf("expected buyer promotion to marketer, got %+v", result.TierChanges)
	}
	if got := env.reload(t, buyer.ID).Tier; got != constants.TierMarketer {
		t.Fatalf("buyer tier should be marketer, got %s", got)
	}
	if len(env.events.ledger) != 3 || len(env.events.tierChanges) != 1 {
		t.Fatalf("unexpected events: ledger=%d tier=%d", len(env.events.ledger), len(env.events.tierChanges))
	}

	view, err := env.cart.GetCart(buyer.ID)
	if err != nil {
		t.Fatalf("get cart failed: %v", err)
	}
	if len(view.Items) != 0 {
		t.Fatalf("cart should be cleared after checkout")
	}
	env.assertJournalConsistent(t)
}

func TestProcessCheckoutRequiresReferrerAndAddress(t *testing.T) {
	env := newAffiliateTestEnv(t)
	upline := env.createUser(t, "upline", constants.TierStarter, 0)
	buyer := env.createUser(t, "orphan", constants.TierStarter, 0)
	product := env.createProduct(t, "SF-002", "100")
	address := env.createAddress(t, buyer.ID)
	env.fund(t, buyer.ID, "500")
	if _, err := env.cart.UpsertItem(buyer.ID, product.ID, 1); err != nil {
		t.Fatalf("add to cart failed: %v", err)
	}

	_, err := env.checkout.ProcessCheckout(context.Background(), CheckoutInput{
		UserID:        buyer.ID,
		PaymentMethod: constants.PaymentMethodWallet,
		AddressID:     address.ID,
	})
	if !errors.Is(err, ErrReferrerRequired) {
		t.Fatalf("expected ErrReferrerRequired, got %v", err)
	}
	if KindOf(err) != KindReferrerRequired {
		t.Fatalf("unexpected kind: %s", KindOf(err))
	}

	env.link(t, buyer, upline)
	_, err = env.checkout.ProcessCheckout(context.Background(), CheckoutInput{
		UserID:        buyer.ID,
		PaymentMethod: constants.PaymentMethodWallet,
		AddressID:     address.ID + 100,
	})
	if !errors.Is(err, ErrNoAddress) {
		t.Fatalf("expected ErrNoAddress, got %v", err)
	}

	_, err = env.checkout.ProcessCheckout(context.Background(), CheckoutInput{
		UserID:        buyer.ID,
		PaymentMethod: "cash",
		AddressID:     address.ID,
	})
	if !errors.Is(err, ErrPaymentMethod) {
		t.Fatalf("expected ErrPaymentMethod, got %v", err)
	}
}

func TestProcessCheckoutInsufficientFundsLeavesNoTrace(t *testing.T) {
	env := newAffiliateTestEnv(t)
	buyer, c, _, _ := setupThreeLevelChain(t, env)
	product := env.createProduct(t, "SF-003", "1000")
	address := env.createAddress(t, buyer.ID)
	env.fund(t, buyer.ID, "100")
	if _, err := env.cart.UpsertItem(buyer.ID, product.ID, 1); err != nil {
		t.Fatalf("add to cart failed: %v", err)
	}

	_, err := env.checkout.ProcessCheckout(context.Background(), CheckoutInput{
		UserID:        buyer.ID,
		PaymentMethod: constants.PaymentMethodWallet,
		AddressID:     address.ID,
	})
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	var orders, entries int64
	env.db.Model(&models.Order{}).Count(&orders)
	env.db.Model(&models.CommissionTransaction{}).Count(&entries)
	if orders != 0 || entries != 0 {
		t.Fatalf("failed checkout must not persist rows: orders=%d entries=%d", orders, entries)
	}
	assertDecimal(t, "buyer sales", env.reload(t, buyer.ID).AccumulatedSales.Decimal, "2500")
	assertDecimal(t, "c balance", env.balance(t, c.ID), "0")
	assertDecimal(t, "buyer balance", env.balance(t, buyer.ID), "100")

	view, err := env.cart.GetCart(buyer.ID)
	if err != nil {
		t.Fatalf("get cart failed: %v", err)
	}
	if len(view.Items) != 1 {
		t.Fatalf("cart should be kept after failed checkout")
	}
}

func TestProcessCheckoutEmptyCart(t *testing.T) {
	env := newAffiliateTestEnv(t)
	buyer, _, _, _ := setupThreeLevelChain(t, env)
	address := env.createAddress(t, buyer.ID)

	_, err := env.checkout.ProcessCheckout(context.Background(), CheckoutInput{
		UserID:        buyer.ID,
		PaymentMethod: constants.PaymentMethodPromptPay,
		AddressID:     address.ID,
	})
	if !errors.Is(err, ErrCartEmpty) {
		t.Fatalf("expected ErrCartEmpty, got %v", err)
	}
}

func TestDeferredSettlementPaysOnConfirm(t *testing.T) {
	env := newAffiliateTestEnv(t, func(opts *AffiliateOptions) {
		opts.SettleOnCheckout = false
	})
	buyer, c, b, a := setupThreeLevelChain(t, env)
	product := env.createProduct(t, "SF-004", "1000")
	address := env.createAddress(t, buyer.ID)
	if _, err := env.cart.UpsertItem(buyer.ID, product.ID, 1); err != nil {
		t.Fatalf("add to cart failed: %v", err)
	}

	result, err := env.checkout.ProcessCheckout(context.Background(), CheckoutInput{
		UserID:        buyer.ID,
		PaymentMethod: constants.PaymentMethodPromptPay,
		AddressID:     address.ID,
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	for _, entry := range result.LedgerEntries {
		if entry.Status != constants.CommissionStatusPending {
			t.Fatalf("deferred entries should be pending, got %s", entry.Status)
		}
	}
	assertDecimal(t, "c balance before confirm", env.balance(t, c.ID), "0")

	admin := Actor{UserID: a.ID, Email: a.Email}
	order, err := env.orders.UpdateStatus(context.Background(), admin, OrderStatusInput{
		OrderID: result.Order.ID,
		Status:  constants.OrderStatusToShip,
	})
	if err != nil {
		t.Fatalf("confirm payment failed: %v", err)
	}
	if order.Status != constants.OrderStatusToShip || order.PaidAt == nil {
		t.Fatalf("order should be to_ship with paid_at, got %+v", order)
	}
	assertDecimal(t, "c balance", env.balance(t, c.ID), "100")
	assertDecimal(t, "b balance", env.balance(t, b.ID), "40")
	assertDecimal(t, "a balance", env.balance(t, a.ID), "60")

	paid, _, err := env.ledger.ListTransactions(repository.CommissionListFilter{
		OrderID: result.Order.ID,
		Status:  constants.CommissionStatusPaid,
	})
	if err != nil {
		t.Fatalf("list transactions failed: %v", err)
	}
	if len(paid) != 3 {
		t.Fatalf("expected 3 paid entries, got %d", len(paid))
	}

	if _, err := env.orders.UpdateStatus(context.Background(), admin, OrderStatusInput{
		OrderID: result.Order.ID,
		Status:  constants.OrderStatusDelivered,
	}); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("to_ship → delivered should be rejected, got %v", err)
	}
	env.assertJournalConsistent(t)
}

func TestCancelOrderVoidsPendingCommissions(t *testing.T) {
	env := newAffiliateTestEnv(t, func(opts *AffiliateOptions) {
		opts.SettleOnCheckout = false
	})
	buyer, c, _, a := setupThreeLevelChain(t, env)
	product := env.createProduct(t, "SF-005", "500")
	address := env.createAddress(t, buyer.ID)
	if _, err := env.cart.UpsertItem(buyer.ID, product.ID, 2); err != nil {
		t.Fatalf("add to cart failed: %v", err)
	}
	result, err := env.checkout.ProcessCheckout(context.Background(), CheckoutInput{
		UserID:        buyer.ID,
		PaymentMethod: constants.PaymentMethodCard,
		AddressID:     address.ID,
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	admin := Actor{UserID: a.ID}
	order, err := env.orders.UpdateStatus(context.Background(), admin, OrderStatusInput{
		OrderID: result.Order.ID,
		Status:  constants.OrderStatusCancelled,
		Note:    "customer request",
	})
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if order.Status != constants.OrderStatusCancelled || order.CancelledAt == nil {
		t.Fatalf("order should be cancelled, got %+v", order)
	}
	cancelled, _, err := env.ledger.ListTransactions(repository.CommissionListFilter{
		OrderID: result.Order.ID,
		Status:  constants.CommissionStatusCancelled,
	})
	if err != nil {
		t.Fatalf("list transactions failed: %v", err)
	}
	if len(cancelled) != 3 {
		t.Fatalf("expected 3 cancelled entries, got %d", len(cancelled))
	}
	assertDecimal(t, "c balance", env.balance(t, c.ID), "0")
	if len(env.events.orderStatus) != 1 || env.events.orderStatus[0].ToStatus != constants.OrderStatusCancelled {
		t.Fatalf("expected one cancelled event, got %+v", env.events.orderStatus)
	}

	if _, err := env.orders.UpdateStatus(context.Background(), admin, OrderStatusInput{
		OrderID: result.Order.ID,
		Status:  constants.OrderStatusToShip,
	}); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("cancelled order must be final, got %v", err)
	}
}

func TestProcessCheckoutZeroTotalWithWallet(t *testing.T) {
	env := newAffiliateTestEnv(t)
	upline := env.createUser(t, "echo", constants.TierMarketer, 3000)
	buyer := env.createUser(t, "foxtrot", constants.TierStarter, 0)
	env.link(t, buyer, upline)
	product := env.createProduct(t, "SF-004", "100")
	address := env.createAddress(t, buyer.ID)
	active := true
	if _, err := env.coupons.Create(Actor{UserID: 1}, CouponInput{
		Code: "FREE500", Type: constants.CouponTypeFixed, Value: decimal.NewFromInt(500), IsActive: &active,
	}); err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}
	if _, err := env.cart.UpsertItem(buyer.ID, product.ID, 1); err != nil {
		t.Fatalf("add to cart failed: %v", err)
	}
	if _, err := env.cart.ApplyCoupon(buyer.ID, "FREE500"); err != nil {
		t.Fatalf("apply coupon failed: %v", err)
	}

	result, err := env.checkout.ProcessCheckout(context.Background(), CheckoutInput{
		UserID:        buyer.ID,
		PaymentMethod: constants.PaymentMethodWallet,
		AddressID:     address.ID,
	})
	if err != nil {
		t.Fatalf("zero-total wallet checkout failed: %v", err)
	}
	assertDecimal(t, "total", result.Order.Total.Decimal, "0")
	assertDecimal(t, "sales volume", result.Order.SalesVolume.Decimal, "0")
	if result.Order.PaidAt == nil {
		t.Fatalf("wallet order should be marked paid")
	}
	if len(result.LedgerEntries) != 0 {
		t.Fatalf("zero volume must not grant commission, got %d entries", len(result.LedgerEntries))
	}
	assertDecimal(t, "buyer balance", env.balance(t, buyer.ID), "0")

	var debits int64
	env.db.Model(&models.WalletTransaction{}).Where("user_id = ?", buyer.ID).Count(&debits)
	if debits != 0 {
		t.Fatalf("zero total must not write a wallet debit, got %d rows", debits)
	}
	env.assertJournalConsistent(t)
}

// 多个下级同时结算，共同上级的佣金与销售额不能丢失更新
func TestConcurrentCheckoutsSharingAnUpline(t *testing.T) {
	env := newAffiliateTestEnv(t)
	sqlDB, err := env.db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	// sqlite 单写连接，事务排队执行
	sqlDB.SetMaxOpenConns(1)

	root := env.createUser(t, "golf", constants.TierMarketer, 3000)
	product := env.createProduct(t, "SF-005", "1000")
	const buyers = 4
	inputs := make([]CheckoutInput, 0, buyers)
	for i := 0; i < buyers; i++ {
		buyer := env.createUser(t, fmt.Sprintf("hotel%d", i), constants.TierStarter, 0)
		env.link(t, buyer, root)
		env.fund(t, buyer.ID, "1070")
		address := env.createAddress(t, buyer.ID)
		if _, err := env.cart.UpsertItem(buyer.ID, product.ID, 1); err != nil {
			t.Fatalf("add to cart failed: %v", err)
		}
		inputs = append(inputs, CheckoutInput{
			UserID:        buyer.ID,
			PaymentMethod: constants.PaymentMethodWallet,
			AddressID:     address.ID,
		})
	}

	var wg sync.WaitGroup
	errs := make([]error, buyers)
	for i := range inputs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.checkout.ProcessCheckout(context.Background(), inputs[i])
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Fatalf("checkout %d failed: %v", i, err)
		}
	}

	assertDecimal(t, "upline balance", env.balance(t, root.ID), "400")
	assertDecimal(t, "upline sales", env.reload(t, root.ID).AccumulatedSales.Decimal, "7000")
	for _, input := range inputs {
		assertDecimal(t, "buyer balance", env.balance(t, input.UserID), "0")
	}
	var orders int64
	env.db.Model(&models.Order{}).Count(&orders)
	if orders != buyers {
		t.Fatalf("want %d orders got %d", buyers, orders)
	}
	env.assertJournalConsistent(t)
}
