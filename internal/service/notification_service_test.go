package service

import (
	"strings"
	"testing"
	"time"

	"github.com/synergy-flow/internal/constants"
	"github.com/synergy-flow/internal/repository"

	"github.com/shopspring/decimal"
)

func TestNotificationsRenderInUserLocale(t *testing.T) {
	env := newAffiliateTestEnv(t)
	user := env.createUser(t, "ember", constants.TierStarter, 0)
	env.db.Model(user).Update("locale", "zh-CN")
	svc := NewNotificationService(repository.NewNotificationRepository(env.db), env.users, "thb")

	tier, err := svc.NotifyTierChanged(TierChangedEvent{
		UserID:           user.ID,
		FromTier:         constants.TierStarter,
		ToTier:           constants.TierMarketer,
		AccumulatedSales: decimal.NewFromInt(3000),
		OccurredAt:       time.Now(),
	})
	if err != nil || tier == nil {
		t.Fatalf("notify tier failed: %v", err)
	}
	if tier.Title != "会员等级提升" {
		t.Fatalf("title should follow user locale, got %q", tier.Title)
	}

	pending, err := svc.NotifyLedgerAppended(LedgerAppendedEvent{
		UserID: user.ID, Type: constants.CommissionTypeDirect, Status: constants.CommissionStatusPending, Amount: decimal.NewFromInt(10),
	})
	if err != nil || pending != nil {
		t.Fatalf("pending commission should not notify: %v %+v", err, pending)
	}
	paid, err := svc.NotifyLedgerAppended(LedgerAppendedEvent{
		UserID: user.ID, Type: constants.CommissionTypeTeam, Status: constants.CommissionStatusPaid, Amount: decimal.RequireFromString("40"), OrderID: 12,
	})
	if err != nil || paid == nil {
		t.Fatalf("paid commission should notify: %v", err)
	}
	if !strings.Contains(paid.Content, "40.00") || !strings.Contains(paid.Content, "THB") {
		t.Fatalf("content should carry amount and currency, got %q", paid.Content)
	}

	unread, err := svc.CountUnread(user.ID)
	if err != nil || unread != 2 {
		t.Fatalf("expected 2 unread, got %d (%v)", unread, err)
	}
	marked, err := svc.MarkRead(user.ID, []uint{tier.ID})
	if err != nil || marked != 1 {
		t.Fatalf("mark read failed: %d %v", marked, err)
	}
	if unread, _ = svc.CountUnread(user.ID); unread != 1 {
		t.Fatalf("expected 1 unread after mark, got %d", unread)
	}
	if marked, _ = svc.MarkRead(user.ID, nil); marked != 1 {
		t.Fatalf("mark all should touch the remaining row, got %d", marked)
	}
}
