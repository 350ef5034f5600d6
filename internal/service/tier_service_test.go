package service

import (
	"testing"
	"time"

	"github.com/synergy-flow/internal/constants"
	"github.com/synergy-flow/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func TestAccrueSalesPromotesAndLogs(t *testing.T) {
	env := newAffiliateTestEnv(t)
	user := env.createUser(t, "flint", constants.TierStarter, 2999)

	var event *TierChangedEvent
	err := env.db.Transaction(func(tx *gorm.DB) error {
		var err error
		event, err = env.tiers.AccrueSalesInTx(tx, user, decimal.NewFromInt(7001), 5, time.Now())
		return err
	})
	if err != nil {
		t.Fatalf("accrue failed: %v", err)
	}
	if event == nil || event.FromTier != constants.TierStarter || event.ToTier != constants.TierBuilder {
		t.Fatalf("expected starter → builder, got %+v", event)
	}
	if user.Tier != constants.TierBuilder {
		t.Fatalf("user struct should be updated in place")
	}

	history, err := env.tiers.History(user.ID, 10)
	if err != nil || len(history) != 1 || history[0].OrderID == nil || *history[0].OrderID != 5 {
		t.Fatalf("expected one history row for order 5, got %+v (%v)", history, err)
	}

	progress := env.tiers.Progress(env.reload(t, user.ID))
	if progress.Tier != constants.TierBuilder || progress.NextTier != constants.TierExecutive {
		t.Fatalf("unexpected progress: %+v", progress)
	}
	assertDecimal(t, "remaining", progress.Remaining, "40000")
}

func TestAccrueSalesNeverDemotes(t *testing.T) {
	env := newAffiliateTestEnv(t)
	// 手工调高的等级高于销售额对应等级时保持不变
	user := env.createUser(t, "garnet", constants.TierExecutive, 100)

	err := env.db.Transaction(func(tx *gorm.DB) error {
		event, err := env.tiers.AccrueSalesInTx(tx, user, decimal.NewFromInt(10), 0, time.Now())
		if event != nil {
			t.Fatalf("no tier change expected, got %+v", event)
		}
		return err
	})
	if err != nil {
		t.Fatalf("accrue failed: %v", err)
	}
	reloaded := env.reload(t, user.ID)
	if reloaded.Tier != constants.TierExecutive {
		t.Fatalf("tier must not drop, got %s", reloaded.Tier)
	}
	assertDecimal(t, "sales", reloaded.AccumulatedSales.Decimal, "110")

	var logs int64
	env.db.Model(&models.TierChangeLog{}).Count(&logs)
	if logs != 0 {
		t.Fatalf("no history expected, got %d", logs)
	}
}
