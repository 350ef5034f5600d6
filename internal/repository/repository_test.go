package repository

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/synergy-flow/internal/constants"
	"github.com/synergy-flow/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func openRepositoryTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:repository_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return db
}

func createRepoUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{
		Email:            email,
		PasswordHash:     "hash",
		Status:           constants.UserStatusActive,
		Role:             constants.UserRoleMember,
		Tier:             constants.TierStarter,
		AccumulatedSales: models.ZeroMoney(),
		ReferralCode:     strings.ToUpper(strings.SplitN(email, "@", 2)[0]),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return user
}

func linkRepoEdge(t *testing.T, db *gorm.DB, memberID, uplineID uint) {
	t.Helper()
	if err := db.Create(&models.ReferralEdge{MemberID: memberID, UplineID: uplineID}).Error; err != nil {
		t.Fatalf("create edge failed: %v", err)
	}
}

func TestReferralListTeamDepths(t *testing.T) {
	db := openRepositoryTestDB(t)
	root := createRepoUser(t, db, "root@test.local")
	a := createRepoUser(t, db, "a@test.local")
	b := createRepoUser(t, db, "b@test.local")
	c := createRepoUser(t, db, "c@test.local")
	linkRepoEdge(t, db, a.ID, root.ID)
	linkRepoEdge(t, db, b.ID, root.ID)
	linkRepoEdge(t, db, c.ID, a.ID)

	repo := NewReferralRepository(db)
	rows, total, err := repo.ListTeam(root.ID, 0, 1, 20)
	if err != nil {
		t.Fatalf("list team failed: %v", err)
	}
	if total != 3 || len(rows) != 3 {
		t.Fatalf("want 3 team members, got total=%d rows=%d", total, len(rows))
	}
	if rows[2].MemberID != c.ID || rows[2].Depth != 2 {
		t.Fatalf("grandchild should come last at depth 2, got %+v", rows[2])
	}

	limited, limitedTotal, err := repo.ListTeam(root.ID, 1, 1, 20)
	if err != nil {
		t.Fatalf("list limited team failed: %v", err)
	}
	if limitedTotal != 2 || len(limited) != 2 {
		t.Fatalf("depth 1 should only include direct members, got %d", limitedTotal)
	}

	children, err := repo.CountChildren(root.ID)
	if err != nil || children != 2 {
		t.Fatalf("count children want 2 got %d err=%v", children, err)
	}
}

func TestUserLockByIDsSortsAndDeduplicates(t *testing.T) {
	db := openRepositoryTestDB(t)
	first := createRepoUser(t, db, "first@test.local")
	second := createRepoUser(t, db, "second@test.local")

	var locked []models.User
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		locked, err = NewUserRepository(db).WithTx(tx).LockByIDs([]uint{second.ID, first.ID, second.ID, 0})
		return err
	})
	if err != nil {
		t.Fatalf("lock users failed: %v", err)
	}
	if len(locked) != 2 || locked[0].ID != first.ID || locked[1].ID != second.ID {
		t.Fatalf("unexpected lock order: %+v", locked)
	}
}

func TestSetUplineReferrerCodeOnlyOnce(t *testing.T) {
	db := openRepositoryTestDB(t)
	user := createRepoUser(t, db, "member@test.local")
	repo := NewUserRepository(db)

	if err := repo.SetUplineReferrerCode(user.ID, "ROOT0001", time.Now()); err != nil {
		t.Fatalf("first set failed: %v", err)
	}
	if err := repo.SetUplineReferrerCode(user.ID, "ROOT0002", time.Now()); err == nil {
		t.Fatalf("second set should fail")
	}
	reloaded, err := repo.GetByID(user.ID)
	if err != nil || reloaded == nil {
		t.Fatalf("reload user failed: %v", err)
	}
	if reloaded.UplineReferrerCode != "ROOT0001" {
		t.Fatalf("upline code changed: %s", reloaded.UplineReferrerCode)
	}
}

func TestWalletJournalMismatches(t *testing.T) {
	db := openRepositoryTestDB(t)
	good := createRepoUser(t, db, "good@test.local")
	bad := createRepoUser(t, db, "bad@test.local")
	repo := NewWalletRepository(db)

	hundred := models.NewMoneyFromDecimal(decimal.NewFromInt(100))
	for _, account := range []*models.WalletAccount{
		{UserID: good.ID, Balance: hundred},
		{UserID: bad.ID, Balance: models.NewMoneyFromDecimal(decimal.NewFromInt(150))},
	} {
		if err := repo.CreateAccount(account); err != nil {
			t.Fatalf("create account failed: %v", err)
		}
	}
	for idx, userID := range []uint{good.ID, bad.ID} {
		txn := &models.WalletTransaction{
			UserID:    userID,
			Type:      constants.WalletTxnTypeCommissionDirect,
			Direction: constants.WalletTxnDirectionIn,
			Amount:    hundred,
			Currency:  "THB",
			Reference: fmt.Sprintf("test:%d", idx),
		}
		if err := repo.CreateTransaction(txn); err != nil {
			t.Fatalf("create txn failed: %v", err)
		}
	}

	rows, err := repo.JournalMismatches()
	if err != nil {
		t.Fatalf("journal mismatches failed: %v", err)
	}
	if len(rows) != 1 || rows[0].UserID != bad.ID {
		t.Fatalf("want only the drifted account, got %+v", rows)
	}

	credits, err := repo.SumCreditsByTypes([]string{constants.WalletTxnTypeCommissionDirect})
	if err != nil {
		t.Fatalf("sum credits failed: %v", err)
	}
	if !credits.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("credits want 200 got %s", credits)
	}
}

func TestCouponIncrementUsedCountRespectsLimit(t *testing.T) {
	db := openRepositoryTestDB(t)
	repo := NewCouponRepository(db)
	coupon := &models.Coupon{
		Code:       "ONCE",
		Type:       constants.CouponTypeFixed,
		Value:      decimal.NewFromInt(50),
		UsageLimit: 1,
		IsActive:   true,
	}
	if err := repo.Create(coupon); err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}

	ok, err := repo.IncrementUsedCount(coupon.ID)
	if err != nil || !ok {
		t.Fatalf("first use should succeed: ok=%v err=%v", ok, err)
	}
	ok, err = repo.IncrementUsedCount(coupon.ID)
	if err != nil {
		t.Fatalf("second use failed: %v", err)
	}
	if ok {
		t.Fatalf("second use should exceed the limit")
	}

	found, err := repo.GetByCode(" once ")
	if err != nil || found == nil {
		t.Fatalf("lookup by code failed: %v", err)
	}
	if found.UsedCount != 1 {
		t.Fatalf("used count want 1 got %d", found.UsedCount)
	}
}

func TestCommissionTotals(t *testing.T) {
	db := openRepositoryTestDB(t)
	user := createRepoUser(t, db, "earner@test.local")
	repo := NewCommissionRepository(db)
	orderID := uint(7)

	entries := []models.CommissionTransaction{
		{UserID: user.ID, Type: constants.CommissionTypeDirect, Status: constants.CommissionStatusPaid, OrderID: &orderID, Amount: models.NewMoneyFromDecimal(decimal.NewFromInt(100))},
		{UserID: user.ID, Type: constants.CommissionTypeWithdrawal, Status: constants.CommissionStatusWaiting, Amount: models.NewMoneyFromDecimal(decimal.NewFromInt(-30))},
		{UserID: user.ID, Type: constants.CommissionTypeWithdrawal, Status: constants.CommissionStatusCompleted, Amount: models.NewMoneyFromDecimal(decimal.NewFromInt(-20))},
	}
	for i := range entries {
		if err := repo.Create(&entries[i]); err != nil {
			t.Fatalf("create entry failed: %v", err)
		}
	}

	totals, err := repo.Totals(user.ID)
	if err != nil {
		t.Fatalf("totals failed: %v", err)
	}
	if !totals.Earned.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("earned want 100 got %s", totals.Earned)
	}
	if !totals.WaitingWithdrawals.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("waiting want 30 got %s", totals.WaitingWithdrawals)
	}
	if !totals.Withdrawn.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("withdrawn want 20 got %s", totals.Withdrawn)
	}
}
