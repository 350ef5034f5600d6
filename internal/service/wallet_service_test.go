package service

import (
	"context"
	"errors"
	"testing"

	"github.com/synergy-flow/internal/constants"
	"github.com/synergy-flow/internal/models"
	"github.com/synergy-flow/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func TestWalletCreditIsIdempotentByReference(t *testing.T) {
	env := newAffiliateTestEnv(t)
	user := env.createUser(t, "echo", constants.TierStarter, 0)

	credit := func() {
		err := env.db.Transaction(func(tx *gorm.DB) error {
			_, _, err := env.wallet.CreditInTx(tx, WalletMoveInput{
				UserID:    user.ID,
				Amount:    decimal.RequireFromString("12.345"),
				TxnType:   constants.WalletTxnTypeCommissionDirect,
				Reference: buildCommissionWalletReference(7, user.ID),
			})
			return err
		})
		if err != nil {
			t.Fatalf("credit failed: %v", err)
		}
	}
	credit()
	credit()

	assertDecimal(t, "balance", env.balance(t, user.ID), "12.35")
	var count int64
	env.db.Model(&models.WalletTransaction{}).Where("user_id = ?", user.ID).Count(&count)
	if count != 1 {
		t.Fatalf("expected a single journal row, got %d", count)
	}
	env.assertJournalConsistent(t)
}

func TestWalletDebitInsufficient(t *testing.T) {
	env := newAffiliateTestEnv(t)
	user := env.createUser(t, "foxtrot", constants.TierStarter, 0)
	env.fund(t, user.ID, "50")

	err := env.db.Transaction(func(tx *gorm.DB) error {
		_, _, err := env.wallet.DebitInTx(tx, WalletMoveInput{
			UserID:    user.ID,
			Amount:    decimal.NewFromInt(51),
			TxnType:   constants.WalletTxnTypeOrderPay,
			Reference: buildOrderWalletReference(1, "pay"),
		})
		return err
	})
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	assertDecimal(t, "balance", env.balance(t, user.ID), "50")
}

func TestWithdrawalRejectThenApproveDebitsOnce(t *testing.T) {
	env := newAffiliateTestEnv(t)
	user := env.createUser(t, "golf", constants.TierStarter, 0)
	admin := env.createUser(t, "hotel", constants.TierStarter, 0)
	account := env.createBankAccount(t, user.ID)
	env.fund(t, user.ID, "500")
	actor := Actor{UserID: admin.ID, Email: admin.Email}

	entry, err := env.withdrawals.RequestWithdrawal(context.Background(), WithdrawalRequestInput{
		UserID:        user.ID,
		Amount:        decimal.NewFromInt(200),
		BankAccountID: account.ID,
	})
	if err != nil {
		t.Fatalf("request withdrawal failed: %v", err)
	}
	if entry.Status != constants.CommissionStatusWaiting {
		t.Fatalf("new withdrawal should be waiting, got %s", entry.Status)
	}
	assertDecimal(t, "entry amount", entry.Amount.Decimal, "-200")
	assertDecimal(t, "balance after request", env.balance(t, user.ID), "300")

	rejected, err := env.withdrawals.RejectWithdrawal(context.Background(), actor, entry.ID, "wrong account name")
	if err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if rejected.Status != constants.CommissionStatusWaiting || rejected.RejectReason != "wrong account name" || rejected.RejectedAt == nil {
		t.Fatalf("reject should keep waiting and record reason: %+v", rejected)
	}
	assertDecimal(t, "balance after reject", env.balance(t, user.ID), "300")

	approved, err := env.withdrawals.ApproveWithdrawal(context.Background(), actor, entry.ID)
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if approved.Status != constants.CommissionStatusCompleted {
		t.Fatalf("approved withdrawal should be completed, got %s", approved.Status)
	}
	assertDecimal(t, "balance after approve", env.balance(t, user.ID), "300")

	if _, err := env.withdrawals.ApproveWithdrawal(context.Background(), actor, entry.ID); !errors.Is(err, ErrWithdrawalStatusInvalid) {
		t.Fatalf("second approve should fail, got %v", err)
	}
	if _, err := env.withdrawals.RejectWithdrawal(context.Background(), actor, entry.ID, "late"); !errors.Is(err, ErrWithdrawalStatusInvalid) {
		t.Fatalf("reject after approve should fail, got %v", err)
	}

	logs, total, err := env.audit.List(repository.AuditLogListFilter{Action: constants.AuditActionWithdrawalReject})
	if err != nil {
		t.Fatalf("list audit failed: %v", err)
	}
	if total != 1 || len(logs) != 1 || logs[0].TargetID != entry.ID {
		t.Fatalf("expected one reject audit row, got %d", total)
	}
	env.assertJournalConsistent(t)
}

func TestRequestWithdrawalValidation(t *testing.T) {
	env := newAffiliateTestEnv(t, func(opts *AffiliateOptions) {
		opts.MinWithdrawAmount = decimal.NewFromInt(100)
	})
	user := env.createUser(t, "india", constants.TierStarter, 0)
	other := env.createUser(t, "juliet", constants.TierStarter, 0)
	account := env.createBankAccount(t, user.ID)
	foreign := env.createBankAccount(t, other.ID)
	env.fund(t, user.ID, "150")

	cases := []struct {
		name    string
		amount  string
		account uint
		want    error
	}{
		{"zero", "0", account.ID, ErrInvalidAmount},
		{"negative", "-5", account.ID, ErrInvalidAmount},
		{"below minimum", "99.99", account.ID, ErrWithdrawBelowMinimum},
		{"foreign account", "120", foreign.ID, ErrInvalidBankAccount},
		{"insufficient", "151", account.ID, ErrInsufficientFunds},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.withdrawals.RequestWithdrawal(context.Background(), WithdrawalRequestInput{
				UserID:        user.ID,
				Amount:        decimal.RequireFromString(tc.amount),
				BankAccountID: tc.account,
			})
			if !errors.Is(err, tc.want) {
				t.Fatalf("want %v got %v", tc.want, err)
			}
		})
	}

	var entries int64
	env.db.Model(&models.CommissionTransaction{}).Count(&entries)
	if entries != 0 {
		t.Fatalf("rejected requests must not leave ledger rows, got %d", entries)
	}
	assertDecimal(t, "balance", env.balance(t, user.ID), "150")
}

func TestDeleteWaitingWithdrawalRefunds(t *testing.T) {
	env := newAffiliateTestEnv(t)
	user := env.createUser(t, "kilo", constants.TierStarter, 0)
	admin := env.createUser(t, "lima", constants.TierStarter, 0)
	account := env.createBankAccount(t, user.ID)
	env.fund(t, user.ID, "500")
	actor := Actor{UserID: admin.ID}

	waiting, err := env.withdrawals.RequestWithdrawal(context.Background(), WithdrawalRequestInput{
		UserID: user.ID, Amount: decimal.NewFromInt(200), BankAccountID: account.ID,
	})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	result, err := env.ledger.DeleteTransaction(context.Background(), actor, waiting.ID)
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if !result.Refunded {
		t.Fatalf("waiting withdrawal delete should refund")
	}
	assertDecimal(t, "balance after refund", env.balance(t, user.ID), "500")
	if _, err := env.ledger.DeleteTransaction(context.Background(), actor, waiting.ID); !errors.Is(err, ErrTransactionNotFound) {
		t.Fatalf("second delete should report not found, got %v", err)
	}

	completed, err := env.withdrawals.RequestWithdrawal(context.Background(), WithdrawalRequestInput{
		UserID: user.ID, Amount: decimal.NewFromInt(100), BankAccountID: account.ID,
	})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if _, err := env.withdrawals.ApproveWithdrawal(context.Background(), actor, completed.ID); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	result, err = env.ledger.DeleteTransaction(context.Background(), actor, completed.ID)
	if err != nil {
		t.Fatalf("delete completed failed: %v", err)
	}
	if result.Refunded {
		t.Fatalf("completed withdrawal delete must not refund")
	}
	assertDecimal(t, "balance after completed delete", env.balance(t, user.ID), "400")
	env.assertJournalConsistent(t)
}

func TestDeleteWaitingWithdrawalWithoutRefund(t *testing.T) {
	env := newAffiliateTestEnv(t, func(opts *AffiliateOptions) {
		opts.RefundOnWithdrawalDelete = false
	})
	user := env.createUser(t, "mike", constants.TierStarter, 0)
	account := env.createBankAccount(t, user.ID)
	env.fund(t, user.ID, "300")

	waiting, err := env.withdrawals.RequestWithdrawal(context.Background(), WithdrawalRequestInput{
		UserID: user.ID, Amount: decimal.NewFromInt(100), BankAccountID: account.ID,
	})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	result, err := env.ledger.DeleteTransaction(context.Background(), Actor{UserID: 1}, waiting.ID)
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if result.Refunded {
		t.Fatalf("refund disabled but delete refunded")
	}
	assertDecimal(t, "balance", env.balance(t, user.ID), "200")
}

func TestDeleteMemberRules(t *testing.T) {
	env := newAffiliateTestEnv(t)
	upline := env.createUser(t, "november", constants.TierStarter, 0)
	member := env.createUser(t, "oscar", constants.TierStarter, 0)
	env.link(t, member, upline)
	env.fund(t, member.ID, "10")
	actor := Actor{UserID: 999}

	if err := env.ledger.DeleteMember(context.Background(), actor, upline.ID); !errors.Is(err, ErrMemberHasDownline) {
		t.Fatalf("expected ErrMemberHasDownline, got %v", err)
	}
	if err := env.ledger.DeleteMember(context.Background(), actor, member.ID); err != nil {
		t.Fatalf("delete leaf member failed: %v", err)
	}
	if got, _ := env.users.GetByID(member.ID); got != nil {
		t.Fatalf("member should be deleted")
	}
	var accounts int64
	env.db.Model(&models.WalletAccount{}).Where("user_id = ?", member.ID).Count(&accounts)
	if accounts != 0 {
		t.Fatalf("wallet account should be removed with member")
	}
	if err := env.ledger.DeleteMember(context.Background(), actor, upline.ID); err != nil {
		t.Fatalf("upline without downline should be deletable: %v", err)
	}

	root := env.createUser(t, "papa", constants.TierStarter, 0)
	env.db.Model(&models.User{}).Where("id = ?", root.ID).Update("is_super", true)
	if err := env.ledger.DeleteMember(context.Background(), actor, root.ID); !errors.Is(err, ErrCannotDeleteSuperUser) {
		t.Fatalf("expected ErrCannotDeleteSuperUser, got %v", err)
	}
	if err := env.ledger.DeleteMember(context.Background(), actor, 424242); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
