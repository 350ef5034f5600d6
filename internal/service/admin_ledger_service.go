package service

import (
	"context"
	"time"

	"github.com/synergy-flow/internal/cache"
	"github.com/synergy-flow/internal/constants"
	"github.com/synergy-flow/internal/logger"
	"github.com/synergy-flow/internal/models"
	"github.com/synergy-flow/internal/repository"

	"gorm.io/gorm"
)

// AdminLedgerService 后台账本维护：流水与会员的物理删除
type AdminLedgerService struct {
	opts           AffiliateOptions
	userRepo       repository.UserRepository
	referralRepo   repository.ReferralRepository
	commissionRepo repository.CommissionRepository
	wallet         *WalletService
	audit          *AuditService
}

// DeleteTransactionResult 删除流水结果
type DeleteTransactionResult struct {
	Transaction models.CommissionTransaction `json:"transaction"`
	Refunded    bool                         `json:"refunded"`
}

// NewAdminLedgerService 创建后台账本服务
func NewAdminLedgerService(
	opts AffiliateOptions,
	userRepo repository.UserRepository,
	referralRepo repository.ReferralRepository,
	commissionRepo repository.CommissionRepository,
	wallet *WalletService,
	audit *AuditService,
) *AdminLedgerService {
	return &AdminLedgerService{
		opts:           opts,
		userRepo:       userRepo,
		referralRepo:   referralRepo,
		commissionRepo: commissionRepo,
		wallet:         wallet,
		audit:          audit,
	}
}

// ListTransactions 后台流水列表
func (s *AdminLedgerService) ListTransactions(filter repository.CommissionListFilter) ([]models.CommissionTransaction, int64, error) {
	return s.commissionRepo.List(filter)
}

// DeleteTransaction 物理删除流水
// waiting 状态的提现在开启退款时把预扣金额退回钱包，其余流水删除不影响余额。
func (s *AdminLedgerService) DeleteTransaction(ctx context.Context, actor Actor, transactionID uint) (*DeleteTransactionResult, error) {
	result := &DeleteTransactionResult{}
	err := s.userRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.commissionRepo.WithTx(tx)
		entry, err := repo.GetByIDForUpdate(transactionID)
		if err != nil {
			return err
		}
		if entry == nil {
			return ErrTransactionNotFound
		}
		refund := s.opts.RefundOnWithdrawalDelete &&
			entry.Type == constants.CommissionTypeWithdrawal &&
			entry.Status == constants.CommissionStatusWaiting
		if refund {
			if _, _, err := s.wallet.CreditInTx(tx, WalletMoveInput{
				UserID:    entry.UserID,
				Amount:    entry.Amount.Decimal.Abs(),
				TxnType:   constants.WalletTxnTypeWithdrawalRefund,
				Reference: buildWithdrawalWalletReference(entry.ID, "refund"),
				Remark:    "withdrawal deleted",
			}); err != nil {
				return err
			}
		}
		if err := repo.Delete(entry.ID); err != nil {
			return err
		}
		result.Transaction = *entry
		result.Refunded = refund
		return s.audit.RecordInTx(tx, AuditRecordInput{
			Actor:      actor,
			Action:     constants.AuditActionTransactionDelete,
			TargetType: constants.AuditTargetTransaction,
			TargetID:   entry.ID,
			Detail: models.JSON{
				"user_id":  entry.UserID,
				"type":     entry.Type,
				"status":   entry.Status,
				"amount":   entry.Amount.String(),
				"refunded": refund,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("ledger_transaction_deleted",
		"transaction_id", transactionID,
		"user_id", result.Transaction.UserID,
		"refunded", result.Refunded,
		"operator_id", actor.UserID,
	)
	invalidateDashboards(ctx, result.Transaction.UserID)
	return result, nil
}

// DeleteMember 物理删除没有下线的会员及其账本、钱包与推荐关系
func (s *AdminLedgerService) DeleteMember(ctx context.Context, actor Actor, userID uint) error {
	var deleted models.User
	err := s.userRepo.Transaction(func(tx *gorm.DB) error {
		userRepo := s.userRepo.WithTx(tx)
		referralRepo := s.referralRepo.WithTx(tx)
		users, err := userRepo.LockByIDs([]uint{userID})
		if err != nil {
			return err
		}
		if len(users) == 0 {
			return ErrUserNotFound
		}
		user := users[0]
		if user.IsSuper {
			return ErrCannotDeleteSuperUser
		}
		children, err := referralRepo.CountChildren(user.ID)
		if err != nil {
			return err
		}
		if children > 0 {
			return ErrMemberHasDownline
		}
		if err := s.commissionRepo.WithTx(tx).DeleteByUser(user.ID); err != nil {
			return err
		}
		if err := s.wallet.walletRepo.WithTx(tx).DeleteAccountByUserID(user.ID); err != nil {
			return err
		}
		if err := referralRepo.DeleteByMember(user.ID); err != nil {
			return err
		}
		if err := userRepo.Delete(user.ID); err != nil {
			return err
		}
		deleted = user
		return s.audit.RecordInTx(tx, AuditRecordInput{
			Actor:      actor,
			Action:     constants.AuditActionMemberDelete,
			TargetType: constants.AuditTargetMember,
			TargetID:   user.ID,
			Detail: models.JSON{
				"email":             user.Email,
				"tier":              user.Tier,
				"accumulated_sales": user.AccumulatedSales.String(),
				"deleted_at":        time.Now().Format(time.RFC3339),
			},
		})
	})
	if err != nil {
		return err
	}
	logger.Infow("member_deleted", "user_id", deleted.ID, "email", deleted.Email, "operator_id", actor.UserID)
	if cache.Enabled() {
		if err := cache.DelUserAuthState(ctx, deleted.ID); err != nil {
			logger.Warnw("member_delete_auth_cache_failed", "user_id", deleted.ID, "error", err)
		}
	}
	invalidateDashboards(ctx, deleted.ID)
	return nil
}
