package service

import (
	"context"
	"strings"
	"time"

	"github.com/synergy-flow/internal/constants"
	"github.com/synergy-flow/internal/logger"
	"github.com/synergy-flow/internal/metrics"
	"github.com/synergy-flow/internal/models"
	"github.com/synergy-flow/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const maxRejectReasonLength = 255

// WithdrawalService 提现申请与审批
// 申请时立即扣减钱包余额，审批与驳回都不再移动资金。
type WithdrawalService struct {
	opts           AffiliateOptions
	commissionRepo repository.CommissionRepository
	bankRepo       repository.BankAccountRepository
	wallet         *WalletService
	audit          *AuditService
	publisher      EventPublisher
}

// WithdrawalRequestInput 提现申请输入
type WithdrawalRequestInput struct {
	UserID        uint
	Amount        decimal.Decimal
	BankAccountID uint
}

// NewWithdrawalService 创建提现服务
func NewWithdrawalService(
	opts AffiliateOptions,
	commissionRepo repository.CommissionRepository,
	bankRepo repository.BankAccountRepository,
	wallet *WalletService,
	audit *AuditService,
	publisher EventPublisher,
) *WithdrawalService {
	return &WithdrawalService{
		opts:           opts,
		commissionRepo: commissionRepo,
		bankRepo:       bankRepo,
		wallet:         wallet,
		audit:          audit,
		publisher:      publisherOrNoop(publisher),
	}
}

// SetPublisher 替换事件投递器
func (s *WithdrawalService) SetPublisher(publisher EventPublisher) {
	s.publisher = publisherOrNoop(publisher)
}

// RequestWithdrawal 申请提现：扣减余额并写入 waiting 状态的负数流水
func (s *WithdrawalService) RequestWithdrawal(ctx context.Context, input WithdrawalRequestInput) (*models.CommissionTransaction, error) {
	amount := input.Amount.Round(2)
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}
	if amount.LessThan(s.opts.MinWithdrawAmount) {
		return nil, ErrWithdrawBelowMinimum
	}
	account, err := s.bankRepo.GetByIDAndUser(input.BankAccountID, input.UserID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrInvalidBankAccount
	}

	now := time.Now()
	var entry *models.CommissionTransaction
	err = s.wallet.walletRepo.Transaction(func(tx *gorm.DB) error {
		bankAccountID := account.ID
		entry = &models.CommissionTransaction{
			UserID:        input.UserID,
			Type:          constants.CommissionTypeWithdrawal,
			Amount:        models.NewMoneyFromDecimal(amount.Neg()),
			Status:        constants.CommissionStatusWaiting,
			BankAccountID: &bankAccountID,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.commissionRepo.WithTx(tx).Create(entry); err != nil {
			return ErrLedgerWriteFailed
		}
		commissionID := entry.ID
		_, _, err := s.wallet.DebitInTx(tx, WalletMoveInput{
			UserID:       input.UserID,
			Amount:       amount,
			TxnType:      constants.WalletTxnTypeWithdrawal,
			Reference:    buildWithdrawalWalletReference(entry.ID, "request"),
			Remark:       "withdrawal to " + account.BankName,
			CommissionID: &commissionID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.Affiliate().ObserveWithdrawal("request", amount)
	logger.Infow("withdrawal_requested", "user_id", input.UserID, "transaction_id", entry.ID, "amount", amount.String())
	publishLedger(ctx, s.publisher, *entry)
	invalidateDashboards(ctx, input.UserID)
	return entry, nil
}

// ApproveWithdrawal waiting → completed，不移动资金
func (s *WithdrawalService) ApproveWithdrawal(ctx context.Context, actor Actor, transactionID uint) (*models.CommissionTransaction, error) {
	now := time.Now()
	entry, err := s.processWaiting(transactionID, func(tx *gorm.DB, entry *models.CommissionTransaction) error {
		entry.Status = constants.CommissionStatusCompleted
		entry.ProcessedBy = &actor.UserID
		entry.ProcessedAt = &now
		entry.UpdatedAt = now
		if err := s.commissionRepo.WithTx(tx).Update(entry); err != nil {
			return ErrLedgerWriteFailed
		}
		return s.audit.RecordInTx(tx, AuditRecordInput{
			Actor:      actor,
			Action:     constants.AuditActionWithdrawalApprove,
			TargetType: constants.AuditTargetTransaction,
			TargetID:   entry.ID,
			Detail: models.JSON{
				"user_id": entry.UserID,
				"amount":  entry.Amount.String(),
			},
		})
	})
	if err != nil {
		return nil, err
	}
	metrics.Affiliate().ObserveWithdrawal("approve", entry.Amount.Decimal.Abs())
	logger.Infow("withdrawal_approved", "transaction_id", entry.ID, "operator_id", actor.UserID)
	publishLedger(ctx, s.publisher, *entry)
	invalidateDashboards(ctx, entry.UserID)
	return entry, nil
}

// RejectWithdrawal 记录驳回原因，流水保持 waiting，不移动资金
func (s *WithdrawalService) RejectWithdrawal(ctx context.Context, actor Actor, transactionID uint, reason string) (*models.CommissionTransaction, error) {
	reason = strings.TrimSpace(reason)
	if len(reason) > maxRejectReasonLength {
		reason = reason[:maxRejectReasonLength]
	}
	now := time.Now()
	entry, err := s.processWaiting(transactionID, func(tx *gorm.DB, entry *models.CommissionTransaction) error {
		entry.RejectReason = reason
		entry.RejectedAt = &now
		entry.ProcessedBy = &actor.UserID
		entry.UpdatedAt = now
		if err := s.commissionRepo.WithTx(tx).Update(entry); err != nil {
			return ErrLedgerWriteFailed
		}
		return s.audit.RecordInTx(tx, AuditRecordInput{
			Actor:      actor,
			Action:     constants.AuditActionWithdrawalReject,
			TargetType: constants.AuditTargetTransaction,
			TargetID:   entry.ID,
			Detail: models.JSON{
				"user_id": entry.UserID,
				"amount":  entry.Amount.String(),
				"reason":  reason,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	metrics.Affiliate().ObserveWithdrawal("reject", entry.Amount.Decimal.Abs())
	logger.Infow("withdrawal_rejected", "transaction_id", entry.ID, "operator_id", actor.UserID, "reason", reason)
	return entry, nil
}

func (s *WithdrawalService) processWaiting(transactionID uint, apply func(tx *gorm.DB, entry *models.CommissionTransaction) error) (*models.CommissionTransaction, error) {
	var result *models.CommissionTransaction
	err := s.wallet.walletRepo.Transaction(func(tx *gorm.DB) error {
		entry, err := s.commissionRepo.WithTx(tx).GetByIDForUpdate(transactionID)
		if err != nil {
			return err
		}
		if entry == nil || entry.Type != constants.CommissionTypeWithdrawal {
			return ErrWithdrawalNotFound
		}
		if entry.Status != constants.CommissionStatusWaiting {
			return ErrWithdrawalStatusInvalid
		}
		if err := apply(tx, entry); err != nil {
			return err
		}
		result = entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListWithdrawals 查询提现记录
func (s *WithdrawalService) ListWithdrawals(filter repository.CommissionListFilter) ([]models.CommissionTransaction, int64, error) {
	filter.Type = constants.CommissionTypeWithdrawal
	return s.commissionRepo.List(filter)
}
