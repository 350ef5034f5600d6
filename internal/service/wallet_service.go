package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/synergy-flow/internal/constants"
	"github.com/synergy-flow/internal/models"
	"github.com/synergy-flow/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	walletDefaultCurrency = "THB"
)

// WalletService 钱包服务
// 余额只通过 CreditInTx / DebitInTx / changeBalance 变动，每次变动都写一条带唯一参考号的流水。
type WalletService struct {
	walletRepo repository.WalletRepository
	currency   string
}

// WalletAdjustInput 管理员余额调整输入
type WalletAdjustInput struct {
	UserID uint
	Delta  models.Money
	Remark string
}

// WalletMoveInput 事务内入账/出账输入
type WalletMoveInput struct {
	UserID       uint
	Amount       decimal.Decimal
	TxnType      string
	Reference    string
	Remark       string
	OrderID      *uint
	CommissionID *uint
}

// NewWalletService 创建钱包服务
func NewWalletService(walletRepo repository.WalletRepository, currency string) *WalletService {
	return &WalletService{
		walletRepo: walletRepo,
		currency:   normalizeWalletCurrency(currency),
	}
}

// Currency 账户币种
func (s *WalletService) Currency() string {
	return s.currency
}

// GetAccount 获取钱包账户（不存在时自动创建）
func (s *WalletService) GetAccount(userID uint) (*models.WalletAccount, error) {
	if userID == 0 {
		return nil, ErrWalletAccountNotFound
	}
	return s.getOrCreateAccount(userID)
}

// GetBalance 查询余额，账户不存在视为 0
func (s *WalletService) GetBalance(userID uint) (decimal.Decimal, error) {
	account, err := s.walletRepo.GetAccountByUserID(userID)
	if err != nil {
		return decimal.Zero, err
	}
	if account == nil {
		return decimal.Zero, nil
	}
	return account.Balance.Decimal.Round(2), nil
}

// ListTransactions 查询钱包流水
func (s *WalletService) ListTransactions(filter repository.WalletTransactionListFilter) ([]models.WalletTransaction, int64, error) {
	return s.walletRepo.ListTransactions(filter)
}

// Reconcile 余额与流水净额对账，返回不一致的账户
func (s *WalletService) Reconcile() ([]repository.WalletJournalRow, error) {
	return s.walletRepo.JournalMismatches()
}

// AdminAdjustBalance 管理员增减用户余额
func (s *WalletService) AdminAdjustBalance(input WalletAdjustInput) (*models.WalletAccount, *models.WalletTransaction, error) {
	if input.UserID == 0 {
		return nil, nil, ErrWalletAccountNotFound
	}
	delta := input.Delta.Decimal.Round(2)
	if delta.IsZero() {
		return nil, nil, ErrInvalidAmount
	}
	reference := buildWalletReference("admin_adjust", input.UserID)
	remark := cleanWalletRemark(input.Remark, "admin balance adjustment")
	return s.changeBalance(input.UserID, delta, constants.WalletTxnTypeAdminAdjust, reference, remark)
}

// CreditInTx 在事务内入账；参考号已存在时直接返回已有流水
func (s *WalletService) CreditInTx(tx *gorm.DB, input WalletMoveInput) (*models.WalletAccount, *models.WalletTransaction, error) {
	return s.moveInTx(tx, input, constants.WalletTxnDirectionIn)
}

// DebitInTx 在事务内扣款；余额不足返回 ErrInsufficientFunds
func (s *WalletService) DebitInTx(tx *gorm.DB, input WalletMoveInput) (*models.WalletAccount, *models.WalletTransaction, error) {
	return s.moveInTx(tx, input, constants.WalletTxnDirectionOut)
}

func (s *WalletService) moveInTx(tx *gorm.DB, input WalletMoveInput, direction string) (*models.WalletAccount, *models.WalletTransaction, error) {
	if tx == nil {
		return nil, nil, ErrLedgerWriteFailed
	}
	if input.UserID == 0 {
		return nil, nil, ErrWalletAccountNotFound
	}
	amount := input.Amount.Round(2)
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, nil, ErrInvalidAmount
	}
	reference := strings.TrimSpace(input.Reference)
	if reference == "" {
		return nil, nil, ErrWalletTransactionCreateFailed
	}
	now := time.Now()
	repo := s.walletRepo.WithTx(tx)

	exists, err := repo.GetTransactionByReference(reference)
	if err != nil {
		return nil, nil, err
	}
	if exists != nil {
		account, accountErr := s.ensureAccountForUpdate(repo, input.UserID, now)
		if accountErr != nil {
			return nil, nil, accountErr
		}
		return account, exists, nil
	}

	account, err := s.ensureAccountForUpdate(repo, input.UserID, now)
	if err != nil {
		return nil, nil, err
	}
	before := account.Balance.Decimal.Round(2)
	after := before.Add(amount)
	if direction == constants.WalletTxnDirectionOut {
		after = before.Sub(amount)
		if after.LessThan(decimal.Zero) {
			return nil, nil, ErrInsufficientFunds
		}
	}
	account.Balance = models.NewMoneyFromDecimal(after)
	account.UpdatedAt = now
	if err := repo.UpdateAccount(account); err != nil {
		return nil, nil, ErrWalletAccountUpdateFailed
	}

	txn := &models.WalletTransaction{
		UserID:        input.UserID,
		OrderID:       input.OrderID,
		CommissionID:  input.CommissionID,
		Type:          strings.TrimSpace(input.TxnType),
		Direction:     direction,
		Amount:        models.NewMoneyFromDecimal(amount),
		BalanceBefore: models.NewMoneyFromDecimal(before),
		BalanceAfter:  models.NewMoneyFromDecimal(after),
		Currency:      s.currency,
		Reference:     reference,
		Remark:        cleanWalletRemark(input.Remark, input.TxnType),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := repo.CreateTransaction(txn); err != nil {
		return nil, nil, ErrWalletTransactionCreateFailed
	}
	return account, txn, nil
}

func (s *WalletService) changeBalance(userID uint, delta decimal.Decimal, txnType, reference, remark string) (*models.WalletAccount, *models.WalletTransaction, error) {
	var accountResult *models.WalletAccount
	var txnResult *models.WalletTransaction
	if err := s.walletRepo.Transaction(func(tx *gorm.DB) error {
		input := WalletMoveInput{
			UserID:    userID,
			Amount:    delta.Abs(),
			TxnType:   txnType,
			Reference: reference,
			Remark:    remark,
		}
		var err error
		if delta.LessThan(decimal.Zero) {
			accountResult, txnResult, err = s.DebitInTx(tx, input)
		} else {
			accountResult, txnResult, err = s.CreditInTx(tx, input)
		}
		return err
	}); err != nil {
		return nil, nil, err
	}
	return accountResult, txnResult, nil
}

func (s *WalletService) getOrCreateAccount(userID uint) (*models.WalletAccount, error) {
	account, err := s.walletRepo.GetAccountByUserID(userID)
	if err != nil {
		return nil, err
	}
	if account != nil {
		return account, nil
	}
	now := time.Now()
	account = &models.WalletAccount{
		UserID:    userID,
		Balance:   models.NewMoneyFromDecimal(decimal.Zero),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.walletRepo.CreateAccount(account); err != nil {
		created, queryErr := s.walletRepo.GetAccountByUserID(userID)
		if queryErr == nil && created != nil {
			return created, nil
		}
		return nil, ErrWalletAccountCreateFailed
	}
	return account, nil
}

func (s *WalletService) ensureAccountForUpdate(repo repository.WalletRepository, userID uint, now time.Time) (*models.WalletAccount, error) {
	account, err := repo.GetAccountByUserIDForUpdate(userID)
	if err != nil {
		return nil, err
	}
	if account != nil {
		return account, nil
	}
	account = &models.WalletAccount{
		UserID:    userID,
		Balance:   models.NewMoneyFromDecimal(decimal.Zero),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.CreateAccount(account); err != nil {
		created, queryErr := repo.GetAccountByUserIDForUpdate(userID)
		if queryErr == nil && created != nil {
			return created, nil
		}
		return nil, ErrWalletAccountCreateFailed
	}
	return account, nil
}

func normalizeWalletCurrency(currency string) string {
	normalized := strings.ToUpper(strings.TrimSpace(currency))
	if normalized == "" {
		return walletDefaultCurrency
	}
	return normalized
}

func cleanWalletRemark(raw string, fallback string) string {
	remark := strings.TrimSpace(raw)
	if remark == "" {
		return fallback
	}
	return remark
}

func buildOrderWalletReference(orderID uint, action string) string {
	action = strings.TrimSpace(action)
	if action == "" {
		action = "wallet"
	}
	return fmt.Sprintf("order:%d:%s", orderID, action)
}

func buildCommissionWalletReference(orderID, userID uint) string {
	return buildOrderWalletReference(orderID, fmt.Sprintf("commission:%d", userID))
}

func buildWithdrawalWalletReference(commissionID uint, action string) string {
	return fmt.Sprintf("withdrawal:%d:%s", commissionID, action)
}

func buildWalletReference(prefix string, id uint) string {
	normalized := strings.TrimSpace(prefix)
	if normalized == "" {
		normalized = "wallet"
	}
	return fmt.Sprintf("%s:%d:%d", normalized, id, time.Now().UnixNano())
}
