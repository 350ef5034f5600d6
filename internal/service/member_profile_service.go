package service

import (
	"regexp"
	"strings"
	"time"

	"github.com/synergy-flow/internal/models"
	"github.com/synergy-flow/internal/repository"

	"github.com/go-playground/validator/v10"
)

var bankAccountNumberPattern = regexp.MustCompile(`^[0-9]{10,15}$`)

// ValidateBankAccountNumber validator 自定义规则 bank_account：10–15 位数字（允许空格与连字符）
func ValidateBankAccountNumber(fl validator.FieldLevel) bool {
	return bankAccountNumberPattern.MatchString(cleanAccountNumber(fl.Field().String()))
}

// RegisterValidations 注册自定义校验规则（gin 绑定器复用）
func RegisterValidations(v *validator.Validate) error {
	return v.RegisterValidation("bank_account", ValidateBankAccountNumber)
}

func newProfileValidator() *validator.Validate {
	v := validator.New()
	if err := RegisterValidations(v); err != nil {
		panic(err)
	}
	return v
}

func cleanAccountNumber(raw string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(raw))
}

// AddressInput 收货地址输入
type AddressInput struct {
	RecipientName string `validate:"required,max=120"`
	Phone         string `validate:"required,min=6,max=32"`
	Line1         string `validate:"required,max=255"`
	Line2         string `validate:"max=255"`
	District      string `validate:"max=120"`
	Province      string `validate:"required,max=120"`
	PostalCode    string `validate:"required,numeric,min=4,max=16"`
	IsDefault     bool
}

// BankAccountInput 银行账户输入
type BankAccountInput struct {
	BankName      string `validate:"required,max=120"`
	AccountName   string `validate:"required,max=120"`
	AccountNumber string `validate:"required,bank_account"`
	IsDefault     bool
}

// MemberProfileService 收货地址与提现银行账户
type MemberProfileService struct {
	addressRepo repository.AddressRepository
	bankRepo    repository.BankAccountRepository
	validate    *validator.Validate
}

// NewMemberProfileService 创建会员资料服务
func NewMemberProfileService(addressRepo repository.AddressRepository, bankRepo repository.BankAccountRepository) *MemberProfileService {
	return &MemberProfileService{
		addressRepo: addressRepo,
		bankRepo:    bankRepo,
		validate:    newProfileValidator(),
	}
}

// ListAddresses 地址列表
func (s *MemberProfileService) ListAddresses(userID uint) ([]models.ShippingAddress, error) {
	return s.addressRepo.ListByUser(userID)
}

// CreateAddress 新增地址；首个地址自动设为默认
func (s *MemberProfileService) CreateAddress(userID uint, input AddressInput) (*models.ShippingAddress, error) {
	input = trimAddressInput(input)
	if err := s.validate.Struct(input); err != nil {
		return nil, ErrInvalidAddress
	}
	existing, err := s.addressRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	isDefault := input.IsDefault || len(existing) == 0
	if isDefault && len(existing) > 0 {
		if err := s.addressRepo.ClearDefault(userID); err != nil {
			return nil, err
		}
	}
	now := time.Now()
	address := &models.ShippingAddress{
		UserID:        userID,
		RecipientName: input.RecipientName,
		Phone:         input.Phone,
		Line1:         input.Line1,
		Line2:         input.Line2,
		District:      input.District,
		Province:      input.Province,
		PostalCode:    input.PostalCode,
		IsDefault:     isDefault,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.addressRepo.Create(address); err != nil {
		return nil, err
	}
	return address, nil
}

// UpdateAddress 修改地址
func (s *MemberProfileService) UpdateAddress(userID, addressID uint, input AddressInput) (*models.ShippingAddress, error) {
	input = trimAddressInput(input)
	if err := s.validate.Struct(input); err != nil {
		return nil, ErrInvalidAddress
	}
	address, err := s.addressRepo.GetByIDAndUser(addressID, userID)
	if err != nil {
		return nil, err
	}
	if address == nil {
		return nil, ErrAddressNotFound
	}
	if input.IsDefault && !address.IsDefault {
		if err := s.addressRepo.ClearDefault(userID); err != nil {
			return nil, err
		}
	}
	address.RecipientName = input.RecipientName
	address.Phone = input.Phone
	address.Line1 = input.Line1
	address.Line2 = input.Line2
	address.District = input.District
	address.Province = input.Province
	address.PostalCode = input.PostalCode
	address.IsDefault = address.IsDefault || input.IsDefault
	address.UpdatedAt = time.Now()
	if err := s.addressRepo.Update(address); err != nil {
		return nil, err
	}
	return address, nil
}

// DeleteAddress 删除地址
func (s *MemberProfileService) DeleteAddress(userID, addressID uint) error {
	address, err := s.addressRepo.GetByIDAndUser(addressID, userID)
	if err != nil {
		return err
	}
	if address == nil {
		return ErrAddressNotFound
	}
	return s.addressRepo.Delete(addressID, userID)
}

// ListBankAccounts 银行账户列表（账号脱敏）
func (s *MemberProfileService) ListBankAccounts(userID uint) ([]models.BankAccount, error) {
	rows, err := s.bankRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].AccountNumber = MaskAccountNumber(rows[i].AccountNumber)
	}
	return rows, nil
}

// CreateBankAccount 新增提现银行账户
func (s *MemberProfileService) CreateBankAccount(userID uint, input BankAccountInput) (*models.BankAccount, error) {
	input.BankName = strings.TrimSpace(input.BankName)
	input.AccountName = strings.TrimSpace(input.AccountName)
	if err := s.validate.Struct(input); err != nil {
		return nil, ErrInvalidBankAccount
	}
	now := time.Now()
	account := &models.BankAccount{
		UserID:        userID,
		BankName:      input.BankName,
		AccountName:   input.AccountName,
		AccountNumber: cleanAccountNumber(input.AccountNumber),
		IsDefault:     input.IsDefault,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.bankRepo.Create(account); err != nil {
		return nil, err
	}
	return account, nil
}

// DeleteBankAccount 删除银行账户
func (s *MemberProfileService) DeleteBankAccount(userID, accountID uint) error {
	account, err := s.bankRepo.GetByIDAndUser(accountID, userID)
	if err != nil {
		return err
	}
	if account == nil {
		return ErrInvalidBankAccount
	}
	return s.bankRepo.Delete(accountID, userID)
}

// MaskAccountNumber 只保留后 4 位
func MaskAccountNumber(number string) string {
	if len(number) <= 4 {
		return number
	}
	return strings.Repeat("*", len(number)-4) + number[len(number)-4:]
}

func trimAddressInput(input AddressInput) AddressInput {
	input.RecipientName = strings.TrimSpace(input.RecipientName)
	input.Phone = strings.TrimSpace(input.Phone)
	input.Line1 = strings.TrimSpace(input.Line1)
	input.Line2 = strings.TrimSpace(input.Line2)
	input.District = strings.TrimSpace(input.District)
	input.Province = strings.TrimSpace(input.Province)
	input.PostalCode = strings.TrimSpace(input.PostalCode)
	return input
}
