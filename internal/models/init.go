package models

import (
	"strings"
	"time"

	"github.com/synergy-flow/internal/constants"
	"github.com/synergy-flow/internal/logger"

	"golang.org/x/crypto/bcrypt"
)

const (
	defaultAdminPassword     = "admin12345"
	defaultAdminReferralCode = "SFROOT88"
)

// InitDefaultAdmin 初始化默认超级管理员账号（已存在管理员时只确保其超级权限）
func InitDefaultAdmin(email, password, referralCode string) error {
	var count int64
	if err := DB.Model(&User{}).Where("role = ?", constants.UserRoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		email = "admin@synergy.local"
	}
	if count > 0 {
		if err := DB.Model(&User{}).Where("email = ? AND role = ?", email, constants.UserRoleAdmin).Update("is_super", true).Error; err != nil {
			logger.Warnw("ensure_default_admin_super_failed", "error", err)
		}
		return nil
	}

	if password == "" {
		password = defaultAdminPassword
	}
	referralCode = strings.ToUpper(strings.TrimSpace(referralCode))
	if referralCode == "" {
		referralCode = defaultAdminReferralCode
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	now := time.Now()
	admin := User{
		Email:            email,
		PasswordHash:     string(hash),
		DisplayName:      "Administrator",
		Status:           constants.UserStatusActive,
		Role:             constants.UserRoleAdmin,
		IsSuper:          true,
		Tier:             constants.TierStarter,
		AccumulatedSales: ZeroMoney(),
		ReferralCode:     referralCode,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := DB.Create(&admin).Error; err != nil {
		return err
	}

	if password == defaultAdminPassword {
		logger.Warnw("default_admin_created_with_default_password", "email", email)
	} else {
		logger.Warnw("default_admin_created", "email", email, "password_hidden", true)
	}
	return nil
}
