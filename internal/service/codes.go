package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/jaevor/go-nanoid"
)

const (
	referralCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	referralCodeLength   = 8
	orderNoAlphabet      = "0123456789ABCDEFGHJKLMNPQRSTUVWXYZ"
	orderNoRandomLength  = 8
	orderNoPrefix        = "SF"
)

var (
	referralCodeGenerator = mustNanoid(referralCodeAlphabet, referralCodeLength)
	orderNoGenerator      = mustNanoid(orderNoAlphabet, orderNoRandomLength)
)

func mustNanoid(alphabet string, size int) func() string {
	generator, err := nanoid.CustomASCII(alphabet, size)
	if err != nil {
		panic(fmt.Sprintf("init nanoid generator: %v", err))
	}
	return generator
}

// generateReferralCode 生成 8 位推荐码（去掉易混淆字符）
func generateReferralCode() string {
	return referralCodeGenerator()
}

// generateOrderNo 订单号：SF + 日期 + 随机段
func generateOrderNo(now time.Time) string {
	return orderNoPrefix + now.Format("060102") + orderNoGenerator()
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
