package i18n

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"
)

const (
	LocaleEnglish = "en"
	LocaleThai    = "th"
	LocaleChinese = "zh-CN"

	// DefaultLocale 未协商出语言时使用
	DefaultLocale = LocaleEnglish
)

var (
	supported = []language.Tag{
		language.English,
		language.Thai,
		language.SimplifiedChinese,
	}
	matcher = language.NewMatcher(supported)
)

// Normalize 把任意语言标签收敛为受支持的 locale
func Normalize(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultLocale
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return DefaultLocale
	}
	_, index, confidence := matcher.Match(tag)
	if confidence == language.No {
		return DefaultLocale
	}
	return localeForIndex(index)
}

// FromAcceptLanguage 解析 Accept-Language 头
func FromAcceptLanguage(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return DefaultLocale
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return DefaultLocale
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return DefaultLocale
	}
	return localeForIndex(index)
}

// ResolveLocale 依次读取 ?lang=、X-Locale、Accept-Language
func ResolveLocale(c *gin.Context) string {
	if c == nil {
		return DefaultLocale
	}
	if lang := strings.TrimSpace(c.Query("lang")); lang != "" {
		return Normalize(lang)
	}
	if header := strings.TrimSpace(c.GetHeader("X-Locale")); header != "" {
		return Normalize(header)
	}
	return FromAcceptLanguage(c.GetHeader("Accept-Language"))
}

// T 查找翻译，缺失时回退到英文，再缺失返回 key
func T(locale, key string) string {
	if msg, ok := lookup(locale, key); ok {
		return msg
	}
	if msg, ok := lookup(DefaultLocale, key); ok {
		return msg
	}
	return key
}

// Sprintf 带参数的翻译
func Sprintf(locale, key string, args ...interface{}) string {
	return fmt.Sprintf(T(locale, key), args...)
}

func lookup(locale, key string) (string, bool) {
	table, ok := messages[locale]
	if !ok {
		return "", false
	}
	msg, ok := table[key]
	return msg, ok
}

func localeForIndex(index int) string {
	switch index {
	case 1:
		return LocaleThai
	case 2:
		return LocaleChinese
	default:
		return LocaleEnglish
	}
}
