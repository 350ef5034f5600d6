package i18n

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"":      LocaleEnglish,
		"th-TH": LocaleThai,
		"zh":    LocaleChinese,
		"en-GB": LocaleEnglish,
		"xx-!!": LocaleEnglish,
	}
	for raw, want := range cases {
		if got := Normalize(raw); got != want {
			t.Fatalf("Normalize(%q) want %s got %s", raw, want, got)
		}
	}
}

func TestResolveLocalePrefersQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		target string
		header string
		want   string
	}{
		{"/?lang=th", "zh-CN,zh;q=0.9", LocaleThai},
		{"/", "zh-CN,zh;q=0.9,en;q=0.8", LocaleChinese},
		{"/", "", LocaleEnglish},
	}
	for _, tc := range cases {
		// gin 会缓存 query，每个用例使用新的上下文
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", tc.target, nil)
		if tc.header != "" {
			c.Request.Header.Set("Accept-Language", tc.header)
		}
		if got := ResolveLocale(c); got != tc.want {
			t.Fatalf("%s with %q: want %s got %s", tc.target, tc.header, tc.want, got)
		}
	}
}

func TestTFallsBackToEnglish(t *testing.T) {
	if got := T(LocaleChinese, "error.email_exists"); got != "Email is already registered" {
		t.Fatalf("unexpected fallback: %s", got)
	}
	if got := T(LocaleThai, "missing.key"); got != "missing.key" {
		t.Fatalf("missing key should echo, got %s", got)
	}
	if got := Sprintf(LocaleEnglish, "notify.order_status.content", "SF1", "shipped"); got != "Your order SF1 is now shipped." {
		t.Fatalf("unexpected sprintf: %s", got)
	}
}
