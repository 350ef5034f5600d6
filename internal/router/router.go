package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/synergy-flow/internal/authz"
	"github.com/synergy-flow/internal/cache"
	"github.com/synergy-flow/internal/config"
	adminhandlers "github.com/synergy-flow/internal/http/handlers/admin"
	publichandlers "github.com/synergy-flow/internal/http/handlers/public"
	"github.com/synergy-flow/internal/http/response"
	"github.com/synergy-flow/internal/logger"
	"github.com/synergy-flow/internal/metrics"
	"github.com/synergy-flow/internal/provider"
	"github.com/synergy-flow/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := service.RegisterValidations(v); err != nil {
			logger.Errorw("router_register_validations_failed", "error", err)
		}
	}

	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "sf"
	}
	redisClient := cache.Client()
	loginRule := RuleFromConfig(fmt.Sprintf("%s:rate:login", redisPrefix), cfg.Security.LoginRateLimit)
	loginRule.MessageKey = "error.login_too_many"
	withdrawalRule := RuleFromConfig(fmt.Sprintf("%s:rate:withdrawal", redisPrefix), cfg.Security.WithdrawalRateLimit)

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))
	if cfg.Metrics.Enabled {
		r.Use(MetricsMiddleware())
		path := strings.TrimSpace(cfg.Metrics.Path)
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(metrics.Handler()))
	}

	apiV1 := r.Group("/api/v1")
	{
		public := apiV1.Group("/public")
		{
			public.GET("/tiers", publicHandler.GetTiers)
			public.GET("/tiers/resolve", publicHandler.ResolveTier)
			public.GET("/products", publicHandler.GetProducts)
			public.GET("/products/:id", publicHandler.GetProduct)
		}

		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", publicHandler.Register)
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), publicHandler.Login)
		}

		// 会员接口（需鉴权）
		user := apiV1.Group("")
		user.Use(UserJWTAuthMiddleware(cfg.JWT.SecretKey, c.UserAuthService))
		{
			user.GET("/me", publicHandler.GetMe)
			user.PUT("/me", publicHandler.UpdateMe)
			user.PUT("/me/password", publicHandler.ChangePassword)
			user.GET("/me/dashboard", publicHandler.GetMyDashboard)
			user.GET("/me/tiers/history", publicHandler.GetTierHistory)

			user.POST("/referral/link", publicHandler.LinkReferrer)
			user.GET("/referral/chain", publicHandler.GetReferralChain)
			user.GET("/referral/team", publicHandler.GetReferralTeam)

			user.GET("/cart", publicHandler.GetCart)
			user.DELETE("/cart", publicHandler.ClearCart)
			user.GET("/cart/totals", publicHandler.GetCartTotals)
			user.POST("/cart/items", publicHandler.UpsertCartItem)
			user.DELETE("/cart/items/:product_id", publicHandler.DeleteCartItem)
			user.POST("/cart/coupon", publicHandler.ApplyCoupon)
			user.DELETE("/cart/coupon", publicHandler.RemoveCoupon)

			user.POST("/checkout", publicHandler.Checkout)
			user.GET("/orders", publicHandler.GetMyOrders)
			user.GET("/orders/:id", publicHandler.GetMyOrder)

			user.GET("/addresses", publicHandler.ListAddresses)
			user.POST("/addresses", publicHandler.CreateAddress)
			user.PUT("/addresses/:id", publicHandler.UpdateAddress)
			user.DELETE("/addresses/:id", publicHandler.DeleteAddress)
			user.GET("/bank-accounts", publicHandler.ListBankAccounts)
			user.POST("/bank-accounts", publicHandler.CreateBankAccount)
			user.DELETE("/bank-accounts/:id", publicHandler.DeleteBankAccount)

			user.GET("/wallet", publicHandler.GetMyWallet)
			user.GET("/wallet/transactions", publicHandler.GetMyWalletTransactions)
			user.GET("/wallet/withdrawals", publicHandler.GetMyWithdrawals)
			user.POST("/wallet/withdrawals", RateLimitMiddleware(redisClient, withdrawalRule, KeyByIP), publicHandler.RequestWithdrawal)
			user.GET("/commissions", publicHandler.GetMyCommissions)

			user.GET("/notifications", publicHandler.ListNotifications)
			user.GET("/notifications/unread-count", publicHandler.GetUnreadCount)
			user.POST("/notifications/read", publicHandler.MarkNotificationsRead)
		}

		// 管理员接口：同一令牌 + RBAC
		admin := apiV1.Group("/admin")
		admin.Use(UserJWTAuthMiddleware(cfg.JWT.SecretKey, c.UserAuthService), AdminRBACMiddleware(c.AuthzService))
		{
			admin.GET("/dashboard/overview", adminHandler.GetDashboardOverview)
			admin.GET("/dashboard/trends", adminHandler.GetDashboardTrends)

			admin.GET("/withdrawals", adminHandler.ListWithdrawals)
			admin.POST("/withdrawals/:id/approve", adminHandler.ApproveWithdrawal)
			admin.POST("/withdrawals/:id/reject", adminHandler.RejectWithdrawal)
			admin.GET("/transactions", adminHandler.ListTransactions)
			admin.DELETE("/transactions/:id", adminHandler.DeleteTransaction)

			admin.GET("/members", adminHandler.ListMembers)
			admin.GET("/members/:id", adminHandler.GetMember)
			admin.DELETE("/members/:id", adminHandler.DeleteMember)
			admin.POST("/members/:id/wallet", adminHandler.AdjustMemberWallet)
			admin.GET("/members/:id/wallet/transactions", adminHandler.GetMemberWalletTransactions)

			admin.GET("/orders", adminHandler.ListOrders)
			admin.GET("/orders/:id", adminHandler.GetOrder)
			admin.PATCH("/orders/:id/status", adminHandler.UpdateOrderStatus)
			admin.POST("/orders/:id/confirm-payment", adminHandler.ConfirmOrderPayment)
			admin.POST("/orders/:id/cancel", adminHandler.CancelOrder)
			admin.DELETE("/orders/:id", adminHandler.DeleteOrder)

			admin.GET("/products", adminHandler.ListProducts)
			admin.GET("/products/:id", adminHandler.GetProduct)
			admin.POST("/products", adminHandler.CreateProduct)
			admin.PUT("/products/:id", adminHandler.UpdateProduct)

			admin.GET("/coupons", adminHandler.ListCoupons)
			admin.POST("/coupons", adminHandler.CreateCoupon)
			admin.GET("/coupons/:id", adminHandler.GetCoupon)
			admin.PUT("/coupons/:id", adminHandler.UpdateCoupon)
			admin.DELETE("/coupons/:id", adminHandler.DeleteCoupon)

			admin.GET("/audit-logs", adminHandler.ListAuditLogs)

			// 权限管理
			admin.GET("/authz/me", adminHandler.GetAuthzMe)
			admin.GET("/authz/roles", adminHandler.ListAuthzRoles)
			admin.POST("/authz/roles", adminHandler.CreateAuthzRole)
			admin.DELETE("/authz/roles/:role", adminHandler.DeleteAuthzRole)
			admin.GET("/authz/roles/:role/policies", adminHandler.GetAuthzRolePolicies)
			admin.POST("/authz/policies", adminHandler.GrantAuthzPolicy)
			admin.DELETE("/authz/policies", adminHandler.RevokeAuthzPolicy)
			admin.GET("/authz/users/:id/roles", adminHandler.GetAuthzUserRoles)
			admin.PUT("/authz/users/:id/roles", adminHandler.SetAuthzUserRoles)
			admin.GET("/authz/capabilities", adminHandler.ListAuthzCapabilities)
			admin.GET("/authz/permissions/catalog", func(ctx *gin.Context) {
				response.Success(ctx, buildAdminPermissionCatalog(r))
			})
		}
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

type adminPermissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
	Capability string `json:"capability,omitempty"`
}

func buildAdminPermissionCatalog(engine *gin.Engine) []adminPermissionCatalogItem {
	if engine == nil {
		return []adminPermissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]adminPermissionCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/admin/") {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, adminPermissionCatalogItem{
			Module:     deriveAdminPermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
			Capability: authz.CapabilityForRoute(object, method),
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})

	return items
}

func deriveAdminPermissionModule(object string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(object), "/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	if len(segments) <= 1 || segments[0] != "admin" {
		return segments[0]
	}
	return segments[1]
}
