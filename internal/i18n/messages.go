package i18n

var messages = map[string]map[string]string{
	LocaleEnglish: {
		"error.bad_request":               "Invalid request parameters",
		"error.unauthorized":              "Unauthorized",
		"error.forbidden":                 "Permission denied",
		"error.not_found":                 "Resource not found",
		"error.internal":                  "Internal server error",
		"error.too_many_requests":         "Too many requests, please try again later",
		"error.token_invalid":             "Token is invalid or expired",
		"error.auth_header_missing":       "Authorization header is missing",
		"error.auth_header_invalid":       "Authorization header format is invalid",
		"error.jwt_secret_missing":        "JWT secret is not configured",
		"error.user_disabled":             "Account is disabled",
		"error.referrer_required":         "Link a referrer before checking out",
		"error.no_address":                "Please add a shipping address",
		"error.insufficient_funds":        "Insufficient wallet balance",
		"error.invalid_coupon":            "Coupon is invalid",
		"error.coupon_not_found":          "Coupon does not exist",
		"error.coupon_inactive":           "Coupon is not active",
		"error.coupon_not_started":        "Coupon is not yet valid",
		"error.coupon_expired":            "Coupon has expired",
		"error.coupon_usage_limit":        "Coupon usage limit reached",
		"error.coupon_code_exists":        "Coupon code already exists",
		"error.invalid_referral_code":     "Referral code is invalid",
		"error.referral_self":             "You cannot use your own referral code",
		"error.referral_already_bound":    "A referrer is already linked",
		"error.referral_cycle":            "This referral would create a cycle",
		"error.invalid_bank_account":      "Bank account is invalid",
		"error.invalid_amount":            "Amount is invalid",
		"error.withdraw_below_minimum":    "Amount is below the minimum withdrawal",
		"error.withdrawal_not_found":      "Withdrawal not found",
		"error.withdrawal_status_invalid": "Withdrawal cannot be processed in its current status",
		"error.order_not_found":           "Order not found",
		"error.order_status_invalid":      "Order status transition is not allowed",
		"error.transaction_not_found":     "Transaction not found",
		"error.user_not_found":            "User not found",
		"error.email_exists":              "Email is already registered",
		"error.invalid_email":             "Email is invalid",
		"error.invalid_credentials":       "Email or password is incorrect",
		"error.weak_password":             "Password does not meet the policy",
		"error.member_has_downline":       "Member still has a downline and cannot be deleted",
		"error.cannot_delete_super_user":  "Super admin cannot be deleted",
		"error.address_not_found":         "Address not found",
		"error.invalid_address":           "Address is invalid",
		"error.cart_empty":                "Cart is empty",
		"error.product_not_found":         "Product not found",
		"error.product_inactive":          "Product is not available",
		"error.invalid_product":           "Invalid product data",
		"error.product_sku_exists":        "Product SKU already exists",
		"error.invalid_quantity":          "Quantity is invalid",
		"error.payment_method_invalid":    "Payment method is not supported",
		"error.dashboard_range_invalid":   "Dashboard range is invalid",
		"error.notification_not_found":    "Notification not found",
		"error.role_invalid":              "Role is invalid",
		"error.role_builtin":              "Built-in roles cannot be modified",
		"error.role_not_found":            "Role not found",
		"error.capability_unknown":        "Unknown capability",
		"error.password_required":         "Password is required",
		"error.password_too_long":         "Password must be at most %d bytes",
		"error.password_min_length":       "Password must be at least %d characters",
		"error.password_require_upper":    "Password must contain an uppercase letter",
		"error.password_require_lower":    "Password must contain a lowercase letter",
		"error.password_require_number":   "Password must contain a number",
		"error.password_require_special":  "Password must contain a special character",
		"error.token_revoked":             "Session has been revoked, please sign in again",
		"error.rate_limited":              "Too many attempts, retry in %d seconds",
		"error.rate_limit_unavailable":    "Rate limiter is unavailable",
		"error.conflict":                  "Resource state conflict",
		"error.user_id_invalid":           "User id is invalid",
		"error.user_id_type_invalid":      "User id type is invalid",
		"error.id_invalid":                "Id parameter is invalid",

		"notify.tier_changed.title":      "Tier upgraded",
		"notify.tier_changed.content":    "Congratulations, you are now %s with accumulated sales of %s.",
		"notify.ledger.direct.title":     "Direct commission received",
		"notify.ledger.team.title":       "Team commission received",
		"notify.ledger.commission":       "You earned %s %s from order #%d.",
		"notify.ledger.withdrawal.title": "Withdrawal update",
		"notify.ledger.withdrawal":       "Your withdrawal of %s %s is %s.",
		"notify.order_status.title":      "Order %s updated",
		"notify.order_status.content":    "Your order %s is now %s.",
	},
	LocaleThai: {
		"error.bad_request":               "พารามิเตอร์ไม่ถูกต้อง",
		"error.unauthorized":              "กรุณาเข้าสู่ระบบ",
		"error.forbidden":                 "ไม่มีสิทธิ์ดำเนินการ",
		"error.role_builtin":              "ไม่สามารถแก้ไขบทบาทระบบได้",
		"error.not_found":                 "ไม่พบข้อมูล",
		"error.internal":                  "เกิดข้อผิดพลาดภายในระบบ",
		"error.too_many_requests":         "ทำรายการบ่อยเกินไป กรุณาลองใหม่ภายหลัง",
		"error.token_invalid":             "โทเคนไม่ถูกต้องหรือหมดอายุ",
		"error.auth_header_missing":       "ไม่พบข้อมูลการยืนยันตัวตน",
		"error.auth_header_invalid":       "รูปแบบการยืนยันตัวตนไม่ถูกต้อง",
		"error.user_disabled":             "บัญชีถูกระงับ",
		"error.referrer_required":         "กรุณาผูกรหัสผู้แนะนำก่อนชำระเงิน",
		"error.no_address":                "กรุณาเพิ่มที่อยู่จัดส่ง",
		"error.insufficient_funds":        "ยอดเงินในกระเป๋าไม่เพียงพอ",
		"error.invalid_coupon":            "คูปองไม่ถูกต้อง",
		"error.coupon_not_found":          "ไม่พบคูปอง",
		"error.coupon_inactive":           "คูปองยังไม่เปิดใช้งาน",
		"error.coupon_not_started":        "คูปองยังไม่ถึงเวลาใช้งาน",
		"error.coupon_expired":            "คูปองหมดอายุแล้ว",
		"error.coupon_usage_limit":        "คูปองถูกใช้ครบจำนวนแล้ว",
		"error.invalid_referral_code":     "รหัสผู้แนะนำไม่ถูกต้อง",
		"error.referral_self":             "ไม่สามารถใช้รหัสแนะนำของตัวเองได้",
		"error.referral_already_bound":    "ผูกผู้แนะนำไว้แล้ว",
		"error.invalid_bank_account":      "บัญชีธนาคารไม่ถูกต้อง",
		"error.invalid_amount":            "จำนวนเงินไม่ถูกต้อง",
		"error.withdraw_below_minimum":    "จำนวนเงินต่ำกว่ายอดถอนขั้นต่ำ",
		"error.withdrawal_not_found":      "ไม่พบรายการถอนเงิน",
		"error.withdrawal_status_invalid": "ไม่สามารถดำเนินการรายการถอนเงินในสถานะนี้ได้",
		"error.order_not_found":           "ไม่พบคำสั่งซื้อ",
		"error.order_status_invalid":      "ไม่สามารถเปลี่ยนสถานะคำสั่งซื้อได้",
		"error.email_exists":              "อีเมลนี้ถูกใช้งานแล้ว",
		"error.invalid_credentials":       "อีเมลหรือรหัสผ่านไม่ถูกต้อง",
		"error.weak_password":             "รหัสผ่านไม่เป็นไปตามเงื่อนไข",
		"error.cart_empty":                "ตะกร้าสินค้าว่าง",
		"error.password_min_length":       "รหัสผ่านต้องมีอย่างน้อย %d ตัวอักษร",

		"notify.tier_changed.title":      "เลื่อนระดับสมาชิก",
		"notify.tier_changed.content":    "ยินดีด้วย คุณเป็น %s แล้ว ยอดขายสะสม %s",
		"notify.ledger.direct.title":     "ได้รับค่าคอมมิชชั่นตรง",
		"notify.ledger.team.title":       "ได้รับค่าคอมมิชชั่นทีม",
		"notify.ledger.commission":       "คุณได้รับ %s %s จากคำสั่งซื้อ #%d",
		"notify.ledger.withdrawal.title": "อัปเดตการถอนเงิน",
		"notify.ledger.withdrawal":       "รายการถอนเงิน %s %s สถานะ %s",
		"notify.order_status.title":      "อัปเดตคำสั่งซื้อ %s",
		"notify.order_status.content":    "คำสั่งซื้อ %s อยู่ในสถานะ %s",
	},
	LocaleChinese: {
		"error.bad_request":               "请求参数错误",
		"error.unauthorized":              "未登录",
		"error.forbidden":                 "无权限",
		"error.role_builtin":              "内置角色不可修改",
		"error.role_not_found":            "角色不存在",
		"error.not_found":                 "资源不存在",
		"error.internal":                  "服务器内部错误",
		"error.too_many_requests":         "操作过于频繁，请稍后再试",
		"error.token_invalid":             "Token 无效或已过期",
		"error.auth_header_missing":       "缺少认证信息",
		"error.auth_header_invalid":       "认证信息格式错误",
		"error.user_disabled":             "账号已被禁用",
		"error.referrer_required":         "请先绑定推荐人再结算",
		"error.no_address":                "请先添加收货地址",
		"error.insufficient_funds":        "钱包余额不足",
		"error.invalid_coupon":            "优惠券无效",
		"error.coupon_expired":            "优惠券已过期",
		"error.coupon_usage_limit":        "优惠券使用次数已达上限",
		"error.invalid_referral_code":     "推荐码无效",
		"error.referral_self":             "不能使用自己的推荐码",
		"error.referral_already_bound":    "已绑定推荐人",
		"error.invalid_bank_account":      "银行账户无效",
		"error.invalid_amount":            "金额无效",
		"error.withdraw_below_minimum":    "低于最低提现金额",
		"error.withdrawal_status_invalid": "当前状态不允许处理该提现",
		"error.order_status_invalid":      "订单状态不允许此操作",
		"error.member_has_downline":       "会员仍有下线，无法删除",
		"error.cart_empty":                "购物车为空",
		"error.password_min_length":       "密码长度至少为 %d 位",

		"notify.tier_changed.title":      "会员等级提升",
		"notify.tier_changed.content":    "恭喜，您已升级为 %s，累计销售额 %s。",
		"notify.ledger.direct.title":     "直推佣金到账",
		"notify.ledger.team.title":       "团队佣金到账",
		"notify.ledger.commission":       "您获得 %s %s，来自订单 #%d。",
		"notify.ledger.withdrawal.title": "提现进度",
		"notify.ledger.withdrawal":       "您的提现 %s %s 当前状态：%s。",
		"notify.order_status.title":      "订单 %s 状态更新",
		"notify.order_status.content":    "您的订单 %s 当前状态：%s。",
	},
}
