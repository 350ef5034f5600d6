package constants

// 会员等级常量
const (
	TierStarter   = "starter"
	TierMarketer  = "marketer"
	TierBuilder   = "builder"
	TierExecutive = "executive"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 用户角色常量
const (
	UserRoleMember = "member"
	UserRoleAdmin  = "admin"
)

// 推荐关系常量（由路径长度推导，不落库）
const (
	RelationshipDirect   = "direct"
	RelationshipIndirect = "indirect"
)

// 订单状态常量
const (
	OrderStatusPending   = "pending"
	OrderStatusToShip    = "to_ship"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// 支付方式常量
const (
	PaymentMethodWallet    = "wallet"
	PaymentMethodPromptPay = "promptpay"
	PaymentMethodCard      = "card"
)

// 佣金流水类型常量
const (
	CommissionTypeDirect     = "direct"
	CommissionTypeTeam       = "team"
	CommissionTypeWithdrawal = "withdrawal"
)

// 佣金流水状态常量
const (
	CommissionStatusPending   = "pending"
	CommissionStatusPaid      = "paid"
	CommissionStatusCompleted = "completed"
	CommissionStatusWaiting   = "waiting"
	CommissionStatusCancelled = "cancelled"
)

// 优惠券类型常量
const (
	CouponTypePercent = "percent"
	CouponTypeFixed   = "fixed"
)

// 钱包交易类型常量
const (
	WalletTxnTypeCommissionDirect = "commission_direct"
	WalletTxnTypeCommissionTeam   = "commission_team"
	WalletTxnTypeOrderPay         = "order_pay"
	WalletTxnTypeWithdrawal       = "withdrawal"
	WalletTxnTypeWithdrawalRefund = "withdrawal_refund"
	WalletTxnTypeAdminAdjust      = "admin_adjust"
)

// 钱包交易方向常量
const (
	WalletTxnDirectionIn  = "in"
	WalletTxnDirectionOut = "out"
)

// 通知类型常量
const (
	NotificationTypeTierChanged    = "tier_changed"
	NotificationTypeLedgerAppended = "ledger_appended"
	NotificationTypeOrderStatus    = "order_status"
)

// 审计动作常量
const (
	AuditActionTransactionDelete = "transaction_delete"
	AuditActionOrderDelete       = "order_delete"
	AuditActionMemberDelete      = "member_delete"
	AuditActionWithdrawalApprove = "withdrawal_approve"
	AuditActionWithdrawalReject  = "withdrawal_reject"
	AuditActionOrderStatus       = "order_status_update"
	AuditActionRoleAssign        = "role_assign"
	AuditActionCouponCreate      = "coupon_create"
	AuditActionCouponUpdate      = "coupon_update"
	AuditActionCouponDelete      = "coupon_delete"
	AuditActionProductCreate     = "product_create"
	AuditActionProductUpdate     = "product_update"
	AuditActionWalletAdjust      = "wallet_adjust"
	AuditActionRoleCreate        = "role_create"
	AuditActionRoleDelete        = "role_delete"
	AuditActionPolicyGrant       = "policy_grant"
	AuditActionPolicyRevoke      = "policy_revoke"
)

// 审计对象类型常量
const (
	AuditTargetTransaction = "commission_transaction"
	AuditTargetOrder       = "order"
	AuditTargetMember      = "member"
	AuditTargetRole        = "role"
	AuditTargetCoupon      = "coupon"
	AuditTargetProduct     = "product"
)

// 队列常量
const (
	QueueDefault  = "default"
	QueueCritical = "critical"
)

// 异步任务类型常量
const (
	TaskNotifyTierChanged    = "notify:tier_changed"
	TaskNotifyLedgerAppended = "notify:ledger_appended"
	TaskNotifyOrderStatus    = "notify:order_status"
)
