package authz

import "sort"

// Capability 一项后台操作能力，对应一条路由授权策略
type Capability struct {
	Name   string `json:"name"`
	Object string `json:"object"`
	Action string `json:"action"`
	Module string `json:"module"`
}

// 能力名称
const (
	CapLedgerRead          = "ledger.read"
	CapWithdrawalApprove   = "withdrawal.approve"
	CapWithdrawalReject    = "withdrawal.reject"
	CapLedgerDelete        = "ledger.delete"
	CapWalletAdjust        = "wallet.adjust"
	CapMemberDelete        = "member.delete"
	CapOrderConfirmPayment = "order.confirm_payment"
	CapOrderUpdateStatus   = "order.update_status"
	CapOrderCancel         = "order.cancel"
	CapOrderDelete         = "order.delete"
	CapProductCreate       = "product.create"
	CapProductUpdate       = "product.update"
	CapCouponCreate        = "coupon.create"
	CapCouponManage        = "coupon.manage"
	CapAuthzManage         = "authz.manage"
)

// ledger.read 覆盖全部后台 GET 路由
var capabilities = []Capability{
	{Name: CapLedgerRead, Object: "/admin/*", Action: "GET", Module: "ledger"},
	{Name: CapWithdrawalApprove, Object: "/admin/withdrawals/:id/approve", Action: "POST", Module: "withdrawals"},
	{Name: CapWithdrawalReject, Object: "/admin/withdrawals/:id/reject", Action: "POST", Module: "withdrawals"},
	{Name: CapLedgerDelete, Object: "/admin/transactions/:id", Action: "DELETE", Module: "ledger"},
	{Name: CapWalletAdjust, Object: "/admin/members/:id/wallet", Action: "POST", Module: "members"},
	{Name: CapMemberDelete, Object: "/admin/members/:id", Action: "DELETE", Module: "members"},
	{Name: CapOrderConfirmPayment, Object: "/admin/orders/:id/confirm-payment", Action: "POST", Module: "orders"},
	{Name: CapOrderUpdateStatus, Object: "/admin/orders/:id/status", Action: "PATCH", Module: "orders"},
	{Name: CapOrderCancel, Object: "/admin/orders/:id/cancel", Action: "POST", Module: "orders"},
	{Name: CapOrderDelete, Object: "/admin/orders/:id", Action: "DELETE", Module: "orders"},
	{Name: CapProductCreate, Object: "/admin/products", Action: "POST", Module: "products"},
	{Name: CapProductUpdate, Object: "/admin/products/:id", Action: "PUT", Module: "products"},
	{Name: CapCouponCreate, Object: "/admin/coupons", Action: "POST", Module: "coupons"},
	{Name: CapCouponManage, Object: "/admin/coupons/:id", Action: "*", Module: "coupons"},
	{Name: CapAuthzManage, Object: "/admin/authz/*", Action: "*", Module: "authz"},
}

var capabilityIndex = func() map[string]Capability {
	index := make(map[string]Capability, len(capabilities))
	for _, item := range capabilities {
		index[item.Name] = item
	}
	return index
}()

// Capabilities 返回全部能力，按模块与名称排序
func Capabilities() []Capability {
	out := make([]Capability, len(capabilities))
	copy(out, capabilities)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Module == out[j].Module {
			return out[i].Name < out[j].Name
		}
		return out[i].Module < out[j].Module
	})
	return out
}

// LookupCapability 按名称查找能力
func LookupCapability(name string) (Capability, bool) {
	item, ok := capabilityIndex[name]
	return item, ok
}

// capabilityFor 反查策略对应的能力名，非能力策略返回空
func capabilityFor(policy Policy) string {
	for _, item := range capabilities {
		if item.Object == policy.Object && item.Action == policy.Action {
			return item.Name
		}
	}
	return ""
}

// CapabilityForRoute 返回精确对应该路由的能力名，没有时为空
func CapabilityForRoute(object, action string) string {
	return capabilityFor(Policy{Object: NormalizeObject(object), Action: NormalizeAction(action)})
}
