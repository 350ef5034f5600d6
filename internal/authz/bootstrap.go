package authz

import "fmt"

// 预置角色名
const (
	RoleReadonlyAuditor = "readonly_auditor"
	RoleFinance         = "finance"
	RoleOperations      = "operations"
)

// RoleSeed 预置角色：继承关系加能力列表
type RoleSeed struct {
	Role         string
	Inherits     []string
	Capabilities []string
}

// BuiltinRoleSeeds 预置角色矩阵；超级管理员不经过 casbin
// finance 负责资金流向（提现、流水、钱包、确认收款），operations 负责订单与商品券
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role:         RoleReadonlyAuditor,
			Capabilities: []string{CapLedgerRead},
		},
		{
			Role:     RoleFinance,
			Inherits: []string{RoleReadonlyAuditor},
			Capabilities: []string{
				CapWithdrawalApprove,
				CapWithdrawalReject,
				CapLedgerDelete,
				CapWalletAdjust,
				CapOrderConfirmPayment,
			},
		},
		{
			Role:     RoleOperations,
			Inherits: []string{RoleReadonlyAuditor},
			Capabilities: []string{
				CapOrderUpdateStatus,
				CapOrderCancel,
				CapProductCreate,
				CapProductUpdate,
				CapCouponCreate,
				CapCouponManage,
			},
		},
	}
}

var builtinRoles = func() map[string]struct{} {
	set := map[string]struct{}{}
	for _, seed := range BuiltinRoleSeeds() {
		set[rolePrefix+seed.Role] = struct{}{}
	}
	return set
}()

// IsBuiltinRole 是否为预置角色（接受带或不带 role: 前缀）
func IsBuiltinRole(role string) bool {
	normalized, err := NormalizeRole(role)
	if err != nil {
		return false
	}
	_, ok := builtinRoles[normalized]
	return ok
}

// BootstrapBuiltinRoles 把预置角色同步到种子定义：补齐缺失策略，移除多余策略
func (s *Service) BootstrapBuiltinRoles() error {
	if err := s.ready(); err != nil {
		return err
	}
	for _, seed := range BuiltinRoleSeeds() {
		role := rolePrefix + seed.Role
		if _, err := s.enforcer.AddNamedGroupingPolicy("g", role, roleAnchor); err != nil {
			return fmt.Errorf("create builtin role %s failed: %w", seed.Role, err)
		}
		for _, parent := range seed.Inherits {
			if _, err := s.enforcer.AddNamedGroupingPolicy("g", role, rolePrefix+parent); err != nil {
				return fmt.Errorf("link builtin role %s failed: %w", seed.Role, err)
			}
		}

		want := make(map[string]Capability, len(seed.Capabilities))
		for _, name := range seed.Capabilities {
			item, ok := LookupCapability(name)
			if !ok {
				return fmt.Errorf("builtin role %s: %w: %s", seed.Role, ErrCapabilityUnknown, name)
			}
			want[item.Object+"|"+item.Action] = item
		}

		current, err := s.enforcer.GetFilteredPolicy(0, role)
		if err != nil {
			return fmt.Errorf("load builtin role %s failed: %w", seed.Role, err)
		}
		for _, rule := range current {
			if len(rule) < 3 {
				continue
			}
			key := rule[1] + "|" + rule[2]
			if _, keep := want[key]; keep {
				delete(want, key)
				continue
			}
			if _, err := s.enforcer.RemovePolicy(rule[0], rule[1], rule[2]); err != nil {
				return fmt.Errorf("prune builtin role %s failed: %w", seed.Role, err)
			}
		}
		for _, item := range want {
			if _, err := s.enforcer.AddPolicy(role, item.Object, item.Action); err != nil {
				return fmt.Errorf("grant builtin role %s failed: %w", seed.Role, err)
			}
		}
	}
	return nil
}
