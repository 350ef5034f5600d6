package authz

import (
	"errors"
	"fmt"
	"sort"
)

// RoleView 角色列表项
type RoleView struct {
	Role         string   `json:"role"`
	Builtin      bool     `json:"builtin"`
	Inherits     []string `json:"inherits"`
	Capabilities []string `json:"capabilities"`
}

func (s *Service) roleExists(role string) (bool, error) {
	exists, err := s.enforcer.HasNamedGroupingPolicy("g", role, roleAnchor)
	if err != nil {
		return false, fmt.Errorf("check role failed: %w", err)
	}
	return exists, nil
}

// resolveEditableRole 规范化角色名并拒绝修改预置角色
func resolveEditableRole(role string) (string, error) {
	normalized, err := NormalizeRole(role)
	if err != nil {
		return "", err
	}
	if IsBuiltinRole(normalized) {
		return "", ErrRoleBuiltin
	}
	return normalized, nil
}

// CreateRole 创建自定义角色，已存在时直接返回
func (s *Service) CreateRole(role string) (string, error) {
	normalized, err := resolveEditableRole(role)
	if err != nil {
		return "", err
	}
	if err := s.ready(); err != nil {
		return "", err
	}
	if _, err := s.enforcer.AddNamedGroupingPolicy("g", normalized, roleAnchor); err != nil {
		return "", fmt.Errorf("create role failed: %w", err)
	}
	return normalized, nil
}

// ListRoles 列出全部角色，预置角色在前
func (s *Service) ListRoles() ([]RoleView, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rules, err := s.enforcer.GetFilteredNamedGroupingPolicy("g", 1, roleAnchor)
	if err != nil {
		return nil, fmt.Errorf("list roles failed: %w", err)
	}
	views := make([]RoleView, 0, len(rules))
	for _, rule := range rules {
		if len(rule) < 1 || !isRoleName(rule[0]) {
			continue
		}
		view, err := s.describeRole(rule[0])
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	sort.Slice(views, func(i, j int) bool {
		if views[i].Builtin != views[j].Builtin {
			return views[i].Builtin
		}
		return views[i].Role < views[j].Role
	})
	return views, nil
}

func (s *Service) describeRole(role string) (RoleView, error) {
	parents, err := s.parentsOf(role)
	if err != nil {
		return RoleView{}, err
	}
	policies, err := s.enforcer.GetFilteredPolicy(0, role)
	if err != nil {
		return RoleView{}, fmt.Errorf("get role policies failed: %w", err)
	}
	caps := make([]string, 0, len(policies))
	for _, item := range convertPolicies(policies) {
		if item.Capability != "" {
			caps = append(caps, item.Capability)
		}
	}
	sort.Strings(parents)
	sort.Strings(caps)
	return RoleView{Role: role, Builtin: IsBuiltinRole(role), Inherits: parents, Capabilities: caps}, nil
}

// DeleteRole 删除自定义角色及其策略和用户绑定
func (s *Service) DeleteRole(role string) error {
	normalized, err := resolveEditableRole(role)
	if err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	exists, err := s.roleExists(normalized)
	if err != nil {
		return err
	}
	if !exists {
		return ErrRoleNotFound
	}
	if _, err := s.enforcer.RemoveFilteredPolicy(0, normalized); err != nil {
		return fmt.Errorf("remove role policy failed: %w", err)
	}
	if _, err := s.enforcer.RemoveFilteredNamedGroupingPolicy("g", 0, normalized); err != nil {
		return fmt.Errorf("remove role link failed: %w", err)
	}
	if _, err := s.enforcer.RemoveFilteredNamedGroupingPolicy("g", 1, normalized); err != nil {
		return fmt.Errorf("remove role members failed: %w", err)
	}
	return nil
}

// GetRolePolicies 查询角色自身的策略
func (s *Service) GetRolePolicies(role string) ([]Policy, error) {
	normalized, err := NormalizeRole(role)
	if err != nil {
		return nil, err
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	exists, err := s.roleExists(normalized)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrRoleNotFound
	}
	rules, err := s.enforcer.GetFilteredPolicy(0, normalized)
	if err != nil {
		return nil, fmt.Errorf("get role policies failed: %w", err)
	}
	policies := convertPolicies(rules)
	sortPolicies(policies)
	return policies, nil
}

// GrantRolePolicy 为自定义角色授予路由策略，角色不存在时一并创建
func (s *Service) GrantRolePolicy(role, object, action string) error {
	normalized, err := s.CreateRole(role)
	if err != nil {
		return err
	}
	act := NormalizeAction(action)
	if act == "" {
		return ErrActionRequired
	}
	if _, err := s.enforcer.AddPolicy(normalized, NormalizeObject(object), act); err != nil {
		return fmt.Errorf("grant policy failed: %w", err)
	}
	return nil
}

// GrantCapability 按能力名授予
func (s *Service) GrantCapability(role, capability string) error {
	item, ok := LookupCapability(capability)
	if !ok {
		return ErrCapabilityUnknown
	}
	return s.GrantRolePolicy(role, item.Object, item.Action)
}

// RevokeRolePolicy 撤销自定义角色的策略
func (s *Service) RevokeRolePolicy(role, object, action string) error {
	normalized, err := resolveEditableRole(role)
	if err != nil {
		return err
	}
	act := NormalizeAction(action)
	if act == "" {
		return ErrActionRequired
	}
	if err := s.ready(); err != nil {
		return err
	}
	if _, err := s.enforcer.RemovePolicy(normalized, NormalizeObject(object), act); err != nil {
		return fmt.Errorf("revoke policy failed: %w", err)
	}
	return nil
}

// SetUserRoles 覆盖用户角色，所有角色必须已存在
func (s *Service) SetUserRoles(userID uint, roles []string) error {
	if userID == 0 {
		return errors.New("user id is required")
	}
	if err := s.ready(); err != nil {
		return err
	}
	wanted := make([]string, 0, len(roles))
	dedup := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		normalized, err := NormalizeRole(role)
		if err != nil {
			return err
		}
		if _, ok := dedup[normalized]; ok {
			continue
		}
		exists, err := s.roleExists(normalized)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: %s", ErrRoleNotFound, normalized)
		}
		dedup[normalized] = struct{}{}
		wanted = append(wanted, normalized)
	}

	subject := SubjectForUser(userID)
	if _, err := s.enforcer.RemoveFilteredNamedGroupingPolicy("g", 0, subject); err != nil {
		return fmt.Errorf("clear user roles failed: %w", err)
	}
	for _, role := range wanted {
		if _, err := s.enforcer.AddNamedGroupingPolicy("g", subject, role); err != nil {
			return fmt.Errorf("assign user role failed: %w", err)
		}
	}
	return nil
}
