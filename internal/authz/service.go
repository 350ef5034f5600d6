package authz

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/casbin/casbin/v3/util"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"
)

const (
	apiV1Prefix     = "/api/v1"
	casbinTableName = "casbin_rule"
	userSubjectFmt  = "user:%d"
	rolePrefix      = "role:"
	roleAnchor      = "role:__anchor__"
)

// 主体为 user:<id> 或 role:<name>；对象为去掉 /api/v1 的路由模板
const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = (g(r.sub, p.sub) || r.sub == p.sub) && keyMatch2(r.obj, p.obj) && (r.act == p.act || p.act == "*")
`

var (
	ErrUnavailable       = errors.New("authz service unavailable")
	ErrRoleRequired      = errors.New("role is required")
	ErrRoleReserved      = errors.New("role name is reserved")
	ErrRoleBuiltin       = errors.New("builtin role is read-only")
	ErrRoleNotFound      = errors.New("role not found")
	ErrActionRequired    = errors.New("action is required")
	ErrCapabilityUnknown = errors.New("unknown capability")
)

// Policy 一条授权策略；命中能力目录时带上能力名
type Policy struct {
	Subject    string `json:"subject"`
	Object     string `json:"object"`
	Action     string `json:"action"`
	Capability string `json:"capability,omitempty"`
}

// UserGrants 后台用户的权限快照，角色包含继承得到的角色
type UserGrants struct {
	Roles        []string `json:"roles"`
	Policies     []Policy `json:"policies"`
	Capabilities []string `json:"capabilities"`
}

// Service 后台 RBAC，策略持久化在 casbin_rule 表
type Service struct {
	enforcer *casbin.SyncedEnforcer
}

// NewService 创建授权服务
func NewService(db *gorm.DB) (*Service, error) {
	if db == nil {
		return nil, errors.New("authz db is nil")
	}
	adapter, err := gormadapter.NewAdapterByDBUseTableName(db, "", casbinTableName)
	if err != nil {
		return nil, fmt.Errorf("create authz adapter failed: %w", err)
	}
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("load authz model failed: %w", err)
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("init authz enforcer failed: %w", err)
	}
	enforcer.AddFunction("keyMatch2", util.KeyMatch2Func)
	enforcer.EnableAutoSave(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("load authz policy failed: %w", err)
	}
	return &Service{enforcer: enforcer}, nil
}

func (s *Service) ready() error {
	if s == nil || s.enforcer == nil {
		return ErrUnavailable
	}
	return nil
}

// EnforceUser 判定用户能否以 act 访问路由 obj
func (s *Service) EnforceUser(userID uint, obj, act string) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	return s.enforcer.Enforce(SubjectForUser(userID), NormalizeObject(obj), NormalizeAction(act))
}

// Can 判定用户是否具备某项能力
func (s *Service) Can(userID uint, capability string) (bool, error) {
	item, ok := LookupCapability(capability)
	if !ok {
		return false, ErrCapabilityUnknown
	}
	action := item.Action
	if action == "*" {
		action = "DELETE"
	}
	return s.EnforceUser(userID, samplePath(item.Object), action)
}

// samplePath 把路由模板实例化成一条可判定的路径
func samplePath(object string) string {
	segments := strings.Split(object, "/")
	for i, seg := range segments {
		switch {
		case strings.HasPrefix(seg, ":"):
			segments[i] = "0"
		case seg == "*":
			segments[i] = "any"
		}
	}
	return strings.Join(segments, "/")
}

// GetUserRoles 用户直接绑定的角色
func (s *Service) GetUserRoles(userID uint) ([]string, error) {
	if userID == 0 {
		return nil, errors.New("user id is required")
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	rules, err := s.enforcer.GetFilteredNamedGroupingPolicy("g", 0, SubjectForUser(userID))
	if err != nil {
		return nil, fmt.Errorf("get user roles failed: %w", err)
	}
	roles := make([]string, 0, len(rules))
	for _, rule := range rules {
		if len(rule) >= 2 && isRoleName(rule[1]) {
			roles = append(roles, rule[1])
		}
	}
	sort.Strings(roles)
	return roles, nil
}

// UserGrants 汇总用户的角色闭包、生效策略与能力
func (s *Service) UserGrants(userID uint) (*UserGrants, error) {
	direct, err := s.GetUserRoles(userID)
	if err != nil {
		return nil, err
	}
	roles, err := s.expandRoles(direct)
	if err != nil {
		return nil, err
	}

	subjects := append([]string{SubjectForUser(userID)}, roles...)
	seen := map[string]Policy{}
	for _, subject := range subjects {
		rules, err := s.enforcer.GetFilteredPolicy(0, subject)
		if err != nil {
			return nil, fmt.Errorf("get policies failed: %w", err)
		}
		for _, item := range convertPolicies(rules) {
			seen[item.Subject+"|"+item.Object+"|"+item.Action] = item
		}
	}

	grants := &UserGrants{Roles: roles, Policies: make([]Policy, 0, len(seen))}
	capSet := map[string]struct{}{}
	for _, item := range seen {
		grants.Policies = append(grants.Policies, item)
		if item.Capability != "" {
			capSet[item.Capability] = struct{}{}
		}
	}
	sortPolicies(grants.Policies)
	grants.Capabilities = sortedKeys(capSet)
	return grants, nil
}

// expandRoles 沿继承关系展开角色
func (s *Service) expandRoles(roles []string) ([]string, error) {
	visited := map[string]struct{}{}
	queue := append([]string(nil), roles...)
	for len(queue) > 0 {
		role := queue[0]
		queue = queue[1:]
		if _, ok := visited[role]; ok {
			continue
		}
		visited[role] = struct{}{}
		parents, err := s.parentsOf(role)
		if err != nil {
			return nil, err
		}
		queue = append(queue, parents...)
	}
	return sortedKeys(visited), nil
}

func (s *Service) parentsOf(role string) ([]string, error) {
	rules, err := s.enforcer.GetFilteredNamedGroupingPolicy("g", 0, role)
	if err != nil {
		return nil, fmt.Errorf("get role parents failed: %w", err)
	}
	parents := make([]string, 0, len(rules))
	for _, rule := range rules {
		if len(rule) >= 2 && isRoleName(rule[1]) {
			parents = append(parents, rule[1])
		}
	}
	return parents, nil
}

func convertPolicies(rules [][]string) []Policy {
	policies := make([]Policy, 0, len(rules))
	for _, rule := range rules {
		if len(rule) < 3 {
			continue
		}
		item := Policy{
			Subject: strings.TrimSpace(rule[0]),
			Object:  NormalizeObject(rule[1]),
			Action:  NormalizeAction(rule[2]),
		}
		item.Capability = capabilityFor(item)
		policies = append(policies, item)
	}
	return policies
}

func sortPolicies(policies []Policy) {
	sort.Slice(policies, func(i, j int) bool {
		a, b := policies[i], policies[j]
		if a.Subject != b.Subject {
			return a.Subject < b.Subject
		}
		if a.Object != b.Object {
			return a.Object < b.Object
		}
		return a.Action < b.Action
	})
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for key := range set {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

func isRoleName(value string) bool {
	return strings.HasPrefix(value, rolePrefix) && value != roleAnchor
}

// SubjectForUser 用户主体标识
func SubjectForUser(userID uint) string {
	return fmt.Sprintf(userSubjectFmt, userID)
}

// NormalizeRole 统一为 role:<name>
func NormalizeRole(role string) (string, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(role), " ", "_")
	if !strings.HasPrefix(normalized, rolePrefix) {
		normalized = rolePrefix + normalized
	}
	if len(normalized) <= len(rolePrefix) {
		return "", ErrRoleRequired
	}
	if normalized == roleAnchor {
		return "", ErrRoleReserved
	}
	return normalized, nil
}

// NormalizeObject 去掉 /api/v1 前缀
func NormalizeObject(object string) string {
	normalized := strings.TrimSpace(object)
	if normalized == "" {
		return "/"
	}
	if !strings.HasPrefix(normalized, "/") {
		normalized = "/" + normalized
	}
	if normalized == apiV1Prefix {
		return "/"
	}
	if strings.HasPrefix(normalized, apiV1Prefix+"/") {
		return strings.TrimPrefix(normalized, apiV1Prefix)
	}
	return normalized
}

// NormalizeAction 统一为大写 HTTP 方法
func NormalizeAction(action string) string {
	return strings.ToUpper(strings.TrimSpace(action))
}
