package admin

import (
	"net/url"
	"strings"

	"github.com/synergy-flow/internal/authz"
	"github.com/synergy-flow/internal/constants"
	"github.com/synergy-flow/internal/http/response"
	"github.com/synergy-flow/internal/logger"
	"github.com/synergy-flow/internal/models"
	"github.com/synergy-flow/internal/service"

	"github.com/gin-gonic/gin"
)

type authzRolePayload struct {
	Role string `json:"role" binding:"required"`
}

// authzPolicyPayload 传 capability 或 object+action 二选一
type authzPolicyPayload struct {
	Role       string `json:"role" binding:"required"`
	Capability string `json:"capability"`
	Object     string `json:"object"`
	Action     string `json:"action"`
}

type authzSetUserRolesPayload struct {
	Roles []string `json:"roles"`
}

// GetAuthzMe 获取当前管理员权限快照
func (h *Handler) GetAuthzMe(c *gin.Context) {
	userID, ok := getOperatorID(c)
	if !ok {
		return
	}

	grants, err := h.AuthzService.UserGrants(userID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	response.Success(c, gin.H{
		"user_id":      userID,
		"is_super":     isSuperOperator(c),
		"roles":        grants.Roles,
		"policies":     grants.Policies,
		"capabilities": grants.Capabilities,
	})
}

// ListAuthzCapabilities 能力目录
func (h *Handler) ListAuthzCapabilities(c *gin.Context) {
	response.Success(c, authz.Capabilities())
}

// ListAuthzRoles 获取角色列表
func (h *Handler) ListAuthzRoles(c *gin.Context) {
	roles, err := h.AuthzService.ListRoles()
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, roles)
}

// CreateAuthzRole 创建角色
func (h *Handler) CreateAuthzRole(c *gin.Context) {
	var req authzRolePayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	role, err := h.AuthzService.CreateRole(req.Role)
	if err != nil {
		respondAuthzError(c, err)
		return
	}

	h.recordAuthzAudit(c, constants.AuditActionRoleCreate, 0, models.JSON{"role": role})
	logger.Infow("admin_authz_role_created",
		"operator_id", currentActor(c).UserID,
		"role", role,
	)

	response.Success(c, gin.H{"role": role})
}

// DeleteAuthzRole 删除角色
func (h *Handler) DeleteAuthzRole(c *gin.Context) {
	role := decodeRoleParam(c.Param("role"))
	if role == "" {
		respondError(c, response.CodeBadRequest, "error.role_invalid", nil)
		return
	}

	if err := h.AuthzService.DeleteRole(role); err != nil {
		respondAuthzError(c, err)
		return
	}

	h.recordAuthzAudit(c, constants.AuditActionRoleDelete, 0, models.JSON{"role": role})
	logger.Infow("admin_authz_role_deleted",
		"operator_id", currentActor(c).UserID,
		"role", role,
	)

	response.Success(c, nil)
}

// GetAuthzRolePolicies 获取角色策略
func (h *Handler) GetAuthzRolePolicies(c *gin.Context) {
	role := decodeRoleParam(c.Param("role"))
	if role == "" {
		respondError(c, response.CodeBadRequest, "error.role_invalid", nil)
		return
	}

	policies, err := h.AuthzService.GetRolePolicies(role)
	if err != nil {
		respondAuthzError(c, err)
		return
	}
	response.Success(c, policies)
}

// GrantAuthzPolicy 授予角色策略
func (h *Handler) GrantAuthzPolicy(c *gin.Context) {
	var req authzPolicyPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	var err error
	if req.Capability != "" {
		err = h.AuthzService.GrantCapability(req.Role, req.Capability)
	} else {
		err = h.AuthzService.GrantRolePolicy(req.Role, req.Object, req.Action)
	}
	if err != nil {
		respondAuthzError(c, err)
		return
	}

	h.recordAuthzAudit(c, constants.AuditActionPolicyGrant, 0, policyDetail(req))
	logger.Infow("admin_authz_policy_granted",
		"operator_id", currentActor(c).UserID,
		"role", req.Role,
		"object", req.Object,
		"action", req.Action,
	)

	response.Success(c, nil)
}

// RevokeAuthzPolicy 撤销角色策略
func (h *Handler) RevokeAuthzPolicy(c *gin.Context) {
	var req authzPolicyPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	if req.Capability != "" {
		item, ok := authz.LookupCapability(req.Capability)
		if !ok {
			respondAuthzError(c, authz.ErrCapabilityUnknown)
			return
		}
		req.Object, req.Action = item.Object, item.Action
	}
	if err := h.AuthzService.RevokeRolePolicy(req.Role, req.Object, req.Action); err != nil {
		respondAuthzError(c, err)
		return
	}

	h.recordAuthzAudit(c, constants.AuditActionPolicyRevoke, 0, policyDetail(req))
	logger.Infow("admin_authz_policy_revoked",
		"operator_id", currentActor(c).UserID,
		"role", req.Role,
		"object", req.Object,
		"action", req.Action,
	)

	response.Success(c, nil)
}

// GetAuthzUserRoles 获取管理员角色
func (h *Handler) GetAuthzUserRoles(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if _, err := h.UserAuthService.GetUserByID(userID); err != nil {
		respondServiceError(c, err)
		return
	}

	roles, err := h.AuthzService.GetUserRoles(userID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, roles)
}

// SetAuthzUserRoles 设置管理员角色，仅对 admin 账号生效
func (h *Handler) SetAuthzUserRoles(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	user, err := h.UserAuthService.GetUserByID(userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if user.Role != constants.UserRoleAdmin {
		respondError(c, response.CodeBadRequest, "error.role_invalid", nil)
		return
	}

	var req authzSetUserRolesPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	if err := h.AuthzService.SetUserRoles(userID, req.Roles); err != nil {
		respondAuthzError(c, err)
		return
	}

	h.recordAuthzAudit(c, constants.AuditActionRoleAssign, userID, models.JSON{
		"target_user_id": userID,
		"target_email":   user.Email,
		"roles":          req.Roles,
	})
	logger.Infow("admin_authz_user_roles_updated",
		"operator_id", currentActor(c).UserID,
		"target_user_id", userID,
		"roles", req.Roles,
	)

	response.Success(c, nil)
}

func (h *Handler) recordAuthzAudit(c *gin.Context, action string, targetID uint, detail models.JSON) {
	if h == nil || h.AuditService == nil {
		return
	}
	actor := currentActor(c)
	if actor.UserID == 0 {
		return
	}
	err := h.AuditService.Record(service.AuditRecordInput{
		Actor:      actor,
		Action:     action,
		TargetType: constants.AuditTargetRole,
		TargetID:   targetID,
		Detail:     detail,
	})
	if err != nil {
		logger.Warnw("admin_authz_audit_record_failed",
			"error", err,
			"action", action,
			"operator_id", actor.UserID,
		)
	}
}

func policyDetail(req authzPolicyPayload) models.JSON {
	return models.JSON{
		"role":       req.Role,
		"capability": req.Capability,
		"object":     req.Object,
		"method":     strings.ToUpper(strings.TrimSpace(req.Action)),
	}
}

func decodeRoleParam(value string) string {
	decoded, err := url.QueryUnescape(value)
	if err != nil {
		return strings.TrimSpace(value)
	}
	return strings.TrimSpace(decoded)
}
