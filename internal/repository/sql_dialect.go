package repository

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// dbDialectName 获取数据库方言名称，默认按 sqlite 处理。
func dbDialectName(db *gorm.DB) string {
	if db == nil || db.Dialector == nil {
		return "sqlite"
	}
	name := strings.ToLower(strings.TrimSpace(db.Dialector.Name()))
	if name == "" {
		return "sqlite"
	}
	return name
}

func likeOperatorByDialect(dialect string) string {
	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case "postgres", "postgresql":
		return "ILIKE"
	default:
		return "LIKE"
	}
}

// buildLikeCondition 构建多列 LIKE 条件，postgres 使用 ILIKE 保持大小写不敏感。
func buildLikeCondition(db *gorm.DB, columns ...string) (string, int) {
	return buildLikeConditionByDialect(dbDialectName(db), columns...)
}

func buildLikeConditionByDialect(dialect string, columns ...string) (string, int) {
	operator := likeOperatorByDialect(dialect)
	parts := make([]string, 0, len(columns))
	for _, column := range columns {
		trimmed := strings.TrimSpace(column)
		if trimmed == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %s ?", trimmed, operator))
	}
	if len(parts) == 0 {
		return "", 0
	}
	return "(" + strings.Join(parts, " OR ") + ")", len(parts)
}

// repeatLikeArgs 生成重复的 LIKE 参数列表。
func repeatLikeArgs(like string, count int) []interface{} {
	args := make([]interface{}, 0, count)
	for i := 0; i < count; i++ {
		args = append(args, like)
	}
	return args
}

// downlineCTE 递归查询某会员的全部下线及深度，sqlite 与 postgres 语法一致。
// maxDepth <= 0 表示不限深度。
func downlineCTE(maxDepth int) string {
	depthGuard := ""
	if maxDepth > 0 {
		depthGuard = fmt.Sprintf(" WHERE t.depth < %d", maxDepth)
	}
	return "WITH RECURSIVE team(member_id, depth) AS (" +
		"SELECT member_id, 1 FROM referral_edges WHERE upline_id = ?" +
		" UNION ALL " +
		"SELECT e.member_id, t.depth + 1 FROM referral_edges e JOIN team t ON e.upline_id = t.member_id" + depthGuard +
		")"
}
