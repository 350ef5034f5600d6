package cache

import (
	"context"
	"fmt"
)

// MemberDashboardKey 会员仪表盘缓存键
func MemberDashboardKey(userID uint) string {
	return fmt.Sprintf("dashboard:member:%d", userID)
}

// InvalidateMemberDashboards 使一批会员的仪表盘缓存失效
func InvalidateMemberDashboards(ctx context.Context, userIDs ...uint) error {
	if !Enabled() || len(userIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(userIDs))
	seen := make(map[uint]struct{}, len(userIDs))
	for _, id := range userIDs {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		keys = append(keys, MemberDashboardKey(id))
	}
	return Del(ctx, keys...)
}

// InvalidateAdminOverview 使后台总览缓存失效
func InvalidateAdminOverview(ctx context.Context) error {
	return DelPattern(ctx, "dashboard:admin:*")
}
