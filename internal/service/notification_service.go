package service

import (
	"fmt"
	"time"

	"github.com/synergy-flow/internal/constants"
	"github.com/synergy-flow/internal/i18n"
	"github.com/synergy-flow/internal/models"
	"github.com/synergy-flow/internal/repository"
)

// NotificationService 站内通知
// 由等级变更、账本追加、订单状态事件生成，文案按会员语言偏好渲染。
type NotificationService struct {
	repo     repository.NotificationRepository
	userRepo repository.UserRepository
	currency string
}

// NewNotificationService 创建通知服务
func NewNotificationService(repo repository.NotificationRepository, userRepo repository.UserRepository, currency string) *NotificationService {
	return &NotificationService{
		repo:     repo,
		userRepo: userRepo,
		currency: normalizeWalletCurrency(currency),
	}
}

// NotifyTierChanged 等级提升通知
func (s *NotificationService) NotifyTierChanged(event TierChangedEvent) (*models.Notification, error) {
	locale, err := s.userLocale(event.UserID)
	if err != nil {
		return nil, err
	}
	return s.create(&models.Notification{
		UserID:  event.UserID,
		Type:    constants.NotificationTypeTierChanged,
		Title:   i18n.T(locale, "notify.tier_changed.title"),
		Content: i18n.Sprintf(locale, "notify.tier_changed.content", event.ToTier, event.AccumulatedSales.StringFixed(2)),
		Payload: models.JSON{
			"from_tier":         event.FromTier,
			"to_tier":           event.ToTier,
			"accumulated_sales": event.AccumulatedSales.StringFixed(2),
			"order_id":          event.OrderID,
		},
		CreatedAt: eventTime(event.OccurredAt),
	})
}

// NotifyLedgerAppended 佣金入账与提现进度通知；待结算佣金不通知
func (s *NotificationService) NotifyLedgerAppended(event LedgerAppendedEvent) (*models.Notification, error) {
	locale, err := s.userLocale(event.UserID)
	if err != nil {
		return nil, err
	}
	notification := &models.Notification{
		UserID: event.UserID,
		Type:   constants.NotificationTypeLedgerAppended,
		Payload: models.JSON{
			"transaction_id": event.TransactionID,
			"type":           event.Type,
			"status":         event.Status,
			"amount":         event.Amount.StringFixed(2),
			"order_id":       event.OrderID,
		},
		CreatedAt: eventTime(event.OccurredAt),
	}
	switch event.Type {
	case constants.CommissionTypeDirect, constants.CommissionTypeTeam:
		if event.Status != constants.CommissionStatusPaid {
			return nil, nil
		}
		notification.Title = i18n.T(locale, fmt.Sprintf("notify.ledger.%s.title", event.Type))
		notification.Content = i18n.Sprintf(locale, "notify.ledger.commission", event.Amount.StringFixed(2), s.currency, event.OrderID)
	case constants.CommissionTypeWithdrawal:
		notification.Title = i18n.T(locale, "notify.ledger.withdrawal.title")
		notification.Content = i18n.Sprintf(locale, "notify.ledger.withdrawal", event.Amount.Abs().StringFixed(2), s.currency, event.Status)
	default:
		return nil, nil
	}
	return s.create(notification)
}

// NotifyOrderStatus 订单状态通知
func (s *NotificationService) NotifyOrderStatus(event OrderStatusEvent) (*models.Notification, error) {
	locale, err := s.userLocale(event.UserID)
	if err != nil {
		return nil, err
	}
	return s.create(&models.Notification{
		UserID:  event.UserID,
		Type:    constants.NotificationTypeOrderStatus,
		Title:   i18n.Sprintf(locale, "notify.order_status.title", event.OrderNo),
		Content: i18n.Sprintf(locale, "notify.order_status.content", event.OrderNo, event.ToStatus),
		Payload: models.JSON{
			"order_id": event.OrderID,
			"order_no": event.OrderNo,
			"from":     event.FromStatus,
			"to":       event.ToStatus,
		},
		CreatedAt: eventTime(event.OccurredAt),
	})
}

// List 通知列表
func (s *NotificationService) List(filter repository.NotificationListFilter) ([]models.Notification, int64, error) {
	return s.repo.List(filter)
}

// CountUnread 未读数
func (s *NotificationService) CountUnread(userID uint) (int64, error) {
	return s.repo.CountUnread(userID)
}

// MarkRead 标记已读，ids 为空时标记全部
func (s *NotificationService) MarkRead(userID uint, ids []uint) (int64, error) {
	return s.repo.MarkRead(userID, ids, time.Now())
}

func (s *NotificationService) create(notification *models.Notification) (*models.Notification, error) {
	if notification.UserID == 0 {
		return nil, ErrUserNotFound
	}
	if err := s.repo.Create(notification); err != nil {
		return nil, err
	}
	return notification, nil
}

// 用户已删除时返回 ErrUserNotFound，异步任务据此丢弃
func (s *NotificationService) userLocale(userID uint) (string, error) {
	if s.userRepo == nil {
		return i18n.DefaultLocale, nil
	}
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", ErrUserNotFound
	}
	return i18n.Normalize(user.Locale), nil
}

func eventTime(at time.Time) time.Time {
	if at.IsZero() {
		return time.Now()
	}
	return at
}
