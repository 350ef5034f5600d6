package service

import (
	"context"
	"strings"
	"time"

	"github.com/synergy-flow/internal/constants"
	"github.com/synergy-flow/internal/logger"
	"github.com/synergy-flow/internal/metrics"
	"github.com/synergy-flow/internal/models"
	"github.com/synergy-flow/internal/repository"

	"gorm.io/gorm"
)

// OrderService 订单查询与后台状态管理
type OrderService struct {
	orderRepo      repository.OrderRepository
	commissionRepo repository.CommissionRepository
	wallet         *WalletService
	audit          *AuditService
	publisher      EventPublisher
}

// OrderStatusInput 后台状态变更输入
type OrderStatusInput struct {
	OrderID uint
	Status  string
	Note    string
}

// NewOrderService 创建订单服务
func NewOrderService(
	orderRepo repository.OrderRepository,
	commissionRepo repository.CommissionRepository,
	wallet *WalletService,
	audit *AuditService,
	publisher EventPublisher,
) *OrderService {
	return &OrderService{
		orderRepo:      orderRepo,
		commissionRepo: commissionRepo,
		wallet:         wallet,
		audit:          audit,
		publisher:      publisherOrNoop(publisher),
	}
}

// SetPublisher 替换事件投递器
func (s *OrderService) SetPublisher(publisher EventPublisher) {
	s.publisher = publisherOrNoop(publisher)
}

// ListOrders 会员订单列表
func (s *OrderService) ListOrders(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	filter.Status = normalizeOrderStatus(filter.Status)
	return s.orderRepo.ListByUser(filter)
}

// ListOrdersForAdmin 后台订单列表
func (s *OrderService) ListOrdersForAdmin(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	filter.Status = normalizeOrderStatus(filter.Status)
	return s.orderRepo.ListAdmin(filter)
}

// GetOrder 会员查看自己的订单
func (s *OrderService) GetOrder(orderID, userID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetOrderForAdmin 后台查看订单
func (s *OrderService) GetOrderForAdmin(orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// UpdateStatus 按状态机流转订单；to_ship 与 cancelled 分别走确认收款与取消流程
func (s *OrderService) UpdateStatus(ctx context.Context, actor Actor, input OrderStatusInput) (*models.Order, error) {
	target := normalizeOrderStatus(input.Status)
	if !isKnownOrderStatus(target) {
		return nil, ErrOrderStatusInvalid
	}
	switch target {
	case constants.OrderStatusToShip:
		return s.ConfirmOrderPayment(ctx, actor, input.OrderID, input.Note)
	case constants.OrderStatusCancelled:
		return s.CancelOrder(ctx, actor, input.OrderID, input.Note)
	}
	return s.transit(ctx, actor, input.OrderID, target, input.Note, nil)
}

// ConfirmOrderPayment pending → to_ship；延迟结算模式下同时发放待结算佣金
func (s *OrderService) ConfirmOrderPayment(ctx context.Context, actor Actor, orderID uint, note string) (*models.Order, error) {
	var settled []models.CommissionTransaction
	order, err := s.transit(ctx, actor, orderID, constants.OrderStatusToShip, note, func(tx *gorm.DB, order *models.Order, now time.Time) (map[string]interface{}, error) {
		entries, err := s.commissionRepo.WithTx(tx).ListByOrderForUpdate(order.ID, []string{constants.CommissionStatusPending})
		if err != nil {
			return nil, err
		}
		for i := range entries {
			entry := &entries[i]
			entry.Status = constants.CommissionStatusPaid
			entry.ProcessedAt = &now
			entry.ProcessedBy = &actor.UserID
			entry.UpdatedAt = now
			if err := s.commissionRepo.WithTx(tx).Update(entry); err != nil {
				return nil, ErrLedgerWriteFailed
			}
			if err := creditCommissionEntry(s.wallet, tx, entry); err != nil {
				return nil, err
			}
		}
		settled = entries
		updates := map[string]interface{}{}
		if order.PaidAt == nil {
			updates["paid_at"] = now
			order.PaidAt = &now
		}
		return updates, nil
	})
	if err != nil {
		return nil, err
	}
	affected := make([]uint, 0, len(settled)+1)
	affected = append(affected, order.UserID)
	for _, entry := range settled {
		metrics.Affiliate().ObserveCommission(entry.Type, entry.Amount.Decimal)
		publishLedger(ctx, s.publisher, entry)
		affected = append(affected, entry.UserID)
	}
	if len(settled) > 0 {
		logger.Infow("order_commissions_settled", "order_id", order.ID, "entries", len(settled))
		invalidateDashboards(ctx, affected...)
	}
	return order, nil
}

// CancelOrder pending/to_ship → cancelled；待结算佣金作废，已入账佣金不冲正
func (s *OrderService) CancelOrder(ctx context.Context, actor Actor, orderID uint, note string) (*models.Order, error) {
	return s.transit(ctx, actor, orderID, constants.OrderStatusCancelled, note, func(tx *gorm.DB, order *models.Order, now time.Time) (map[string]interface{}, error) {
		entries, err := s.commissionRepo.WithTx(tx).ListByOrderForUpdate(order.ID, []string{constants.CommissionStatusPending})
		if err != nil {
			return nil, err
		}
		for i := range entries {
			entries[i].Status = constants.CommissionStatusCancelled
			entries[i].ProcessedAt = &now
			entries[i].ProcessedBy = &actor.UserID
			entries[i].UpdatedAt = now
			if err := s.commissionRepo.WithTx(tx).Update(&entries[i]); err != nil {
				return nil, ErrLedgerWriteFailed
			}
		}
		order.CancelledAt = &now
		return map[string]interface{}{"cancelled_at": now}, nil
	})
}

type orderTransitHook func(tx *gorm.DB, order *models.Order, now time.Time) (map[string]interface{}, error)

func (s *OrderService) transit(ctx context.Context, actor Actor, orderID uint, target, note string, hook orderTransitHook) (*models.Order, error) {
	now := time.Now()
	note = strings.TrimSpace(note)
	var (
		order *models.Order
		from  string
	)
	err := s.wallet.walletRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.orderRepo.WithTx(tx)
		current, err := repo.GetByIDForUpdate(orderID)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrOrderNotFound
		}
		if isOrderFinal(current.Status) || !canTransitOrder(current.Status, target) {
			return ErrOrderStatusInvalid
		}
		from = current.Status
		updates := map[string]interface{}{}
		if hook != nil {
			extra, hookErr := hook(tx, current, now)
			if hookErr != nil {
				return hookErr
			}
			for key, value := range extra {
				updates[key] = value
			}
		}
		updates["updated_at"] = now
		if err := repo.UpdateStatus(current.ID, target, updates); err != nil {
			return ErrOrderUpdateFailed
		}
		if err := repo.AddTimeline(&models.OrderTimeline{
			OrderID:    current.ID,
			FromStatus: from,
			ToStatus:   target,
			Note:       note,
			OperatorID: actor.UserID,
			CreatedAt:  now,
		}); err != nil {
			return err
		}
		current.Status = target
		current.UpdatedAt = now
		order = current
		return s.audit.RecordInTx(tx, AuditRecordInput{
			Actor:      actor,
			Action:     constants.AuditActionOrderStatus,
			TargetType: constants.AuditTargetOrder,
			TargetID:   current.ID,
			Detail: models.JSON{
				"order_no": current.OrderNo,
				"from":     from,
				"to":       target,
				"note":     note,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("order_status_updated", "order_id", order.ID, "from", from, "to", target, "operator_id", actor.UserID)
	if err := s.publisher.PublishOrderStatus(ctx, OrderStatusEvent{
		OrderID:    order.ID,
		UserID:     order.UserID,
		OrderNo:    order.OrderNo,
		FromStatus: from,
		ToStatus:   target,
		OccurredAt: now,
	}); err != nil {
		metrics.Affiliate().ObserveEventFailure("publisher", constants.NotificationTypeOrderStatus)
		logger.Warnw("order_publish_status_failed", "order_id", order.ID, "error", err)
	}
	return s.orderRepo.GetByID(order.ID)
}

// DeleteOrder 物理删除订单（审计）；关联佣金流水保留
func (s *OrderService) DeleteOrder(ctx context.Context, actor Actor, orderID uint) error {
	err := s.wallet.walletRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.orderRepo.WithTx(tx)
		order, err := repo.GetByIDForUpdate(orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if err := repo.Delete(order.ID); err != nil {
			return err
		}
		return s.audit.RecordInTx(tx, AuditRecordInput{
			Actor:      actor,
			Action:     constants.AuditActionOrderDelete,
			TargetType: constants.AuditTargetOrder,
			TargetID:   order.ID,
			Detail: models.JSON{
				"order_no": order.OrderNo,
				"user_id":  order.UserID,
				"status":   order.Status,
				"total":    order.Total.String(),
			},
		})
	})
	if err != nil {
		return err
	}
	logger.Infow("order_deleted", "order_id", orderID, "operator_id", actor.UserID)
	invalidateDashboards(ctx)
	return nil
}
