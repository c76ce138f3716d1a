// internal/service/order/application/service.go
package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"minimart/internal/pkg/logger"
	"minimart/internal/pkg/metrics"
	invapp "minimart/internal/service/inventory/application"
	"minimart/internal/service/identity"
	"minimart/internal/service/order/domain"
	"minimart/internal/service/order/domain/port"
)

// OrderApplicationService 负责订单生命周期的业务编排：
// 创建时串起 台账扣减 → 铸单号 → 落库 pending，取消时反向回补。
// 调用者身份永远是显式参数，不从 context 里摸。
type OrderApplicationService struct {
	orderRepo domain.OrderRepository
	sequencer domain.Sequencer
	ledger    *invapp.Ledger
	notifier  port.NotificationProducer
	tracer    trace.Tracer
}

func NewOrderApplicationService(orderRepo domain.OrderRepository, sequencer domain.Sequencer, ledger *invapp.Ledger, notifier port.NotificationProducer, tracer trace.Tracer) *OrderApplicationService {
	return &OrderApplicationService{
		orderRepo: orderRepo,
		sequencer: sequencer,
		ledger:    ledger,
		notifier:  notifier,
		tracer:    tracer,
	}
}

// CreateOrder 创建一笔订单。库存失败作为结构化结果返回（订单不会创建，
// 库存不变）；只有越权与入参问题走 error 通道。
func (s *OrderApplicationService) CreateOrder(ctx context.Context, caller identity.Identity, req *CreateOrderRequest) (*CreateOrderResult, error) {
	ctx, span := s.tracer.Start(ctx, "order.CreateOrder")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", req.UserID), attribute.Int("order.lines", len(req.Lines)))

	// 本核心不支持代下单：调用者必须就是订单归属人
	if caller.UID != req.UserID {
		metrics.OrderCreateFailures.WithLabelValues("forbidden").Inc()
		return nil, domain.ErrForbidden
	}
	if len(req.Lines) == 0 {
		metrics.OrderCreateFailures.WithLabelValues("validation").Inc()
		return nil, domain.ErrEmptyOrder
	}
	for _, line := range req.Lines {
		if line.ItemID == "" || line.Quantity <= 0 {
			metrics.OrderCreateFailures.WithLabelValues("validation").Inc()
			return nil, domain.ErrEmptyOrder
		}
	}

	outcome, err := s.ledger.Deduct(ctx, caller.UID, req.toLedgerLines())
	if err != nil {
		// 存储层面的失败：调用方只被告知整体未生效、可安全重试
		logger.Ctx(ctx).Error().Err(err).Msg("deduction failed at the store")
		span.RecordError(err)
		span.SetStatus(codes.Error, "deduction failed")
		metrics.OrderCreateFailures.WithLabelValues("processing").Inc()
		return processingRejection(), nil
	}
	if !outcome.OK {
		metrics.OrderCreateFailures.WithLabelValues("stock").Inc()
		return &CreateOrderResult{StockErrors: outcome.Errors, Summary: invapp.Summary(outcome.Errors)}, nil
	}

	orderID, err := s.sequencer.Next(ctx)
	if err != nil {
		return s.compensate(ctx, span, req, "sequencer failed", err)
	}

	lines := make([]domain.Line, 0, len(outcome.Lines))
	for _, snap := range outcome.Lines {
		lines = append(lines, domain.Line{
			ItemID:          snap.ItemID,
			Name:            snap.Name,
			Quantity:        snap.Quantity,
			PriceAtPurchase: snap.PriceAtPurchase,
		})
	}

	order, err := domain.NewOrder(uuid.New().String(), orderID, req.UserID, req.DisplayName, lines, outcome.Total)
	if err != nil {
		return s.compensate(ctx, span, req, "order entity invalid", err)
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		return s.compensate(ctx, span, req, "order persist failed", err)
	}

	metrics.OrdersCreated.Inc()
	span.SetAttributes(attribute.Int64("order.id", orderID))
	logger.Ctx(ctx).Info().Int64("order_id", orderID).Str("user_id", order.UserID).
		Str("total", order.TotalPrice.String()).Msg("order created")

	s.notify(ctx, domain.NotificationEvent{
		UserID:  order.UserID,
		Type:    domain.NotificationOrderCreated,
		OrderID: order.OrderID,
		Message: fmt.Sprintf("Order #%d received, total %s.", order.OrderID, order.TotalPrice.StringFixed(2)),
	})

	return &CreateOrderResult{OrderID: order.OrderID, DocumentID: order.DocID}, nil
}

// compensate 处理扣减已提交但订单最终没建起来的路径：把库存加回去，
// 对外统一表现为 processing_error（未生效、可重试）。
func (s *OrderApplicationService) compensate(ctx context.Context, span trace.Span, req *CreateOrderRequest, stage string, cause error) (*CreateOrderResult, error) {
	logger.Ctx(ctx).Error().Err(cause).Str("stage", stage).Msg("order creation failed after deduction, restoring stock")
	span.RecordError(cause)
	span.SetStatus(codes.Error, stage)
	metrics.OrderCreateFailures.WithLabelValues("processing").Inc()

	if err := s.ledger.Restore(ctx, "system:compensation", req.toLedgerLines()); err != nil {
		// 回补也失败只能留给人工对账
		logger.Ctx(ctx).Error().Err(err).Msg("compensating restore failed, manual reconciliation required")
	}
	return processingRejection(), nil
}

func processingRejection() *CreateOrderResult {
	errs := []invapp.StockError{{
		Type:    invapp.ErrorProcessing,
		Message: "order could not be processed, nothing was applied; please retry",
	}}
	return &CreateOrderResult{StockErrors: errs, Summary: invapp.Summary(errs)}
}

// UpdateStatus 推进订单状态机。拒绝原因用哨兵错误表达：
// ErrNotFound / ErrForbidden / ErrInvalidNext。
func (s *OrderApplicationService) UpdateStatus(ctx context.Context, caller identity.Identity, orderID int64, next domain.Status) error {
	ctx, span := s.tracer.Start(ctx, "order.UpdateStatus")
	defer span.End()
	span.SetAttributes(attribute.Int64("order.id", orderID), attribute.String("order.next_status", string(next)))

	if !next.Valid() {
		return domain.ErrInvalidNext
	}

	order, err := s.orderRepo.FindByOrderID(ctx, orderID)
	if err != nil {
		return err // ErrNotFound 原样透出：订单确实不存在时不谎报 forbidden
	}

	// 顾客探测他人订单：存在但不是你的 → forbidden，而不是 not-found
	if caller.Role == identity.RoleCustomer && !order.OwnedBy(caller.UID) {
		return domain.ErrForbidden
	}

	// 幂等取消：已经 cancelled / cancelled-acknowledged 的订单再收到取消，
	// 不碰库存也不改状态，直接当成功
	if next == domain.StatusCancelled &&
		(order.Status == domain.StatusCancelled || order.Status == domain.StatusCancelledAck) {
		span.AddEvent("cancel already applied, no-op")
		return nil
	}

	if !domain.CanTransition(caller.Role, order.Status, next) {
		return domain.ErrInvalidNext
	}

	prev := order.Status
	order.SetStatus(next)
	if err := s.orderRepo.Save(ctx, order); err != nil {
		// 落库失败时库存还没动过：调用方可以安全重试，不会出现二次回补
		span.RecordError(err)
		span.SetStatus(codes.Error, "status persist failed")
		return err
	}
	logger.Ctx(ctx).Info().Int64("order_id", orderID).
		Str("from", string(prev)).Str("to", string(next)).Msg("order status updated")

	// 先落 cancelled 再回补。顺序不能反：状态已持久化后回补失败只是
	// 对账问题，反过来则重试取消会把同一批数量加两次
	if domain.TouchesInventory(prev, next) {
		lines := make([]invapp.RequestLine, 0, len(order.Lines))
		for _, l := range order.Lines {
			lines = append(lines, invapp.RequestLine{ItemID: l.ItemID, Name: l.Name, Quantity: l.Quantity})
		}
		if err := s.ledger.Restore(ctx, caller.UID, lines); err != nil {
			logger.Ctx(ctx).Error().Err(err).Int64("order_id", orderID).
				Msg("stock restore failed on cancellation, manual reconciliation required")
			span.RecordError(err)
		}
		metrics.OrdersCancelled.Inc()
	}

	// 店员取消顾客订单时，向订单归属人发一条外部通知
	if next == domain.StatusCancelled && caller.Role.IsStaff() && caller.UID != order.UserID {
		s.notify(ctx, domain.NotificationEvent{
			UserID:  order.UserID,
			Type:    domain.NotificationOrderCancelled,
			OrderID: order.OrderID,
			Message: fmt.Sprintf("Order #%d was cancelled by store staff.", order.OrderID),
		})
	}
	// 完成时提醒顾客取货
	if next == domain.StatusCompleted {
		s.notify(ctx, domain.NotificationEvent{
			UserID:  order.UserID,
			Type:    domain.NotificationOrderStatusMoved,
			OrderID: order.OrderID,
			Message: fmt.Sprintf("Order #%d is ready for pickup.", order.OrderID),
		})
	}
	return nil
}

// DeleteOrder 是店员/店主专属的管理动作，独立于状态机，不回补库存。
func (s *OrderApplicationService) DeleteOrder(ctx context.Context, caller identity.Identity, docID string) error {
	ctx, span := s.tracer.Start(ctx, "order.DeleteOrder")
	defer span.End()

	if !caller.Role.IsStaff() {
		return domain.ErrForbidden
	}
	return s.orderRepo.Delete(ctx, docID)
}

// GetOrder 读取单笔订单，顾客只能读自己的。
func (s *OrderApplicationService) GetOrder(ctx context.Context, caller identity.Identity, orderID int64) (*domain.Order, error) {
	order, err := s.orderRepo.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if caller.Role == identity.RoleCustomer && !order.OwnedBy(caller.UID) {
		return nil, domain.ErrForbidden
	}
	return order, nil
}

// ListOrders 店员看全部，顾客看自己的。
func (s *OrderApplicationService) ListOrders(ctx context.Context, caller identity.Identity) ([]*domain.Order, error) {
	if caller.Role.IsStaff() {
		return s.orderRepo.ListAll(ctx)
	}
	return s.orderRepo.ListByUser(ctx, caller.UID)
}

// notify 对事务是 fire-and-forget：失败只记日志。
func (s *OrderApplicationService) notify(ctx context.Context, event domain.NotificationEvent) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, event); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Int64("order_id", event.OrderID).
			Str("type", string(event.Type)).Msg("notification emit failed")
	}
}
