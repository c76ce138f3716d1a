// internal/service/order/domain/events.go
package domain

// NotificationType 标记通知的业务种类，下游路由与展示用。
type NotificationType string

const (
	NotificationOrderCreated     NotificationType = "order-created"
	NotificationOrderCancelled   NotificationType = "order-cancelled-by-staff"
	NotificationOrderStatusMoved NotificationType = "order-status-changed"
)

// NotificationEvent 是发往通知管道的载荷。通知属于外部协作者：
// 发送失败只记日志，绝不回滚核心事务。
type NotificationEvent struct {
	UserID  string           `json:"user_id"`
	Type    NotificationType `json:"type"`
	OrderID int64            `json:"order_id"`
	Message string           `json:"message"`
}
