// internal/service/order/domain/port/notification.go
package port

import (
	"context"

	"minimart/internal/service/order/domain"
)

// NotificationProducer 是通知管道的出站端口。
// 对事务而言它是 fire-and-forget：应用层记录失败但不因此失败。
type NotificationProducer interface {
	Send(ctx context.Context, event domain.NotificationEvent) error
}
