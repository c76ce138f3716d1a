// internal/service/order/domain/repository.go
package domain

import "context"

// OrderRepository 定义了订单聚合的持久化接口，由基础设施层实现。
type OrderRepository interface {
	Create(ctx context.Context, order *Order) error
	Save(ctx context.Context, order *Order) error
	Delete(ctx context.Context, docID string) error
	FindByDocID(ctx context.Context, docID string) (*Order, error)
	FindByOrderID(ctx context.Context, orderID int64) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]*Order, error)
	ListAll(ctx context.Context) ([]*Order, error)
}

// Sequencer 铸造严格递增、永不重复的订单号，首单为 1。
// 实现必须是事务内的读改写或等价的原子计数器；允许有空洞，不允许有重号。
type Sequencer interface {
	Next(ctx context.Context) (int64, error)
}
