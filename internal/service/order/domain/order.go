// internal/service/order/domain/order.go
package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Line 是订单的一行快照：下单时刻的名称与权威价格的拥有副本，
// 不是对库存记录的引用。库存之后怎么改，历史订单都不动。
type Line struct {
	ItemID          string
	Name            string
	Quantity        int
	PriceAtPurchase decimal.Decimal
}

// Order 是订单聚合的根实体。
// DocID 是存储键（uuid），OrderID 是对外的单调递增整数单号，两者不混用。
type Order struct {
	DocID       string
	OrderID     int64
	UserID      string
	DisplayName string // 下单时刻顾客名称的快照
	Lines       []Line
	TotalPrice  decimal.Decimal // 服务端按台账价格算出，永不信任调用方
	Status      Status
	OrderTime   time.Time
	UpdatedAt   time.Time
}

var (
	ErrEmptyOrder  = errors.New("order: contents must not be empty")
	ErrNotFound    = errors.New("order: not found")
	ErrForbidden   = errors.New("order: forbidden")
	ErrInvalidNext = errors.New("order: invalid transition")
)

// NewOrder 创建一个 pending 状态的新订单。价格与总价来自台账的扣减结果。
func NewOrder(docID string, orderID int64, userID, displayName string, lines []Line, total decimal.Decimal) (*Order, error) {
	if docID == "" || orderID <= 0 || userID == "" {
		return nil, errors.New("order: missing required fields")
	}
	if len(lines) == 0 {
		return nil, ErrEmptyOrder
	}
	now := time.Now()
	return &Order{
		DocID:       docID,
		OrderID:     orderID,
		UserID:      userID,
		DisplayName: displayName,
		Lines:       lines,
		TotalPrice:  total,
		Status:      StatusPending,
		OrderTime:   now,
		UpdatedAt:   now,
	}, nil
}

// OwnedBy 判断订单归属。
func (o *Order) OwnedBy(uid string) bool {
	return o.UserID == uid
}

// SetStatus 只做状态落位与时间戳，转换合法性由调用方先查转换表。
func (o *Order) SetStatus(next Status) {
	o.Status = next
	o.UpdatedAt = time.Now()
}
