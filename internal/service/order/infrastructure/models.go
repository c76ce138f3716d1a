// internal/service/order/infrastructure/models.go
package infrastructure

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderModel 是 Order 领域对象在数据库中的表示。
// DocID 是存储键；OrderID 是对外单号，带唯一索引兜底重号。
type OrderModel struct {
	DocID       string `gorm:"primaryKey;size:36"`
	OrderID     int64  `gorm:"uniqueIndex"`
	UserID      string `gorm:"index;size:64"`
	DisplayName string
	Contents    string          `gorm:"type:json"` // 行快照，落库后不再变化
	TotalPrice  decimal.Decimal `gorm:"type:decimal(12,2)"`
	Status      string
	OrderTime   time.Time
	UpdatedAt   time.Time
}

func (OrderModel) TableName() string {
	return "orders"
}

// lineJSON 是 Contents 列里的一行。
type lineJSON struct {
	ItemID          string          `json:"itemId"`
	Name            string          `json:"name"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"priceAtPurchase"`
}

// SequenceModel 是订单号计数器，整表只有一行。
type SequenceModel struct {
	ID    int `gorm:"primaryKey"`
	Value int64
}

func (SequenceModel) TableName() string {
	return "order_sequence"
}
