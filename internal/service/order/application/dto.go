// internal/service/order/application/dto.go
package application

import (
	invapp "minimart/internal/service/inventory/application"
)

// CreateOrderLine 是调用方提交的一行。价格字段不存在：
// priceAtPurchase 与总价只会由服务端按台账计算。
type CreateOrderLine struct {
	ItemID   string `json:"itemId"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// CreateOrderRequest 是创建订单的入参。
type CreateOrderRequest struct {
	UserID      string            `json:"userId"`
	DisplayName string            `json:"displayName"`
	Lines       []CreateOrderLine `json:"orderContents"`
}

// CreateOrderResult 要么携带新订单的标识，要么携带结构化的库存失败。
type CreateOrderResult struct {
	OrderID    int64  `json:"orderId,omitempty"`
	DocumentID string `json:"documentId,omitempty"`

	StockErrors []invapp.StockError `json:"errors,omitempty"`
	Summary     string              `json:"summary,omitempty"`
}

// Rejected 为 true 时订单未被创建且库存没有任何变化。
func (r *CreateOrderResult) Rejected() bool {
	return len(r.StockErrors) > 0
}

func (r *CreateOrderRequest) toLedgerLines() []invapp.RequestLine {
	lines := make([]invapp.RequestLine, 0, len(r.Lines))
	for _, l := range r.Lines {
		lines = append(lines, invapp.RequestLine{ItemID: l.ItemID, Name: l.Name, Quantity: l.Quantity})
	}
	return lines
}
