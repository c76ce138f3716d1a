// internal/service/inventory/domain/item.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category 是商品分类的封闭枚举。
type Category string

const (
	CategoryFood              Category = "food"
	CategoryDrink             Category = "drink"
	CategorySnack             Category = "snack"
	CategoryHealthAndWellness Category = "health-and-wellness"
	CategoryHomeCare          Category = "home-care"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryFood, CategoryDrink, CategorySnack, CategoryHealthAndWellness, CategoryHomeCare:
		return true
	}
	return false
}

// StockStatus 是库存状态。它是 quantity / minStockThreshold 的派生值，
// 只能通过 DeriveStatus 计算，任何调用方都不允许直接设置。
type StockStatus string

const (
	StatusInStock    StockStatus = "in-stock"
	StatusLowStock   StockStatus = "low-stock"
	StatusOutOfStock StockStatus = "out-of-stock"
)

// DeriveStatus 是库存状态的唯一推导函数，台账扣减、回补和人工编辑共用。
func DeriveStatus(quantity, threshold int) StockStatus {
	switch {
	case quantity == 0:
		return StatusOutOfStock
	case quantity <= threshold:
		return StatusLowStock
	default:
		return StatusInStock
	}
}

// Item 是一条库存记录。Quantity 是热路径上唯一被台账修改的字段。
type Item struct {
	ID                string
	Name              string
	Description       string
	Category          Category
	Price             decimal.Decimal // 售价
	CostPrice         decimal.Decimal // 进价，只用于利润报表
	Quantity          int
	MinStockThreshold int
	Status            StockStatus
	LastUpdated       time.Time
	UpdatedBy         string
}

// NewItem 创建一条库存记录并推导初始状态。
func NewItem(id, name, description string, category Category, price, costPrice decimal.Decimal, quantity, threshold int, by string) (*Item, error) {
	item := &Item{
		ID:                id,
		Name:              name,
		Description:       description,
		Category:          category,
		Price:             price,
		CostPrice:         costPrice,
		Quantity:          quantity,
		MinStockThreshold: threshold,
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}
	item.Touch(by)
	return item, nil
}

// Validate 检查字段约束，创建和人工编辑共用。
func (i *Item) Validate() error {
	if i.ID == "" || i.Name == "" {
		return ErrInvalidItem
	}
	if !i.Category.Valid() {
		return ErrInvalidItem
	}
	if i.Price.IsNegative() || i.CostPrice.IsNegative() {
		return ErrInvalidItem
	}
	if i.Quantity < 0 || i.MinStockThreshold < 0 {
		return ErrInvalidItem
	}
	return nil
}

// Touch 重算派生状态并写审计字段，每个修改点都必须经过这里。
func (i *Item) Touch(by string) {
	i.Status = DeriveStatus(i.Quantity, i.MinStockThreshold)
	i.LastUpdated = time.Now()
	i.UpdatedBy = by
}
