// internal/service/inventory/infrastructure/models.go
package infrastructure

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemModel 是 Item 领域对象在数据库中的表示。
type ItemModel struct {
	ID                string `gorm:"primaryKey;size:64"`
	Name              string
	Description       string
	Category          string
	Price             decimal.Decimal `gorm:"type:decimal(12,2)"`
	CostPrice         decimal.Decimal `gorm:"type:decimal(12,2)"`
	Quantity          int
	MinStockThreshold int
	Status            string
	LastUpdated       time.Time
	UpdatedBy         string
}

func (ItemModel) TableName() string {
	return "inventory_items"
}
