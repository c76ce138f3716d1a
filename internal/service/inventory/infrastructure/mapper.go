// internal/service/inventory/infrastructure/mapper.go
package infrastructure

import "minimart/internal/service/inventory/domain"

func toDomainItem(m *ItemModel) *domain.Item {
	return &domain.Item{
		ID:                m.ID,
		Name:              m.Name,
		Description:       m.Description,
		Category:          domain.Category(m.Category),
		Price:             m.Price,
		CostPrice:         m.CostPrice,
		Quantity:          m.Quantity,
		MinStockThreshold: m.MinStockThreshold,
		Status:            domain.StockStatus(m.Status),
		LastUpdated:       m.LastUpdated,
		UpdatedBy:         m.UpdatedBy,
	}
}

func toItemModel(i *domain.Item) *ItemModel {
	return &ItemModel{
		ID:                i.ID,
		Name:              i.Name,
		Description:       i.Description,
		Category:          string(i.Category),
		Price:             i.Price,
		CostPrice:         i.CostPrice,
		Quantity:          i.Quantity,
		MinStockThreshold: i.MinStockThreshold,
		Status:            string(i.Status),
		LastUpdated:       i.LastUpdated,
		UpdatedBy:         i.UpdatedBy,
	}
}
