// internal/service/order/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"
	"encoding/json"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"

	"minimart/internal/service/order/domain"
)

// GormOrderRepository 是 OrderRepository 的 GORM 实现。
type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	model, err := toOrderModel(order)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return pkgerrors.Wrap(err, "create order")
	}
	return nil
}

func (r *GormOrderRepository) Save(ctx context.Context, order *domain.Order) error {
	model, err := toOrderModel(order)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return pkgerrors.Wrap(err, "save order")
	}
	return nil
}

func (r *GormOrderRepository) Delete(ctx context.Context, docID string) error {
	res := r.db.WithContext(ctx).Delete(&OrderModel{}, "doc_id = ?", docID)
	if res.Error != nil {
		return pkgerrors.Wrap(res.Error, "delete order")
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormOrderRepository) FindByDocID(ctx context.Context, docID string) (*domain.Order, error) {
	var model OrderModel
	err := r.db.WithContext(ctx).First(&model, "doc_id = ?", docID).Error
	if err != nil {
		if pkgerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, pkgerrors.Wrap(err, "find order by doc id")
	}
	return toDomainOrder(&model)
}

func (r *GormOrderRepository) FindByOrderID(ctx context.Context, orderID int64) (*domain.Order, error) {
	var model OrderModel
	err := r.db.WithContext(ctx).First(&model, "order_id = ?", orderID).Error
	if err != nil {
		if pkgerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, pkgerrors.Wrap(err, "find order by order id")
	}
	return toDomainOrder(&model)
}

func (r *GormOrderRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	var models []OrderModel
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("order_id DESC").Find(&models).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "list orders by user")
	}
	return toDomainOrders(models)
}

func (r *GormOrderRepository) ListAll(ctx context.Context) ([]*domain.Order, error) {
	var models []OrderModel
	if err := r.db.WithContext(ctx).Order("order_id DESC").Find(&models).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "list all orders")
	}
	return toDomainOrders(models)
}

func toOrderModel(o *domain.Order) (*OrderModel, error) {
	lines := make([]lineJSON, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, lineJSON{ItemID: l.ItemID, Name: l.Name, Quantity: l.Quantity, PriceAtPurchase: l.PriceAtPurchase})
	}
	contents, err := json.Marshal(lines)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "marshal order contents")
	}
	return &OrderModel{
		DocID:       o.DocID,
		OrderID:     o.OrderID,
		UserID:      o.UserID,
		DisplayName: o.DisplayName,
		Contents:    string(contents),
		TotalPrice:  o.TotalPrice,
		Status:      string(o.Status),
		OrderTime:   o.OrderTime,
		UpdatedAt:   o.UpdatedAt,
	}, nil
}

func toDomainOrder(m *OrderModel) (*domain.Order, error) {
	var lines []lineJSON
	if err := json.Unmarshal([]byte(m.Contents), &lines); err != nil {
		return nil, pkgerrors.Wrap(err, "unmarshal order contents")
	}
	domainLines := make([]domain.Line, 0, len(lines))
	for _, l := range lines {
		domainLines = append(domainLines, domain.Line{ItemID: l.ItemID, Name: l.Name, Quantity: l.Quantity, PriceAtPurchase: l.PriceAtPurchase})
	}
	return &domain.Order{
		DocID:       m.DocID,
		OrderID:     m.OrderID,
		UserID:      m.UserID,
		DisplayName: m.DisplayName,
		Lines:       domainLines,
		TotalPrice:  m.TotalPrice,
		Status:      domain.Status(m.Status),
		OrderTime:   m.OrderTime,
		UpdatedAt:   m.UpdatedAt,
	}, nil
}

func toDomainOrders(models []OrderModel) ([]*domain.Order, error) {
	orders := make([]*domain.Order, 0, len(models))
	for i := range models {
		order, err := toDomainOrder(&models[i])
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}
