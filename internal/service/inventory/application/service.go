// internal/service/inventory/application/service.go
package application

import (
	"context"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"minimart/internal/pkg/logger"
	"minimart/internal/service/identity"
	"minimart/internal/service/inventory/domain"
)

// ErrForbidden 表示调用者的角色不允许执行该库存操作。
var ErrForbidden = identityForbiddenError{}

type identityForbiddenError struct{}

func (identityForbiddenError) Error() string { return "inventory: staff role required" }

// ItemInput 是人工建档/编辑的输入。状态字段不存在于输入中：它永远是派生的。
type ItemInput struct {
	ID                string
	Name              string
	Description       string
	Category          domain.Category
	Price             decimal.Decimal
	CostPrice         decimal.Decimal
	Quantity          int
	MinStockThreshold int
}

// Manager 处理库存记录的人工维护。热路径的数量变更不走这里，走 Ledger。
type Manager struct {
	repo   domain.ItemRepository
	tracer trace.Tracer
}

func NewManager(repo domain.ItemRepository, tracer trace.Tracer) *Manager {
	return &Manager{repo: repo, tracer: tracer}
}

// CreateItem 由店员建档一条库存记录。
func (m *Manager) CreateItem(ctx context.Context, caller identity.Identity, in ItemInput) (*domain.Item, error) {
	ctx, span := m.tracer.Start(ctx, "inventory.CreateItem")
	defer span.End()

	if !caller.Role.IsStaff() {
		return nil, ErrForbidden
	}

	item, err := domain.NewItem(in.ID, in.Name, in.Description, in.Category, in.Price, in.CostPrice, in.Quantity, in.MinStockThreshold, caller.UID)
	if err != nil {
		return nil, err
	}
	if err := m.repo.Create(ctx, item); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create item failed")
		return nil, err
	}
	logger.Ctx(ctx).Info().Str("item_id", item.ID).Str("status", string(item.Status)).Msg("inventory item created")
	return item, nil
}

// UpdateItem 人工编辑一条记录。数量被改动时状态照常经过 DeriveStatus 重算，
// 这和台账走的是同一个推导函数。
func (m *Manager) UpdateItem(ctx context.Context, caller identity.Identity, in ItemInput) (*domain.Item, error) {
	ctx, span := m.tracer.Start(ctx, "inventory.UpdateItem")
	defer span.End()

	if !caller.Role.IsStaff() {
		return nil, ErrForbidden
	}

	item, err := m.repo.FindByID(ctx, in.ID)
	if err != nil {
		return nil, err
	}

	item.Name = in.Name
	item.Description = in.Description
	item.Category = in.Category
	item.Price = in.Price
	item.CostPrice = in.CostPrice
	item.Quantity = in.Quantity
	item.MinStockThreshold = in.MinStockThreshold
	if err := item.Validate(); err != nil {
		return nil, err
	}
	item.Touch(caller.UID)

	if err := m.repo.Save(ctx, item); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "save item failed")
		return nil, err
	}
	return item, nil
}

// DeleteItem 是管理动作，不在一致性关键路径上；历史订单持有的是快照，
// 不受删除影响，台账的回补路径会容忍记录消失。
func (m *Manager) DeleteItem(ctx context.Context, caller identity.Identity, id string) error {
	ctx, span := m.tracer.Start(ctx, "inventory.DeleteItem")
	defer span.End()

	if !caller.Role.IsStaff() {
		return ErrForbidden
	}
	return m.repo.Delete(ctx, id)
}

func (m *Manager) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	return m.repo.FindByID(ctx, id)
}

func (m *Manager) ListItems(ctx context.Context) ([]*domain.Item, error) {
	return m.repo.List(ctx)
}
