// internal/service/inventory/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"minimart/internal/service/inventory/domain"
)

// GormItemRepository 是 ItemRepository 的 GORM 实现。
// 批量扣减/回补都在单个数据库事务里完成，行锁由 FOR UPDATE 提供。
type GormItemRepository struct {
	db *gorm.DB
}

func NewGormItemRepository(db *gorm.DB) *GormItemRepository {
	return &GormItemRepository{db: db}
}

func (r *GormItemRepository) Create(ctx context.Context, item *domain.Item) error {
	if err := r.db.WithContext(ctx).Create(toItemModel(item)).Error; err != nil {
		return pkgerrors.Wrap(err, "create inventory item")
	}
	return nil
}

func (r *GormItemRepository) Save(ctx context.Context, item *domain.Item) error {
	if err := r.db.WithContext(ctx).Save(toItemModel(item)).Error; err != nil {
		return pkgerrors.Wrap(err, "save inventory item")
	}
	return nil
}

func (r *GormItemRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&ItemModel{}, "id = ?", id)
	if res.Error != nil {
		return pkgerrors.Wrap(res.Error, "delete inventory item")
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormItemRepository) FindByID(ctx context.Context, id string) (*domain.Item, error) {
	var model ItemModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if err != nil {
		if pkgerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, pkgerrors.Wrap(err, "find inventory item")
	}
	return toDomainItem(&model), nil
}

// GetByIDs 一次往返读出全部记录，缺失的 id 不出现在返回值里。
func (r *GormItemRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Item, error) {
	var models []ItemModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "batch read inventory items")
	}
	items := make(map[string]*domain.Item, len(models))
	for i := range models {
		items[models[i].ID] = toDomainItem(&models[i])
	}
	return items, nil
}

func (r *GormItemRepository) List(ctx context.Context) ([]*domain.Item, error) {
	var models []ItemModel
	if err := r.db.WithContext(ctx).Order("name").Find(&models).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "list inventory items")
	}
	items := make([]*domain.Item, 0, len(models))
	for i := range models {
		items = append(items, toDomainItem(&models[i]))
	}
	return items, nil
}

// DeductStock 在一个事务内锁行重读、校验、写入。校验不过就整体回滚并返回
// ErrStockConflict：两个并发订单抢同一件商品时，至多一个能提交超卖所需的行。
func (r *GormItemRepository) DeductStock(ctx context.Context, muts []domain.StockMutation) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := lockRows(tx, muts)
		if err != nil {
			return err
		}
		for _, mut := range muts {
			model, ok := locked[mut.ItemID]
			if !ok {
				return domain.ErrStockConflict
			}
			newQty := model.Quantity + mut.Delta
			if newQty < 0 {
				return domain.ErrStockConflict
			}
			if err := applyQuantity(tx, model, newQty, mut); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil && !pkgerrors.Is(err, domain.ErrStockConflict) {
		return pkgerrors.Wrap(err, "deduct stock")
	}
	return err
}

// RestoreStock 与 DeductStock 同构但方向相反：消失的行不算失败，
// 收集起来交给调用方记录。
func (r *GormItemRepository) RestoreStock(ctx context.Context, muts []domain.StockMutation) ([]string, error) {
	var skipped []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := lockRows(tx, muts)
		if err != nil {
			return err
		}
		for _, mut := range muts {
			model, ok := locked[mut.ItemID]
			if !ok {
				skipped = append(skipped, mut.ItemID)
				continue
			}
			if err := applyQuantity(tx, model, model.Quantity+mut.Delta, mut); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(err, "restore stock")
	}
	return skipped, nil
}

func lockRows(tx *gorm.DB, muts []domain.StockMutation) (map[string]*ItemModel, error) {
	ids := make([]string, 0, len(muts))
	for _, mut := range muts {
		ids = append(ids, mut.ItemID)
	}
	var models []ItemModel
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	locked := make(map[string]*ItemModel, len(models))
	for i := range models {
		locked[models[i].ID] = &models[i]
	}
	return locked, nil
}

func applyQuantity(tx *gorm.DB, model *ItemModel, newQty int, mut domain.StockMutation) error {
	return tx.Model(&ItemModel{}).Where("id = ?", model.ID).Updates(map[string]interface{}{
		"quantity":     newQty,
		"status":       string(domain.DeriveStatus(newQty, model.MinStockThreshold)),
		"last_updated": mut.At,
		"updated_by":   mut.By,
	}).Error
}
