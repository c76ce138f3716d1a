// internal/service/inventory/domain/repository.go
package domain

import (
	"context"
	"time"
)

// StockMutation 是一次数量变更：扣减为负 delta，回补为正 delta。
type StockMutation struct {
	ItemID string
	Delta  int
	By     string
	At     time.Time
}

// ItemRepository 定义库存记录的持久化接口，由基础设施层实现。
// 实现必须保证 DeductStock / RestoreStock 的多行写入是一个原子批次。
type ItemRepository interface {
	Create(ctx context.Context, item *Item) error
	Save(ctx context.Context, item *Item) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*Item, error)
	// GetByIDs 一次往返读出全部引用到的记录；缺失的 id 不在返回 map 中。
	GetByIDs(ctx context.Context, ids []string) (map[string]*Item, error)
	List(ctx context.Context) ([]*Item, error)

	// DeductStock 在同一事务内重读并校验每行数量后提交全部负向变更。
	// 任何一行不满足（数量不足或记录消失）都放弃整个批次并返回 ErrStockConflict。
	DeductStock(ctx context.Context, muts []StockMutation) error

	// RestoreStock 提交全部正向变更。已经不存在的记录跳过，并把其 id 返回给
	// 调用方记录，剩余行仍然生效。这种不对称是有意的：回补不允许阻塞取消。
	RestoreStock(ctx context.Context, muts []StockMutation) (skipped []string, err error)
}
