// internal/service/order/infrastructure/sequencer.go
package infrastructure

import (
	"context"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"minimart/internal/service/order/domain"
)

const sequenceRowID = 1

// GormSequencer 用单行计数器表实现订单号铸造：
// 事务内锁行 → 自增 → 写回。行锁保证并发创建拿到的号严格递增且不重复，
// 订单号上的唯一索引是第二道保险。首单拿到 1。
type GormSequencer struct {
	db *gorm.DB
}

func NewGormSequencer(db *gorm.DB) *GormSequencer {
	return &GormSequencer{db: db}
}

// SeedSequence 在迁移阶段确保计数器行存在。没有这一步，两个并发的首单
// 会同时没读到行、抢着建行，输的一方把一笔本该成功的订单变成 processing_error。
func SeedSequence(db *gorm.DB) error {
	return db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&SequenceModel{ID: sequenceRowID, Value: 0}).Error
}

func (s *GormSequencer) Next(ctx context.Context) (int64, error) {
	var next int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row SequenceModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&row, "id = ?", sequenceRowID).Error
		switch {
		case err == nil:
		case pkgerrors.Is(err, gorm.ErrRecordNotFound):
			// 兜底路径（正常应已由 SeedSequence 建行）。建行撞了主键说明
			// 另一事务刚建好，改为锁读它的行
			row = SequenceModel{ID: sequenceRowID, Value: 0}
			if createErr := tx.Create(&row).Error; createErr != nil {
				if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
					First(&row, "id = ?", sequenceRowID).Error; err != nil {
					return createErr
				}
			}
		default:
			return err
		}

		next = row.Value + 1
		return tx.Model(&SequenceModel{}).Where("id = ?", sequenceRowID).
			Update("value", next).Error
	})
	if err != nil {
		return 0, pkgerrors.Wrap(err, "mint order id")
	}
	return next, nil
}

var _ domain.Sequencer = (*GormSequencer)(nil)
