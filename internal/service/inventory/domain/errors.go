// internal/service/inventory/domain/errors.go
package domain

import "errors"

var (
	ErrInvalidItem = errors.New("inventory: invalid item fields")
	ErrNotFound    = errors.New("inventory: item not found")

	// ErrStockConflict 表示条件提交时重读数量不再满足扣减要求。
	// 调用方在重试预算内重新走一遍 读取→校验→提交。
	ErrStockConflict = errors.New("inventory: stock changed concurrently")
)
