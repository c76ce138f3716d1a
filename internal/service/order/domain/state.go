// internal/service/order/domain/state.go
package domain

import "minimart/internal/service/identity"

// Status 定义了订单的生命周期状态。
type Status string

const (
	StatusPending      Status = "pending"                // 已创建，库存已扣减，等待店员处理
	StatusInProgress   Status = "in-progress"            // 店员开始拣配
	StatusCompleted    Status = "completed"              // 终态：已完成
	StatusCancelled    Status = "cancelled"              // 已取消，库存已回补
	StatusCancelledAck Status = "cancelled-acknowledged" // 终态：店员已确认取消
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled, StatusCancelledAck:
		return true
	}
	return false
}

// transitions 是 角色 × 当前状态 → 允许的下一状态 的唯一事实来源。
// 顾客只能取消自己 pending 的订单（归属校验在应用层）；
// employee / owner 共享同一行权限。
var transitions = map[identity.Role]map[Status][]Status{
	identity.RoleCustomer: {
		StatusPending: {StatusCancelled},
	},
	identity.RoleEmployee: staffTransitions,
	identity.RoleOwner:    staffTransitions,
}

var staffTransitions = map[Status][]Status{
	StatusPending:    {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
	StatusCancelled:  {StatusCancelledAck},
}

// CanTransition 查询转换表。表以外的一切组合都是非法转换。
func CanTransition(role identity.Role, from, to Status) bool {
	allowed, ok := transitions[role]
	if !ok {
		return false
	}
	for _, next := range allowed[from] {
		if next == to {
			return true
		}
	}
	return false
}

// TouchesInventory 判断一次状态转换是否需要回补库存：
// 只有从 pending / in-progress 进入 cancelled 才触发，且只触发一次。
// 扣减发生在创建时，离开 pending 向履约方向走永远不碰库存。
func TouchesInventory(from, to Status) bool {
	return to == StatusCancelled && (from == StatusPending || from == StatusInProgress)
}
