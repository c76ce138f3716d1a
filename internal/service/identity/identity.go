// internal/service/identity/identity.go
package identity

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// Role 是一个封闭的调用者角色集合，由外部的会话校验器解析得出，
// 核心逻辑只消费它，从不自行推导。
type Role string

const (
	RoleCustomer Role = "customer"
	RoleEmployee Role = "employee"
	RoleOwner    Role = "owner"
)

// IsStaff 判断角色是否属于店员侧（employee / owner 共享同一套权限）。
func (r Role) IsStaff() bool {
	return r == RoleEmployee || r == RoleOwner
}

// Valid 判断角色取值是否在封闭集合内。
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleEmployee, RoleOwner:
		return true
	}
	return false
}

// Identity 是一次请求的调用者身份，作为显式参数贯穿所有核心操作，
// 不放进 context 隐式传递。
type Identity struct {
	UID  string
	Role Role
}

// ErrUnauthenticated 表示请求没有携带可用的会话。
var ErrUnauthenticated = errors.New("identity: unauthenticated")

// Verifier 是外部访问校验器的边界：token 进，{uid, role} 出。
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// FromRequest 从 Authorization: Bearer <token> 中解析身份。
func FromRequest(r *http.Request, verifier Verifier) (Identity, error) {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || token == "" {
		return Identity{}, ErrUnauthenticated
	}
	return verifier.Verify(r.Context(), token)
}
