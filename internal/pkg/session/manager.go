// internal/pkg/session/manager.go
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"minimart/internal/service/identity"
)

const (
	sessionTTL = 24 * time.Hour
	// 网关在线状态的过期时间要短，靠 push-gateway 的心跳续期
	gatewayTTL = 90 * time.Second
)

// Manager 基于 Redis 维护两类状态：
//  1. 登录会话 session:{token} -> {uid, role}，实现 identity.Verifier；
//  2. 在线路由 gateway:{userID} -> nodeID，供消息路由选择推送节点。
type Manager struct {
	client *redis.Client
}

func NewManager(client *redis.Client) *Manager {
	return &Manager{client: client}
}

func sessionKey(token string) string { return fmt.Sprintf("session:{%s}", token) }
func gatewayKey(userID string) string {
	return fmt.Sprintf("gateway:{%s}", userID)
}

// Verify 实现 identity.Verifier。会话不存在或角色非法都按未认证处理。
func (m *Manager) Verify(ctx context.Context, token string) (identity.Identity, error) {
	fields, err := m.client.HGetAll(ctx, sessionKey(token)).Result()
	if err != nil {
		return identity.Identity{}, fmt.Errorf("session lookup failed: %w", err)
	}
	if len(fields) == 0 {
		return identity.Identity{}, identity.ErrUnauthenticated
	}

	id := identity.Identity{UID: fields["uid"], Role: identity.Role(fields["role"])}
	if id.UID == "" || !id.Role.Valid() {
		return identity.Identity{}, identity.ErrUnauthenticated
	}
	return id, nil
}

// Put 写入一个会话（登录流程属于外部协作者，这里只提供边界能力，测试和工具也会用到）。
func (m *Manager) Put(ctx context.Context, token string, id identity.Identity) error {
	key := sessionKey(token)
	pipe := m.client.Pipeline()
	pipe.HSet(ctx, key, "uid", id.UID, "role", string(id.Role))
	pipe.Expire(ctx, key, sessionTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// SetUserGateway 记录用户当前连接的推送节点。
func (m *Manager) SetUserGateway(ctx context.Context, userID, nodeID string) error {
	return m.client.Set(ctx, gatewayKey(userID), nodeID, gatewayTTL).Err()
}

// RefreshUserGateway 在收到心跳时续期在线状态。
func (m *Manager) RefreshUserGateway(ctx context.Context, userID string) error {
	return m.client.Expire(ctx, gatewayKey(userID), gatewayTTL).Err()
}

// ClearUserGateway 在连接断开时清除在线状态。
func (m *Manager) ClearUserGateway(ctx context.Context, userID string) error {
	return m.client.Del(ctx, gatewayKey(userID)).Err()
}

// GetUserGateway 查询用户所在的推送节点，离线返回空串。
func (m *Manager) GetUserGateway(ctx context.Context, userID string) (string, error) {
	nodeID, err := m.client.Get(ctx, gatewayKey(userID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	return nodeID, err
}
