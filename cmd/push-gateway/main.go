// cmd/push-gateway/main.go
package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"minimart/internal/pkg/bootstrap"
	"minimart/internal/pkg/mq"
	"minimart/internal/pkg/redisclient"
	"minimart/internal/pkg/session"
	orderdomain "minimart/internal/service/order/domain"
)

var (
	nodeID   = "node-" + uuid.New().String()[:8]
	upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool { // 简化处理，允许所有跨域
			return true
		},
	}
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second // 必须小于 pongWait
)

// Hub 维护所有活跃的连接，按 UserID 索引。
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	lock       sync.RWMutex
}

func newHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			h.lock.Lock()
			h.clients[client.userID] = client
			h.lock.Unlock()
			log.Printf("Client %s registered on node %s", client.userID, nodeID)
		case client := <-h.unregister:
			h.lock.Lock()
			if _, ok := h.clients[client.userID]; ok {
				delete(h.clients, client.userID)
				close(client.send)
			}
			h.lock.Unlock()
			log.Printf("Client %s unregistered.", client.userID)
		}
	}
}

// push 把一条消息投递给指定用户，不在线返回 false。
func (h *Hub) push(userID string, payload []byte) bool {
	h.lock.RLock()
	client, ok := h.clients[userID]
	h.lock.RUnlock()
	if !ok {
		return false
	}
	select {
	case client.send <- payload:
		return true
	default: // 发送缓冲已满，当作掉线处理
		h.unregister <- client
		return false
	}
}

// Client 是一个 WebSocket 连接的代表。
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	userID     string
	sessionMgr *session.Manager
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.sessionMgr.ClearUserGateway(context.Background(), c.userID)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		// 客户端还活着，顺手给 Redis 里的在线状态续期
		c.sessionMgr.RefreshUserGateway(context.Background(), c.userID)
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func serveWs(hub *Hub, sessionMgr *session.Manager, w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "userID is required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println(err)
		return
	}

	client := &Client{hub: hub, conn: conn, send: make(chan []byte, 256), userID: userID, sessionMgr: sessionMgr}
	client.hub.register <- client

	if err := sessionMgr.SetUserGateway(r.Context(), userID, nodeID); err != nil {
		log.Printf("Failed to set gateway for user %s: %v", userID, err)
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// consumeNodeTopic 消费本节点专属 topic，把路由过来的通知推给在线客户端。
func consumeNodeTopic(ctx context.Context, hub *Hub, cfg *bootstrap.Config) error {
	reader := mq.NewKafkaReader(cfg.Infra.Kafka.Brokers, cfg.Infra.Kafka.PushTopicPrefix+nodeID, "push-"+nodeID)
	defer reader.Close()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("ERROR: could not read push message: %v", err)
			time.Sleep(time.Second)
			continue
		}

		var event orderdomain.NotificationEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Printf("ERROR: bad push payload: %v", err)
			continue
		}
		if !hub.push(event.UserID, msg.Value) {
			log.Printf("User %s disconnected before delivery. Message dropped.", event.UserID)
		}
	}
}

func main() {
	if err := bootstrap.Init(); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := bootstrap.GetCurrentConfig()

	redisClient, err := redisclient.New(cfg.Infra.Redis.Addr)
	if err != nil {
		log.Fatalf("failed to initialize redis client: %v", err)
	}
	sessionMgr := session.NewManager(redisClient)

	hub := newHub()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWs(hub, sessionMgr, w, r)
	})
	mux.Handle("/metrics", promhttp.Handler())

	g, ctx := errgroup.WithContext(context.Background())
	g.Go(func() error { hub.run(); return nil })
	g.Go(func() error { return consumeNodeTopic(ctx, hub, cfg) })
	g.Go(func() error {
		log.Printf("Push Gateway (%s) started on :8088", nodeID)
		return http.ListenAndServe(":8088", mux)
	})
	log.Fatal(g.Wait())
}
