// cmd/notification-service/main.go
package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"minimart/internal/pkg/bootstrap"
	"minimart/internal/pkg/mq"
	"minimart/internal/pkg/redisclient"
	"minimart/internal/pkg/session"
	"minimart/internal/pkg/tracing"
	orderdomain "minimart/internal/service/order/domain"
)

const (
	serviceName     = "notification-service"
	consumerGroupID = "notification-router-group-1"
)

var tracer = otel.Tracer(serviceName)

// 通知路由器：消费订单侧发出的通知事件，查询用户当前连接的推送节点，
// 把消息转投到该节点专属的 topic。这里的任何失败都不影响订单事务——
// 核心早已提交完毕。
func main() {
	if err := bootstrap.Init(); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := bootstrap.GetCurrentConfig()

	tp, err := tracing.InitTracerProvider(serviceName, cfg.Infra.Jaeger.Endpoint)
	if err != nil {
		log.Fatalf("failed to initialize tracer provider: %v", err)
	}
	defer tp.Shutdown(context.Background())

	redisClient, err := redisclient.New(cfg.Infra.Redis.Addr)
	if err != nil {
		log.Fatalf("failed to initialize redis client: %v", err)
	}
	sessionMgr := session.NewManager(redisClient)

	reader := mq.NewKafkaReader(cfg.Infra.Kafka.Brokers, cfg.Infra.Kafka.NotificationTopic, consumerGroupID)
	defer reader.Close()

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		log.Fatal(http.ListenAndServe(":8081", mux))
	}()

	log.Printf("Notification router started. Listening to topic '%s'...", cfg.Infra.Kafka.NotificationTopic)

	for {
		msg, err := reader.ReadMessage(context.Background())
		if err != nil {
			log.Printf("ERROR: could not read message: %v. Retrying...", err)
			time.Sleep(5 * time.Second)
			continue
		}
		go routeMessage(msg, sessionMgr, cfg)
	}
}

func routeMessage(msg kafka.Message, sessionMgr *session.Manager, cfg *bootstrap.Config) {
	ctx := mq.ExtractContext(context.Background(), &msg)
	ctx, span := tracer.Start(ctx, "notification.Route", trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()

	var event orderdomain.NotificationEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		log.Printf("ERROR: failed to unmarshal notification: %v", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "unmarshal failed")
		return
	}
	span.SetAttributes(
		attribute.String("user.id", event.UserID),
		attribute.Int64("order.id", event.OrderID),
		attribute.String("notification.type", string(event.Type)),
	)

	// 1. 从 Redis 查询用户所在的推送节点
	nodeID, err := sessionMgr.GetUserGateway(ctx, event.UserID)
	if err != nil {
		log.Printf("ERROR: failed to get gateway for user %s: %v", event.UserID, err)
		span.RecordError(err)
		return
	}
	if nodeID == "" {
		log.Printf("User %s is offline. Message dropped.", event.UserID)
		span.AddEvent("user offline, dropped")
		return
	}

	// 2. 转投到节点专属 topic，由对应的 push-gateway 消费后推给客户端
	writer := mq.NewKafkaWriter(cfg.Infra.Kafka.Brokers, cfg.Infra.Kafka.PushTopicPrefix+nodeID)
	defer writer.Close()
	if err := mq.ProduceMessage(ctx, writer, []byte(event.UserID), msg.Value); err != nil {
		log.Printf("ERROR: failed to route message for user %s to node %s: %v", event.UserID, nodeID, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "route failed")
		return
	}
	log.Printf("Routed %s notification for user %s to gateway %s", event.Type, event.UserID, nodeID)
}
