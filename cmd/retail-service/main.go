// cmd/retail-service/main.go
package main

import (
	"log"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"net/http"

	"minimart/internal/pkg/bootstrap"
	"minimart/internal/pkg/mq"
	"minimart/internal/pkg/redisclient"
	"minimart/internal/pkg/session"
	invapp "minimart/internal/service/inventory/application"
	invinfra "minimart/internal/service/inventory/infrastructure"
	invhttp "minimart/internal/service/inventory/interfaces"
	orderapp "minimart/internal/service/order/application"
	orderinfra "minimart/internal/service/order/infrastructure"
	"minimart/internal/service/order/infrastructure/adapter"
	orderhttp "minimart/internal/service/order/interfaces"
)

const serviceName = "retail-service"

// main 是应用的"组装根" (Composition Root)：
// 创建并组装所有依赖项，然后交给 bootstrap 启动。
func main() {
	if err := bootstrap.Init(); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := bootstrap.GetCurrentConfig()

	db, err := bootstrap.OpenMySQL()
	if err != nil {
		log.Fatalf("failed to open mysql: %v", err)
	}
	if err := db.AutoMigrate(&invinfra.ItemModel{}, &orderinfra.OrderModel{}, &orderinfra.SequenceModel{}); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}
	if err := orderinfra.SeedSequence(db); err != nil {
		log.Fatalf("failed to seed order sequence: %v", err)
	}

	redisClient, err := redisclient.New(cfg.Infra.Redis.Addr)
	if err != nil {
		log.Fatalf("failed to initialize redis client: %v", err)
	}
	sessionMgr := session.NewManager(redisClient)

	notificationWriter := mq.NewKafkaWriter(cfg.Infra.Kafka.Brokers, cfg.Infra.Kafka.NotificationTopic)
	defer notificationWriter.Close()
	notifier := adapter.NewNotificationKafkaAdapter(notificationWriter)

	tracer := otel.Tracer(serviceName)

	itemRepo := invinfra.NewGormItemRepository(db)
	ledger := invapp.NewLedger(itemRepo, tracer, cfg.App.DeductRetryBudget)
	itemManager := invapp.NewManager(itemRepo, tracer)

	orderRepo := orderinfra.NewGormOrderRepository(db)
	sequencer := orderinfra.NewGormSequencer(db)
	orderService := orderapp.NewOrderApplicationService(orderRepo, sequencer, ledger, notifier, tracer)

	orderHandler := orderhttp.NewOrderHandler(orderService, sessionMgr)
	itemHandler := invhttp.NewItemHandler(itemManager, sessionMgr)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        8080,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			appCtx.Mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
			appCtx.Mux.Handle("/metrics", promhttp.Handler())
			orderHandler.RegisterRoutes(appCtx.Mux)
			itemHandler.RegisterRoutes(appCtx.Mux)
		},
	})
}
