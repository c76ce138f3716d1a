// internal/service/order/interfaces/http_handler.go
package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"

	"minimart/internal/pkg/logger"
	"minimart/internal/service/identity"
	"minimart/internal/service/order/application"
	"minimart/internal/service/order/domain"
)

const serviceName = "retail-service"

// OrderHandler 封装订单相关的 HTTP 处理器。
type OrderHandler struct {
	service  *application.OrderApplicationService
	verifier identity.Verifier
}

func NewOrderHandler(service *application.OrderApplicationService, verifier identity.Verifier) *OrderHandler {
	return &OrderHandler{service: service, verifier: verifier}
}

// RegisterRoutes 在 ServeMux 上注册所有订单路由。
func (h *OrderHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /orders", h.createOrder)
	mux.HandleFunc("GET /orders", h.listOrders)
	mux.HandleFunc("GET /orders/{orderId}", h.getOrder)
	mux.HandleFunc("POST /orders/{orderId}/status", h.updateStatus)
	mux.HandleFunc("DELETE /orders/doc/{docId}", h.deleteOrder)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type rejectionResponse struct {
	Success bool   `json:"success"`
	Reason  string `json:"reason"`
}

func (h *OrderHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := otel.Tracer(serviceName).Start(ctx, "http.CreateOrder")
	defer span.End()

	caller, err := identity.FromRequest(r, h.verifier)
	if err != nil {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	var req application.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.String("user.id", req.UserID))

	result, err := h.service.CreateOrder(ctx, caller, &req)
	if err != nil {
		writeRejection(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if result.Rejected() {
		// 预期内的业务失败：结构化错误 + 可读摘要，订单未创建
		w.WriteHeader(http.StatusConflict)
	} else {
		w.WriteHeader(http.StatusCreated)
	}
	json.NewEncoder(w).Encode(result)
}

func (h *OrderHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := otel.Tracer(serviceName).Start(ctx, "http.UpdateOrderStatus")
	defer span.End()

	caller, err := identity.FromRequest(r, h.verifier)
	if err != nil {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	orderID, err := strconv.ParseInt(r.PathValue("orderId"), 10, 64)
	if err != nil {
		http.Error(w, "invalid order id", http.StatusBadRequest)
		return
	}
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.Int64("order.id", orderID), attribute.String("order.next_status", req.Status))

	if err := h.service.UpdateStatus(ctx, caller, orderID, domain.Status(req.Status)); err != nil {
		writeRejection(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "orderId": orderID})
}

func (h *OrderHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := otel.Tracer(serviceName).Start(ctx, "http.GetOrder")
	defer span.End()

	caller, err := identity.FromRequest(r, h.verifier)
	if err != nil {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}
	orderID, err := strconv.ParseInt(r.PathValue("orderId"), 10, 64)
	if err != nil {
		http.Error(w, "invalid order id", http.StatusBadRequest)
		return
	}

	order, err := h.service.GetOrder(ctx, caller, orderID)
	if err != nil {
		writeRejection(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(order)
}

func (h *OrderHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := otel.Tracer(serviceName).Start(ctx, "http.ListOrders")
	defer span.End()

	caller, err := identity.FromRequest(r, h.verifier)
	if err != nil {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	orders, err := h.service.ListOrders(ctx, caller)
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("list orders failed")
		http.Error(w, "processing error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(orders)
}

func (h *OrderHandler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := otel.Tracer(serviceName).Start(ctx, "http.DeleteOrder")
	defer span.End()

	caller, err := identity.FromRequest(r, h.verifier)
	if err != nil {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	if err := h.service.DeleteOrder(ctx, caller, r.PathValue("docId")); err != nil {
		writeRejection(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeRejection 把领域层的哨兵错误翻译成 HTTP 拒绝原因。
func writeRejection(w http.ResponseWriter, err error) {
	var status int
	var reason string
	switch {
	case errors.Is(err, domain.ErrForbidden):
		status, reason = http.StatusForbidden, "forbidden"
	case errors.Is(err, domain.ErrNotFound):
		status, reason = http.StatusNotFound, "not-found"
	case errors.Is(err, domain.ErrInvalidNext):
		status, reason = http.StatusConflict, "invalid-transition"
	case errors.Is(err, domain.ErrEmptyOrder):
		status, reason = http.StatusBadRequest, "validation"
	default:
		status, reason = http.StatusInternalServerError, "processing_error"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(rejectionResponse{Success: false, Reason: reason})
}
