// internal/service/inventory/interfaces/http_handler.go
package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"minimart/internal/service/identity"
	"minimart/internal/service/inventory/application"
	"minimart/internal/service/inventory/domain"
)

const serviceName = "retail-service"

// ItemHandler 封装库存维护的 HTTP 处理器。
type ItemHandler struct {
	manager  *application.Manager
	verifier identity.Verifier
}

func NewItemHandler(manager *application.Manager, verifier identity.Verifier) *ItemHandler {
	return &ItemHandler{manager: manager, verifier: verifier}
}

func (h *ItemHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /inventory", h.listItems)
	mux.HandleFunc("GET /inventory/{itemId}", h.getItem)
	mux.HandleFunc("POST /inventory", h.createItem)
	mux.HandleFunc("PUT /inventory/{itemId}", h.updateItem)
	mux.HandleFunc("DELETE /inventory/{itemId}", h.deleteItem)
}

// itemRequest 是建档/编辑的请求体。status 字段刻意不存在：它是派生值。
type itemRequest struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	Category          string          `json:"category"`
	Price             decimal.Decimal `json:"price"`
	CostPrice         decimal.Decimal `json:"costPrice"`
	Quantity          int             `json:"quantity"`
	MinStockThreshold int             `json:"minStockThreshold"`
}

func (r *itemRequest) toInput() application.ItemInput {
	return application.ItemInput{
		ID:                r.ID,
		Name:              r.Name,
		Description:       r.Description,
		Category:          domain.Category(r.Category),
		Price:             r.Price,
		CostPrice:         r.CostPrice,
		Quantity:          r.Quantity,
		MinStockThreshold: r.MinStockThreshold,
	}
}

func (h *ItemHandler) createItem(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := otel.Tracer(serviceName).Start(ctx, "http.CreateItem")
	defer span.End()

	caller, err := identity.FromRequest(r, h.verifier)
	if err != nil {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}
	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}

	item, err := h.manager.CreateItem(ctx, caller, req.toInput())
	if err != nil {
		writeItemError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(item)
}

func (h *ItemHandler) updateItem(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := otel.Tracer(serviceName).Start(ctx, "http.UpdateItem")
	defer span.End()

	caller, err := identity.FromRequest(r, h.verifier)
	if err != nil {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}
	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}
	req.ID = r.PathValue("itemId")

	item, err := h.manager.UpdateItem(ctx, caller, req.toInput())
	if err != nil {
		writeItemError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(item)
}

func (h *ItemHandler) deleteItem(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := otel.Tracer(serviceName).Start(ctx, "http.DeleteItem")
	defer span.End()

	caller, err := identity.FromRequest(r, h.verifier)
	if err != nil {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}
	if err := h.manager.DeleteItem(ctx, caller, r.PathValue("itemId")); err != nil {
		writeItemError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ItemHandler) getItem(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := otel.Tracer(serviceName).Start(ctx, "http.GetItem")
	defer span.End()

	item, err := h.manager.GetItem(ctx, r.PathValue("itemId"))
	if err != nil {
		writeItemError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(item)
}

func (h *ItemHandler) listItems(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := otel.Tracer(serviceName).Start(ctx, "http.ListItems")
	defer span.End()

	items, err := h.manager.ListItems(ctx)
	if err != nil {
		writeItemError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(items)
}

func writeItemError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, application.ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "not-found", http.StatusNotFound)
	case errors.Is(err, domain.ErrInvalidItem):
		http.Error(w, "invalid item fields", http.StatusBadRequest)
	default:
		http.Error(w, "processing error", http.StatusInternalServerError)
	}
}
