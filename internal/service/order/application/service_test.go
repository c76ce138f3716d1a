package application

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"

	invapp "minimart/internal/service/inventory/application"
	invdomain "minimart/internal/service/inventory/domain"
	"minimart/internal/service/identity"
	"minimart/internal/service/order/domain"
)

// ---- 内存假件，条件提交语义与真实仓储一致 ----

type memItemRepo struct {
	mu    sync.Mutex
	items map[string]*invdomain.Item
}

func newMemItemRepo() *memItemRepo {
	return &memItemRepo{items: make(map[string]*invdomain.Item)}
}

func (r *memItemRepo) Create(_ context.Context, item *invdomain.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *item
	r.items[item.ID] = &cp
	return nil
}

func (r *memItemRepo) Save(_ context.Context, item *invdomain.Item) error {
	return r.Create(context.Background(), item)
}

func (r *memItemRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return invdomain.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *memItemRepo) FindByID(_ context.Context, id string) (*invdomain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return nil, invdomain.ErrNotFound
	}
	cp := *item
	return &cp, nil
}

func (r *memItemRepo) GetByIDs(_ context.Context, ids []string) (map[string]*invdomain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]*invdomain.Item)
	for _, id := range ids {
		if item, ok := r.items[id]; ok {
			cp := *item
			out[id] = &cp
		}
	}
	return out, nil
}

func (r *memItemRepo) List(_ context.Context) ([]*invdomain.Item, error) {
	return nil, nil
}

func (r *memItemRepo) DeductStock(_ context.Context, muts []invdomain.StockMutation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, mut := range muts {
		item, ok := r.items[mut.ItemID]
		if !ok || item.Quantity+mut.Delta < 0 {
			return invdomain.ErrStockConflict
		}
	}
	for _, mut := range muts {
		item := r.items[mut.ItemID]
		item.Quantity += mut.Delta
		item.Status = invdomain.DeriveStatus(item.Quantity, item.MinStockThreshold)
	}
	return nil
}

func (r *memItemRepo) RestoreStock(_ context.Context, muts []invdomain.StockMutation) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var skipped []string
	for _, mut := range muts {
		item, ok := r.items[mut.ItemID]
		if !ok {
			skipped = append(skipped, mut.ItemID)
			continue
		}
		item.Quantity += mut.Delta
		item.Status = invdomain.DeriveStatus(item.Quantity, item.MinStockThreshold)
	}
	return skipped, nil
}

type memOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*domain.Order

	// 注入前 N 次 Save 失败，用于验证状态落库失败后的重试路径
	failSaves int
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{orders: make(map[string]*domain.Order)}
}

func (r *memOrderRepo) Create(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *order
	r.orders[order.DocID] = &cp
	return nil
}

func (r *memOrderRepo) Save(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	if r.failSaves > 0 {
		r.failSaves--
		r.mu.Unlock()
		return errors.New("store unavailable")
	}
	r.mu.Unlock()
	return r.Create(context.Background(), order)
}

func (r *memOrderRepo) Delete(_ context.Context, docID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[docID]; !ok {
		return domain.ErrNotFound
	}
	delete(r.orders, docID)
	return nil
}

func (r *memOrderRepo) FindByDocID(_ context.Context, docID string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[docID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *order
	return &cp, nil
}

func (r *memOrderRepo) FindByOrderID(_ context.Context, orderID int64) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, order := range r.orders {
		if order.OrderID == orderID {
			cp := *order
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memOrderRepo) ListByUser(_ context.Context, userID string) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Order
	for _, order := range r.orders {
		if order.UserID == userID {
			cp := *order
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memOrderRepo) ListAll(_ context.Context) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Order
	for _, order := range r.orders {
		cp := *order
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memOrderRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.orders)
}

type memSequencer struct {
	n int64
}

func (s *memSequencer) Next(_ context.Context) (int64, error) {
	return atomic.AddInt64(&s.n, 1), nil
}

type memNotifier struct {
	mu     sync.Mutex
	events []domain.NotificationEvent
}

func (n *memNotifier) Send(_ context.Context, event domain.NotificationEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func (n *memNotifier) byType(t domain.NotificationType) []domain.NotificationEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []domain.NotificationEvent
	for _, e := range n.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// ---- 测试脚手架 ----

var (
	customer      = identity.Identity{UID: "cust-1", Role: identity.RoleCustomer}
	otherCustomer = identity.Identity{UID: "cust-2", Role: identity.RoleCustomer}
	staff         = identity.Identity{UID: "staff-1", Role: identity.RoleEmployee}
)

type fixture struct {
	svc      *OrderApplicationService
	items    *memItemRepo
	orders   *memOrderRepo
	notifier *memNotifier
}

func setup(t *testing.T) *fixture {
	t.Helper()
	items := newMemItemRepo()
	orders := newMemOrderRepo()
	notifier := &memNotifier{}
	tracer := otel.Tracer("test")
	ledger := invapp.NewLedger(items, tracer, 3)
	svc := NewOrderApplicationService(orders, &memSequencer{}, ledger, notifier, tracer)
	return &fixture{svc: svc, items: items, orders: orders, notifier: notifier}
}

func (f *fixture) seed(t *testing.T, id string, price float64, qty, threshold int) {
	t.Helper()
	item, err := invdomain.NewItem(id, "Item "+id, "", invdomain.CategoryFood, decimal.NewFromFloat(price), decimal.NewFromFloat(price/2), qty, threshold, "seed")
	if err != nil {
		t.Fatalf("seed %s: %v", id, err)
	}
	if err := f.items.Create(context.Background(), item); err != nil {
		t.Fatalf("seed %s: %v", id, err)
	}
}

func (f *fixture) createOrder(t *testing.T, caller identity.Identity, lines ...CreateOrderLine) *CreateOrderResult {
	t.Helper()
	result, err := f.svc.CreateOrder(context.Background(), caller, &CreateOrderRequest{
		UserID:      caller.UID,
		DisplayName: "Test Customer",
		Lines:       lines,
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return result
}

// ---- 创建 ----

func TestCreateOrderSuccess(t *testing.T) {
	f := setup(t)
	f.seed(t, "a", 2.50, 5, 10)

	result := f.createOrder(t, customer, CreateOrderLine{ItemID: "a", Quantity: 3})
	if result.Rejected() {
		t.Fatalf("unexpected rejection: %s", result.Summary)
	}
	if result.OrderID != 1 || result.DocumentID == "" {
		t.Fatalf("bad identifiers: %+v", result)
	}

	order, err := f.orders.FindByOrderID(context.Background(), result.OrderID)
	if err != nil {
		t.Fatalf("persisted order: %v", err)
	}
	if order.Status != domain.StatusPending {
		t.Fatalf("status = %s, want pending", order.Status)
	}
	if !order.TotalPrice.Equal(decimal.NewFromFloat(7.50)) {
		t.Fatalf("total = %s, want 7.50", order.TotalPrice)
	}
	if order.Lines[0].Name != "Item a" {
		t.Fatalf("snapshot name = %q", order.Lines[0].Name)
	}

	item, _ := f.items.FindByID(context.Background(), "a")
	if item.Quantity != 2 || item.Status != invdomain.StatusLowStock {
		t.Fatalf("item qty %d status %s", item.Quantity, item.Status)
	}
}

func TestCreateOrderRejectsInsufficientStock(t *testing.T) {
	f := setup(t)
	f.seed(t, "b", 1.00, 2, 0)

	result := f.createOrder(t, customer, CreateOrderLine{ItemID: "b", Quantity: 5})
	if !result.Rejected() {
		t.Fatal("expected rejection")
	}
	e := result.StockErrors[0]
	if e.Type != invapp.ErrorInsufficientStock || e.Requested != 5 || e.Available != 2 {
		t.Fatalf("error = %+v", e)
	}
	if result.Summary == "" {
		t.Fatal("summary must be populated")
	}
	if f.orders.count() != 0 {
		t.Fatal("order must not be created")
	}
	item, _ := f.items.FindByID(context.Background(), "b")
	if item.Quantity != 2 {
		t.Fatalf("inventory changed on rejection: %d", item.Quantity)
	}
}

func TestCreateOrderAtomicAcrossLines(t *testing.T) {
	f := setup(t)
	f.seed(t, "a", 1.00, 10, 0)

	result := f.createOrder(t, customer,
		CreateOrderLine{ItemID: "a", Quantity: 2},
		CreateOrderLine{ItemID: "ghost", Name: "Ghost", Quantity: 1},
	)
	if !result.Rejected() {
		t.Fatal("expected rejection")
	}
	item, _ := f.items.FindByID(context.Background(), "a")
	if item.Quantity != 10 {
		t.Fatalf("healthy line deducted: %d", item.Quantity)
	}
	if f.orders.count() != 0 {
		t.Fatal("order must not be created")
	}
}

func TestCreateOrderForbiddenForDifferentUser(t *testing.T) {
	f := setup(t)
	f.seed(t, "a", 1.00, 10, 0)

	_, err := f.svc.CreateOrder(context.Background(), customer, &CreateOrderRequest{
		UserID: "someone-else",
		Lines:  []CreateOrderLine{{ItemID: "a", Quantity: 1}},
	})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("want ErrForbidden, got %v", err)
	}
}

func TestCreateOrderEmptyContents(t *testing.T) {
	f := setup(t)
	_, err := f.svc.CreateOrder(context.Background(), customer, &CreateOrderRequest{UserID: customer.UID})
	if !errors.Is(err, domain.ErrEmptyOrder) {
		t.Fatalf("want ErrEmptyOrder, got %v", err)
	}
}

func TestCreateOrderMintsDistinctIDsUnderConcurrency(t *testing.T) {
	f := setup(t)
	f.seed(t, "a", 1.00, 1000, 0)

	const n = 50
	ids := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := f.svc.CreateOrder(context.Background(), customer, &CreateOrderRequest{
				UserID: customer.UID,
				Lines:  []CreateOrderLine{{ItemID: "a", Quantity: 1}},
			})
			if err != nil || result.Rejected() {
				t.Errorf("create failed: %v %+v", err, result)
				return
			}
			ids <- result.OrderID
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]bool)
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate order id %d", id)
		}
		seen[id] = true
	}
	if len(seen) != n {
		t.Fatalf("got %d distinct ids, want %d", len(seen), n)
	}
}

func TestConcurrentOrdersRacingForLastUnit(t *testing.T) {
	f := setup(t)
	f.seed(t, "c", 1.00, 1, 0)

	var created, rejected int64
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := f.svc.CreateOrder(context.Background(), customer, &CreateOrderRequest{
				UserID: customer.UID,
				Lines:  []CreateOrderLine{{ItemID: "c", Quantity: 1}},
			})
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if result.Rejected() {
				atomic.AddInt64(&rejected, 1)
			} else {
				atomic.AddInt64(&created, 1)
			}
		}()
	}
	wg.Wait()

	if created != 1 || rejected != 1 {
		t.Fatalf("created=%d rejected=%d, want exactly one of each", created, rejected)
	}
	item, _ := f.items.FindByID(context.Background(), "c")
	if item.Quantity != 0 {
		t.Fatalf("final qty %d, want 0", item.Quantity)
	}
}

// ---- 生命周期 ----

func TestCancelPendingRestoresStock(t *testing.T) {
	f := setup(t)
	f.seed(t, "a", 2.00, 5, 10)
	f.seed(t, "b", 3.00, 4, 0)

	result := f.createOrder(t, customer,
		CreateOrderLine{ItemID: "a", Quantity: 3},
		CreateOrderLine{ItemID: "b", Quantity: 2},
	)
	if result.Rejected() {
		t.Fatalf("create rejected: %s", result.Summary)
	}

	if err := f.svc.UpdateStatus(context.Background(), customer, result.OrderID, domain.StatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	order, _ := f.orders.FindByOrderID(context.Background(), result.OrderID)
	if order.Status != domain.StatusCancelled {
		t.Fatalf("status = %s", order.Status)
	}
	// 守恒：逐件回到下单前的数量，状态重算
	a, _ := f.items.FindByID(context.Background(), "a")
	b, _ := f.items.FindByID(context.Background(), "b")
	if a.Quantity != 5 || b.Quantity != 4 {
		t.Fatalf("quantities %d/%d, want 5/4", a.Quantity, b.Quantity)
	}
	if a.Status != invdomain.StatusLowStock || b.Status != invdomain.StatusInStock {
		t.Fatalf("statuses %s/%s", a.Status, b.Status)
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	f := setup(t)
	f.seed(t, "a", 1.00, 5, 0)
	result := f.createOrder(t, customer, CreateOrderLine{ItemID: "a", Quantity: 2})

	if err := f.svc.UpdateStatus(context.Background(), customer, result.OrderID, domain.StatusCancelled); err != nil {
		t.Fatalf("first cancel: %v", err)
	}
	// 重复取消：成功返回，但不再回补
	if err := f.svc.UpdateStatus(context.Background(), staff, result.OrderID, domain.StatusCancelled); err != nil {
		t.Fatalf("repeat cancel must be a no-op, got %v", err)
	}
	item, _ := f.items.FindByID(context.Background(), "a")
	if item.Quantity != 5 {
		t.Fatalf("double restoration: qty %d, want 5", item.Quantity)
	}

	// 已确认取消的订单同样幂等
	if err := f.svc.UpdateStatus(context.Background(), staff, result.OrderID, domain.StatusCancelledAck); err != nil {
		t.Fatalf("acknowledge: %v", err)
	}
	if err := f.svc.UpdateStatus(context.Background(), staff, result.OrderID, domain.StatusCancelled); err != nil {
		t.Fatalf("cancel after ack must be a no-op, got %v", err)
	}
	item, _ = f.items.FindByID(context.Background(), "a")
	if item.Quantity != 5 {
		t.Fatalf("restoration after ack: qty %d, want 5", item.Quantity)
	}
}

func TestRetriedCancelAfterPersistFailureRestoresOnce(t *testing.T) {
	f := setup(t)
	f.seed(t, "a", 1.00, 5, 0)
	result := f.createOrder(t, customer, CreateOrderLine{ItemID: "a", Quantity: 3})

	// 第一次取消：状态落库失败。此时库存必须原封不动，订单仍是 pending，
	// 调用方看到失败后可以安全重试
	f.orders.failSaves = 1
	if err := f.svc.UpdateStatus(context.Background(), customer, result.OrderID, domain.StatusCancelled); err == nil {
		t.Fatal("expected persist failure to surface")
	}
	item, _ := f.items.FindByID(context.Background(), "a")
	if item.Quantity != 2 {
		t.Fatalf("restore ran before the status was persisted: qty %d, want 2", item.Quantity)
	}
	order, _ := f.orders.FindByOrderID(context.Background(), result.OrderID)
	if order.Status != domain.StatusPending {
		t.Fatalf("status = %s, want pending", order.Status)
	}

	// 重试成功：恰好回补一次
	if err := f.svc.UpdateStatus(context.Background(), customer, result.OrderID, domain.StatusCancelled); err != nil {
		t.Fatalf("retried cancel: %v", err)
	}
	item, _ = f.items.FindByID(context.Background(), "a")
	if item.Quantity != 5 {
		t.Fatalf("conservation broken: qty %d, want 5", item.Quantity)
	}
}

func TestCustomerCannotTouchOthersOrder(t *testing.T) {
	f := setup(t)
	f.seed(t, "a", 1.00, 5, 0)
	result := f.createOrder(t, customer, CreateOrderLine{ItemID: "a", Quantity: 1})

	// 存在但不属于你 → forbidden，而不是 not-found
	err := f.svc.UpdateStatus(context.Background(), otherCustomer, result.OrderID, domain.StatusCancelled)
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("want ErrForbidden, got %v", err)
	}
	// 真不存在 → not-found
	err = f.svc.UpdateStatus(context.Background(), otherCustomer, 9999, domain.StatusCancelled)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}

	item, _ := f.items.FindByID(context.Background(), "a")
	if item.Quantity != 4 {
		t.Fatalf("state changed on rejected request: %d", item.Quantity)
	}
}

func TestCustomerCannotAdvanceOrCancelInProgress(t *testing.T) {
	f := setup(t)
	f.seed(t, "a", 1.00, 5, 0)
	result := f.createOrder(t, customer, CreateOrderLine{ItemID: "a", Quantity: 1})

	// 顾客不能推进履约状态
	err := f.svc.UpdateStatus(context.Background(), customer, result.OrderID, domain.StatusInProgress)
	if !errors.Is(err, domain.ErrInvalidNext) {
		t.Fatalf("want ErrInvalidNext, got %v", err)
	}

	if err := f.svc.UpdateStatus(context.Background(), staff, result.OrderID, domain.StatusInProgress); err != nil {
		t.Fatalf("staff advance: %v", err)
	}
	// 一旦离开 pending，顾客不能再取消
	err = f.svc.UpdateStatus(context.Background(), customer, result.OrderID, domain.StatusCancelled)
	if !errors.Is(err, domain.ErrInvalidNext) {
		t.Fatalf("want ErrInvalidNext, got %v", err)
	}
}

func TestStaffFulfillmentDoesNotTouchInventory(t *testing.T) {
	f := setup(t)
	f.seed(t, "a", 1.00, 5, 0)
	result := f.createOrder(t, customer, CreateOrderLine{ItemID: "a", Quantity: 2})

	if err := f.svc.UpdateStatus(context.Background(), staff, result.OrderID, domain.StatusInProgress); err != nil {
		t.Fatalf("in-progress: %v", err)
	}
	if err := f.svc.UpdateStatus(context.Background(), staff, result.OrderID, domain.StatusCompleted); err != nil {
		t.Fatalf("completed: %v", err)
	}

	item, _ := f.items.FindByID(context.Background(), "a")
	if item.Quantity != 3 {
		t.Fatalf("fulfillment touched inventory: qty %d, want 3", item.Quantity)
	}

	events := f.notifier.byType(domain.NotificationOrderStatusMoved)
	if len(events) != 1 || events[0].UserID != customer.UID {
		t.Fatalf("completion must notify the order owner: %+v", events)
	}
}

func TestStaffCancelNotifiesOrderOwner(t *testing.T) {
	f := setup(t)
	f.seed(t, "a", 1.00, 5, 0)
	result := f.createOrder(t, customer, CreateOrderLine{ItemID: "a", Quantity: 1})

	if err := f.svc.UpdateStatus(context.Background(), staff, result.OrderID, domain.StatusInProgress); err != nil {
		t.Fatalf("in-progress: %v", err)
	}
	if err := f.svc.UpdateStatus(context.Background(), staff, result.OrderID, domain.StatusCancelled); err != nil {
		t.Fatalf("staff cancel: %v", err)
	}

	item, _ := f.items.FindByID(context.Background(), "a")
	if item.Quantity != 5 {
		t.Fatalf("in-progress cancel must restore: qty %d", item.Quantity)
	}

	events := f.notifier.byType(domain.NotificationOrderCancelled)
	if len(events) != 1 {
		t.Fatalf("want 1 staff-cancel notification, got %d", len(events))
	}
	if events[0].UserID != customer.UID || events[0].OrderID != result.OrderID {
		t.Fatalf("notification misaddressed: %+v", events[0])
	}
}

func TestCustomerCancelDoesNotNotify(t *testing.T) {
	f := setup(t)
	f.seed(t, "a", 1.00, 5, 0)
	result := f.createOrder(t, customer, CreateOrderLine{ItemID: "a", Quantity: 1})

	if err := f.svc.UpdateStatus(context.Background(), customer, result.OrderID, domain.StatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if events := f.notifier.byType(domain.NotificationOrderCancelled); len(events) != 0 {
		t.Fatalf("self-cancellation must not emit staff-cancel notification: %+v", events)
	}
}

func TestAcknowledgeCancelledIsStaffOnly(t *testing.T) {
	f := setup(t)
	f.seed(t, "a", 1.00, 5, 0)
	result := f.createOrder(t, customer, CreateOrderLine{ItemID: "a", Quantity: 1})
	if err := f.svc.UpdateStatus(context.Background(), customer, result.OrderID, domain.StatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	err := f.svc.UpdateStatus(context.Background(), customer, result.OrderID, domain.StatusCancelledAck)
	if !errors.Is(err, domain.ErrInvalidNext) {
		t.Fatalf("customer ack: want ErrInvalidNext, got %v", err)
	}
	if err := f.svc.UpdateStatus(context.Background(), staff, result.OrderID, domain.StatusCancelledAck); err != nil {
		t.Fatalf("staff ack: %v", err)
	}
}

func TestDeleteOrderIsStaffOnly(t *testing.T) {
	f := setup(t)
	f.seed(t, "a", 1.00, 5, 0)
	result := f.createOrder(t, customer, CreateOrderLine{ItemID: "a", Quantity: 1})

	err := f.svc.DeleteOrder(context.Background(), customer, result.DocumentID)
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("want ErrForbidden, got %v", err)
	}
	if err := f.svc.DeleteOrder(context.Background(), staff, result.DocumentID); err != nil {
		t.Fatalf("staff delete: %v", err)
	}
	// 管理删除不回补库存
	item, _ := f.items.FindByID(context.Background(), "a")
	if item.Quantity != 4 {
		t.Fatalf("delete must not restore stock: qty %d", item.Quantity)
	}
}

func TestGetAndListAuthorization(t *testing.T) {
	f := setup(t)
	f.seed(t, "a", 1.00, 10, 0)
	mine := f.createOrder(t, customer, CreateOrderLine{ItemID: "a", Quantity: 1})
	theirs := f.createOrder(t, otherCustomer, CreateOrderLine{ItemID: "a", Quantity: 1})

	if _, err := f.svc.GetOrder(context.Background(), customer, theirs.OrderID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("cross-user read: want ErrForbidden, got %v", err)
	}
	if _, err := f.svc.GetOrder(context.Background(), staff, mine.OrderID); err != nil {
		t.Fatalf("staff read: %v", err)
	}

	own, err := f.svc.ListOrders(context.Background(), customer)
	if err != nil || len(own) != 1 {
		t.Fatalf("customer list: %v, %d orders", err, len(own))
	}
	all, err := f.svc.ListOrders(context.Background(), staff)
	if err != nil || len(all) != 2 {
		t.Fatalf("staff list: %v, %d orders", err, len(all))
	}
}
