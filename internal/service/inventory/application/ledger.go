// internal/service/inventory/application/ledger.go
package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"minimart/internal/pkg/logger"
	"minimart/internal/pkg/metrics"
	"minimart/internal/service/inventory/domain"
)

// StockErrorType 是面向调用方的库存失败分类。
type StockErrorType string

const (
	ErrorInsufficientStock StockErrorType = "insufficient_stock"
	ErrorItemNotFound      StockErrorType = "item_not_found"
	ErrorProcessing        StockErrorType = "processing_error"
)

// StockError 是一条结构化的库存失败信息，属于预期内的业务结果，不是异常。
// Requested / Available 不带 omitempty：available=0 与"缺字段"是两回事，
// 零库存的拒绝必须在结构化字段里可见，而不是只活在文案里。
type StockError struct {
	Type      StockErrorType `json:"type"`
	ItemID    string         `json:"itemId,omitempty"`
	ItemName  string         `json:"itemName"`
	Message   string         `json:"message"`
	Requested int            `json:"requested"`
	Available int            `json:"available"`
}

// Summary 把一组库存失败拼成一条可读文案。
func Summary(errs []StockError) string {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}

// RequestLine 是调用方提交的一行扣减请求。Name 只用于报错文案，
// 落到订单上的名称与价格一律以库存记录为准。
type RequestLine struct {
	ItemID   string
	Name     string
	Quantity int
}

// SnapshotLine 是扣减成功后产出的快照行：下单时刻的权威名称与价格。
type SnapshotLine struct {
	ItemID          string
	Name            string
	Quantity        int
	PriceAtPurchase decimal.Decimal
}

// DeductOutcome 是一次扣减 attempt 的业务结果。
// OK=false 时 Errors 非空且库存没有任何变化。
type DeductOutcome struct {
	OK    bool
	Lines []SnapshotLine
	Total decimal.Decimal

	Errors []StockError
}

// ErrEmptyLines 属于校验错误，在任何存储访问之前就被拒绝。
var ErrEmptyLines = errors.New("ledger: order lines must be non-empty with positive quantities")

// Ledger 实现库存台账的两个核心操作：下单扣减与取消回补。
// 它不直接持有任何互斥手段，原子性全部委托给仓储的条件提交。
type Ledger struct {
	repo        domain.ItemRepository
	tracer      trace.Tracer
	retryBudget int
}

func NewLedger(repo domain.ItemRepository, tracer trace.Tracer, retryBudget int) *Ledger {
	if retryBudget < 1 {
		retryBudget = 1
	}
	return &Ledger{repo: repo, tracer: tracer, retryBudget: retryBudget}
}

// Deduct 为一笔订单原子地扣减全部行的库存。
//
// 算法：一次批量读 → 逐行归类（缺记录 > 数量不足 > 暂存变更）→ 有错即放弃
// → 否则条件提交。提交时输掉行锁竞争返回 ErrStockConflict，在预算内带着
// 新快照重来一遍；预算耗尽或存储故障则整体失败，调用方映射为 processing_error。
func (l *Ledger) Deduct(ctx context.Context, by string, lines []RequestLine) (*DeductOutcome, error) {
	ctx, span := l.tracer.Start(ctx, "ledger.Deduct")
	defer span.End()
	span.SetAttributes(attribute.Int("order.lines", len(lines)))

	if err := validateLines(lines); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ItemID)
	}

	for attempt := 1; ; attempt++ {
		// 所有行的读取取自同一批次，价格与数量看到同一份快照
		items, err := l.repo.GetByIDs(ctx, ids)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "batch read failed")
			return nil, errors.Wrap(err, "ledger: batch read failed")
		}

		outcome := l.classify(lines, items)
		if !outcome.OK {
			span.AddEvent("deduction rejected", trace.WithAttributes(
				attribute.Int("stock.errors", len(outcome.Errors)),
			))
			return outcome, nil
		}

		muts := make([]domain.StockMutation, 0, len(outcome.Lines))
		now := time.Now()
		for _, snap := range outcome.Lines {
			muts = append(muts, domain.StockMutation{ItemID: snap.ItemID, Delta: -snap.Quantity, By: by, At: now})
		}

		err = l.repo.DeductStock(ctx, muts)
		if err == nil {
			span.AddEvent("stock deducted")
			return outcome, nil
		}
		if errors.Is(err, domain.ErrStockConflict) && attempt < l.retryBudget {
			metrics.StockConflictRetries.Inc()
			logger.Ctx(ctx).Warn().Int("attempt", attempt).Msg("lost stock race, re-reading snapshot")
			continue
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "stock commit failed")
		return nil, errors.Wrap(err, "ledger: stock commit failed")
	}
}

// classify 对照库存快照给每一行定一个结果，并用权威价格累计总价。
func (l *Ledger) classify(lines []RequestLine, items map[string]*domain.Item) *DeductOutcome {
	outcome := &DeductOutcome{Total: decimal.Zero}
	for _, line := range lines {
		item, ok := items[line.ItemID]
		if !ok {
			outcome.Errors = append(outcome.Errors, StockError{
				Type:     ErrorItemNotFound,
				ItemID:   line.ItemID,
				ItemName: line.Name,
				Message:  fmt.Sprintf("%s is no longer available", displayName(line)),
			})
			continue
		}
		if line.Quantity > item.Quantity {
			msg := fmt.Sprintf("%s is out of stock", item.Name)
			if item.Quantity > 0 {
				msg = fmt.Sprintf("only %d of %s available (requested %d)", item.Quantity, item.Name, line.Quantity)
			}
			outcome.Errors = append(outcome.Errors, StockError{
				Type:      ErrorInsufficientStock,
				ItemID:    item.ID,
				ItemName:  item.Name,
				Message:   msg,
				Requested: line.Quantity,
				Available: item.Quantity,
			})
			continue
		}
		// 请求数量恰好等于库存是允许的，只会把状态推到 out-of-stock
		outcome.Lines = append(outcome.Lines, SnapshotLine{
			ItemID:          item.ID,
			Name:            item.Name,
			Quantity:        line.Quantity,
			PriceAtPurchase: item.Price,
		})
		outcome.Total = outcome.Total.Add(item.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	outcome.OK = len(outcome.Errors) == 0
	return outcome
}

// Restore 在取消订单时把扣过的数量加回去。与 Deduct 不同，记录已被删除
// 不算失败：没有可回补的对象，跳过并记录，其余行正常生效。
func (l *Ledger) Restore(ctx context.Context, by string, lines []RequestLine) error {
	ctx, span := l.tracer.Start(ctx, "ledger.Restore")
	defer span.End()

	if err := validateLines(lines); err != nil {
		return err
	}

	muts := make([]domain.StockMutation, 0, len(lines))
	now := time.Now()
	for _, line := range lines {
		muts = append(muts, domain.StockMutation{ItemID: line.ItemID, Delta: line.Quantity, By: by, At: now})
	}

	skipped, err := l.repo.RestoreStock(ctx, muts)
	for _, id := range skipped {
		metrics.RestoreSkippedItems.Inc()
		logger.Ctx(ctx).Warn().Str("item_id", id).Msg("inventory record gone, restoration skipped for this line")
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "stock restore failed")
		return errors.Wrap(err, "ledger: stock restore failed")
	}
	span.AddEvent("stock restored", trace.WithAttributes(attribute.Int("restore.skipped", len(skipped))))
	return nil
}

func validateLines(lines []RequestLine) error {
	if len(lines) == 0 {
		return ErrEmptyLines
	}
	for _, line := range lines {
		if line.ItemID == "" || line.Quantity <= 0 {
			return ErrEmptyLines
		}
	}
	return nil
}

func displayName(line RequestLine) string {
	if line.Name != "" {
		return line.Name
	}
	return line.ItemID
}
