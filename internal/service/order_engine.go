package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/store"
	"github.com/shopspring/decimal"
)

type EngineDeps struct {
	Tx       store.TxRunner
	Sessions store.SessionReader
	Metrics  Recorder
	Logger   *slog.Logger
}

// OrderEngine turns an order into one committed ledger record or into nothing at all
type OrderEngine struct {
	tx       store.TxRunner
	sessions store.SessionReader
	metrics  Recorder
	log      *slog.Logger
	opts     Options
	now      func() time.Time
}

func NewOrderEngine(deps EngineDeps, opts Options) *OrderEngine {
	e := &OrderEngine{
		tx:       deps.Tx,
		sessions: deps.Sessions,
		metrics:  deps.Metrics,
		log:      deps.Logger,
		opts:     opts,
		now:      time.Now,
	}
	if e.metrics == nil {
		e.metrics = nopRecorder{}
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	return e
}

func (e *OrderEngine) ProcessOrder(ctx context.Context, request *OrderRequest) (result *domain.TransactionResult, err error) {
	start := time.Now()
	defer func() {
		e.observe(ctx, request, start, err)
	}()

	if err := validateOrder(request); err != nil {
		return nil, err
	}

	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}

	if e.opts.ValidateSession && e.sessions != nil {
		if _, err := e.sessions.GetSession(ctx, request.SessionID); err != nil {
			return nil, classify("get session", err)
		}
	}

	var res domain.TransactionResult
	err = e.tx.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		ids := make([]int64, len(request.Items))
		for i, item := range request.Items {
			ids[i] = item.ProductID
		}
		if err := tx.LockProducts(ctx, ids); err != nil {
			return err
		}

		total := decimal.Zero
		lines := make([]domain.OrderLine, 0, len(request.Items))
		for _, item := range request.Items {
			product, err := tx.GetProduct(ctx, item.ProductID)
			if err != nil {
				return err
			}
			if product.InventoryCount < item.Quantity {
				return &store.InsufficientInventoryError{
					ProductID: item.ProductID,
					Requested: item.Quantity,
					Available: product.InventoryCount,
				}
			}
			if err := tx.DecrementIfSufficient(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}

			lines = append(lines, domain.OrderLine{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				UnitPrice: product.Price,
			})
			total = total.Add(domain.LineTotal(product.Price, item.Quantity))
		}

		record := &domain.TransactionRecord{
			SessionID:      request.SessionID,
			Items:          lines,
			Total:          domain.RoundAmount(total, e.opts.Precision),
			PaymentDetails: request.PaymentDetails,
			Status:         domain.TransactionStatusCompleted,
			CreatedAt:      e.now().UTC(),
		}
		id, err := tx.Append(ctx, record)
		if err != nil {
			return err
		}

		res = domain.TransactionResult{
			TransactionID: id,
			Total:         record.Total,
			Status:        record.Status,
		}
		return nil
	})
	if err != nil {
		return nil, classify("process order", err)
	}

	return &res, nil
}

func (e *OrderEngine) observe(ctx context.Context, request *OrderRequest, start time.Time, err error) {
	elapsed := time.Since(start)
	if err == nil {
		e.metrics.ObserveOrder(domain.OrderOutcomeCommitted.String(), "", elapsed)
		e.log.InfoContext(ctx, "order committed",
			slog.String("session_id", request.SessionID),
			slog.Int("items", len(request.Items)),
			slog.Duration("elapsed", elapsed))
		return
	}

	reason := abortReason(err)
	e.metrics.ObserveOrder(domain.OrderOutcomeAborted.String(), reason, elapsed)

	level := slog.LevelInfo
	if reason == "storage_failure" {
		level = slog.LevelError
	}
	var sessionID string
	if request != nil {
		sessionID = request.SessionID
	}
	e.log.Log(ctx, level, "order aborted",
		slog.String("session_id", sessionID),
		slog.String("reason", reason),
		slog.Any("error", err))
}

func validateOrder(request *OrderRequest) error {
	if request == nil {
		return fmt.Errorf("%w: request is required", ErrInvalidOrder)
	}
	if request.SessionID == "" {
		return fmt.Errorf("%w: session_id is required", ErrInvalidOrder)
	}
	if len(request.Items) == 0 {
		return fmt.Errorf("%w: at least one item is required", ErrInvalidOrder)
	}
	for _, item := range request.Items {
		if item.ProductID <= 0 {
			return fmt.Errorf("%w: product_id must be greater than 0", ErrInvalidOrder)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: quantity must be greater than 0", ErrInvalidOrder)
		}
	}
	return nil
}

// classify keeps caller errors and deadlines as they are and turns everything else into a storage failure
func classify(op string, err error) error {
	switch {
	case store.IsCallerError(err):
		return err
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fmt.Errorf("%s aborted: %w", op, err)
	default:
		return store.NewStorageError(op, err)
	}
}

func abortReason(err error) string {
	switch {
	case IsInvalidInput(err):
		return "invalid_order"
	case errors.Is(err, store.ErrProductNotFound):
		return "product_not_found"
	case errors.Is(err, store.ErrInsufficientInventory):
		return "insufficient_inventory"
	case errors.Is(err, store.ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "storage_failure"
	}
}
