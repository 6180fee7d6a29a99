package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/logging"
	"storefront/internal/repository"

	"github.com/shopspring/decimal"
)

type State string

const (
	StateAwaitingItems   State = "awaiting_items"
	StateAwaitingPayment State = "awaiting_payment"
	StateValidating      State = "validating"
	StateCommitting      State = "committing_order"
	StateSucceeded       State = "succeeded"
	StateFailed          State = "failed"
)

// 支払いフォームの値（保存しない）
type PaymentFields struct {
	Name       string
	CardNumber string
	Expiry     string
	CVV        string
}

type Request struct {
	UserID  int64
	Records []string
	//クライアントが送ってきた合計（再計算しない）
	Total string
	//nilなら支払い入力待ち
	Payment        *PaymentFields
	IdempotencyKey string
}

type Result struct {
	State   State
	OrderID int64
	Items   []CartItem
	Total   decimal.Decimal
	//同じキーで確定済みの注文を返した
	Replayed bool
	Err      *Error
}

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

type PaymentValidator interface {
	Validate(p PaymentFields) error
}

type OrderPlacedEvent struct {
	OrderID  int64
	UserID   int64
	Total    decimal.Decimal
	Items    []CartItem
	PlacedAt time.Time
}

// commit後に呼ばれる。失敗しても注文は取り消さない
type OrderPublisher interface {
	PublishOrderPlaced(ctx context.Context, ev OrderPlacedEvent) error
}

type PlaceOrderUsecase struct {
	tx        repository.TransactionManager
	payments  PaymentValidator
	publisher OrderPublisher
	clock     Clock
}

func NewPlaceOrderUsecase(tx repository.TransactionManager, payments PaymentValidator, publisher OrderPublisher, clock Clock) *PlaceOrderUsecase {
	if clock == nil {
		clock = SystemClock{}
	}
	return &PlaceOrderUsecase{tx: tx, payments: payments, publisher: publisher, clock: clock}
}

func (u *PlaceOrderUsecase) Execute(ctx context.Context, req Request) Result {
	log := logging.FromContext(ctx).With("user_id", req.UserID)

	items := DecodeSnapshot(req.Records)
	if len(items) == 0 {
		log.Debug("checkout: no items", "records", len(req.Records))
		return Result{State: StateAwaitingItems, Err: NewError(KindEmptyCart, "", nil)}
	}
	if req.UserID <= 0 {
		return Result{State: StateFailed, Items: items, Err: NewError(KindNotAuthenticated, "", nil)}
	}

	if req.Payment == nil {
		total, err := decimal.NewFromString(req.Total)
		if err != nil {
			total = Subtotal(items)
		}
		return Result{State: StateAwaitingPayment, Items: items, Total: total}
	}

	//validating
	if err := u.payments.Validate(*req.Payment); err != nil {
		ce, ok := AsError(err)
		if !ok {
			ce = NewError(KindTransactionFailure, "", err)
		}
		log.Debug("checkout: payment rejected", "kind", ce.Kind)
		return Result{State: StateFailed, Items: items, Err: ce}
	}
	total, err := parseTotal(req.Total)
	if err != nil {
		return Result{State: StateFailed, Items: items, Err: NewError(KindInvalidTotal, "", err)}
	}

	//committing
	orderID, replayed, err := u.commit(ctx, req, items, total)
	if err != nil {
		ce, ok := AsError(err)
		if !ok {
			ce = NewError(KindTransactionFailure, "", err)
		}
		if ce.Kind == KindTransactionFailure {
			log.Error("checkout: transaction failed", "err", ce.Err)
		} else {
			log.Warn("checkout: order rejected", "kind", ce.Kind, "item", ce.Item)
		}
		return Result{State: StateFailed, Items: items, Total: total, Err: ce}
	}

	log.Info("checkout: order placed", "order_id", orderID, "replayed", replayed)
	if !replayed && u.publisher != nil {
		ev := OrderPlacedEvent{OrderID: orderID, UserID: req.UserID, Total: total, Items: items, PlacedAt: u.clock.Now()}
		if perr := u.publisher.PublishOrderPlaced(ctx, ev); perr != nil {
			log.Warn("checkout: publish order event failed", "order_id", orderID, "err", perr)
		}
	}
	return Result{State: StateSucceeded, OrderID: orderID, Items: items, Total: total, Replayed: replayed}
}

func parseTotal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative total: %s", s)
	}
	return d, nil
}

// 全部成功でcommit。途中で失敗したら何も残らない
func (u *PlaceOrderUsecase) commit(ctx context.Context, req Request, items []CartItem, total decimal.Decimal) (orderID int64, replayed bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			orderID, replayed = 0, false
			err = NewError(KindTransactionFailure, "", fmt.Errorf("panic: %v", rec))
		}
	}()

	var key *string
	if req.IdempotencyKey != "" {
		k := req.IdempotencyKey
		key = &k
	}

	err = u.tx.WithinTx(ctx, func(r repository.TxRepos) error {
		if key != nil {
			prev, found, err := r.Orders().FindByIdempotencyKey(ctx, req.UserID, *key)
			if err != nil {
				return err
			}
			if found {
				orderID, replayed = prev.ID, true
				return nil
			}
		}

		//同じ商品が複数行あっても合計で見る
		locked := make(map[int64]model.Product, len(items))
		requested := make(map[int64]int64, len(items))
		for _, it := range items {
			p, ok := locked[it.ProductID]
			if !ok {
				row, err := r.Products().FindByIDForUpdate(ctx, it.ProductID)
				if errors.Is(err, repository.ErrNotFound) {
					return NewError(KindProductNotFound, it.DisplayName(), nil)
				}
				if err != nil {
					return err
				}
				if !row.IsActive {
					return NewError(KindProductNotFound, it.DisplayName(), nil)
				}
				locked[it.ProductID] = row
				p = row
			}
			requested[it.ProductID] += it.Quantity
			if requested[it.ProductID] > p.Stock {
				return NewError(KindInsufficientStock, stockName(it, p), nil)
			}
		}

		now := u.clock.Now()
		id, err := r.Orders().Create(ctx, model.Order{
			UserID:         req.UserID,
			Total:          total,
			Status:         model.OrderStatusPending,
			IdempotencyKey: key,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
		if err != nil {
			return err
		}

		lines := make([]model.OrderItem, 0, len(items))
		for _, it := range items {
			lines = append(lines, model.OrderItem{
				ProductID:           it.ProductID,
				ProductNameSnapshot: locked[it.ProductID].Name,
				UnitPrice:           it.UnitPrice,
				Quantity:            it.Quantity,
			})
		}
		if err := r.OrderItems().CreateBulk(ctx, id, lines); err != nil {
			return err
		}

		for _, it := range items {
			err := r.Inventory().DecreaseStock(ctx, it.ProductID, it.Quantity)
			if errors.Is(err, repository.ErrInsufficientStock) {
				return NewError(KindInsufficientStock, stockName(it, locked[it.ProductID]), err)
			}
			if errors.Is(err, repository.ErrNotFound) {
				return NewError(KindProductNotFound, it.DisplayName(), err)
			}
			if err != nil {
				return err
			}
		}

		if err := r.Carts().ClearByUserID(ctx, req.UserID); err != nil {
			return err
		}
		orderID = id
		return nil
	})
	if err != nil {
		orderID, replayed = 0, false
		if _, ok := AsError(err); ok {
			return 0, false, err
		}
		//同じキーの同時送信は一意制約で負ける。先に確定した方を返す
		if key != nil {
			if id, ok := u.lookupKey(ctx, req.UserID, *key); ok {
				return id, true, nil
			}
		}
		return 0, false, NewError(KindTransactionFailure, "", err)
	}
	return orderID, replayed, nil
}

func (u *PlaceOrderUsecase) lookupKey(ctx context.Context, userID int64, key string) (int64, bool) {
	var id int64
	var found bool
	err := u.tx.WithinTx(ctx, func(r repository.TxRepos) error {
		o, ok, err := r.Orders().FindByIdempotencyKey(ctx, userID, key)
		if err != nil {
			return err
		}
		id, found = o.ID, ok
		return nil
	})
	if err != nil {
		return 0, false
	}
	return id, found
}

// ロックした行の名前。スナップショットの名前はクライアントが書き換えられる
func stockName(it CartItem, p model.Product) string {
	if p.Name != "" {
		return p.Name
	}
	return it.DisplayName()
}
