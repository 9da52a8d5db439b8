package order

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/RotomDaPesteBR/el-shadai/model"
)

// fakeRepo is an in-memory IRepo. Transact serializes committers the way the
// database's row locks would, and restores a snapshot on error so rollback
// semantics hold.
type fakeRepo struct {
	mu sync.Mutex

	products    map[int64]model.Product
	states      []model.OrderState
	methods     []model.DeliveryMethod
	addresses   map[int64]string
	clientNames map[int64]string
	orders      map[int64]model.Order
	items       []model.OrderItem
	outboxes    []model.Outbox

	nextOrderID  int64
	nextOutboxID int64

	productReads int

	beforeTransact       func(f *fakeRepo)
	failCreateOrderItems error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		products: map[int64]model.Product{},
		states: []model.OrderState{
			{ID: 1, State: model.StatePending},
			{ID: 2, State: model.StateOnTheWay},
			{ID: 3, State: model.StateDelivered},
		},
		methods: []model.DeliveryMethod{
			{ID: 1, Method: model.MethodDelivery},
			{ID: 2, Method: model.MethodPickup},
		},
		addresses:   map[int64]string{},
		clientNames: map[int64]string{},
		orders:      map[int64]model.Order{},
	}
}

type fakeTxKey struct{}

func inTx(ctx context.Context) bool {
	return ctx.Value(fakeTxKey{}) != nil
}

func (f *fakeRepo) lock(ctx context.Context) func() {
	if inTx(ctx) {
		return func() {}
	}
	f.mu.Lock()
	return f.mu.Unlock
}

type fakeSnapshot struct {
	products map[int64]model.Product
	orders   map[int64]model.Order
	items    []model.OrderItem
	outboxes []model.Outbox
}

func (f *fakeRepo) Transact(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}
	if f.beforeTransact != nil {
		hook := f.beforeTransact
		f.beforeTransact = nil
		hook(f)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	snap := fakeSnapshot{
		products: make(map[int64]model.Product, len(f.products)),
		orders:   make(map[int64]model.Order, len(f.orders)),
		items:    append([]model.OrderItem(nil), f.items...),
		outboxes: append([]model.Outbox(nil), f.outboxes...),
	}
	for id, p := range f.products {
		snap.products[id] = p
	}
	for id, o := range f.orders {
		snap.orders[id] = o
	}

	if err := fn(context.WithValue(ctx, fakeTxKey{}, true)); err != nil {
		f.products = snap.products
		f.orders = snap.orders
		f.items = snap.items
		f.outboxes = snap.outboxes
		return err
	}
	return nil
}

func (f *fakeRepo) GetProductsByIDs(ctx context.Context, ids []int64) ([]model.Product, error) {
	defer f.lock(ctx)()
	f.productReads++

	var res []model.Product
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			res = append(res, p)
		}
	}
	return res, nil
}

func (f *fakeRepo) GetOrderStateByLabel(ctx context.Context, label string) (model.OrderState, error) {
	for _, s := range f.states {
		if s.State == label {
			return s, nil
		}
	}
	return model.OrderState{}, sql.ErrNoRows
}

func (f *fakeRepo) GetDeliveryMethodByLabel(ctx context.Context, label string) (model.DeliveryMethod, error) {
	for _, m := range f.methods {
		if m.Method == label {
			return m, nil
		}
	}
	return model.DeliveryMethod{}, sql.ErrNoRows
}

func (f *fakeRepo) GetClientAddress(ctx context.Context, clientID int64) (string, error) {
	defer f.lock(ctx)()
	return f.addresses[clientID], nil
}

func (f *fakeRepo) CreateOrder(ctx context.Context, order model.Order) (int64, error) {
	defer f.lock(ctx)()

	f.nextOrderID++
	order.ID = f.nextOrderID
	order.CreatedAt = sql.NullTime{Time: time.Now(), Valid: true}
	f.orders[order.ID] = order
	return order.ID, nil
}

func (f *fakeRepo) CreateOrderItems(ctx context.Context, items []model.OrderItem) error {
	defer f.lock(ctx)()

	if f.failCreateOrderItems != nil {
		return f.failCreateOrderItems
	}
	f.items = append(f.items, items...)
	return nil
}

func (f *fakeRepo) DecrementStock(ctx context.Context, productID int64, qty int) (bool, error) {
	defer f.lock(ctx)()

	p, ok := f.products[productID]
	if !ok || p.Stock < qty {
		return false, nil
	}
	p.Stock -= qty
	f.products[productID] = p
	return true, nil
}

func (f *fakeRepo) GetOrder(ctx context.Context, id int64) (model.Order, error) {
	defer f.lock(ctx)()

	order, ok := f.orders[id]
	if !ok {
		return model.Order{}, sql.ErrNoRows
	}
	return order, nil
}

func (f *fakeRepo) stateLabel(stateID int64) string {
	for _, s := range f.states {
		if s.ID == stateID {
			return s.State
		}
	}
	return ""
}

func (f *fakeRepo) methodLabel(methodID int64) string {
	for _, m := range f.methods {
		if m.ID == methodID {
			return m.Method
		}
	}
	return ""
}

func (f *fakeRepo) ListClientOrders(ctx context.Context, clientID int64) ([]ClientOrderRow, error) {
	defer f.lock(ctx)()

	var res []ClientOrderRow
	for _, o := range f.orders {
		if o.ClientID != clientID {
			continue
		}
		res = append(res, ClientOrderRow{
			ID:        o.ID,
			Price:     o.Price,
			State:     f.stateLabel(o.OrderStateID),
			CreatedAt: o.CreatedAt,
		})
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.Time.After(res[j].CreatedAt.Time) })
	return res, nil
}

func (f *fakeRepo) GetOrderDetail(ctx context.Context, orderID, clientID int64) (OrderDetailRow, error) {
	defer f.lock(ctx)()

	o, ok := f.orders[orderID]
	if !ok || o.ClientID != clientID {
		return OrderDetailRow{}, sql.ErrNoRows
	}
	return OrderDetailRow{
		ID:        o.ID,
		Price:     o.Price,
		State:     f.stateLabel(o.OrderStateID),
		Method:    f.methodLabel(o.DeliveryMethodID),
		CreatedAt: o.CreatedAt,
	}, nil
}

func (f *fakeRepo) GetOrderItems(ctx context.Context, orderIDs []int64) ([]OrderItemRow, error) {
	defer f.lock(ctx)()

	wanted := make(map[int64]bool, len(orderIDs))
	for _, id := range orderIDs {
		wanted[id] = true
	}

	var res []OrderItemRow
	for _, item := range f.items {
		if !wanted[item.OrderID] {
			continue
		}
		res = append(res, OrderItemRow{
			OrderID:   item.OrderID,
			ProductID: item.ProductID,
			Name:      f.products[item.ProductID].Name,
			UnitPrice: item.UnitPrice,
			Image:     f.products[item.ProductID].Image,
			Quantity:  item.Quantity,
		})
	}
	return res, nil
}

func (f *fakeRepo) ListPendingDeliveryOrders(ctx context.Context) ([]DeliveryOrderRow, error) {
	defer f.lock(ctx)()

	var res []DeliveryOrderRow
	for _, o := range f.orders {
		if f.methodLabel(o.DeliveryMethodID) != model.MethodDelivery {
			continue
		}
		if f.stateLabel(o.OrderStateID) == model.StateDelivered {
			continue
		}
		res = append(res, DeliveryOrderRow{
			ID:            o.ID,
			Price:         o.Price,
			State:         f.stateLabel(o.OrderStateID),
			ClientName:    f.clientNames[o.ClientID],
			ClientAddress: f.addresses[o.ClientID],
			CreatedAt:     o.CreatedAt,
		})
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.Time.Before(res[j].CreatedAt.Time) })
	return res, nil
}

func (f *fakeRepo) GetOrderStatusLabel(ctx context.Context, orderID int64) (string, error) {
	defer f.lock(ctx)()

	o, ok := f.orders[orderID]
	if !ok {
		return "", sql.ErrNoRows
	}
	return f.stateLabel(o.OrderStateID), nil
}

func (f *fakeRepo) UpdateOrderState(ctx context.Context, orderID, stateID int64) error {
	defer f.lock(ctx)()

	o := f.orders[orderID]
	o.OrderStateID = stateID
	f.orders[orderID] = o
	return nil
}

func (f *fakeRepo) CountOrders(ctx context.Context) (int64, error) {
	defer f.lock(ctx)()
	return int64(len(f.orders)), nil
}

func (f *fakeRepo) SumRevenue(ctx context.Context) (decimal.Decimal, error) {
	defer f.lock(ctx)()

	total := decimal.Zero
	for _, o := range f.orders {
		total = total.Add(o.Price)
	}
	return total, nil
}

func (f *fakeRepo) StateMetrics(ctx context.Context) ([]StateMetricsRow, error) {
	defer f.lock(ctx)()

	byState := map[string]*StateMetricsRow{}
	for _, o := range f.orders {
		label := f.stateLabel(o.OrderStateID)
		row, ok := byState[label]
		if !ok {
			row = &StateMetricsRow{State: label, Revenue: decimal.Zero}
			byState[label] = row
		}
		row.OrderCount++
		row.Revenue = row.Revenue.Add(o.Price)
	}

	var res []StateMetricsRow
	for _, row := range byState {
		res = append(res, *row)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].State < res[j].State })
	return res, nil
}

func (f *fakeRepo) CreateOutbox(ctx context.Context, outbox model.Outbox) error {
	defer f.lock(ctx)()

	f.nextOutboxID++
	outbox.ID = f.nextOutboxID
	outbox.Status = model.OutboxPending
	f.outboxes = append(f.outboxes, outbox)
	return nil
}

func (f *fakeRepo) GetPendingOutbox(ctx context.Context, limit int) ([]model.Outbox, error) {
	defer f.lock(ctx)()

	var res []model.Outbox
	for _, o := range f.outboxes {
		if o.Status != model.OutboxPending {
			continue
		}
		res = append(res, o)
		if len(res) == limit {
			break
		}
	}
	return res, nil
}

func (f *fakeRepo) MarkDoneOutboxes(ctx context.Context, ids []int64) error {
	defer f.lock(ctx)()

	done := make(map[int64]bool, len(ids))
	for _, id := range ids {
		done[id] = true
	}
	for i, o := range f.outboxes {
		if done[o.ID] {
			f.outboxes[i].Status = model.OutboxSent
		}
	}
	return nil
}

type fakeProducer struct {
	mu     sync.Mutex
	pushed [][]byte
}

func (p *fakeProducer) Push(messages [][]byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pushed = append(p.pushed, messages...)
	return nil
}
