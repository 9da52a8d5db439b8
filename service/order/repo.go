package order

import (
	"context"
	"database/sql"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/RotomDaPesteBR/el-shadai/model"
)

type IRepo interface {
	Transact(ctx context.Context, fn func(ctx context.Context) error) error
	GetProductsByIDs(ctx context.Context, ids []int64) ([]model.Product, error)
	GetOrderStateByLabel(ctx context.Context, label string) (model.OrderState, error)
	GetDeliveryMethodByLabel(ctx context.Context, label string) (model.DeliveryMethod, error)
	GetClientAddress(ctx context.Context, clientID int64) (string, error)
	CreateOrder(ctx context.Context, order model.Order) (int64, error)
	CreateOrderItems(ctx context.Context, items []model.OrderItem) error
	DecrementStock(ctx context.Context, productID int64, qty int) (bool, error)
	GetOrder(ctx context.Context, id int64) (model.Order, error)
	ListClientOrders(ctx context.Context, clientID int64) ([]ClientOrderRow, error)
	GetOrderDetail(ctx context.Context, orderID, clientID int64) (OrderDetailRow, error)
	GetOrderItems(ctx context.Context, orderIDs []int64) ([]OrderItemRow, error)
	ListPendingDeliveryOrders(ctx context.Context) ([]DeliveryOrderRow, error)
	GetOrderStatusLabel(ctx context.Context, orderID int64) (string, error)
	UpdateOrderState(ctx context.Context, orderID, stateID int64) error
	CountOrders(ctx context.Context) (int64, error)
	SumRevenue(ctx context.Context) (decimal.Decimal, error)
	StateMetrics(ctx context.Context) ([]StateMetricsRow, error)
	CreateOutbox(ctx context.Context, outbox model.Outbox) error
	GetPendingOutbox(ctx context.Context, limit int) ([]model.Outbox, error)
	MarkDoneOutboxes(ctx context.Context, ids []int64) error
}

func NewRepo(db *sqlx.DB) IRepo {
	return &repo{
		db: db,
	}
}

type repo struct {
	db *sqlx.DB
}

type txKey struct{}

// Transact runs fn inside a transaction carried through the context, so every
// repo call made from fn joins the same transaction. Nested calls reuse the
// enclosing transaction.
func (r repo) Transact(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (r repo) ext(ctx context.Context) sqlx.ExtContext {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return r.db
}

var getProductsByIDsQuery = "SELECT * FROM products WHERE id IN (?)"

func (r repo) GetProductsByIDs(ctx context.Context, ids []int64) ([]model.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(getProductsByIDsQuery, ids)
	if err != nil {
		return nil, err
	}

	var res []model.Product
	err = sqlx.SelectContext(ctx, r.ext(ctx), &res, query, args...)
	return res, err
}

var getOrderStateByLabelQuery = "SELECT * FROM order_states WHERE state = ?"

func (r repo) GetOrderStateByLabel(ctx context.Context, label string) (model.OrderState, error) {
	var res model.OrderState
	err := sqlx.GetContext(ctx, r.ext(ctx), &res, getOrderStateByLabelQuery, label)
	return res, err
}

var getDeliveryMethodByLabelQuery = "SELECT * FROM delivery_methods WHERE method = ?"

func (r repo) GetDeliveryMethodByLabel(ctx context.Context, label string) (model.DeliveryMethod, error) {
	var res model.DeliveryMethod
	err := sqlx.GetContext(ctx, r.ext(ctx), &res, getDeliveryMethodByLabelQuery, label)
	return res, err
}

var getClientAddressQuery = `
SELECT TRIM(CONCAT(
	COALESCE(u.address, ''),
	COALESCE(CONCAT(', ', n.description, ' - ', n.zone), '')
))
FROM users u
LEFT JOIN neighborhoods n ON n.id = u.neigh_id
WHERE u.id = ?`

func (r repo) GetClientAddress(ctx context.Context, clientID int64) (string, error) {
	var res string
	err := sqlx.GetContext(ctx, r.ext(ctx), &res, getClientAddressQuery, clientID)
	return res, err
}

var createOrderQuery = `
INSERT INTO orders (client_id, price, order_state_id, delivery_method_id, payment_method, change_needed)
VALUES (:client_id, :price, :order_state_id, :delivery_method_id, :payment_method, :change_needed)`

func (r repo) CreateOrder(ctx context.Context, order model.Order) (int64, error) {
	res, err := sqlx.NamedExecContext(ctx, r.ext(ctx), createOrderQuery, order)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

var createOrderItemsQuery = `
INSERT INTO order_items (order_id, product_id, quantity, unit_price)
VALUES (:order_id, :product_id, :quantity, :unit_price)`

func (r repo) CreateOrderItems(ctx context.Context, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	_, err := sqlx.NamedExecContext(ctx, r.ext(ctx), createOrderItemsQuery, items)
	return err
}

// The WHERE guard makes the decrement conditional: zero affected rows means a
// concurrent checkout consumed the remaining units and stock must not go
// negative.
var decrementStockQuery = "UPDATE products SET stock = stock - ? WHERE id = ? AND stock >= ?"

func (r repo) DecrementStock(ctx context.Context, productID int64, qty int) (bool, error) {
	res, err := r.ext(ctx).ExecContext(ctx, decrementStockQuery, qty, productID, qty)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

var getOrderQuery = "SELECT * FROM orders WHERE id = ?"

func (r repo) GetOrder(ctx context.Context, id int64) (model.Order, error) {
	var res model.Order
	err := sqlx.GetContext(ctx, r.ext(ctx), &res, getOrderQuery, id)
	return res, err
}

type ClientOrderRow struct {
	ID        int64           `db:"id"`
	Price     decimal.Decimal `db:"price"`
	State     string          `db:"state"`
	CreatedAt sql.NullTime    `db:"created_at"`
}

var listClientOrdersQuery = `
SELECT o.id, o.price, os.state, o.created_at
FROM orders o
JOIN order_states os ON os.id = o.order_state_id
WHERE o.client_id = ?
ORDER BY o.created_at DESC`

func (r repo) ListClientOrders(ctx context.Context, clientID int64) ([]ClientOrderRow, error) {
	var res []ClientOrderRow
	err := sqlx.SelectContext(ctx, r.ext(ctx), &res, listClientOrdersQuery, clientID)
	return res, err
}

type OrderDetailRow struct {
	ID        int64           `db:"id"`
	Price     decimal.Decimal `db:"price"`
	State     string          `db:"state"`
	Method    string          `db:"method"`
	CreatedAt sql.NullTime    `db:"created_at"`
}

var getOrderDetailQuery = `
SELECT o.id, o.price, os.state, dm.method, o.created_at
FROM orders o
JOIN order_states os ON os.id = o.order_state_id
JOIN delivery_methods dm ON dm.id = o.delivery_method_id
WHERE o.id = ? AND o.client_id = ?`

func (r repo) GetOrderDetail(ctx context.Context, orderID, clientID int64) (OrderDetailRow, error) {
	var res OrderDetailRow
	err := sqlx.GetContext(ctx, r.ext(ctx), &res, getOrderDetailQuery, orderID, clientID)
	return res, err
}

type OrderItemRow struct {
	OrderID   int64           `db:"order_id"`
	ProductID int64           `db:"product_id"`
	Name      string          `db:"name"`
	UnitPrice decimal.Decimal `db:"unit_price"`
	Image     sql.NullString  `db:"image"`
	Quantity  int             `db:"quantity"`
}

var getOrderItemsQuery = `
SELECT oi.order_id, oi.product_id, p.name, oi.unit_price, p.image, oi.quantity
FROM order_items oi
JOIN products p ON p.id = oi.product_id
WHERE oi.order_id IN (?)`

func (r repo) GetOrderItems(ctx context.Context, orderIDs []int64) ([]OrderItemRow, error) {
	if len(orderIDs) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(getOrderItemsQuery, orderIDs)
	if err != nil {
		return nil, err
	}

	var res []OrderItemRow
	err = sqlx.SelectContext(ctx, r.ext(ctx), &res, query, args...)
	return res, err
}

type DeliveryOrderRow struct {
	ID            int64           `db:"id"`
	Price         decimal.Decimal `db:"price"`
	State         string          `db:"state"`
	ClientName    string          `db:"client_name"`
	ClientAddress string          `db:"client_address"`
	CreatedAt     sql.NullTime    `db:"created_at"`
}

var listPendingDeliveryOrdersQuery = `
SELECT o.id, o.price, os.state, u.name AS client_name,
	TRIM(CONCAT(
		COALESCE(u.address, ''),
		COALESCE(CONCAT(', ', n.description, ' - ', n.zone), '')
	)) AS client_address,
	o.created_at
FROM orders o
JOIN order_states os ON os.id = o.order_state_id
JOIN delivery_methods dm ON dm.id = o.delivery_method_id
JOIN users u ON u.id = o.client_id
LEFT JOIN neighborhoods n ON n.id = u.neigh_id
WHERE dm.method = ? AND os.state <> ?
ORDER BY o.created_at ASC`

func (r repo) ListPendingDeliveryOrders(ctx context.Context) ([]DeliveryOrderRow, error) {
	var res []DeliveryOrderRow
	err := sqlx.SelectContext(ctx, r.ext(ctx), &res, listPendingDeliveryOrdersQuery,
		model.MethodDelivery, model.StateDelivered)
	return res, err
}

var getOrderStatusLabelQuery = `
SELECT os.state
FROM orders o
JOIN order_states os ON os.id = o.order_state_id
WHERE o.id = ?`

func (r repo) GetOrderStatusLabel(ctx context.Context, orderID int64) (string, error) {
	var res string
	err := sqlx.GetContext(ctx, r.ext(ctx), &res, getOrderStatusLabelQuery, orderID)
	return res, err
}

var updateOrderStateQuery = "UPDATE orders SET order_state_id = ? WHERE id = ?"

func (r repo) UpdateOrderState(ctx context.Context, orderID, stateID int64) error {
	_, err := r.ext(ctx).ExecContext(ctx, updateOrderStateQuery, stateID, orderID)
	return err
}

var countOrdersQuery = "SELECT COUNT(*) FROM orders"

func (r repo) CountOrders(ctx context.Context) (int64, error) {
	var res int64
	err := sqlx.GetContext(ctx, r.ext(ctx), &res, countOrdersQuery)
	return res, err
}

var sumRevenueQuery = "SELECT COALESCE(SUM(price), 0) FROM orders"

func (r repo) SumRevenue(ctx context.Context) (decimal.Decimal, error) {
	var res decimal.Decimal
	err := sqlx.GetContext(ctx, r.ext(ctx), &res, sumRevenueQuery)
	return res, err
}

type StateMetricsRow struct {
	State      string          `db:"state"`
	OrderCount int64           `db:"order_count"`
	Revenue    decimal.Decimal `db:"revenue"`
}

var stateMetricsQuery = `
SELECT os.state, COUNT(o.id) AS order_count, COALESCE(SUM(o.price), 0) AS revenue
FROM orders o
JOIN order_states os ON os.id = o.order_state_id
GROUP BY os.state`

func (r repo) StateMetrics(ctx context.Context) ([]StateMetricsRow, error) {
	var res []StateMetricsRow
	err := sqlx.SelectContext(ctx, r.ext(ctx), &res, stateMetricsQuery)
	return res, err
}

var createOutboxQuery = "INSERT INTO order_outboxes (content) VALUES (:content)"

func (r repo) CreateOutbox(ctx context.Context, outbox model.Outbox) error {
	_, err := sqlx.NamedExecContext(ctx, r.ext(ctx), createOutboxQuery, outbox)
	return err
}

var getPendingOutboxQuery = "SELECT * FROM order_outboxes WHERE status = ? LIMIT ?"

func (r repo) GetPendingOutbox(ctx context.Context, limit int) ([]model.Outbox, error) {
	var res []model.Outbox
	err := sqlx.SelectContext(ctx, r.ext(ctx), &res, getPendingOutboxQuery, model.OutboxPending, limit)
	return res, err
}

var markDoneOutboxesQuery = "UPDATE order_outboxes SET status = ? WHERE id IN (?)"

func (r repo) MarkDoneOutboxes(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	query, args, err := sqlx.In(markDoneOutboxesQuery, model.OutboxSent, ids)
	if err != nil {
		return err
	}

	_, err = r.ext(ctx).ExecContext(ctx, query, args...)
	return err
}
