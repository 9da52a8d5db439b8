package model

import (
	"database/sql"

	"github.com/shopspring/decimal"
)

// Order state labels are the stable keys; numeric ids are only foreign keys.
// Seeded by migration, must match the rows in order_states.
const (
	StatePending   = "Pending"
	StateOnTheWay  = "On the way"
	StateDelivered = "Delivered"
)

const (
	MethodDelivery = "Delivery"
	MethodPickup   = "Pickup"
)

type OrderState struct {
	ID    int64  `db:"id"`
	State string `db:"state"`
}

type DeliveryMethod struct {
	ID     int64  `db:"id"`
	Method string `db:"method"`
}

type Order struct {
	ID               int64               `db:"id"`
	ClientID         int64               `db:"client_id"`
	StaffID          sql.NullInt64       `db:"staff_id"`
	Price            decimal.Decimal     `db:"price"`
	OrderStateID     int64               `db:"order_state_id"`
	DeliveryMethodID int64               `db:"delivery_method_id"`
	PaymentMethod    string              `db:"payment_method"`
	ChangeNeeded     decimal.NullDecimal `db:"change_needed"`
	CreatedAt        sql.NullTime        `db:"created_at"`
	UpdatedAt        sql.NullTime        `db:"updated_at"`
}

// OrderItem is one distinct product line. Quantity is explicit and UnitPrice is
// a snapshot of the product price at commit time, so order reads stay stable
// when the catalog price changes later.
type OrderItem struct {
	ID        int64           `db:"id"`
	OrderID   int64           `db:"order_id"`
	ProductID int64           `db:"product_id"`
	Quantity  int             `db:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price"`
}
