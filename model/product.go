package model

import (
	"database/sql"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          int64           `db:"id"`
	Name        string          `db:"name"`
	Description string          `db:"description"`
	Price       decimal.Decimal `db:"price"`
	Stock       int             `db:"stock"`
	Image       sql.NullString  `db:"image"`
	CategoryID  int64           `db:"category_id"`
	CreatedAt   sql.NullTime    `db:"created_at"`
	UpdatedAt   sql.NullTime    `db:"updated_at"`
}

type Category struct {
	ID           int64        `db:"id"`
	CategoryName string       `db:"category_name"`
	CreatedAt    sql.NullTime `db:"created_at"`
}
