package model

import "database/sql"

const (
	RoleClient   = "client"
	RoleDelivery = "delivery"
	RoleAdmin    = "admin"
)

type User struct {
	ID        int64          `db:"id"`
	Name      string         `db:"name"`
	Email     string         `db:"email"`
	Role      string         `db:"role"`
	Address   sql.NullString `db:"address"`
	NeighID   sql.NullInt64  `db:"neigh_id"`
	CreatedAt sql.NullTime   `db:"created_at"`
	UpdatedAt sql.NullTime   `db:"updated_at"`
}

type Neighborhood struct {
	ID          int64  `db:"id"`
	Description string `db:"description"`
	Zone        string `db:"zone"`
}
