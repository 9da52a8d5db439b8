package user

import (
	"context"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/RotomDaPesteBR/el-shadai/model"
)

type IRepo interface {
	GetUserAddress(ctx context.Context, userID int64) (string, error)
	UpdateUserAddress(ctx context.Context, userID int64, address string, neighID int64) error
	ListNeighborhoods(ctx context.Context) ([]model.Neighborhood, error)
}

func NewRepo(db *sqlx.DB) IRepo {
	return &repo{
		db: db,
	}
}

type repo struct {
	db *sqlx.DB
}

var getUserAddressQuery = `
SELECT TRIM(CONCAT(
	COALESCE(u.address, ''),
	COALESCE(CONCAT(', ', n.description, ' - ', n.zone), '')
))
FROM users u
LEFT JOIN neighborhoods n ON n.id = u.neigh_id
WHERE u.id = ?`

func (r repo) GetUserAddress(ctx context.Context, userID int64) (string, error) {
	var res string
	err := r.db.GetContext(ctx, &res, getUserAddressQuery, userID)
	return res, err
}

var updateUserAddressQuery = "UPDATE users SET address = ?, neigh_id = ? WHERE id = ?"

func (r repo) UpdateUserAddress(ctx context.Context, userID int64, address string, neighID int64) error {
	_, err := r.db.ExecContext(ctx, updateUserAddressQuery, address, neighID, userID)
	return err
}

var listNeighborhoodsQuery = "SELECT * FROM neighborhoods ORDER BY description ASC"

func (r repo) ListNeighborhoods(ctx context.Context) ([]model.Neighborhood, error) {
	var res []model.Neighborhood
	err := r.db.SelectContext(ctx, &res, listNeighborhoodsQuery)
	return res, err
}
