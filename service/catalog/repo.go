package catalog

import (
	"context"
	"database/sql"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/RotomDaPesteBR/el-shadai/model"
)

type IRepo interface {
	ListProducts(ctx context.Context) ([]ProductRow, error)
	GetProduct(ctx context.Context, id int64) (ProductRow, error)
	CreateProduct(ctx context.Context, product model.Product) (int64, error)
	UpdateProduct(ctx context.Context, product model.Product) error
	SetStock(ctx context.Context, productID int64, stock int) error
	ListCategories(ctx context.Context) ([]model.Category, error)
	GetCategoryByName(ctx context.Context, name string) (model.Category, error)
	CreateCategory(ctx context.Context, name string) (int64, error)
}

func NewRepo(db *sqlx.DB) IRepo {
	return &repo{
		db: db,
	}
}

type repo struct {
	db *sqlx.DB
}

type ProductRow struct {
	ID           int64           `db:"id"`
	Name         string          `db:"name"`
	Description  string          `db:"description"`
	Price        decimal.Decimal `db:"price"`
	Stock        int             `db:"stock"`
	Image        sql.NullString  `db:"image"`
	CategoryID   int64           `db:"category_id"`
	CategoryName string          `db:"category_name"`
}

var listProductsQuery = `
SELECT p.id, p.name, p.description, p.price, p.stock, p.image, p.category_id, c.category_name
FROM products p
JOIN categories c ON c.id = p.category_id
ORDER BY p.name ASC`

func (r repo) ListProducts(ctx context.Context) ([]ProductRow, error) {
	var res []ProductRow
	err := r.db.SelectContext(ctx, &res, listProductsQuery)
	return res, err
}

var getProductQuery = `
SELECT p.id, p.name, p.description, p.price, p.stock, p.image, p.category_id, c.category_name
FROM products p
JOIN categories c ON c.id = p.category_id
WHERE p.id = ?`

func (r repo) GetProduct(ctx context.Context, id int64) (ProductRow, error) {
	var res ProductRow
	err := r.db.GetContext(ctx, &res, getProductQuery, id)
	return res, err
}

var createProductQuery = `
INSERT INTO products (name, description, price, stock, image, category_id)
VALUES (:name, :description, :price, :stock, :image, :category_id)`

func (r repo) CreateProduct(ctx context.Context, product model.Product) (int64, error) {
	res, err := r.db.NamedExecContext(ctx, createProductQuery, product)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

var updateProductQuery = `
UPDATE products
SET name = :name, description = :description, price = :price, image = :image, category_id = :category_id
WHERE id = :id`

func (r repo) UpdateProduct(ctx context.Context, product model.Product) error {
	_, err := r.db.NamedExecContext(ctx, updateProductQuery, product)
	return err
}

var setStockQuery = "UPDATE products SET stock = ? WHERE id = ?"

func (r repo) SetStock(ctx context.Context, productID int64, stock int) error {
	_, err := r.db.ExecContext(ctx, setStockQuery, stock, productID)
	return err
}

var listCategoriesQuery = "SELECT * FROM categories ORDER BY category_name ASC"

func (r repo) ListCategories(ctx context.Context) ([]model.Category, error) {
	var res []model.Category
	err := r.db.SelectContext(ctx, &res, listCategoriesQuery)
	return res, err
}

var getCategoryByNameQuery = "SELECT * FROM categories WHERE category_name = ?"

func (r repo) GetCategoryByName(ctx context.Context, name string) (model.Category, error) {
	var res model.Category
	err := r.db.GetContext(ctx, &res, getCategoryByNameQuery, name)
	return res, err
}

var createCategoryQuery = "INSERT INTO categories (category_name) VALUES (?)"

func (r repo) CreateCategory(ctx context.Context, name string) (int64, error) {
	res, err := r.db.ExecContext(ctx, createCategoryQuery, name)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
