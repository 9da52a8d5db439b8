package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/RotomDaPesteBR/el-shadai/model"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidProduct  = errors.New("invalid product")
	ErrInvalidStock    = errors.New("stock must be non-negative")
	ErrInvalidCategory = errors.New("missing or invalid category name")
	ErrCategoryExists  = errors.New("category already exists")
)

type IService interface {
	Products(ctx context.Context) ([]Product, error)
	Product(ctx context.Context, id int64) (Product, error)
	CreateProduct(ctx context.Context, input ProductInput) (Product, error)
	UpdateProduct(ctx context.Context, id int64, input ProductInput) error
	SetStock(ctx context.Context, productID int64, stock int) error
	Categories(ctx context.Context) ([]Category, error)
	CreateCategory(ctx context.Context, name string) (Category, error)
}

func NewService(repo IRepo) IService {
	return &service{
		repo: repo,
	}
}

type service struct {
	repo IRepo
}

type Product struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	Stock        int             `json:"stock"`
	Image        string          `json:"image"`
	CategoryID   int64           `json:"categoryId"`
	CategoryName string          `json:"categoryName"`
}

type ProductInput struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	CategoryID  int64           `json:"categoryId"`
	Image       string          `json:"image"`
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (s service) Products(ctx context.Context) ([]Product, error) {
	rows, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	res := make([]Product, 0, len(rows))
	for _, row := range rows {
		res = append(res, toProduct(row))
	}
	return res, nil
}

func (s service) Product(ctx context.Context, id int64) (Product, error) {
	row, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Product{}, ErrProductNotFound
		}
		return Product{}, err
	}
	return toProduct(row), nil
}

func (s service) CreateProduct(ctx context.Context, input ProductInput) (Product, error) {
	if err := validateProductInput(input); err != nil {
		return Product{}, err
	}

	id, err := s.repo.CreateProduct(ctx, toModel(0, input))
	if err != nil {
		return Product{}, err
	}
	return s.Product(ctx, id)
}

func (s service) UpdateProduct(ctx context.Context, id int64, input ProductInput) error {
	if err := validateProductInput(input); err != nil {
		return err
	}

	if _, err := s.Product(ctx, id); err != nil {
		return err
	}
	return s.repo.UpdateProduct(ctx, toModel(id, input))
}

// SetStock is the admin absolute restock; checkout never goes through here.
func (s service) SetStock(ctx context.Context, productID int64, stock int) error {
	if stock < 0 {
		return ErrInvalidStock
	}
	if _, err := s.Product(ctx, productID); err != nil {
		return err
	}
	return s.repo.SetStock(ctx, productID, stock)
}

func (s service) Categories(ctx context.Context) ([]Category, error) {
	rows, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, err
	}

	res := make([]Category, 0, len(rows))
	for _, row := range rows {
		res = append(res, Category{ID: row.ID, Name: row.CategoryName})
	}
	return res, nil
}

func (s service) CreateCategory(ctx context.Context, name string) (Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Category{}, ErrInvalidCategory
	}

	_, err := s.repo.GetCategoryByName(ctx, name)
	if err == nil {
		return Category{}, fmt.Errorf("%w: %q", ErrCategoryExists, name)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Category{}, err
	}

	id, err := s.repo.CreateCategory(ctx, name)
	if err != nil {
		return Category{}, err
	}
	return Category{ID: id, Name: name}, nil
}

func validateProductInput(input ProductInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProduct)
	}
	if input.Price.IsNegative() {
		return fmt.Errorf("%w: price must be non-negative", ErrInvalidProduct)
	}
	if input.Stock < 0 {
		return fmt.Errorf("%w: stock must be non-negative", ErrInvalidProduct)
	}
	if input.CategoryID == 0 {
		return fmt.Errorf("%w: category is required", ErrInvalidProduct)
	}
	return nil
}

func toProduct(row ProductRow) Product {
	return Product{
		ID:           row.ID,
		Name:         row.Name,
		Description:  row.Description,
		Price:        row.Price,
		Stock:        row.Stock,
		Image:        row.Image.String,
		CategoryID:   row.CategoryID,
		CategoryName: row.CategoryName,
	}
}

func toModel(id int64, input ProductInput) model.Product {
	return model.Product{
		ID:          id,
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Price:       input.Price,
		Stock:       input.Stock,
		Image:       sql.NullString{String: input.Image, Valid: input.Image != ""},
		CategoryID:  input.CategoryID,
	}
}
