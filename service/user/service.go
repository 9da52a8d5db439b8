package user

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/RotomDaPesteBR/el-shadai/model"
)

var (
	ErrAddressNotFound = errors.New("address not found")
	ErrInvalidAddress  = errors.New("address is required")
)

type IService interface {
	Address(ctx context.Context, userID int64) (string, error)
	UpdateAddress(ctx context.Context, userID int64, address string, neighID int64) error
	Neighborhoods(ctx context.Context) ([]Neighborhood, error)
}

func NewService(repo IRepo) IService {
	return &service{
		repo: repo,
	}
}

type service struct {
	repo IRepo
}

type Neighborhood struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
	Zone        string `json:"zone"`
}

// Address returns the user's composed delivery address (street plus
// neighborhood and zone when set).
func (s service) Address(ctx context.Context, userID int64) (string, error) {
	address, err := s.repo.GetUserAddress(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrAddressNotFound
		}
		return "", err
	}
	if address == "" {
		return "", ErrAddressNotFound
	}
	return address, nil
}

func (s service) UpdateAddress(ctx context.Context, userID int64, address string, neighID int64) error {
	if strings.TrimSpace(address) == "" {
		return ErrInvalidAddress
	}
	return s.repo.UpdateUserAddress(ctx, userID, strings.TrimSpace(address), neighID)
}

func (s service) Neighborhoods(ctx context.Context) ([]Neighborhood, error) {
	rows, err := s.repo.ListNeighborhoods(ctx)
	if err != nil {
		return nil, err
	}
	return toNeighborhoods(rows), nil
}

func toNeighborhoods(rows []model.Neighborhood) []Neighborhood {
	res := make([]Neighborhood, 0, len(rows))
	for _, row := range rows {
		res = append(res, Neighborhood{
			ID:          row.ID,
			Description: row.Description,
			Zone:        row.Zone,
		})
	}
	return res
}
