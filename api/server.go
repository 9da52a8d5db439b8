package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/RotomDaPesteBR/el-shadai/model"
	"github.com/RotomDaPesteBR/el-shadai/service/catalog"
	"github.com/RotomDaPesteBR/el-shadai/service/order"
	"github.com/RotomDaPesteBR/el-shadai/service/user"
)

// Server is the thin HTTP surface over the services. Authentication is an
// external collaborator: the fronting proxy verifies the session and passes
// the caller identity in trusted headers.
type Server struct {
	orders  order.IService
	catalog catalog.IService
	users   user.IService
}

func NewServer(orders order.IService, catalogSvc catalog.IService, users user.IService) *Server {
	// Money fields serialize as JSON numbers, matching the original API.
	decimal.MarshalJSONWithoutQuotes = true
	return &Server{
		orders:  orders,
		catalog: catalogSvc,
		users:   users,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/order/confirm", s.confirmOrder)
	mux.HandleFunc("GET /api/v1/user/orders", s.userOrders)
	mux.HandleFunc("GET /api/v1/order/{id}", s.orderDetails)
	mux.HandleFunc("PUT /api/v1/order/{id}/status", s.updateOrderStatus)
	mux.HandleFunc("GET /api/v1/delivery/orders", s.deliveryOrders)

	mux.HandleFunc("GET /api/v1/products", s.listProducts)
	mux.HandleFunc("GET /api/v1/products/{id}", s.getProduct)
	mux.HandleFunc("POST /api/v1/admin/products", s.createProduct)
	mux.HandleFunc("PUT /api/v1/admin/products/{id}", s.updateProduct)
	mux.HandleFunc("PATCH /api/v1/admin/products/{id}/stock", s.updateProductStock)
	mux.HandleFunc("GET /api/v1/admin/dashboard/metrics", s.dashboardMetrics)

	mux.HandleFunc("GET /api/v1/categories", s.listCategories)
	mux.HandleFunc("POST /api/v1/categories", s.createCategory)

	mux.HandleFunc("GET /api/v1/user/address", s.userAddress)
	mux.HandleFunc("PUT /api/v1/user/address", s.updateUserAddress)
	mux.HandleFunc("GET /api/v1/neighborhoods", s.listNeighborhoods)

	return mux
}

// Identity is the authenticated caller as supplied by the auth collaborator.
type Identity struct {
	UserID int64
	Role   string
}

func identityFrom(r *http.Request) (Identity, error) {
	rawID := r.Header.Get("X-User-Id")
	if rawID == "" {
		return Identity{}, errors.New("missing identity")
	}
	userID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return Identity{}, errors.New("malformed identity")
	}

	role := r.Header.Get("X-User-Role")
	if role == "" {
		role = model.RoleClient
	}
	return Identity{UserID: userID, Role: role}, nil
}

func (id Identity) hasAnyRole(roles ...string) bool {
	for _, role := range roles {
		if id.Role == role {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

func writeUnauthorized(w http.ResponseWriter) {
	writeMessage(w, http.StatusUnauthorized, "Unauthorized")
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}
