package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/RotomDaPesteBR/el-shadai/model"
	"github.com/RotomDaPesteBR/el-shadai/service/order"
)

func (s *Server) confirmOrder(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFrom(r)
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var input order.CheckoutInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeMessage(w, http.StatusBadRequest, "Malformed request body")
		return
	}

	summary, err := s.orders.Checkout(r.Context(), identity.UserID, input)
	if err != nil {
		s.writeOrderError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Order confirmed successfully",
		"order":   summary,
	})
}

func (s *Server) userOrders(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFrom(r)
	if err != nil {
		writeUnauthorized(w)
		return
	}

	orders, err := s.orders.ClientOrders(r.Context(), identity.UserID)
	if err != nil {
		s.writeOrderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (s *Server) orderDetails(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFrom(r)
	if err != nil {
		writeUnauthorized(w)
		return
	}

	orderID, err := pathID(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid Order ID")
		return
	}

	details, err := s.orders.OrderDetails(r.Context(), orderID, identity.UserID)
	if err != nil {
		s.writeOrderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order": details})
}

func (s *Server) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFrom(r)
	if err != nil || !identity.hasAnyRole(model.RoleDelivery, model.RoleAdmin) {
		writeUnauthorized(w)
		return
	}

	orderID, err := pathID(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid Order ID")
		return
	}

	var body struct {
		NewStatus string `json:"newStatus"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.NewStatus == "" {
		writeMessage(w, http.StatusBadRequest, "New status is required")
		return
	}

	if err := s.orders.UpdateStatus(r.Context(), orderID, body.NewStatus); err != nil {
		s.writeOrderError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Order status updated successfully")
}

func (s *Server) deliveryOrders(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFrom(r)
	if err != nil || !identity.hasAnyRole(model.RoleDelivery, model.RoleAdmin) {
		writeUnauthorized(w)
		return
	}

	orders, err := s.orders.PendingDeliveryOrders(r.Context())
	if err != nil {
		s.writeOrderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (s *Server) dashboardMetrics(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFrom(r)
	if err != nil || !identity.hasAnyRole(model.RoleAdmin) {
		writeUnauthorized(w)
		return
	}

	metrics, err := s.orders.DashboardMetrics(r.Context())
	if err != nil {
		s.writeOrderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, metrics)
}

// writeOrderError maps service errors to the response contract: stock errors
// carry per-product detail, user-input failures are plain 400s, everything
// else is a generic 500 with the detail kept server-side.
func (s *Server) writeOrderError(w http.ResponseWriter, r *http.Request, err error) {
	if items := order.StockErrorItems(err); items != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"message": "Stock validation failed",
			"errors":  items,
		})
		return
	}
	if order.IsUserInputError(err) {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	if errors.Is(err, order.ErrOrderNotFound) {
		writeMessage(w, http.StatusNotFound, "Order not found")
		return
	}

	log.Printf("Error in %s %s: %s", r.Method, r.URL.Path, err)
	writeMessage(w, http.StatusInternalServerError, "Internal Server Error")
}
