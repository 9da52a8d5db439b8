package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/RotomDaPesteBR/el-shadai/model"
	"github.com/RotomDaPesteBR/el-shadai/service/catalog"
)

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.catalog.Products(r.Context())
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": products})
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := pathID(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	product, err := s.catalog.Product(r.Context(), productID)
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"product": product})
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFrom(r)
	if err != nil || !identity.hasAnyRole(model.RoleAdmin) {
		writeUnauthorized(w)
		return
	}

	var input catalog.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeMessage(w, http.StatusBadRequest, "Malformed request body")
		return
	}

	product, err := s.catalog.CreateProduct(r.Context(), input)
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"product": product})
}

func (s *Server) updateProduct(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFrom(r)
	if err != nil || !identity.hasAnyRole(model.RoleAdmin) {
		writeUnauthorized(w)
		return
	}

	productID, err := pathID(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	var input catalog.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeMessage(w, http.StatusBadRequest, "Malformed request body")
		return
	}

	if err := s.catalog.UpdateProduct(r.Context(), productID, input); err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Product updated successfully")
}

func (s *Server) updateProductStock(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFrom(r)
	if err != nil || !identity.hasAnyRole(model.RoleAdmin) {
		writeUnauthorized(w)
		return
	}

	productID, err := pathID(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	var body struct {
		Stock json.Number `json:"stock"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeMessage(w, http.StatusBadRequest, "Malformed request body")
		return
	}
	stock, err := strconv.Atoi(body.Stock.String())
	if err != nil || stock < 0 {
		writeMessage(w, http.StatusBadRequest, "Invalid stock quantity")
		return
	}

	if err := s.catalog.SetStock(r.Context(), productID, stock); err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Product stock updated successfully")
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.catalog.Categories(r.Context())
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": categories})
}

func (s *Server) createCategory(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFrom(r)
	if err != nil || !identity.hasAnyRole(model.RoleAdmin) {
		writeUnauthorized(w)
		return
	}

	var body struct {
		CategoryName string `json:"categoryName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeMessage(w, http.StatusBadRequest, "Malformed request body")
		return
	}

	category, err := s.catalog.CreateCategory(r.Context(), body.CategoryName)
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"category": category})
}

func (s *Server) writeCatalogError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, catalog.ErrProductNotFound):
		writeMessage(w, http.StatusNotFound, "Product not found")
	case errors.Is(err, catalog.ErrCategoryExists):
		writeMessage(w, http.StatusConflict, err.Error())
	case errors.Is(err, catalog.ErrInvalidProduct),
		errors.Is(err, catalog.ErrInvalidStock),
		errors.Is(err, catalog.ErrInvalidCategory):
		writeMessage(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("Error in %s %s: %s", r.Method, r.URL.Path, err)
		writeMessage(w, http.StatusInternalServerError, "Internal Server Error")
	}
}
