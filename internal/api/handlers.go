package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/example/storefront/internal/catalog"
	"github.com/example/storefront/internal/infrastructure/docstore"
	"github.com/example/storefront/internal/inventory"
	"github.com/example/storefront/internal/order"
)

// Handlers is the thin glue between HTTP and the services. Validation
// errors surface with detail; store failures are logged and reported
// generically.
type Handlers struct {
	catalog  *catalog.Service
	engine   *inventory.Engine
	recorder *order.Recorder
}

func NewHandlers(catalogSvc *catalog.Service, engine *inventory.Engine, recorder *order.Recorder) *Handlers {
	return &Handlers{
		catalog:  catalogSvc,
		engine:   engine,
		recorder: recorder,
	}
}

// GetProducts serves the full product listing.
func (h *Handlers) GetProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListAll(r.Context())
	if err != nil {
		log.Printf("[API] Failed to fetch products: %v", err)
		respondJSON(w, http.StatusInternalServerError, message("failed to fetch the products"))
		return
	}
	respondJSON(w, http.StatusOK, nonNil(products))
}

// CreateOrder records an order. It does not touch inventory; the client
// sequences the availability update as a separate call.
func (h *Handlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name       string       `json:"name"`
		Phone      string       `json:"phone"`
		TotalPrice float64      `json:"totalPrice"`
		Order      []order.Line `json:"order"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, message("invalid request body"))
		return
	}

	for _, line := range req.Order {
		if _, err := docstore.ParseID(line.ProductID.String()); err != nil {
			respondJSON(w, http.StatusBadRequest, message("invalid product id "+line.ProductID.String()))
			return
		}
	}

	id, err := h.recorder.Create(r.Context(), req.Name, req.Phone, req.TotalPrice, req.Order)
	if err != nil {
		if errors.Is(err, order.ErrMissingContact) {
			respondJSON(w, http.StatusBadRequest, message("name and phone are required"))
			return
		}
		log.Printf("[API] Failed to create order: %v", err)
		respondJSON(w, http.StatusInternalServerError, message("failed to create the order"))
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"message": "order created successfully",
		"orderId": id.String(),
	})
}

// UpdateAvailability reserves stock for a submitted cart.
func (h *Handlers) UpdateAvailability(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Cart []struct {
			ID string `json:"_id"`
		} `json:"cart"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Cart) == 0 {
		respondJSON(w, http.StatusBadRequest, message("cart must not be an empty array"))
		return
	}

	cart := make([]docstore.ID, len(req.Cart))
	for i, item := range req.Cart {
		id, err := docstore.ParseID(item.ID)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, message("invalid product id "+item.ID))
			return
		}
		cart[i] = id
	}

	if err := h.engine.Reserve(r.Context(), cart); err != nil {
		switch {
		case errors.Is(err, inventory.ErrEmptyCart):
			respondJSON(w, http.StatusBadRequest, message("cart must not be an empty array"))
		case errors.Is(err, inventory.ErrProductNotFound):
			respondJSON(w, http.StatusNotFound, message(err.Error()))
		case errors.Is(err, inventory.ErrInsufficientStock):
			respondJSON(w, http.StatusBadRequest, message(err.Error()))
		default:
			log.Printf("[API] Failed to update availability: %v", err)
			respondJSON(w, http.StatusInternalServerError, message("failed to update product availability"))
		}
		return
	}

	h.catalog.Invalidate(r.Context())
	respondJSON(w, http.StatusOK, message("product availability updated successfully"))
}

// Search serves the free-text / numeric product search.
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("query")

	products, err := h.catalog.Search(r.Context(), term)
	if err != nil {
		if errors.Is(err, catalog.ErrEmptyQuery) {
			respondJSON(w, http.StatusBadRequest, message("search query is required"))
			return
		}
		log.Printf("[API] Failed to search products: %v", err)
		respondJSON(w, http.StatusInternalServerError, message("failed to search products"))
		return
	}

	respondJSON(w, http.StatusOK, nonNil(products))
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func message(text string) map[string]string {
	return map[string]string{"message": text}
}

func nonNil(docs []docstore.Document) []docstore.Document {
	if docs == nil {
		return []docstore.Document{}
	}
	return docs
}
