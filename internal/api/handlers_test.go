package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/storefront/internal/catalog"
	"github.com/example/storefront/internal/infrastructure/docstore"
	"github.com/example/storefront/internal/inventory"
	"github.com/example/storefront/internal/order"
)

type testServer struct {
	router   http.Handler
	products docstore.Collection
	orders   docstore.Collection
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := docstore.NewMemoryStore()
	products := store.Collection("products")
	orders := store.Collection("orders")

	handlers := NewHandlers(
		catalog.NewService(products, nil),
		inventory.NewEngine(products, nil),
		order.NewRecorder(orders, nil),
	)
	return &testServer{
		router:   NewRouter(handlers, ""),
		products: products,
		orders:   orders,
	}
}

func (s *testServer) seedProduct(t *testing.T, doc docstore.Document) docstore.ID {
	t.Helper()
	id, err := s.products.InsertOne(context.Background(), doc)
	require.NoError(t, err)
	return id
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// ============================================
// GET /products
// ============================================

func TestGetProducts(t *testing.T) {
	srv := newTestServer(t)
	srv.seedProduct(t, docstore.Document{"name": "Chess Club", "availability": 5})
	srv.seedProduct(t, docstore.Document{"name": "Art Club", "availability": 3})

	rec := srv.do(http.MethodGet, "/products", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	var products []docstore.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &products))
	assert.Len(t, products, 2)
}

func TestGetProducts_EmptyCatalogIsAnArray(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(http.MethodGet, "/products", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestGetProducts_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(http.MethodPost, "/products", "{}")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

// ============================================
// POST /orders
// ============================================

func TestCreateOrder(t *testing.T) {
	srv := newTestServer(t)
	productID := docstore.NewID()

	body := `{
		"name": "Sam",
		"phone": "07700900000",
		"totalPrice": 21.5,
		"order": [{"_id": "` + productID.String() + `", "name": "Chess Club", "color": "red"}]
	}`
	rec := srv.do(http.MethodPost, "/orders", body)

	require.Equal(t, http.StatusCreated, rec.Code)
	response := decodeBody(t, rec)
	assert.Equal(t, "order created successfully", response["message"])

	orderID, err := docstore.ParseID(response["orderId"].(string))
	require.NoError(t, err)

	doc, err := srv.orders.FindByID(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, "Sam", doc["name"])
}

func TestCreateOrder_MissingContact(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing name", `{"phone": "07700900000", "totalPrice": 1, "order": []}`},
		{"missing phone", `{"name": "Sam", "totalPrice": 1, "order": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t)

			rec := srv.do(http.MethodPost, "/orders", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "name and phone are required", decodeBody(t, rec)["message"])
		})
	}
}

func TestCreateOrder_InvalidProductID(t *testing.T) {
	srv := newTestServer(t)

	body := `{"name": "Sam", "phone": "07700900000", "totalPrice": 1,
		"order": [{"_id": "not-a-valid-id", "name": "x"}]}`
	rec := srv.do(http.MethodPost, "/orders", body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateOrder_MalformedBody(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(http.MethodPost, "/orders", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ============================================
// PUT /products/updateAvailability
// ============================================

func TestUpdateAvailability(t *testing.T) {
	srv := newTestServer(t)
	id := srv.seedProduct(t, docstore.Document{"name": "Chess Club", "availability": 5})

	// Same product twice: demand of two units.
	body := `{"cart": [{"_id": "` + id.String() + `"}, {"_id": "` + id.String() + `"}]}`
	rec := srv.do(http.MethodPut, "/products/updateAvailability", body)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "product availability updated successfully", decodeBody(t, rec)["message"])

	doc, err := srv.products.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 3.0, doc["availability"])
}

func TestUpdateAvailability_EmptyCart(t *testing.T) {
	srv := newTestServer(t)

	for _, body := range []string{`{"cart": []}`, `{}`, `{"cart": "not-an-array"}`} {
		rec := srv.do(http.MethodPut, "/products/updateAvailability", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body: %s", body)
	}
}

func TestUpdateAvailability_UnknownProduct(t *testing.T) {
	srv := newTestServer(t)
	missing := docstore.NewID()

	body := `{"cart": [{"_id": "` + missing.String() + `"}]}`
	rec := srv.do(http.MethodPut, "/products/updateAvailability", body)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["message"], missing.String())
}

func TestUpdateAvailability_InsufficientStock(t *testing.T) {
	srv := newTestServer(t)
	id := srv.seedProduct(t, docstore.Document{"name": "Chess Club", "availability": 1})

	body := `{"cart": [{"_id": "` + id.String() + `"}, {"_id": "` + id.String() + `"}]}`
	rec := srv.do(http.MethodPut, "/products/updateAvailability", body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["message"], id.String())

	doc, err := srv.products.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 1, doc["availability"], "failed reservation must not decrement")
}

func TestUpdateAvailability_InvalidID(t *testing.T) {
	srv := newTestServer(t)

	body := `{"cart": [{"_id": "oops"}]}`
	rec := srv.do(http.MethodPut, "/products/updateAvailability", body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ============================================
// GET /search
// ============================================

func TestSearch(t *testing.T) {
	srv := newTestServer(t)
	srv.seedProduct(t, docstore.Document{"name": "Chess Club", "location": "Main Hall", "price": 7, "availability": 12})
	srv.seedProduct(t, docstore.Document{"name": "Football", "location": "Field", "price": 15, "availability": 7})
	srv.seedProduct(t, docstore.Document{"name": "Drama", "location": "Theatre", "price": 10, "availability": 10})

	rec := srv.do(http.MethodGet, "/search?query=7", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var docs []docstore.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &docs))
	assert.Len(t, docs, 2, "price 7 and availability 7 should match the numeric term")
}

func TestSearch_MissingQuery(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(http.MethodGet, "/search", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "search query is required", decodeBody(t, rec)["message"])
}

func TestSearch_NoResultsIsAnArray(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(http.MethodGet, "/search?query=nothing", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}
