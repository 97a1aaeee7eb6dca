package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"minimal-price/internal/domain"
	"minimal-price/internal/repository"
	"minimal-price/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// stubService is a minimal in-memory CatalogService for handler tests
type stubService struct {
	mu         sync.Mutex
	categories map[string]int64
	products   map[int64]map[string]float64
	nextID     int64
}

func newStubService() *stubService {
	return &stubService{
		categories: map[string]int64{},
		products:   map[int64]map[string]float64{},
		nextID:     1,
	}
}

func (s *stubService) CreateCategory(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[name]; ok {
		return repository.ErrCategoryAlreadyExists
	}
	s.categories[name] = s.nextID
	s.products[s.nextID] = map[string]float64{}
	s.nextID++
	return nil
}

func (s *stubService) AddOrUpdateProduct(ctx context.Context, category, product string, price float64) error {
	if price < 0 {
		return service.ErrNegativePrice
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.categories[category]
	if !ok {
		return repository.ErrCategoryNotFound
	}
	s.products[id][product] = price
	return nil
}

func (s *stubService) RenameCategory(ctx context.Context, oldName, newName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.categories[oldName]
	if !ok {
		return repository.ErrCategoryNotFound
	}
	delete(s.categories, oldName)
	s.categories[newName] = id
	return nil
}

func (s *stubService) RenameProduct(ctx context.Context, oldName, newName string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, prods := range s.products {
		if price, ok := prods[oldName]; ok {
			delete(prods, oldName)
			prods[newName] = price
			count++
		}
	}
	return count, nil
}

func (s *stubService) Categories() []domain.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Category{}
	for name, id := range s.categories {
		out = append(out, domain.Category{ID: id, Name: name})
	}
	return out
}

func (s *stubService) Products(categoryID int64) []domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Product{}
	for name, price := range s.products[categoryID] {
		out = append(out, domain.Product{CategoryID: categoryID, Name: name, Price: price})
	}
	return out
}

func (s *stubService) Warm(ctx context.Context) error { return nil }

func newTestRouter(svc service.CatalogService) chi.Router {
	r := chi.NewRouter()
	h := NewCatalogHandler(svc, zap.NewNop())
	h.RegisterRoutes(r)
	return r
}

func doJSON(t *testing.T, router chi.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateCategory_Created(t *testing.T) {
	router := newTestRouter(newStubService())

	rec := doJSON(t, router, http.MethodPost, "/api/categories", map[string]string{"name": "Ores"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCreateCategory_Duplicate(t *testing.T) {
	svc := newStubService()
	router := newTestRouter(svc)

	doJSON(t, router, http.MethodPost, "/api/categories", map[string]string{"name": "Ores"})
	rec := doJSON(t, router, http.MethodPost, "/api/categories", map[string]string{"name": "Ores"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("Expected 409, got %d", rec.Code)
	}
}

func TestCreateCategory_ValidationFailure(t *testing.T) {
	router := newTestRouter(newStubService())

	rec := doJSON(t, router, http.MethodPost, "/api/categories", map[string]string{"name": ""})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
}

func TestUpsertProduct_NoContent(t *testing.T) {
	svc := newStubService()
	router := newTestRouter(svc)
	doJSON(t, router, http.MethodPost, "/api/categories", map[string]string{"name": "Food"})

	rec := doJSON(t, router, http.MethodPut, "/api/categories/Food/products/apple", map[string]float64{"price": 1.5})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestUpsertProduct_MissingCategory(t *testing.T) {
	router := newTestRouter(newStubService())

	rec := doJSON(t, router, http.MethodPut, "/api/categories/ghost/products/apple", map[string]float64{"price": 1.5})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", rec.Code)
	}
}

func TestUpsertProduct_NegativePrice(t *testing.T) {
	svc := newStubService()
	router := newTestRouter(svc)
	doJSON(t, router, http.MethodPost, "/api/categories", map[string]string{"name": "Food"})

	rec := doJSON(t, router, http.MethodPut, "/api/categories/Food/products/apple", map[string]float64{"price": -2})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
}

func TestUpsertProduct_MissingPriceField(t *testing.T) {
	svc := newStubService()
	router := newTestRouter(svc)
	doJSON(t, router, http.MethodPost, "/api/categories", map[string]string{"name": "Food"})

	rec := doJSON(t, router, http.MethodPut, "/api/categories/Food/products/apple", map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for missing price, got %d", rec.Code)
	}
}

func TestListProducts_UnknownCategoryIsEmptyList(t *testing.T) {
	router := newTestRouter(newStubService())

	rec := doJSON(t, router, http.MethodGet, "/api/categories/999/products", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var prods []domain.Product
	if err := json.Unmarshal(rec.Body.Bytes(), &prods); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(prods) != 0 {
		t.Errorf("Expected empty list, got %+v", prods)
	}
}

func TestListProducts_InvalidID(t *testing.T) {
	router := newTestRouter(newStubService())

	rec := doJSON(t, router, http.MethodGet, "/api/categories/abc/products", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
}

func TestRenameProduct_ReportsCount(t *testing.T) {
	svc := newStubService()
	router := newTestRouter(svc)
	doJSON(t, router, http.MethodPost, "/api/categories", map[string]string{"name": "Ores"})
	doJSON(t, router, http.MethodPost, "/api/categories", map[string]string{"name": "Tools"})
	doJSON(t, router, http.MethodPut, "/api/categories/Ores/products/iron", map[string]float64{"price": 5})
	doJSON(t, router, http.MethodPut, "/api/categories/Tools/products/iron", map[string]float64{"price": 9})

	rec := doJSON(t, router, http.MethodPatch, "/api/products/iron", map[string]string{"name": "steel"})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp RenameProductResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Renamed != 2 {
		t.Errorf("Expected 2 renamed, got %d", resp.Renamed)
	}
}

func TestRenameProduct_MissIs404(t *testing.T) {
	router := newTestRouter(newStubService())

	rec := doJSON(t, router, http.MethodPatch, "/api/products/ghost", map[string]string{"name": "spirit"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", rec.Code)
	}
}

func TestRenameCategory_NoContent(t *testing.T) {
	svc := newStubService()
	router := newTestRouter(svc)
	doJSON(t, router, http.MethodPost, "/api/categories", map[string]string{"name": "Ores"})

	rec := doJSON(t, router, http.MethodPatch, "/api/categories/Ores", map[string]string{"name": "Minerals"})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d", rec.Code)
	}
}
