package transport

import (
	"errors"
	"net/http"
	"strconv"

	"minimal-price/internal/middleware"
	"minimal-price/internal/repository"
	"minimal-price/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CreateCategoryRequest is the payload for creating a category
type CreateCategoryRequest struct {
	Name string `json:"name" validate:"required,min=1,max=255"`
}

// UpsertProductRequest is the payload for adding or re-pricing a product
type UpsertProductRequest struct {
	Price *float64 `json:"price" validate:"required,gte=0"`
}

// RenameRequest is the payload for renaming a category or product
type RenameRequest struct {
	Name string `json:"name" validate:"required,min=1,max=255"`
}

// RenameProductResponse reports how many products the rename touched
type RenameProductResponse struct {
	Renamed int64 `json:"renamed"`
}

// CatalogHandler handles HTTP requests for the price catalog
type CatalogHandler struct {
	catalog service.CatalogService
	logger  *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalog service.CatalogService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalog: catalog,
		logger:  logger,
	}
}

// RegisterRoutes registers catalog routes. editMiddleware guards mutations.
func (h *CatalogHandler) RegisterRoutes(r chi.Router, editMiddleware ...func(http.Handler) http.Handler) {
	r.Route("/api", func(r chi.Router) {
		// Public read routes
		r.Get("/categories", h.ListCategories)
		r.Get("/categories/{categoryID}/products", h.ListProducts)

		// Mutation routes
		r.Group(func(r chi.Router) {
			r.Use(editMiddleware...)
			r.Post("/categories", h.CreateCategory)
			r.Patch("/categories/{category}", h.RenameCategory)
			r.Put("/categories/{category}/products/{product}", h.UpsertProduct)
			r.Patch("/products/{product}", h.RenameProduct)
		})
	})
}

// ListCategories returns all categories from the cache
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, h.catalog.Categories())
}

// ListProducts returns the cached products of one category. An unknown id
// yields an empty list, matching the cache contract.
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	categoryID, err := strconv.ParseInt(chi.URLParam(r, "categoryID"), 10, 64)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category id")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, h.catalog.Products(categoryID))
}

// CreateCategory creates a new category
func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CreateCategoryRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.catalog.CreateCategory(r.Context(), req.Name); err != nil {
		h.respondCatalogError(w, err, "Failed to create category")
		return
	}

	w.WriteHeader(http.StatusCreated)
}

// UpsertProduct adds a product or updates its price
func (h *CatalogHandler) UpsertProduct(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	product := chi.URLParam(r, "product")

	var req UpsertProductRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.catalog.AddOrUpdateProduct(r.Context(), category, product, *req.Price); err != nil {
		h.respondCatalogError(w, err, "Failed to upsert product")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RenameCategory renames a category, keeping its id and products
func (h *CatalogHandler) RenameCategory(w http.ResponseWriter, r *http.Request) {
	oldName := chi.URLParam(r, "category")

	var req RenameRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.catalog.RenameCategory(r.Context(), oldName, req.Name); err != nil {
		h.respondCatalogError(w, err, "Failed to rename category")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RenameProduct renames every product with the given name across all
// categories and reports the affected count; 0 maps to 404.
func (h *CatalogHandler) RenameProduct(w http.ResponseWriter, r *http.Request) {
	oldName := chi.URLParam(r, "product")

	var req RenameRequest
	if !h.decode(w, r, &req) {
		return
	}

	count, err := h.catalog.RenameProduct(r.Context(), oldName, req.Name)
	if err != nil {
		h.respondCatalogError(w, err, "Failed to rename product")
		return
	}

	if count == 0 {
		middleware.RespondWithError(w, http.StatusNotFound, "product not found")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, RenameProductResponse{Renamed: count})
}

func (h *CatalogHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := middleware.DecodeAndValidate(r, v); err != nil {
		h.logger.Debug("Request validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return false
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (h *CatalogHandler) respondCatalogError(w http.ResponseWriter, err error, logMsg string) {
	switch {
	case errors.Is(err, repository.ErrCategoryAlreadyExists):
		middleware.RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, repository.ErrCategoryNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNegativePrice):
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error(logMsg, zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}
