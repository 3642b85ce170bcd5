package transport

import (
	"net/http"
	"net/url"
	"strconv"

	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var minPrice = decimal.RequireFromString("0.01")

// ProductRequest represents the product create payload
type ProductRequest struct {
	Name        string          `json:"name" validate:"required,min=2,max=200"`
	Description string          `json:"description" validate:"required,min=10"`
	Price       decimal.Decimal `json:"price"`
	Stock       *int            `json:"stock" validate:"required,gte=0"`
	CategoryID  string          `json:"category_id" validate:"required,uuid"`
	BrandID     string          `json:"brand_id" validate:"required,uuid"`
	Images      []string        `json:"images" validate:"omitempty,dive,url"`
}

// ProductUpdateRequest represents a partial product update
type ProductUpdateRequest struct {
	Name        *string          `json:"name,omitempty" validate:"omitempty,min=2,max=200"`
	Description *string          `json:"description,omitempty" validate:"omitempty,min=10"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Stock       *int             `json:"stock,omitempty" validate:"omitempty,gte=0"`
	CategoryID  *string          `json:"category_id,omitempty" validate:"omitempty,uuid"`
	BrandID     *string          `json:"brand_id,omitempty" validate:"omitempty,uuid"`
	Images      []string         `json:"images,omitempty" validate:"omitempty,dive,url"`
}

// ProductHandler handles HTTP requests for products
type ProductHandler struct {
	productService service.ProductService
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// RegisterRoutes registers all product routes
func (h *ProductHandler) RegisterRoutes(r chi.Router, authMiddleware, adminMiddleware func(http.Handler) http.Handler) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware, adminMiddleware)
			r.Post("/", h.Create)
			r.Patch("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
		})
	})
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}
	if req.Price.LessThan(minPrice) {
		respondWithFieldError(w, "price", "Value must be greater than or equal to 0.01")
		return
	}

	product, err := h.productService.Create(r.Context(), service.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       *req.Stock,
		CategoryID:  uuid.MustParse(req.CategoryID),
		BrandID:     uuid.MustParse(req.BrandID),
		Images:      req.Images,
	})
	if err != nil {
		respondWithServiceError(w, h.logger, "Product create", err)
		return
	}

	h.logger.Info("Product created", zap.String("product_id", product.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// List handles GET /products?category_id=&brand_id=&search=&page=&page_size=&sort_by=&sort_order=
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	query, err := parseProductQuery(r.URL.Query())
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := h.productService.List(r.Context(), query)
	if err != nil {
		respondWithServiceError(w, h.logger, "Product list", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, page)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	product, err := h.productService.Get(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, h.logger, "Product lookup", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req ProductUpdateRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}
	if req.Price != nil && req.Price.LessThan(minPrice) {
		respondWithFieldError(w, "price", "Value must be greater than or equal to 0.01")
		return
	}

	update := service.ProductUpdate{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		Images:      req.Images,
	}
	if req.CategoryID != nil {
		categoryID := uuid.MustParse(*req.CategoryID)
		update.CategoryID = &categoryID
	}
	if req.BrandID != nil {
		brandID := uuid.MustParse(*req.BrandID)
		update.BrandID = &brandID
	}

	product, err := h.productService.Update(r.Context(), id, update)
	if err != nil {
		respondWithServiceError(w, h.logger, "Product update", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.productService.Delete(r.Context(), id); err != nil {
		respondWithServiceError(w, h.logger, "Product delete", err)
		return
	}

	h.logger.Info("Product deleted", zap.String("product_id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}

func parseProductQuery(values url.Values) (service.ProductQuery, error) {
	query := service.ProductQuery{
		Search:    values.Get("search"),
		SortBy:    values.Get("sort_by"),
		SortOrder: values.Get("sort_order"),
	}

	for _, f := range []struct {
		name string
		dst  **uuid.UUID
	}{
		{"category_id", &query.CategoryID},
		{"brand_id", &query.BrandID},
	} {
		raw := values.Get(f.name)
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return query, errInvalidQuery(f.name)
		}
		*f.dst = &id
	}

	for _, f := range []struct {
		name string
		dst  *int
	}{
		{"page", &query.Page},
		{"page_size", &query.PageSize},
	} {
		raw := values.Get(f.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return query, errInvalidQuery(f.name)
		}
		*f.dst = n
	}

	return query, nil
}
