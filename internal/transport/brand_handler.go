package transport

import (
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BrandRequest represents the brand create payload
type BrandRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=50"`
	Description string `json:"description" validate:"max=500"`
}

// BrandUpdateRequest represents a partial brand update
type BrandUpdateRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=2,max=50"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
}

// BrandHandler handles HTTP requests for brands
type BrandHandler struct {
	brandService service.BrandService
	logger       *zap.Logger
}

// NewBrandHandler creates a new BrandHandler
func NewBrandHandler(brandService service.BrandService, logger *zap.Logger) *BrandHandler {
	return &BrandHandler{
		brandService: brandService,
		logger:       logger,
	}
}

// RegisterRoutes registers all brand routes
func (h *BrandHandler) RegisterRoutes(r chi.Router, authMiddleware, adminMiddleware func(http.Handler) http.Handler) {
	r.Route("/brands", func(r chi.Router) {
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

func (h *BrandHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req BrandRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	brand, err := h.brandService.Create(r.Context(), service.BrandInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		respondWithServiceError(w, h.logger, "Brand create", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, brand)
}

func (h *BrandHandler) List(w http.ResponseWriter, r *http.Request) {
	brands, err := h.brandService.List(r.Context())
	if err != nil {
		respondWithServiceError(w, h.logger, "Brand list", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, brands)
}

func (h *BrandHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	brand, err := h.brandService.Get(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, h.logger, "Brand lookup", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, brand)
}

func (h *BrandHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req BrandUpdateRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	brand, err := h.brandService.Update(r.Context(), id, service.BrandUpdate{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		respondWithServiceError(w, h.logger, "Brand update", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, brand)
}

func (h *BrandHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.brandService.Delete(r.Context(), id); err != nil {
		respondWithServiceError(w, h.logger, "Brand delete", err)
		return
	}

	h.logger.Info("Brand deleted", zap.String("brand_id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}
