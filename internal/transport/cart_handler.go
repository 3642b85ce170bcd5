package transport

import (
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AddToCartRequest adds quantity of a product; quantity defaults to 1
type AddToCartRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"omitempty,gte=1"`
}

// UpdateCartItemRequest sets a line's quantity; zero or less removes it
type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

// CartHandler handles HTTP requests for user and guest carts
type CartHandler struct {
	cartService service.CartService
	logger      *zap.Logger
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(cartService service.CartService, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		logger:      logger,
	}
}

// RegisterRoutes registers all cart routes behind identity resolution
func (h *CartHandler) RegisterRoutes(r chi.Router, identityMiddleware func(http.Handler) http.Handler) {
	r.Route("/cart", func(r chi.Router) {
		r.Use(identityMiddleware)
		r.Get("/", h.GetCart)
		r.Post("/", h.AddToCart)
		r.Delete("/", h.ClearCart)
		r.Patch("/items/{productId}", h.UpdateCartItem)
		r.Delete("/items/{productId}", h.RemoveFromCart)
	})
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	cart, err := h.cartService.GetCart(r.Context(), identity)
	if err != nil {
		respondWithServiceError(w, h.logger, "Cart lookup", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req AddToCartRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	cart, err := h.cartService.AddToCart(r.Context(), identity, uuid.MustParse(req.ProductID), req.Quantity)
	if err != nil {
		respondWithServiceError(w, h.logger, "Cart add", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	productID, ok := pathID(w, r, "productId")
	if !ok {
		return
	}

	var req UpdateCartItemRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	cart, err := h.cartService.UpdateCartItem(r.Context(), identity, productID, *req.Quantity)
	if err != nil {
		respondWithServiceError(w, h.logger, "Cart update", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	productID, ok := pathID(w, r, "productId")
	if !ok {
		return
	}

	cart, err := h.cartService.RemoveFromCart(r.Context(), identity, productID)
	if err != nil {
		respondWithServiceError(w, h.logger, "Cart remove", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	cart, err := h.cartService.ClearCart(r.Context(), identity)
	if err != nil {
		respondWithServiceError(w, h.logger, "Cart clear", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, cart)
}
