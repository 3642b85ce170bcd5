package transport

import (
	"errors"
	"io"
	"net/http"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	// RequestBodyLimit caps ordinary JSON bodies
	RequestBodyLimit = 15 << 10
	// WebhookBodyLimit caps payment provider event payloads
	WebhookBodyLimit = 64 << 10

	signatureHeader = "Stripe-Signature"
)

// UpdateOrderStatusRequest represents the admin status change payload
type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending dispatched completed"`
}

// OrderHandler handles checkout, order reads and administration, and
// payment webhooks
type OrderHandler struct {
	checkoutService service.CheckoutService
	orderService    service.OrderService
	logger          *zap.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(checkoutService service.CheckoutService, orderService service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		checkoutService: checkoutService,
		orderService:    orderService,
		logger:          logger,
	}
}

// RegisterRoutes registers all order routes. The webhook reads a larger raw
// body than the other routes, so body limits are applied here.
func (h *OrderHandler) RegisterRoutes(r chi.Router, identityMiddleware, authMiddleware, adminMiddleware func(http.Handler) http.Handler) {
	r.Route("/orders", func(r chi.Router) {
		r.With(middleware.BodyLimit(WebhookBodyLimit)).Post("/webhook", h.Webhook)

		r.Group(func(r chi.Router) {
			r.Use(middleware.BodyLimit(RequestBodyLimit))

			r.With(identityMiddleware).Post("/checkout", h.Checkout)

			r.Group(func(r chi.Router) {
				r.Use(authMiddleware)
				r.Get("/", h.ListOrders)
				r.Get("/{orderId}", h.GetOrder)

				r.Group(func(r chi.Router) {
					r.Use(adminMiddleware)
					r.Patch("/{orderId}/status", h.UpdateStatus)
					r.Delete("/{orderId}", h.DeleteOrder)
				})
			})
		})
	})
}

// Checkout turns the caller's cart into a pending order and a hosted
// payment session
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	session, err := h.checkoutService.CreateCheckoutSession(r.Context(), identity)
	if err != nil {
		respondWithServiceError(w, h.logger, "Checkout", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, session)
}

func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	orders, err := h.orderService.GetUserOrders(r.Context(), identity)
	if err != nil {
		respondWithServiceError(w, h.logger, "Order list", err)
		return
	}
	if orders == nil {
		orders = []*domain.Order{}
	}

	middleware.RespondWithJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	orderID, ok := pathID(w, r, "orderId")
	if !ok {
		return
	}

	order, err := h.orderService.GetOrderByID(r.Context(), identity, orderID)
	if err != nil {
		respondWithServiceError(w, h.logger, "Order lookup", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "orderId")
	if !ok {
		return
	}

	var req UpdateOrderStatusRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	order, err := h.orderService.UpdateOrderStatus(r.Context(), orderID, domain.OrderStatus(req.Status))
	if err != nil {
		respondWithServiceError(w, h.logger, "Order status update", err)
		return
	}

	h.logger.Info("Order status updated",
		zap.String("order_id", orderID.String()),
		zap.String("status", string(order.Status)),
	)
	middleware.RespondWithJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "orderId")
	if !ok {
		return
	}

	if err := h.orderService.DeleteOrder(r.Context(), orderID); err != nil {
		respondWithServiceError(w, h.logger, "Order delete", err)
		return
	}

	h.logger.Info("Order deleted", zap.String("order_id", orderID.String()))
	w.WriteHeader(http.StatusNoContent)
}

// Webhook acknowledges payment provider events. Anything other than a
// signature failure or an internal error is acknowledged with 200.
func (h *OrderHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			middleware.RespondWithError(w, http.StatusRequestEntityTooLarge, "payload too large")
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	if err := h.checkoutService.HandleWebhook(r.Context(), payload, r.Header.Get(signatureHeader)); err != nil {
		if errors.Is(err, domain.ErrSignatureInvalid) {
			h.logger.Warn("Rejected webhook", zap.Error(err))
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid signature")
			return
		}
		respondWithServiceError(w, h.logger, "Webhook", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]bool{"received": true})
}
