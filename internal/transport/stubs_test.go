package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/payment"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "transport-test-secret"

// Service stubs: each method delegates to an optional func field and
// otherwise returns zero values.

type stubAuthService struct {
	service.AuthService
	register func(ctx context.Context, input service.RegisterInput) (*domain.User, error)
	login    func(ctx context.Context, email, password string) (*service.AuthResult, error)
}

func (s *stubAuthService) Register(ctx context.Context, input service.RegisterInput) (*domain.User, error) {
	return s.register(ctx, input)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*service.AuthResult, error) {
	return s.login(ctx, email, password)
}

type mergeCall struct {
	session string
	userID  uuid.UUID
}

type stubCartService struct {
	merges   []mergeCall
	mergeErr error
	added    []int
	updated  []int
	identity domain.Identity
	err      error
}

func (s *stubCartService) cart(identity domain.Identity) (*domain.Cart, error) {
	s.identity = identity
	if s.err != nil {
		return nil, s.err
	}
	return domain.NewCart(identity, nil), nil
}

func (s *stubCartService) GetCart(_ context.Context, identity domain.Identity) (*domain.Cart, error) {
	return s.cart(identity)
}

func (s *stubCartService) AddToCart(_ context.Context, identity domain.Identity, _ uuid.UUID, quantity int) (*domain.Cart, error) {
	s.added = append(s.added, quantity)
	return s.cart(identity)
}

func (s *stubCartService) UpdateCartItem(_ context.Context, identity domain.Identity, _ uuid.UUID, quantity int) (*domain.Cart, error) {
	s.updated = append(s.updated, quantity)
	return s.cart(identity)
}

func (s *stubCartService) RemoveFromCart(_ context.Context, identity domain.Identity, _ uuid.UUID) (*domain.Cart, error) {
	return s.cart(identity)
}

func (s *stubCartService) ClearCart(_ context.Context, identity domain.Identity) (*domain.Cart, error) {
	return s.cart(identity)
}

func (s *stubCartService) MergeGuestCart(_ context.Context, sessionToken string, userID uuid.UUID) error {
	s.merges = append(s.merges, mergeCall{session: sessionToken, userID: userID})
	return s.mergeErr
}

type stubProductService struct {
	service.ProductService
	created []service.ProductInput
	query   service.ProductQuery
	err     error
}

func (s *stubProductService) Create(_ context.Context, input service.ProductInput) (*domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.created = append(s.created, input)
	return &domain.Product{ID: uuid.New(), Name: input.Name, Price: input.Price, Stock: input.Stock}, nil
}

func (s *stubProductService) List(_ context.Context, query service.ProductQuery) (*service.ProductPage, error) {
	s.query = query
	return &service.ProductPage{Products: []*domain.Product{}, Page: 1, PageSize: service.DefaultPageSize}, nil
}

type stubCheckoutService struct {
	session    *payment.Session
	err        error
	identities []domain.Identity
	payloads   [][]byte
	signatures []string
	webhookErr error
}

func (s *stubCheckoutService) CreateCheckoutSession(_ context.Context, identity domain.Identity) (*payment.Session, error) {
	s.identities = append(s.identities, identity)
	return s.session, s.err
}

func (s *stubCheckoutService) HandleWebhook(_ context.Context, payload []byte, signature string) error {
	s.payloads = append(s.payloads, payload)
	s.signatures = append(s.signatures, signature)
	return s.webhookErr
}

type stubOrderService struct {
	service.OrderService
	order  *domain.Order
	err    error
	status domain.OrderStatus
}

func (s *stubOrderService) GetOrderByID(_ context.Context, _ domain.Identity, _ uuid.UUID) (*domain.Order, error) {
	return s.order, s.err
}

func (s *stubOrderService) GetUserOrders(_ context.Context, _ domain.Identity) ([]*domain.Order, error) {
	return nil, s.err
}

func (s *stubOrderService) UpdateOrderStatus(_ context.Context, _ uuid.UUID, status domain.OrderStatus) (*domain.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.status = status
	return &domain.Order{ID: uuid.New(), Status: status}, nil
}

// newTestRouter mounts handlers under /api/v1 the way the server does
func newTestRouter(register func(r chi.Router, mw routeMiddleware)) http.Handler {
	logger := zap.NewNop()
	mw := routeMiddleware{
		identity: middleware.OptionalIdentity(testSecret, logger),
		auth:     middleware.AuthMiddleware(testSecret, logger),
		admin:    middleware.RequireAdmin(logger),
	}

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		register(r, mw)
	})
	return r
}

type routeMiddleware struct {
	identity func(http.Handler) http.Handler
	auth     func(http.Handler) http.Handler
	admin    func(http.Handler) http.Handler
}

func bearer(t *testing.T, userID uuid.UUID, role string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": userID.String(),
		"role":   role,
		"exp":    time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + token
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}
