package service

import (
	"context"
	"sort"
	"strings"
	"sync"

	"storefront/internal/domain"
	"storefront/internal/payment"
	"storefront/internal/repository"

	"github.com/google/uuid"
)

// Mock repositories for testing

type mockUserRepository struct {
	users map[string]*domain.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: make(map[string]*domain.User)}
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if _, exists := m.users[user.Email]; exists {
		return repository.ErrUserAlreadyExists
	}
	m.users[user.Email] = user
	return nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, exists := m.users[email]
	if !exists {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	for _, user := range m.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) MarkVerified(ctx context.Context, id uuid.UUID) error {
	user, err := m.FindByID(ctx, id)
	if err != nil {
		return err
	}
	user.IsVerified = true
	return nil
}

type mockOTPRepository struct {
	otps map[string]*domain.OTP
}

func newMockOTPRepository() *mockOTPRepository {
	return &mockOTPRepository{otps: make(map[string]*domain.OTP)}
}

func (m *mockOTPRepository) Upsert(ctx context.Context, otp *domain.OTP) error {
	stored := *otp
	stored.Attempts = 0
	m.otps[otp.Email] = &stored
	return nil
}

func (m *mockOTPRepository) FindByEmail(ctx context.Context, email string) (*domain.OTP, error) {
	otp, ok := m.otps[email]
	if !ok {
		return nil, repository.ErrOTPNotFound
	}
	copied := *otp
	return &copied, nil
}

func (m *mockOTPRepository) IncrementAttempts(ctx context.Context, email string) error {
	otp, ok := m.otps[email]
	if !ok {
		return repository.ErrOTPNotFound
	}
	otp.Attempts++
	return nil
}

func (m *mockOTPRepository) Delete(ctx context.Context, email string) error {
	delete(m.otps, email)
	return nil
}

type mockRefreshTokenRepository struct {
	tokens map[string]*domain.RefreshToken
}

func newMockRefreshTokenRepository() *mockRefreshTokenRepository {
	return &mockRefreshTokenRepository{tokens: make(map[string]*domain.RefreshToken)}
}

func (m *mockRefreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	m.tokens[token.TokenHash] = token
	return nil
}

func (m *mockRefreshTokenRepository) FindByHash(ctx context.Context, hash string) (*domain.RefreshToken, error) {
	token, ok := m.tokens[hash]
	if !ok {
		return nil, repository.ErrRefreshTokenNotFound
	}
	return token, nil
}

func (m *mockRefreshTokenRepository) DeleteByHash(ctx context.Context, hash string) error {
	if _, ok := m.tokens[hash]; !ok {
		return repository.ErrRefreshTokenNotFound
	}
	delete(m.tokens, hash)
	return nil
}

func (m *mockRefreshTokenRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	for hash, token := range m.tokens {
		if token.UserID == userID {
			delete(m.tokens, hash)
		}
	}
	return nil
}

type mockCategoryRepository struct {
	categories map[uuid.UUID]*domain.Category
}

func newMockCategoryRepository() *mockCategoryRepository {
	return &mockCategoryRepository{categories: make(map[uuid.UUID]*domain.Category)}
}

func (m *mockCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	m.categories[category.ID] = category
	return nil
}

func (m *mockCategoryRepository) Update(ctx context.Context, category *domain.Category) error {
	if _, ok := m.categories[category.ID]; !ok {
		return repository.ErrCategoryNotFound
	}
	m.categories[category.ID] = category
	return nil
}

func (m *mockCategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.categories[id]; !ok {
		return repository.ErrCategoryNotFound
	}
	delete(m.categories, id)
	return nil
}

func (m *mockCategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	out := make([]*domain.Category, 0, len(m.categories))
	for _, c := range m.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	c, ok := m.categories[id]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	copied := *c
	return &copied, nil
}

func (m *mockCategoryRepository) NameExists(ctx context.Context, name string, excludeID uuid.UUID) (bool, error) {
	for id, c := range m.categories {
		if id != excludeID && strings.EqualFold(c.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

type mockBrandRepository struct {
	brands map[uuid.UUID]*domain.Brand
}

func newMockBrandRepository() *mockBrandRepository {
	return &mockBrandRepository{brands: make(map[uuid.UUID]*domain.Brand)}
}

func (m *mockBrandRepository) Create(ctx context.Context, brand *domain.Brand) error {
	m.brands[brand.ID] = brand
	return nil
}

func (m *mockBrandRepository) Update(ctx context.Context, brand *domain.Brand) error {
	if _, ok := m.brands[brand.ID]; !ok {
		return repository.ErrBrandNotFound
	}
	m.brands[brand.ID] = brand
	return nil
}

func (m *mockBrandRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.brands[id]; !ok {
		return repository.ErrBrandNotFound
	}
	delete(m.brands, id)
	return nil
}

func (m *mockBrandRepository) List(ctx context.Context) ([]*domain.Brand, error) {
	out := make([]*domain.Brand, 0, len(m.brands))
	for _, b := range m.brands {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockBrandRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Brand, error) {
	b, ok := m.brands[id]
	if !ok {
		return nil, repository.ErrBrandNotFound
	}
	copied := *b
	return &copied, nil
}

func (m *mockBrandRepository) NameExists(ctx context.Context, name string, excludeID uuid.UUID) (bool, error) {
	for id, b := range m.brands {
		if id != excludeID && strings.EqualFold(b.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

type mockProductRepository struct {
	mu       sync.Mutex
	products map[uuid.UUID]*domain.Product
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{products: make(map[uuid.UUID]*domain.Product)}
}

func (m *mockProductRepository) add(p *domain.Product) *domain.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	m.products[p.ID] = p
	return p
}

func (m *mockProductRepository) stock(id uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products[id].Stock
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	m.add(product)
	return nil
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[product.ID]; !ok {
		return repository.ErrProductNotFound
	}
	m.products[product.ID] = product
	return nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	copied := *p
	return &copied, nil
}

func (m *mockProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[uuid.UUID]*domain.Product, len(ids))
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			copied := *p
			out[id] = &copied
		}
	}
	return out, nil
}

func (m *mockProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Product
	for _, p := range m.products {
		if filter.CategoryID != nil && p.CategoryID != *filter.CategoryID {
			continue
		}
		if filter.BrandID != nil && p.BrandID != *filter.BrandID {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	total := len(out)
	start := (filter.Page - 1) * filter.PageSize
	if start > total {
		start = total
	}
	end := start + filter.PageSize
	if end > total {
		end = total
	}
	return out[start:end], total, nil
}

func (m *mockProductRepository) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok || p.Stock < quantity {
		return false, nil
	}
	p.Stock -= quantity
	return true, nil
}

// mockCartRepository stores lines per owner, keeping insertion order
type mockCartRepository struct {
	carts map[string][]domain.CartLine
}

func newMockCartRepository() *mockCartRepository {
	return &mockCartRepository{carts: make(map[string][]domain.CartLine)}
}

func (m *mockCartRepository) Lines(ctx context.Context, owner string) ([]domain.CartLine, error) {
	lines := append([]domain.CartLine{}, m.carts[owner]...)
	return lines, nil
}

func (m *mockCartRepository) SetQuantity(ctx context.Context, owner string, productID uuid.UUID, quantity int) error {
	for i, line := range m.carts[owner] {
		if line.ProductID == productID {
			m.carts[owner][i].Quantity = quantity
			return nil
		}
	}
	m.carts[owner] = append(m.carts[owner], domain.CartLine{ProductID: productID, Quantity: quantity})
	return nil
}

func (m *mockCartRepository) AddQuantity(ctx context.Context, owner string, productID uuid.UUID, delta int) error {
	for i, line := range m.carts[owner] {
		if line.ProductID == productID {
			m.carts[owner][i].Quantity += delta
			return nil
		}
	}
	m.carts[owner] = append(m.carts[owner], domain.CartLine{ProductID: productID, Quantity: delta})
	return nil
}

func (m *mockCartRepository) Remove(ctx context.Context, owner string, productID uuid.UUID) error {
	lines := m.carts[owner][:0]
	for _, line := range m.carts[owner] {
		if line.ProductID != productID {
			lines = append(lines, line)
		}
	}
	m.carts[owner] = lines
	return nil
}

func (m *mockCartRepository) Clear(ctx context.Context, owner string) error {
	delete(m.carts, owner)
	return nil
}

type mockOrderRepository struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*domain.Order
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{orders: make(map[uuid.UUID]*domain.Order)}
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.PaymentSession == order.PaymentSession {
			return repository.ErrDuplicatePaymentSession
		}
	}
	copied := *order
	m.orders[order.ID] = &copied
	return nil
}

func (m *mockOrderRepository) find(match func(*domain.Order) bool) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if match(o) {
			copied := *o
			return &copied, nil
		}
	}
	return nil, repository.ErrOrderNotFound
}

func (m *mockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return m.find(func(o *domain.Order) bool { return o.ID == id })
}

func (m *mockOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return m.FindByID(ctx, id)
}

func (m *mockOrderRepository) FindByPaymentSession(ctx context.Context, sessionID string) (*domain.Order, error) {
	return m.find(func(o *domain.Order) bool { return o.PaymentSession == sessionID })
}

func (m *mockOrderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.Order{}
	for _, o := range m.orders {
		if o.OwnedBy(userID) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	o.Status = status
	return nil
}

func (m *mockOrderRepository) MarkStockDeducted(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	o.StockDeducted = true
	return nil
}

func (m *mockOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[id]; !ok {
		return repository.ErrOrderNotFound
	}
	delete(m.orders, id)
	return nil
}

func (m *mockOrderRepository) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

// mockTxManager restores product stock and order state when the unit of
// work fails, mirroring a database rollback.
type mockTxManager struct {
	orders   *mockOrderRepository
	products *mockProductRepository
}

func (m *mockTxManager) WithinTx(ctx context.Context, fn func(repos repository.TxRepos) error) error {
	stock := map[uuid.UUID]int{}
	m.products.mu.Lock()
	for id, p := range m.products.products {
		stock[id] = p.Stock
	}
	m.products.mu.Unlock()

	orders := map[uuid.UUID]domain.Order{}
	m.orders.mu.Lock()
	for id, o := range m.orders.orders {
		orders[id] = *o
	}
	m.orders.mu.Unlock()

	err := fn(repository.TxRepos{Orders: m.orders, Products: m.products})
	if err == nil {
		return nil
	}

	m.products.mu.Lock()
	for id, s := range stock {
		if p, ok := m.products.products[id]; ok {
			p.Stock = s
		}
	}
	m.products.mu.Unlock()

	m.orders.mu.Lock()
	for id, saved := range orders {
		if o, ok := m.orders.orders[id]; ok {
			o.Status = saved.Status
			o.StockDeducted = saved.StockDeducted
		}
	}
	m.orders.mu.Unlock()
	return err
}

type mockPaymentProvider struct {
	sessions  []payment.SessionRequest
	createErr error
	event     *payment.Event
	verifyErr error
	seq       int
}

func (m *mockPaymentProvider) CreateSession(ctx context.Context, req payment.SessionRequest) (*payment.Session, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.sessions = append(m.sessions, req)
	m.seq++
	id := "cs_test_" + uuid.NewString()
	return &payment.Session{ID: id, URL: "https://checkout.example.com/" + id}, nil
}

func (m *mockPaymentProvider) VerifyWebhook(payload []byte, signature string) (*payment.Event, error) {
	if m.verifyErr != nil {
		return nil, m.verifyErr
	}
	return m.event, nil
}

type sentMessage struct {
	email string
	code  string
	order *domain.Order
}

type mockNotifier struct {
	otps    []sentMessage
	orders  []sentMessage
	otpErr  error
	sendErr error
}

func (m *mockNotifier) SendOTP(ctx context.Context, email, code string) error {
	if m.otpErr != nil {
		return m.otpErr
	}
	m.otps = append(m.otps, sentMessage{email: email, code: code})
	return nil
}

func (m *mockNotifier) SendOrderConfirmation(ctx context.Context, email string, order *domain.Order) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.orders = append(m.orders, sentMessage{email: email, order: order})
	return nil
}

func (m *mockNotifier) lastCode() string {
	if len(m.otps) == 0 {
		return ""
	}
	return m.otps[len(m.otps)-1].code
}
