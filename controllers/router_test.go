package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bazario/models"
	"bazario/repository"
	"bazario/services"
)

type stubProvider struct {
	sessions map[string]int64
	paid     map[string]bool
	next     int
}

func (s *stubProvider) CreateSession(ctx context.Context, o *models.Order) (*services.CheckoutSession, error) {
	s.next++
	id := fmt.Sprintf("cs_test_%d", s.next)
	s.sessions[id] = o.ID
	return &services.CheckoutSession{ID: id, URL: "https://checkout.example.com/" + id}, nil
}

func (s *stubProvider) SessionOrder(ctx context.Context, sessionID string) (int64, bool, error) {
	orderID, ok := s.sessions[sessionID]
	if !ok {
		return 0, false, fmt.Errorf("no such session %q", sessionID)
	}
	return orderID, s.paid[sessionID], nil
}

type apiFixture struct {
	router   *gin.Engine
	accounts *services.AccountService
	store    *repository.MemoryStore
	provider *stubProvider
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := repository.NewMemoryStore()
	users := repository.NewMemoryUsers(store)
	products := repository.NewMemoryProducts(store)
	orders := repository.NewMemoryOrders(store)
	payments := repository.NewMemoryPayments(store)
	reviews := repository.NewMemoryReviews(store)
	notifications := repository.NewMemoryNotifications(store)
	outbox := repository.NewMemoryOutbox(store)
	tx := repository.NewMemoryTx(store)

	provider := &stubProvider{sessions: make(map[string]int64), paid: make(map[string]bool)}
	orderSvc := services.NewOrderService(orders, products, users, notifications, outbox, tx)
	accounts := services.NewAccountService(users, outbox, tx, "test-secret")

	router := NewRouter(RouterDeps{
		JWTSecret:     "test-secret",
		Users:         users,
		Profiles:      repository.NewMemoryVendorProfiles(store),
		Accounts:      accounts,
		Orders:        orderSvc,
		Payments:      services.NewPaymentService(payments, orderSvc, provider),
		Products:      services.NewProductService(products),
		Reviews:       services.NewReviewService(reviews, products),
		Notifications: services.NewNotificationService(notifications),
	})
	return &apiFixture{router: router, accounts: accounts, store: store, provider: provider}
}

func (f *apiFixture) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = strings.NewReader(string(data))
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

// signupVerified registers, verifies and logs in, returning the bearer token.
func (f *apiFixture) signupVerified(t *testing.T, name, email string) string {
	t.Helper()
	w := f.do(http.MethodPost, "/api/users/signup", "", gin.H{
		"name": name, "email": email, "password": "hunter22",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	ctx := context.Background()
	users := repository.NewMemoryUsers(f.store)
	u, err := users.GetByEmail(ctx, email)
	require.NoError(t, err)

	w = f.do(http.MethodGet, "/api/users/verify?token="+u.VerificationToken, "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(http.MethodPost, "/api/users/login", "", gin.H{"email": email, "password": "hunter22"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func (f *apiFixture) adminToken(t *testing.T) string {
	t.Helper()
	_, err := f.accounts.CreateAdmin(context.Background(), "Root", "root@example.com", "hunter22")
	require.NoError(t, err)
	w := f.do(http.MethodPost, "/api/users/login", "", gin.H{"email": "root@example.com", "password": "hunter22"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Token
}

func orderAddress() gin.H {
	return gin.H{
		"full_name": "Asha Nair", "house_name": "Rose Villa", "street": "MG Road",
		"city": "Kochi", "district": "Ernakulam", "pin": "682001",
		"mobile": "9876543210", "address_type": "home",
	}
}

func TestAuthRequired(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(http.MethodGet, "/api/users/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(http.MethodGet, "/api/users/profile", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginBeforeVerificationIsRejected(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(http.MethodPost, "/api/users/signup", "", gin.H{
		"name": "Asha", "email": "asha@example.com", "password": "hunter22",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.do(http.MethodPost, "/api/users/login", "", gin.H{"email": "asha@example.com", "password": "hunter22"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRoleGates(t *testing.T) {
	f := newAPIFixture(t)
	customer := f.signupVerified(t, "Asha", "asha@example.com")

	// customers cannot create products
	w := f.do(http.MethodPost, "/api/products", customer, gin.H{
		"name": "Ceramic Mug", "price": "10.00", "stock": 5,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// or read admin listings
	w = f.do(http.MethodGet, "/api/orders/admin", customer, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// or vendor notifications
	w = f.do(http.MethodGet, "/api/notifications", customer, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestOrderFlowOverHTTP(t *testing.T) {
	f := newAPIFixture(t)
	admin := f.adminToken(t)
	vendorTok := f.signupVerified(t, "Vikram", "vikram@example.com")
	customer := f.signupVerified(t, "Asha", "asha@example.com")

	// promote Vikram so he can sell
	users := repository.NewMemoryUsers(f.store)
	vendor, err := users.GetByEmail(context.Background(), "vikram@example.com")
	require.NoError(t, err)
	w := f.do(http.MethodPut, fmt.Sprintf("/api/users/%d/promote", vendor.ID), admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(http.MethodPost, "/api/products", vendorTok, gin.H{
		"name": "Ceramic Mug", "description": "a mug", "price": "10.00", "stock": 5, "category": "kitchen",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var product models.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &product))

	// mismatched total is rejected
	w = f.do(http.MethodPost, "/api/orders", customer, gin.H{
		"items":            []gin.H{{"product_id": product.ID, "quantity": 2}},
		"total_amount":     "19.00",
		"delivery_address": orderAddress(),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPost, "/api/orders", customer, gin.H{
		"items":            []gin.H{{"product_id": product.ID, "quantity": 2}},
		"total_amount":     "20.00",
		"delivery_address": orderAddress(),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var order models.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))
	assert.Equal(t, models.OrderPending, order.Status)

	// pay through the hosted-checkout round trip
	w = f.do(http.MethodPost, "/api/payments/pay", customer, gin.H{"order_id": order.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var session services.CheckoutSession
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &session))

	f.provider.paid[session.ID] = true
	w = f.do(http.MethodPost, "/api/payments/success", "", gin.H{"session_id": session.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// terminal states reject further transitions
	w = f.do(http.MethodPut, fmt.Sprintf("/api/orders/%d/status", order.ID), customer, gin.H{"status": "Delivered"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = f.do(http.MethodPut, fmt.Sprintf("/api/orders/%d/status", order.ID), customer, gin.H{"status": "Canceled"})
	assert.Equal(t, http.StatusConflict, w.Code)

	// unknown status names are a bad request
	w = f.do(http.MethodPut, fmt.Sprintf("/api/orders/%d/status", order.ID), customer, gin.H{"status": "Lost"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// the vendor sees the sale, the admin sees everything
	w = f.do(http.MethodGet, "/api/orders/vendor", vendorTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var sales []models.OrderWithCustomer
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sales))
	require.Len(t, sales, 1)
	assert.Equal(t, "asha@example.com", sales[0].CustomerEmail)

	w = f.do(http.MethodGet, "/api/orders/admin", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// vendor notifications were created by the order
	w = f.do(http.MethodGet, "/api/notifications", vendorTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var notes []models.Notification
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &notes))
	require.Len(t, notes, 1)
}

func TestOrderVisibility(t *testing.T) {
	f := newAPIFixture(t)
	admin := f.adminToken(t)
	vendorTok := f.signupVerified(t, "Vikram", "vikram@example.com")
	customer := f.signupVerified(t, "Asha", "asha@example.com")
	stranger := f.signupVerified(t, "Mallory", "mallory@example.com")

	users := repository.NewMemoryUsers(f.store)
	vendor, err := users.GetByEmail(context.Background(), "vikram@example.com")
	require.NoError(t, err)
	w := f.do(http.MethodPut, fmt.Sprintf("/api/users/%d/promote", vendor.ID), admin, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(http.MethodPost, "/api/products", vendorTok, gin.H{
		"name": "Ceramic Mug", "price": "10.00", "stock": 5,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var product models.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &product))

	w = f.do(http.MethodPost, "/api/orders", customer, gin.H{
		"items":            []gin.H{{"product_id": product.ID, "quantity": 1}},
		"total_amount":     "10.00",
		"delivery_address": orderAddress(),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var order models.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))

	path := fmt.Sprintf("/api/orders/%d", order.ID)
	w = f.do(http.MethodGet, path, customer, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = f.do(http.MethodGet, path, stranger, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = f.do(http.MethodGet, path, admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// deletion is admin only, at the dedicated route
	w = f.do(http.MethodDelete, path+"/admin", customer, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = f.do(http.MethodDelete, path+"/admin", admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = f.do(http.MethodGet, path, admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "bazario_http_requests_total")
}
