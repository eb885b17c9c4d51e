package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"carrental/internal/database"
	"carrental/internal/domain"
	"carrental/internal/middleware"
	"carrental/internal/modules/access"
	"carrental/internal/modules/availability"
	"carrental/internal/modules/booking"
	"carrental/internal/modules/catalog"
	"carrental/internal/modules/notification"
	"carrental/internal/modules/payment"
	"carrental/internal/modules/session"
	"carrental/internal/pkg/clock"
	"carrental/internal/pkg/token"
	"carrental/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type E2ETestSuite struct {
	router *gin.Engine
	db     *gorm.DB
}

type TestResponse struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Error   *ErrorDetail           `json:"error,omitempty"`
}

type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func setupTestSuite(t *testing.T) *E2ETestSuite {
	gin.SetMode(gin.TestMode)

	db, err := database.Connect(":memory:")
	require.NoError(t, err, "Failed to connect to test database")
	require.NoError(t, repository.Migrate(db))

	userRepo := repository.NewUserRepository(db)
	carRepo := repository.NewCarRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	clk := clock.System()
	tokens := token.New("test_secret_key_32_characters_min", 24*time.Hour)
	guard := access.NewGuard(access.DefaultTables())
	index := availability.NewIndex()

	sessionService := session.NewService(sessionRepo, session.NewStoreVerifier(userRepo), clk, 24*time.Hour, 5*time.Minute)
	sessionHandler := session.NewHandler(sessionService, tokens)

	notificationService := notification.NewService(notificationRepo, clk)
	notificationHandler := notification.NewHandler(notificationService)

	bookingService := booking.NewService(
		bookingRepo, carRepo, index,
		payment.NewSimulatedProcessor(0),
		notificationService, nil, clk,
		booking.DefaultConfig(),
	)
	bookingHandler := booking.NewHandler(bookingService)

	catalogService := catalog.NewService(carRepo, bookingRepo, index, clk)
	catalogHandler := catalog.NewHandler(catalogService)

	accessHandler := access.NewHandler(guard, sessionService, tokens)

	r := gin.New()
	r.Use(middleware.ErrorLogger())

	v1 := r.Group("/api/v1")
	{
		sessionHandler.RegisterRoutes(v1)
		accessHandler.RegisterRoutes(v1)
		catalogHandler.RegisterPublicRoutes(v1)

		protected := v1.Group("/")
		protected.Use(middleware.Auth(tokens, sessionService))
		{
			sessionHandler.RegisterProtectedRoutes(protected)
			bookingHandler.RegisterRoutes(protected)
			notificationHandler.RegisterRoutes(protected)

			fleet := protected.Group("/")
			fleet.Use(middleware.RequirePermission(guard, access.PermManageOwnCars))
			catalogHandler.RegisterProtectedRoutes(fleet)

			reports := protected.Group("/")
			reports.Use(middleware.RequirePermission(guard, access.PermViewReports))
			bookingHandler.RegisterReportRoutes(reports)
		}
	}

	suite := &E2ETestSuite{router: r, db: db}
	suite.seed(t, userRepo, carRepo, catalogService)
	return suite
}

func (s *E2ETestSuite) seed(t *testing.T, users *repository.UserRepository, cars *repository.CarRepository, catalogService *catalog.Service) {
	ctx := context.Background()
	for _, u := range []struct {
		email, password, name string
		role                  domain.Role
	}{
		{"admin@test.local", "admin-pass", "Admin", domain.RoleAdmin},
		{"hoster@test.local", "hoster-pass", "Hoster", domain.RoleHoster},
		{"customer@test.local", "customer-pass", "Customer", domain.RoleCustomer},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.MinCost)
		require.NoError(t, err)
		require.NoError(t, users.Create(ctx, &domain.User{
			Email: u.email, PasswordHash: string(hash), Name: u.name, Role: u.role,
		}))
	}

	hoster, err := users.GetByEmailAndRole(ctx, "hoster@test.local", domain.RoleHoster)
	require.NoError(t, err)
	_, err = catalogService.Create(ctx, catalog.CreateCarRequest{
		OwnerID: hoster.ID, Name: "Family SUV", Brand: "Kia", PricePerDay: 85, LocationTag: "airport",
	})
	require.NoError(t, err)
}

func (s *E2ETestSuite) request(t *testing.T, method, path, bearer string, body any) (*httptest.ResponseRecorder, TestResponse) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var resp TestResponse
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "body: %s", w.Body.String())
	}
	return w, resp
}

func (s *E2ETestSuite) login(t *testing.T, role, email, password string) string {
	w, resp := s.request(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"role":       role,
		"identifier": email,
		"secret":     password,
	})
	require.Equal(t, http.StatusOK, w.Code, "login failed: %s", w.Body.String())
	tokenStr, _ := resp.Data["token"].(string)
	require.NotEmpty(t, tokenStr)
	return tokenStr
}

func TestFullBookingLifecycle(t *testing.T) {
	s := setupTestSuite(t)

	customerToken := s.login(t, "customer", "customer@test.local", "customer-pass")
	hosterToken := s.login(t, "hoster", "hoster@test.local", "hoster-pass")

	start := time.Now().AddDate(0, 0, 7)
	startDate := start.Format("2006-01-02")
	endDate := start.AddDate(0, 0, 3).Format("2006-01-02")

	// customer creates a booking
	w, resp := s.request(t, http.MethodPost, "/api/v1/bookings", customerToken, gin.H{
		"car_id":     1,
		"start_date": startDate,
		"end_date":   endDate,
		"start_time": "10:00",
		"end_time":   "10:00",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := resp.Data["booking"].(map[string]interface{})
	bookingID := int64(created["id"].(float64))
	assert.Equal(t, "pending", created["status"])
	assert.Equal(t, 288.15, created["total_amount"])

	base := fmt.Sprintf("/api/v1/bookings/%d", bookingID)

	// host approves
	w, resp = s.request(t, http.MethodPost, base+"/status", hosterToken, gin.H{
		"status": "approved", "reason": "see you there",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "approved", resp.Data["booking"].(map[string]interface{})["status"])

	// approved car is no longer coarsely available
	w, resp = s.request(t, http.MethodGet, "/api/v1/cars/1/availability", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, resp.Data["available"])

	// customer pays
	w, resp = s.request(t, http.MethodPost, base+"/payment", customerToken, gin.H{"method": "card"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "paid", resp.Data["booking"].(map[string]interface{})["payment_status"])

	// pickup and return
	w, _ = s.request(t, http.MethodPost, base+"/status", hosterToken, gin.H{"status": "active"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w, resp = s.request(t, http.MethodPost, base+"/status", hosterToken, gin.H{"status": "completed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "completed", resp.Data["booking"].(map[string]interface{})["status"])

	// car is available again
	w, resp = s.request(t, http.MethodGet, "/api/v1/cars/1/availability", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp.Data["available"])

	// customer rates
	w, resp = s.request(t, http.MethodPost, base+"/rating", customerToken, gin.H{
		"rating": 5, "review": "smooth trip",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(5), resp.Data["booking"].(map[string]interface{})["rating"])

	// rating shows up on the car aggregate
	w, resp = s.request(t, http.MethodGet, "/api/v1/cars/1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	car := resp.Data["car"].(map[string]interface{})
	assert.Equal(t, float64(5), car["rating"])
	assert.Equal(t, float64(1), car["reviews"])

	// host got a creation notification
	w, resp = s.request(t, http.MethodGet, "/api/v1/notifications", hosterToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.GreaterOrEqual(t, resp.Data["count"].(float64), float64(1))
}

func TestBookingConflictOverHTTP(t *testing.T) {
	s := setupTestSuite(t)
	customerToken := s.login(t, "customer", "customer@test.local", "customer-pass")

	start := time.Now().AddDate(0, 0, 7)
	body := gin.H{
		"car_id":     1,
		"start_date": start.Format("2006-01-02"),
		"end_date":   start.AddDate(0, 0, 3).Format("2006-01-02"),
		"start_time": "10:00",
		"end_time":   "10:00",
	}

	w, _ := s.request(t, http.MethodPost, "/api/v1/bookings", customerToken, body)
	require.Equal(t, http.StatusCreated, w.Code)

	w, resp := s.request(t, http.MethodPost, "/api/v1/bookings", customerToken, body)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "BOOKING_CONFLICT", resp.Error.Code)
}

func TestCancelWithRefundOverHTTP(t *testing.T) {
	s := setupTestSuite(t)
	customerToken := s.login(t, "customer", "customer@test.local", "customer-pass")

	start := time.Now().AddDate(0, 0, 7)
	w, resp := s.request(t, http.MethodPost, "/api/v1/bookings", customerToken, gin.H{
		"car_id":     1,
		"start_date": start.Format("2006-01-02"),
		"end_date":   start.AddDate(0, 0, 2).Format("2006-01-02"),
		"start_time": "09:00",
		"end_time":   "09:00",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	bookingID := int64(resp.Data["booking"].(map[string]interface{})["id"].(float64))

	w, resp = s.request(t, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%d/payment", bookingID), customerToken, gin.H{"method": "card"})
	require.Equal(t, http.StatusOK, w.Code)

	// a week out: full refund tier
	w, resp = s.request(t, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%d/cancel", bookingID), customerToken, gin.H{"reason": "plans changed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(100), resp.Data["refund_percentage"])
	assert.Equal(t, "refunded", resp.Data["booking"].(map[string]interface{})["payment_status"])
}

func TestAuthRequiredAndSessionFlow(t *testing.T) {
	s := setupTestSuite(t)

	// no token
	w, resp := s.request(t, http.MethodGet, "/api/v1/bookings", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "AUTH_MISSING", resp.Error.Code)

	// bad credentials
	w, resp = s.request(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"role": "customer", "identifier": "customer@test.local", "secret": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", resp.Error.Code)

	// login, inspect, extend, logout
	tokenStr := s.login(t, "customer", "customer@test.local", "customer-pass")

	w, resp = s.request(t, http.MethodGet, "/api/v1/auth/session", tokenStr, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Greater(t, resp.Data["expires_in_seconds"].(float64), float64(0))

	w, _ = s.request(t, http.MethodPost, "/api/v1/auth/extend", tokenStr, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = s.request(t, http.MethodPost, "/api/v1/auth/logout", tokenStr, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// the revoked session no longer works
	w, resp = s.request(t, http.MethodGet, "/api/v1/bookings", tokenStr, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "SESSION_NOT_FOUND", resp.Error.Code)
}

func TestReportPermissionGate(t *testing.T) {
	s := setupTestSuite(t)

	adminToken := s.login(t, "admin", "admin@test.local", "admin-pass")
	customerToken := s.login(t, "customer", "customer@test.local", "customer-pass")

	w, resp := s.request(t, http.MethodGet, "/api/v1/bookings/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(0), resp.Data["total"])

	w, resp = s.request(t, http.MethodGet, "/api/v1/bookings/stats", customerToken, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "INSUFFICIENT_PERMISSIONS", resp.Error.Code)
}

func TestAccessCheckOverHTTP(t *testing.T) {
	s := setupTestSuite(t)
	hosterToken := s.login(t, "hoster", "hoster@test.local", "hoster-pass")

	// anonymous pre-flight of a protected route
	w, resp := s.request(t, http.MethodPost, "/api/v1/access/check", "", gin.H{"path": "/dashboard/admin"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, resp.Data["allowed"])
	assert.Equal(t, "NOT_AUTHENTICATED", resp.Data["reason"])
	assert.Equal(t, "/", resp.Data["redirect"])

	// hoster asking about the admin dashboard
	w, resp = s.request(t, http.MethodPost, "/api/v1/access/check", hosterToken, gin.H{"path": "/dashboard/admin"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, resp.Data["allowed"])
	assert.Equal(t, "INSUFFICIENT_PRIVILEGES", resp.Data["reason"])
	assert.Equal(t, "/dashboard/hoster", resp.Data["redirect"])

	// and about their own dashboard
	w, resp = s.request(t, http.MethodPost, "/api/v1/access/check", hosterToken, gin.H{"path": "/dashboard/hoster"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp.Data["allowed"])

	// summary reflects the role
	w, resp = s.request(t, http.MethodGet, "/api/v1/access/summary", hosterToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp.Data["authenticated"])
	assert.Equal(t, "hoster", resp.Data["role"])
}
