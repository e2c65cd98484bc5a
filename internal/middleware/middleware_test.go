package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"dashmart/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCORS(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		expectedStatus int
		expectHandler  bool
	}{
		{
			name:           "Preflight request",
			method:         http.MethodOptions,
			expectedStatus: http.StatusNoContent,
			expectHandler:  false,
		},
		{
			name:           "GET request",
			method:         http.MethodGet,
			expectedStatus: http.StatusOK,
			expectHandler:  true,
		},
		{
			name:           "POST request",
			method:         http.MethodPost,
			expectedStatus: http.StatusOK,
			expectHandler:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlerCalled := false
			testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handlerCalled = true
				w.WriteHeader(http.StatusOK)
			})

			handler := CORS(testHandler)

			req := httptest.NewRequest(tt.method, "/test", nil)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectHandler, handlerCalled)
			assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestGatewayAuth(t *testing.T) {
	logger := zerolog.Nop()
	validKey := "test-gateway-key-123"
	userID := uuid.New()

	tests := []struct {
		name           string
		path           string
		gatewayKey     string
		userHeader     string
		roleHeader     string
		expectedStatus int
		expectHandler  bool
	}{
		{
			name:           "Valid gateway key and identity",
			path:           "/api/v1/cart",
			gatewayKey:     validKey,
			userHeader:     userID.String(),
			roleHeader:     "customer",
			expectedStatus: http.StatusOK,
			expectHandler:  true,
		},
		{
			name:           "Invalid gateway key",
			path:           "/api/v1/cart",
			gatewayKey:     "invalid-key",
			userHeader:     userID.String(),
			roleHeader:     "customer",
			expectedStatus: http.StatusUnauthorized,
			expectHandler:  false,
		},
		{
			name:           "Missing gateway key",
			path:           "/api/v1/cart",
			gatewayKey:     "",
			userHeader:     userID.String(),
			roleHeader:     "customer",
			expectedStatus: http.StatusUnauthorized,
			expectHandler:  false,
		},
		{
			name:           "Malformed user header",
			path:           "/api/v1/cart",
			gatewayKey:     validKey,
			userHeader:     "not-a-uuid",
			roleHeader:     "customer",
			expectedStatus: http.StatusUnauthorized,
			expectHandler:  false,
		},
		{
			name:           "Unknown role header",
			path:           "/api/v1/cart",
			gatewayKey:     validKey,
			userHeader:     userID.String(),
			roleHeader:     "superuser",
			expectedStatus: http.StatusUnauthorized,
			expectHandler:  false,
		},
		{
			name:           "Health check bypasses auth",
			path:           "/health",
			gatewayKey:     "",
			expectedStatus: http.StatusOK,
			expectHandler:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlerCalled := false
			testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handlerCalled = true
				w.WriteHeader(http.StatusOK)
			})

			handler := GatewayAuth(validKey, logger)(testHandler)

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.gatewayKey != "" {
				req.Header.Set("X-Gateway-Key", tt.gatewayKey)
			}
			if tt.userHeader != "" {
				req.Header.Set("X-User-ID", tt.userHeader)
			}
			if tt.roleHeader != "" {
				req.Header.Set("X-User-Role", tt.roleHeader)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectHandler, handlerCalled)
		})
	}
}

func TestGatewayAuth_PrincipalOnContext(t *testing.T) {
	logger := zerolog.Nop()
	userID := uuid.New()

	var got Principal
	var ok bool
	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = PrincipalFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	handler := GatewayAuth("key", logger)(testHandler)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("X-Gateway-Key", "key")
	req.Header.Set("X-User-ID", userID.String())
	req.Header.Set("X-User-Role", "delivery_partner")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	require.True(t, ok)
	assert.Equal(t, userID, got.UserID)
	assert.Equal(t, model.RolePartner, got.Role)
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name           string
		principal      *Principal
		allowed        []model.Role
		expectedStatus int
		expectHandler  bool
	}{
		{
			name:           "Role in allowed set",
			principal:      &Principal{UserID: uuid.New(), Role: model.RoleManager},
			allowed:        []model.Role{model.RoleManager, model.RoleAdmin},
			expectedStatus: http.StatusOK,
			expectHandler:  true,
		},
		{
			name:           "Role not in allowed set",
			principal:      &Principal{UserID: uuid.New(), Role: model.RoleCustomer},
			allowed:        []model.Role{model.RoleAdmin},
			expectedStatus: http.StatusForbidden,
			expectHandler:  false,
		},
		{
			name:           "No principal on context",
			principal:      nil,
			allowed:        []model.Role{model.RoleCustomer},
			expectedStatus: http.StatusUnauthorized,
			expectHandler:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlerCalled := false
			testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handlerCalled = true
				w.WriteHeader(http.StatusOK)
			})

			handler := RequireRole(tt.allowed...)(testHandler)

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.principal != nil {
				ctx := ContextWithPrincipal(req.Context(), *tt.principal)
				req = req.WithContext(ctx)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectHandler, handlerCalled)
		})
	}
}

func TestRecovery(t *testing.T) {
	logger := zerolog.Nop()

	tests := []struct {
		name           string
		shouldPanic    bool
		panicValue     interface{}
		expectedStatus int
	}{
		{
			name:           "No panic",
			shouldPanic:    false,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Panic with string",
			shouldPanic:    true,
			panicValue:     "something went wrong",
			expectedStatus: http.StatusInternalServerError,
		},
		{
			name:           "Panic with error",
			shouldPanic:    true,
			panicValue:     assert.AnError,
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.shouldPanic {
					panic(tt.panicValue)
				}
				w.WriteHeader(http.StatusOK)
			})

			handler := Recovery(logger)(testHandler)

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.shouldPanic {
				assert.Contains(t, w.Body.String(), "internal server error")
			}
		})
	}
}

func TestLogging(t *testing.T) {
	logger := zerolog.Nop()

	tests := []struct {
		name           string
		handlerStatus  int
		expectedStatus int
	}{
		{
			name:           "Successful request",
			handlerStatus:  http.StatusOK,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Not found request",
			handlerStatus:  http.StatusNotFound,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "Server error",
			handlerStatus:  http.StatusInternalServerError,
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.handlerStatus)
			})

			handler := Logging(logger)(testHandler)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/shops", nil)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}
