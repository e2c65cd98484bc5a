package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"dashmart/internal/middleware"
	"dashmart/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockOrderService is a mock implementation of OrderService.
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) Create(ctx context.Context, userID uuid.UUID, req *model.OrderRequest) (*model.Order, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) GetByID(ctx context.Context, actorID uuid.UUID, role model.Role, orderID uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, actorID, role, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) ListByUser(ctx context.Context, userID uuid.UUID, status model.OrderStatus, limit, offset int) ([]model.Order, int, error) {
	args := m.Called(ctx, userID, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]model.Order), args.Int(1), args.Error(2)
}

func (m *MockOrderService) ListByShop(ctx context.Context, actorID uuid.UUID, role model.Role, shopID uuid.UUID, status model.OrderStatus, limit, offset int) ([]model.Order, int, error) {
	args := m.Called(ctx, actorID, role, shopID, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]model.Order), args.Int(1), args.Error(2)
}

func (m *MockOrderService) ListAll(ctx context.Context, status model.OrderStatus, search string, limit, offset int) ([]model.Order, int, error) {
	args := m.Called(ctx, status, search, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]model.Order), args.Int(1), args.Error(2)
}

func (m *MockOrderService) UpdateStatus(ctx context.Context, actorID uuid.UUID, role model.Role, orderID uuid.UUID, status model.OrderStatus, note string) (*model.Order, error) {
	args := m.Called(ctx, actorID, role, orderID, status, note)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) AssignPartner(ctx context.Context, actorID uuid.UUID, role model.Role, orderID, partnerID uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, actorID, role, orderID, partnerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) Cancel(ctx context.Context, actorID uuid.UUID, role model.Role, orderID uuid.UUID, reason string) (*model.Order, error) {
	args := m.Called(ctx, actorID, role, orderID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

// orderRouter mounts the handler the way the real router does, so path
// parameters resolve through chi.
func orderRouter(h *OrderHandler) chi.Router {
	r := chi.NewRouter()
	r.Post("/orders", h.Create)
	r.Get("/orders", h.ListMine)
	r.Get("/orders/{id}", h.GetByID)
	r.Patch("/orders/{id}/status", h.UpdateStatus)
	r.Post("/orders/{id}/cancel", h.Cancel)
	r.Post("/orders/{id}/assign", h.AssignPartner)
	return r
}

func asPrincipal(req *http.Request, userID uuid.UUID, role model.Role) *http.Request {
	ctx := middleware.ContextWithPrincipal(req.Context(), middleware.Principal{UserID: userID, Role: role})
	return req.WithContext(ctx)
}

func TestOrderHandler_Create(t *testing.T) {
	logger := zerolog.Nop()
	userID := uuid.New()
	shopID := uuid.New()
	addressID := uuid.New()

	testOrder := &model.Order{
		ID:          uuid.New(),
		OrderNumber: "ORD-1724900000000-A1B2C3",
		UserID:      userID,
		ShopID:      shopID,
		OrderStatus: model.StatusPending,
		Pricing:     model.Pricing{Total: decimal.RequireFromString("244")},
	}

	validBody := &model.OrderRequest{
		ShopID:            shopID,
		DeliveryAddressID: addressID,
		PaymentMethod:     model.PaymentCOD,
		Items: []model.OrderItemRequest{
			{ProductID: uuid.New(), Quantity: 2},
		},
	}

	tests := []struct {
		name           string
		requestBody    interface{}
		mockReturn     *model.Order
		mockError      error
		expectedStatus int
		expectedCode   string
		expectService  bool
	}{
		{
			name:           "Success",
			requestBody:    validBody,
			mockReturn:     testOrder,
			expectedStatus: http.StatusCreated,
			expectService:  true,
		},
		{
			name:           "Insufficient stock",
			requestBody:    validBody,
			mockError:      model.ErrInsufficientStock,
			expectedStatus: http.StatusConflict,
			expectedCode:   model.ErrCodeInsufficientStock,
			expectService:  true,
		},
		{
			name:           "Shop inactive",
			requestBody:    validBody,
			mockError:      model.ErrShopInactive,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeUnavailable,
			expectService:  true,
		},
		{
			name:           "Below minimum order",
			requestBody:    validBody,
			mockError:      model.NewDomainError(model.ErrCodeBelowMinimum, http.StatusBadRequest, "Order is below the shop minimum"),
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeBelowMinimum,
			expectService:  true,
		},
		{
			name:           "Invalid JSON",
			requestBody:    "{not json",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeValidationFailed,
			expectService:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockOrderService)
			if tt.expectService {
				mockService.On("Create", mock.Anything, userID, mock.AnythingOfType("*model.OrderRequest")).
					Return(tt.mockReturn, tt.mockError)
			}

			handler := NewOrderHandler(mockService, logger)
			router := orderRouter(handler)

			var body bytes.Buffer
			switch b := tt.requestBody.(type) {
			case string:
				body.WriteString(b)
			default:
				require.NoError(t, json.NewEncoder(&body).Encode(b))
			}

			req := httptest.NewRequest(http.MethodPost, "/orders", &body)
			req = asPrincipal(req, userID, model.RoleCustomer)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			var resp Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			if tt.expectedCode != "" {
				assert.False(t, resp.Success)
				assert.Equal(t, tt.expectedCode, resp.Code)
			} else {
				assert.True(t, resp.Success)
			}

			mockService.AssertExpectations(t)
		})
	}
}

func TestOrderHandler_GetByID(t *testing.T) {
	logger := zerolog.Nop()
	userID := uuid.New()
	orderID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockOrderService)
		mockService.On("GetByID", mock.Anything, userID, model.RoleCustomer, orderID).
			Return(&model.Order{ID: orderID, UserID: userID}, nil)

		router := orderRouter(NewOrderHandler(mockService, logger))

		req := httptest.NewRequest(http.MethodGet, "/orders/"+orderID.String(), nil)
		req = asPrincipal(req, userID, model.RoleCustomer)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("Not found maps to envelope", func(t *testing.T) {
		mockService := new(MockOrderService)
		mockService.On("GetByID", mock.Anything, userID, model.RoleCustomer, orderID).
			Return(nil, model.ErrOrderNotFound)

		router := orderRouter(NewOrderHandler(mockService, logger))

		req := httptest.NewRequest(http.MethodGet, "/orders/"+orderID.String(), nil)
		req = asPrincipal(req, userID, model.RoleCustomer)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)

		var resp Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, model.ErrCodeNotFound, resp.Code)
	})

	t.Run("Malformed ID", func(t *testing.T) {
		mockService := new(MockOrderService)
		router := orderRouter(NewOrderHandler(mockService, logger))

		req := httptest.NewRequest(http.MethodGet, "/orders/not-a-uuid", nil)
		req = asPrincipal(req, userID, model.RoleCustomer)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertNotCalled(t, "GetByID")
	})
}

func TestOrderHandler_ListMine(t *testing.T) {
	logger := zerolog.Nop()
	userID := uuid.New()

	t.Run("Pagination and status filter", func(t *testing.T) {
		mockService := new(MockOrderService)
		mockService.On("ListByUser", mock.Anything, userID, model.StatusDelivered, 10, 10).
			Return([]model.Order{{ID: uuid.New()}}, 11, nil)

		router := orderRouter(NewOrderHandler(mockService, logger))

		req := httptest.NewRequest(http.MethodGet, "/orders?status=delivered&page=2&limit=10", nil)
		req = asPrincipal(req, userID, model.RoleCustomer)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"total":11`)
		mockService.AssertExpectations(t)
	})

	t.Run("Unknown status rejected", func(t *testing.T) {
		mockService := new(MockOrderService)
		router := orderRouter(NewOrderHandler(mockService, logger))

		req := httptest.NewRequest(http.MethodGet, "/orders?status=teleported", nil)
		req = asPrincipal(req, userID, model.RoleCustomer)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertNotCalled(t, "ListByUser")
	})
}

func TestOrderHandler_UpdateStatus(t *testing.T) {
	logger := zerolog.Nop()
	actorID := uuid.New()
	orderID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockOrderService)
		mockService.On("UpdateStatus", mock.Anything, actorID, model.RoleManager, orderID, model.StatusConfirmed, "on it").
			Return(&model.Order{ID: orderID, OrderStatus: model.StatusConfirmed}, nil)

		router := orderRouter(NewOrderHandler(mockService, logger))

		body := bytes.NewBufferString(`{"status": "confirmed", "note": "on it"}`)
		req := httptest.NewRequest(http.MethodPatch, "/orders/"+orderID.String()+"/status", body)
		req = asPrincipal(req, actorID, model.RoleManager)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("Unknown status rejected before service", func(t *testing.T) {
		mockService := new(MockOrderService)
		router := orderRouter(NewOrderHandler(mockService, logger))

		body := bytes.NewBufferString(`{"status": "abandoned"}`)
		req := httptest.NewRequest(http.MethodPatch, "/orders/"+orderID.String()+"/status", body)
		req = asPrincipal(req, actorID, model.RoleManager)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertNotCalled(t, "UpdateStatus")
	})

	t.Run("Invalid transition maps to conflict", func(t *testing.T) {
		mockService := new(MockOrderService)
		mockService.On("UpdateStatus", mock.Anything, actorID, model.RoleManager, orderID, model.StatusPreparing, "").
			Return(nil, model.InvalidStateError("Cannot move from delivered to preparing"))

		router := orderRouter(NewOrderHandler(mockService, logger))

		body := bytes.NewBufferString(`{"status": "preparing"}`)
		req := httptest.NewRequest(http.MethodPatch, "/orders/"+orderID.String()+"/status", body)
		req = asPrincipal(req, actorID, model.RoleManager)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)

		var resp Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, model.ErrCodeInvalidState, resp.Code)
	})
}

func TestOrderHandler_Cancel(t *testing.T) {
	logger := zerolog.Nop()
	userID := uuid.New()
	orderID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockOrderService)
		mockService.On("Cancel", mock.Anything, userID, model.RoleCustomer, orderID, "changed my mind").
			Return(&model.Order{ID: orderID, OrderStatus: model.StatusCancelled}, nil)

		router := orderRouter(NewOrderHandler(mockService, logger))

		body := bytes.NewBufferString(`{"reason": "changed my mind"}`)
		req := httptest.NewRequest(http.MethodPost, "/orders/"+orderID.String()+"/cancel", body)
		req = asPrincipal(req, userID, model.RoleCustomer)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("Cancellation window closed", func(t *testing.T) {
		mockService := new(MockOrderService)
		mockService.On("Cancel", mock.Anything, userID, model.RoleCustomer, orderID, "").
			Return(nil, model.ErrCancellationClosed)

		router := orderRouter(NewOrderHandler(mockService, logger))

		body := bytes.NewBufferString(`{}`)
		req := httptest.NewRequest(http.MethodPost, "/orders/"+orderID.String()+"/cancel", body)
		req = asPrincipal(req, userID, model.RoleCustomer)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestOrderHandler_AssignPartner(t *testing.T) {
	logger := zerolog.Nop()
	managerID := uuid.New()
	orderID := uuid.New()
	partnerID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockOrderService)
		mockService.On("AssignPartner", mock.Anything, managerID, model.RoleManager, orderID, partnerID).
			Return(&model.Order{ID: orderID, OrderStatus: model.StatusAssigned}, nil)

		router := orderRouter(NewOrderHandler(mockService, logger))

		body := bytes.NewBufferString(`{"partnerId": "` + partnerID.String() + `"}`)
		req := httptest.NewRequest(http.MethodPost, "/orders/"+orderID.String()+"/assign", body)
		req = asPrincipal(req, managerID, model.RoleManager)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("Missing partner id", func(t *testing.T) {
		mockService := new(MockOrderService)
		router := orderRouter(NewOrderHandler(mockService, logger))

		body := bytes.NewBufferString(`{}`)
		req := httptest.NewRequest(http.MethodPost, "/orders/"+orderID.String()+"/assign", body)
		req = asPrincipal(req, managerID, model.RoleManager)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertNotCalled(t, "AssignPartner")
	})

	t.Run("Lost to a concurrent claim", func(t *testing.T) {
		mockService := new(MockOrderService)
		mockService.On("AssignPartner", mock.Anything, managerID, model.RoleManager, orderID, partnerID).
			Return(nil, model.ErrOrderAlreadyAssigned)

		router := orderRouter(NewOrderHandler(mockService, logger))

		body := bytes.NewBufferString(`{"partnerId": "` + partnerID.String() + `"}`)
		req := httptest.NewRequest(http.MethodPost, "/orders/"+orderID.String()+"/assign", body)
		req = asPrincipal(req, managerID, model.RoleManager)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}
