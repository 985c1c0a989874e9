package v1

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/api/middleware"
	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/domain"
	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockPaymentService struct {
	mock.Mock
}

func (m *mockPaymentService) Quote(ctx context.Context, participationID, methodID uint, paymentDate time.Time) (service.PaymentQuote, error) {
	args := m.Called(ctx, participationID, methodID, paymentDate)
	return args.Get(0).(service.PaymentQuote), args.Error(1)
}

func (m *mockPaymentService) Create(ctx context.Context, input service.CreatePaymentInput) (domain.Payment, error) {
	args := m.Called(ctx, input)
	return args.Get(0).(domain.Payment), args.Error(1)
}

func (m *mockPaymentService) ChangeStatus(ctx context.Context, paymentID uint, next domain.PaymentStatus, actor uint, notes string) (domain.Payment, error) {
	args := m.Called(ctx, paymentID, next, actor, notes)
	return args.Get(0).(domain.Payment), args.Error(1)
}

func (m *mockPaymentService) SafeDelete(ctx context.Context, paymentID, actor uint) error {
	args := m.Called(ctx, paymentID, actor)
	return args.Error(0)
}

func (m *mockPaymentService) Bulk(ctx context.Context, action service.BulkAction, paymentIDs []uint, actor uint) (service.BulkResult, error) {
	args := m.Called(ctx, action, paymentIDs, actor)
	return args.Get(0).(service.BulkResult), args.Error(1)
}

// withActor stands in for VerifyJWT.
func withActor(id uint) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Set(middleware.UserIDKey, id)
		ctx.Next()
	}
}

func newPaymentRouter(svc PaymentService) *gin.Engine {
	h := NewPaymentHandler(svc)

	r := gin.New()
	r.GET("/payments/calculate-amount", h.HandleCalculateAmount)
	r.POST("/payments", h.HandleCreatePayment)

	admin := r.Group("/admin", withActor(7))
	admin.POST("/payments/bulk", h.HandleBulkPayments)
	admin.POST("/payments/:paymentID/status", h.HandleChangeStatus)
	admin.DELETE("/payments/:paymentID", h.HandleDeletePayment)

	return r
}

func newRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	return req
}

func serveRequest(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	return rec
}

func serve(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	return serveRequest(r, newRequest(method, target, body))
}

func TestPaymentHandler_HandleCalculateAmount(t *testing.T) {
	svc := new(mockPaymentService)
	rate := decimal.RequireFromString("36.5")
	date := time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)
	svc.On("Quote", mock.Anything, uint(3), uint(2), date).
		Return(service.PaymentQuote{Amount: decimal.RequireFromString("547.5"), Currency: domain.CurrencyVEF, Rate: &rate}, nil)

	rec := serve(newPaymentRouter(svc), http.MethodGet, "/payments/calculate-amount?participation_id=3&payment_method_id=2&payment_date=2024-03-08", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "547.50", body["amount"])
	assert.Equal(t, "VEF", body["currency"])
	svc.AssertExpectations(t)

	rec = serve(newPaymentRouter(svc), http.MethodGet, "/payments/calculate-amount?participation_id=3&payment_method_id=2&payment_date=08-03-2024", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPaymentHandler_HandleCreatePayment(t *testing.T) {
	body := `{"participation_id": 3, "payment_method_id": 2, "payment_date": "2024-03-08", "transaction_details": {"reference": "0011"}}`

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"created", nil, http.StatusCreated},
		{"duplicate", service.ErrDuplicatePayment, http.StatusConflict},
		{"missing participation", fmt.Errorf("s.participations.LockByID -> %w", service.ErrParticipationNotFound), http.StatusNotFound},
		{"bad details", fmt.Errorf("%w: reference: cannot be blank", service.ErrInvalidTransactionDetails), http.StatusBadRequest},
		{"database down", fmt.Errorf("connection refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockPaymentService)
			svc.On("Create", mock.Anything, mock.MatchedBy(func(in service.CreatePaymentInput) bool {
				return in.ParticipationID == 3 && in.PaymentMethodID == 2 && in.TransactionDetails["reference"] == "0011"
			})).Return(domain.Payment{ID: 10, Status: domain.PaymentPending}, tt.err)

			rec := serve(newPaymentRouter(svc), http.MethodPost, "/payments", body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestPaymentHandler_HandleCreatePayment_InvalidBody(t *testing.T) {
	svc := new(mockPaymentService)

	rec := serve(newPaymentRouter(svc), http.MethodPost, "/payments", `{"participation_id": 3}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(newPaymentRouter(svc), http.MethodPost, "/payments", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestPaymentHandler_HandleChangeStatus(t *testing.T) {
	svc := new(mockPaymentService)
	svc.On("ChangeStatus", mock.Anything, uint(5), domain.PaymentApproved, uint(7), "ok").
		Return(domain.Payment{ID: 5, Status: domain.PaymentApproved}, nil)
	svc.On("ChangeStatus", mock.Anything, uint(6), domain.PaymentPending, uint(7), "").
		Return(domain.Payment{}, fmt.Errorf("%w: REJECTED -> PENDING", service.ErrInvalidStatusTransition))

	r := newPaymentRouter(svc)

	rec := serve(r, http.MethodPost, "/admin/payments/5/status", `{"status": "APPROVED", "notes": "ok"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(r, http.MethodPost, "/admin/payments/6/status", `{"status": "PENDING"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = serve(r, http.MethodPost, "/admin/payments/abc/status", `{"status": "PENDING"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(r, http.MethodPost, "/admin/payments/5/status", `{"status": "PAID"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	svc.AssertExpectations(t)
}

func TestPaymentHandler_HandleBulkPayments(t *testing.T) {
	svc := new(mockPaymentService)
	svc.On("Bulk", mock.Anything, service.BulkApprove, []uint{1, 2}, uint(7)).
		Return(service.BulkResult{Succeeded: []uint{1}, Failed: map[uint]string{2: "invalid payment status transition"}}, nil)

	rec := serve(newPaymentRouter(svc), http.MethodPost, "/admin/payments/bulk", `{"action": "approve", "ids": [1, 2]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var result service.BulkResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, []uint{1}, result.Succeeded)
	assert.Contains(t, result.Failed, uint(2))

	rec = serve(newPaymentRouter(svc), http.MethodPost, "/admin/payments/bulk", `{"action": "approve", "ids": [1, 1]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertExpectations(t)
}

func TestPaymentHandler_HandleDeletePayment(t *testing.T) {
	svc := new(mockPaymentService)
	svc.On("SafeDelete", mock.Anything, uint(5), uint(7)).Return(nil)
	svc.On("SafeDelete", mock.Anything, uint(6), uint(7)).Return(fmt.Errorf("s.payments.LockByID -> %w", service.ErrPaymentNotFound))

	r := newPaymentRouter(svc)

	rec := serve(r, http.MethodDelete, "/admin/payments/5", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(r, http.MethodDelete, "/admin/payments/6", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "payment with ID 6 not found")

	svc.AssertExpectations(t)
}
