package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"founderkit-backend/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubOrderRepo is an in-memory OrderRepository for handler tests.
type stubOrderRepo struct {
	orders map[string]*models.Order
	err    error
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{orders: make(map[string]*models.Order)}
}

func (s *stubOrderRepo) Upsert(order *models.Order) error {
	if s.err != nil {
		return s.err
	}
	copy := *order
	s.orders[order.PaymentIntentID] = &copy
	return nil
}

func (s *stubOrderRepo) GetByPaymentIntentID(paymentIntentID string) (*models.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	order, ok := s.orders[paymentIntentID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copy := *order
	return &copy, nil
}

func (s *stubOrderRepo) UpdateStatusByIntentID(paymentIntentID string, status models.OrderStatus, failureMessage, eventID string) error {
	if s.err != nil {
		return s.err
	}
	order, ok := s.orders[paymentIntentID]
	if !ok {
		order = &models.Order{PaymentIntentID: paymentIntentID}
		s.orders[paymentIntentID] = order
	}
	order.Status = status
	order.FailureMessage = failureMessage
	order.LastEventID = eventID
	return nil
}

func performJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func httptestRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func serve(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()

	var resp models.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return resp
}
