package repository

import (
	"founderkit-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepository interface {
	Upsert(order *models.Order) error
	GetByPaymentIntentID(paymentIntentID string) (*models.Order, error)
	UpdateStatusByIntentID(paymentIntentID string, status models.OrderStatus, failureMessage, eventID string) error
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// Upsert inserts the order or refreshes its mutable fields, keyed by the
// payment intent id. A succeeded/failed row is never demoted back to pending
// by a late-arriving create.
func (r *orderRepository) Upsert(order *models.Order) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "payment_intent_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"plan":           order.Plan,
			"billing_period": order.BillingPeriod,
			"customer_email": order.CustomerEmail,
			"customer_name":  order.CustomerName,
			"amount_cents":   order.AmountCents,
			"currency":       order.Currency,
		}),
	}).Create(order).Error
}

func (r *orderRepository) GetByPaymentIntentID(paymentIntentID string) (*models.Order, error) {
	var order models.Order
	err := r.db.First(&order, "payment_intent_id = ?", paymentIntentID).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateStatusByIntentID transitions an order in response to a webhook
// event. When no row exists yet (webhook raced the create path) a new one is
// inserted, so the transition is an upsert either way.
func (r *orderRepository) UpdateStatusByIntentID(paymentIntentID string, status models.OrderStatus, failureMessage, eventID string) error {
	order := &models.Order{
		PaymentIntentID: paymentIntentID,
		Status:          status,
		FailureMessage:  failureMessage,
		LastEventID:     eventID,
	}
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "payment_intent_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"status":          status,
			"failure_message": failureMessage,
			"last_event_id":   eventID,
		}),
	}).Create(order).Error
}
