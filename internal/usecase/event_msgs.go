package usecase

// Published on RabbitMQ after an order row is written.
type CreatedMsg struct {
	OrderID      string `json:"orderId"`
	SessionID    string `json:"sessionId"`
	UserID       string `json:"userId,omitempty"`
	Method       string `json:"method"`
	Status       string `json:"status"`
	Total        string `json:"total"`
	Currency     string `json:"currency"`
	PointsEarned int64  `json:"pointsEarned"`
}

// Sent by the payment processor relay on Kafka
type PaymentStatusMsg struct {
	OrderID         string `json:"orderId"`
	PaymentIntentID string `json:"paymentIntentId"`
	Status          string `json:"status"` // e.g. "SUCCEEDED"
}
