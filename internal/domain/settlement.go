package domain

// PaymentResult is what a payment handler reports before settlement.
type PaymentResult struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transactionId,omitempty"`
	Message       string `json:"message"`
}

// SettlementResult is the outcome of a Processing round-trip.
type SettlementResult struct {
	Success           bool   `json:"success"`
	OrderID           string `json:"orderId,omitempty"`
	TransactionID     string `json:"transactionId,omitempty"`
	Message           string `json:"message"`
	EstimatedDelivery string `json:"estimatedDelivery,omitempty"`
	Carrier           string `json:"carrier,omitempty"`
	TrackingNumber    string `json:"trackingNumber,omitempty"`
}
