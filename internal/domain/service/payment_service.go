package service

import (
	"context"
)

// PaymentRequest asks the gateway to open a payment session.
type PaymentRequest struct {
	OrderID   string
	OrderName string
	Amount    float64 // rupees
}

// PaymentInitiation is the opaque session handle returned by the gateway.
type PaymentInitiation struct {
	Pidx       string
	PaymentURL string
	ExpiresAt  string
}

type PaymentLookup struct {
	Pidx          string
	Status        string
	TotalAmount   float64 // rupees
	TransactionID string
}

const (
	GatewayStatusCompleted = "Completed"
	GatewayStatusPending   = "Pending"
	GatewayStatusInitiated = "Initiated"
	GatewayStatusRefunded  = "Refunded"
	GatewayStatusExpired   = "Expired"
	GatewayStatusCanceled  = "User canceled"
)

type PaymentGateway interface {
	InitiatePayment(ctx context.Context, req PaymentRequest) (*PaymentInitiation, error)
	LookupPayment(ctx context.Context, pidx string) (*PaymentLookup, error)
}
