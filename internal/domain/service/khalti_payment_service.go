package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"rentalhub/pkg/logger"
)

// KhaltiPaymentService talks to the Khalti ePayment v2 REST API.
type KhaltiPaymentService struct {
	secretKey  string
	baseURL    string
	returnURL  string
	websiteURL string
	httpClient *http.Client
}

func NewKhaltiPaymentService(secretKey, baseURL, returnURL, websiteURL string) *KhaltiPaymentService {
	return &KhaltiPaymentService{
		secretKey:  secretKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		returnURL:  returnURL,
		websiteURL: websiteURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type khaltiInitiateRequest struct {
	ReturnURL         string `json:"return_url"`
	WebsiteURL        string `json:"website_url"`
	Amount            int64  `json:"amount"` // paisa
	PurchaseOrderID   string `json:"purchase_order_id"`
	PurchaseOrderName string `json:"purchase_order_name"`
}

type khaltiInitiateResponse struct {
	Pidx       string `json:"pidx"`
	PaymentURL string `json:"payment_url"`
	ExpiresAt  string `json:"expires_at"`
}

type khaltiLookupResponse struct {
	Pidx          string `json:"pidx"`
	TotalAmount   int64  `json:"total_amount"`
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id"`
}

func (s *KhaltiPaymentService) InitiatePayment(ctx context.Context, req PaymentRequest) (*PaymentInitiation, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("invalid payment amount %.2f", req.Amount)
	}

	logger.Info("Initiating Khalti payment for order %s, amount %.2f", req.OrderID, req.Amount)

	payload := khaltiInitiateRequest{
		ReturnURL:         s.returnURL,
		WebsiteURL:        s.websiteURL,
		Amount:            int64(math.Round(req.Amount * 100)),
		PurchaseOrderID:   req.OrderID,
		PurchaseOrderName: req.OrderName,
	}

	var resp khaltiInitiateResponse
	if err := s.post(ctx, "/epayment/initiate/", payload, &resp); err != nil {
		return nil, err
	}
	if resp.Pidx == "" {
		return nil, fmt.Errorf("khalti API returned no pidx")
	}

	return &PaymentInitiation{
		Pidx:       resp.Pidx,
		PaymentURL: resp.PaymentURL,
		ExpiresAt:  resp.ExpiresAt,
	}, nil
}

func (s *KhaltiPaymentService) LookupPayment(ctx context.Context, pidx string) (*PaymentLookup, error) {
	var resp khaltiLookupResponse
	if err := s.post(ctx, "/epayment/lookup/", map[string]string{"pidx": pidx}, &resp); err != nil {
		return nil, err
	}

	return &PaymentLookup{
		Pidx:          resp.Pidx,
		Status:        resp.Status,
		TotalAmount:   float64(resp.TotalAmount) / 100,
		TransactionID: resp.TransactionID,
	}, nil
}

func (s *KhaltiPaymentService) post(ctx context.Context, path string, payload, out interface{}) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %v", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Key "+s.secretKey)

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to execute request: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		logger.Error("Khalti API error on %s: %s", path, string(body))
		return fmt.Errorf("khalti API error (%d): %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %v", err)
	}
	return nil
}
