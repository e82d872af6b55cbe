// Package payment wraps the external payment function. The processor is
// opaque: one capture call, one structured success or failure. No retries
// happen here; a failed capture is surfaced and the user may resubmit.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TestCardNumber is the designated sixteen-digit card accepted without
// pattern checks when (and only when) sandbox mode is enabled.
const TestCardNumber = "4111111111111111"

// ErrValidation marks a locally rejected card; no network call was made.
var ErrValidation = errors.New("invalid payment details")

// CaptureError is a structured failure reason reported by the gateway.
type CaptureError struct {
	Message string
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("payment declined: %s", e.Message)
}

// CaptureRequest holds validated card fields plus the order context.
type CaptureRequest struct {
	CardNumber     string
	ExpirationDate string // MM/YY
	CardCode       string
	AssessmentID   uuid.UUID
	Amount         int
}

// Gateway invokes the external capture operation over HTTPS JSON.
type Gateway struct {
	baseURL string
	sandbox bool
	client  *http.Client
	now     func() time.Time
}

// NewGateway creates a Gateway. sandbox enables the test-card bypass and must
// be off in production (enforced by config validation).
func NewGateway(baseURL string, sandbox bool) *Gateway {
	return &Gateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		sandbox: sandbox,
		client:  &http.Client{Timeout: 30 * time.Second},
		now:     time.Now,
	}
}

func digitsOnly(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Validate performs the local pre-checks before any network round-trip:
// 15-16 digit card number, MM/YY expiry not in the past, 3-4 digit CVV. In
// sandbox mode the designated test card skips the number check only; expiry
// and CVV are still validated.
func (g *Gateway) Validate(req CaptureRequest) error {
	number := strings.ReplaceAll(req.CardNumber, " ", "")
	if !(g.sandbox && number == TestCardNumber) {
		if !digitsOnly(number) || len(number) < 15 || len(number) > 16 {
			return fmt.Errorf("%w: card number must be 15 or 16 digits", ErrValidation)
		}
	}

	exp, err := time.Parse("01/06", req.ExpirationDate)
	if err != nil {
		return fmt.Errorf("%w: expiration must be MM/YY", ErrValidation)
	}
	// Valid through the end of the expiry month.
	endOfMonth := exp.AddDate(0, 1, 0)
	if !g.now().Before(endOfMonth) {
		return fmt.Errorf("%w: card is expired", ErrValidation)
	}

	if !digitsOnly(req.CardCode) || len(req.CardCode) < 3 || len(req.CardCode) > 4 {
		return fmt.Errorf("%w: security code must be 3 or 4 digits", ErrValidation)
	}
	return nil
}

type captureBody struct {
	PaymentData struct {
		CardNumber     string `json:"cardNumber"`
		ExpirationDate string `json:"expirationDate"`
		CardCode       string `json:"cardCode"`
	} `json:"paymentData"`
	SubscriptionID string `json:"subscriptionId"`
	Amount         int    `json:"amount"`
}

type captureResponse struct {
	Success bool   `json:"success"`
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

// Capture validates locally and then invokes the external capture operation.
// A *CaptureError carries the gateway's decline reason; any other error is a
// transport or validation failure.
func (g *Gateway) Capture(ctx context.Context, req CaptureRequest) error {
	if err := g.Validate(req); err != nil {
		return err
	}

	var body captureBody
	body.PaymentData.CardNumber = strings.ReplaceAll(req.CardNumber, " ", "")
	body.PaymentData.ExpirationDate = req.ExpirationDate
	body.PaymentData.CardCode = req.CardCode
	body.SubscriptionID = req.AssessmentID.String()
	body.Amount = req.Amount

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode capture request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.baseURL+"/process-payment", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build capture request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("payment gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	var result captureResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode gateway response: %w", err)
	}
	if result.Error || !result.Success {
		msg := result.Message
		if msg == "" {
			msg = fmt.Sprintf("gateway returned status %d", resp.StatusCode)
		}
		return &CaptureError{Message: msg}
	}
	return nil
}
