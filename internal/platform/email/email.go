// Package email invokes the outbound email functions over HTTPS JSON.
// Failures here are degraded-but-successful by contract: the caller's
// primary write has already committed and is never rolled back.
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Sender abstracts the two notification emails so domain services can be
// tested without a network.
type Sender interface {
	SendStatusEmail(ctx context.Context, to, status, denialReason, medication string) error
	SendConfirmationEmail(ctx context.Context, to, medication, planType string, amount int) error
}

// Client calls the email functions at a base URL.
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates an email client.
func NewClient(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
		log:     log,
	}
}

func (c *Client) post(ctx context.Context, path string, body interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode email request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("email function unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("email function returned status %d", resp.StatusCode)
	}
	return nil
}

type statusEmailBody struct {
	To           string `json:"to"`
	Status       string `json:"status"`
	DenialReason string `json:"denialReason,omitempty"`
	Medication   string `json:"medication"`
}

// SendStatusEmail notifies a patient of a prescribe/deny decision.
func (c *Client) SendStatusEmail(ctx context.Context, to, status, denialReason, medication string) error {
	err := c.post(ctx, "/send-status-email", statusEmailBody{
		To: to, Status: status, DenialReason: denialReason, Medication: medication,
	})
	if err != nil {
		c.log.Error().Err(err).Str("to", to).Str("status", status).Msg("status email failed")
	}
	return err
}

type confirmationEmailBody struct {
	To           string `json:"to"`
	Subscription struct {
		Medication string `json:"medication"`
		PlanType   string `json:"plan_type"`
		Amount     int    `json:"amount"`
	} `json:"subscription"`
}

// SendConfirmationEmail confirms a successful order to the patient.
func (c *Client) SendConfirmationEmail(ctx context.Context, to, medication, planType string, amount int) error {
	var body confirmationEmailBody
	body.To = to
	body.Subscription.Medication = medication
	body.Subscription.PlanType = planType
	body.Subscription.Amount = amount
	err := c.post(ctx, "/send-confirmation-email", body)
	if err != nil {
		c.log.Error().Err(err).Str("to", to).Msg("confirmation email failed")
	}
	return err
}

var _ Sender = (*Client)(nil)
