package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// Client talks to the Paystack REST API. Amounts cross this boundary in kobo
// (minor units); use ToKobo/FromKobo at the call site.
type Client struct {
	secretKey string
	baseURL   string
	http      *http.Client
}

func NewClient(secretKey, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = "https://api.paystack.co"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		secretKey: secretKey,
		baseURL:   baseURL,
		http:      &http.Client{Timeout: timeout},
	}
}

var hundred = decimal.NewFromInt(100)

// ToKobo converts a naira amount to kobo minor units.
func ToKobo(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// FromKobo converts kobo minor units to a naira amount.
func FromKobo(kobo int64) decimal.Decimal {
	return decimal.NewFromInt(kobo).Div(hundred)
}

// Authorization is the reusable-card token Paystack attaches to successful
// charges. Reusable authorizations are persisted as saved cards.
type Authorization struct {
	AuthorizationCode string `json:"authorization_code"`
	Reusable          bool   `json:"reusable"`
	CardType          string `json:"card_type"`
	Last4             string `json:"last4"`
	ExpMonth          string `json:"exp_month"`
	ExpYear           string `json:"exp_year"`
	Email             string `json:"email,omitempty"`
}

type InitializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// ChargeData is the transaction object returned by verify and
// charge_authorization. Status is "success" when funds moved.
type ChargeData struct {
	Status        string        `json:"status"`
	Reference     string        `json:"reference"`
	Amount        int64         `json:"amount"` // kobo
	Channel       string        `json:"channel"`
	PaidAt        string        `json:"paid_at"`
	Authorization Authorization `json:"authorization"`
}

type CustomerData struct {
	CustomerCode string `json:"customer_code"`
}

type DedicatedAccountData struct {
	AccountNumber string `json:"account_number"`
	Bank          struct {
		Name string `json:"name"`
	} `json:"bank"`
}

// Initialize starts a hosted checkout for an inbound payment.
func (c *Client) Initialize(ctx context.Context, email string, amountKobo int64, reference string) (*InitializeData, error) {
	body := map[string]interface{}{
		"email":  email,
		"amount": amountKobo,
	}
	if reference != "" {
		body["reference"] = reference
	}
	var data InitializeData
	if err := c.do(ctx, http.MethodPost, "/transaction/initialize", body, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Verify fetches the final state of a previously initialized transaction.
func (c *Client) Verify(ctx context.Context, reference string) (*ChargeData, error) {
	var data ChargeData
	if err := c.do(ctx, http.MethodGet, "/transaction/verify/"+reference, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// ChargeAuthorization charges a saved card token without customer interaction.
func (c *Client) ChargeAuthorization(ctx context.Context, email string, amountKobo int64, authorizationCode, reference string) (*ChargeData, error) {
	body := map[string]interface{}{
		"email":              email,
		"amount":             amountKobo,
		"authorization_code": authorizationCode,
	}
	if reference != "" {
		body["reference"] = reference
	}
	var data ChargeData
	if err := c.do(ctx, http.MethodPost, "/transaction/charge_authorization", body, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

func (c *Client) CreateCustomer(ctx context.Context, email, firstName, lastName, phone string) (*CustomerData, error) {
	body := map[string]interface{}{
		"email":      email,
		"first_name": firstName,
		"last_name":  lastName,
		"phone":      phone,
	}
	var data CustomerData
	if err := c.do(ctx, http.MethodPost, "/customer", body, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// CreateDedicatedAccount provisions a dedicated virtual account (bank-transfer
// funding channel); inbound transfers arrive via webhook.
func (c *Client) CreateDedicatedAccount(ctx context.Context, customerCode string) (*DedicatedAccountData, error) {
	body := map[string]interface{}{
		"customer": customerCode,
	}
	var data DedicatedAccountData
	if err := c.do(ctx, http.MethodPost, "/dedicated_account", body, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("paystack %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("paystack %s %s: decoding response: %w", method, path, err)
	}
	if resp.StatusCode >= http.StatusBadRequest || !env.Status {
		return fmt.Errorf("paystack %s %s: %s", method, path, env.Message)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("paystack %s %s: decoding data: %w", method, path, err)
		}
	}
	return nil
}
