package paystack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestKoboConversion(t *testing.T) {
	amount := decimal.RequireFromString("2500.75")
	kobo := ToKobo(amount)
	if kobo != 250075 {
		t.Fatalf("ToKobo = %d, want 250075", kobo)
	}
	back := FromKobo(kobo)
	if !back.Equal(amount) {
		t.Fatalf("FromKobo round trip = %s, want %s", back, amount)
	}
}

func TestInitializeWireFormat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/transaction/initialize" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk_test_abc" {
			t.Errorf("Authorization = %q", got)
		}
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decoding body: %v", err)
		}
		if body["email"] != "aisha@example.com" {
			t.Errorf("email = %v", body["email"])
		}
		if body["amount"] != float64(500000) {
			t.Errorf("amount = %v, want 500000 kobo", body["amount"])
		}
		if body["reference"] != "dep_123" {
			t.Errorf("reference = %v", body["reference"])
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": true,
			"data": map[string]string{
				"authorization_url": "https://checkout.paystack.com/abc",
				"access_code":       "abc",
				"reference":         "dep_123",
			},
		})
	}))
	defer srv.Close()

	c := NewClient("sk_test_abc", srv.URL, time.Second)
	data, err := c.Initialize(context.Background(), "aisha@example.com", 500000, "dep_123")
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if data.AuthorizationURL != "https://checkout.paystack.com/abc" {
		t.Errorf("AuthorizationURL = %q", data.AuthorizationURL)
	}
	if data.Reference != "dep_123" {
		t.Errorf("Reference = %q", data.Reference)
	}
}

func TestVerifyBuildsPathFromReference(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/transaction/verify/dep_123" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": true,
			"data": map[string]interface{}{
				"status":    "success",
				"reference": "dep_123",
				"amount":    500000,
				"channel":   "card",
				"authorization": map[string]interface{}{
					"authorization_code": "AUTH_xyz",
					"reusable":           true,
					"last4":              "4081",
				},
			},
		})
	}))
	defer srv.Close()

	c := NewClient("sk_test_abc", srv.URL, time.Second)
	data, err := c.Verify(context.Background(), "dep_123")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if data.Status != "success" || data.Amount != 500000 {
		t.Errorf("charge = %+v", data)
	}
	if !data.Authorization.Reusable || data.Authorization.Last4 != "4081" {
		t.Errorf("authorization = %+v", data.Authorization)
	}
}

func TestChargeAuthorizationWireFormat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transaction/charge_authorization" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decoding body: %v", err)
		}
		if body["authorization_code"] != "AUTH_xyz" {
			t.Errorf("authorization_code = %v", body["authorization_code"])
		}
		if body["amount"] != float64(250000) {
			t.Errorf("amount = %v", body["amount"])
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": true,
			"data": map[string]interface{}{
				"status":    "success",
				"reference": "recurring_abc",
				"amount":    250000,
			},
		})
	}))
	defer srv.Close()

	c := NewClient("sk_test_abc", srv.URL, time.Second)
	data, err := c.ChargeAuthorization(context.Background(), "aisha@example.com", 250000, "AUTH_xyz", "recurring_abc")
	if err != nil {
		t.Fatalf("ChargeAuthorization: %v", err)
	}
	if data.Status != "success" || data.Reference != "recurring_abc" {
		t.Errorf("charge = %+v", data)
	}
}

func TestErrorEnvelopeSurfacesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  false,
			"message": "Invalid key",
		})
	}))
	defer srv.Close()

	c := NewClient("sk_bad", srv.URL, time.Second)
	_, err := c.Initialize(context.Background(), "aisha@example.com", 1000, "")
	if err == nil {
		t.Fatal("expected error for status=false envelope")
	}
	if !strings.Contains(err.Error(), "Invalid key") {
		t.Errorf("error = %v, want gateway message included", err)
	}
}
