package handler_test

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"ishrakaat/internal/handler"
	"ishrakaat/internal/ledger"
	"ishrakaat/internal/ledger/ledgertest"
	"ishrakaat/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const webhookSecret = "sk_test_secret"

func newWebhookRouter(t *testing.T, store *ledgertest.FakeStore) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	eng := ledger.NewEngine(store, &ledgertest.FakeCharger{}, zerolog.Nop())
	h := handler.NewWebhookHandler(eng, webhookSecret, zerolog.Nop())
	r := gin.New()
	r.POST("/webhooks/paystack", h.HandlePaystack)
	return r
}

func sign(body []byte) string {
	mac := hmac.New(sha512.New, []byte(webhookSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func postWebhook(r *gin.Engine, body []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/paystack", bytes.NewReader(body))
	if signature != "" {
		req.Header.Set("x-paystack-signature", signature)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	store := ledgertest.NewFakeStore()
	user := store.AddUser(models.User{Email: "aisha@example.com"})
	r := newWebhookRouter(t, store)

	body := []byte(`{"event":"charge.success","data":{"reference":"dep_1","amount":500000,"channel":"card","customer":{"email":"aisha@example.com"}}}`)

	if w := postWebhook(r, body, ""); w.Code != http.StatusBadRequest {
		t.Errorf("missing signature: status = %d, want 400", w.Code)
	}
	if w := postWebhook(r, body, "deadbeef"); w.Code != http.StatusBadRequest {
		t.Errorf("bad signature: status = %d, want 400", w.Code)
	}
	if n := len(store.Transactions(user.ID)); n != 0 {
		t.Errorf("transactions after rejected deliveries = %d, want 0", n)
	}
}

func TestWebhookChargeSuccessCreditsOnce(t *testing.T) {
	store := ledgertest.NewFakeStore()
	user := store.AddUser(models.User{Email: "aisha@example.com"})
	r := newWebhookRouter(t, store)

	body := []byte(`{"event":"charge.success","data":{"reference":"dep_1","amount":500000,"channel":"card","customer":{"email":"aisha@example.com"}}}`)

	if w := postWebhook(r, body, sign(body)); w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if got := store.Balance(user.ID); !got.Equal(decimal.RequireFromString("5000")) {
		t.Errorf("balance = %s, want 5000", got)
	}

	// Gateway redelivery must not credit again.
	if w := postWebhook(r, body, sign(body)); w.Code != http.StatusOK {
		t.Fatalf("redelivery status = %d", w.Code)
	}
	if n := len(store.Transactions(user.ID)); n != 1 {
		t.Errorf("transactions after redelivery = %d, want 1", n)
	}
}

func TestWebhookIgnoresOtherEvents(t *testing.T) {
	store := ledgertest.NewFakeStore()
	user := store.AddUser(models.User{Email: "aisha@example.com"})
	r := newWebhookRouter(t, store)

	body := []byte(`{"event":"transfer.success","data":{"reference":"trf_1","amount":500000}}`)
	if w := postWebhook(r, body, sign(body)); w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 ack", w.Code)
	}
	if n := len(store.Transactions(user.ID)); n != 0 {
		t.Errorf("transactions = %d, want 0", n)
	}
}

func TestWebhookMissingReferenceRejected(t *testing.T) {
	store := ledgertest.NewFakeStore()
	store.AddUser(models.User{Email: "aisha@example.com"})
	r := newWebhookRouter(t, store)

	body := []byte(`{"event":"charge.success","data":{"amount":500000,"customer":{"email":"aisha@example.com"}}}`)
	if w := postWebhook(r, body, sign(body)); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestWebhookUnknownEmailAcked(t *testing.T) {
	store := ledgertest.NewFakeStore()
	r := newWebhookRouter(t, store)

	body := []byte(`{"event":"charge.success","data":{"reference":"dep_9","amount":100000,"channel":"card","customer":{"email":"stranger@example.com"}}}`)
	if w := postWebhook(r, body, sign(body)); w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 ack", w.Code)
	}
	if n := len(store.Payments()); n != 0 {
		t.Errorf("payments = %d, want 0", n)
	}
}
