package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ishrakaat/internal/handler"
	"ishrakaat/internal/ledger"
	"ishrakaat/internal/ledger/ledgertest"
	"ishrakaat/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func newCardsRouter(t *testing.T, store *ledgertest.FakeStore, userID uint) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	eng := ledger.NewEngine(store, &ledgertest.FakeCharger{}, zerolog.Nop())
	h := handler.NewPaymentHandler(eng, nil, nil, zerolog.Nop())
	r := gin.New()
	r.GET("/payments/cards", func(c *gin.Context) {
		c.Set("user_id", userID)
	}, h.ListCards)
	return r
}

func TestListCardsReturnsAllActiveNewestFirst(t *testing.T) {
	store := ledgertest.NewFakeStore()
	user := store.AddUser(models.User{Email: "cards@example.com"})
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.AddCard(models.SavedCard{UserID: user.ID, AuthorizationCode: "AUTH_old", Last4: "1111", Active: true, CreatedAt: base})
	store.AddCard(models.SavedCard{UserID: user.ID, AuthorizationCode: "AUTH_new", Last4: "2222", Active: true, CreatedAt: base.Add(time.Hour)})
	store.AddCard(models.SavedCard{UserID: user.ID, AuthorizationCode: "AUTH_off", Last4: "3333", Active: false, CreatedAt: base.Add(2 * time.Hour)})
	r := newCardsRouter(t, store, user.ID)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/payments/cards", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp struct {
		Cards []models.SavedCard `json:"cards"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Cards) != 2 {
		t.Fatalf("cards = %d, want 2 active", len(resp.Cards))
	}
	if resp.Cards[0].Last4 != "2222" || resp.Cards[1].Last4 != "1111" {
		t.Errorf("order = %s, %s; want newest first", resp.Cards[0].Last4, resp.Cards[1].Last4)
	}
}

func TestListCardsEmpty(t *testing.T) {
	store := ledgertest.NewFakeStore()
	user := store.AddUser(models.User{Email: "nocards@example.com"})
	r := newCardsRouter(t, store, user.ID)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/payments/cards", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp struct {
		Cards []models.SavedCard `json:"cards"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Cards == nil || len(resp.Cards) != 0 {
		t.Errorf("cards = %v, want empty array", resp.Cards)
	}
}
