package handler

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"

	"ishrakaat/internal/ledger"
	"ishrakaat/pkg/paystack"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type WebhookHandler struct {
	engine    *ledger.Engine
	secretKey string
	log       zerolog.Logger
}

func NewWebhookHandler(engine *ledger.Engine, secretKey string, log zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{engine: engine, secretKey: secretKey, log: log.With().Str("handler", "webhook").Logger()}
}

type paystackEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference     string                 `json:"reference"`
		Amount        int64                  `json:"amount"`
		Channel       string                 `json:"channel"`
		Customer      struct {
			Email string `json:"email"`
		} `json:"customer"`
		Authorization paystack.Authorization `json:"authorization"`
	} `json:"data"`
}

// HandlePaystack verifies the gateway signature over the raw body before
// anything is parsed, then settles charge.success events. Settlement failures
// return 500 so the gateway redelivers; everything else is acknowledged.
func (h *WebhookHandler) HandlePaystack(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if !h.verifySignature(body, c.GetHeader("x-paystack-signature")) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	}

	var ev paystackEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	if ev.Event != "charge.success" {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}
	if ev.Data.Reference == "" || ev.Data.Amount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reference and amount required"})
		return
	}

	err = h.engine.ProcessChargeSuccess(c.Request.Context(), ledger.ChargeSuccessEvent{
		Reference:     ev.Data.Reference,
		AmountKobo:    ev.Data.Amount,
		Email:         ev.Data.Customer.Email,
		Channel:       ev.Data.Channel,
		Authorization: ev.Data.Authorization,
	})
	if err != nil {
		h.log.Error().Err(err).Str("reference", ev.Data.Reference).Msg("webhook settlement failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "settlement failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (h *WebhookHandler) verifySignature(body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha512.New, []byte(h.secretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(expected))
}
