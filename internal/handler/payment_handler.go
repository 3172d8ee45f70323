package handler

import (
	"errors"
	"net/http"
	"strings"

	"ishrakaat/internal/ledger"
	"ishrakaat/internal/middleware"
	"ishrakaat/internal/models"
	"ishrakaat/internal/repository"
	"ishrakaat/pkg/paystack"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type PaymentHandler struct {
	engine   *ledger.Engine
	gateway  *paystack.Client
	userRepo *repository.UserRepository
	log      zerolog.Logger
}

func NewPaymentHandler(engine *ledger.Engine, gateway *paystack.Client, userRepo *repository.UserRepository, log zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{engine: engine, gateway: gateway, userRepo: userRepo, log: log.With().Str("handler", "payment").Logger()}
}

type DepositRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// InitializeDeposit records a PENDING payment and returns the hosted checkout
// URL. The wallet is credited later, by the webhook or the verify call.
func (h *PaymentHandler) InitializeDeposit(c *gin.Context) {
	var req DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Amount.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be greater than zero"})
		return
	}

	userID := middleware.GetUserID(c)
	u, err := h.userRepo.GetByID(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user lookup failed"})
		return
	}

	ref := "dep_" + strings.ReplaceAll(uuid.New().String(), "-", "")
	init, err := h.gateway.Initialize(c.Request.Context(), u.Email, paystack.ToKobo(req.Amount), ref)
	if err != nil {
		h.log.Error().Err(err).Uint("user_id", userID).Msg("paystack initialize failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "payment initialization failed"})
		return
	}

	err = h.engine.Store().InTx(c.Request.Context(), func(tx ledger.Store) error {
		return tx.CreatePayment(c.Request.Context(), &models.Payment{
			UserID:    userID,
			Amount:    req.Amount,
			Reference: ref,
			Status:    models.PaymentPending,
			Purpose:   models.PaymentPurposeDeposit,
		})
	})
	if err != nil {
		h.log.Error().Err(err).Str("reference", ref).Msg("recording pending payment failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not record payment"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reference":         ref,
		"authorization_url": init.AuthorizationURL,
		"access_code":       init.AccessCode,
	})
}

// VerifyDeposit lets the client confirm a checkout it just completed instead
// of waiting for the webhook. Safe to race with the webhook; only one credit
// ever lands.
func (h *PaymentHandler) VerifyDeposit(c *gin.Context) {
	ref := c.Param("reference")
	if ref == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reference required"})
		return
	}

	verified, err := h.gateway.Verify(c.Request.Context(), ref)
	if err != nil {
		h.log.Error().Err(err).Str("reference", ref).Msg("paystack verify failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "verification failed"})
		return
	}

	if err := h.engine.ConfirmDeposit(c.Request.Context(), ref, verified); err != nil {
		h.log.Error().Err(err).Str("reference", ref).Msg("deposit confirmation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "confirmation failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reference": ref, "status": verified.Status})
}

type WithdrawRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Reason string          `json:"reason"`
}

func (h *PaymentHandler) Withdraw(c *gin.Context) {
	var req WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := middleware.GetUserID(c)
	desc := "Withdrawal from Money Box"
	if req.Reason != "" {
		desc = desc + ": " + req.Reason
	}
	t, err := h.engine.Withdraw(c.Request.Context(), userID, req.Amount, desc)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrInsufficientFunds):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "insufficient funds in money box"})
		case errors.Is(err, ledger.ErrAmountNotPositive):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, ledger.ErrWalletFrozen):
			c.JSON(http.StatusConflict, gin.H{"error": "wallet is frozen, contact support"})
		default:
			h.log.Error().Err(err).Uint("user_id", userID).Msg("withdrawal failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "withdrawal failed"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": t})
}

// CreateVirtualAccount provisions a dedicated bank account number so the user
// can top up the money box by plain transfer. Idempotent per user.
func (h *PaymentHandler) CreateVirtualAccount(c *gin.Context) {
	userID := middleware.GetUserID(c)
	u, err := h.userRepo.GetByID(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user lookup failed"})
		return
	}
	if u.VirtualAccountNumber != "" {
		c.JSON(http.StatusOK, gin.H{
			"account_number": u.VirtualAccountNumber,
			"bank_name":      u.VirtualBankName,
		})
		return
	}

	ctx := c.Request.Context()
	customerCode := u.PaystackCustomerCode
	if customerCode == "" {
		cust, err := h.gateway.CreateCustomer(ctx, u.Email, u.FirstName, u.LastName, u.Phone)
		if err != nil {
			h.log.Error().Err(err).Uint("user_id", userID).Msg("creating paystack customer failed")
			c.JSON(http.StatusBadGateway, gin.H{"error": "could not create customer"})
			return
		}
		customerCode = cust.CustomerCode
	}

	dva, err := h.gateway.CreateDedicatedAccount(ctx, customerCode)
	if err != nil {
		h.log.Error().Err(err).Uint("user_id", userID).Msg("creating dedicated account failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not create virtual account"})
		return
	}

	if err := h.userRepo.SetVirtualAccount(userID, customerCode, dva.AccountNumber, dva.Bank.Name); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save virtual account"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"account_number": dva.AccountNumber,
		"bank_name":      dva.Bank.Name,
	})
}

// ListCards returns the user's saved card authorizations, newest first.
func (h *PaymentHandler) ListCards(c *gin.Context) {
	userID := middleware.GetUserID(c)
	cards, err := h.engine.Store().ListActiveCards(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "card lookup failed"})
		return
	}
	if cards == nil {
		cards = []models.SavedCard{}
	}
	c.JSON(http.StatusOK, gin.H{"cards": cards})
}
