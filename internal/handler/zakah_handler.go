package handler

import (
	"errors"
	"net/http"

	"ishrakaat/internal/ledger"
	"ishrakaat/internal/middleware"
	"ishrakaat/internal/repository"
	"ishrakaat/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type ZakahHandler struct {
	zakahSvc *service.ZakahService
	engine   *ledger.Engine
	userRepo *repository.UserRepository
	log      zerolog.Logger
}

func NewZakahHandler(zakahSvc *service.ZakahService, engine *ledger.Engine, userRepo *repository.UserRepository, log zerolog.Logger) *ZakahHandler {
	return &ZakahHandler{zakahSvc: zakahSvc, engine: engine, userRepo: userRepo, log: log.With().Str("handler", "zakah").Logger()}
}

// Dashboard serves the Nisab thresholds, derived reference amounts and the
// Islamic reference cards.
func (h *ZakahHandler) Dashboard(c *gin.Context) {
	d, err := h.zakahSvc.Dashboard()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load zakah data"})
		return
	}
	c.JSON(http.StatusOK, d)
}

type ZakahPayRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Method string          `json:"method" binding:"required,oneof=MONEY_BOX CARD"`
	Note   string          `json:"note"`
}

// QuickPay settles a zakah payment from the money box or the saved card.
func (h *ZakahHandler) QuickPay(c *gin.Context) {
	var req ZakahPayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := middleware.GetUserID(c)
	u, err := h.userRepo.GetByID(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user lookup failed"})
		return
	}

	t, err := h.engine.ZakahQuickPay(c.Request.Context(), u, req.Amount, req.Method, req.Note)
	if err != nil {
		respondZakahError(c, h.log, userID, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"transaction": t})
}

// Refresh recomputes the Nisab from live prices on demand, without waiting
// for the daily job. Admin only.
func (h *ZakahHandler) Refresh(c *gin.Context) {
	if err := h.zakahSvc.RefreshNisab(c.Request.Context()); err != nil {
		h.log.Error().Err(err).Msg("manual nisab refresh failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "price refresh failed"})
		return
	}
	d, err := h.zakahSvc.Dashboard()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load zakah data"})
		return
	}
	c.JSON(http.StatusOK, d)
}

func respondZakahError(c *gin.Context, log zerolog.Logger, userID uint, err error) {
	switch {
	case errors.Is(err, ledger.ErrInsufficientFunds):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "insufficient funds in money box"})
	case errors.Is(err, ledger.ErrAmountNotPositive):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ledger.ErrNoSavedCard):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "no saved card on file"})
	case errors.Is(err, ledger.ErrGatewayCharge):
		c.JSON(http.StatusBadGateway, gin.H{"error": "card charge failed"})
	case errors.Is(err, ledger.ErrWalletFrozen):
		c.JSON(http.StatusConflict, gin.H{"error": "wallet is frozen, contact support"})
	default:
		log.Error().Err(err).Uint("user_id", userID).Msg("zakah payment failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "payment failed"})
	}
}
