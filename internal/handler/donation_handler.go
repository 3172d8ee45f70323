package handler

import (
	"errors"
	"net/http"
	"strconv"

	"ishrakaat/internal/domain"
	"ishrakaat/internal/ledger"
	"ishrakaat/internal/middleware"
	"ishrakaat/internal/models"
	"ishrakaat/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type DonationHandler struct {
	engine       *ledger.Engine
	donationRepo *repository.DonationRepository
	userRepo     *repository.UserRepository
	log          zerolog.Logger
}

func NewDonationHandler(engine *ledger.Engine, donationRepo *repository.DonationRepository, userRepo *repository.UserRepository, log zerolog.Logger) *DonationHandler {
	return &DonationHandler{
		engine:       engine,
		donationRepo: donationRepo,
		userRepo:     userRepo,
		log:          log.With().Str("handler", "donation").Logger(),
	}
}

func (h *DonationHandler) ListCampaigns(c *gin.Context) {
	types, err := h.donationRepo.ListTypes(true)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load campaigns"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"campaigns": types})
}

func (h *DonationHandler) GetCampaign(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign id"})
		return
	}
	t, err := h.donationRepo.GetType(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "campaign not found"})
		return
	}
	raised, err := h.donationRepo.RaisedForType(t.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load totals"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"campaign": t, "raised": raised})
}

type DonateRequest struct {
	Amount         decimal.Decimal `json:"amount" binding:"required"`
	DonationTypeID *uint           `json:"donation_type_id"`
	Method         string          `json:"method"` // MONEY_BOX (default) or CARD
	Note           string          `json:"note"`
}

// Donate settles a donation immediately from the chosen source. Wallet
// donations fail on a thin balance; there is no silent card fallback here.
func (h *DonationHandler) Donate(c *gin.Context) {
	var req DonateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	desc := "Donation"
	if req.DonationTypeID != nil {
		t, err := h.donationRepo.GetType(*req.DonationTypeID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown campaign"})
			return
		}
		desc = "Donation to " + t.Name
	}
	if req.Note != "" {
		desc = desc + " - " + req.Note
	}

	userID := middleware.GetUserID(c)
	var (
		t   *models.Transaction
		err error
	)
	switch req.Method {
	case "", ledger.MethodMoneyBox:
		t, err = h.engine.Donate(c.Request.Context(), userID, req.Amount, desc+" (Money Box)", req.DonationTypeID)
	case ledger.MethodCard:
		u, uerr := h.userRepo.GetByID(userID)
		if uerr != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "user lookup failed"})
			return
		}
		t, err = h.engine.DonateViaCard(c.Request.Context(), u, req.Amount, "don_", desc+" (Card %s)", req.DonationTypeID)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "method must be MONEY_BOX or CARD"})
		return
	}

	if err != nil {
		h.respondLedgerError(c, userID, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"transaction": t})
}

func (h *DonationHandler) respondLedgerError(c *gin.Context, userID uint, err error) {
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
		h.log.Error().Err(err).Uint("user_id", userID).Msg("donation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "donation failed"})
	}
}

func (h *DonationHandler) GetSettings(c *gin.Context) {
	s, err := h.donationRepo.GetSettings(middleware.GetUserID(c))
	if err != nil {
		// No settings yet: return defaults so the client can render the form.
		c.JSON(http.StatusOK, gin.H{"settings": models.DonationSetting{
			UserID:            middleware.GetUserID(c),
			MonthlyAmount:     decimal.Zero,
			AutoDeductFromBox: true,
		}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": s})
}

type UpdateSettingsRequest struct {
	MonthlyAmount     decimal.Decimal `json:"monthly_amount"`
	AutoDeductFromBox *bool           `json:"auto_deduct_from_box"`
	AutoChargeCard    *bool           `json:"auto_charge_card"`
}

func (h *DonationHandler) UpdateSettings(c *gin.Context) {
	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.MonthlyAmount.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "monthly_amount cannot be negative"})
		return
	}

	s := &models.DonationSetting{
		UserID:            middleware.GetUserID(c),
		MonthlyAmount:     req.MonthlyAmount,
		AutoDeductFromBox: true,
	}
	if req.AutoDeductFromBox != nil {
		s.AutoDeductFromBox = *req.AutoDeductFromBox
	}
	if req.AutoChargeCard != nil {
		s.AutoChargeCard = *req.AutoChargeCard
	}
	if err := h.donationRepo.UpsertSettings(s); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save settings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": s})
}

func (h *DonationHandler) ListTransactions(c *gin.Context) {
	userID := middleware.GetUserID(c)
	limit, offset := pagination(c)
	kind := c.Query("kind")
	switch kind {
	case "", models.TransactionDeposit, models.TransactionDonation, models.TransactionWithdrawal:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid kind"})
		return
	}

	trs, total, err := h.donationRepo.ListTransactions(userID, kind, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load transactions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": trs, "total": total})
}

type WelfareRequest struct {
	Purpose string          `json:"purpose" binding:"required"`
	Amount  decimal.Decimal `json:"amount" binding:"required"`
	Method  string          `json:"method"`
}

// DonateWelfare settles a family-welfare donation and records the purpose
// sub-record alongside the transaction.
func (h *DonationHandler) DonateWelfare(c *gin.Context) {
	var req WelfareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	valid := false
	for _, p := range domain.WelfarePurposes {
		if p == req.Purpose {
			valid = true
			break
		}
	}
	if !valid {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid purpose"})
		return
	}

	method := req.Method
	if method == "" {
		method = ledger.MethodMoneyBox
	}
	if method != ledger.MethodMoneyBox && method != ledger.MethodCard {
		c.JSON(http.StatusBadRequest, gin.H{"error": "method must be MONEY_BOX or CARD"})
		return
	}

	userID := middleware.GetUserID(c)
	u, err := h.userRepo.GetByID(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user lookup failed"})
		return
	}
	t, w, err := h.engine.DonateWelfare(c.Request.Context(), u, req.Amount, req.Purpose, method)
	if err != nil {
		h.respondLedgerError(c, userID, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"transaction": t, "welfare": w})
}

type WaqfInterestRequest struct {
	GuestName          string `json:"guest_name"`
	GuestEmail         string `json:"guest_email"`
	GuestPhone         string `json:"guest_phone"`
	WaqfCategory       string `json:"waqf_category" binding:"required,oneof=MASJID KNOWLEDGE INCOME"`
	ProjectType        string `json:"project_type" binding:"required"`
	ContributionMethod string `json:"contribution_method" binding:"required,oneof=EXECUTE HANDOVER"`
	OnBehalfOf         string `json:"on_behalf_of"`
	PreferredDate      string `json:"preferred_date"`
	AdditionalNotes    string `json:"additional_notes"`
}

// SubmitWaqfInterest accepts waqf project interest; works for both signed-in
// users and guests.
func (h *DonationHandler) SubmitWaqfInterest(c *gin.Context) {
	var req WaqfInterestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	w := &models.WaqfInterest{
		GuestName:          req.GuestName,
		GuestEmail:         req.GuestEmail,
		GuestPhone:         req.GuestPhone,
		WaqfCategory:       req.WaqfCategory,
		ProjectType:        req.ProjectType,
		ContributionMethod: req.ContributionMethod,
		OnBehalfOf:         req.OnBehalfOf,
		AdditionalNotes:    req.AdditionalNotes,
	}
	if userID := middleware.GetUserID(c); userID != 0 {
		w.UserID = &userID
	} else if req.GuestName == "" || req.GuestEmail == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "guest_name and guest_email required for guest submissions"})
		return
	}
	if req.PreferredDate != "" {
		d, err := parseDate(req.PreferredDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid preferred_date (use YYYY-MM-DD)"})
			return
		}
		w.PreferredDate = d
	}

	if err := h.donationRepo.CreateWaqfInterest(w); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save interest"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"interest": w})
}
