package handler

import (
	"net/http"
	"strconv"

	"ishrakaat/internal/domain"
	"ishrakaat/internal/middleware"
	"ishrakaat/internal/models"
	"ishrakaat/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type AdminHandler struct {
	userRepo     *repository.UserRepository
	donationRepo *repository.DonationRepository
	log          zerolog.Logger
}

func NewAdminHandler(userRepo *repository.UserRepository, donationRepo *repository.DonationRepository, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{userRepo: userRepo, donationRepo: donationRepo, log: log.With().Str("handler", "admin").Logger()}
}

func (h *AdminHandler) admin(c *gin.Context) (*models.User, bool) {
	u, err := h.userRepo.GetByID(middleware.GetUserID(c))
	if err != nil || !u.IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin access required"})
		return nil, false
	}
	return u, true
}

// ListUsers pages the members inside the admin's geographic scope.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	admin, ok := h.admin(c)
	if !ok {
		return
	}
	limit, offset := pagination(c)
	pendingOnly := c.Query("pending") == "true"

	users, total, err := h.userRepo.ListScoped(admin, pendingOnly, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users, "total": total})
}

// ApproveUser marks a member's registration as approved.
func (h *AdminHandler) ApproveUser(c *gin.Context) {
	admin, ok := h.admin(c)
	if !ok {
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	if err := h.userRepo.Approve(uint(id)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "approval failed"})
		return
	}
	h.log.Info().Uint("admin_id", admin.ID).Uint64("user_id", id).Msg("user approved")
	c.JSON(http.StatusOK, gin.H{"message": "user approved"})
}

type SetAdminLevelRequest struct {
	AdminLevel string `json:"admin_level" binding:"required"`
}

// SetAdminLevel promotes or demotes a member. National admins only.
func (h *AdminHandler) SetAdminLevel(c *gin.Context) {
	admin, ok := h.admin(c)
	if !ok {
		return
	}
	if admin.AdminLevel != domain.AdminLevelNational {
		c.JSON(http.StatusForbidden, gin.H{"error": "national admin access required"})
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	var req SetAdminLevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.AdminLevel != domain.AdminLevelNone && !domain.IsAdminLevel(req.AdminLevel) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid admin level"})
		return
	}

	if err := h.userRepo.SetAdminLevel(uint(id), req.AdminLevel); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	h.log.Info().Uint("admin_id", admin.ID).Uint64("user_id", id).
		Str("level", req.AdminLevel).Msg("admin level changed")
	c.JSON(http.StatusOK, gin.H{"message": "admin level updated"})
}

type CampaignRequest struct {
	Name         string           `json:"name" binding:"required"`
	Category     string           `json:"category" binding:"required,oneof=MONTHLY IMPROMPTU PROJECT"`
	Description  string           `json:"description"`
	Mandatory    bool             `json:"is_mandatory"`
	Deadline     string           `json:"deadline"`
	TargetAmount *decimal.Decimal `json:"target_amount"`
}

// CreateCampaign adds a donation campaign to the catalog.
func (h *AdminHandler) CreateCampaign(c *gin.Context) {
	if _, ok := h.admin(c); !ok {
		return
	}
	var req CampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t := &models.DonationType{
		Name:         req.Name,
		Category:     req.Category,
		Description:  req.Description,
		Mandatory:    req.Mandatory,
		Active:       true,
		TargetAmount: req.TargetAmount,
	}
	if req.Deadline != "" {
		d, err := parseDate(req.Deadline)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid deadline (use YYYY-MM-DD)"})
			return
		}
		t.Deadline = &d
	}
	if err := h.donationRepo.CreateType(t); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create campaign"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"campaign": t})
}

// CloseCampaign deactivates a campaign without deleting its history.
func (h *AdminHandler) CloseCampaign(c *gin.Context) {
	if _, ok := h.admin(c); !ok {
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign id"})
		return
	}
	if err := h.donationRepo.DeactivateType(uint(id)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not close campaign"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "campaign closed"})
}

// ListWaqfInterests pages the submitted waqf interests for follow-up.
func (h *AdminHandler) ListWaqfInterests(c *gin.Context) {
	if _, ok := h.admin(c); !ok {
		return
	}
	limit, offset := pagination(c)
	list, total, err := h.donationRepo.ListWaqfInterests(limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load interests"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"interests": list, "total": total})
}
