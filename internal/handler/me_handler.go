package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"ishrakaat/internal/middleware"
	"ishrakaat/internal/repository"
	"ishrakaat/pkg/cloudinary"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type MeHandler struct {
	userRepo     *repository.UserRepository
	donationRepo *repository.DonationRepository
	cloud        cloudinary.Client
}

func NewMeHandler(userRepo *repository.UserRepository, donationRepo *repository.DonationRepository, cloud cloudinary.Client) *MeHandler {
	return &MeHandler{userRepo: userRepo, donationRepo: donationRepo, cloud: cloud}
}

func (h *MeHandler) Profile(c *gin.Context) {
	u, err := h.userRepo.GetByID(middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

type UpdateProfileRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	State     string `json:"state"`
	LocalGovt string `json:"local_govt"`
	Ward      string `json:"ward"`
}

func (h *MeHandler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.userRepo.GetByID(middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if req.FirstName != "" {
		u.FirstName = req.FirstName
	}
	if req.LastName != "" {
		u.LastName = req.LastName
	}
	if req.Phone != "" {
		u.Phone = req.Phone
	}
	if req.State != "" {
		u.State = req.State
	}
	if req.LocalGovt != "" {
		u.LocalGovt = req.LocalGovt
	}
	if req.Ward != "" {
		u.Ward = req.Ward
	}
	if err := h.userRepo.Update(u); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

// Dashboard is the home screen payload: balance, this month's giving against
// the recurring target, and recent transactions.
func (h *MeHandler) Dashboard(c *gin.Context) {
	userID := middleware.GetUserID(c)
	u, err := h.userRepo.GetByID(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	balance := decimal.Zero
	if u.Wallet != nil {
		balance = u.Wallet.Balance
	}

	monthlyTarget := decimal.Zero
	if s, err := h.donationRepo.GetSettings(userID); err == nil {
		monthlyTarget = s.MonthlyAmount
	}

	recent, _, err := h.donationRepo.ListTransactions(userID, "", 10, 0)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load transactions"})
		return
	}

	givenThisMonth, err := h.donationRepo.SumDonationsInMonth(userID, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load monthly totals"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":              u,
		"balance":           balance,
		"monthly_target":    monthlyTarget,
		"given_this_month":  givenThisMonth,
		"recent_activities": recent,
	})
}

// UploadProfilePicture stores the image on Cloudinary and saves the URL.
func (h *MeHandler) UploadProfilePicture(c *gin.Context) {
	userID := middleware.GetUserID(c)
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file required"})
		return
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
		return
	}
	defer f.Close()

	folder := "ishrakaat/profiles/" + strconv.FormatUint(uint64(userID), 10)
	publicID := "img_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:16]
	url, _, err := h.cloud.UploadImage(c.Request.Context(), f, folder, publicID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
		return
	}
	if err := h.userRepo.SetProfilePicture(userID, url); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save picture"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
