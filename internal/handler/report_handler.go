package handler

import (
	"encoding/csv"
	"net/http"
	"time"

	"ishrakaat/internal/middleware"
	"ishrakaat/internal/models"
	"ishrakaat/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type ReportHandler struct {
	reportRepo *repository.ReportRepository
	userRepo   *repository.UserRepository
	log        zerolog.Logger
}

func NewReportHandler(reportRepo *repository.ReportRepository, userRepo *repository.UserRepository, log zerolog.Logger) *ReportHandler {
	return &ReportHandler{reportRepo: reportRepo, userRepo: userRepo, log: log.With().Str("handler", "report").Logger()}
}

func (h *ReportHandler) admin(c *gin.Context) (*models.User, bool) {
	u, err := h.userRepo.GetByID(middleware.GetUserID(c))
	if err != nil || !u.IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin access required"})
		return nil, false
	}
	return u, true
}

// period parses from/to query params, defaulting to the current year.
func period(c *gin.Context) (time.Time, time.Time, bool) {
	now := time.Now()
	from := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	to := now.AddDate(0, 0, 1)

	if s := c.Query("from"); s != "" {
		d, err := parseDate(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from date (use YYYY-MM-DD)"})
			return from, to, false
		}
		from = d
	}
	if s := c.Query("to"); s != "" {
		d, err := parseDate(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to date (use YYYY-MM-DD)"})
			return from, to, false
		}
		to = d.AddDate(0, 0, 1)
	}
	return from, to, true
}

// Stats returns inflow/outflow totals for the admin's scope.
func (h *ReportHandler) Stats(c *gin.Context) {
	admin, ok := h.admin(c)
	if !ok {
		return
	}
	from, to, ok := period(c)
	if !ok {
		return
	}

	totals, err := h.reportRepo.Totals(admin, from, to)
	if err != nil {
		h.log.Error().Err(err).Msg("stats query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not compute stats"})
		return
	}
	monthly, err := h.reportRepo.MonthlyDonations(admin, from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not compute monthly breakdown"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"scope":   admin.AdminLevel,
		"totals":  totals,
		"monthly": monthly,
	})
}

// ExportCSV streams the scoped transaction log as a CSV download.
func (h *ReportHandler) ExportCSV(c *gin.Context) {
	admin, ok := h.admin(c)
	if !ok {
		return
	}
	from, to, ok := period(c)
	if !ok {
		return
	}

	// Export caps at a generous page; callers narrow the period for more.
	trs, _, err := h.reportRepo.ListInScope(admin, from, to, 10000, 0)
	if err != nil {
		h.log.Error().Err(err).Msg("export query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load transactions"})
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="transactions.csv"`)

	w := csv.NewWriter(c.Writer)
	defer w.Flush()

	w.Write([]string{"date", "registration_number", "name", "state", "local_govt", "ward", "kind", "source", "amount", "description"})
	for _, t := range trs {
		w.Write([]string{
			t.CreatedAt.Format(time.RFC3339),
			t.User.RegistrationNumber,
			t.User.FirstName + " " + t.User.LastName,
			t.User.State,
			t.User.LocalGovt,
			t.User.Ward,
			t.Kind,
			t.Source,
			t.Amount.StringFixed(2),
			t.Description,
		})
	}
}
