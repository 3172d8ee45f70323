package handler

import (
	"net/http"

	"ishrakaat/internal/domain"
	"ishrakaat/internal/middleware"
	"ishrakaat/internal/models"
	"ishrakaat/internal/repository"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	chatRepo *repository.ChatRepository
	userRepo *repository.UserRepository
}

func NewChatHandler(chatRepo *repository.ChatRepository, userRepo *repository.UserRepository) *ChatHandler {
	return &ChatHandler{chatRepo: chatRepo, userRepo: userRepo}
}

// roomForAdmin resolves the chat room an admin belongs to. Admins chat with
// peers at their own level within their own area.
func roomForAdmin(u *models.User) (scope, state, localGovt, ward string) {
	switch u.AdminLevel {
	case domain.AdminLevelNational:
		return "NATIONAL", "", "", ""
	case domain.AdminLevelState:
		return "STATE", u.State, "", ""
	case domain.AdminLevelLocalGovt:
		return "LOCAL_GOVT", u.State, u.LocalGovt, ""
	default:
		return "WARD", u.State, u.LocalGovt, u.Ward
	}
}

// History returns recent messages in the admin's scope room.
func (h *ChatHandler) History(c *gin.Context) {
	u, err := h.userRepo.GetByID(middleware.GetUserID(c))
	if err != nil || !u.IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin access required"})
		return
	}

	limit, _ := pagination(c)
	scope, state, lg, ward := roomForAdmin(u)
	msgs, err := h.chatRepo.History(scope, state, lg, ward, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load messages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"scope": scope, "messages": msgs})
}
