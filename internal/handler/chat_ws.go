package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"ishrakaat/config"
	"ishrakaat/internal/auth"
	"ishrakaat/internal/domain"
	"ishrakaat/internal/models"
	"ishrakaat/internal/repository"
	"ishrakaat/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var chatUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type inboundChatMessage struct {
	MessageType string `json:"message_type"`
	Content     string `json:"content"`
}

// UpgradeAdminChatWS joins an admin to their scope room. Auth rides the query
// string because browsers cannot set headers on WebSocket upgrades. Incoming
// messages are persisted then fanned out to the room.
func UpgradeAdminChatWS(cfg *config.JWTConfig, hub *ws.Hub, chatRepo *repository.ChatRepository, userRepo *repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "token required"})
			return
		}
		claims, err := auth.ParseAccessToken(cfg, token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		u, err := userRepo.GetByID(claims.UserID)
		if err != nil || !u.IsAdmin() {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}

		scope, state, lg, ward := roomForAdmin(u)
		roomKey := strings.Join([]string{scope, state, lg, ward}, "|")

		conn, err := chatUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		client := &ws.Client{
			UserID:     u.ID,
			AdminLevel: u.AdminLevel,
			Send:       make(chan []byte, 256),
		}
		room := hub.GetOrCreateRoom(roomKey)
		room.Join(client)
		defer client.Close()

		ws.ConfigureRead(conn)
		go ws.WritePump(client, conn)

		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var in inboundChatMessage
			if err := json.Unmarshal(raw, &in); err != nil || in.Content == "" {
				continue
			}
			if in.MessageType == "" {
				in.MessageType = domain.ChatMessageText
			}
			switch in.MessageType {
			case domain.ChatMessageText, domain.ChatMessageCall, domain.ChatMessageVideo, domain.ChatMessageConference:
			default:
				continue
			}

			msg := &models.AdminChatMessage{
				SenderID:    u.ID,
				Scope:       scope,
				State:       state,
				LocalGovt:   lg,
				Ward:        ward,
				MessageType: in.MessageType,
				Content:     in.Content,
			}
			if err := chatRepo.Create(msg); err != nil {
				continue
			}
			room.Broadcast(nil, gin.H{
				"type":    "message",
				"message": msg,
				"sender": gin.H{
					"id":       u.ID,
					"username": u.Username,
					"name":     strings.TrimSpace(u.FirstName + " " + u.LastName),
				},
				"sent_at": time.Now().UTC(),
			})
		}
	}
}
