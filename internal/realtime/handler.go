package realtime

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/lumenboard/lumenboard/internal/domain/auth"
)

// Upgrade rejects plain HTTP requests on the websocket route
func Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// NewWebsocketHandler authenticates the connection and parks it in the
// hub until the client disconnects. Browsers cannot set headers on
// websocket requests, so the access token rides in the query string.
func NewWebsocketHandler(hub *Hub, tokens *auth.TokenService) fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		defer conn.Close()

		claims, err := tokens.Verify(conn.Query("token"), auth.TokenTypeAccess)
		if err != nil {
			return
		}

		sessionID := conn.Query("session_id")
		if sessionID == "" {
			sessionID = claims.SessionID
		}

		client := hub.Join(claims.UserID, sessionID)
		defer hub.Leave(client)

		go func() {
			for msg := range client.Send() {
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					slog.Debug("websocket write failed", "error", err, "user_id", claims.UserID)
					return
				}
			}
		}()

		// Inbound frames are ignored; the read loop only detects disconnect
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
}
