package websocket

import (
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ServeWs handles websocket requests from the peer.
func ServeWs(hub *Hub, c *websocket.Conn, onQuestion QuestionHandler) {
	client := &Client{
		Hub:        hub,
		Conn:       c,
		ID:         uuid.New(),
		Send:       make(chan []byte, 256),
		onQuestion: onQuestion,
	}
	client.Hub.register <- client

	go client.writePump()
	client.readPump()
}
