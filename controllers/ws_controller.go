package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/BekaChkhiro/rideway-api-sub002/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type WSController struct {
	hub    *services.Hub
	router *services.EventRouter
}

func NewWSController(hub *services.Hub, router *services.EventRouter) *WSController {
	return &WSController{hub: hub, router: router}
}

// Handle upgrades the connection and starts the pumps. The socket stays
// unauthenticated until the client sends the auth event.
func (ctl *WSController) Handle(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upgrade connection"})
		return
	}

	client := services.NewClient(ctl.hub, conn)
	go client.WritePump()
	go client.ReadPump(ctl.router)
}
