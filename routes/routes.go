package routes

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/BekaChkhiro/rideway-api-sub002/config"
	"github.com/BekaChkhiro/rideway-api-sub002/controllers"
	"github.com/BekaChkhiro/rideway-api-sub002/middlewares"
)

type Controllers struct {
	Chat          *controllers.ChatController
	Notifications *controllers.NotificationController
	Devices       *controllers.DeviceController
	WS            *controllers.WSController
}

// Register builds the engine and wires every route of the messaging core.
func Register(cfg *config.Config, ctl Controllers) *gin.Engine {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	// the socket authenticates itself via the auth event
	r.GET("/ws", ctl.WS.Handle)

	authorized := r.Group("/")
	authorized.Use(middlewares.RequireAuth(cfg.JWTSecret))
	{
		chat := authorized.Group("/chat")
		{
			chat.GET("/conversations", ctl.Chat.ListConversations)
			chat.POST("/conversations", ctl.Chat.CreateConversation)
			chat.GET("/conversations/:id", ctl.Chat.GetConversation)
			chat.GET("/conversations/:id/messages", ctl.Chat.ListMessages)
			chat.POST("/conversations/:id/messages", ctl.Chat.SendMessage)
			chat.POST("/conversations/:id/read", ctl.Chat.MarkAsRead)
			chat.POST("/conversations/:id/mute", ctl.Chat.MuteConversation)
			chat.PATCH("/messages/:id", ctl.Chat.EditMessage)
			chat.DELETE("/messages/:id", ctl.Chat.DeleteMessage)
			chat.GET("/unread", ctl.Chat.GetUnreadCount)
		}

		notifications := authorized.Group("/notifications")
		{
			notifications.GET("", ctl.Notifications.List)
			notifications.POST("/:id/read", ctl.Notifications.MarkRead)
			notifications.POST("/read-all", ctl.Notifications.MarkAllRead)
			notifications.GET("/unread-count", ctl.Notifications.UnreadCount)
			notifications.GET("/preferences", ctl.Notifications.GetPreferences)
			notifications.PUT("/preferences", ctl.Notifications.UpdatePreferences)
		}

		devices := authorized.Group("/devices")
		{
			devices.POST("", ctl.Devices.Register)
			devices.DELETE("", ctl.Devices.Unregister)
			devices.DELETE("/all", ctl.Devices.UnregisterAll)
		}
	}

	return r
}
