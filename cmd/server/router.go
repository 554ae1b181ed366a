package main

import (
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/koinonia-app/backend/internal/handlers"
	"github.com/koinonia-app/backend/internal/metrics"
	"github.com/koinonia-app/backend/internal/middleware"
	"github.com/koinonia-app/backend/pkg/auth"
)

type Handlers struct {
	Auth         *handlers.AuthHandler
	User         *handlers.UserHandler
	Room         *handlers.RoomHandler
	Live         *handlers.LiveHandler
	Message      *handlers.MessageHandler
	Notification *handlers.NotificationHandler
	Conversation *handlers.ConversationHandler
	WebSocket    *handlers.WebSocketHandler
	JWTManager   *auth.JWTManager
	Redis        *redis.Client
}

func Routes(r *gin.Engine, h *Handlers) {
	r.Use(metrics.GinMiddleware())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authGroup := r.Group("/auth", middleware.RateLimit(rate.Limit(5), 10))
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/logout", h.Auth.Logout)
	}

	r.GET("/ws", middleware.WSAuthMiddleware(h.JWTManager, h.Redis), h.WebSocket.HandleWebSocket)

	api := r.Group("/api/v1", middleware.AuthMiddleware(h.JWTManager, h.Redis))
	{
		api.GET("/users/me", h.User.GetMe)
		api.GET("/users/:id", h.User.GetUser)

		api.POST("/rooms", h.Room.CreateRoom)
		api.GET("/rooms/:id", h.Room.GetRoom)
		api.POST("/rooms/:id/join", h.Room.JoinRoom)
		api.POST("/rooms/:id/leave", h.Room.LeaveRoom)
		api.POST("/rooms/:id/admins", h.Room.AddAdmin)
		api.GET("/rooms/:id/messages", h.Message.GetRoomHistory)

		api.POST("/rooms/:id/live/start", h.Live.StartLive)
		api.POST("/rooms/:id/live/stop", h.Live.StopLive)
		api.POST("/rooms/:id/speakers/join", h.Live.SpeakerJoin)
		api.POST("/rooms/:id/speakers/leave", h.Live.SpeakerLeave)

		api.POST("/conversations", h.Conversation.Create)
		api.POST("/conversations/:id/accept", h.Conversation.Accept)
		api.POST("/conversations/:id/reject", h.Conversation.Reject)
		api.GET("/conversations/:id/messages", h.Message.GetConversationHistory)

		api.GET("/notifications", h.Notification.List)
		api.POST("/notifications/read-all", h.Notification.MarkAllRead)
		api.PATCH("/notifications/:id/read", h.Notification.MarkRead)
		api.DELETE("/notifications/:id", h.Notification.Delete)
	}
}
