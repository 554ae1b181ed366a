package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/koinonia-app/backend/internal/broadcast"
	"github.com/koinonia-app/backend/internal/chat"
	"github.com/koinonia-app/backend/internal/config"
	"github.com/koinonia-app/backend/internal/database"
	"github.com/koinonia-app/backend/internal/handlers"
	"github.com/koinonia-app/backend/internal/live"
	applog "github.com/koinonia-app/backend/internal/log"
	"github.com/koinonia-app/backend/internal/notify"
	"github.com/koinonia-app/backend/internal/presence"
	ws "github.com/koinonia-app/backend/internal/websocket"
	"github.com/koinonia-app/backend/pkg/auth"
)

type Server struct {
	Router *gin.Engine
	Config config.Config
	DB     *database.Database
	Redis  *redis.Client
	Hub    *ws.Hub
	Bridge *broadcast.NATSBridge
}

func NewServer() *Server {
	if err := godotenv.Load(".env.local"); err != nil {
		if err := godotenv.Load(); err != nil {
			log.Info().Msg(".env not found, using environment variables")
		}
	}

	cfg := config.Load()
	applog.Init(cfg.Env)

	db := &database.Database{}
	if err := db.Connect(cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("postgres connect failed")
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid REDIS_URL")
	}
	rdb := redis.NewClient(redisOpts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatal().Err(err).Msg("redis connect failed")
	}

	jwtMgr := auth.NewJWTManager(cfg.JWTSecret, time.Duration(cfg.TokenTTLHours)*time.Hour)

	hub := ws.NewHub()

	// With NATS configured, every publish round-trips through the broker so
	// all instances, this one included, deliver it locally.
	var pub broadcast.Publisher = hub
	var bridge *broadcast.NATSBridge
	if cfg.NATSURL != "" {
		bridge, err = broadcast.NewNATSBridge(cfg.NATSURL, hub)
		if err != nil {
			log.Fatal().Err(err).Msg("nats connect failed")
		}
		if err := bridge.Run(); err != nil {
			log.Fatal().Err(err).Msg("nats subscribe failed")
		}
		pub = bridge
	}

	roster := presence.NewRoster(pub, db)
	registry := presence.NewRegistry(roster, pub, presence.NewRedisMirror(rdb))
	coordinator := live.NewCoordinator(db, pub)
	relay := chat.NewRelay(db, pub)
	dispatcher := notify.NewDispatcher(db, pub, registry)

	socketH := handlers.NewSocketHandler(registry, roster, coordinator, relay)
	hub.OnDisconnect(socketH.Disconnect)
	go hub.Run()

	router := gin.Default()
	Routes(router, &Handlers{
		Auth:         handlers.NewAuthHandler(db, jwtMgr, rdb),
		User:         handlers.NewUserHandler(db, registry),
		Room:         handlers.NewRoomHandler(db, roster),
		Live:         handlers.NewLiveHandler(db, coordinator),
		Message:      handlers.NewMessageHandler(relay),
		Notification: handlers.NewNotificationHandler(dispatcher),
		Conversation: handlers.NewConversationHandler(db, dispatcher),
		WebSocket:    handlers.NewWebSocketHandler(hub, socketH),
		JWTManager:   jwtMgr,
		Redis:        rdb,
	})

	return &Server{
		Router: router,
		Config: cfg,
		DB:     db,
		Redis:  rdb,
		Hub:    hub,
		Bridge: bridge,
	}
}

func (s *Server) Run() {
	log.Info().Str("port", s.Config.Port).Msg("server starting")
	if err := s.Router.Run(":" + s.Config.Port); err != nil {
		log.Fatal().Err(err).Msg("server run error")
	}
}
