package main

import (
	"context"
	"log"
	"net/http"

	"CipherChat/global"
	"CipherChat/logger"
	"CipherChat/service/chat"
	"CipherChat/service/chat/handlers"
	"CipherChat/service/storage"
	redisc "CipherChat/service/storage/redis"
	"CipherChat/tools/security"

	"github.com/gin-gonic/gin"
)

func main() {
	global.ConfigIds()
	conf := global.DefaultGatewayConfig()

	// 1) Persistence collaborator
	var store storage.MessageStore
	mcfg := global.GetMongoConfig()
	ms, err := storage.NewMongoStore(context.Background(), storage.MongoConfig{
		Uri:         mcfg.Uri,
		Database:    mcfg.Database,
		Username:    mcfg.Username,
		Password:    mcfg.Password,
		MaxPoolSize: 20,
	})
	if err != nil {
		logger.Warnf("[main] mongo unavailable, using in-memory store: %v", err)
		store = storage.NewMemoryStore()
	} else {
		store = ms
	}

	// 2) Optional conversation-history mirror
	if rcfg := global.GetRedisConfig(); rcfg.Enabled {
		if err := redisc.InitRedis(redisc.Config{
			Addr: rcfg.Addr, Password: rcfg.Password, DB: rcfg.DB,
		}); err != nil {
			logger.Warnf("[main] redis mirror disabled: %v", err)
		}
	}

	// 3) Delivery core
	s := chat.NewServer(conf, store, security.DefaultOptions(global.GetJwtSecret()))
	handlers.RegisterAll(s.Disp())
	defer s.Close()

	// 4) HTTP + WebSocket
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/chat", s.HandleWS) // e.g. ws://localhost:8080/chat?token=...
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	logger.Infof("[HTTP] listening on %s", conf.ListenAddr)
	if err := r.Run(conf.ListenAddr); err != nil {
		log.Fatalf("HTTP server failed: %v", err)
	}
}
