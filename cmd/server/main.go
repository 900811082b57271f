// cmd/server/main.go
package main

import (
	"log"
	"net/http"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/playtable/coordinator/internal/auth"
	"github.com/playtable/coordinator/internal/cache"
	"github.com/playtable/coordinator/internal/config"
	"github.com/playtable/coordinator/internal/handlers"
	"github.com/playtable/coordinator/internal/middleware"
	"github.com/playtable/coordinator/internal/room"
)

func main() {
	if priv, pub := os.Getenv("TOKEN_PRIVATE_KEY_PATH"), os.Getenv("TOKEN_PUBLIC_KEY_PATH"); priv != "" && pub != "" {
		if err := auth.InitFromPath(priv, pub); err != nil {
			log.Fatalf("failed to load token keys: %v", err)
		}
	} else {
		auth.Init()
	}

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	// The journal is an optional side channel; the coordinator runs
	// fine without Redis.
	if os.Getenv("REDIS_ADDR") != "" {
		if err := cache.ConnectRedis(); err != nil {
			logger.Warnf("room event journal disabled: %v", err)
		}
	}

	registry := room.NewRegistry(logger, config.GracePeriod())
	srv := handlers.NewServer(logger, registry)

	mux := http.NewServeMux()
	mux.Handle("/table/ws", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.WSHandler(logger, srv),
	)))

	addr := config.ListenAddr()
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
