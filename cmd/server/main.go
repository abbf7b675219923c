// cmd/server/main.go
package main

import (
	"log"
	"net/http"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/ernsttxbias-web/partyhub/internal/config"
	"github.com/ernsttxbias-web/partyhub/internal/handlers"
	"github.com/ernsttxbias-web/partyhub/internal/middleware"
	"github.com/ernsttxbias-web/partyhub/internal/relay"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger := logrus.New()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	mux := http.NewServeMux()

	// room relay websocket
	store := relay.NewStore(logger)
	mux.Handle("/rooms/ws/", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.RelayWSHandler(logger, store),
	)))

	// video provider token proxy; keeps the client secret server-side
	proxy := handlers.NewTikTokProxy(cfg.TikTokClientKey, cfg.TikTokClientSecret, cfg.TikTokRedirectURI, logger)
	mux.Handle("/api/tiktok/exchange-code", middleware.LogMiddleware(logger)(http.HandlerFunc(
		proxy.ExchangeCodeHandler,
	)))
	mux.Handle("/api/tiktok/refresh-token", middleware.LogMiddleware(logger)(http.HandlerFunc(
		proxy.RefreshTokenHandler,
	)))

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	addr := ":" + cfg.Port
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
