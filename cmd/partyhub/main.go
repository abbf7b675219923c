// cmd/partyhub/main.go

// Headless room client. Creates or joins a room over the configured
// transport and logs the synchronized state as it converges, mostly
// useful for poking at rooms without a frontend.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/ernsttxbias-web/partyhub/internal/auth"
	"github.com/ernsttxbias-web/partyhub/internal/cache"
	"github.com/ernsttxbias-web/partyhub/internal/config"
	"github.com/ernsttxbias-web/partyhub/internal/room"
	"github.com/ernsttxbias-web/partyhub/internal/transport"
)

func main() {
	create := flag.Bool("create", false, "create a new room")
	join := flag.String("join", "", "join an existing room by code")
	name := flag.String("name", "", "display name to use")
	flag.Parse()

	if *create == (*join != "") {
		log.Fatal("pass exactly one of -create or -join CODE")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger := logrus.New()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("opening cache store: %v", err)
	}
	defer store.Close()
	local := cache.New(store, nil)

	if *name != "" {
		profile := local.Profile(ctx)
		profile.Name = *name
		if err := local.SetProfile(ctx, profile); err != nil {
			logger.Warnf("saving profile: %v", err)
		}
	}

	tr, cleanup, err := buildTransport(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("building %s transport: %v", cfg.Transport, err)
	}
	defer cleanup()

	minter, err := buildMinter(cfg)
	if err != nil {
		log.Fatalf("building token minter: %v", err)
	}

	core := room.New(tr, local, minter, room.WithLogger(logger))

	if *create {
		code, err := core.CreateRoom(ctx)
		if err != nil {
			log.Fatalf("creating room: %v", err)
		}
		logger.Infof("room created, share this code: %s", code)
	} else {
		if err := core.JoinRoom(ctx, *join); err != nil {
			log.Fatalf("joining room: %v", err)
		}
		logger.Infof("joined room %s", *join)
	}

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("leaving room")
			if err := core.LeaveRoom(context.Background()); err != nil {
				logger.Warnf("leaving room: %v", err)
			}
			return
		case <-ticker.C:
			logSnapshot(logger, core)
		}
	}
}

func logSnapshot(logger *logrus.Logger, core *room.Core) {
	r := core.Room()
	if r == nil {
		return
	}
	fields := logrus.Fields{
		"room":    r.Code,
		"status":  r.Status,
		"players": len(r.Players),
	}
	if rd := core.Round(); rd != nil {
		fields["round"] = rd.RoundNumber
		fields["phase"] = rd.Phase
	}
	logger.WithFields(fields).Info("room state")
}

func openStore(cfg config.Config) (cache.Store, error) {
	if cfg.CachePath == "" {
		return cache.NewMemoryStore(), nil
	}
	return cache.OpenSQLite(cfg.CachePath)
}

func buildTransport(ctx context.Context, cfg config.Config, logger *logrus.Logger) (transport.Transport, func(), error) {
	switch cfg.Transport {
	case config.TransportRedis:
		tr, err := transport.NewRedisTransport(ctx, cfg.RedisAddr, cfg.RedisDB, logger)
		if err != nil {
			return nil, nil, err
		}
		return tr, func() {}, nil
	case config.TransportNATS:
		tr, err := transport.NewNATSTransport(cfg.NATSURL, logger)
		if err != nil {
			return nil, nil, err
		}
		return tr, tr.Close, nil
	case config.TransportWS:
		return transport.NewWSTransport(cfg.RelayURL, logger), func() {}, nil
	default:
		// A lone process gets its own broker; rooms only span this
		// process, which is still enough for local testing.
		return transport.NewBroker(logger), func() {}, nil
	}
}

func buildMinter(cfg config.Config) (*auth.Minter, error) {
	if cfg.SessionKeyDir != "" {
		return auth.NewMinterFromPath(
			filepath.Join(cfg.SessionKeyDir, "session.key"),
			filepath.Join(cfg.SessionKeyDir, "session.pub"),
		)
	}
	return auth.NewMinter()
}
