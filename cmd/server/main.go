// Command server boots the full messaging core: config, store, every
// service, the realtime gateway, the retention worker, and the HTTP
// router, then serves until an interrupt signal triggers a graceful
// shutdown. Grounded on the teacher's own main.go wiring sequence and
// `server/shutdown.go` signal handling.
package main

import (
	"context"
	"crypto/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/backboneproto/corechat/internal/attachments"
	"github.com/backboneproto/corechat/internal/auth"
	"github.com/backboneproto/corechat/internal/authsvc"
	"github.com/backboneproto/corechat/internal/config"
	"github.com/backboneproto/corechat/internal/domain"
	"github.com/backboneproto/corechat/internal/httpapi"
	"github.com/backboneproto/corechat/internal/idgen"
	"github.com/backboneproto/corechat/internal/logging"
	"github.com/backboneproto/corechat/internal/messagesvc"
	"github.com/backboneproto/corechat/internal/metrics"
	"github.com/backboneproto/corechat/internal/policy"
	"github.com/backboneproto/corechat/internal/push"
	"github.com/backboneproto/corechat/internal/ratelimit"
	"github.com/backboneproto/corechat/internal/realtime"
	"github.com/backboneproto/corechat/internal/retention"
	"github.com/backboneproto/corechat/internal/roomsvc"
	"github.com/backboneproto/corechat/internal/store"
	"github.com/backboneproto/corechat/internal/store/memory"
	storesql "github.com/backboneproto/corechat/internal/store/sql"
	"github.com/backboneproto/corechat/internal/translate"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logging.New(cfg.GoEnv, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	m := metrics.New()

	st, err := openStore(cfg)
	if err != nil {
		log.Fatalw("failed to open store", "error", err)
	}
	ctx := context.Background()
	if err := st.Open(ctx); err != nil {
		log.Fatalw("failed to initialize store", "error", err)
	}
	defer st.Close()

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	}

	ids, err := idgen.New(1)
	if err != nil {
		log.Fatalw("failed to build id generator", "error", err)
	}

	profanity := policy.NewProfanityDetector(nil)

	var translateProvider translate.Provider = translate.NoopProvider{}
	translateCache := translate.NewCache(redisClient, 24*time.Hour)
	translateClient := translate.NewClient(translateProvider, translateCache, m, log, 2*time.Second)

	hub := realtime.NewHub(log, m)
	gateway := realtime.NewGateway(hub, log)

	pushRegistry := push.NewRegistry(log)

	messages := messagesvc.New(st, profanity, translateClient, hub, pushRegistry, m, log, cfg.EditWindow())
	gateway.SetMessageFetcher(func(ctx context.Context, messageID int64) (bool, []int64, error) {
		msg, err := st.MessageGet(ctx, messageID)
		if err != nil {
			return false, nil, nil
		}
		participants, err := st.ParticipantsForRoom(ctx, msg.ChatRoomID)
		if err != nil {
			return true, nil, err
		}
		recipients := make([]int64, 0, len(participants))
		for _, p := range participants {
			recipients = append(recipients, p.UserID)
		}
		return true, recipients, nil
	})

	rooms := roomsvc.New(st, ids, log)

	sessionKey := []byte(cfg.SessionSecret)
	tokens, err := auth.NewTokenAuth(sessionKey, 1, 7*24*time.Hour)
	if err != nil {
		log.Fatalw("failed to build token auth", "error", err)
	}
	var jwtVerifier *auth.JWTVerifier
	if cfg.APIKeySecret != "" {
		jwtVerifier = auth.NewJWTVerifier([]byte(cfg.APIKeySecret))
	}

	authSvc := authsvc.New(st, tokens, cfg.GoEnv != "production", log)

	limiter, err := ratelimit.New(ratelimit.Config{
		MessagesPerWindow:  cfg.RateLimitMessagesPerWindow,
		MessagesWindowSec:  int(cfg.RateLimitMessagesWindow.Seconds()),
		TranslatePerWindow: cfg.RateLimitTranslatePerWindow,
		TranslateWindowSec: int(cfg.RateLimitTranslateWindow.Seconds()),
	}, redisClient)
	if err != nil {
		log.Fatalw("failed to build rate limiter", "error", err)
	}

	signerKey := make([]byte, 32)
	_, _ = rand.Read(signerKey)
	signer := attachments.NewSigner(signerKey, time.Duration(cfg.SignedURLTTLSec)*time.Second, cfg.StoragePublicBaseURL)
	storageDriver := attachments.NewLocalDriver(os.TempDir(), cfg.StoragePublicBaseURL)
	uploads := attachments.NewService(st, storageDriver, signer, cfg.MaxFileSizeBytes, domain.StorageDriver(cfg.StorageDriver))

	retentionWorker := retention.New(
		st, hub, m, log,
		cfg.ExpireJobInterval(), cfg.ExpireJobBatch,
		cfg.FreeRetention(), cfg.PremiumRetention(),
	)
	retentionCtx, cancelRetention := context.WithCancel(context.Background())
	go retentionWorker.Run(retentionCtx)
	go runPrunePass(retentionCtx, retentionWorker, st, log)

	app := &httpapi.App{
		Store:       st,
		Auth:        authSvc,
		Messages:    messages,
		Rooms:       rooms,
		Uploads:     uploads,
		Gateway:     gateway,
		Tokens:      tokens,
		JWTVerifier: jwtVerifier,
		Limiter:     limiter,
		Cfg:         cfg,
		Log:         log,
	}
	router := app.NewRouter()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infow("listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")
	cancelRetention()
	retentionWorker.Stop()
	hub.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("graceful shutdown failed", "error", err)
	}
}

// runPrunePass drives the plan-gated hard-delete pass on its own daily
// ticker, separate from the expire worker's short-interval tombstone loop.
func runPrunePass(ctx context.Context, w *retention.Worker, users store.Users, log *zap.SugaredLogger) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			w.PrunePass(ctx, users)
		case <-ctx.Done():
			return
		}
	}
}

func openStore(cfg *config.Config) (store.Adapter, error) {
	switch cfg.StoreDriver {
	case "sql":
		return storesql.New(cfg.DatabaseURL)
	default:
		return memory.New(), nil
	}
}
