package main

import (
	"context"
	"log"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hmawbi/uniguide/internal/auth"
	"github.com/hmawbi/uniguide/internal/chat"
	"github.com/hmawbi/uniguide/internal/config"
	"github.com/hmawbi/uniguide/internal/guidance"
	"github.com/hmawbi/uniguide/internal/history"
	"github.com/hmawbi/uniguide/internal/logging"
	"github.com/hmawbi/uniguide/internal/resources"
	"github.com/hmawbi/uniguide/internal/web"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("config: no .env file loaded: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: failed to load: %v", err)
	}

	logger := logging.MustNewLogger(cfg.Logging)
	defer func() { _ = logger.Sync() }()
	sugar := logger.Sugar()

	ctx := context.Background()

	var resourceStore *resources.Store
	if cfg.Postgres.Enabled {
		resourceStore, err = resources.NewStore(ctx, cfg.Postgres)
		if err != nil {
			sugar.Fatalw("postgres connect failed", "error", err)
		}
		defer resourceStore.Close()

		if err := resourceStore.Ping(ctx); err != nil {
			sugar.Fatalw("postgres ping failed", "error", err)
		}
		if err := resourceStore.EnsureSchema(ctx); err != nil {
			sugar.Fatalw("postgres ensure schema failed", "error", err)
		}
	}

	var historyStore *history.MongoStore
	if cfg.Mongo.URI != "" {
		historyStore, err = history.NewMongoStore(ctx, cfg.Mongo)
		if err != nil {
			sugar.Fatalw("mongo connect failed", "error", err)
		}
		defer func() {
			if err := historyStore.Close(context.Background()); err != nil {
				sugar.Warnw("mongo close failed", "error", err)
			}
		}()

		if err := historyStore.EnsureIndexes(ctx); err != nil {
			sugar.Fatalw("mongo ensure indexes failed", "error", err)
		}
	}

	authService, err := auth.NewService(cfg.JWTSecret, 24*time.Hour)
	if err != nil {
		sugar.Fatalw("auth init failed", "error", err)
	}

	guidanceClient := buildGuidanceClient(cfg, sugar)

	var lister web.ResourceLister
	if resourceStore != nil {
		lister = resourceStore
	}
	var histStore chat.HistoryStore
	if historyStore != nil {
		histStore = historyStore
	}

	handler := web.NewHandler(cfg, authService, guidanceClient, lister, histStore, sugar)

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	handler.RegisterRoutes(router)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sugar.Infow("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalw("server crashed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		sugar.Warnw("graceful shutdown failed", "error", err)
	}

	sugar.Info("server stopped cleanly")
}

// buildGuidanceClient assembles the outbound client with its token sources
// in priority order: embedded token, deploy metadata, then a cookie jar
// scoped to the service endpoint.
func buildGuidanceClient(cfg *config.Config, sugar *zap.SugaredLogger) *guidance.Client {
	sources := []guidance.TokenSource{
		guidance.StaticToken(cfg.Guidance.Token),
		guidance.EnvToken(cfg.Guidance.TokenEnvKey),
	}

	if endpoint, err := url.Parse(cfg.Guidance.Endpoint); err == nil {
		if jar, err := cookiejar.New(nil); err == nil {
			sources = append(sources, guidance.CookieToken(jar, endpoint, cfg.Guidance.CookieName))
		}
	} else {
		sugar.Warnw("invalid guidance endpoint", "endpoint", cfg.Guidance.Endpoint, "error", err)
	}

	return guidance.NewClient(cfg.Guidance, guidance.ChainTokens(sources...), sugar)
}
