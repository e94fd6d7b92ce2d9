package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/authgate/authgate/config"
	"github.com/authgate/authgate/hashing"
	"github.com/authgate/authgate/middleware"
	"github.com/authgate/authgate/repository"
	mongostore "github.com/authgate/authgate/repository/mongo"
	sqlitestore "github.com/authgate/authgate/repository/sqlite"
	"github.com/authgate/authgate/service"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if key := os.Getenv("AUTHGATE_HASH_KEY"); key != "" {
		cfg.HashFunc = hashing.HMACSHA256(key)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := buildStore(cfg, logger)

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := store.Connect(connectCtx); err != nil {
		logger.Fatalf("connect store: %v", err)
	}

	svc := service.New(store.Users(), store.Tokens(), cfg, logger)
	auth := middleware.New(svc, cfg)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "this route does not require authorization"})
	})
	router.POST("/login", auth.Login(), func(c *gin.Context) {
		token, _ := middleware.TokenFromContext(c)
		c.JSON(http.StatusOK, gin.H{"token": token})
	})
	router.GET("/profile", auth.Authorize(), func(c *gin.Context) {
		user, _ := middleware.UserFromContext(c)
		c.JSON(http.StatusOK, gin.H{"id": user.ID, "user": user.Fields})
	})
	router.POST("/logout", auth.Logout(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "logout successful"})
	})
	router.POST("/logout-all", auth.LogoutAll(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "all devices are logged out"})
	})

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}
	if err := store.Disconnect(shutdownCtx); err != nil {
		logger.Warnf("disconnect store: %v", err)
	}

	logger.Info("bye")
}

func buildStore(cfg config.Config, logger *logrus.Logger) repository.Store {
	if cfg.Mongo.URI != "" {
		logger.Infof("using mongodb store (database %s)", cfg.Mongo.Database)
		return mongostore.NewStore(mongostore.Options{
			URI:              cfg.Mongo.URI,
			Database:         cfg.Mongo.Database,
			UsersCollection:  cfg.Users.Collection,
			TokensCollection: cfg.Tokens.Collection,
		})
	}
	logger.Infof("using sqlite store at %s", cfg.Database.Path)
	return sqlitestore.NewStore(cfg.Database.Path)
}
