package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"beckon/config"
	"beckon/internal/auth"
	"beckon/internal/router"
	"beckon/internal/service"
	"beckon/internal/store"
	firestorestore "beckon/internal/store/firestore"
	"beckon/internal/store/memstore"
	"beckon/pkg/logger"
)

func main() {
	cfg := config.Load()
	log := logger.New("beckon", cfg.Logger.Level)
	defer log.Sync()

	ctx := context.Background()

	var st store.Store
	if cfg.Firebase.ProjectID != "" {
		fs, err := firestorestore.New(ctx, cfg.Firebase.ProjectID, cfg.Firebase.ServiceAccountPath)
		if err != nil {
			log.Fatal("firestore init", zap.Error(err))
		}
		defer fs.Close()
		st = fs
	} else {
		log.Warn("FIREBASE_PROJECT_ID not set, using in-memory store (data is not durable)")
		st = memstore.New()
	}

	var verifier auth.Verifier
	if cfg.Auth.DevSecret != "" {
		log.Warn("AUTH_DEV_SECRET set, accepting dev tokens instead of Firebase ID tokens")
		verifier = auth.NewJWTVerifier(cfg.Auth.DevSecret, cfg.Auth.Issuer)
	} else {
		v, err := auth.NewFirebaseVerifier(ctx, cfg.Firebase.ProjectID, cfg.Firebase.ServiceAccountPath)
		if err != nil {
			log.Fatal("auth init", zap.Error(err))
		}
		verifier = v
	}

	pusher, err := service.NewFCMService(ctx, cfg.Firebase.ProjectID, cfg.Firebase.ServiceAccountPath)
	if err != nil {
		log.Fatal("fcm init", zap.Error(err))
	}
	if pusher == nil {
		log.Info("push notifications disabled: Firebase not configured")
	}

	// a nil *FCMService must stay a nil interface for the dispatcher check
	var p service.Pusher
	if pusher != nil {
		p = pusher
	}

	engine := router.Setup(cfg, st, verifier, p, log)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		log.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("server shutdown", zap.Error(err))
	}
	log.Info("server stopped")
}
