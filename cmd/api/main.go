package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/AdamsEmmanuel/Chatbot/internal/chat"
	"github.com/AdamsEmmanuel/Chatbot/internal/config"
	"github.com/AdamsEmmanuel/Chatbot/internal/db"
	"github.com/AdamsEmmanuel/Chatbot/internal/httpapi"
	"github.com/AdamsEmmanuel/Chatbot/internal/logger"
	"github.com/AdamsEmmanuel/Chatbot/internal/models"
	"github.com/AdamsEmmanuel/Chatbot/internal/store/rabbitmq"
	"github.com/AdamsEmmanuel/Chatbot/internal/store/redisstore"
)

func main() {
	cfg := config.Load()

	log := logger.New(cfg.LogFile, cfg.IsProd())
	defer func() { _ = log.Sync() }()

	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatal("database connect failed", zap.Error(err))
	}

	if err := gdb.AutoMigrate(&models.User{}, &chat.Session{}, &chat.Message{}); err != nil {
		log.Fatal("automigrate failed", zap.Error(err))
	}

	rds := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer func() { _ = rds.Close() }()

	pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
	if err != nil {
		log.Fatal("rabbitmq connect failed", zap.Error(err))
	}
	defer func() { _ = pub.Close() }()

	router := httpapi.NewRouter(gdb, cfg, log, rds, pub)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("api listening", zap.String("addr", cfg.HTTPAddr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("serve failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", zap.Error(err))
	}
}
