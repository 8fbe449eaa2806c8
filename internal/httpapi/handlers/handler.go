package handlers

import (
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/AdamsEmmanuel/Chatbot/internal/admin"
	"github.com/AdamsEmmanuel/Chatbot/internal/auth"
	"github.com/AdamsEmmanuel/Chatbot/internal/bot"
	"github.com/AdamsEmmanuel/Chatbot/internal/chat"
	"github.com/AdamsEmmanuel/Chatbot/internal/config"
	"github.com/AdamsEmmanuel/Chatbot/internal/store/rabbitmq"
	"github.com/AdamsEmmanuel/Chatbot/internal/store/redisstore"
)

type Handler struct {
	DB       *gorm.DB
	Cfg      config.Config
	Log      *zap.Logger
	Redis    *redisstore.Store
	Rabbit   *rabbitmq.Publisher
	JWT      *auth.JWTManager
	ChatSvc  *chat.Service
	AdminSvc *admin.Service
}

func NewHandler(db *gorm.DB, cfg config.Config, log *zap.Logger, rds *redisstore.Store, pub *rabbitmq.Publisher) *Handler {
	repo := chat.NewRepo(db)
	responder := bot.New()

	return &Handler{
		DB:       db,
		Cfg:      cfg,
		Log:      log,
		Redis:    rds,
		Rabbit:   pub,
		JWT:      auth.NewJWTManager(cfg.JWTSecret, time.Duration(cfg.AccessTokenExpires)*time.Minute),
		ChatSvc:  chat.NewService(repo, responder),
		AdminSvc: admin.NewService(db),
	}
}
