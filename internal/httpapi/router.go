package httpapi

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/AdamsEmmanuel/Chatbot/internal/common"
	"github.com/AdamsEmmanuel/Chatbot/internal/config"
	"github.com/AdamsEmmanuel/Chatbot/internal/httpapi/handlers"
	"github.com/AdamsEmmanuel/Chatbot/internal/httpapi/middleware"
	"github.com/AdamsEmmanuel/Chatbot/internal/store/rabbitmq"
	"github.com/AdamsEmmanuel/Chatbot/internal/store/redisstore"
)

func NewRouter(db *gorm.DB, cfg config.Config, log *zap.Logger, rds *redisstore.Store, pub *rabbitmq.Publisher) *gin.Engine {
	if cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(middleware.RequestID())
	r.Use(middleware.AccessLog(log))
	r.Use(middleware.Recovery(log))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		AllowCredentials: true,
	}))

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	h := handlers.NewHandler(db, cfg, log, rds, pub)

	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)

	authed := r.Group("/")
	authed.Use(middleware.AuthRequired(db, h.JWT, rds))
	{
		authed.GET("/auth/me", h.Me)
		authed.POST("/auth/logout", h.Logout)

		authed.POST("/chat/send", h.SendMessage)
		authed.POST("/chat/send/async", h.SendMessageAsync)
		authed.GET("/chat/sessions", h.ListSessions)
		authed.POST("/chat/sessions", h.CreateSession)
		authed.GET("/chat/sessions/:session_id", h.GetSession)
		authed.PUT("/chat/sessions/:session_id/end", h.EndSession)
		authed.GET("/chat/history", h.History)
	}

	adminGroup := authed.Group("/admin")
	adminGroup.Use(middleware.AdminRequired())
	{
		adminGroup.GET("/users", h.AdminListUsers)
		adminGroup.GET("/users/:user_id", h.AdminGetUser)
		adminGroup.GET("/users/:user_id/messages", h.AdminListUserMessages)
		adminGroup.PUT("/users/:user_id/toggle-active", h.AdminToggleUserActive)
		adminGroup.GET("/messages", h.AdminListMessages)
		adminGroup.DELETE("/messages/:message_id", h.AdminDeleteMessage)
		adminGroup.GET("/stats", h.AdminStats)
	}

	return r
}
