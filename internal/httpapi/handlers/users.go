package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/AdamsEmmanuel/Chatbot/internal/auth"
	"github.com/AdamsEmmanuel/Chatbot/internal/common"
	"github.com/AdamsEmmanuel/Chatbot/internal/httpapi/middleware"
	"github.com/AdamsEmmanuel/Chatbot/internal/models"
)

type registerReq struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email,max=100"`
	Password string `json:"password" binding:"required,min=8"`
}

// userView is the safe projection: never the hash.
type userView struct {
	ID        uint64 `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	IsActive  bool   `json:"is_active"`
	IsAdmin   bool   `json:"is_admin"`
	CreatedAt string `json:"created_at"`
}

func viewOf(u *models.User) userView {
	return userView{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		IsActive:  u.IsActive,
		IsAdmin:   u.IsAdmin,
		CreatedAt: u.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (h *Handler) Register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid registration payload")
		return
	}

	ctx := c.Request.Context()

	var cnt int64
	if err := h.DB.WithContext(ctx).Model(&models.User{}).Where("username = ?", req.Username).Count(&cnt).Error; err != nil {
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}
	if cnt > 0 {
		common.Fail(c, http.StatusBadRequest, 10002, "username already registered")
		return
	}

	if err := h.DB.WithContext(ctx).Model(&models.User{}).Where("email = ?", req.Email).Count(&cnt).Error; err != nil {
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}
	if cnt > 0 {
		common.Fail(c, http.StatusBadRequest, 10003, "email already registered")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50002, "failed to hash password")
		return
	}

	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := h.DB.WithContext(ctx).Create(&user).Error; err != nil {
		// unique index race between the checks above and the insert
		common.Fail(c, http.StatusBadRequest, 10004, "username or email already registered")
		return
	}

	h.Log.Info("user registered", zap.Uint64("user_id", user.ID), zap.String("username", user.Username))
	common.Created(c, viewOf(&user))
}

type loginReq struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid login payload")
		return
	}

	var user models.User
	err := h.DB.WithContext(c.Request.Context()).
		Where("username = ?", req.Username).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Fail(c, http.StatusUnauthorized, 40110, "incorrect username or password")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}

	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		common.Fail(c, http.StatusUnauthorized, 40110, "incorrect username or password")
		return
	}
	if !user.IsActive {
		common.Fail(c, http.StatusUnauthorized, 40105, "account deactivated")
		return
	}

	token, expiresAt, err := h.JWT.GenerateToken(user.ID, user.Username)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50003, "failed to sign token")
		return
	}

	common.OK(c, gin.H{
		"access_token": token,
		"token_type":   "bearer",
		"expires_at":   expiresAt,
	})
}

func (h *Handler) Me(c *gin.Context) {
	ident, ok := middleware.IdentityFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var user models.User
	if err := h.DB.WithContext(c.Request.Context()).First(&user, ident.UserID).Error; err != nil {
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}
	common.OK(c, viewOf(&user))
}

// Logout revokes the presented token's JTI until its natural expiry; the
// client discards the token as before.
func (h *Handler) Logout(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		common.Fail(c, http.StatusUnauthorized, 40101, "missing bearer token")
		return
	}

	claims, err := h.JWT.VerifyToken(token)
	if err != nil {
		common.Fail(c, http.StatusUnauthorized, 40102, "invalid or expired token")
		return
	}

	if claims.ID != "" && claims.ExpiresAt != nil {
		if err := h.Redis.RevokeToken(c.Request.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
			common.Fail(c, http.StatusInternalServerError, 50004, "failed to revoke token")
			return
		}
	}

	common.OK(c, gin.H{"message": "Successfully logged out"})
}
