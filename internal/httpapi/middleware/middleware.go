package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/AdamsEmmanuel/Chatbot/internal/auth"
	"github.com/AdamsEmmanuel/Chatbot/internal/common"
	"github.com/AdamsEmmanuel/Chatbot/internal/models"
)

const (
	IdentityKey     = "auth.identity"
	RequestIDKey    = "request.id"
	RequestIDHeader = "X-Request-ID"
)

// TokenRevocations answers whether a token's JTI has been denied at logout.
type TokenRevocations interface {
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

// RequestID tags every request with an id, honoring one supplied by the
// client.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// Recovery converts panics into the generic internal-error envelope so no
// detail leaks past the boundary.
func Recovery(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic recovered",
					zap.Any("panic", r),
					zap.String("path", c.Request.URL.Path),
					zap.String("request_id", c.GetString(RequestIDKey)),
				)
				common.Fail(c, http.StatusInternalServerError, 50000, "internal server error")
				c.Abort()
			}
		}()
		c.Next()
	}
}

// AccessLog is the request log line, written through zap instead of gin's
// default writer.
func AccessLog(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.GetString(RequestIDKey)),
		)
	}
}

// AuthRequired resolves the caller's identity from the bearer token: verify
// the signature, check the logout denylist, load the user row, reject
// deactivated accounts. The identity is stored once; nothing downstream
// re-derives it.
func AuthRequired(db *gorm.DB, jwtMgr *auth.JWTManager, revocations TokenRevocations) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			common.Fail(c, http.StatusUnauthorized, 40101, "missing bearer token")
			c.Abort()
			return
		}

		claims, err := jwtMgr.VerifyToken(token)
		if err != nil {
			common.Fail(c, http.StatusUnauthorized, 40102, "invalid or expired token")
			c.Abort()
			return
		}

		if revocations != nil && claims.ID != "" {
			revoked, err := revocations.IsTokenRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
				c.Abort()
				return
			}
			if revoked {
				common.Fail(c, http.StatusUnauthorized, 40103, "token revoked")
				c.Abort()
				return
			}
		}

		var user models.User
		if err := db.WithContext(c.Request.Context()).First(&user, claims.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				common.Fail(c, http.StatusUnauthorized, 40104, "unknown user")
			} else {
				common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
			}
			c.Abort()
			return
		}
		if !user.IsActive {
			common.Fail(c, http.StatusUnauthorized, 40105, "account deactivated")
			c.Abort()
			return
		}

		c.Set(IdentityKey, auth.Identity{
			UserID:   user.ID,
			Username: user.Username,
			IsAdmin:  user.IsAdmin,
		})
		c.Next()
	}
}

// AdminRequired gates the admin surface on the admin flag.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := IdentityFromContext(c)
		if !ok {
			common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
			c.Abort()
			return
		}
		if !ident.IsAdmin {
			common.Fail(c, http.StatusForbidden, 40301, "admin access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

func IdentityFromContext(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(IdentityKey)
	if !ok {
		return auth.Identity{}, false
	}
	ident, ok := v.(auth.Identity)
	return ident, ok
}
