package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	gormsqlite "github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/AdamsEmmanuel/Chatbot/internal/bot"
	"github.com/AdamsEmmanuel/Chatbot/internal/chat"
	"github.com/AdamsEmmanuel/Chatbot/internal/config"
	"github.com/AdamsEmmanuel/Chatbot/internal/httpapi/middleware"
	"github.com/AdamsEmmanuel/Chatbot/internal/models"
)

func setup(t *testing.T) (*Handler, *gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &chat.Session{}, &chat.Message{}))

	cfg := config.Config{
		JWTSecret:          "test-secret",
		AccessTokenExpires: 30,
		Env:                "test",
	}

	h := NewHandler(db, cfg, zap.NewNop(), nil, nil)

	// tests should not sit through the artificial reply delay
	responder := bot.New()
	responder.MinDelay = 0
	responder.MaxDelay = 0
	h.ChatSvc = chat.NewService(chat.NewRepo(db), responder)

	r := gin.New()
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)

	authed := r.Group("/")
	authed.Use(middleware.AuthRequired(db, h.JWT, nil))
	authed.GET("/auth/me", h.Me)
	authed.POST("/chat/send", h.SendMessage)
	authed.GET("/chat/sessions", h.ListSessions)
	authed.PUT("/chat/sessions/:session_id/end", h.EndSession)
	authed.GET("/chat/history", h.History)

	adminGroup := authed.Group("/admin")
	adminGroup.Use(middleware.AdminRequired())
	adminGroup.GET("/stats", h.AdminStats)
	adminGroup.PUT("/users/:user_id/toggle-active", h.AdminToggleUserActive)
	adminGroup.DELETE("/messages/:message_id", h.AdminDeleteMessage)

	return h, r, db
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func register(t *testing.T, r *gin.Engine, username, email string) {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/auth/register", "", gin.H{
		"username": username,
		"email":    email,
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func login(t *testing.T, r *gin.Engine, username string) string {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/auth/login", "", gin.H{
		"username": username,
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.AccessToken)
	return resp.Data.AccessToken
}

func TestRegister_DuplicatesRejected(t *testing.T) {
	_, r, _ := setup(t)

	register(t, r, "alice", "alice@example.com")

	w := doJSON(t, r, http.MethodPost, "/auth/register", "", gin.H{
		"username": "alice",
		"email":    "other@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/auth/register", "", gin.H{
		"username": "alice2",
		"email":    "alice@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegister_NeverLeaksHash(t *testing.T) {
	_, r, _ := setup(t)

	w := doJSON(t, r, http.MethodPost, "/auth/register", "", gin.H{
		"username": "bob",
		"email":    "bob@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	require.NotContains(t, w.Body.String(), "password")
	require.NotContains(t, w.Body.String(), "hash")
}

func TestLogin_WrongPassword(t *testing.T) {
	_, r, _ := setup(t)
	register(t, r, "carol", "carol@example.com")

	w := doJSON(t, r, http.MethodPost, "/auth/login", "", gin.H{
		"username": "carol",
		"password": "not-the-password",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_DeactivatedUserTokenRejected(t *testing.T) {
	_, r, db := setup(t)
	register(t, r, "dave", "dave@example.com")
	token := login(t, r, "dave")

	w := doJSON(t, r, http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, db.Model(&models.User{}).Where("username = ?", "dave").Update("is_active", false).Error)

	w = doJSON(t, r, http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestChatSend_CreatesSessionAndReplies(t *testing.T) {
	_, r, _ := setup(t)
	register(t, r, "erin", "erin@example.com")
	token := login(t, r, "erin")

	w := doJSON(t, r, http.MethodPost, "/chat/send", token, gin.H{"message": "hello there"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data struct {
			MessageID   uint64 `json:"message_id"`
			UserMessage string `json:"user_message"`
			BotResponse string `json:"bot_response"`
			SessionID   string `json:"session_id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotZero(t, resp.Data.MessageID)
	require.Equal(t, "hello there", resp.Data.UserMessage)
	require.NotEmpty(t, resp.Data.BotResponse)
	require.NotEmpty(t, resp.Data.SessionID)

	// reuse the session: no new session may appear
	w = doJSON(t, r, http.MethodPost, "/chat/send", token, gin.H{
		"message":    "and again",
		"session_id": resp.Data.SessionID,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/chat/sessions", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Data struct {
			Sessions []json.RawMessage `json:"sessions"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Data.Sessions, 1)
}

func TestChatSend_ForeignSessionIs404(t *testing.T) {
	_, r, _ := setup(t)
	register(t, r, "frank", "frank@example.com")
	register(t, r, "grace", "grace@example.com")
	frankTok := login(t, r, "frank")
	graceTok := login(t, r, "grace")

	w := doJSON(t, r, http.MethodPost, "/chat/send", frankTok, gin.H{"message": "mine"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			SessionID string `json:"session_id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	w = doJSON(t, r, http.MethodPost, "/chat/send", graceTok, gin.H{
		"message":    "not mine",
		"session_id": resp.Data.SessionID,
	})
	require.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodPut, "/chat/sessions/"+resp.Data.SessionID+"/end", graceTok, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdmin_GateAndLockoutGuard(t *testing.T) {
	_, r, db := setup(t)
	register(t, r, "heidi", "heidi@example.com")
	token := login(t, r, "heidi")

	w := doJSON(t, r, http.MethodGet, "/admin/stats", token, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	require.NoError(t, db.Model(&models.User{}).Where("username = ?", "heidi").Update("is_admin", true).Error)

	w = doJSON(t, r, http.MethodGet, "/admin/stats", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var heidi models.User
	require.NoError(t, db.Where("username = ?", "heidi").First(&heidi).Error)

	// an active admin cannot be deactivated
	w = doJSON(t, r, http.MethodPut, fmt.Sprintf("/admin/users/%d/toggle-active", heidi.ID), token, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodDelete, "/admin/messages/9999", token, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}
